package model

import "time"

// Account represents a registered user as stored in the `accounts`
// table. Each field corresponds to a column in the database. The
// json tags are omitted here because these structs are used by the
// repository layer; handlers define separate response types with
// appropriate JSON tags.
//
// Fields:
//  ID           – primary key identifier of the account.
//  Email        – unique email address, stored lower-cased.
//  PasswordHash – bcrypt hashed password.
//  CreatedAt    – timestamp of creation.
//  UpdatedAt    – timestamp of last update.
type Account struct {
	ID           uint64    // accounts.id
	Email        string    // accounts.email
	PasswordHash string    // accounts.password_hash
	CreatedAt    time.Time // accounts.created_at
	UpdatedAt    time.Time // accounts.updated_at
}
