package utils // package utils provides helper functions for identity tokens and password hashing

import (
	"errors"  // sentinel errors and errors.Is matching
	"strconv" // parse numeric subject claims encoded as strings
	"time"    // expiry computation

	"github.com/golang-jwt/jwt/v5" // JWT library for creating and verifying signed tokens
)

// TokenTTL is the validity window of an identity token. It is a fixed
// policy constant, not user-configurable: a token moves from valid to
// expired exactly seven days after issuance and there is no revocation
// mechanism.
const TokenTTL = 7 * 24 * time.Hour

// Verification failures are reported through one of these sentinels so
// callers can distinguish the three ways a token is rejected without
// inspecting library error text.
var (
	ErrTokenMalformed = errors.New("token malformed")
	ErrTokenSignature = errors.New("token signature invalid")
	ErrTokenExpired   = errors.New("token expired")
)

// IdentityToken is a signed JWT proving an authenticated account, along
// with its expiry. The Token field contains the serialized JWT string
// that clients send back in the Authorization header on every
// subsequent call.
type IdentityToken struct {
	Token string    // the serialized JWT string
	Exp   time.Time // the UTC expiration time
}

// NewIdentityToken builds and signs an HS256 JWT for an account. The
// claims are the standard subject (sub), expiration (exp) and issued at
// (iat). Given a fixed secret and clock the output is deterministic;
// otherwise it varies only through the timestamps.
func NewIdentityToken(secret string, accountID uint64) (IdentityToken, error) {
	now := time.Now().UTC()
	exp := now.Add(TokenTTL)
	claims := jwt.MapClaims{
		"sub": accountID,
		"exp": exp.Unix(),
		"iat": now.Unix(),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString([]byte(secret))
	if err != nil {
		return IdentityToken{}, err
	}
	return IdentityToken{Token: signed, Exp: exp}, nil
}

// VerifyIdentityToken parses and validates a serialized token and
// returns the account ID carried in the subject claim. It fails with
// ErrTokenMalformed if the string cannot be parsed as a JWT (or lacks a
// usable subject), ErrTokenSignature if the signature does not match
// the secret, and ErrTokenExpired if the embedded expiry has passed.
// No other code path in the application accepts an unverified subject.
func VerifyIdentityToken(secret, raw string) (uint64, error) {
	tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		// Reject tokens signed with anything other than HMAC; the
		// keyfunc runs before signature verification.
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrTokenSignature
		}
		return []byte(secret), nil
	})
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return 0, ErrTokenExpired
		case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, ErrTokenSignature):
			return 0, ErrTokenSignature
		default:
			return 0, ErrTokenMalformed
		}
	}
	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return 0, ErrTokenMalformed
	}
	// JWT numbers decode as float64; tolerate string-encoded subjects
	// since some issuers produce them.
	switch sub := claims["sub"].(type) {
	case float64:
		return uint64(sub), nil
	case string:
		id, perr := strconv.ParseUint(sub, 10, 64)
		if perr != nil {
			return 0, ErrTokenMalformed
		}
		return id, nil
	default:
		return 0, ErrTokenMalformed
	}
}
