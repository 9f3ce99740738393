package handler

import (
	"context" // provides context with cancellation for DB calls
	"errors"  // sentinel error matching
	"log"     // server-side logging of internal failures
	"net/http"
	"strings"
	"time" // timeouts for DB calls

	"github.com/labstack/echo/v4" // Echo framework for HTTP routing

	"github.com/iliyamo/churn-prediction-api/internal/config"
	"github.com/iliyamo/churn-prediction-api/internal/model"
	"github.com/iliyamo/churn-prediction-api/internal/repository"
	"github.com/iliyamo/churn-prediction-api/internal/utils"
)

// AccountStore is the credential-store surface the auth handlers need.
// *repository.AccountRepo satisfies it; tests substitute in-memory
// fakes.
type AccountStore interface {
	Create(ctx context.Context, email, password string, cost int) (uint64, error)
	GetByEmail(ctx context.Context, email string) (model.Account, error)
	GetByID(ctx context.Context, id uint64) (model.Account, error)
}

// AuthHandler bundles dependencies for the auth endpoints.
type AuthHandler struct {
	Cfg      config.Config
	Accounts AccountStore
	Datasets DatasetStore // profile endpoint lists the account's datasets
}

func NewAuthHandler(cfg config.Config, a AccountStore, d DatasetStore) *AuthHandler {
	return &AuthHandler{Cfg: cfg, Accounts: a, Datasets: d}
}

// ----- DTOs -----

type credentialsReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type tokenResp struct {
	Token string `json:"token"`
}

type profileResp struct {
	ID        uint64                 `json:"id"`
	Email     string                 `json:"email"`
	CreatedAt time.Time              `json:"created_at"`
	Datasets  []model.DatasetSummary `json:"datasets"`
}

// Signup: create the account and return an identity token immediately.
func (h *AuthHandler) Signup(c echo.Context) error {
	var req credentialsReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email/password required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	id, err := h.Accounts.Create(ctx, req.Email, req.Password, h.Cfg.BcryptCost)
	if err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "email already registered"})
		}
		log.Printf("signup: create account: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create account failed"})
	}

	tok, err := utils.NewIdentityToken(h.Cfg.JWTSecret, id)
	if err != nil {
		log.Printf("signup: issue token: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue token failed"})
	}
	return c.JSON(http.StatusOK, tokenResp{Token: tok.Token})
}

// Login: verify credentials and return a fresh identity token. NotFound
// and BadPassword both surface as the same generic 401 so the endpoint
// cannot be used to enumerate registered emails.
func (h *AuthHandler) Login(c echo.Context) error {
	var req credentialsReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email/password required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	a, err := h.Accounts.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
		}
		log.Printf("login: query account: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if !utils.VerifyPassword(a.PasswordHash, req.Password) {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	}

	tok, err := utils.NewIdentityToken(h.Cfg.JWTSecret, a.ID)
	if err != nil {
		log.Printf("login: issue token: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue token failed"})
	}
	return c.JSON(http.StatusOK, tokenResp{Token: tok.Token})
}

// Me returns the authenticated account's profile with its datasets.
func (h *AuthHandler) Me(c echo.Context) error {
	id, ok := accountID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	a, err := h.Accounts.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			// Token subject no longer exists; treat as unauthorized.
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
		}
		log.Printf("me: load account: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load account failed"})
	}
	datasets, err := h.Datasets.ListByOwner(ctx, id)
	if err != nil {
		log.Printf("me: list datasets: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list datasets failed"})
	}

	return c.JSON(http.StatusOK, profileResp{
		ID:        a.ID,
		Email:     a.Email,
		CreatedAt: a.CreatedAt,
		Datasets:  datasets,
	})
}

// accountID extracts the verified account ID stored in the context by
// the auth middleware.
func accountID(c echo.Context) (uint64, bool) {
	id, ok := c.Get("account_id").(uint64)
	return id, ok
}
