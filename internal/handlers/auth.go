package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/nans-shop/apiserver/internal/services"
	"github.com/nans-shop/apiserver/types"
)

// AuthHandler provides registration and login endpoints.
type AuthHandler struct {
	accounts *services.AccountService
}

// NewAuthHandler constructs an AuthHandler with the provided dependencies.
func NewAuthHandler(accounts *services.AccountService) *AuthHandler {
	return &AuthHandler{accounts: accounts}
}

// AuthRouter registers auth routes on the given router.
func AuthRouter(r chi.Router, accounts *services.AccountService) {
	handler := NewAuthHandler(accounts)

	r.Post("/register", handler.Register)
	r.Post("/login", handler.Login)
	r.Post("/admin/login", handler.AdminLogin)
}

type RegisterRequest struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type RegisterResponse struct {
	Message string `json:"message"`
}

type LoginResponse struct {
	Token   string `json:"token"`
	ID      string `json:"id"`
	Message string `json:"message,omitempty"`
}

// Register creates a new user account. No token is issued; registration
// does not imply login.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := decodeValidate(r.Body, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if _, err := h.accounts.Register(r.Context(), req.Name, req.Email, req.Password); err != nil {
		var validationErr *services.ValidationError
		switch {
		case errors.As(err, &validationErr):
			writeError(w, http.StatusBadRequest, validationErr.Message)
		case errors.Is(err, services.ErrDuplicateAccount):
			writeError(w, http.StatusConflict, "user already exists")
		default:
			writeError(w, http.StatusInternalServerError, "failed to register user")
		}
		return
	}

	writeJSON(w, http.StatusCreated, RegisterResponse{Message: "user registered successfully"})
}

// Login authenticates a user and returns a token without a role claim.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	h.login(w, r, types.AccountUser)
}

// AdminLogin authenticates an admin and returns a token carrying the
// admin role claim.
func (h *AuthHandler) AdminLogin(w http.ResponseWriter, r *http.Request) {
	h.login(w, r, types.AccountAdmin)
}

func (h *AuthHandler) login(w http.ResponseWriter, r *http.Request, variant types.AccountVariant) {
	var req LoginRequest
	if err := decodeValidate(r.Body, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	account, token, err := h.accounts.Login(r.Context(), variant, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) {
			writeError(w, http.StatusUnauthorized, "invalid credentials")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to authenticate")
		return
	}

	resp := LoginResponse{Token: token, ID: account.ID}
	if variant == types.AccountAdmin {
		resp.Message = "admin login successful"
	}
	writeJSON(w, http.StatusOK, resp)
}
