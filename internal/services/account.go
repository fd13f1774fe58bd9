package services

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"github.com/nans-shop/apiserver/internal/auth"
	"github.com/nans-shop/apiserver/internal/store"
	"github.com/nans-shop/apiserver/types"
)

// ErrInvalidCredentials is returned for both unknown email and wrong
// password so that login failures cannot be used to enumerate accounts.
var ErrInvalidCredentials = errors.New("invalid credentials")

// ErrDuplicateAccount is returned when the registration email is already
// taken, whether caught by the pre-check or by the insert itself.
var ErrDuplicateAccount = errors.New("account already exists")

// ValidationError reports a missing or malformed input field, including
// password policy violations. The message names the rule broken.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// NormalizeEmail returns the trimmed, lowercased form of the address used
// as the uniqueness and lookup key.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// AccountRepository defines persistence operations for accounts.
type AccountRepository interface {
	GetByEmail(ctx context.Context, variant types.AccountVariant, email string) (types.Account, error)
	GetByID(ctx context.Context, variant types.AccountVariant, id string) (types.Account, error)
	Create(ctx context.Context, variant types.AccountVariant, account types.Account) (types.Account, error)
}

// AccountService encapsulates registration and login.
type AccountService struct {
	repo   AccountRepository
	tokens *auth.TokenService
}

func NewAccountService(repo AccountRepository, tokens *auth.TokenService) *AccountService {
	return &AccountService{repo: repo, tokens: tokens}
}

// Register validates and persists a new user credential record. It never
// issues a token; registration does not imply login.
func (s *AccountService) Register(ctx context.Context, name, email, password string) (types.Account, error) {
	name = strings.TrimSpace(name)
	email = NormalizeEmail(email)

	switch {
	case name == "":
		return types.Account{}, &ValidationError{Message: "name is required"}
	case email == "":
		return types.Account{}, &ValidationError{Message: "email is required"}
	case password == "":
		return types.Account{}, &ValidationError{Message: "password is required"}
	}
	if !emailPattern.MatchString(email) {
		return types.Account{}, &ValidationError{Message: "invalid email address"}
	}

	// Fast-path duplicate check before the expensive hash. The unique
	// constraint on insert remains the authority; two concurrent
	// registrations can both pass this lookup.
	if _, err := s.repo.GetByEmail(ctx, types.AccountUser, email); err == nil {
		return types.Account{}, ErrDuplicateAccount
	} else if !errors.Is(err, store.ErrNotFound) {
		return types.Account{}, err
	}

	if err := auth.ValidatePassword(password); err != nil {
		return types.Account{}, &ValidationError{Message: err.Error()}
	}

	hashed, err := auth.HashPassword(password)
	if err != nil {
		return types.Account{}, err
	}

	account, err := s.repo.Create(ctx, types.AccountUser, types.Account{
		Name:         name,
		Email:        email,
		PasswordHash: hashed,
	})
	if err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return types.Account{}, ErrDuplicateAccount
		}
		return types.Account{}, err
	}
	return account, nil
}

// Login authenticates an account of the given variant and issues a token
// on success. Admin tokens carry the admin role claim; user tokens carry
// no role claim.
func (s *AccountService) Login(ctx context.Context, variant types.AccountVariant, email, password string) (types.Account, string, error) {
	email = NormalizeEmail(email)
	if email == "" || password == "" {
		return types.Account{}, "", ErrInvalidCredentials
	}

	account, err := s.repo.GetByEmail(ctx, variant, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.Account{}, "", ErrInvalidCredentials
		}
		return types.Account{}, "", err
	}

	if !auth.VerifyPassword(password, account.PasswordHash) {
		return types.Account{}, "", ErrInvalidCredentials
	}

	role := ""
	if variant == types.AccountAdmin {
		role = types.RoleAdmin
	}
	token, err := s.tokens.Issue(account.ID, role)
	if err != nil {
		return types.Account{}, "", err
	}
	return account, token, nil
}

// GetByID loads an account of the given variant.
func (s *AccountService) GetByID(ctx context.Context, variant types.AccountVariant, id string) (types.Account, error) {
	return s.repo.GetByID(ctx, variant, id)
}
