package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/nans-shop/apiserver/internal/auth"
	"github.com/nans-shop/apiserver/internal/store"
	"github.com/nans-shop/apiserver/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeAccountRepo is an in-memory AccountRepository keyed by variant and
// normalized email. It enforces email uniqueness the way the database
// constraint does.
type fakeAccountRepo struct {
	accounts map[types.AccountVariant]map[string]types.Account
	failWith error
}

func newFakeAccountRepo() *fakeAccountRepo {
	return &fakeAccountRepo{accounts: map[types.AccountVariant]map[string]types.Account{
		types.AccountUser:  {},
		types.AccountAdmin: {},
	}}
}

func (f *fakeAccountRepo) GetByEmail(_ context.Context, variant types.AccountVariant, email string) (types.Account, error) {
	if f.failWith != nil {
		return types.Account{}, f.failWith
	}
	account, ok := f.accounts[variant][email]
	if !ok {
		return types.Account{}, store.ErrNotFound
	}
	return account, nil
}

func (f *fakeAccountRepo) GetByID(_ context.Context, variant types.AccountVariant, id string) (types.Account, error) {
	if f.failWith != nil {
		return types.Account{}, f.failWith
	}
	for _, account := range f.accounts[variant] {
		if account.ID == id {
			return account, nil
		}
	}
	return types.Account{}, store.ErrNotFound
}

func (f *fakeAccountRepo) Create(_ context.Context, variant types.AccountVariant, account types.Account) (types.Account, error) {
	if f.failWith != nil {
		return types.Account{}, f.failWith
	}
	if _, exists := f.accounts[variant][account.Email]; exists {
		return types.Account{}, store.ErrDuplicate
	}
	account.ID = uuid.NewString()
	account.Variant = variant
	account.CreatedAt = time.Now()
	account.UpdatedAt = account.CreatedAt
	f.accounts[variant][account.Email] = account
	return account, nil
}

func newTestAccountService(t *testing.T, repo AccountRepository) *AccountService {
	t.Helper()
	tokens, err := auth.NewTokenService("test_secret", time.Hour)
	require.NoError(t, err)
	return NewAccountService(repo, tokens)
}

func TestRegister_Success(t *testing.T) {
	repo := newFakeAccountRepo()
	svc := newTestAccountService(t, repo)

	account, err := svc.Register(context.Background(), "Jane", "Jane@Ex.com", "Passw0rd!")
	require.NoError(t, err)

	assert.NotEmpty(t, account.ID)
	assert.Equal(t, "jane@ex.com", account.Email, "email is normalized before persisting")
	assert.NotEqual(t, "Passw0rd!", account.PasswordHash)
	assert.True(t, auth.VerifyPassword("Passw0rd!", account.PasswordHash))
}

func TestRegister_DuplicateEmail(t *testing.T) {
	repo := newFakeAccountRepo()
	svc := newTestAccountService(t, repo)

	_, err := svc.Register(context.Background(), "Jane", "Jane@Ex.com", "Passw0rd!")
	require.NoError(t, err)

	// Same normalized email, different case.
	_, err = svc.Register(context.Background(), "Jane", "jane@ex.com", "Passw0rd!")
	assert.ErrorIs(t, err, ErrDuplicateAccount)

	assert.Len(t, repo.accounts[types.AccountUser], 1, "the store ends with exactly one account for the email")
}

func TestRegister_InsertRaceSurfacesAsDuplicate(t *testing.T) {
	// Simulates losing the check-then-insert race: the lookup misses but
	// the insert hits the unique constraint.
	repo := newFakeAccountRepo()
	svc := newTestAccountService(t, repo)

	_, err := svc.Register(context.Background(), "Jane", "jane@ex.com", "Passw0rd!")
	require.NoError(t, err)

	raced := &racingAccountRepo{fakeAccountRepo: repo}
	svcRaced := newTestAccountService(t, raced)
	_, err = svcRaced.Register(context.Background(), "Jane", "jane@ex.com", "Passw0rd!")
	assert.ErrorIs(t, err, ErrDuplicateAccount)
}

// racingAccountRepo reports every email as absent so the pre-check always
// passes, leaving duplicate detection to the insert.
type racingAccountRepo struct {
	*fakeAccountRepo
}

func (r *racingAccountRepo) GetByEmail(context.Context, types.AccountVariant, string) (types.Account, error) {
	return types.Account{}, store.ErrNotFound
}

func TestRegister_Validation(t *testing.T) {
	repo := newFakeAccountRepo()
	svc := newTestAccountService(t, repo)

	tests := []struct {
		name     string
		userName string
		email    string
		password string
		message  string
	}{
		{"missing name", "", "jane@ex.com", "Passw0rd!", "name is required"},
		{"missing email", "Jane", "", "Passw0rd!", "email is required"},
		{"missing password", "Jane", "jane@ex.com", "", "password is required"},
		{"bad email", "Jane", "not-an-email", "Passw0rd!", "invalid email address"},
		{"weak password", "Jane", "jane@ex.com", "password", "password must contain at least one uppercase letter"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Register(context.Background(), tt.userName, tt.email, tt.password)
			var validationErr *ValidationError
			require.ErrorAs(t, err, &validationErr)
			assert.Equal(t, tt.message, validationErr.Message)
		})
	}

	assert.Empty(t, repo.accounts[types.AccountUser], "no account is persisted on validation failure")
}

func TestRegister_StoreFailure(t *testing.T) {
	repo := newFakeAccountRepo()
	repo.failWith = errors.New("connection refused")
	svc := newTestAccountService(t, repo)

	_, err := svc.Register(context.Background(), "Jane", "jane@ex.com", "Passw0rd!")
	require.Error(t, err)
	var validationErr *ValidationError
	assert.False(t, errors.As(err, &validationErr))
	assert.NotErrorIs(t, err, ErrDuplicateAccount)
}

func TestLogin_IndistinguishableFailures(t *testing.T) {
	repo := newFakeAccountRepo()
	svc := newTestAccountService(t, repo)

	_, err := svc.Register(context.Background(), "Jane", "jane@ex.com", "Passw0rd!")
	require.NoError(t, err)

	_, _, errUnknown := svc.Login(context.Background(), types.AccountUser, "nobody@ex.com", "Passw0rd!")
	_, _, errWrongPass := svc.Login(context.Background(), types.AccountUser, "jane@ex.com", "wrong")

	assert.ErrorIs(t, errUnknown, ErrInvalidCredentials)
	assert.ErrorIs(t, errWrongPass, ErrInvalidCredentials)
	assert.Equal(t, errUnknown.Error(), errWrongPass.Error())
}

func TestLogin_UserTokenHasNoRole(t *testing.T) {
	repo := newFakeAccountRepo()
	svc := newTestAccountService(t, repo)

	registered, err := svc.Register(context.Background(), "Jane", "jane@ex.com", "Passw0rd!")
	require.NoError(t, err)

	account, token, err := svc.Login(context.Background(), types.AccountUser, "Jane@Ex.com", "Passw0rd!")
	require.NoError(t, err)
	assert.Equal(t, registered.ID, account.ID)

	tokens, err := auth.NewTokenService("test_secret", time.Hour)
	require.NoError(t, err)
	claims, err := tokens.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, registered.ID, claims.ID)
	assert.Empty(t, claims.Role)
}

func TestLogin_AdminTokenCarriesRole(t *testing.T) {
	repo := newFakeAccountRepo()
	svc := newTestAccountService(t, repo)

	hashed, err := auth.HashPassword("Adm1nPass!")
	require.NoError(t, err)
	admin, err := repo.Create(context.Background(), types.AccountAdmin, types.Account{
		Name:         "Root",
		Email:        "admin@ex.com",
		PasswordHash: hashed,
	})
	require.NoError(t, err)

	account, token, err := svc.Login(context.Background(), types.AccountAdmin, "admin@ex.com", "Adm1nPass!")
	require.NoError(t, err)
	assert.Equal(t, admin.ID, account.ID)

	tokens, err := auth.NewTokenService("test_secret", time.Hour)
	require.NoError(t, err)
	claims, err := tokens.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, admin.ID, claims.ID)
	assert.Equal(t, types.RoleAdmin, claims.Role)
}

func TestLogin_VariantsAreNeverCrossChecked(t *testing.T) {
	repo := newFakeAccountRepo()
	svc := newTestAccountService(t, repo)

	_, err := svc.Register(context.Background(), "Jane", "jane@ex.com", "Passw0rd!")
	require.NoError(t, err)

	_, _, err = svc.Login(context.Background(), types.AccountAdmin, "jane@ex.com", "Passw0rd!")
	assert.ErrorIs(t, err, ErrInvalidCredentials, "a user credential must not log in through the admin flow")
}
