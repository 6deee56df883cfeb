package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/bluestock/company-backend/internal/config"
	"github.com/bluestock/company-backend/internal/identity"
	"github.com/bluestock/company-backend/internal/pkg/apperror"
)

type mockIdentity struct {
	mock.Mock
}

func (m *mockIdentity) Mode() config.IdentityMode { return config.IdentityFirebase }

func (m *mockIdentity) CreateAccount(ctx context.Context, acc identity.Account) (string, error) {
	args := m.Called(ctx, acc)
	return args.String(0), args.Error(1)
}

func (m *mockIdentity) EmailVerified(ctx context.Context, email string) (bool, error) {
	args := m.Called(ctx, email)
	return args.Bool(0), args.Error(1)
}

type authFixture struct {
	store    *memStore
	svc      *AuthService
	tokens   *TokenManager
	reporter *recordingReporter
}

func newAuthFixture(t *testing.T, provider identity.Provider) *authFixture {
	t.Helper()
	store := newMemStore()
	tokens := NewTokenManager("test-secret-test-secret-test-secret", time.Hour)
	reporter := &recordingReporter{}
	svc, err := NewAuthService(userStore{store}, tokens, provider, reporter, nullLogger(), WithBcryptCost(bcrypt.MinCost))
	require.NoError(t, err)
	return &authFixture{store: store, svc: svc, tokens: tokens, reporter: reporter}
}

func validRegisterInput() RegisterInput {
	return RegisterInput{
		Email:    "Owner@Example.com",
		Password: "Secret123",
		FullName: "Jane Owner",
		Gender:   "f",
		Phone:    "+1 555 123 4567",
	}
}

func TestAuthService_RegisterLoginRoundTrip(t *testing.T) {
	f := newAuthFixture(t, identity.Disabled{})
	ctx := context.Background()

	reg, err := f.svc.Register(ctx, validRegisterInput())
	require.NoError(t, err)
	assert.Equal(t, "owner@example.com", reg.User.Email)
	assert.Equal(t, "+15551234567", reg.User.Phone)
	require.NotNil(t, reg.User.Gender)
	assert.Equal(t, "female", *reg.User.Gender)

	// Профиль компании создаётся вместе с пользователем.
	company, err := companyStore{f.store}.GetByOwner(ctx, reg.User.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, company.SetupProgress)

	login, err := f.svc.Login(ctx, "owner@example.com", "Secret123")
	require.NoError(t, err)

	userID, claims, err := f.tokens.Parse(login.Token.Token)
	require.NoError(t, err)
	assert.Equal(t, reg.User.ID, userID)
	assert.Equal(t, "owner@example.com", claims.Email)

	stored, ok := f.store.user(reg.User.ID)
	require.True(t, ok)
	assert.NotNil(t, stored.LastLoginAt)
}

func TestAuthService_RegisterValidation(t *testing.T) {
	f := newAuthFixture(t, identity.Disabled{})

	in := validRegisterInput()
	in.Email = "not-an-email"
	in.Password = "short"
	in.Phone = "5551234567"

	_, err := f.svc.Register(context.Background(), in)
	require.Error(t, err)

	var appErr *apperror.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, apperror.ErrCodeValidation, appErr.Code)

	fields := make([]string, 0, len(appErr.Fields))
	for _, fe := range appErr.Fields {
		fields = append(fields, fe.Field)
	}
	assert.ElementsMatch(t, []string{"email", "password", "mobile_no"}, fields)
}

func TestAuthService_RegisterDuplicate(t *testing.T) {
	f := newAuthFixture(t, identity.Disabled{})
	ctx := context.Background()

	_, err := f.svc.Register(ctx, validRegisterInput())
	require.NoError(t, err)

	samePhone := validRegisterInput()
	samePhone.Email = "other@example.com"
	_, err = f.svc.Register(ctx, samePhone)
	assert.ErrorIs(t, err, apperror.ErrAlreadyExists)

	sameEmail := validRegisterInput()
	sameEmail.Phone = "+15557654321"
	_, err = f.svc.Register(ctx, sameEmail)
	assert.ErrorIs(t, err, apperror.ErrAlreadyExists)
}

func TestAuthService_ConcurrentRegisterOnlyOneWins(t *testing.T) {
	f := newAuthFixture(t, identity.Disabled{})

	const n = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		conflicts int
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.Register(context.Background(), validRegisterInput())
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded++
			case errors.Is(err, apperror.ErrAlreadyExists):
				conflicts++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, succeeded)
	assert.Equal(t, n-1, conflicts)
}

func TestAuthService_RegisterIdentityFailureIsNotFatal(t *testing.T) {
	provider := &mockIdentity{}
	provider.On("CreateAccount", mock.Anything, mock.AnythingOfType("identity.Account")).
		Return("", errors.New("firebase unavailable"))
	f := newAuthFixture(t, provider)

	reg, err := f.svc.Register(context.Background(), validRegisterInput())
	require.NoError(t, err)
	assert.Nil(t, reg.User.ExternalID)
	assert.Equal(t, 1, f.reporter.count())
	provider.AssertExpectations(t)
}

func TestAuthService_RegisterStoresExternalID(t *testing.T) {
	provider := &mockIdentity{}
	provider.On("CreateAccount", mock.Anything, mock.MatchedBy(func(acc identity.Account) bool {
		return acc.Email == "owner@example.com" && acc.Phone == "+15551234567"
	})).Return("fb-uid-1", nil)
	f := newAuthFixture(t, provider)

	reg, err := f.svc.Register(context.Background(), validRegisterInput())
	require.NoError(t, err)

	stored, _ := f.store.user(reg.User.ID)
	require.NotNil(t, stored.ExternalID)
	assert.Equal(t, "fb-uid-1", *stored.ExternalID)
	assert.Zero(t, f.reporter.count())
}

func TestAuthService_LoginInvalidCredentials(t *testing.T) {
	f := newAuthFixture(t, identity.Disabled{})
	ctx := context.Background()
	_, err := f.svc.Register(ctx, validRegisterInput())
	require.NoError(t, err)

	_, err = f.svc.Login(ctx, "owner@example.com", "Wrong1234")
	assert.ErrorIs(t, err, apperror.ErrInvalidCredentials)

	_, err = f.svc.Login(ctx, "nobody@example.com", "Secret123")
	assert.ErrorIs(t, err, apperror.ErrInvalidCredentials)
}

func TestAuthService_Me(t *testing.T) {
	f := newAuthFixture(t, identity.Disabled{})
	reg, err := f.svc.Register(context.Background(), validRegisterInput())
	require.NoError(t, err)

	me, err := f.svc.Me(context.Background(), reg.User.ID)
	require.NoError(t, err)
	assert.Equal(t, "Jane Owner", me.FullName)
}

func TestAuthService_VerifyEmail(t *testing.T) {
	t.Run("disabled provider", func(t *testing.T) {
		f := newAuthFixture(t, identity.Disabled{})
		reg, err := f.svc.Register(context.Background(), validRegisterInput())
		require.NoError(t, err)

		_, err = f.svc.VerifyEmail(context.Background(), reg.User.ID)
		assert.Equal(t, apperror.ErrCodeExternalService, apperror.CodeOf(err))
	})

	t.Run("verified at provider", func(t *testing.T) {
		provider := &mockIdentity{}
		provider.On("CreateAccount", mock.Anything, mock.Anything).Return("fb-uid", nil)
		provider.On("EmailVerified", mock.Anything, "owner@example.com").Return(true, nil).Once()
		f := newAuthFixture(t, provider)
		reg, err := f.svc.Register(context.Background(), validRegisterInput())
		require.NoError(t, err)

		user, err := f.svc.VerifyEmail(context.Background(), reg.User.ID)
		require.NoError(t, err)
		assert.True(t, user.EmailVerified)

		// Повторный вызов не обращается к провайдеру.
		_, err = f.svc.VerifyEmail(context.Background(), reg.User.ID)
		require.NoError(t, err)
		provider.AssertExpectations(t)
	})

	t.Run("not yet verified", func(t *testing.T) {
		provider := &mockIdentity{}
		provider.On("CreateAccount", mock.Anything, mock.Anything).Return("fb-uid", nil)
		provider.On("EmailVerified", mock.Anything, mock.Anything).Return(false, nil)
		f := newAuthFixture(t, provider)
		reg, err := f.svc.Register(context.Background(), validRegisterInput())
		require.NoError(t, err)

		_, err = f.svc.VerifyEmail(context.Background(), reg.User.ID)
		assert.True(t, apperror.IsValidation(err))
	})
}
