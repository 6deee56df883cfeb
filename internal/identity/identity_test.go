package identity

import (
	"context"
	"errors"
	"testing"

	"firebase.google.com/go/v4/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bluestock/company-backend/internal/config"
)

type fakeAuthClient struct {
	created  *auth.UserToCreate
	users    map[string]*auth.UserRecord
	createFn func() (*auth.UserRecord, error)
}

func (f *fakeAuthClient) CreateUser(_ context.Context, user *auth.UserToCreate) (*auth.UserRecord, error) {
	f.created = user
	return f.createFn()
}

func (f *fakeAuthClient) GetUserByEmail(_ context.Context, email string) (*auth.UserRecord, error) {
	if u, ok := f.users[email]; ok {
		return u, nil
	}
	return nil, errors.New("user not found")
}

func TestDisabled_AlwaysErrDisabled(t *testing.T) {
	var p Provider = Disabled{}

	_, err := p.CreateAccount(context.Background(), Account{Email: "a@acme.io"})
	assert.ErrorIs(t, err, ErrDisabled)

	_, err = p.EmailVerified(context.Background(), "a@acme.io")
	assert.ErrorIs(t, err, ErrDisabled)
	assert.Equal(t, config.IdentityDisabled, p.Mode())
}

func TestNew_DisabledMode(t *testing.T) {
	p, err := New(context.Background(), &config.Config{IdentityMode: config.IdentityDisabled})
	require.NoError(t, err)
	assert.IsType(t, Disabled{}, p)
}

func TestFirebase_CreateAccountReturnsUID(t *testing.T) {
	client := &fakeAuthClient{createFn: func() (*auth.UserRecord, error) {
		return &auth.UserRecord{UserInfo: &auth.UserInfo{UID: "fb-uid-1"}}, nil
	}}
	f := &Firebase{client: client}

	uid, err := f.CreateAccount(context.Background(), Account{Email: "a@acme.io", Password: "Test1234!", Phone: "+15551234567"})

	require.NoError(t, err)
	assert.Equal(t, "fb-uid-1", uid)
	assert.NotNil(t, client.created)
}

func TestFirebase_CreateAccountError(t *testing.T) {
	f := &Firebase{client: &fakeAuthClient{createFn: func() (*auth.UserRecord, error) {
		return nil, errors.New("EMAIL_EXISTS")
	}}}

	_, err := f.CreateAccount(context.Background(), Account{Email: "a@acme.io"})
	assert.Error(t, err)
}

func TestFirebase_EmailVerified(t *testing.T) {
	f := &Firebase{client: &fakeAuthClient{users: map[string]*auth.UserRecord{
		"a@acme.io": {UserInfo: &auth.UserInfo{UID: "x"}, EmailVerified: true},
	}}}

	ok, err := f.EmailVerified(context.Background(), "a@acme.io")
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = f.EmailVerified(context.Background(), "missing@acme.io")
	assert.Error(t, err)
}
