package identity

import (
	"context"
	"fmt"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"google.golang.org/api/option"

	"github.com/bluestock/company-backend/internal/config"
)

// authClient - часть *auth.Client, которой пользуется провайдер.
type authClient interface {
	CreateUser(ctx context.Context, user *auth.UserToCreate) (*auth.UserRecord, error)
	GetUserByEmail(ctx context.Context, email string) (*auth.UserRecord, error)
}

// Firebase создаёт учётные записи в Firebase Auth.
type Firebase struct {
	client authClient
}

// NewFirebase подключается к Firebase с сервисным аккаунтом из файла.
func NewFirebase(ctx context.Context, projectID, credentialsFile string) (*Firebase, error) {
	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: projectID}, option.WithCredentialsFile(credentialsFile))
	if err != nil {
		return nil, fmt.Errorf("identity: init firebase app: %w", err)
	}

	client, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("identity: init firebase auth: %w", err)
	}

	return &Firebase{client: client}, nil
}

func (f *Firebase) Mode() config.IdentityMode { return config.IdentityFirebase }

func (f *Firebase) CreateAccount(ctx context.Context, acc Account) (string, error) {
	params := (&auth.UserToCreate{}).
		Email(acc.Email).
		Password(acc.Password).
		EmailVerified(false)
	if acc.Phone != "" {
		params = params.PhoneNumber(acc.Phone)
	}
	if acc.DisplayName != "" {
		params = params.DisplayName(acc.DisplayName)
	}

	user, err := f.client.CreateUser(ctx, params)
	if err != nil {
		return "", fmt.Errorf("identity: create firebase user: %w", err)
	}
	return user.UID, nil
}

func (f *Firebase) EmailVerified(ctx context.Context, email string) (bool, error) {
	user, err := f.client.GetUserByEmail(ctx, email)
	if err != nil {
		return false, fmt.Errorf("identity: get firebase user: %w", err)
	}
	return user.EmailVerified, nil
}
