package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"tandem-server/models"
	"tandem-server/repositories"
)

type testEnv struct {
	accounts *repositories.InMemoryAccountStore
	members  *repositories.InMemoryMemberStore
	profiles *repositories.InMemoryProfileStore
	tokens   *TokenService
	pictures *DiskPictureStore
	auth     *AuthService
	profile  *ProfileService
	member   *MemberService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	env := &testEnv{
		accounts: repositories.NewInMemoryAccountStore(),
		members:  repositories.NewInMemoryMemberStore(),
		profiles: repositories.NewInMemoryProfileStore(),
		tokens:   NewTokenService("test-secret", time.Hour),
	}
	pictures, err := NewDiskPictureStore(t.TempDir(), 1024)
	require.NoError(t, err)
	env.pictures = pictures

	logger := zap.NewNop()
	env.auth = NewAuthService(env.accounts, env.members, env.tokens, logger, WithBcryptCost(bcrypt.MinCost))
	env.profile = NewProfileService(env.profiles, env.accounts, env.pictures, logger)
	env.member = NewMemberService(env.members, nil, logger)
	return env
}

func signupInput(name, email string) SignupInput {
	return SignupInput{
		Name:        name,
		Email:       email,
		Password:    "secret1",
		Description: name + " likes languages",
		Country:     "PT",
		Speaks:      models.LanguageList{"en", "fr"},
		Learns:      models.LanguageList{"de"},
		Image:       "https://img.example/" + name + ".png",
	}
}

// register creates an account with a profile and returns its id.
func (e *testEnv) register(t *testing.T, name string) string {
	t.Helper()
	ctx := context.Background()
	res, err := e.auth.Register(ctx, signupInput(name, name+"@x.com"))
	require.NoError(t, err)
	_, err = e.profile.Create(ctx, res.Account.ID, CreateProfileInput{
		Name:        name,
		TandemID:    "tid-" + name,
		DateOfBirth: "1994-05-06",
	})
	require.NoError(t, err)
	return res.Account.ID
}

// failingMemberStore makes Create fail so signup rollback can be observed.
type failingMemberStore struct {
	repositories.MemberStore
}

func (failingMemberStore) Create(context.Context, *models.Member) error {
	return errors.New("members collection unavailable")
}
