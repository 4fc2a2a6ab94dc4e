package services

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"tandem-server/repositories"
	"tandem-server/utils/errors"
)

func TestRegister_CreatesAccountAndMember(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	var in SignupInput
	require.NoError(t, json.Unmarshal([]byte(`{
		"name": "Ana", "email": "A@X.com ", "password": "secret1",
		"description": "hi", "country": "PT",
		"speaks": "en, fr", "learns": "de", "image": "https://img/ana.png"
	}`), &in))

	res, err := env.auth.Register(ctx, in)
	require.NoError(t, err)

	assert.Equal(t, "a@x.com", res.Account.Email)
	assert.NotEqual(t, "secret1", res.Account.PasswordHash)
	assert.NotEmpty(t, res.Token)

	member, err := env.members.FindByAccount(ctx, res.Account.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"en", "fr"}, member.Speaks)
	assert.Equal(t, []string{"de"}, member.Learns)
	assert.Equal(t, "Ana", member.Name)
	assert.EqualValues(t, "offline", member.Status)

	id, err := env.tokens.Verify(res.Token)
	require.NoError(t, err)
	assert.Equal(t, res.Account.ID, id)
}

func TestRegister_RejectsExistingEmail(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	_, err := env.auth.Register(ctx, signupInput("ana", "ana@x.com"))
	require.NoError(t, err)

	_, err = env.auth.Register(ctx, signupInput("other", "ANA@x.com"))

	assert.ErrorIs(t, err, errors.ErrUserExists)
}

func TestRegister_ValidatesInput(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*SignupInput)
	}{
		{"missing name", func(in *SignupInput) { in.Name = " " }},
		{"bad email", func(in *SignupInput) { in.Email = "nope" }},
		{"short password", func(in *SignupInput) { in.Password = "123" }},
		{"no speaks", func(in *SignupInput) { in.Speaks = nil }},
		{"no learns", func(in *SignupInput) { in.Learns = []string{} }},
		{"missing image", func(in *SignupInput) { in.Image = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			in := signupInput("ana", "ana@x.com")
			tt.mutate(&in)

			_, err := env.auth.Register(context.Background(), in)

			assert.ErrorIs(t, err, errors.ErrInvalidInput)
			_, findErr := env.accounts.FindByEmail(context.Background(), "ana@x.com")
			assert.ErrorIs(t, findErr, repositories.ErrNotFound)
		})
	}
}

func TestRegister_RollsBackAccountWhenMemberFails(t *testing.T) {
	env := newTestEnv(t)
	auth := NewAuthService(env.accounts, failingMemberStore{env.members}, env.tokens, zap.NewNop(),
		WithBcryptCost(bcrypt.MinCost))

	_, err := auth.Register(context.Background(), signupInput("ana", "ana@x.com"))

	assert.ErrorIs(t, err, errors.ErrInternal)
	_, findErr := env.accounts.FindByEmail(context.Background(), "ana@x.com")
	assert.ErrorIs(t, findErr, repositories.ErrNotFound)
}

func TestLogin(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	reg, err := env.auth.Register(ctx, signupInput("ana", "ana@x.com"))
	require.NoError(t, err)

	res, err := env.auth.Login(ctx, LoginInput{Email: "Ana@x.com", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, reg.Account.ID, res.Account.ID)
	assert.NotEmpty(t, res.Token)

	_, err = env.auth.Login(ctx, LoginInput{Email: "ana@x.com", Password: "wrong!"})
	assert.ErrorIs(t, err, errors.ErrInvalidCredentials)

	_, err = env.auth.Login(ctx, LoginInput{Email: "nobody@x.com", Password: "secret1"})
	assert.ErrorIs(t, err, errors.ErrInvalidCredentials)
}

func TestMe(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	reg, err := env.auth.Register(ctx, signupInput("ana", "ana@x.com"))
	require.NoError(t, err)

	account, err := env.auth.Me(ctx, reg.Account.ID)
	require.NoError(t, err)
	assert.Equal(t, "ana@x.com", account.Email)

	_, err = env.auth.Me(ctx, "deleted-account")
	assert.ErrorIs(t, err, errors.ErrUnauthorized)
}
