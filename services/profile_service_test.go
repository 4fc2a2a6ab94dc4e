package services

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tandem-server/models"
	"tandem-server/utils/errors"
)

// pngHeader is enough of a PNG for content sniffing.
var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x02\x00\x00\x00")

func TestCreateProfile_IsExclusive(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	res, err := env.auth.Register(ctx, signupInput("ana", "ana@x.com"))
	require.NoError(t, err)
	id := res.Account.ID

	p, err := env.profile.Create(ctx, id, CreateProfileInput{
		Name: "Ana", TandemID: "ana-1", Dob: "1990-02-03", ProficiencyLevel: "Advanced",
	})
	require.NoError(t, err)
	assert.Equal(t, time.Date(1990, 2, 3, 0, 0, 0, 0, time.UTC), p.DateOfBirth)
	assert.Equal(t, models.ProficiencyAdvanced, p.ProficiencyLevel)
	assert.Equal(t, models.DefaultLocation, p.Location)
	assert.True(t, p.NotificationsEnabled)
	assert.Equal(t, models.RoleUser, p.Role)

	_, err = env.profile.Create(ctx, id, CreateProfileInput{
		Name: "Someone else", TandemID: "totally-different", DateOfBirth: "2001-01-01",
	})
	assert.ErrorIs(t, err, errors.ErrProfileExists)
}

func TestCreateProfile_Rejections(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.register(t, "ana") // owns tid-ana

	tests := []struct {
		name string
		in   CreateProfileInput
		want error
	}{
		{"missing name", CreateProfileInput{TandemID: "x", DateOfBirth: "2000-01-01"}, errors.ErrInvalidInput},
		{"missing dob", CreateProfileInput{Name: "B", TandemID: "x"}, errors.ErrInvalidInput},
		{"bad dob", CreateProfileInput{Name: "B", TandemID: "x", DateOfBirth: "yesterday"}, errors.ErrInvalidInput},
		{"bad level", CreateProfileInput{Name: "B", TandemID: "x", DateOfBirth: "2000-01-01", ProficiencyLevel: "Guru"}, errors.ErrInvalidInput},
		{"tandem id taken", CreateProfileInput{Name: "B", TandemID: "tid-ana", DateOfBirth: "2000-01-01"}, errors.ErrTandemIDTaken},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.profile.Create(ctx, "acc-b", tt.in)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestGetProfile_PopulatesAccount(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	id := env.register(t, "ana")

	view, err := env.profile.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "ana@x.com", view.User.Email)
	assert.Equal(t, "ana", view.User.Name)

	raw, err := json.Marshal(view)
	require.NoError(t, err)
	var decoded map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, "tid-ana", decoded["tandemID"])
	user, ok := decoded["user"].(map[string]any)
	require.True(t, ok, "user should be populated, got %v", decoded["user"])
	assert.Equal(t, "ana@x.com", user["email"])

	_, err = env.profile.Get(ctx, "nobody")
	assert.ErrorIs(t, err, errors.ErrProfileNotFound)
}

func TestUpdateProfile_SparsePatch(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	id := env.register(t, "ana")
	before, err := env.profiles.FindByAccount(ctx, id)
	require.NoError(t, err)

	var patch models.ProfileUpdate
	require.NoError(t, json.Unmarshal([]byte(`{"location": "X"}`), &patch))
	updated, err := env.profile.Update(ctx, id, patch)
	require.NoError(t, err)

	assert.Equal(t, "X", updated.Location)
	after := *updated
	after.Location = before.Location
	after.UpdatedAt = before.UpdatedAt
	assert.Equal(t, *before, after)
}

func TestUpdateProfile_Errors(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	a := env.register(t, "ana")
	env.register(t, "ben")

	_, err := env.profile.Update(ctx, "nobody", models.ProfileUpdate{Location: models.Some("X")})
	assert.ErrorIs(t, err, errors.ErrProfileNotFound)

	_, err = env.profile.Update(ctx, a, models.ProfileUpdate{TandemID: models.Some("tid-ben")})
	assert.ErrorIs(t, err, errors.ErrTandemIDTaken)

	_, err = env.profile.Update(ctx, a, models.ProfileUpdate{Name: models.Null[string]()})
	assert.ErrorIs(t, err, errors.ErrInvalidInput)
}

func TestDeleteProfile_CleansFollowers(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	a, b := env.register(t, "ana"), env.register(t, "ben")
	require.NoError(t, env.profile.Follow(ctx, a, b))

	require.NoError(t, env.profile.Delete(ctx, a))

	_, err := env.profile.Get(ctx, a)
	assert.ErrorIs(t, err, errors.ErrProfileNotFound)
	target, err := env.profiles.FindByAccount(ctx, b)
	require.NoError(t, err)
	assert.Empty(t, target.Followers)

	_, err = env.members.FindByAccount(ctx, a)
	assert.NoError(t, err, "member survives profile deletion")

	assert.ErrorIs(t, env.profile.Delete(ctx, a), errors.ErrProfileNotFound)
}

func TestSetNotifications(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	id := env.register(t, "ana")

	require.NoError(t, env.profile.SetNotifications(ctx, id, false))
	p, err := env.profiles.FindByAccount(ctx, id)
	require.NoError(t, err)
	assert.False(t, p.NotificationsEnabled)

	require.NoError(t, env.profile.SetNotifications(ctx, id, true))
	p, err = env.profiles.FindByAccount(ctx, id)
	require.NoError(t, err)
	assert.True(t, p.NotificationsEnabled)

	assert.ErrorIs(t, env.profile.SetNotifications(ctx, "nobody", true), errors.ErrProfileNotFound)
}

func TestUploadPicture(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	id := env.register(t, "ana")

	p, err := env.profile.UploadPicture(ctx, id, bytes.NewReader(pngHeader))
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(p.ProfilePicture, PictureURLPrefix))
	assert.True(t, strings.HasSuffix(p.ProfilePicture, ".png"))

	stored := filepath.Join(env.pictures.Root(), "profilePictures", filepath.Base(p.ProfilePicture))
	data, err := os.ReadFile(stored)
	require.NoError(t, err)
	assert.Equal(t, pngHeader, data)
}

func TestUploadPicture_ReplacesPreviousFile(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	id := env.register(t, "ana")
	dir := filepath.Join(env.pictures.Root(), "profilePictures")

	first, err := env.profile.UploadPicture(ctx, id, bytes.NewReader(pngHeader))
	require.NoError(t, err)
	second, err := env.profile.UploadPicture(ctx, id, bytes.NewReader(pngHeader))
	require.NoError(t, err)
	require.NotEqual(t, first.ProfilePicture, second.ProfilePicture)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, filepath.Base(second.ProfilePicture), entries[0].Name())
}

func TestUploadPicture_Rejections(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	id := env.register(t, "ana")

	tests := []struct {
		name    string
		account string
		body    []byte
		want    error
	}{
		{"empty", id, nil, errors.ErrNoFile},
		{"text file", id, []byte("just some words"), errors.ErrUnsupportedFile},
		{"too large", id, append(append([]byte{}, pngHeader...), make([]byte, 2048)...), errors.ErrFileTooLarge},
		{"no profile", "nobody", pngHeader, errors.ErrProfileNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.profile.UploadPicture(ctx, tt.account, bytes.NewReader(tt.body))
			assert.ErrorIs(t, err, tt.want)
		})
	}

	entries, err := os.ReadDir(filepath.Join(env.pictures.Root(), "profilePictures"))
	require.NoError(t, err)
	assert.Empty(t, entries)
}
