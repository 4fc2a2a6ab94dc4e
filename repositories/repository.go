package repositories

import (
	"context"
	"errors"
	"fmt"

	"tandem-server/models"
)

var (
	ErrNotFound  = errors.New("document not found")
	ErrDuplicate = errors.New("duplicate key")
)

// DuplicateKeyError names the unique field a write collided on.
type DuplicateKeyError struct {
	Field string
}

func (e *DuplicateKeyError) Error() string {
	return fmt.Sprintf("duplicate key on %s", e.Field)
}

func (e *DuplicateKeyError) Is(target error) bool {
	return target == ErrDuplicate
}

// DuplicateField returns the field name of a duplicate key error, or "".
func DuplicateField(err error) string {
	var dup *DuplicateKeyError
	if errors.As(err, &dup) {
		return dup.Field
	}
	return ""
}

// Unique fields reported by DuplicateKeyError.
const (
	UniqueEmail     = "email"
	UniqueAccountID = "user"
	UniqueTandemID  = "tandem_id"
)

type AccountStore interface {
	Create(ctx context.Context, account *models.Account) error
	FindByID(ctx context.Context, id string) (*models.Account, error)
	FindByEmail(ctx context.Context, email string) (*models.Account, error)
	Delete(ctx context.Context, id string) error
}

// MemberFilter narrows a directory listing. Query matches name or description,
// case-insensitively.
type MemberFilter struct {
	ExcludeAccountID string
	Query            string
}

type MemberStore interface {
	Create(ctx context.Context, member *models.Member) error
	FindByID(ctx context.Context, id string) (*models.Member, error)
	FindByAccount(ctx context.Context, accountID string) (*models.Member, error)
	List(ctx context.Context, filter MemberFilter) ([]models.Member, error)
	SetStatus(ctx context.Context, accountID string, status models.PresenceStatus) (*models.Member, error)
	ResetStatus(ctx context.Context, status models.PresenceStatus) (int64, error)
}

// ProfileStore persists profiles. AddRelation and RemoveRelation are single
// conditional writes: they report false, not an error, when the set already
// was in the requested state, and ErrNotFound when the profile is missing.
type ProfileStore interface {
	Create(ctx context.Context, profile *models.Profile) error
	FindByAccount(ctx context.Context, accountID string) (*models.Profile, error)
	// UpdateFields writes only the named settings (bson names) of profile and
	// loads the stored result back into it.
	UpdateFields(ctx context.Context, profile *models.Profile, fields []string) error
	Delete(ctx context.Context, accountID string) error
	AddRelation(ctx context.Context, accountID string, field models.RelationField, targetID string) (bool, error)
	RemoveRelation(ctx context.Context, accountID string, field models.RelationField, targetID string) (bool, error)
	RemoveFromAll(ctx context.Context, field models.RelationField, targetID string) (int64, error)
	// FollowersOf returns the accounts whose following set contains accountID.
	FollowersOf(ctx context.Context, accountID string) ([]string, error)
	SetNotifications(ctx context.Context, accountID string, enabled bool) error
	// SetPicture stores ref and returns the updated profile with the picture
	// it replaced.
	SetPicture(ctx context.Context, accountID, ref string) (*models.Profile, string, error)
}
