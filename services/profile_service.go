package services

import (
	"context"
	stderrors "errors"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"

	"tandem-server/models"
	"tandem-server/repositories"
	"tandem-server/utils/errors"
)

var relationshipOps = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "tandem_relationship_operations_total",
		Help: "Follow/unfollow/block/unblock calls by outcome",
	},
	[]string{"operation", "result"},
)

type CreateProfileInput struct {
	Name             string `json:"name" validate:"required,max=100"`
	TandemID         string `json:"tandemID" validate:"required,max=64"`
	DateOfBirth      string `json:"dateOfBirth" validate:"required"`
	Dob              string `json:"dob"`
	Location         string `json:"location" validate:"max=200"`
	Language         string `json:"language"`
	ProficiencyLevel string `json:"proficiencyLevel" validate:"omitempty,oneof=Beginner Intermediate Advanced Fluent"`
}

// PictureStore persists uploaded profile pictures and hands back a reference.
type PictureStore interface {
	Save(content io.Reader) (string, error)
	Remove(ref string) error
}

type ProfileService struct {
	profiles repositories.ProfileStore
	accounts repositories.AccountStore
	pictures PictureStore
	logger   *zap.Logger
}

func NewProfileService(profiles repositories.ProfileStore, accounts repositories.AccountStore, pictures PictureStore, logger *zap.Logger) *ProfileService {
	return &ProfileService{
		profiles: profiles,
		accounts: accounts,
		pictures: pictures,
		logger:   logger,
	}
}

// Create stores the first and only profile of accountID.
func (s *ProfileService) Create(ctx context.Context, accountID string, in CreateProfileInput) (*models.Profile, error) {
	if in.DateOfBirth == "" {
		in.DateOfBirth = in.Dob
	}
	in.Name = strings.TrimSpace(in.Name)
	in.TandemID = strings.TrimSpace(in.TandemID)
	if err := validateInput(in); err != nil {
		return nil, err
	}
	dob, err := models.ParseDate(in.DateOfBirth)
	if err != nil {
		return nil, err
	}

	_, err = s.profiles.FindByAccount(ctx, accountID)
	switch {
	case err == nil:
		return nil, errors.ErrProfileExists
	case !stderrors.Is(err, repositories.ErrNotFound):
		return nil, errors.Internal(err)
	}

	profile := models.NewProfile(uuid.NewString(), accountID)
	profile.Name = in.Name
	profile.TandemID = in.TandemID
	profile.DateOfBirth = dob
	profile.Language = strings.TrimSpace(in.Language)
	if loc := strings.TrimSpace(in.Location); loc != "" {
		profile.Location = loc
	}
	if in.ProficiencyLevel != "" {
		profile.ProficiencyLevel = models.ProficiencyLevel(in.ProficiencyLevel)
	}

	if err := s.profiles.Create(ctx, profile); err != nil {
		return nil, s.translateWriteError(err)
	}
	if err := s.backfillFollowers(ctx, profile); err != nil {
		return nil, err
	}
	s.logger.Info("Profile created", zap.String("account_id", accountID), zap.String("profile_id", profile.ID))
	return profile, nil
}

// backfillFollowers adds every account already following profile's owner.
// Follows made while the owner had no profile only reached the follower's
// following set. The lookup runs after the insert, so a follow racing the
// create is either found here or mirrored by Follow itself.
func (s *ProfileService) backfillFollowers(ctx context.Context, profile *models.Profile) error {
	followers, err := s.profiles.FollowersOf(ctx, profile.AccountID)
	if err != nil {
		return errors.Internal(err)
	}
	for _, followerID := range followers {
		if _, err := s.profiles.AddRelation(ctx, profile.AccountID, models.FieldFollowers, followerID); err != nil {
			return errors.Internal(err)
		}
	}
	if len(followers) == 0 {
		return nil
	}
	stored, err := s.find(ctx, profile.AccountID)
	if err != nil {
		return err
	}
	*profile = *stored
	return nil
}

// Get returns the caller's profile with the owning account populated.
func (s *ProfileService) Get(ctx context.Context, accountID string) (*models.ProfileView, error) {
	profile, err := s.find(ctx, accountID)
	if err != nil {
		return nil, err
	}
	view := &models.ProfileView{Profile: profile, User: models.AccountSummary{ID: accountID}}
	account, err := s.accounts.FindByID(ctx, accountID)
	switch {
	case err == nil:
		view.User = account.Summary()
	case !stderrors.Is(err, repositories.ErrNotFound):
		return nil, errors.Internal(err)
	}
	return view, nil
}

// Update applies a sparse patch to the caller's profile.
func (s *ProfileService) Update(ctx context.Context, accountID string, patch models.ProfileUpdate) (*models.Profile, error) {
	profile, err := s.find(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if err := patch.Apply(profile); err != nil {
		return nil, err
	}
	if err := s.profiles.UpdateFields(ctx, profile, patch.Fields()); err != nil {
		return nil, s.translateWriteError(err)
	}
	return profile, nil
}

// Delete removes the caller's profile and its entries in other profiles'
// followers sets. The Account and Member are kept.
func (s *ProfileService) Delete(ctx context.Context, accountID string) error {
	if err := s.profiles.Delete(ctx, accountID); err != nil {
		if stderrors.Is(err, repositories.ErrNotFound) {
			return errors.ErrProfileNotFound
		}
		return errors.Internal(err)
	}
	n, err := s.profiles.RemoveFromAll(ctx, models.FieldFollowers, accountID)
	if err != nil {
		s.logger.Error("Failed to clean up followers after profile delete",
			zap.String("account_id", accountID), zap.Error(err))
		return errors.Internal(err)
	}
	s.logger.Info("Profile deleted", zap.String("account_id", accountID), zap.Int64("followers_cleaned", n))
	return nil
}

// SetNotifications switches notificationsEnabled on the caller's profile.
func (s *ProfileService) SetNotifications(ctx context.Context, accountID string, enabled bool) error {
	if err := s.profiles.SetNotifications(ctx, accountID, enabled); err != nil {
		if stderrors.Is(err, repositories.ErrNotFound) {
			return errors.ErrProfileNotFound
		}
		return errors.Internal(err)
	}
	return nil
}

// UploadPicture stores content and points the caller's profilePicture at it.
func (s *ProfileService) UploadPicture(ctx context.Context, accountID string, content io.Reader) (*models.Profile, error) {
	if _, err := s.find(ctx, accountID); err != nil {
		return nil, err
	}
	ref, err := s.pictures.Save(content)
	if err != nil {
		return nil, err
	}
	profile, previous, err := s.profiles.SetPicture(ctx, accountID, ref)
	if err != nil {
		if rmErr := s.pictures.Remove(ref); rmErr != nil {
			s.logger.Warn("Failed to remove orphaned picture", zap.String("ref", ref), zap.Error(rmErr))
		}
		if stderrors.Is(err, repositories.ErrNotFound) {
			return nil, errors.ErrProfileNotFound
		}
		return nil, errors.Internal(err)
	}
	if previous != ref && strings.HasPrefix(previous, PictureURLPrefix) {
		if err := s.pictures.Remove(previous); err != nil {
			s.logger.Warn("Failed to remove replaced picture", zap.String("ref", previous), zap.Error(err))
		}
	}
	return profile, nil
}

func (s *ProfileService) find(ctx context.Context, accountID string) (*models.Profile, error) {
	profile, err := s.profiles.FindByAccount(ctx, accountID)
	if err != nil {
		if stderrors.Is(err, repositories.ErrNotFound) {
			return nil, errors.ErrProfileNotFound
		}
		return nil, errors.Internal(err)
	}
	return profile, nil
}

func (s *ProfileService) translateWriteError(err error) error {
	switch {
	case stderrors.Is(err, repositories.ErrNotFound):
		return errors.ErrProfileNotFound
	case repositories.DuplicateField(err) == repositories.UniqueTandemID:
		return errors.ErrTandemIDTaken
	case stderrors.Is(err, repositories.ErrDuplicate):
		return errors.ErrProfileExists
	}
	return errors.Internal(err)
}
