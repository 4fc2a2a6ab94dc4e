package services

import (
	"context"
	stderrors "errors"

	"go.uber.org/zap"

	"tandem-server/models"
	"tandem-server/repositories"
	"tandem-server/utils/errors"
)

type MemberService struct {
	members repositories.MemberStore
	cache   MemberCache
	logger  *zap.Logger
}

func NewMemberService(members repositories.MemberStore, cache MemberCache, logger *zap.Logger) *MemberService {
	if cache == nil {
		cache = NopMemberCache{}
	}
	return &MemberService{members: members, cache: cache, logger: logger}
}

// List returns the directory as seen by viewerID: the viewer's own entry is
// left out and query, when set, matches name or description.
func (s *MemberService) List(ctx context.Context, viewerID, query string) ([]models.Member, error) {
	members, err := s.members.List(ctx, repositories.MemberFilter{
		ExcludeAccountID: viewerID,
		Query:            query,
	})
	if err != nil {
		return nil, errors.Internal(err)
	}
	return members, nil
}

// Get retrieves a member from the cache or the store. A store read only
// fills an empty cache entry; presence writes overwrite it.
func (s *MemberService) Get(ctx context.Context, id string) (*models.Member, error) {
	if member, ok := s.cache.Get(ctx, id); ok {
		return member, nil
	}
	member, err := s.members.FindByID(ctx, id)
	if err != nil {
		if stderrors.Is(err, repositories.ErrNotFound) {
			return nil, errors.ErrMemberNotFound
		}
		return nil, errors.Internal(err)
	}
	s.cache.Fill(ctx, member)
	return member, nil
}

// SetPresence records an account's online/offline status. It satisfies
// presence.StatusWriter.
func (s *MemberService) SetPresence(ctx context.Context, accountID string, status models.PresenceStatus) error {
	member, err := s.members.SetStatus(ctx, accountID, status)
	if err != nil {
		if stderrors.Is(err, repositories.ErrNotFound) {
			return errors.ErrMemberNotFound
		}
		return errors.Internal(err)
	}
	s.cache.Set(ctx, member)
	s.logger.Debug("Presence changed", zap.String("account_id", accountID), zap.String("status", string(status)))
	return nil
}

// ResetPresence marks every member offline. Called at startup since no
// connections survive a restart.
func (s *MemberService) ResetPresence(ctx context.Context) error {
	n, err := s.members.ResetStatus(ctx, models.StatusOffline)
	if err != nil {
		return err
	}
	s.cache.InvalidateAll(ctx)
	s.logger.Info("Presence reset", zap.Int64("members", n))
	return nil
}
