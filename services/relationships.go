package services

import (
	"context"
	stderrors "errors"

	"go.uber.org/zap"

	"tandem-server/models"
	"tandem-server/repositories"
	"tandem-server/utils/errors"
)

// relationOp describes one social-graph mutation on the caller's profile.
type relationOp struct {
	name  string
	field models.RelationField
	add   bool
	// mirrorFollowers keeps the target's followers set in step with the
	// caller's following set.
	mirrorFollowers bool
	rejectMessage   string
}

var (
	opFollow   = relationOp{name: "follow", field: models.FieldFollowing, add: true, mirrorFollowers: true, rejectMessage: "Already following this user"}
	opUnfollow = relationOp{name: "unfollow", field: models.FieldFollowing, add: false, mirrorFollowers: true, rejectMessage: "Not following this user"}
	opBlock    = relationOp{name: "block", field: models.FieldBlocked, add: true, rejectMessage: "Already blocked this user"}
	opUnblock  = relationOp{name: "unblock", field: models.FieldBlocked, add: false, rejectMessage: "User not blocked"}
)

// Follow adds targetID to the caller's following set.
func (s *ProfileService) Follow(ctx context.Context, actorID, targetID string) error {
	return s.relate(ctx, opFollow, actorID, targetID)
}

// Unfollow removes targetID from the caller's following set.
func (s *ProfileService) Unfollow(ctx context.Context, actorID, targetID string) error {
	return s.relate(ctx, opUnfollow, actorID, targetID)
}

// Block adds targetID to the caller's blocked set. Blocking does not touch
// the following set.
func (s *ProfileService) Block(ctx context.Context, actorID, targetID string) error {
	return s.relate(ctx, opBlock, actorID, targetID)
}

// Unblock removes targetID from the caller's blocked set.
func (s *ProfileService) Unblock(ctx context.Context, actorID, targetID string) error {
	return s.relate(ctx, opUnblock, actorID, targetID)
}

func (s *ProfileService) relate(ctx context.Context, op relationOp, actorID, targetID string) error {
	err := s.applyRelation(ctx, op, actorID, targetID)
	relationshipOps.WithLabelValues(op.name, outcome(err)).Inc()
	return err
}

func (s *ProfileService) applyRelation(ctx context.Context, op relationOp, actorID, targetID string) error {
	if actorID == targetID {
		return errors.ErrSelfRelation
	}
	if _, err := s.accounts.FindByID(ctx, targetID); err != nil {
		if stderrors.Is(err, repositories.ErrNotFound) {
			return errors.ErrTargetNotFound
		}
		return errors.Internal(err)
	}

	changed, err := s.mutate(ctx, op.add, actorID, op.field, targetID)
	if err != nil {
		if stderrors.Is(err, repositories.ErrNotFound) {
			return errors.ErrProfileNotFound
		}
		return errors.Internal(err)
	}
	if !changed {
		if op.add {
			return errors.WithMessage(errors.ErrAlreadyInRelation, op.rejectMessage)
		}
		return errors.WithMessage(errors.ErrNotInRelation, op.rejectMessage)
	}

	if op.mirrorFollowers {
		// The caller's set is authoritative; a target without a profile has
		// no followers set to keep in step.
		if _, err := s.mutate(ctx, op.add, targetID, models.FieldFollowers, actorID); err != nil &&
			!stderrors.Is(err, repositories.ErrNotFound) {
			s.logger.Error("Failed to update followers",
				zap.String("operation", op.name),
				zap.String("actor_id", actorID),
				zap.String("target_id", targetID),
				zap.Error(err))
		}
	}

	s.logger.Debug("Relationship updated",
		zap.String("operation", op.name),
		zap.String("actor_id", actorID),
		zap.String("target_id", targetID))
	return nil
}

func (s *ProfileService) mutate(ctx context.Context, add bool, accountID string, field models.RelationField, targetID string) (bool, error) {
	if add {
		return s.profiles.AddRelation(ctx, accountID, field, targetID)
	}
	return s.profiles.RemoveRelation(ctx, accountID, field, targetID)
}

func outcome(err error) string {
	var apiErr *errors.APIError
	switch {
	case err == nil:
		return "ok"
	case stderrors.As(err, &apiErr):
		return apiErr.Code
	}
	return "error"
}
