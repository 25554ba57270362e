package services

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/chemref-labs/chemref-engine/pkg/apperrors"
	"github.com/chemref-labs/chemref-engine/pkg/models"
	"github.com/chemref-labs/chemref-engine/pkg/repositories"
)

// ProfileService stores per-user personalization keyed by the opaque user id
// from the auth layer.
type ProfileService interface {
	Get(ctx context.Context, userID string) (*models.UserProfile, error)
	Save(ctx context.Context, profile *models.UserProfile) (*models.UserProfile, error)
}

type profileService struct {
	profiles repositories.ProfileRepository
	logger   *zap.Logger
}

func NewProfileService(profiles repositories.ProfileRepository, logger *zap.Logger) ProfileService {
	return &profileService{
		profiles: profiles,
		logger:   logger.Named("profile-service"),
	}
}

var _ ProfileService = (*profileService)(nil)

func (s *profileService) Get(ctx context.Context, userID string) (*models.UserProfile, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, fmt.Errorf("%w: missing user id", apperrors.ErrValidation)
	}
	return s.profiles.Get(ctx, userID)
}

func (s *profileService) Save(ctx context.Context, profile *models.UserProfile) (*models.UserProfile, error) {
	if profile == nil || strings.TrimSpace(profile.UserID) == "" {
		return nil, fmt.Errorf("%w: missing user id", apperrors.ErrValidation)
	}
	if err := s.profiles.Set(ctx, profile); err != nil {
		return nil, err
	}
	s.logger.Debug("Profile saved", zap.String("user_id", profile.UserID))
	return s.profiles.Get(ctx, profile.UserID)
}
