// File: internal/user/service.go
package user

import (
	"context"
	"mime/multipart"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"engla_backend/internal/filestorage"
	"engla_backend/internal/requestctx"
)

// Service implements profile operations over the repository.
type Service struct {
	repo    Repository
	storage *filestorage.Service
	logger  *zap.Logger
}

// NewService creates a new user service.
func NewService(repo Repository, storage *filestorage.Service, logger *zap.Logger) *Service {
	return &Service{repo: repo, storage: storage, logger: logger.Named("user")}
}

// GetByID returns the user with the given ID.
func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (*User, error) {
	return s.repo.FindByID(ctx, id)
}

// UpdateProfile applies the requested profile changes and returns the
// refreshed record. An empty request is a no-op returning the current state.
func (s *Service) UpdateProfile(ctx context.Context, id uuid.UUID, req *UpdateProfileRequest) (*User, error) {
	fields := req.Fields()
	if len(fields) == 0 {
		return s.repo.FindByID(ctx, id)
	}
	return s.repo.UpdateFields(ctx, id, fields)
}

// UpdateAvatar stores the uploaded image and points the record at it. The
// previous stored avatar, if any, is removed after the record update.
func (s *Service) UpdateAvatar(ctx context.Context, current *User, fileHeader *multipart.FileHeader) (*User, error) {
	relativePath, err := s.storage.SaveAvatar(fileHeader)
	if err != nil {
		return nil, err
	}

	updated, err := s.repo.UpdateFields(ctx, current.ID, map[string]any{"avatar_url": relativePath})
	if err != nil {
		if removeErr := s.storage.Delete(relativePath); removeErr != nil {
			requestctx.Logger(ctx).Warn("Failed to remove orphaned avatar file",
				zap.String("path", relativePath), zap.Error(removeErr))
		}
		return nil, err
	}

	// Avatars synced from login claims are external URLs; only locally
	// stored files have anything to remove.
	if prev := current.AvatarURL; prev != nil && *prev != relativePath && !isExternalURL(*prev) {
		if removeErr := s.storage.Delete(*prev); removeErr != nil {
			requestctx.Logger(ctx).Warn("Failed to remove previous avatar file",
				zap.String("path", *prev), zap.Error(removeErr))
		}
	}
	return updated, nil
}

func isExternalURL(value string) bool {
	return strings.HasPrefix(value, "https://") || strings.HasPrefix(value, "http://")
}

// Deactivate soft-deletes the account. The record stays recoverable until the
// purge job removes it after the retention window.
func (s *Service) Deactivate(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.SoftDelete(ctx, id); err != nil {
		return err
	}
	requestctx.Logger(ctx).Info("User account deactivated", zap.String("userID", id.String()))
	return nil
}

// PurgeDeleted permanently removes accounts soft-deleted longer ago than the
// retention window. Called by the background purge job.
func (s *Service) PurgeDeleted(ctx context.Context, retention time.Duration) (int64, error) {
	cutoff := time.Now().Add(-retention)
	removed, err := s.repo.PurgeDeletedBefore(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	if removed > 0 {
		s.logger.Info("Purged soft-deleted users",
			zap.Int64("removed", removed),
			zap.Time("cutoff", cutoff),
		)
	}
	return removed, nil
}
