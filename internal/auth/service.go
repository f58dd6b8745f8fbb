// File: internal/auth/service.go
package auth

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"engla_backend/internal/common"
	"engla_backend/internal/requestctx"
	"engla_backend/internal/user"
)

// SyncParams carries the verified identity and the client-supplied profile
// for one sync invocation.
type SyncParams struct {
	SubjectID     string
	EmailVerified bool
	Email         string
	FirstName     string
	LastName      string
	AvatarURL     string
}

// Service resolves a verified external identity to exactly one local user
// record.
type Service struct {
	repo   user.Repository
	logger *zap.Logger
}

// NewService creates a new authentication service.
func NewService(repo user.Repository, logger *zap.Logger) *Service {
	return &Service{repo: repo, logger: logger.Named("auth")}
}

// SyncUser applies the resolution precedence:
//
//  1. A user with a matching subject ID is refreshed in place (verification
//     flag and any non-empty, changed profile fields) with a single UPDATE,
//     or returned unchanged when nothing differs.
//  2. A user with a matching email but no subject link requires a verified
//     inbound claim; the subject is then linked, the user marked verified and
//     profile updates applied atomically.
//  3. Otherwise a new user record is created with defaults.
//
// Persistence failures propagate unchanged and are never retried.
func (s *Service) SyncUser(ctx context.Context, params SyncParams) (*user.User, error) {
	log := requestctx.Logger(ctx)

	existing, err := s.repo.FindBySubjectID(ctx, params.SubjectID)
	if err == nil {
		fields := profileFields(existing, params)
		if existing.IsVerified != params.EmailVerified {
			fields["is_verified"] = params.EmailVerified
		}
		if len(fields) == 0 {
			return existing, nil
		}
		log.Debug("Refreshing user from identity claims",
			zap.String("userID", existing.ID.String()),
			zap.Int("fields", len(fields)),
		)
		return s.repo.UpdateFields(ctx, existing.ID, fields)
	}
	if !errors.Is(err, common.ErrNotFound) {
		return nil, err
	}

	byEmail, err := s.repo.FindByEmail(ctx, params.Email)
	if err == nil {
		if !params.EmailVerified {
			log.Warn("Account linking rejected: inbound email not verified",
				zap.String("userID", byEmail.ID.String()),
			)
			return nil, common.NewAccountLinkingError()
		}
		fields := profileFields(byEmail, params)
		fields["subject_id"] = params.SubjectID
		fields["is_verified"] = true
		log.Info("Linking identity to existing user by verified email",
			zap.String("userID", byEmail.ID.String()),
		)
		return s.repo.UpdateFields(ctx, byEmail.ID, fields)
	}
	if !errors.Is(err, common.ErrNotFound) {
		return nil, err
	}

	record := &user.User{
		SubjectID:  params.SubjectID,
		Email:      common.NormalizeEmail(params.Email),
		IsVerified: params.EmailVerified,
		Role:       common.RoleClient,
		Language:   "en",
		Currency:   "GBP",
	}
	if params.FirstName != "" {
		record.FirstName = &params.FirstName
	}
	if params.LastName != "" {
		record.LastName = &params.LastName
	}
	if params.AvatarURL != "" {
		record.AvatarURL = &params.AvatarURL
	}

	if err := s.repo.Create(ctx, record); err != nil {
		return nil, err
	}
	log.Info("Created new user from identity claims", zap.String("userID", record.ID.String()))
	return record, nil
}

// profileFields collects the inbound profile values that are non-empty and
// differ from the stored record.
func profileFields(existing *user.User, params SyncParams) map[string]any {
	fields := map[string]any{}
	if params.FirstName != "" && (existing.FirstName == nil || *existing.FirstName != params.FirstName) {
		fields["first_name"] = params.FirstName
	}
	if params.LastName != "" && (existing.LastName == nil || *existing.LastName != params.LastName) {
		fields["last_name"] = params.LastName
	}
	if params.AvatarURL != "" && (existing.AvatarURL == nil || *existing.AvatarURL != params.AvatarURL) {
		fields["avatar_url"] = params.AvatarURL
	}
	return fields
}
