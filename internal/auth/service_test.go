// File: internal/auth/service_test.go
package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"

	"engla_backend/internal/common"
	"engla_backend/internal/user"
)

// MockUserRepository is a mock type for user.Repository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, u *user.User) error {
	args := m.Called(ctx, u)
	if args.Error(0) == nil && u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return args.Error(0)
}

func (m *MockUserRepository) FindByID(ctx context.Context, id uuid.UUID) (*user.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*user.User), args.Error(1)
}

func (m *MockUserRepository) FindBySubjectID(ctx context.Context, subjectID string) (*user.User, error) {
	args := m.Called(ctx, subjectID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*user.User), args.Error(1)
}

func (m *MockUserRepository) FindBySubjectIDUnscoped(ctx context.Context, subjectID string) (*user.User, error) {
	args := m.Called(ctx, subjectID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*user.User), args.Error(1)
}

func (m *MockUserRepository) FindByEmail(ctx context.Context, email string) (*user.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*user.User), args.Error(1)
}

func (m *MockUserRepository) UpdateFields(ctx context.Context, id uuid.UUID, fields map[string]any) (*user.User, error) {
	args := m.Called(ctx, id, fields)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*user.User), args.Error(1)
}

func (m *MockUserRepository) SoftDelete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockUserRepository) PurgeDeletedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	args := m.Called(ctx, cutoff)
	return args.Get(0).(int64), args.Error(1)
}

func strPtr(s string) *string { return &s }

func existingUser(subjectID string) *user.User {
	u := &user.User{
		SubjectID:  subjectID,
		Email:      "jane@example.com",
		FirstName:  strPtr("Jane"),
		LastName:   strPtr("Doe"),
		Role:       common.RoleClient,
		IsVerified: true,
		Language:   "en",
		Currency:   "GBP",
	}
	u.ID = uuid.New()
	return u
}

func TestSyncUser_BySubjectID_NoChanges(t *testing.T) {
	repo := new(MockUserRepository)
	service := NewService(repo, zap.NewNop())

	known := existingUser("auth0|abc")
	repo.On("FindBySubjectID", mock.Anything, "auth0|abc").Return(known, nil)

	resolved, err := service.SyncUser(context.Background(), SyncParams{
		SubjectID:     "auth0|abc",
		EmailVerified: true,
		Email:         "jane@example.com",
		FirstName:     "Jane",
		LastName:      "Doe",
	})

	assert.NoError(t, err)
	assert.Equal(t, known.ID, resolved.ID)
	// No write happens on an unchanged record.
	repo.AssertNotCalled(t, "UpdateFields", mock.Anything, mock.Anything, mock.Anything)
}

func TestSyncUser_BySubjectID_RefreshesChangedFields(t *testing.T) {
	repo := new(MockUserRepository)
	service := NewService(repo, zap.NewNop())

	known := existingUser("auth0|abc")
	refreshed := existingUser("auth0|abc")
	refreshed.FirstName = strPtr("Janet")

	repo.On("FindBySubjectID", mock.Anything, "auth0|abc").Return(known, nil)
	repo.On("UpdateFields", mock.Anything, known.ID, map[string]any{
		"first_name": "Janet",
	}).Return(refreshed, nil).Once()

	resolved, err := service.SyncUser(context.Background(), SyncParams{
		SubjectID:     "auth0|abc",
		EmailVerified: true,
		Email:         "jane@example.com",
		FirstName:     "Janet",
		LastName:      "Doe",
	})

	assert.NoError(t, err)
	assert.Equal(t, "Janet", *resolved.FirstName)
	repo.AssertExpectations(t)
}

func TestSyncUser_BySubjectID_VerificationFlagChange(t *testing.T) {
	repo := new(MockUserRepository)
	service := NewService(repo, zap.NewNop())

	known := existingUser("auth0|abc")
	known.IsVerified = false
	verified := existingUser("auth0|abc")

	repo.On("FindBySubjectID", mock.Anything, "auth0|abc").Return(known, nil)
	repo.On("UpdateFields", mock.Anything, known.ID, map[string]any{
		"is_verified": true,
	}).Return(verified, nil).Once()

	resolved, err := service.SyncUser(context.Background(), SyncParams{
		SubjectID:     "auth0|abc",
		EmailVerified: true,
		Email:         "jane@example.com",
		FirstName:     "Jane",
		LastName:      "Doe",
	})

	assert.NoError(t, err)
	assert.True(t, resolved.IsVerified)
	repo.AssertExpectations(t)
}

func TestSyncUser_ByEmail_UnverifiedClaimRejected(t *testing.T) {
	repo := new(MockUserRepository)
	service := NewService(repo, zap.NewNop())

	known := existingUser("auth0|old")
	repo.On("FindBySubjectID", mock.Anything, "auth0|new").Return(nil, common.ErrNotFound)
	repo.On("FindByEmail", mock.Anything, "jane@example.com").Return(known, nil)

	resolved, err := service.SyncUser(context.Background(), SyncParams{
		SubjectID:     "auth0|new",
		EmailVerified: false,
		Email:         "jane@example.com",
	})

	assert.Nil(t, resolved)
	var apiErr *common.APIError
	assert.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 403, apiErr.StatusCode)
	repo.AssertNotCalled(t, "UpdateFields", mock.Anything, mock.Anything, mock.Anything)
	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestSyncUser_ByEmail_VerifiedClaimLinksSubject(t *testing.T) {
	repo := new(MockUserRepository)
	service := NewService(repo, zap.NewNop())

	known := existingUser("auth0|old")
	linked := existingUser("auth0|new")
	linked.ID = known.ID

	repo.On("FindBySubjectID", mock.Anything, "auth0|new").Return(nil, common.ErrNotFound)
	repo.On("FindByEmail", mock.Anything, "jane@example.com").Return(known, nil)
	repo.On("UpdateFields", mock.Anything, known.ID, map[string]any{
		"subject_id":  "auth0|new",
		"is_verified": true,
	}).Return(linked, nil).Once()

	resolved, err := service.SyncUser(context.Background(), SyncParams{
		SubjectID:     "auth0|new",
		EmailVerified: true,
		Email:         "jane@example.com",
		FirstName:     "Jane",
		LastName:      "Doe",
	})

	assert.NoError(t, err)
	assert.Equal(t, "auth0|new", resolved.SubjectID)
	repo.AssertExpectations(t)
}

func TestSyncUser_CreatesNewUserWithDefaults(t *testing.T) {
	repo := new(MockUserRepository)
	service := NewService(repo, zap.NewNop())

	repo.On("FindBySubjectID", mock.Anything, "auth0|fresh").Return(nil, common.ErrNotFound)
	repo.On("FindByEmail", mock.Anything, "new@example.com").Return(nil, common.ErrNotFound)
	repo.On("Create", mock.Anything, mock.MatchedBy(func(u *user.User) bool {
		return u.SubjectID == "auth0|fresh" &&
			u.Email == "new@example.com" &&
			u.Role == common.RoleClient &&
			u.Language == "en" &&
			u.Currency == "GBP" &&
			u.IsVerified
	})).Return(nil).Once()

	resolved, err := service.SyncUser(context.Background(), SyncParams{
		SubjectID:     "auth0|fresh",
		EmailVerified: true,
		Email:         "new@example.com",
		FirstName:     "Sam",
	})

	assert.NoError(t, err)
	assert.Equal(t, "Sam", *resolved.FirstName)
	assert.Nil(t, resolved.LastName)
	repo.AssertExpectations(t)
}

func TestSyncUser_PersistenceErrorsPropagate(t *testing.T) {
	repo := new(MockUserRepository)
	service := NewService(repo, zap.NewNop())

	dbErr := errors.New("connection reset")
	repo.On("FindBySubjectID", mock.Anything, "auth0|abc").Return(nil, dbErr)

	resolved, err := service.SyncUser(context.Background(), SyncParams{
		SubjectID: "auth0|abc",
		Email:     "jane@example.com",
	})

	assert.Nil(t, resolved)
	assert.ErrorIs(t, err, dbErr)
	repo.AssertNotCalled(t, "FindByEmail", mock.Anything, mock.Anything)
}
