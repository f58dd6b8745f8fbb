// File: internal/user/service_test.go
package user

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"engla_backend/internal/common"
	"engla_backend/internal/config"
	"engla_backend/internal/filestorage"
)

func newTestService(t *testing.T) (*Service, Repository) {
	t.Helper()
	repo := NewGORMRepository(newTestDB(t))
	storage, err := filestorage.NewService(&config.Config{
		UploadDir:          t.TempDir(),
		UploadMaxSizeBytes: 1 << 20,
	}, zap.NewNop())
	require.NoError(t, err)
	return NewService(repo, storage, zap.NewNop()), repo
}

func TestUpdateProfile(t *testing.T) {
	service, repo := newTestService(t)
	ctx := context.Background()

	created := seedUser(t, repo, "auth0|abc", "jane@example.com")

	phone := "+447911123456"
	currency := "usd"
	req := &UpdateProfileRequest{Phone: &phone, Currency: &currency}
	req.Normalize()
	require.NoError(t, common.Validate.Struct(req))

	updated, err := service.UpdateProfile(ctx, created.ID, req)
	require.NoError(t, err)
	assert.Equal(t, "+447911123456", *updated.Phone)
	assert.Equal(t, "USD", updated.Currency)
	// Untouched fields survive a partial update.
	assert.Equal(t, "jane@example.com", updated.Email)
}

func TestUpdateProfile_EmptyRequestIsNoOp(t *testing.T) {
	service, repo := newTestService(t)
	ctx := context.Background()

	created := seedUser(t, repo, "auth0|abc", "jane@example.com")

	updated, err := service.UpdateProfile(ctx, created.ID, &UpdateProfileRequest{})
	require.NoError(t, err)
	assert.Equal(t, created.ID, updated.ID)
}

func TestUpdateProfileRequest_Validation(t *testing.T) {
	badPhone := "not-a-phone"
	badCurrency := "POUNDS"
	goodName := "Jane"

	assert.Error(t, common.Validate.Struct(&UpdateProfileRequest{Phone: &badPhone}))
	assert.Error(t, common.Validate.Struct(&UpdateProfileRequest{Currency: &badCurrency}))
	assert.NoError(t, common.Validate.Struct(&UpdateProfileRequest{FirstName: &goodName}))
}

func multipartAvatar(t *testing.T, filename string, content []byte) *multipart.FileHeader {
	t.Helper()
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("avatar", filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/", &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	require.NoError(t, req.ParseMultipartForm(32<<20))

	files := req.MultipartForm.File["avatar"]
	require.Len(t, files, 1)
	return files[0]
}

func TestUpdateAvatar_RemovesPreviousLocalFile(t *testing.T) {
	uploadDir := t.TempDir()
	repo := NewGORMRepository(newTestDB(t))
	storage, err := filestorage.NewService(&config.Config{
		UploadDir:          uploadDir,
		UploadMaxSizeBytes: 1 << 20,
	}, zap.NewNop())
	require.NoError(t, err)
	service := NewService(repo, storage, zap.NewNop())
	ctx := context.Background()

	created := seedUser(t, repo, "auth0|abc", "jane@example.com")

	first, err := service.UpdateAvatar(ctx, created, multipartAvatar(t, "one.png", []byte("first")))
	require.NoError(t, err)
	firstPath := *first.AvatarURL

	second, err := service.UpdateAvatar(ctx, first, multipartAvatar(t, "two.png", []byte("second")))
	require.NoError(t, err)
	assert.NotEqual(t, firstPath, *second.AvatarURL)

	_, statErr := os.Stat(filepath.Join(uploadDir, filepath.FromSlash(firstPath)))
	assert.True(t, os.IsNotExist(statErr))
}

func TestUpdateAvatar_SkipsExternalPreviousAvatar(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	repo := NewGORMRepository(newTestDB(t))
	storage, err := filestorage.NewService(&config.Config{
		UploadDir:          t.TempDir(),
		UploadMaxSizeBytes: 1 << 20,
	}, zap.New(core))
	require.NoError(t, err)
	service := NewService(repo, storage, zap.NewNop())
	ctx := context.Background()

	created := seedUser(t, repo, "auth0|abc", "jane@example.com")
	external := "https://lh3.googleusercontent.com/a/photo.jpg"
	current, err := repo.UpdateFields(ctx, created.ID, map[string]any{"avatar_url": external})
	require.NoError(t, err)

	updated, err := service.UpdateAvatar(ctx, current, multipartAvatar(t, "me.png", []byte("png bytes")))
	require.NoError(t, err)
	assert.NotEqual(t, external, *updated.AvatarURL)

	// The claim-synced URL never lived on disk; no deletion is attempted.
	assert.Empty(t, logs.FilterMessage("Attempt to delete non-existent file").All())
}

func TestDeactivateAndPurge(t *testing.T) {
	service, repo := newTestService(t)
	ctx := context.Background()

	created := seedUser(t, repo, "auth0|abc", "jane@example.com")
	require.NoError(t, service.Deactivate(ctx, created.ID))

	_, err := repo.FindBySubjectID(ctx, "auth0|abc")
	assert.ErrorIs(t, err, common.ErrNotFound)

	// Inside the retention window nothing is purged.
	purged, err := service.PurgeDeleted(ctx, 24*time.Hour)
	require.NoError(t, err)
	assert.Zero(t, purged)

	// With a zero retention the deactivated account is removed for good.
	purged, err = service.PurgeDeleted(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), purged)

	_, err = repo.FindBySubjectIDUnscoped(ctx, "auth0|abc")
	assert.ErrorIs(t, err, common.ErrNotFound)
}
