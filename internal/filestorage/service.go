// File: internal/filestorage/service.go
package filestorage

import (
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"engla_backend/internal/common"
	"engla_backend/internal/config"
)

var allowedAvatarExtensions = map[string]struct{}{
	".jpg":  {},
	".jpeg": {},
	".png":  {},
	".webp": {},
}

// Service stores uploaded files on local disk under the configured upload
// directory. Limit violations surface as *common.UploadError so the error
// layer maps them to UPLOAD_ERROR envelopes.
type Service struct {
	baseDir string
	maxSize int64
	logger  *zap.Logger
}

// NewService creates the upload directory if needed and returns the service.
func NewService(cfg *config.Config, logger *zap.Logger) (*Service, error) {
	if cfg.UploadDir == "" {
		return nil, fmt.Errorf("upload directory cannot be empty")
	}
	if err := os.MkdirAll(cfg.UploadDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory %s: %w", cfg.UploadDir, err)
	}
	return &Service{
		baseDir: cfg.UploadDir,
		maxSize: cfg.UploadMaxSizeBytes,
		logger:  logger.Named("filestorage"),
	}, nil
}

// SaveAvatar validates and stores an avatar image, returning its path
// relative to the upload directory (e.g. "avatars/<uuid>.png").
func (s *Service) SaveAvatar(fileHeader *multipart.FileHeader) (string, error) {
	return s.save(fileHeader, "avatars", allowedAvatarExtensions)
}

func (s *Service) save(fileHeader *multipart.FileHeader, subDir string, allowed map[string]struct{}) (string, error) {
	if fileHeader == nil {
		return "", common.NewUploadError(common.UploadFileCount, "No file was provided.", nil)
	}
	if fileHeader.Size > s.maxSize {
		return "", common.NewUploadError(common.UploadSizeLimit,
			fmt.Sprintf("File exceeds the maximum allowed size of %d bytes.", s.maxSize), nil)
	}

	extension := strings.ToLower(filepath.Ext(filepath.Base(fileHeader.Filename)))
	if extension == "" {
		extension = extensionForContentType(fileHeader.Header.Get("Content-Type"))
	}
	if _, ok := allowed[extension]; !ok {
		return "", common.NewUploadError(common.UploadUnexpectedField,
			"Unsupported file type. Allowed types: jpg, jpeg, png, webp.", nil)
	}

	src, err := fileHeader.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open uploaded file: %w", err)
	}
	defer src.Close()

	destinationDir := filepath.Join(s.baseDir, subDir)
	if err := os.MkdirAll(destinationDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create directory %s: %w", destinationDir, err)
	}

	uniqueFilename := uuid.New().String() + extension
	destinationPath := filepath.Join(destinationDir, uniqueFilename)

	dst, err := os.Create(destinationPath)
	if err != nil {
		return "", fmt.Errorf("failed to create file %s: %w", destinationPath, err)
	}
	defer dst.Close()

	// LimitReader guards against a forged Content-Length in the header.
	written, err := io.Copy(dst, io.LimitReader(src, s.maxSize+1))
	if err != nil {
		os.Remove(destinationPath)
		return "", fmt.Errorf("failed to save file: %w", err)
	}
	if written > s.maxSize {
		os.Remove(destinationPath)
		return "", common.NewUploadError(common.UploadSizeLimit,
			fmt.Sprintf("File exceeds the maximum allowed size of %d bytes.", s.maxSize), nil)
	}

	s.logger.Info("File saved", zap.String("path", destinationPath), zap.Int64("bytes", written))
	return filepath.ToSlash(filepath.Join(subDir, uniqueFilename)), nil
}

// Delete removes a previously stored file by its relative path. Missing files
// are not an error; the record pointing at them is already gone.
func (s *Service) Delete(relativePath string) error {
	if relativePath == "" {
		return fmt.Errorf("relative path cannot be empty")
	}
	cleanPath := filepath.Clean(relativePath)
	if strings.Contains(cleanPath, "..") || filepath.IsAbs(cleanPath) {
		return fmt.Errorf("invalid file path for deletion")
	}

	fullPath := filepath.Join(s.baseDir, cleanPath)
	if _, err := os.Stat(fullPath); os.IsNotExist(err) {
		s.logger.Warn("Attempt to delete non-existent file", zap.String("path", fullPath))
		return nil
	}
	if err := os.Remove(fullPath); err != nil {
		return fmt.Errorf("failed to delete file %s: %w", fullPath, err)
	}
	return nil
}

func extensionForContentType(contentType string) string {
	switch {
	case strings.HasPrefix(contentType, "image/jpeg"):
		return ".jpg"
	case strings.HasPrefix(contentType, "image/png"):
		return ".png"
	case strings.HasPrefix(contentType, "image/webp"):
		return ".webp"
	default:
		return ""
	}
}
