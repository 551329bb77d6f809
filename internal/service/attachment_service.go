package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/hrms-api/internal/models"
	appErrors "github.com/noah-isme/hrms-api/pkg/errors"
)

type attachmentRepository interface {
	FindByID(ctx context.Context, id string) (*models.Attachment, error)
	ListByOwners(ctx context.Context, owner models.AttachmentOwner, ownerIDs []string) (map[string][]models.Attachment, error)
}

type fileStore interface {
	SaveStream(filename string, r io.Reader) (string, int64, error)
	Open(filename string) (*os.File, error)
	Delete(filename string) error
}

type downloadSigner interface {
	Generate(id, relPath string) (string, time.Time, error)
	Parse(token string, allowExpired bool) (id, relPath string, expiresAt time.Time, err error)
}

// mimeForExt maps each accepted extension to the type its content must sniff as.
var mimeForExt = map[string]string{
	"jpg":  "image/jpeg",
	"jpeg": "image/jpeg",
	"png":  "image/png",
	"pdf":  "application/pdf",
}

// AttachmentConfig bounds what may be uploaded with a request.
type AttachmentConfig struct {
	MaxFiles          int
	MaxFileSizeBytes  int64
	AllowedExtensions []string
	// URLPrefix is prepended to download links, e.g. "/api".
	URLPrefix string
}

// FileUpload is one file received with a request. Open may be called more
// than once.
type FileUpload struct {
	Name string
	Size int64
	Open func() (io.ReadCloser, error)
}

// AttachmentService validates, stores and signs request attachments.
type AttachmentService struct {
	repo    attachmentRepository
	files   fileStore
	signer  downloadSigner
	logger  *zap.Logger
	cfg     AttachmentConfig
	allowed map[string]string
}

// NewAttachmentService constructs an AttachmentService.
func NewAttachmentService(repo attachmentRepository, files fileStore, signer downloadSigner, logger *zap.Logger, cfg AttachmentConfig) *AttachmentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.MaxFiles <= 0 {
		cfg.MaxFiles = 3
	}
	if cfg.MaxFileSizeBytes <= 0 {
		cfg.MaxFileSizeBytes = 5 * 1024 * 1024
	}
	allowed := make(map[string]string)
	for _, ext := range cfg.AllowedExtensions {
		ext = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))
		if mime, ok := mimeForExt[ext]; ok {
			allowed[ext] = mime
		}
	}
	if len(allowed) == 0 {
		for ext, mime := range mimeForExt {
			allowed[ext] = mime
		}
	}
	return &AttachmentService{repo: repo, files: files, signer: signer, logger: logger, cfg: cfg, allowed: allowed}
}

// Store validates every upload and writes it below owner/employeeID. Nothing
// is kept when any file is rejected. The returned attachments are not yet
// persisted; their rows are written with the owning request.
func (s *AttachmentService) Store(ctx context.Context, owner models.AttachmentOwner, employeeID string, uploads []FileUpload) ([]models.Attachment, error) {
	if len(uploads) > s.cfg.MaxFiles {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("at most %d attachments are allowed", s.cfg.MaxFiles))
	}
	stored := make([]models.Attachment, 0, len(uploads))
	for _, upload := range uploads {
		if err := ctx.Err(); err != nil {
			s.Discard(stored)
			return nil, internalError(err, "upload cancelled")
		}
		attachment, err := s.storeOne(owner, employeeID, upload)
		if err != nil {
			s.Discard(stored)
			return nil, err
		}
		stored = append(stored, *attachment)
	}
	return stored, nil
}

func (s *AttachmentService) storeOne(owner models.AttachmentOwner, employeeID string, upload FileUpload) (*models.Attachment, error) {
	name := path.Base(strings.ReplaceAll(strings.TrimSpace(upload.Name), "\\", "/"))
	ext := strings.ToLower(strings.TrimPrefix(path.Ext(name), "."))
	expected, ok := s.allowed[ext]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("%s: file type not allowed", name))
	}
	if upload.Size <= 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("%s: file is empty", name))
	}
	if upload.Size > s.cfg.MaxFileSizeBytes {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("%s: file exceeds %d bytes", name, s.cfg.MaxFileSizeBytes))
	}

	detected, err := sniff(upload)
	if err != nil {
		return nil, internalError(err, "failed to read upload")
	}
	if !detected.Is(expected) {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("%s: content is %s, not %s", name, detected.String(), expected))
	}

	reader, err := upload.Open()
	if err != nil {
		return nil, internalError(err, "failed to read upload")
	}
	defer reader.Close()

	relPath := path.Join(string(owner), employeeID, uuid.NewString()+"."+ext)
	saved, written, err := s.files.SaveStream(relPath, io.LimitReader(reader, s.cfg.MaxFileSizeBytes+1))
	if err != nil {
		s.logger.Error("store attachment failed", zap.String("file", name), zap.Error(err))
		return nil, internalError(err, "failed to store attachment")
	}
	if written > s.cfg.MaxFileSizeBytes {
		_ = s.files.Delete(saved)
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("%s: file exceeds %d bytes", name, s.cfg.MaxFileSizeBytes))
	}
	return &models.Attachment{
		FileName:  name,
		FileType:  expected,
		FilePath:  saved,
		SizeBytes: written,
	}, nil
}

func sniff(upload FileUpload) (*mimetype.MIME, error) {
	reader, err := upload.Open()
	if err != nil {
		return nil, err
	}
	defer reader.Close()
	return mimetype.DetectReader(reader)
}

// Discard removes stored files whose request could not be saved.
func (s *AttachmentService) Discard(attachments []models.Attachment) {
	for _, a := range attachments {
		if err := s.files.Delete(a.FilePath); err != nil && !errors.Is(err, os.ErrNotExist) {
			s.logger.Warn("discard attachment failed", zap.String("path", a.FilePath), zap.Error(err))
		}
	}
}

// Sign fills DownloadURL on each attachment.
func (s *AttachmentService) Sign(attachments []models.Attachment) {
	for i := range attachments {
		a := &attachments[i]
		token, _, err := s.signer.Generate(a.ID, a.FilePath)
		if err != nil {
			s.logger.Warn("sign attachment failed", zap.String("attachment_id", a.ID), zap.Error(err))
			continue
		}
		a.DownloadURL = fmt.Sprintf("%s/attachments/%s/download?token=%s", s.cfg.URLPrefix, a.ID, url.QueryEscape(token))
	}
}

// ForOwners loads and signs the attachments of several requests.
func (s *AttachmentService) ForOwners(ctx context.Context, owner models.AttachmentOwner, ownerIDs []string) (map[string][]models.Attachment, error) {
	grouped, err := s.repo.ListByOwners(ctx, owner, ownerIDs)
	if err != nil {
		return nil, internalError(err, "failed to load attachments")
	}
	for id := range grouped {
		s.Sign(grouped[id])
	}
	return grouped, nil
}

// Open verifies the download token for the attachment and opens its file.
// The caller closes the file.
func (s *AttachmentService) Open(ctx context.Context, id, token string) (*models.Attachment, *os.File, error) {
	subject, relPath, _, err := s.signer.Parse(token, false)
	if err != nil || subject != id {
		return nil, nil, appErrors.Clone(appErrors.ErrForbidden, "download link is invalid or expired")
	}
	attachment, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, appErrors.Clone(appErrors.ErrNotFound, "attachment not found")
		}
		return nil, nil, internalError(err, "failed to load attachment")
	}
	if attachment.FilePath != relPath {
		return nil, nil, appErrors.Clone(appErrors.ErrForbidden, "download link is invalid or expired")
	}
	file, err := s.files.Open(attachment.FilePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil, appErrors.Clone(appErrors.ErrNotFound, "attachment file missing")
		}
		return nil, nil, internalError(err, "failed to open attachment")
	}
	return attachment, file, nil
}
