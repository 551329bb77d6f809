package service

import (
	"bytes"
	"context"
	"database/sql"
	"io"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/hrms-api/internal/models"
	appErrors "github.com/noah-isme/hrms-api/pkg/errors"
	"github.com/noah-isme/hrms-api/pkg/storage"
)

var (
	pngBytes = append([]byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"), bytes.Repeat([]byte{0}, 32)...)
	pdfBytes = []byte("%PDF-1.4\n1 0 obj\n<<>>\nendobj\ntrailer\n<<>>\n%%EOF\n")
)

type stubAttachmentRepo struct {
	mu    sync.Mutex
	items map[string]models.Attachment
}

func newStubAttachmentRepo() *stubAttachmentRepo {
	return &stubAttachmentRepo{items: map[string]models.Attachment{}}
}

func (r *stubAttachmentRepo) save(owner models.AttachmentOwner, ownerID string, attachments []models.Attachment) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range attachments {
		a := &attachments[i]
		if a.ID == "" {
			a.ID = "att-" + ownerID + "-" + string(rune('a'+len(r.items)))
		}
		a.OwnerType = owner
		a.OwnerID = ownerID
		r.items[a.ID] = *a
	}
}

func (r *stubAttachmentRepo) FindByID(ctx context.Context, id string) (*models.Attachment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.items[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &a, nil
}

func (r *stubAttachmentRepo) ListByOwners(ctx context.Context, owner models.AttachmentOwner, ownerIDs []string) (map[string][]models.Attachment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	wanted := make(map[string]bool, len(ownerIDs))
	for _, id := range ownerIDs {
		wanted[id] = true
	}
	grouped := map[string][]models.Attachment{}
	for _, a := range r.items {
		if a.OwnerType == owner && wanted[a.OwnerID] {
			grouped[a.OwnerID] = append(grouped[a.OwnerID], a)
		}
	}
	return grouped, nil
}

func upload(name string, data []byte) FileUpload {
	return FileUpload{
		Name: name,
		Size: int64(len(data)),
		Open: func() (io.ReadCloser, error) { return io.NopCloser(bytes.NewReader(data)), nil },
	}
}

func newAttachmentFixture(t *testing.T, cfg AttachmentConfig) (*AttachmentService, *stubAttachmentRepo, *storage.LocalStorage) {
	t.Helper()
	files, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	repo := newStubAttachmentRepo()
	signer := storage.NewSignedURLSigner("attachment-secret", 0)
	return NewAttachmentService(repo, files, signer, zap.NewNop(), cfg), repo, files
}

func TestAttachmentStoreAndDownload(t *testing.T) {
	svc, repo, files := newAttachmentFixture(t, AttachmentConfig{URLPrefix: "/api"})
	ctx := context.Background()

	stored, err := svc.Store(ctx, models.AttachmentOwnerLeave, "EMP001", []FileUpload{
		upload("scan.PDF", pdfBytes),
		upload("photo.png", pngBytes),
	})
	require.NoError(t, err)
	require.Len(t, stored, 2)
	assert.Equal(t, "application/pdf", stored[0].FileType)
	assert.Equal(t, "image/png", stored[1].FileType)
	assert.True(t, strings.HasPrefix(stored[0].FilePath, "leave/EMP001/"))
	assert.True(t, strings.HasSuffix(stored[0].FilePath, ".pdf"))

	repo.save(models.AttachmentOwnerLeave, "leave-1", stored)
	svc.Sign(stored)
	require.NotEmpty(t, stored[0].DownloadURL)
	link, err := url.Parse(stored[0].DownloadURL)
	require.NoError(t, err)
	assert.Equal(t, "/api/attachments/"+stored[0].ID+"/download", link.Path)

	attachment, file, err := svc.Open(ctx, stored[0].ID, link.Query().Get("token"))
	require.NoError(t, err)
	defer file.Close()
	body, err := io.ReadAll(file)
	require.NoError(t, err)
	assert.Equal(t, pdfBytes, body)
	assert.Equal(t, "scan.PDF", attachment.FileName)

	_, _, err = svc.Open(ctx, stored[1].ID, link.Query().Get("token"))
	assert.True(t, appErrors.IsKind(err, appErrors.ErrForbidden))

	_, _, err = svc.Open(ctx, stored[0].ID, "garbage")
	assert.True(t, appErrors.IsKind(err, appErrors.ErrForbidden))

	_, err = files.Open(stored[1].FilePath)
	assert.NoError(t, err)
}

func TestAttachmentStoreRejectsBadUploads(t *testing.T) {
	svc, _, _ := newAttachmentFixture(t, AttachmentConfig{MaxFiles: 2, MaxFileSizeBytes: 64})
	ctx := context.Background()

	tests := []struct {
		name    string
		uploads []FileUpload
	}{
		{name: "too many files", uploads: []FileUpload{upload("a.pdf", pdfBytes), upload("b.pdf", pdfBytes), upload("c.pdf", pdfBytes)}},
		{name: "extension not allowed", uploads: []FileUpload{upload("run.exe", pdfBytes)}},
		{name: "content disagrees with extension", uploads: []FileUpload{upload("fake.png", pdfBytes)}},
		{name: "too large", uploads: []FileUpload{upload("big.pdf", append(pdfBytes, bytes.Repeat([]byte("x"), 64)...))}},
		{name: "empty", uploads: []FileUpload{upload("empty.pdf", nil)}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Store(ctx, models.AttachmentOwnerLeave, "EMP001", tc.uploads)
			assert.True(t, appErrors.IsKind(err, appErrors.ErrValidation), "got %v", err)
		})
	}
}

func TestAttachmentStoreDiscardsEarlierFilesOnFailure(t *testing.T) {
	dir := t.TempDir()
	files, err := storage.NewLocalStorage(dir)
	require.NoError(t, err)
	svc := NewAttachmentService(newStubAttachmentRepo(), files, storage.NewSignedURLSigner("s", 0), zap.NewNop(), AttachmentConfig{})

	_, err = svc.Store(context.Background(), models.AttachmentOwnerMissPunch, "EMP001", []FileUpload{
		upload("ok.pdf", pdfBytes),
		upload("bad.jpg", pdfBytes),
	})
	require.Error(t, err)

	deleted, err := files.CleanupOlderThan(-1)
	require.NoError(t, err)
	assert.Empty(t, deleted)
}
