package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/hrms-api/internal/models"
)

const attachmentColumns = "id, owner_type, owner_id, file_name, file_type, file_path, size_bytes, created_at"

// AttachmentRepository stores metadata for files uploaded with requests.
type AttachmentRepository struct {
	db *sqlx.DB
}

// NewAttachmentRepository constructs the repository.
func NewAttachmentRepository(db *sqlx.DB) *AttachmentRepository {
	return &AttachmentRepository{db: db}
}

// FindByID fetches attachment metadata.
func (r *AttachmentRepository) FindByID(ctx context.Context, id string) (*models.Attachment, error) {
	query := fmt.Sprintf("SELECT %s FROM attachments WHERE id = $1", attachmentColumns)
	var attachment models.Attachment
	if err := r.db.GetContext(ctx, &attachment, query, id); err != nil {
		return nil, err
	}
	return &attachment, nil
}

// ListByOwners returns attachments grouped by owner id.
func (r *AttachmentRepository) ListByOwners(ctx context.Context, owner models.AttachmentOwner, ownerIDs []string) (map[string][]models.Attachment, error) {
	grouped := make(map[string][]models.Attachment, len(ownerIDs))
	if len(ownerIDs) == 0 {
		return grouped, nil
	}
	query, args, err := sqlx.In(fmt.Sprintf("SELECT %s FROM attachments WHERE owner_type = ? AND owner_id IN (?) ORDER BY created_at ASC", attachmentColumns), owner, ownerIDs)
	if err != nil {
		return nil, fmt.Errorf("build attachment query: %w", err)
	}
	var attachments []models.Attachment
	if err := r.db.SelectContext(ctx, &attachments, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("list attachments: %w", err)
	}
	for _, a := range attachments {
		grouped[a.OwnerID] = append(grouped[a.OwnerID], a)
	}
	return grouped, nil
}

func insertAttachments(ctx context.Context, tx *sqlx.Tx, owner models.AttachmentOwner, ownerID string, attachments []models.Attachment) error {
	const query = `INSERT INTO attachments (id, owner_type, owner_id, file_name, file_type, file_path, size_bytes, created_at)
VALUES (:id, :owner_type, :owner_id, :file_name, :file_type, :file_path, :size_bytes, :created_at)`
	now := time.Now().UTC()
	for i := range attachments {
		a := &attachments[i]
		if a.ID == "" {
			a.ID = uuid.NewString()
		}
		a.OwnerType = owner
		a.OwnerID = ownerID
		a.CreatedAt = now
		if _, err := tx.NamedExecContext(ctx, query, a); err != nil {
			return fmt.Errorf("create attachment: %w", err)
		}
	}
	return nil
}
