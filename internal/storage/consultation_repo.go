package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"tesisflow/internal/models"
)

type ConsultationRepo struct {
	db *DB
}

func NewConsultationRepo(db *DB) *ConsultationRepo {
	return &ConsultationRepo{db: db}
}

// SaveConsultation inserts c and returns it with ID and CreatedAt filled in.
// Consultations are never updated.
func (r *ConsultationRepo) SaveConsultation(ctx context.Context, c models.StoredConsultation) (models.StoredConsultation, error) {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
	results, err := encodeResults(c.Results)
	if err != nil {
		return c, err
	}
	obs, err := encodeObservations(c.Observations)
	if err != nil {
		return c, err
	}
	_, err = r.db.Pool.Exec(ctx, `
INSERT INTO consultations (id, pdf_name, document_hash, results, observations, user_id, created_at)
VALUES ($1::uuid, $2, NULLIF($3,''), $4::jsonb, $5::jsonb, $6, $7)`,
		c.ID, c.PDFName, c.DocumentHash, results, obs, c.UserID, c.CreatedAt)
	if err != nil {
		return c, fmt.Errorf("insert consultation: %w", err)
	}
	return c, nil
}

// LatestConsultation returns the newest consultation for pdfName, or
// ErrNotFound.
func (r *ConsultationRepo) LatestConsultation(ctx context.Context, pdfName string) (models.StoredConsultation, error) {
	var (
		c       models.StoredConsultation
		results []byte
		obs     []byte
	)
	err := r.db.Pool.QueryRow(ctx, `
SELECT id::text, pdf_name, COALESCE(document_hash,''), results, observations, user_id, created_at
FROM consultations
WHERE pdf_name=$1
ORDER BY created_at DESC
LIMIT 1`, pdfName).Scan(&c.ID, &c.PDFName, &c.DocumentHash, &results, &obs, &c.UserID, &c.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return c, fmt.Errorf("consultation %s: %w", pdfName, ErrNotFound)
	}
	if err != nil {
		return c, fmt.Errorf("select consultation: %w", err)
	}
	if c.Results, err = decodeResults(results); err != nil {
		return c, err
	}
	if c.Observations, err = decodeObservations(obs); err != nil {
		return c, err
	}
	return c, nil
}
