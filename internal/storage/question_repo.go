package storage

import (
	"context"
	"fmt"

	"tesisflow/internal/models"
)

type QuestionRepo struct {
	db *DB
}

func NewQuestionRepo(db *DB) *QuestionRepo {
	return &QuestionRepo{db: db}
}

func (r *QuestionRepo) SaveQuestion(ctx context.Context, q models.StoredQuestionLog) error {
	_, err := r.db.Pool.Exec(ctx, `
INSERT INTO questions (id, pdf_name, question, answer, strategy, user_id)
VALUES (COALESCE(NULLIF($1,'')::uuid, gen_random_uuid()), $2, $3, $4, NULLIF($5,''), $6)`,
		q.ID, q.PDFName, q.Question, q.Answer, q.Strategy, q.UserID)
	if err != nil {
		return fmt.Errorf("insert question: %w", err)
	}
	return nil
}

// ListQuestions returns the question log for pdfName, oldest first.
func (r *QuestionRepo) ListQuestions(ctx context.Context, pdfName string) ([]models.StoredQuestionLog, error) {
	rows, err := r.db.Pool.Query(ctx, `
SELECT id::text, pdf_name, question, answer, COALESCE(strategy,''), user_id, created_at
FROM questions
WHERE pdf_name=$1
ORDER BY created_at ASC`, pdfName)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	defer rows.Close()

	out := make([]models.StoredQuestionLog, 0)
	for rows.Next() {
		var q models.StoredQuestionLog
		if err := rows.Scan(&q.ID, &q.PDFName, &q.Question, &q.Answer, &q.Strategy, &q.UserID, &q.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan question: %w", err)
		}
		out = append(out, q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate questions: %w", err)
	}
	return out, nil
}
