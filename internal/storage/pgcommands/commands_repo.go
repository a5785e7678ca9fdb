package pgcommands

import (
	"context"
	"encoding/json"
	"time"

	"github.com/pkg/errors"

	"github.com/WishfulLabs/SellerBox/internal/models"
)

func (s *Storage) RecordCommand(ctx context.Context, userID, kind, subjectID string, payload []byte) error {
	var jsonPayload any
	if len(payload) > 0 {
		jsonPayload = json.RawMessage(payload)
	}
	_, err := s.db.Exec(ctx, `
INSERT INTO commands (user_id, kind, subject_id, payload, created_at)
VALUES ($1,$2,$3,$4,$5)
`, userID, kind, subjectID, jsonPayload, time.Now().UTC())
	if err != nil {
		return errors.Wrap(err, "insert command")
	}
	return nil
}

func (s *Storage) ListRecentByUser(ctx context.Context, userID string, limit int) ([]models.CommandRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.Query(ctx, `
SELECT id, user_id, kind, subject_id, payload, created_at
FROM commands
WHERE user_id = $1
ORDER BY created_at DESC, id DESC
LIMIT $2
`, userID, limit)
	if err != nil {
		return nil, errors.Wrap(err, "select commands")
	}
	defer rows.Close()

	out := make([]models.CommandRecord, 0, limit)
	for rows.Next() {
		var c models.CommandRecord
		var payload []byte
		if err := rows.Scan(&c.ID, &c.UserID, &c.Kind, &c.SubjectID, &payload, &c.CreatedAt); err != nil {
			return nil, errors.Wrap(err, "scan command")
		}
		if len(payload) > 0 {
			c.Payload = json.RawMessage(payload)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
