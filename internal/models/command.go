package models

import (
	"encoding/json"
	"time"
)

// CommandRecord — запись audit trail об отправленной write-команде.
type CommandRecord struct {
	ID        uint64          `json:"id"`
	UserID    string          `json:"userId"`
	Kind      string          `json:"kind"`
	SubjectID string          `json:"subjectId"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	CreatedAt time.Time       `json:"createdAt"`
}
