package amqp

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// ExportJobMessage tells the worker to render an export. It carries only the
// job and owner IDs; the worker fetches the job row and the expenses itself.
type ExportJobMessage struct {
	JobID     uuid.UUID `json:"jobId"`
	OwnerID   uuid.UUID `json:"ownerId"`
	Timestamp time.Time `json:"timestamp"`
}

// NewExportJobMessage creates a message for the given job.
func NewExportJobMessage(jobID, ownerID uuid.UUID) *ExportJobMessage {
	return &ExportJobMessage{
		JobID:     jobID,
		OwnerID:   ownerID,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *ExportJobMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ExportJobMessageFromJSON creates a message from JSON bytes
func ExportJobMessageFromJSON(data []byte) (*ExportJobMessage, error) {
	var msg ExportJobMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
