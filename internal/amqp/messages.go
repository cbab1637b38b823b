package amqp

import (
	"encoding/json"
	"errors"
	"time"
)

// ExportMessage asks the worker to export one version of a trip. It carries
// only the identity; the worker loads the ledger from the store.
type ExportMessage struct {
	TripID    string    `json:"trip_id"`
	Version   int64     `json:"version"`
	Timestamp time.Time `json:"timestamp"`
}

func NewExportMessage(tripID string, version int64) *ExportMessage {
	return &ExportMessage{
		TripID:    tripID,
		Version:   version,
		Timestamp: time.Now(),
	}
}

func (m *ExportMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ExportMessageFromJSON decodes and validates a message body.
func ExportMessageFromJSON(data []byte) (*ExportMessage, error) {
	var msg ExportMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.TripID == "" {
		return nil, errors.New("export message without trip_id")
	}
	return &msg, nil
}
