package queue

import (
	"encoding/json"
	"fmt"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/rabbitmq/amqp091-go"
)

// IngestMessage is the payload published to the ingest queue. Source
// selects the loader used by the worker: "file" reads FilePath from local
// disk, "s3" treats FilePath as an object key in the configured bucket.
type IngestMessage struct {
	CorrelationID string `json:"correlation_id"`
	DocumentID    string `json:"document_id"`
	Title         string `json:"title"`
	Source        string `json:"source"`
	FilePath      string `json:"file_path"`
}

// NewIngestMessage creates an IngestMessage with a fresh correlation id.
func NewIngestMessage(documentID, title, source, filePath string) (IngestMessage, error) {
	correlationID, err := gonanoid.New()
	if err != nil {
		return IngestMessage{}, fmt.Errorf("generate correlation id: %w", err)
	}
	return IngestMessage{
		CorrelationID: correlationID,
		DocumentID:    documentID,
		Title:         title,
		Source:        source,
		FilePath:      filePath,
	}, nil
}

// PublishIngest serializes the message and publishes it to the ingest
// queue.
func PublishIngest(ch *amqp091.Channel, msg IngestMessage) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal ingest message: %w", err)
	}
	return PublishFIFO(ch, IngestQueue, body)
}

// DecodeIngest parses an ingest queue delivery.
func DecodeIngest(body []byte) (IngestMessage, error) {
	var msg IngestMessage
	if err := json.Unmarshal(body, &msg); err != nil {
		return IngestMessage{}, fmt.Errorf("decode ingest message: %w", err)
	}
	if msg.DocumentID == "" || msg.FilePath == "" {
		return IngestMessage{}, fmt.Errorf("ingest message missing document_id or file_path")
	}
	return msg, nil
}
