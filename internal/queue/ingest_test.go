package queue

import (
	"encoding/json"
	"testing"
)

func TestNewIngestMessage(t *testing.T) {
	msg, err := NewIngestMessage("contrat_sante", "Contrat Santé", "file", "docs/contrat_sante.pdf")
	if err != nil {
		t.Fatalf("NewIngestMessage: %v", err)
	}

	if msg.CorrelationID == "" {
		t.Fatal("expected a correlation id")
	}
	if msg.DocumentID != "contrat_sante" || msg.FilePath != "docs/contrat_sante.pdf" {
		t.Fatalf("unexpected message %+v", msg)
	}

	other, err := NewIngestMessage("contrat_sante", "Contrat Santé", "file", "docs/contrat_sante.pdf")
	if err != nil {
		t.Fatal(err)
	}
	if other.CorrelationID == msg.CorrelationID {
		t.Fatal("correlation ids must be unique per message")
	}
}

func TestDecodeIngest(t *testing.T) {
	msg, _ := NewIngestMessage("doc", "Doc", "s3", "uploads/doc.pdf")
	body, err := json.Marshal(msg)
	if err != nil {
		t.Fatal(err)
	}

	decoded, err := DecodeIngest(body)
	if err != nil {
		t.Fatalf("DecodeIngest: %v", err)
	}
	if decoded != msg {
		t.Fatalf("round trip mismatch: %+v vs %+v", decoded, msg)
	}
}

func TestDecodeIngest_Invalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"not json", "nope"},
		{"missing document id", `{"file_path": "x.pdf"}`},
		{"missing file path", `{"document_id": "doc"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := DecodeIngest([]byte(tt.body)); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}
