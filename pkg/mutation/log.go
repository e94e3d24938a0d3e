package mutation

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"sync"

	"docgraph/pkg/logger"
)

// csvHeader is the column layout of a serialized mutation log.
var csvHeader = []string{"query_type", "query", "parameters"}

// Log is an append-only sequence of mutation records. Safe for concurrent
// appends.
type Log struct {
	mu      sync.Mutex
	records []Record
}

// NewLog creates an empty Log.
func NewLog() *Log {
	return &Log{}
}

// Append adds records to the end of the log.
func (l *Log) Append(records ...Record) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.records = append(l.records, records...)
}

// Records returns a snapshot of the log in append order.
func (l *Log) Records() []Record {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Record, len(l.records))
	copy(out, l.records)
	return out
}

// Len returns the number of appended records.
func (l *Log) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.records)
}

// WriteCSV serializes the log as CSV with columns query_type, query and
// parameters. The parameters column holds the JSON-encoded typed payload;
// the query column holds the rendered statement for human readers.
func (l *Log) WriteCSV(w io.Writer) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(csvHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for _, record := range l.Records() {
		params, err := json.Marshal(record.payload())
		if err != nil {
			return fmt.Errorf("marshal parameters for %s: %w", record.Op, err)
		}
		if err := writer.Write([]string{string(record.Op), record.Statement(), string(params)}); err != nil {
			return fmt.Errorf("write record: %w", err)
		}
	}

	writer.Flush()
	return writer.Error()
}

// ReadCSV parses a serialized mutation log. Rows with an unknown operation
// or unparseable parameters are skipped with a warning so one bad row does
// not lose the rest of the log.
func ReadCSV(r io.Reader) ([]Record, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = len(csvHeader)

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	var records []Record
	for i, row := range rows[1:] {
		record, err := decodeRow(Operation(row[0]), row[2])
		if err != nil {
			logger.Warn("[Mutation] Skipping malformed log row", "row", i+2, "error", err)
			continue
		}
		records = append(records, record)
	}
	return records, nil
}

func (r Record) payload() any {
	switch r.Op {
	case OpCreateDocument:
		return r.Document
	case OpCreateChunk:
		return r.Chunk
	case OpMergeTopic:
		return r.Topic
	case OpCreateAnnotation:
		return r.Annotation
	case OpCreateRelationship:
		return r.Relationship
	default:
		return nil
	}
}

func decodeRow(op Operation, params string) (Record, error) {
	record := Record{Op: op}

	var target any
	switch op {
	case OpCreateDocument:
		record.Document = &DocumentPayload{}
		target = record.Document
	case OpCreateChunk:
		record.Chunk = &ChunkPayload{}
		target = record.Chunk
	case OpMergeTopic:
		record.Topic = &TopicPayload{}
		target = record.Topic
	case OpCreateAnnotation:
		record.Annotation = &AnnotationPayload{}
		target = record.Annotation
	case OpCreateRelationship:
		record.Relationship = &RelationshipPayload{}
		target = record.Relationship
	default:
		return Record{}, fmt.Errorf("unknown operation %q", op)
	}

	if err := json.Unmarshal([]byte(params), target); err != nil {
		return Record{}, fmt.Errorf("decode %s parameters: %w", op, err)
	}
	return record, nil
}
