package pgx

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"docgraph/pkg/common"

	pgxv5 "github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// fakeConn records every Exec so tests can inspect the statements and
// arguments the store would send to Postgres.
type fakeConn struct {
	execs []execCall
}

type execCall struct {
	sql  string
	args []any
}

func (f *fakeConn) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	f.execs = append(f.execs, execCall{sql: sql, args: args})
	return pgconn.CommandTag{}, nil
}

func (f *fakeConn) Query(ctx context.Context, sql string, args ...any) (pgxv5.Rows, error) {
	return nil, nil
}

func (f *fakeConn) QueryRow(ctx context.Context, sql string, args ...any) pgxv5.Row {
	return nil
}

func (f *fakeConn) Begin(ctx context.Context) (pgxv5.Tx, error) {
	return nil, nil
}

func lastExec(t *testing.T, conn *fakeConn) execCall {
	t.Helper()
	if len(conn.execs) == 0 {
		t.Fatal("expected at least one Exec call")
	}
	return conn.execs[len(conn.execs)-1]
}

func propsOf(t *testing.T, call execCall, argIndex int) map[string]string {
	t.Helper()
	raw, ok := call.args[argIndex].([]byte)
	if !ok {
		t.Fatalf("expected marshaled properties at arg %d, got %T", argIndex, call.args[argIndex])
	}
	var props map[string]string
	if err := json.Unmarshal(raw, &props); err != nil {
		t.Fatalf("unmarshal properties: %v", err)
	}
	return props
}

func TestInsertChunk_SanitizesContent(t *testing.T) {
	conn := &fakeConn{}
	s := NewGraphDBStorageWithConnection(conn)

	chunk := common.Chunk{
		ID:         "doc_chunk_0000",
		DocumentID: "doc",
		Content:    "soins\x00dentaires \xff du patient",
	}
	if err := s.InsertChunk(context.Background(), chunk); err != nil {
		t.Fatalf("InsertChunk: %v", err)
	}

	call := lastExec(t, conn)
	raw, ok := call.args[2].([]byte)
	if !ok {
		t.Fatalf("expected marshaled properties, got %T", call.args[2])
	}
	var props struct {
		Content string `json:"content"`
	}
	if err := json.Unmarshal(raw, &props); err != nil {
		t.Fatalf("unmarshal properties: %v", err)
	}
	if props.Content != "soinsdentaires  du patient" {
		t.Fatalf("content not sanitized: %q", props.Content)
	}
}

func TestInsertDocument_SanitizesTitle(t *testing.T) {
	conn := &fakeConn{}
	s := NewGraphDBStorageWithConnection(conn)

	doc := common.Document{ID: "doc", Title: "Contrat\x00Santé", Source: "file"}
	if err := s.InsertDocument(context.Background(), doc); err != nil {
		t.Fatalf("InsertDocument: %v", err)
	}

	props := propsOf(t, lastExec(t, conn), 2)
	if props["title"] != "ContratSanté" {
		t.Fatalf("title not sanitized: %q", props["title"])
	}
}

func TestInsertAnnotation_SanitizesValueAndContext(t *testing.T) {
	conn := &fakeConn{}
	s := NewGraphDBStorageWithConnection(conn)

	ann := common.Annotation{
		ID:      "doc_chunk_0000_length",
		Kind:    common.AnnotationLength,
		Value:   "42\x00",
		Context: "extrait\x00 du chunk",
	}
	if err := s.InsertAnnotation(context.Background(), "doc_chunk_0000", ann); err != nil {
		t.Fatalf("InsertAnnotation: %v", err)
	}

	props := propsOf(t, lastExec(t, conn), 2)
	if props["value"] != "42" {
		t.Fatalf("value not sanitized: %q", props["value"])
	}
	if props["context"] != "extrait du chunk" {
		t.Fatalf("context not sanitized: %q", props["context"])
	}
}

func TestMergeTopic_SanitizesName(t *testing.T) {
	conn := &fakeConn{}
	s := NewGraphDBStorageWithConnection(conn)

	err := s.MergeTopic(context.Background(), "topic_assurance", "assurance\x00", common.TopicBusinessConcept, 2.0)
	if err != nil {
		t.Fatalf("MergeTopic: %v", err)
	}

	call := lastExec(t, conn)
	if name, _ := call.args[1].(string); name != "assurance" {
		t.Fatalf("name not sanitized: %q", name)
	}
}

func TestUpsertEmbedding_SanitizesContent(t *testing.T) {
	conn := &fakeConn{}
	s := NewGraphDBStorageWithConnection(conn)

	chunk := common.Chunk{
		ID:         "doc_chunk_0000",
		DocumentID: "doc",
		Content:    "remboursement\x00 prévu",
	}
	if err := s.UpsertEmbedding(context.Background(), chunk, []float32{1, 0, 0}); err != nil {
		t.Fatalf("UpsertEmbedding: %v", err)
	}

	call := lastExec(t, conn)
	content, _ := call.args[2].(string)
	if strings.Contains(content, "\x00") {
		t.Fatalf("content still carries NUL bytes: %q", content)
	}
	if content != "remboursement prévu" {
		t.Fatalf("unexpected content: %q", content)
	}
}
