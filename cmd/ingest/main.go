package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"docgraph/internal/queue"
	"docgraph/internal/setup"
	"docgraph/internal/storage"
	"docgraph/internal/util"
	"docgraph/pkg/common"
	"docgraph/pkg/loader"
	ioloader "docgraph/pkg/loader/io"
	"docgraph/pkg/loader/pdf"
	s3loader "docgraph/pkg/loader/s3"
	"docgraph/pkg/logger"
	"docgraph/pkg/mutation"
	"docgraph/pkg/pipeline"
	"docgraph/pkg/store/dryrun"
	pgxstore "docgraph/pkg/store/pgx"
	"docgraph/pkg/topics"
)

func main() {
	input := flag.String("input", "", "path of the PDF to ingest (or object key with -s3)")
	docID := flag.String("id", "", "document id (defaults to the input file name)")
	title := flag.String("title", "", "document title (defaults to the document id)")
	fromS3 := flag.Bool("s3", false, "read the input from the configured S3 bucket")
	dryRun := flag.Bool("dry-run", false, "log mutations to CSV instead of writing to the database")
	enqueue := flag.Bool("enqueue", false, "publish an ingest message for the worker instead of processing locally")
	flag.Parse()

	setup.InitLogger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *input == "" {
		logger.Fatal("Missing required flag", "flag", "input")
	}
	if *docID == "" {
		base := filepath.Base(*input)
		*docID = strings.TrimSuffix(base, filepath.Ext(base))
	}

	source := "file"
	if *fromS3 {
		source = "s3"
	}

	if *enqueue {
		enqueueDocument(*docID, *title, source, *input)
		return
	}

	var fileLoader loader.FileLoader = ioloader.NewIOFileLoader()
	if *fromS3 {
		client := storage.NewS3Client(ctx)
		if client == nil {
			logger.Fatal("Could not create S3 client")
		}
		fileLoader = s3loader.NewS3FileLoaderWithClient(storage.Bucket(), client)
	}
	pdfLoader := pdf.NewPDFLoader(fileLoader)

	file := loader.NewDocumentFile(loader.NewDocumentFileParams{
		ID:       *docID,
		FilePath: *input,
		Title:    *title,
		Loader:   pdfLoader,
	})

	elements, err := pdfLoader.ExtractElements(ctx, file)
	if err != nil {
		logger.Fatal("Failed to extract document elements", "input", *input, "err", err)
	}
	logger.Info("[Ingest] Extracted elements", "document", file.ID, "elements", len(elements))

	doc := common.Document{ID: file.ID, Title: file.Title, Source: source}
	embedder := setup.NewEmbeddingClient()

	params := pipeline.NewPipelineParams{
		Chunker:   setup.NewChunker(),
		Extractor: setup.NewExtractor(),
		Embedder:  embedder,
		Registry:  topics.NewRegistry(),

		BatchSize:      int(util.GetEnvNumeric("EMBED_BATCH_SIZE", 0)),
		MaxBatchTokens: int(util.GetEnvNumeric("EMBED_MAX_BATCH_TOKENS", 0)),
	}

	var mutationLog *mutation.Log
	var dryIndex *dryrun.DryRunIndex

	if *dryRun {
		mutationLog = mutation.NewLog()
		dryIndex = dryrun.NewDryRunIndex()
		params.Graph = dryrun.NewDryRunStorage(mutationLog)
		params.Index = dryIndex
	} else {
		pool := setup.OpenDatabase(ctx)
		defer pool.Close()

		db := pgxstore.NewGraphDBStorageWithConnection(pool)
		if err := db.EnsureSchema(ctx, setup.EmbeddingDim()); err != nil {
			logger.Fatal("Failed to ensure database schema", "err", err)
		}
		params.Graph = db
		params.Index = db
	}

	p, err := pipeline.NewPipeline(params)
	if err != nil {
		logger.Fatal("Failed to create pipeline", "err", err)
	}

	startTime := time.Now()
	result, err := p.IngestDocument(ctx, doc, elements)
	if err != nil {
		logger.Fatal("Ingestion failed", "document", doc.ID, "err", err)
	}

	if *dryRun {
		writeDryRunFiles(doc.ID, mutationLog, dryIndex)
	}

	duration := time.Since(startTime)
	logger.Info(
		"[Ingest] Document ingested",
		"document", doc.ID,
		"chunks", len(result.Chunks),
		"topics", len(result.Topics),
		"indexed", result.IndexedChunks,
		"skipped", result.SkippedChunks,
		"duration", fmt.Sprintf("%02d:%02d:%02d", int(duration.Hours()), int(duration.Minutes())%60, int(duration.Seconds())%60),
	)
	logger.Info(
		"[Ingest] Embedding metrics",
		"input_tokens", result.Metrics.InputTokens,
		"total_tokens", result.Metrics.TotalTokens,
		"tokens_per_second", result.Metrics.TokenPerSecond,
	)
}

// enqueueDocument publishes an ingest message to the work queue and exits.
func enqueueDocument(docID, title, source, filePath string) {
	conn := queue.Init()
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		logger.Fatal("Failed to open channel", "err", err)
	}
	defer ch.Close()

	if err := queue.SetupQueues(ch); err != nil {
		logger.Fatal("Failed to declare queues", "err", err)
	}

	msg, err := queue.NewIngestMessage(docID, title, source, filePath)
	if err != nil {
		logger.Fatal("Failed to build ingest message", "err", err)
	}
	if err := queue.PublishIngest(ch, msg); err != nil {
		logger.Fatal("Failed to publish ingest message", "err", err)
	}

	logger.Info("[Ingest] Message enqueued", "correlation_id", msg.CorrelationID, "document", msg.DocumentID, "source", msg.Source)
}

// writeDryRunFiles exports the mutation log and the index requests as CSV
// files under the dry run directory.
func writeDryRunFiles(docID string, mutationLog *mutation.Log, index *dryrun.DryRunIndex) {
	dir := util.GetEnvString("DRY_RUN_DIR", "dry_run_output")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		logger.Fatal("Failed to create dry run directory", "dir", dir, "err", err)
	}

	graphPath := filepath.Join(dir, fmt.Sprintf("graph_inserts_%s.csv", docID))
	graphFile, err := os.Create(graphPath)
	if err != nil {
		logger.Fatal("Failed to create mutation log file", "path", graphPath, "err", err)
	}
	defer graphFile.Close()
	if err := mutationLog.WriteCSV(graphFile); err != nil {
		logger.Fatal("Failed to write mutation log", "path", graphPath, "err", err)
	}

	vectorPath := filepath.Join(dir, fmt.Sprintf("vector_inserts_%s.csv", docID))
	vectorFile, err := os.Create(vectorPath)
	if err != nil {
		logger.Fatal("Failed to create vector log file", "path", vectorPath, "err", err)
	}
	defer vectorFile.Close()
	if err := index.WriteCSV(vectorFile); err != nil {
		logger.Fatal("Failed to write vector log", "path", vectorPath, "err", err)
	}

	logger.Info("[Ingest] Dry run files written", "graph", graphPath, "vectors", vectorPath, "mutations", mutationLog.Len())
}
