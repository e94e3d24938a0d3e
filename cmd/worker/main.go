package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"docgraph/internal/queue"
	"docgraph/internal/setup"
	"docgraph/internal/storage"
	"docgraph/internal/util"
	"docgraph/pkg/ai"
	"docgraph/pkg/common"
	"docgraph/pkg/loader"
	ioloader "docgraph/pkg/loader/io"
	"docgraph/pkg/loader/pdf"
	s3loader "docgraph/pkg/loader/s3"
	"docgraph/pkg/logger"
	"docgraph/pkg/pipeline"
	pgxstore "docgraph/pkg/store/pgx"
	"docgraph/pkg/topics"
)

func main() {
	setup.InitLogger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Loaders for both message sources. The pdf loader caches extracted
	// text, so redelivered messages do not re-run pdftotext.
	localLoader := pdf.NewPDFLoader(ioloader.NewIOFileLoader())
	var s3Loader *pdf.PDFLoader
	if client := storage.NewS3Client(ctx); client != nil {
		s3Loader = pdf.NewPDFLoader(s3loader.NewS3FileLoaderWithClient(storage.Bucket(), client))
	}

	embedder := setup.NewEmbeddingClient()

	pool := setup.OpenDatabase(ctx)
	defer pool.Close()

	db := pgxstore.NewGraphDBStorageWithConnection(pool)
	if err := db.EnsureSchema(ctx, setup.EmbeddingDim()); err != nil {
		logger.Fatal("Failed to ensure database schema", "err", err)
	}

	// One registry for the worker's lifetime, so topic stats accumulate
	// across every document it consumes.
	p, err := pipeline.NewPipeline(pipeline.NewPipelineParams{
		Chunker:   setup.NewChunker(),
		Extractor: setup.NewExtractor(),
		Graph:     db,
		Index:     db,
		Embedder:  embedder,
		Registry:  topics.NewRegistry(),

		BatchSize:      int(util.GetEnvNumeric("EMBED_BATCH_SIZE", 0)),
		MaxBatchTokens: int(util.GetEnvNumeric("EMBED_MAX_BATCH_TOKENS", 0)),
	})
	if err != nil {
		logger.Fatal("Failed to create pipeline", "err", err)
	}

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

	consumerCh, err := conn.Channel()
	if err != nil {
		logger.Fatal("Failed to open consumer channel", "err", err)
	}
	defer consumerCh.Close()

	// prefetch=1: one document at a time, batching happens inside the
	// pipeline.
	if err := consumerCh.Qos(1, 0, true); err != nil {
		logger.Fatal("Failed to set QoS", "err", err)
	}

	msgs, err := consumerCh.Consume(
		queue.IngestQueue,
		fmt.Sprintf("%s_consumer", queue.IngestQueue),
		false, // autoAck
		false, // exclusive
		false, // noLocal
		false, // noWait
		nil,   // args
	)
	if err != nil {
		logger.Fatal("Failed to start consuming", "queue", queue.IngestQueue, "err", err)
	}

	logger.Info("Listening for messages", "queue", queue.IngestQueue)

	go func() {
		for {
			select {
			case <-ctx.Done():
				logger.Info("Stopping message processor")
				return
			case msg, ok := <-msgs:
				if !ok {
					logger.Info("Message channel closed", "queue", queue.IngestQueue)
					return
				}

				startTime := time.Now()
				processingErr := processIngest(ctx, p, localLoader, s3Loader, msg.Body)

				if processingErr != nil {
					logger.Error("Error processing message", "queue", queue.IngestQueue, "err", processingErr)
					if err := queue.RetryOrDeadLetter(consumerCh, queue.IngestQueue, msg); err != nil {
						logger.Error("Failed to requeue message", "err", err)
						msg.Nack(false, true)
						continue
					}
					msg.Ack(false)
				} else {
					if err := msg.Ack(false); err != nil {
						logger.Error("Failed to ack message", "err", err)
					}
					logger.Info("Message processed successfully", "queue", queue.IngestQueue)
				}

				logMetrics(embedder, startTime)
				embedder.ResetMetrics()
			}
		}
	}()

	<-ctx.Done()
	logger.Info("Shutdown signal received, exiting...")
}

// processIngest decodes one ingest message and runs the pipeline on the
// referenced document.
func processIngest(ctx context.Context, p *pipeline.Pipeline, localLoader, s3Loader *pdf.PDFLoader, body []byte) error {
	msg, err := queue.DecodeIngest(body)
	if err != nil {
		return err
	}
	logger.Info(
		"[Worker] Ingesting document",
		"correlation_id", msg.CorrelationID,
		"document", msg.DocumentID,
		"source", msg.Source,
	)

	pdfLoader := localLoader
	if msg.Source == "s3" {
		if s3Loader == nil {
			return fmt.Errorf("message %s requires S3 but no S3 client is configured", msg.CorrelationID)
		}
		pdfLoader = s3Loader
	}

	file := loader.NewDocumentFile(loader.NewDocumentFileParams{
		ID:       msg.DocumentID,
		FilePath: msg.FilePath,
		Title:    msg.Title,
		Loader:   pdfLoader,
	})

	elements, err := pdfLoader.ExtractElements(ctx, file)
	if err != nil {
		return fmt.Errorf("extract elements for %s: %w", msg.DocumentID, err)
	}

	doc := common.Document{ID: file.ID, Title: file.Title, Source: msg.Source}
	result, err := p.IngestDocument(ctx, doc, elements)
	if err != nil {
		return err
	}

	logger.Info(
		"[Worker] Document ingested",
		"correlation_id", msg.CorrelationID,
		"document", doc.ID,
		"chunks", len(result.Chunks),
		"topics", len(result.Topics),
		"indexed", result.IndexedChunks,
		"skipped", result.SkippedChunks,
	)
	return nil
}

func logMetrics(embedder ai.EmbeddingClient, startTime time.Time) {
	metrics := embedder.GetMetrics()
	aiDuration := time.Duration(metrics.DurationMs) * time.Millisecond
	logger.Info(
		"AI Metrics",
		"input_tokens", metrics.InputTokens,
		"total_tokens", metrics.TotalTokens,
		"duration", fmt.Sprintf("%02d:%02d:%02d", int(aiDuration.Hours()), int(aiDuration.Minutes())%60, int(aiDuration.Seconds())%60),
	)

	processingDuration := time.Since(startTime)
	logger.Info(
		"Processing time",
		"duration", fmt.Sprintf("%02d:%02d:%02d", int(processingDuration.Hours()), int(processingDuration.Minutes())%60, int(processingDuration.Seconds())%60),
	)
	logger.Info("Waiting for next message")
}
