package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"docgraph/internal/setup"
	"docgraph/pkg/logger"
	"docgraph/pkg/query"
	pgxstore "docgraph/pkg/store/pgx"
)

func main() {
	question := flag.String("question", "", "question to answer from the indexed documents")
	topK := flag.Int("top-k", 0, "number of chunks to retrieve (default 5)")
	flag.Parse()

	setup.InitLogger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *question == "" {
		logger.Fatal("Missing required flag", "flag", "question")
	}

	pool := setup.OpenDatabase(ctx)
	defer pool.Close()
	db := pgxstore.NewGraphDBStorageWithConnection(pool)

	engine, err := query.NewEngine(query.NewEngineParams{
		Embedder: setup.NewEmbeddingClient(),
		Index:    db,
		Graph:    db,
		TopK:     *topK,
	})
	if err != nil {
		logger.Fatal("Failed to create query engine", "err", err)
	}

	prompt, err := engine.Query(ctx, *question, nil)
	if err != nil {
		logger.Fatal("Query failed", "err", err)
	}

	fmt.Println(prompt)
}
