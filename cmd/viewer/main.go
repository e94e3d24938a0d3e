package main

import (
	"flag"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"docgraph/internal/setup"
	"docgraph/pkg/logger"
	"docgraph/pkg/mutation"
	"docgraph/pkg/reconstruct"
)

func main() {
	dir := flag.String("dir", "dry_run_output", "directory containing graph_inserts_*.csv mutation logs")
	out := flag.String("out", "graph_viewer.html", "path of the generated HTML viewer")
	flag.Parse()

	setup.InitLogger()

	pattern := filepath.Join(*dir, "graph_inserts_*.csv")
	paths, err := filepath.Glob(pattern)
	if err != nil {
		logger.Fatal("Invalid log pattern", "pattern", pattern, "err", err)
	}
	if len(paths) == 0 {
		logger.Fatal("No mutation logs found", "pattern", pattern)
	}
	sort.Strings(paths)

	var records []mutation.Record
	for _, path := range paths {
		file, err := os.Open(path)
		if err != nil {
			logger.Fatal("Failed to open mutation log", "path", path, "err", err)
		}

		fileRecords, err := mutation.ReadCSV(file)
		file.Close()
		if err != nil {
			logger.Fatal("Failed to read mutation log", "path", path, "err", err)
		}

		logger.Info("[Viewer] Loaded mutation log", "path", path, "records", len(fileRecords))
		records = append(records, fileRecords...)
	}

	graph := reconstruct.Rebuild(records)
	stats := graph.Stats()
	logger.Info(
		"[Viewer] Graph reconstructed",
		"documents", stats.Documents,
		"chunks", stats.Chunks,
		"topics", stats.Topics,
		"annotations", stats.Annotations,
		"edges", stats.Edges,
		"dropped_edges", stats.DroppedEdges,
	)

	shared := graph.SharedTopics()
	for _, topic := range shared {
		logger.Info(
			"[Viewer] Topic partagé entre documents",
			"topic", topic.Name,
			"documents", strings.Join(topic.Documents, ", "),
		)
	}
	if len(shared) == 0 {
		logger.Info("[Viewer] Aucun topic partagé entre documents")
	}

	outFile, err := os.Create(*out)
	if err != nil {
		logger.Fatal("Failed to create viewer file", "path", *out, "err", err)
	}
	defer outFile.Close()

	if err := graph.WriteHTML(outFile); err != nil {
		logger.Fatal("Failed to write viewer", "path", *out, "err", err)
	}
	logger.Info("[Viewer] Viewer written", "path", *out)
}
