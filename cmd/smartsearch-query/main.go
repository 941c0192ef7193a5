// Command smartsearch-query runs one semantic search against the configured index and prints the matches.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/kailas-cloud/smartsearch/internal/app"
	"github.com/kailas-cloud/smartsearch/internal/config"
	"github.com/kailas-cloud/smartsearch/internal/domain/search/request"
	logpkg "github.com/kailas-cloud/smartsearch/internal/logger"
	searchuc "github.com/kailas-cloud/smartsearch/internal/usecase/search"
	"github.com/kailas-cloud/smartsearch/internal/version"
)

func main() {
	top := flag.Int("top", 3, "number of nearest records to fetch")
	contentType := flag.String("type", "", "only keep matches of this content type")
	minScore := flag.Float64("min-score", 0, "minimum similarity score (default: index.min_score from config)")
	timeout := flag.Duration("timeout", 30*time.Second, "overall timeout")
	showVersion := flag.Bool("version", false, "show version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String())
		return
	}

	args := flag.Args()
	if len(args) == 0 {
		fmt.Fprintf(os.Stderr, "Usage: smartsearch-query [options] <query>\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		os.Exit(1)
	}

	// nil falls back to the configured threshold
	var minScorePtr *float64
	flag.Visit(func(f *flag.Flag) {
		if f.Name == "min-score" {
			minScorePtr = minScore
		}
	})

	if err := run(strings.Join(args, " "), *contentType, *top, minScorePtr, *timeout); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(query, contentType string, top int, minScore *float64, timeout time.Duration) error {
	if err := config.LoadDotEnv(); err != nil {
		return err
	}
	env := config.GetEnv()
	cfg, err := config.Load(env)
	if err != nil {
		return err
	}

	logger, err := logpkg.NewLogger(env, "warn")
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	index, err := app.OpenIndex(ctx, cfg.Index, logger)
	if err != nil {
		return err
	}
	defer index.Close()

	queryEmbedder := app.BuildEmbedder(app.NewProvider(cfg.Embedding), cfg.Embedding, cfg.Embedding.QueryInstruction, logger)
	svc := searchuc.New(index, queryEmbedder)

	req, err := request.New(query, contentType, minScore, request.Defaults{
		TopK:     top,
		MinScore: *cfg.Index.MinScore,
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "Searching for: %q\n", req.Query())
	matches, err := svc.Search(ctx, req)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(matches)
}
