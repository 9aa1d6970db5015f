package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"legalrag/internal/ai"
	"legalrag/internal/app"
	"legalrag/internal/config"
	"legalrag/internal/pkg/pdfextract"
	mysqlClient "legalrag/internal/platform/mysql"
	"legalrag/internal/rag"
	"legalrag/internal/repository"
)

// Offline corpus loader. Reads statute JSON files (or a single PDF) and
// feeds them through the ingestion service with synchronous encoding, so
// the corpus is searchable as soon as the command exits.
func main() {
	var (
		dir        = flag.String("dir", "", "directory of statute JSON files (each an array of records)")
		pdfPath    = flag.String("pdf", "", "single statute PDF to ingest")
		externalID = flag.String("external-id", "", "external source id for -pdf")
		title      = flag.String("title", "", "title for -pdf")
		domain     = flag.String("domain", "", "legal domain for -pdf")
		reindex    = flag.Bool("reindex", false, "re-encode every stored statute and exit")
	)
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config failed: %v", err)
	}

	ctx := context.Background()
	db, err := mysqlClient.New(ctx, cfg.MySQLDSN())
	if err != nil {
		log.Fatalf("connect mysql failed: %v", err)
	}

	corpus, err := rag.NewCorpusStore(cfg.Embedding.Dimension)
	if err != nil {
		log.Fatalf("create corpus failed: %v", err)
	}
	encoder := ai.NewEncoder(ai.EncoderConfig{
		BaseURL:   cfg.Embedding.BaseURL,
		APIKey:    cfg.Embedding.APIKey,
		Model:     cfg.Embedding.Model,
		Dimension: cfg.Embedding.Dimension,
	})

	// nil publisher: the CLI encodes inline instead of queueing jobs.
	ingest := app.NewIngestService(
		repository.NewStatuteRepository(db),
		repository.NewEmbeddingRepository(db),
		corpus,
		encoder,
		nil,
	)
	if err := ingest.WarmLoad(); err != nil {
		log.Fatalf("warm load failed: %v", err)
	}

	switch {
	case *reindex:
		if err := ingest.ReindexAll(ctx); err != nil {
			log.Fatalf("reindex failed: %v", err)
		}
		log.Printf("reindexed %d statutes", corpus.Len())
	case *pdfPath != "":
		if err := ingestPDF(ctx, ingest, *pdfPath, *externalID, *title, *domain); err != nil {
			log.Fatalf("ingest pdf failed: %v", err)
		}
	case *dir != "":
		count, err := ingestDir(ctx, ingest, *dir)
		if err != nil {
			log.Fatalf("ingest dir failed: %v", err)
		}
		log.Printf("ingested %d statutes from %s", count, *dir)
	default:
		flag.Usage()
		os.Exit(2)
	}
}

func ingestDir(ctx context.Context, ingest *app.IngestService, dir string) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, fmt.Errorf("read dir failed: %w", err)
	}

	count := 0
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		raw, err := os.ReadFile(path)
		if err != nil {
			return count, fmt.Errorf("read %s failed: %w", path, err)
		}

		var records []app.StatuteInput
		if err := json.Unmarshal(raw, &records); err != nil {
			return count, fmt.Errorf("parse %s failed: %w", path, err)
		}
		for _, rec := range records {
			if _, err := ingest.PutStatute(ctx, rec); err != nil {
				return count, fmt.Errorf("put statute %q from %s failed: %w", rec.ExternalID, path, err)
			}
			count++
		}
	}
	return count, nil
}

func ingestPDF(ctx context.Context, ingest *app.IngestService, path, externalID, title, domain string) error {
	if externalID == "" {
		return fmt.Errorf("-external-id is required with -pdf")
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open pdf failed: %w", err)
	}
	defer f.Close()

	content, err := pdfextract.ExtractText(f)
	if err != nil {
		return err
	}
	if content == "" {
		return fmt.Errorf("no extractable text in %s", path)
	}
	if title == "" {
		title = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}

	rec, err := ingest.PutStatute(ctx, app.StatuteInput{
		ExternalID: externalID,
		Title:      title,
		Content:    content,
		Domain:     domain,
	})
	if err != nil {
		return err
	}
	log.Printf("ingested statute %d (%s)", rec.ID, rec.ExternalID)
	return nil
}
