package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/devora-bit/sphere/internal/config"
	"github.com/devora-bit/sphere/internal/entity"
	"github.com/devora-bit/sphere/internal/repository/contract"
	"github.com/devora-bit/sphere/internal/repository/implementation"
	"github.com/devora-bit/sphere/pkg/database"
	"github.com/devora-bit/sphere/pkg/embedding"
	"github.com/devora-bit/sphere/pkg/ingest"
	"github.com/devora-bit/sphere/pkg/utils"
	"github.com/devora-bit/sphere/pkg/vectorstore"

	"github.com/fatih/color"
	"github.com/google/uuid"
)

const summaryLength = 500

var dir = flag.String("dir", "", "Ingest every supported file in this directory instead of positional args")

func main() {
	flag.Parse()

	boldGreen := color.New(color.FgGreen, color.Bold).SprintFunc()
	boldRed := color.New(color.FgRed, color.Bold).SprintFunc()
	cyan := color.New(color.FgCyan).SprintFunc()

	paths := flag.Args()
	if *dir != "" {
		entries, err := os.ReadDir(*dir)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s failed to read directory: %v\n", boldRed("Error:"), err)
			os.Exit(1)
		}
		for _, e := range entries {
			if e.IsDir() {
				continue
			}
			paths = append(paths, filepath.Join(*dir, e.Name()))
		}
	}
	if len(paths) == 0 {
		fmt.Fprintf(os.Stderr, "Usage: ingest [-dir <directory>] [file ...]\n")
		os.Exit(1)
	}

	cfg := config.Load()

	db, err := database.NewGormDBFromDSN(cfg.Database.Connection)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s failed to connect to database: %v\n", boldRed("Error:"), err)
		os.Exit(1)
	}

	docs := implementation.NewDocumentRepository(db)
	chunks := implementation.NewDocumentChunkRepository(db)
	embedder := embedding.NewOllamaProvider(cfg.Ai.OllamaBaseURL, cfg.Ai.EmbeddingModel, 768)
	index := vectorstore.NewPgVectorIndex(chunks, embedder)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	fmt.Printf("%s ingesting %s file(s)\n", boldGreen("Sphere"), cyan(strconv.Itoa(len(paths))))

	failed := 0
	for _, path := range paths {
		filetype := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
		if !ingest.IsSupported(filetype) {
			fmt.Printf("  %s %s (unsupported type %q)\n", color.YellowString("skip"), path, filetype)
			continue
		}

		if err := ingestFile(ctx, docs, index, path, filetype, cfg.Knowledge.ChunkSize, cfg.Knowledge.ChunkOverlap); err != nil {
			fmt.Printf("  %s %s: %v\n", boldRed("fail"), path, err)
			failed++
			continue
		}
		fmt.Printf("  %s %s\n", boldGreen("ok"), path)
	}

	if failed > 0 {
		os.Exit(1)
	}
}

func ingestFile(ctx context.Context, docs contract.DocumentRepository, index vectorstore.Index, path string, filetype string, chunkSize int, chunkOverlap int) error {
	text, err := ingest.ExtractText(path, filetype)
	if err != nil {
		return err
	}
	if strings.TrimSpace(text) == "" {
		return fmt.Errorf("no text content")
	}

	filename := filepath.Base(path)
	doc := &entity.Document{
		Id:       uuid.New(),
		Filename: filename,
		Filepath: path,
		Filetype: filetype,
		Title:    strings.TrimSuffix(filename, filepath.Ext(filename)),
		Status:   entity.DocumentStatusPending,
	}
	if err := docs.Create(ctx, doc); err != nil {
		return err
	}

	pieces := utils.SplitWords(text, chunkSize, chunkOverlap)

	ids := make([]string, len(pieces))
	metadatas := make([]map[string]string, len(pieces))
	for i := range pieces {
		ids[i] = entity.ChunkIdFor(doc.Id, i)
		metadatas[i] = map[string]string{
			vectorstore.MetadataDocumentId: doc.Id.String(),
			vectorstore.MetadataChunkIndex: strconv.Itoa(i),
		}
	}

	if err := index.Add(ctx, ids, pieces, metadatas); err != nil {
		doc.Status = entity.DocumentStatusFailed
		if updateErr := docs.Update(ctx, doc); updateErr != nil {
			return fmt.Errorf("index: %v (status update also failed: %v)", err, updateErr)
		}
		return err
	}

	doc.Summary = summarize(text)
	doc.Status = entity.DocumentStatusProcessed
	doc.ChunkCount = len(pieces)
	return docs.Update(ctx, doc)
}

func summarize(text string) string {
	runes := []rune(text)
	if len(runes) <= summaryLength {
		return text
	}
	return string(runes[:summaryLength]) + "..."
}
