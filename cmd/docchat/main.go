package main

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"docchat/internal/chunker"
	"docchat/internal/config"
	"docchat/internal/pdfload"
	"docchat/internal/providers"
	"docchat/internal/rag"
	"docchat/internal/storage"
	"docchat/internal/vector"
)

func main() {
	// Missing .env is fine; the environment may already be set.
	_ = godotenv.Load()

	rootCmd := &cobra.Command{
		Use:          "docchat",
		Short:        "Chat with your PDF documents",
		Long:         "docchat ingests PDF files into a pgvector store and answers questions using only the stored content.",
		SilenceUsage: true,
	}

	rootCmd.AddCommand(newIngestCommand())
	rootCmd.AddCommand(newSearchCommand())
	rootCmd.AddCommand(newChatCommand())
	rootCmd.AddCommand(newListDocumentsCommand())
	rootCmd.AddCommand(newStatusCommand())
	rootCmd.AddCommand(newValidateCommand())
	rootCmd.AddCommand(newInitCommand())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func openDB(ctx context.Context, cfg config.Config) (*storage.DB, error) {
	db, err := storage.NewDB(ctx, cfg.PostgresURL)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

func buildIngestor(cfg config.Config, db *storage.DB) (*rag.Ingestor, error) {
	splitter, err := chunker.New(chunker.Config{ChunkSize: cfg.ChunkSize, ChunkOverlap: cfg.ChunkOverlap})
	if err != nil {
		return nil, err
	}
	embedder, err := providers.NewEmbeddingProvider(cfg)
	if err != nil {
		return nil, err
	}
	return rag.NewIngestor(cfg, pdfload.NewLoader(), splitter, embedder, storage.NewDocumentRepo(db)), nil
}

func buildAnswerer(cfg config.Config, db *storage.DB) (*rag.Answerer, error) {
	embedder, err := providers.NewEmbeddingProvider(cfg)
	if err != nil {
		return nil, err
	}
	llm, err := providers.NewLLMProvider(cfg)
	if err != nil {
		return nil, err
	}
	return rag.NewAnswerer(cfg, embedder, vector.NewSearcher(db.Pool), llm, storage.NewLLMAuditRepo(db)), nil
}

func newIngestCommand() *cobra.Command {
	var chunkSize, chunkOverlap int

	cmd := &cobra.Command{
		Use:   "ingest <file.pdf>",
		Short: "Chunk, embed and store one PDF",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			if cmd.Flags().Changed("chunk-size") {
				cfg.ChunkSize = chunkSize
			}
			if cmd.Flags().Changed("chunk-overlap") {
				cfg.ChunkOverlap = chunkOverlap
			}
			ctx := cmd.Context()

			db, err := openDB(ctx, cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			ingestor, err := buildIngestor(cfg, db)
			if err != nil {
				return err
			}
			res, err := ingestor.Ingest(ctx, args[0])
			if err != nil {
				return err
			}
			if res.Reused {
				fmt.Printf("Already ingested: %s is stored as document %s (%d chunks)\n",
					res.Document.Filename, res.Document.ID, res.Document.TotalChunks)
				return nil
			}
			fmt.Printf("Ingested %s: document %s, %d pages, %d chunks in %s\n",
				res.Document.Filename, res.Document.ID, res.Document.PageCount, res.Document.TotalChunks,
				res.Duration.Round(time.Millisecond))
			return nil
		},
	}

	cmd.Flags().IntVar(&chunkSize, "chunk-size", 1000, "Chunk size in characters")
	cmd.Flags().IntVar(&chunkOverlap, "chunk-overlap", 150, "Overlap between consecutive chunks in characters")
	return cmd
}

func newSearchCommand() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "search <question>",
		Short: "Answer one question from the stored documents",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			if cmd.Flags().Changed("limit") {
				cfg.SearchLimit = limit
			}
			ctx := cmd.Context()

			db, err := openDB(ctx, cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			answerer, err := buildAnswerer(cfg, db)
			if err != nil {
				return err
			}
			question := strings.Join(args, " ")
			ans, err := answerer.Answer(ctx, question)
			if err != nil {
				return err
			}
			printAnswer(ans)
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 10, "Maximum number of chunks to retrieve")
	return cmd
}

func newChatCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Interactive question loop",
		Long:  "Read questions from stdin and answer each from the stored documents. Type quit, exit or q to leave.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			ctx := cmd.Context()

			db, err := openDB(ctx, cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			answerer, err := buildAnswerer(cfg, db)
			if err != nil {
				return err
			}

			fmt.Println("docchat ready. Ask a question, or type quit to leave.")
			scanner := bufio.NewScanner(os.Stdin)
			scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
			for {
				fmt.Print("> ")
				if !scanner.Scan() {
					fmt.Println()
					return scanner.Err()
				}
				line := strings.TrimSpace(scanner.Text())
				switch strings.ToLower(line) {
				case "":
					continue
				case "quit", "exit", "q":
					return nil
				case "help", "?":
					fmt.Println("Type a question to get an answer, or quit to leave.")
					continue
				}
				ans, err := answerer.Answer(ctx, line)
				if err != nil {
					// One bad question must not end the session.
					fmt.Fprintf(os.Stderr, "error: %v\n", err)
					continue
				}
				printAnswer(ans)
			}
		},
	}
}

func printAnswer(ans rag.Answer) {
	fmt.Println(ans.Text)
	if !ans.Grounded {
		return
	}
	fmt.Println()
	fmt.Println("Sources:")
	for i, r := range ans.Results {
		where := fmt.Sprintf("chunk %d", r.ChunkIndex)
		if r.PageNumber != nil {
			where = fmt.Sprintf("page %d, chunk %d", *r.PageNumber, r.ChunkIndex)
		}
		fmt.Printf("  [%d] %s (%s, score %.3f)\n", i+1, r.Filename, where, r.Score)
	}
}

func newListDocumentsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list-documents",
		Short: "List every stored document",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			ctx := cmd.Context()

			db, err := openDB(ctx, cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			docs, err := storage.NewDocumentRepo(db).ListDocuments(ctx)
			if err != nil {
				return err
			}
			if len(docs) == 0 {
				fmt.Println("No documents stored.")
				return nil
			}
			for _, d := range docs {
				fmt.Printf("%s  %s  %d pages  %d chunks  ingested %s\n",
					d.ID, d.Filename, d.PageCount, d.TotalChunks, d.CreatedAt.Format("2006-01-02 15:04"))
			}
			return nil
		},
	}
}

func newStatusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show configuration and store health",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			ctx := cmd.Context()

			fmt.Printf("embed provider:       %s\n", cfg.EmbedProvider)
			fmt.Printf("llm provider:         %s\n", cfg.LLMProvider)
			fmt.Printf("chunk size / overlap: %d / %d\n", cfg.ChunkSize, cfg.ChunkOverlap)
			fmt.Printf("search limit:         %d\n", cfg.SearchLimit)
			fmt.Printf("similarity threshold: %.2f\n", cfg.SimilarityThreshold)
			fmt.Printf("embedding dimension:  %d\n", cfg.EmbedDim)

			if err := cfg.Validate(); err != nil {
				fmt.Printf("configuration:        %v\n", err)
			} else {
				fmt.Println("configuration:        ok")
			}

			db, err := openDB(ctx, cfg)
			if err != nil {
				fmt.Printf("database:             unreachable (%v)\n", err)
				return nil
			}
			defer db.Close()
			fmt.Println("database:             ok")

			docs, chunks, err := storage.NewDocumentRepo(db).Counts(ctx)
			if err != nil {
				fmt.Printf("store:                %v\n", err)
				return nil
			}
			fmt.Printf("documents:            %d\n", docs)
			fmt.Printf("chunks:               %d\n", chunks)
			return nil
		},
	}
}

func newValidateCommand() *cobra.Command {
	var chunkSize, chunkOverlap int

	cmd := &cobra.Command{
		Use:   "validate <file.pdf>",
		Short: "Load and chunk a PDF without storing anything",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			splitter, err := chunker.New(chunker.Config{ChunkSize: chunkSize, ChunkOverlap: chunkOverlap})
			if err != nil {
				return err
			}
			doc, err := pdfload.NewLoader().Load(args[0])
			if err != nil {
				return err
			}

			totalChunks := 0
			emptyPages := 0
			minLen, maxLen := 0, 0
			for _, page := range doc.Pages {
				pieces := splitter.Split(page)
				if len(pieces) == 0 {
					emptyPages++
					continue
				}
				for _, p := range pieces {
					n := utf8.RuneCountInString(p.Text)
					if totalChunks == 0 || n < minLen {
						minLen = n
					}
					if n > maxLen {
						maxLen = n
					}
					totalChunks++
				}
			}

			fmt.Printf("%s: %d pages, %d bytes, hash %s\n", doc.Filename, doc.PageCount, doc.FileSize, doc.ContentHash)
			fmt.Printf("chunks: %d (shortest %d runes, longest %d runes)\n", totalChunks, minLen, maxLen)
			if emptyPages > 0 {
				fmt.Printf("warning: %d page(s) have no extractable text\n", emptyPages)
			}
			if totalChunks == 0 {
				return fmt.Errorf("%s: %w", args[0], pdfload.ErrNoExtractableText)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&chunkSize, "chunk-size", 1000, "Chunk size in characters")
	cmd.Flags().IntVar(&chunkOverlap, "chunk-overlap", 150, "Overlap between consecutive chunks in characters")
	return cmd
}

func newInitCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create the database schema",
		Long:  "Create the pgvector extension, tables and indexes. Safe to run more than once.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			if err := cfg.Validate(); err != nil {
				return err
			}
			ctx := cmd.Context()

			db, err := openDB(ctx, cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			if err := storage.InitSchema(ctx, db, cfg.EmbedDim); err != nil {
				return err
			}
			log.Printf("schema ready (embedding dimension %d)", cfg.EmbedDim)
			return nil
		},
	}
}
