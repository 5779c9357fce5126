package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"

	"github.com/tanDivina/agent-scholar/internal/config"
	"github.com/tanDivina/agent-scholar/internal/embedding"
	"github.com/tanDivina/agent-scholar/internal/engine"
	"github.com/tanDivina/agent-scholar/internal/ingest"
	"github.com/tanDivina/agent-scholar/internal/library"
	"github.com/tanDivina/agent-scholar/internal/report"
	"github.com/tanDivina/agent-scholar/internal/server"
)

var version = "dev"

var (
	verbose    bool
	configPath string
	cfg        *config.Config
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:     "scholar",
	Short:   "Cross-library document analysis",
	Long:    "Scholar ingests documents into a local library and analyzes them for themes, contradictions, and author perspectives.",
	Version: version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if verbose {
			log.SetFlags(log.LstdFlags | log.Lshortfile)
		} else {
			log.SetFlags(log.LstdFlags)
		}

		// Skip config loading for init and version
		if cmd.Name() == "init" || cmd.Name() == "version" {
			return nil
		}

		path, err := config.ResolveConfigPath(configPath)
		if err != nil {
			return err
		}
		cfg, err = config.Load(path)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to config file")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(ingestCmd)
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("scholar", version)
	},
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration in ~/.config/agent-scholar/",
	RunE: func(cmd *cobra.Command, args []string) error {
		target := filepath.Join(config.ConfigDir(), "config.yaml")
		if _, err := os.Stat(target); err == nil {
			fmt.Printf("Config already exists: %s\n", target)
			return nil
		}

		if err := os.MkdirAll(config.ConfigDir(), 0o755); err != nil {
			return fmt.Errorf("creating config directory: %w", err)
		}

		if err := os.WriteFile(target, config.DefaultConfigYAML, 0o644); err != nil {
			return fmt.Errorf("writing config: %w", err)
		}

		fmt.Printf("Created config: %s\n", target)
		fmt.Println("Edit it to configure feeds, the embedding provider, and analysis thresholds.")
		return nil
	},
}

// --- ingest command ---

var (
	ingestSample   bool
	ingestURL      string
	ingestAuthor   string
	ingestTag      string
	ingestDaysBack int
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Add documents to the library from feeds, a URL, or the sample corpus",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openLibrary()
		if err != nil {
			return err
		}
		defer db.Close()

		ingestor := ingest.NewIngestor(db)

		if ingestSample {
			added, err := ingestor.SeedSampleDocuments()
			if err != nil {
				return err
			}
			fmt.Printf("Added %d sample documents\n", added)
			return nil
		}

		if ingestURL != "" {
			doc, err := ingestor.IngestURL(ingestURL, ingestAuthor, ingestTag)
			if err != nil {
				return err
			}
			fmt.Printf("Added document %s: %s\n", doc.ID, doc.Title)
			return nil
		}

		if len(cfg.Sources.Feeds) == 0 {
			return fmt.Errorf("no feeds configured; use --url or --sample, or add feeds to the config")
		}

		fmt.Println("Ingesting from configured feeds...")
		result := ingestor.IngestFeeds(cfg.Sources, ingestDaysBack)

		fmt.Println("\nIngestion complete:")
		fmt.Printf("  Total found: %d\n", result.TotalFound)
		fmt.Printf("  New documents: %d\n", result.NewDocuments)
		fmt.Printf("  Duplicates skipped: %d\n", result.Duplicates)

		if len(result.Sources) > 0 {
			fmt.Println("\nDocuments by source:")
			type kv struct {
				key string
				val int
			}
			var sorted []kv
			for k, v := range result.Sources {
				sorted = append(sorted, kv{k, v})
			}
			sort.Slice(sorted, func(i, j int) bool { return sorted[i].val > sorted[j].val })
			for _, s := range sorted {
				fmt.Printf("  %s: %d\n", s.key, s.val)
			}
		}
		return nil
	},
}

func init() {
	ingestCmd.Flags().BoolVar(&ingestSample, "sample", false, "Seed the built-in sample corpus")
	ingestCmd.Flags().StringVar(&ingestURL, "url", "", "Fetch and add a single page")
	ingestCmd.Flags().StringVar(&ingestAuthor, "author", "", "Author for --url documents")
	ingestCmd.Flags().StringVar(&ingestTag, "tag", "", "Source tag for --url documents")
	ingestCmd.Flags().IntVar(&ingestDaysBack, "days-back", 7, "Feed lookback window (days)")
}

// --- analyze command ---

var (
	analysisType     string
	analysisQuery    string
	analysisIDs      string
	analysisMaxDocs  int
	includeSynthesis bool
	outputJSON       bool
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Run a cross-library analysis over the stored documents",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openLibrary()
		if err != nil {
			return err
		}
		defer db.Close()

		eng := engine.New(db, newEmbedder(), cfg.Analysis)
		result, err := eng.Analyze(context.Background(), engine.Request{
			AnalysisType:     analysisType,
			Query:            analysisQuery,
			DocumentIDs:      analysisIDs,
			MaxDocuments:     analysisMaxDocs,
			IncludeSynthesis: includeSynthesis,
		})
		if err != nil {
			return err
		}

		if outputJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(result)
		}

		fmt.Print(report.Markdown(result))
		return nil
	},
}

func init() {
	analyzeCmd.Flags().StringVarP(&analysisType, "type", "t", "comprehensive", "Analysis type: comprehensive, themes, contradictions, or perspectives")
	analyzeCmd.Flags().StringVarP(&analysisQuery, "query", "q", "", "Filter documents by search query")
	analyzeCmd.Flags().StringVar(&analysisIDs, "ids", "", "Comma-separated document ids to analyze")
	analyzeCmd.Flags().IntVar(&analysisMaxDocs, "max-documents", 0, "Maximum documents to analyze (default from config)")
	analyzeCmd.Flags().BoolVar(&includeSynthesis, "synthesis", false, "Include synthesis for single-type analyses")
	analyzeCmd.Flags().BoolVar(&outputJSON, "json", false, "Print the raw JSON result")
}

// --- serve command ---

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the analysis API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openLibrary()
		if err != nil {
			return err
		}
		defer db.Close()

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		eng := engine.New(db, newEmbedder(), cfg.Analysis)
		srv := server.New(db, eng)

		fmt.Printf("Starting server at http://localhost:%d\n", port)
		fmt.Println("Press Ctrl+C to stop")
		return srv.ListenAndServe(cmd.Context(), fmt.Sprintf(":%d", port))
	},
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "Port to run server on (default from config)")
}

// --- status command ---

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show library status",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openLibrary()
		if err != nil {
			return err
		}
		defer db.Close()

		stats, err := db.GetStats()
		if err != nil {
			return fmt.Errorf("getting stats: %w", err)
		}

		fmt.Println("Library:")
		fmt.Printf("  Documents: %d\n", stats.TotalDocuments)
		fmt.Printf("  Authors: %d\n", stats.TotalAuthors)
		fmt.Printf("  Sources: %d\n", stats.TotalSources)
		fmt.Printf("\nEmbedding provider: %s\n", cfg.Embedding.Provider)
		return nil
	},
}

func newEmbedder() embedding.Embedder {
	e := cfg.Embedding
	return embedding.CreateEmbedder(e.Provider, e.Model, e.OllamaURL, e.OpenAIModel, e.APIKeyEnv, e.Dimensions)
}

func openLibrary() (*library.DB, error) {
	dataDir := cfg.GetDataDir()
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}
	return library.Open(filepath.Join(dataDir, "scholar.db"))
}
