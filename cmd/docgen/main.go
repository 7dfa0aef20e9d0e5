package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"docgen/internal/annotate"
	"docgen/internal/cache"
	"docgen/internal/config"
	"docgen/internal/dump"
	"docgen/internal/entity"
	"docgen/internal/project"
	"docgen/internal/registry"
	"docgen/internal/resolver"
	"docgen/internal/storage"

	"github.com/spf13/cobra"
)

var (
	rootCmd = &cobra.Command{
		Use:   "docgen",
		Short: "AI-annotated structural model of a Java codebase",
	}
	configPath string
	language   string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "config.yaml", "Path to the YAML config file")
	rootCmd.PersistentFlags().StringVarP(&language, "lang", "l", "java", "Source language to parse")

	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(annotateCmd)
	rootCmd.AddCommand(dumpCmd)
	rootCmd.AddCommand(cleanCmd)
}

func loadConfig() *config.Config {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	return cfg
}

func initStore(cfg *config.Config) *storage.SQLiteStore {
	if dir := filepath.Dir(cfg.Storage.Path); dir != "." {
		_ = os.MkdirAll(dir, 0755)
	}
	store, err := storage.NewSQLiteStore(cfg.Storage.Path)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	return store
}

// scanTree runs the structural pass over the configured root.
func scanTree(ctx context.Context, root string, reg *registry.Registry) ([]*entity.File, resolver.Stats) {
	scanner, err := project.NewScanner(language, reg)
	if err != nil {
		log.Fatalf("Failed to create scanner: %v", err)
	}

	fmt.Printf("📂 Scanning directory: %s\n", root)
	start := time.Now()
	files, stats, err := scanner.Scan(ctx, root)
	if err != nil {
		log.Fatalf("Scan failed: %v", err)
	}
	fmt.Printf("✅ Parsed %d files, %d methods in %v (%d edges, %d ambiguous, %d unresolved)\n",
		len(files), stats.Methods, time.Since(start), stats.Resolved, stats.Ambiguous, stats.Unresolved)
	return files, stats
}

func resolveRoot(cfg *config.Config, args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return cfg.Project.Root
}

var scanCmd = &cobra.Command{
	Use:   "scan [path]",
	Short: "Parse the project and persist the structural model",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		cfg := loadConfig()
		reg := registry.New()

		files, _ := scanTree(ctx, resolveRoot(cfg, args), reg)

		store := initStore(cfg)
		defer store.Close()

		fmt.Println("💾 Saving model to local database...")
		if err := store.SaveProject(ctx, files); err != nil {
			log.Fatalf("Failed to save model: %v", err)
		}
		fmt.Printf("🎉 Scan complete! Database: %s\n", cfg.Storage.Path)
	},
}

var annotateCmd = &cobra.Command{
	Use:   "annotate [path]",
	Short: "Scan the project and generate descriptions for changed methods",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		cfg := loadConfig()
		if cfg.AI.APIKey == "" {
			log.Fatalf("AI API key not configured (set DOCGEN_API_KEY or ai.api_key)")
		}

		reg := registry.New()
		files, _ := scanTree(ctx, resolveRoot(cfg, args), reg)

		// Seed descriptions from the previous run's cache.
		entries, err := storage.LoadCacheFile(cfg.Cache.Path)
		if err != nil {
			log.Fatalf("Failed to load cache: %v", err)
		}
		clean, dirty := cache.Load(entries, reg)
		fmt.Printf("🧠 Cache: %d methods unchanged, %d need annotation\n", clean, dirty)

		gen, err := annotate.NewGeminiGenerator(ctx, cfg.AI.APIKey, cfg.AI.Model)
		if err != nil {
			log.Fatalf("Failed to create generator: %v", err)
		}

		orch := annotate.NewOrchestrator(gen, cfg.AI.MaxConcurrent, cfg.AI.MaxAttempts,
			time.Duration(cfg.AI.BackoffMS)*time.Millisecond)

		fmt.Println("✍️  Annotating classes...")
		report := orch.AnnotateProject(ctx, files)
		fmt.Printf("📊 Annotated %d classes, %d skipped, %d failed\n",
			report.Annotated, report.Skipped, report.Failed)
		for ucid, msg := range report.Errors {
			fmt.Printf("  ⚠️ %s: %s\n", ucid, msg)
		}

		if dir := filepath.Dir(cfg.Cache.Path); dir != "." {
			_ = os.MkdirAll(dir, 0755)
		}
		if err := storage.SaveCacheFile(cfg.Cache.Path, cache.Export(reg)); err != nil {
			log.Fatalf("Failed to save cache: %v", err)
		}

		store := initStore(cfg)
		defer store.Close()
		if err := store.SaveProject(ctx, files); err != nil {
			log.Fatalf("Failed to save model: %v", err)
		}
		fmt.Printf("🎉 Annotation complete! Database: %s\n", cfg.Storage.Path)
	},
}

var dumpCmd = &cobra.Command{
	Use:   "dump",
	Short: "Print the persisted model as a text report",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		cfg := loadConfig()

		store := initStore(cfg)
		defer store.Close()

		reg := registry.New()
		files, err := store.LoadProject(ctx, reg)
		if err != nil {
			log.Fatalf("Failed to load model: %v", err)
		}
		if len(files) == 0 {
			fmt.Println("Database is empty. Run 'docgen scan' first.")
			return
		}
		if err := dump.WriteProject(os.Stdout, files); err != nil {
			log.Fatalf("Failed to write dump: %v", err)
		}
	},
}

var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Remove the cache file and the model database",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		for _, p := range []string{cfg.Cache.Path, cfg.Storage.Path} {
			if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
				log.Fatalf("Failed to remove %s: %v", p, err)
			}
		}
		fmt.Println("🧹 Cleaned cache and database.")
	},
}
