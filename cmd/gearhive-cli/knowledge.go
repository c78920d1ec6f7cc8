package main

import (
	"context"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/gearhive/gearhive/internal/config"
	"github.com/gearhive/gearhive/internal/storage"
)

// seedEntry is the YAML shape for one knowledge-base entry in a seed file.
type seedEntry struct {
	Title        string `yaml:"title"`
	Content      string `yaml:"content"`
	Category     string `yaml:"category"`
	VehicleMake  string `yaml:"vehicle_make"`
	VehicleModel string `yaml:"vehicle_model"`
	VehicleYear  int    `yaml:"vehicle_year"`
	SourceURL    string `yaml:"source_url"`
}

func newKnowledgeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "knowledge",
		Short: "Manage the curated knowledge base",
	}

	cmd.AddCommand(newKnowledgeSeedCommand())
	cmd.AddCommand(newKnowledgeListCommand())
	return cmd
}

func newKnowledgeSeedCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "seed [file.yaml]",
		Short: "Load knowledge entries from a YAML file into the database",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runKnowledgeSeed(cmd.Context(), args[0])
		},
	}
}

func runKnowledgeSeed(ctx context.Context, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read seed file: %w", err)
	}

	var entries []seedEntry
	if err := yaml.Unmarshal(data, &entries); err != nil {
		return fmt.Errorf("parse seed file: %w", err)
	}

	repo, cleanup, err := openKnowledgeRepo(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	for i, e := range entries {
		if e.Title == "" || e.Content == "" {
			return fmt.Errorf("entry %d: title and content are required", i)
		}

		category := storage.KnowledgeCategory(e.Category)
		if category == "" {
			category = storage.CategoryGeneral
		}

		err := repo.Create(ctx, &storage.KnowledgeEntry{
			Title:        e.Title,
			Content:      e.Content,
			Category:     category,
			VehicleMake:  e.VehicleMake,
			VehicleModel: e.VehicleModel,
			VehicleYear:  e.VehicleYear,
			SourceURL:    e.SourceURL,
		})
		if err != nil {
			return fmt.Errorf("create entry %q: %w", e.Title, err)
		}
	}

	color.Green("Seeded %d knowledge entries", len(entries))
	return nil
}

func newKnowledgeListCommand() *cobra.Command {
	var category string
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List knowledge entries by category",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runKnowledgeList(cmd.Context(), category, limit)
		},
	}

	cmd.Flags().StringVar(&category, "category", string(storage.CategoryGeneral), "entry category")
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum entries to list")
	return cmd
}

func runKnowledgeList(ctx context.Context, category string, limit int) error {
	repo, cleanup, err := openKnowledgeRepo(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	entries, err := repo.ListByCategory(ctx, storage.KnowledgeCategory(category), limit)
	if err != nil {
		return fmt.Errorf("list knowledge: %w", err)
	}

	if len(entries) == 0 {
		fmt.Printf("no entries in category %q\n", category)
		return nil
	}

	bold := color.New(color.Bold)
	for _, e := range entries {
		bold.Printf("%s", e.Title)
		fmt.Printf("  (used %d times", e.UsageCount)
		if e.VehicleMake != "" {
			fmt.Printf(", %s %s", e.VehicleMake, e.VehicleModel)
		}
		fmt.Println(")")
	}
	return nil
}

func openKnowledgeRepo(ctx context.Context) (*storage.KnowledgeRepository, func(), error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}

	db, err := storage.Open(cfg.Database)
	if err != nil {
		return nil, nil, fmt.Errorf("open database: %w", err)
	}

	if err := storage.EnsureSchema(ctx, db); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("ensure schema: %w", err)
	}

	return storage.NewKnowledgeRepository(db), func() { db.Close() }, nil
}
