package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"trivia-room-service/internal/config"
	"trivia-room-service/internal/infra/memory"
	"trivia-room-service/internal/infra/postgres"
	"trivia-room-service/internal/logging"
)

// NewSeedCmd upserts a JSON question bank into Postgres.
func NewSeedCmd(configPath *string) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load a question bank file into Postgres",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			if cfg.Postgres.URL == "" {
				return fmt.Errorf("postgres url not configured")
			}
			if file == "" {
				file = cfg.Questions.File
			}
			if file == "" {
				file = "data/questions.json"
			}
			logger := logging.New(os.Stderr, cfg.Log.Level)

			bank, err := memory.LoadQuestionFile(file)
			if err != nil {
				return err
			}
			if err := runMigrations(cmd.Context(), cfg); err != nil {
				return err
			}

			db := postgres.OpenBun(cfg.Postgres.URL)
			defer db.Close()
			n, err := postgres.SeedQuestions(cmd.Context(), db, bank)
			if err != nil {
				return err
			}
			logger.Info("questions seeded", "file", file, "categories", len(bank), "questions", n)
			return nil
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "question bank in {category: [question...]} form (default questions.file or data/questions.json)")
	return cmd
}
