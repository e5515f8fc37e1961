package cli

import (
	"fmt"

	"taskboard/internal/repository/task/postgres"
	"taskboard/internal/repository/task/sqlite"

	"github.com/spf13/cobra"
)

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Применить миграции схемы хранилища",
		RunE:  runMigrate,
	}
}

func runMigrate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	switch cfg.Repository.Type {
	case "postgres":
		if err := postgres.Migrate(cfg.Database.URL); err != nil {
			return err
		}
	case "sqlite":
		// миграции применяются при открытии
		repo, err := sqlite.New(cfg.Database.SQLitePath)
		if err != nil {
			return err
		}
		repo.Close()
	default:
		fmt.Fprintf(out, "Хранилище %s не требует миграций\n", cfg.Repository.Type)
		return nil
	}

	fmt.Fprintf(out, "Миграции %s применены\n", cfg.Repository.Type)
	return nil
}
