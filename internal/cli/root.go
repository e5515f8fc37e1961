package cli

import (
	"context"
	"fmt"

	"taskboard/internal/app"
	"taskboard/internal/config"
	"taskboard/internal/logger"
	"taskboard/internal/service"

	"github.com/spf13/cobra"
)

const defaultConfigPath = "config.yml"

// NewRootCmd builds the taskboard command tree.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "taskboard",
		Short:         "Список задач с дедлайнами и вложениями",
		Long:          `Taskboard хранит задачи в документном хранилище, файлы в blob-хранилище и показывает живой список в браузере или терминале.`,
		Version:       "0.1.0",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().String("config", defaultConfigPath, "путь к файлу конфигурации")

	root.AddCommand(
		newServeCmd(),
		newMigrateCmd(),
		newListCmd(),
		newAddCmd(),
		newWatchCmd(),
	)
	return root
}

// Execute runs the root command.
func Execute() error {
	return NewRootCmd().Execute()
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("загрузка конфигурации: %w", err)
	}
	return cfg, nil
}

// withService opens the configured backend, starts a task service on it and
// hands it to fn. Everything is closed once fn returns.
func withService(cmd *cobra.Command, fn func(ctx context.Context, svc *service.TaskService) error) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger.InitTo(cfg.Logging.Development, cmd.ErrOrStderr())
	defer logger.Sync()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	backend, err := app.OpenBackend(ctx, cfg)
	if err != nil {
		return err
	}
	defer backend.Close()

	svc, err := backend.NewService(cfg)
	if err != nil {
		return err
	}
	if err := svc.Start(ctx); err != nil {
		return err
	}
	defer svc.Stop()

	return fn(ctx, svc)
}
