package cli

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"taskboard/internal/service"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

type addOptions struct {
	description string
	deadline    string
	file        string
}

func newAddCmd() *cobra.Command {
	opts := &addOptions{}

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Создать задачу",
		Example: `  taskboard add --description "Купить молоко" --deadline 2025-01-10
  taskboard add -d "Сдать отчёт" -D 2025-02-01 --file ./report.pdf`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAdd(cmd, afero.NewOsFs(), opts)
		},
	}

	cmd.Flags().StringVarP(&opts.description, "description", "d", "", "что будем делать")
	cmd.Flags().StringVarP(&opts.deadline, "deadline", "D", "", "дедлайн в формате YYYY-MM-DD")
	cmd.Flags().StringVarP(&opts.file, "file", "f", "", "прикрепить файл")
	_ = cmd.MarkFlagRequired("description")
	_ = cmd.MarkFlagRequired("deadline")

	return cmd
}

func runAdd(cmd *cobra.Command, fsys afero.Fs, opts *addOptions) error {
	draft := service.Draft{
		Description: opts.description,
		Deadline:    opts.deadline,
	}
	if opts.file != "" {
		data, err := afero.ReadFile(fsys, opts.file)
		if err != nil {
			return fmt.Errorf("чтение файла: %w", err)
		}
		draft.File = &service.File{Name: filepath.Base(opts.file), Data: data}
	}

	return withService(cmd, func(ctx context.Context, svc *service.TaskService) error {
		events, cancel := svc.Subscribe()
		defer cancel()

		if err := svc.Create(ctx, draft); err != nil {
			return err
		}
		svc.Wait()

		res, err := createResult(events)
		if err != nil {
			return err
		}
		if !res.OK() {
			return res.Err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Задача создана: %s\n", res.TaskID)
		return nil
	})
}

// createResult drains events already published until the create result.
func createResult(events <-chan service.Event) (service.Result, error) {
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return service.Result{}, errors.New("поток событий закрыт")
			}
			if ev.Kind == service.EventResult && ev.Result.Op == service.OpCreate {
				return ev.Result, nil
			}
		default:
			return service.Result{}, errors.New("результат создания не получен")
		}
	}
}
