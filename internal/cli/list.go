package cli

import (
	"context"
	"fmt"

	"taskboard/internal/service"
	"taskboard/internal/tui"
	"taskboard/internal/view"

	"github.com/spf13/cobra"
)

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Показать текущий список задач",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(cmd, func(ctx context.Context, svc *service.TaskService) error {
				items := view.NewList(svc.Tasks(), svc.Today())

				out := cmd.OutOrStdout()
				fmt.Fprintln(out, tui.RenderList(items, -1))
				fmt.Fprintf(out, "\nЗадач: %d, просрочено: %d\n", len(items), view.Expired(items))
				return nil
			})
		},
	}
}

func newWatchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Живой список задач в терминале",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(cmd, func(ctx context.Context, svc *service.TaskService) error {
				return tui.Run(svc)
			})
		},
	}
}
