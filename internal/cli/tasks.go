package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/handiism/dstask/internal/download"
)

func newListCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List download tasks",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := opts.connect(cmd.Context())
			if err != nil {
				return err
			}
			tasks, err := a.Manager.List(cmd.Context())
			if err != nil {
				return err
			}
			printTasks(opts.out, tasks)
			return nil
		},
	}
}

func newInfoCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "info <task-id>",
		Short: "Show one task in detail",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.connect(cmd.Context())
			if err != nil {
				return err
			}
			task, err := a.Manager.Info(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			printTask(opts.out, task)
			return nil
		},
	}
}

func newCreateCmd(opts *options) *cobra.Command {
	var (
		file        string
		destination string
	)

	cmd := &cobra.Command{
		Use:   "create [url...]",
		Short: "Create tasks from URLs, magnet links or a torrent file",
		Long: `Create download tasks from one or more URLs or magnet links, or from a
local .torrent/.nzb file with --file.

Without --destination, the destination cached for the host is used. If the
service still needs one, you are asked for a folder once; the folder that
worked is remembered for next time.`,
		Example: `  dstask create "magnet:?xt=urn:btih:..."
  dstask create --file ubuntu.torrent --destination /volume1/downloads`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if file == "" && len(args) == 0 {
				return fmt.Errorf("give at least one URL or --file")
			}
			if file != "" && len(args) > 0 {
				return fmt.Errorf("give either URLs or --file, not both")
			}

			a, err := opts.connect(cmd.Context())
			if err != nil {
				return err
			}
			ids, err := a.Manager.Create(cmd.Context(), download.CreateRequest{
				URLs:        args,
				File:        file,
				Destination: destination,
			})
			if err != nil {
				return err
			}
			if len(ids) > 0 {
				fmt.Fprintln(opts.out, strings.Join(ids, "\n"))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "Local .torrent or .nzb file to upload")
	cmd.Flags().StringVarP(&destination, "destination", "d", "", "Destination folder on the server")
	return cmd
}

func newPauseCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "pause <task-id>...",
		Short: "Pause tasks",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.connect(cmd.Context())
			if err != nil {
				return err
			}
			return a.Manager.Pause(cmd.Context(), args...)
		},
	}
}

func newResumeCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "resume <task-id>...",
		Short: "Resume paused tasks",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.connect(cmd.Context())
			if err != nil {
				return err
			}
			return a.Manager.Resume(cmd.Context(), args...)
		},
	}
}

func newCompleteCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "complete <task-id>",
		Short: "Mark a task complete",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.connect(cmd.Context())
			if err != nil {
				return err
			}
			return a.Manager.Complete(cmd.Context(), args[0])
		},
	}
}

func newDeleteCmd(opts *options) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:     "delete <task-id>...",
		Aliases: []string{"rm"},
		Short:   "Delete tasks",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.connect(cmd.Context())
			if err != nil {
				return err
			}
			return a.Manager.Delete(cmd.Context(), args, force)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Move partially downloaded data to the destination before deleting")
	return cmd
}

func newClearCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove finished tasks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := opts.connect(cmd.Context())
			if err != nil {
				return err
			}
			return a.Manager.ClearCompleted(cmd.Context())
		},
	}
}
