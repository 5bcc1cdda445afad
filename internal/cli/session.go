package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/handiism/dstask/internal/session"
)

func newAuthCheckCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "auth-check",
		Short: "Log in if needed and verify the session works",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := opts.connect(cmd.Context())
			if err != nil {
				return err
			}
			return a.Manager.AuthCheck(cmd.Context())
		},
	}
}

func newLogoutCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "End the session and forget the cached token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := opts.connect(cmd.Context())
			if err != nil {
				return err
			}
			if err := a.Auth.Logout(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintf(opts.errOut, "✓ Logged out of %s\n", a.Auth.HostKey())
			return nil
		},
	}
}

func newSessionCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "session",
		Short: "Manage the local session cache",
	}
	cmd.AddCommand(newSessionClearCmd(opts))
	return cmd
}

func newSessionClearCmd(opts *options) *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Forget the cached session for the host, or for every host with --all",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			s, err := opts.settings()
			if err != nil {
				return err
			}
			store := session.NewFileStore(s.SessionFile)

			if all {
				if err := store.Clear(); err != nil {
					return err
				}
				fmt.Fprintln(opts.errOut, "✓ Cleared all cached sessions")
				return nil
			}

			key := session.NormalizeHost(s.Host)
			if key == "" {
				return fmt.Errorf("no host configured: use --host or --all")
			}
			if err := store.Delete(key); err != nil {
				return err
			}
			fmt.Fprintf(opts.errOut, "✓ Cleared cached session for %s\n", key)
			return nil
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "Clear sessions for every host")
	return cmd
}
