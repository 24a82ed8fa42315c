package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"github.com/vk/pluginmanager/internal/app"
	"github.com/vk/pluginmanager/internal/discovery"
	"github.com/vk/pluginmanager/internal/watch"
)

func newDiscoverCommand(opts *options, logW io.Writer) *cobra.Command {
	var strict bool

	cmd := &cobra.Command{
		Use:   "discover",
		Short: "Run one discovery pass and print the published plugins as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.newApp(cmd.Context(), logW, nil)
			if err != nil {
				return err
			}
			res, err := a.Discover(cmd.Context())
			if err != nil {
				return err
			}

			data, err := json.MarshalIndent(res.Snapshot, "", "  ")
			if err != nil {
				return fmt.Errorf("failed to encode snapshot: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(data))

			if strict && len(res.Report.Errors) > 0 {
				return &ExitError{Code: 1, Message: fmt.Sprintf("discovery reported %d problem(s):\n%v", len(res.Report.Errors), res.Report.Err())}
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&strict, "strict", false, "Exit with status 1 if any definition was skipped or dropped.")
	return cmd
}

func newTypesCommand(opts *options, logW io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "types",
		Short: "List the plugin types declared by all modules",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.newApp(cmd.Context(), logW, nil)
			if err != nil {
				return err
			}
			cat, err := discovery.BuildCatalog(a.Context(), a.Registry())
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "OWNER\tTYPE\tLOAD THEMES")
			for _, pt := range cat.Types() {
				fmt.Fprintf(tw, "%s\t%s\t%t\n", pt.Owner(), pt.Name(), pt.LoadThemes())
			}
			return tw.Flush()
		},
	}
}

func newLocateCommand(opts *options, logW io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "locate",
		Short: "List the plugin directories every module resolves to",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.newApp(cmd.Context(), logW, nil)
			if err != nil {
				return err
			}
			_, locations, locErrs, err := a.Discoverer().Locate(a.Context())
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "PROVIDER\tTYPE\tDIRECTORY")
			for _, loc := range locations {
				fmt.Fprintf(tw, "%s\t%s\t%s\n", loc.Provider, loc.TypeKey(), loc.Dir)
			}
			if err := tw.Flush(); err != nil {
				return err
			}
			for _, e := range locErrs {
				fmt.Fprintf(cmd.ErrOrStderr(), "warning: %v\n", e)
			}
			return nil
		},
	}
}

func newServeCommand(opts *options, logW io.Writer) *cobra.Command {
	var (
		port     int
		watchFS  bool
		debounce time.Duration
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Publish plugins over HTTP and optionally re-discover on file changes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.newApp(cmd.Context(), logW, func(cfg *app.Config) {
				cfg.HealthcheckPort = port
				cfg.Watch = watchFS
				cfg.WatchDebounce = debounce
			})
			if err != nil {
				return err
			}
			return a.Serve(cmd.Context())
		},
	}
	cmd.Flags().IntVar(&port, "healthcheck-port", 8080, "Port for the /health, /metrics and /plugins endpoints. 0 is disabled.")
	cmd.Flags().BoolVar(&watchFS, "watch", false, "Re-run discovery when files under a module root change.")
	cmd.Flags().DurationVar(&debounce, "watch-debounce", watch.DefaultDebounce, "Quiet period before a change triggers discovery.")
	return cmd
}
