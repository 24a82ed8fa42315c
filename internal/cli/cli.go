package cli

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"
	"github.com/vk/pluginmanager/internal/app"
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

// options holds the values of the persistent flags.
type options struct {
	modulesPath  string
	manifestPath string
	logFormat    string
	logLevel     string
}

// NewRootCommand builds the command tree. Command output goes to outW, logs
// go to logW.
func NewRootCommand(outW, logW io.Writer) *cobra.Command {
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:   "pluginmanager",
		Short: "Discover, alter and publish plugin definitions",
		Long: `pluginmanager builds a registry of plugin definitions. Modules declare plugin
types, point at directories holding definition files, and may alter every
definition before it is published.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.validate()
		},
	}
	rootCmd.SetOut(outW)
	rootCmd.SetErr(logW)
	rootCmd.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return &ExitError{Code: 2, Message: err.Error()}
	})

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&opts.modulesPath, "modules-path", "modules", "Directory holding the roots of compiled-in modules.")
	flags.StringVar(&opts.manifestPath, "manifest", "", "Module manifest file, or a directory searched for *.manifest.hcl files.")
	flags.StringVar(&opts.logFormat, "log-format", "text", "Log output format. Options: 'text' or 'json'.")
	flags.StringVar(&opts.logLevel, "log-level", "info", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")

	rootCmd.AddCommand(
		newDiscoverCommand(opts, logW),
		newTypesCommand(opts, logW),
		newLocateCommand(opts, logW),
		newServeCommand(opts, logW),
	)
	return rootCmd
}

func (o *options) validate() error {
	o.logFormat = strings.ToLower(o.logFormat)
	if o.logFormat != "text" && o.logFormat != "json" {
		return &ExitError{Code: 2, Message: "invalid log-format: must be 'text' or 'json'"}
	}

	o.logLevel = strings.ToLower(o.logLevel)
	switch o.logLevel {
	case "debug", "info", "warn", "error":
		// valid
	default:
		return &ExitError{Code: 2, Message: "invalid log-level: must be 'debug', 'info', 'warn', or 'error'"}
	}
	slog.Debug("CLI parameter validation complete.")
	return nil
}

// config builds a validated app configuration from the flags.
func (o *options) config(extra func(*app.Config)) (*app.Config, error) {
	cfg := app.Config{
		ModulesPath:  o.modulesPath,
		ManifestPath: o.manifestPath,
		LogFormat:    o.logFormat,
		LogLevel:     o.logLevel,
	}
	if extra != nil {
		extra(&cfg)
	}
	validated, err := app.NewConfig(cfg)
	if err != nil {
		return nil, &ExitError{Code: 2, Message: err.Error()}
	}
	return validated, nil
}

func (o *options) newApp(ctx context.Context, logW io.Writer, extra func(*app.Config)) (*app.App, error) {
	cfg, err := o.config(extra)
	if err != nil {
		return nil, err
	}
	return app.NewApp(ctx, logW, cfg)
}

// Execute runs the command line in args. Usage problems are returned as
// *ExitError with code 2.
func Execute(ctx context.Context, args []string, outW, logW io.Writer) error {
	rootCmd := NewRootCommand(outW, logW)
	rootCmd.SetArgs(args)

	err := rootCmd.ExecuteContext(ctx)
	if err == nil {
		return nil
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return err
	}
	if strings.HasPrefix(err.Error(), "unknown command") {
		return &ExitError{Code: 2, Message: err.Error()}
	}
	return err
}
