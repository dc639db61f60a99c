package cli

import (
	"bufio"
	"context"
	"errors"
	"io"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/rl1809/pos-register/internal/config"
	"github.com/rl1809/pos-register/internal/obs"
)

// Env is a wired terminal. Run drives the session and its background workers
// until ctx is done; Close releases connections afterwards.
type Env struct {
	App   *App
	Run   func(ctx context.Context) error
	Close func()
}

type Builder func(ctx context.Context, cfg config.Config, logger *zap.Logger) (*Env, error)

// NewRootCommand returns the pos command tree. build is called lazily by the
// commands that need a wired terminal.
func NewRootCommand(build Builder, in io.Reader, out io.Writer) *cobra.Command {
	v := config.NewViper()

	var (
		cfg    config.Config
		logger *zap.Logger
	)

	root := &cobra.Command{
		Use:           "pos",
		Short:         "Point-of-sale register terminal",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := config.ReadFile(v, v.GetString("config")); err != nil {
				return err
			}

			var err error
			if cfg, err = config.Load(v); err != nil {
				return err
			}
			logger, err = obs.NewLogger(cfg.LogLevel, cfg.LogFormat)
			return err
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if logger != nil {
				_ = logger.Sync()
			}
		},
	}
	root.SetIn(in)
	root.SetOut(out)
	root.SetErr(out)

	flags := root.PersistentFlags()
	flags.String("config", "", "config file (yaml, json or toml)")
	flags.String("terminal-id", v.GetString("terminal-id"), "terminal identifier sent with each sale")
	flags.String("transport", v.GetString("transport"), "register transport: http|grpc")
	flags.String("backend-url", v.GetString("backend-url"), "register HTTP base URL")
	flags.String("grpc-addr", v.GetString("grpc-addr"), "register gRPC address")
	flags.Duration("search-debounce", v.GetDuration("search-debounce"), "quiet time before a search is sent")
	flags.String("redis-addr", v.GetString("redis-addr"), "redis address for cart drafts (empty disables)")
	flags.String("mysql-dsn", v.GetString("mysql-dsn"), "mysql DSN for the sale journal (empty disables)")
	flags.String("spool-dir", v.GetString("spool-dir"), "directory receipts are spooled to")
	flags.String("print-command", v.GetString("print-command"), "command run with each spooled receipt path")
	flags.String("log-level", v.GetString("log-level"), "log level")
	flags.String("log-format", v.GetString("log-format"), "log format: console|json")
	_ = v.BindPFlags(flags)

	root.AddCommand(shellCommand(v, build, &cfg, &logger), reportCommand(build, &cfg, &logger))
	return root
}

func shellCommand(v *viper.Viper, build Builder, cfg *config.Config, logger **zap.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "shell",
		Short: "Interactive register shell",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			env, err := build(ctx, *cfg, *logger)
			if err != nil {
				return err
			}
			defer env.Close()

			app := env.App
			app.In = bufio.NewReader(cmd.InOrStdin())
			app.Out = cmd.OutOrStdout()
			app.Prompt = v.GetString("terminal-id") + "> "

			runErr := make(chan error, 1)
			go func() { runErr <- env.Run(ctx) }()

			// stdin reads cannot be interrupted; a signal ends the shell without them
			shellDone := make(chan error, 1)
			go func() { shellDone <- app.Shell(ctx) }()

			var shellErr error
			select {
			case shellErr = <-shellDone:
			case <-ctx.Done():
			}
			cancel()
			return errors.Join(shellErr, <-runErr)
		},
	}
}

func reportCommand(build Builder, cfg *config.Config, logger **zap.Logger) *cobra.Command {
	var from, to string
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Cash flow per payment method from the sale journal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := build(cmd.Context(), *cfg, *logger)
			if err != nil {
				return err
			}
			defer env.Close()

			env.App.Out = cmd.OutOrStdout()
			return env.App.Report(cmd.Context(), from, to)
		},
	}
	cmd.Flags().StringVar(&from, "from", "", "first day (YYYY-MM-DD), default today")
	cmd.Flags().StringVar(&to, "to", "", "last day (YYYY-MM-DD), default --from")
	return cmd
}
