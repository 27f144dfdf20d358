package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"pkt.systems/psi"
	"pkt.systems/pslog"

	"github.com/sadopc/omatheme/internal/app"
	"github.com/sadopc/omatheme/internal/config"
	"github.com/sadopc/omatheme/internal/style"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// errReported marks a failure whose message was already printed.
var errReported = errors.New("failure already reported")

func main() {
	psi.Run(submain)
}

func submain(ctx context.Context) int {
	logger := pslog.LoggerFromEnv(
		pslog.WithEnvWriter(os.Stderr),
		pslog.WithEnvOptions(pslog.Options{Mode: pslog.ModeConsole}),
	)
	ctx = pslog.ContextWithLogger(ctx, logger)
	log.SetOutput(pslog.LogLogger(logger).Writer())
	log.SetFlags(0)

	root := newRootCmd()
	root.SetArgs(os.Args[1:])

	if err := root.ExecuteContext(ctx); err != nil {
		if !errors.Is(err, errReported) {
			fmt.Fprintln(os.Stderr, style.Current.ErrorText.Render("Error: "+err.Error()))
			pslog.Ctx(ctx).With("err", err).Debug("omatheme command failed")
		}
		return 1
	}
	return 0
}

type rootOptions struct {
	configPath string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:   "omatheme",
		Short: "Manage Omarchy desktop themes",
		Long: `omatheme lists, previews, sets, installs and removes Omarchy themes.

Theme names are matched loosely: case, spaces, hyphens and underscores are
ignored and a partial name selects the first theme that contains it.

Examples:
  omatheme list --filter can-install --scheme light
  omatheme set tokyo
  omatheme install "rose pine" -o preview.png
  omatheme remove bauhaus
  omatheme pick`,
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "Config file path")

	root.AddCommand(newListCmd(opts))
	root.AddCommand(newCurrentCmd(opts))
	root.AddCommand(newSetCmd(opts))
	root.AddCommand(newPreviewCmd(opts))
	root.AddCommand(newInstallCmd(opts))
	root.AddCommand(newRemoveCmd(opts))
	root.AddCommand(newBgNextCmd(opts))
	root.AddCommand(newHistoryCmd(opts))
	root.AddCommand(newPickCmd(opts))
	root.AddCommand(newConfigCmd(opts))
	root.AddCommand(newVersionCmd())
	return root
}

// loadConfig reads the --config file or the default one and selects the
// output palette.
func (o *rootOptions) loadConfig(ctx context.Context) (*config.Config, error) {
	var cfg *config.Config
	var err error
	if o.configPath != "" {
		cfg, err = config.Load(o.configPath)
	} else {
		cfg, err = config.LoadDefault()
	}
	if err != nil {
		if o.configPath != "" {
			return nil, err
		}
		pslog.Ctx(ctx).Warn("could not load config, using defaults", "err", err)
		cfg = config.DefaultConfig()
	}
	style.Use(cfg.Output.Style, cfg.Output.Color && os.Getenv("NO_COLOR") == "")
	return cfg, nil
}

// openService loads the configuration and opens a Service. The caller closes
// it.
func (o *rootOptions) openService(cmd *cobra.Command) (*app.Service, error) {
	ctx := cmd.Context()
	cfg, err := o.loadConfig(ctx)
	if err != nil {
		return nil, err
	}
	return app.Open(ctx, cfg)
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "omatheme %s (commit: %s, built: %s)\n", version, commit, date)
		},
	}
}
