package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ytget/yt-audio-bot/internal/config"
	"github.com/ytget/yt-audio-bot/internal/logging"
)

// Version is set during build via -ldflags "-X main.version=X.Y.Z"
var version = "dev"

const (
	AppName = "yt-audio-bot"

	FlagConfig   = "config"
	FlagLogLevel = "log-level"
	FlagLogJSON  = "log-json"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// newRootCommand builds the CLI with its own viper instance
func newRootCommand() *cobra.Command {
	v := viper.New()

	root := &cobra.Command{
		Use:           AppName,
		Short:         "Telegram bot that turns YouTube links and searches into tagged MP3 files",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			configFile := lo.Must(cmd.Flags().GetString(FlagConfig))
			settings, err := config.Load(v, configFile)
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}

			log := logging.Setup(settings.GetLogLevel(), settings.GetLogJSON(), cmd.ErrOrStderr())
			log.Infof("%s v%s starting...", AppName, version)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return run(ctx, settings, log)
		},
	}

	root.PersistentFlags().String(FlagConfig, "", "Path to a YAML config file (default ./"+config.ConfigName+".yaml)")
	root.PersistentFlags().String(FlagLogLevel, config.DefaultLogLevel, "Log level (debug, info, warn, error)")
	lo.Must0(v.BindPFlag(config.KeyLogLevel, root.PersistentFlags().Lookup(FlagLogLevel)))
	root.PersistentFlags().Bool(FlagLogJSON, false, "Log in JSON format")
	lo.Must0(v.BindPFlag(config.KeyLogJSON, root.PersistentFlags().Lookup(FlagLogJSON)))

	root.AddCommand(newVersionCommand())
	return root
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the application version",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "%s v%s\n", AppName, version)
		},
	}
}
