// Command topicbus runs a topic router over stdin and inspects its dead-letter journal.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/randalmurphal/topicbus/pkg/topicbus/config"
	"github.com/spf13/cobra"
)

var (
	version    = "0.1.0"
	logger     *slog.Logger
	configPath string
	verbose    bool
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:     "topicbus",
		Short:   "In-process topic router",
		Long:    "topicbus fans envelopes from one ingress out to per-topic subscribers.",
		Version: version,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := slog.LevelInfo
			if verbose {
				level = slog.LevelDebug
			}
			logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
		},
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to a topics config (.yaml, .yml or .json)")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(pipeCmd())
	root.AddCommand(topicsCmd())
	root.AddCommand(deadLettersCmd())
	return root
}

// loadConfig reads --config, or returns an empty config when the flag is unset.
func loadConfig() (config.Config, error) {
	if configPath == "" {
		return config.New(nil), nil
	}
	cfg, err := config.FromFile(configPath)
	if err != nil {
		return config.Config{}, fmt.Errorf("load config %s: %w", configPath, err)
	}
	return cfg, nil
}

func topicsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "topics",
		Short: "List the topics a config registers",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			specs, err := cfg.Topics()
			if err != nil {
				return err
			}
			for _, spec := range specs {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%d\n", spec.Name, spec.Capacity())
			}
			return nil
		},
	}
}
