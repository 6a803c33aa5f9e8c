package wlctlcmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/corvidwl/wlgo/internal/wlconfig"
	"github.com/corvidwl/wlgo/internal/wlog"
)

var logLevel string

var rootCmd = &cobra.Command{
	Use:   "wlctl",
	Short: "Control Wayland toplevel windows and inspect the clipboard",
	Long: `wlctl lists and controls application windows exposed through the
wlr-foreign-toplevel-management protocol, and can print the current
clipboard selection via wlr-data-control.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := wlconfig.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		level := logLevel
		if level == "" {
			level = cfg.LogLevel
		}
		wlog.SetLevel(level)
		return nil
	},
}

// Execute runs the CLI, exiting the process with a non-zero status on
// failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "wlctl:", err)
		os.Exit(1)
	}
}

func init() {
	registerCommands(rootCmd)
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error, fatal, panic)")
}
