// Karotzctl controls OpenKarotz rabbits over their HTTP CGI interface.
//
// It covers the whole device surface: status, sleep and wake up, LED color
// and pulse, ears, sounds and radio streams, text-to-speech and moods.
// Rabbits can be registered by name, discovered on the local network, driven
// from an interactive dashboard, or exposed to browsers through a local
// HTTP/WebSocket bridge.
//
// Usage:
//
//	karotzctl [command] [flags]
//
// See 'karotzctl --help' for available commands.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/wulfaz/karotzctl/internal/logging"
	"github.com/wulfaz/karotzctl/internal/urls"
	"github.com/wulfaz/karotzctl/internal/version"
)

// errReported is returned by commands that already printed their failure
var errReported = errors.New("command failed")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := newRootCmd().ExecuteContext(ctx)
	logging.Sync()
	if err != nil {
		if !errors.Is(err, errReported) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}

// newRootCmd builds the command tree. Each call returns an independent
// tree with its own flag values.
func newRootCmd() *cobra.Command {
	opts := &globalOptions{}

	rootCmd := &cobra.Command{
		Use:   "karotzctl",
		Short: "OpenKarotz rabbit controller",
		Long: `Control OpenKarotz rabbits from the command line.

Talks to the rabbit's CGI interface over plain HTTP: status, sleep and
wake up, LED, ears, sounds, radio, text-to-speech and moods.

The target rabbit is chosen with --device, which accepts a registered
name or a host. Without --device the default registered rabbit is used
(see 'karotzctl devices').

The rabbit must run the OpenKarotz firmware: ` + urls.OpenKarotzProject,
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		Example: `  # Register a rabbit and make it the default
  karotzctl devices add salon 192.168.1.20 --default

  # Show its status
  karotzctl status

  # Talk to an unregistered rabbit
  karotzctl tts "Bonjour" --device 192.168.1.21

  # Interactive dashboard
  karotzctl dashboard`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Silent unless --log-level or KAROTZ_LOG_LEVEL is set
			return logging.Initialize(opts.logLevel)
		},
	}

	// Disable automatic completion command generation
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&opts.device, "device", "", "Registered rabbit name or host (default: the default registered rabbit)")
	flags.IntVar(&opts.port, "port", 80, "Rabbit HTTP port when --device is a host")
	flags.StringVar(&opts.format, "format", "detailed", "Output format (detailed, compact, json)")
	flags.DurationVar(&opts.timeout, "timeout", 0, "Request timeout (e.g., 5s); 0 waits indefinitely")
	flags.StringVar(&opts.logLevel, "log-level", "", "Log level (debug, info, warn, error); overrides "+logging.LogLevelEnvVar)
	flags.StringVar(&opts.configPath, "config", "", "Config file (default: karotz/config.yaml in the user config dir)")

	rootCmd.AddCommand(
		newStatusCmd(opts),
		newOnlineCmd(opts),
		newWakeUpCmd(opts),
		newSleepCmd(opts),
		newLEDCmd(opts),
		newEarsCmd(opts),
		newSoundCmd(opts),
		newSoundControlCmd(opts),
		newTTSCmd(opts),
		newMoodCmd(opts),
		newVoicesCmd(opts),
		newRadiosCmd(opts),
		newRadioCmd(opts),
		newDevicesCmd(opts),
		newScanCmd(opts),
		newDashboardCmd(opts),
		newServeCmd(opts),
		newVersionCmd(),
	)

	return rootCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "karotzctl %s (commit: %s)\n", version.Version, version.Commit)
		},
	}
}
