package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/wulfaz/karotzctl/internal/bridge"
	"github.com/wulfaz/karotzctl/internal/logging"
	"github.com/wulfaz/karotzctl/internal/tui"
)

func newDashboardCmd(opts *globalOptions) *cobra.Command {
	var voice string

	cmd := &cobra.Command{
		Use:   "dashboard",
		Short: "Launch the interactive dashboard",
		Long: `Launch a full-screen dashboard for one rabbit.

The dashboard shows the rabbit's status and drives it with single keys:
wake up, sleep, LED colors and pulse, ears, moods, text-to-speech.
Press ? for the full key list.`,
		Example: `  karotzctl dashboard
  karotzctl dashboard --device bureau --voice 3`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := opts.resolveTarget(cmd.Context(), cmd.OutOrStdout())
			if err != nil {
				return err
			}
			if voice == "" {
				voice = opts.preferences().DefaultVoice
			}

			if err := tui.Run(cmd.Context(), t.client, t.label(), voice); err != nil {
				return fmt.Errorf("dashboard error: %w", err)
			}
			if t.client.State().Loaded() {
				opts.touch(t)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&voice, "voice", "", "Voice id for text-to-speech (default: configured default voice)")
	return cmd
}

func newServeCmd(opts *globalOptions) *cobra.Command {
	var (
		listen string
		poll   time.Duration
		voice  string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Expose the rabbit over a local HTTP and WebSocket bridge",
		Long: `Run a local bridge in front of one rabbit.

REST endpoints under /api mirror the CLI commands and answer JSON.
WebSocket clients on /ws receive the rabbit's state whenever it changes
and can send commands such as {"id":"1","op":"leds","args":{"color":"FF0000"}}.

The bridge polls the rabbit's status every --poll interval (0 disables
polling) and stops cleanly on Ctrl+C.`,
		Example: `  # Serve the default rabbit on :8080
  karotzctl serve

  # Custom address and poll interval
  karotzctl serve --listen 127.0.0.1:9000 --poll 10s --log-level info

  # Then, from another terminal
  curl localhost:8080/api/status
  curl -X POST localhost:8080/api/leds -d '{"color":"00FF00","pulse":true}'`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := opts.resolveTarget(cmd.Context(), cmd.OutOrStdout())
			if err != nil {
				return err
			}
			if voice == "" {
				voice = opts.preferences().DefaultVoice
			}

			srv := bridge.New(t.client, bridge.Config{
				Listen:       listen,
				PollInterval: poll,
				DefaultVoice: voice,
			})

			fmt.Fprintf(cmd.OutOrStdout(), "Bridge for %s listening on %s (Ctrl+C to stop)\n", t.label(), listen)
			logging.Info("Starting bridge",
				zap.String("rabbit", t.label()),
				zap.String("listen", listen),
				zap.Duration("poll", poll),
			)

			return srv.Run(cmd.Context())
		},
	}

	cmd.Flags().StringVar(&listen, "listen", bridge.DefaultListen, "Address to listen on")
	cmd.Flags().DurationVar(&poll, "poll", bridge.DefaultPollInterval, "Status poll interval (0 disables polling)")
	cmd.Flags().StringVar(&voice, "voice", "", "Default voice for tts requests (default: configured default voice)")
	return cmd
}
