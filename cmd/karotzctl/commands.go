package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/wulfaz/karotzctl/internal/karotz"
	"github.com/wulfaz/karotzctl/internal/ui"
)

func newStatusCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the rabbit's status",
		Long: `Fetch the rabbit's status and display it.

Shows sleep state, firmware version, LED color and pulse, ear mode,
storage usage and content counts.`,
		Example: `  # Detailed status of the default rabbit
  karotzctl status

  # One-screen summary
  karotzctl status --format compact

  # JSON for scripting
  karotzctl status --device 192.168.1.20 --format json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := opts.resolveTarget(cmd.Context(), cmd.OutOrStdout())
			if err != nil {
				return err
			}
			r := opts.reporter(cmd)

			state, err := t.client.GetStatus(cmd.Context())
			if err != nil {
				return r.failure("Could not read status from "+t.label(), err)
			}
			opts.touch(t)

			switch opts.format {
			case formatJSON:
				return r.writeJSON(state)
			case formatCompact:
				fmt.Fprintln(cmd.OutOrStdout(), state.FormatCompact())
			default:
				fmt.Fprintln(cmd.OutOrStdout(), state.FormatDetailed())
			}
			return nil
		},
	}
}

func newOnlineCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "online",
		Short: "Check whether the rabbit answers",
		Long: `Check whether the rabbit's CGI interface answers with JSON.

Exits with status 0 when it does and 1 otherwise.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := opts.resolveTarget(cmd.Context(), cmd.OutOrStdout())
			if err != nil {
				return err
			}
			r := opts.reporter(cmd)

			if !t.client.IsOnline(cmd.Context()) {
				return r.failure(t.label()+" is offline", karotz.NewNetworkError("rabbit did not answer", nil))
			}
			opts.touch(t)
			return r.success(t.label()+" is online", ui.Param{Key: "Online", Value: "true"})
		},
	}
}

func newWakeUpCmd(opts *globalOptions) *cobra.Command {
	var silent bool

	cmd := &cobra.Command{
		Use:   "wakeup",
		Short: "Wake the rabbit up",
		Example: `  # Wake up with the startup sound
  karotzctl wakeup

  # Wake up quietly
  karotzctl wakeup --silent`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := opts.resolveTarget(cmd.Context(), cmd.OutOrStdout())
			if err != nil {
				return err
			}
			r := opts.reporter(cmd)
			r.header("Wake up", "karotzctl wakeup", t)

			if err := t.client.WakeUp(cmd.Context(), silent); err != nil {
				return r.failure("Wake up failed", err)
			}
			return r.success("Rabbit is awake", ui.Param{Key: "Silent", Value: strconv.FormatBool(silent)})
		},
	}

	cmd.Flags().BoolVar(&silent, "silent", false, "Wake up without playing the startup sound")
	return cmd
}

func newSleepCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "sleep",
		Short: "Put the rabbit to sleep",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := opts.resolveTarget(cmd.Context(), cmd.OutOrStdout())
			if err != nil {
				return err
			}
			r := opts.reporter(cmd)
			r.header("Sleep", "karotzctl sleep", t)

			if err := t.client.Sleep(cmd.Context()); err != nil {
				return r.failure("Sleep failed", err)
			}
			return r.success("Rabbit is sleeping")
		},
	}
}

func newLEDCmd(opts *globalOptions) *cobra.Command {
	var pulse bool

	cmd := &cobra.Command{
		Use:   "led <RRGGBB>",
		Short: "Set the LED color",
		Long: `Set the LED color as a 6-digit hex value, with or without a leading #.

Use 000000 to switch the LED off.`,
		Example: `  # Steady red
  karotzctl led FF0000

  # Pulsing blue
  karotzctl led "#0000FF" --pulse`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			color, err := karotz.ParseColor(args[0])
			if err != nil {
				return err
			}

			t, err := opts.resolveTarget(cmd.Context(), cmd.OutOrStdout())
			if err != nil {
				return err
			}
			r := opts.reporter(cmd)
			r.header("LED", "karotzctl led", t)

			if err := t.client.SetLED(cmd.Context(), color, pulse); err != nil {
				return r.failure("Could not change the LED", err)
			}

			state := t.client.State()
			return r.success("LED changed",
				ui.Param{Key: "Color", Value: state.LEDColor.String()},
				ui.Param{Key: "Pulse", Value: strconv.FormatBool(state.Pulsing)},
			)
		},
	}

	cmd.Flags().BoolVar(&pulse, "pulse", false, "Make the LED pulse")
	return cmd
}

func newEarsCmd(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ears <left> <right>",
		Short: "Move the ears",
		Long: `Move both ears to positions between 0 and 16.

Subcommands move them randomly, reset them, or enable and disable them.`,
		Example: `  # Move the ears
  karotzctl ears 5 10

  # Random positions
  karotzctl ears random

  # Back to rest
  karotzctl ears reset

  # Stop the ears from moving
  karotzctl ears mode disabled`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			left, err := karotz.ParseEarPosition(args[0])
			if err != nil {
				return fmt.Errorf("left ear: %w", err)
			}
			right, err := karotz.ParseEarPosition(args[1])
			if err != nil {
				return fmt.Errorf("right ear: %w", err)
			}

			t, err := opts.resolveTarget(cmd.Context(), cmd.OutOrStdout())
			if err != nil {
				return err
			}
			r := opts.reporter(cmd)
			r.header("Ears", "karotzctl ears", t)

			pos, err := t.client.MoveEars(cmd.Context(), left, right)
			if err != nil {
				return r.failure("Could not move the ears", err)
			}
			return r.success("Ears moved", earParams(pos)...)
		},
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "random",
			Short: "Move the ears to random positions",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				t, err := opts.resolveTarget(cmd.Context(), cmd.OutOrStdout())
				if err != nil {
					return err
				}
				r := opts.reporter(cmd)
				r.header("Ears", "karotzctl ears random", t)

				pos, err := t.client.RandomEars(cmd.Context())
				if err != nil {
					return r.failure("Could not move the ears", err)
				}
				return r.success("Ears moved", earParams(pos)...)
			},
		},
		&cobra.Command{
			Use:   "reset",
			Short: "Move the ears back to rest",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				t, err := opts.resolveTarget(cmd.Context(), cmd.OutOrStdout())
				if err != nil {
					return err
				}
				r := opts.reporter(cmd)
				r.header("Ears", "karotzctl ears reset", t)

				if err := t.client.ResetEars(cmd.Context()); err != nil {
					return r.failure("Could not reset the ears", err)
				}
				return r.success("Ears reset", earParams([2]karotz.EarPosition{})...)
			},
		},
		&cobra.Command{
			Use:       "mode <enabled|disabled>",
			Short:     "Enable or disable the ears",
			Args:      cobra.ExactArgs(1),
			ValidArgs: []string{"enabled", "disabled"},
			RunE: func(cmd *cobra.Command, args []string) error {
				mode, err := karotz.ParseEarMode(args[0])
				if err != nil {
					return err
				}

				t, err := opts.resolveTarget(cmd.Context(), cmd.OutOrStdout())
				if err != nil {
					return err
				}
				r := opts.reporter(cmd)
				r.header("Ear mode", "karotzctl ears mode", t)

				got, err := t.client.SetEarMode(cmd.Context(), mode)
				if err != nil {
					return r.failure("Could not change the ear mode", err)
				}
				return r.success("Ear mode changed", ui.Param{Key: "Mode", Value: got.String()})
			},
		},
	)

	return cmd
}

func earParams(pos [2]karotz.EarPosition) []ui.Param {
	return []ui.Param{
		{Key: "Left", Value: pos[0].String()},
		{Key: "Right", Value: pos[1].String()},
	}
}

func newSoundCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "sound <url>",
		Short:   "Play a sound or stream from a URL",
		Example: `  karotzctl sound http://example.com/ding.mp3`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := opts.resolveTarget(cmd.Context(), cmd.OutOrStdout())
			if err != nil {
				return err
			}
			r := opts.reporter(cmd)
			r.header("Sound", "karotzctl sound", t)

			if err := t.client.PlaySound(cmd.Context(), args[0]); err != nil {
				return r.failure("Could not play the sound", err)
			}
			return r.success("Playing", ui.Param{Key: "URL", Value: args[0]})
		},
	}
}

func newSoundControlCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:       "sound-control <quit|pause>",
		Short:     "Stop or pause the current sound",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{string(karotz.SoundQuit), string(karotz.SoundPause)},
		RunE: func(cmd *cobra.Command, args []string) error {
			control, err := karotz.ParseSoundControlCommand(args[0])
			if err != nil {
				return err
			}

			t, err := opts.resolveTarget(cmd.Context(), cmd.OutOrStdout())
			if err != nil {
				return err
			}
			r := opts.reporter(cmd)
			r.header("Sound control", "karotzctl sound-control", t)

			if err := t.client.SoundControl(cmd.Context(), control); err != nil {
				return r.failure("Sound control failed", err)
			}
			return r.success("Sound control sent", ui.Param{Key: "Command", Value: string(control)})
		},
	}
}

func newTTSCmd(opts *globalOptions) *cobra.Command {
	var voice string

	cmd := &cobra.Command{
		Use:   "tts <text>...",
		Short: "Make the rabbit speak",
		Long: `Read text aloud with a text-to-speech voice.

Arguments are joined with spaces. The voice defaults to the configured
default voice; 'karotzctl voices' lists the available ones.`,
		Example: `  karotzctl tts Bonjour tout le monde
  karotzctl tts "Hello" --voice 3`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text := strings.Join(args, " ")

			t, err := opts.resolveTarget(cmd.Context(), cmd.OutOrStdout())
			if err != nil {
				return err
			}
			if voice == "" {
				voice = opts.preferences().DefaultVoice
			}

			r := opts.reporter(cmd)
			r.header("Text to speech", "karotzctl tts", t)

			if err := t.client.Speak(cmd.Context(), voice, text); err != nil {
				return r.failure("Could not speak", err)
			}
			return r.success("Speaking",
				ui.Param{Key: "Voice", Value: voice},
				ui.Param{Key: "Text", Value: text},
			)
		},
	}

	cmd.Flags().StringVar(&voice, "voice", "", "Voice id (default: configured default voice)")
	return cmd
}

func newMoodCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "mood",
		Short: "Play a random mood",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := opts.resolveTarget(cmd.Context(), cmd.OutOrStdout())
			if err != nil {
				return err
			}
			r := opts.reporter(cmd)
			r.header("Mood", "karotzctl mood", t)

			id, err := t.client.PlayRandomMood(cmd.Context())
			if err != nil {
				return r.failure("Could not play a mood", err)
			}
			return r.success("Playing mood", ui.Param{Key: "Mood", Value: id})
		},
	}
}

func newVoicesCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "voices",
		Short: "List text-to-speech voices",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := opts.resolveTarget(cmd.Context(), cmd.OutOrStdout())
			if err != nil {
				return err
			}
			r := opts.reporter(cmd)

			raw, err := t.client.ListVoices(cmd.Context())
			if err != nil {
				return r.failure("Could not list voices", err)
			}
			if r.json() {
				return r.writeJSON(raw)
			}

			voices, err := karotz.ParseVoices(raw)
			if err != nil {
				return r.failure("Could not list voices", err)
			}

			rows := make([][]string, 0, len(voices))
			for _, v := range voices {
				rows = append(rows, []string{v.ID, v.Lang})
			}
			r.printer.Table([]string{"ID", "Language"}, rows)
			return nil
		},
	}
}

func newRadiosCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "radios",
		Short: "List the rabbit's radio stations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := opts.resolveTarget(cmd.Context(), cmd.OutOrStdout())
			if err != nil {
				return err
			}
			r := opts.reporter(cmd)

			raw, err := t.client.ListRadioStations(cmd.Context())
			if err != nil {
				return r.failure("Could not list radio stations", err)
			}
			if r.json() {
				return r.writeJSON(raw)
			}

			stations, err := karotz.ParseRadioStations(raw)
			if err != nil {
				return r.failure("Could not list radio stations", err)
			}

			rows := make([][]string, 0, len(stations))
			for _, s := range stations {
				rows = append(rows, []string{strconv.Itoa(s.ID), s.Name, s.URL})
			}
			r.printer.Table([]string{"ID", "Name", "URL"}, rows)
			return nil
		},
	}
}

func newRadioCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "radio <id>",
		Short: "Play one of the rabbit's radio stations",
		Example: `  karotzctl radios
  karotzctl radio 3`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid station id %q", args[0])
			}

			t, err := opts.resolveTarget(cmd.Context(), cmd.OutOrStdout())
			if err != nil {
				return err
			}
			r := opts.reporter(cmd)
			r.header("Radio", "karotzctl radio", t)

			raw, err := t.client.ListRadioStations(cmd.Context())
			if err != nil {
				return r.failure("Could not list radio stations", err)
			}
			stations, err := karotz.ParseRadioStations(raw)
			if err != nil {
				return r.failure("Could not list radio stations", err)
			}

			station, ok := karotz.FindRadioStation(stations, id)
			if !ok {
				return r.failure("Unknown station", errors.New("no station with id "+args[0]+"; see 'karotzctl radios'"))
			}

			if err := t.client.PlayRadio(cmd.Context(), station); err != nil {
				return r.failure("Could not play "+station.Name, err)
			}
			return r.success("Playing "+station.Name, ui.Param{Key: "URL", Value: station.URL})
		},
	}
}
