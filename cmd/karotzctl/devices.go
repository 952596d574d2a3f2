package main

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/wulfaz/karotzctl/internal/config"
	"github.com/wulfaz/karotzctl/internal/discovery"
	"github.com/wulfaz/karotzctl/internal/karotz"
	"github.com/wulfaz/karotzctl/internal/ui"
)

func newDevicesCmd(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "devices",
		Short: "Manage registered rabbits",
		Long: `Manage the rabbits registered in the configuration file.

Registered rabbits can be targeted by name with --device. The default
rabbit is used when --device is not given.`,
		Example: `  karotzctl devices add salon 192.168.1.20 --default
  karotzctl devices add bureau karotz-bureau.local --port 8080
  karotzctl devices list
  karotzctl devices default bureau
  karotzctl devices remove salon`,
	}

	cmd.AddCommand(
		newDevicesListCmd(opts),
		newDevicesAddCmd(opts),
		newDevicesRemoveCmd(opts),
		newDevicesDefaultCmd(opts),
	)
	return cmd
}

func newDevicesListCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List registered rabbits",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := opts.loadRegistry()
			if err != nil {
				return err
			}
			r := opts.reporter(cmd)

			if r.json() {
				return r.writeJSON(reg.Devices)
			}

			if len(reg.Devices) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No rabbits registered. Use 'karotzctl devices add <name> <host>' or 'karotzctl scan --add'.")
				return nil
			}

			rows := make([][]string, 0, len(reg.Devices))
			for _, name := range reg.SortedNames() {
				d := reg.Devices[name]
				host, port := d.Address()

				marker := ""
				if name == reg.Preferences.DefaultDevice {
					marker = "*"
				}
				lastSeen := "never"
				if !d.LastSeen.IsZero() {
					lastSeen = d.LastSeen.Local().Format("2006-01-02 15:04")
				}
				rows = append(rows, []string{marker, name, host, strconv.Itoa(port), d.Nickname, lastSeen})
			}
			r.printer.Table([]string{"", "Name", "Host", "Port", "Nickname", "Last seen"}, rows)
			return nil
		},
	}
}

func newDevicesAddCmd(opts *globalOptions) *cobra.Command {
	var (
		port        int
		nickname    string
		makeDefault bool
		replace     bool
		check       bool
	)

	cmd := &cobra.Command{
		Use:   "add <name> <host>",
		Short: "Register a rabbit",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, host := args[0], args[1]

			reg, err := opts.loadRegistry()
			if err != nil {
				return err
			}
			r := opts.reporter(cmd)

			device := &config.Device{Host: host, Port: port, Nickname: nickname}
			if port == karotz.DefaultPort {
				device.Port = 0
			}

			if check {
				h, p := device.Address()
				client := karotz.NewClient(h, p)
				if opts.timeout > 0 {
					client.SetTimeout(opts.timeout)
				}
				if client.IsOnline(cmd.Context()) {
					device.LastSeen = time.Now()
				} else if !r.json() {
					r.printer.Warning(net.JoinHostPort(h, strconv.Itoa(p)) + " did not answer, registering it anyway")
				}
			}

			if err := reg.AddDevice(name, device, replace); err != nil {
				if errors.Is(err, config.ErrDeviceExists) {
					return fmt.Errorf("%w (use --replace to overwrite)", err)
				}
				return err
			}
			if makeDefault || len(reg.Devices) == 1 {
				if err := reg.SetDefaultDevice(name); err != nil {
					return err
				}
			}
			if err := opts.saveRegistry(); err != nil {
				return err
			}

			h, p := device.Address()
			return r.success("Rabbit registered",
				ui.Param{Key: "Name", Value: name},
				ui.Param{Key: "Address", Value: net.JoinHostPort(h, strconv.Itoa(p))},
				ui.Param{Key: "Default", Value: strconv.FormatBool(reg.Preferences.DefaultDevice == name)},
			)
		},
	}

	cmd.Flags().IntVar(&port, "port", karotz.DefaultPort, "Rabbit HTTP port")
	cmd.Flags().StringVar(&nickname, "nickname", "", "Friendly name shown in listings")
	cmd.Flags().BoolVar(&makeDefault, "default", false, "Make this the default rabbit")
	cmd.Flags().BoolVar(&replace, "replace", false, "Overwrite an existing registration")
	cmd.Flags().BoolVar(&check, "check", true, "Check that the rabbit answers before registering")
	return cmd
}

func newDevicesRemoveCmd(opts *globalOptions) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:     "remove <name>",
		Aliases: []string{"rm"},
		Short:   "Forget a registered rabbit",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]

			reg, err := opts.loadRegistry()
			if err != nil {
				return err
			}
			if reg.GetDevice(name) == nil {
				return fmt.Errorf("%w: %s", config.ErrDeviceNotFound, name)
			}

			if !yes && !ui.Confirm(cmd.InOrStdin(), cmd.OutOrStdout(), fmt.Sprintf("Remove %s from the registry?", name)) {
				return nil
			}

			if err := reg.RemoveDevice(name); err != nil {
				return err
			}
			if err := opts.saveRegistry(); err != nil {
				return err
			}
			return opts.reporter(cmd).success("Rabbit removed", ui.Param{Key: "Name", Value: name})
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Do not ask for confirmation")
	return cmd
}

func newDevicesDefaultCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "default <name>",
		Short: "Set the default rabbit",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := opts.loadRegistry()
			if err != nil {
				return err
			}
			if err := reg.SetDefaultDevice(args[0]); err != nil {
				return err
			}
			if err := opts.saveRegistry(); err != nil {
				return err
			}
			return opts.reporter(cmd).success("Default rabbit set", ui.Param{Key: "Name", Value: args[0]})
		},
	}
}

func newScanCmd(opts *globalOptions) *cobra.Command {
	var (
		timeout int
		add     bool
	)

	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Discover rabbits on the local network",
		Long: `Discover rabbits using mDNS/DNS-SD.

Every HTTP service announced on the network is probed; only those that
answer the status request like an OpenKarotz are listed. Rabbits that do
not announce themselves can still be registered with 'karotzctl devices add'.`,
		Example: `  # Scan with the configured timeout
  karotzctl scan

  # Longer scan, registering what is found
  karotzctl scan --timeout 15 --add`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.validateFormat(); err != nil {
				return err
			}
			r := opts.reporter(cmd)

			scanner := discovery.NewScanner()
			if timeout <= 0 {
				timeout = opts.preferences().DiscoverTimeout
			}
			if timeout > 0 {
				scanner.Timeout = time.Duration(timeout) * time.Second
			}
			if opts.timeout > 0 {
				scanner.ProbeTimeout = opts.timeout
			}

			if !r.json() {
				fmt.Fprintf(cmd.OutOrStdout(), "Scanning for rabbits (timeout: %s)...\n\n", scanner.Timeout)
			}

			devices, err := scanner.ScanForDevices(cmd.Context())
			if err != nil {
				return fmt.Errorf("scan failed: %w", err)
			}

			if add {
				if err := registerScanned(opts, devices); err != nil {
					return err
				}
			}

			if r.json() {
				return r.writeJSON(devices)
			}

			if len(devices) == 0 {
				r.printer.Warning("No rabbits found",
					ui.Param{Key: "Timeout", Value: scanner.Timeout.String()},
					ui.Param{Key: "Tip", Value: "try a longer --timeout or 'karotzctl devices add <name> <host>'"},
				)
				return nil
			}

			rows := make([][]string, 0, len(devices))
			for _, d := range devices {
				rows = append(rows, []string{d.Name, d.IP, strconv.Itoa(d.Port), d.Version, d.WLANMAC})
			}
			r.printer.Table([]string{"Name", "IP", "Port", "Firmware", "WLAN MAC"}, rows)
			return nil
		},
	}

	cmd.Flags().IntVar(&timeout, "timeout", 0, "Scan timeout in seconds (default: configured discover timeout)")
	cmd.Flags().BoolVar(&add, "add", false, "Register found rabbits that are not registered yet")
	return cmd
}

// registerScanned adds discovered rabbits whose address is not registered
func registerScanned(opts *globalOptions, devices []*discovery.Device) error {
	reg, err := opts.loadRegistry()
	if err != nil {
		return err
	}

	known := make(map[string]bool, len(reg.Devices))
	for _, d := range reg.Devices {
		host, port := d.Address()
		known[net.JoinHostPort(host, strconv.Itoa(port))] = true
	}

	added := 0
	for _, d := range devices {
		if known[net.JoinHostPort(d.IP, strconv.Itoa(d.Port))] {
			continue
		}
		name := registryName(d.Name)
		for i := 2; reg.GetDevice(name) != nil; i++ {
			name = fmt.Sprintf("%s-%d", registryName(d.Name), i)
		}
		device := &config.Device{Host: d.IP, Port: d.Port, Nickname: d.Name, LastSeen: d.DiscoveredAt}
		if d.Port == karotz.DefaultPort {
			device.Port = 0
		}
		if err := reg.AddDevice(name, device, false); err != nil {
			return err
		}
		added++
	}

	if added == 0 {
		return nil
	}
	if reg.Preferences.DefaultDevice == "" && len(reg.Devices) == 1 {
		_ = reg.SetDefaultDevice(reg.SortedNames()[0])
	}
	return opts.saveRegistry()
}

// registryName turns an mDNS instance name into a --device friendly name
func registryName(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	var b strings.Builder
	for _, c := range s {
		switch {
		case c >= 'a' && c <= 'z', c >= '0' && c <= '9', c == '-', c == '_':
			b.WriteRune(c)
		case c == ' ' || c == '.':
			b.WriteRune('-')
		}
	}
	if b.Len() == 0 {
		return "karotz"
	}
	return b.String()
}
