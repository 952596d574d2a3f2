package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/wulfaz/karotzctl/internal/config"
	"github.com/wulfaz/karotzctl/internal/discovery"
	"github.com/wulfaz/karotzctl/internal/karotz"
	"github.com/wulfaz/karotzctl/internal/logging"
	"github.com/wulfaz/karotzctl/internal/ui"
)

// Output formats accepted by --format
const (
	formatDetailed = "detailed"
	formatCompact  = "compact"
	formatJSON     = "json"
)

// globalOptions holds the persistent flags shared by every command
type globalOptions struct {
	device     string
	port       int
	format     string
	timeout    time.Duration
	logLevel   string
	configPath string

	registry *config.Registry
}

// target is the rabbit a command talks to
type target struct {
	name   string // registry name, empty for a raw host
	host   string
	port   int
	client *karotz.Client
}

func (t *target) label() string {
	addr := net.JoinHostPort(t.host, strconv.Itoa(t.port))
	if t.name == "" {
		return addr
	}
	return fmt.Sprintf("%s (%s)", t.name, addr)
}

func (o *globalOptions) validateFormat() error {
	switch o.format {
	case formatDetailed, formatCompact, formatJSON:
		return nil
	}
	return fmt.Errorf("invalid --format %q (use detailed, compact or json)", o.format)
}

// loadRegistry reads the config file once per command
func (o *globalOptions) loadRegistry() (*config.Registry, error) {
	if o.registry != nil {
		return o.registry, nil
	}

	var (
		reg *config.Registry
		err error
	)
	if o.configPath != "" {
		reg, err = config.LoadRegistryFrom(o.configPath)
	} else {
		reg, err = config.LoadRegistry()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	o.registry = reg
	return reg, nil
}

func (o *globalOptions) saveRegistry() error {
	if o.registry == nil {
		return nil
	}
	if o.configPath != "" {
		return o.registry.SaveTo(o.configPath)
	}
	return o.registry.Save()
}

// preferences returns the registry preferences, or defaults when the
// config file cannot be read
func (o *globalOptions) preferences() *config.Preferences {
	reg, err := o.loadRegistry()
	if err != nil {
		logging.Warn("Using default preferences", zap.Error(err))
		return config.NewRegistry().Preferences
	}
	return reg.Preferences
}

// resolveTarget picks the rabbit from --device, the registry default or,
// with an empty registry, mDNS discovery.
func (o *globalOptions) resolveTarget(ctx context.Context, out io.Writer) (*target, error) {
	if err := o.validateFormat(); err != nil {
		return nil, err
	}

	reg, err := o.loadRegistry()
	if err != nil {
		return nil, err
	}

	var t *target
	switch {
	case o.device != "":
		if device := reg.GetDevice(o.device); device != nil {
			host, port := device.Address()
			t = &target{name: o.device, host: host, port: port}
		} else {
			if err := karotz.ValidateHost(o.device); err != nil {
				return nil, fmt.Errorf("%q is neither a registered rabbit nor a valid host: %w", o.device, err)
			}
			if err := karotz.ValidatePort(o.port); err != nil {
				return nil, err
			}
			t = &target{host: o.device, port: o.port}
		}

	case len(reg.Devices) > 0:
		name, device, err := reg.ResolveDevice("")
		if err != nil {
			return nil, fmt.Errorf("%w. Use --device or 'karotzctl devices default <name>'", err)
		}
		host, port := device.Address()
		t = &target{name: name, host: host, port: port}

	default:
		t, err = o.discoverTarget(ctx, out)
		if err != nil {
			return nil, err
		}
	}

	t.client = karotz.NewClient(t.host, t.port)
	t.client.StaleAfter = reg.Preferences.StaleAfter()
	if o.timeout > 0 {
		t.client.SetTimeout(o.timeout)
	}

	logging.Debug("Resolved rabbit",
		zap.String("name", t.name),
		zap.String("host", t.host),
		zap.Int("port", t.port),
	)
	return t, nil
}

// discoverTarget scans for rabbits and uses the only one found
func (o *globalOptions) discoverTarget(ctx context.Context, out io.Writer) (*target, error) {
	scanner := discovery.NewScanner()
	if seconds := o.preferences().DiscoverTimeout; seconds > 0 {
		scanner.Timeout = time.Duration(seconds) * time.Second
	}

	if o.format != formatJSON {
		fmt.Fprintf(out, "No rabbit registered, scanning the network (%s)...\n", scanner.Timeout)
	}

	devices, err := scanner.ScanForDevices(ctx)
	if err != nil {
		return nil, fmt.Errorf("discovery failed: %w", err)
	}

	switch len(devices) {
	case 0:
		return nil, errors.New("no rabbit found. Use --device or 'karotzctl devices add'")
	case 1:
		d := devices[0]
		if o.format != formatJSON {
			fmt.Fprintf(out, "Found %s\n\n", d)
		}
		return &target{host: d.IP, port: d.Port}, nil
	default:
		for i, d := range devices {
			fmt.Fprintf(out, "%d. %s\n", i+1, d)
		}
		return nil, fmt.Errorf("found %d rabbits. Use --device to pick one", len(devices))
	}
}

// touch records a successful contact with a registered rabbit
func (o *globalOptions) touch(t *target) {
	if t.name == "" || o.registry == nil {
		return
	}
	o.registry.TouchDevice(t.name, time.Now())
	if err := o.saveRegistry(); err != nil {
		logging.Warn("Failed to save last-seen time", zap.String("device", t.name), zap.Error(err))
	}
}

// reporter prints command outcomes in the selected format
type reporter struct {
	out     io.Writer
	format  string
	printer *ui.Printer
}

func (o *globalOptions) reporter(cmd *cobra.Command) *reporter {
	return &reporter{
		out:     cmd.OutOrStdout(),
		format:  o.format,
		printer: ui.NewPrinter(cmd.OutOrStdout()),
	}
}

func (r *reporter) json() bool {
	return r.format == formatJSON
}

func (r *reporter) header(title, command string, t *target) {
	if r.json() {
		return
	}
	r.printer.Header(title, command, ui.Param{Key: "Rabbit", Value: t.label()})
}

// success reports a completed operation. In JSON mode the details become
// object fields next to "ok": true.
func (r *reporter) success(title string, details ...ui.Param) error {
	if r.json() {
		obj := map[string]interface{}{"ok": true}
		for _, d := range details {
			obj[jsonKey(d.Key)] = d.Value
		}
		return r.writeJSON(obj)
	}
	r.printer.Success(title, details...)
	return nil
}

// failure reports err and returns errReported so main exits non-zero
// without printing it again.
func (r *reporter) failure(title string, err error) error {
	if r.json() {
		_ = r.writeJSON(map[string]interface{}{
			"ok":    false,
			"error": err.Error(),
			"kind":  karotz.ErrorKind(err),
		})
		return errReported
	}

	var tips []string
	var devErr *karotz.DeviceError
	if errors.As(err, &devErr) {
		tips = append(tips, karotz.GetShortErrorMessage(err))
	}
	tips = append(tips, karotz.GetTroubleshootingHint(err))

	r.printer.Failure(title, err, tips)
	return errReported
}

func (r *reporter) writeJSON(v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	_, err = fmt.Fprintln(r.out, string(data))
	return err
}

func jsonKey(label string) string {
	return strings.NewReplacer(" ", "_", "-", "_").Replace(strings.ToLower(label))
}

func parsePort(s string) (int, error) {
	port, err := strconv.Atoi(s)
	if err != nil {
		return 0, karotz.NewValidationError(fmt.Sprintf("invalid port %q", s))
	}
	return port, karotz.ValidatePort(port)
}
