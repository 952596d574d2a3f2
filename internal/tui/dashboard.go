package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/wulfaz/karotzctl/internal/karotz"
	"github.com/wulfaz/karotzctl/internal/logging"
	"github.com/wulfaz/karotzctl/internal/ui"
)

// LEDPresets are the colors cycled by the LED key
var LEDPresets = []karotz.Color{
	0x000000, // off
	0xFF0000,
	0x00FF00,
	0x0000FF,
	0xFFFF00,
	0x00FFFF,
	0xFF00FF,
	0xFF8C00,
	0xFFFFFF,
}

// refreshedMsg carries the result of a status fetch
type refreshedMsg struct {
	state karotz.State
	err   error
}

// actionDoneMsg carries the result of a device operation
type actionDoneMsg struct {
	action string
	detail string
	err    error
}

// dashboardKeyMap defines key bindings for the dashboard
type dashboardKeyMap struct {
	Wake      key.Binding
	Sleep     key.Binding
	LED       key.Binding
	Pulse     key.Binding
	EarMode   key.Binding
	Random    key.Binding
	Reset     key.Binding
	Mood      key.Binding
	Speak     key.Binding
	StopSound key.Binding
	Refresh   key.Binding
	Help      key.Binding
	Quit      key.Binding
}

// ShortHelp returns keybindings to be shown in the mini help view
func (k dashboardKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Wake, k.Sleep, k.LED, k.Speak, k.Refresh, k.Help, k.Quit}
}

// FullHelp returns keybindings for the expanded help view
func (k dashboardKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Wake, k.Sleep, k.Refresh},
		{k.LED, k.Pulse},
		{k.EarMode, k.Random, k.Reset},
		{k.Mood, k.Speak, k.StopSound},
		{k.Help, k.Quit},
	}
}

// speakKeyMap is active while the text-to-speech input has focus
type speakKeyMap struct {
	Send   key.Binding
	Cancel key.Binding
}

func (k speakKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Send, k.Cancel}
}

func (k speakKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{{k.Send, k.Cancel}}
}

func newDashboardKeyMap() dashboardKeyMap {
	return dashboardKeyMap{
		Wake:      key.NewBinding(key.WithKeys("w"), key.WithHelp("w", "wake up")),
		Sleep:     key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "sleep")),
		LED:       key.NewBinding(key.WithKeys("l"), key.WithHelp("l", "next color")),
		Pulse:     key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "toggle pulse")),
		EarMode:   key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "toggle ears")),
		Random:    key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "random ears")),
		Reset:     key.NewBinding(key.WithKeys("0"), key.WithHelp("0", "reset ears")),
		Mood:      key.NewBinding(key.WithKeys("m"), key.WithHelp("m", "random mood")),
		Speak:     key.NewBinding(key.WithKeys("t"), key.WithHelp("t", "speak")),
		StopSound: key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "stop sound")),
		Refresh:   key.NewBinding(key.WithKeys("u"), key.WithHelp("u", "refresh")),
		Help:      key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "more keys")),
		Quit:      key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

// DashboardModel is the interactive view of one rabbit
type DashboardModel struct {
	// ctx bounds every device call started from the dashboard
	ctx    context.Context
	client *karotz.Client

	DeviceName string
	Voice      string

	State karotz.State

	// Busy is set while a device call is in flight; further actions are
	// ignored until it completes.
	Busy      bool
	Action    string
	LastOK    string
	LastError error

	Speaking   bool
	SpeakInput textinput.Model

	Width  int
	Height int

	Spinner   spinner.Model
	Help      help.Model
	Keys      dashboardKeyMap
	SpeakKeys speakKeyMap
}

// NewDashboardModel creates a dashboard for client. voice is the TTS voice id.
func NewDashboardModel(ctx context.Context, client *karotz.Client, deviceName, voice string) DashboardModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = SpinnerStyle

	input := textinput.New()
	input.Placeholder = "Bonjour !"
	input.CharLimit = karotz.MaxSpeechLength
	input.Width = 50

	if voice == "" {
		voice = "1"
	}

	return DashboardModel{
		ctx:        ctx,
		client:     client,
		DeviceName: deviceName,
		Voice:      voice,
		State:      client.State(),
		Busy:       true,
		Action:     "loading status",
		SpeakInput: input,
		Spinner:    s,
		Help:       help.New(),
		Keys:       newDashboardKeyMap(),
		SpeakKeys: speakKeyMap{
			Send:   key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "speak")),
			Cancel: key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel")),
		},
	}
}

// Init loads the state unless the cache is still fresh
func (m DashboardModel) Init() tea.Cmd {
	return tea.Batch(m.Spinner.Tick, m.fetch(m.client.EnsureState))
}

// fetch runs a status call as a command
func (m DashboardModel) fetch(fn func(ctx context.Context) (karotz.State, error)) tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg {
		state, err := karotz.Go(ctx, fn).Await(ctx)
		return refreshedMsg{state: state, err: err}
	}
}

// run starts a device call as a command and marks the dashboard busy
func (m DashboardModel) run(action string, fn func(ctx context.Context) (string, error)) (tea.Model, tea.Cmd) {
	m.Busy = true
	m.Action = action
	logging.Debug("Dashboard action", zap.String("action", action), zap.String("device", m.DeviceName))

	ctx := m.ctx
	call := func() tea.Msg {
		detail, err := karotz.Go(ctx, fn).Await(ctx)
		return actionDoneMsg{action: action, detail: detail, err: err}
	}
	return m, tea.Batch(m.Spinner.Tick, call)
}

// runErr is run for calls that only report an error
func (m DashboardModel) runErr(action string, fn func(ctx context.Context) error) (tea.Model, tea.Cmd) {
	m.Busy = true
	m.Action = action
	logging.Debug("Dashboard action", zap.String("action", action), zap.String("device", m.DeviceName))

	ctx := m.ctx
	call := func() tea.Msg {
		_, err := karotz.GoErr(ctx, fn).Await(ctx)
		return actionDoneMsg{action: action, err: err}
	}
	return m, tea.Batch(m.Spinner.Tick, call)
}

// Update handles messages and updates the model
func (m DashboardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		m.Help.Width = msg.Width
		return m, nil

	case spinner.TickMsg:
		if !m.Busy {
			return m, nil
		}
		var cmd tea.Cmd
		m.Spinner, cmd = m.Spinner.Update(msg)
		return m, cmd

	case refreshedMsg:
		m.Busy = false
		m.State = msg.state
		if msg.err != nil {
			m.LastOK = ""
			m.LastError = fmt.Errorf("%s: %w", m.Action, msg.err)
			return m, nil
		}
		m.LastError = nil
		m.LastOK = m.Action
		return m, nil

	case actionDoneMsg:
		m.Busy = false
		m.State = m.client.State()
		if msg.err != nil {
			m.LastOK = ""
			m.LastError = fmt.Errorf("%s: %w", msg.action, msg.err)
			return m, nil
		}
		m.LastError = nil
		m.LastOK = msg.action
		if msg.detail != "" {
			m.LastOK += " (" + msg.detail + ")"
		}
		return m, nil

	case tea.KeyMsg:
		if m.Speaking {
			return m.updateSpeakInput(msg)
		}
		return m.updateKeys(msg)
	}

	return m, nil
}

func (m DashboardModel) updateKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.Keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.Keys.Help):
		m.Help.ShowAll = !m.Help.ShowAll
		return m, nil
	}

	if m.Busy {
		return m, nil
	}

	client := m.client
	switch {
	case key.Matches(msg, m.Keys.Wake):
		return m.runErr("wake up", func(ctx context.Context) error {
			return client.WakeUp(ctx, false)
		})

	case key.Matches(msg, m.Keys.Sleep):
		return m.runErr("sleep", client.Sleep)

	case key.Matches(msg, m.Keys.LED):
		next := nextPreset(m.State.LEDColor)
		pulse := m.State.Pulsing
		return m.run("set LED", func(ctx context.Context) (string, error) {
			return next.Hex(), client.SetLED(ctx, next, pulse)
		})

	case key.Matches(msg, m.Keys.Pulse):
		color := m.State.LEDColor
		pulse := !m.State.Pulsing
		return m.run("toggle pulse", func(ctx context.Context) (string, error) {
			return pulseLabel(pulse), client.SetLED(ctx, color, pulse)
		})

	case key.Matches(msg, m.Keys.EarMode):
		mode := karotz.EarsDisabled
		if !m.State.EarMode.IsEnabled() {
			mode = karotz.EarsEnabled
		}
		return m.run("set ear mode", func(ctx context.Context) (string, error) {
			got, err := client.SetEarMode(ctx, mode)
			return got.String(), err
		})

	case key.Matches(msg, m.Keys.Random):
		return m.run("random ears", func(ctx context.Context) (string, error) {
			pos, err := client.RandomEars(ctx)
			return fmt.Sprintf("L:%d R:%d", pos[0], pos[1]), err
		})

	case key.Matches(msg, m.Keys.Reset):
		return m.runErr("reset ears", client.ResetEars)

	case key.Matches(msg, m.Keys.Mood):
		return m.run("random mood", func(ctx context.Context) (string, error) {
			id, err := client.PlayRandomMood(ctx)
			if id != "" {
				id = "mood " + id
			}
			return id, err
		})

	case key.Matches(msg, m.Keys.StopSound):
		return m.runErr("stop sound", func(ctx context.Context) error {
			return client.SoundControl(ctx, karotz.SoundQuit)
		})

	case key.Matches(msg, m.Keys.Refresh):
		m.Busy = true
		m.Action = "refresh"
		return m, tea.Batch(m.Spinner.Tick, m.fetch(client.Refresh))

	case key.Matches(msg, m.Keys.Speak):
		m.Speaking = true
		m.SpeakInput.SetValue("")
		return m, m.SpeakInput.Focus()
	}

	return m, nil
}

func (m DashboardModel) updateSpeakInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.SpeakKeys.Cancel):
		m.Speaking = false
		m.SpeakInput.Blur()
		return m, nil

	case key.Matches(msg, m.SpeakKeys.Send):
		text := strings.TrimSpace(m.SpeakInput.Value())
		m.Speaking = false
		m.SpeakInput.Blur()
		if text == "" {
			return m, nil
		}
		client, voice := m.client, m.Voice
		return m.run("speak", func(ctx context.Context) (string, error) {
			return "voice " + voice, client.Speak(ctx, voice, text)
		})
	}

	var cmd tea.Cmd
	m.SpeakInput, cmd = m.SpeakInput.Update(msg)
	return m, cmd
}

// nextPreset returns the preset after c, or the first one if c is not a preset
func nextPreset(c karotz.Color) karotz.Color {
	for i, p := range LEDPresets {
		if p == c.Masked() {
			return LEDPresets[(i+1)%len(LEDPresets)]
		}
	}
	return LEDPresets[0]
}

func pulseLabel(pulse bool) string {
	if pulse {
		return "pulsing"
	}
	return "steady"
}

// View renders the dashboard
func (m DashboardModel) View() string {
	width, height := m.Width, m.Height
	if width == 0 {
		width = 80
	}
	if height == 0 {
		height = 24
	}

	var footer string
	if m.Speaking {
		footer = m.Help.View(m.SpeakKeys)
	} else {
		footer = m.Help.View(m.Keys)
	}

	return RenderApplicationContainer(m.DeviceName, m.renderContent(), footer, width, height)
}

func (m DashboardModel) renderContent() string {
	s := m.State

	statusWord := StatusStyle(s.Status.IsAwake(), s.Status.IsSleeping()).Render(s.Status.String())

	device := strings.Join([]string{
		row("Status", statusWord),
		row("Firmware", s.Version.String()),
		row("Storage", fmt.Sprintf("%s free (%s%% used)", s.FreeSpace, s.PercentUsed)),
		row("WLAN MAC", s.WLANMAC),
		row("Content", fmt.Sprintf("%s moods, %s sounds, %s tags", s.Moods, s.Sounds, s.Tags)),
	}, "\n")

	led := strings.Join([]string{
		row("Color", ui.ColorSwatch(s.LEDColor.String(), 4)+" "+s.LEDColor.String()),
		row("Pulse", pulseLabel(s.Pulsing)),
	}, "\n")

	ears := strings.Join([]string{
		row("Mode", s.EarMode.String()),
		row("Position", fmt.Sprintf("L:%d R:%d", s.LeftEar, s.RightEar)),
	}, "\n")

	panels := lipgloss.JoinHorizontal(lipgloss.Top,
		PanelStyle.Render(SectionTitleStyle.Render("Device")+"\n"+device),
		" ",
		lipgloss.JoinVertical(lipgloss.Left,
			PanelStyle.Render(SectionTitleStyle.Render("LED")+"\n"+led),
			PanelStyle.Render(SectionTitleStyle.Render("Ears")+"\n"+ears),
		),
	)

	lines := []string{panels, ""}

	if m.Speaking {
		lines = append(lines, InputPanelStyle.Render("Say (voice "+m.Voice+"):\n"+m.SpeakInput.View()), "")
	}

	lines = append(lines, m.renderActivity())
	return strings.Join(lines, "\n")
}

func (m DashboardModel) renderActivity() string {
	switch {
	case m.Busy:
		return m.Spinner.View() + " " + m.Action + "..."
	case m.LastError != nil:
		return ErrorLineStyle.Render("✗ "+m.LastError.Error()) + "\n" +
			HintStyle.Render("  "+karotz.GetTroubleshootingHint(m.LastError))
	case m.LastOK != "":
		return SuccessLineStyle.Render("✓ " + m.LastOK)
	case !m.State.Loaded():
		return HintStyle.Render("No status received yet. Press u to refresh.")
	default:
		return HintStyle.Render(m.State.Summary())
	}
}

func row(label, value string) string {
	return LabelStyle.Render(label+":") + " " + ValueStyle.Render(value)
}

// Run starts the dashboard full-screen and blocks until the user quits
func Run(ctx context.Context, client *karotz.Client, deviceName, voice string) error {
	model := NewDashboardModel(ctx, client, deviceName, voice)
	program := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := program.Run()
	if err != nil && ctx.Err() != nil {
		return nil
	}
	return err
}
