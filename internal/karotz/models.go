package karotz

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Status is the sleep state of the rabbit as last reported by the device.
type Status int

const (
	// StatusUnknown means no usable status response has been received.
	// It does not mean the device is offline.
	StatusUnknown Status = iota
	// StatusAwake means the rabbit is awake and accepts commands
	StatusAwake
	// StatusSleeping means the rabbit is asleep
	StatusSleeping
)

// String returns the upper-case name used in logs and JSON output
func (s Status) String() string {
	switch s {
	case StatusAwake:
		return "AWAKE"
	case StatusSleeping:
		return "SLEEPING"
	default:
		return "UNKNOWN"
	}
}

// IsAwake reports whether the status is StatusAwake
func (s Status) IsAwake() bool { return s == StatusAwake }

// IsSleeping reports whether the status is StatusSleeping
func (s Status) IsSleeping() bool { return s == StatusSleeping }

// MarshalText implements encoding.TextMarshaler
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// EarMode says whether the ear motors respond to movement commands.
type EarMode int

const (
	EarsEnabled EarMode = iota
	EarsDisabled
)

func (m EarMode) String() string {
	if m == EarsDisabled {
		return "DISABLED"
	}
	return "ENABLED"
}

// IsEnabled reports whether the ears respond to commands
func (m EarMode) IsEnabled() bool { return m == EarsEnabled }

// MarshalText implements encoding.TextMarshaler
func (m EarMode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// ParseEarMode accepts "enabled"/"disabled" (and on/off, true/false).
func ParseEarMode(s string) (EarMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "enabled", "enable", "on", "true", "1":
		return EarsEnabled, nil
	case "disabled", "disable", "off", "false", "0":
		return EarsDisabled, nil
	}
	return EarsEnabled, NewValidationError(fmt.Sprintf("invalid ear mode %q (use enabled or disabled)", s))
}

// EarPosition is one of the discrete preset ear positions.
type EarPosition int

const (
	// EarPositionMin is the rest position the device returns to on reset
	EarPositionMin EarPosition = 0
	// EarPositionMax is the highest preset position accepted by /ears
	EarPositionMax EarPosition = 16
)

// Valid reports whether p is a preset position
func (p EarPosition) Valid() bool {
	return p >= EarPositionMin && p <= EarPositionMax
}

func (p EarPosition) String() string {
	return strconv.Itoa(int(p))
}

// ParseEarPosition parses a decimal ear position and checks its range.
func ParseEarPosition(s string) (EarPosition, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return EarPositionMin, NewValidationError(fmt.Sprintf("invalid ear position %q", s))
	}
	p := EarPosition(n)
	if !p.Valid() {
		return EarPositionMin, NewValidationError(fmt.Sprintf("ear position %d out of range (%d-%d)", n, EarPositionMin, EarPositionMax))
	}
	return p, nil
}

// Color is a 24-bit RGB value. Anything above bit 23 is discarded.
type Color uint32

const colorMask = 0x00FFFFFF

// DefaultColor is the LED color assumed before the first status response
const DefaultColor Color = 0x00FF00

// NewColor masks an arbitrary integer to 24 bits
func NewColor(v uint32) Color {
	return Color(v & colorMask)
}

// RGB builds a color from its components
func RGB(r, g, b uint8) Color {
	return Color(uint32(r)<<16 | uint32(g)<<8 | uint32(b))
}

// Masked returns c limited to 24 bits
func (c Color) Masked() Color {
	return c & colorMask
}

// Hex returns the six upper-case hex digits the /leds endpoint expects
func (c Color) Hex() string {
	return fmt.Sprintf("%06X", uint32(c.Masked()))
}

// RGB returns the red, green and blue components
func (c Color) RGB() (r, g, b uint8) {
	m := uint32(c.Masked())
	return uint8(m >> 16), uint8(m >> 8), uint8(m)
}

func (c Color) String() string {
	return "#" + c.Hex()
}

// MarshalText implements encoding.TextMarshaler
func (c Color) MarshalText() ([]byte, error) {
	return []byte(c.Hex()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (c *Color) UnmarshalText(text []byte) error {
	parsed, err := ParseColor(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// ParseColor parses a six-digit hex color, with or without a leading '#'.
func ParseColor(s string) (Color, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(s) != 6 {
		return 0, NewValidationError(fmt.Sprintf("invalid color %q (expected 6 hex digits)", s))
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return 0, NewValidationError(fmt.Sprintf("invalid color %q (expected 6 hex digits)", s))
	}
	return NewColor(uint32(v)), nil
}

// Version identifies the OpenKarotz firmware. Patch is not reported by
// every release.
type Version struct {
	Major string `json:"version"`
	Patch string `json:"patch"`
}

const undefinedVersion = "undefined"

func (v Version) String() string {
	major := v.Major
	if major == "" {
		major = undefinedVersion
	}
	if v.Patch == "" || v.Patch == undefinedVersion {
		return major
	}
	return fmt.Sprintf("%s (patch %s)", major, v.Patch)
}

// SoundControlCommand is a command accepted by /sound_control.
type SoundControlCommand string

const (
	SoundQuit  SoundControlCommand = "quit"
	SoundPause SoundControlCommand = "pause"
)

// ParseSoundControlCommand validates a sound control command name
func ParseSoundControlCommand(s string) (SoundControlCommand, error) {
	switch cmd := SoundControlCommand(strings.ToLower(strings.TrimSpace(s))); cmd {
	case SoundQuit, SoundPause:
		return cmd, nil
	}
	return "", NewValidationError(fmt.Sprintf("invalid sound control command %q (use quit or pause)", s))
}

// State is the cached view of the device. A Client owns one State and
// hands out copies.
type State struct {
	Status   Status      `json:"status"`
	LEDColor Color       `json:"led_color"`
	Pulsing  bool        `json:"led_pulse"`
	EarMode  EarMode     `json:"ear_mode"`
	LeftEar  EarPosition `json:"left_ear"`
	RightEar EarPosition `json:"right_ear"`
	Version  Version     `json:"version"`

	FreeSpace   string `json:"free_space"`
	PercentUsed string `json:"percent_used"`
	WLANMAC     string `json:"wlan_mac"`
	Moods       string `json:"nb_moods"`
	Sounds      string `json:"nb_sounds"`
	Tags        string `json:"nb_tags"`

	// UpdatedAt is when the last status response was applied (zero if never)
	UpdatedAt time.Time `json:"updated_at"`
}

// NewState returns the state assumed before any status response.
func NewState() State {
	return State{
		Status:   StatusUnknown,
		LEDColor: DefaultColor,
		Pulsing:  true,
		EarMode:  EarsEnabled,
		LeftEar:  EarPositionMin,
		RightEar: EarPositionMin,
	}
}

// Loaded reports whether a status response has ever been applied
func (s State) Loaded() bool {
	return !s.UpdatedAt.IsZero()
}

// Voice is a text-to-speech voice advertised by /voice_list.
type Voice struct {
	ID   string `json:"id"`
	Lang string `json:"lang"`
}

// RadioStation is a stream advertised by /radios_list.
type RadioStation struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
	URL  string `json:"url"`
}

// UnmarshalJSON accepts the id as a string or a number.
func (v *Voice) UnmarshalJSON(data []byte) error {
	var raw struct {
		ID   jsonText `json:"id"`
		Lang jsonText `json:"lang"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	v.ID, v.Lang = raw.ID.Value, raw.Lang.Value
	return nil
}

// UnmarshalJSON accepts the id as a string or a number.
func (s *RadioStation) UnmarshalJSON(data []byte) error {
	var raw struct {
		ID   jsonText `json:"id"`
		Name jsonText `json:"name"`
		URL  jsonText `json:"url"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	id, err := strconv.Atoi(strings.TrimSpace(raw.ID.Value))
	if err != nil {
		return fmt.Errorf("invalid station id %q", raw.ID.Value)
	}
	s.ID, s.Name, s.URL = id, raw.Name.Value, raw.URL.Value
	return nil
}

// ParseVoices extracts the voices array from a raw /voice_list body.
func ParseVoices(raw []byte) ([]Voice, error) {
	var body struct {
		Voices []Voice `json:"voices"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		return nil, NewParseError("failed to parse voice list", err)
	}
	return body.Voices, nil
}

// ParseRadioStations extracts the streams array from a raw /radios_list
// body. The list is only trusted when the device reports return "0".
func ParseRadioStations(raw []byte) ([]RadioStation, error) {
	var body struct {
		Return  jsonText       `json:"return"`
		Msg     jsonText       `json:"msg"`
		Streams []RadioStation `json:"streams"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		return nil, NewParseError("failed to parse radio list", err)
	}
	if body.Return.Value != "0" {
		return nil, NewDeviceFailure("radios_list", body.Msg.Value)
	}
	return body.Streams, nil
}

// FindRadioStation returns the station with the given id
func FindRadioStation(stations []RadioStation, id int) (RadioStation, bool) {
	for _, s := range stations {
		if s.ID == id {
			return s, true
		}
	}
	return RadioStation{}, false
}
