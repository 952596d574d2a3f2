package bridge

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/wulfaz/karotzctl/internal/karotz"
)

// command runs one operation against the rabbit. args is the raw JSON
// object sent by the caller, possibly empty.
type command func(ctx context.Context, args json.RawMessage) (interface{}, error)

// queries do not change the rabbit, so they are not followed by a state push
var queries = map[string]bool{
	"state":  true,
	"online": true,
	"voices": true,
	"radios": true,
}

func (s *Server) registerCommands() {
	s.commands = map[string]command{
		"status":        s.cmdStatus,
		"state":         s.cmdState,
		"online":        s.cmdOnline,
		"wakeup":        s.cmdWakeUp,
		"sleep":         s.cmdSleep,
		"leds":          s.cmdLEDs,
		"ears":          s.cmdEars,
		"ears_random":   s.cmdEarsRandom,
		"ears_reset":    s.cmdEarsReset,
		"ears_mode":     s.cmdEarsMode,
		"sound":         s.cmdSound,
		"sound_control": s.cmdSoundControl,
		"tts":           s.cmdTTS,
		"mood":          s.cmdMood,
		"voices":        s.cmdVoices,
		"radios":        s.cmdRadios,
		"radio":         s.cmdRadio,
	}
}

// execute runs op and, for anything but a query, pushes the resulting
// state to WebSocket sessions whether or not the call succeeded.
func (s *Server) execute(ctx context.Context, op string, args json.RawMessage) (interface{}, error) {
	cmd, ok := s.commands[op]
	if !ok {
		return nil, karotz.NewValidationError(fmt.Sprintf("unknown command %q", op))
	}

	result, err := cmd(ctx, args)
	if !queries[op] {
		s.publishState()
	}
	return result, err
}

func decodeArgs(args json.RawMessage, v interface{}) error {
	if len(args) == 0 || string(args) == "null" {
		return nil
	}
	if err := json.Unmarshal(args, v); err != nil {
		return karotz.NewValidationError("invalid arguments: " + err.Error())
	}
	return nil
}

type earPositions struct {
	Left  karotz.EarPosition `json:"left"`
	Right karotz.EarPosition `json:"right"`
}

func (s *Server) cmdStatus(ctx context.Context, _ json.RawMessage) (interface{}, error) {
	return s.client.Refresh(ctx)
}

func (s *Server) cmdState(_ context.Context, _ json.RawMessage) (interface{}, error) {
	return s.client.State(), nil
}

func (s *Server) cmdOnline(ctx context.Context, _ json.RawMessage) (interface{}, error) {
	return map[string]bool{"online": s.client.IsOnline(ctx)}, nil
}

func (s *Server) cmdWakeUp(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a struct {
		Silent bool `json:"silent"`
	}
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	return nil, s.client.WakeUp(ctx, a.Silent)
}

func (s *Server) cmdSleep(ctx context.Context, _ json.RawMessage) (interface{}, error) {
	return nil, s.client.Sleep(ctx)
}

func (s *Server) cmdLEDs(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a struct {
		Color string `json:"color"`
		Pulse *bool  `json:"pulse"`
	}
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	color, err := karotz.ParseColor(a.Color)
	if err != nil {
		return nil, err
	}
	pulse := s.client.State().Pulsing
	if a.Pulse != nil {
		pulse = *a.Pulse
	}
	return nil, s.client.SetLED(ctx, color, pulse)
}

func (s *Server) cmdEars(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a struct {
		Left  *int `json:"left"`
		Right *int `json:"right"`
	}
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if a.Left == nil || a.Right == nil {
		return nil, karotz.NewValidationError("left and right are required")
	}
	positions, err := s.client.MoveEars(ctx, karotz.EarPosition(*a.Left), karotz.EarPosition(*a.Right))
	if err != nil {
		return nil, err
	}
	return earPositions{Left: positions[0], Right: positions[1]}, nil
}

func (s *Server) cmdEarsRandom(ctx context.Context, _ json.RawMessage) (interface{}, error) {
	positions, err := s.client.RandomEars(ctx)
	if err != nil {
		return nil, err
	}
	return earPositions{Left: positions[0], Right: positions[1]}, nil
}

func (s *Server) cmdEarsReset(ctx context.Context, _ json.RawMessage) (interface{}, error) {
	return nil, s.client.ResetEars(ctx)
}

func (s *Server) cmdEarsMode(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a struct {
		Enabled *bool `json:"enabled"`
	}
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if a.Enabled == nil {
		return nil, karotz.NewValidationError("enabled is required")
	}
	mode := karotz.EarsDisabled
	if *a.Enabled {
		mode = karotz.EarsEnabled
	}
	applied, err := s.client.SetEarMode(ctx, mode)
	if err != nil {
		return nil, err
	}
	return map[string]karotz.EarMode{"ear_mode": applied}, nil
}

func (s *Server) cmdSound(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a struct {
		URL string `json:"url"`
	}
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	return nil, s.client.PlaySound(ctx, a.URL)
}

func (s *Server) cmdSoundControl(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a struct {
		Cmd string `json:"cmd"`
	}
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	cmd, err := karotz.ParseSoundControlCommand(a.Cmd)
	if err != nil {
		return nil, err
	}
	return nil, s.client.SoundControl(ctx, cmd)
}

func (s *Server) cmdTTS(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a struct {
		Voice string `json:"voice"`
		Text  string `json:"text"`
	}
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if a.Voice == "" {
		a.Voice = s.config.DefaultVoice
	}
	return nil, s.client.Speak(ctx, a.Voice, a.Text)
}

func (s *Server) cmdMood(ctx context.Context, _ json.RawMessage) (interface{}, error) {
	id, err := s.client.PlayRandomMood(ctx)
	if err != nil {
		return nil, err
	}
	return map[string]string{"mood": id}, nil
}

func (s *Server) cmdVoices(ctx context.Context, _ json.RawMessage) (interface{}, error) {
	raw, err := s.client.ListVoices(ctx)
	if err != nil {
		return nil, err
	}
	return karotz.ParseVoices(raw)
}

func (s *Server) stations(ctx context.Context) ([]karotz.RadioStation, error) {
	raw, err := s.client.ListRadioStations(ctx)
	if err != nil {
		return nil, err
	}
	return karotz.ParseRadioStations(raw)
}

func (s *Server) cmdRadios(ctx context.Context, _ json.RawMessage) (interface{}, error) {
	return s.stations(ctx)
}

func (s *Server) cmdRadio(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a struct {
		ID int `json:"id"`
	}
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	stations, err := s.stations(ctx)
	if err != nil {
		return nil, err
	}
	station, ok := karotz.FindRadioStation(stations, a.ID)
	if !ok {
		return nil, karotz.NewValidationError(fmt.Sprintf("no radio station with id %d", a.ID))
	}
	if err := s.client.PlayRadio(ctx, station); err != nil {
		return nil, err
	}
	return station, nil
}
