package karotz

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// The device encodes almost every value as a JSON string, but nothing
// guarantees it. jsonText accepts strings, numbers and booleans and
// remembers whether the key was present at all.
type jsonText struct {
	Value string
	Set   bool
}

func (t *jsonText) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		t.Value, t.Set = s, true
		return nil
	}
	if bytes.Equal(data, []byte("true")) || bytes.Equal(data, []byte("false")) {
		t.Value, t.Set = string(data), true
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("unsupported value %s", data)
	}
	t.Value, t.Set = n.String(), true
	return nil
}

func (t jsonText) or(def string) string {
	if !t.Set {
		return def
	}
	return t.Value
}

// statusBody mirrors the /status answer, e.g.
//
//	{"version":"210","patch":"310","ears_disabled":"0","sleep":"1","led_color":"000000","led_pulse":"0",...}
type statusBody struct {
	Version      jsonText `json:"version"`
	Patch        jsonText `json:"patch"`
	Sleep        jsonText `json:"sleep"`
	LEDColor     jsonText `json:"led_color"`
	LEDPulse     jsonText `json:"led_pulse"`
	EarsDisabled jsonText `json:"ears_disabled"`
	FreeSpace    jsonText `json:"karotz_free_space"`
	PercentUsed  jsonText `json:"karotz_percent_used_space"`
	WLANMAC      jsonText `json:"wlan_mac"`
	Tags         jsonText `json:"nb_tags"`
	Moods        jsonText `json:"nb_moods"`
	Sounds       jsonText `json:"nb_sounds"`
}

// ParseStatus builds a State from a raw /status body.
//
// A body that is not a JSON object yields the default state with status
// UNKNOWN. When required fields (sleep, led_color, ears_disabled) are
// missing or malformed the fields that did parse are kept, status is
// UNKNOWN, and a parse error is returned alongside the partial state.
func ParseStatus(raw []byte) (State, error) {
	state := NewState()

	var body statusBody
	if err := json.Unmarshal(raw, &body); err != nil {
		return state, NewParseError("failed to parse status response", err)
	}

	state.Version = Version{
		Major: body.Version.or(undefinedVersion),
		Patch: body.Patch.or(undefinedVersion),
	}
	state.Pulsing = body.LEDPulse.or("0") == "1"
	state.FreeSpace = body.FreeSpace.or("-")
	state.PercentUsed = body.PercentUsed.or("-")
	state.WLANMAC = body.WLANMAC.or("-")
	state.Moods = body.Moods.or("-")
	state.Sounds = body.Sounds.or("-")
	state.Tags = body.Tags.or("-")

	var missing []string

	if body.LEDColor.Set {
		if c, err := ParseColor(body.LEDColor.Value); err == nil {
			state.LEDColor = c
		} else {
			missing = append(missing, "led_color")
		}
	} else {
		missing = append(missing, "led_color")
	}

	if body.EarsDisabled.Set {
		if body.EarsDisabled.Value == "1" {
			state.EarMode = EarsDisabled
		} else {
			state.EarMode = EarsEnabled
		}
	} else {
		missing = append(missing, "ears_disabled")
	}

	if !body.Sleep.Set {
		missing = append(missing, "sleep")
	}

	if len(missing) > 0 {
		state.Status = StatusUnknown
		return state, NewParseError(fmt.Sprintf("status response missing or invalid fields: %v", missing), nil)
	}

	if body.Sleep.Value == "1" {
		state.Status = StatusSleeping
	} else {
		state.Status = StatusAwake
	}
	return state, nil
}

// statusReturn is the success sentinel of most endpoints: the string "0".
// Anything else, including a missing key, is failure.
type statusReturn struct {
	Return *string `json:"return"`
	Msg    string  `json:"msg"`
}

func (r statusReturn) ok() bool {
	return r.Return != nil && *r.Return == "0"
}

// ttsReturn is the sentinel of /tts, which answers with a boolean true
// (newer firmware) or the string "0" (older firmware).
type ttsReturn struct {
	Return json.RawMessage `json:"return"`
	Msg    string          `json:"msg"`
}

func (r ttsReturn) ok() bool {
	raw := bytes.TrimSpace(r.Return)
	if len(raw) == 0 {
		return false
	}
	var b bool
	if err := json.Unmarshal(raw, &b); err == nil {
		return b
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s == "0"
	}
	return false
}

type wakeupResponse struct {
	statusReturn
	Silent jsonText `json:"silent"`
}

type ledsResponse struct {
	statusReturn
	Color jsonText `json:"color"`
	Pulse jsonText `json:"pulse"`
}

type earsResponse struct {
	statusReturn
	Left  jsonText `json:"left"`
	Right jsonText `json:"right"`
}

func (r earsResponse) positions() ([2]EarPosition, error) {
	left, err := strconv.Atoi(r.Left.Value)
	if err != nil {
		return [2]EarPosition{}, NewParseError("invalid left ear position", err)
	}
	right, err := strconv.Atoi(r.Right.Value)
	if err != nil {
		return [2]EarPosition{}, NewParseError("invalid right ear position", err)
	}
	return [2]EarPosition{EarPosition(left), EarPosition(right)}, nil
}

type earsModeResponse struct {
	statusReturn
	Disabled jsonText `json:"disabled"`
}

type moodsResponse struct {
	statusReturn
	Moods jsonText `json:"moods"`
}

func nocache(now time.Time) string {
	return strconv.FormatInt(now.UnixMilli(), 10)
}
