package karotz

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestColor_RoundTrip(t *testing.T) {
	step := uint32(1)
	if testing.Short() {
		step = 0xFFF
	}

	for v := uint32(0); v <= 0xFFFFFF; v += step {
		c := NewColor(v)
		parsed, err := ParseColor(c.Hex())
		if err != nil || parsed != c {
			t.Fatalf("0x%06X: got %v, %v", v, parsed, err)
		}
		if lower, err := ParseColor("#" + strings.ToLower(c.Hex())); err != nil || lower != c {
			t.Fatalf("#%s lower case: got %v, %v", c.Hex(), lower, err)
		}
	}
}

func TestColor_MasksHighBits(t *testing.T) {
	c := NewColor(0xFF123456)

	assert.Equal(t, Color(0x123456), c)
	assert.Equal(t, "123456", Color(0xFF123456).Hex())
	assert.Equal(t, Color(0x123456), Color(0xFF123456).Masked())
}

func TestColor_Components(t *testing.T) {
	c := RGB(0x12, 0x34, 0x56)
	r, g, b := c.RGB()

	assert.Equal(t, Color(0x123456), c)
	assert.Equal(t, [3]uint8{0x12, 0x34, 0x56}, [3]uint8{r, g, b})
	assert.Equal(t, "#123456", c.String())
}

func TestParseColor(t *testing.T) {
	tests := []struct {
		in      string
		want    Color
		wantErr bool
	}{
		{"00FF00", 0x00FF00, false},
		{"#0000ff", 0x0000FF, false},
		{" ff0000 ", 0xFF0000, false},
		{"FFF", 0, true},
		{"GGGGGG", 0, true},
		{"", 0, true},
		{"1234567", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseColor(tt.in)
			if tt.wantErr {
				assert.True(t, IsValidationError(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestColor_JSON(t *testing.T) {
	data, err := json.Marshal(struct {
		C Color `json:"c"`
	}{C: 0x00AAFF})
	require.NoError(t, err)
	assert.JSONEq(t, `{"c":"00AAFF"}`, string(data))

	var back struct {
		C Color `json:"c"`
	}
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, Color(0x00AAFF), back.C)
}

func TestStatus_String(t *testing.T) {
	assert.Equal(t, "UNKNOWN", StatusUnknown.String())
	assert.Equal(t, "AWAKE", StatusAwake.String())
	assert.Equal(t, "SLEEPING", StatusSleeping.String())
	assert.True(t, StatusAwake.IsAwake())
	assert.False(t, StatusUnknown.IsAwake())
	assert.False(t, StatusUnknown.IsSleeping())
}

func TestParseEarMode(t *testing.T) {
	for _, in := range []string{"enabled", "ON", "true", "1"} {
		m, err := ParseEarMode(in)
		require.NoError(t, err, in)
		assert.Equal(t, EarsEnabled, m)
	}
	for _, in := range []string{"disabled", "off", "False", "0"} {
		m, err := ParseEarMode(in)
		require.NoError(t, err, in)
		assert.Equal(t, EarsDisabled, m)
	}

	_, err := ParseEarMode("sideways")
	assert.True(t, IsValidationError(err))
}

func TestParseEarPosition(t *testing.T) {
	p, err := ParseEarPosition("16")
	require.NoError(t, err)
	assert.Equal(t, EarPositionMax, p)

	p, err = ParseEarPosition("0")
	require.NoError(t, err)
	assert.Equal(t, EarPositionMin, p)

	for _, in := range []string{"-1", "17", "left", ""} {
		_, err := ParseEarPosition(in)
		assert.True(t, IsValidationError(err), in)
	}
}

func TestParseSoundControlCommand(t *testing.T) {
	cmd, err := ParseSoundControlCommand("Quit")
	require.NoError(t, err)
	assert.Equal(t, SoundQuit, cmd)

	cmd, err = ParseSoundControlCommand("pause")
	require.NoError(t, err)
	assert.Equal(t, SoundPause, cmd)

	_, err = ParseSoundControlCommand("stop")
	assert.True(t, IsValidationError(err))
}

func TestVersion_String(t *testing.T) {
	assert.Equal(t, "210 (patch 310)", Version{Major: "210", Patch: "310"}.String())
	assert.Equal(t, "200", Version{Major: "200", Patch: "undefined"}.String())
	assert.Equal(t, "undefined", Version{}.String())
}

func TestNewState(t *testing.T) {
	s := NewState()

	assert.Equal(t, StatusUnknown, s.Status)
	assert.Equal(t, DefaultColor, s.LEDColor)
	assert.True(t, s.Pulsing)
	assert.Equal(t, EarsEnabled, s.EarMode)
	assert.Equal(t, EarPositionMin, s.LeftEar)
	assert.Equal(t, EarPositionMin, s.RightEar)
	assert.False(t, s.Loaded())
}

func TestState_JSON(t *testing.T) {
	s := NewState()
	s.Status = StatusSleeping

	data, err := json.Marshal(s)
	require.NoError(t, err)

	var m map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &m))
	assert.Equal(t, "SLEEPING", m["status"])
	assert.Equal(t, "00FF00", m["led_color"])
	assert.Equal(t, "ENABLED", m["ear_mode"])
}

func TestParseVoices(t *testing.T) {
	voices, err := ParseVoices([]byte(`{"voices":[{"id":"1","lang":"fr"},{"id":"2","lang":"de"}]}`))
	require.NoError(t, err)
	assert.Len(t, voices, 2)
	assert.Equal(t, "de", voices[1].Lang)

	_, err = ParseVoices([]byte(`nope`))
	assert.True(t, IsParseError(err))
}

func TestParseVoices_NumericID(t *testing.T) {
	voices, err := ParseVoices([]byte(`{"voices":[{"id":1,"lang":"fr"},{"id":"7","lang":"en"}]}`))
	require.NoError(t, err)
	require.Len(t, voices, 2)
	assert.Equal(t, "1", voices[0].ID)
	assert.Equal(t, "7", voices[1].ID)
}

func TestParseRadioStations(t *testing.T) {
	raw := []byte(`{"return":"0","streams":[{"id":1,"name":"FIP","url":"http://fip"},{"id":2,"name":"Inter","url":"http://inter"}]}`)
	stations, err := ParseRadioStations(raw)
	require.NoError(t, err)
	require.Len(t, stations, 2)

	s, ok := FindRadioStation(stations, 2)
	assert.True(t, ok)
	assert.Equal(t, "Inter", s.Name)

	_, ok = FindRadioStation(stations, 9)
	assert.False(t, ok)

	_, err = ParseRadioStations([]byte(`{"return":"1","msg":"no radios"}`))
	assert.True(t, IsDeviceError(err))
}

func TestParseRadioStations_LooseTypes(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"string id", `{"return":"0","streams":[{"id":"1","name":"FIP","url":"http://fip"}]}`},
		{"numeric id", `{"return":"0","streams":[{"id":1,"name":"FIP","url":"http://fip"}]}`},
		{"numeric return", `{"return":0,"streams":[{"id":"1","name":"FIP","url":"http://fip"}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stations, err := ParseRadioStations([]byte(tt.raw))
			require.NoError(t, err)

			s, ok := FindRadioStation(stations, 1)
			require.True(t, ok)
			assert.Equal(t, "FIP", s.Name)
			assert.Equal(t, "http://fip", s.URL)
		})
	}

	_, err := ParseRadioStations([]byte(`{"return":1,"msg":"no radios"}`))
	assert.True(t, IsDeviceError(err))

	_, err = ParseRadioStations([]byte(`{"return":"0","streams":[{"id":"fip","name":"FIP"}]}`))
	assert.True(t, IsParseError(err))
}
