package karotz

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStatus_SleepField(t *testing.T) {
	tests := []struct {
		sleep string
		want  Status
	}{
		{`"1"`, StatusSleeping},
		{`"0"`, StatusAwake},
		{`"yes"`, StatusAwake},
		{`1`, StatusSleeping},
	}

	for _, tt := range tests {
		t.Run(tt.sleep, func(t *testing.T) {
			raw := `{"sleep":` + tt.sleep + `,"led_color":"00FF00","ears_disabled":"0"}`
			state, err := ParseStatus([]byte(raw))
			require.NoError(t, err)
			assert.Equal(t, tt.want, state.Status)
		})
	}
}

func TestParseStatus_MissingRequiredFields(t *testing.T) {
	state, err := ParseStatus([]byte(`{"version":"210","led_color":"FF0000","led_pulse":"1"}`))

	require.Error(t, err)
	assert.True(t, IsParseError(err))
	assert.Contains(t, err.Error(), "ears_disabled")
	assert.Contains(t, err.Error(), "sleep")

	// Fields that did parse survive
	assert.Equal(t, StatusUnknown, state.Status)
	assert.Equal(t, Color(0xFF0000), state.LEDColor)
	assert.True(t, state.Pulsing)
	assert.Equal(t, "210", state.Version.Major)
}

func TestParseStatus_InvalidColor(t *testing.T) {
	state, err := ParseStatus([]byte(`{"sleep":"0","led_color":"zzz","ears_disabled":"1"}`))

	require.Error(t, err)
	assert.Equal(t, StatusUnknown, state.Status)
	assert.Equal(t, DefaultColor, state.LEDColor)
	assert.Equal(t, EarsDisabled, state.EarMode)
}

func TestParseStatus_NotJSON(t *testing.T) {
	state, err := ParseStatus([]byte(`<html>500</html>`))

	require.Error(t, err)
	assert.True(t, IsParseError(err))
	assert.Equal(t, NewState(), state)
}

func TestParseStatus_OptionalDefaults(t *testing.T) {
	state, err := ParseStatus([]byte(`{"sleep":"0","led_color":"00FF00","ears_disabled":"0"}`))
	require.NoError(t, err)

	assert.Equal(t, Version{Major: "undefined", Patch: "undefined"}, state.Version)
	assert.False(t, state.Pulsing)
	assert.Equal(t, "-", state.FreeSpace)
	assert.Equal(t, "-", state.WLANMAC)
	assert.Equal(t, "-", state.Tags)
}

func TestJSONText(t *testing.T) {
	var body struct {
		A jsonText `json:"a"`
		B jsonText `json:"b"`
		C jsonText `json:"c"`
		D jsonText `json:"d"`
		E jsonText `json:"e"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"a":"x","b":12,"c":true,"d":null}`), &body))

	assert.Equal(t, jsonText{Value: "x", Set: true}, body.A)
	assert.Equal(t, jsonText{Value: "12", Set: true}, body.B)
	assert.Equal(t, jsonText{Value: "true", Set: true}, body.C)
	assert.False(t, body.D.Set)
	assert.False(t, body.E.Set)
	assert.Equal(t, "fallback", body.E.or("fallback"))

	assert.Error(t, json.Unmarshal([]byte(`{"a":[1]}`), &body))
}

func TestStatusReturn(t *testing.T) {
	tests := []struct {
		body string
		ok   bool
	}{
		{`{"return":"0"}`, true},
		{`{"return":"1","msg":"x"}`, false},
		{`{}`, false},
	}

	for _, tt := range tests {
		var r statusReturn
		require.NoError(t, json.Unmarshal([]byte(tt.body), &r))
		assert.Equal(t, tt.ok, r.ok(), tt.body)
	}

	// /tts style boolean is not accepted by the string sentinel
	var r statusReturn
	assert.Error(t, json.Unmarshal([]byte(`{"return":true}`), &r))
}

func TestTTSReturn(t *testing.T) {
	tests := []struct {
		body string
		ok   bool
	}{
		{`{"return":true}`, true},
		{`{"return":"0"}`, true},
		{`{"return":false}`, false},
		{`{"return":"1"}`, false},
		{`{"return":0}`, false},
		{`{}`, false},
	}

	for _, tt := range tests {
		var r ttsReturn
		require.NoError(t, json.Unmarshal([]byte(tt.body), &r))
		assert.Equal(t, tt.ok, r.ok(), tt.body)
	}
}

func TestEarsResponsePositions(t *testing.T) {
	var r earsResponse
	require.NoError(t, json.Unmarshal([]byte(`{"return":"0","left":5,"right":"9"}`), &r))

	p, err := r.positions()
	require.NoError(t, err)
	assert.Equal(t, [2]EarPosition{5, 9}, p)

	r = earsResponse{}
	require.NoError(t, json.Unmarshal([]byte(`{"return":"0"}`), &r))
	_, err = r.positions()
	assert.True(t, IsParseError(err))
}

func TestNocache(t *testing.T) {
	assert.Equal(t, "1754001236123", nocache(time.UnixMilli(1754001236123)))
}
