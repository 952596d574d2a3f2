package karotz

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/wulfaz/karotzctl/internal/logging"
)

const (
	// DefaultPort is the port of the OpenKarotz CGI server
	DefaultPort = 80

	// MaxSpeechLength is the longest text /tts accepts
	MaxSpeechLength = 200

	cgiBin = "/cgi-bin/"
)

// Client talks to one rabbit. Each operation is a single GET against
// /cgi-bin/<endpoint>; there are no retries.
type Client struct {
	// BaseURL is the base URL for the device (e.g., "http://192.168.1.20:80")
	BaseURL string

	// HTTPClient is the underlying HTTP client. Its zero Timeout means the
	// platform default applies.
	HTTPClient *http.Client

	// StaleAfter makes EnsureState refetch a cache older than this
	// (0 = only refetch when the status is unknown)
	StaleAfter time.Duration

	// RollbackLEDOnFailure makes a failed SetLED write the requested
	// color and pulse into the cache anyway.
	RollbackLEDOnFailure bool

	host string
	now  func() time.Time

	stateMu sync.RWMutex
	state   State
}

// NewClient creates a client for the rabbit at host:port
func NewClient(host string, port int) *Client {
	return NewClientWithURL("http://" + net.JoinHostPort(host, strconv.Itoa(port)))
}

// NewClientWithURL creates a client with a full base URL
// baseURL: Full base URL (e.g., "http://192.168.1.20:80")
func NewClientWithURL(baseURL string) *Client {
	baseURL = strings.TrimRight(baseURL, "/")
	host := baseURL
	if u, err := url.Parse(baseURL); err == nil && u.Host != "" {
		host = u.Hostname()
	}
	return &Client{
		BaseURL:    baseURL,
		HTTPClient: &http.Client{},
		host:       host,
		now:        time.Now,
		state:      NewState(),
	}
}

// SetTimeout sets the HTTP request timeout (0 disables it)
func (c *Client) SetTimeout(timeout time.Duration) {
	c.HTTPClient.Timeout = timeout
}

// Host returns the device host the client was built for
func (c *Client) Host() string {
	return c.host
}

// endpointURL builds the full URL of a CGI endpoint
func (c *Client) endpointURL(endpoint string, query url.Values) string {
	u := c.BaseURL + cgiBin + endpoint
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}

// get performs one GET and returns the raw body
func (c *Client) get(ctx context.Context, endpoint string, query url.Values) ([]byte, error) {
	u := c.endpointURL(endpoint, query)
	logging.Debug("Karotz request", zap.String("url", u))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, NewNetworkError("failed to create request", err)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		devErr := NewNetworkError(endpoint+" request failed", err)
		devErr.Endpoint = endpoint
		devErr.Host = c.host
		return nil, devErr
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		devErr := NewHTTPError(resp.StatusCode, fmt.Sprintf("unexpected status code: %d", resp.StatusCode))
		devErr.Endpoint = endpoint
		devErr.Host = c.host
		return nil, devErr
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		devErr := NewNetworkError("failed to read "+endpoint+" response body", err)
		devErr.Endpoint = endpoint
		devErr.Host = c.host
		return nil, devErr
	}

	logging.Debug("Karotz response",
		zap.String("endpoint", endpoint),
		zap.ByteString("body", body),
	)
	return body, nil
}

// decode unmarshals a response body, tagging failures with the endpoint
func decode(endpoint string, body []byte, v interface{}) error {
	if err := json.Unmarshal(body, v); err != nil {
		devErr := NewParseError("failed to parse "+endpoint+" response", err)
		devErr.Endpoint = endpoint
		return devErr
	}
	return nil
}

func logFailure(op string, err error) {
	logging.Warn("Karotz operation failed",
		zap.String("operation", op),
		zap.String("kind", ErrorKind(err)),
		zap.Error(err),
	)
}

// State returns a copy of the cached state without touching the network
func (c *Client) State() State {
	c.stateMu.RLock()
	defer c.stateMu.RUnlock()
	return c.state
}

func (c *Client) update(fn func(s *State)) {
	c.stateMu.Lock()
	defer c.stateMu.Unlock()
	fn(&c.state)
}

// InvalidateCache marks the cached status unknown so the next accessor refetches
func (c *Client) InvalidateCache() {
	c.update(func(s *State) {
		s.Status = StatusUnknown
	})
}

// stale reports whether EnsureState should refetch
func (c *Client) stale() bool {
	s := c.State()
	if !s.Loaded() || s.Status == StatusUnknown {
		return true
	}
	return c.StaleAfter > 0 && c.now().Sub(s.UpdatedAt) > c.StaleAfter
}

// GetStatus fetches /status and replaces the cached state with what the
// body says. A body that does not parse leaves the cache UNKNOWN (possibly
// partially populated) and returns a parse error.
func (c *Client) GetStatus(ctx context.Context) (State, error) {
	body, err := c.get(ctx, "status", nil)
	if err != nil {
		logFailure("status", err)
		return c.State(), err
	}

	state, parseErr := ParseStatus(body)
	state.UpdatedAt = c.now()

	c.stateMu.Lock()
	c.state = state
	c.stateMu.Unlock()

	if parseErr != nil {
		logging.Error("Cannot parse status answer",
			zap.ByteString("body", body),
			zap.Error(parseErr),
		)
		return state, parseErr
	}

	logging.Debug("Karotz state refreshed",
		zap.String("status", state.Status.String()),
		zap.String("version", state.Version.String()),
		zap.String("led_color", state.LEDColor.Hex()),
		zap.Bool("led_pulse", state.Pulsing),
		zap.String("ear_mode", state.EarMode.String()),
	)
	return state, nil
}

// Refresh forces a status fetch regardless of cache freshness
func (c *Client) Refresh(ctx context.Context) (State, error) {
	return c.GetStatus(ctx)
}

// EnsureState fetches the status when the cache is stale and returns the
// cached state either way.
func (c *Client) EnsureState(ctx context.Context) (State, error) {
	if c.stale() {
		return c.GetStatus(ctx)
	}
	return c.State(), nil
}

// Status returns the sleep state, refreshing the cache if needed
func (c *Client) Status(ctx context.Context) (Status, error) {
	s, err := c.EnsureState(ctx)
	return s.Status, err
}

// Version returns the firmware version, refreshing the cache if needed
func (c *Client) Version(ctx context.Context) (Version, error) {
	s, err := c.EnsureState(ctx)
	return s.Version, err
}

// Color returns the LED color, refreshing the cache if needed
func (c *Client) Color(ctx context.Context) (Color, error) {
	s, err := c.EnsureState(ctx)
	return s.LEDColor, err
}

// IsPulsing reports the LED pulse flag, refreshing the cache if needed
func (c *Client) IsPulsing(ctx context.Context) (bool, error) {
	s, err := c.EnsureState(ctx)
	return s.Pulsing, err
}

// EarMode returns the ear mode, refreshing the cache if needed
func (c *Client) EarMode(ctx context.Context) (EarMode, error) {
	s, err := c.EnsureState(ctx)
	return s.EarMode, err
}

// EarPositions returns the last known left and right ear positions
func (c *Client) EarPositions(ctx context.Context) ([2]EarPosition, error) {
	s, err := c.EnsureState(ctx)
	return [2]EarPosition{s.LeftEar, s.RightEar}, err
}

// WakeUp wakes the rabbit. Nothing is sent if the cache already says AWAKE.
func (c *Client) WakeUp(ctx context.Context, silent bool) error {
	if c.State().Status.IsAwake() {
		logging.Debug("Already awake, no need to wake up")
		return nil
	}

	query := url.Values{}
	if silent {
		query.Set("silent", "1")
	}

	body, err := c.get(ctx, "wakeup", query)
	if err != nil {
		logFailure("wakeup", err)
		return err
	}

	// Answer: {"return":"0","silent":"1"}
	var resp wakeupResponse
	if err := decode("wakeup", body, &resp); err != nil {
		c.setStatus(StatusUnknown)
		logFailure("wakeup", err)
		return err
	}
	if !resp.ok() {
		c.setStatus(StatusUnknown)
		err := NewDeviceFailure("wakeup", resp.Msg)
		logFailure("wakeup", err)
		return err
	}

	c.setStatus(StatusAwake)
	logging.Info("Karotz is awake", zap.Bool("silent", silent))
	return nil
}

// Sleep puts the rabbit to sleep. Nothing is sent if the cache already
// says SLEEPING.
func (c *Client) Sleep(ctx context.Context) error {
	if c.State().Status.IsSleeping() {
		logging.Debug("Already sleeping, no need to go to sleep")
		return nil
	}

	body, err := c.get(ctx, "sleep", nil)
	if err != nil {
		logFailure("sleep", err)
		return err
	}

	// Answer: {"return":"0"}
	// Answer: {"return":"1","msg":"Unable to perform action, rabbit is already sleeping."}
	var resp statusReturn
	if err := decode("sleep", body, &resp); err != nil {
		c.setStatus(StatusUnknown)
		logFailure("sleep", err)
		return err
	}
	if !resp.ok() {
		c.setStatus(StatusUnknown)
		err := NewDeviceFailure("sleep", resp.Msg)
		logFailure("sleep", err)
		return err
	}

	c.setStatus(StatusSleeping)
	logging.Info("Karotz is sleeping")
	return nil
}

func (c *Client) setStatus(status Status) {
	c.update(func(s *State) {
		s.Status = status
	})
}

// SetLED changes the LED color and pulse mode. Nothing is sent when the
// cache is loaded and already holds the requested pair.
func (c *Client) SetLED(ctx context.Context, color Color, pulse bool) error {
	rgb := color.Masked()

	current := c.State()
	if current.Loaded() && current.LEDColor == rgb && current.Pulsing == pulse {
		logging.Debug("No change in LED", zap.String("color", rgb.Hex()), zap.Bool("pulse", pulse))
		return nil
	}

	query := url.Values{}
	query.Set("color", rgb.Hex())
	if pulse {
		query.Set("pulse", "1")
	} else {
		query.Set("pulse", "0")
	}

	body, err := c.get(ctx, "leds", query)
	if err != nil {
		c.rollbackLED(rgb, pulse)
		logFailure("leds", err)
		return err
	}

	// Answer: {"color":"0000FF","secondary_color":"000000","pulse":"0","no_memory":"0","speed":"700","return":"0"}
	// Answer: {"return":"1","msg":"Unable to perform action, rabbit is sleeping."}
	var resp ledsResponse
	if err := decode("leds", body, &resp); err != nil {
		c.rollbackLED(rgb, pulse)
		logFailure("leds", err)
		return err
	}
	if !resp.ok() {
		c.rollbackLED(rgb, pulse)
		err := NewDeviceFailure("leds", resp.Msg)
		logFailure("leds", err)
		return err
	}

	// The device echoes what it applied, which is what we cache
	applied := rgb
	if echoed, err := ParseColor(resp.Color.Value); err == nil {
		applied = echoed
	}
	appliedPulse := pulse
	if resp.Pulse.Set {
		appliedPulse = resp.Pulse.Value == "1"
	}

	c.update(func(s *State) {
		s.LEDColor = applied
		s.Pulsing = appliedPulse
	})
	return nil
}

func (c *Client) rollbackLED(rgb Color, pulse bool) {
	if !c.RollbackLEDOnFailure {
		return
	}
	c.update(func(s *State) {
		s.LEDColor = rgb
		s.Pulsing = pulse
	})
}

// MoveEars moves both ears to preset positions and returns the positions
// the device reports.
func (c *Client) MoveEars(ctx context.Context, left, right EarPosition) ([2]EarPosition, error) {
	if !left.Valid() || !right.Valid() {
		return c.cachedEars(), NewValidationError(fmt.Sprintf("ear positions must be %d-%d (got %d, %d)", EarPositionMin, EarPositionMax, left, right))
	}

	query := url.Values{}
	query.Set("left", left.String())
	query.Set("right", right.String())
	query.Set("noreset", "1")

	// Answer: {"return":"0","left":"0","right":"0"}
	return c.earsCall(ctx, "ears", query)
}

// RandomEars moves both ears to random positions
func (c *Client) RandomEars(ctx context.Context) ([2]EarPosition, error) {
	// Answer: {"left":"0","right":"0","return":"0"}
	// Answer: {"return":"1","msg":"Unable to perform action, rabbit is sleeping."}
	// Answer: {"return":"1","msg":"Unable to perform action, ears disabled."}
	return c.earsCall(ctx, "ears_random", nil)
}

func (c *Client) earsCall(ctx context.Context, endpoint string, query url.Values) ([2]EarPosition, error) {
	body, err := c.get(ctx, endpoint, query)
	if err != nil {
		logFailure(endpoint, err)
		return c.cachedEars(), err
	}

	var resp earsResponse
	if err := decode(endpoint, body, &resp); err != nil {
		logFailure(endpoint, err)
		return c.cachedEars(), err
	}
	if !resp.ok() {
		err := NewDeviceFailure(endpoint, resp.Msg)
		logFailure(endpoint, err)
		return c.cachedEars(), err
	}

	positions, err := resp.positions()
	if err != nil {
		logFailure(endpoint, err)
		return c.cachedEars(), err
	}

	c.update(func(s *State) {
		s.LeftEar = positions[0]
		s.RightEar = positions[1]
	})
	return positions, nil
}

func (c *Client) cachedEars() [2]EarPosition {
	s := c.State()
	return [2]EarPosition{s.LeftEar, s.RightEar}
}

// ResetEars returns both ears to the rest position
func (c *Client) ResetEars(ctx context.Context) error {
	body, err := c.get(ctx, "ears_reset", nil)
	if err != nil {
		logFailure("ears_reset", err)
		return err
	}

	// Answer: {"return":"0"}
	var resp statusReturn
	if err := decode("ears_reset", body, &resp); err != nil {
		logFailure("ears_reset", err)
		return err
	}
	if !resp.ok() {
		err := NewDeviceFailure("ears_reset", resp.Msg)
		logFailure("ears_reset", err)
		return err
	}

	c.update(func(s *State) {
		s.LeftEar = EarPositionMin
		s.RightEar = EarPositionMin
	})
	return nil
}

// SetEarMode enables or disables the ear motors and returns the mode the
// device reports. Nothing is sent if the mode is unchanged.
func (c *Client) SetEarMode(ctx context.Context, mode EarMode) (EarMode, error) {
	current, err := c.EnsureState(ctx)
	if err != nil && IsNetworkError(err) {
		return current.EarMode, err
	}
	if current.EarMode == mode {
		logging.Debug("No change in ear mode")
		return mode, nil
	}

	query := url.Values{}
	if mode.IsEnabled() {
		query.Set("disable", "0")
	} else {
		query.Set("disable", "1")
	}

	body, err := c.get(ctx, "ears_mode", query)
	if err != nil {
		logFailure("ears_mode", err)
		return current.EarMode, err
	}

	// Answer: {"return":"0","disabled":"0"}
	var resp earsModeResponse
	if err := decode("ears_mode", body, &resp); err != nil {
		logFailure("ears_mode", err)
		return current.EarMode, err
	}
	if !resp.ok() {
		err := NewDeviceFailure("ears_mode", resp.Msg)
		logFailure("ears_mode", err)
		return current.EarMode, err
	}

	newMode := EarsDisabled
	if resp.Disabled.or("1") == "0" {
		newMode = EarsEnabled
	}
	c.update(func(s *State) {
		s.EarMode = newMode
	})
	return newMode, nil
}

// PlaySound makes the rabbit play a sound or stream URL. An empty URL is
// a successful no-op.
func (c *Client) PlaySound(ctx context.Context, soundURL string) error {
	if soundURL == "" {
		return nil
	}

	query := url.Values{}
	query.Set("url", soundURL)

	// Answer: {"return":"0"}
	// Answer: {"return":"1","msg":"Unable to perform action, rabbit is sleeping."}
	if err := c.simpleCall(ctx, "sound", query); err != nil {
		return err
	}
	logging.Info("Karotz is playing sound", zap.String("url", soundURL))
	return nil
}

// PlayRadio plays a station from the radio list
func (c *Client) PlayRadio(ctx context.Context, station RadioStation) error {
	if station.URL == "" {
		return NewValidationError(fmt.Sprintf("radio station %d has no URL", station.ID))
	}
	return c.PlaySound(ctx, station.URL)
}

// SoundControl stops or pauses the sound being played
func (c *Client) SoundControl(ctx context.Context, cmd SoundControlCommand) error {
	if _, err := ParseSoundControlCommand(string(cmd)); err != nil {
		return err
	}

	query := url.Values{}
	query.Set("cmd", string(cmd))

	// Answer: {"return":"0"}
	// Answer: {"return":"1","msg":"No sound currently playing."}
	return c.simpleCall(ctx, "sound_control", query)
}

// simpleCall is a GET whose only meaningful answer is {"return":"0"}
func (c *Client) simpleCall(ctx context.Context, endpoint string, query url.Values) error {
	body, err := c.get(ctx, endpoint, query)
	if err != nil {
		logFailure(endpoint, err)
		return err
	}

	var resp statusReturn
	if err := decode(endpoint, body, &resp); err != nil {
		logFailure(endpoint, err)
		return err
	}
	if !resp.ok() {
		err := NewDeviceFailure(endpoint, resp.Msg)
		logFailure(endpoint, err)
		return err
	}
	return nil
}

// Speak reads text aloud with the given voice
func (c *Client) Speak(ctx context.Context, voiceID, text string) error {
	if text == "" {
		return NewValidationError("text to speak is empty")
	}
	if n := len([]rune(text)); n > MaxSpeechLength {
		return NewValidationError(fmt.Sprintf("text to speak is %d characters (max %d)", n, MaxSpeechLength))
	}

	query := url.Values{}
	query.Set("voice", voiceID)
	query.Set("text", text)
	query.Set("nocache", nocache(c.now()))

	body, err := c.get(ctx, "tts", query)
	if err != nil {
		logFailure("tts", err)
		return err
	}

	// Answer: {"return": true, "played": true, "cache": false, "voicelanguage": "fr", "voicegender": "male", "id": "7629fdab05ffe2bc183743b02004476c"}
	var resp ttsReturn
	if err := decode("tts", body, &resp); err != nil {
		logFailure("tts", err)
		return err
	}
	if !resp.ok() {
		err := NewDeviceFailure("tts", resp.Msg)
		logFailure("tts", err)
		return err
	}

	logging.Info("Karotz TTS started", zap.String("voice", voiceID))
	return nil
}

// PlayRandomMood plays a random mood and returns its id
func (c *Client) PlayRandomMood(ctx context.Context) (string, error) {
	body, err := c.get(ctx, "apps/moods", nil)
	if err != nil {
		logFailure("moods", err)
		return "", err
	}

	// Answer: {"moods":"259","return":"0"}
	var resp moodsResponse
	if err := decode("apps/moods", body, &resp); err != nil {
		logFailure("moods", err)
		return "", err
	}
	if !resp.ok() {
		err := NewDeviceFailure("apps/moods", resp.Msg)
		logFailure("moods", err)
		return "", err
	}
	return resp.Moods.Value, nil
}

// ListVoices returns the raw /voice_list body; see ParseVoices
func (c *Client) ListVoices(ctx context.Context) (json.RawMessage, error) {
	return c.rawList(ctx, "voice_list")
}

// ListRadioStations returns the raw /radios_list body; see ParseRadioStations
func (c *Client) ListRadioStations(ctx context.Context) (json.RawMessage, error) {
	return c.rawList(ctx, "radios_list")
}

func (c *Client) rawList(ctx context.Context, endpoint string) (json.RawMessage, error) {
	body, err := c.get(ctx, endpoint, nil)
	if err != nil {
		logFailure(endpoint, err)
		return nil, err
	}
	if !json.Valid(body) {
		err := NewParseError(endpoint+" response is not JSON", nil)
		err.Endpoint = endpoint
		logFailure(endpoint, err)
		return nil, err
	}
	return json.RawMessage(body), nil
}

// IsOnline is a best-effort reachability probe: it succeeds when /status
// answers with something that looks like a JSON object. Every error
// counts as "not online".
func (c *Client) IsOnline(ctx context.Context) bool {
	body, err := c.get(ctx, "status", nil)
	if err != nil {
		logging.Debug("Karotz is not online", zap.String("base_url", c.BaseURL), zap.Error(err))
		return false
	}
	return LooksLikeJSONObject(body)
}

// LooksLikeJSONObject reports whether body is non-empty and its first
// non-whitespace character is '{'
func LooksLikeJSONObject(body []byte) bool {
	trimmed := strings.TrimSpace(string(body))
	return trimmed != "" && trimmed[0] == '{'
}

// ValidateHost checks that a device host is usable in a URL
func ValidateHost(host string) error {
	if strings.TrimSpace(host) == "" {
		return NewValidationError("host is required")
	}
	if strings.ContainsAny(host, "/?# ") {
		return NewValidationError(fmt.Sprintf("invalid host %q", host))
	}
	return nil
}

// ValidatePort checks the device port range
func ValidatePort(port int) error {
	if port < 1 || port > 65535 {
		return NewValidationError("port must be between 1 and 65535, got " + strconv.Itoa(port))
	}
	return nil
}
