package bridge

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/wulfaz/karotzctl/internal/karotz"
	"github.com/wulfaz/karotzctl/internal/logging"
)

const maxBodySize = 64 * 1024

// apiResponse is the body of every REST reply
type apiResponse struct {
	OK     bool          `json:"ok"`
	Result interface{}   `json:"result,omitempty"`
	State  *karotz.State `json:"state,omitempty"`
	Error  string        `json:"error,omitempty"`
	Kind   string        `json:"kind,omitempty"`
}

func (s *Server) routes() {
	r := mux.NewRouter()
	r.Use(logRequests)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/status", s.handle("status")).Methods(http.MethodGet)
	api.HandleFunc("/state", s.handle("state")).Methods(http.MethodGet)
	api.HandleFunc("/online", s.handle("online")).Methods(http.MethodGet)
	api.HandleFunc("/voices", s.handle("voices")).Methods(http.MethodGet)
	api.HandleFunc("/radios", s.handle("radios")).Methods(http.MethodGet)

	api.HandleFunc("/wakeup", s.handleWakeUp).Methods(http.MethodPost)
	api.HandleFunc("/sleep", s.handle("sleep")).Methods(http.MethodPost)
	api.HandleFunc("/leds", s.handle("leds")).Methods(http.MethodPost)
	api.HandleFunc("/ears", s.handle("ears")).Methods(http.MethodPost)
	api.HandleFunc("/ears/random", s.handle("ears_random")).Methods(http.MethodPost)
	api.HandleFunc("/ears/reset", s.handle("ears_reset")).Methods(http.MethodPost)
	api.HandleFunc("/ears/mode", s.handle("ears_mode")).Methods(http.MethodPost)
	api.HandleFunc("/sound", s.handle("sound")).Methods(http.MethodPost)
	api.HandleFunc("/sound/control", s.handle("sound_control")).Methods(http.MethodPost)
	api.HandleFunc("/tts", s.handle("tts")).Methods(http.MethodPost)
	api.HandleFunc("/mood", s.handle("mood")).Methods(http.MethodPost)
	api.HandleFunc("/radios/{id:[0-9]+}", s.handlePlayRadio).Methods(http.MethodPost)

	r.HandleFunc("/ws", s.handleWebSocket).Methods(http.MethodGet)

	s.router = r
}

// handle serves op with the request body as its arguments
func (s *Server) handle(op string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize))
		if err != nil {
			s.reply(w, nil, karotz.NewValidationError("failed to read request body"))
			return
		}
		s.run(w, r, op, body)
	}
}

// handleWakeUp accepts ?silent=1 as well as a {"silent":true} body
func (s *Server) handleWakeUp(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("silent") == "1" {
		s.run(w, r, "wakeup", json.RawMessage(`{"silent":true}`))
		return
	}
	s.handle("wakeup")(w, r)
}

func (s *Server) handlePlayRadio(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		s.reply(w, nil, karotz.NewValidationError("invalid radio id"))
		return
	}
	s.run(w, r, "radio", json.RawMessage(fmt.Sprintf(`{"id":%d}`, id)))
}

// run executes op in the background so a client that goes away stops
// waiting, then writes the reply.
func (s *Server) run(w http.ResponseWriter, r *http.Request, op string, args json.RawMessage) {
	future := karotz.Go(r.Context(), func(ctx context.Context) (interface{}, error) {
		return s.execute(ctx, op, args)
	})
	result, err := future.Await(r.Context())
	s.reply(w, result, err)
}

func (s *Server) reply(w http.ResponseWriter, result interface{}, err error) {
	state := s.client.State()
	resp := apiResponse{OK: err == nil, Result: result, State: &state}
	status := http.StatusOK
	if err != nil {
		resp.Error = err.Error()
		resp.Kind = karotz.ErrorKind(err)
		status = statusFor(err)
	}
	writeJSON(w, status, resp)
}

// statusFor maps a failure to an HTTP status: bad input is the caller's
// fault, anything else is the rabbit's.
func statusFor(err error) int {
	if karotz.IsValidationError(err) {
		return http.StatusBadRequest
	}
	return http.StatusBadGateway
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Error("Failed to write response", zap.Error(err))
	}
}

// statusRecorder captures the status code for request logging
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Hijack lets the WebSocket upgrader take over the connection
func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("response writer does not support hijacking")
	}
	r.status = http.StatusSwitchingProtocols
	return h.Hijack()
}

func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		logging.LogHTTPRequest(r.RemoteAddr, r.Method, r.URL.Path, rec.status)
	})
}
