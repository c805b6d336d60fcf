package ws

import (
	"encoding/json"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	diag "github.com/coreman2200/funtimes-kitchenline/internal/diagnostics"
	"github.com/coreman2200/funtimes-kitchenline/internal/render"
	"github.com/coreman2200/funtimes-kitchenline/internal/sequence"
)

const (
	writeWait   = 200 * time.Millisecond
	historySize = 32
)

// Controller receives camera requests from the control socket.
type Controller interface {
	Rotate(dAzimuth, dPolar float64)
	Zoom(factor float64)
}

// StatusSource reports the sequencer for /state and /health.
type StatusSource interface {
	Snapshot() sequence.Status
}

// State is the browser preview. It is a render.Driver: every written
// frame is encoded once and broadcast to /ws clients.
type State struct {
	FPS     int
	Drivers []string

	ctl Controller
	src StatusSource
	log zerolog.Logger
	clk clock.Clock

	mu        sync.RWMutex
	w, h      int
	rgb       []byte
	frameID   uint64
	sent      uint64
	startTime time.Time

	// fmu guards clients and serializes writes to them; dmu does the same
	// for diagClients and history.
	fmu         sync.Mutex
	clients     map[*websocket.Conn]bool
	dmu         sync.Mutex
	diagClients map[*websocket.Conn]bool
	history     []diag.Diagnostic

	upgrader websocket.Upgrader
}

// NewState builds the preview. ctl and src may be nil.
func NewState(fps int, ctl Controller, src StatusSource, clk clock.Clock, log zerolog.Logger) *State {
	if clk == nil {
		clk = clock.New()
	}
	return &State{
		FPS:         fps,
		ctl:         ctl,
		src:         src,
		log:         log,
		clk:         clk,
		startTime:   clk.Now(),
		clients:     map[*websocket.Conn]bool{},
		diagClients: map[*websocket.Conn]bool{},
		upgrader:    websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }},
	}
}

// Routes mounts the preview endpoints.
func (s *State) Routes(mux *http.ServeMux) {
	mux.HandleFunc("/ws", s.HandleFramesWS)
	mux.HandleFunc("/diag", s.HandleDiagWS)
	mux.HandleFunc("/control", s.HandleControlWS)
	mux.HandleFunc("/health", s.HandleHealth)
	mux.HandleFunc("/state", s.HandleState)
}

type topology struct {
	Type    string   `json:"type"`
	W       int      `json:"w"`
	H       int      `json:"h"`
	FPS     int      `json:"fps"`
	Drivers []string `json:"drivers,omitempty"`
}

type frameMsg struct {
	Type    string `json:"type"`
	T       int64  `json:"t"`
	FrameID uint64 `json:"frame_id"`
	W       int    `json:"w"`
	H       int    `json:"h"`
	RGB     []byte `json:"rgb"`
}

func (s *State) Write(f *render.Frame) error {
	rgb := f.RGB8()
	s.mu.Lock()
	resized := f.W != s.w || f.H != s.h
	s.w, s.h = f.W, f.H
	s.rgb = rgb
	s.frameID++
	id := s.frameID
	s.mu.Unlock()

	// new clients get the topology on connect, so an idle preview skips
	// both messages
	s.fmu.Lock()
	watched := len(s.clients) > 0
	s.fmu.Unlock()
	if !watched {
		return nil
	}
	if resized {
		s.broadcast(s.topologyMsg())
	}
	b, err := json.Marshal(frameMsg{Type: "frame", T: s.clk.Now().UnixNano(), FrameID: id, W: f.W, H: f.H, RGB: rgb})
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.sent++
	s.mu.Unlock()
	s.broadcast(b)
	return nil
}

func (s *State) HandleFramesWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	s.fmu.Lock()
	s.clients[conn] = true
	s.send(conn, s.topologyMsg())
	s.fmu.Unlock()

	go func() {
		defer func() {
			s.fmu.Lock()
			delete(s.clients, conn)
			s.fmu.Unlock()
			conn.Close()
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

// HandleDiagWS replays recent diagnostics, then streams new ones.
func (s *State) HandleDiagWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	s.dmu.Lock()
	s.diagClients[conn] = true
	for _, d := range s.history {
		b, _ := json.Marshal(d)
		s.send(conn, b)
	}
	s.dmu.Unlock()

	go func() {
		defer func() {
			s.dmu.Lock()
			delete(s.diagClients, conn)
			s.dmu.Unlock()
			conn.Close()
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

// HandleControlWS accepts camera messages only:
//
//	{"orbit":{"azimuth":0.1,"polar":-0.05}}
//	{"zoom":0.9}
//
// Each message is answered with the current topology.
func (s *State) HandleControlWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var msg map[string]json.RawMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			continue
		}
		s.applyControl(msg)
		s.send(conn, s.topologyMsg())
	}
}

type orbitMsg struct {
	Azimuth float64 `json:"azimuth"`
	Polar   float64 `json:"polar"`
}

func (s *State) applyControl(msg map[string]json.RawMessage) {
	handled := false
	if raw, ok := msg["orbit"]; ok {
		var o orbitMsg
		if err := json.Unmarshal(raw, &o); err == nil {
			handled = true
			if s.ctl != nil {
				s.ctl.Rotate(o.Azimuth, o.Polar)
			}
		}
	}
	if raw, ok := msg["zoom"]; ok {
		var z float64
		if err := json.Unmarshal(raw, &z); err == nil {
			handled = true
			if s.ctl != nil {
				s.ctl.Zoom(z)
			}
		}
	}
	if handled {
		return
	}
	keys := make([]string, 0, len(msg))
	for k := range msg {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	s.log.Warn().Strs("keys", keys).Msg("unsupported control message")
	s.PushDiag(diag.UnsupportedControl(keys))
}

func (s *State) HandleHealth(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	resp := map[string]any{
		"frame_id":    s.frameID,
		"frames_sent": s.sent,
		"uptime_s":    s.clk.Since(s.startTime).Seconds(),
		"w":           s.w,
		"h":           s.h,
		"fps":         s.FPS,
		"drivers":     s.Drivers,
	}
	s.mu.RUnlock()
	s.fmu.Lock()
	resp["clients"] = len(s.clients)
	s.fmu.Unlock()
	if s.src != nil {
		resp["state"] = s.src.Snapshot().State
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

// HandleState serves the sequencer snapshot.
func (s *State) HandleState(w http.ResponseWriter, r *http.Request) {
	if s.src == nil {
		http.Error(w, "no sequencer", http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(s.src.Snapshot())
}

// Latest returns a copy of the last frame's RGB bytes and its id.
func (s *State) Latest() ([]byte, uint64) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]byte(nil), s.rgb...), s.frameID
}

// PushDiag records d and sends it to every /diag client.
func (s *State) PushDiag(d diag.Diagnostic) {
	b, err := json.Marshal(d)
	if err != nil {
		return
	}
	s.dmu.Lock()
	defer s.dmu.Unlock()
	s.history = append(s.history, d)
	if len(s.history) > historySize {
		s.history = s.history[len(s.history)-historySize:]
	}
	for c := range s.diagClients {
		if !s.send(c, b) {
			delete(s.diagClients, c)
			c.Close()
		}
	}
}

// Close drops every streaming client.
func (s *State) Close() error {
	s.fmu.Lock()
	for c := range s.clients {
		c.Close()
		delete(s.clients, c)
	}
	s.fmu.Unlock()
	s.dmu.Lock()
	for c := range s.diagClients {
		c.Close()
		delete(s.diagClients, c)
	}
	s.dmu.Unlock()
	return nil
}

func (s *State) topologyMsg() []byte {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, _ := json.Marshal(topology{Type: "topology", W: s.w, H: s.h, FPS: s.FPS, Drivers: s.Drivers})
	return b
}

func (s *State) broadcast(b []byte) {
	s.fmu.Lock()
	defer s.fmu.Unlock()
	for c := range s.clients {
		if !s.send(c, b) {
			delete(s.clients, c)
			c.Close()
		}
	}
}

func (s *State) send(c *websocket.Conn, b []byte) bool {
	c.SetWriteDeadline(time.Now().Add(writeWait))
	if err := c.WriteMessage(websocket.TextMessage, b); err != nil {
		s.log.Debug().Err(err).Msg("websocket write")
		return false
	}
	return true
}
