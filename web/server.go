// Package web exposes an emulator over HTTP: a websocket that streams
// display frames, control endpoints and an optional debugger that
// streams machine state after every cycle.
package web

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/retroenv/retrogolib/log"

	"github.com/guslan/okto"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Server runs the emulator on its own goroutine and serves it over
// HTTP. It doubles as the keyboard and renderer: browser key events
// land in the embedded InMemoryKeyboard and frames go out over the
// display websocket.
type Server struct {
	*okto.InMemoryKeyboard

	Emulator *okto.Emulator
	debugger *Debugger
	logger   *log.Logger

	mux *http.ServeMux

	socket  *websocket.Conn
	wsMutex sync.RWMutex
}

type ServerConfig struct {
	UseDebugger bool
	SpeedInHz   uint
}

type ServerConfigCb func(config *ServerConfig)

func NewServer(logger *log.Logger, configs ...ServerConfigCb) *Server {
	config := &ServerConfig{
		UseDebugger: false,
		SpeedInHz:   okto.DefaultSpeed,
	}
	for _, cb := range configs {
		cb(config)
	}

	s := &Server{
		InMemoryKeyboard: okto.NewInMemoryKeyboard(),
		logger:           logger,
		mux:              http.NewServeMux(),
	}

	s.Emulator = okto.NewEmulator(
		okto.NewMemory(),
		okto.NewDisplay(),
		s,
		okto.NewDummyBuzzer(),
		s,
		logger,
	)
	s.Emulator.SetSpeedInHz(config.SpeedInHz)

	if config.UseDebugger {
		s.debugger = NewDebugger(s.Emulator, logger)
	}

	s.routes()

	return s
}

// LoadROM resets the machine and loads the program.
func (s *Server) LoadROM(rom []byte) error {
	return s.Emulator.LoadROM(rom)
}

// Handler returns the HTTP handler, which tests mount directly.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// Listen boots the emulator, starts it paused on its own goroutine and
// serves HTTP until the listener fails or the context is cancelled.
func (s *Server) Listen(ctx context.Context, port int) error {
	if err := s.Emulator.Boot(); err != nil {
		return err
	}

	go func() {
		s.Emulator.Pause()
		if err := s.Emulator.Run(ctx); err != nil && err != context.Canceled {
			s.logger.Error("emulator stopped", log.Err(err))
		}
	}()

	s.logger.Info("listening", log.Int("port", port))

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: s.mux,
	}
	go func() {
		<-ctx.Done()
		srv.Close()
	}()

	if err := srv.ListenAndServe(); err != http.ErrServerClosed {
		return err
	}

	return nil
}

func (s *Server) routes() {
	s.mux.Handle("/", http.FileServer(http.Dir("./static")))

	s.mux.HandleFunc("/start", s.control("starting", s.Emulator.Unpause))
	s.mux.HandleFunc("/stop", s.control("stopping", s.Emulator.Pause))
	s.mux.HandleFunc("/reset", s.control("resetting", func() {
		s.Emulator.Pause()
		s.Emulator.Reset()
	}))

	s.mux.HandleFunc("/step", func(w http.ResponseWriter, r *http.Request) {
		corsHeaders(w)

		s.logger.Info("stepping one cycle")
		if err := s.Emulator.Step(); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	})

	s.mux.HandleFunc("/key", s.handleKey)
	s.mux.HandleFunc("/display", s.handleDisplay)

	if s.debugger != nil {
		s.mux.HandleFunc("/debugger", s.debugger.handleWs)
	}
}

func (s *Server) control(action string, fn func()) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		corsHeaders(w)

		s.logger.Info(action)
		fn()
	}
}

// handleKey accepts key presses and releases: POST /key?k=A presses
// keypad key 0xA, adding &release=1 releases it.
func (s *Server) handleKey(w http.ResponseWriter, r *http.Request) {
	corsHeaders(w)

	k, err := strconv.ParseUint(r.URL.Query().Get("k"), 16, 8)
	if err != nil || k > 0xF {
		http.Error(w, "k must be a keypad digit 0..F", http.StatusBadRequest)
		return
	}

	if r.URL.Query().Has("release") {
		s.Release(byte(k))
	} else {
		s.Press(byte(k))
	}
}

func (s *Server) handleDisplay(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("upgrading display socket", log.Err(err))
		return
	}
	defer conn.Close()

	s.logger.Info("display connected")
	s.setWs(conn)
	defer s.unsetWs(conn)

	<-r.Context().Done()
	s.logger.Info("display disconnected")
}

func corsHeaders(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Expose-Headers", "Content-Type")
	w.Header().Set("Cache-Control", "no-cache")
}
