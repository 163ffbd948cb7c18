package web

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/retroenv/retrogolib/assert"
	"github.com/retroenv/retrogolib/log"

	okto "github.com/guslan/okto"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()

	s := NewServer(log.NewTestLogger(t))
	assert.NoError(t, s.Emulator.Boot())

	return s
}

func TestServerControlEndpoints(t *testing.T) {
	s := newTestServer(t)

	get := func(path string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		return rec
	}

	rec := get("/stop")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, s.Emulator.IsRunning())

	rec = get("/start")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, s.Emulator.IsRunning())
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))

	get("/reset")
	assert.False(t, s.Emulator.IsRunning())
	assert.Equal(t, uint64(0), s.Emulator.Cycles())
}

func TestServerStepEndpoint(t *testing.T) {
	s := newTestServer(t)
	assert.NoError(t, s.LoadROM([]byte{0x60, 0x2A})) // LD V0, $2A

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/step", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, uint64(1), s.Emulator.Cycles())

	v, err := s.Emulator.Cpu.Register(0)
	assert.NoError(t, err)
	assert.Equal(t, byte(0x2A), v)
}

func TestServerKeyEndpoint(t *testing.T) {
	s := newTestServer(t)

	press := func(query string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/key"+query, nil))
		return rec
	}

	rec := press("?k=A")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, s.IsPressed(0xA))

	rec = press("?k=A&release=1")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, s.IsPressed(0xA))

	assert.Equal(t, http.StatusBadRequest, press("?k=G").Code)
	assert.Equal(t, http.StatusBadRequest, press("").Code)
}

func TestServerDisplayWebsocket(t *testing.T) {
	s := newTestServer(t)

	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/display"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	assert.NoError(t, err)
	defer conn.Close()

	// The handler registers the socket right after the handshake; wait
	// for it before rendering.
	for i := 0; i < 100 && !s.hasWs(); i++ {
		time.Sleep(time.Millisecond)
	}
	assert.True(t, s.hasWs())

	_, err = s.Emulator.Display.DrawSprite(0, 0, []byte{0xFF})
	assert.NoError(t, err)
	assert.NoError(t, s.Render(s.Emulator.Display))

	msgType, frame, err := conn.ReadMessage()
	assert.NoError(t, err)
	assert.Equal(t, websocket.BinaryMessage, msgType)
	assert.Len(t, frame, okto.DisplayWidth*okto.DisplayHeight/8)
	assert.Equal(t, byte(0xFF), frame[0])
}

func TestServerRenderWithoutClientDropsFrame(t *testing.T) {
	s := newTestServer(t)

	assert.NoError(t, s.Render(s.Emulator.Display))
}

func TestServerStaleDisplayClientKeepsLiveSocket(t *testing.T) {
	s := newTestServer(t)
	first := &websocket.Conn{}
	second := &websocket.Conn{}

	s.setWs(first)
	s.setWs(second)

	// The replaced client going away must not drop the live socket.
	s.unsetWs(first)
	assert.True(t, s.hasWs())

	s.unsetWs(second)
	assert.False(t, s.hasWs())
}

func TestDebuggerEventEncoding(t *testing.T) {
	state := machineState{
		Opcode: 0x1234,
		PC:     0x0202,
		I:      0x0300,
		Stack:  []uint16{0x0202},
		Delay:  5,
		Sound:  2,
	}
	state.V[0] = 0xAA
	state.V[15] = 0xBB

	buf := encodeState(state)

	// opcode + pc + 16 registers + I + depth + 16 slots + 2 timers +
	// width and height
	assert.Len(t, buf, 2+2+16+2+1+32+2+2)

	assert.Equal(t, byte(0x12), buf[0])
	assert.Equal(t, byte(0x34), buf[1])
	assert.Equal(t, byte(0x02), buf[2])
	assert.Equal(t, byte(0x02), buf[3])
	assert.Equal(t, byte(0xAA), buf[4])
	assert.Equal(t, byte(0xBB), buf[19])
	assert.Equal(t, byte(0x03), buf[20])
	assert.Equal(t, byte(0x00), buf[21])
	assert.Equal(t, byte(1), buf[22])
	assert.Equal(t, byte(0x02), buf[23])
	assert.Equal(t, byte(0x02), buf[24])
	assert.Equal(t, byte(5), buf[55])
	assert.Equal(t, byte(2), buf[56])
	assert.Equal(t, byte(okto.DisplayWidth), buf[57])
	assert.Equal(t, byte(okto.DisplayHeight), buf[58])
}

func TestDebuggerStreamsCycleEvents(t *testing.T) {
	logger := log.NewTestLogger(t)
	s := NewServer(logger, func(config *ServerConfig) {
		config.UseDebugger = true
	})
	assert.NoError(t, s.Emulator.Boot())
	assert.NoError(t, s.LoadROM([]byte{0x60, 0x2A}))

	assert.NoError(t, s.Emulator.Step())

	select {
	case state := <-s.debugger.send:
		assert.Equal(t, uint16(0x602A), state.Opcode)
		assert.Equal(t, uint16(0x202), state.PC)
		assert.Equal(t, byte(0x2A), state.V[0])
	default:
		t.Fatal("expected a debugger event after the cycle")
	}
}
