package web

import (
	"github.com/gorilla/websocket"

	"github.com/guslan/okto"
)

// Boot implements okto.Renderer.
func (s *Server) Boot() error {
	return nil
}

func (s *Server) setWs(conn *websocket.Conn) {
	s.wsMutex.Lock()
	defer s.wsMutex.Unlock()

	s.socket = conn
}

// unsetWs clears the stored socket only if it still belongs to the
// caller. A later client may have replaced it already.
func (s *Server) unsetWs(conn *websocket.Conn) {
	s.wsMutex.Lock()
	defer s.wsMutex.Unlock()

	if s.socket == conn {
		s.socket = nil
	}
}

func (s *Server) hasWs() bool {
	s.wsMutex.RLock()
	defer s.wsMutex.RUnlock()

	return s.socket != nil
}

// Render implements okto.Renderer. Frames go out as binary messages in
// the packed bitfield format; with no display connected, frames are
// dropped silently.
func (s *Server) Render(d *okto.Display) error {
	s.wsMutex.RLock()
	defer s.wsMutex.RUnlock()

	if s.socket == nil {
		return nil
	}

	return s.socket.WriteMessage(websocket.BinaryMessage, d.Packed())
}
