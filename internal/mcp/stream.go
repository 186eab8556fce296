// ABOUTME: Per-session SSE stream for the GET side of the transport.
// ABOUTME: Delivers queued session events until disconnect or termination.

package mcp

import (
	"encoding/json"
	"net/http"

	"github.com/tmaxmax/go-sse"
)

// handleStream attaches an SSE stream to an established session. Events
// published on the session are delivered in order until the client
// disconnects or the session is terminated.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	sessionID := r.Header.Get("Mcp-Session-Id")
	if sessionID == "" {
		http.Error(w, "Bad Request: missing Mcp-Session-Id", http.StatusBadRequest)
		return
	}

	sess := s.sessions.get(sessionID)
	if sess == nil {
		http.Error(w, "Not Found", http.StatusNotFound)
		return
	}

	stream, err := sse.Upgrade(w, r)
	if err != nil {
		s.logger.Warn("sse upgrade failed", "session_id", sessionID, "error", err)
		http.Error(w, "Bad Request: cannot establish event stream", http.StatusBadRequest)
		return
	}

	s.logger.Debug("event stream attached", "session_id", sessionID)

	for {
		select {
		case ev := <-sess.events:
			if err := s.sendEvent(stream, ev); err != nil {
				s.logger.Debug("event stream write failed", "session_id", sessionID, "error", err)
				return
			}
		case <-sess.done:
			return
		case <-r.Context().Done():
			return
		}
	}
}

// sendEvent writes one event as an SSE message and flushes it.
func (s *Server) sendEvent(stream *sse.Session, ev Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}

	msg := &sse.Message{Type: sse.Type("message")}
	msg.AppendData(string(data))

	if err := stream.Send(msg); err != nil {
		return err
	}
	return stream.Flush()
}
