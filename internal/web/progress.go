package web

import (
	"github.com/gorilla/websocket"
)

// event is a message streamed over the websocket.
type event struct {
	Type  string       `json:"type"`
	Done  int          `json:"done,omitempty"`
	Total int          `json:"total,omitempty"`
	Path  string       `json:"path,omitempty"`
	Job   *jobResponse `json:"job,omitempty"`
	Error string       `json:"error,omitempty"`
}

// progressEmitter sends progress updates to a websocket client.
// It is nil-safe: calling methods on a nil pointer is a no-op.
type progressEmitter struct {
	conn *websocket.Conn
	err  error
}

func newProgressEmitter(conn *websocket.Conn) *progressEmitter {
	if conn == nil {
		return nil
	}
	return &progressEmitter{conn: conn}
}

func (p *progressEmitter) update(done, total int, path string) {
	if p == nil || total <= 0 {
		return
	}
	p.send(event{Type: "progress", Done: done, Total: total, Path: path})
}

func (p *progressEmitter) send(ev event) {
	if p == nil || p.err != nil {
		return
	}
	// a vanished client must not abort the run; later sends are dropped
	p.err = p.conn.WriteJSON(ev)
}
