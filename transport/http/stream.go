package http

import (
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/viant/cogniflow/runtime/orchestrator"
	"github.com/viant/cogniflow/service/event"
)

const writeTimeout = 5 * time.Second

// StreamMessage is one websocket frame: a snapshot stamped with its event.
type StreamMessage struct {
	Event    string                 `json:"event"`
	TurnID   string                 `json:"turnId,omitempty"`
	Snapshot *orchestrator.Snapshot `json:"snapshot"`
}

// stream pushes the current snapshot, then every later one, until the client
// disconnects. Frames are written in sequence order without duplicates.
func (s *Server) stream(c *gin.Context) {
	session, ok := s.session(c)
	if !ok {
		return
	}
	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.logger.Warn().Err(err).Msg("failed to upgrade websocket")
		return
	}
	defer conn.Close()

	var mu sync.Mutex
	var last uint64
	failed := make(chan struct{})
	var once sync.Once
	write := func(message *StreamMessage) {
		if message.Snapshot.Seq <= last && last > 0 {
			return
		}
		last = message.Snapshot.Seq
		_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := conn.WriteJSON(message); err != nil {
			once.Do(func() { close(failed) })
		}
	}

	mu.Lock()
	sub := session.Subscribe(func(e *event.Event[*orchestrator.Snapshot]) {
		mu.Lock()
		defer mu.Unlock()
		write(&StreamMessage{Event: e.Context.EventType, TurnID: e.Context.TurnID, Snapshot: e.Data})
	})
	write(&StreamMessage{Event: orchestrator.EventState, Snapshot: session.Snapshot()})
	mu.Unlock()
	defer sub.Unsubscribe()

	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
	select {
	case <-closed:
	case <-failed:
	case <-c.Request.Context().Done():
	}
	s.logger.Debug().Str("session", session.ID()).Msg("stream closed")
}
