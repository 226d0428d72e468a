package lcuclient

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/rmacdonaldsmith/lcu-go/internal/routingtable"
)

const (
	// Subprotocol is the websocket subprotocol of the event channel
	Subprotocol = "wamp"

	// jsonAPIEvent is the server event that carries every REST resource change
	jsonAPIEvent = "OnJsonApiEvent"

	closeWriteTimeout = time.Second
)

// Listener receives events published on a topic.
// Listeners run on the stream's read goroutine: they must not block and must
// not call Close on the stream that invoked them.
type Listener func(Event)

// ListenerID identifies a listener registration on an EventStream
type ListenerID = routingtable.ListenerID

// EventStream fans publish frames from one websocket out to per-topic listeners
type EventStream struct {
	conn   *websocket.Conn
	routes *routingtable.Table[Listener]
	logger *slog.Logger

	errors chan error
	done   chan struct{}
	err    error

	writeMu   sync.Mutex
	closing   atomic.Bool
	closeOnce sync.Once
}

// dialEventStream connects, subscribes to every JSON API event and starts the read loop
func dialEventStream(ctx context.Context, wsURL string, header http.Header, tlsConfig *tls.Config, config Config) (*EventStream, error) {
	dialer := websocket.Dialer{
		TLSClientConfig:  tlsConfig,
		HandshakeTimeout: config.HandshakeTimeout,
		Subprotocols:     []string{Subprotocol},
	}

	conn, resp, err := dialer.DialContext(ctx, wsURL, header)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("dial event stream: %w (status %d)", err, resp.StatusCode)
		}
		return nil, fmt.Errorf("dial event stream: %w", err)
	}

	s := newEventStream(conn, config)
	if err := s.writeJSON([]any{FrameSubscribe, jsonAPIEvent}); err != nil {
		conn.Close()
		return nil, fmt.Errorf("send subscribe: %w", err)
	}
	s.logger.Debug("event stream connected", "url", wsURL)

	go s.readLoop()
	return s, nil
}

func newEventStream(conn *websocket.Conn, config Config) *EventStream {
	return &EventStream{
		conn:   conn,
		routes: routingtable.New[Listener](),
		logger: config.Logger.With("stream", uuid.NewString()),
		errors: make(chan error, config.ErrorBufferSize),
		done:   make(chan struct{}),
	}
}

// On registers listener for topic and returns the stream for chaining
func (s *EventStream) On(topic string, listener Listener) *EventStream {
	s.routes.Subscribe(topic, listener)
	return s
}

// Subscribe registers listener for topic and returns a handle for Unsubscribe
func (s *EventStream) Subscribe(topic string, listener Listener) ListenerID {
	return s.routes.Subscribe(topic, listener)
}

// Unsubscribe removes exactly the registration id from topic
func (s *EventStream) Unsubscribe(topic string, id ListenerID) bool {
	return s.routes.Unsubscribe(topic, id)
}

// ListenerCount returns the number of registered listeners across all topics
func (s *EventStream) ListenerCount() int {
	return s.routes.SubscriberCount()
}

// Errors returns the channel of per-frame decode failures. Failures are
// dropped when the buffer is full. The channel closes when the stream ends.
func (s *EventStream) Errors() <-chan error {
	return s.errors
}

// Done returns a channel that's closed when the stream ends
func (s *EventStream) Done() <-chan struct{} {
	return s.done
}

// Err returns the reason the stream ended: nil while running or after Close,
// an error wrapping ErrStreamClosed after a connection loss.
func (s *EventStream) Err() error {
	select {
	case <-s.done:
		return s.err
	default:
		return nil
	}
}

// Close closes the websocket and waits for the read loop to exit
func (s *EventStream) Close() error {
	var err error
	s.closeOnce.Do(func() {
		s.closing.Store(true)

		s.writeMu.Lock()
		_ = s.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(closeWriteTimeout))
		s.writeMu.Unlock()

		if cerr := s.conn.Close(); cerr != nil && !errors.Is(cerr, net.ErrClosed) {
			err = cerr
		}
	})
	<-s.done
	return err
}

func (s *EventStream) terminated() bool {
	select {
	case <-s.done:
		return true
	default:
		return false
	}
}

func (s *EventStream) writeJSON(v any) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return s.conn.WriteJSON(v)
}

// readLoop is the only reader of the connection
func (s *EventStream) readLoop() {
	defer close(s.done)
	defer close(s.errors)

	for {
		messageType, data, err := s.conn.ReadMessage()
		if err != nil {
			if !s.closing.Load() {
				s.err = fmt.Errorf("%w: %w", ErrStreamClosed, err)
				s.logger.Debug("event stream terminated", "error", err)
				s.conn.Close()
			}
			return
		}
		if messageType != websocket.TextMessage {
			s.logger.Debug("ignoring non-text frame", "type", messageType)
			continue
		}
		s.handleFrame(data)
	}
}

// handleFrame dispatches publish frames and drops everything else.
// Envelope: [kind, eventName, {uri, eventType, data}]
func (s *EventStream) handleFrame(data []byte) {
	var frame []json.RawMessage
	if err := json.Unmarshal(data, &frame); err != nil {
		s.dropFrame(fmt.Errorf("decode frame: %w", err))
		return
	}
	if len(frame) == 0 {
		s.dropFrame(errors.New("decode frame: empty envelope"))
		return
	}

	// Any JSON number equal to 8 marks a publish, including 8.0
	var kind float64
	if err := json.Unmarshal(frame[0], &kind); err != nil || kind != FrameEvent {
		return
	}
	if len(frame) < 3 {
		s.dropFrame(fmt.Errorf("decode frame: publish envelope has %d elements", len(frame)))
		return
	}

	var event Event
	if err := json.Unmarshal(frame[2], &event); err != nil {
		s.dropFrame(fmt.Errorf("decode event body: %w", err))
		return
	}

	for _, listener := range s.routes.Subscribers(event.URI) {
		listener(event)
	}
}

func (s *EventStream) dropFrame(err error) {
	s.logger.Debug("dropping event frame", "error", err)
	select {
	case s.errors <- err:
	default:
	}
}
