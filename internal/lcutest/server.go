// Package lcutest provides an in-process fake of the League Client local API
// for tests: a TLS REST endpoint plus the WAMP-style event websocket.
package lcutest

import (
	"encoding/base64"
	"encoding/json"
	"encoding/pem"
	"io"
	"log"
	"net"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/rmacdonaldsmith/lcu-go/pkg/discovery"
)

// DefaultToken is the remoting token the fake server accepts
const DefaultToken = "test-token"

// Request is a REST call captured by the server
type Request struct {
	Method string
	Path   string
	Query  string
	Header http.Header
	Body   []byte
}

// Response is a canned reply for one method and path
type Response struct {
	Status int
	Body   string
}

// Server is a fake local client API
type Server struct {
	*httptest.Server
	Token string

	mu         sync.Mutex
	routes     map[string]Response
	requests   []Request
	conns      map[*websocket.Conn]struct{}
	received   []string
	subscribed chan struct{}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	Subprotocols:    []string{"wamp"},
	CheckOrigin: func(_ *http.Request) bool {
		return true
	},
}

// NewServer starts a TLS server on 127.0.0.1 that is closed when the test ends
func NewServer(t testing.TB) *Server {
	t.Helper()

	s := &Server{
		Token:      DefaultToken,
		routes:     make(map[string]Response),
		conns:      make(map[*websocket.Conn]struct{}),
		subscribed: make(chan struct{}, 16),
	}

	s.Server = httptest.NewUnstartedServer(http.HandlerFunc(s.handle))
	// Handshake failures are expected in trust anchor tests
	s.Server.Config.ErrorLog = log.New(io.Discard, "", 0)
	s.Server.StartTLS()
	t.Cleanup(s.Close)

	return s
}

// Port returns the listening port
func (s *Server) Port() string {
	return strconv.Itoa(s.Listener.Addr().(*net.TCPAddr).Port)
}

// Credentials returns the port and token a client needs to reach the server
func (s *Server) Credentials() discovery.Credentials {
	return discovery.Credentials{Port: s.Port(), Token: s.Token}
}

// CertPEM returns the server certificate in PEM form, usable as a trust anchor
func (s *Server) CertPEM() []byte {
	return pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: s.Certificate().Raw})
}

// Handle registers a canned response for method and path
func (s *Server) Handle(method, path string, status int, body string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.routes[method+" "+path] = Response{Status: status, Body: body}
}

// Requests returns every REST call received so far
func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Request(nil), s.requests...)
}

// LastRequest returns the most recent REST call
func (s *Server) LastRequest(t testing.TB) Request {
	t.Helper()
	reqs := s.Requests()
	if len(reqs) == 0 {
		t.Fatal("no request received")
	}
	return reqs[len(reqs)-1]
}

// Received returns every text frame received from websocket clients
func (s *Server) Received() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.received...)
}

// WaitForSubscriber blocks until a client has sent the subscribe-all frame
func (s *Server) WaitForSubscriber(t testing.TB, timeout time.Duration) {
	t.Helper()
	select {
	case <-s.subscribed:
	case <-time.After(timeout):
		t.Fatalf("no subscriber within %v", timeout)
	}
}

// Publish sends a publish frame for uri to every connected client
func (s *Server) Publish(t testing.TB, uri, eventType string, data any) {
	t.Helper()
	frame, err := json.Marshal([]any{8, "OnJsonApiEvent", map[string]any{
		"uri":       uri,
		"eventType": eventType,
		"data":      data,
	}})
	if err != nil {
		t.Fatalf("marshal frame: %v", err)
	}
	s.SendRaw(t, string(frame))
}

// SendRaw sends frame verbatim as a text message to every connected client
func (s *Server) SendRaw(t testing.TB, frame string) {
	t.Helper()
	s.send(t, websocket.TextMessage, frame)
}

// SendBinary sends frame verbatim as a binary message to every connected client
func (s *Server) SendBinary(t testing.TB, frame string) {
	t.Helper()
	s.send(t, websocket.BinaryMessage, frame)
}

func (s *Server) send(t testing.TB, messageType int, frame string) {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	for conn := range s.conns {
		if err := conn.WriteMessage(messageType, []byte(frame)); err != nil {
			t.Logf("write frame: %v", err)
		}
	}
}

// DropConnections closes every websocket without a close handshake,
// as when the desktop client exits.
func (s *Server) DropConnections() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for conn := range s.conns {
		conn.Close()
		delete(s.conns, conn)
	}
}

// Close drops websockets and shuts the server down
func (s *Server) Close() {
	s.DropConnections()
	s.Server.Close()
}

func (s *Server) authorized(r *http.Request) bool {
	want := "Basic " + base64.StdEncoding.EncodeToString([]byte("riot:"+s.Token))
	return r.Header.Get("Authorization") == want
}

func (s *Server) handle(w http.ResponseWriter, r *http.Request) {
	if websocket.IsWebSocketUpgrade(r) {
		s.handleWebSocket(w, r)
		return
	}

	body, _ := io.ReadAll(r.Body)

	s.mu.Lock()
	s.requests = append(s.requests, Request{
		Method: r.Method,
		Path:   r.URL.Path,
		Query:  r.URL.RawQuery,
		Header: r.Header.Clone(),
		Body:   body,
	})
	resp, ok := s.routes[r.Method+" "+r.URL.Path]
	s.mu.Unlock()

	if !s.authorized(r) {
		writeError(w, http.StatusUnauthorized, "RPC_ERROR", "Unauthorized")
		return
	}
	if !ok {
		writeError(w, http.StatusNotFound, "RESOURCE_NOT_FOUND", "Invalid URI format")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(resp.Status)
	_, _ = io.WriteString(w, resp.Body)
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	if !s.authorized(r) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}

	s.mu.Lock()
	s.conns[conn] = struct{}{}
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		delete(s.conns, conn)
		s.mu.Unlock()
		conn.Close()
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}

		s.mu.Lock()
		s.received = append(s.received, strings.TrimSpace(string(data)))
		s.mu.Unlock()

		var frame []any
		if json.Unmarshal(data, &frame) == nil && len(frame) == 2 && frame[0] == float64(5) && frame[1] == "OnJsonApiEvent" {
			select {
			case s.subscribed <- struct{}{}:
			default:
			}
		}
	}
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"errorCode":             code,
		"httpStatus":            status,
		"implementationDetails": map[string]any{},
		"message":               message,
	})
}
