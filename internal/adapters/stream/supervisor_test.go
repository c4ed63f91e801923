package stream

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alejandrodnm/polylp/internal/ports"
)

// wsServer levanta un websocket de prueba que ejecuta handle por conexión.
func wsServer(t *testing.T, handle func(*websocket.Conn)) string {
	t.Helper()
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		handle(conn)
	}))
	t.Cleanup(srv.Close)
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

// captureHandler acumula batches y opcionalmente falla en el primero.
type captureHandler struct {
	mu        sync.Mutex
	failFirst bool
	calls     int
	batches   chan []json.RawMessage
	account   chan []json.RawMessage
}

func newCaptureHandler(failFirst bool) *captureHandler {
	return &captureHandler{
		failFirst: failFirst,
		batches:   make(chan []json.RawMessage, 16),
		account:   make(chan []json.RawMessage, 16),
	}
}

func (h *captureHandler) ProcessMarketEvents(_ context.Context, events []json.RawMessage) error {
	h.mu.Lock()
	h.calls++
	first := h.calls == 1
	h.mu.Unlock()

	h.batches <- events
	if first && h.failFirst {
		return errors.New("boom")
	}
	return nil
}

func (h *captureHandler) ProcessAccountEvents(_ context.Context, events []json.RawMessage) error {
	h.account <- events
	return nil
}

type staticCreds struct{}

func (staticCreds) Credentials(context.Context) (ports.APICredentials, error) {
	return ports.APICredentials{APIKey: "key", Secret: "sec", Passphrase: "pass"}, nil
}

func recvString(t *testing.T, ch <-chan string) string {
	t.Helper()
	select {
	case v := <-ch:
		return v
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for message")
		return ""
	}
}

func recvBatch(t *testing.T, ch <-chan []json.RawMessage) []json.RawMessage {
	t.Helper()
	select {
	case v := <-ch:
		return v
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for batch")
		return nil
	}
}

func testConfig(url string) Config {
	return Config{
		BaseURL:        url,
		ReconnectDelay: 50 * time.Millisecond,
		ConnectTimeout: 2 * time.Second,
		PingInterval:   time.Hour, // sin ruido de PINGs en los tests
		ChunkSize:      10,
	}
}

func TestSupervisor_ResubscribesAfterServerClose(t *testing.T) {
	subs := make(chan string, 4)
	url := wsServer(t, func(conn *websocket.Conn) {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return
		}
		subs <- string(msg)
		// handle retorna → el server cierra la conexión
	})

	sup := NewSupervisor(testConfig(url), nil, newCaptureHandler(false))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- sup.Run(ctx, []string{"tok1", "tok2"}, false) }()

	first := recvString(t, subs)
	second := recvString(t, subs)

	// La reconexión reenvía exactamente la misma suscripción
	assert.JSONEq(t, first, second)
	assert.JSONEq(t, `{"assets_ids":["tok1","tok2"]}`, first)

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
}

func TestSupervisor_NormalizesObjectAndArrayFrames(t *testing.T) {
	url := wsServer(t, func(conn *websocket.Conn) {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
		conn.WriteMessage(websocket.TextMessage, []byte(`{"event_type":"book"}`))
		conn.WriteMessage(websocket.TextMessage, []byte(`[{"event_type":"price_change"},{"event_type":"tick_size_change"}]`))
		// mantener la conexión abierta hasta que el cliente se vaya
		conn.ReadMessage()
	})

	// El primer batch devuelve error del handler: el loop debe seguir
	handler := newCaptureHandler(true)
	sup := NewSupervisor(testConfig(url), nil, handler)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go sup.Run(ctx, []string{"tok1"}, false)

	assert.Len(t, recvBatch(t, handler.batches), 1)
	assert.Len(t, recvBatch(t, handler.batches), 2)
}

func TestSupervisor_SkipsPongAndGarbageFrames(t *testing.T) {
	url := wsServer(t, func(conn *websocket.Conn) {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
		conn.WriteMessage(websocket.TextMessage, []byte("PONG"))
		conn.WriteMessage(websocket.TextMessage, []byte("not json at all"))
		conn.WriteMessage(websocket.TextMessage, []byte(`{"event_type":"book"}`))
		conn.ReadMessage()
	})

	handler := newCaptureHandler(false)
	sup := NewSupervisor(testConfig(url), nil, handler)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go sup.Run(ctx, []string{"tok1"}, false)

	// Solo el frame decodificable llega al handler
	assert.Len(t, recvBatch(t, handler.batches), 1)
}

func TestSupervisor_UserChannelSendsAuthPayload(t *testing.T) {
	subs := make(chan string, 1)
	url := wsServer(t, func(conn *websocket.Conn) {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return
		}
		subs <- string(msg)
		conn.WriteMessage(websocket.TextMessage, []byte(`{"event_type":"order"}`))
		conn.ReadMessage()
	})

	handler := newCaptureHandler(false)
	sup := NewSupervisor(testConfig(url), staticCreds{}, handler)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go sup.Run(ctx, nil, true)

	assert.JSONEq(t,
		`{"type":"user","auth":{"apiKey":"key","secret":"sec","passphrase":"pass"}}`,
		recvString(t, subs))

	// Los eventos del canal user van al callback de account
	assert.Len(t, recvBatch(t, handler.account), 1)
}

func TestSupervisor_CancelBypassesBackoff(t *testing.T) {
	// Servidor que rechaza conexiones: el loop vive en BACKOFF
	sup := NewSupervisor(Config{
		BaseURL:        "ws://127.0.0.1:1", // puerto cerrado
		ReconnectDelay: time.Hour,
		ConnectTimeout: 100 * time.Millisecond,
	}, nil, newCaptureHandler(false))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- sup.Run(ctx, []string{"tok1"}, false) }()

	time.Sleep(200 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("cancellation did not interrupt backoff")
	}
}

func TestChunkTokens(t *testing.T) {
	chunks := chunkTokens([]string{"a", "b", "c", "d", "e"}, 2)
	require.Len(t, chunks, 3)
	assert.Equal(t, []string{"a", "b"}, chunks[0])
	assert.Equal(t, []string{"e"}, chunks[2])

	assert.Nil(t, chunkTokens(nil, 2))
}

func TestDecodeEvents(t *testing.T) {
	events, err := decodeEvents([]byte(`{"a":1}`))
	require.NoError(t, err)
	assert.Len(t, events, 1)

	events, err = decodeEvents([]byte(` [{"a":1},{"b":2}] `))
	require.NoError(t, err)
	assert.Len(t, events, 2)

	events, err = decodeEvents([]byte(""))
	require.NoError(t, err)
	assert.Empty(t, events)

	_, err = decodeEvents([]byte("PING"))
	assert.Error(t, err)
}
