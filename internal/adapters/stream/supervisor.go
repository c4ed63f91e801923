package stream

// supervisor.go — realtime feed supervisor for the CLOB websocket API.
//
// Runs one connection loop per chunk of market tokens plus a single
// authenticated user connection. Each loop is an independent goroutine with
// its own reconnect cycle: a failure in one chunk never touches its
// siblings. Loops only terminate on context cancellation.

import (
	"context"
	"sync"
	"time"

	"log/slog"

	"github.com/alejandrodnm/polylp/internal/ports"
)

const (
	defaultBaseURL        = "wss://ws-subscriptions-clob.polymarket.com"
	defaultConnectTimeout = 60 * time.Second
	defaultReconnectDelay = 5 * time.Second
	defaultPingInterval   = 10 * time.Second
	defaultChunkSize      = 100
)

// Config controla el comportamiento del supervisor.
type Config struct {
	// BaseURL del websocket; los paths /ws/market y /ws/user se añaden
	// por canal.
	BaseURL string
	// ProxyURL opcional para conexiones salientes. Si está vacío se
	// respetan las variables de entorno HTTPS_PROXY/HTTP_PROXY.
	ProxyURL string
	// ConnectTimeout limita el handshake. El upstream puede tardar,
	// recomendado ≥ 60s.
	ConnectTimeout time.Duration
	// ReconnectDelay es el backoff fijo entre reconexiones.
	ReconnectDelay time.Duration
	// PingInterval entre keep-alives "PING" del CLOB.
	PingInterval time.Duration
	// ChunkSize es el número de tokens por conexión de market data.
	ChunkSize int
}

func (c Config) withDefaults() Config {
	if c.BaseURL == "" {
		c.BaseURL = defaultBaseURL
	}
	if c.ConnectTimeout <= 0 {
		c.ConnectTimeout = defaultConnectTimeout
	}
	if c.ReconnectDelay <= 0 {
		c.ReconnectDelay = defaultReconnectDelay
	}
	if c.PingInterval <= 0 {
		c.PingInterval = defaultPingInterval
	}
	if c.ChunkSize <= 0 {
		c.ChunkSize = defaultChunkSize
	}
	return c
}

// Supervisor mantiene vivos los feeds de market y account data.
type Supervisor struct {
	cfg     Config
	creds   ports.CredentialsProvider
	handler ports.EventHandler
}

// NewSupervisor crea un supervisor. creds solo se usa para el canal user;
// puede ser nil si withAccount=false en Run.
func NewSupervisor(cfg Config, creds ports.CredentialsProvider, handler ports.EventHandler) *Supervisor {
	return &Supervisor{cfg: cfg.withDefaults(), creds: creds, handler: handler}
}

// Run lanza los connection loops y bloquea hasta la cancelación del
// contexto. Las suscripciones se fijan al arrancar: cambiar el universo de
// tokens requiere un supervisor nuevo.
func (s *Supervisor) Run(ctx context.Context, tokenIDs []string, withAccount bool) error {
	chunks := chunkTokens(tokenIDs, s.cfg.ChunkSize)

	slog.Info("feed supervisor starting",
		"tokens", len(tokenIDs),
		"market_connections", len(chunks),
		"account", withAccount,
	)

	var wg sync.WaitGroup
	for i, chunk := range chunks {
		wg.Add(1)
		go func(i int, chunk []string) {
			defer wg.Done()
			s.runLoop(ctx, &marketChannel{index: i, assetIDs: chunk, handler: s.handler})
		}(i, chunk)
	}

	if withAccount {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.runLoop(ctx, &userChannel{creds: s.creds, handler: s.handler})
		}()
	}

	wg.Wait()
	return ctx.Err()
}

// runLoop es la máquina de estados de una conexión:
// CONNECTING → SUBSCRIBED → STREAMING → BACKOFF → CONNECTING, sin estado
// terminal salvo cancelación.
func (s *Supervisor) runLoop(ctx context.Context, ch channel) {
	for {
		err := s.connectAndStream(ctx, ch)
		if ctx.Err() != nil {
			slog.Info("feed loop cancelled", "channel", ch.name())
			return
		}

		// Errores de transporte, closes del servidor y fallos de
		// handshake acaban todos aquí: backoff fijo y reconexión.
		slog.Warn("feed connection ended", "channel", ch.name(), "err", err)

		select {
		case <-ctx.Done():
			return
		case <-time.After(s.cfg.ReconnectDelay):
		}
	}
}

// chunkTokens parte los token ids en trozos de tamaño fijo.
func chunkTokens(tokenIDs []string, size int) [][]string {
	var chunks [][]string
	for start := 0; start < len(tokenIDs); start += size {
		end := start + size
		if end > len(tokenIDs) {
			end = len(tokenIDs)
		}
		chunks = append(chunks, tokenIDs[start:end])
	}
	return chunks
}
