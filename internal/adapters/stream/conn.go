package stream

// conn.go — una sesión de conexión: dial, suscripción y receive loop.
//
// La sesión nunca se repara in place: cualquier error la destruye y el
// supervisor crea una nueva tras el backoff.

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"log/slog"

	"github.com/gorilla/websocket"
)

// connectAndStream abre una conexión nueva, envía la suscripción del canal y
// recibe frames hasta que la conexión muere o el contexto se cancela.
// Devuelve siempre un error no-nil describiendo por qué terminó la sesión.
func (s *Supervisor) connectAndStream(ctx context.Context, ch channel) error {
	payload, err := ch.subscribePayload(ctx)
	if err != nil {
		return fmt.Errorf("subscribe payload: %w", err)
	}

	dialer := websocket.Dialer{
		HandshakeTimeout: s.cfg.ConnectTimeout,
		Proxy:            s.proxyFunc(),
	}

	endpoint := s.cfg.BaseURL + ch.path()
	conn, resp, err := dialer.DialContext(ctx, endpoint, nil)
	if err != nil {
		if resp != nil {
			resp.Body.Close()
		}
		return fmt.Errorf("dial %s: %w", endpoint, err)
	}
	defer conn.Close()

	if err := conn.WriteJSON(payload); err != nil {
		return fmt.Errorf("send subscription: %w", err)
	}
	slog.Debug("feed subscribed", "channel", ch.name(), "endpoint", endpoint)

	// La cancelación cierra el socket para desbloquear ReadMessage;
	// stop evita que el watcher sobreviva a la sesión.
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-stop:
		}
	}()

	// Keep-alive: el CLOB espera un "PING" textual periódico. Tras la
	// suscripción el ticker es el único writer de la conexión.
	go func() {
		ticker := time.NewTicker(s.cfg.PingInterval)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				if err := conn.WriteMessage(websocket.TextMessage, []byte("PING")); err != nil {
					return
				}
			}
		}
	}()

	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("read: %w", err)
		}
		if msgType != websocket.TextMessage {
			continue
		}
		if string(data) == "PONG" {
			continue
		}

		events, err := decodeEvents(data)
		if err != nil {
			// Un frame malformado no tumba la conexión.
			slog.Warn("undecodable feed frame", "channel", ch.name(), "err", err)
			continue
		}
		if len(events) == 0 {
			continue
		}

		// El dispatch es fire-and-forget: un error del handler se
		// loguea y el loop sigue recibiendo.
		if err := ch.dispatch(ctx, events); err != nil {
			slog.Warn("feed handler error", "channel", ch.name(), "events", len(events), "err", err)
		}
	}
}

// proxyFunc devuelve la función de proxy para el dialer: el proxy explícito
// de config si existe, o las variables de entorno estándar.
func (s *Supervisor) proxyFunc() func(*http.Request) (*url.URL, error) {
	if s.cfg.ProxyURL == "" {
		return http.ProxyFromEnvironment
	}
	proxyURL, err := url.Parse(s.cfg.ProxyURL)
	if err != nil {
		slog.Warn("invalid proxy url, falling back to environment", "proxy", s.cfg.ProxyURL, "err", err)
		return http.ProxyFromEnvironment
	}
	return http.ProxyURL(proxyURL)
}
