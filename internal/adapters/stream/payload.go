package stream

// payload.go — canales, payloads de suscripción y normalización de frames.

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/alejandrodnm/polylp/internal/ports"
)

// channel abstrae las diferencias entre el feed de market y el de user:
// endpoint, payload de suscripción y callback de destino.
type channel interface {
	name() string
	path() string
	subscribePayload(ctx context.Context) (any, error)
	dispatch(ctx context.Context, events []json.RawMessage) error
}

// marketSubscription es el primer frame del canal market.
type marketSubscription struct {
	AssetsIDs []string `json:"assets_ids"`
}

// userSubscription es el primer frame del canal user (autenticado).
type userSubscription struct {
	Type string `json:"type"`
	Auth wsAuth `json:"auth"`
}

type wsAuth struct {
	APIKey     string `json:"apiKey"`
	Secret     string `json:"secret"`
	Passphrase string `json:"passphrase"`
}

// marketChannel es una conexión de market data para un chunk de tokens.
// El chunk es inmutable durante la vida del supervisor: cada reconexión
// reenvía exactamente la misma suscripción.
type marketChannel struct {
	index    int
	assetIDs []string
	handler  ports.EventHandler
}

func (m *marketChannel) name() string { return fmt.Sprintf("market[%d]", m.index) }
func (m *marketChannel) path() string { return "/ws/market" }

func (m *marketChannel) subscribePayload(context.Context) (any, error) {
	return marketSubscription{AssetsIDs: m.assetIDs}, nil
}

func (m *marketChannel) dispatch(ctx context.Context, events []json.RawMessage) error {
	return m.handler.ProcessMarketEvents(ctx, events)
}

// userChannel es la conexión autenticada de account data.
type userChannel struct {
	creds   ports.CredentialsProvider
	handler ports.EventHandler
}

func (u *userChannel) name() string { return "user" }
func (u *userChannel) path() string { return "/ws/user" }

// subscribePayload pide las credenciales al provider en cada conexión: si
// la derivación aún no ocurrió, el retry del supervisor lo reintenta.
func (u *userChannel) subscribePayload(ctx context.Context) (any, error) {
	creds, err := u.creds.Credentials(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch credentials: %w", err)
	}
	return userSubscription{
		Type: "user",
		Auth: wsAuth{
			APIKey:     creds.APIKey,
			Secret:     creds.Secret,
			Passphrase: creds.Passphrase,
		},
	}, nil
}

func (u *userChannel) dispatch(ctx context.Context, events []json.RawMessage) error {
	return u.handler.ProcessAccountEvents(ctx, events)
}

// decodeEvents normaliza un frame de texto a una lista de eventos. El
// upstream manda indistintamente un objeto suelto o un array de objetos;
// aguas abajo solo existe la forma lista.
func decodeEvents(data []byte) ([]json.RawMessage, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, nil
	}

	switch trimmed[0] {
	case '[':
		var events []json.RawMessage
		if err := json.Unmarshal(trimmed, &events); err != nil {
			return nil, fmt.Errorf("decode event array: %w", err)
		}
		return events, nil
	case '{':
		var event json.RawMessage
		if err := json.Unmarshal(trimmed, &event); err != nil {
			return nil, fmt.Errorf("decode event object: %w", err)
		}
		return []json.RawMessage{event}, nil
	default:
		return nil, fmt.Errorf("frame is neither object nor array: %q", truncate(trimmed, 64))
	}
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
