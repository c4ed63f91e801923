package ports

import (
	"context"
	"encoding/json"
)

// EventHandler consume los eventos normalizados de los feeds en streaming.
// El supervisor llama fire-and-forget: un error se loguea y nunca tumba el
// connection loop. La sincronización del estado compartido es responsabilidad
// del handler, no del supervisor.
type EventHandler interface {
	// ProcessMarketEvents recibe un batch de eventos de market data de una
	// conexión. El orden se garantiza solo dentro de la misma conexión.
	ProcessMarketEvents(ctx context.Context, events []json.RawMessage) error

	// ProcessAccountEvents recibe un batch de eventos de la cuenta
	// (órdenes, trades) de la conexión autenticada.
	ProcessAccountEvents(ctx context.Context, events []json.RawMessage) error
}
