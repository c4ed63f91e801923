package ports

import (
	"context"

	"github.com/alejandrodnm/polylp/internal/domain"
)

// Notifier presenta el resultado de un ciclo de scoring al operador.
type Notifier interface {
	Notify(ctx context.Context, proposal domain.Proposal) error
}
