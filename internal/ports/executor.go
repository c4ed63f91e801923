package ports

import (
	"context"

	"github.com/alejandrodnm/polylp/internal/domain"
)

// PlaceOrderRequest es una orden limit maker a colocar en el CLOB.
type PlaceOrderRequest struct {
	TokenID string
	Side    domain.Side // bid o ask; nunca both
	Price   float64
	Size    float64
	NegRisk bool
}

// PlacedOrder es el resultado de colocar una orden.
type PlacedOrder struct {
	CLOBOrderID string
	Status      string
}

// OrderExecutor places and cancels real orders on the Polymarket CLOB.
// Signing is delegated to the external order-utils library; this core never
// builds signatures itself.
type OrderExecutor interface {
	// PlaceOrder signs and submits a GTC limit order to the CLOB.
	PlaceOrder(ctx context.Context, req PlaceOrderRequest) (PlacedOrder, error)

	// CancelAll cancels all open orders for this wallet.
	CancelAll(ctx context.Context) error
}
