package ports

import (
	"context"

	"github.com/alejandrodnm/polylp/internal/domain"
)

// MarketProvider descubre mercados y sus descriptores en Gamma/CLOB.
type MarketProvider interface {
	// FindMarket localiza un mercado por id, slug o token id (el primero
	// no vacío gana). Valida que el mercado tenga exactamente dos tokens.
	FindMarket(ctx context.Context, marketID, slug, tokenID string) (domain.Market, error)

	// FetchToken devuelve el descriptor inmutable de un token
	// (tick size, min order size, neg risk).
	FetchToken(ctx context.Context, tokenID string) (domain.Token, error)
}

// BookProvider obtiene snapshots de orderbook y midpoints del CLOB.
type BookProvider interface {
	// FetchOrderBook devuelve el snapshot del book de un token.
	FetchOrderBook(ctx context.Context, tokenID string) (domain.OrderBook, error)

	// FetchMidpoint devuelve el midpoint publicado por el CLOB.
	FetchMidpoint(ctx context.Context, tokenID string) (float64, error)
}
