package polymarket

// clob.go — snapshots de orderbook y midpoints del CLOB.

import (
	"context"
	"fmt"

	"github.com/alejandrodnm/polylp/internal/domain"
)

const (
	bookSummaryPath = "/orderbook-summary"
	midpointPath    = "/midpoint"
)

// FetchOrderBook implementa ports.BookProvider. Devuelve el snapshot del
// book del token vía /orderbook-summary.
func (c *Client) FetchOrderBook(ctx context.Context, tokenID string) (domain.OrderBook, error) {
	summary, err := c.fetchBookSummary(ctx, tokenID)
	if err != nil {
		return domain.OrderBook{}, err
	}
	ob, _ := mapBookSummary(tokenID, summary)
	return ob, nil
}

// FetchToken implementa ports.MarketProvider. Devuelve el descriptor
// inmutable del token (tick size, min order size, neg risk).
func (c *Client) FetchToken(ctx context.Context, tokenID string) (domain.Token, error) {
	summary, err := c.fetchBookSummary(ctx, tokenID)
	if err != nil {
		return domain.Token{}, err
	}
	_, tok := mapBookSummary(tokenID, summary)
	return tok, nil
}

// FetchMidpoint implementa ports.BookProvider. Devuelve el midpoint
// publicado por el CLOB para el token.
func (c *Client) FetchMidpoint(ctx context.Context, tokenID string) (float64, error) {
	u := fmt.Sprintf("%s%s?token_id=%s", c.clobBase, midpointPath, tokenID)

	var resp midpointResponse
	if err := c.get(ctx, c.clobLimiter, u, &resp); err != nil {
		return 0, fmt.Errorf("polymarket.FetchMidpoint: %w", err)
	}

	mid := domain.ParsePrice(resp.Mid)
	if mid <= 0 || mid >= 1 {
		return 0, fmt.Errorf("polymarket.FetchMidpoint: token %s: midpoint %q out of range", tokenID, resp.Mid)
	}
	return mid, nil
}

func (c *Client) fetchBookSummary(ctx context.Context, tokenID string) (bookSummaryResponse, error) {
	u := fmt.Sprintf("%s%s?token_id=%s", c.clobBase, bookSummaryPath, tokenID)

	var resp bookSummaryResponse
	if err := c.get(ctx, c.booksLimiter, u, &resp); err != nil {
		return bookSummaryResponse{}, fmt.Errorf("polymarket: orderbook summary %s: %w", tokenID, err)
	}
	return resp, nil
}
