package polymarket

// gamma.go — descubrimiento de mercados vía la API de Gamma.
//
// Gamma no tiene endpoint de lookup por token id, así que FindMarket pagina
// /markets hasta encontrar el mercado. Las búsquedas por id o slug usan los
// query params directos y no paginan.

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"log/slog"

	"github.com/alejandrodnm/polylp/internal/domain"
)

const (
	gammaMarketsPath = "/markets"
	gammaPageSize    = 500
	gammaMaxPages    = 20
)

// FindMarket implementa ports.MarketProvider. Localiza un mercado por id,
// slug o token id; el primer criterio no vacío gana.
func (c *Client) FindMarket(ctx context.Context, marketID, slug, tokenID string) (domain.Market, error) {
	switch {
	case marketID != "":
		return c.findByQuery(ctx, "id", marketID)
	case slug != "":
		return c.findByQuery(ctx, "slug", slug)
	case tokenID != "":
		return c.findByTokenID(ctx, tokenID)
	default:
		return domain.Market{}, fmt.Errorf("polymarket.FindMarket: no market id, slug or token id given: %w",
			domain.ErrInvalidInput)
	}
}

// findByQuery busca con un query param directo de Gamma (id o slug).
func (c *Client) findByQuery(ctx context.Context, param, value string) (domain.Market, error) {
	u := fmt.Sprintf("%s%s?%s=%s", c.gammaBase, gammaMarketsPath, param, url.QueryEscape(value))

	var page []gammaMarket
	if err := c.get(ctx, c.gammaLimiter, u, &page); err != nil {
		return domain.Market{}, fmt.Errorf("polymarket.FindMarket: %w", err)
	}
	if len(page) == 0 {
		return domain.Market{}, fmt.Errorf("polymarket.FindMarket: no market with %s=%s", param, value)
	}
	return mapGammaMarket(page[0])
}

// findByTokenID pagina /markets buscando el mercado que contiene el token.
func (c *Client) findByTokenID(ctx context.Context, tokenID string) (domain.Market, error) {
	for page := 0; page < gammaMaxPages; page++ {
		offset := page * gammaPageSize
		u := fmt.Sprintf("%s%s?limit=%d&offset=%d", c.gammaBase, gammaMarketsPath, gammaPageSize, offset)

		var markets []gammaMarket
		if err := c.get(ctx, c.gammaLimiter, u, &markets); err != nil {
			return domain.Market{}, fmt.Errorf("polymarket.FindMarket: page %d: %w", page, err)
		}
		if len(markets) == 0 {
			break
		}

		slog.Debug("scanning gamma markets page", "page", page, "count", len(markets))

		for _, gm := range markets {
			if !strings.Contains(gm.ClobTokenIDs, tokenID) {
				continue
			}
			m, err := mapGammaMarket(gm)
			if err != nil {
				return domain.Market{}, err
			}
			if m.ClobTokenIDs[0] == tokenID || m.ClobTokenIDs[1] == tokenID {
				return m, nil
			}
		}
	}
	return domain.Market{}, fmt.Errorf("polymarket.FindMarket: no market contains token %s", tokenID)
}
