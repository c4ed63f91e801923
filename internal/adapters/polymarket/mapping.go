package polymarket

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"

	"github.com/alejandrodnm/polylp/internal/domain"
)

// mapBookSummary convierte la respuesta de /orderbook-summary en el par
// (OrderBook, Token) del dominio.
func mapBookSummary(tokenID string, r bookSummaryResponse) (domain.OrderBook, domain.Token) {
	ob := domain.OrderBook{
		TokenID: tokenID,
		Bids:    mapBookEntries(r.Bids, false),
		Asks:    mapBookEntries(r.Asks, true),
	}

	tick, _ := strconv.ParseFloat(r.TickSize, 64)
	minSize, _ := strconv.ParseFloat(r.MinOrderSize, 64)
	if tick <= 0 {
		tick = 0.01
	}
	if minSize <= 0 {
		minSize = 0.001
	}

	tok := domain.Token{
		TokenID:      tokenID,
		TickSize:     tick,
		MinOrderSize: minSize,
		NegRisk:      r.NegRisk,
	}
	return ob, tok
}

// mapBookEntries convierte entries raw a domain.BookEntry y los ordena.
// ascending=true → menor a mayor (asks), ascending=false → mayor a menor (bids).
func mapBookEntries(raw []bookEntryRaw, ascending bool) []domain.BookEntry {
	entries := make([]domain.BookEntry, 0, len(raw))
	for _, r := range raw {
		price, _ := strconv.ParseFloat(r.Price, 64)
		size, _ := strconv.ParseFloat(r.Size, 64)
		if price <= 0 || size <= 0 {
			continue
		}
		entries = append(entries, domain.BookEntry{Price: price, Size: size})
	}

	sort.Slice(entries, func(i, j int) bool {
		if ascending {
			return entries[i].Price < entries[j].Price
		}
		return entries[i].Price > entries[j].Price
	})

	return entries
}

// mapGammaMarket convierte un gammaMarket a domain.Market validando la
// cardinalidad de clobTokenIds.
func mapGammaMarket(gm gammaMarket) (domain.Market, error) {
	var tokenIDs []string
	if gm.ClobTokenIDs != "" {
		if err := json.Unmarshal([]byte(gm.ClobTokenIDs), &tokenIDs); err != nil {
			return domain.Market{}, fmt.Errorf("polymarket: market %s: parse clobTokenIds %q: %w",
				gm.ID, gm.ClobTokenIDs, err)
		}
	}

	m, err := domain.NewMarket(gm.ID, gm.Slug, tokenIDs)
	if err != nil {
		return domain.Market{}, err
	}
	m.ConditionID = gm.ConditionID
	m.Question = gm.Question
	m.Active = gm.Active
	m.Closed = gm.Closed
	return m, nil
}
