package domain

import "fmt"

// Market representa un mercado de predicción binario en Polymarket.
type Market struct {
	ID           string
	ConditionID  string
	Question     string // enriquecido desde Gamma
	Slug         string // enriquecido desde Gamma
	ClobTokenIDs [2]string
	Active       bool
	Closed       bool
}

// Token es el descriptor inmutable de un outcome (YES/NO) del CLOB.
// Se obtiene una vez por invocación de scoring y no cambia durante la vida
// del mercado.
type Token struct {
	TokenID      string
	TickSize     float64
	MinOrderSize float64
	NegRisk      bool
}

// NewMarket valida y construye un Market a partir de los clobTokenIds crudos.
// Un mercado binario tiene exactamente dos token ids; cualquier otra
// cardinalidad es un error fatal de input.
func NewMarket(id, slug string, clobTokenIDs []string) (Market, error) {
	if len(clobTokenIDs) != 2 {
		return Market{}, fmt.Errorf("domain.NewMarket: market %q: expected 2 clob token ids, got %d: %w",
			id, len(clobTokenIDs), ErrInvalidInput)
	}
	for i, tid := range clobTokenIDs {
		if tid == "" {
			return Market{}, fmt.Errorf("domain.NewMarket: market %q: empty clob token id at position %d: %w",
				id, i, ErrInvalidInput)
		}
	}
	return Market{
		ID:           id,
		Slug:         slug,
		ClobTokenIDs: [2]string{clobTokenIDs[0], clobTokenIDs[1]},
	}, nil
}
