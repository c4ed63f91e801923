package polymarket

// DTOs raw de la API de Polymarket. Solo se usan dentro de este paquete.
// La conversión a domain entities se hace en mapping.go.

// --- CLOB API ---

// bookSummaryResponse es la respuesta de GET /orderbook-summary.
// Incluye el book y el descriptor inmutable del token.
type bookSummaryResponse struct {
	AssetID      string         `json:"asset_id"`
	Bids         []bookEntryRaw `json:"bids"`
	Asks         []bookEntryRaw `json:"asks"`
	TickSize     string         `json:"tick_size"`
	MinOrderSize string         `json:"min_order_size"`
	NegRisk      bool           `json:"neg_risk"`
}

// bookEntryRaw es un nivel de precio raw de la API (strings para mayor precisión).
type bookEntryRaw struct {
	Price string `json:"price"`
	Size  string `json:"size"`
}

// midpointResponse es la respuesta de GET /midpoint.
type midpointResponse struct {
	Mid string `json:"mid"`
}

// --- Gamma API ---

// gammaMarket contiene la metadata de un mercado en Gamma.
// clobTokenIds llega como string JSON-encoded ("[\"123\",\"456\"]").
type gammaMarket struct {
	ID           string `json:"id"`
	ConditionID  string `json:"conditionId"`
	Question     string `json:"question"`
	Slug         string `json:"slug"`
	ClobTokenIDs string `json:"clobTokenIds"`
	Active       bool   `json:"active"`
	Closed       bool   `json:"closed"`
}
