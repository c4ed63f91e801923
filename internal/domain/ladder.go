package domain

import (
	"fmt"
	"math"
)

// Side indica a qué lado del book se asigna el presupuesto de una ladder.
type Side string

const (
	SideBoth Side = "both"
	SideBid  Side = "bid"
	SideAsk  Side = "ask"
)

// ParseSide valida el string de un flag/config y lo convierte a Side.
func ParseSide(s string) (Side, error) {
	switch Side(s) {
	case SideBoth, SideBid, SideAsk:
		return Side(s), nil
	default:
		return "", fmt.Errorf("domain.ParseSide: %q not in {both, bid, ask}: %w", s, ErrInvalidInput)
	}
}

// Ladder es la propuesta de órdenes generada para un token. Es puramente un
// valor de retorno: se genera fresca en cada invocación y nunca se persiste
// como estado del engine.
type Ladder struct {
	Bids []BookEntry
	Asks []BookEntry
}

// Notional devuelve el valor en USDC (price × size) colocado en un lado.
func Notional(entries []BookEntry) float64 {
	var total float64
	for _, e := range entries {
		total += e.Price * e.Size
	}
	return total
}

// ProposeLadder reparte un presupuesto en USDC en niveles de precio separados
// por tick_size alrededor del midpoint, dentro del spread calificable.
//
// Los niveles van de mid ± tick hasta mid ± v (excluyendo el midpoint),
// recortados a (0,1) para bids y (0,1] para asks. El presupuesto se divide
// mitad y mitad entre bids y asks (o entero a un lado según side) y luego en
// partes iguales por nivel; size = notional / price. Los niveles cuyo size
// queda por debajo de min_size se descartan.
//
// Fallback: si ningún nivel de un lado alcanza min_size tras el reparto, todo
// el presupuesto del lado se coloca en el nivel más cercano al midpoint — y
// solo se conserva si así alcanza min_size. Evita dejar capital varado en
// órdenes dust que nunca calificarían.
func ProposeLadder(mid, tickSize, vCents, minSize, budget float64, side Side) (Ladder, error) {
	if vCents <= 0 {
		return Ladder{}, fmt.Errorf("domain.ProposeLadder: v_cents must be > 0, got %v: %w", vCents, ErrInvalidInput)
	}
	if tickSize <= 0 {
		return Ladder{}, fmt.Errorf("domain.ProposeLadder: tick_size must be > 0, got %v: %w", tickSize, ErrInvalidInput)
	}
	if mid < 0 || mid > 1 {
		return Ladder{}, fmt.Errorf("domain.ProposeLadder: midpoint %v outside [0,1]: %w", mid, ErrInvalidInput)
	}
	if mid == 0 {
		return Ladder{}, fmt.Errorf("domain.ProposeLadder: zero reference price: %w", ErrInvalidInput)
	}

	vDollars := vCents / 100
	// El epsilon absorbe el error de representación binaria: 0.03/0.01
	// es 2.9999… en float64 y perdería el último nivel.
	steps := int(math.Floor(vDollars/tickSize + 1e-9))
	if steps < 1 {
		steps = 1
	}

	var bidPrices, askPrices []float64
	for i := 1; i <= steps; i++ {
		bp := mid - float64(i)*tickSize
		ap := mid + float64(i)*tickSize
		if bp > 0 && bp < 1 {
			bidPrices = append(bidPrices, bp)
		}
		if ap > 0 && ap <= 1 {
			askPrices = append(askPrices, ap)
		}
	}

	var budgetBid, budgetAsk float64
	switch side {
	case SideBoth:
		budgetBid = budget / 2
		budgetAsk = budget / 2
	case SideBid:
		budgetBid = budget
	case SideAsk:
		budgetAsk = budget
	default:
		return Ladder{}, fmt.Errorf("domain.ProposeLadder: unknown side %q: %w", side, ErrInvalidInput)
	}

	return Ladder{
		Bids: allocateRungs(bidPrices, budgetBid, mid, minSize),
		Asks: allocateRungs(askPrices, budgetAsk, mid, minSize),
	}, nil
}

// allocateRungs divide el presupuesto de un lado entre sus niveles y aplica
// el fallback de nivel único cuando el reparto produce puro dust.
func allocateRungs(prices []float64, budget, mid, minSize float64) []BookEntry {
	if budget <= 0 || len(prices) == 0 {
		return nil
	}

	notionalEach := budget / float64(len(prices))
	usable := make([]BookEntry, 0, len(prices))
	for _, p := range prices {
		size := notionalEach / p
		if size >= minSize {
			usable = append(usable, BookEntry{Price: p, Size: size})
		}
	}
	if len(usable) > 0 {
		return usable
	}

	// Fallback: presupuesto entero en el nivel más cercano al midpoint.
	closest := prices[0]
	for _, p := range prices[1:] {
		if abs(p-mid) < abs(closest-mid) {
			closest = p
		}
	}
	if size := budget / closest; size >= minSize {
		return []BookEntry{{Price: closest, Size: size}}
	}
	return nil
}
