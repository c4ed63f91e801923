package domain

import (
	"errors"
	"fmt"
)

// ErrInvalidInput marca errores de validación de inputs del engine de scoring.
// Se devuelve envuelto con contexto; comprobar con errors.Is.
var ErrInvalidInput = errors.New("invalid input")

// ScoringParams son los parámetros de la fórmula de rewards publicada.
// El engine nunca los muta.
type ScoringParams struct {
	// VCents es el spread máximo calificable en centavos (> 0).
	VCents float64
	// BMultiplier es el peso del reward (≥ 0).
	BMultiplier float64
	// CScale es el divisor de descuento para liquidez de un solo lado (> 0).
	CScale float64
	// MinSize es el tamaño mínimo de orden elegible.
	MinSize float64
}

// Validate comprueba los parámetros antes de cualquier cálculo.
func (p ScoringParams) Validate() error {
	if p.VCents <= 0 {
		return fmt.Errorf("domain: v_cents must be > 0, got %v: %w", p.VCents, ErrInvalidInput)
	}
	if p.BMultiplier < 0 {
		return fmt.Errorf("domain: b_multiplier must be >= 0, got %v: %w", p.BMultiplier, ErrInvalidInput)
	}
	if p.CScale <= 0 {
		return fmt.Errorf("domain: c_scale must be > 0, got %v: %w", p.CScale, ErrInvalidInput)
	}
	return nil
}

// Utility calcula el score de una orden según la fórmula publicada:
//
//	S(v, s) = ((v - s) / v)² × b
//
// Recompensa cuadráticamente las órdenes más cercanas al midpoint: b en el
// midpoint exacto, 0 en el borde del spread calificable y más allá.
// Un spread negativo se trata como 0 (orden en el midpoint).
func Utility(vCents, sCents, b float64) float64 {
	if sCents < 0 {
		sCents = 0
	}
	if sCents > vCents {
		return 0
	}
	ratio := (vCents - sCents) / vCents
	return ratio * ratio * b
}

// ScoreSide suma Utility(v, |price-mid|×100, b) × size sobre un lado del book.
// Las órdenes deben venir ya filtradas por size ≥ min_size; esta función no
// filtra.
func ScoreSide(orders []BookEntry, mid, vCents, b float64) float64 {
	var total float64
	for _, o := range orders {
		sCents := abs(o.Price-mid) * 100
		total += Utility(vCents, sCents, b) * o.Size
	}
	return total
}

// CombineQmin aplica la regla asimétrica de Qmin del venue.
//
// Dentro de la banda bilateral [0.10, 0.90] la liquidez de un solo lado
// sigue puntuando, pero con descuento:
//
//	Qmin = max(min(q1, q2), max(q1/c, q2/c))
//
// Fuera de la banda se exigen ambos lados: Qmin = min(q1, q2).
func CombineQmin(qOne, qTwo, mid, cScale float64) float64 {
	if mid >= 0.10 && mid <= 0.90 {
		return max(min(qOne, qTwo), max(qOne/cScale, qTwo/cScale))
	}
	return min(qOne, qTwo)
}

// SummarizeBook calcula la contribución de score del book actual de un token.
// Filtra entradas con size < min_size o fuera del spread calificable y
// devuelve los scores por lado (qBids, qAsks).
func SummarizeBook(ob OrderBook, mid float64, p ScoringParams) (qBids, qAsks float64, err error) {
	if err := p.Validate(); err != nil {
		return 0, 0, err
	}
	if mid < 0 || mid > 1 {
		return 0, 0, fmt.Errorf("domain.SummarizeBook: midpoint %v outside [0,1]: %w", mid, ErrInvalidInput)
	}

	bids := eligible(ob.Bids, mid, p)
	asks := eligible(ob.Asks, mid, p)

	return ScoreSide(bids, mid, p.VCents, p.BMultiplier),
		ScoreSide(asks, mid, p.VCents, p.BMultiplier),
		nil
}

// eligible filtra las entradas que califican para el reward.
func eligible(entries []BookEntry, mid float64, p ScoringParams) []BookEntry {
	out := make([]BookEntry, 0, len(entries))
	for _, e := range entries {
		if e.Size < p.MinSize {
			continue
		}
		if abs(e.Price-mid)*100 > p.VCents {
			continue
		}
		out = append(out, e)
	}
	return out
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}
