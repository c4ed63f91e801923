package domain

import "time"

// TokenQuote es el resultado de scoring + ladder para un token del mercado.
type TokenQuote struct {
	Token   Token
	Mid     float64
	QBids   float64 // score del book actual, lado bid
	QAsks   float64 // score del book actual, lado ask
	Ladder  Ladder  // nuestra propuesta
	QLadder float64 // score de la ladder propuesta (ambos lados)
	Budget  float64 // USDC asignado a este token
}

// Proposal es el resultado completo de una invocación de scoring sobre un
// mercado binario: siempre dos TokenQuote, uno por outcome.
type Proposal struct {
	Market     Market
	Quotes     [2]TokenQuote
	QminBook   float64 // Qmin combinado del book actual
	QminOurs   float64 // Qmin combinado de nuestras ladders
	PoolShare  float64 // cuota aproximada: ours / (ours + book)
	Params     ScoringParams
	BudgetUSDC float64
	Side       Side
	ScoredAt   time.Time
}
