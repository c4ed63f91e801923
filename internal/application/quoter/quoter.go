// Package quoter orquesta un ciclo de scoring: descubre el mercado, puntúa
// el book actual de cada token, genera las ladders propuestas y combina el
// Qmin de ambos outcomes.
package quoter

import (
	"context"
	"fmt"
	"time"

	"log/slog"

	"github.com/google/uuid"

	"github.com/alejandrodnm/polylp/internal/domain"
	"github.com/alejandrodnm/polylp/internal/ports"
)

// Deps son los colaboradores del quoter. Executor, Store y Notifier son
// opcionales; nil desactiva la capacidad correspondiente.
type Deps struct {
	Markets  ports.MarketProvider
	Books    ports.BookProvider
	Executor ports.OrderExecutor
	Store    ports.SnapshotStore
	Notifier ports.Notifier
}

// Params fija la parametrización de un ciclo de scoring.
type Params struct {
	Scoring    domain.ScoringParams
	BudgetUSDC float64
	Side       domain.Side
}

// Quoter es stateless entre invocaciones: cada QuoteMarket parte de datos
// frescos del CLOB.
type Quoter struct {
	deps   Deps
	params Params
}

func New(deps Deps, params Params) *Quoter {
	return &Quoter{deps: deps, params: params}
}

// QuoteMarket ejecuta un ciclo completo sobre un mercado identificado por
// id, slug o token id. El presupuesto se reparte a partes iguales entre los
// dos outcomes.
func (q *Quoter) QuoteMarket(ctx context.Context, marketID, slug, tokenID string) (domain.Proposal, error) {
	if err := q.params.Scoring.Validate(); err != nil {
		return domain.Proposal{}, err
	}
	if q.params.BudgetUSDC <= 0 {
		return domain.Proposal{}, fmt.Errorf("%w: budget must be positive, got %v",
			domain.ErrInvalidInput, q.params.BudgetUSDC)
	}

	market, err := q.deps.Markets.FindMarket(ctx, marketID, slug, tokenID)
	if err != nil {
		return domain.Proposal{}, fmt.Errorf("find market: %w", err)
	}
	slog.Info("market resolved",
		"id", market.ID, "slug", market.Slug,
		"token_one", market.ClobTokenIDs[0], "token_two", market.ClobTokenIDs[1])

	var quotes [2]domain.TokenQuote
	budgetEach := q.params.BudgetUSDC / 2
	for i, tid := range market.ClobTokenIDs {
		quote, err := q.quoteToken(ctx, tid, budgetEach)
		if err != nil {
			return domain.Proposal{}, fmt.Errorf("quote token %s: %w", tid, err)
		}
		quotes[i] = quote
	}

	// El Qmin combina los dos outcomes usando el midpoint del primero para
	// decidir si aplica el descuento single-side.
	refMid := quotes[0].Mid
	cScale := q.params.Scoring.CScale
	qminBook := domain.CombineQmin(
		quotes[0].QBids+quotes[0].QAsks,
		quotes[1].QBids+quotes[1].QAsks,
		refMid, cScale)
	qminOurs := domain.CombineQmin(quotes[0].QLadder, quotes[1].QLadder, refMid, cScale)

	poolShare := 0.0
	if denom := qminOurs + qminBook; denom > 0 {
		poolShare = qminOurs / denom
	}

	proposal := domain.Proposal{
		Market:     market,
		Quotes:     quotes,
		QminBook:   qminBook,
		QminOurs:   qminOurs,
		PoolShare:  poolShare,
		Params:     q.params.Scoring,
		BudgetUSDC: q.params.BudgetUSDC,
		Side:       q.params.Side,
		ScoredAt:   time.Now().UTC(),
	}

	slog.Info("scoring complete",
		"market", market.ID,
		"qmin_book", qminBook,
		"qmin_ours", qminOurs,
		"pool_share", poolShare)

	if q.deps.Notifier != nil {
		if err := q.deps.Notifier.Notify(ctx, proposal); err != nil {
			slog.Warn("notify failed", "err", err)
		}
	}
	if q.deps.Store != nil {
		if err := q.persist(ctx, proposal); err != nil {
			slog.Warn("persist snapshot failed", "err", err)
		}
	}
	return proposal, nil
}

// Execute retira las órdenes abiertas de la wallet y después coloca en el
// CLOB todos los niveles de la propuesta: cada invocación reemplaza la ladder
// anterior en vez de acumularla. Requiere un executor configurado.
func (q *Quoter) Execute(ctx context.Context, proposal domain.Proposal) error {
	if q.deps.Executor == nil {
		return fmt.Errorf("no order executor configured")
	}

	if err := q.deps.Executor.CancelAll(ctx); err != nil {
		return fmt.Errorf("cancel open orders: %w", err)
	}
	slog.Info("open orders cancelled", "market", proposal.Market.ID)

	placed := 0
	for _, quote := range proposal.Quotes {
		for _, rung := range quote.Ladder.Bids {
			if err := q.placeRung(ctx, quote, domain.SideBid, rung); err != nil {
				return err
			}
			placed++
		}
		for _, rung := range quote.Ladder.Asks {
			if err := q.placeRung(ctx, quote, domain.SideAsk, rung); err != nil {
				return err
			}
			placed++
		}
	}
	slog.Info("proposal executed", "market", proposal.Market.ID, "orders", placed)
	return nil
}

func (q *Quoter) placeRung(ctx context.Context, quote domain.TokenQuote, side domain.Side, rung domain.BookEntry) error {
	order, err := q.deps.Executor.PlaceOrder(ctx, ports.PlaceOrderRequest{
		TokenID: quote.Token.TokenID,
		Side:    side,
		Price:   rung.Price,
		Size:    rung.Size,
		NegRisk: quote.Token.NegRisk,
	})
	if err != nil {
		return fmt.Errorf("place %s %v@%v on %s: %w",
			side, rung.Size, rung.Price, quote.Token.TokenID, err)
	}
	slog.Info("order placed",
		"token", quote.Token.TokenID, "side", side,
		"price", rung.Price, "size", rung.Size,
		"order_id", order.CLOBOrderID, "status", order.Status)
	return nil
}

func (q *Quoter) quoteToken(ctx context.Context, tokenID string, budget float64) (domain.TokenQuote, error) {
	token, err := q.deps.Markets.FetchToken(ctx, tokenID)
	if err != nil {
		return domain.TokenQuote{}, fmt.Errorf("fetch token: %w", err)
	}
	book, err := q.deps.Books.FetchOrderBook(ctx, tokenID)
	if err != nil {
		return domain.TokenQuote{}, fmt.Errorf("fetch orderbook: %w", err)
	}
	mid, err := q.deps.Books.FetchMidpoint(ctx, tokenID)
	if err != nil {
		return domain.TokenQuote{}, fmt.Errorf("fetch midpoint: %w", err)
	}

	qBids, qAsks, err := domain.SummarizeBook(book, mid, q.params.Scoring)
	if err != nil {
		return domain.TokenQuote{}, err
	}

	ladder, err := domain.ProposeLadder(
		mid, token.TickSize, q.params.Scoring.VCents,
		token.MinOrderSize, budget, q.params.Side)
	if err != nil {
		return domain.TokenQuote{}, err
	}

	v, b := q.params.Scoring.VCents, q.params.Scoring.BMultiplier
	qLadder := domain.ScoreSide(ladder.Bids, mid, v, b) + domain.ScoreSide(ladder.Asks, mid, v, b)

	return domain.TokenQuote{
		Token:   token,
		Mid:     mid,
		QBids:   qBids,
		QAsks:   qAsks,
		Ladder:  ladder,
		QLadder: qLadder,
		Budget:  budget,
	}, nil
}

func (q *Quoter) persist(ctx context.Context, proposal domain.Proposal) error {
	snap := ports.ScoreSnapshot{
		ID:         uuid.NewString(),
		MarketID:   proposal.Market.ID,
		Slug:       proposal.Market.Slug,
		TokenOne:   proposal.Market.ClobTokenIDs[0],
		TokenTwo:   proposal.Market.ClobTokenIDs[1],
		MidOne:     proposal.Quotes[0].Mid,
		MidTwo:     proposal.Quotes[1].Mid,
		QCurrent:   proposal.QminBook,
		QProposed:  proposal.QminOurs,
		PoolShare:  proposal.PoolShare,
		BudgetUSDC: proposal.BudgetUSDC,
		ScoredAt:   proposal.ScoredAt,
	}

	var orders []ports.ProposedOrder
	for _, quote := range proposal.Quotes {
		for _, rung := range quote.Ladder.Bids {
			orders = append(orders, ports.ProposedOrder{
				SnapshotID: snap.ID, TokenID: quote.Token.TokenID,
				Side: domain.SideBid, Price: rung.Price, Size: rung.Size,
			})
		}
		for _, rung := range quote.Ladder.Asks {
			orders = append(orders, ports.ProposedOrder{
				SnapshotID: snap.ID, TokenID: quote.Token.TokenID,
				Side: domain.SideAsk, Price: rung.Price, Size: rung.Size,
			})
		}
	}
	return q.deps.Store.SaveSnapshot(ctx, snap, orders)
}
