package polygon

// submit.go — envío de transacciones con reintentos acotados y clasificados.
//
// Máquina de estados por envío:
// BUILD → FEE/GAS → SIGN → SUBMIT → WAIT-RECEIPT → {SUCCESS | RETRY | FATAL}.
// El nonce se vuelve a consultar en cada intento para no chocar con otras
// transacciones en vuelo de la misma dirección.

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"log/slog"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/alejandrodnm/polylp/internal/ports"
)

// errKind clasifica un error de envío. La clasificación por substring queda
// confinada a classifySubmitError; el resto del flujo trabaja con el enum.
type errKind int

const (
	// kindRetryable agrupa carreras de nonce/fee y errores de transporte
	// sin clasificar.
	kindRetryable errKind = iota
	// kindResume indica que el nodo ya conoce la transacción: si hay un
	// hash de un intento previo se espera su receipt en vez de reenviar.
	kindResume
	// kindFatal no se reintenta nunca.
	kindFatal
)

func classifySubmitError(err error) errKind {
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "insufficient funds"):
		return kindFatal
	case strings.Contains(msg, "already known") || strings.Contains(msg, "known transaction"):
		return kindResume
	case strings.Contains(msg, "nonce too low"),
		strings.Contains(msg, "replacement transaction underpriced"),
		strings.Contains(msg, "transaction underpriced"):
		return kindRetryable
	default:
		return kindRetryable
	}
}

// txRequest describe una transacción a construir. fallbackGas se usa cuando
// la estimación de gas falla.
type txRequest struct {
	to          common.Address
	data        []byte
	value       *big.Int
	fallbackGas uint64
}

// SubmitWithReceipt construye, firma y envía la transacción hasta obtener un
// receipt. Devuelve el receipt y el número de intentos consumidos. Tras
// agotar los reintentos, si existe un hash del último intento se hace una
// última espera acotada antes de rendirse.
func (c *Client) SubmitWithReceipt(ctx context.Context, signer ports.TxSigner, req txRequest) (*types.Receipt, int, error) {
	from := common.HexToAddress(signer.Address())

	var (
		lastErr  error
		lastHash common.Hash
		haveHash bool
	)

	for attempt := 1; attempt <= c.cfg.MaxRetries; attempt++ {
		tx, err := c.buildAndSign(ctx, signer, from, req)
		if err != nil {
			lastErr = err
		} else if err := c.backend.SendTransaction(ctx, tx); err != nil {
			switch classifySubmitError(err) {
			case kindFatal:
				return nil, attempt, fmt.Errorf("send transaction: %w", err)
			case kindResume:
				if haveHash {
					if receipt, werr := c.waitReceipt(ctx, lastHash, c.cfg.ReceiptTimeout); werr == nil {
						return receipt, attempt, nil
					} else {
						lastErr = werr
					}
				} else {
					lastErr = err
				}
			default:
				lastErr = err
			}
		} else {
			lastHash, haveHash = tx.Hash(), true
			receipt, werr := c.waitReceipt(ctx, lastHash, c.cfg.ReceiptTimeout)
			if werr == nil {
				return receipt, attempt, nil
			}
			lastErr = werr
		}

		slog.Warn("transaction attempt failed",
			"attempt", attempt, "max_retries", c.cfg.MaxRetries, "err", lastErr)

		if attempt == c.cfg.MaxRetries {
			break
		}
		// Backoff lineal: poll * número de intento.
		select {
		case <-ctx.Done():
			return nil, attempt, ctx.Err()
		case <-time.After(c.cfg.PollInterval * time.Duration(attempt)):
		}
	}

	if haveHash {
		grace := c.cfg.PollInterval * time.Duration(c.cfg.MaxRetries)
		if receipt, err := c.waitReceipt(ctx, lastHash, grace); err == nil {
			return receipt, c.cfg.MaxRetries, nil
		}
	}
	return nil, c.cfg.MaxRetries, fmt.Errorf("transaction failed after %d attempts: %w", c.cfg.MaxRetries, lastErr)
}

// buildAndSign arma una dynamic-fee tx con nonce, fees y gas frescos y la
// pasa al signer externo. Esta capa nunca toca key material.
func (c *Client) buildAndSign(ctx context.Context, signer ports.TxSigner, from common.Address, req txRequest) (*types.Transaction, error) {
	nonce, err := c.pendingNonce(ctx, from)
	if err != nil {
		return nil, fmt.Errorf("fetch nonce: %w", err)
	}

	tip, feeCap := c.fees(ctx)

	value := req.value
	if value == nil {
		value = new(big.Int)
	}
	fallback := req.fallbackGas
	if fallback == 0 {
		fallback = defaultFallbackGas
	}
	gas := c.estimateGas(ctx, ethereum.CallMsg{
		From:      from,
		To:        &req.to,
		Value:     value,
		Data:      req.data,
		GasTipCap: tip,
		GasFeeCap: feeCap,
	}, fallback)

	tx := types.NewTx(&types.DynamicFeeTx{
		ChainID:   big.NewInt(c.cfg.ChainID),
		Nonce:     nonce,
		GasTipCap: tip,
		GasFeeCap: feeCap,
		Gas:       gas,
		To:        &req.to,
		Value:     value,
		Data:      req.data,
	})

	signed, err := signer.SignTx(tx)
	if err != nil {
		return nil, fmt.Errorf("sign transaction: %w", err)
	}
	return signed, nil
}

// waitReceipt sondea el receipt hasta el timeout. Un NotFound significa que
// la tx sigue pendiente; otros errores de RPC también se siguen sondeando
// dentro de la ventana.
func (c *Client) waitReceipt(ctx context.Context, hash common.Hash, timeout time.Duration) (*types.Receipt, error) {
	deadline := time.Now().Add(timeout)
	for {
		receipt, err := c.backend.TransactionReceipt(ctx, hash)
		if err == nil && receipt != nil {
			return receipt, nil
		}
		if err != nil && !errors.Is(err, ethereum.NotFound) {
			slog.Debug("receipt poll error", "hash", hash.Hex(), "err", err)
		}
		if time.Now().After(deadline) {
			return nil, fmt.Errorf("receipt wait for %s timed out after %s", hash.Hex(), timeout)
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(c.cfg.PollInterval):
		}
	}
}
