package polygon

// fees.go — nonce y fees EIP-1559 con cadena de fallbacks.

import (
	"context"
	"math"
	"math/big"

	"log/slog"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/rpc"
)

// pendingNonce prefiere el transaction count pending; si la consulta falla
// cae al count confirmado. Se llama en cada intento de envío, nunca se
// cachea entre reintentos.
func (c *Client) pendingNonce(ctx context.Context, account common.Address) (uint64, error) {
	nonce, err := c.backend.PendingNonceAt(ctx, account)
	if err == nil {
		return nonce, nil
	}
	slog.Debug("pending nonce unavailable, using confirmed", "account", account.Hex(), "err", err)
	return c.backend.NonceAt(ctx, account, nil)
}

// fees calcula (maxPriorityFeePerGas, maxFeePerGas).
//
//	maxFee = multiplier * baseFee + priority
//
// Si el base fee del bloque pending no está disponible cae a
// gasPrice + priority, y en último término a priority solo. El priority
// prefiere la sugerencia del nodo y cae al valor configurado en gwei.
// Nunca devuelve error: siempre hay un fee utilizable.
func (c *Client) fees(ctx context.Context) (tip, feeCap *big.Int) {
	tip, err := c.backend.SuggestGasTipCap(ctx)
	if err != nil || tip == nil || tip.Sign() <= 0 {
		tip = gweiToWei(c.cfg.PriorityFeeGwei)
	}

	header, err := c.backend.HeaderByNumber(ctx, big.NewInt(int64(rpc.PendingBlockNumber)))
	if err == nil && header != nil && header.BaseFee != nil {
		scaled := scaleBigInt(header.BaseFee, c.cfg.FeeMultiplier)
		return tip, new(big.Int).Add(scaled, tip)
	}

	gasPrice, err := c.backend.SuggestGasPrice(ctx)
	if err == nil && gasPrice != nil {
		return tip, new(big.Int).Add(gasPrice, tip)
	}

	slog.Warn("base fee and gas price unavailable, using priority fee alone")
	return tip, new(big.Int).Set(tip)
}

// estimateGas estima y adjunta ceil(estimate * buffer). Si la estimación
// falla devuelve el fallback del caller en vez de abortar el envío.
func (c *Client) estimateGas(ctx context.Context, msg ethereum.CallMsg, fallback uint64) uint64 {
	estimate, err := c.backend.EstimateGas(ctx, msg)
	if err != nil {
		slog.Warn("gas estimation failed, using fallback limit", "fallback", fallback, "err", err)
		return fallback
	}
	return uint64(math.Ceil(float64(estimate) * c.cfg.GasBuffer))
}

func gweiToWei(gwei int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(gwei), big.NewInt(1_000_000_000))
}

func scaleBigInt(v *big.Int, factor float64) *big.Int {
	scaled := new(big.Float).Mul(new(big.Float).SetInt(v), big.NewFloat(factor))
	out, _ := scaled.Int(nil)
	return out
}
