// Package polygon implementa la capa de fiabilidad de transacciones contra la
// settlement chain: gestión de nonce, fees EIP-1559 y reintentos clasificados.
package polygon

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
)

const (
	defaultChainID         = 137
	defaultPriorityFeeGwei = 30
	defaultFeeMultiplier   = 2.0
	defaultGasBuffer       = 1.2
	defaultReceiptTimeout  = 600 * time.Second
	defaultPollInterval    = 2 * time.Second
	defaultMaxRetries      = 3
	defaultFallbackGas     = 150_000
)

// Backend es el subconjunto de *ethclient.Client que usa esta capa. Existe
// para poder inyectar un backend falso en tests.
type Backend interface {
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	NonceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (uint64, error)
	HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error)
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
	SuggestGasTipCap(ctx context.Context) (*big.Int, error)
	EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error)
	SendTransaction(ctx context.Context, tx *types.Transaction) error
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
}

// Config parametriza fees y reintentos del cliente de chain.
type Config struct {
	ChainID int64
	// PriorityFeeGwei es el priority fee de respaldo cuando el nodo no
	// sugiere uno.
	PriorityFeeGwei int64
	// FeeMultiplier escala el base fee al calcular maxFeePerGas.
	FeeMultiplier float64
	// GasBuffer escala la estimación de gas antes de adjuntarla.
	GasBuffer float64
	// ReceiptTimeout limita la espera de receipt por intento.
	ReceiptTimeout time.Duration
	// PollInterval entre consultas de receipt; también es la base del
	// backoff lineal entre reintentos.
	PollInterval time.Duration
	// MaxRetries acota los reintentos de envío.
	MaxRetries int
}

func (c Config) withDefaults() Config {
	if c.ChainID == 0 {
		c.ChainID = defaultChainID
	}
	if c.PriorityFeeGwei <= 0 {
		c.PriorityFeeGwei = defaultPriorityFeeGwei
	}
	if c.FeeMultiplier <= 0 {
		c.FeeMultiplier = defaultFeeMultiplier
	}
	if c.GasBuffer <= 0 {
		c.GasBuffer = defaultGasBuffer
	}
	if c.ReceiptTimeout <= 0 {
		c.ReceiptTimeout = defaultReceiptTimeout
	}
	if c.PollInterval <= 0 {
		c.PollInterval = defaultPollInterval
	}
	if c.MaxRetries <= 0 {
		c.MaxRetries = defaultMaxRetries
	}
	return c
}

// Client envuelve el backend RPC con la política de fees y reintentos.
type Client struct {
	backend Backend
	cfg     Config
}

// NewClient crea un cliente sobre un backend ya construido.
func NewClient(backend Backend, cfg Config) *Client {
	return &Client{backend: backend, cfg: cfg.withDefaults()}
}

// Dial conecta al RPC y devuelve el cliente listo.
func Dial(ctx context.Context, rpcURL string, cfg Config) (*Client, error) {
	backend, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, fmt.Errorf("dial rpc %s: %w", rpcURL, err)
	}
	return NewClient(backend, cfg), nil
}
