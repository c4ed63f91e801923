package polygon

// approve.go — aprobaciones de colateral para operar en los exchanges.
//
// Cada operador del exchange necesita allowance del colateral USDC.e (ERC20)
// y setApprovalForAll sobre el CTF (ERC1155). Las aprobaciones son
// idempotentes: se lee el estado on-chain y solo se envía lo que falta.

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"time"

	"log/slog"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	"github.com/alejandrodnm/polylp/internal/ports"
)

const erc20ABI = `[
	{"inputs":[{"name":"spender","type":"address"},{"name":"amount","type":"uint256"}],"name":"approve","outputs":[{"name":"","type":"bool"}],"stateMutability":"nonpayable","type":"function"},
	{"inputs":[{"name":"owner","type":"address"},{"name":"spender","type":"address"}],"name":"allowance","outputs":[{"name":"","type":"uint256"}],"stateMutability":"view","type":"function"}
]`

const erc1155ABI = `[
	{"inputs":[{"name":"operator","type":"address"},{"name":"approved","type":"bool"}],"name":"setApprovalForAll","outputs":[],"stateMutability":"nonpayable","type":"function"},
	{"inputs":[{"name":"account","type":"address"},{"name":"operator","type":"address"}],"name":"isApprovedForAll","outputs":[{"name":"","type":"bool"}],"stateMutability":"view","type":"function"}
]`

var (
	usdcAddress = common.HexToAddress("0x2791Bca1f2de4661ED88A30C99A7a9449Aa84174") // USDC.e
	ctfAddress  = common.HexToAddress("0x4D97DCd97eC945f40cF65F87097ACe5EA0476045") // Conditional Tokens

	// Operadores que necesitan aprobación: CTF Exchange, Neg Risk Exchange
	// y Neg Risk Adapter.
	exchangeOperators = []common.Address{
		common.HexToAddress("0x4bFb41d5B3570DeFd03C39a9A4D8dE6Bd8B8982E"),
		common.HexToAddress("0xC5d563A36AE78145C45a50134d48A1215220f80a"),
		common.HexToAddress("0xd91E80cF2E7be2e162c6513ceD06f1dD0dA35296"),
	}

	maxUint256 = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))
)

// ApprovalManager implementa ports.Approver sobre el cliente de chain.
type ApprovalManager struct {
	client  *Client
	signer  ports.TxSigner
	store   ports.SnapshotStore // opcional, registra las tx enviadas
	erc20   abi.ABI
	erc1155 abi.ABI
}

// NewApprovalManager construye el manager. store puede ser nil.
func NewApprovalManager(client *Client, signer ports.TxSigner, store ports.SnapshotStore) (*ApprovalManager, error) {
	erc20, err := abi.JSON(strings.NewReader(erc20ABI))
	if err != nil {
		return nil, fmt.Errorf("parse erc20 abi: %w", err)
	}
	erc1155, err := abi.JSON(strings.NewReader(erc1155ABI))
	if err != nil {
		return nil, fmt.Errorf("parse erc1155 abi: %w", err)
	}
	return &ApprovalManager{
		client:  client,
		signer:  signer,
		store:   store,
		erc20:   erc20,
		erc1155: erc1155,
	}, nil
}

// EnsureApprovals recorre los operadores y envía las aprobaciones que
// falten. Los errores de lectura on-chain no abortan: se asume sin aprobar
// y se deja que el envío decida.
func (a *ApprovalManager) EnsureApprovals(ctx context.Context) error {
	owner := common.HexToAddress(a.signer.Address())

	for _, operator := range exchangeOperators {
		if err := a.ensureAllowance(ctx, owner, operator); err != nil {
			return fmt.Errorf("usdc approval for %s: %w", operator.Hex(), err)
		}
		if err := a.ensureOperator(ctx, owner, operator); err != nil {
			return fmt.Errorf("ctf approval for %s: %w", operator.Hex(), err)
		}
	}
	return nil
}

func (a *ApprovalManager) ensureAllowance(ctx context.Context, owner, operator common.Address) error {
	allowance, err := a.readAllowance(ctx, owner, operator)
	if err != nil {
		slog.Warn("allowance read failed, assuming zero", "operator", operator.Hex(), "err", err)
		allowance = new(big.Int)
	}
	if allowance.Cmp(maxUint256) >= 0 {
		slog.Info("usdc allowance already set", "operator", operator.Hex())
		return nil
	}

	data, err := a.erc20.Pack("approve", operator, maxUint256)
	if err != nil {
		return fmt.Errorf("pack approve: %w", err)
	}
	return a.submit(ctx, "erc20_approve", operator, txRequest{
		to:          usdcAddress,
		data:        data,
		fallbackGas: 100_000,
	})
}

func (a *ApprovalManager) ensureOperator(ctx context.Context, owner, operator common.Address) error {
	approved, err := a.readIsApprovedForAll(ctx, owner, operator)
	if err != nil {
		slog.Warn("isApprovedForAll read failed, assuming false", "operator", operator.Hex(), "err", err)
		approved = false
	}
	if approved {
		slog.Info("ctf operator already approved", "operator", operator.Hex())
		return nil
	}

	data, err := a.erc1155.Pack("setApprovalForAll", operator, true)
	if err != nil {
		return fmt.Errorf("pack setApprovalForAll: %w", err)
	}
	return a.submit(ctx, "erc1155_approve", operator, txRequest{
		to:          ctfAddress,
		data:        data,
		fallbackGas: 100_000,
	})
}

func (a *ApprovalManager) submit(ctx context.Context, kind string, operator common.Address, req txRequest) error {
	receipt, attempts, err := a.client.SubmitWithReceipt(ctx, a.signer, req)
	if err != nil {
		return err
	}

	success := receipt.Status == 1
	slog.Info("approval transaction mined",
		"kind", kind,
		"operator", operator.Hex(),
		"hash", receipt.TxHash.Hex(),
		"attempts", attempts,
		"success", success,
	)

	if a.store != nil {
		rec := ports.TxRecord{
			Hash:        receipt.TxHash.Hex(),
			Kind:        kind,
			Operator:    operator.Hex(),
			Attempts:    attempts,
			Success:     success,
			SubmittedAt: time.Now().UTC(),
		}
		if err := a.store.SaveTx(ctx, rec); err != nil {
			slog.Warn("failed to record approval tx", "hash", rec.Hash, "err", err)
		}
	}

	if !success {
		return fmt.Errorf("%s transaction %s reverted", kind, receipt.TxHash.Hex())
	}
	return nil
}

func (a *ApprovalManager) readAllowance(ctx context.Context, owner, operator common.Address) (*big.Int, error) {
	data, err := a.erc20.Pack("allowance", owner, operator)
	if err != nil {
		return nil, err
	}
	out, err := a.callContract(ctx, usdcAddress, data)
	if err != nil {
		return nil, err
	}
	values, err := a.erc20.Unpack("allowance", out)
	if err != nil || len(values) != 1 {
		return nil, fmt.Errorf("unpack allowance: %w", err)
	}
	allowance, ok := values[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("unexpected allowance type %T", values[0])
	}
	return allowance, nil
}

func (a *ApprovalManager) readIsApprovedForAll(ctx context.Context, owner, operator common.Address) (bool, error) {
	data, err := a.erc1155.Pack("isApprovedForAll", owner, operator)
	if err != nil {
		return false, err
	}
	out, err := a.callContract(ctx, ctfAddress, data)
	if err != nil {
		return false, err
	}
	values, err := a.erc1155.Unpack("isApprovedForAll", out)
	if err != nil || len(values) != 1 {
		return false, fmt.Errorf("unpack isApprovedForAll: %w", err)
	}
	approved, ok := values[0].(bool)
	if !ok {
		return false, fmt.Errorf("unexpected isApprovedForAll type %T", values[0])
	}
	return approved, nil
}

func (a *ApprovalManager) callContract(ctx context.Context, to common.Address, data []byte) ([]byte, error) {
	return a.client.backend.CallContract(ctx, ethereum.CallMsg{To: &to, Data: data}, nil)
}
