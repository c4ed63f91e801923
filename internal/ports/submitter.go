package ports

import (
	"context"

	"github.com/ethereum/go-ethereum/core/types"
)

// TxSigner firma transacciones de la settlement chain. La key material vive
// en el componente que implementa esta interfaz; la capa de submit solo pasa
// la transacción sin firmar y recibe la firmada.
type TxSigner interface {
	// Address devuelve la dirección from de la wallet.
	Address() string

	// SignTx firma una transacción construida (fees y gas ya adjuntos).
	SignTx(tx *types.Transaction) (*types.Transaction, error)
}

// Approver ejecuta las aprobaciones de colateral on-chain necesarias para
// operar en los exchanges de Polymarket.
type Approver interface {
	// EnsureApprovals verifica y setea el allowance USDC.e (ERC20) y el
	// setApprovalForAll del CTF (ERC1155) para los operadores del exchange.
	// Idempotente: las aprobaciones ya presentes se saltan.
	EnsureApprovals(ctx context.Context) error
}
