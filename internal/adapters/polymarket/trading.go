package polymarket

// trading.go — Real order execution via Polymarket CLOB API.
//
// Implements ports.OrderExecutor using AuthClient for L1/L2 auth. Ladder
// rungs are placed as GTC (good-till-cancelled) limit orders; bids map to
// BUY, asks to SELL. Order signing is delegated to go-order-utils.

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"strconv"

	gomodel "github.com/polymarket/go-order-utils/pkg/model"

	"github.com/alejandrodnm/polylp/internal/domain"
	"github.com/alejandrodnm/polylp/internal/ports"
)

// clobOrderRequest is the JSON body sent to POST /order.
type clobOrderRequest struct {
	Order     clobOrderBody `json:"order"`
	Owner     string        `json:"owner"`
	OrderType string        `json:"orderType"`
}

type clobOrderBody struct {
	Salt          json.Number `json:"salt"`
	Maker         string      `json:"maker"`
	Signer        string      `json:"signer"`
	Taker         string      `json:"taker"`
	TokenID       string      `json:"tokenId"`
	MakerAmount   string      `json:"makerAmount"`
	TakerAmount   string      `json:"takerAmount"`
	Expiration    string      `json:"expiration"`
	Nonce         string      `json:"nonce"`
	FeeRateBps    string      `json:"feeRateBps"`
	Side          string      `json:"side"`
	SignatureType int         `json:"signatureType"`
	Signature     string      `json:"signature"`
}

type clobOrderResponse struct {
	ErrorMsg string `json:"errorMsg"`
	OrderID  string `json:"orderID"`
	Status   string `json:"status"`
	Success  bool   `json:"success"`
}

// TradingClient implements ports.OrderExecutor.
type TradingClient struct {
	auth *AuthClient
}

// NewTradingClient creates a TradingClient over an authenticated CLOB client.
func NewTradingClient(auth *AuthClient) *TradingClient {
	return &TradingClient{auth: auth}
}

// PlaceOrder signs and submits a GTC limit order to the CLOB.
func (tc *TradingClient) PlaceOrder(ctx context.Context, req ports.PlaceOrderRequest) (ports.PlacedOrder, error) {
	if err := tc.auth.EnsureCreds(ctx); err != nil {
		return ports.PlacedOrder{}, fmt.Errorf("place order: creds: %w", err)
	}

	signed, sideStr, err := tc.auth.buildSignedOrder(req.TokenID, req.Side, req.Price, req.Size, req.NegRisk)
	if err != nil {
		return ports.PlacedOrder{}, fmt.Errorf("place order: sign: %w", err)
	}

	body := clobOrderRequest{
		Order: clobOrderBody{
			Salt:          json.Number(signed.Order.Salt.String()),
			Maker:         signed.Order.Maker.Hex(),
			Signer:        signed.Order.Signer.Hex(),
			Taker:         signed.Order.Taker.Hex(),
			TokenID:       req.TokenID,
			MakerAmount:   signed.Order.MakerAmount.String(),
			TakerAmount:   signed.Order.TakerAmount.String(),
			Expiration:    signed.Order.Expiration.String(),
			Nonce:         signed.Order.Nonce.String(),
			FeeRateBps:    signed.Order.FeeRateBps.String(),
			Side:          sideStr,
			SignatureType: int(signed.Order.SignatureType.Int64()),
			Signature:     "0x" + hex.EncodeToString(signed.Signature),
		},
		Owner:     tc.auth.apiKey(),
		OrderType: "GTC",
	}

	var resp clobOrderResponse
	if err := tc.auth.doL2(ctx, http.MethodPost, "/order", body, &resp); err != nil {
		return ports.PlacedOrder{}, fmt.Errorf("place order: post: %w", err)
	}

	if !resp.Success || resp.ErrorMsg != "" {
		return ports.PlacedOrder{}, fmt.Errorf("place order: clob error: %s", resp.ErrorMsg)
	}

	return ports.PlacedOrder{CLOBOrderID: resp.OrderID, Status: resp.Status}, nil
}

// CancelAll cancels all open orders for this wallet.
func (tc *TradingClient) CancelAll(ctx context.Context) error {
	if err := tc.auth.EnsureCreds(ctx); err != nil {
		return fmt.Errorf("cancel all: creds: %w", err)
	}
	if err := tc.auth.doL2(ctx, http.MethodDelete, "/orders", nil, nil); err != nil {
		return fmt.Errorf("cancel all: %w", err)
	}
	return nil
}

// buildSignedOrder creates an EIP-712 signed order for the given parameters.
// price is in USDC, size in shares. Uses integer arithmetic to avoid
// floating-point precision errors that the CLOB API rejects: it verifies
// the maker/taker amount ratio against the price exactly.
func (ac *AuthClient) buildSignedOrder(tokenID string, side domain.Side, price, size float64, negRisk bool) (*gomodel.SignedOrder, string, error) {
	pricePrecision := detectPricePrecision(price)
	priceInt := int64(math.Round(price * float64(pricePrecision)))
	sharesCents := int64(math.Floor(size * 100))

	amountFactor := int64(1_000_000) / (100 * pricePrecision)
	usdcAmount := sharesCents * priceInt * amountFactor
	sharesAmount := sharesCents * 10000

	if usdcAmount <= 0 || sharesAmount <= 0 {
		return nil, "", fmt.Errorf("invalid amounts: usdc=%d shares=%d (price=%.4f size=%.4f)",
			usdcAmount, sharesAmount, price, size)
	}

	var (
		makerAmount, takerAmount int64
		gomodelSide              gomodel.Side
		sideStr                  string
	)
	switch side {
	case domain.SideBid:
		makerAmount, takerAmount = usdcAmount, sharesAmount
		gomodelSide, sideStr = gomodel.BUY, "BUY"
	case domain.SideAsk:
		makerAmount, takerAmount = sharesAmount, usdcAmount
		gomodelSide, sideStr = gomodel.SELL, "SELL"
	default:
		return nil, "", fmt.Errorf("invalid order side %q", side)
	}

	var verifyingContract gomodel.VerifyingContract
	if negRisk {
		verifyingContract = gomodel.NegRiskCTFExchange
	} else {
		verifyingContract = gomodel.CTFExchange
	}

	orderData := &gomodel.OrderData{
		Maker:         ac.address.Hex(),
		Taker:         zeroAddress,
		TokenId:       tokenID,
		MakerAmount:   strconv.FormatInt(makerAmount, 10),
		TakerAmount:   strconv.FormatInt(takerAmount, 10),
		FeeRateBps:    "0",
		Nonce:         "0",
		Signer:        ac.address.Hex(),
		Expiration:    "0",
		Side:          gomodelSide,
		SignatureType: gomodel.EOA,
	}

	signed, err := ac.orderBuilder.BuildSignedOrder(ac.privateKey, orderData, verifyingContract)
	if err != nil {
		return nil, "", fmt.Errorf("build signed order: %w", err)
	}
	return signed, sideStr, nil
}

// detectPricePrecision returns the multiplier matching the market's tick size.
// e.g. price=0.60 → 100 (tick 0.01), price=0.673 → 1000 (tick 0.001).
func detectPricePrecision(price float64) int64 {
	for _, prec := range []int64{100, 1000, 10000} {
		rounded := math.Round(price * float64(prec))
		if math.Abs(rounded/float64(prec)-price) < 1e-10 {
			return prec
		}
	}
	return 100
}
