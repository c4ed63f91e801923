package polymarket

// client.go — transporte HTTP compartido por los adapters de CLOB y Gamma.
//
// Un ciclo de scoring genera, por mercado: una consulta a Gamma (solo en el
// arranque o al resolver el mercado), y por cada token un orderbook-summary
// más un midpoint. Los buckets de rate limiting separan esos tráficos para
// que la paginación de descubrimiento no retrase la lectura de books.

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"time"

	"log/slog"

	"golang.org/x/time/rate"
)

const (
	defaultCLOBBase  = "https://clob.polymarket.com"
	defaultGammaBase = "https://gamma-api.polymarket.com"

	// Límites al 60% de los documentados por Polymarket.
	// /book y /orderbook-summary comparten bucket: 500/10s → 30/s
	booksRatePerSec = 30
	// Gamma /markets, incluida la paginación por token id: 300/10s → 18/s
	gammaRatePerSec = 18
	// Resto del CLOB (midpoint, auth L1/L2, /order, cancel-all): 9000/10s → 540/s
	generalRatePerSec = 540

	maxRetries    = 3
	baseRetryWait = 500 * time.Millisecond
)

// Client es el HTTP client de Polymarket con rate limiting y retries.
type Client struct {
	http         *http.Client
	clobBase     string
	gammaBase    string
	clobLimiter  *rate.Limiter
	gammaLimiter *rate.Limiter
	booksLimiter *rate.Limiter
}

// NewClient crea un Client con los base URLs dados.
// Si clobBase o gammaBase están vacíos, usa los URLs de producción.
func NewClient(clobBase, gammaBase string) *Client {
	if clobBase == "" {
		clobBase = defaultCLOBBase
	}
	if gammaBase == "" {
		gammaBase = defaultGammaBase
	}
	return &Client{
		http:      &http.Client{Timeout: 10 * time.Second},
		clobBase:  clobBase,
		gammaBase: gammaBase,
		// El burst del CLOB general absorbe la ráfaga de órdenes de una
		// ladder completa (hasta 2 tokens x 2 lados x v/tick niveles).
		clobLimiter: rate.NewLimiter(generalRatePerSec, 50),
		// Descubrimiento paginado: páginas de 500 mercados, burst corto
		gammaLimiter: rate.NewLimiter(gammaRatePerSec, 10),
		// Dos books por ciclo, uno por token del mercado
		booksLimiter: rate.NewLimiter(booksRatePerSec, 5),
	}
}

// get hace un GET JSON con rate limiting y retries.
func (c *Client) get(ctx context.Context, limiter *rate.Limiter, url string, out any) error {
	return c.doWithRetry(ctx, limiter, func() (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/json")
		return c.http.Do(req)
	}, out)
}

// doWithRetry ejecuta la función con backoff exponencial. Reintenta errores
// de red, 429 y 5xx; los 4xx restantes cortan de inmediato. Con out nil la
// respuesta se descarta sin decodificar (cancel-all responde un body vacío).
func (c *Client) doWithRetry(ctx context.Context, limiter *rate.Limiter, fn func() (*http.Response, error), out any) error {
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if err := limiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limiter: %w", err)
		}

		resp, err := fn()
		if err != nil {
			if attempt == maxRetries {
				return fmt.Errorf("request failed after %d retries: %w", maxRetries, err)
			}
			c.sleep(ctx, attempt)
			continue
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			resp.Body.Close()
			slog.Warn("rate limited by API", "attempt", attempt+1)
			c.sleep(ctx, attempt)
			continue
		}

		if resp.StatusCode >= 500 {
			resp.Body.Close()
			if attempt == maxRetries {
				return fmt.Errorf("server error %d after %d retries", resp.StatusCode, maxRetries)
			}
			c.sleep(ctx, attempt)
			continue
		}

		if resp.StatusCode >= 400 {
			body, _ := io.ReadAll(resp.Body)
			resp.Body.Close()
			return fmt.Errorf("client error %d: %s", resp.StatusCode, string(body))
		}

		defer resp.Body.Close()
		if out == nil {
			return nil
		}
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
		return nil
	}
	return fmt.Errorf("exhausted %d retries", maxRetries)
}

// sleep espera con backoff exponencial, respetando el contexto.
func (c *Client) sleep(ctx context.Context, attempt int) {
	wait := time.Duration(math.Pow(2, float64(attempt))) * baseRetryWait
	select {
	case <-time.After(wait):
	case <-ctx.Done():
	}
}
