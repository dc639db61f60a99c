package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"github.com/rl1809/pos-register/internal/adapter/wire"
	"github.com/rl1809/pos-register/internal/core/domain"
)

const (
	searchPath   = "/pdv/search_product"
	checkoutPath = "/pdv/checkout"

	maxResponseBytes = 8 << 20

	msgCheckoutUnreachable = "could not reach the checkout service; the cart was kept"
)

type Options struct {
	// SearchTimeout bounds each catalog search. Zero means no client-side bound.
	SearchTimeout time.Duration
	// CheckoutTimeout bounds a checkout call. Zero leaves it to the transport.
	CheckoutTimeout time.Duration
	Labels          wire.Labels
	Breaker         BreakerConfig
}

func (o Options) labels() wire.Labels {
	if len(o.Labels) == 0 {
		return wire.DefaultLabels()
	}
	return o.Labels
}

// HTTPClient talks to the register over its JSON HTTP routes.
type HTTPClient struct {
	baseURL string
	http    *http.Client
	opts    Options
	labels  wire.Labels
	breaker *searchBreaker
	logger  *zap.Logger
}

func NewHTTPClient(baseURL string, opts Options, logger *zap.Logger) *HTTPClient {
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)},
		opts:    opts,
		labels:  opts.labels(),
		breaker: newSearchBreaker("catalog-http", opts.Breaker, logger),
		logger:  logger,
	}
}

func (c *HTTPClient) SearchProducts(ctx context.Context, query string, limit int) ([]domain.Product, error) {
	return c.breaker.Execute(func() ([]domain.Product, error) {
		return c.search(ctx, query, limit)
	})
}

func (c *HTTPClient) search(ctx context.Context, query string, limit int) ([]domain.Product, error) {
	if c.opts.SearchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.opts.SearchTimeout)
		defer cancel()
	}

	endpoint := c.baseURL + searchPath + "?" + url.Values{"query": {query}}.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build search request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search products: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("read search response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var e wire.ErrorJSON
		_ = json.Unmarshal(body, &e)
		return nil, fmt.Errorf("search products: status %d: %s", resp.StatusCode, e.Error)
	}

	var items []wire.ProductJSON
	if err := json.Unmarshal(body, &items); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}

	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	products := make([]domain.Product, 0, len(items))
	for _, item := range items {
		products = append(products, wire.ProductFromJSON(item))
	}
	return products, nil
}

// Checkout posts the sale once. A response carrying a message is interpreted
// even on a non-2xx status; 4xx messages are business rejections, 5xx
// messages are transport failures that keep the server's wording.
func (c *HTTPClient) Checkout(ctx context.Context, sale domain.SaleRequest) (domain.SaleResult, error) {
	if c.opts.CheckoutTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.opts.CheckoutTimeout)
		defer cancel()
	}

	payload, err := json.Marshal(wire.CheckoutToJSON(sale, c.labels))
	if err != nil {
		return domain.SaleResult{}, fmt.Errorf("encode checkout request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+checkoutPath, bytes.NewReader(payload))
	if err != nil {
		return domain.SaleResult{}, fmt.Errorf("build checkout request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", sale.RequestID)

	resp, err := c.http.Do(req)
	if err != nil {
		return domain.SaleResult{}, domain.NewTransportError(msgCheckoutUnreachable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return domain.SaleResult{}, domain.NewTransportError(msgCheckoutUnreachable, err)
	}

	var out wire.CheckoutResponseJSON
	decodeErr := json.Unmarshal(body, &out)

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		if decodeErr != nil {
			return domain.SaleResult{}, domain.NewTransportError("the checkout service sent an unreadable response", decodeErr)
		}
		return wire.ResultFromJSON(out), nil
	case decodeErr == nil && out.Message != "" && resp.StatusCode < 500:
		c.logger.Info("checkout rejected",
			zap.String("request_id", sale.RequestID),
			zap.Int("status", resp.StatusCode),
			zap.String("message", out.Message))
		return domain.SaleResult{Success: false, Message: out.Message}, nil
	case decodeErr == nil && out.Message != "":
		return domain.SaleResult{}, domain.NewTransportError(out.Message, fmt.Errorf("checkout: status %d", resp.StatusCode))
	default:
		return domain.SaleResult{}, domain.NewTransportError(msgCheckoutUnreachable, fmt.Errorf("checkout: status %d", resp.StatusCode))
	}
}
