package woocommerce

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/woosync/backend/internal/domain"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const apiBase = "/wp-json/wc/v3"

// Client handles communication with the WooCommerce REST API using
// consumer key/secret query-string auth
type Client struct {
	httpClient  *http.Client
	baseURL     string
	key         string
	secret      string
	rateLimiter *rate.Limiter
	log         *zap.SugaredLogger
}

// NewClient builds a client, normalizes the base URL and probes the API
// root once. A failed probe returns the client together with a typed
// UnavailableError; the client works again once the remote recovers.
func NewClient(rawURL, key, secret string, log *zap.SugaredLogger) (*Client, error) {
	c := &Client{
		httpClient: &http.Client{
			Timeout: 45 * time.Second,
		},
		baseURL: normalizeBaseURL(rawURL),
		key:     key,
		secret:  secret,
		// Keep well under typical WooCommerce hosting limits
		rateLimiter: rate.NewLimiter(rate.Limit(2), 5),
		log:         log,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()
	if err := c.probe(ctx); err != nil {
		return c, err
	}
	return c, nil
}

// normalizeBaseURL ensures the store URL carries a scheme
func normalizeBaseURL(raw string) string {
	raw = strings.TrimRight(strings.TrimSpace(raw), "/")
	if !strings.HasPrefix(raw, "http://") && !strings.HasPrefix(raw, "https://") {
		raw = "https://" + raw
	}
	return raw
}

// Ping re-checks that the API root is reachable with the configured
// credentials. Used by the connection test endpoint.
func (c *Client) Ping(ctx context.Context) error {
	return c.probe(ctx)
}

// probe performs one lightweight GET against the API root
func (c *Client) probe(ctx context.Context) error {
	resp, body, err := c.do(ctx, http.MethodGet, "", nil, nil)
	if err != nil {
		return &domain.UnavailableError{Message: err.Error()}
	}
	if resp.StatusCode != http.StatusOK {
		return &domain.UnavailableError{Status: resp.StatusCode, Message: remoteMessage(body)}
	}
	c.log.Infow("catalog API probe successful", "url", c.baseURL)
	return nil
}

// do executes one request against {base}/wp-json/wc/v3/{path} with the
// credentials appended as query parameters. It returns the response and the
// fully-read body; transport failures come back as plain errors for the
// caller to classify.
func (c *Client) do(ctx context.Context, method, path string, params url.Values, payload interface{}) (*http.Response, []byte, error) {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, nil, fmt.Errorf("rate limiter: %w", err)
	}

	if params == nil {
		params = url.Values{}
	}
	params.Set("consumer_key", c.key)
	params.Set("consumer_secret", c.secret)

	reqURL := fmt.Sprintf("%s%s/%s?%s", c.baseURL, apiBase, strings.TrimPrefix(path, "/"), params.Encode())

	var reqBody io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to encode request body: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, reqBody)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", "woosync/1.0")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read response body: %w", err)
	}
	return resp, body, nil
}

// classify converts a non-2xx response into the typed error the engine
// expects, parsing any code/message fields from the body
func classify(status int, body []byte) error {
	if status == http.StatusNotFound {
		return domain.ErrNotFound
	}
	var remoteErr struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &remoteErr); err != nil || remoteErr.Message == "" {
		return &domain.RemoteRejectedError{Status: status, Message: strings.TrimSpace(string(body))}
	}
	return &domain.RemoteRejectedError{Status: status, Code: remoteErr.Code, Message: remoteErr.Message}
}

// remoteMessage extracts a human-readable message from an error body
func remoteMessage(body []byte) string {
	var remoteErr struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &remoteErr); err == nil && remoteErr.Message != "" {
		return remoteErr.Message
	}
	return strings.TrimSpace(string(body))
}

// GetProduct confirms a remote product by ID. A 404 returns ErrNotFound so
// the engine can clear the stale stored ID.
func (c *Client) GetProduct(ctx context.Context, id int64) (*domain.RemoteProduct, error) {
	resp, body, err := c.do(ctx, http.MethodGet, fmt.Sprintf("products/%d", id), nil, nil)
	if err != nil {
		return nil, &domain.UnavailableError{Message: err.Error()}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, classify(resp.StatusCode, body)
	}
	var product domain.RemoteProduct
	if err := json.Unmarshal(body, &product); err != nil {
		return nil, &domain.MalformedError{Body: string(body)}
	}
	return &product, nil
}

// FindProductBySKU searches the catalog for a product with the given SKU.
// An empty result returns ErrNotFound.
func (c *Client) FindProductBySKU(ctx context.Context, sku string) (*domain.RemoteProduct, error) {
	params := url.Values{}
	params.Set("sku", sku)
	resp, body, err := c.do(ctx, http.MethodGet, "products", params, nil)
	if err != nil {
		return nil, &domain.UnavailableError{Message: err.Error()}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, classify(resp.StatusCode, body)
	}
	var products []domain.RemoteProduct
	if err := json.Unmarshal(body, &products); err != nil {
		return nil, &domain.MalformedError{Body: string(body)}
	}
	if len(products) == 0 {
		return nil, domain.ErrNotFound
	}
	return &products[0], nil
}

// CreateProduct POSTs a new product and returns the created remote record
func (c *Client) CreateProduct(ctx context.Context, payload *domain.ProductPayload) (*domain.RemoteProduct, error) {
	return c.upsertProduct(ctx, http.MethodPost, "products", payload)
}

// UpdateProduct PUTs an existing product by ID
func (c *Client) UpdateProduct(ctx context.Context, id int64, payload *domain.ProductPayload) (*domain.RemoteProduct, error) {
	return c.upsertProduct(ctx, http.MethodPut, fmt.Sprintf("products/%d", id), payload)
}

func (c *Client) upsertProduct(ctx context.Context, method, path string, payload *domain.ProductPayload) (*domain.RemoteProduct, error) {
	resp, body, err := c.do(ctx, method, path, nil, payload)
	if err != nil {
		return nil, &domain.UnavailableError{Message: err.Error()}
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, classify(resp.StatusCode, body)
	}
	var product domain.RemoteProduct
	if err := json.Unmarshal(body, &product); err != nil {
		return nil, &domain.MalformedError{Body: string(body)}
	}
	if product.ID == 0 {
		return nil, &domain.MalformedError{Body: string(body)}
	}
	return &product, nil
}

// ListCategories fetches one page of the category listing
func (c *Client) ListCategories(ctx context.Context, page, perPage int) ([]domain.Category, error) {
	params := url.Values{}
	params.Set("page", strconv.Itoa(page))
	params.Set("per_page", strconv.Itoa(perPage))
	resp, body, err := c.do(ctx, http.MethodGet, "products/categories", params, nil)
	if err != nil {
		return nil, &domain.UnavailableError{Message: err.Error()}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, classify(resp.StatusCode, body)
	}
	var categories []domain.Category
	if err := json.Unmarshal(body, &categories); err != nil {
		return nil, &domain.MalformedError{Body: string(body)}
	}
	return categories, nil
}

// ListVariations fetches one page of a product's variation list
func (c *Client) ListVariations(ctx context.Context, productID int64, page, perPage int) ([]domain.RemoteVariation, error) {
	params := url.Values{}
	params.Set("page", strconv.Itoa(page))
	params.Set("per_page", strconv.Itoa(perPage))
	resp, body, err := c.do(ctx, http.MethodGet, fmt.Sprintf("products/%d/variations", productID), params, nil)
	if err != nil {
		return nil, &domain.UnavailableError{Message: err.Error()}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, classify(resp.StatusCode, body)
	}
	var variations []domain.RemoteVariation
	if err := json.Unmarshal(body, &variations); err != nil {
		return nil, &domain.MalformedError{Body: string(body)}
	}
	return variations, nil
}

// BatchVariations issues one create/update/delete batch call for a parent
// product and returns the per-item results
func (c *Client) BatchVariations(ctx context.Context, productID int64, batch *domain.VariationBatch) (*domain.VariationBatchResult, error) {
	resp, body, err := c.do(ctx, http.MethodPost, fmt.Sprintf("products/%d/variations/batch", productID), nil, batch)
	if err != nil {
		return nil, &domain.UnavailableError{Message: err.Error()}
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, classify(resp.StatusCode, body)
	}
	var result domain.VariationBatchResult
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, &domain.MalformedError{Body: string(body)}
	}
	return &result, nil
}
