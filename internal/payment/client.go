package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	DefaultAPIURL  = "https://api.infinitepay.io/invoices/public/checkout/links"
	DefaultTimeout = 10 * time.Second

	// MaxInstallments is the card installment cap sent with every link.
	MaxInstallments = 4
)

// Kind is the product a payment link is generated for.
type Kind string

const (
	KindRenewal    Kind = "renovacao"
	KindMembership Kind = "filiacao"
)

// Product describes what is charged for a Kind.
type Product struct {
	Title       string
	PriceLabel  string
	PriceCents  int
	Description string
}

var products = map[Kind]Product{
	KindRenewal: {
		Title:       "Renovação",
		PriceLabel:  "R$ 650,00",
		PriceCents:  65000,
		Description: "Serviço - Renovação de filiação",
	},
	KindMembership: {
		Title:       "Filiação",
		PriceLabel:  "R$ 750,00",
		PriceCents:  75000,
		Description: "Serviço - Filiação",
	},
}

// ProductFor returns the product charged for k.
func ProductFor(k Kind) (Product, bool) {
	p, ok := products[k]
	return p, ok
}

var (
	ErrUnknownKind = errors.New("unknown payment kind")
	ErrNoURL       = errors.New("checkout response has no url")
)

// APIError is returned for non-2xx responses.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("checkout API error: status %d: %s", e.StatusCode, e.Body)
}

// LinkGenerator creates checkout links.
type LinkGenerator interface {
	GenerateLink(ctx context.Context, kind Kind) (string, error)
}

type Config struct {
	APIURL string
	// Handle is the merchant account on the checkout service, without "$".
	Handle string
	// OrderPrefix starts every order reference, e.g. "ctc".
	OrderPrefix string
	// OrgName is appended to every item description when set.
	OrgName string
	Timeout time.Duration
}

// Client talks to the checkout-links API.
type Client struct {
	apiURL      string
	handle      string
	orderPrefix string
	orgName     string
	httpClient  *http.Client
}

// NewClient creates a checkout client. Zero values in cfg take defaults.
func NewClient(cfg Config) *Client {
	if cfg.APIURL == "" {
		cfg.APIURL = DefaultAPIURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.OrderPrefix == "" {
		cfg.OrderPrefix = "order"
	}
	return &Client{
		apiURL:      cfg.APIURL,
		handle:      strings.TrimPrefix(cfg.Handle, "$"),
		orderPrefix: cfg.OrderPrefix,
		orgName:     strings.TrimSpace(cfg.OrgName),
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

type checkoutItem struct {
	Quantity    int    `json:"quantity"`
	Price       int    `json:"price"`
	Description string `json:"description"`
}

type checkoutRequest struct {
	Handle          string         `json:"handle"`
	OrderNSU        string         `json:"order_nsu"`
	MaxInstallments int            `json:"max_installments"`
	Installments    int            `json:"installments"`
	Items           []checkoutItem `json:"items"`
}

type checkoutResponse struct {
	URL string `json:"url"`
}

// GenerateLink creates a single-item checkout link for kind and returns its
// URL.
func (c *Client) GenerateLink(ctx context.Context, kind Kind) (string, error) {
	product, ok := products[kind]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}

	body := checkoutRequest{
		Handle:          c.handle,
		OrderNSU:        fmt.Sprintf("%s-%s-%s", c.orderPrefix, kind, uuid.NewString()),
		MaxInstallments: MaxInstallments,
		Installments:    MaxInstallments,
		Items: []checkoutItem{
			{Quantity: 1, Price: product.PriceCents, Description: c.describe(product)},
		},
	}

	jsonBody, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, bytes.NewReader(jsonBody))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &APIError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(respBody))}
	}

	var out checkoutResponse
	if err := json.Unmarshal(respBody, &out); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}
	if strings.TrimSpace(out.URL) == "" {
		return "", ErrNoURL
	}

	return out.URL, nil
}

// describe is the line-item description shown on the checkout page.
func (c *Client) describe(p Product) string {
	if c.orgName == "" {
		return p.Description
	}
	return p.Description + " - " + c.orgName
}
