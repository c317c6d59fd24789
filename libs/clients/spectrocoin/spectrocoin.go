// Package spectrocoin provides a client for the SpectroCoin merchant API.
package spectrocoin

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/asaskevich/govalidator"
	cache "github.com/patrickmn/go-cache"
	"github.com/shopspring/decimal"

	"github.com/brave-intl/spectrocoin-callback/libs/clients"
	"github.com/brave-intl/spectrocoin-callback/libs/logging"
)

const (
	ErrAPI           Error = "spectrocoin: api error"
	ErrInvalidOrder  Error = "spectrocoin: invalid order"
	ErrNotConfigured Error = "spectrocoin: client credentials are not configured"

	// LiveURL is the base url of the production merchant API.
	LiveURL = "https://spectrocoin.com/api/public"
	// TestURL is the base url of the sandbox merchant API.
	TestURL = "https://test.spectrocoin.com/api/public"

	tokenLeeway = 30 * time.Second
)

type Error string

func (e Error) Error() string {
	return string(e)
}

// Config holds the project credentials of a merchant.
type Config struct {
	BaseURL      string
	ProjectID    string
	ClientID     string
	ClientSecret string
	Timeout      time.Duration
}

// Enabled reports whether all credentials are set.
func (c Config) Enabled() bool {
	return c.ProjectID != "" && c.ClientID != "" && c.ClientSecret != ""
}

// BaseURLFor returns the base url for the environment, unless override is set.
func BaseURLFor(testMode bool, override string) string {
	if override != "" {
		return override
	}

	if testMode {
		return TestURL
	}

	return LiveURL
}

// Token is the result of the client credentials exchange.
type Token struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

// TTL returns how long the token may be reused.
func (t Token) TTL() time.Duration {
	ttl := time.Duration(t.ExpiresIn)*time.Second - tokenLeeway
	if ttl < time.Second {
		return time.Second
	}

	return ttl
}

// Order is the authoritative state of an order as known to the gateway.
type Order struct {
	ID              string          `json:"id"`
	OrderID         string          `json:"orderId" valid:"required"`
	Status          string          `json:"status" valid:"required"`
	PayCurrency     string          `json:"payCurrency"`
	PayAmount       decimal.Decimal `json:"payAmount" valid:"-"`
	ReceiveCurrency string          `json:"receiveCurrency"`
	ReceiveAmount   decimal.Decimal `json:"receiveAmount" valid:"-"`
}

// Client talks to the merchant API on behalf of one project.
type Client struct {
	client *clients.SimpleHTTPClient
	cfg    Config

	mu     sync.Mutex
	tokens *cache.Cache
}

// New returns a client decorated with prometheus metrics.
func New(cfg Config) (*InstrumentedClient, error) {
	if !cfg.Enabled() {
		return nil, ErrNotConfigured
	}

	hc, err := clients.NewInstrumented("spectrocoin", BaseURLFor(false, cfg.BaseURL), cfg.Timeout)
	if err != nil {
		return nil, err
	}

	return newInstrumentedClient("spectrocoin_client", newClient(cfg, hc)), nil
}

func newClient(cfg Config, hc *clients.SimpleHTTPClient) *Client {
	return &Client{
		client: hc,
		cfg:    cfg,
		tokens: cache.New(5*time.Minute, 10*time.Minute),
	}
}

// AccessToken returns a cached bearer token, fetching a new one when needed.
//
// Concurrent callers wait for a single fetch.
func (c *Client) AccessToken(ctx context.Context) (string, error) {
	if tok, ok := c.cachedToken(); ok {
		return tok, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if tok, ok := c.cachedToken(); ok {
		return tok, nil
	}

	form := url.Values{}
	form.Set("grant_type", "client_credentials")
	form.Set("client_id", c.cfg.ClientID)
	form.Set("client_secret", c.cfg.ClientSecret)

	req, err := c.client.NewFormRequest(ctx, http.MethodPost, "oauth/token", form)
	if err != nil {
		return "", fmt.Errorf("%w: token request: %w", ErrAPI, err)
	}

	var tok Token
	if _, err := c.client.Do(ctx, req, &tok); err != nil {
		return "", fmt.Errorf("%w: token: %w", ErrAPI, err)
	}

	if tok.AccessToken == "" {
		return "", fmt.Errorf("%w: token: empty access token", ErrAPI)
	}

	c.tokens.Set(c.cfg.ProjectID, tok.AccessToken, tok.TTL())

	return tok.AccessToken, nil
}

func (c *Client) cachedToken() (string, bool) {
	v, ok := c.tokens.Get(c.cfg.ProjectID)
	if !ok {
		return "", false
	}

	tok, ok := v.(string)

	return tok, ok && tok != ""
}

// GetOrder fetches the order identified by the gateway id.
//
// An order without orderId or status yields ErrInvalidOrder, every other failure yields ErrAPI.
func (c *Client) GetOrder(ctx context.Context, id string) (*Order, error) {
	tok, err := c.AccessToken(ctx)
	if err != nil {
		return nil, err
	}

	req, err := c.client.NewRequest(ctx, http.MethodGet, "merchants/orders/"+url.PathEscape(id), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: order request: %w", ErrAPI, err)
	}
	req.Header.Set("authorization", "Bearer "+tok)

	result := &Order{}
	if _, err := c.client.Do(ctx, req, result); err != nil {
		if status, ok := clients.StatusFromError(err); ok && status == http.StatusUnauthorized {
			logging.Logger(ctx, "spectrocoin").Warn().Str("func", "GetOrder").Msg("access token rejected, evicting")
			c.tokens.Delete(c.cfg.ProjectID)
		}

		return nil, fmt.Errorf("%w: order: %w", ErrAPI, err)
	}

	result.OrderID = strings.TrimSpace(result.OrderID)
	result.Status = strings.TrimSpace(result.Status)

	if _, err := govalidator.ValidateStruct(result); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidOrder, err)
	}

	return result, nil
}
