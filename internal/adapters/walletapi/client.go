// Package walletapi is the HTTP client of the optional wallet backend.
package walletapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sony/gobreaker"

	"github.com/highgoal215/cryptowallet_service/internal/domain/entities"
	"github.com/highgoal215/cryptowallet_service/pkg/logger"
	"github.com/highgoal215/cryptowallet_service/pkg/metrics"
	"github.com/highgoal215/cryptowallet_service/pkg/retry"
)

// Config represents wallet backend configuration
type Config struct {
	BaseURL    string
	APIKey     string
	Timeout    time.Duration
	MaxRetries int
	RetryDelay time.Duration
}

// Client talks to the wallet backend
type Client struct {
	config         Config
	httpClient     *http.Client
	circuitBreaker *gobreaker.CircuitBreaker
	logger         *logger.Logger
}

// NewClient creates a new wallet backend client
func NewClient(config Config, log *logger.Logger) *Client {
	if config.Timeout == 0 {
		config.Timeout = 15 * time.Second
	}
	if config.BaseURL == "" {
		config.BaseURL = "http://localhost:5000/api"
	}
	if config.MaxRetries == 0 {
		config.MaxRetries = 3
	}
	if config.RetryDelay == 0 {
		config.RetryDelay = 300 * time.Millisecond
	}
	config.BaseURL = strings.TrimRight(config.BaseURL, "/")

	cbSettings := gobreaker.Settings{
		Name:        "WalletAPI",
		MaxRequests: 3,
		Interval:    30 * time.Second,
		Timeout:     20 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		// 4xx answers mean the backend is healthy
		IsSuccessful: func(err error) bool {
			var apiErr *ErrorResponse
			if errors.As(err, &apiErr) {
				return !apiErr.IsServerError()
			}
			return err == nil || errors.Is(err, ErrUnsuccessful)
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			log.Info("Wallet API circuit breaker state changed",
				"name", name,
				"from", from.String(),
				"to", to.String())
		},
	}

	return &Client{
		config:         config,
		httpClient:     &http.Client{Timeout: config.Timeout},
		circuitBreaker: gobreaker.NewCircuitBreaker(cbSettings),
		logger:         log,
	}
}

// CreateWallet provisions a new address for asset
func (c *Client) CreateWallet(ctx context.Context, asset entities.AssetType, name string) (*entities.RemoteWallet, error) {
	var resp WalletResponse
	req := &CreateWalletRequest{AddressType: string(asset), AccountName: name}
	if err := c.call(ctx, "walletcreate", http.MethodPost, "/walletcreate", req, &resp); err != nil {
		return nil, fmt.Errorf("create wallet failed: %w", err)
	}
	if resp.Success != nil && !*resp.Success {
		return nil, fmt.Errorf("create wallet failed: %w: %s", ErrUnsuccessful, resp.Message)
	}
	if resp.Address == "" {
		return nil, fmt.Errorf("create wallet failed: response carries no address")
	}
	return toRemoteWallet(resp.Wallet, asset), nil
}

// ImportWallet derives a wallet from privateKey
func (c *Client) ImportWallet(ctx context.Context, privateKey, name string, asset entities.AssetType) (*entities.RemoteWallet, error) {
	var resp WalletResponse
	req := &ImportWalletRequest{PrivateKey: privateKey, AccountName: name, AddressType: string(asset)}
	if err := c.call(ctx, "importwallet", http.MethodPost, "/importwallet", req, &resp); err != nil {
		return nil, fmt.Errorf("import wallet failed: %w", err)
	}
	if resp.Success != nil && !*resp.Success {
		return nil, fmt.Errorf("import wallet failed: %w: %s", ErrUnsuccessful, resp.Message)
	}
	if resp.Address == "" {
		return nil, fmt.Errorf("import wallet failed: response carries no address")
	}
	return toRemoteWallet(resp.Wallet, asset), nil
}

// ListWallets returns every wallet the backend holds for the caller
func (c *Client) ListWallets(ctx context.Context) ([]entities.RemoteWallet, error) {
	var resp ListWalletsResponse
	if err := c.call(ctx, "wallets", http.MethodGet, "/wallets", nil, &resp); err != nil {
		return nil, fmt.Errorf("list wallets failed: %w", err)
	}
	if !resp.Success {
		return nil, fmt.Errorf("list wallets failed: %w: %s", ErrUnsuccessful, resp.Message)
	}

	out := make([]entities.RemoteWallet, 0, len(resp.Wallets))
	for _, w := range resp.Wallets {
		out = append(out, *toRemoteWallet(w, ""))
	}
	return out, nil
}

// Transfer moves amount of asset between two backend addresses
func (c *Client) Transfer(ctx context.Context, asset entities.AssetType, fromAddress, toAddress string, amount decimal.Decimal) error {
	var resp TransferResponse
	req := &TransferRequest{FromAddress: fromAddress, ToAddress: toAddress, Amount: amount.String()}
	endpoint := "/transfer/" + url.PathEscape(string(asset))
	if err := c.call(ctx, "transfer", http.MethodPost, endpoint, req, &resp); err != nil {
		return fmt.Errorf("transfer failed: %w", err)
	}
	if !resp.Success {
		return fmt.Errorf("transfer failed: %w: %s", ErrUnsuccessful, resp.Message)
	}
	return nil
}

func toRemoteWallet(w Wallet, fallback entities.AssetType) *entities.RemoteWallet {
	asset := entities.AssetType(strings.ToUpper(strings.TrimSpace(w.AddressType)))
	if asset == "" {
		asset = fallback
	}
	return &entities.RemoteWallet{
		Address:   w.Address,
		Name:      w.AccountName,
		AssetType: asset,
		Balance:   w.Balance,
	}
}

// call runs one request through the breaker and records the outcome.
// Only reads are retried: a POST that timed out may still have been applied.
func (c *Client) call(ctx context.Context, name, method, endpoint string, body, response interface{}) error {
	var err error
	if method == http.MethodGet {
		err = c.doRequestWithRetry(ctx, method, endpoint, body, response)
	} else {
		err = c.doRequestOnce(ctx, method, endpoint, body, response)
	}
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	metrics.WalletAPIRequestsTotal.WithLabelValues(name, outcome).Inc()
	return err
}

// doRequestWithRetry performs HTTP request with retry logic
func (c *Client) doRequestWithRetry(ctx context.Context, method, endpoint string, body, response interface{}) error {
	retryConfig := retry.RetryConfig{
		MaxAttempts: c.config.MaxRetries,
		BaseDelay:   c.config.RetryDelay,
		MaxDelay:    5 * time.Second,
		Multiplier:  2.0,
		Jitter:      0.2,
	}

	retryableFunc := func() error {
		_, err := c.circuitBreaker.Execute(func() (interface{}, error) {
			return nil, c.doRequest(ctx, method, endpoint, body, response)
		})
		return err
	}

	return retry.WithExponentialBackoff(ctx, retryConfig, retryableFunc, isRetryable)
}

// doRequestOnce performs a single HTTP request through the circuit breaker
func (c *Client) doRequestOnce(ctx context.Context, method, endpoint string, body, response interface{}) error {
	_, err := c.circuitBreaker.Execute(func() (interface{}, error) {
		return nil, c.doRequest(ctx, method, endpoint, body, response)
	})
	return err
}

func isRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var apiErr *ErrorResponse
	if errors.As(err, &apiErr) {
		return apiErr.IsServerError() || apiErr.IsRateLimited()
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return true
	}
	errStr := err.Error()
	return strings.Contains(errStr, "connection refused") ||
		strings.Contains(errStr, "timeout")
}

// doRequest performs an HTTP request to the wallet backend
func (c *Client) doRequest(ctx context.Context, method, endpoint string, body, response interface{}) error {
	fullURL := c.config.BaseURL + endpoint

	var reqBody io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		reqBody = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, fullURL, reqBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.config.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.config.APIKey)
	}

	c.logger.Debug("Sending wallet API request", "method", method, "url", fullURL)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	c.logger.Debug("Received wallet API response", "status_code", resp.StatusCode, "body_size", len(respBody))

	if resp.StatusCode >= 400 {
		errResp := ErrorResponse{StatusCode: resp.StatusCode}
		if err := json.Unmarshal(respBody, &errResp); err != nil || errResp.Message == "" {
			errResp.Message = strings.TrimSpace(string(respBody))
			if errResp.Message == "" {
				errResp.Message = http.StatusText(resp.StatusCode)
			}
		}
		errResp.StatusCode = resp.StatusCode
		return &errResp
	}

	if response != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, response); err != nil {
			return fmt.Errorf("failed to unmarshal response: %w", err)
		}
	}

	return nil
}
