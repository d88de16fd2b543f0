package walletapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/highgoal215/cryptowallet_service/internal/domain/entities"
	"github.com/highgoal215/cryptowallet_service/pkg/logger"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(Config{
		BaseURL:    srv.URL + "/api",
		Timeout:    2 * time.Second,
		MaxRetries: 3,
		RetryDelay: time.Millisecond,
	}, logger.NewNop())
}

func TestClient_CreateWallet(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/walletcreate", r.URL.Path)

		var req CreateWalletRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "ETH", req.AddressType)
		assert.Equal(t, "Savings", req.AccountName)

		_, _ = w.Write([]byte(`{"address":"0xabc","accountName":"Savings","addressType":"ETH","balance":"0.5"}`))
	})

	wallet, err := client.CreateWallet(context.Background(), entities.AssetETH, "Savings")
	require.NoError(t, err)
	assert.Equal(t, "0xabc", wallet.Address)
	assert.Equal(t, entities.AssetETH, wallet.AssetType)
	assert.True(t, decimal.RequireFromString("0.5").Equal(wallet.Balance))
}

func TestClient_ImportWallet_Unsuccessful(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"success":false,"message":"bad key"}`))
	})

	_, err := client.ImportWallet(context.Background(), "deadbeef", "Imported", entities.AssetBTC)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnsuccessful)
}

func TestClient_ListWallets(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/wallets", r.URL.Path)
		_, _ = w.Write([]byte(`{"success":true,"wallets":[
			{"address":"bc1one","accountName":"Main","addressType":"btc","balance":1.25},
			{"address":"0xtwo","accountName":"Trade","addressType":"TRX","balance":"300"}
		]}`))
	})

	wallets, err := client.ListWallets(context.Background())
	require.NoError(t, err)
	require.Len(t, wallets, 2)
	assert.Equal(t, entities.AssetBTC, wallets[0].AssetType)
	assert.True(t, decimal.RequireFromString("1.25").Equal(wallets[0].Balance))
	assert.Equal(t, entities.AssetTRX, wallets[1].AssetType)
}

func TestClient_Transfer(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/transfer/ETH", r.URL.Path)

		var req TransferRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "0xfrom", req.FromAddress)
		assert.Equal(t, "0xto", req.ToAddress)
		assert.Equal(t, "1.5", req.Amount)

		_, _ = w.Write([]byte(`{"success":true}`))
	})

	err := client.Transfer(context.Background(), entities.AssetETH, "0xfrom", "0xto", decimal.RequireFromString("1.5"))
	assert.NoError(t, err)
}

func TestClient_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			_, _ = w.Write([]byte(`{"message":"upstream down"}`))
			return
		}
		_, _ = w.Write([]byte(`{"success":true,"wallets":[]}`))
	})

	wallets, err := client.ListWallets(context.Background())
	require.NoError(t, err)
	assert.Empty(t, wallets)
	assert.Equal(t, int32(3), calls.Load())
}

func TestClient_TransferIsNotRetried(t *testing.T) {
	tests := []struct {
		name    string
		handler func(w http.ResponseWriter)
	}{
		{
			name: "bad gateway",
			handler: func(w http.ResponseWriter) {
				w.WriteHeader(http.StatusBadGateway)
				_, _ = w.Write([]byte(`{"message":"upstream down"}`))
			},
		},
		{
			name: "service unavailable",
			handler: func(w http.ResponseWriter) {
				w.WriteHeader(http.StatusServiceUnavailable)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls atomic.Int32
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				calls.Add(1)
				tt.handler(w)
			})

			err := client.Transfer(context.Background(), entities.AssetBTC, "a", "b", decimal.NewFromInt(1))
			require.Error(t, err)
			assert.Equal(t, int32(1), calls.Load())
		})
	}
}

func TestClient_CreateWalletIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := client.CreateWallet(context.Background(), entities.AssetETH, "Savings")
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestClient_DoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"code":"INVALID","message":"bad address"}`))
	})

	err := client.Transfer(context.Background(), entities.AssetBTC, "a", "b", decimal.NewFromInt(1))
	require.Error(t, err)

	var apiErr *ErrorResponse
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.Equal(t, "bad address", apiErr.Message)
	assert.Equal(t, int32(1), calls.Load())
}

func TestErrorResponse_Classification(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		server      bool
		rateLimited bool
		notFound    bool
	}{
		{"server error", 503, true, false, false},
		{"rate limited", 429, false, true, false},
		{"not found", 404, false, false, true},
		{"bad request", 400, false, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := &ErrorResponse{StatusCode: tt.status}
			assert.Equal(t, tt.server, e.IsServerError())
			assert.Equal(t, tt.rateLimited, e.IsRateLimited())
			assert.Equal(t, tt.notFound, e.IsNotFound())
		})
	}
}
