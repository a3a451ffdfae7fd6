package aggregator

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPClientExchangePublicToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/item/public_token/exchange", r.URL.Path)

		var req exchangeRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "public-abc", req.PublicToken)
		assert.Equal(t, "s3cret", req.Secret)

		_ = json.NewEncoder(w).Encode(exchangeResponse{AccessToken: "access-xyz"})
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL, "s3cret")
	token, err := client.ExchangePublicToken(context.Background(), "public-abc")
	require.NoError(t, err)
	assert.Equal(t, "access-xyz", token)
}

func TestHTTPClientExchangeFailsOnErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad token", http.StatusBadRequest)
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL, "s3cret")
	_, err := client.ExchangePublicToken(context.Background(), "public-abc")
	require.Error(t, err)
}

func TestHTTPClientFetchAccounts(t *testing.T) {
	balance := 99.50
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/accounts/get", r.URL.Path)

		var req accountsRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "access-xyz", req.AccessToken)

		_ = json.NewEncoder(w).Encode(accountsResponse{Accounts: []LinkedAccount{
			{AccountID: "acc-1", Name: "Checking", Type: "depository", Subtype: "checking", Balance: &balance},
		}})
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL, "s3cret")
	accounts, err := client.FetchAccounts(context.Background(), "access-xyz")
	require.NoError(t, err)
	require.Len(t, accounts, 1)
	assert.Equal(t, "acc-1", accounts[0].AccountID)
	require.NotNil(t, accounts[0].Balance)
	assert.InDelta(t, 99.50, *accounts[0].Balance, 0.001)
}

func TestSandboxReturnsFixedPair(t *testing.T) {
	sandbox := NewSandbox()

	token, err := sandbox.ExchangePublicToken(context.Background(), "anything")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	accounts, err := sandbox.FetchAccounts(context.Background(), token)
	require.NoError(t, err)
	require.Len(t, accounts, 2)
	assert.Equal(t, "checking", accounts[0].Subtype)
	assert.Equal(t, "savings", accounts[1].Subtype)
	assert.InDelta(t, 2850.00, *accounts[0].Balance, 0.001)
	assert.InDelta(t, 4375.00, *accounts[1].Balance, 0.001)
}
