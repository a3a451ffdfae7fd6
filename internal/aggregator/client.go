// Package aggregator talks to the external banking-data aggregator that
// links bank and brokerage accounts and reports their balances.
package aggregator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// LinkedAccount describes one account returned by the aggregator linking flow.
type LinkedAccount struct {
	AccountID       string   `json:"account_id"`
	Name            string   `json:"name"`
	Type            string   `json:"type"`
	Subtype         string   `json:"subtype"`
	Balance         *float64 `json:"balance"`
	InstitutionName string   `json:"institution_name"`
	InstitutionID   string   `json:"institution_id"`
	Mask            string   `json:"mask"`
}

// Client is the capability contract the account manager depends on. The
// interactive consent flow happens in the front end; the backend only
// exchanges the resulting public token and fetches account descriptors.
type Client interface {
	ExchangePublicToken(ctx context.Context, publicToken string) (accessToken string, err error)
	FetchAccounts(ctx context.Context, accessToken string) ([]LinkedAccount, error)
}

// HTTPClient implements Client against the aggregator REST API.
type HTTPClient struct {
	baseURL    string
	secret     string
	httpClient *http.Client
}

// NewHTTPClient constructs a new client.
func NewHTTPClient(baseURL, secret string) *HTTPClient {
	return &HTTPClient{
		baseURL: baseURL,
		secret:  secret,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

type exchangeRequest struct {
	PublicToken string `json:"public_token"`
	Secret      string `json:"secret"`
}

type exchangeResponse struct {
	AccessToken string `json:"access_token"`
}

// ExchangePublicToken swaps the public token from the consent flow for a
// long-lived access token.
func (c *HTTPClient) ExchangePublicToken(ctx context.Context, publicToken string) (string, error) {
	body, err := json.Marshal(exchangeRequest{PublicToken: publicToken, Secret: c.secret})
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, fmt.Sprintf("%s/item/public_token/exchange", c.baseURL), bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode >= 400 {
		return "", fmt.Errorf("aggregator exchange returned status %d", resp.StatusCode)
	}
	var out exchangeResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", err
	}
	return out.AccessToken, nil
}

type accountsRequest struct {
	AccessToken string `json:"access_token"`
	Secret      string `json:"secret"`
}

type accountsResponse struct {
	Accounts []LinkedAccount `json:"accounts"`
}

// FetchAccounts retrieves the descriptors for all accounts linked under the
// given access token.
func (c *HTTPClient) FetchAccounts(ctx context.Context, accessToken string) ([]LinkedAccount, error) {
	body, err := json.Marshal(accountsRequest{AccessToken: accessToken, Secret: c.secret})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, fmt.Sprintf("%s/accounts/get", c.baseURL), bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("aggregator accounts returned status %d", resp.StatusCode)
	}
	var out accountsResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, err
	}
	return out.Accounts, nil
}
