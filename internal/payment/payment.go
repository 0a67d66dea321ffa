// Package payment wraps the Braintree-style gateway. The lifecycle manager
// treats the returned payload opaquely and stores it verbatim on the order.
package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/sda-shop/shop-backend/internal/apperr"
)

// Result is the opaque gateway payload. Success and the transaction amount
// are the only fields the backend ever inspects.
type Result struct {
	Success     bool           `json:"success" bson:"success"`
	Message     string         `json:"message,omitempty" bson:"message,omitempty"`
	Transaction map[string]any `json:"transaction" bson:"transaction"`
}

type Gateway interface {
	ClientToken(ctx context.Context) (string, error)
	Sale(ctx context.Context, amount float64, nonce string) (*Result, error)
}

type Client struct {
	BaseURL    string
	MerchantID string
	PublicKey  string
	PrivateKey string
	HTTP       *http.Client
}

func NewClient(baseURL, merchantID, publicKey, privateKey string) *Client {
	return &Client{
		BaseURL:    baseURL,
		MerchantID: merchantID,
		PublicKey:  publicKey,
		PrivateKey: privateKey,
		HTTP:       &http.Client{Timeout: 15 * time.Second},
	}
}

func (c *Client) ClientToken(ctx context.Context) (string, error) {
	var out struct {
		ClientToken string `json:"clientToken"`
	}
	if err := c.post(ctx, "/client_token", map[string]any{}, &out); err != nil {
		return "", err
	}
	if out.ClientToken == "" {
		return "", apperr.Upstream("braintree token was not generated")
	}
	return out.ClientToken, nil
}

func (c *Client) Sale(ctx context.Context, amount float64, nonce string) (*Result, error) {
	req := map[string]any{
		"amount":             fmt.Sprintf("%.2f", amount),
		"paymentMethodNonce": nonce,
		"idempotencyKey":     uuid.NewString(),
		"options":            map[string]any{"submitForSettlement": true},
	}
	var res Result
	if err := c.post(ctx, "/transactions/sale", req, &res); err != nil {
		return nil, err
	}
	if !res.Success {
		return nil, apperr.Upstream("%s", res.Message)
	}
	return &res, nil
}

func (c *Client) post(ctx context.Context, path string, body, out any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/merchants/"+c.MerchantID+path, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.SetBasicAuth(c.PublicKey, c.PrivateKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return apperr.Upstream("payment gateway unreachable: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 500 {
		return apperr.Upstream("payment gateway responded %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
