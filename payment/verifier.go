// Package payment confirms external payment transactions before an order
// is fulfilled.
package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/dongkoo-kang/vibe-shoppingmall/apperr"
)

// AmountTolerance is the permitted gap between the gateway-reported
// amount and the server-computed order total, in currency units.
const AmountTolerance = 1

// Verifier confirms that a gateway transaction is paid and matches the
// expected amount. Any mismatch, gateway error or timeout surfaces as a
// PaymentVerificationFailed app error.
type Verifier interface {
	Verify(ctx context.Context, transactionID string, expectedAmount int64) error
}

// Gateway talks to the real payment provider: it obtains an access token
// with the configured key/secret, looks the transaction up, and accepts
// only status "paid" with a matching amount.
type Gateway struct {
	apiKey    string
	apiSecret string
	baseURL   string
	client    *http.Client
	logger    *zap.Logger
}

func NewGateway(apiKey, apiSecret, baseURL string, timeout time.Duration, logger *zap.Logger) *Gateway {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Gateway{
		apiKey:    apiKey,
		apiSecret: apiSecret,
		baseURL:   baseURL,
		client:    &http.Client{Timeout: timeout},
		logger:    logger,
	}
}

type tokenResponse struct {
	Code     int    `json:"code"`
	Message  string `json:"message"`
	Response struct {
		AccessToken string `json:"access_token"`
	} `json:"response"`
}

type paymentResponse struct {
	Code     int    `json:"code"`
	Message  string `json:"message"`
	Response struct {
		Status string `json:"status"`
		Amount int64  `json:"amount"`
	} `json:"response"`
}

func (g *Gateway) Verify(ctx context.Context, transactionID string, expectedAmount int64) error {
	token, err := g.accessToken(ctx)
	if err != nil {
		g.logger.Warn("payment gateway token request failed", zap.Error(err))
		return apperr.Wrap(apperr.PaymentVerificationFailed, "payment verification failed", err)
	}

	tx, err := g.lookupPayment(ctx, token, transactionID)
	if err != nil {
		g.logger.Warn("payment lookup failed",
			zap.String("transaction_id", transactionID), zap.Error(err))
		return apperr.Wrap(apperr.PaymentVerificationFailed, "payment verification failed", err)
	}

	if tx.Status != "paid" {
		return apperr.New(apperr.PaymentVerificationFailed,
			fmt.Sprintf("payment is not in paid status (status: %s)", tx.Status)).
			With("transaction_id", transactionID)
	}

	if diff := tx.Amount - expectedAmount; diff > AmountTolerance || diff < -AmountTolerance {
		return apperr.New(apperr.PaymentVerificationFailed,
			fmt.Sprintf("paid amount does not match order total (paid: %d, order: %d)",
				tx.Amount, expectedAmount)).
			With("transaction_id", transactionID).
			With("paid_amount", tx.Amount).
			With("order_amount", expectedAmount)
	}

	return nil
}

func (g *Gateway) accessToken(ctx context.Context) (string, error) {
	payload, _ := json.Marshal(map[string]string{
		"imp_key":    g.apiKey,
		"imp_secret": g.apiSecret,
	})

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/users/getToken", bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to reach payment gateway: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	var tr tokenResponse
	if err := json.Unmarshal(body, &tr); err != nil {
		return "", fmt.Errorf("failed to parse gateway token response: %w", err)
	}
	if resp.StatusCode != http.StatusOK || tr.Code != 0 {
		return "", fmt.Errorf("gateway token request rejected (%d): %s", resp.StatusCode, tr.Message)
	}
	return tr.Response.AccessToken, nil
}

type gatewayPayment struct {
	Status string
	Amount int64
}

func (g *Gateway) lookupPayment(ctx context.Context, token, transactionID string) (*gatewayPayment, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"/payments/"+transactionID, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", token)

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to reach payment gateway: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	var pr paymentResponse
	if err := json.Unmarshal(body, &pr); err != nil {
		return nil, fmt.Errorf("failed to parse gateway payment response: %w", err)
	}
	if resp.StatusCode != http.StatusOK || pr.Code != 0 {
		return nil, fmt.Errorf("gateway payment lookup rejected (%d): %s", resp.StatusCode, pr.Message)
	}
	return &gatewayPayment{Status: pr.Response.Status, Amount: pr.Response.Amount}, nil
}

// DenyAll rejects every transaction-bearing order. It is installed when
// gateway credentials are absent, so no environment silently trusts
// client-declared payment state.
type DenyAll struct{}

func (DenyAll) Verify(ctx context.Context, transactionID string, expectedAmount int64) error {
	return apperr.New(apperr.PaymentVerificationFailed,
		"payment gateway is not configured; transaction cannot be verified").
		With("transaction_id", transactionID)
}
