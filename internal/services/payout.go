package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"tonspin-backend/internal/config"
)

// PayoutSender is the ledger-write collaborator: "send amount to
// address" as an opaque effect. Transaction construction and
// confirmation live behind it.
type PayoutSender interface {
	Send(ctx context.Context, to string, amount int64) (txHash string, err error)
}

// LedgerPayoutSender posts payout orders to the configured ledger
// service.
type LedgerPayoutSender struct {
	endpoint string
	apiKey   string
	asset    string
	client   *http.Client
}

func NewLedgerPayoutSender(cfg *config.Config) *LedgerPayoutSender {
	return &LedgerPayoutSender{
		endpoint: cfg.LedgerEndpoint,
		apiKey:   cfg.LedgerAPIKey,
		asset:    cfg.AssetID,
		client:   &http.Client{Timeout: 15 * time.Second},
	}
}

type payoutOrder struct {
	To     string `json:"to"`
	Amount int64  `json:"amount"`
	Asset  string `json:"asset"`
}

type payoutReceipt struct {
	TxHash string `json:"tx_hash"`
}

func (p *LedgerPayoutSender) Send(ctx context.Context, to string, amount int64) (string, error) {
	body, err := json.Marshal(payoutOrder{To: to, Amount: amount, Asset: p.asset})
	if err != nil {
		return "", fmt.Errorf("failed to marshal payout order: %v", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint+"/v1/transfers", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.apiKey)

	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("ledger request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return "", fmt.Errorf("ledger returned status %d", resp.StatusCode)
	}

	var receipt payoutReceipt
	if err := json.NewDecoder(resp.Body).Decode(&receipt); err != nil {
		return "", fmt.Errorf("failed to decode ledger receipt: %v", err)
	}
	if receipt.TxHash == "" {
		return "", fmt.Errorf("ledger receipt missing tx hash")
	}

	return receipt.TxHash, nil
}
