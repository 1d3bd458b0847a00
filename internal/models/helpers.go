package models

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

const (
	MinBetNano int64 = 100_000_000       // 0.1 TON
	MaxBetNano int64 = 1_000_000_000_000 // 1000 TON
)

func (r *RevealRequest) Validate() error {
	if len(r.CommitmentHash) != 64 {
		return fmt.Errorf("commitment hash must be 64 hex characters")
	}
	if _, err := hex.DecodeString(r.CommitmentHash); err != nil {
		return fmt.Errorf("commitment hash must be hex encoded")
	}
	if len(r.ClientSeed) < 1 || len(r.ClientSeed) > 128 {
		return fmt.Errorf("client seed must be 1-128 characters")
	}
	if r.BetAmount < MinBetNano {
		return fmt.Errorf("minimum bet is %d nanotons", MinBetNano)
	}
	if r.BetAmount > MaxBetNano {
		return fmt.Errorf("maximum bet is %d nanotons", MaxBetNano)
	}
	if r.BettorAddress == "" {
		return fmt.Errorf("bettor address is required")
	}
	return nil
}

func (r *EscalateRequest) Validate() error {
	switch r.Choice {
	case ChoiceHeads, ChoiceTails:
		return nil
	default:
		return fmt.Errorf("choice must be %q or %q", ChoiceHeads, ChoiceTails)
	}
}

// GenerateClientSeed is offered to clients that don't bring their own.
func GenerateClientSeed() (string, error) {
	bytes := make([]byte, 16)
	if _, err := rand.Read(bytes); err != nil {
		return "", fmt.Errorf("failed to generate client seed: %v", err)
	}
	return hex.EncodeToString(bytes), nil
}
