package models

import "time"

// Symbol is one reel face. The set and its weights are part of the
// fairness contract (see services.OutcomeVersion) and must not change
// without a version bump.
type Symbol string

const (
	SymbolCherry  Symbol = "cherry"
	SymbolLemon   Symbol = "lemon"
	SymbolClover  Symbol = "clover"
	SymbolBell    Symbol = "bell"
	SymbolDiamond Symbol = "diamond"
	SymbolSeven   Symbol = "seven"
)

// RoundResult is fully determined by (serverSeed, clientSeed). Reels is
// column-major: Reels[reel][row].
type RoundResult struct {
	Reels      [][]Symbol `json:"reels"`
	Multiplier int64      `json:"multiplier"`
	Payout     int64      `json:"payout"`
	Won        bool       `json:"won"`
	Version    string     `json:"version"`
}

// ResolvedRound is what gets recorded and broadcast after a reveal.
// The server seed is public at this point by design.
type ResolvedRound struct {
	RoundID       string    `json:"round_id"`
	BettorAddress string    `json:"bettor_address"`
	BetAmount     int64     `json:"bet_amount"`
	Multiplier    int64     `json:"multiplier"`
	Payout        int64     `json:"payout"`
	Won           bool      `json:"won"`
	ServerSeed    string    `json:"server_seed"`
	ClientSeed    string    `json:"client_seed"`
	ResolvedAt    time.Time `json:"resolved_at"`
}

type CommitResponse struct {
	CommitmentHash string `json:"commitment_hash"`
	ExpiresIn      int64  `json:"expires_in"`
}

type RevealRequest struct {
	CommitmentHash string `json:"commitment_hash" binding:"required"`
	ClientSeed     string `json:"client_seed" binding:"required"`
	BetAmount      int64  `json:"bet_amount" binding:"required"`
	BettorAddress  string `json:"bettor_address" binding:"required"`
	TransferProof  string `json:"transfer_proof" binding:"required"`
}

type RevealResponse struct {
	RoundID    string     `json:"round_id"`
	Reels      [][]Symbol `json:"reels"`
	Multiplier int64      `json:"multiplier"`
	Won        bool       `json:"won"`
	Payout     int64      `json:"payout"`
	ServerSeed string     `json:"server_seed"`
	Ticket     string     `json:"ticket,omitempty"`
}

type RedeemRequest struct {
	Ticket string `json:"ticket" binding:"required"`
}

type RedeemResponse struct {
	Paid   bool   `json:"paid"`
	Amount int64  `json:"amount"`
	TxHash string `json:"tx_hash"`
}

// DoubleUpChoice is the player's call for one escalation flip.
type DoubleUpChoice string

const (
	ChoiceHeads DoubleUpChoice = "heads"
	ChoiceTails DoubleUpChoice = "tails"
)

type EscalateRequest struct {
	Ticket string         `json:"ticket" binding:"required"`
	Choice DoubleUpChoice `json:"choice" binding:"required"`
}

type EscalateResponse struct {
	Won         bool   `json:"won"`
	NewTicket   string `json:"new_ticket,omitempty"`
	NewPayout   int64  `json:"new_payout"`
	Escalations int    `json:"escalations"`
	// Escalation draws are house randomness, not commit-reveal.
	Fairness string `json:"fairness"`
}

type VerifyRequest struct {
	ServerSeed string `json:"server_seed" binding:"required"`
	ClientSeed string `json:"client_seed" binding:"required"`
}
