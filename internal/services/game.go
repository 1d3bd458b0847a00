package services

import (
	"context"
	"crypto/rand"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"tonspin-backend/internal/config"
	"tonspin-backend/internal/models"
)

// RoundRecorder persists resolved rounds for the public history feed.
type RoundRecorder interface {
	SaveResolvedRound(ctx context.Context, round *models.ResolvedRound) error
}

// RoundEngine sequences the commit/reveal protocol and the ticket
// settlement chain. It holds no round state of its own; the commitment
// store is the only shared mutable resource.
type RoundEngine struct {
	commitments CommitmentStore
	spent       SpentTicketRegistry
	outcomes    *OutcomeGenerator
	tickets     *TicketService
	transfers   *TransferVerifier
	payouts     PayoutSender
	recorder    RoundRecorder
	broadcaster Broadcaster

	gameWallet     string
	commitmentTTL  time.Duration
	maxEscalations int
}

func NewRoundEngine(
	cfg *config.Config,
	commitments CommitmentStore,
	spent SpentTicketRegistry,
	tickets *TicketService,
	payouts PayoutSender,
	recorder RoundRecorder,
) (*RoundEngine, error) {
	outcomes, err := NewOutcomeGenerator()
	if err != nil {
		return nil, err
	}

	return &RoundEngine{
		commitments:    commitments,
		spent:          spent,
		outcomes:       outcomes,
		tickets:        tickets,
		transfers:      NewTransferVerifier(cfg.GameWalletAddress),
		payouts:        payouts,
		recorder:       recorder,
		gameWallet:     cfg.GameWalletAddress,
		commitmentTTL:  cfg.CommitmentTTL,
		maxEscalations: cfg.MaxEscalations,
	}, nil
}

// SetBroadcaster attaches the live feed after construction; the
// websocket handler needs the engine first.
func (e *RoundEngine) SetBroadcaster(b Broadcaster) {
	e.broadcaster = b
}

// Commit binds the server to a fresh seed before any bet exists and
// hands back only the commitment.
func (e *RoundEngine) Commit(ctx context.Context) (*models.CommitResponse, error) {
	hash, err := e.commitments.Issue(ctx)
	if err != nil {
		return nil, upstreamError("failed to issue commitment", err)
	}

	return &models.CommitResponse{
		CommitmentHash: hash,
		ExpiresIn:      int64(e.commitmentTTL.Seconds()),
	}, nil
}

// Reveal resolves a round. Each step is a hard precondition for the
// next; the consumed commitment is never restored, so a commitment
// buys exactly one resolution attempt.
func (e *RoundEngine) Reveal(ctx context.Context, req *models.RevealRequest) (*models.RevealResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, validationError("%v", err)
	}

	serverSeed, err := e.commitments.Consume(ctx, req.CommitmentHash)
	if err == ErrNotFound {
		return nil, commitmentNotFoundError()
	}
	if err != nil {
		return nil, upstreamError("commitment store unavailable", err)
	}

	// The stored seed must still hash to the published commitment.
	// A mismatch means the store was tampered with, not a bad request.
	if HashSeed(serverSeed) != req.CommitmentHash {
		return nil, integrityError(fmt.Errorf("stored seed does not match commitment %s", req.CommitmentHash))
	}

	if err := e.transfers.Verify(req.TransferProof, req.BetAmount, req.BettorAddress); err != nil {
		return nil, err
	}

	result := e.outcomes.Generate(serverSeed, req.ClientSeed, req.BetAmount)
	roundID := uuid.New().String()

	resp := &models.RevealResponse{
		RoundID:    roundID,
		Reels:      result.Reels,
		Multiplier: result.Multiplier,
		Won:        result.Won,
		Payout:     result.Payout,
		ServerSeed: serverSeed,
	}

	if result.Won {
		ticket, err := e.tickets.Issue(req.BettorAddress, result.Payout, roundID, 0)
		if err != nil {
			return nil, upstreamError("failed to issue win ticket", err)
		}
		resp.Ticket = ticket
	}

	e.recordRound(ctx, roundID, req, serverSeed, result)

	return resp, nil
}

// Redeem settles a ticket: verify, burn, pay. The spent mark lands
// before the payout so a bearer token cannot be cashed twice inside
// its validity window.
func (e *RoundEngine) Redeem(ctx context.Context, ticket string) (*models.RedeemResponse, error) {
	claims, err := e.tickets.Verify(ticket)
	if err != nil {
		return nil, err
	}

	fresh, err := e.spent.MarkSpent(ctx, claims.SpentID())
	if err != nil {
		return nil, upstreamError("spent registry unavailable", err)
	}
	if !fresh {
		return nil, authenticationError("ticket already settled")
	}

	txHash, err := e.payouts.Send(ctx, claims.Subject, claims.Payout)
	if err != nil {
		return nil, upstreamError("payout submission failed", err)
	}

	return &models.RedeemResponse{
		Paid:   true,
		Amount: claims.Payout,
		TxHash: txHash,
	}, nil
}

// Escalate consumes a ticket for one double-or-nothing flip. The draw
// is house randomness, outside the commit-reveal scheme.
func (e *RoundEngine) Escalate(ctx context.Context, req *models.EscalateRequest) (*models.EscalateResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, validationError("%v", err)
	}

	claims, err := e.tickets.Verify(req.Ticket)
	if err != nil {
		return nil, err
	}

	// Cap check precedes the spent mark: a capped ticket stays
	// redeemable.
	if claims.Escalations >= e.maxEscalations {
		return nil, limitError(e.maxEscalations)
	}

	fresh, err := e.spent.MarkSpent(ctx, claims.SpentID())
	if err != nil {
		return nil, upstreamError("spent registry unavailable", err)
	}
	if !fresh {
		return nil, authenticationError("ticket already settled")
	}

	outcome, err := flipCoin()
	if err != nil {
		return nil, upstreamError("randomness source failed", err)
	}

	resp := &models.EscalateResponse{
		Won:         outcome == req.Choice,
		Escalations: claims.Escalations,
		Fairness:    "house",
	}

	if !resp.Won {
		// Voided: the incoming ticket is already marked spent, and no
		// replacement is issued.
		return resp, nil
	}

	newTicket, err := e.tickets.Issue(claims.Subject, claims.Payout*2, claims.RoundID, claims.Escalations+1)
	if err != nil {
		return nil, upstreamError("failed to issue escalated ticket", err)
	}

	resp.NewTicket = newTicket
	resp.NewPayout = claims.Payout * 2
	resp.Escalations = claims.Escalations + 1

	return resp, nil
}

// VerifyOutcome recomputes a round from revealed seeds so players can
// audit fairness without trusting the server.
func (e *RoundEngine) VerifyOutcome(serverSeed, clientSeed string, betAmount int64) *models.RoundResult {
	return e.outcomes.Generate(serverSeed, clientSeed, betAmount)
}

// CommitmentHashFor exposes the commitment definition for audit
// responses.
func (e *RoundEngine) CommitmentHashFor(serverSeed string) string {
	return HashSeed(serverSeed)
}

func (e *RoundEngine) recordRound(ctx context.Context, roundID string, req *models.RevealRequest, serverSeed string, result *models.RoundResult) {
	round := &models.ResolvedRound{
		RoundID:       roundID,
		BettorAddress: req.BettorAddress,
		BetAmount:     req.BetAmount,
		Multiplier:    result.Multiplier,
		Payout:        result.Payout,
		Won:           result.Won,
		ServerSeed:    serverSeed,
		ClientSeed:    req.ClientSeed,
		ResolvedAt:    time.Now(),
	}

	if e.recorder != nil {
		if err := e.recorder.SaveResolvedRound(ctx, round); err != nil {
			log.Printf("Failed to record round %s: %v", roundID, err)
		}
	}

	if e.broadcaster != nil {
		e.broadcaster.BroadcastRound(round)
	}
}

func flipCoin() (models.DoubleUpChoice, error) {
	var b [1]byte
	if _, err := rand.Read(b[:]); err != nil {
		return "", err
	}
	if b[0]&1 == 0 {
		return models.ChoiceHeads, nil
	}
	return models.ChoiceTails, nil
}
