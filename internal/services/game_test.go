package services_test

import (
	"context"
	"fmt"
	"strconv"
	"testing"
	"time"

	"tonspin-backend/internal/config"
	"tonspin-backend/internal/models"
	"tonspin-backend/internal/services"
)

type fakePayout struct {
	calls      int
	lastTo     string
	lastAmount int64
}

func (f *fakePayout) Send(ctx context.Context, to string, amount int64) (string, error) {
	f.calls++
	f.lastTo = to
	f.lastAmount = amount
	return fmt.Sprintf("tx_fake_%d", f.calls), nil
}

func newTestEngine(t *testing.T, cfg *config.Config) (*services.RoundEngine, *services.TicketService, *fakePayout) {
	t.Helper()

	commitments := services.NewMemoryCommitmentStore(cfg.CommitmentTTL)
	spent := services.NewMemorySpentTicketRegistry(2 * time.Minute)
	tickets := services.NewTicketService(cfg)
	payout := &fakePayout{}

	engine, err := services.NewRoundEngine(cfg, commitments, spent, tickets, payout, nil)
	if err != nil {
		t.Fatalf("Failed to create engine: %v", err)
	}

	return engine, tickets, payout
}

func revealProof(t *testing.T, amount int64) string {
	return buildProof(t, &models.TransferMessage{
		TxHash:      "e2e-hash",
		Lt:          7,
		Op:          models.OpTransfer,
		Source:      playerAddr,
		Destination: gameWallet,
		Amount:      strconv.FormatInt(amount, 10),
	})
}

func TestCommitRevealRoundtrip(t *testing.T) {
	cfg := testConfig()
	engine, tickets, _ := newTestEngine(t, cfg)
	ctx := context.Background()

	commit, err := engine.Commit(ctx)
	if err != nil {
		t.Fatalf("Failed to commit: %v", err)
	}
	if len(commit.CommitmentHash) != 64 {
		t.Errorf("Commitment hash should be 64 hex chars, got %d", len(commit.CommitmentHash))
	}
	if commit.ExpiresIn != int64(cfg.CommitmentTTL.Seconds()) {
		t.Errorf("Expected expires_in %d, got %d", int64(cfg.CommitmentTTL.Seconds()), commit.ExpiresIn)
	}

	const bet = int64(10_000_000_000) // 10 TON
	resp, err := engine.Reveal(ctx, &models.RevealRequest{
		CommitmentHash: commit.CommitmentHash,
		ClientSeed:     "abc",
		BetAmount:      bet,
		BettorAddress:  playerAddr,
		TransferProof:  revealProof(t, bet),
	})
	if err != nil {
		t.Fatalf("Failed to reveal: %v", err)
	}

	// Seed is revealed win or lose, and must match the commitment.
	if services.HashSeed(resp.ServerSeed) != commit.CommitmentHash {
		t.Error("Revealed seed does not hash to the commitment")
	}

	// The player's audit recomputation must reproduce the outcome.
	recomputed := engine.VerifyOutcome(resp.ServerSeed, "abc", bet)
	if recomputed.Multiplier != resp.Multiplier || recomputed.Payout != resp.Payout {
		t.Errorf("Audit recompute mismatch: %d/%d vs %d/%d",
			recomputed.Multiplier, recomputed.Payout, resp.Multiplier, resp.Payout)
	}

	if resp.Won {
		if resp.Ticket == "" {
			t.Fatal("Winning reveal must carry a ticket")
		}
		claims, err := tickets.Verify(resp.Ticket)
		if err != nil {
			t.Fatalf("Issued ticket does not verify: %v", err)
		}
		if claims.Payout != resp.Payout || claims.Subject != playerAddr || claims.Escalations != 0 {
			t.Errorf("Ticket claims mismatch: %+v", claims)
		}
	} else if resp.Ticket != "" {
		t.Error("Losing reveal must not carry a ticket")
	}
}

func TestRevealConsumedCommitment(t *testing.T) {
	engine, _, _ := newTestEngine(t, testConfig())
	ctx := context.Background()

	commit, _ := engine.Commit(ctx)

	const bet = int64(1_000_000_000)
	req := &models.RevealRequest{
		CommitmentHash: commit.CommitmentHash,
		ClientSeed:     "abc",
		BetAmount:      bet,
		BettorAddress:  playerAddr,
		TransferProof:  revealProof(t, bet),
	}

	if _, err := engine.Reveal(ctx, req); err != nil {
		t.Fatalf("First reveal failed: %v", err)
	}

	_, err := engine.Reveal(ctx, req)
	if err == nil {
		t.Fatal("Second reveal of the same commitment should fail")
	}
	if code := services.AsError(err).Code; code != services.CodeCommitmentNotFound {
		t.Errorf("Expected %s, got %s", services.CodeCommitmentNotFound, code)
	}
}

// A rejected transfer still burns the commitment: one bet attempt per
// commitment.
func TestRevealBadTransferBurnsCommitment(t *testing.T) {
	engine, _, _ := newTestEngine(t, testConfig())
	ctx := context.Background()

	commit, _ := engine.Commit(ctx)

	const bet = int64(1_000_000_000)
	_, err := engine.Reveal(ctx, &models.RevealRequest{
		CommitmentHash: commit.CommitmentHash,
		ClientSeed:     "abc",
		BetAmount:      bet,
		BettorAddress:  playerAddr,
		TransferProof:  revealProof(t, bet+1), // amount mismatch
	})
	if err == nil {
		t.Fatal("Mismatched transfer should be rejected")
	}
	if code := services.AsError(err).Code; code != services.CodeInvalidTransaction {
		t.Errorf("Expected %s, got %s", services.CodeInvalidTransaction, code)
	}

	_, err = engine.Reveal(ctx, &models.RevealRequest{
		CommitmentHash: commit.CommitmentHash,
		ClientSeed:     "abc",
		BetAmount:      bet,
		BettorAddress:  playerAddr,
		TransferProof:  revealProof(t, bet),
	})
	if code := services.AsError(err).Code; code != services.CodeCommitmentNotFound {
		t.Errorf("Commitment should not be restored after a bad transfer, got %v", err)
	}
}

func TestRevealValidation(t *testing.T) {
	engine, _, _ := newTestEngine(t, testConfig())

	_, err := engine.Reveal(context.Background(), &models.RevealRequest{
		CommitmentHash: "short",
		ClientSeed:     "abc",
		BetAmount:      1_000_000_000,
		BettorAddress:  playerAddr,
		TransferProof:  "x",
	})
	if code := services.AsError(err).Code; code != services.CodeValidation {
		t.Errorf("Expected %s, got %v", services.CodeValidation, err)
	}
}

func TestRedeem(t *testing.T) {
	engine, tickets, payout := newTestEngine(t, testConfig())
	ctx := context.Background()

	ticket, _ := tickets.Issue(playerAddr, 4_000_000_000, "round-r1", 0)

	resp, err := engine.Redeem(ctx, ticket)
	if err != nil {
		t.Fatalf("Failed to redeem: %v", err)
	}
	if !resp.Paid || resp.Amount != 4_000_000_000 || resp.TxHash == "" {
		t.Errorf("Unexpected redeem response: %+v", resp)
	}
	if payout.calls != 1 || payout.lastTo != playerAddr || payout.lastAmount != 4_000_000_000 {
		t.Errorf("Payout collaborator called incorrectly: %+v", payout)
	}

	// Bearer replay: same ticket again inside its validity window.
	_, err = engine.Redeem(ctx, ticket)
	if code := services.AsError(err).Code; code != services.CodeAuthentication {
		t.Errorf("Replayed ticket should fail authentication, got %v", err)
	}
	if payout.calls != 1 {
		t.Errorf("Payout should not run twice, got %d calls", payout.calls)
	}
}

func TestRedeemExpiredTicket(t *testing.T) {
	cfg := testConfig()
	cfg.TicketTTL = -time.Minute
	engine, tickets, payout := newTestEngine(t, cfg)

	ticket, _ := tickets.Issue(playerAddr, 1_000_000_000, "round-r2", 0)

	_, err := engine.Redeem(context.Background(), ticket)
	if code := services.AsError(err).Code; code != services.CodeAuthentication {
		t.Errorf("Expired ticket should fail authentication, got %v", err)
	}
	if payout.calls != 0 {
		t.Error("Payout must not be invoked for an expired ticket")
	}
}

func TestEscalateLimit(t *testing.T) {
	cfg := testConfig()
	engine, tickets, payout := newTestEngine(t, cfg)
	ctx := context.Background()

	ticket, _ := tickets.Issue(playerAddr, 1_000_000_000, "round-e1", cfg.MaxEscalations)

	_, err := engine.Escalate(ctx, &models.EscalateRequest{Ticket: ticket, Choice: models.ChoiceHeads})
	if code := services.AsError(err).Code; code != services.CodeLimitReached {
		t.Fatalf("Expected %s, got %v", services.CodeLimitReached, err)
	}

	// Hitting the cap must not burn the ticket; it stays redeemable.
	if _, err := engine.Redeem(ctx, ticket); err != nil {
		t.Errorf("Capped ticket should still redeem: %v", err)
	}
	if payout.calls != 1 {
		t.Errorf("Expected one payout, got %d", payout.calls)
	}
}

func TestEscalateChain(t *testing.T) {
	cfg := testConfig()
	engine, tickets, _ := newTestEngine(t, cfg)
	ctx := context.Background()

	const basePayout = int64(1_000_000_000)

	currentPayout := basePayout
	escalations := 0
	round := 0
	ticket, _ := tickets.Issue(playerAddr, currentPayout, "round-c0", 0)

	for attempt := 0; escalations < cfg.MaxEscalations; attempt++ {
		if attempt > 500 {
			t.Fatal("Coin flip never produced enough wins; randomness source broken")
		}

		resp, err := engine.Escalate(ctx, &models.EscalateRequest{
			Ticket: ticket,
			Choice: models.ChoiceHeads,
		})
		if err != nil {
			t.Fatalf("Escalate failed: %v", err)
		}

		if resp.Won {
			if resp.NewPayout != currentPayout*2 {
				t.Fatalf("Win should double payout: %d -> %d", currentPayout, resp.NewPayout)
			}
			if resp.Escalations != escalations+1 {
				t.Fatalf("Expected escalation count %d, got %d", escalations+1, resp.Escalations)
			}

			claims, err := tickets.Verify(resp.NewTicket)
			if err != nil {
				t.Fatalf("Escalated ticket does not verify: %v", err)
			}
			if claims.Payout != resp.NewPayout || claims.Escalations != resp.Escalations {
				t.Fatalf("Escalated claims mismatch: %+v", claims)
			}

			currentPayout = resp.NewPayout
			escalations = resp.Escalations
			ticket = resp.NewTicket
			continue
		}

		// Voided: the old ticket must be dead for good.
		if resp.NewTicket != "" {
			t.Fatal("Lost escalation must not issue a ticket")
		}
		if _, err := engine.Redeem(ctx, ticket); services.AsError(err).Code != services.CodeAuthentication {
			t.Fatalf("Voided ticket should not redeem, got %v", err)
		}

		// Start a fresh chain at the same height to keep going.
		round++
		currentPayout = basePayout << escalations
		ticket, _ = tickets.Issue(playerAddr, currentPayout, fmt.Sprintf("round-c%d", round), escalations)
	}

	if currentPayout != basePayout<<cfg.MaxEscalations {
		t.Errorf("Payout after %d wins should be %d, got %d",
			cfg.MaxEscalations, basePayout<<cfg.MaxEscalations, currentPayout)
	}

	// One past the cap.
	_, err := engine.Escalate(ctx, &models.EscalateRequest{Ticket: ticket, Choice: models.ChoiceHeads})
	if code := services.AsError(err).Code; code != services.CodeLimitReached {
		t.Errorf("Expected %s at the cap, got %v", services.CodeLimitReached, err)
	}
}

// A won escalation supersedes the old ticket; redeeming the superseded
// bearer token must fail even though its signature is still valid.
func TestEscalateSupersededTicket(t *testing.T) {
	engine, tickets, _ := newTestEngine(t, testConfig())
	ctx := context.Background()

	for attempt := 0; attempt < 500; attempt++ {
		ticket, _ := tickets.Issue(playerAddr, 1_000_000_000, fmt.Sprintf("round-s%d", attempt), 0)

		resp, err := engine.Escalate(ctx, &models.EscalateRequest{
			Ticket: ticket,
			Choice: models.ChoiceTails,
		})
		if err != nil {
			t.Fatalf("Escalate failed: %v", err)
		}
		if !resp.Won {
			continue
		}

		if _, err := engine.Redeem(ctx, ticket); services.AsError(err).Code != services.CodeAuthentication {
			t.Fatalf("Superseded ticket should not redeem, got %v", err)
		}
		if _, err := engine.Redeem(ctx, resp.NewTicket); err != nil {
			t.Fatalf("Replacement ticket should redeem: %v", err)
		}
		return
	}

	t.Fatal("Coin flip never produced a win; randomness source broken")
}

func TestEscalateValidation(t *testing.T) {
	engine, tickets, _ := newTestEngine(t, testConfig())

	ticket, _ := tickets.Issue(playerAddr, 1_000_000_000, "round-v1", 0)

	_, err := engine.Escalate(context.Background(), &models.EscalateRequest{
		Ticket: ticket,
		Choice: "edge",
	})
	if code := services.AsError(err).Code; code != services.CodeValidation {
		t.Errorf("Expected %s, got %v", services.CodeValidation, err)
	}
}
