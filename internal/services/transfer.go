package services

import (
	"fmt"

	"tonspin-backend/internal/models"
)

// TransferVerifier checks that a wallet-supplied transfer proof matches
// the bet being revealed. It is a pure predicate: no side effects, no
// spent-marking — double-submission of the underlying transfer is the
// ledger's concern.
type TransferVerifier struct {
	gameWallet string
}

func NewTransferVerifier(gameWallet string) *TransferVerifier {
	return &TransferVerifier{gameWallet: gameWallet}
}

// Verify decodes the proof and checks, in order: operation type,
// sender, exact amount, recipient. The returned error carries the
// specific rejection reason.
func (v *TransferVerifier) Verify(proof string, expectedAmount int64, expectedSender string) error {
	msg, err := models.DecodeTransferProof(proof)
	if err != nil {
		return invalidTransactionError(err.Error())
	}

	if msg.Op != models.OpTransfer {
		return invalidTransactionError(fmt.Sprintf("not a transfer operation: %q", msg.Op))
	}

	if msg.Source != expectedSender {
		return invalidTransactionError(fmt.Sprintf("sender mismatch: got %s", msg.Source))
	}

	amount, err := msg.AmountNano()
	if err != nil {
		return invalidTransactionError(err.Error())
	}
	if amount != expectedAmount {
		return invalidTransactionError(fmt.Sprintf("amount mismatch: expected %d, got %d", expectedAmount, amount))
	}

	if msg.Destination != v.gameWallet {
		return invalidTransactionError(fmt.Sprintf("recipient mismatch: got %s", msg.Destination))
	}

	return nil
}
