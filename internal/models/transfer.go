package models

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strconv"
)

// TransferMessage is the decoded form of a transfer proof: the three
// facts the round protocol needs from a ledger-recorded transfer, plus
// enough metadata to display it. Amounts are integer nanotons; the wire
// form is a string so browser clients don't lose precision.
type TransferMessage struct {
	TxHash      string `json:"tx_hash"`
	Lt          int64  `json:"lt"`
	Op          string `json:"op"`
	Source      string `json:"source"`
	Destination string `json:"destination"`
	Amount      string `json:"amount"`
}

const OpTransfer = "transfer"

func (m *TransferMessage) AmountNano() (int64, error) {
	n, err := strconv.ParseInt(m.Amount, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("amount is not an integer: %q", m.Amount)
	}
	return n, nil
}

// DecodeTransferProof parses the opaque base64 proof the wallet
// collaborator hands over. It does no field validation; that is the
// verifier's job.
func DecodeTransferProof(proof string) (*TransferMessage, error) {
	raw, err := base64.StdEncoding.DecodeString(proof)
	if err != nil {
		return nil, fmt.Errorf("proof is not valid base64: %v", err)
	}

	var msg TransferMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		return nil, fmt.Errorf("proof payload is not a transfer message: %v", err)
	}

	return &msg, nil
}

// EncodeTransferProof is the inverse, used by tests and tooling.
func EncodeTransferProof(msg *TransferMessage) (string, error) {
	raw, err := json.Marshal(msg)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(raw), nil
}
