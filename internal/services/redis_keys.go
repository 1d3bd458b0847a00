package services

import "time"

const (
	KeyCommitment     = "commitment:%s"
	KeySpentTicket    = "ticket:spent:%s"
	KeyResolvedRound  = "round:%s"
	KeyResolvedRounds = "rounds:resolved"
	KeyRateLimit      = "ratelimit:%s:%s"

	TTLResolvedRound = 7 * 24 * time.Hour

	// Resolved rounds kept for the public history feed.
	ResolvedHistorySize = 100
)
