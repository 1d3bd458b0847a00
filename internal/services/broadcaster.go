package services

import "tonspin-backend/internal/models"

type Broadcaster interface {
	BroadcastRound(round *models.ResolvedRound)
}
