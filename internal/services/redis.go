package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"tonspin-backend/internal/config"
	"tonspin-backend/internal/models"
)

// RedisService backs the commitment store, the spent-ticket registry,
// the resolved-round history, and rate limiting. It is the only shared
// mutable state across nodes.
type RedisService struct {
	client        *redis.Client
	commitmentTTL time.Duration
	spentTTL      time.Duration
}

func NewRedisService(cfg *config.Config) (*RedisService, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisURL,
		Password: cfg.RedisPass,
		DB:       cfg.RedisDB,
	})

	if _, err := client.Ping(context.Background()).Result(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %v", err)
	}

	return &RedisService{
		client:        client,
		commitmentTTL: cfg.CommitmentTTL,
		// Replay guard must outlive any ticket it guards against.
		spentTTL: 2 * cfg.TicketTTL,
	}, nil
}

func (s *RedisService) Close() error {
	return s.client.Close()
}

func (s *RedisService) Issue(ctx context.Context) (string, error) {
	secret, hash, err := newServerSeed()
	if err != nil {
		return "", err
	}

	key := fmt.Sprintf(KeyCommitment, hash)
	ok, err := s.client.SetNX(ctx, key, secret, s.commitmentTTL).Result()
	if err != nil {
		return "", fmt.Errorf("failed to store commitment: %v", err)
	}
	if !ok {
		// 256-bit collision; practically unreachable.
		return "", fmt.Errorf("commitment already exists")
	}

	return hash, nil
}

// Consume reads and deletes in one round trip. GETDEL guarantees at
// most one caller sees the secret under concurrent reveals.
func (s *RedisService) Consume(ctx context.Context, commitmentHash string) (string, error) {
	key := fmt.Sprintf(KeyCommitment, commitmentHash)

	secret, err := s.client.GetDel(ctx, key).Result()
	if err == redis.Nil {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to consume commitment: %v", err)
	}

	return secret, nil
}

func (s *RedisService) MarkSpent(ctx context.Context, ticketID string) (bool, error) {
	key := fmt.Sprintf(KeySpentTicket, ticketID)

	ok, err := s.client.SetNX(ctx, key, "1", s.spentTTL).Result()
	if err != nil {
		return false, fmt.Errorf("failed to mark ticket spent: %v", err)
	}
	return ok, nil
}

func (s *RedisService) SaveResolvedRound(ctx context.Context, round *models.ResolvedRound) error {
	data, err := json.Marshal(round)
	if err != nil {
		return fmt.Errorf("failed to marshal resolved round: %v", err)
	}

	key := fmt.Sprintf(KeyResolvedRound, round.RoundID)
	if err := s.client.Set(ctx, key, data, TTLResolvedRound).Err(); err != nil {
		return fmt.Errorf("failed to save resolved round: %v", err)
	}

	if err := s.client.ZAdd(ctx, KeyResolvedRounds, redis.Z{
		Score:  float64(round.ResolvedAt.Unix()),
		Member: round.RoundID,
	}).Err(); err != nil {
		return fmt.Errorf("failed to index resolved round: %v", err)
	}

	s.client.ZRemRangeByRank(ctx, KeyResolvedRounds, 0, -int64(ResolvedHistorySize)-1)

	return nil
}

func (s *RedisService) GetRecentRounds(ctx context.Context, limit int64) ([]*models.ResolvedRound, error) {
	if limit <= 0 || limit > ResolvedHistorySize {
		limit = 50
	}

	roundIDs, err := s.client.ZRevRange(ctx, KeyResolvedRounds, 0, limit-1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get round IDs: %v", err)
	}

	var rounds []*models.ResolvedRound
	for _, roundID := range roundIDs {
		key := fmt.Sprintf(KeyResolvedRound, roundID)

		data, err := s.client.Get(ctx, key).Result()
		if err != nil {
			continue
		}

		var round models.ResolvedRound
		if err := json.Unmarshal([]byte(data), &round); err != nil {
			continue
		}

		rounds = append(rounds, &round)
	}

	return rounds, nil
}

func (s *RedisService) CheckRateLimit(ctx context.Context, clientIP, action string, limit int, window time.Duration) (bool, error) {
	key := fmt.Sprintf(KeyRateLimit, clientIP, action)

	count, err := s.client.Incr(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check rate limit: %v", err)
	}

	if count == 1 {
		s.client.Expire(ctx, key, window)
	}

	return count <= int64(limit), nil
}

func (s *RedisService) DeleteCommitment(ctx context.Context, commitmentHash string) error {
	key := fmt.Sprintf(KeyCommitment, commitmentHash)
	return s.client.Del(ctx, key).Err()
}

func (s *RedisService) DeleteResolvedRound(ctx context.Context, roundID string) error {
	s.client.ZRem(ctx, KeyResolvedRounds, roundID)
	key := fmt.Sprintf(KeyResolvedRound, roundID)
	return s.client.Del(ctx, key).Err()
}
