package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"tonspin-backend/internal/config"
)

// TicketClaims is the payload of a win ticket: a bearer claim on an
// owed payout. Validity is entirely self-contained in the signature and
// expiry; the spent registry adds the replay guard on top.
type TicketClaims struct {
	Payout      int64  `json:"payout"`
	RoundID     string `json:"round_id"`
	Escalations int    `json:"escalations"`
	jwt.RegisteredClaims
}

// SpentID identifies one link of an escalation chain. Marking it spent
// invalidates the exact ticket that was presented, superseded or not.
func (c *TicketClaims) SpentID() string {
	return fmt.Sprintf("%s:%d", c.RoundID, c.Escalations)
}

type TicketService struct {
	secret   []byte
	issuer   string
	audience string
	ttl      time.Duration
}

func NewTicketService(cfg *config.Config) *TicketService {
	return &TicketService{
		secret:   []byte(cfg.TicketSecret),
		issuer:   cfg.TicketIssuer,
		audience: cfg.TicketAudience,
		ttl:      cfg.TicketTTL,
	}
}

// Issue mints a signed ticket for subject over payout. Expiry is
// unconditionally now + TTL.
func (s *TicketService) Issue(subject string, payout int64, roundID string, escalations int) (string, error) {
	now := time.Now()

	claims := &TicketClaims{
		Payout:      payout,
		RoundID:     roundID,
		Escalations: escalations,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    s.issuer,
			Audience:  jwt.ClaimStrings{s.audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
			ID:        uuid.New().String(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign ticket: %v", err)
	}

	return signed, nil
}

// Verify checks signature, signing method, issuer, audience, and
// expiry. Every failure comes back as an authentication error with a
// stable reason; no partially trusted claims escape.
func (s *TicketService) Verify(ticket string) (*TicketClaims, error) {
	claims := &TicketClaims{}

	_, err := jwt.ParseWithClaims(ticket, claims, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.issuer),
		jwt.WithAudience(s.audience),
		jwt.WithExpirationRequired(),
	)

	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, authenticationError("ticket expired")
		case errors.Is(err, jwt.ErrTokenInvalidAudience):
			return nil, authenticationError("ticket audience mismatch")
		case errors.Is(err, jwt.ErrTokenInvalidIssuer):
			return nil, authenticationError("ticket issuer mismatch")
		default:
			return nil, authenticationError("invalid ticket signature")
		}
	}

	if claims.Payout <= 0 {
		return nil, authenticationError("ticket carries no payout")
	}
	if claims.RoundID == "" {
		return nil, authenticationError("ticket missing round id")
	}

	return claims, nil
}
