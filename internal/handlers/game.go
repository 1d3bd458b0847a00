package handlers

import (
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"tonspin-backend/internal/models"
	"tonspin-backend/internal/services"
)

type GameHandler struct {
	engine       *services.RoundEngine
	redisService *services.RedisService
}

func NewGameHandler(engine *services.RoundEngine, redisService *services.RedisService) *GameHandler {
	return &GameHandler{
		engine:       engine,
		redisService: redisService,
	}
}

// respondError maps the service error taxonomy onto the wire format.
// Wrapped internals are logged here and never sent to the caller.
func respondError(c *gin.Context, err error) {
	se := services.AsError(err)
	if se.Err != nil {
		log.Printf("%s: %v", se.Code, se.Err)
	}

	c.JSON(se.Status, gin.H{
		"success": false,
		"error": gin.H{
			"code":    se.Code,
			"message": se.Message,
		},
	})
}

func (h *GameHandler) Commit(c *gin.Context) {
	resp, err := h.engine.Commit(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":         true,
		"commitment_hash": resp.CommitmentHash,
		"expires_in":      resp.ExpiresIn,
	})
}

func (h *GameHandler) Reveal(c *gin.Context) {
	var req models.RevealRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    services.CodeValidation,
				"message": err.Error(),
			},
		})
		return
	}

	resp, err := h.engine.Reveal(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"round":   resp,
	})
}

func (h *GameHandler) Redeem(c *gin.Context) {
	var req models.RedeemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    services.CodeValidation,
				"message": err.Error(),
			},
		})
		return
	}

	resp, err := h.engine.Redeem(c.Request.Context(), req.Ticket)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"result":  resp,
	})
}

func (h *GameHandler) Escalate(c *gin.Context) {
	var req models.EscalateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    services.CodeValidation,
				"message": err.Error(),
			},
		})
		return
	}

	resp, err := h.engine.Escalate(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"result":  resp,
	})
}

// VerifyFairness recomputes a round from revealed seeds. Bet amount is
// optional; with zero the response still carries reels and multiplier.
func (h *GameHandler) VerifyFairness(c *gin.Context) {
	var req models.VerifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    services.CodeValidation,
				"message": err.Error(),
			},
		})
		return
	}

	result := h.engine.VerifyOutcome(req.ServerSeed, req.ClientSeed, 0)

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"verification": gin.H{
			"commitment_hash": h.engine.CommitmentHashFor(req.ServerSeed),
			"reels":           result.Reels,
			"multiplier":      result.Multiplier,
			"version":         result.Version,
			"server_seed":     req.ServerSeed,
			"client_seed":     req.ClientSeed,
		},
	})
}

func (h *GameHandler) GetRecentRounds(c *gin.Context) {
	limitStr := c.DefaultQuery("limit", "50")
	limit, err := strconv.ParseInt(limitStr, 10, 64)
	if err != nil || limit <= 0 || limit > 100 {
		limit = 50
	}

	var rounds []*models.ResolvedRound
	if h.redisService != nil {
		rounds, err = h.redisService.GetRecentRounds(c.Request.Context(), limit)
		if err != nil {
			respondError(c, err)
			return
		}
	}

	var response []gin.H
	for _, round := range rounds {
		response = append(response, gin.H{
			"round_id":    round.RoundID,
			"bet_amount":  round.BetAmount,
			"multiplier":  round.Multiplier,
			"payout":      round.Payout,
			"won":         round.Won,
			"resolved_at": round.ResolvedAt,
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"rounds":  response,
		"count":   len(response),
	})
}
