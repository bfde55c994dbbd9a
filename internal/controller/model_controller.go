// Package controller implements the gin request handlers for the model
// training and scoring API, following the request-bind/service-call/JSON
// envelope pattern the rest of this project's controllers use.
package controller

import (
	"errors"
	"math"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"knlm-go/internal/corpus"
	"knlm-go/internal/lm"
)

// ModelController exposes training and scoring operations over HTTP.
type ModelController struct {
	registry *corpus.Registry
	logger   *zap.Logger
}

// NewModelController builds a controller backed by the given session
// registry.
func NewModelController(registry *corpus.Registry, logger *zap.Logger) *ModelController {
	return &ModelController{registry: registry, logger: logger}
}

// CreateSessionRequest starts a new training session.
type CreateSessionRequest struct {
	Order int  `json:"order" binding:"required"`
	Dedup bool `json:"dedup"`
}

// CreateSessionResponse reports the new session's id.
type CreateSessionResponse struct {
	SessionID string `json:"session_id"`
}

func (mc *ModelController) CreateSession(c *gin.Context) {
	var request CreateSessionRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		mc.logger.Error("invalid create session payload", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid request payload",
			"details": err.Error(),
		})
		return
	}

	session, err := mc.registry.Create(request.Order, request.Dedup)
	if err != nil {
		mc.logger.Error("failed to create session", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "failed to create session",
			"details": err.Error(),
		})
		return
	}

	mc.logger.Info("session created",
		zap.String("session_id", session.ID.String()),
		zap.Int("order", request.Order))

	c.JSON(http.StatusOK, CreateSessionResponse{SessionID: session.ID.String()})
}

// TrainRequest submits one token sequence for training.
type TrainRequest struct {
	SessionID string   `json:"session_id" binding:"required"`
	Sequence  []uint32 `json:"sequence" binding:"required"`
}

func (mc *ModelController) Train(c *gin.Context) {
	var request TrainRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		mc.logger.Error("invalid train payload", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid request payload",
			"details": err.Error(),
		})
		return
	}

	session, err := mc.registry.Get(request.SessionID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"error":   "session not found",
			"details": err.Error(),
		})
		return
	}

	if err := session.Train(request.Sequence); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, lm.ErrCapacityOverflow) || errors.Is(err, lm.ErrAlreadyOptimized) {
			status = http.StatusBadRequest
		}
		mc.logger.Error("failed to train sequence",
			zap.String("session_id", request.SessionID),
			zap.Error(err))
		c.JSON(status, gin.H{
			"error":   "failed to train sequence",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, session.Stats())
}

// SessionRequest names a session by id; used by endpoints that take no
// further parameters.
type SessionRequest struct {
	SessionID string `json:"session_id" binding:"required"`
}

func (mc *ModelController) Optimize(c *gin.Context) {
	var request SessionRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid request payload",
			"details": err.Error(),
		})
		return
	}

	session, err := mc.registry.Get(request.SessionID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"error":   "session not found",
			"details": err.Error(),
		})
		return
	}

	if err := session.Optimize(); err != nil {
		mc.logger.Error("failed to optimize session",
			zap.String("session_id", request.SessionID),
			zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "failed to optimize session",
			"details": err.Error(),
		})
		return
	}

	if err := mc.registry.Save(request.SessionID); err != nil {
		mc.logger.Error("failed to persist session after optimize",
			zap.String("session_id", request.SessionID),
			zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "optimized but failed to persist session",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, session.Stats())
}

func (mc *ModelController) Stats(c *gin.Context) {
	id := c.Param("sessionID")
	session, err := mc.registry.Get(id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"error":   "session not found",
			"details": err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, session.Stats())
}

func (mc *ModelController) ListSessions(c *gin.Context) {
	ids, err := mc.registry.List()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "failed to list sessions",
			"details": err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{"session_ids": ids})
}

// ScoreRequest submits a sequence to evaluate against a trained model.
// MinValue floors every reported log-likelihood; 0 or omitted means -100.
type ScoreRequest struct {
	SessionID string   `json:"session_id" binding:"required"`
	Sequence  []uint32 `json:"sequence" binding:"required"`
	MinValue  float64  `json:"min_value"`
}

// ScoreResponse reports a sequence's total and per-token log-likelihood.
type ScoreResponse struct {
	TotalLogLikelihood float64   `json:"total_log_likelihood"`
	PerTokenLogLikelihood []float64 `json:"per_token_log_likelihood"`
}

func (mc *ModelController) Score(c *gin.Context) {
	var request ScoreRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid request payload",
			"details": err.Error(),
		})
		return
	}

	session, err := mc.registry.Get(request.SessionID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"error":   "session not found",
			"details": err.Error(),
		})
		return
	}

	// JSON cannot carry -Inf, so every reported value is floored.
	minValue := request.MinValue
	if minValue == 0 {
		minValue = -100
	}

	total, err := session.Model().EvaluateLLSent(request.Sequence, minValue)
	if err != nil {
		mc.logger.Error("failed to score sequence",
			zap.String("session_id", request.SessionID),
			zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "failed to score sequence",
			"details": err.Error(),
		})
		return
	}

	perToken, err := session.Model().EvaluateLLEachWord(request.Sequence)
	if err != nil {
		mc.logger.Error("failed to score sequence per-token",
			zap.String("session_id", request.SessionID),
			zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "failed to score sequence",
			"details": err.Error(),
		})
		return
	}
	for i, ll := range perToken {
		perToken[i] = math.Max(ll, minValue)
	}

	c.JSON(http.StatusOK, ScoreResponse{
		TotalLogLikelihood:    total,
		PerTokenLogLikelihood: perToken,
	})
}

// PredictRequest asks for the full next-token distribution following a
// history of tokens.
type PredictRequest struct {
	SessionID string   `json:"session_id" binding:"required"`
	History   []uint32 `json:"history"`
}

// PredictResponse carries the predicted next-token probability
// distribution and, as a convenience, its entropy.
type PredictResponse struct {
	Probabilities []float64 `json:"probabilities"`
	Entropy       float64   `json:"entropy"`
}

func (mc *ModelController) Predict(c *gin.Context) {
	var request PredictRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid request payload",
			"details": err.Error(),
		})
		return
	}

	session, err := mc.registry.Get(request.SessionID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"error":   "session not found",
			"details": err.Error(),
		})
		return
	}

	probs, err := session.Model().PredictNext(request.History)
	if err != nil {
		mc.logger.Error("failed to predict next token",
			zap.String("session_id", request.SessionID),
			zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "failed to predict next token",
			"details": err.Error(),
		})
		return
	}

	entropy, err := session.Model().BranchingEntropy(request.History)
	if err != nil {
		mc.logger.Error("failed to compute branching entropy",
			zap.String("session_id", request.SessionID),
			zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "failed to compute branching entropy",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, PredictResponse{Probabilities: probs, Entropy: entropy})
}
