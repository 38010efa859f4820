package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/spreadfi/spread/src/controller/usecase"
	"github.com/spreadfi/spread/src/logger"
	swapdomain "github.com/spreadfi/spread/src/swap/domain"
)

// Handler binds usecase + logger
type Handler struct {
	controller *usecase.Controller
	logger     *logger.Logger
}

func NewHandler(c *usecase.Controller, l *logger.Logger) *Handler {
	return &Handler{controller: c, logger: l}
}

func (h *Handler) RegisterRoutes(r *gin.Engine) {
	swap := r.Group("/swap")
	swap.POST("/session", h.NewSession)
	swap.POST("/estimate", h.Estimate)
	swap.POST("/estimates", h.Estimates)
	swap.POST("/execute", h.Execute)
	swap.GET("/state/:session", h.State)
	swap.POST("/reset/:session", h.Reset)
	swap.GET("/history/:account", h.History)
}

// statusFor maps the error taxonomy to HTTP codes. Anything outside the
// taxonomy is an internal error.
func statusFor(err error) int {
	switch {
	case errors.Is(err, swapdomain.ErrSwapInProgress):
		return http.StatusConflict
	case errors.Is(err, swapdomain.ErrUnsupportedPair),
		errors.Is(err, swapdomain.ErrNoRouteFound),
		errors.Is(err, swapdomain.ErrSlippageExceeded),
		errors.Is(err, swapdomain.ErrApprovalRejected),
		errors.Is(err, swapdomain.ErrSwapRejected),
		errors.Is(err, swapdomain.ErrAllStrategiesExhausted):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// NewSession godoc
//
//	@Summary		Create a swap session
//	@Description	Create a new idle swap session
//	@Tags			swap
//	@Produce		json
//	@Success		200	{object}	SwapStateResponse
//	@Router			/swap/session [post]
func (h *Handler) NewSession(c *gin.Context) {
	st := h.controller.NewSession()
	c.JSON(http.StatusOK, fromStateDomain(st))
}

// Estimate godoc
//
//	@Summary		Estimate a swap
//	@Description	Side-effect-free quote for the best strategy
//	@Tags			swap
//	@Accept			json
//	@Produce		json
//	@Param			request	body		SwapRequestBody	true	"Request body"
//	@Success		200	{object}	EstimateResponse
//	@Failure		400	{object}	object{error=string}
//	@Failure		500	{object}	object{error=string}
//	@Router			/swap/estimate [post]
func (h *Handler) Estimate(c *gin.Context) {
	ctx := c.Request.Context()
	var body SwapRequestBody
	if err := c.ShouldBindJSON(&body); err != nil {
		h.logger.Errorf("Estimate err: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	est, delta, err := h.controller.Estimate(ctx, body.SessionID, body.ToRequest())
	if err != nil {
		h.logger.Errorf("Estimate err: %v", err)
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, fromEstimateDomain(est, delta))
}

// Estimates godoc
//
//	@Summary		Estimate across all strategies
//	@Description	Display-only quotes from every candidate strategy
//	@Tags			swap
//	@Accept			json
//	@Produce		json
//	@Param			request	body		SwapRequestBody	true	"Request body"
//	@Success		200	{array}		EstimateResponse
//	@Failure		400	{object}	object{error=string}
//	@Router			/swap/estimates [post]
func (h *Handler) Estimates(c *gin.Context) {
	ctx := c.Request.Context()
	var body SwapRequestBody
	if err := c.ShouldBindJSON(&body); err != nil {
		h.logger.Errorf("Estimates err: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	ests, err := h.controller.Estimates(ctx, body.ToRequest())
	if err != nil {
		h.logger.Errorf("Estimates err: %v", err)
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	out := make([]EstimateResponse, 0, len(ests))
	for i := range ests {
		out = append(out, fromEstimateDomain(&ests[i], decimal.Zero))
	}
	c.JSON(http.StatusOK, out)
}

// Execute godoc
//
//	@Summary		Execute a swap
//	@Description	Run approval then execution for the session
//	@Tags			swap
//	@Accept			json
//	@Produce		json
//	@Param			request	body		SwapRequestBody	true	"Request body"
//	@Success		200	{object}	SwapStateResponse
//	@Failure		400	{object}	object{error=string}
//	@Failure		409	{object}	object{error=string}
//	@Failure		500	{object}	object{error=string}
//	@Router			/swap/execute [post]
func (h *Handler) Execute(c *gin.Context) {
	ctx := c.Request.Context()
	var body SwapRequestBody
	if err := c.ShouldBindJSON(&body); err != nil {
		h.logger.Errorf("Execute err: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	st, err := h.controller.Execute(ctx, body.SessionID, body.ToRequest())
	if err != nil {
		h.logger.Errorf("Execute err: %v", err)
		c.JSON(statusFor(err), gin.H{"error": err.Error(), "state": fromStateDomain(st)})
		return
	}
	c.JSON(http.StatusOK, fromStateDomain(st))
}

// State godoc
//
//	@Summary		Get session state
//	@Description	Snapshot of the session's state machine
//	@Tags			swap
//	@Produce		json
//	@Success		200	{object}	SwapStateResponse
//	@Failure		404	{object}	object{error=string}
//	@Router			/swap/state/:session [get]
func (h *Handler) State(c *gin.Context) {
	st, ok := h.controller.State(c.Param("session"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown session"})
		return
	}
	c.JSON(http.StatusOK, fromStateDomain(st))
}

// Reset godoc
//
//	@Summary		Reset a session
//	@Description	Return the session to idle, discarding in-flight data
//	@Tags			swap
//	@Produce		json
//	@Success		200	{object}	SwapStateResponse
//	@Failure		404	{object}	object{error=string}
//	@Router			/swap/reset/:session [post]
func (h *Handler) Reset(c *gin.Context) {
	st, err := h.controller.Reset(c.Param("session"))
	if err != nil {
		h.logger.Errorf("Reset err: %v", err)
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, fromStateDomain(st))
}

// History godoc
//
//	@Summary		List swap history
//	@Description	Most recent swaps for an account, newest first
//	@Tags			swap
//	@Produce		json
//	@Param			limit	query		int	false	"Max records"
//	@Success		200	{array}		SwapRecordResponse
//	@Failure		500	{object}	object{error=string}
//	@Router			/swap/history/:account [get]
func (h *Handler) History(c *gin.Context) {
	ctx := c.Request.Context()
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	recs, err := h.controller.History(ctx, c.Param("account"), limit)
	if err != nil {
		h.logger.Errorf("History err: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	out := make([]SwapRecordResponse, 0, len(recs))
	for _, rec := range recs {
		out = append(out, fromRecordDomain(rec))
	}
	c.JSON(http.StatusOK, out)
}
