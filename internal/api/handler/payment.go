package handler

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/qs3c/uslugi_go_server/internal/api/middleware"
	"github.com/qs3c/uslugi_go_server/internal/model/dto"
	"github.com/qs3c/uslugi_go_server/internal/pkg/response"
	"github.com/qs3c/uslugi_go_server/internal/service"
)

type PaymentHandler struct {
	promotionService *service.PromotionService
}

func NewPaymentHandler(promotionService *service.PromotionService) *PaymentHandler {
	return &PaymentHandler{
		promotionService: promotionService,
	}
}

// Promote creates a pending promotion payment.
// POST /api/v1/payments/promote
func (h *PaymentHandler) Promote(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.AuthError(c, "")
		return
	}

	var req dto.PromoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, err.Error())
		return
	}

	resp, err := h.promotionService.Purchase(userID, &req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrMasterOnly):
			response.PermissionError(c, err.Error())
		case errors.Is(err, service.ErrUnknownPackage), errors.Is(err, service.ErrUnknownBank):
			response.ParamError(c, err.Error())
		case errors.Is(err, service.ErrActivePromotionExists):
			response.ConflictError(c, err.Error())
		default:
			response.ServerError(c, "")
		}
		return
	}

	response.Success(c, resp)
}

// Confirm marks a pending payment paid and activates the promotion.
// POST /api/v1/payments/:id/confirm
func (h *PaymentHandler) Confirm(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.AuthError(c, "")
		return
	}

	paymentID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.ParamError(c, "invalid payment id")
		return
	}

	info, err := h.promotionService.Confirm(userID, paymentID)
	if err != nil {
		if errors.Is(err, service.ErrPaymentNotFound) {
			response.NotFoundError(c, err.Error())
			return
		}
		response.ServerError(c, "")
		return
	}

	response.SuccessWithMessage(c, "payment confirmed, promotion active", info)
}

// ExtraRequest charges a client for one extra request.
// POST /api/v1/payments/extra-request
func (h *PaymentHandler) ExtraRequest(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.AuthError(c, "")
		return
	}

	var req dto.ExtraRequestPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, err.Error())
		return
	}

	info, err := h.promotionService.PurchaseExtraRequest(userID, req.Bank)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrClientOnly):
			response.PermissionError(c, err.Error())
		case errors.Is(err, service.ErrUnknownBank):
			response.ParamError(c, err.Error())
		default:
			response.ServerError(c, "")
		}
		return
	}

	response.Success(c, info)
}

// List returns the caller's payment history.
// GET /api/v1/payments
func (h *PaymentHandler) List(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.AuthError(c, "")
		return
	}

	payments, err := h.promotionService.ListPayments(userID)
	if err != nil {
		response.ServerError(c, "")
		return
	}

	response.Success(c, payments)
}
