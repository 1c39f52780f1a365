package adaptor

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"cleaning-booking/internal/dto/request"
	"cleaning-booking/internal/usecase"
	"cleaning-booking/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type DiscountHandler struct {
	service usecase.DiscountService
	log     *zap.Logger
}

func NewDiscountHandler(service usecase.DiscountService, log *zap.Logger) *DiscountHandler {
	return &DiscountHandler{
		service: service,
		log:     log.With(zap.String("handler", "discount")),
	}
}

// ValidateCode handles POST /api/discounts/validate (public)
func (h *DiscountHandler) ValidateCode(w http.ResponseWriter, r *http.Request) {
	var req request.ValidateCodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	if validationErrors := utils.ValidateStruct(req); len(validationErrors) > 0 {
		utils.ResponseBadRequest(w, "Validation failed", validationErrors)
		return
	}

	verdict, err := h.service.ValidateCode(r.Context(), &req)
	if err != nil {
		handleServiceError(w, h.log, r, err, "validate discount code")
		return
	}

	if !verdict.Accepted {
		utils.ResponseJSON(w, http.StatusOK, false, verdict.Message, verdict, nil)
		return
	}
	utils.ResponseSuccess(w, "Discount code applied", verdict)
}

// ListCatalog handles GET /api/vouchers/catalog (public)
func (h *DiscountHandler) ListCatalog(w http.ResponseWriter, r *http.Request) {
	vouchers, err := h.service.ListCatalog(r.Context())
	if err != nil {
		handleServiceError(w, h.log, r, err, "list voucher catalog")
		return
	}

	utils.ResponseSuccess(w, "success", vouchers)
}

// ListVouchers handles GET /api/vouchers
func (h *DiscountHandler) ListVouchers(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentActor(w, r)
	if !ok {
		return
	}

	vouchers, err := h.service.ListVouchers(r.Context(), actor)
	if err != nil {
		handleServiceError(w, h.log, r, err, "list vouchers")
		return
	}

	utils.ResponseSuccess(w, "success", vouchers)
}

// RedeemVoucher handles POST /api/vouchers/{id}/redeem
func (h *DiscountHandler) RedeemVoucher(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentActor(w, r)
	if !ok {
		return
	}

	var req request.RedeemVoucherRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	if validationErrors := utils.ValidateStruct(req); len(validationErrors) > 0 {
		utils.ResponseBadRequest(w, "Validation failed", validationErrors)
		return
	}

	result, err := h.service.RedeemVoucher(r.Context(), actor, chi.URLParam(r, "id"), &req)
	if err != nil {
		handleServiceError(w, h.log, r, err, "redeem voucher")
		return
	}

	utils.ResponseSuccess(w, result.Message, result)
}
