package adaptor

import (
	"encoding/json"
	"net/http"

	"cleaning-booking/internal/dto/request"
	"cleaning-booking/internal/usecase"
	"cleaning-booking/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type WalletHandler struct {
	service usecase.WalletService
	log     *zap.Logger
}

func NewWalletHandler(service usecase.WalletService, log *zap.Logger) *WalletHandler {
	return &WalletHandler{
		service: service,
		log:     log.With(zap.String("handler", "wallet")),
	}
}

// GetWallet handles GET /api/wallet
func (h *WalletHandler) GetWallet(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentActor(w, r)
	if !ok {
		return
	}

	wallet, err := h.service.GetWallet(r.Context(), actor)
	if err != nil {
		handleServiceError(w, h.log, r, err, "get wallet")
		return
	}

	utils.ResponseSuccess(w, "success", wallet)
}

// ListTransactions handles GET /api/wallet/transactions
func (h *WalletHandler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentActor(w, r)
	if !ok {
		return
	}

	page, perPage := paginationFrom(r)
	txs, err := h.service.ListTransactions(r.Context(), actor, &request.PaginatedRequest{Page: page, PerPage: perPage})
	if err != nil {
		handleServiceError(w, h.log, r, err, "list wallet transactions")
		return
	}

	utils.ResponseSuccess(w, "success", txs)
}

// PurchaseCredits handles POST /api/wallet/purchase
func (h *WalletHandler) PurchaseCredits(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentActor(w, r)
	if !ok {
		return
	}

	var req request.CreditPurchaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	if validationErrors := utils.ValidateStruct(req); len(validationErrors) > 0 {
		utils.ResponseBadRequest(w, "Validation failed", validationErrors)
		return
	}

	payment, err := h.service.InitiateCreditPurchase(r.Context(), actor, &req)
	if err != nil {
		handleServiceError(w, h.log, r, err, "initiate credit purchase")
		return
	}

	utils.ResponseCreated(w, "success", payment)
}

// PurchaseVoucher handles POST /api/vouchers/{id}/purchase
func (h *WalletHandler) PurchaseVoucher(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentActor(w, r)
	if !ok {
		return
	}

	payment, err := h.service.InitiateVoucherPurchase(r.Context(), actor, chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, h.log, r, err, "initiate voucher purchase")
		return
	}

	utils.ResponseCreated(w, "success", payment)
}

// PayWithCredits handles POST /api/bookings/{id}/pay-with-credits
func (h *WalletHandler) PayWithCredits(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentActor(w, r)
	if !ok {
		return
	}

	booking, err := h.service.PayWithCredits(r.Context(), actor, chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, h.log, r, err, "pay with credits")
		return
	}

	utils.ResponseSuccess(w, "Booking paid", booking)
}

// SubmitEFT handles POST /api/wallet/eft
func (h *WalletHandler) SubmitEFT(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentActor(w, r)
	if !ok {
		return
	}

	var req request.EFTSubmissionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	if validationErrors := utils.ValidateStruct(req); len(validationErrors) > 0 {
		utils.ResponseBadRequest(w, "Validation failed", validationErrors)
		return
	}

	sub, err := h.service.SubmitEFT(r.Context(), actor, &req)
	if err != nil {
		handleServiceError(w, h.log, r, err, "submit EFT")
		return
	}

	utils.ResponseCreated(w, "EFT submitted for review", sub)
}

// ==================== ADMIN METHODS ====================

// ListPendingEFT handles GET /api/admin/eft (admin only)
func (h *WalletHandler) ListPendingEFT(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentActor(w, r)
	if !ok {
		return
	}

	page, perPage := paginationFrom(r)
	subs, err := h.service.ListPendingEFT(r.Context(), actor, &request.PaginatedRequest{Page: page, PerPage: perPage})
	if err != nil {
		handleServiceError(w, h.log, r, err, "list pending EFT")
		return
	}

	utils.ResponseSuccess(w, "success", subs)
}

// VerifyEFT handles PUT /api/admin/eft/{id}/verify (admin only)
func (h *WalletHandler) VerifyEFT(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentActor(w, r)
	if !ok {
		return
	}

	sub, err := h.service.VerifyEFT(r.Context(), actor, chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, h.log, r, err, "verify EFT")
		return
	}

	utils.ResponseSuccess(w, "EFT verified", sub)
}

// RejectEFT handles PUT /api/admin/eft/{id}/reject (admin only)
func (h *WalletHandler) RejectEFT(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentActor(w, r)
	if !ok {
		return
	}

	var req request.RejectEFTRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	if validationErrors := utils.ValidateStruct(req); len(validationErrors) > 0 {
		utils.ResponseBadRequest(w, "Validation failed", validationErrors)
		return
	}

	sub, err := h.service.RejectEFT(r.Context(), actor, chi.URLParam(r, "id"), &req)
	if err != nil {
		handleServiceError(w, h.log, r, err, "reject EFT")
		return
	}

	utils.ResponseSuccess(w, "EFT rejected", sub)
}
