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

type CleanerHandler struct {
	service usecase.CleanerService
	log     *zap.Logger
}

func NewCleanerHandler(service usecase.CleanerService, log *zap.Logger) *CleanerHandler {
	return &CleanerHandler{
		service: service,
		log:     log.With(zap.String("handler", "cleaner")),
	}
}

// ListJobs handles GET /api/cleaner/jobs
func (h *CleanerHandler) ListJobs(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentActor(w, r)
	if !ok {
		return
	}

	page, perPage := paginationFrom(r)
	jobs, err := h.service.ListJobs(r.Context(), actor, &request.PaginatedRequest{Page: page, PerPage: perPage})
	if err != nil {
		handleServiceError(w, h.log, r, err, "list cleaner jobs")
		return
	}

	utils.ResponseSuccess(w, "success", jobs)
}

// Accept handles PUT /api/cleaner/jobs/{id}/accept
func (h *CleanerHandler) Accept(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentActor(w, r)
	if !ok {
		return
	}

	job, err := h.service.Accept(r.Context(), actor, chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, h.log, r, err, "accept job")
		return
	}

	utils.ResponseSuccess(w, "Job accepted", job)
}

// Decline handles PUT /api/cleaner/jobs/{id}/decline. The reason is optional.
func (h *CleanerHandler) Decline(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentActor(w, r)
	if !ok {
		return
	}

	var req request.DeclineRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	job, err := h.service.Decline(r.Context(), actor, chi.URLParam(r, "id"), &req)
	if err != nil {
		handleServiceError(w, h.log, r, err, "decline job")
		return
	}

	utils.ResponseSuccess(w, "Job declined", job)
}

// Start handles PUT /api/cleaner/jobs/{id}/start
func (h *CleanerHandler) Start(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentActor(w, r)
	if !ok {
		return
	}

	job, err := h.service.Start(r.Context(), actor, chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, h.log, r, err, "start job")
		return
	}

	utils.ResponseSuccess(w, "Job started", job)
}

// UpdateProgress handles PUT /api/cleaner/jobs/{id}/progress
func (h *CleanerHandler) UpdateProgress(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentActor(w, r)
	if !ok {
		return
	}

	var req request.JobProgressRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	if validationErrors := utils.ValidateStruct(req); len(validationErrors) > 0 {
		utils.ResponseBadRequest(w, "Validation failed", validationErrors)
		return
	}

	job, err := h.service.UpdateProgress(r.Context(), actor, chi.URLParam(r, "id"), &req)
	if err != nil {
		handleServiceError(w, h.log, r, err, "update job progress")
		return
	}

	utils.ResponseSuccess(w, "Job progress updated", job)
}

// Complete handles PUT /api/cleaner/jobs/{id}/complete
func (h *CleanerHandler) Complete(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentActor(w, r)
	if !ok {
		return
	}

	job, err := h.service.Complete(r.Context(), actor, chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, h.log, r, err, "complete job")
		return
	}

	utils.ResponseSuccess(w, "Job completed", job)
}
