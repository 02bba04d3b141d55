package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/iwvelando/adu-proposal/internal/export"
	"github.com/iwvelando/adu-proposal/internal/pricing"
	"github.com/iwvelando/adu-proposal/internal/pricingconfig"
	"github.com/iwvelando/adu-proposal/internal/proposal"
	"github.com/iwvelando/adu-proposal/internal/store"
	"github.com/iwvelando/adu-proposal/pkg/constants"
	"github.com/iwvelando/adu-proposal/pkg/validation"
	"go.uber.org/zap"
)

// Dependencies are the components the API serves.
type Dependencies struct {
	Store     store.Store
	Assembler *proposal.Assembler
	Company   proposal.Company
	// Template is the proposal template; empty uses the built-in one.
	Template string
}

type handler struct {
	logger        *zap.Logger
	deps          Dependencies
	maxUploadSize int64
	version       string
}

// NewHandler constructs the HTTP handler that serves the estimate, proposal,
// export and pricing configuration API.
func NewHandler(logger *zap.Logger, deps Dependencies, maxUploadSize int64, version string) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}

	if maxUploadSize <= 0 {
		maxUploadSize = constants.DefaultMaxUploadSizeBytes
	}

	trimmedVersion := strings.TrimSpace(version)
	if trimmedVersion == "" {
		trimmedVersion = "dev"
	}

	h := &handler{logger: logger, deps: deps, maxUploadSize: maxUploadSize, version: trimmedVersion}

	r := chi.NewRouter()
	r.Get("/api/version", h.handleVersion)
	r.Post("/api/estimate", h.handleEstimate)
	r.Post("/api/proposal", h.handleProposal)
	r.Post("/api/export/{format}", h.handleExport)
	r.Get("/api/pricing-config", h.handlePricingConfig)
	r.Put("/api/pricing-config", h.handlePricingConfigUpdate)
	r.Get("/api/pricing-config/history", h.handlePricingConfigHistory)
	r.Get("/api/pricing-config/history/{id}", h.handlePricingConfigRevision)
	return r
}

type estimateResponse struct {
	Estimate proposal.Estimate `json:"estimate"`
	Warnings []string          `json:"warnings,omitempty"`
	Duration string            `json:"duration"`
}

type proposalResponse struct {
	Number     string            `json:"number"`
	Issued     string            `json:"issued"`
	ValidUntil string            `json:"validUntil"`
	Estimate   proposal.Estimate `json:"estimate"`
	HTML       string            `json:"html"`
	Warnings   []string          `json:"warnings,omitempty"`
}

type pricingConfigResponse struct {
	Configuration pricingconfig.Configuration `json:"configuration"`
	Warnings      []string                    `json:"warnings,omitempty"`
}

func (h *handler) handleVersion(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{
		"version": h.version,
	})
}

func (h *handler) handleEstimate(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleEstimate"
	start := time.Now()

	form, ok := h.readForm(w, r, op)
	if !ok {
		return
	}
	cfg, warnings, ok := h.loadPricing(w, r, op)
	if !ok {
		return
	}

	inputs, err := form.Inputs()
	if err != nil {
		h.respondCalculationError(w, err, op)
		return
	}
	estimate, err := h.deps.Assembler.Estimate(inputs, cfg)
	if err != nil {
		h.respondCalculationError(w, err, op)
		return
	}

	elapsed := time.Since(start)
	h.logger.Info("estimate computed",
		zap.String("op", op),
		zap.Float64("grandTotal", estimate.Breakdown.GrandTotal),
		zap.Int("lineItems", len(estimate.Breakdown.LineItems)),
		zap.Duration("duration", elapsed),
	)

	h.writeJSON(w, http.StatusOK, estimateResponse{
		Estimate: estimate,
		Warnings: warnings,
		Duration: elapsed.String(),
	})
}

func (h *handler) handleProposal(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleProposal"

	p, warnings, ok := h.assemble(w, r, op)
	if !ok {
		return
	}

	if r.URL.Query().Get("format") == "html" {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		if _, err := io.WriteString(w, p.HTML); err != nil {
			h.logger.Error("failed to write proposal", zap.String("op", op), zap.Error(err))
		}
		return
	}

	h.writeJSON(w, http.StatusOK, proposalResponse{
		Number:     p.Number,
		Issued:     p.Issued.Format(constants.ISODateLayout),
		ValidUntil: p.ValidUntil.Format(constants.ISODateLayout),
		Estimate:   p.Estimate,
		HTML:       p.HTML,
		Warnings:   warnings,
	})
}

func (h *handler) handleExport(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleExport"

	format := chi.URLParam(r, "format")
	if err := validation.ValidateExportFormat(format); err != nil {
		h.respondErrorWithOp(w, http.StatusNotFound, err.Error(), op)
		return
	}

	p, _, ok := h.assemble(w, r, op)
	if !ok {
		return
	}
	doc := export.FromProposal(p, h.deps.Company)

	var (
		data        []byte
		err         error
		contentType string
	)
	switch format {
	case constants.ExportFormatXLSX:
		data, err = export.Workbook(doc)
		contentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case constants.ExportFormatPDF:
		data, err = export.SummaryPDF(doc)
		contentType = "application/pdf"
	}
	if err != nil {
		h.respondErrorWithOp(w, http.StatusInternalServerError, fmt.Sprintf("failed to export %s: %v", format, err), op)
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", p.Number+"."+format))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		h.logger.Error("failed to write export", zap.String("op", op), zap.Error(err))
	}
}

func (h *handler) handlePricingConfig(w http.ResponseWriter, r *http.Request) {
	const op = "server.handlePricingConfig"

	cfg, warnings, ok := h.loadPricing(w, r, op)
	if !ok {
		return
	}
	h.writeJSON(w, http.StatusOK, pricingConfigResponse{Configuration: cfg, Warnings: warnings})
}

func (h *handler) handlePricingConfigUpdate(w http.ResponseWriter, r *http.Request) {
	const op = "server.handlePricingConfigUpdate"

	body, ok := h.readBody(w, r, op)
	if !ok {
		return
	}

	var cfg pricingconfig.Configuration
	if err := json.Unmarshal(body, &cfg); err != nil {
		h.respondErrorWithOp(w, http.StatusBadRequest, fmt.Sprintf("failed to decode pricing configuration: %v", err), op)
		return
	}

	saved, err := h.deps.Store.Save(r.Context(), cfg, r.URL.Query().Get("note"))
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, store.ErrInvalid) {
			status = http.StatusBadRequest
		}
		h.respondErrorWithOp(w, status, err.Error(), op)
		return
	}

	h.logger.Info("pricing configuration saved",
		zap.String("op", op),
		zap.String("version", saved.Version),
	)
	h.writeJSON(w, http.StatusOK, pricingConfigResponse{
		Configuration: saved,
		Warnings:      saved.ValidateConfiguration(),
	})
}

func (h *handler) handlePricingConfigHistory(w http.ResponseWriter, r *http.Request) {
	const op = "server.handlePricingConfigHistory"

	limit := -1
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			h.respondErrorWithOp(w, http.StatusBadRequest, fmt.Sprintf("invalid limit %q", raw), op)
			return
		}
		limit = parsed
	}

	revisions, err := h.deps.Store.History(r.Context(), limit)
	if err != nil {
		h.respondErrorWithOp(w, http.StatusInternalServerError, err.Error(), op)
		return
	}
	if revisions == nil {
		revisions = []store.Revision{}
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{"revisions": revisions})
}

func (h *handler) handlePricingConfigRevision(w http.ResponseWriter, r *http.Request) {
	const op = "server.handlePricingConfigRevision"

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.respondErrorWithOp(w, http.StatusBadRequest, "invalid revision id", op)
		return
	}

	revision, err := h.deps.Store.Revision(r.Context(), id)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, store.ErrNotFound) {
			status = http.StatusNotFound
		}
		h.respondErrorWithOp(w, status, err.Error(), op)
		return
	}
	h.writeJSON(w, http.StatusOK, revision)
}

// assemble reads a proposal form and renders it against the current pricing.
func (h *handler) assemble(w http.ResponseWriter, r *http.Request, op string) (proposal.Proposal, []string, bool) {
	form, ok := h.readForm(w, r, op)
	if !ok {
		return proposal.Proposal{}, nil, false
	}
	cfg, warnings, ok := h.loadPricing(w, r, op)
	if !ok {
		return proposal.Proposal{}, nil, false
	}

	p, err := h.deps.Assembler.Assemble(form, cfg, h.deps.Template)
	if err != nil {
		h.respondCalculationError(w, err, op)
		return proposal.Proposal{}, nil, false
	}

	h.logger.Info("proposal assembled",
		zap.String("op", op),
		zap.String("number", p.Number),
		zap.Float64("finalTotal", p.Estimate.Discount.Total),
	)
	return p, warnings, true
}

func (h *handler) readBody(w http.ResponseWriter, r *http.Request, op string) ([]byte, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)
	body, err := io.ReadAll(r.Body)
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			h.respondErrorWithOp(w, http.StatusRequestEntityTooLarge,
				fmt.Sprintf("request exceeds limit of %d bytes", h.maxUploadSize), op)
			return nil, false
		}
		h.respondErrorWithOp(w, http.StatusBadRequest, fmt.Sprintf("failed to read request: %v", err), op)
		return nil, false
	}
	return body, true
}

// readForm decodes a JSON or YAML proposal form from the request body.
func (h *handler) readForm(w http.ResponseWriter, r *http.Request, op string) (proposal.Form, bool) {
	body, ok := h.readBody(w, r, op)
	if !ok {
		return proposal.Form{}, false
	}
	form, err := proposal.ParseForm(body)
	if err != nil {
		h.respondErrorWithOp(w, http.StatusBadRequest, err.Error(), op)
		return proposal.Form{}, false
	}
	return form, true
}

func (h *handler) loadPricing(w http.ResponseWriter, r *http.Request, op string) (pricingconfig.Configuration, []string, bool) {
	cfg, notes, err := h.deps.Store.Load(r.Context())
	if err != nil {
		h.respondErrorWithOp(w, http.StatusInternalServerError, fmt.Sprintf("failed to load pricing configuration: %v", err), op)
		return pricingconfig.Configuration{}, nil, false
	}
	return cfg, append(notes, cfg.ValidateConfiguration()...), true
}

func (h *handler) respondCalculationError(w http.ResponseWriter, err error, op string) {
	var validationErr *pricing.ValidationError
	if errors.As(err, &validationErr) {
		h.respondErrorWithOp(w, http.StatusUnprocessableEntity, err.Error(), op)
		return
	}
	h.respondErrorWithOp(w, http.StatusInternalServerError, err.Error(), op)
}

func (h *handler) respondErrorWithOp(w http.ResponseWriter, status int, msg string, op string) {
	h.logger.Error("request failed",
		zap.String("op", op),
		zap.Int("status", status),
		zap.String("error", msg),
	)

	h.writeJSON(w, status, map[string]string{"error": msg})
}

func (h *handler) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error("failed to write JSON response", zap.Error(err))
	}
}
