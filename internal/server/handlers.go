/*
handlers.go - HTTP handlers for the voucher generator

PURPOSE:
  Holds the last uploaded export and the vouchers rendered from it. The
  upload form and the tier toggle both produce a full printable page.

STATE:
  One export per server process. Uploading replaces it; switching tier
  re-runs the pipeline on its parsed rows, so eligibility, counts and grids
  all follow the new tier without a new upload.

  State is guarded by a read/write mutex: renders take the write lock, page
  and download requests the read lock.

ERROR HANDLING:
  Form endpoints answer with plain text errors:
  - 400: Missing file, unreadable form, unknown tier
  - 404: Roster requested before any upload
  - 500: Render failures
  An export without eligible rows is not an error: the page shows the
  empty-state message.
*/
package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"

	"go.uber.org/zap"

	"github.com/ginjaninja78/meal-vouchers/internal/config"
	"github.com/ginjaninja78/meal-vouchers/internal/converter"
	"github.com/ginjaninja78/meal-vouchers/internal/csvparser"
	"github.com/ginjaninja78/meal-vouchers/internal/htmlwriter"
	"github.com/ginjaninja78/meal-vouchers/internal/xlsxwriter"
)

// maxUploadBytes caps the size of an uploaded export.
const maxUploadBytes = 32 << 20

// WelcomeMessage is shown before any export was uploaded.
const WelcomeMessage = "Seleccione un archivo CSV para generar los vouchers."

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds the configuration and the current run.
type Handler struct {
	logger *zap.Logger

	mu       sync.RWMutex
	cfg      *config.Config
	fileName string
	rows     []csvparser.Row
	result   *converter.Result
}

// NewHandler creates a handler rendering with cfg. A nil logger discards
// log output.
func NewHandler(cfg *config.Config, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		cfg:    cfg.Clone(),
		logger: logger.Named("server"),
	}
}

// Tier returns the active tier.
func (h *Handler) Tier() config.Tier {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.cfg.Tier
}

// =============================================================================
// PAGE HANDLERS
// =============================================================================

// Index renders the current page.
// GET /
func (h *Handler) Index(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if h.result != nil {
		writeHTML(w, http.StatusOK, h.result.Document)
		return
	}

	page, err := htmlwriter.GeneratePage(nil, h.cfg, htmlwriter.PageOptions{
		Controls: true,
		Message:  WelcomeMessage,
	})
	if err != nil {
		h.fail(w, "failed to render page", err)
		return
	}
	writeHTML(w, http.StatusOK, page)
}

// Upload reads an export from the "file" form field and renders it.
// POST /vouchers
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		http.Error(w, "invalid upload: "+err.Error(), http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "missing export file", http.StatusBadRequest)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		http.Error(w, "failed to read export: "+err.Error(), http.StatusBadRequest)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	result, err := h.converter().RunBytes(data)
	if err != nil && !errors.Is(err, converter.ErrNoEligibleRecords) {
		h.fail(w, "failed to render vouchers", err)
		return
	}

	h.logger.Info("export uploaded",
		zap.String("file", header.Filename),
		zap.Int("bytes", len(data)),
		zap.Int("rows", len(result.Rows)),
	)

	h.rows = result.Rows
	h.result = result
	h.fileName = header.Filename

	writeHTML(w, http.StatusOK, h.result.Document)
}

// SwitchTier changes the active tier and re-renders the current export.
// POST /tier
func (h *Handler) SwitchTier(w http.ResponseWriter, r *http.Request) {
	tier, err := config.ParseTier(r.FormValue("tier"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	h.cfg = h.cfg.WithTier(tier)
	h.logger.Info("tier switched", zap.String("tier", string(tier)))

	if h.rows == nil {
		page, err := htmlwriter.GeneratePage(nil, h.cfg, htmlwriter.PageOptions{
			Controls: true,
			Message:  WelcomeMessage,
		})
		if err != nil {
			h.fail(w, "failed to render page", err)
			return
		}
		writeHTML(w, http.StatusOK, page)
		return
	}

	if err := h.render(h.rows); err != nil {
		h.fail(w, "failed to render vouchers", err)
		return
	}
	writeHTML(w, http.StatusOK, h.result.Document)
}

// Roster streams the roster workbook of the current vouchers.
// GET /roster.xlsx
func (h *Handler) Roster(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if h.result == nil {
		http.Error(w, "no export loaded", http.StatusNotFound)
		return
	}

	roster, err := xlsxwriter.Build(h.result.Groups)
	if err != nil {
		h.fail(w, "failed to build roster", err)
		return
	}
	defer roster.Close()

	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="vouchers_%s.xlsx"`, h.cfg.Tier))
	w.WriteHeader(http.StatusOK)
	if _, err := roster.WriteTo(w); err != nil {
		h.logger.Error("failed to stream roster", zap.Error(err))
	}
}

// =============================================================================
// API HANDLERS
// =============================================================================

// SummaryResponse describes the current run.
type SummaryResponse struct {
	Tier     string       `json:"tier"`
	File     string       `json:"file,omitempty"`
	Loaded   bool         `json:"loaded"`
	Rows     int          `json:"rows"`
	Eligible int          `json:"eligible"`
	Vouchers int          `json:"vouchers"`
	Warnings []WarningDTO `json:"warnings"`
	Groups   []VoucherDTO `json:"groups"`
}

// WarningDTO is one validation finding.
type WarningDTO struct {
	Severity string `json:"severity"`
	Rule     string `json:"rule"`
	Field    string `json:"field"`
	Value    string `json:"value"`
	Message  string `json:"message"`
	Line     int    `json:"line"`
}

// VoucherDTO is one voucher.
type VoucherDTO struct {
	Room      string `json:"room"`
	Booking   string `json:"booking"`
	Name      string `json:"name"`
	DNI       string `json:"dni"`
	Occupants int    `json:"occupants"`
	Meals     int    `json:"meals"`
	Nights    int    `json:"nights"`
	Members   int    `json:"members"`
}

// Summary returns the current run as JSON.
// GET /api/summary
func (h *Handler) Summary(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	resp := SummaryResponse{
		Tier:     string(h.cfg.Tier),
		File:     h.fileName,
		Warnings: []WarningDTO{},
		Groups:   []VoucherDTO{},
	}

	if h.result != nil {
		resp.Loaded = true
		resp.Rows = h.result.Stats.RowsParsed
		resp.Eligible = h.result.Stats.EligibleRecords
		resp.Vouchers = h.result.Stats.Vouchers

		for _, warning := range h.result.Warnings {
			resp.Warnings = append(resp.Warnings, WarningDTO{
				Severity: warning.Severity,
				Rule:     warning.Rule,
				Field:    warning.Field,
				Value:    warning.Value,
				Message:  warning.Message,
				Line:     warning.Line,
			})
		}
		for _, group := range h.result.Groups {
			resp.Groups = append(resp.Groups, VoucherDTO{
				Room:      group.Key.Room,
				Booking:   group.Key.Booking,
				Name:      group.Representative.PassengerName,
				DNI:       group.Representative.DNI,
				Occupants: group.Occupants,
				Meals:     group.MealCount,
				Nights:    group.StayDuration(),
				Members:   len(group.Members),
			})
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

// =============================================================================
// HELPERS
// =============================================================================

// render runs the pipeline on rows and keeps the result. The caller holds
// the write lock.
func (h *Handler) render(rows []csvparser.Row) error {
	result, err := h.converter().RunRows(rows)
	if err != nil && !errors.Is(err, converter.ErrNoEligibleRecords) {
		return err
	}

	h.rows = rows
	h.result = result
	return nil
}

// converter builds a pipeline for the current configuration that renders
// the page with its upload and tier controls.
func (h *Handler) converter() *converter.Converter {
	return converter.New(h.cfg, h.logger).WithPageOptions(htmlwriter.PageOptions{Controls: true})
}

func (h *Handler) fail(w http.ResponseWriter, message string, err error) {
	h.logger.Error(message, zap.Error(err))
	http.Error(w, message, http.StatusInternalServerError)
}

func writeHTML(w http.ResponseWriter, status int, body []byte) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	w.Write(body)
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
