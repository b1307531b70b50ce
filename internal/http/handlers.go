package http

import (
	"context"
	"encoding/json"
	"net/http"

	"gastos/internal/core"
	"gastos/internal/log"
	"gastos/internal/report"
)

// Ledger is the read side the HTTP surface needs.
type Ledger interface {
	Snapshot(ctx context.Context) (*core.Ledger, error)
	Summary(ctx context.Context) (core.MonthOverview, error)
}

type summaryLine struct {
	Position              int    `json:"position"`
	ID                    string `json:"id"`
	Owner                 string `json:"owner,omitempty"`
	Category              string `json:"category"`
	Label                 string `json:"label,omitempty"`
	Amount                string `json:"amount"`
	InstallmentsRemaining int    `json:"installments_remaining,omitempty"`
	InstallmentCount      int    `json:"installment_count,omitempty"`
	Permanent             bool   `json:"permanent,omitempty"`
}

type summaryResponse struct {
	Period string        `json:"period"`
	Total  string        `json:"total"`
	Lines  []summaryLine `json:"lines"`
}

func newSummaryResponse(ov core.MonthOverview) summaryResponse {
	resp := summaryResponse{
		Period: ov.Period.String(),
		Total:  ov.Total.StringFixed(2),
		Lines:  make([]summaryLine, 0, len(ov.Lines)),
	}
	for _, line := range ov.Lines {
		r := line.Record
		resp.Lines = append(resp.Lines, summaryLine{
			Position:              line.Position,
			ID:                    r.ID,
			Owner:                 string(r.Owner),
			Category:              string(r.Category),
			Label:                 r.Label,
			Amount:                line.Amount.StringFixed(2),
			InstallmentsRemaining: r.InstallmentsRemaining,
			InstallmentCount:      r.InstallmentCount,
			Permanent:             r.Permanent,
		})
	}
	return resp
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleReady reports ready once the ledger can be loaded.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if _, err := s.ledger.Snapshot(r.Context()); err != nil {
		log.FromContext(r.Context()).Warn("Readiness check failed", log.FieldError, err)
		writeError(w, http.StatusServiceUnavailable, "ledger unavailable")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	ov, err := s.ledger.Summary(r.Context())
	if err != nil {
		log.FromContext(r.Context()).Error("Failed to build summary", log.FieldError, err)
		writeError(w, http.StatusInternalServerError, "failed to load ledger")
		return
	}
	writeJSON(w, http.StatusOK, newSummaryResponse(ov))
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	l, err := s.ledger.Snapshot(r.Context())
	if err != nil {
		log.FromContext(r.Context()).Error("Failed to load ledger for export", log.FieldError, err)
		writeError(w, http.StatusInternalServerError, "failed to load ledger")
		return
	}
	body, err := report.XLSX(l)
	if err != nil {
		log.FromContext(r.Context()).Error("Failed to render workbook", log.FieldError, err)
		writeError(w, http.StatusInternalServerError, "failed to render workbook")
		return
	}

	w.Header().Set("Content-Type", report.XLSXMediaType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+report.ExportFileName+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
