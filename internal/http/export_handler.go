package httpapi

import (
	"encoding/csv"
	"fmt"
	"net/http"
	"strings"

	"clima-data/internal/domain"
	"clima-data/internal/service"

	"go.uber.org/zap"
)

// ExportHandler 读数导出
type ExportHandler struct {
	export       service.ExportService
	defaultLimit int
	logger       *zap.Logger
}

func NewExportHandler(export service.ExportService, defaultLimit int, logger *zap.Logger) *ExportHandler {
	if defaultLimit <= 0 {
		defaultLimit = 10000
	}
	return &ExportHandler{export: export, defaultLimit: defaultLimit, logger: logger}
}

// ExportReadings GET /export/lecturas?limit=&offset=&format=csv|xlsx
func (h *ExportHandler) ExportReadings(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", h.defaultLimit)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	offset, err := queryInt(r, "offset", 0)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	format := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("format")))
	if format == "" {
		format = "csv"
	}
	if format != "csv" && format != "xlsx" {
		writeError(w, r, h.logger, domain.NewValidationError(fmt.Sprintf("unsupported format %q (expected csv or xlsx)", format)))
		return
	}

	rows, err := h.export.ExportReadings(r.Context(), limit, offset)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	if format == "xlsx" {
		h.writeXLSX(w, r, rows)
		return
	}
	h.writeCSV(w, r, rows)
}

func (h *ExportHandler) writeCSV(w http.ResponseWriter, r *http.Request, rows []*domain.Reading) {
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", "attachment; filename=lecturas.csv")
	w.WriteHeader(http.StatusOK)

	cw := csv.NewWriter(w)
	if err := cw.Write(ReadingsExportHeader); err != nil {
		h.logger.Warn("csv export aborted", zap.String("request_id", requestIDFrom(r.Context())), zap.Error(err))
		return
	}
	for _, rd := range rows {
		if err := cw.Write(readingRecord(rd)); err != nil {
			// 响应头已发出，只能中断
			h.logger.Warn("csv export aborted", zap.String("request_id", requestIDFrom(r.Context())), zap.Error(err))
			return
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		h.logger.Warn("csv export flush failed", zap.String("request_id", requestIDFrom(r.Context())), zap.Error(err))
	}
}

func (h *ExportHandler) writeXLSX(w http.ResponseWriter, r *http.Request, rows []*domain.Reading) {
	b, err := GenerateReadingsExcel(rows)
	if err != nil {
		writeError(w, r, h.logger, domain.WrapError(domain.KindStore, "failed to generate export", err))
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", "attachment; filename=lecturas.xlsx")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(b)
}
