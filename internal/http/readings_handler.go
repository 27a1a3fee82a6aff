package httpapi

import (
	"net/http"

	"clima-data/internal/payload"
	"clima-data/internal/service"

	"go.uber.org/zap"
)

// ReadingsHandler 读数批量写入
type ReadingsHandler struct {
	ingest service.IngestService
	logger *zap.Logger
}

func NewReadingsHandler(ingest service.IngestService, logger *zap.Logger) *ReadingsHandler {
	return &ReadingsHandler{ingest: ingest, logger: logger}
}

// InsertBatch POST /lecturas/batch
// 返回实际写入的行数，重复的读数不计入
func (h *ReadingsHandler) InsertBatch(w http.ResponseWriter, r *http.Request) {
	var payloads []payload.ReadingPayload
	if err := readBodyJSON(r, maxBodyBytes, &payloads); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	readings, err := payload.ToReadings(payloads)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	inserted, err := h.ingest.InsertBatch(r.Context(), readings)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, Ok(map[string]any{
		"inserted": inserted,
		"received": len(readings),
	}))
}
