package httpapi

import (
	"encoding/json"
	"net/http"

	"clima-data/internal/domain"
	"clima-data/internal/service"

	"go.uber.org/zap"
)

// IdentityHandler 设备与传感器登记
type IdentityHandler struct {
	identity service.IdentityService
	logger   *zap.Logger
}

func NewIdentityHandler(identity service.IdentityService, logger *zap.Logger) *IdentityHandler {
	return &IdentityHandler{identity: identity, logger: logger}
}

// deviceRequest POST /devices 请求体
type deviceRequest struct {
	Serial   string         `json:"serie"`
	Name     string         `json:"nombre"`
	Location *string        `json:"ubicacion"`
	Type     *string        `json:"tipo"`
	Firmware *string        `json:"firmware"`
	Config   json.RawMessage `json:"configuracion"`
}

// sensorRequest POST /sensors 请求体
type sensorRequest struct {
	DeviceID    int64    `json:"dispositivoid"`
	Code        *string  `json:"codigosensor"`
	Name        string   `json:"nombre"`
	Unit        string   `json:"unidad"`
	ScaleFactor *float64 `json:"factorescala"`
	Offset      *float64 `json:"desplazamiento"`
	RangeMin    *float64 `json:"rangomin"`
	RangeMax    *float64 `json:"rangomax"`
}

// CreateDevice POST /devices
func (h *IdentityHandler) CreateDevice(w http.ResponseWriter, r *http.Request) {
	var req deviceRequest
	if err := readBodyJSON(r, maxBodyBytes, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	id, err := h.identity.UpsertDevice(r.Context(), domain.DeviceUpsert{
		Serial:   req.Serial,
		Name:     req.Name,
		Location: req.Location,
		Type:     req.Type,
		Firmware: req.Firmware,
		Config:   req.Config,
	})
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, Ok(map[string]any{"dispositivoid": id}))
}

// ListDevices GET /devices?limit=&offset=
func (h *IdentityHandler) ListDevices(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", 0)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	offset, err := queryInt(r, "offset", 0)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	devices, err := h.identity.ListDevices(r.Context(), limit, offset)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(devices))
}

// GetDevice GET /devices/{id}
func (h *IdentityHandler) GetDevice(w http.ResponseWriter, r *http.Request, deviceID int64) {
	d, err := h.identity.GetDevice(r.Context(), deviceID)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(d))
}

// ListSensors GET /devices/{id}/sensors
func (h *IdentityHandler) ListSensors(w http.ResponseWriter, r *http.Request, deviceID int64) {
	sensors, err := h.identity.ListSensorsByDevice(r.Context(), deviceID)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(sensors))
}

// CreateSensor POST /sensors
func (h *IdentityHandler) CreateSensor(w http.ResponseWriter, r *http.Request) {
	var req sensorRequest
	if err := readBodyJSON(r, maxBodyBytes, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	id, err := h.identity.UpsertSensor(r.Context(), domain.SensorUpsert{
		DeviceID:    req.DeviceID,
		Code:        req.Code,
		Name:        req.Name,
		Unit:        req.Unit,
		ScaleFactor: req.ScaleFactor,
		Offset:      req.Offset,
		RangeMin:    req.RangeMin,
		RangeMax:    req.RangeMax,
	})
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, Ok(map[string]any{"sensorid": id}))
}

// GetSensor GET /sensors/{id}
func (h *IdentityHandler) GetSensor(w http.ResponseWriter, r *http.Request, sensorID int64) {
	s, err := h.identity.GetSensor(r.Context(), sensorID)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(s))
}
