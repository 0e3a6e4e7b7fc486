// Package handler provides HTTP handlers for the device registry.
package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"tachyon/internal/registry"
	tachyonerrors "tachyon/pkg/errors"
	"tachyon/pkg/logger"
	"tachyon/pkg/validator"
)

// DeviceHandler handles the register, check-availability, and list endpoints.
type DeviceHandler struct {
	service   *registry.Service
	validator *validator.Validator
	logger    logger.Logger
}

// NewDeviceHandler creates a new DeviceHandler.
func NewDeviceHandler(service *registry.Service, val *validator.Validator, log logger.Logger) *DeviceHandler {
	return &DeviceHandler{
		service:   service,
		validator: val,
		logger:    log,
	}
}

// AddDevice handles device registration.
func (h *DeviceHandler) AddDevice(w http.ResponseWriter, r *http.Request) {
	var req registry.RegisterRequest

	if !h.decodeBody(w, r, &req) {
		return
	}

	if errs := h.validator.ValidateStructured(&req); errs != nil {
		h.respondValidationErrors(w, errs)
		return
	}

	id, err := h.service.Register(r.Context(), &req)
	if err != nil {
		if errors.Is(err, tachyonerrors.ErrInvalidInput) {
			h.respondMessage(w, http.StatusBadRequest, "Invalid request body")
			return
		}

		h.logger.Error("Device registration failed", map[string]interface{}{"error": err.Error()})
		if errors.Is(err, tachyonerrors.ErrStorageUnavailable) {
			h.respondMessage(w, http.StatusInternalServerError, "Database Error")
			return
		}
		h.respondMessage(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	h.logger.Info("Device added", map[string]interface{}{
		"device_name": req.DeviceName,
		"id":          id,
	})
	h.respondMessage(w, http.StatusCreated, "Device added successfully")
}

// CheckAvailability authenticates the request and reports reachability.
// A not-reachable device is a successful check, not an error.
func (h *DeviceHandler) CheckAvailability(w http.ResponseWriter, r *http.Request) {
	var req registry.CheckRequest

	if !h.decodeBody(w, r, &req) {
		return
	}

	if errs := h.validator.ValidateStructured(&req); errs != nil {
		h.respondValidationErrors(w, errs)
		return
	}

	result, err := h.service.CheckAvailability(r.Context(), &req)
	if err != nil {
		switch {
		case errors.Is(err, tachyonerrors.ErrInvalidInput):
			h.respondMessage(w, http.StatusBadRequest, "Invalid request body")
		case errors.Is(err, tachyonerrors.ErrDeviceNotFound):
			h.respondMessage(w, http.StatusNotFound, "Device not found")
		case errors.Is(err, tachyonerrors.ErrIncorrectCredential):
			h.respondMessage(w, http.StatusUnauthorized, "Incorrect Password")
		case errors.Is(err, tachyonerrors.ErrStorageUnavailable):
			h.logger.Error("Availability check failed", map[string]interface{}{"error": err.Error()})
			h.respondMessage(w, http.StatusInternalServerError, "Database Error")
		default:
			h.logger.Error("Availability check failed", map[string]interface{}{"error": err.Error()})
			h.respondMessage(w, http.StatusInternalServerError, "Internal Server Error")
		}
		return
	}

	if result.Reachable {
		h.respondJSON(w, http.StatusOK, map[string]string{"message": "Reachable", "status": "Success"})
	} else {
		h.respondJSON(w, http.StatusOK, map[string]string{"message": "Not Reachable", "status": "Failed"})
	}
}

// ListDevices returns every registered device name.
func (h *DeviceHandler) ListDevices(w http.ResponseWriter, r *http.Request) {
	names, err := h.service.ListDevices(r.Context())
	if err != nil {
		h.logger.Error("Device listing failed", map[string]interface{}{"error": err.Error()})
		if errors.Is(err, tachyonerrors.ErrStorageUnavailable) {
			h.respondMessage(w, http.StatusInternalServerError, "Database Error")
			return
		}
		h.respondMessage(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	h.respondJSON(w, http.StatusOK, map[string][]string{"devices": names})
}

// Health reports service liveness.
func (h *DeviceHandler) Health(w http.ResponseWriter, r *http.Request) {
	_ = r
	h.respondJSON(w, http.StatusOK, map[string]string{"status": "healthy", "service": "registry"})
}

func (h *DeviceHandler) decodeBody(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1MB limit
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		if err == io.EOF {
			h.respondMessage(w, http.StatusBadRequest, "Request body is required")
			return false
		}
		h.respondMessage(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}

func (h *DeviceHandler) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func (h *DeviceHandler) respondMessage(w http.ResponseWriter, status int, message string) {
	h.respondJSON(w, status, map[string]string{"message": message})
}

func (h *DeviceHandler) respondValidationErrors(w http.ResponseWriter, errs map[string]string) {
	h.respondJSON(w, http.StatusBadRequest, map[string]interface{}{
		"message": "Invalid request body",
		"errors":  errs,
	})
}
