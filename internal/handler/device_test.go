package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"tachyon/internal/domain"
	"tachyon/internal/registry"
	"tachyon/internal/security"
	tachyonerrors "tachyon/pkg/errors"
	"tachyon/pkg/logger"
	"tachyon/pkg/validator"
)

// fakeRepository is an in-memory registry.Repository.
type fakeRepository struct {
	mu      sync.Mutex
	devices []domain.Device
	nextID  int64
	failAll bool
}

func (f *fakeRepository) Create(ctx context.Context, device *domain.Device) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failAll {
		return 0, tachyonerrors.ErrStorageUnavailable
	}
	f.nextID++
	device.ID = f.nextID
	f.devices = append(f.devices, *device)
	return f.nextID, nil
}

func (f *fakeRepository) FindByName(ctx context.Context, name string) (*domain.Device, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failAll {
		return nil, tachyonerrors.ErrStorageUnavailable
	}
	for i := range f.devices {
		if f.devices[i].DeviceName == name {
			d := f.devices[i]
			return &d, nil
		}
	}
	return nil, tachyonerrors.ErrDeviceNotFound
}

func (f *fakeRepository) ListNames(ctx context.Context) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failAll {
		return nil, tachyonerrors.ErrStorageUnavailable
	}
	names := []string{}
	for i := range f.devices {
		names = append(names, f.devices[i].DeviceName)
	}
	return names, nil
}

type fixedProber struct {
	reachable bool
}

func (p *fixedProber) Probe(ctx context.Context, address string) (bool, error) {
	return p.reachable, nil
}

func newTestRouter(repo registry.Repository, prober registry.Prober) *mux.Router {
	hasher := security.NewBcryptHasher(bcrypt.MinCost)
	svc := registry.NewService(repo, hasher, prober, logger.NewNop(), time.Second)
	h := NewDeviceHandler(svc, validator.New(), logger.NewNop())

	r := mux.NewRouter()
	r.HandleFunc("/add_device", h.AddDevice).Methods("POST")
	r.HandleFunc("/check_availability", h.CheckAvailability).Methods("POST")
	r.HandleFunc("/devices", h.ListDevices).Methods("GET")
	r.HandleFunc("/health", h.Health).Methods("GET")
	return r
}

func doJSON(t *testing.T, router *mux.Router, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestAddDevice(t *testing.T) {
	router := newTestRouter(&fakeRepository{}, &fixedProber{})

	rec := doJSON(t, router, "POST", "/add_device", map[string]string{
		"device_name": "router1",
		"ip_address":  "10.0.0.1",
		"password":    "secret123",
	})

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "Device added successfully", decodeBody(t, rec)["message"])
}

func TestAddDevice_MissingField(t *testing.T) {
	router := newTestRouter(&fakeRepository{}, &fixedProber{})

	rec := doJSON(t, router, "POST", "/add_device", map[string]string{
		"device_name": "router1",
		"password":    "secret123",
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Field-level errors accompany the message
	body := decodeBody(t, rec)
	assert.Equal(t, "Invalid request body", body["message"])
	errs, ok := body["errors"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "This field is required", errs["IPAddress"])
}

func TestAddDevice_EmptyBody(t *testing.T) {
	router := newTestRouter(&fakeRepository{}, &fixedProber{})

	rec := doJSON(t, router, "POST", "/add_device", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Request body is required", decodeBody(t, rec)["message"])
}

func TestAddDevice_UnknownFieldRejected(t *testing.T) {
	router := newTestRouter(&fakeRepository{}, &fixedProber{})

	rec := doJSON(t, router, "POST", "/add_device", map[string]string{
		"device_name": "router1",
		"ip_address":  "10.0.0.1",
		"password":    "secret123",
		"admin":       "true",
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAddDevice_NameTooLong(t *testing.T) {
	router := newTestRouter(&fakeRepository{}, &fixedProber{})

	long := make([]byte, 51)
	for i := range long {
		long[i] = 'a'
	}

	rec := doJSON(t, router, "POST", "/add_device", map[string]string{
		"device_name": string(long),
		"ip_address":  "10.0.0.1",
		"password":    "secret123",
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAddDevice_StorageError(t *testing.T) {
	router := newTestRouter(&fakeRepository{failAll: true}, &fixedProber{})

	rec := doJSON(t, router, "POST", "/add_device", map[string]string{
		"device_name": "router1",
		"ip_address":  "10.0.0.1",
		"password":    "secret123",
	})

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Database Error", decodeBody(t, rec)["message"])
}

func TestCheckAvailability_Reachable(t *testing.T) {
	repo := &fakeRepository{}
	router := newTestRouter(repo, &fixedProber{reachable: true})

	rec := doJSON(t, router, "POST", "/add_device", map[string]string{
		"device_name": "router1", "ip_address": "10.0.0.1", "password": "secret123",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(t, router, "POST", "/check_availability", map[string]string{
		"device_name": "router1", "password": "secret123",
	})

	assert.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "Reachable", body["message"])
	assert.Equal(t, "Success", body["status"])
}

func TestCheckAvailability_NotReachableIsStillOK(t *testing.T) {
	repo := &fakeRepository{}
	router := newTestRouter(repo, &fixedProber{reachable: false})

	rec := doJSON(t, router, "POST", "/add_device", map[string]string{
		"device_name": "router1", "ip_address": "10.0.0.1", "password": "secret123",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(t, router, "POST", "/check_availability", map[string]string{
		"device_name": "router1", "password": "secret123",
	})

	assert.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "Not Reachable", body["message"])
	assert.Equal(t, "Failed", body["status"])
}

func TestCheckAvailability_WrongPassword(t *testing.T) {
	repo := &fakeRepository{}
	router := newTestRouter(repo, &fixedProber{reachable: true})

	rec := doJSON(t, router, "POST", "/add_device", map[string]string{
		"device_name": "router1", "ip_address": "10.0.0.1", "password": "secret123",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(t, router, "POST", "/check_availability", map[string]string{
		"device_name": "router1", "password": "wrong",
	})

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Incorrect Password", decodeBody(t, rec)["message"])
}

func TestCheckAvailability_LongNameIsNotFoundNotRejected(t *testing.T) {
	router := newTestRouter(&fakeRepository{}, &fixedProber{})

	long := make([]byte, 51)
	for i := range long {
		long[i] = 'a'
	}

	// Names longer than the stored column are looked up like any other
	// name and simply never match.
	rec := doJSON(t, router, "POST", "/check_availability", map[string]string{
		"device_name": string(long), "password": "x",
	})

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Device not found", decodeBody(t, rec)["message"])
}

func TestCheckAvailability_DeviceNotFound(t *testing.T) {
	router := newTestRouter(&fakeRepository{}, &fixedProber{})

	rec := doJSON(t, router, "POST", "/check_availability", map[string]string{
		"device_name": "ghost", "password": "x",
	})

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Device not found", decodeBody(t, rec)["message"])
}

func TestCheckAvailability_MissingFields(t *testing.T) {
	router := newTestRouter(&fakeRepository{}, &fixedProber{})

	rec := doJSON(t, router, "POST", "/check_availability", map[string]string{
		"password": "x",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, router, "POST", "/check_availability", map[string]string{
		"device_name": "router1",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListDevices(t *testing.T) {
	repo := &fakeRepository{}
	router := newTestRouter(repo, &fixedProber{})

	rec := doJSON(t, router, "GET", "/devices", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []interface{}{}, decodeBody(t, rec)["devices"])

	for _, name := range []string{"router1", "switch1", "router1"} {
		rec := doJSON(t, router, "POST", "/add_device", map[string]string{
			"device_name": name, "ip_address": "10.0.0.1", "password": "secret123",
		})
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	rec = doJSON(t, router, "GET", "/devices", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t,
		[]interface{}{"router1", "switch1", "router1"},
		decodeBody(t, rec)["devices"])
}

func TestListDevices_StorageError(t *testing.T) {
	router := newTestRouter(&fakeRepository{failAll: true}, &fixedProber{})

	rec := doJSON(t, router, "GET", "/devices", nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Database Error", decodeBody(t, rec)["message"])
}

func TestHealth(t *testing.T) {
	router := newTestRouter(&fakeRepository{}, &fixedProber{})

	rec := doJSON(t, router, "GET", "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "healthy", decodeBody(t, rec)["status"])
}

// Full scenario: register, check with correct and wrong credentials,
// check an unknown name, then list.
func TestRegistryScenario(t *testing.T) {
	repo := &fakeRepository{}
	router := newTestRouter(repo, &fixedProber{reachable: true})

	rec := doJSON(t, router, "POST", "/add_device", map[string]string{
		"device_name": "router1", "ip_address": "10.0.0.1", "password": "secret123",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(t, router, "POST", "/check_availability", map[string]string{
		"device_name": "router1", "password": "secret123",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, []interface{}{"Reachable", "Not Reachable"}, decodeBody(t, rec)["message"])

	rec = doJSON(t, router, "POST", "/check_availability", map[string]string{
		"device_name": "router1", "password": "wrong",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doJSON(t, router, "POST", "/check_availability", map[string]string{
		"device_name": "ghost", "password": "x",
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doJSON(t, router, "GET", "/devices", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, decodeBody(t, rec)["devices"], "router1")
}
