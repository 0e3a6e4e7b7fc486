// Package registry implements the device registry: registration,
// credential-checked availability queries, and device listing.
package registry

import (
	"context"
	"time"

	"tachyon/internal/domain"
	"tachyon/internal/security"
	tachyonerrors "tachyon/pkg/errors"
	"tachyon/pkg/logger"
)

// Repository is the persistence boundary for device records.
type Repository interface {
	Create(ctx context.Context, device *domain.Device) (int64, error)
	FindByName(ctx context.Context, name string) (*domain.Device, error)
	ListNames(ctx context.Context) ([]string, error)
}

// Service orchestrates the three registry operations. It holds no state
// of its own beyond request-scoped values.
type Service struct {
	repo         Repository
	hasher       security.CredentialHasher
	prober       Prober
	logger       logger.Logger
	queryTimeout time.Duration

	cache    ListCache
	cacheTTL time.Duration
}

// NewService constructs a Service with the given collaborators.
func NewService(repo Repository, hasher security.CredentialHasher, prober Prober, log logger.Logger, queryTimeout time.Duration) *Service {
	return &Service{
		repo:         repo,
		hasher:       hasher,
		prober:       prober,
		logger:       log,
		queryTimeout: queryTimeout,
	}
}

// WithListCache enables cache-aside caching of the device listing.
func (s *Service) WithListCache(cache ListCache, ttl time.Duration) *Service {
	s.cache = cache
	s.cacheTTL = ttl
	return s
}

// RegisterRequest captures the fields required to register a device.
// The credential travels on the wire as "password".
type RegisterRequest struct {
	DeviceName string `json:"device_name" validate:"required,max=50"`
	IPAddress  string `json:"ip_address" validate:"required,max=50"`
	Credential string `json:"password" validate:"required"`
}

// CheckRequest captures an availability query for a named device. No
// length cap here: an overlong name is simply never found, it is not a
// malformed request.
type CheckRequest struct {
	DeviceName string `json:"device_name" validate:"required"`
	Credential string `json:"password" validate:"required"`
}

// CheckResult reports the outcome of an authorized availability check.
// Reachable being false is a successful check with a negative result.
type CheckResult struct {
	Reachable bool
}

// Register validates the request, hashes the credential, and persists a
// new device record. Registration is not idempotent: registering the same
// name twice creates two records.
func (s *Service) Register(ctx context.Context, req *RegisterRequest) (int64, error) {
	if req.DeviceName == "" || req.IPAddress == "" || req.Credential == "" {
		return 0, tachyonerrors.ErrInvalidInput
	}

	hash, err := s.hasher.Hash(req.Credential)
	if err != nil {
		return 0, err
	}

	device := &domain.Device{
		DeviceName:     req.DeviceName,
		IPAddress:      req.IPAddress,
		CredentialHash: hash,
	}

	opCtx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	defer cancel()

	id, err := s.repo.Create(opCtx, device)
	if err != nil {
		return 0, err
	}

	if s.cache != nil {
		if err := s.cache.Invalidate(ctx); err != nil {
			s.logger.Warn("Failed to invalidate device list cache", map[string]interface{}{"error": err.Error()})
		}
	}

	s.logger.Info("Device registered", map[string]interface{}{
		"device_name": req.DeviceName,
		"ip_address":  req.IPAddress,
	})

	return id, nil
}

// CheckAvailability authenticates the request against the stored
// credential hash and runs the reachability determination.
func (s *Service) CheckAvailability(ctx context.Context, req *CheckRequest) (*CheckResult, error) {
	if req.DeviceName == "" || req.Credential == "" {
		return nil, tachyonerrors.ErrInvalidInput
	}

	opCtx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	defer cancel()

	device, err := s.repo.FindByName(opCtx, req.DeviceName)
	if err != nil {
		return nil, err
	}

	ok, err := s.hasher.Verify(req.Credential, device.CredentialHash)
	if err != nil {
		// Corrupt stored hash: log the cause, surface the sentinel.
		s.logger.Error("Stored credential hash is malformed", map[string]interface{}{
			"device_name": device.DeviceName,
			"error":       err.Error(),
		})
		return nil, err
	}
	if !ok {
		return nil, tachyonerrors.ErrIncorrectCredential
	}

	reachable, err := s.prober.Probe(ctx, device.IPAddress)
	if err != nil {
		return nil, tachyonerrors.Wrap(err, "reachability probe failed")
	}

	s.logger.Info("Availability check completed", map[string]interface{}{
		"device_name": device.DeviceName,
		"reachable":   reachable,
	})

	return &CheckResult{Reachable: reachable}, nil
}

// ListDevices returns every registered device name in storage order,
// duplicates included. Cache failures degrade to the store.
func (s *Service) ListDevices(ctx context.Context) ([]string, error) {
	if s.cache != nil {
		if names, err := s.cache.Get(ctx); err == nil {
			return names, nil
		}
	}

	opCtx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	defer cancel()

	names, err := s.repo.ListNames(opCtx)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, names, s.cacheTTL); err != nil {
			s.logger.Warn("Failed to cache device list", map[string]interface{}{"error": err.Error()})
		}
	}

	return names, nil
}
