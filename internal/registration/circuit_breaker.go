package registration

import (
	"context"
	"fmt"

	"github.com/sony/gobreaker"

	"registration/internal/config"
	"registration/pkg/circuitbreaker"
)

// CircuitBreakerRecordStore isolates the workflow from a misbehaving record
// store. When disabled it is a plain passthrough.
type CircuitBreakerRecordStore struct {
	store RecordStore
	cb    *circuitbreaker.Wrapper
}

func NewCircuitBreakerRecordStore(store RecordStore, cfg config.CircuitBreakerConfig) *CircuitBreakerRecordStore {
	return &CircuitBreakerRecordStore{
		store: store,
		cb:    newWrapper("record-store", cfg),
	}
}

func (s *CircuitBreakerRecordStore) Put(ctx context.Context, record CustomerRecord) error {
	if s.cb == nil {
		return s.store.Put(ctx, record)
	}

	_, err := s.cb.ExecuteWithContext(ctx, func() (interface{}, error) {
		return nil, s.store.Put(ctx, record)
	})

	s.cb.RecordRequest(err == nil)

	if err != nil && s.cb.IsOpen() {
		return fmt.Errorf("circuit breaker is open for record-store: %w", err)
	}
	return err
}

type CircuitBreakerObjectArchive struct {
	archive ObjectArchive
	cb      *circuitbreaker.Wrapper
}

func NewCircuitBreakerObjectArchive(archive ObjectArchive, cfg config.CircuitBreakerConfig) *CircuitBreakerObjectArchive {
	return &CircuitBreakerObjectArchive{
		archive: archive,
		cb:      newWrapper("object-archive", cfg),
	}
}

func (a *CircuitBreakerObjectArchive) Put(ctx context.Context, key string, body []byte) error {
	if a.cb == nil {
		return a.archive.Put(ctx, key, body)
	}

	_, err := a.cb.ExecuteWithContext(ctx, func() (interface{}, error) {
		return nil, a.archive.Put(ctx, key, body)
	})

	a.cb.RecordRequest(err == nil)

	if err != nil && a.cb.IsOpen() {
		return fmt.Errorf("circuit breaker is open for object-archive: %w", err)
	}
	return err
}

func newWrapper(name string, cfg config.CircuitBreakerConfig) *circuitbreaker.Wrapper {
	if !cfg.Enabled {
		return nil
	}

	cbConfig := circuitbreaker.DefaultConfig(name)
	if cfg.MaxRequests > 0 {
		cbConfig.MaxRequests = cfg.MaxRequests
	}
	if cfg.Interval > 0 {
		cbConfig.Interval = cfg.Interval
	}
	if cfg.Timeout > 0 {
		cbConfig.Timeout = cfg.Timeout
	}
	if cfg.FailureRatio > 0 && cfg.MinRequests > 0 {
		cbConfig.ReadyToTrip = func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.MinRequests {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= cfg.FailureRatio
		}
	}

	return circuitbreaker.NewWrapper(cbConfig)
}
