package analyzer

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/raine/facegrade/internal/analysis"
	"github.com/raine/facegrade/internal/auth"
	"github.com/raine/facegrade/internal/history"
	"github.com/raine/facegrade/internal/storage"
	"github.com/raine/facegrade/internal/vision"
	"github.com/rs/zerolog/log"
)

const (
	progressTickInterval = 500 * time.Millisecond
	progressTickStep     = 10
	// The synthetic ticker never passes 90; only a completed run sets 100.
	// The percentage is purely cosmetic and says nothing about how far the
	// oracle actually is.
	progressCeiling = 90
)

// AnalysisStore is the subset of the persistent store the orchestrator needs.
type AnalysisStore interface {
	SaveAnalysis(userID, imageURI string, result *analysis.Result) (*storage.StoredAnalysis, error)
	LatestAnalysis(userID string) (*storage.StoredAnalysis, error)
}

// IdentityProvider supplies the optional identity that scopes persistence.
type IdentityProvider interface {
	CurrentIdentity() *auth.Identity
}

// State is a snapshot of the orchestrator's observables.
type State struct {
	Busy     bool
	Progress int
	Err      string
	Current  *analysis.Result
}

// Service drives one end-to-end analysis run: load image, call the oracle,
// extract and validate the result, cache it locally and persist it best
// effort. It also maintains the current-result and progress observables for
// presentation.
//
// The busy flag is a plain bool, not a semaphore: overlapping Analyze calls
// are not guarded against and should be serialized by the caller.
type Service struct {
	oracle  vision.Analyzer
	store   AnalysisStore
	auth    IdentityProvider
	history *history.Cache
	images  *ImageLoader

	tickInterval time.Duration

	mu       sync.Mutex
	busy     bool
	progress int
	lastErr  string
	current  *analysis.Result
}

// NewService creates the orchestrator. store and identity may be nil, which
// disables persistence; history may be nil, which disables local caching.
func NewService(oracle vision.Analyzer, store AnalysisStore, identity IdentityProvider, historyCache *history.Cache) *Service {
	return &Service{
		oracle:       oracle,
		store:        store,
		auth:         identity,
		history:      historyCache,
		images:       NewImageLoader(),
		tickInterval: progressTickInterval,
	}
}

// State returns a snapshot of the observables.
func (s *Service) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return State{Busy: s.busy, Progress: s.progress, Err: s.lastErr, Current: s.current}
}

// Analyze runs one analysis for the image at imageURI (a local path or an
// http(s) URL). On success the result becomes current, is appended to the
// local history and written to the persistent store best effort. Any oracle,
// extraction or validation failure propagates; a store write failure does
// not.
func (s *Service) Analyze(ctx context.Context, imageURI string) (*analysis.Result, error) {
	if imageURI == "" {
		return nil, fmt.Errorf("image reference is empty")
	}
	return s.guardedRun(func() (*analysis.Result, error) {
		data, mimeType, err := s.images.Load(ctx, imageURI)
		if err != nil {
			return nil, err
		}
		return s.analyzeData(ctx, imageURI, data, mimeType)
	})
}

// guardedRun wraps one analysis run with the busy/progress/error
// bookkeeping. The ticker is stopped on every exit path so no progress
// update can outlive the run.
func (s *Service) guardedRun(run func() (*analysis.Result, error)) (*analysis.Result, error) {
	s.mu.Lock()
	s.busy = true
	s.progress = 0
	s.lastErr = ""
	s.mu.Unlock()

	stop := s.startProgressTicker()
	defer stop()

	result, err := run()
	stop()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.busy = false
	if err != nil {
		s.lastErr = err.Error()
		return nil, err
	}
	s.progress = 100
	s.current = result
	return result, nil
}

func (s *Service) analyzeData(ctx context.Context, imageURI string, data []byte, mimeType string) (*analysis.Result, error) {
	resp, err := s.oracle.AnalyzeImage(ctx, data, mimeType)
	if err != nil {
		return nil, err
	}
	log.Debug().
		Int64("totalTokens", resp.Usage.TotalTokens).
		Float64("costUSD", resp.Usage.CostUSD).
		Msg("oracle call finished")

	if vision.IsRefusal(resp.Content) {
		return nil, fmt.Errorf("%w: analysis is currently unavailable for this image", vision.ErrRefusal)
	}

	result, err := analysis.ParseResponse(resp.Content)
	if err != nil {
		return nil, err
	}

	if s.history != nil {
		if _, err := s.history.Append(imageURI, result); err != nil {
			log.Warn().Err(err).Msg("failed to save result to history")
		}
	}

	// Best-effort persistence: the local result stays authoritative for the
	// UI even when the durable write fails
	if s.store != nil {
		if _, err := s.store.SaveAnalysis(s.currentUserID(), imageURI, result); err != nil {
			log.Error().Err(err).Msg("failed to persist analysis")
		}
	}

	return result, nil
}

// FetchLatest returns the most recent persisted result for the current
// identity scope, or nil, nil when that scope has no rows. Query failures
// propagate; row absence does not.
func (s *Service) FetchLatest(ctx context.Context) (*analysis.Result, error) {
	if s.store == nil {
		return nil, nil
	}
	row, err := s.store.LatestAnalysis(s.currentUserID())
	if err != nil {
		return nil, fmt.Errorf("failed to fetch latest analysis: %w", err)
	}
	if row == nil {
		return nil, nil
	}

	result := row.Result
	s.mu.Lock()
	s.current = &result
	s.mu.Unlock()
	return &result, nil
}

func (s *Service) currentUserID() string {
	if s.auth == nil {
		return ""
	}
	if identity := s.auth.CurrentIdentity(); identity != nil {
		return identity.ID
	}
	return ""
}

// startProgressTicker runs the cosmetic progress counter. The returned stop
// function is idempotent; after it returns, no further progress writes can
// happen (the goroutine re-checks the stop channel under the state mutex).
func (s *Service) startProgressTicker() func() {
	stop := make(chan struct{})
	var once sync.Once

	go func() {
		ticker := time.NewTicker(s.tickInterval)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				s.mu.Lock()
				select {
				case <-stop:
					s.mu.Unlock()
					return
				default:
				}
				if s.progress < progressCeiling {
					s.progress += progressTickStep
					if s.progress > progressCeiling {
						s.progress = progressCeiling
					}
				}
				s.mu.Unlock()
			}
		}
	}()

	return func() {
		once.Do(func() {
			s.mu.Lock()
			close(stop)
			s.mu.Unlock()
		})
	}
}
