package service

import (
	"context"
	"fmt"
	"strings"

	hclog "github.com/hashicorp/go-hclog"

	"webtally/internal/modules/tracking/domain"
	"webtally/internal/platform/clock"
	apperrors "webtally/internal/platform/errors"
)

// DetectorService feeds detector samples into the ledger.
type DetectorService struct {
	detector *domain.Detector
	ledger   *LedgerService
	clock    clock.Clock
	logger   hclog.Logger
}

func NewDetectorService(detector *domain.Detector, ledger *LedgerService, clk clock.Clock, logger hclog.Logger) *DetectorService {
	return &DetectorService{detector: detector, ledger: ledger, clock: clk, logger: logger}
}

func (s *DetectorService) Observe(ctx context.Context, contextID string, event domain.Event) (int, error) {
	if strings.TrimSpace(contextID) == "" {
		return 0, fmt.Errorf("%w: context id is required", apperrors.ErrInvalidInput)
	}
	if !event.Type.Valid() {
		return 0, fmt.Errorf("%w: unknown event type %q", apperrors.ErrInvalidInput, event.Type)
	}
	return s.record(ctx, s.detector.Observe(contextID, event, s.clock.Now()))
}

func (s *DetectorService) CheckIdle() {
	s.detector.CheckIdle(s.clock.Now())
}

func (s *DetectorService) Emit(ctx context.Context) (int, error) {
	return s.record(ctx, s.detector.Emit(s.clock.Now()))
}

func (s *DetectorService) Teardown(ctx context.Context) (int, error) {
	return s.record(ctx, s.detector.Teardown(s.clock.Now()))
}

func (s *DetectorService) Contexts() []domain.BrowsingContext {
	return s.detector.Contexts()
}

func (s *DetectorService) record(ctx context.Context, samples []domain.ActivitySample) (int, error) {
	for _, sample := range samples {
		if err := s.ledger.Record(ctx, sample); err != nil {
			return 0, err
		}
		s.logger.Trace("sample recorded", "domain", sample.Domain, "delta", sample.ActiveDelta)
	}
	return len(samples), nil
}
