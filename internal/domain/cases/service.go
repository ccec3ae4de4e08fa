package cases

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"

	"github.com/ercase/ercase/internal/platform/ai"
	"github.com/ercase/ercase/internal/platform/metrics"
)

// ErrCaseNotFound is returned when a case id resolves to no record.
var ErrCaseNotFound = errors.New("case not found")

// ErrSuggestionsUnavailable is returned when no diagnosis-suggestion
// service is configured.
var ErrSuggestionsUnavailable = errors.New("diagnosis suggestions not configured")

// DifferentialSuggester is the slice of the diagnosis client this service
// uses.
type DifferentialSuggester interface {
	SuggestDifferentials(ctx context.Context, req ai.DifferentialRequest) ([]string, error)
}

func validStatus(s string) bool {
	return s == StatusActive || s == StatusDisposition || s == StatusDischarged
}

// Service owns case records and keeps the per-device edit cache in step
// with them. Reads reconcile the server record with the caller's cached
// edits; clinical saves write through to both.
type Service struct {
	repo      Repository
	cache     *Cache
	suggester DifferentialSuggester
	metrics   *metrics.Collector
	logger    zerolog.Logger
}

// NewService wires the case service. suggester may be nil when no
// diagnosis service is configured.
func NewService(repo Repository, cache *Cache, suggester DifferentialSuggester, collector *metrics.Collector, logger zerolog.Logger) *Service {
	return &Service{repo: repo, cache: cache, suggester: suggester, metrics: collector, logger: logger}
}

func (s *Service) CreateCase(ctx context.Context, c *CaseRecord) error {
	if c.ChiefComplaint == "" {
		c.ChiefComplaint = c.Triage.ChiefComplaint
	}
	if c.PatientName == "" {
		return fmt.Errorf("patient_name is required")
	}
	if c.ChiefComplaint == "" {
		return fmt.Errorf("chief_complaint is required")
	}
	if c.Status == "" {
		c.Status = StatusActive
	}
	if !validStatus(c.Status) {
		return fmt.Errorf("invalid status %q", c.Status)
	}
	if c.AddendumNotes == nil {
		c.AddendumNotes = []string{}
	}
	return s.repo.Create(ctx, c)
}

// GetCase returns the server record overlaid with the device's cached
// edits. An empty deviceID skips reconciliation.
func (s *Service) GetCase(ctx context.Context, deviceID string, id uuid.UUID) (*CaseRecord, error) {
	record, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCaseNotFound
		}
		return nil, err
	}
	if deviceID == "" {
		return record, nil
	}
	cached, ok := s.cache.CachedCase(ctx, deviceID, id.String())
	if !ok {
		return record, nil
	}
	merged := MergeWithCached(*record, &cached)
	s.metrics.RecordMerge()
	return &merged, nil
}

func (s *Service) ListCases(ctx context.Context, params map[string]string, limit, offset int) ([]*CaseRecord, int, error) {
	if len(params) == 0 {
		return s.repo.List(ctx, limit, offset)
	}
	return s.repo.Search(ctx, params, limit, offset)
}

func (s *Service) DeleteCase(ctx context.Context, id uuid.UUID) error {
	return s.repo.Delete(ctx, id)
}

func (s *Service) SaveTriage(ctx context.Context, id uuid.UUID, t TriageData) error {
	return s.repo.UpdateTriage(ctx, id, t)
}

func (s *Service) SaveCaseSheet(ctx context.Context, id uuid.UUID, cs CaseSheet) error {
	return s.repo.UpdateCaseSheet(ctx, id, cs)
}

func (s *Service) SaveTreatment(ctx context.Context, deviceID string, id uuid.UUID, t Treatment) error {
	if err := s.repo.UpdateTreatment(ctx, id, t); err != nil {
		return err
	}
	if deviceID != "" {
		s.cache.CachePayload(ctx, deviceID, id.String(), CaseSnapshot{Treatment: &t})
	}
	return nil
}

func (s *Service) SaveInvestigations(ctx context.Context, deviceID string, id uuid.UUID, inv Investigations) error {
	if err := s.repo.UpdateInvestigations(ctx, id, inv); err != nil {
		return err
	}
	if deviceID != "" {
		s.cache.CachePayload(ctx, deviceID, id.String(), CaseSnapshot{Investigations: &inv})
	}
	return nil
}

func (s *Service) SaveProcedures(ctx context.Context, deviceID string, id uuid.UUID, p Procedures) error {
	if err := s.repo.UpdateProcedures(ctx, id, p); err != nil {
		return err
	}
	if deviceID != "" {
		s.cache.CachePayload(ctx, deviceID, id.String(), CaseSnapshot{Procedures: &p})
	}
	return nil
}

// AppendAddendum appends one note to the case's addendum list and returns
// the full list. The append starts from the reconciled view so notes held
// only in the device cache are not dropped.
func (s *Service) AppendAddendum(ctx context.Context, deviceID string, id uuid.UUID, note string) ([]string, error) {
	if note == "" {
		return nil, fmt.Errorf("note is required")
	}
	record, err := s.GetCase(ctx, deviceID, id)
	if err != nil {
		return nil, err
	}
	notes := append(record.AddendumNotes, note)
	if err := s.repo.UpdateAddendumNotes(ctx, id, notes); err != nil {
		return nil, err
	}
	if deviceID != "" {
		s.cache.CacheAddendumNotes(ctx, deviceID, id.String(), notes)
	}
	return notes, nil
}

func (s *Service) SaveDischargeSummary(ctx context.Context, deviceID string, id uuid.UUID, ds DischargeSummary) error {
	if err := s.repo.UpdateDischargeSummary(ctx, id, ds); err != nil {
		return err
	}
	if deviceID != "" {
		s.cache.CacheDischargeSummary(ctx, deviceID, id.String(), ds)
	}
	return nil
}

func (s *Service) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	if !validStatus(status) {
		return fmt.Errorf("invalid status %q", status)
	}
	return s.repo.UpdateStatus(ctx, id, status)
}

// SuggestDifferentials builds a summary from the reconciled case view and
// asks the diagnosis service for differential candidates.
func (s *Service) SuggestDifferentials(ctx context.Context, deviceID string, id uuid.UUID) ([]string, error) {
	if s.suggester == nil {
		return nil, ErrSuggestionsUnavailable
	}
	record, err := s.GetCase(ctx, deviceID, id)
	if err != nil {
		return nil, err
	}
	req := ai.DifferentialRequest{
		ChiefComplaint:          record.ChiefComplaint,
		PatientAge:              record.PatientAge,
		PatientSex:              record.PatientSex,
		AcuityLevel:             record.Triage.AcuityLevel,
		HistoryOfPresentIllness: record.CaseSheet.HistoryOfPresentIllness,
		ProvisionalDiagnoses:    record.Treatment.ProvisionalDiagnoses,
	}
	return s.suggester.SuggestDifferentials(ctx, req)
}
