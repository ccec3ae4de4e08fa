package drafts

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ercase/ercase/internal/domain/cases"
	"github.com/ercase/ercase/internal/platform/metrics"
	"github.com/ercase/ercase/pkg/isotime"
)

// ErrDraftNotFound is returned by SaveCaseSheet when the draft id resolves
// to nothing. Losing a case sheet silently is not acceptable, so this is
// the one draft mutation that fails loudly.
var ErrDraftNotFound = errors.New("draft not found")

// DefaultMaxAgeDays is how long committed drafts linger before cleanup.
const DefaultMaxAgeDays = 7

// CaseWriter is the slice of the case service that drafts write through
// to once they are bound to a backend record.
type CaseWriter interface {
	SaveCaseSheet(ctx context.Context, id uuid.UUID, cs cases.CaseSheet) error
	SaveDischargeSummary(ctx context.Context, deviceID string, id uuid.UUID, ds cases.DischargeSummary) error
}

// Service owns the per-device draft files. Storage faults never fail an
// operation: reads fall back to an empty file and failed writes are
// logged and dropped. Mutations against unknown draft ids are ignored,
// with SaveCaseSheet as the single exception.
type Service struct {
	repo    Repository
	cases   CaseWriter
	metrics *metrics.Collector
	logger  zerolog.Logger
}

func NewService(repo Repository, cw CaseWriter, collector *metrics.Collector, logger zerolog.Logger) *Service {
	return &Service{repo: repo, cases: cw, metrics: collector, logger: logger}
}

// newDraftID combines a millisecond timestamp with a random suffix, so ids
// sort roughly by creation time and are never reused within a device.
func newDraftID() string {
	return fmt.Sprintf("draft-%d-%s", time.Now().UnixMilli(), uuid.NewString()[:8])
}

// CreateDraft starts a new draft from the given fields and makes it the
// active one.
func (s *Service) CreateDraft(ctx context.Context, deviceID string, patch DraftPatch) *DraftCase {
	now := isotime.Now()
	d := DraftCase{
		DraftID:   newDraftID(),
		Status:    StatusDraft,
		CreatedAt: now,
		UpdatedAt: now,
	}
	d.apply(patch)

	f := s.load(ctx, deviceID)
	f.Drafts = append(f.Drafts, d)
	f.ActiveDraftID = d.DraftID
	s.save(ctx, deviceID, f)
	s.metrics.RecordDraftOp("create")
	return &d
}

// GetOrCreateDraftForCase returns the open draft linked to the given
// backend case, creating a pre-linked one when none exists. Reopening a
// case never spawns a duplicate draft; committed drafts do not count as
// open, so a fresh edit after commit starts a fresh draft. The result
// becomes the active draft either way. The initial patch only applies
// when a new draft is created.
func (s *Service) GetOrCreateDraftForCase(ctx context.Context, deviceID, backendID string, patch DraftPatch) *DraftCase {
	f := s.load(ctx, deviceID)
	for i := range f.Drafts {
		d := &f.Drafts[i]
		if d.Status != StatusDraft || d.BackendID == nil || *d.BackendID != backendID {
			continue
		}
		f.ActiveDraftID = d.DraftID
		s.save(ctx, deviceID, f)
		s.metrics.RecordDraftOp("get_or_create")
		out := *d
		return &out
	}

	now := isotime.Now()
	bid := backendID
	d := DraftCase{
		DraftID:   newDraftID(),
		BackendID: &bid,
		Status:    StatusDraft,
		CreatedAt: now,
		UpdatedAt: now,
	}
	d.apply(patch)
	f.Drafts = append(f.Drafts, d)
	f.ActiveDraftID = d.DraftID
	s.save(ctx, deviceID, f)
	s.metrics.RecordDraftOp("get_or_create")
	return &d
}

// UpdateDraft applies a partial update. Unknown draft ids are ignored.
func (s *Service) UpdateDraft(ctx context.Context, deviceID, draftID string, patch DraftPatch) (*DraftCase, bool) {
	f := s.load(ctx, deviceID)
	d := f.find(draftID)
	if d == nil {
		s.logger.Debug().Str("device_id", deviceID).Str("draft_id", draftID).Msg("update for unknown draft ignored")
		return nil, false
	}
	d.apply(patch)
	d.UpdatedAt = isotime.Now()
	s.save(ctx, deviceID, f)
	s.metrics.RecordDraftOp("update")
	out := *d
	return &out, true
}

// SaveCaseSheet stores the case sheet on the draft and, when the draft is
// bound to a backend case, writes it through to the record.
func (s *Service) SaveCaseSheet(ctx context.Context, deviceID, draftID string, cs cases.CaseSheet) (*DraftCase, error) {
	f := s.load(ctx, deviceID)
	d := f.find(draftID)
	if d == nil {
		return nil, ErrDraftNotFound
	}
	sheet := cs
	d.CaseSheet = &sheet
	d.UpdatedAt = isotime.Now()
	s.save(ctx, deviceID, f)
	s.metrics.RecordDraftOp("save_case_sheet")

	if id, ok := s.backendUUID(d); ok {
		if err := s.cases.SaveCaseSheet(ctx, id, cs); err != nil {
			s.logger.Warn().Err(err).Str("draft_id", draftID).Msg("case sheet write-through failed")
		}
	}
	out := *d
	return &out, nil
}

// SaveDischargeSummary stores the summary on the draft. Unknown draft ids
// are ignored.
func (s *Service) SaveDischargeSummary(ctx context.Context, deviceID, draftID string, ds cases.DischargeSummary) (*DraftCase, bool) {
	f := s.load(ctx, deviceID)
	d := f.find(draftID)
	if d == nil {
		s.logger.Debug().Str("device_id", deviceID).Str("draft_id", draftID).Msg("discharge summary for unknown draft ignored")
		return nil, false
	}
	summary := ds
	d.DischargeSummary = &summary
	d.UpdatedAt = isotime.Now()
	s.save(ctx, deviceID, f)
	s.metrics.RecordDraftOp("save_discharge_summary")

	if id, ok := s.backendUUID(d); ok {
		if err := s.cases.SaveDischargeSummary(ctx, deviceID, id, ds); err != nil {
			s.logger.Warn().Err(err).Str("draft_id", draftID).Msg("discharge summary write-through failed")
		}
	}
	out := *d
	return &out, true
}

// MarkCommitted binds the draft to its backend record. Unknown draft ids
// are ignored.
func (s *Service) MarkCommitted(ctx context.Context, deviceID, draftID, backendID string) (*DraftCase, bool) {
	f := s.load(ctx, deviceID)
	d := f.find(draftID)
	if d == nil {
		s.logger.Debug().Str("device_id", deviceID).Str("draft_id", draftID).Msg("commit for unknown draft ignored")
		return nil, false
	}
	bid := backendID
	d.BackendID = &bid
	d.Status = StatusCommitted
	d.UpdatedAt = isotime.Now()
	s.save(ctx, deviceID, f)
	s.metrics.RecordDraftOp("commit")
	out := *d
	return &out, true
}

func (s *Service) GetDraft(ctx context.Context, deviceID, draftID string) (*DraftCase, bool) {
	f := s.load(ctx, deviceID)
	d := f.find(draftID)
	if d == nil {
		return nil, false
	}
	out := *d
	return &out, true
}

func (s *Service) GetDraftByBackendID(ctx context.Context, deviceID, backendID string) (*DraftCase, bool) {
	f := s.load(ctx, deviceID)
	d := f.findByBackendID(backendID)
	if d == nil {
		return nil, false
	}
	out := *d
	return &out, true
}

// ListDrafts returns the device's in-progress drafts. Committed shells
// are excluded.
func (s *Service) ListDrafts(ctx context.Context, deviceID string) []DraftCase {
	f := s.load(ctx, deviceID)
	out := []DraftCase{}
	for _, d := range f.Drafts {
		if d.Status == StatusDraft {
			out = append(out, d)
		}
	}
	return out
}

// SetActiveDraft marks which draft is open on screen. An empty id clears
// the marker; unknown ids are ignored.
func (s *Service) SetActiveDraft(ctx context.Context, deviceID, draftID string) {
	f := s.load(ctx, deviceID)
	if draftID != "" && f.find(draftID) == nil {
		s.logger.Debug().Str("device_id", deviceID).Str("draft_id", draftID).Msg("activate for unknown draft ignored")
		return
	}
	f.ActiveDraftID = draftID
	s.save(ctx, deviceID, f)
	s.metrics.RecordDraftOp("set_active")
}

// ActiveDraft returns the draft currently open on screen, if any.
func (s *Service) ActiveDraft(ctx context.Context, deviceID string) (*DraftCase, bool) {
	f := s.load(ctx, deviceID)
	if f.ActiveDraftID == "" {
		return nil, false
	}
	d := f.find(f.ActiveDraftID)
	if d == nil {
		return nil, false
	}
	out := *d
	return &out, true
}

// DeleteDraft removes the draft, clearing the active marker if it pointed
// there. Unknown draft ids are ignored.
func (s *Service) DeleteDraft(ctx context.Context, deviceID, draftID string) {
	f := s.load(ctx, deviceID)
	kept := make([]DraftCase, 0, len(f.Drafts))
	removed := false
	for _, d := range f.Drafts {
		if d.DraftID == draftID {
			removed = true
			continue
		}
		kept = append(kept, d)
	}
	if !removed {
		return
	}
	f.Drafts = kept
	if f.ActiveDraftID == draftID {
		f.ActiveDraftID = ""
	}
	s.save(ctx, deviceID, f)
	s.metrics.RecordDraftOp("delete")
}

// CleanupOldDrafts removes committed drafts whose last update is older
// than maxAgeDays and reports how many were dropped. In-progress drafts
// are never touched.
func (s *Service) CleanupOldDrafts(ctx context.Context, deviceID string, maxAgeDays int) int {
	if maxAgeDays <= 0 {
		maxAgeDays = DefaultMaxAgeDays
	}
	cutoff := isotime.Format(time.Now().AddDate(0, 0, -maxAgeDays))

	f := s.load(ctx, deviceID)
	kept := make([]DraftCase, 0, len(f.Drafts))
	removed := 0
	for _, d := range f.Drafts {
		if d.Status == StatusCommitted && isotime.Before(d.UpdatedAt, cutoff) {
			removed++
			if f.ActiveDraftID == d.DraftID {
				f.ActiveDraftID = ""
			}
			continue
		}
		kept = append(kept, d)
	}
	if removed == 0 {
		return 0
	}
	f.Drafts = kept
	s.save(ctx, deviceID, f)
	s.metrics.RecordDraftOp("cleanup")
	return removed
}

func (s *Service) backendUUID(d *DraftCase) (uuid.UUID, bool) {
	if d.BackendID == nil {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(*d.BackendID)
	if err != nil {
		s.logger.Warn().Str("draft_id", d.DraftID).Str("backend_id", *d.BackendID).Msg("draft backend id is not a uuid, write-through skipped")
		return uuid.Nil, false
	}
	return id, true
}

func (s *Service) load(ctx context.Context, deviceID string) *DraftFile {
	f, err := s.repo.LoadFile(ctx, deviceID)
	if err != nil {
		s.metrics.RecordStorageFault("drafts")
		s.logger.Warn().Err(err).Str("device_id", deviceID).Msg("draft file read failed, starting empty")
	}
	return f
}

func (s *Service) save(ctx context.Context, deviceID string, f *DraftFile) {
	if err := s.repo.SaveFile(ctx, deviceID, f); err != nil {
		s.metrics.RecordStorageFault("drafts")
		s.logger.Warn().Err(err).Str("device_id", deviceID).Msg("draft file write failed, changes not persisted")
	}
}
