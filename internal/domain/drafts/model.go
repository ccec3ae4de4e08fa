package drafts

import (
	"github.com/ercase/ercase/internal/domain/cases"
)

// Draft lifecycle states. A draft starts as device-local work in progress
// and is marked committed once its content lives in a backend case record.
// Commit is irreversible; committed drafts are kept only for recovery
// until the cleanup sweep ages them out.
const (
	StatusDraft     = "draft"
	StatusCommitted = "committed"
)

// DraftCase is one in-progress case held on a device. Timestamps are
// fixed-width ISO-8601 strings.
type DraftCase struct {
	DraftID          string                  `json:"draft_id"`
	BackendID        *string                 `json:"backend_id,omitempty"`
	Status           string                  `json:"status"`
	PatientName      string                  `json:"patient_name,omitempty"`
	PatientAge       int                     `json:"patient_age,omitempty"`
	PatientSex       string                  `json:"patient_sex,omitempty"`
	ChiefComplaint   string                  `json:"chief_complaint,omitempty"`
	Triage           *cases.TriageData       `json:"triage_data,omitempty"`
	CaseSheet        *cases.CaseSheet        `json:"case_sheet_data,omitempty"`
	DischargeSummary *cases.DischargeSummary `json:"discharge_summary,omitempty"`
	CreatedAt        string                  `json:"created_at"`
	UpdatedAt        string                  `json:"updated_at"`
}

// DraftPatch is a partial update. Nil fields leave the draft untouched.
type DraftPatch struct {
	PatientName      *string                 `json:"patient_name,omitempty"`
	PatientAge       *int                    `json:"patient_age,omitempty"`
	PatientSex       *string                 `json:"patient_sex,omitempty"`
	ChiefComplaint   *string                 `json:"chief_complaint,omitempty"`
	Triage           *cases.TriageData       `json:"triage_data,omitempty"`
	CaseSheet        *cases.CaseSheet        `json:"case_sheet_data,omitempty"`
	DischargeSummary *cases.DischargeSummary `json:"discharge_summary,omitempty"`
}

func (d *DraftCase) apply(p DraftPatch) {
	if p.PatientName != nil {
		d.PatientName = *p.PatientName
	}
	if p.PatientAge != nil {
		d.PatientAge = *p.PatientAge
	}
	if p.PatientSex != nil {
		d.PatientSex = *p.PatientSex
	}
	if p.ChiefComplaint != nil {
		d.ChiefComplaint = *p.ChiefComplaint
	}
	if p.Triage != nil {
		d.Triage = p.Triage
	}
	if p.CaseSheet != nil {
		d.CaseSheet = p.CaseSheet
	}
	if p.DischargeSummary != nil {
		d.DischargeSummary = p.DischargeSummary
	}
}

// DraftFile is the whole per-device blob: every draft plus which one is
// open on screen. It is read and written as a unit, so the last writer
// wins at file granularity.
type DraftFile struct {
	Drafts        []DraftCase `json:"drafts"`
	ActiveDraftID string      `json:"active_draft_id"`
}

func (f *DraftFile) find(draftID string) *DraftCase {
	for i := range f.Drafts {
		if f.Drafts[i].DraftID == draftID {
			return &f.Drafts[i]
		}
	}
	return nil
}

func (f *DraftFile) findByBackendID(backendID string) *DraftCase {
	for i := range f.Drafts {
		if f.Drafts[i].BackendID != nil && *f.Drafts[i].BackendID == backendID {
			return &f.Drafts[i]
		}
	}
	return nil
}
