package cases

import (
	"time"

	"github.com/google/uuid"
)

// Case lifecycle states.
const (
	StatusActive      = "active"
	StatusDisposition = "disposition"
	StatusDischarged  = "discharged"
)

// CaseRecord maps to the case_record table. The clinical sub-documents are
// stored as JSONB columns; the scalar columns exist for list views and
// status filtering.
type CaseRecord struct {
	ID               uuid.UUID        `db:"id" json:"id"`
	PatientName      string           `db:"patient_name" json:"patient_name"`
	PatientAge       int              `db:"patient_age" json:"patient_age,omitempty"`
	PatientSex       string           `db:"patient_sex" json:"patient_sex,omitempty"`
	ChiefComplaint   string           `db:"chief_complaint" json:"chief_complaint"`
	Status           string           `db:"status" json:"status"`
	Triage           TriageData       `db:"triage_data" json:"triage_data"`
	CaseSheet        CaseSheet        `db:"case_sheet_data" json:"case_sheet_data"`
	Treatment        Treatment        `db:"treatment" json:"treatment"`
	Investigations   Investigations   `db:"investigations" json:"investigations"`
	Procedures       Procedures       `db:"procedures" json:"procedures"`
	AddendumNotes    []string         `db:"addendum_notes" json:"addendum_notes"`
	DischargeSummary DischargeSummary `db:"discharge_summary" json:"discharge_summary"`
	CreatedAt        time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time        `db:"updated_at" json:"updated_at"`
}

// TriageData is the payload captured by the triage screen.
type TriageData struct {
	ChiefComplaint   string   `json:"chief_complaint,omitempty"`
	ArrivalMode      string   `json:"arrival_mode,omitempty"`
	AcuityLevel      int      `json:"acuity_level,omitempty"`
	PainScale        int      `json:"pain_scale,omitempty"`
	HeartRate        int      `json:"heart_rate,omitempty"`
	BloodPressureSys int      `json:"blood_pressure_sys,omitempty"`
	BloodPressureDia int      `json:"blood_pressure_dia,omitempty"`
	Temperature      float64  `json:"temperature,omitempty"`
	RespiratoryRate  int      `json:"respiratory_rate,omitempty"`
	OxygenSaturation int      `json:"oxygen_saturation,omitempty"`
	GlasgowComaScore int      `json:"glasgow_coma_score,omitempty"`
	Allergies        []string `json:"allergies,omitempty"`
	Note             string   `json:"note,omitempty"`
}

// PrimarySurvey is the ABCDE assessment block of the case sheet.
type PrimarySurvey struct {
	Airway      string `json:"airway,omitempty"`
	Breathing   string `json:"breathing,omitempty"`
	Circulation string `json:"circulation,omitempty"`
	Disability  string `json:"disability,omitempty"`
	Exposure    string `json:"exposure,omitempty"`
}

// PhysicalExam is the system-wise examination block of the case sheet.
type PhysicalExam struct {
	General         string `json:"general,omitempty"`
	Cardiovascular  string `json:"cardiovascular,omitempty"`
	Respiratory     string `json:"respiratory,omitempty"`
	Abdomen         string `json:"abdomen,omitempty"`
	Neurological    string `json:"neurological,omitempty"`
	Musculoskeletal string `json:"musculoskeletal,omitempty"`
	Other           string `json:"other,omitempty"`
}

// CaseSheet is the payload produced by the primary-survey and physical-exam
// screens, including history and the disposition plan.
type CaseSheet struct {
	PrimarySurvey           PrimarySurvey `json:"primary_survey"`
	PhysicalExam            PhysicalExam  `json:"physical_exam"`
	HistoryOfPresentIllness string        `json:"history_of_present_illness,omitempty"`
	PastMedicalHistory      string        `json:"past_medical_history,omitempty"`
	MedicationHistory       string        `json:"medication_history,omitempty"`
	Disposition             string        `json:"disposition,omitempty"`
	DispositionDestination  string        `json:"disposition_destination,omitempty"`
}

// Treatment is the treatment-screen sub-document. AddendumNotes mirrors the
// top-level CaseRecord list; both locations are kept in step by the merge.
type Treatment struct {
	PrimaryDiagnosis      string   `json:"primary_diagnosis,omitempty"`
	ProvisionalDiagnoses  []string `json:"provisional_diagnoses,omitempty"`
	DifferentialDiagnoses []string `json:"differential_diagnoses,omitempty"`
	Medications           []string `json:"medications,omitempty"`
	Infusions             []string `json:"infusions,omitempty"`
	Fluids                string   `json:"fluids,omitempty"`
	OtherMedications      string   `json:"other_medications,omitempty"`
	InterventionNotes     string   `json:"intervention_notes,omitempty"`
	AddendumNotes         []string `json:"addendum_notes,omitempty"`
}

// Investigations is the investigations-screen sub-document.
type Investigations struct {
	PanelsSelected []string `json:"panels_selected,omitempty"`
	Imaging        []string `json:"imaging,omitempty"`
	ResultsNotes   string   `json:"results_notes,omitempty"`
}

// Procedures is the procedures-screen sub-document.
type Procedures struct {
	ProceduresPerformed []string `json:"procedures_performed,omitempty"`
	GeneralNotes        string   `json:"general_notes,omitempty"`
}

// DischargeSummary is the discharge-summary-screen sub-document.
type DischargeSummary struct {
	Diagnosis            string   `json:"diagnosis,omitempty"`
	TreatmentGiven       string   `json:"treatment_given,omitempty"`
	ConditionAtDischarge string   `json:"condition_at_discharge,omitempty"`
	DischargeMedications []string `json:"discharge_medications,omitempty"`
	FollowUpAdvice       string   `json:"follow_up_advice,omitempty"`
	Disposition          string   `json:"disposition,omitempty"`
}

// IsEmpty reports whether every field of the summary is unset. An empty
// summary on a server record is treated as "not yet written" and may be
// substituted wholesale from the cache.
func (d DischargeSummary) IsEmpty() bool {
	return d.Diagnosis == "" &&
		d.TreatmentGiven == "" &&
		d.ConditionAtDischarge == "" &&
		len(d.DischargeMedications) == 0 &&
		d.FollowUpAdvice == "" &&
		d.Disposition == ""
}

// CaseSnapshot carries the cacheable sub-documents of a case. Nil fields
// mean "not captured in this snapshot" and leave existing cached values
// untouched.
type CaseSnapshot struct {
	Treatment        *Treatment        `json:"treatment,omitempty"`
	Investigations   *Investigations   `json:"investigations,omitempty"`
	Procedures       *Procedures       `json:"procedures,omitempty"`
	AddendumNotes    []string          `json:"addendum_notes,omitempty"`
	DischargeSummary *DischargeSummary `json:"discharge_summary,omitempty"`
}

// Snapshot extracts the cacheable sub-documents from a full record.
func (c *CaseRecord) Snapshot() CaseSnapshot {
	t := c.Treatment
	inv := c.Investigations
	p := c.Procedures
	ds := c.DischargeSummary
	return CaseSnapshot{
		Treatment:        &t,
		Investigations:   &inv,
		Procedures:       &p,
		AddendumNotes:    c.AddendumNotes,
		DischargeSummary: &ds,
	}
}
