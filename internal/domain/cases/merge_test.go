package cases

import (
	"reflect"
	"testing"
)

func serverRecord() CaseRecord {
	return CaseRecord{
		PatientName:    "Asha Rao",
		PatientAge:     54,
		ChiefComplaint: "chest pain",
		Status:         StatusActive,
		Treatment: Treatment{
			PrimaryDiagnosis: "acute coronary syndrome",
			Medications:      []string{"aspirin 300mg"},
		},
		AddendumNotes: []string{"arrived via ambulance"},
	}
}

func TestMergeWithCached_NilEntryReturnsRecordUnchanged(t *testing.T) {
	rec := serverRecord()
	got := MergeWithCached(rec, nil)
	if !reflect.DeepEqual(got, rec) {
		t.Errorf("expected record unchanged, got %+v", got)
	}
}

func TestMergeWithCached_ServerValuesWin(t *testing.T) {
	rec := serverRecord()
	cached := &CachedCase{
		Treatment: Treatment{
			PrimaryDiagnosis: "STEMI",
			Medications:      []string{"heparin"},
		},
		Investigations: Investigations{ResultsNotes: "troponin pending"},
	}
	rec.Investigations.ResultsNotes = "troponin elevated"

	got := MergeWithCached(rec, cached)
	if got.Treatment.PrimaryDiagnosis != "acute coronary syndrome" {
		t.Errorf("expected server diagnosis kept, got %q", got.Treatment.PrimaryDiagnosis)
	}
	if !reflect.DeepEqual(got.Treatment.Medications, []string{"aspirin 300mg"}) {
		t.Errorf("expected server medications kept, got %v", got.Treatment.Medications)
	}
	if got.Investigations.ResultsNotes != "troponin elevated" {
		t.Errorf("expected server results notes kept, got %q", got.Investigations.ResultsNotes)
	}
}

func TestMergeWithCached_CachedValuesFillServerBlanks(t *testing.T) {
	rec := CaseRecord{PatientName: "Asha Rao", ChiefComplaint: "chest pain", Status: StatusActive}
	cached := &CachedCase{
		Treatment: Treatment{
			PrimaryDiagnosis:     "acute coronary syndrome",
			ProvisionalDiagnoses: []string{"ACS", "PE"},
			Medications:          []string{"aspirin 300mg"},
			Fluids:               "NS 500ml bolus",
			InterventionNotes:    "cath lab activated",
		},
		Investigations: Investigations{
			PanelsSelected: []string{"cardiac", "cbc"},
			Imaging:        []string{"chest x-ray"},
			ResultsNotes:   "troponin pending",
		},
		Procedures: Procedures{
			ProceduresPerformed: []string{"iv cannulation"},
			GeneralNotes:        "18G left forearm",
		},
	}

	got := MergeWithCached(rec, cached)
	if got.Treatment.PrimaryDiagnosis != "acute coronary syndrome" {
		t.Errorf("expected cached diagnosis, got %q", got.Treatment.PrimaryDiagnosis)
	}
	if !reflect.DeepEqual(got.Treatment.ProvisionalDiagnoses, []string{"ACS", "PE"}) {
		t.Errorf("expected cached provisional diagnoses, got %v", got.Treatment.ProvisionalDiagnoses)
	}
	if got.Treatment.Fluids != "NS 500ml bolus" {
		t.Errorf("expected cached fluids, got %q", got.Treatment.Fluids)
	}
	if !reflect.DeepEqual(got.Investigations.PanelsSelected, []string{"cardiac", "cbc"}) {
		t.Errorf("expected cached panels, got %v", got.Investigations.PanelsSelected)
	}
	if !reflect.DeepEqual(got.Procedures.ProceduresPerformed, []string{"iv cannulation"}) {
		t.Errorf("expected cached procedures, got %v", got.Procedures.ProceduresPerformed)
	}
	if got.Procedures.GeneralNotes != "18G left forearm" {
		t.Errorf("expected cached procedure notes, got %q", got.Procedures.GeneralNotes)
	}
}

func TestMergeWithCached_LongerAddendumListWins(t *testing.T) {
	rec := serverRecord()
	rec.AddendumNotes = []string{"note 1"}
	cached := &CachedCase{AddendumNotes: []string{"note 1", "note 2", "note 3"}}

	got := MergeWithCached(rec, cached)
	want := []string{"note 1", "note 2", "note 3"}
	if !reflect.DeepEqual(got.AddendumNotes, want) {
		t.Errorf("expected cached addendum list %v, got %v", want, got.AddendumNotes)
	}
	if !reflect.DeepEqual(got.Treatment.AddendumNotes, want) {
		t.Errorf("expected treatment copy %v, got %v", want, got.Treatment.AddendumNotes)
	}
}

func TestMergeWithCached_ShorterCachedAddendumLoses(t *testing.T) {
	rec := serverRecord()
	rec.AddendumNotes = []string{"note 1", "note 2"}
	cached := &CachedCase{AddendumNotes: []string{"note 1"}}

	got := MergeWithCached(rec, cached)
	want := []string{"note 1", "note 2"}
	if !reflect.DeepEqual(got.AddendumNotes, want) {
		t.Errorf("expected server addendum list %v, got %v", want, got.AddendumNotes)
	}
	if !reflect.DeepEqual(got.Treatment.AddendumNotes, want) {
		t.Errorf("expected treatment copy %v, got %v", want, got.Treatment.AddendumNotes)
	}
}

func TestMergeWithCached_AddendumFallsBackToTreatmentCopy(t *testing.T) {
	rec := serverRecord()
	rec.AddendumNotes = nil
	cached := &CachedCase{
		Treatment: Treatment{AddendumNotes: []string{"held on device", "second note"}},
	}

	got := MergeWithCached(rec, cached)
	want := []string{"held on device", "second note"}
	if !reflect.DeepEqual(got.AddendumNotes, want) {
		t.Errorf("expected notes from treatment copy %v, got %v", want, got.AddendumNotes)
	}
}

func TestMergeWithCached_DischargeSummarySubstitutedOnlyWhenServerEmpty(t *testing.T) {
	cachedSummary := DischargeSummary{
		Diagnosis:            "resolved renal colic",
		ConditionAtDischarge: "stable",
		FollowUpAdvice:       "urology opd in 1 week",
	}

	rec := serverRecord()
	got := MergeWithCached(rec, &CachedCase{DischargeSummary: cachedSummary})
	if !reflect.DeepEqual(got.DischargeSummary, cachedSummary) {
		t.Errorf("expected cached summary substituted, got %+v", got.DischargeSummary)
	}

	rec = serverRecord()
	rec.DischargeSummary = DischargeSummary{Diagnosis: "renal colic"}
	got = MergeWithCached(rec, &CachedCase{DischargeSummary: cachedSummary})
	if got.DischargeSummary.Diagnosis != "renal colic" {
		t.Errorf("expected server summary kept, got %+v", got.DischargeSummary)
	}
	if got.DischargeSummary.FollowUpAdvice != "" {
		t.Errorf("expected no field-level mixing of summaries, got %q", got.DischargeSummary.FollowUpAdvice)
	}
}

func TestMergeWithCached_Idempotent(t *testing.T) {
	rec := CaseRecord{PatientName: "Asha Rao", AddendumNotes: []string{"note 1"}}
	cached := &CachedCase{
		Treatment:     Treatment{PrimaryDiagnosis: "sepsis"},
		AddendumNotes: []string{"note 1", "note 2"},
	}

	once := MergeWithCached(rec, cached)
	twice := MergeWithCached(once, cached)
	if !reflect.DeepEqual(once, twice) {
		t.Errorf("expected re-merge to be a no-op, got %+v then %+v", once, twice)
	}
}

func TestDischargeSummaryIsEmpty(t *testing.T) {
	if !(DischargeSummary{}).IsEmpty() {
		t.Error("expected zero summary to be empty")
	}
	if (DischargeSummary{FollowUpAdvice: "review in 48h"}).IsEmpty() {
		t.Error("expected summary with advice to be non-empty")
	}
	if (DischargeSummary{DischargeMedications: []string{"paracetamol"}}).IsEmpty() {
		t.Error("expected summary with medications to be non-empty")
	}
}
