package cases

// MergeWithCached overlays locally cached edits onto a server record and
// returns the result. The server value wins wherever it is populated;
// cached values only fill server-side blanks. Passing a nil entry returns
// the record unchanged, and re-applying the same entry is a no-op.
func MergeWithCached(record CaseRecord, cached *CachedCase) CaseRecord {
	if cached == nil {
		return record
	}

	record.Treatment = mergeTreatment(record.Treatment, cached.Treatment)
	record.Investigations = mergeInvestigations(record.Investigations, cached.Investigations)
	record.Procedures = mergeProcedures(record.Procedures, cached.Procedures)

	// Addendum lists are append-only on the client, so the longer list is
	// the fresher one. The winner lands in both locations to keep the
	// treatment sub-document and the top-level list in step.
	notes := record.AddendumNotes
	if cachedNotes := cachedAddendum(cached); len(cachedNotes) > len(notes) {
		notes = cachedNotes
	}
	record.AddendumNotes = notes
	record.Treatment.AddendumNotes = notes

	if record.DischargeSummary.IsEmpty() && !cached.DischargeSummary.IsEmpty() {
		record.DischargeSummary = cached.DischargeSummary
	}

	return record
}

func mergeTreatment(server, cached Treatment) Treatment {
	server.PrimaryDiagnosis = pickString(server.PrimaryDiagnosis, cached.PrimaryDiagnosis)
	server.ProvisionalDiagnoses = pickList(server.ProvisionalDiagnoses, cached.ProvisionalDiagnoses)
	server.DifferentialDiagnoses = pickList(server.DifferentialDiagnoses, cached.DifferentialDiagnoses)
	server.Medications = pickList(server.Medications, cached.Medications)
	server.Infusions = pickList(server.Infusions, cached.Infusions)
	server.Fluids = pickString(server.Fluids, cached.Fluids)
	server.OtherMedications = pickString(server.OtherMedications, cached.OtherMedications)
	server.InterventionNotes = pickString(server.InterventionNotes, cached.InterventionNotes)
	return server
}

func mergeInvestigations(server, cached Investigations) Investigations {
	server.PanelsSelected = pickList(server.PanelsSelected, cached.PanelsSelected)
	server.Imaging = pickList(server.Imaging, cached.Imaging)
	server.ResultsNotes = pickString(server.ResultsNotes, cached.ResultsNotes)
	return server
}

func mergeProcedures(server, cached Procedures) Procedures {
	server.ProceduresPerformed = pickList(server.ProceduresPerformed, cached.ProceduresPerformed)
	server.GeneralNotes = pickString(server.GeneralNotes, cached.GeneralNotes)
	return server
}

// cachedAddendum prefers the top-level list and falls back to the copy
// inside the treatment sub-document.
func cachedAddendum(cached *CachedCase) []string {
	if len(cached.AddendumNotes) > 0 {
		return cached.AddendumNotes
	}
	return cached.Treatment.AddendumNotes
}

func pickList(server, cached []string) []string {
	if len(server) == 0 && len(cached) > 0 {
		return cached
	}
	return server
}

func pickString(server, cached string) string {
	if server == "" && cached != "" {
		return cached
	}
	return server
}
