package cases

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, c *CaseRecord) error
	GetByID(ctx context.Context, id uuid.UUID) (*CaseRecord, error)
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, limit, offset int) ([]*CaseRecord, int, error)
	Search(ctx context.Context, params map[string]string, limit, offset int) ([]*CaseRecord, int, error)
	// Sub-document writes. Each touches exactly one clinical column plus
	// the record's updated_at.
	UpdateTriage(ctx context.Context, id uuid.UUID, t TriageData) error
	UpdateCaseSheet(ctx context.Context, id uuid.UUID, cs CaseSheet) error
	UpdateTreatment(ctx context.Context, id uuid.UUID, t Treatment) error
	UpdateInvestigations(ctx context.Context, id uuid.UUID, inv Investigations) error
	UpdateProcedures(ctx context.Context, id uuid.UUID, p Procedures) error
	UpdateAddendumNotes(ctx context.Context, id uuid.UUID, notes []string) error
	UpdateDischargeSummary(ctx context.Context, id uuid.UUID, ds DischargeSummary) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) error
}
