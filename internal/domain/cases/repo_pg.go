package cases

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ercase/ercase/internal/platform/db"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository { return &repoPG{pool: pool} }

func (r *repoPG) conn(ctx context.Context) queryable {
	if c := db.ConnFromContext(ctx); c != nil {
		return c
	}
	return r.pool
}

const caseCols = `id, patient_name, patient_age, patient_sex, chief_complaint, status,
	triage_data, case_sheet_data, treatment, investigations, procedures,
	addendum_notes, discharge_summary, created_at, updated_at`

func (r *repoPG) scanCase(row pgx.Row) (*CaseRecord, error) {
	var c CaseRecord
	err := row.Scan(&c.ID, &c.PatientName, &c.PatientAge, &c.PatientSex, &c.ChiefComplaint, &c.Status,
		&c.Triage, &c.CaseSheet, &c.Treatment, &c.Investigations, &c.Procedures,
		&c.AddendumNotes, &c.DischargeSummary, &c.CreatedAt, &c.UpdatedAt)
	return &c, err
}

func (r *repoPG) Create(ctx context.Context, c *CaseRecord) error {
	c.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO case_record (id, patient_name, patient_age, patient_sex, chief_complaint, status,
			triage_data, case_sheet_data, treatment, investigations, procedures,
			addendum_notes, discharge_summary)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)`,
		c.ID, c.PatientName, c.PatientAge, c.PatientSex, c.ChiefComplaint, c.Status,
		c.Triage, c.CaseSheet, c.Treatment, c.Investigations, c.Procedures,
		c.AddendumNotes, c.DischargeSummary)
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*CaseRecord, error) {
	return r.scanCase(r.conn(ctx).QueryRow(ctx, `SELECT `+caseCols+` FROM case_record WHERE id = $1`, id))
}

func (r *repoPG) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.conn(ctx).Exec(ctx, `DELETE FROM case_record WHERE id = $1`, id)
	return err
}

func (r *repoPG) List(ctx context.Context, limit, offset int) ([]*CaseRecord, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM case_record`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+caseCols+` FROM case_record ORDER BY created_at DESC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*CaseRecord
	for rows.Next() {
		c, err := r.scanCase(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, c)
	}
	return items, total, nil
}

func (r *repoPG) Search(ctx context.Context, params map[string]string, limit, offset int) ([]*CaseRecord, int, error) {
	query := `SELECT ` + caseCols + ` FROM case_record WHERE 1=1`
	countQuery := `SELECT COUNT(*) FROM case_record WHERE 1=1`
	var args []interface{}
	idx := 1

	if p, ok := params["status"]; ok {
		query += fmt.Sprintf(` AND status = $%d`, idx)
		countQuery += fmt.Sprintf(` AND status = $%d`, idx)
		args = append(args, p)
		idx++
	}
	if p, ok := params["patient_name"]; ok {
		query += fmt.Sprintf(` AND patient_name ILIKE '%%' || $%d || '%%'`, idx)
		countQuery += fmt.Sprintf(` AND patient_name ILIKE '%%' || $%d || '%%'`, idx)
		args = append(args, p)
		idx++
	}

	var total int
	if err := r.conn(ctx).QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query += fmt.Sprintf(` ORDER BY created_at DESC LIMIT $%d OFFSET $%d`, idx, idx+1)
	args = append(args, limit, offset)

	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*CaseRecord
	for rows.Next() {
		c, err := r.scanCase(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, c)
	}
	return items, total, nil
}

// -- Sub-document writes --

func (r *repoPG) UpdateTriage(ctx context.Context, id uuid.UUID, t TriageData) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE case_record SET triage_data=$2,
			chief_complaint = COALESCE(NULLIF($3, ''), chief_complaint), updated_at=NOW()
		WHERE id = $1`,
		id, t, t.ChiefComplaint)
	return err
}

func (r *repoPG) UpdateCaseSheet(ctx context.Context, id uuid.UUID, cs CaseSheet) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE case_record SET case_sheet_data=$2, updated_at=NOW() WHERE id = $1`, id, cs)
	return err
}

func (r *repoPG) UpdateTreatment(ctx context.Context, id uuid.UUID, t Treatment) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE case_record SET treatment=$2, updated_at=NOW() WHERE id = $1`, id, t)
	return err
}

func (r *repoPG) UpdateInvestigations(ctx context.Context, id uuid.UUID, inv Investigations) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE case_record SET investigations=$2, updated_at=NOW() WHERE id = $1`, id, inv)
	return err
}

func (r *repoPG) UpdateProcedures(ctx context.Context, id uuid.UUID, p Procedures) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE case_record SET procedures=$2, updated_at=NOW() WHERE id = $1`, id, p)
	return err
}

// UpdateAddendumNotes writes the list to both its top-level column and the
// copy inside the treatment document.
func (r *repoPG) UpdateAddendumNotes(ctx context.Context, id uuid.UUID, notes []string) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE case_record SET addendum_notes=$2,
			treatment = jsonb_set(treatment, '{addendum_notes}', $2), updated_at=NOW()
		WHERE id = $1`,
		id, notes)
	return err
}

func (r *repoPG) UpdateDischargeSummary(ctx context.Context, id uuid.UUID, ds DischargeSummary) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE case_record SET discharge_summary=$2, updated_at=NOW() WHERE id = $1`, id, ds)
	return err
}

func (r *repoPG) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE case_record SET status=$2, updated_at=NOW() WHERE id = $1`, id, status)
	return err
}
