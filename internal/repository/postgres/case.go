package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/caseops-api/internal/model"
	"github.com/jwalitptl/caseops-api/internal/repository"
)

type caseRepository struct {
	BaseRepository
}

func NewCaseRepository(base BaseRepository) repository.CaseRepository {
	return &caseRepository{base}
}

const caseColumns = `
	c.id, c.case_number, c.branch_id, c.manager_id, c.surrogate_id,
	c.intended_parent_id, c.status, c.clinic_name, c.transfer_date,
	c.due_date, c.notes, c.created_at, c.updated_at`

func (r *caseRepository) Get(ctx context.Context, id uuid.UUID) (c *model.Case, err error) {
	defer func(start time.Time) { r.observe("cases.get", start, err) }(time.Now())

	query := `SELECT ` + caseColumns + ` FROM cases c WHERE c.id = $1`
	var row model.Case
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		return nil, fmt.Errorf("failed to get case: %w", notFound(err))
	}
	return &row, nil
}

func (r *caseRepository) List(ctx context.Context, pred model.VisibilityPredicate, filters model.CaseFilters) (cases []*model.Case, err error) {
	defer func(start time.Time) { r.observe("cases.list", start, err) }(time.Now())

	query, args := buildCaseListQuery(pred, filters)
	if err := r.db.SelectContext(ctx, &cases, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list cases: %w", err)
	}
	return cases, nil
}

func buildCaseListQuery(pred model.VisibilityPredicate, filters model.CaseFilters) (string, []interface{}) {
	var args []interface{}
	where := []string{visibilityClause("c", pred, &args)}

	if status := strings.TrimSpace(filters.Status); status != "" {
		args = append(args, status)
		where = append(where, fmt.Sprintf("c.status = $%d", len(args)))
	}

	if search := strings.TrimSpace(filters.Search); search != "" {
		args = append(args, "%"+escapeLike(search)+"%")
		n := len(args)
		where = append(where, fmt.Sprintf(
			"(c.case_number ILIKE $%[1]d OR c.clinic_name ILIKE $%[1]d OR c.notes ILIKE $%[1]d OR c.status ILIKE $%[1]d)", n))
	}

	query := `SELECT ` + caseColumns + ` FROM cases c WHERE ` +
		strings.Join(where, " AND ") +
		` ORDER BY c.created_at DESC, c.id DESC`
	return query, args
}

// visibilityClause renders pred as a WHERE fragment, appending its bind
// values to args. A predicate that matches nothing renders as FALSE, never
// as an absent filter.
func visibilityClause(alias string, pred model.VisibilityPredicate, args *[]interface{}) string {
	switch pred.Kind {
	case model.PredicateUnrestricted:
		return "TRUE"
	case model.PredicateScoped:
		var grants []string
		if pred.BranchID != nil {
			*args = append(*args, *pred.BranchID)
			grants = append(grants, fmt.Sprintf("%s.branch_id = $%d", alias, len(*args)))
		}
		if len(pred.CaseIDs) > 0 {
			*args = append(*args, uuidArray(pred.CaseIDs))
			grants = append(grants, fmt.Sprintf("%s.id = ANY($%d::uuid[])", alias, len(*args)))
		}
		if len(grants) == 0 {
			return "FALSE"
		}
		return "(" + strings.Join(grants, " OR ") + ")"
	default:
		return "FALSE"
	}
}

func (r *caseRepository) Update(ctx context.Context, id uuid.UUID, patch *model.CasePatch) (c *model.Case, err error) {
	if patch == nil || patch.Empty() {
		return r.Get(ctx, id)
	}
	defer func(start time.Time) { r.observe("cases.update", start, err) }(time.Now())

	var (
		sets []string
		args []interface{}
	)
	set := func(column string, value interface{}) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if patch.Status != nil {
		set("status", *patch.Status)
	}
	if patch.BranchID != nil {
		set("branch_id", *patch.BranchID)
	}
	if patch.SurrogateID != nil {
		set("surrogate_id", *patch.SurrogateID)
	}
	if patch.IntendedParentID != nil {
		set("intended_parent_id", *patch.IntendedParentID)
	}
	if patch.ClinicName != nil {
		set("clinic_name", *patch.ClinicName)
	}
	if patch.TransferDate != nil {
		set("transfer_date", *patch.TransferDate)
	}
	if patch.DueDate != nil {
		set("due_date", *patch.DueDate)
	}
	if patch.Notes != nil {
		set("notes", *patch.Notes)
	}
	set("updated_at", time.Now().UTC())

	args = append(args, id)
	query := fmt.Sprintf(`UPDATE cases c SET %s WHERE c.id = $%d RETURNING %s`,
		strings.Join(sets, ", "), len(args), caseColumns)

	var row model.Case
	if err := r.db.QueryRowxContext(ctx, query, args...).StructScan(&row); err != nil {
		return nil, fmt.Errorf("failed to update case: %w", notFound(err))
	}
	return &row, nil
}

func (r *caseRepository) Delete(ctx context.Context, id uuid.UUID) (err error) {
	defer func(start time.Time) { r.observe("cases.delete", start, err) }(time.Now())

	result, err := r.db.ExecContext(ctx, `DELETE FROM cases WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete case: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return repository.ErrNotFound
	}
	return nil
}
