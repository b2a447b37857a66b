package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"research-assessment/internal/schemas"
	"research-assessment/internal/scoring"
)

// Repo is the Postgres-backed repository for rubrics, picklists and
// submitted assessments.
type Repo struct {
	DB *sqlx.DB
}

func NewRepo(dbx *sqlx.DB) *Repo {
	return &Repo{DB: dbx}
}

// --- Rubrics ---

func toRubric(row Rubric, crit []Criterion) scoring.Rubric {
	out := scoring.Rubric{ID: row.ID, Name: row.Name, Criteria: make([]scoring.Criterion, 0, len(crit))}
	for _, c := range crit {
		out.Criteria = append(out.Criteria, scoring.Criterion{ID: c.ID, DisplayName: c.DisplayName, MaxScore: c.MaxScore})
	}
	return out
}

func (r *Repo) ListRubrics(ctx context.Context) ([]scoring.Rubric, error) {
	var rows []Rubric
	if err := r.DB.SelectContext(ctx, &rows, `select id, name, created_at, updated_at from rubrics order by name, id`); err != nil {
		return nil, fmt.Errorf("list rubrics: %w", err)
	}
	var crit []Criterion
	if err := r.DB.SelectContext(ctx, &crit, `select rubric_id, id, display_name, max_score, position from rubric_criteria order by rubric_id, position`); err != nil {
		return nil, fmt.Errorf("list rubric criteria: %w", err)
	}
	byRubric := make(map[string][]Criterion, len(rows))
	for _, c := range crit {
		byRubric[c.RubricID] = append(byRubric[c.RubricID], c)
	}
	out := make([]scoring.Rubric, 0, len(rows))
	for _, row := range rows {
		out = append(out, toRubric(row, byRubric[row.ID]))
	}
	return out, nil
}

func (r *Repo) GetRubric(ctx context.Context, id string) (*scoring.Rubric, error) {
	var row Rubric
	err := r.DB.GetContext(ctx, &row, `select id, name, created_at, updated_at from rubrics where id=$1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get rubric %s: %w", id, err)
	}
	var crit []Criterion
	if err := r.DB.SelectContext(ctx, &crit, `select rubric_id, id, display_name, max_score, position from rubric_criteria where rubric_id=$1 order by position`, id); err != nil {
		return nil, fmt.Errorf("get rubric %s criteria: %w", id, err)
	}
	out := toRubric(row, crit)
	return &out, nil
}

// UpsertRubric replaces a rubric and its criteria.
func (r *Repo) UpsertRubric(ctx context.Context, rb scoring.Rubric) error {
	if err := rb.Validate(); err != nil {
		return err
	}
	return WithTx(ctx, r.DB, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`insert into rubrics(id, name) values($1,$2) on conflict (id) do update set name=excluded.name, updated_at=now()`,
			rb.ID, rb.Name); err != nil {
			return fmt.Errorf("upsert rubric %s: %w", rb.ID, err)
		}
		if _, err := tx.ExecContext(ctx, `delete from rubric_criteria where rubric_id=$1`, rb.ID); err != nil {
			return fmt.Errorf("clear rubric %s criteria: %w", rb.ID, err)
		}
		for i, c := range rb.Criteria {
			if _, err := tx.ExecContext(ctx,
				`insert into rubric_criteria(rubric_id, id, display_name, max_score, position) values($1,$2,$3,$4,$5)`,
				rb.ID, c.ID, c.DisplayName, c.MaxScore, i); err != nil {
				return fmt.Errorf("insert criterion %s/%s: %w", rb.ID, c.ID, err)
			}
		}
		return nil
	})
}

// --- Picklists ---

func (r *Repo) ListSubjects(ctx context.Context, kind string) ([]schemas.Subject, error) {
	out := []schemas.Subject{}
	var err error
	if kind == "" {
		err = r.DB.SelectContext(ctx, &out, `select id, kind, name from subjects order by kind, name`)
	} else {
		err = r.DB.SelectContext(ctx, &out, `select id, kind, name from subjects where kind=$1 order by name`, kind)
	}
	if err != nil {
		return nil, fmt.Errorf("list subjects: %w", err)
	}
	return out, nil
}

func (r *Repo) UpsertSubject(ctx context.Context, s schemas.Subject) error {
	_, err := r.DB.ExecContext(ctx,
		`insert into subjects(id, kind, name) values($1,$2,$3) on conflict (id) do update set kind=excluded.kind, name=excluded.name`,
		s.ID, s.Kind, s.Name)
	if err != nil {
		return fmt.Errorf("upsert subject %s: %w", s.ID, err)
	}
	return nil
}

const dateLayout = "2006-01-02"

func formatDate(t sql.NullTime) string {
	if !t.Valid {
		return ""
	}
	return t.Time.Format(dateLayout)
}

func parseDate(s string) (sql.NullTime, error) {
	if s == "" {
		return sql.NullTime{}, nil
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return sql.NullTime{}, err
	}
	return sql.NullTime{Time: t, Valid: true}, nil
}

func (r *Repo) ListPeriods(ctx context.Context) ([]schemas.Period, error) {
	var rows []Period
	if err := r.DB.SelectContext(ctx, &rows, `select id, name, starts_on, ends_on from periods order by starts_on desc nulls last, id`); err != nil {
		return nil, fmt.Errorf("list periods: %w", err)
	}
	out := make([]schemas.Period, 0, len(rows))
	for _, p := range rows {
		out = append(out, schemas.Period{ID: p.ID, Name: p.Name, StartsOn: formatDate(p.StartsOn), EndsOn: formatDate(p.EndsOn)})
	}
	return out, nil
}

func (r *Repo) UpsertPeriod(ctx context.Context, p schemas.Period) error {
	starts, err := parseDate(p.StartsOn)
	if err != nil {
		return fmt.Errorf("period %s starts_on: %w", p.ID, err)
	}
	ends, err := parseDate(p.EndsOn)
	if err != nil {
		return fmt.Errorf("period %s ends_on: %w", p.ID, err)
	}
	_, err = r.DB.ExecContext(ctx,
		`insert into periods(id, name, starts_on, ends_on) values($1,$2,$3,$4) on conflict (id) do update set name=excluded.name, starts_on=excluded.starts_on, ends_on=excluded.ends_on`,
		p.ID, p.Name, starts, ends)
	if err != nil {
		return fmt.Errorf("upsert period %s: %w", p.ID, err)
	}
	return nil
}
