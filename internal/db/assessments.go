package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"slices"

	"github.com/jmoiron/sqlx"

	"research-assessment/internal/schemas"
)

// InsertAssessment stores a submission and its per-criterion scores in one
// transaction. Inserting an id that is already stored is a no-op.
func (r *Repo) InsertAssessment(ctx context.Context, sub schemas.Submission) error {
	sel, err := json.Marshal(sub.Selections)
	if err != nil {
		return err
	}
	payload, err := json.Marshal(sub)
	if err != nil {
		return err
	}

	ids := make([]string, 0, len(sub.Scores))
	for id := range sub.Scores {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	return WithTx(ctx, r.DB, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx,
			`insert into assessments(id, variant, subject_id, period_id, rubric_id, evaluation_type, evaluation_date, selections, work_summary, overall_comment, computed_total, result_label, payload, created_at)
			 values($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
			 on conflict (id) do nothing`,
			sub.AssessmentID, sub.Variant, sub.SubjectID, sub.PeriodID, sub.RubricID, sub.EvaluationType, sub.EvaluationDate,
			sel, sub.WorkSummary, sub.OverallComment, sub.ComputedTotal, sub.ComputedResultLabel, payload, sub.SubmittedAt)
		if err != nil {
			return fmt.Errorf("insert assessment %s: %w", sub.AssessmentID, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			// Already recorded by an earlier attempt.
			return nil
		}
		for _, id := range ids {
			if _, err := tx.ExecContext(ctx,
				`insert into assessment_scores(assessment_id, criterion_id, raw_score, comment) values($1,$2,$3,$4)`,
				sub.AssessmentID, id, sub.Scores[id], sub.Comments[id]); err != nil {
				return fmt.Errorf("insert score %s/%s: %w", sub.AssessmentID, id, err)
			}
		}
		return nil
	})
}

func (r *Repo) GetAssessment(ctx context.Context, id string) (*schemas.AssessmentOut, error) {
	var a Assessment
	err := r.DB.GetContext(ctx, &a, `select * from assessments where id=$1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get assessment %s: %w", id, err)
	}
	out := &schemas.AssessmentOut{
		ArchiveRef: a.ArchiveRef.String,
		ReportRef:  a.ReportRef.String,
		CreatedAt:  a.CreatedAt,
	}
	if err := json.Unmarshal(a.Payload, &out.Submission); err != nil {
		return nil, fmt.Errorf("decode assessment %s payload: %w", id, err)
	}
	return out, nil
}

func (r *Repo) ListScores(ctx context.Context, id string) ([]AssessmentScore, error) {
	var rows []AssessmentScore
	if err := r.DB.SelectContext(ctx, &rows, `select assessment_id, criterion_id, raw_score, comment from assessment_scores where assessment_id=$1 order by criterion_id`, id); err != nil {
		return nil, fmt.Errorf("list scores %s: %w", id, err)
	}
	return rows, nil
}

func (r *Repo) SetArchiveRefs(ctx context.Context, id, archiveRef, reportRef string) error {
	res, err := r.DB.ExecContext(ctx, `update assessments set archive_ref=$2, report_ref=$3 where id=$1`, id, archiveRef, reportRef)
	if err != nil {
		return fmt.Errorf("set archive refs %s: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}
