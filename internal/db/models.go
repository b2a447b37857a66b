package db

import (
	"database/sql"
	"time"
)

type Rubric struct {
	ID        string    `db:"id"`
	Name      string    `db:"name"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

type Criterion struct {
	RubricID    string  `db:"rubric_id"`
	ID          string  `db:"id"`
	DisplayName string  `db:"display_name"`
	MaxScore    float64 `db:"max_score"`
	Position    int     `db:"position"`
}

type Period struct {
	ID       string       `db:"id"`
	Name     string       `db:"name"`
	StartsOn sql.NullTime `db:"starts_on"`
	EndsOn   sql.NullTime `db:"ends_on"`
}

type Assessment struct {
	ID             string         `db:"id"`
	Variant        string         `db:"variant"`
	SubjectID      string         `db:"subject_id"`
	PeriodID       string         `db:"period_id"`
	RubricID       string         `db:"rubric_id"`
	EvaluationType string         `db:"evaluation_type"`
	EvaluationDate string         `db:"evaluation_date"`
	Selections     []byte         `db:"selections"`
	WorkSummary    string         `db:"work_summary"`
	OverallComment string         `db:"overall_comment"`
	ComputedTotal  int            `db:"computed_total"`
	ResultLabel    string         `db:"result_label"`
	Payload        []byte         `db:"payload"`
	ArchiveRef     sql.NullString `db:"archive_ref"`
	ReportRef      sql.NullString `db:"report_ref"`
	CreatedAt      time.Time      `db:"created_at"`
}

type AssessmentScore struct {
	AssessmentID string  `db:"assessment_id"`
	CriterionID  string  `db:"criterion_id"`
	RawScore     float64 `db:"raw_score"`
	Comment      string  `db:"comment"`
}
