package worker

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"research-assessment/internal/db"
	"research-assessment/internal/schemas"
	"research-assessment/internal/scoring"
)

const scorecardSheet = "评分表"

// BuildScorecard renders a submitted assessment as an xlsx workbook. rubric
// may be nil when it has since been deleted; criterion ids are shown instead
// of display names and no points column is filled.
func BuildScorecard(a *schemas.AssessmentOut, scores []db.AssessmentScore, rubric *scoring.Rubric) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()
	if err := f.SetSheetName("Sheet1", scorecardSheet); err != nil {
		return nil, err
	}

	sub := a.Submission
	rows := [][]any{
		{"考核编号", sub.AssessmentID},
		{"考核类型", sub.Variant},
		{"考核对象", sub.SubjectID},
		{"考核周期", sub.PeriodID},
		{"考核标准", sub.RubricID},
	}
	if sub.EvaluationType != "" {
		rows = append(rows, []any{"评价方式", sub.EvaluationType})
	}
	if sub.EvaluationDate != "" {
		rows = append(rows, []any{"评价日期", sub.EvaluationDate})
	}
	rows = append(rows, []any{"提交时间", sub.SubmittedAt.Format("2006-01-02 15:04:05")}, nil)
	rows = append(rows, []any{"指标", "满分", "评分", "得分", "评语"})

	for _, s := range scores {
		name, maxScore := s.CriterionID, any("")
		points := any("")
		if rubric != nil {
			if c, ok := rubric.Criterion(s.CriterionID); ok {
				name = c.DisplayName
				maxScore = c.MaxScore
				points = s.RawScore * c.MaxScore / scoring.RatingMax
			}
		}
		rows = append(rows, []any{name, maxScore, s.RawScore, points, s.Comment})
	}

	rows = append(rows, nil,
		[]any{"总分", sub.ComputedTotal},
		[]any{"等级", sub.ComputedResultLabel},
		[]any{"总体评价", sub.OverallComment},
	)

	for i, row := range rows {
		if row == nil {
			continue
		}
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return nil, err
		}
		if err := f.SetSheetRow(scorecardSheet, cell, &row); err != nil {
			return nil, fmt.Errorf("write row %d: %w", i+1, err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
