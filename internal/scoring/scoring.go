// Package scoring turns per-criterion ratings over a weighted rubric into a
// 0-100 total and a result label.
//
// Every criterion is rated on a fixed 1-5 scale. A criterion's MaxScore does
// not bound the rating; it is the criterion's weight in the average.
package scoring

import (
	"fmt"
	"math"
)

// RatingMax is the top of the per-criterion rating scale.
const RatingMax = 5

// RatingMin is the bottom of the per-criterion rating scale.
const RatingMin = 1

// Criterion is one weighted line item of a rubric.
type Criterion struct {
	ID          string  `json:"id" yaml:"id"`
	DisplayName string  `json:"display_name" yaml:"display_name"`
	MaxScore    float64 `json:"max_score" yaml:"max_score"`
}

// Rubric is an ordered set of criteria used for one assessment.
type Rubric struct {
	ID       string      `json:"id" yaml:"id"`
	Name     string      `json:"name" yaml:"name"`
	Criteria []Criterion `json:"criteria" yaml:"criteria"`
}

// ScoreEntry maps a criterion id to its raw rating.
type ScoreEntry map[string]float64

// CommentEntry maps a criterion id to free-text commentary.
type CommentEntry map[string]string

// Validate checks the rubric invariants: unique criterion ids and positive
// weights.
func (r *Rubric) Validate() error {
	if r.ID == "" {
		return fmt.Errorf("rubric id is required")
	}
	seen := make(map[string]bool, len(r.Criteria))
	for _, c := range r.Criteria {
		if c.ID == "" {
			return fmt.Errorf("rubric %q: criterion id is required", r.ID)
		}
		if seen[c.ID] {
			return fmt.Errorf("rubric %q: duplicate criterion id %q", r.ID, c.ID)
		}
		seen[c.ID] = true
		if c.MaxScore <= 0 {
			return fmt.Errorf("rubric %q: criterion %q has max score %v, want > 0", r.ID, c.ID, c.MaxScore)
		}
	}
	return nil
}

// Criterion returns the criterion with the given id.
func (r *Rubric) Criterion(id string) (Criterion, bool) {
	for _, c := range r.Criteria {
		if c.ID == id {
			return c, true
		}
	}
	return Criterion{}, false
}

// Missing returns the ids of criteria that have no entry in scores, in
// rubric order.
func (r *Rubric) Missing(scores ScoreEntry) []string {
	var missing []string
	for _, c := range r.Criteria {
		if _, ok := scores[c.ID]; !ok {
			missing = append(missing, c.ID)
		}
	}
	return missing
}

// ComputeTotal computes the weighted average of the scored criteria, rescaled
// to 0-100.
//
// Only criteria present in both the rubric and scores count. A criterion with
// no entry adds nothing to either the weighted sum or the weight total, so it
// is not treated as a zero. With nothing scored the total is 0.
func ComputeTotal(rubric Rubric, scores ScoreEntry) int {
	var weightedSum, weightTotal float64
	for _, c := range rubric.Criteria {
		raw, ok := scores[c.ID]
		if !ok {
			continue
		}
		weightedSum += raw / RatingMax * c.MaxScore
		weightTotal += c.MaxScore
	}

	if weightTotal == 0 {
		return 0
	}

	return int(math.Round(weightedSum / weightTotal * 100))
}

// --- Result labels ---

// Threshold maps an inclusive lower bound to a result label.
type Threshold struct {
	Min   int    `json:"min"`
	Label string `json:"label"`
}

const (
	LabelExcellent   = "优秀"
	LabelGood        = "良好"
	LabelQualified   = "合格"
	LabelMarginal    = "基本合格"
	LabelUnqualified = "不合格"
)

// Thresholds are checked in order; the first whose Min is reached wins.
var Thresholds = []Threshold{
	{Min: 90, Label: LabelExcellent},
	{Min: 80, Label: LabelGood},
	{Min: 70, Label: LabelQualified},
	{Min: 60, Label: LabelMarginal},
}

// ResultLabel maps a total score to its discrete grade.
func ResultLabel(total int) string {
	for _, t := range Thresholds {
		if total >= t.Min {
			return t.Label
		}
	}
	return LabelUnqualified
}

// Rank orders labels from worst (0) to best. Unknown labels rank -1.
func Rank(label string) int {
	switch label {
	case LabelUnqualified:
		return 0
	case LabelMarginal:
		return 1
	case LabelQualified:
		return 2
	case LabelGood:
		return 3
	case LabelExcellent:
		return 4
	}
	return -1
}
