package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func memberRubric() Rubric {
	return Rubric{
		ID:   "member-annual",
		Name: "成员年度考核",
		Criteria: []Criterion{
			{ID: "workQuality", DisplayName: "工作质量", MaxScore: 25},
			{ID: "teamwork", DisplayName: "团队协作", MaxScore: 15},
		},
	}
}

// --- ComputeTotal ---

func TestComputeTotal_NothingScored(t *testing.T) {
	assert.Equal(t, 0, ComputeTotal(memberRubric(), ScoreEntry{}))
	assert.Equal(t, 0, ComputeTotal(memberRubric(), nil))
}

func TestComputeTotal_EmptyRubric(t *testing.T) {
	assert.Equal(t, 0, ComputeTotal(Rubric{ID: "empty"}, ScoreEntry{"workQuality": 5}))
}

func TestComputeTotal_WeightedAverage(t *testing.T) {
	// (5/5*25 + 3/5*15) / 40 * 100 = (25 + 9) / 40 * 100 = 85
	got := ComputeTotal(memberRubric(), ScoreEntry{"workQuality": 5, "teamwork": 3})
	assert.Equal(t, 85, got)
}

func TestComputeTotal_HeavyCriterionDominates(t *testing.T) {
	r := Rubric{ID: "r", Criteria: []Criterion{
		{ID: "heavy", MaxScore: 90},
		{ID: "light", MaxScore: 10},
	}}
	// (5/5*90 + 1/5*10) / 100 * 100 = 92
	assert.Equal(t, 92, ComputeTotal(r, ScoreEntry{"heavy": 5, "light": 1}))
	// (1/5*90 + 5/5*10) / 100 * 100 = 28
	assert.Equal(t, 28, ComputeTotal(r, ScoreEntry{"heavy": 1, "light": 5}))
}

func TestComputeTotal_AbsentCriterionIsNotZero(t *testing.T) {
	// Only workQuality is scored, so teamwork contributes to neither sum.
	got := ComputeTotal(memberRubric(), ScoreEntry{"workQuality": 4})
	assert.Equal(t, 80, got)
}

func TestComputeTotal_IgnoresScoresOutsideRubric(t *testing.T) {
	got := ComputeTotal(memberRubric(), ScoreEntry{"workQuality": 5, "teamwork": 5, "bogus": 1})
	assert.Equal(t, 100, got)
}

func TestComputeTotal_Rounds(t *testing.T) {
	r := Rubric{ID: "r", Criteria: []Criterion{
		{ID: "a", MaxScore: 1},
		{ID: "b", MaxScore: 1},
		{ID: "c", MaxScore: 1},
	}}
	// (4+4+5)/5/3*100 = 86.67
	assert.Equal(t, 87, ComputeTotal(r, ScoreEntry{"a": 4, "b": 4, "c": 5}))
}

func TestComputeTotal_DoesNotClampOutOfRangeRatings(t *testing.T) {
	r := Rubric{ID: "r", Criteria: []Criterion{{ID: "a", MaxScore: 10}}}
	assert.Equal(t, 200, ComputeTotal(r, ScoreEntry{"a": 10}))
	assert.Equal(t, -20, ComputeTotal(r, ScoreEntry{"a": -1}))
}

func TestComputeTotal_CompleteEntriesStayInBounds(t *testing.T) {
	rubrics := []Rubric{
		memberRubric(),
		{ID: "single", Criteria: []Criterion{{ID: "x", MaxScore: 100}}},
		{ID: "uneven", Criteria: []Criterion{
			{ID: "a", MaxScore: 3}, {ID: "b", MaxScore: 7}, {ID: "c", MaxScore: 11.5},
		}},
	}
	for _, r := range rubrics {
		for rating := RatingMin; rating <= RatingMax; rating++ {
			scores := ScoreEntry{}
			for i, c := range r.Criteria {
				// spread ratings so criteria differ
				scores[c.ID] = float64((rating+i-1)%RatingMax + 1)
			}
			total := ComputeTotal(r, scores)
			assert.GreaterOrEqual(t, total, 20, "rubric %s", r.ID)
			assert.LessOrEqual(t, total, 100, "rubric %s", r.ID)
		}
	}
}

func TestComputeTotal_MatchesClosedForm(t *testing.T) {
	r := Rubric{ID: "r", Criteria: []Criterion{
		{ID: "a", MaxScore: 20}, {ID: "b", MaxScore: 30}, {ID: "c", MaxScore: 50},
	}}
	scores := ScoreEntry{"a": 2, "b": 4, "c": 3}
	// 100 * (2*20 + 4*30 + 3*50) / (5 * 100) = 62
	assert.Equal(t, 62, ComputeTotal(r, scores))
}

// --- ResultLabel ---

func TestResultLabel_Boundaries(t *testing.T) {
	tests := []struct {
		total int
		want  string
	}{
		{100, LabelExcellent},
		{90, LabelExcellent},
		{89, LabelGood},
		{80, LabelGood},
		{79, LabelQualified},
		{70, LabelQualified},
		{69, LabelMarginal},
		{60, LabelMarginal},
		{59, LabelUnqualified},
		{0, LabelUnqualified},
		{-5, LabelUnqualified},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ResultLabel(tt.total), "ResultLabel(%d)", tt.total)
	}
}

func TestResultLabel_NonIncreasing(t *testing.T) {
	prev := Rank(ResultLabel(-1))
	for x := 0; x <= 110; x++ {
		r := Rank(ResultLabel(x))
		require.GreaterOrEqual(t, r, prev, "label got worse at %d", x)
		prev = r
	}
}

func TestRank_Unknown(t *testing.T) {
	assert.Equal(t, -1, Rank("bogus"))
}

// --- Rubric ---

func TestRubricValidate(t *testing.T) {
	r := memberRubric()
	require.NoError(t, r.Validate())

	dup := memberRubric()
	dup.Criteria = append(dup.Criteria, Criterion{ID: "teamwork", MaxScore: 1})
	require.ErrorContains(t, dup.Validate(), "duplicate criterion")

	zero := memberRubric()
	zero.Criteria[0].MaxScore = 0
	require.ErrorContains(t, zero.Validate(), "want > 0")

	noID := Rubric{}
	require.Error(t, noID.Validate())
}

func TestRubricMissing(t *testing.T) {
	r := memberRubric()
	assert.Equal(t, []string{"workQuality", "teamwork"}, r.Missing(nil))
	assert.Equal(t, []string{"teamwork"}, r.Missing(ScoreEntry{"workQuality": 3}))
	assert.Empty(t, r.Missing(ScoreEntry{"workQuality": 3, "teamwork": 1}))
}

func TestRubricCriterion(t *testing.T) {
	r := memberRubric()
	c, ok := r.Criterion("teamwork")
	require.True(t, ok)
	assert.Equal(t, 15.0, c.MaxScore)

	_, ok = r.Criterion("nope")
	assert.False(t, ok)
}
