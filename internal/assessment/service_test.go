package assessment

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"research-assessment/internal/db"
	"research-assessment/internal/schemas"
	"research-assessment/internal/scoring"
	"research-assessment/internal/session"
	"research-assessment/internal/wizard"
)

// --- Fakes ---

type fakeRubrics map[string]scoring.Rubric

func (f fakeRubrics) GetRubric(_ context.Context, id string) (*scoring.Rubric, error) {
	rb, ok := f[id]
	if !ok {
		return nil, db.ErrNotFound
	}
	return &rb, nil
}

type fakeRecorder struct {
	subs []schemas.Submission
	err  error
}

func (f *fakeRecorder) InsertAssessment(_ context.Context, sub schemas.Submission) error {
	if f.err != nil {
		return f.err
	}
	f.subs = append(f.subs, sub)
	return nil
}

type fakeArchiver struct {
	ids []string
	err error
}

func (f *fakeArchiver) EnqueueArchive(_ context.Context, id string) error {
	f.ids = append(f.ids, id)
	return f.err
}

var errBoom = errors.New("boom")

type fixture struct {
	svc   *Service
	store *session.MemoryStore
	rec   *fakeRecorder
	arch  *fakeArchiver
	hook  *logtest.Hook
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	log, hook := logtest.NewNullLogger()
	log.SetLevel(logrus.DebugLevel)
	f := &fixture{
		store: session.NewMemoryStore(0),
		rec:   &fakeRecorder{},
		arch:  &fakeArchiver{},
		hook:  hook,
	}
	rubrics := fakeRubrics{
		"std-1": {ID: "std-1", Name: "成员年度考核", Criteria: []scoring.Criterion{
			{ID: "workQuality", DisplayName: "工作质量", MaxScore: 25},
			{ID: "teamwork", DisplayName: "团队协作", MaxScore: 15},
		}},
		"std-2": {ID: "std-2", Name: "简化标准", Criteria: []scoring.Criterion{
			{ID: "overall", DisplayName: "综合", MaxScore: 100},
		}},
	}
	f.svc = NewService(f.store, rubrics, f.rec, f.arch, log)
	return f
}

func ptr[T any](v T) *T { return &v }

func (f *fixture) start(t *testing.T, v wizard.Variant) (string, string) {
	t.Helper()
	sess, token, err := f.svc.Start(context.Background(), v)
	require.NoError(t, err)
	return sess.ID, token
}

// fillMember fills every member step with valid data.
func (f *fixture) fillMember(t *testing.T, id, token string) {
	t.Helper()
	ctx := context.Background()
	_, err := f.svc.Edit(ctx, id, token, schemas.EditRequest{
		SubjectID:  ptr("m-1"),
		PeriodID:   ptr("2026-h1"),
		RubricID:   ptr("std-1"),
		Selections: ptr([]string{"p-1", "p-2"}),
	})
	require.NoError(t, err)
	_, err = f.svc.Edit(ctx, id, token, schemas.EditRequest{
		Scores:   map[string]float64{"workQuality": 5, "teamwork": 3},
		Comments: map[string]string{"teamwork": "沟通顺畅"},
	})
	require.NoError(t, err)
}

// --- Start / Get / Cancel ---

func TestStart(t *testing.T) {
	f := newFixture(t)
	sess, token, err := f.svc.Start(context.Background(), wizard.VariantMember)
	require.NoError(t, err)

	assert.NotEmpty(t, sess.ID)
	assert.NotEmpty(t, token)
	assert.NotEqual(t, token, sess.TokenHash)
	assert.Equal(t, 0, sess.State.CurrentStep)
	assert.Equal(t, 1, f.store.Len())
}

func TestStart_UnknownVariant(t *testing.T) {
	f := newFixture(t)
	_, _, err := f.svc.Start(context.Background(), wizard.Variant("team"))
	assert.Error(t, err)
	assert.Equal(t, 0, f.store.Len())
}

func TestGet_WrongToken(t *testing.T) {
	f := newFixture(t)
	id, _ := f.start(t, wizard.VariantMember)

	_, err := f.svc.Get(context.Background(), id, "not-the-token")
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestGet_Unknown(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Get(context.Background(), "missing", "tok")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCancel(t *testing.T) {
	f := newFixture(t)
	id, token := f.start(t, wizard.VariantMember)

	require.NoError(t, f.svc.Cancel(context.Background(), id, token))
	_, err := f.svc.Get(context.Background(), id, token)
	assert.ErrorIs(t, err, ErrNotFound)
}

// --- Navigation ---

func TestGoTo_BlockedSetsErrors(t *testing.T) {
	f := newFixture(t)
	id, token := f.start(t, wizard.VariantMember)

	sess, allowed, err := f.svc.Next(context.Background(), id, token)
	require.NoError(t, err)
	assert.False(t, allowed)
	assert.Equal(t, 0, sess.State.CurrentStep)
	assert.Equal(t, []string{wizard.FieldMember, wizard.FieldPeriod, wizard.FieldStandard}, sess.State.ValidationErrors.Keys())

	stored, err := f.svc.Get(context.Background(), id, token)
	require.NoError(t, err)
	assert.Equal(t, sess.State, stored.State)
}

func TestGoTo_ForwardAndBack(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id, token := f.start(t, wizard.VariantMember)
	f.fillMember(t, id, token)

	sess, allowed, err := f.svc.GoTo(ctx, id, token, 2)
	require.NoError(t, err)
	assert.True(t, allowed)
	assert.Equal(t, 2, sess.State.CurrentStep)
	assert.Equal(t, []int{0}, sess.State.CompletedSteps)

	sess, allowed, err = f.svc.GoTo(ctx, id, token, 0)
	require.NoError(t, err)
	assert.True(t, allowed)
	assert.Equal(t, 0, sess.State.CurrentStep)
	assert.Equal(t, []int{0}, sess.State.CompletedSteps)
}

func TestGoTo_CompleteStepIsNotATarget(t *testing.T) {
	f := newFixture(t)
	id, token := f.start(t, wizard.VariantMember)
	f.fillMember(t, id, token)

	sess, allowed, err := f.svc.GoTo(context.Background(), id, token, 4)
	require.NoError(t, err)
	assert.False(t, allowed)
	assert.Equal(t, 0, sess.State.CurrentStep)
}

// --- Edit ---

func TestEdit_ClearsOnlyEditedKey(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id, token := f.start(t, wizard.VariantMember)
	_, _, err := f.svc.Next(ctx, id, token)
	require.NoError(t, err)

	sess, err := f.svc.Edit(ctx, id, token, schemas.EditRequest{SubjectID: ptr("m-1")})
	require.NoError(t, err)
	assert.Equal(t, []string{wizard.FieldPeriod, wizard.FieldStandard}, sess.State.ValidationErrors.Keys())
}

func TestEdit_ClearsKeyEvenWhenValueStaysEmpty(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id, token := f.start(t, wizard.VariantMember)
	_, _, err := f.svc.Next(ctx, id, token)
	require.NoError(t, err)

	sess, err := f.svc.Edit(ctx, id, token, schemas.EditRequest{PeriodID: ptr("")})
	require.NoError(t, err)
	assert.NotContains(t, sess.State.ValidationErrors, wizard.FieldPeriod)
	assert.Contains(t, sess.State.ValidationErrors, wizard.FieldMember)
}

func TestEdit_DepartmentSubjectKey(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id, token := f.start(t, wizard.VariantDepartment)
	_, _, err := f.svc.Next(ctx, id, token)
	require.NoError(t, err)

	sess, err := f.svc.Edit(ctx, id, token, schemas.EditRequest{SubjectID: ptr("d-1"), EvaluationDate: ptr("2026-03-01")})
	require.NoError(t, err)
	assert.Equal(t, []string{wizard.FieldEvaluationType, wizard.FieldPeriod, wizard.FieldStandard}, sess.State.ValidationErrors.Keys())
}

func TestEdit_UnknownRubric(t *testing.T) {
	f := newFixture(t)
	id, token := f.start(t, wizard.VariantMember)

	_, err := f.svc.Edit(context.Background(), id, token, schemas.EditRequest{RubricID: ptr("nope")})
	assert.ErrorIs(t, err, ErrUnknownRubric)
}

func TestEdit_ChangingRubricResetsScores(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id, token := f.start(t, wizard.VariantMember)
	f.fillMember(t, id, token)

	sess, err := f.svc.Edit(ctx, id, token, schemas.EditRequest{RubricID: ptr("std-2")})
	require.NoError(t, err)
	assert.Empty(t, sess.Draft.Scores)
	assert.Empty(t, sess.Draft.Comments)
	assert.Equal(t, "std-2", sess.Draft.Rubric.ID)
}

func TestEdit_SameRubricKeepsScores(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id, token := f.start(t, wizard.VariantMember)
	f.fillMember(t, id, token)

	sess, err := f.svc.Edit(ctx, id, token, schemas.EditRequest{RubricID: ptr("std-1")})
	require.NoError(t, err)
	assert.Len(t, sess.Draft.Scores, 2)
}

func TestEdit_ScoresNeedRubric(t *testing.T) {
	f := newFixture(t)
	id, token := f.start(t, wizard.VariantMember)

	_, err := f.svc.Edit(context.Background(), id, token, schemas.EditRequest{Scores: map[string]float64{"x": 3}})
	assert.ErrorIs(t, err, ErrNoRubric)
}

func TestEdit_UnknownCriterionLeavesSessionUntouched(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id, token := f.start(t, wizard.VariantMember)
	f.fillMember(t, id, token)

	_, err := f.svc.Edit(ctx, id, token, schemas.EditRequest{
		OverallComment: ptr("changed"),
		Scores:         map[string]float64{"workQuality": 1, "bogus": 2},
	})
	assert.ErrorIs(t, err, ErrUnknownCriterion)

	sess, err := f.svc.Get(ctx, id, token)
	require.NoError(t, err)
	assert.Equal(t, 5.0, sess.Draft.Scores["workQuality"])
	assert.Empty(t, sess.Draft.OverallComment)
}

func TestEdit_EmptyCommentRemovesIt(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id, token := f.start(t, wizard.VariantMember)
	f.fillMember(t, id, token)

	sess, err := f.svc.Edit(ctx, id, token, schemas.EditRequest{Comments: map[string]string{"teamwork": ""}})
	require.NoError(t, err)
	assert.NotContains(t, sess.Draft.Comments, "teamwork")
}

// --- Score ---

func TestScore_Live(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id, token := f.start(t, wizard.VariantMember)
	f.fillMember(t, id, token)

	got, err := f.svc.Score(ctx, id, token)
	require.NoError(t, err)
	assert.Equal(t, schemas.ScoreOut{Total: 85, Label: scoring.LabelGood, Scored: 2, Criteria: 2}, got)
}

func TestScoreOf_PartialAndEmpty(t *testing.T) {
	d := wizard.NewDraft()
	assert.Equal(t, schemas.ScoreOut{Total: 0, Label: scoring.LabelUnqualified}, ScoreOf(d))

	d.Rubric = &scoring.Rubric{ID: "r", Criteria: []scoring.Criterion{{ID: "a", MaxScore: 10}, {ID: "b", MaxScore: 10}}}
	d.Scores = scoring.ScoreEntry{"a": 4}
	got := ScoreOf(d)
	assert.Equal(t, 80, got.Total)
	assert.Equal(t, 1, got.Scored)
	assert.Equal(t, []string{"b"}, got.Missing)
}

// --- Submit ---

func walkToConfirm(t *testing.T, f *fixture, id, token string) {
	t.Helper()
	_, allowed, err := f.svc.GoTo(context.Background(), id, token, 3)
	require.NoError(t, err)
	require.True(t, allowed)
}

func TestSubmit(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	frozen := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	timeNow = func() time.Time { return frozen }
	t.Cleanup(func() { timeNow = time.Now })

	id, token := f.start(t, wizard.VariantMember)
	f.fillMember(t, id, token)
	walkToConfirm(t, f, id, token)

	sub, sess, err := f.svc.Submit(ctx, id, token)
	require.NoError(t, err)
	assert.Equal(t, 85, sub.ComputedTotal)
	assert.Equal(t, scoring.LabelGood, sub.ComputedResultLabel)
	assert.Equal(t, []string{"p-1", "p-2"}, sub.Selections)
	assert.Equal(t, map[string]string{"teamwork": "沟通顺畅"}, sub.Comments)
	assert.Equal(t, frozen, sub.SubmittedAt)
	assert.Equal(t, 4, sess.State.CurrentStep)
	assert.Equal(t, []int{0, 1, 2, 3}, sess.State.CompletedSteps)

	require.Len(t, f.rec.subs, 1)
	assert.Equal(t, *sub, f.rec.subs[0])
	assert.Equal(t, []string{sub.AssessmentID}, f.arch.ids)
	assert.Equal(t, 0, f.store.Len())
}

func TestSubmit_RevalidatesSkippedSteps(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id, token := f.start(t, wizard.VariantMember)
	// Info filled, no projects, no scores: the jump only checks step 0.
	_, err := f.svc.Edit(ctx, id, token, schemas.EditRequest{
		SubjectID: ptr("m-1"),
		PeriodID:  ptr("2026-h1"),
		RubricID:  ptr("std-1"),
	})
	require.NoError(t, err)
	walkToConfirm(t, f, id, token)

	_, sess, err := f.svc.Submit(ctx, id, token)
	var inc *wizard.IncompleteError
	require.ErrorAs(t, err, &inc)
	assert.Equal(t, 1, inc.Step)
	assert.Equal(t, 3, sess.State.CurrentStep)

	stored, err := f.svc.Get(ctx, id, token)
	require.NoError(t, err)
	assert.Equal(t, []string{wizard.FieldProjects}, stored.State.ValidationErrors.Keys())
	assert.Empty(t, f.rec.subs)
}

func TestSubmit_NotAtConfirm(t *testing.T) {
	f := newFixture(t)
	id, token := f.start(t, wizard.VariantMember)

	_, _, err := f.svc.Submit(context.Background(), id, token)
	assert.ErrorIs(t, err, wizard.ErrNotAtConfirmStep)
}

func TestSubmit_RecordFailureKeepsSession(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id, token := f.start(t, wizard.VariantMember)
	f.fillMember(t, id, token)
	walkToConfirm(t, f, id, token)
	f.rec.err = errBoom

	_, _, err := f.svc.Submit(ctx, id, token)
	assert.ErrorIs(t, err, errBoom)

	sess, err := f.svc.Get(ctx, id, token)
	require.NoError(t, err)
	assert.Equal(t, 3, sess.State.CurrentStep)
	assert.NotEmpty(t, sess.AssessmentID)
	assert.Empty(t, f.arch.ids)

	f.rec.err = nil
	sub, _, err := f.svc.Submit(ctx, id, token)
	require.NoError(t, err)
	assert.Equal(t, sess.AssessmentID, sub.AssessmentID)
}

// undeletableStore keeps sessions around after Delete fails.
type undeletableStore struct {
	*session.MemoryStore
}

func (undeletableStore) Delete(context.Context, string) error { return errBoom }

func TestSubmit_RetryAfterFailedDeleteReusesAssessmentID(t *testing.T) {
	f := newFixture(t)
	f.svc.Sessions = undeletableStore{f.store}
	ctx := context.Background()
	id, token := f.start(t, wizard.VariantMember)
	f.fillMember(t, id, token)
	walkToConfirm(t, f, id, token)

	first, _, err := f.svc.Submit(ctx, id, token)
	require.NoError(t, err)
	assert.Equal(t, 1, f.store.Len())

	second, _, err := f.svc.Submit(ctx, id, token)
	require.NoError(t, err)

	require.Len(t, f.rec.subs, 2)
	assert.Equal(t, first.AssessmentID, second.AssessmentID)
	assert.Equal(t, f.rec.subs[0].AssessmentID, f.rec.subs[1].AssessmentID)
}

func TestSubmit_ArchiveFailureIsOnlyLogged(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id, token := f.start(t, wizard.VariantMember)
	f.fillMember(t, id, token)
	walkToConfirm(t, f, id, token)
	f.arch.err = errBoom

	sub, _, err := f.svc.Submit(ctx, id, token)
	require.NoError(t, err)
	require.NotNil(t, sub)

	var warned bool
	for _, e := range f.hook.AllEntries() {
		if e.Level == logrus.WarnLevel && e.Message == "enqueue archive" {
			warned = true
		}
	}
	assert.True(t, warned)
}

// --- Views ---

func TestToWizardOut(t *testing.T) {
	f := newFixture(t)
	id, token := f.start(t, wizard.VariantDepartment)
	sess, err := f.svc.Get(context.Background(), id, token)
	require.NoError(t, err)

	out := ToWizardOut(sess)
	assert.Equal(t, id, out.WizardID)
	assert.Equal(t, "department", out.Variant)
	require.Len(t, out.Steps, 5)
	assert.Equal(t, "工作概述", out.Steps[1].Title)
	assert.True(t, out.Steps[0].Current)
	assert.False(t, out.Steps[4].Reachable)
	assert.NotNil(t, out.Draft.Scores)
	assert.NotNil(t, out.CompletedSteps)
}

func TestSteps_UnknownVariant(t *testing.T) {
	_, err := Steps(wizard.Variant("x"))
	assert.Error(t, err)
}
