package wizard

import "fmt"

// Variant names a wizard flavour.
type Variant string

const (
	VariantMember     Variant = "member"
	VariantDepartment Variant = "department"
)

// StepKey identifies a step independently of its position.
type StepKey string

const (
	StepInfo      StepKey = "info"
	StepSelection StepKey = "selection"
	StepScoring   StepKey = "scoring"
	StepConfirm   StepKey = "confirm"
	StepComplete  StepKey = "complete"
)

// Field keys reported in Errors.
const (
	FieldMember         = "selectedMember"
	FieldDepartment     = "selectedDepartment"
	FieldPeriod         = "selectedPeriod"
	FieldStandard       = "selectedStandard"
	FieldEvaluationType = "evaluationType"
	FieldEvaluationDate = "evaluationDate"
	FieldProjects       = "selectedProjects"
	FieldScores         = "scores"
)

// Step is one row of a wizard's step table. A nil Validate means the step has
// no required fields.
type Step struct {
	Key      StepKey
	Title    string
	Validate func(d *Draft) Errors
}

// Definition is the step table of one wizard variant. The last step is the
// terminal "complete" step and the one before it is the confirmation step.
type Definition struct {
	Variant Variant
	// SubjectField is the error key used for the subject selector.
	SubjectField string
	Steps        []Step
}

// Len returns the number of steps.
func (d Definition) Len() int { return len(d.Steps) }

// ConfirmStep is the index of the confirmation step.
func (d Definition) ConfirmStep() int { return len(d.Steps) - 2 }

// CompleteStep is the index of the terminal step.
func (d Definition) CompleteStep() int { return len(d.Steps) - 1 }

// StepIndex returns the position of key, or -1.
func (d Definition) StepIndex(key StepKey) int {
	for i, s := range d.Steps {
		if s.Key == key {
			return i
		}
	}
	return -1
}

// --- Validators ---

func requireInfo(subjectField string, extra bool) func(d *Draft) Errors {
	return func(d *Draft) Errors {
		errs := Errors{}
		if d.SubjectID == "" {
			errs[subjectField] = true
		}
		if d.PeriodID == "" {
			errs[FieldPeriod] = true
		}
		if d.RubricID == "" {
			errs[FieldStandard] = true
		}
		if extra {
			if d.EvaluationType == "" {
				errs[FieldEvaluationType] = true
			}
			if d.EvaluationDate == "" {
				errs[FieldEvaluationDate] = true
			}
		}
		return errs
	}
}

func requireSelections(d *Draft) Errors {
	if len(d.Selections) == 0 {
		return Errors{FieldProjects: true}
	}
	return Errors{}
}

// requireScores reports one coarse key when any criterion of the active
// rubric is unscored.
func requireScores(d *Draft) Errors {
	if d.Rubric != nil && len(d.Rubric.Missing(d.Scores)) > 0 {
		return Errors{FieldScores: true}
	}
	return Errors{}
}

// --- Registry ---

// Registry holds the step table of every known variant.
var Registry = map[Variant]Definition{
	VariantMember: {
		Variant:      VariantMember,
		SubjectField: FieldMember,
		Steps: []Step{
			{Key: StepInfo, Title: "基本信息", Validate: requireInfo(FieldMember, false)},
			{Key: StepSelection, Title: "选择项目", Validate: requireSelections},
			{Key: StepScoring, Title: "评分打分", Validate: requireScores},
			{Key: StepConfirm, Title: "确认提交"},
			{Key: StepComplete, Title: "完成"},
		},
	},
	VariantDepartment: {
		Variant:      VariantDepartment,
		SubjectField: FieldDepartment,
		Steps: []Step{
			{Key: StepInfo, Title: "基本信息", Validate: requireInfo(FieldDepartment, true)},
			{Key: StepSelection, Title: "工作概述"},
			{Key: StepScoring, Title: "评分打分", Validate: requireScores},
			{Key: StepConfirm, Title: "确认提交"},
			{Key: StepComplete, Title: "完成"},
		},
	},
}

// Lookup returns the definition for v.
func Lookup(v Variant) (Definition, error) {
	def, ok := Registry[v]
	if !ok {
		return Definition{}, fmt.Errorf("invalid wizard variant %q: must be one of: member, department", v)
	}
	return def, nil
}
