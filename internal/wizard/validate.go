package wizard

// Validate returns the invalid field keys of step for draft. Steps without a
// validator, and indexes outside the table, always come back clean.
func Validate(def Definition, step int, draft *Draft) Errors {
	if step < 0 || step >= len(def.Steps) {
		return Errors{}
	}
	v := def.Steps[step].Validate
	if v == nil {
		return Errors{}
	}
	return v(draft)
}

// ValidateThrough validates steps 0..last in order and returns the first step
// that fails together with its errors. It returns -1 and no errors when every
// step is clean.
func ValidateThrough(def Definition, last int, draft *Draft) (int, Errors) {
	for i := 0; i <= last && i < len(def.Steps); i++ {
		if errs := Validate(def, i, draft); len(errs) > 0 {
			return i, errs
		}
	}
	return -1, Errors{}
}
