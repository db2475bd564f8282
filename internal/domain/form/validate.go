package form

import (
	"sort"

	"github.com/casedesk/casedesk/internal/platform/apperr"
)

// Validate evaluates every rule of the section against values and returns
// all violations, plain fields first and then pairs, in table order.
func (s *Section) Validate(values map[string]string) []apperr.FieldError {
	var errs []apperr.FieldError
	for _, f := range s.Fields {
		if fe := f.Validate(values); fe != nil {
			errs = append(errs, *fe)
		}
	}
	for _, p := range s.Pairs {
		if fe := p.Validate(values); fe != nil {
			errs = append(errs, *fe)
		}
	}
	return errs
}

// ValidateDocument validates every section. The result is ordered by step
// and then table order.
func ValidateDocument(values map[string]string) []apperr.FieldError {
	var errs []apperr.FieldError
	for _, s := range sections {
		errs = append(errs, s.Validate(values)...)
	}
	return errs
}

// FirstInvalidStep returns the lowest step that owns one of errs.
func FirstInvalidStep(errs []apperr.FieldError) (int, bool) {
	first, found := 0, false
	for _, fe := range errs {
		step, ok := StepOf(fe.Path)
		if !ok {
			continue
		}
		if !found || step < first {
			first, found = step, true
		}
	}
	return first, found
}

// countBySection groups errors by owning section key.
func countBySection(errs []apperr.FieldError) map[string]int {
	out := make(map[string]int)
	for _, fe := range errs {
		if ref, ok := fieldIndex[fe.Path]; ok {
			out[ref.section.Key]++
		}
	}
	return out
}

// sortErrors orders errs by document position; unknown paths go last by name.
func sortErrors(errs []apperr.FieldError) {
	sort.SliceStable(errs, func(i, j int) bool {
		ri, oki := fieldIndex[errs[i].Path]
		rj, okj := fieldIndex[errs[j].Path]
		switch {
		case oki && okj:
			return ri.position < rj.position
		case oki != okj:
			return oki
		default:
			return errs[i].Path < errs[j].Path
		}
	})
}
