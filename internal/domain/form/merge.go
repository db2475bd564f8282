package form

// MergeDraft overlays a draft onto the persisted values. An empty incoming
// value falls back to the persisted one, so a draft never blanks a saved
// answer. Absent fields are left untouched.
func MergeDraft(persisted, incoming map[string]string) map[string]string {
	out := make(map[string]string, len(persisted)+len(incoming))
	for k, v := range persisted {
		out[k] = v
	}
	for k, v := range incoming {
		if v == "" {
			if _, ok := persisted[k]; ok {
				continue
			}
		}
		out[k] = v
	}
	return out
}

// MergeSubmit overlays a final submission onto the persisted values. Sent
// fields replace persisted ones verbatim, including empty values.
func MergeSubmit(persisted, incoming map[string]string) map[string]string {
	out := make(map[string]string, len(persisted)+len(incoming))
	for k, v := range persisted {
		out[k] = v
	}
	for k, v := range incoming {
		out[k] = v
	}
	return out
}

// Restrict drops values whose names do not belong to s.
func Restrict(s *Section, values map[string]string) map[string]string {
	out := make(map[string]string, len(values))
	for k, v := range values {
		if s.Has(k) {
			out[k] = v
		}
	}
	return out
}
