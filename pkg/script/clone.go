package script

// Clone returns a fully independent copy of s. No mutable state is shared
// with the original, which makes clones safe to keep in undo histories.
func (s *TestScript) Clone() *TestScript {
	if s == nil {
		return nil
	}
	out := &TestScript{Meta: s.Meta}
	out.Meta.Tags = cloneStrings(s.Meta.Tags)

	out.Steps = make([]TestStep, len(s.Steps))
	for i, st := range s.Steps {
		st.ActionIDs = cloneStrings(st.ActionIDs)
		out.Steps[i] = st
	}

	out.ActionPool = make(map[string]Action, len(s.ActionPool))
	for id, a := range s.ActionPool {
		out.ActionPool[id] = a.Clone()
	}

	out.Variables = make(map[string]string, len(s.Variables))
	for k, v := range s.Variables {
		out.Variables[k] = v
	}
	return out
}

// Clone copies a, including its pointer fields and nested config.
func (a Action) Clone() Action {
	if a.X != nil {
		x := *a.X
		a.X = &x
	}
	if a.Y != nil {
		y := *a.Y
		a.Y = &y
	}
	if a.Text != nil {
		t := *a.Text
		a.Text = &t
	}
	a.Modifiers = cloneStrings(a.Modifiers)
	if a.Config != nil {
		a.Config = cloneValue(a.Config).(map[string]any)
	}
	return a
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}

// cloneValue deep-copies the generic JSON shapes that appear in action
// config blocks. Scalars are immutable and pass through.
func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[k] = cloneValue(e)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = cloneValue(e)
		}
		return out
	default:
		return v
	}
}
