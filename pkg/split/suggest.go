package split

import (
	"fmt"
	"sort"

	"github.com/maglevlabs/mast/pkg/script"
)

// Gap is the pause between two consecutive actions of a step. AfterIndex is
// the position of the action the gap follows.
type Gap struct {
	AfterIndex int     `json:"after_index"`
	Seconds    float64 `json:"seconds"`
}

// Stats summarizes a step for split tooling: how many actions it holds, the
// time it spans, and where its natural pauses are.
type Stats struct {
	StepID      string  `json:"step_id"`
	ActionCount int     `json:"action_count"`
	StartTime   float64 `json:"start_time"`
	EndTime     float64 `json:"end_time"`
	Span        float64 `json:"span"`
	Gaps        []Gap   `json:"gaps"`
	MaxParts    int     `json:"max_parts"`
}

// PreviewPart is one would-be step of a previewed split.
type PreviewPart struct {
	Description string  `json:"description"`
	ActionCount int     `json:"action_count"`
	StartTime   float64 `json:"start_time"`
	EndTime     float64 `json:"end_time"`
}

// Preview is the would-be outcome of a split request.
type Preview struct {
	StepsAfterSplit int           `json:"steps_after_split"`
	Parts           []PreviewPart `json:"parts"`
}

// Stat computes read-only split statistics for one step.
func Stat(s *script.TestScript, stepID string) (*Stats, error) {
	if s == nil {
		return nil, fmt.Errorf("split stats: script is nil")
	}
	st, ok := s.StepByID(stepID)
	if !ok {
		return nil, fmt.Errorf("split stats: %w: %q", ErrStepNotFound, stepID)
	}

	stats := &Stats{StepID: stepID, ActionCount: len(st.ActionIDs), MaxParts: len(st.ActionIDs)}
	times := knownTimes(s, st.ActionIDs)
	if len(times) > 0 {
		stats.StartTime = times[0].t
		stats.EndTime = times[len(times)-1].t
		stats.Span = stats.EndTime - stats.StartTime
	}
	for i := 1; i < len(times); i++ {
		stats.Gaps = append(stats.Gaps, Gap{
			AfterIndex: times[i-1].idx,
			Seconds:    times[i].t - times[i-1].t,
		})
	}
	return stats, nil
}

// PreviewSplit reports what Split would produce for req without applying
// it. The request must pass ValidateSplitting.
func PreviewSplit(s *script.TestScript, req Request) (*Preview, error) {
	if res := ValidateSplitting(s, req); !res.Valid {
		return nil, fmt.Errorf("split preview: %s", res.Errors[0].Message)
	}
	p := &Preview{StepsAfterSplit: len(s.Steps) - 1 + len(req.Splits)}
	for _, sp := range req.Splits {
		part := PreviewPart{Description: sp.Description, ActionCount: len(sp.ActionIDs)}
		times := knownTimes(s, sp.ActionIDs)
		if len(times) > 0 {
			part.StartTime = times[0].t
			part.EndTime = times[len(times)-1].t
		}
		p.Parts = append(p.Parts, part)
	}
	return p, nil
}

// Suggest proposes a k-way split of a step at its k−1 largest chronological
// gaps. Parts stay contiguous in the step's current action order; ids that
// do not resolve in the pool stay attached to the part of their
// predecessor. The result is a convenience starting point for the UI, not
// an authoritative assignment.
func Suggest(s *script.TestScript, stepID string, k int) ([]Spec, error) {
	if s == nil {
		return nil, fmt.Errorf("split suggest: script is nil")
	}
	st, ok := s.StepByID(stepID)
	if !ok {
		return nil, fmt.Errorf("split suggest: %w: %q", ErrStepNotFound, stepID)
	}
	if k < 2 {
		return nil, fmt.Errorf("split suggest: need at least 2 parts (got %d)", k)
	}
	if k > len(st.ActionIDs) {
		return nil, fmt.Errorf("split suggest: step %q has %d actions, cannot make %d parts",
			stepID, len(st.ActionIDs), k)
	}

	times := knownTimes(s, st.ActionIDs)
	if len(times) < k {
		return nil, fmt.Errorf("split suggest: only %d actions resolve in the pool, cannot make %d parts",
			len(times), k)
	}

	// Rank the gaps between consecutive resolvable actions and cut at the
	// k−1 widest. Boundary b means: new part starts at id index b.
	type gap struct {
		boundary int // index into st.ActionIDs where the next part starts
		width    float64
	}
	gaps := make([]gap, 0, len(times)-1)
	for i := 1; i < len(times); i++ {
		gaps = append(gaps, gap{boundary: times[i].idx, width: times[i].t - times[i-1].t})
	}
	sort.SliceStable(gaps, func(i, j int) bool { return gaps[i].width > gaps[j].width })
	boundaries := make([]int, 0, k-1)
	for _, g := range gaps[:k-1] {
		boundaries = append(boundaries, g.boundary)
	}
	sort.Ints(boundaries)

	specs := make([]Spec, 0, k)
	start := 0
	cut := func(end, part int) {
		ids := make([]string, end-start)
		copy(ids, st.ActionIDs[start:end])
		specs = append(specs, Spec{
			Description: partDescription(st.Description, part, k),
			ActionIDs:   ids,
		})
		start = end
	}
	for _, b := range boundaries {
		cut(b, len(specs)+1)
	}
	cut(len(st.ActionIDs), len(specs)+1)
	return specs, nil
}

func partDescription(original string, part, total int) string {
	if original == "" {
		return fmt.Sprintf("Part %d of %d", part, total)
	}
	return fmt.Sprintf("%s (part %d of %d)", original, part, total)
}

type knownTime struct {
	idx int
	t   float64
}

// knownTimes returns (index, timestamp) for the ids that resolve in the
// pool, in id order.
func knownTimes(s *script.TestScript, ids []string) []knownTime {
	var times []knownTime
	for i, id := range ids {
		if a, ok := s.ActionPool[id]; ok {
			times = append(times, knownTime{idx: i, t: a.Timestamp})
		}
	}
	return times
}
