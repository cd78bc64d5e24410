package pricing

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// ActivityTolerance is how far a supplied activity total may drift from time × cost per hour.
var ActivityTolerance = decimal.RequireFromString("0.01")

var (
	// ErrActivityTotalMismatch means a supplied total_cost does not match time × cost_per_hour.
	ErrActivityTotalMismatch = errors.New("activity total does not match time × cost per hour")
	// ErrSegmentOutsidePhase means an activity points at a segment of another phase.
	ErrSegmentOutsidePhase = errors.New("activity segment does not belong to its phase")
)

// Activity is a unit of work in a complete budget.
type Activity struct {
	ID          string
	SegmentID   *string
	Time        decimal.Decimal
	CostPerHour decimal.Decimal
}

// Cost is time × cost per hour.
func (a Activity) Cost() decimal.Decimal {
	return a.Time.Mul(a.CostPerHour)
}

// CheckActivityTotal rejects a supplied total that diverges from the derived cost by more
// than ActivityTolerance. A nil total is accepted.
func CheckActivityTotal(a Activity, supplied *decimal.Decimal) error {
	if supplied == nil {
		return nil
	}
	if supplied.Sub(a.Cost()).Abs().GreaterThan(ActivityTolerance) {
		return fmt.Errorf("%w: got %s, expected %s", ErrActivityTotalMismatch,
			supplied.String(), Round2(a.Cost()).StringFixed(2))
	}
	return nil
}

// Segment groups activities inside a phase.
type Segment struct {
	ID         string
	Activities []Activity
}

// Phase is the top level of a complete budget. Activities holds the unsegmented ones;
// any entry carrying a SegmentID is attributed to its segment and skipped here.
type Phase struct {
	ID         string
	BaseValue  decimal.Decimal
	Segments   []Segment
	Activities []Activity
}

// SegmentTotal is the cost of one segment.
type SegmentTotal struct {
	SegmentID string
	Total     decimal.Decimal
}

// PhaseTotal breaks a phase down into its parts.
type PhaseTotal struct {
	PhaseID     string
	BaseValue   decimal.Decimal
	Segments    []SegmentTotal
	Unsegmented decimal.Decimal
	Total       decimal.Decimal
}

// Composition is the result of ComposeBudget. Total is unrounded.
type Composition struct {
	Phases []PhaseTotal
	Total  decimal.Decimal
}

// ComposeBudget aggregates activities into segments, segments into phases and phases into
// the budget subtotal.
func ComposeBudget(phases []Phase) Composition {
	comp := Composition{Phases: make([]PhaseTotal, 0, len(phases)), Total: decimal.Zero}
	for _, p := range phases {
		pt := PhaseTotal{
			PhaseID:     p.ID,
			BaseValue:   p.BaseValue,
			Segments:    make([]SegmentTotal, 0, len(p.Segments)),
			Unsegmented: decimal.Zero,
		}

		for _, a := range p.Activities {
			if a.SegmentID != nil {
				continue
			}
			pt.Unsegmented = pt.Unsegmented.Add(a.Cost())
		}

		total := p.BaseValue.Add(pt.Unsegmented)
		for _, s := range p.Segments {
			st := SegmentTotal{SegmentID: s.ID, Total: decimal.Zero}
			for _, a := range s.Activities {
				st.Total = st.Total.Add(a.Cost())
			}
			pt.Segments = append(pt.Segments, st)
			total = total.Add(st.Total)
		}

		pt.Total = total
		comp.Phases = append(comp.Phases, pt)
		comp.Total = comp.Total.Add(total)
	}
	return comp
}

// ActivityRow is a flat activity as stored, attributed to a phase and optionally a segment.
type ActivityRow struct {
	Activity
	PhaseID string
}

// SegmentRow is a flat segment as stored.
type SegmentRow struct {
	ID      string
	PhaseID string
}

// BuildPhases assembles flat rows into the tree ComposeBudget expects. Phases keep the
// order given; activities pointing at a segment of another phase are rejected.
func BuildPhases(phases []Phase, segments []SegmentRow, activities []ActivityRow) ([]Phase, error) {
	phaseIdx := make(map[string]int, len(phases))
	out := make([]Phase, len(phases))
	for i, p := range phases {
		out[i] = Phase{ID: p.ID, BaseValue: p.BaseValue}
		phaseIdx[p.ID] = i
	}

	type segPos struct{ phase, seg int }
	segIdx := make(map[string]segPos, len(segments))
	for _, s := range segments {
		pi, ok := phaseIdx[s.PhaseID]
		if !ok {
			return nil, fmt.Errorf("%w: segment %s has no phase", ErrSegmentOutsidePhase, s.ID)
		}
		out[pi].Segments = append(out[pi].Segments, Segment{ID: s.ID})
		segIdx[s.ID] = segPos{phase: pi, seg: len(out[pi].Segments) - 1}
	}

	for _, a := range activities {
		pi, ok := phaseIdx[a.PhaseID]
		if !ok {
			return nil, fmt.Errorf("%w: activity %s has no phase", ErrSegmentOutsidePhase, a.ID)
		}
		if a.SegmentID == nil {
			out[pi].Activities = append(out[pi].Activities, a.Activity)
			continue
		}
		pos, ok := segIdx[*a.SegmentID]
		if !ok || pos.phase != pi {
			return nil, fmt.Errorf("%w: activity %s", ErrSegmentOutsidePhase, a.ID)
		}
		seg := &out[pi].Segments[pos.seg]
		seg.Activities = append(seg.Activities, a.Activity)
	}

	return out, nil
}
