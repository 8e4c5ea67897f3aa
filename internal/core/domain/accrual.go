package domain

import "fmt"

// ScanOutcome is the result of applying points to a balance.
type ScanOutcome struct {
	PreviousPoints   int         `json:"previous_points"`
	NewPoints        int         `json:"new_points"`
	NewlyAchieved    []Milestone `json:"newly_achieved"`
	ResetRecommended bool        `json:"reset_recommended"`
}

// ApplyScan applies a single scan (one point) to current.
func (t *MilestoneTable) ApplyScan(current int) ScanOutcome {
	return t.Accrue(current, 1)
}

// Accrue adds delta points to current. Milestones are reported when their
// threshold lies in (current, current+delta], so any increment size is safe.
// Reset is recommended only when the new balance lands exactly on the final
// threshold.
//
// A negative balance or a non-positive delta is a programming error and panics.
func (t *MilestoneTable) Accrue(current, delta int) ScanOutcome {
	if current < 0 {
		panic(fmt.Sprintf("domain: negative points balance %d", current))
	}
	if delta < 1 {
		panic(fmt.Sprintf("domain: non-positive accrual %d", delta))
	}

	next := current + delta
	out := ScanOutcome{
		PreviousPoints:   current,
		NewPoints:        next,
		NewlyAchieved:    []Milestone{},
		ResetRecommended: next == t.Final().Threshold,
	}
	for _, m := range t.milestones {
		if m.Threshold > next {
			break
		}
		if m.Threshold > current {
			out.NewlyAchieved = append(out.NewlyAchieved, m)
		}
	}
	return out
}

// ResetOutcome is the balance after a confirmed reset.
type ResetOutcome struct {
	Points   int         `json:"points"`
	Achieved []Milestone `json:"achieved"`
}

// Reset returns the zero balance. It refuses to do anything unless the user
// explicitly confirmed.
func Reset(confirmed bool) (ResetOutcome, error) {
	if !confirmed {
		return ResetOutcome{}, ErrResetNotConfirmed
	}
	return ResetOutcome{Points: 0, Achieved: []Milestone{}}, nil
}

// Progress describes how far a balance is along the reward journey.
type Progress struct {
	Points int `json:"points"`
	// Next is the next milestone to unlock, or the final one once all are unlocked.
	Next           *Milestone `json:"next,omitempty"`
	PointsToNext   int        `json:"points_to_next"`
	SegmentPercent float64    `json:"segment_percent"`
	OverallPercent float64    `json:"overall_percent"`
	AllUnlocked    bool       `json:"all_unlocked"`
}

// Progress computes the progress view for points.
func (t *MilestoneTable) Progress(points int) Progress {
	final := t.Final()
	p := Progress{
		Points:         points,
		OverallPercent: percent(points, final.Threshold),
	}

	previous := 0
	for _, m := range t.milestones {
		if points < m.Threshold {
			next := m
			p.Next = &next
			p.PointsToNext = m.Threshold - points
			p.SegmentPercent = percent(points-previous, m.Threshold-previous)
			return p
		}
		previous = m.Threshold
	}

	p.Next = &final
	p.SegmentPercent = 100
	p.AllUnlocked = true
	return p
}

func percent(part, whole int) float64 {
	if whole <= 0 {
		return 0
	}
	v := float64(part) / float64(whole) * 100
	if v > 100 {
		return 100
	}
	if v < 0 {
		return 0
	}
	return v
}
