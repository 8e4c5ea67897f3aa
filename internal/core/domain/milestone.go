package domain

import (
	"fmt"
	"sort"
)

// Milestone is a points threshold that unlocks a reward.
type Milestone struct {
	ID          string `json:"id"`
	Threshold   int    `json:"threshold"`
	Reward      string `json:"reward"`
	Description string `json:"description,omitempty"`
}

// DefaultMilestones is the reward journey shipped with the service.
func DefaultMilestones() []Milestone {
	return []Milestone{
		{ID: "m1", Threshold: 1, Reward: "1 FREE Piece of chicken", Description: "Enjoy a delicious piece of our famous chicken."},
		{ID: "m2", Threshold: 3, Reward: "FREE Lip balm & Cap Dish", Description: "Some cool swag to show your loyalty."},
		{ID: "m3", Threshold: 7, Reward: "Free Towel", Description: "A branded towel, perfect for picnics or the beach."},
		{ID: "m4", Threshold: 10, Reward: "Free Headphones", Description: "Listen to your tunes with these headphones."},
	}
}

// MilestoneTable is an immutable, validated set of milestones ordered by
// threshold. Build it once at startup with NewMilestoneTable.
type MilestoneTable struct {
	milestones []Milestone
}

// NewMilestoneTable validates ms and returns a table sorted by threshold.
// Every returned error wraps ErrInvalidMilestoneTable.
func NewMilestoneTable(ms []Milestone) (*MilestoneTable, error) {
	if len(ms) == 0 {
		return nil, fmt.Errorf("%w: no milestones", ErrInvalidMilestoneTable)
	}

	sorted := make([]Milestone, len(ms))
	copy(sorted, ms)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Threshold < sorted[j].Threshold })

	ids := make(map[string]struct{}, len(sorted))
	for i, m := range sorted {
		if m.ID == "" {
			return nil, fmt.Errorf("%w: milestone at threshold %d has no id", ErrInvalidMilestoneTable, m.Threshold)
		}
		if _, dup := ids[m.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate id %q", ErrInvalidMilestoneTable, m.ID)
		}
		ids[m.ID] = struct{}{}

		if m.Threshold <= 0 {
			return nil, fmt.Errorf("%w: milestone %q has non-positive threshold %d", ErrInvalidMilestoneTable, m.ID, m.Threshold)
		}
		if m.Reward == "" {
			return nil, fmt.Errorf("%w: milestone %q has no reward", ErrInvalidMilestoneTable, m.ID)
		}
		if i > 0 && sorted[i-1].Threshold == m.Threshold {
			return nil, fmt.Errorf("%w: duplicate threshold %d", ErrInvalidMilestoneTable, m.Threshold)
		}
	}

	return &MilestoneTable{milestones: sorted}, nil
}

// MustMilestoneTable is like NewMilestoneTable but panics on error.
func MustMilestoneTable(ms []Milestone) *MilestoneTable {
	t, err := NewMilestoneTable(ms)
	if err != nil {
		panic(err)
	}
	return t
}

// All returns a copy of the milestones in threshold order.
func (t *MilestoneTable) All() []Milestone {
	out := make([]Milestone, len(t.milestones))
	copy(out, t.milestones)
	return out
}

func (t *MilestoneTable) Len() int {
	return len(t.milestones)
}

// Final returns the milestone with the highest threshold.
func (t *MilestoneTable) Final() Milestone {
	return t.milestones[len(t.milestones)-1]
}

// Thresholds returns the ascending list of thresholds.
func (t *MilestoneTable) Thresholds() []int {
	out := make([]int, len(t.milestones))
	for i, m := range t.milestones {
		out[i] = m.Threshold
	}
	return out
}

// Achieved returns every milestone whose threshold is <= points.
func (t *MilestoneTable) Achieved(points int) []Milestone {
	var out []Milestone
	for _, m := range t.milestones {
		if points < m.Threshold {
			break
		}
		out = append(out, m)
	}
	return out
}

// IsAchieved reports whether the milestone with the given id is unlocked at points.
func (t *MilestoneTable) IsAchieved(id string, points int) bool {
	for _, m := range t.milestones {
		if m.ID == id {
			return points >= m.Threshold
		}
	}
	return false
}
