package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/myrewards/loyalty-system/internal/core/domain"
)

// milestoneFile is the on-disk layout:
//
//	milestones:
//	  - id: m1
//	    threshold: 1
//	    reward: 1 FREE Piece of chicken
//	    description: ...
type milestoneFile struct {
	Milestones []struct {
		ID          string `yaml:"id"`
		Threshold   int    `yaml:"threshold"`
		Reward      string `yaml:"reward"`
		Description string `yaml:"description"`
	} `yaml:"milestones"`
}

// LoadMilestones builds the milestone table from path, or from the built-in
// defaults when path is empty. Any problem is returned as an error so startup
// can fail fast.
func LoadMilestones(path string) (*domain.MilestoneTable, error) {
	if path == "" {
		return domain.NewMilestoneTable(domain.DefaultMilestones())
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read milestones file: %w", err)
	}
	return ParseMilestones(raw)
}

func ParseMilestones(raw []byte) (*domain.MilestoneTable, error) {
	var f milestoneFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidMilestoneTable, err)
	}

	ms := make([]domain.Milestone, len(f.Milestones))
	for i, m := range f.Milestones {
		ms[i] = domain.Milestone{ID: m.ID, Threshold: m.Threshold, Reward: m.Reward, Description: m.Description}
	}
	return domain.NewMilestoneTable(ms)
}
