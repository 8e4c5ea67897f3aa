// Package report computes the admin dashboard figures from user and scan
// records. Everything here is a pure function of its inputs.
package report

import (
	"strconv"
	"time"

	"github.com/myrewards/loyalty-system/internal/core/domain"
)

const DefaultWindowDays = 7

const dayLayout = "2006-01-02"

type Options struct {
	Now        time.Time
	WindowDays int
	// Location decides where calendar days start. Defaults to UTC.
	Location *time.Location
}

func (o Options) normalized() Options {
	if o.WindowDays <= 0 {
		o.WindowDays = DefaultWindowDays
	}
	if o.Location == nil {
		o.Location = time.UTC
	}
	if o.Now.IsZero() {
		o.Now = time.Now()
	}
	return o
}

// Bucket is a closed range of point balances. Max is -1 for the open-ended
// last bucket.
type Bucket struct {
	Label string `json:"label"`
	Min   int    `json:"min"`
	Max   int    `json:"max"`
	Users int    `json:"users"`
}

func (b Bucket) contains(points int) bool {
	return points >= b.Min && (b.Max < 0 || points <= b.Max)
}

type DayCount struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

type MilestoneReach struct {
	MilestoneID string `json:"milestone_id"`
	Threshold   int    `json:"threshold"`
	Reward      string `json:"reward"`
	Users       int    `json:"users"`
}

type Dashboard struct {
	GeneratedAt         time.Time        `json:"generated_at"`
	WindowDays          int              `json:"window_days"`
	TotalRegistered     int              `json:"total_registered"`
	TotalPointsIssued   int              `json:"total_points_issued"`
	AveragePoints       float64          `json:"average_points"`
	ActiveInWindow      int              `json:"active_in_window"`
	InactiveInWindow    int              `json:"inactive_in_window"`
	TotalScansInWindow  int              `json:"total_scans_in_window"`
	TotalRewardsClaimed int              `json:"total_rewards_claimed"`
	PointsDistribution  []Bucket         `json:"points_distribution"`
	DailySignups        []DayCount       `json:"daily_signups"`
	DailyScans          []DayCount       `json:"daily_scans"`
	MilestoneReach      []MilestoneReach `json:"milestone_reach"`
}

// Buckets derives non-overlapping point ranges from the milestone thresholds:
// [0,t1-1], [t1,t2-1], ..., [tn,inf).
func Buckets(table *domain.MilestoneTable) []Bucket {
	thresholds := table.Thresholds()
	out := make([]Bucket, 0, len(thresholds)+1)

	lo := 0
	for _, t := range thresholds {
		out = append(out, Bucket{Label: rangeLabel(lo, t-1), Min: lo, Max: t - 1})
		lo = t
	}
	out = append(out, Bucket{Label: strconv.Itoa(lo) + "+", Min: lo, Max: -1})
	return out
}

func rangeLabel(lo, hi int) string {
	if lo == hi {
		return strconv.Itoa(lo)
	}
	return strconv.Itoa(lo) + "-" + strconv.Itoa(hi)
}

// WindowStart returns local midnight of the first day of an N-day window that
// ends on the day containing now.
func WindowStart(now time.Time, days int, loc *time.Location) time.Time {
	local := now.In(loc)
	midnight := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	return midnight.AddDate(0, 0, -(days - 1))
}

// Build computes the dashboard. The inputs are not modified, so calling Build
// twice with the same arguments gives the same Dashboard.
func Build(table *domain.MilestoneTable, users []domain.UserProfile, scans []domain.ScanEvent, opts Options) Dashboard {
	opts = opts.normalized()

	d := Dashboard{
		GeneratedAt:        opts.Now,
		WindowDays:         opts.WindowDays,
		TotalRegistered:    len(users),
		PointsDistribution: Buckets(table),
	}

	activeSince := opts.Now.Add(-time.Duration(opts.WindowDays) * 24 * time.Hour)
	milestones := table.All()
	d.MilestoneReach = make([]MilestoneReach, len(milestones))
	for i, m := range milestones {
		d.MilestoneReach[i] = MilestoneReach{MilestoneID: m.ID, Threshold: m.Threshold, Reward: m.Reward}
	}

	signupTimes := make([]time.Time, 0, len(users))
	for _, u := range users {
		d.TotalPointsIssued += u.Points
		d.TotalRewardsClaimed += u.ClaimedRewardsCount
		if !u.LastActivityAt.IsZero() && !u.LastActivityAt.Before(activeSince) {
			d.ActiveInWindow++
		}
		for i := range d.PointsDistribution {
			if d.PointsDistribution[i].contains(u.Points) {
				d.PointsDistribution[i].Users++
				break
			}
		}
		for i := range d.MilestoneReach {
			if u.Points >= d.MilestoneReach[i].Threshold {
				d.MilestoneReach[i].Users++
			}
		}
		signupTimes = append(signupTimes, u.CreatedAt)
	}
	d.InactiveInWindow = d.TotalRegistered - d.ActiveInWindow
	if d.TotalRegistered > 0 {
		d.AveragePoints = float64(d.TotalPointsIssued) / float64(d.TotalRegistered)
	}

	scanTimes := make([]time.Time, len(scans))
	for i, s := range scans {
		scanTimes[i] = s.Timestamp
	}

	d.DailySignups = daySeries(signupTimes, opts)
	d.DailyScans = daySeries(scanTimes, opts)
	for _, c := range d.DailyScans {
		d.TotalScansInWindow += c.Count
	}
	return d
}

// daySeries counts timestamps per calendar day for the window, oldest first.
// Days without events are present with a zero count.
func daySeries(ts []time.Time, opts Options) []DayCount {
	start := WindowStart(opts.Now, opts.WindowDays, opts.Location)

	out := make([]DayCount, opts.WindowDays)
	index := make(map[string]int, opts.WindowDays)
	for i := range out {
		key := start.AddDate(0, 0, i).Format(dayLayout)
		out[i] = DayCount{Date: key}
		index[key] = i
	}

	for _, t := range ts {
		if t.IsZero() {
			continue
		}
		if i, ok := index[t.In(opts.Location).Format(dayLayout)]; ok {
			out[i].Count++
		}
	}
	return out
}
