// Package scheduler runs background jobs on gocron.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/rs/zerolog"

	"github.com/myrewards/loyalty-system/internal/api/metrics"
	"github.com/myrewards/loyalty-system/internal/core/report"
)

const defaultRefreshInterval = 5 * time.Minute

// DashboardSource is the part of the report service the job needs.
type DashboardSource interface {
	Dashboard(ctx context.Context, windowDays int) (*report.Dashboard, error)
}

// ReportJob periodically rebuilds the dashboard and publishes its headline
// figures as Prometheus gauges.
type ReportJob struct {
	source   DashboardSource
	interval time.Duration
	timeout  time.Duration
	log      zerolog.Logger
}

func NewReportJob(source DashboardSource, interval time.Duration, log zerolog.Logger) *ReportJob {
	if interval <= 0 {
		interval = defaultRefreshInterval
	}
	timeout := interval / 2
	if timeout > 30*time.Second {
		timeout = 30 * time.Second
	}
	return &ReportJob{source: source, interval: interval, timeout: timeout, log: log}
}

// Run refreshes the gauges once.
func (j *ReportJob) Run(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, j.timeout)
	defer cancel()

	d, err := j.source.Dashboard(ctx, 0)
	if err != nil {
		return fmt.Errorf("report refresh: %w", err)
	}

	metrics.UsersRegistered.Set(float64(d.TotalRegistered))
	metrics.UsersActive.Set(float64(d.ActiveInWindow))
	metrics.PointsIssued.Set(float64(d.TotalPointsIssued))
	for _, m := range d.MilestoneReach {
		metrics.MilestoneReach.WithLabelValues(m.MilestoneID).Set(float64(m.Users))
	}

	j.log.Debug().Int("users", d.TotalRegistered).Int("active", d.ActiveInWindow).Msg("report gauges refreshed")
	return nil
}

// Start registers the job on a new scheduler and starts it. The first run
// happens immediately; runs never overlap. Call Shutdown on the returned
// scheduler to stop.
func (j *ReportJob) Start(ctx context.Context) (gocron.Scheduler, error) {
	sched, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("new scheduler: %w", err)
	}

	_, err = sched.NewJob(
		gocron.DurationJob(j.interval),
		gocron.NewTask(func() {
			if err := j.Run(ctx); err != nil {
				j.log.Warn().Err(err).Msg("report refresh failed")
			}
		}),
		gocron.WithName("report-gauges"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithStartAt(gocron.WithStartImmediately()),
	)
	if err != nil {
		_ = sched.Shutdown()
		return nil, fmt.Errorf("register report job: %w", err)
	}

	sched.Start()
	return sched, nil
}
