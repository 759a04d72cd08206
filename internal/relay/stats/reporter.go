package stats

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Snapshot is one point-in-time view of the relay's counters.
type Snapshot struct {
	Symbols        int
	HistoryEntries int
	WSStatus       string
	DialAttempts   int
	Dropped        int64
}

// Reporter periodically logs relay status on a cron schedule.
type Reporter struct {
	cron    *cron.Cron
	collect func() Snapshot
	logger  *zap.Logger
}

// NewReporter schedules collect every interval. The schedule starts with Start.
func NewReporter(interval time.Duration, collect func() Snapshot, logger *zap.Logger) (*Reporter, error) {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	r := &Reporter{
		cron:    cron.New(),
		collect: collect,
		logger:  logger,
	}
	if _, err := r.cron.AddFunc(fmt.Sprintf("@every %s", interval), r.Report); err != nil {
		return nil, fmt.Errorf("schedule stats report: %w", err)
	}
	return r, nil
}

func (r *Reporter) Start() {
	r.cron.Start()
}

// Stop halts the schedule and waits for a running report to finish.
func (r *Reporter) Stop() {
	<-r.cron.Stop().Done()
}

// Report logs the current counters once.
func (r *Reporter) Report() {
	s := r.collect()
	r.logger.Info("relay status",
		zap.Int("symbols", s.Symbols),
		zap.Int("history_entries", s.HistoryEntries),
		zap.String("ws_status", s.WSStatus),
		zap.Int("dial_attempts", s.DialAttempts),
		zap.Int64("publish_dropped", s.Dropped))
}
