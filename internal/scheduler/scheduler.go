package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/rs/zerolog/log"

	"github.com/i474232898/covid-stats-bot/internal/stats"
	"github.com/i474232898/covid-stats-bot/internal/store"
)

// Target is a source probed with a fixed region code.
type Target struct {
	Source stats.Source
	Code   string
}

// Sink receives probe results.
type Sink interface {
	Save(result store.ProbeResult)
}

// Scheduler periodically probes the upstream sources so operators can see which of
// them currently answer with usable data. Replies to users never read these results.
type Scheduler struct {
	scheduler *gocron.Scheduler
	sink      Sink
	targets   []Target
	interval  time.Duration
	timeout   time.Duration
}

// New creates a new Scheduler.
func New(targets []Target, interval, timeout time.Duration, sink Sink) *Scheduler {
	s := gocron.NewScheduler(time.UTC)
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Scheduler{
		scheduler: s,
		sink:      sink,
		targets:   targets,
		interval:  interval,
		timeout:   timeout,
	}
}

// Start schedules the periodic probe job and starts the underlying scheduler. A
// non-positive interval disables probing.
func (s *Scheduler) Start() error {
	if len(s.targets) == 0 || s.interval <= 0 {
		log.Info().Msg("scheduler: source probing disabled")
		return nil
	}

	_, err := s.scheduler.Every(s.interval).Do(func() {
		log.Debug().Int("targets", len(s.targets)).Msg("scheduler: probing sources")
		s.ProbeAll(context.Background())
	})
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	return nil
}

// ProbeAll fetches every target once, concurrently, and hands the results to the sink.
func (s *Scheduler) ProbeAll(ctx context.Context) {
	var wg sync.WaitGroup
	for _, t := range s.targets {
		wg.Add(1)
		go func(t Target) {
			defer wg.Done()
			s.sink.Save(s.probe(ctx, t))
		}(t)
	}
	wg.Wait()
}

func (s *Scheduler) probe(ctx context.Context, t Target) store.ProbeResult {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	series, err := t.Source.Fetch(ctx, t.Code)
	result := store.ProbeResult{
		Source:    t.Source.Name(),
		Timestamp: start.UTC(),
		Records:   len(series),
		Duration:  time.Since(start).Round(time.Millisecond).String(),
	}
	if len(series) > 0 {
		result.LatestDate = series[0].Date.Format(stats.DateLayout)
	}

	switch {
	case err != nil:
		result.Error = err.Error()
		log.Warn().Err(err).Str("source", result.Source).Msg("scheduler: probe failed")
	case !series.Ready():
		result.Error = stats.ErrInsufficientData.Error()
		log.Warn().Str("source", result.Source).Int("records", len(series)).Msg("scheduler: probe returned too few records")
	default:
		result.OK = true
	}
	return result
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
