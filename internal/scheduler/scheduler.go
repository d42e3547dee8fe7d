package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"HorizonTrader/internal/cache"
	"HorizonTrader/internal/calculator"
	"HorizonTrader/internal/metrics"
	"HorizonTrader/internal/model"
	"HorizonTrader/internal/recorder"
	"HorizonTrader/internal/strategy"

	"github.com/robfig/cron/v3"
)

// StatsSource gives a consistent copy of the latest market statistics.
type StatsSource interface {
	Snapshot() map[string]model.AssetStat
}

// BaselineStore keeps the last evaluated price per horizon and symbol.
type BaselineStore interface {
	Baseline(h model.Horizon, symbol string) (float64, error)
	SetBaseline(h model.Horizon, symbol string, price float64) error
}

// Strategy turns one horizon's change percentages into orders.
type Strategy interface {
	Perform(ctx context.Context, h model.Horizon, changes map[string]float64, snapshot map[string]model.AssetStat) error
}

// Scheduler runs one evaluation loop per horizon, each on its own cron.
type Scheduler struct {
	Ctx       context.Context
	Halt      context.CancelCauseFunc
	Horizons  []model.Horizon
	Symbols   []string
	Stats     StatsSource
	Baselines BaselineStore
	Strategy  Strategy
	Recorder  recorder.Recorder
	Publisher cache.Publisher
	Metrics   *metrics.Metrics

	crons map[model.Horizon]*cron.Cron
	locks map[model.Horizon]*sync.Mutex
	now   func() time.Time
}

// NewScheduler creates a Scheduler for every horizon. halt is called with
// strategy.ErrStopConditionReached when a cycle trips the stop condition.
func NewScheduler(ctx context.Context, halt context.CancelCauseFunc, symbols []string, stats StatsSource, baselines BaselineStore, strat Strategy, rec recorder.Recorder, pub cache.Publisher, m *metrics.Metrics) *Scheduler {
	if rec == nil {
		rec = recorder.NewNoopRecorder()
	}
	if pub == nil {
		pub = cache.Noop{}
	}
	s := &Scheduler{
		Ctx:       ctx,
		Halt:      halt,
		Horizons:  model.AllHorizons,
		Symbols:   symbols,
		Stats:     stats,
		Baselines: baselines,
		Strategy:  strat,
		Recorder:  rec,
		Publisher: pub,
		Metrics:   m,
		crons:     make(map[model.Horizon]*cron.Cron),
		locks:     make(map[model.Horizon]*sync.Mutex),
		now:       time.Now,
	}
	for _, h := range s.Horizons {
		s.locks[h] = &sync.Mutex{}
	}
	return s
}

// Start schedules every horizon. The first cycle of a horizon runs one
// period after Start.
func (s *Scheduler) Start() {
	for _, h := range s.Horizons {
		c := cron.New(cron.WithChain(
			cron.Recover(cron.DefaultLogger),
			cron.SkipIfStillRunning(cron.DefaultLogger),
		))
		c.Schedule(cron.Every(h.Period()), cron.FuncJob(func() { s.runScheduled(h) }))
		c.Start()
		s.crons[h] = c
		log.Printf("[INFO] starting %s evaluator...", h)
	}
	log.Println("[INFO] scheduler started")
}

// Stop stops every horizon and waits for running cycles to finish.
func (s *Scheduler) Stop() {
	var pending []context.Context
	for _, c := range s.crons {
		pending = append(pending, c.Stop())
	}
	for _, done := range pending {
		<-done.Done()
	}
	log.Println("[INFO] scheduler stopped")
}

// RunNow runs one cycle of h immediately, for manual triggers.
func (s *Scheduler) RunNow(ctx context.Context, h model.Horizon) error {
	if _, ok := s.locks[h]; !ok {
		return fmt.Errorf("horizon %s is not scheduled", h)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.RunCycle(h)
}

func (s *Scheduler) runScheduled(h model.Horizon) {
	if err := s.RunCycle(h); err != nil && !errors.Is(err, context.Canceled) {
		log.Printf("[ERROR] %s cycle: %v", h, err)
	}
}

// RunCycle evaluates every symbol for h, moves the baselines forward and
// hands the changes to the strategy. Cycles of one horizon never overlap.
func (s *Scheduler) RunCycle(h model.Horizon) error {
	if err := s.Ctx.Err(); err != nil {
		return err
	}
	lock := s.locks[h]
	lock.Lock()
	defer lock.Unlock()

	log.Printf("[INFO] evaluating price change for %s interval...", h)
	snapshot := s.Stats.Snapshot()
	changes := make(map[string]float64, len(s.Symbols))

	for _, symbol := range s.Symbols {
		stat, ok := snapshot[symbol]
		if !ok {
			log.Printf("[WARN] no price received for %s yet, skipping", symbol)
			continue
		}

		baseline, err := s.Baselines.Baseline(h, symbol)
		if err != nil {
			s.Metrics.ObserveCycle(h.String(), "aborted")
			return fmt.Errorf("read %s baseline of %s: %w", h, symbol, err)
		}

		eval := model.Evaluation{Horizon: h, Symbol: symbol, Baseline: baseline, Latest: stat.LatestPrice, At: s.now()}
		if pct, err := calculator.ChangePercent(baseline, stat.LatestPrice); err != nil {
			log.Printf("[WARN] %s baseline of %s is zero, no decision this cycle", h, symbol)
			eval.Skipped = true
		} else {
			eval.ChangePercent = pct
			changes[symbol] = pct
			log.Printf("[INFO] %s price change percent for interval %s is %.3f", symbol, h, pct)
		}

		if err := s.Baselines.SetBaseline(h, symbol, stat.LatestPrice); err != nil {
			log.Printf("[ERROR] save %s baseline of %s: %v", h, symbol, err)
		}
		s.observe(eval)
	}

	if err := s.Strategy.Perform(s.Ctx, h, changes, snapshot); err != nil {
		if errors.Is(err, strategy.ErrStopConditionReached) {
			s.Metrics.ObserveCycle(h.String(), "stopped")
			s.Halt(err)
			return err
		}
		s.Metrics.ObserveCycle(h.String(), "error")
		return fmt.Errorf("perform %s strategy: %w", h, err)
	}
	s.Metrics.ObserveCycle(h.String(), "ok")
	return nil
}

func (s *Scheduler) observe(eval model.Evaluation) {
	if !eval.Skipped {
		s.Metrics.ObserveChange(eval.Horizon.String(), eval.Symbol, eval.ChangePercent)
	}
	if err := s.Recorder.RecordEvaluation(&recorder.EvaluationEvent{
		Horizon:       eval.Horizon.String(),
		Symbol:        eval.Symbol,
		Baseline:      eval.Baseline,
		Latest:        eval.Latest,
		ChangePercent: eval.ChangePercent,
		Skipped:       eval.Skipped,
	}); err != nil {
		log.Printf("[ERROR] record evaluation: %v", err)
	}
	if err := s.Publisher.PublishEvaluation(s.Ctx, eval); err != nil {
		log.Printf("[WARN] publish evaluation: %v", err)
	}
}
