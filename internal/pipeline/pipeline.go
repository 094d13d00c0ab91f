package pipeline

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/neural-roots/freshline/internal/config"
	"github.com/neural-roots/freshline/internal/model"
	"github.com/neural-roots/freshline/internal/store"
)

// stageCount is how many assessment stages the orchestrator runs.
const stageCount = 4

// Orchestrator runs the full assessment workflow: freshness scoring, then a
// concurrent fan-out of market, logistics and weather, then synthesis.
type Orchestrator struct {
	pricer   *MarketPricer
	selector *LogisticsSelector
	assessor *WeatherAssessor
	history  *HistoryStore
	timeout  time.Duration
	counter  atomic.Uint64
	executed atomic.Int64
	now      func() time.Time
}

// New wires an orchestrator from config and a data store.
func New(cfg *config.Config, ds store.DataStore) *Orchestrator {
	return &Orchestrator{
		pricer:   NewMarketPricer(ds, cfg.Assess.ComparableWindow(), cfg.Assess.BulkThresholdKg),
		selector: NewLogisticsSelector(ds, cfg.Assess.LongHaulKm),
		assessor: NewWeatherAssessor(ds),
		history:  NewHistoryStore(cfg.Assess.HistoryCapacity),
		timeout:  cfg.Assess.StageTimeout(),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Assess validates the request and runs the workflow. Only invalid input or a
// freshness computation failure aborts; the three data-backed stages degrade
// to their documented fallbacks when the store is slow or unavailable.
func (o *Orchestrator) Assess(ctx context.Context, req model.ShipmentRequest) (model.WorkflowRecord, error) {
	if err := req.Validate(); err != nil {
		return model.WorkflowRecord{}, eris.Wrap(err, "pipeline: validate request")
	}

	id := o.nextID()
	log := zap.L().With(zap.String("workflow_id", id), zap.String("crop", req.CropName))
	log.Info("pipeline: assessment started")

	freshness, err := ScoreFreshness(req)
	if err != nil {
		return model.WorkflowRecord{}, eris.Wrap(err, "pipeline: score freshness")
	}

	stageCtx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	var (
		market    model.MarketResult
		logistics model.LogisticsResult
		weather   model.WeatherResult
	)
	g, gctx := errgroup.WithContext(stageCtx)
	g.Go(func() error {
		market = o.pricer.Price(gctx, req, freshness)
		return nil
	})
	g.Go(func() error {
		logistics = o.selector.Select(gctx, req, freshness)
		return nil
	})
	g.Go(func() error {
		weather = o.assessor.Assess(gctx, req)
		return nil
	})
	// Stages degrade internally instead of returning errors, so Wait only
	// synchronizes the fan-out.
	_ = g.Wait()

	synthesis := Synthesize(freshness, market, logistics, weather)

	status := model.WorkflowCompleted
	if market.Status == model.StageDegraded || logistics.Status == model.StageDegraded || weather.Status == model.StageDegraded {
		status = model.WorkflowCompletedDegraded
	}

	record := model.WorkflowRecord{
		ID:        id,
		Request:   req,
		Freshness: freshness,
		Market:    market,
		Logistics: logistics,
		Weather:   weather,
		Synthesis: synthesis,
		Status:    status,
		CreatedAt: o.now(),
	}
	o.history.Append(record)
	o.executed.Add(1)

	log.Info("pipeline: assessment finished",
		zap.String("status", string(status)),
		zap.Float64("final_score", synthesis.FinalScore))
	return record, nil
}

// GetHistory returns up to limit recent workflow records, newest first.
func (o *Orchestrator) GetHistory(limit int) []model.WorkflowRecord {
	return o.history.Recent(limit)
}

// Health reports liveness counters for the orchestrator.
func (o *Orchestrator) Health() model.Health {
	return model.Health{
		StagesLoaded:      stageCount,
		WorkflowsExecuted: int(o.executed.Load()),
	}
}

// nextID builds a unique workflow id from the UTC timestamp and a process
// monotonic counter, so ids stay distinct within the same instant.
func (o *Orchestrator) nextID() string {
	return fmt.Sprintf("wf_%s_%06d", o.now().Format("20060102T150405"), o.counter.Add(1))
}
