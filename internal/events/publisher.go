// Package events publishes run-lifecycle notifications on NATS after a
// persistence commit. Publishing is fire-and-forget: a failure here is
// logged and counted but never fails the orchestration HTTP response, since
// the run is already durably persisted by the time this runs.
package events

import (
	"context"
	"log/slog"

	"github.com/nats-io/nats.go"

	"github.com/dparitosh/recipe-organizer-sub000/pkg/metrics"
	"github.com/dparitosh/recipe-organizer-sub000/pkg/natsutil"
	"github.com/dparitosh/recipe-organizer-sub000/pkg/resilience"
)

// publishRateOpts caps outbound event publishing at 50/s with a burst of
// 100, well above steady-state run completion rate but enough to shed load
// rather than let a run of failures hammer the broker.
var publishRateOpts = resilience.LimiterOpts{Rate: 50, Burst: 100}

// RunEvent is the payload published to formulation.runs.<status>.
type RunEvent struct {
	RunID         string `json:"runId"`
	Status        string `json:"status"`
	RecipeID      string `json:"recipeId,omitempty"`
	TotalDuration int64  `json:"totalDuration_ms"`
}

// Publisher publishes run-completion events. A nil *nats.Conn makes every
// publish a no-op, so it is safe to wire in environments without NATS.
type Publisher struct {
	nc      *nats.Conn
	logger  *slog.Logger
	errors  *metrics.Counter
	limiter *resilience.Limiter
}

func New(nc *nats.Conn, reg *metrics.Registry, logger *slog.Logger) *Publisher {
	if logger == nil {
		logger = slog.Default()
	}
	p := &Publisher{nc: nc, logger: logger, limiter: resilience.NewLimiter(publishRateOpts)}
	if reg != nil {
		p.errors = reg.Counter(metrics.WithLabels("orchestration_errors_total", "error_type", "event_publish"), "orchestration errors by type")
	}
	return p
}

// PublishRunCompleted fires formulation.runs.<status> (for example
// formulation.runs.completed or formulation.runs.failed), and never returns an
// error to the caller — it swallows and counts publish failures itself, and
// drops the event (rather than blocking the caller) when over the publish
// rate budget.
func (p *Publisher) PublishRunCompleted(ctx context.Context, evt RunEvent) {
	if p.nc == nil {
		return
	}
	subject := "formulation.runs." + evt.Status
	err := p.limiter.Call(ctx, func(ctx context.Context) error {
		return natsutil.Publish(ctx, p.nc, subject, evt)
	})
	if err != nil {
		p.logger.Warn("event publish failed", "subject", subject, "runId", evt.RunID, "err", err)
		if p.errors != nil {
			p.errors.Inc()
		}
	}
}
