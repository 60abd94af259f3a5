package eventbus

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"registration/internal/constants"
	"registration/internal/logger"
	"registration/pkg/errors"
	"registration/pkg/metrics"
	"registration/pkg/models"
)

type TargetType string

const (
	TargetBus   TargetType = "bus"
	TargetQueue TargetType = "queue"
)

type Target struct {
	Type TargetType
	Name string
}

// Rule forwards events arriving on ListenBus whose source and detail type
// match exactly. No wildcards, no priority between rules; an event matching
// several rules is forwarded to the union of their targets.
type Rule struct {
	ListenBus  string
	Source     string
	DetailType string
	Targets    []Target
}

func (r Rule) matches(busID string, event models.DomainEvent) bool {
	return r.ListenBus == busID &&
		r.Source == event.Source &&
		r.DetailType == event.DetailType
}

type DeliveryResult struct {
	Target Target
	Err    error
}

// Enqueuer is the slice of the queue contract the router needs.
type Enqueuer interface {
	Enqueue(ctx context.Context, event models.DomainEvent) (string, error)
}

// Router evaluates the static rule table on every routed event and forwards
// matches to their targets concurrently. A target failure is reported in the
// result list but never fails the publish that triggered routing.
type Router struct {
	mu      sync.RWMutex
	rules   []Rule
	queues  map[string]Enqueuer
	maxHops int
	log     logger.Logger
}

func NewRouter(log logger.Logger) *Router {
	return &Router{
		rules:   make([]Rule, 0),
		queues:  make(map[string]Enqueuer),
		maxHops: constants.DefaultMaxRouteHops,
		log:     log,
	}
}

// Subscribe registers a rule. Configuration-time only; rules are immutable
// at routing time.
func (r *Router) Subscribe(rule Rule) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rules = append(r.rules, rule)
}

// RegisterQueue binds a queue target name to its enqueuer.
func (r *Router) RegisterQueue(name string, q Enqueuer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.queues[name] = q
}

func (r *Router) Rules() []Rule {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rules := make([]Rule, len(r.rules))
	copy(rules, r.rules)
	return rules
}

// Route fans the event out to every target of every matching rule. All
// deliveries are attempted; the returned slice contains one result per
// attempted delivery, including deliveries triggered by chained bus hops.
func (r *Router) Route(ctx context.Context, busID string, event models.DomainEvent) []DeliveryResult {
	return r.route(ctx, busID, event, 0)
}

func (r *Router) route(ctx context.Context, busID string, event models.DomainEvent, depth int) []DeliveryResult {
	if depth >= r.maxHops {
		r.log.WarnwCtx(ctx, "Routing hop limit reached, dropping event",
			"bus", busID,
			"correlation_id", event.Metadata.CorrelationID,
		)
		return nil
	}

	targets, matched := r.matchTargets(busID, event)

	metrics.ObserveRouterMatchedRules(busID, matched)
	if len(targets) == 0 {
		return nil
	}

	// One concurrent delivery per target, one result slot per target. No
	// shared accumulator; nested hop results are flattened after the join.
	results := make([][]DeliveryResult, len(targets))
	g, gCtx := errgroup.WithContext(ctx)
	for i, target := range targets {
		g.Go(func() error {
			results[i] = r.deliver(gCtx, target, event, depth)
			return nil
		})
	}
	_ = g.Wait()

	flat := make([]DeliveryResult, 0, len(targets))
	for _, rs := range results {
		flat = append(flat, rs...)
	}
	return flat
}

func (r *Router) deliver(ctx context.Context, target Target, event models.DomainEvent, depth int) (out []DeliveryResult) {
	defer func() {
		if rec := recover(); rec != nil {
			err := errors.RecoverPanic(rec)
			r.log.ErrorwCtx(ctx, "Delivery target panicked",
				"target", target.Name,
				"error", err,
			)
			out = append(out, DeliveryResult{Target: target, Err: err})
		}
	}()

	switch target.Type {
	case TargetBus:
		nested := r.route(ctx, target.Name, event, depth+1)
		out = append(out, DeliveryResult{Target: target})
		out = append(out, nested...)
		metrics.IncRouterDelivery(target.Name, string(TargetBus), "delivered")
		return out

	case TargetQueue:
		result := DeliveryResult{Target: target}
		q, ok := r.lookupQueue(target.Name)
		if !ok {
			result.Err = errors.ErrRoutingDelivery.WithDetail("message", fmt.Sprintf("unknown queue target %q", target.Name))
		} else if _, err := q.Enqueue(ctx, event); err != nil {
			result.Err = errors.Wrap(err, errors.ErrRoutingDelivery)
		}

		status := "delivered"
		if result.Err != nil {
			status = "failed"
			r.log.ErrorwCtx(ctx, "Queue delivery failed",
				"queue", target.Name,
				"error", result.Err,
				"correlation_id", event.Metadata.CorrelationID,
			)
		}
		metrics.IncRouterDelivery(target.Name, string(TargetQueue), status)
		return append(out, result)

	default:
		return append(out, DeliveryResult{
			Target: target,
			Err:    errors.ErrRoutingDelivery.WithDetail("message", fmt.Sprintf("unknown target type %q", target.Type)),
		})
	}
}

// matchTargets returns the union of targets across matching rules along with
// the number of rules that matched.
func (r *Router) matchTargets(busID string, event models.DomainEvent) ([]Target, int) {
	var targets []Target
	matched := 0
	for _, rule := range r.Rules() {
		if rule.matches(busID, event) {
			matched++
			targets = append(targets, rule.Targets...)
		}
	}
	return targets, matched
}

func (r *Router) lookupQueue(name string) (Enqueuer, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	q, ok := r.queues[name]
	return q, ok
}
