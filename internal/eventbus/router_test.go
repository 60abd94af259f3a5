package eventbus

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"registration/internal/constants"
	"registration/internal/logger"
	"registration/internal/queue"
	"registration/pkg/models"
)

func registrationEvent(correlationID string) models.DomainEvent {
	return models.DomainEvent{
		Source:     constants.EventSourceCustomerCreated,
		DetailType: constants.EventDetailTypeRegistration,
		Metadata: models.EventMetadata{
			CorrelationID: correlationID,
			CausationID:   "exec-1",
			Timestamp:     time.Now(),
		},
		Data: []byte(`{"id":"c1","name":"Acme"}`),
	}
}

func newProvisioningQueue(t *testing.T) *queue.InMemoryQueue {
	t.Helper()
	return queue.New(constants.ProvisioningQueue, queue.Config{
		MaxReceiveCount:   constants.DefaultMaxReceiveCount,
		VisibilityTimeout: time.Minute,
	}, logger.NopLogger())
}

// failingEnqueuer rejects every enqueue.
type failingEnqueuer struct {
	calls int
	mu    sync.Mutex
}

func (f *failingEnqueuer) Enqueue(ctx context.Context, event models.DomainEvent) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return "", fmt.Errorf("queue unavailable")
}

func TestChainedRoutingDeliversExactlyOnce(t *testing.T) {
	q := newProvisioningQueue(t)

	router := NewRouter(logger.NopLogger())
	router.RegisterQueue(constants.ProvisioningQueue, q)
	for _, rule := range DefaultRules() {
		router.Subscribe(rule)
	}

	results := router.Route(context.Background(), constants.CompanyBus, registrationEvent("corr-chain"))

	// Two hops: one bus delivery, one queue delivery.
	require.Len(t, results, 2)
	for _, res := range results {
		assert.NoError(t, res.Err)
	}
	assert.Equal(t, 1, q.Len())

	msg, err := q.Dequeue(context.Background())
	require.NoError(t, err)
	require.NotNil(t, msg)
	assert.Equal(t, "corr-chain", msg.Event.Metadata.CorrelationID)
	assert.JSONEq(t, `{"id":"c1","name":"Acme"}`, string(msg.Event.Data))
}

func TestNonMatchingEventIsDropped(t *testing.T) {
	tests := []struct {
		name  string
		bus   string
		event models.DomainEvent
	}{
		{
			name: "wrong source",
			bus:  constants.CompanyBus,
			event: models.DomainEvent{
				Source:     "OrderCreated",
				DetailType: constants.EventDetailTypeRegistration,
			},
		},
		{
			name: "wrong detail type",
			bus:  constants.CompanyBus,
			event: models.DomainEvent{
				Source:     constants.EventSourceCustomerCreated,
				DetailType: "Billing.InvoiceService",
			},
		},
		{
			name:  "unknown bus",
			bus:   "audit-bus",
			event: registrationEvent("corr-x"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := newProvisioningQueue(t)
			router := NewRouter(logger.NopLogger())
			router.RegisterQueue(constants.ProvisioningQueue, q)
			for _, rule := range DefaultRules() {
				router.Subscribe(rule)
			}

			results := router.Route(context.Background(), tt.bus, tt.event)

			assert.Empty(t, results)
			assert.Equal(t, 0, q.Len())
		})
	}
}

func TestMultipleMatchingRulesFanOutToUnion(t *testing.T) {
	primary := newProvisioningQueue(t)
	audit := queue.New("audit", queue.Config{MaxReceiveCount: 3, VisibilityTimeout: time.Minute}, logger.NopLogger())

	router := NewRouter(logger.NopLogger())
	router.RegisterQueue(constants.ProvisioningQueue, primary)
	router.RegisterQueue("audit", audit)
	router.Subscribe(Rule{
		ListenBus:  constants.LocalBus,
		Source:     constants.EventSourceCustomerCreated,
		DetailType: constants.EventDetailTypeRegistration,
		Targets:    []Target{{Type: TargetQueue, Name: constants.ProvisioningQueue}},
	})
	router.Subscribe(Rule{
		ListenBus:  constants.LocalBus,
		Source:     constants.EventSourceCustomerCreated,
		DetailType: constants.EventDetailTypeRegistration,
		Targets:    []Target{{Type: TargetQueue, Name: "audit"}},
	})

	results := router.Route(context.Background(), constants.LocalBus, registrationEvent("corr-union"))

	require.Len(t, results, 2)
	assert.Equal(t, 1, primary.Len())
	assert.Equal(t, 1, audit.Len())
}

func TestDeliveryFailureDoesNotFailPublish(t *testing.T) {
	healthy := newProvisioningQueue(t)
	broken := &failingEnqueuer{}

	router := NewRouter(logger.NopLogger())
	router.RegisterQueue(constants.ProvisioningQueue, healthy)
	router.RegisterQueue("broken", broken)
	router.Subscribe(Rule{
		ListenBus:  constants.LocalBus,
		Source:     constants.EventSourceCustomerCreated,
		DetailType: constants.EventDetailTypeRegistration,
		Targets: []Target{
			{Type: TargetQueue, Name: "broken"},
			{Type: TargetQueue, Name: constants.ProvisioningQueue},
		},
	})

	bus := NewBus(router, logger.NopLogger())

	err := bus.Publish(context.Background(), constants.LocalBus, registrationEvent("corr-partial"))

	// Publish never propagates fan-out failures.
	require.NoError(t, err)
	assert.Equal(t, 1, broken.calls)
	assert.Equal(t, 1, healthy.Len())
}

func TestMatchTargetsCountsRulesNotTargets(t *testing.T) {
	router := NewRouter(logger.NopLogger())
	router.Subscribe(Rule{
		ListenBus:  constants.LocalBus,
		Source:     constants.EventSourceCustomerCreated,
		DetailType: constants.EventDetailTypeRegistration,
		Targets: []Target{
			{Type: TargetQueue, Name: "provisioning"},
			{Type: TargetQueue, Name: "audit"},
		},
	})
	router.Subscribe(Rule{
		ListenBus:  constants.LocalBus,
		Source:     constants.EventSourceCustomerCreated,
		DetailType: constants.EventDetailTypeRegistration,
		Targets: []Target{
			{Type: TargetBus, Name: "billing-bus"},
			{Type: TargetQueue, Name: "billing"},
		},
	})

	targets, matched := router.matchTargets(constants.LocalBus, registrationEvent("corr-count"))

	assert.Equal(t, 2, matched)
	assert.Len(t, targets, 4)

	targets, matched = router.matchTargets("other-bus", registrationEvent("corr-count"))
	assert.Zero(t, matched)
	assert.Empty(t, targets)
}

func TestUnknownQueueTargetReportsError(t *testing.T) {
	router := NewRouter(logger.NopLogger())
	router.Subscribe(Rule{
		ListenBus:  constants.LocalBus,
		Source:     constants.EventSourceCustomerCreated,
		DetailType: constants.EventDetailTypeRegistration,
		Targets:    []Target{{Type: TargetQueue, Name: "missing"}},
	})

	results := router.Route(context.Background(), constants.LocalBus, registrationEvent("corr-missing"))

	require.Len(t, results, 1)
	assert.Error(t, results[0].Err)
}

func TestSelfLoopStopsAtHopLimit(t *testing.T) {
	router := NewRouter(logger.NopLogger())
	router.Subscribe(Rule{
		ListenBus:  constants.LocalBus,
		Source:     constants.EventSourceCustomerCreated,
		DetailType: constants.EventDetailTypeRegistration,
		Targets:    []Target{{Type: TargetBus, Name: constants.LocalBus}},
	})

	done := make(chan []DeliveryResult, 1)
	go func() {
		done <- router.Route(context.Background(), constants.LocalBus, registrationEvent("corr-loop"))
	}()

	select {
	case results := <-done:
		// One bus-hop result per traversed hop, bounded by the hop limit.
		assert.LessOrEqual(t, len(results), constants.DefaultMaxRouteHops)
	case <-time.After(2 * time.Second):
		t.Fatal("routing did not terminate")
	}
}

func TestConcurrentPublishesAllDelivered(t *testing.T) {
	const publishes = 50

	q := newProvisioningQueue(t)
	router := NewRouter(logger.NopLogger())
	router.RegisterQueue(constants.ProvisioningQueue, q)
	for _, rule := range DefaultRules() {
		router.Subscribe(rule)
	}
	bus := NewBus(router, logger.NopLogger())

	var wg sync.WaitGroup
	for i := 0; i < publishes; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			event := registrationEvent(fmt.Sprintf("corr-%d", n))
			assert.NoError(t, bus.Publish(context.Background(), constants.CompanyBus, event))
		}(i)
	}
	wg.Wait()

	assert.Equal(t, publishes, q.Len())
}

func TestRulesFromConfigFallsBackToDefaults(t *testing.T) {
	rules := DefaultRules()

	require.Len(t, rules, 2)
	assert.Equal(t, constants.CompanyBus, rules[0].ListenBus)
	assert.Equal(t, TargetBus, rules[0].Targets[0].Type)
	assert.Equal(t, constants.LocalBus, rules[1].ListenBus)
	assert.Equal(t, TargetQueue, rules[1].Targets[0].Type)
	assert.Equal(t, constants.ProvisioningQueue, rules[1].Targets[0].Name)
}
