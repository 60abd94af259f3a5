package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"registration/pkg/logging"
)

func observedLogger(service string) (*SugaredLogger, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.DebugLevel)
	return &SugaredLogger{
		SugaredLogger: zap.New(core).Sugar(),
		serviceName:   service,
	}, logs
}

func TestNew(t *testing.T) {
	for _, level := range []string{"debug", "info", "warn", "error", ""} {
		log, err := New(level, "registration-service")
		require.NoError(t, err)
		assert.NotNil(t, log)
	}
}

func TestInfowCtxStampsWorkflowFields(t *testing.T) {
	log, logs := observedLogger("registration-service")

	ctx := logging.WithExecutionID(context.Background(), "exec-1")
	ctx = logging.WithCorrelationID(ctx, "corr-1")
	ctx = logging.WithCustomerID(ctx, "cust-42")

	log.InfowCtx(ctx, "Workflow started", "step", "SaveRecord")

	require.Equal(t, 1, logs.Len())
	fields := logs.All()[0].ContextMap()
	assert.Equal(t, "exec-1", fields["execution_id"])
	assert.Equal(t, "corr-1", fields["correlation_id"])
	assert.Equal(t, "cust-42", fields["customer_id"])
	assert.Equal(t, "registration-service", fields["service_name"])
	assert.Equal(t, "SaveRecord", fields["step"])
}

func TestServiceNameNotStampedWithoutConfiguration(t *testing.T) {
	log, logs := observedLogger("")

	log.ErrorwCtx(context.Background(), "Request error", "error", "boom")

	require.Equal(t, 1, logs.Len())
	fields := logs.All()[0].ContextMap()
	_, ok := fields["service_name"]
	assert.False(t, ok)
}
