package errors

import (
	"fmt"
	"net/http"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWrapPreservesCode(t *testing.T) {
	cause := fmt.Errorf("connection refused")
	err := Wrap(cause, ErrPersistence)

	assert.True(t, Is(err, ErrPersistence))
	assert.Equal(t, "PERSISTENCE_FAILURE", Code(err))
	assert.ErrorIs(t, err, cause)
}

func TestWrapNil(t *testing.T) {
	assert.Nil(t, Wrap(nil, ErrPersistence))
}

func TestCodeFallsBackToInternal(t *testing.T) {
	assert.Equal(t, ErrInternal.Code, Code(fmt.Errorf("plain error")))
}

func TestRetryableContract(t *testing.T) {
	tests := []struct {
		name          string
		err           *Error
		wantRetryable bool
		wantFatal     bool
	}{
		{name: "validation is fatal", err: ErrValidation, wantRetryable: false, wantFatal: true},
		{name: "not found is fatal", err: ErrNotFound, wantRetryable: false, wantFatal: true},
		{name: "persistence is retryable", err: ErrPersistence, wantRetryable: true, wantFatal: false},
		{name: "publish is retryable", err: ErrPublish, wantRetryable: true, wantFatal: false},
		{name: "forced retryable", err: ErrValidation.AsRetryable(), wantRetryable: true, wantFatal: false},
		{name: "forced fatal", err: ErrPersistence.AsFatal(), wantRetryable: false, wantFatal: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantRetryable, tt.err.IsRetryable())
			assert.Equal(t, tt.wantFatal, tt.err.IsFatal())
		})
	}
}

func TestWithDetailDoesNotMutateSentinel(t *testing.T) {
	err := ErrArchive.WithDetail("message", "bucket unavailable")

	assert.Contains(t, err.Error(), "bucket unavailable")
	assert.NotContains(t, ErrArchive.Error(), "bucket unavailable")
	assert.Empty(t, ErrArchive.Details)
}

func TestDerivedErrorsDoNotShareDetails(t *testing.T) {
	withID := ErrValidation.WithDetail("message", "id is required")
	malformed := ErrValidation.WithCause(fmt.Errorf("unexpected end of JSON input"))

	// A derived error never aliases the sentinel's map, so deriving twice
	// never bleeds one request's detail into another's message.
	assert.Empty(t, ErrValidation.Details)
	assert.Empty(t, malformed.Details)
	assert.Contains(t, withID.Error(), "id is required")
	assert.NotContains(t, malformed.Error(), "id is required")

	chained := withID.AsRetryable().WithDetail("customer_id", "cust-42")
	assert.Len(t, withID.Details, 1)
	assert.Len(t, chained.Details, 2)
}

func TestConcurrentWithDetail(t *testing.T) {
	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			err := ErrRoutingDelivery.WithDetail("message", fmt.Sprintf("target %d unreachable", n))
			assert.Contains(t, err.Error(), fmt.Sprintf("target %d", n))
		}(i)
	}
	wg.Wait()

	assert.Empty(t, ErrRoutingDelivery.Details)
}

func TestToHTTPStatus(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, ToHTTPStatus(ErrValidation))
	assert.Equal(t, http.StatusBadGateway, ToHTTPStatus(ErrPublish))
	assert.Equal(t, http.StatusInternalServerError, ToHTTPStatus(fmt.Errorf("plain")))
}

func TestToErrorResponse(t *testing.T) {
	response := ToErrorResponse(ErrPersistence.WithDetail("customer_id", "cust-42"))

	assert.Equal(t, "PERSISTENCE_FAILURE", response["error_code"])
	details, ok := response["details"].(map[string]interface{})
	assert.True(t, ok)
	assert.Equal(t, "cust-42", details["customer_id"])
}
