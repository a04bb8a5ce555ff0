// internal/common/camunda/client_test.go
package camunda

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	commonerrors "gias-workers/internal/common/errors"
)

func testClient() *Client {
	return &Client{
		config: &ClientConfig{
			GatewayAddress: "localhost:26500",
			RetryConfig: &RetryConfig{
				MaxRetries: 3,
				BaseDelay:  time.Millisecond,
				MaxDelay:   5 * time.Millisecond,
			},
		},
	}
}

func TestIsRetryableZeebeError(t *testing.T) {
	tests := []struct {
		msg       string
		retryable bool
	}{
		{"connection refused", true},
		{"context deadline exceeded", true},
		{"rpc error: code = Unavailable desc = transport closing", true},
		{"broken pipe", true},
		{"NOT_FOUND: no such process", false},
		{"invalid variables payload", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.retryable, isRetryableZeebeError(errors.New(tt.msg)), tt.msg)
	}
}

func TestExecuteWithRetry_SucceedsAfterTransientFailures(t *testing.T) {
	client := testClient()

	attempts := 0
	result, err := client.ExecuteWithRetry(context.Background(), func(ctx context.Context) (interface{}, error) {
		attempts++
		if attempts < 3 {
			return nil, errors.New("connection refused")
		}
		return "ok", nil
	}, "test-op")

	require.NoError(t, err)
	assert.Equal(t, "ok", result)
	assert.Equal(t, 3, attempts)
}

func TestExecuteWithRetry_NonRetryableFailsImmediately(t *testing.T) {
	client := testClient()

	attempts := 0
	_, err := client.ExecuteWithRetry(context.Background(), func(ctx context.Context) (interface{}, error) {
		attempts++
		return nil, errors.New("invalid variables payload")
	}, "test-op")

	require.Error(t, err)
	assert.Equal(t, 1, attempts)

	var stdErr *commonerrors.StandardError
	require.ErrorAs(t, err, &stdErr)
	assert.Equal(t, commonerrors.ErrCodeBrokerUnavailable, stdErr.Code)
}

func TestExecuteWithRetry_TimeoutMapsToBrokerTimeout(t *testing.T) {
	client := testClient()

	_, err := client.ExecuteWithRetry(context.Background(), func(ctx context.Context) (interface{}, error) {
		return nil, fmt.Errorf("rpc error: %w", context.DeadlineExceeded)
	}, "slow-op")

	require.Error(t, err)
	var stdErr *commonerrors.StandardError
	require.ErrorAs(t, err, &stdErr)
	assert.Equal(t, commonerrors.ErrCodeBrokerTimeout, stdErr.Code)
	assert.True(t, stdErr.Retryable)
}

func TestExecuteWithRetry_CancelledContextStopsRetries(t *testing.T) {
	client := testClient()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.ExecuteWithRetry(ctx, func(ctx context.Context) (interface{}, error) {
		return nil, errors.New("unavailable")
	}, "test-op")

	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}
