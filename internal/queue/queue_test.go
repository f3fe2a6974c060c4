package queue

import (
	"testing"
	"time"
)

func TestJobQueueArgsDeadLetterRouting(t *testing.T) {
	args := jobQueueArgs()

	exchange, ok := args["x-dead-letter-exchange"].(string)
	if !ok || exchange != DeadLetterExchange {
		t.Errorf("Expected x-dead-letter-exchange %q, got %v", DeadLetterExchange, args["x-dead-letter-exchange"])
	}

	routingKey, ok := args["x-dead-letter-routing-key"].(string)
	if !ok || routingKey != DeadLetterQueueName {
		t.Errorf("Expected x-dead-letter-routing-key %q, got %v", DeadLetterQueueName, args["x-dead-letter-routing-key"])
	}
}

func TestCalculateBackoffDelay(t *testing.T) {
	tests := []struct {
		retryCount int
		want       time.Duration
	}{
		{0, 1 * time.Minute},
		{1, 1 * time.Minute},
		{2, 2 * time.Minute},
		{3, 4 * time.Minute},
		{4, 8 * time.Minute},
		{5, 16 * time.Minute},
		{9, 16 * time.Minute},
	}

	for _, tt := range tests {
		if got := calculateBackoffDelay(tt.retryCount); got != tt.want {
			t.Errorf("calculateBackoffDelay(%d) = %v, want %v", tt.retryCount, got, tt.want)
		}
	}
}
