//go:build integration

package containers

import (
	"context"
	"testing"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/redpanda"
)

// StartRedpanda runs a single-node Redpanda broker, Kafka API compatible, and
// returns its seed broker address.
func StartRedpanda(t *testing.T) []string {
	t.Helper()
	ctx := context.Background()

	container, err := redpanda.Run(ctx, "docker.redpanda.com/redpandadata/redpanda:v24.2.4",
		redpanda.WithAutoCreateTopics(),
	)
	testcontainers.CleanupContainer(t, container)
	if err != nil {
		t.Fatalf("start redpanda: %v", err)
	}

	broker, err := container.KafkaSeedBroker(ctx)
	if err != nil {
		t.Fatalf("redpanda seed broker: %v", err)
	}
	return []string{broker}
}
