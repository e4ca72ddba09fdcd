package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSetup_NoopWhenDisabled(t *testing.T) {
	shutdown, err := Setup(context.Background(), Config{
		Enabled:     false,
		Endpoint:    "http://localhost:4318",
		ServiceName: "eatmeetclub-test",
	})
	require.NoError(t, err)
	require.NoError(t, shutdown(context.Background()))
}

func TestSetup_NoopWhenEndpointEmpty(t *testing.T) {
	shutdown, err := Setup(context.Background(), Config{Enabled: true, ServiceName: "eatmeetclub-test"})
	require.NoError(t, err)
	require.NoError(t, shutdown(context.Background()))
}

func TestSetup_CreatesProviderWhenEnabled(t *testing.T) {
	// Non-routable address: nothing is exported because no spans are recorded.
	shutdown, err := Setup(context.Background(), Config{
		Enabled:     true,
		Endpoint:    "http://192.0.2.1:4318",
		ServiceName: "eatmeetclub-test",
		Environment: "test",
	})
	require.NoError(t, err)
	require.NoError(t, shutdown(context.Background()))
}
