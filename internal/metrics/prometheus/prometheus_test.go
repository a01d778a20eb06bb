package prometheus

import (
	"net/http"
	"testing"
	"time"

	"github.com/jarcoal/httpmock"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/staketoken/airdrop/internal/metrics/metricsTypes"
	"github.com/staketoken/airdrop/internal/tests"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newClient(t *testing.T, pushGatewayUrl string) *PrometheusMetricsClient {
	client, err := NewPrometheusMetricsClient(&PrometheusMetricsConfig{
		Metrics:        metricsTypes.MetricTypes,
		PushGatewayUrl: pushGatewayUrl,
		JobName:        "airdrop",
	}, tests.GetLogger())
	require.Nil(t, err)
	return client
}

func Test_PrometheusMetricsClient(t *testing.T) {
	network := metricsTypes.MetricsLabel{Name: "network", Value: "development"}

	t.Run("Should record counters, gauges and timings", func(t *testing.T) {
		client := newClient(t, "")

		labels := []metricsTypes.MetricsLabel{network, {Name: "method", Value: "transfer"}}
		require.Nil(t, client.Incr(metricsTypes.Metric_Incr_LedgerTransaction, labels, 1))
		require.Nil(t, client.Incr(metricsTypes.Metric_Incr_LedgerTransaction, labels, 1))
		assert.Equal(t, float64(2), testutil.ToFloat64(client.counters[metricsTypes.Metric_Incr_LedgerTransaction]))

		require.Nil(t, client.Gauge(metricsTypes.Metric_Gauge_AirdropRecipients, 3, []metricsTypes.MetricsLabel{network}))
		assert.Equal(t, float64(3), testutil.ToFloat64(client.gauges[metricsTypes.Metric_Gauge_AirdropRecipients]))

		require.Nil(t, client.Timing(metricsTypes.Metric_Timing_AirdropSubmitDuration, 250*time.Millisecond, []metricsTypes.MetricsLabel{network}))
		assert.Equal(t, 1, testutil.CollectAndCount(client.histograms[metricsTypes.Metric_Timing_AirdropSubmitDuration]))
	})
	t.Run("Should ignore unknown metrics and reject unknown labels", func(t *testing.T) {
		client := newClient(t, "")

		assert.Nil(t, client.Incr("unknown", nil, 1))
		assert.NotNil(t, client.Incr(metricsTypes.Metric_Incr_AirdropRun, []metricsTypes.MetricsLabel{{Name: "color", Value: "red"}}, 1))
	})
	t.Run("Should push to the gateway on flush", func(t *testing.T) {
		httpmock.Activate()
		defer httpmock.DeactivateAndReset()

		httpmock.RegisterResponder(http.MethodPut, "=~^http://gateway:9091/metrics/job/airdrop",
			httpmock.NewStringResponder(http.StatusOK, ""))

		client := newClient(t, "http://gateway:9091")
		require.Nil(t, client.Incr(metricsTypes.Metric_Incr_AirdropRun, []metricsTypes.MetricsLabel{network}, 1))
		assert.Nil(t, client.Flush())
		assert.Equal(t, 1, httpmock.GetTotalCallCount())
	})
	t.Run("Should not push without a gateway", func(t *testing.T) {
		httpmock.Activate()
		defer httpmock.DeactivateAndReset()

		client := newClient(t, "")
		assert.Nil(t, client.Flush())
		assert.Equal(t, 0, httpmock.GetTotalCallCount())
	})
}
