package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/staketoken/airdrop/internal/metrics/metricsTypes"
	"github.com/staketoken/airdrop/internal/tests"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordedMetric struct {
	name   string
	value  float64
	labels []metricsTypes.MetricsLabel
}

type recordingClient struct {
	metrics  []recordedMetric
	flushErr error
	flushed  int
}

func (c *recordingClient) Incr(name string, labels []metricsTypes.MetricsLabel, value float64) error {
	c.metrics = append(c.metrics, recordedMetric{name: name, value: value, labels: labels})
	return nil
}

func (c *recordingClient) Gauge(name string, value float64, labels []metricsTypes.MetricsLabel) error {
	c.metrics = append(c.metrics, recordedMetric{name: name, value: value, labels: labels})
	return nil
}

func (c *recordingClient) Timing(name string, value time.Duration, labels []metricsTypes.MetricsLabel) error {
	c.metrics = append(c.metrics, recordedMetric{name: name, value: float64(value.Milliseconds()), labels: labels})
	return nil
}

func (c *recordingClient) Flush() error {
	c.flushed++
	return c.flushErr
}

func Test_MetricsSink(t *testing.T) {
	network := metricsTypes.MetricsLabel{Name: "network", Value: "rinkeby"}

	t.Run("Should fan out to every client with the default labels", func(t *testing.T) {
		first := &recordingClient{}
		second := &recordingClient{}
		sink, err := NewMetricsSink(&MetricsSinkConfig{
			DefaultLabels: []metricsTypes.MetricsLabel{network},
		}, []metricsTypes.IMetricsClient{first, second})
		require.Nil(t, err)

		reason := metricsTypes.MetricsLabel{Name: "reason", Value: "no_recipients"}
		require.Nil(t, sink.Incr(metricsTypes.Metric_Incr_AirdropFailed, []metricsTypes.MetricsLabel{reason}, 1))
		require.Nil(t, sink.Gauge(metricsTypes.Metric_Gauge_AirdropRecipients, 4, nil))
		require.Nil(t, sink.Timing(metricsTypes.Metric_Timing_AirdropSubmitDuration, 2*time.Second, nil))

		for _, c := range []*recordingClient{first, second} {
			require.Len(t, c.metrics, 3)
			assert.Equal(t, []metricsTypes.MetricsLabel{network, reason}, c.metrics[0].labels)
			assert.Equal(t, []metricsTypes.MetricsLabel{network}, c.metrics[1].labels)
			assert.Equal(t, float64(4), c.metrics[1].value)
			assert.Equal(t, float64(2000), c.metrics[2].value)
		}
	})
	t.Run("Should flush every client and return the first error", func(t *testing.T) {
		failing := &recordingClient{flushErr: errors.New("push failed")}
		ok := &recordingClient{}
		sink, err := NewMetricsSink(&MetricsSinkConfig{}, []metricsTypes.IMetricsClient{failing, ok})
		require.Nil(t, err)

		assert.EqualError(t, sink.Flush(), "push failed")
		assert.Equal(t, 1, failing.flushed)
		assert.Equal(t, 1, ok.flushed)
	})
	t.Run("Should build clients from the config", func(t *testing.T) {
		cfg := tests.GetConfig()
		cfg.PrometheusConfig.Enabled = true
		cfg.PrometheusConfig.JobName = "airdrop"

		clients, err := InitMetricsSinksFromConfig(cfg, tests.GetLogger())
		require.Nil(t, err)
		assert.Len(t, clients, 1)
	})
	t.Run("Should accept calls without clients", func(t *testing.T) {
		sink := NewNoopMetricsSink()
		assert.Nil(t, sink.Incr(metricsTypes.Metric_Incr_AirdropRun, nil, 1))
		assert.Nil(t, sink.Flush())
	})
}
