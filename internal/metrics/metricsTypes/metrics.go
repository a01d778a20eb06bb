package metricsTypes

import "time"

type IMetricsClient interface {
	Incr(name string, labels []MetricsLabel, value float64) error
	Gauge(name string, value float64, labels []MetricsLabel) error
	Timing(name string, value time.Duration, labels []MetricsLabel) error
	Flush() error
}

type MetricsLabel struct {
	Name  string
	Value string
}

type MetricsType string

var (
	MetricsType_Incr   MetricsType = "incr"
	MetricsType_Gauge  MetricsType = "gauge"
	MetricsType_Timing MetricsType = "timing"
)

type MetricsTypeConfig struct {
	Name   string
	Labels []string
}

// Labels attached to every metric by the sink
var DefaultLabelNames = []string{"network"}

var (
	Metric_Incr_AirdropRun        = "airdropRun"
	Metric_Incr_AirdropFailed     = "airdropFailed"
	Metric_Incr_LedgerTransaction = "ledgerTransaction"

	Metric_Gauge_AirdropRecipients = "airdropRecipients"

	Metric_Timing_AirdropSubmitDuration = "airdropSubmitDuration"
)

var MetricTypes = map[MetricsType][]MetricsTypeConfig{
	MetricsType_Incr: {
		MetricsTypeConfig{
			Name:   Metric_Incr_AirdropRun,
			Labels: DefaultLabelNames,
		},
		MetricsTypeConfig{
			Name:   Metric_Incr_AirdropFailed,
			Labels: append([]string{"reason"}, DefaultLabelNames...),
		},
		MetricsTypeConfig{
			Name:   Metric_Incr_LedgerTransaction,
			Labels: append([]string{"method"}, DefaultLabelNames...),
		},
	},
	MetricsType_Gauge: {
		MetricsTypeConfig{
			Name:   Metric_Gauge_AirdropRecipients,
			Labels: DefaultLabelNames,
		},
	},
	MetricsType_Timing: {
		MetricsTypeConfig{
			Name:   Metric_Timing_AirdropSubmitDuration,
			Labels: DefaultLabelNames,
		},
	},
}
