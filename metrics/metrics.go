// Package metrics exposes the audio core's admit/decode/resend counters as
// Prometheus metrics, gathered at scrape time from in-process atomics
// rather than a queried backend.
package metrics

import (
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Counters holds the atomic tallies a session's receive loops update as
// they run. The zero value is ready to use.
type Counters struct {
	Admitted             atomic.Uint64
	Duplicate            atomic.Uint64
	Old                  atomic.Uint64
	Rejected             atomic.Uint64
	DecodeErrors         atomic.Uint64
	SilenceSubstitutions atomic.Uint64
	ResendsSent          atomic.Uint64
	ResendsFailed        atomic.Uint64
}

// FormatProvider reports the codec format a session selected, once known.
// Optional: a nil FormatProvider simply omits the gauge from a scrape.
type FormatProvider interface {
	SelectedFormat() string
}

// Collector is a prometheus.Collector over one session's Counters.
type Collector struct {
	counters  *Counters
	format    FormatProvider
	startTime time.Time

	admittedDesc     *prometheus.Desc
	duplicateDesc    *prometheus.Desc
	oldDesc          *prometheus.Desc
	rejectedDesc     *prometheus.Desc
	decodeErrDesc    *prometheus.Desc
	silenceDesc      *prometheus.Desc
	resendSentDesc   *prometheus.Desc
	resendFailedDesc *prometheus.Desc
	formatDesc       *prometheus.Desc
	uptimeDesc       *prometheus.Desc
}

// NewCollector creates a Collector over counters. format may be nil.
func NewCollector(counters *Counters, format FormatProvider, startTime time.Time) *Collector {
	return &Collector{
		counters:  counters,
		format:    format,
		startTime: startTime,

		admittedDesc: prometheus.NewDesc(
			"raop_buffer_admitted_total", "Packets admitted into the dejitter buffer", nil, nil),
		duplicateDesc: prometheus.NewDesc(
			"raop_buffer_duplicate_total", "Packets rejected as duplicates", nil, nil),
		oldDesc: prometheus.NewDesc(
			"raop_buffer_old_total", "Packets rejected as preceding the current window", nil, nil),
		rejectedDesc: prometheus.NewDesc(
			"raop_buffer_rejected_total", "Packets rejected for not fitting a slot", nil, nil),
		decodeErrDesc: prometheus.NewDesc(
			"raop_decode_errors_total", "Decode failures substituted with silence", nil, nil),
		silenceDesc: prometheus.NewDesc(
			"raop_silence_substitutions_total", "Frames admitted as silence after a decode error", nil, nil),
		resendSentDesc: prometheus.NewDesc(
			"raop_resend_sent_total", "Retransmission requests sent on the control socket", nil, nil),
		resendFailedDesc: prometheus.NewDesc(
			"raop_resend_failed_total", "Retransmission requests that failed to send", nil, nil),
		formatDesc: prometheus.NewDesc(
			"raop_codec_selected", "Codec format selected for the session (1=selected)", []string{"format"}, nil),
		uptimeDesc: prometheus.NewDesc(
			"raop_session_uptime_seconds", "Seconds since the session core started", nil, nil),
	}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.admittedDesc
	ch <- c.duplicateDesc
	ch <- c.oldDesc
	ch <- c.rejectedDesc
	ch <- c.decodeErrDesc
	ch <- c.silenceDesc
	ch <- c.resendSentDesc
	ch <- c.resendFailedDesc
	ch <- c.formatDesc
	ch <- c.uptimeDesc
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	ch <- prometheus.MustNewConstMetric(c.admittedDesc, prometheus.CounterValue, float64(c.counters.Admitted.Load()))
	ch <- prometheus.MustNewConstMetric(c.duplicateDesc, prometheus.CounterValue, float64(c.counters.Duplicate.Load()))
	ch <- prometheus.MustNewConstMetric(c.oldDesc, prometheus.CounterValue, float64(c.counters.Old.Load()))
	ch <- prometheus.MustNewConstMetric(c.rejectedDesc, prometheus.CounterValue, float64(c.counters.Rejected.Load()))
	ch <- prometheus.MustNewConstMetric(
		c.decodeErrDesc, prometheus.CounterValue, float64(c.counters.DecodeErrors.Load()))
	ch <- prometheus.MustNewConstMetric(
		c.silenceDesc, prometheus.CounterValue, float64(c.counters.SilenceSubstitutions.Load()))
	ch <- prometheus.MustNewConstMetric(
		c.resendSentDesc, prometheus.CounterValue, float64(c.counters.ResendsSent.Load()))
	ch <- prometheus.MustNewConstMetric(
		c.resendFailedDesc, prometheus.CounterValue, float64(c.counters.ResendsFailed.Load()))

	if c.format != nil {
		if f := c.format.SelectedFormat(); f != "" {
			ch <- prometheus.MustNewConstMetric(c.formatDesc, prometheus.GaugeValue, 1, f)
		}
	}

	ch <- prometheus.MustNewConstMetric(c.uptimeDesc, prometheus.GaugeValue, time.Since(c.startTime).Seconds())
}
