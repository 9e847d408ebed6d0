package vitals

import (
	"errors"
	"fmt"
	"time"
)

// Metric identifies one of the three Core Web Vitals.
type Metric string

const (
	// MetricLCP is Largest Contentful Paint, in milliseconds.
	MetricLCP Metric = "LCP"

	// MetricINP is Interaction to Next Paint, in milliseconds.
	MetricINP Metric = "INP"

	// MetricCLS is Cumulative Layout Shift, unitless.
	MetricCLS Metric = "CLS"
)

// Metrics lists all supported metrics in canonical report order.
var Metrics = []Metric{MetricLCP, MetricINP, MetricCLS}

// Device is the form factor a sample was collected on.
type Device string

const (
	DeviceMobile  Device = "mobile"
	DeviceDesktop Device = "desktop"
)

// Devices lists all supported devices in canonical report order.
var Devices = []Device{DeviceMobile, DeviceDesktop}

// Tier is the quality bucket a classified value falls in.
type Tier string

const (
	TierGood Tier = "good"
	TierNI   Tier = "ni"
	TierPoor Tier = "poor"
)

// Sentinel errors returned by Classify and the parse helpers.
var (
	// ErrUnknownMetric means the metric identifier is not one of LCP/INP/CLS.
	ErrUnknownMetric = errors.New("vitals: unknown metric")

	// ErrBadValue means the p75 value is negative or NaN.
	ErrBadValue = errors.New("vitals: bad p75 value")
)

// Sample is one weekly p75 observation for a metric on one device,
// optionally attributed to a single page. Samples are transient — they
// exist only within one report run.
type Sample struct {
	Metric    Metric
	Device    Device
	WeekStart time.Time
	P75       float64

	// Page is the URL the sample was collected for, or empty for an
	// origin-level record.
	Page string
}

// ParseMetric converts a stored metric code back into a Metric.
func ParseMetric(s string) (Metric, error) {
	switch Metric(s) {
	case MetricLCP, MetricINP, MetricCLS:
		return Metric(s), nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownMetric, s)
}

// ParseDevice converts a stored device name back into a Device.
func ParseDevice(s string) (Device, error) {
	switch Device(s) {
	case DeviceMobile, DeviceDesktop:
		return Device(s), nil
	}
	return "", fmt.Errorf("vitals: unknown device %q", s)
}

// metricOrder gives the canonical sort position of each metric.
var metricOrder = map[Metric]int{MetricLCP: 0, MetricINP: 1, MetricCLS: 2}

// deviceOrder gives the canonical sort position of each device.
var deviceOrder = map[Device]int{DeviceMobile: 0, DeviceDesktop: 1}

// Less reports whether key (w1,m1,d1) sorts before (w2,m2,d2) in the
// canonical (week asc, metric, device) ordering shared by the aggregator,
// the history store and the chart input.
func Less(w1 time.Time, m1 Metric, d1 Device, w2 time.Time, m2 Metric, d2 Device) bool {
	if !w1.Equal(w2) {
		return w1.Before(w2)
	}
	if metricOrder[m1] != metricOrder[m2] {
		return metricOrder[m1] < metricOrder[m2]
	}
	return deviceOrder[d1] < deviceOrder[d2]
}
