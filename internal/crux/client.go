package crux

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/vitalwatch/vitalwatch/internal/vitals"
)

// DefaultEndpoint is the production CrUX API base URL.
const DefaultEndpoint = "https://chromeuxreport.googleapis.com/v1"

const defaultTimeout = 30 * time.Second

// metricNames maps CrUX metric identifiers to our metric codes. The
// experimental INP name still appears in history responses for older
// collection periods.
var metricNames = map[string]vitals.Metric{
	"largest_contentful_paint":               vitals.MetricLCP,
	"interaction_to_next_paint":              vitals.MetricINP,
	"experimental_interaction_to_next_paint": vitals.MetricINP,
	"cumulative_layout_shift":                vitals.MetricCLS,
}

// requestMetrics is what we ask the API for, in request order.
var requestMetrics = []string{
	"largest_contentful_paint",
	"interaction_to_next_paint",
	"cumulative_layout_shift",
}

// formFactors maps our device names to CrUX form factor identifiers.
var formFactors = map[vitals.Device]string{
	vitals.DeviceMobile:  "PHONE",
	vitals.DeviceDesktop: "DESKTOP",
}

// Target is the subject of one history query: exactly one of Origin or
// URL must be set. An origin-level query aggregates over the whole site;
// a URL query covers a single page.
type Target struct {
	Origin string
	URL    string
}

func (t Target) String() string {
	if t.URL != "" {
		return t.URL
	}
	return t.Origin
}

// Client queries the CrUX history API. The zero value is not usable;
// construct with New.
type Client struct {
	endpoint string
	key      string
	client   *http.Client
}

// New returns a Client for the given API base URL and key. A zero timeout
// uses the default of 30 seconds.
func New(endpoint, apiKey string, timeout time.Duration) *Client {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		endpoint: endpoint,
		key:      apiKey,
		client:   &http.Client{Timeout: timeout},
	}
}

// historyRequest is the queryHistoryRecord request body.
type historyRequest struct {
	Origin     string   `json:"origin,omitempty"`
	URL        string   `json:"url,omitempty"`
	FormFactor string   `json:"formFactor"`
	Metrics    []string `json:"metrics"`
}

// apiDate is the year/month/day triple CrUX uses for collection periods.
type apiDate struct {
	Year  int `json:"year"`
	Month int `json:"month"`
	Day   int `json:"day"`
}

func (d apiDate) time() time.Time {
	return time.Date(d.Year, time.Month(d.Month), d.Day, 0, 0, 0, 0, time.UTC)
}

// historyResponse is the subset of the queryHistoryRecord response we
// consume.
type historyResponse struct {
	Record struct {
		Metrics map[string]struct {
			PercentilesTimeseries struct {
				P75s []p75Value `json:"p75s"`
			} `json:"percentilesTimeseries"`
		} `json:"metrics"`
		CollectionPeriods []struct {
			FirstDate apiDate `json:"firstDate"`
			LastDate  apiDate `json:"lastDate"`
		} `json:"collectionPeriods"`
	} `json:"record"`
}

// p75Value handles the API's mixed encoding: millisecond metrics arrive as
// JSON strings ("1833"), CLS as a string score ("0.05"), and weeks without
// enough data as null.
type p75Value struct {
	val float64
	ok  bool
}

func (p *p75Value) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		return nil
	}
	if len(b) >= 2 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		b = []byte(s)
	}
	v, err := strconv.ParseFloat(string(b), 64)
	if err != nil {
		return fmt.Errorf("p75 %q: %w", b, err)
	}
	p.val = v
	p.ok = true
	return nil
}

// FetchHistory queries the weekly p75 history for one target and device
// and returns one Sample per (metric, week) that has data.
//
// A target with no field data (HTTP 404) returns an empty slice and no
// error. Any other non-200 status, connectivity failure or undecodable
// body is an error.
func (c *Client) FetchHistory(ctx context.Context, target Target, device vitals.Device) ([]vitals.Sample, error) {
	ff, ok := formFactors[device]
	if !ok {
		return nil, fmt.Errorf("crux: unsupported device %q", device)
	}

	reqBody := historyRequest{
		Origin:     target.Origin,
		URL:        target.URL,
		FormFactor: ff,
		Metrics:    requestMetrics,
	}
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("crux: encode request: %w", err)
	}

	url := c.endpoint + "/records:queryHistoryRecord?key=" + c.key
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("crux: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("crux: query %s (%s): %w", target, device, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		// No field data for this target — zero samples, by contract.
		slog.Debug("crux: no field data", "target", target.String(), "device", device)
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("crux: query %s (%s): unexpected status %d: %s",
			target, device, resp.StatusCode, bytes.TrimSpace(body))
	}

	var hr historyResponse
	if err := json.NewDecoder(resp.Body).Decode(&hr); err != nil {
		return nil, fmt.Errorf("crux: decode response for %s (%s): %w", target, device, err)
	}
	return flatten(&hr, target, device)
}

// flatten converts a decoded history response into samples, aligning each
// metric's p75 series with the shared collection periods.
func flatten(hr *historyResponse, target Target, device vitals.Device) ([]vitals.Sample, error) {
	periods := hr.Record.CollectionPeriods

	var samples []vitals.Sample
	for name, data := range hr.Record.Metrics {
		metric, ok := metricNames[name]
		if !ok {
			// The API may grow new metrics; ignore the ones we don't track.
			continue
		}
		if name == "experimental_interaction_to_next_paint" {
			// Old responses carry both INP names for the same periods;
			// counting both would double every INP week.
			if _, dup := hr.Record.Metrics["interaction_to_next_paint"]; dup {
				continue
			}
		}
		p75s := data.PercentilesTimeseries.P75s
		if len(p75s) > len(periods) {
			return nil, fmt.Errorf("crux: %s: %d p75 values for %d collection periods",
				name, len(p75s), len(periods))
		}
		for i, p := range p75s {
			if !p.ok {
				continue
			}
			samples = append(samples, vitals.Sample{
				Metric:    metric,
				Device:    device,
				WeekStart: periods[i].FirstDate.time(),
				P75:       p.val,
				Page:      target.URL,
			})
		}
	}
	return samples, nil
}
