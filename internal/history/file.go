package history

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/vitalwatch/vitalwatch/internal/vitals"
)

const dateLayout = "2006-01-02"

// header is the fixed CSV column set, in file order.
var header = []string{
	"week_start", "metric", "device",
	"good_count", "ni_count", "poor_count", "total_count",
}

// Load reads the history artifact at path. A missing file is an empty
// history, not an error.
func Load(path string) ([]vitals.Aggregate, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("history: open %s: %w", path, err)
	}
	defer f.Close()

	rows, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("history: %s: %w", path, err)
	}
	return rows, nil
}

// Save atomically rewrites the history artifact at path: the rows are
// written to a temp file in the same directory, then renamed over the
// target. On any failure the previous artifact is left untouched.
func Save(path string, rows []vitals.Aggregate) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("history: create dir %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("history: create temp file: %w", err)
	}
	defer os.Remove(tmp.Name()) // no-op after successful rename

	if err := Write(tmp, rows); err != nil {
		tmp.Close()
		return fmt.Errorf("history: write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("history: close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("history: rename into place: %w", err)
	}
	return nil
}

// Write encodes rows as CSV, header first.
func Write(w io.Writer, rows []vitals.Aggregate) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, r := range rows {
		rec := []string{
			r.WeekStart.UTC().Format(dateLayout),
			string(r.Metric),
			string(r.Device),
			strconv.Itoa(r.Good),
			strconv.Itoa(r.NI),
			strconv.Itoa(r.Poor),
			strconv.Itoa(r.Total),
		}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// Read decodes CSV history rows, validating the header, the per-row count
// invariant and key fields. A malformed artifact is an error — better to
// fail the run than to merge into garbage.
func Read(r io.Reader) ([]vitals.Aggregate, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(header)

	first, err := cr.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	for i, col := range header {
		if first[i] != col {
			return nil, fmt.Errorf("unexpected header column %d: %q (want %q)", i, first[i], col)
		}
	}

	var rows []vitals.Aggregate
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		row, err := parseRow(rec)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func parseRow(rec []string) (vitals.Aggregate, error) {
	var row vitals.Aggregate

	week, err := time.ParseInLocation(dateLayout, rec[0], time.UTC)
	if err != nil {
		return row, fmt.Errorf("week_start %q: %w", rec[0], err)
	}
	metric, err := vitals.ParseMetric(rec[1])
	if err != nil {
		return row, err
	}
	device, err := vitals.ParseDevice(rec[2])
	if err != nil {
		return row, err
	}

	counts := make([]int, 4)
	for i, col := range []string{"good_count", "ni_count", "poor_count", "total_count"} {
		n, err := strconv.Atoi(rec[3+i])
		if err != nil || n < 0 {
			return row, fmt.Errorf("%s %q: not a non-negative integer", col, rec[3+i])
		}
		counts[i] = n
	}
	if counts[0]+counts[1]+counts[2] != counts[3] {
		return row, fmt.Errorf("counts %d+%d+%d do not sum to total %d",
			counts[0], counts[1], counts[2], counts[3])
	}

	row = vitals.Aggregate{
		WeekStart: week,
		Metric:    metric,
		Device:    device,
		Good:      counts[0],
		NI:        counts[1],
		Poor:      counts[2],
		Total:     counts[3],
	}
	return row, nil
}
