package notify

import (
	"fmt"
	"strings"

	"github.com/vitalwatch/vitalwatch/internal/vitals"
)

// Summary formats the weekly report message from the latest week's
// aggregates. latest must hold rows for a single week in canonical order;
// keys without a row are simply absent from the message.
//
// warnPoorPct, when positive, appends a warning marker to any line whose
// Poor share exceeds it. pageCount, when positive, is reported as the
// number of target pages queried this run.
func Summary(origin string, latest []vitals.Aggregate, pageCount int, warnPoorPct float64) string {
	var b strings.Builder
	fmt.Fprintf(&b, "*Core Web Vitals weekly report* (%s)\n", origin)
	if len(latest) > 0 {
		fmt.Fprintf(&b, "_Week of %s_\n", latest[0].WeekStart.UTC().Format("2006-01-02"))
	}
	if pageCount > 0 {
		fmt.Fprintf(&b, "_Pages tracked_: %d\n", pageCount)
	}

	if len(latest) == 0 {
		b.WriteString("No field data observed this week.")
		return b.String()
	}

	for _, d := range vitals.Devices {
		lines := deviceLines(latest, d, warnPoorPct)
		if len(lines) == 0 {
			continue
		}
		fmt.Fprintf(&b, "*%s*\n", d)
		for _, l := range lines {
			b.WriteString(l)
			b.WriteByte('\n')
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

func deviceLines(latest []vitals.Aggregate, d vitals.Device, warnPoorPct float64) []string {
	var lines []string
	for _, m := range vitals.Metrics {
		for _, a := range latest {
			if a.Metric != m || a.Device != d {
				continue
			}
			good, _ := a.TierShare(vitals.TierGood)
			ni, _ := a.TierShare(vitals.TierNI)
			poor, ok := a.TierShare(vitals.TierPoor)
			if !ok {
				// Zero total never reaches the store, but if it did the
				// line is omitted rather than reported as 0%.
				continue
			}

			line := fmt.Sprintf("- %s: Good %.1f%% | NI %.1f%% | Poor %.1f%% (%d pages)",
				m, good*100, ni*100, poor*100, a.Total)
			if warnPoorPct > 0 && poor*100 > warnPoorPct {
				line += fmt.Sprintf(" [POOR above %.0f%%]", warnPoorPct)
			}
			lines = append(lines, line)
		}
	}
	return lines
}
