// Package report computes monthly support KPIs from ticket history and
// persists snapshots so month-over-month trends survive ticket churn in
// the external system.
package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/zapdesk/zapdesk/internal/domain"
)

// MonthKey formats a month for snapshot storage, e.g. "2026-07".
const monthKeyFormat = "2006-01"

// MonthlyKPI is one month's support metrics.
type MonthlyKPI struct {
	Month          string  `json:"month"`            // e.g. "2026-07"
	Created        int     `json:"created"`          // Tickets opened this month
	Resolved       int     `json:"resolved"`         // Tickets closed this month
	ResolutionRate float64 `json:"resolution_rate"`  // Resolved / Created, 0 when nothing was created
	MTTRHours      float64 `json:"mttr_hours"`       // Mean hours from open to close, over tickets closed this month
	SLAAttainment  float64 `json:"sla_attainment"`   // Fraction of closed tickets within their priority's target
	SLAMeasured    int     `json:"sla_measured"`     // Closed tickets that had an applicable target
	Backlog        int     `json:"backlog"`          // Tickets open at month end
	GeneratedAt    string  `json:"generated_at"`     // Snapshot timestamp, RFC3339
}

// Trend compares one month's KPIs against the previous month.
type Trend struct {
	CreatedDelta   int     `json:"created_delta"`
	ResolvedDelta  int     `json:"resolved_delta"`
	BacklogDelta   int     `json:"backlog_delta"`
	MTTRDeltaHours float64 `json:"mttr_delta_hours"`
}

// MonthKey returns the snapshot key for the month containing t.
func MonthKey(t time.Time) string {
	return t.UTC().Format(monthKeyFormat)
}

// Compute derives a month's KPIs from the full ticket list. slaTargets
// maps priority to the target hours-to-resolution for that priority;
// tickets with no applicable target are excluded from SLA attainment.
func Compute(month time.Time, tickets []domain.Ticket, slaTargets map[int]int) MonthlyKPI {
	start := time.Date(month.Year(), month.Month(), 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, 0)

	k := MonthlyKPI{
		Month:       start.Format(monthKeyFormat),
		GeneratedAt: time.Now().UTC().Format(time.RFC3339),
	}

	var totalResolutionHours float64
	var withinSLA int

	for _, t := range tickets {
		if inRange(t.CreatedAt, start, end) {
			k.Created++
		}

		resolvedThisMonth := t.Resolved() && inRange(t.ClosedAt, start, end)
		if resolvedThisMonth {
			k.Resolved++

			hours := t.ClosedAt.Sub(t.CreatedAt).Hours()
			if hours < 0 {
				hours = 0
			}
			totalResolutionHours += hours

			if target, ok := slaTargets[t.Priority]; ok {
				k.SLAMeasured++
				if hours <= float64(target) {
					withinSLA++
				}
			}
		}

		// Open at month end: created before the cutoff and not yet
		// resolved by then.
		if t.CreatedAt.Before(end) && (!t.Resolved() || !t.ClosedAt.Before(end)) {
			k.Backlog++
		}
	}

	if k.Created > 0 {
		k.ResolutionRate = float64(k.Resolved) / float64(k.Created)
	}
	if k.Resolved > 0 {
		k.MTTRHours = totalResolutionHours / float64(k.Resolved)
	}
	if k.SLAMeasured > 0 {
		k.SLAAttainment = float64(withinSLA) / float64(k.SLAMeasured)
	}

	return k
}

// CompareMonths computes the trend from prev to cur.
func CompareMonths(cur, prev MonthlyKPI) Trend {
	return Trend{
		CreatedDelta:   cur.Created - prev.Created,
		ResolvedDelta:  cur.Resolved - prev.Resolved,
		BacklogDelta:   cur.Backlog - prev.Backlog,
		MTTRDeltaHours: cur.MTTRHours - prev.MTTRHours,
	}
}

// Render formats a KPI snapshot (and optional trend) for terminal output.
func Render(k MonthlyKPI, trend *Trend) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Support KPIs for %s\n", k.Month)
	fmt.Fprintf(&b, "  Tickets opened:   %d%s\n", k.Created, deltaSuffix(trend, func(t Trend) int { return t.CreatedDelta }))
	fmt.Fprintf(&b, "  Tickets resolved: %d%s\n", k.Resolved, deltaSuffix(trend, func(t Trend) int { return t.ResolvedDelta }))
	fmt.Fprintf(&b, "  Resolution rate:  %.0f%%\n", k.ResolutionRate*100)
	fmt.Fprintf(&b, "  Mean time to resolution: %.1fh", k.MTTRHours)
	if trend != nil {
		fmt.Fprintf(&b, " (%+.1fh vs previous month)", trend.MTTRDeltaHours)
	}
	b.WriteString("\n")
	if k.SLAMeasured > 0 {
		fmt.Fprintf(&b, "  SLA attainment:   %.0f%% of %d measured\n", k.SLAAttainment*100, k.SLAMeasured)
	} else {
		b.WriteString("  SLA attainment:   no measurable tickets\n")
	}
	fmt.Fprintf(&b, "  Open backlog:     %d%s\n", k.Backlog, deltaSuffix(trend, func(t Trend) int { return t.BacklogDelta }))

	return b.String()
}

func deltaSuffix(trend *Trend, pick func(Trend) int) string {
	if trend == nil {
		return ""
	}
	return fmt.Sprintf(" (%+d)", pick(*trend))
}

func inRange(t, start, end time.Time) bool {
	return !t.Before(start) && t.Before(end)
}
