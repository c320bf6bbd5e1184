package finance

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"finboard/internal/core"
)

// HistoryPeriod selects how far back net worth history reaches.
type HistoryPeriod string

const (
	Period6M  HistoryPeriod = "6M"
	Period1Y  HistoryPeriod = "1Y"
	PeriodAll HistoryPeriod = "ALL"
)

// ParseHistoryPeriod accepts 6M, 1Y or ALL in any case. Empty input means 1Y.
func ParseHistoryPeriod(s string) (HistoryPeriod, error) {
	switch p := HistoryPeriod(strings.ToUpper(strings.TrimSpace(s))); p {
	case "":
		return Period1Y, nil
	case Period6M, Period1Y, PeriodAll:
		return p, nil
	default:
		return "", fmt.Errorf("invalid history period %q: must be one of 6M, 1Y, ALL", s)
	}
}

// Since returns the earliest day included in the period, or the zero time for ALL.
func (p HistoryPeriod) Since(now time.Time) time.Time {
	switch p {
	case Period6M:
		return now.AddDate(0, -6, 0)
	case Period1Y:
		return now.AddDate(-1, 0, 0)
	default:
		return time.Time{}
	}
}

// SnapshotDay truncates t to the UTC calendar day snapshots are keyed by.
func SnapshotDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

type Trend string

const (
	TrendUp     Trend = "up"
	TrendDown   Trend = "down"
	TrendStable Trend = "stable"
)

// Performance summarizes how net worth has moved over time.
type Performance struct {
	CurrentNetWorth    decimal.Decimal
	YearlyGrowth       float64
	YearlyGrowthAmount decimal.Decimal
	MonthlyTrend       Trend
	SnapshotCount      int
}

// NetWorthPerformance compares the live net worth with the most recent
// snapshot at least a year old, and derives the short-term trend from the
// last two snapshots. Growth is only reported against a positive baseline.
func NetWorthPerformance(current decimal.Decimal, snapshots []core.NetWorthSnapshot, now time.Time) Performance {
	sorted := make([]core.NetWorthSnapshot, len(snapshots))
	copy(sorted, snapshots)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Date.Before(sorted[j].Date) })

	perf := Performance{
		CurrentNetWorth:    current,
		YearlyGrowthAmount: decimal.Zero,
		MonthlyTrend:       TrendStable,
		SnapshotCount:      len(sorted),
	}

	cutoff := now.AddDate(-1, 0, 0)
	for i := len(sorted) - 1; i >= 0; i-- {
		if sorted[i].Date.After(cutoff) {
			continue
		}
		if previous := sorted[i].NetWorth; previous.IsPositive() {
			perf.YearlyGrowthAmount = current.Sub(previous)
			perf.YearlyGrowth = percentOf(perf.YearlyGrowthAmount, previous)
		}
		break
	}

	if n := len(sorted); n >= 2 {
		switch delta := sorted[n-1].NetWorth.Sub(sorted[n-2].NetWorth); {
		case delta.IsPositive():
			perf.MonthlyTrend = TrendUp
		case delta.IsNegative():
			perf.MonthlyTrend = TrendDown
		}
	}

	return perf
}
