package finance

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finboard/internal/core"
)

func titles(insights []Insight) []string {
	out := make([]string, 0, len(insights))
	for _, i := range insights {
		out = append(out, i.Title)
	}
	return out
}

func TestWealthInsights(t *testing.T) {
	tests := []struct {
		name        string
		assets      []core.Asset
		liabilities []core.Liability
		expenses    string
		want        []string
	}{
		{
			name: "concentrated real estate and thin emergency fund",
			assets: []core.Asset{
				{Type: core.AssetRealEstate, Value: d("400000")},
				{Type: core.AssetCashEquivalents, Value: d("2000")},
			},
			expenses: "2000",
			want:     []string{"High Real Estate Concentration", "Emergency Fund Below Target"},
		},
		{
			name: "diversified with strong cash and expensive debt",
			assets: []core.Asset{
				{Type: core.AssetRealEstate, Value: d("20000")},
				{Type: core.AssetStocksFundsCDs, Value: d("60000")},
				{Type: core.AssetCashEquivalents, Value: d("20000")},
			},
			liabilities: []core.Liability{
				{Type: "credit card", Balance: d("4000"), InterestRate: decimal.NewNullDecimal(d("22.9"))},
				{Type: "mortgage", Balance: d("10000"), InterestRate: decimal.NewNullDecimal(d("4.5"))},
			},
			expenses: "3000",
			want:     []string{"Well-Diversified Portfolio", "Strong Emergency Fund", "High-Interest Debt Detected"},
		},
		{
			name: "positive net worth with nothing else to say",
			assets: []core.Asset{
				{Type: core.AssetRealEstate, Value: d("50000")},
				{Type: core.AssetCashEquivalents, Value: d("40000")},
			},
			expenses: "10000",
			want:     []string{"Strong Financial Foundation"},
		},
		{
			name:     "empty balance sheet",
			expenses: "0",
			want:     []string{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := WealthInsights(tt.assets, tt.liabilities, d(tt.expenses))
			assert.Equal(t, tt.want, titles(got))
		})
	}
}

func TestWealthInsights_HighInterestAmount(t *testing.T) {
	got := WealthInsights(nil, []core.Liability{
		{Type: "card", Balance: d("1234.5"), InterestRate: decimal.NewNullDecimal(d("19.99"))},
		{Type: "card", Balance: d("100"), InterestRate: decimal.NewNullDecimal(d("15"))},
	}, decimal.Zero)
	require.Len(t, got, 1)
	assert.Equal(t, InsightWarning, got[0].Kind)
	assert.Contains(t, got[0].Description, "$1234.50")
}

func TestAssetAllocation(t *testing.T) {
	slices := AssetAllocation([]core.Asset{
		{Type: core.AssetCashEquivalents, Value: d("10000")},
		{Type: core.AssetRealEstate, Value: d("60000")},
		{Type: core.AssetCashEquivalents, Value: d("10000")},
		{Type: core.AssetBusiness, Value: d("20000")},
	})
	require.Len(t, slices, 3)
	assert.Equal(t, core.AssetRealEstate, slices[0].Type)
	assert.InDelta(t, 60.0, slices[0].Percent, 1e-9)
	assert.Equal(t, core.AssetCashEquivalents, slices[1].Type)
	assert.Equal(t, 2, slices[1].Count)
	assert.True(t, slices[1].Value.Equal(d("20000")))
	assert.Equal(t, core.AssetBusiness, slices[2].Type, "ties keep display order")

	assert.Empty(t, AssetAllocation(nil))
}

func TestParseHistoryPeriod(t *testing.T) {
	p, err := ParseHistoryPeriod("")
	require.NoError(t, err)
	assert.Equal(t, Period1Y, p)

	p, err = ParseHistoryPeriod("6m")
	require.NoError(t, err)
	assert.Equal(t, Period6M, p)

	_, err = ParseHistoryPeriod("5Y")
	assert.Error(t, err)

	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2024, 12, 15, 12, 0, 0, 0, time.UTC), Period6M.Since(now))
	assert.True(t, PeriodAll.Since(now).IsZero())
}

func TestNetWorthPerformance(t *testing.T) {
	now := time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)
	snapshots := []core.NetWorthSnapshot{
		{Date: now.AddDate(0, -1, 0), NetWorth: d("118000")},
		{Date: now.AddDate(-2, 0, 0), NetWorth: d("80000")},
		{Date: now.AddDate(-1, 0, -3), NetWorth: d("100000")},
		{Date: now.AddDate(0, 0, -1), NetWorth: d("119500")},
	}

	perf := NetWorthPerformance(d("120000"), snapshots, now)
	assert.InDelta(t, 20.0, perf.YearlyGrowth, 1e-9)
	assert.True(t, perf.YearlyGrowthAmount.Equal(d("20000")))
	assert.Equal(t, TrendUp, perf.MonthlyTrend)
	assert.Equal(t, 4, perf.SnapshotCount)
}

func TestNetWorthPerformance_NoBaseline(t *testing.T) {
	now := time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)

	perf := NetWorthPerformance(d("5000"), nil, now)
	assert.Equal(t, 0.0, perf.YearlyGrowth)
	assert.Equal(t, TrendStable, perf.MonthlyTrend)

	negativeBaseline := []core.NetWorthSnapshot{
		{Date: now.AddDate(-1, -1, 0), NetWorth: d("-2000")},
		{Date: now.AddDate(0, 0, -2), NetWorth: d("6000")},
		{Date: now.AddDate(0, 0, -1), NetWorth: d("5000")},
	}
	perf = NetWorthPerformance(d("5000"), negativeBaseline, now)
	assert.Equal(t, 0.0, perf.YearlyGrowth, "growth needs a positive baseline")
	assert.Equal(t, TrendDown, perf.MonthlyTrend)
}

func TestSnapshotDay(t *testing.T) {
	loc := time.FixedZone("UTC+2", 2*60*60)
	got := SnapshotDay(time.Date(2025, 3, 1, 1, 30, 0, 0, loc))
	assert.Equal(t, time.Date(2025, 2, 28, 0, 0, 0, 0, time.UTC), got)
}

func TestFinancialRatios(t *testing.T) {
	r := FinancialRatios(
		[]core.IncomeEntry{{Source: "Salary", Amount: d("4000"), Frequency: core.FrequencyMonthly, IsActive: true}},
		[]core.ExpenseEntry{{Category: "Rent", Amount: d("1000"), Frequency: core.FrequencyMonthly, IsRecurring: true}},
		[]core.Asset{
			{Type: core.AssetCashEquivalents, Value: d("6000")},
			{Type: core.AssetStocksFundsCDs, Value: d("20000")},
		},
		[]core.Liability{{Name: "Loan", Balance: d("10000"), MinimumPayment: decimal.NewNullDecimal(d("400"))}},
	)

	assert.InDelta(t, 75.0, r.SavingsRate, 1e-9)
	assert.InDelta(t, 10.0, r.DebtToIncome, 1e-9)
	assert.InDelta(t, 6.0, r.EmergencyFundMonths, 1e-9)
	assert.True(t, r.FITarget.Equal(d("300000")), "FI target = %s", r.FITarget)
	assert.InDelta(t, 16000.0/300000*100, r.FIProgress, 1e-6)
}

func TestFinancialRatios_Empty(t *testing.T) {
	r := FinancialRatios(nil, nil, nil, nil)
	assert.Zero(t, r.SavingsRate)
	assert.Zero(t, r.DebtToIncome)
	assert.Zero(t, r.EmergencyFundMonths)
	assert.Zero(t, r.FIProgress)
	assert.True(t, r.FITarget.IsZero())
}
