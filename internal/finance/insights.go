package finance

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"finboard/internal/core"
)

type InsightKind string

const (
	InsightWarning  InsightKind = "warning"
	InsightPositive InsightKind = "positive"
)

// Insight is a short piece of advice derived from the user's balance sheet.
type Insight struct {
	Kind        InsightKind
	Title       string
	Description string
}

// Thresholds used by WealthInsights.
const (
	realEstateConcentratedPercent = 70.0
	realEstateDiversifiedPercent  = 30.0
	emergencyFundMinMonths        = 3.0
	emergencyFundStrongMonths     = 6.0
	highInterestRatePercent       = 15.0
)

var highInterestRate = decimal.NewFromFloat(highInterestRatePercent)

// WealthInsights inspects allocation, emergency savings and debt cost.
// The strong-foundation note is only given when nothing else applies.
func WealthInsights(assets []core.Asset, liabilities []core.Liability, monthlyExpenses decimal.Decimal) []Insight {
	var insights []Insight

	totalAssets := TotalAssets(assets)
	realEstate := sumAssetsOfType(assets, core.AssetRealEstate)
	realEstatePct := AllocationPercent(realEstate, totalAssets)

	switch {
	case realEstatePct > realEstateConcentratedPercent:
		insights = append(insights, Insight{
			Kind:        InsightWarning,
			Title:       "High Real Estate Concentration",
			Description: fmt.Sprintf("Real estate makes up %.1f%% of your assets. Consider diversifying into other investment types.", realEstatePct),
		})
	case realEstatePct < realEstateDiversifiedPercent && realEstate.IsPositive():
		insights = append(insights, Insight{
			Kind:        InsightPositive,
			Title:       "Well-Diversified Portfolio",
			Description: fmt.Sprintf("Good diversification with %.1f%% in real estate and other investments.", realEstatePct),
		})
	}

	if monthlyExpenses.IsPositive() {
		months := EmergencyFundMonths(sumAssetsOfType(assets, core.AssetCashEquivalents), monthlyExpenses)
		switch {
		case months < emergencyFundMinMonths:
			insights = append(insights, Insight{
				Kind:        InsightWarning,
				Title:       "Emergency Fund Below Target",
				Description: fmt.Sprintf("You have %.1f months of expenses saved. Aim for 3-6 months.", months),
			})
		case months >= emergencyFundStrongMonths:
			insights = append(insights, Insight{
				Kind:        InsightPositive,
				Title:       "Strong Emergency Fund",
				Description: fmt.Sprintf("Excellent! You have %.1f months of expenses saved.", months),
			})
		}
	}

	highInterest := decimal.Zero
	found := false
	for _, l := range liabilities {
		if l.InterestRate.Valid && l.InterestRate.Decimal.GreaterThan(highInterestRate) {
			highInterest = highInterest.Add(l.Balance)
			found = true
		}
	}
	if found {
		insights = append(insights, Insight{
			Kind:        InsightWarning,
			Title:       "High-Interest Debt Detected",
			Description: fmt.Sprintf("You have $%s in high-interest debt. Consider prioritizing payoff.", highInterest.StringFixed(2)),
		})
	}

	netWorth := NetWorth(totalAssets, TotalLiabilities(liabilities))
	if netWorth.IsPositive() && len(insights) == 0 {
		insights = append(insights, Insight{
			Kind:        InsightPositive,
			Title:       "Strong Financial Foundation",
			Description: fmt.Sprintf("Your net worth of $%s shows excellent financial progress. Keep it up!", netWorth.StringFixed(2)),
		})
	}

	return insights
}

func sumAssetsOfType(assets []core.Asset, t core.AssetType) decimal.Decimal {
	total := decimal.Zero
	for _, a := range assets {
		if a.Type == t {
			total = total.Add(a.Value)
		}
	}
	return total
}

// AllocationSlice is one asset type's share of the portfolio.
type AllocationSlice struct {
	Type    core.AssetType
	Value   decimal.Decimal
	Percent float64
	Count   int
}

// AssetAllocation groups assets by type, largest value first. Types the user
// holds nothing in are omitted.
func AssetAllocation(assets []core.Asset) []AllocationSlice {
	total := TotalAssets(assets)
	byType := make(map[core.AssetType]*AllocationSlice)
	for _, a := range assets {
		s, ok := byType[a.Type]
		if !ok {
			s = &AllocationSlice{Type: a.Type, Value: decimal.Zero}
			byType[a.Type] = s
		}
		s.Value = s.Value.Add(a.Value)
		s.Count++
	}

	slices := make([]AllocationSlice, 0, len(byType))
	for _, t := range core.AssetTypes() {
		if s, ok := byType[t]; ok {
			s.Percent = AllocationPercent(s.Value, total)
			slices = append(slices, *s)
		}
	}
	sort.SliceStable(slices, func(i, j int) bool {
		return slices[i].Value.GreaterThan(slices[j].Value)
	})
	return slices
}

// Ratios are the headline health ratios of a user's finances.
type Ratios struct {
	SavingsRate         float64
	DebtToIncome        float64
	EmergencyFundMonths float64
	// FIProgress is net worth against FITarget, the nest egg for a year of
	// current recurring expenses.
	FIProgress float64
	FITarget   decimal.Decimal
}

// FinancialRatios derives Ratios from raw records. Cash equivalents count as
// the emergency fund.
func FinancialRatios(incomes []core.IncomeEntry, expenses []core.ExpenseEntry, assets []core.Asset, liabilities []core.Liability) Ratios {
	income := TotalMonthlyIncome(incomes)
	monthlyExpenses := TotalMonthlyExpenses(expenses)
	target := NestEgg(monthlyExpenses.Mul(decimal.NewFromInt(12)))
	netWorth := NetWorth(TotalAssets(assets), TotalLiabilities(liabilities))

	return Ratios{
		SavingsRate:         SavingsRate(income, monthlyExpenses),
		DebtToIncome:        DebtToIncomeRatio(MonthlyDebtPayments(liabilities), income),
		EmergencyFundMonths: EmergencyFundMonths(sumAssetsOfType(assets, core.AssetCashEquivalents), monthlyExpenses),
		FIProgress:          FIProgress(netWorth, target),
		FITarget:            target,
	}
}
