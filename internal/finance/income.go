// Package finance derives financial metrics from raw income, expense, asset
// and liability records. Every function is pure; degenerate divisors yield
// zero rather than an error or NaN.
package finance

import (
	"strings"

	"github.com/shopspring/decimal"

	"finboard/internal/core"
)

var (
	weeksPerMonth    = decimal.RequireFromString("4.33")
	biWeeksPerMonth  = decimal.RequireFromString("2.17")
	monthsPerQuarter = decimal.NewFromInt(3)
	monthsPerYear    = decimal.NewFromInt(12)
	hundred          = decimal.NewFromInt(100)
)

// MonthlyAmount normalizes an amount to its monthly equivalent using average
// weeks per month. Unknown frequencies are treated as monthly.
func MonthlyAmount(amount decimal.Decimal, frequency core.Frequency) decimal.Decimal {
	switch frequency {
	case core.FrequencyWeekly:
		return amount.Mul(weeksPerMonth)
	case core.FrequencyBiWeekly:
		return amount.Mul(biWeeksPerMonth)
	case core.FrequencyQuarterly:
		return amount.Div(monthsPerQuarter)
	case core.FrequencyYearly:
		return amount.Div(monthsPerYear)
	default:
		return amount
	}
}

// TotalMonthlyIncome sums the monthly equivalent of active incomes.
func TotalMonthlyIncome(incomes []core.IncomeEntry) decimal.Decimal {
	total := decimal.Zero
	for _, in := range incomes {
		if in.IsActive {
			total = total.Add(MonthlyAmount(in.Amount, in.Frequency))
		}
	}
	return total
}

// TotalMonthlyExpenses sums the monthly equivalent of recurring expenses.
func TotalMonthlyExpenses(expenses []core.ExpenseEntry) decimal.Decimal {
	total := decimal.Zero
	for _, ex := range expenses {
		if ex.IsRecurring {
			total = total.Add(MonthlyAmount(ex.Amount, ex.Frequency))
		}
	}
	return total
}

// IncomeClass is the passive/active bucket an income source falls into.
type IncomeClass string

const (
	ClassPassive IncomeClass = "passive"
	ClassActive  IncomeClass = "active"
	ClassNeither IncomeClass = "neither"
)

// Quadrant is the cash flow quadrant an income source belongs to.
type Quadrant string

const (
	QuadrantEmployee     Quadrant = "EMPLOYEE"
	QuadrantSelfEmployed Quadrant = "SELF_EMPLOYED"
	QuadrantBusiness     Quadrant = "BUSINESS"
	QuadrantInvestor     Quadrant = "INVESTOR"
	QuadrantUnclassified Quadrant = "UNCLASSIFIED"
)

// Class maps a quadrant onto the passive/active split.
func (q Quadrant) Class() IncomeClass {
	switch q {
	case QuadrantBusiness, QuadrantInvestor:
		return ClassPassive
	case QuadrantEmployee, QuadrantSelfEmployed:
		return ClassActive
	default:
		return ClassNeither
	}
}

type classificationRule struct {
	quadrant Quadrant
	keywords []string
}

// classificationRules are evaluated in order and the first match wins, so
// passive quadrants take priority over active ones for a source like
// "consulting dividend".
var classificationRules = []classificationRule{
	{QuadrantBusiness, []string{"business profit"}},
	{QuadrantInvestor, []string{"dividend", "interest", "rental", "investment", "capital gains", "real estate"}},
	{QuadrantEmployee, []string{"salary", "wage", "job", "employment"}},
	{QuadrantSelfEmployed, []string{"freelance", "consulting", "contract"}},
}

// ClassifyQuadrant matches the source against the ordered keyword rules,
// case-insensitively and by substring.
func ClassifyQuadrant(source string) Quadrant {
	s := strings.ToLower(source)
	for _, rule := range classificationRules {
		for _, kw := range rule.keywords {
			if strings.Contains(s, kw) {
				return rule.quadrant
			}
		}
	}
	return QuadrantUnclassified
}

// ClassifyIncome reports whether a source counts as passive or active income.
func ClassifyIncome(source string) IncomeClass {
	return ClassifyQuadrant(source).Class()
}

func totalByClass(incomes []core.IncomeEntry, class IncomeClass) decimal.Decimal {
	total := decimal.Zero
	for _, in := range incomes {
		if ClassifyIncome(in.Source) == class {
			total = total.Add(MonthlyAmount(in.Amount, in.Frequency))
		}
	}
	return total
}

// PassiveIncomeTotal sums passive incomes. IsActive is not consulted; callers
// filter the slice upstream when they need to.
func PassiveIncomeTotal(incomes []core.IncomeEntry) decimal.Decimal {
	return totalByClass(incomes, ClassPassive)
}

// ActiveIncomeTotal sums active incomes without consulting IsActive.
func ActiveIncomeTotal(incomes []core.IncomeEntry) decimal.Decimal {
	return totalByClass(incomes, ClassActive)
}

// QuadrantBreakdown holds monthly income per quadrant.
type QuadrantBreakdown struct {
	Employee     decimal.Decimal
	SelfEmployed decimal.Decimal
	Business     decimal.Decimal
	Investor     decimal.Decimal
	Unclassified decimal.Decimal
}

// Total is the sum of all quadrants.
func (b QuadrantBreakdown) Total() decimal.Decimal {
	return b.Employee.Add(b.SelfEmployed).Add(b.Business).Add(b.Investor).Add(b.Unclassified)
}

// RightSidePercent is the share of income coming from business and investments.
func (b QuadrantBreakdown) RightSidePercent() float64 {
	return RightSideQuadrantPercent(b.Business, b.Investor, b.Total())
}

// BreakdownByQuadrant groups monthly incomes by quadrant.
func BreakdownByQuadrant(incomes []core.IncomeEntry) QuadrantBreakdown {
	var b QuadrantBreakdown
	for _, in := range incomes {
		m := MonthlyAmount(in.Amount, in.Frequency)
		switch ClassifyQuadrant(in.Source) {
		case QuadrantEmployee:
			b.Employee = b.Employee.Add(m)
		case QuadrantSelfEmployed:
			b.SelfEmployed = b.SelfEmployed.Add(m)
		case QuadrantBusiness:
			b.Business = b.Business.Add(m)
		case QuadrantInvestor:
			b.Investor = b.Investor.Add(m)
		default:
			b.Unclassified = b.Unclassified.Add(m)
		}
	}
	return b
}
