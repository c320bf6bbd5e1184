package finance

import (
	"math"

	"github.com/shopspring/decimal"
)

// DefaultRetirementReturn is the expected annual return, in percent, used
// when the caller does not supply one.
const DefaultRetirementReturn = 7.0

// nestEggMultiple converts a target annual income into the savings needed
// to fund it under the 4% withdrawal rule.
const nestEggMultiple = 25

func monthlyRate(annualRatePercent float64) float64 {
	return annualRatePercent / 100 / 12
}

// CompoundInterest returns P(1+r/n)^(n*t). A non-positive compounding
// frequency falls back to monthly.
func CompoundInterest(principal decimal.Decimal, annualRatePercent, years float64, compoundingPerYear int) decimal.Decimal {
	if compoundingPerYear <= 0 {
		compoundingPerYear = 12
	}
	n := float64(compoundingPerYear)
	growth := math.Pow(1+annualRatePercent/100/n, n*years)
	return principal.Mul(decimal.NewFromFloat(growth))
}

// LoanMonthlyPayment is the amortizing monthly payment for a fixed-rate loan.
// A zero rate spreads the principal evenly; a zero term yields zero.
func LoanMonthlyPayment(principal decimal.Decimal, annualRatePercent, years float64) decimal.Decimal {
	months := years * 12
	if months <= 0 {
		return decimal.Zero
	}
	r := monthlyRate(annualRatePercent)
	if r == 0 {
		return principal.Div(decimal.NewFromFloat(months))
	}
	p := principal.InexactFloat64()
	factor := math.Pow(1+r, months)
	return decimal.NewFromFloat(p * r * factor / (factor - 1))
}

// MonthsToGoal estimates how many months of contributions close the gap
// between current and target. It returns +Inf when the goal is unreachable.
func MonthsToGoal(current, target, monthlyContribution decimal.Decimal, annualReturnPercent float64) float64 {
	if !monthlyContribution.IsPositive() {
		return math.Inf(1)
	}
	if current.GreaterThanOrEqual(target) {
		return 0
	}
	remaining := target.Sub(current).InexactFloat64()
	contribution := monthlyContribution.InexactFloat64()
	if annualReturnPercent == 0 {
		return remaining / contribution
	}
	r := monthlyRate(annualReturnPercent)
	arg := 1 + remaining*r/contribution
	if arg <= 0 || 1+r <= 0 {
		return math.Inf(1)
	}
	months := math.Log(arg) / math.Log(1+r)
	if math.IsNaN(months) || months < 0 {
		return math.Inf(1)
	}
	return months
}

// RetirementReadinessPercent projects savings plus monthly contributions to
// retirement age and compares them with the nest egg needed for the target
// income. The result is not capped.
func RetirementReadinessPercent(currentAge, retirementAge int, currentSavings, monthlyContribution, targetAnnualIncome decimal.Decimal, expectedAnnualReturnPercent float64) float64 {
	nestEgg := NestEgg(targetAnnualIncome).InexactFloat64()
	if nestEgg <= 0 {
		return 0
	}
	fv := FutureValue(currentSavings, monthlyContribution, expectedAnnualReturnPercent, (retirementAge-currentAge)*12)
	return fv.InexactFloat64() / nestEgg * 100
}

// NestEgg is the savings needed to fund targetAnnualIncome.
func NestEgg(targetAnnualIncome decimal.Decimal) decimal.Decimal {
	return targetAnnualIncome.Mul(decimal.NewFromInt(nestEggMultiple))
}

// FutureValue grows savings and a monthly annuity over the given months.
func FutureValue(savings, monthlyContribution decimal.Decimal, annualReturnPercent float64, months int) decimal.Decimal {
	if months <= 0 {
		return savings
	}
	s := savings.InexactFloat64()
	c := monthlyContribution.InexactFloat64()
	r := monthlyRate(annualReturnPercent)
	if r == 0 {
		return decimal.NewFromFloat(s + c*float64(months))
	}
	growth := math.Pow(1+r, float64(months))
	return decimal.NewFromFloat(s*growth + c*(growth-1)/r)
}

// AnnualizedReturnPercent is the compound annual growth rate between two values.
func AnnualizedReturnPercent(currentValue, initialValue decimal.Decimal, years float64) float64 {
	if initialValue.IsZero() || years <= 0 {
		return 0
	}
	ratio := currentValue.Div(initialValue).InexactFloat64()
	if ratio < 0 {
		return 0
	}
	return (math.Pow(ratio, 1/years) - 1) * 100
}

// Payoff is the projected schedule for paying down a balance.
type Payoff struct {
	Months        int
	TotalInterest decimal.Decimal
	TotalPayments decimal.Decimal
	// Reachable is false when the payment never covers the monthly interest.
	Reachable bool
}

// PayoffProjection estimates how long a fixed monthly payment takes to clear
// a balance at the given annual rate.
func PayoffProjection(balance, monthlyPayment decimal.Decimal, annualRatePercent float64) Payoff {
	if !balance.IsPositive() {
		return Payoff{TotalInterest: decimal.Zero, TotalPayments: decimal.Zero, Reachable: true}
	}
	if !monthlyPayment.IsPositive() {
		return Payoff{TotalInterest: decimal.Zero, TotalPayments: decimal.Zero}
	}

	b := balance.InexactFloat64()
	p := monthlyPayment.InexactFloat64()
	r := monthlyRate(annualRatePercent)

	var months float64
	if r == 0 {
		months = math.Ceil(b / p)
	} else {
		arg := 1 - b*r/p
		if arg <= 0 {
			return Payoff{TotalInterest: decimal.Zero, TotalPayments: decimal.Zero}
		}
		months = math.Ceil(-math.Log(arg) / math.Log(1+r))
	}

	totalPayments := monthlyPayment.Mul(decimal.NewFromFloat(months))
	return Payoff{
		Months:        int(months),
		TotalPayments: totalPayments,
		TotalInterest: decimal.Max(totalPayments.Sub(balance), decimal.Zero),
		Reachable:     true,
	}
}
