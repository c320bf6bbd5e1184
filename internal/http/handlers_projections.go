package http

import (
	"fmt"
	"math"
	"net/http"

	"github.com/shopspring/decimal"

	"finboard/internal/finance"
)

// Projections are pure calculators. They read only query parameters and
// never touch the user's records.

type loanProjection struct {
	MonthlyPayment string `json:"monthly_payment"`
	TotalPayment   string `json:"total_payment"`
	TotalInterest  string `json:"total_interest"`
}

func handleLoanProjection(w http.ResponseWriter, r *http.Request) {
	q := NewQueryParser(r)
	principal := q.Amount("principal")
	rate := q.Float("rate", 0)
	years := q.Float("years", 0)
	if err := q.Err(); err != nil {
		writeError(w, r, "loan_projection", err)
		return
	}

	payment := finance.LoanMonthlyPayment(principal, rate, years)
	total := payment.Mul(decimal.NewFromFloat(years * 12))
	writeJSON(w, http.StatusOK, loanProjection{
		MonthlyPayment: amount(payment),
		TotalPayment:   amount(total),
		TotalInterest:  amount(decimal.Max(total.Sub(principal), decimal.Zero)),
	})
}

type compoundProjection struct {
	FutureValue    string `json:"future_value"`
	InterestEarned string `json:"interest_earned"`
}

func handleCompoundProjection(w http.ResponseWriter, r *http.Request) {
	q := NewQueryParser(r)
	principal := q.Amount("principal")
	rate := q.Float("rate", 0)
	years := q.Float("years", 0)
	compounding := q.Int("compounding", 12)
	if err := q.Err(); err != nil {
		writeError(w, r, "compound_projection", err)
		return
	}

	fv := finance.CompoundInterest(principal, rate, years, compounding)
	writeJSON(w, http.StatusOK, compoundProjection{
		FutureValue:    amount(fv),
		InterestEarned: amount(fv.Sub(principal)),
	})
}

type goalProjection struct {
	// Months is nil when the contribution never reaches the target.
	Months    *float64 `json:"months"`
	Years     *float64 `json:"years"`
	Reachable bool     `json:"reachable"`
}

func handleGoalProjection(w http.ResponseWriter, r *http.Request) {
	q := NewQueryParser(r)
	current := q.Amount("current")
	target := q.Amount("target")
	monthly := q.Amount("monthly")
	rate := q.Float("rate", 0)
	if err := q.Err(); err != nil {
		writeError(w, r, "goal_projection", err)
		return
	}

	months := finance.MonthsToGoal(current, target, monthly, rate)
	resp := goalProjection{}
	if !math.IsInf(months, 0) && !math.IsNaN(months) {
		m := math.Round(months*10) / 10
		y := math.Round(months/12*100) / 100
		resp = goalProjection{Months: &m, Years: &y, Reachable: true}
	}
	writeJSON(w, http.StatusOK, resp)
}

type retirementProjection struct {
	ReadinessPercent float64 `json:"readiness_percent"`
	ProjectedSavings string  `json:"projected_savings"`
	NestEgg          string  `json:"nest_egg"`
	YearsToRetire    int     `json:"years_to_retire"`
}

func handleRetirementProjection(w http.ResponseWriter, r *http.Request) {
	q := NewQueryParser(r)
	currentAge := q.RequiredInt("current_age")
	retirementAge := q.RequiredInt("retirement_age")
	savings := q.Amount("savings")
	monthly := q.Amount("monthly")
	income := q.Amount("target_income")
	rate := q.Float("rate", finance.DefaultRetirementReturn)
	if err := q.Err(); err != nil {
		writeError(w, r, "retirement_projection", err)
		return
	}
	if retirementAge <= currentAge {
		writeError(w, r, "retirement_projection",
			fmt.Errorf("%w: retirement_age must be greater than current_age", errBadRequest))
		return
	}

	months := (retirementAge - currentAge) * 12
	writeJSON(w, http.StatusOK, retirementProjection{
		ReadinessPercent: finance.RetirementReadinessPercent(currentAge, retirementAge, savings, monthly, income, rate),
		ProjectedSavings: amount(finance.FutureValue(savings, monthly, rate, months)),
		NestEgg:          amount(finance.NestEgg(income)),
		YearsToRetire:    retirementAge - currentAge,
	})
}

type payoffProjection struct {
	Months        int    `json:"months"`
	TotalInterest string `json:"total_interest"`
	TotalPayments string `json:"total_payments"`
	Reachable     bool   `json:"reachable"`
}

func handlePayoffProjection(w http.ResponseWriter, r *http.Request) {
	q := NewQueryParser(r)
	balance := q.Amount("balance")
	payment := q.Amount("payment")
	rate := q.Float("rate", 0)
	if err := q.Err(); err != nil {
		writeError(w, r, "payoff_projection", err)
		return
	}

	p := finance.PayoffProjection(balance, payment, rate)
	writeJSON(w, http.StatusOK, payoffProjection{
		Months:        p.Months,
		TotalInterest: amount(p.TotalInterest),
		TotalPayments: amount(p.TotalPayments),
		Reachable:     p.Reachable,
	})
}

type returnProjection struct {
	Gain              string  `json:"gain"`
	TotalPercent      float64 `json:"total_percent"`
	AnnualizedPercent float64 `json:"annualized_percent"`
}

func handleReturnProjection(w http.ResponseWriter, r *http.Request) {
	q := NewQueryParser(r)
	current := q.Amount("current")
	initial := q.Amount("initial")
	years := q.Float("years", 0)
	if err := q.Err(); err != nil {
		writeError(w, r, "return_projection", err)
		return
	}

	writeJSON(w, http.StatusOK, returnProjection{
		Gain:              amount(current.Sub(initial)),
		TotalPercent:      finance.InvestmentReturnPercent(current, initial),
		AnnualizedPercent: finance.AnnualizedReturnPercent(current, initial, years),
	})
}
