package main

import (
	"fmt"
	"io"
	"math"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"finboard/internal/core"
	"finboard/internal/finance"
)

// calcCmd groups the offline projection calculators. They read no
// configuration and touch no storage.
func calcCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "calc",
		Short: "Run financial projections from the command line",
	}
	cmd.AddCommand(
		calcLoanCmd(),
		calcCompoundCmd(),
		calcGoalCmd(),
		calcRetirementCmd(),
		calcPayoffCmd(),
		calcReturnCmd(),
	)
	return cmd
}

// amountFlag is a decimal amount accepting the same input as the API.
type amountFlag struct {
	value decimal.Decimal
}

func (f *amountFlag) String() string { return core.FormatAmount(f.value) }
func (f *amountFlag) Type() string   { return "amount" }

func (f *amountFlag) Set(s string) error {
	d, err := core.ParseAmount(s)
	if err != nil {
		return err
	}
	f.value = d
	return nil
}

func printRows(w io.Writer, rows ...any) {
	for i := 0; i+1 < len(rows); i += 2 {
		fmt.Fprintf(w, "%-20s %v\n", rows[i].(string)+":", rows[i+1])
	}
}

func calcLoanCmd() *cobra.Command {
	var (
		principal amountFlag
		rate      float64
		years     float64
	)
	cmd := &cobra.Command{
		Use:   "loan",
		Short: "Monthly payment of a fixed-rate amortizing loan",
		RunE: func(cmd *cobra.Command, args []string) error {
			payment := finance.LoanMonthlyPayment(principal.value, rate, years)
			total := payment.Mul(decimal.NewFromFloat(years * 12))
			printRows(cmd.OutOrStdout(),
				"Monthly payment", core.FormatAmount(payment),
				"Total paid", core.FormatAmount(total),
				"Total interest", core.FormatAmount(decimal.Max(total.Sub(principal.value), decimal.Zero)))
			return nil
		},
	}
	cmd.Flags().Var(&principal, "principal", "Loan principal")
	cmd.Flags().Float64Var(&rate, "rate", 0, "Annual interest rate in percent")
	cmd.Flags().Float64Var(&years, "years", 0, "Loan term in years")
	_ = cmd.MarkFlagRequired("principal")
	_ = cmd.MarkFlagRequired("years")
	return cmd
}

func calcCompoundCmd() *cobra.Command {
	var (
		principal   amountFlag
		rate        float64
		years       float64
		compounding int
	)
	cmd := &cobra.Command{
		Use:   "compound",
		Short: "Future value of a lump sum with compound interest",
		RunE: func(cmd *cobra.Command, args []string) error {
			fv := finance.CompoundInterest(principal.value, rate, years, compounding)
			printRows(cmd.OutOrStdout(),
				"Future value", core.FormatAmount(fv),
				"Interest earned", core.FormatAmount(fv.Sub(principal.value)))
			return nil
		},
	}
	cmd.Flags().Var(&principal, "principal", "Starting amount")
	cmd.Flags().Float64Var(&rate, "rate", 0, "Annual rate in percent")
	cmd.Flags().Float64Var(&years, "years", 0, "Years invested")
	cmd.Flags().IntVar(&compounding, "compounding", 12, "Compounding periods per year")
	_ = cmd.MarkFlagRequired("principal")
	return cmd
}

func calcGoalCmd() *cobra.Command {
	var (
		current, target, monthly amountFlag
		rate                     float64
	)
	cmd := &cobra.Command{
		Use:   "goal",
		Short: "Months of contributions needed to reach a target",
		RunE: func(cmd *cobra.Command, args []string) error {
			months := finance.MonthsToGoal(current.value, target.value, monthly.value, rate)
			if math.IsInf(months, 0) {
				fmt.Fprintln(cmd.OutOrStdout(), "Goal is not reachable with this contribution")
				return nil
			}
			printRows(cmd.OutOrStdout(),
				"Months", fmt.Sprintf("%.1f", months),
				"Years", fmt.Sprintf("%.2f", months/12))
			return nil
		},
	}
	cmd.Flags().Var(&current, "current", "Amount saved so far")
	cmd.Flags().Var(&target, "target", "Target amount")
	cmd.Flags().Var(&monthly, "monthly", "Monthly contribution")
	cmd.Flags().Float64Var(&rate, "rate", 0, "Expected annual return in percent")
	_ = cmd.MarkFlagRequired("target")
	_ = cmd.MarkFlagRequired("monthly")
	return cmd
}

func calcRetirementCmd() *cobra.Command {
	var (
		currentAge, retirementAge int
		savings, monthly, income  amountFlag
		rate                      float64
	)
	cmd := &cobra.Command{
		Use:   "retirement",
		Short: "Projected savings at retirement against the nest egg needed",
		RunE: func(cmd *cobra.Command, args []string) error {
			if retirementAge <= currentAge {
				return fmt.Errorf("--retirement-age must be greater than --current-age")
			}
			months := (retirementAge - currentAge) * 12
			printRows(cmd.OutOrStdout(),
				"Projected savings", core.FormatAmount(finance.FutureValue(savings.value, monthly.value, rate, months)),
				"Nest egg needed", core.FormatAmount(finance.NestEgg(income.value)),
				"Readiness", fmt.Sprintf("%.1f%%", finance.RetirementReadinessPercent(currentAge, retirementAge, savings.value, monthly.value, income.value, rate)))
			return nil
		},
	}
	cmd.Flags().IntVar(&currentAge, "current-age", 0, "Current age")
	cmd.Flags().IntVar(&retirementAge, "retirement-age", 65, "Planned retirement age")
	cmd.Flags().Var(&savings, "savings", "Current retirement savings")
	cmd.Flags().Var(&monthly, "monthly", "Monthly contribution")
	cmd.Flags().Var(&income, "target-income", "Desired annual income in retirement")
	cmd.Flags().Float64Var(&rate, "rate", finance.DefaultRetirementReturn, "Expected annual return in percent")
	_ = cmd.MarkFlagRequired("current-age")
	_ = cmd.MarkFlagRequired("target-income")
	return cmd
}

func calcPayoffCmd() *cobra.Command {
	var (
		balance, payment amountFlag
		rate             float64
	)
	cmd := &cobra.Command{
		Use:   "payoff",
		Short: "Months to pay off a debt at a fixed monthly payment",
		RunE: func(cmd *cobra.Command, args []string) error {
			p := finance.PayoffProjection(balance.value, payment.value, rate)
			if !p.Reachable {
				fmt.Fprintln(cmd.OutOrStdout(), "Payment does not cover the interest; the debt is never paid off")
				return nil
			}
			printRows(cmd.OutOrStdout(),
				"Months", p.Months,
				"Total interest", core.FormatAmount(p.TotalInterest),
				"Total paid", core.FormatAmount(p.TotalPayments))
			return nil
		},
	}
	cmd.Flags().Var(&balance, "balance", "Outstanding balance")
	cmd.Flags().Var(&payment, "payment", "Monthly payment")
	cmd.Flags().Float64Var(&rate, "rate", 0, "Annual interest rate in percent")
	_ = cmd.MarkFlagRequired("balance")
	_ = cmd.MarkFlagRequired("payment")
	return cmd
}

func calcReturnCmd() *cobra.Command {
	var (
		current, initial amountFlag
		years            float64
	)
	cmd := &cobra.Command{
		Use:   "return",
		Short: "Total and annualized return of an investment",
		RunE: func(cmd *cobra.Command, args []string) error {
			printRows(cmd.OutOrStdout(),
				"Gain", core.FormatAmount(current.value.Sub(initial.value)),
				"Total return", fmt.Sprintf("%.2f%%", finance.InvestmentReturnPercent(current.value, initial.value)),
				"Annualized return", fmt.Sprintf("%.2f%%", finance.AnnualizedReturnPercent(current.value, initial.value, years)))
			return nil
		},
	}
	cmd.Flags().Var(&current, "current", "Current value")
	cmd.Flags().Var(&initial, "initial", "Amount invested")
	cmd.Flags().Float64Var(&years, "years", 0, "Years held")
	_ = cmd.MarkFlagRequired("current")
	_ = cmd.MarkFlagRequired("initial")
	return cmd
}
