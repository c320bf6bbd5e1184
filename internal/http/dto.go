package http

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"finboard/internal/core"
	"finboard/internal/finance"
	"finboard/internal/goals"
	"finboard/internal/services"
)

// Amounts travel as strings with two decimals, dates as YYYY-MM-DD and
// timestamps as RFC 3339.

func amount(d decimal.Decimal) string { return core.FormatAmount(d) }

func optionalAmount(d decimal.NullDecimal) *string {
	if !d.Valid {
		return nil
	}
	s := amount(d.Decimal)
	return &s
}

func optionalDate(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.UTC().Format(dateLayout)
	return &s
}

// Requests

type incomeRequest struct {
	Source    string `json:"source"`
	Amount    string `json:"amount"`
	Frequency string `json:"frequency"`
	IsActive  *bool  `json:"is_active"`
}

func (req incomeRequest) toDomain(id string) (core.IncomeEntry, error) {
	amt, err := ParseAmountField("amount", req.Amount)
	if err != nil {
		return core.IncomeEntry{}, err
	}
	freq, err := core.ParseFrequency(req.Frequency)
	if err != nil {
		return core.IncomeEntry{}, err
	}
	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}
	return core.IncomeEntry{
		ID:        id,
		Source:    sanitizeInput(req.Source),
		Amount:    amt,
		Frequency: freq,
		IsActive:  active,
	}, nil
}

type expenseRequest struct {
	Category    string `json:"category"`
	Amount      string `json:"amount"`
	Frequency   string `json:"frequency"`
	IsRecurring *bool  `json:"is_recurring"`
}

func (req expenseRequest) toDomain(id string) (core.ExpenseEntry, error) {
	amt, err := ParseAmountField("amount", req.Amount)
	if err != nil {
		return core.ExpenseEntry{}, err
	}
	freq, err := core.ParseFrequency(req.Frequency)
	if err != nil {
		return core.ExpenseEntry{}, err
	}
	recurring := true
	if req.IsRecurring != nil {
		recurring = *req.IsRecurring
	}
	return core.ExpenseEntry{
		ID:          id,
		Category:    sanitizeInput(req.Category),
		Amount:      amt,
		Frequency:   freq,
		IsRecurring: recurring,
	}, nil
}

type assetRequest struct {
	Name       string  `json:"name"`
	Type       string  `json:"type"`
	Value      string  `json:"value"`
	CostBasis  *string `json:"cost_basis"`
	GrowthRate *string `json:"growth_rate"`
}

func (req assetRequest) toDomain(id string) (core.Asset, error) {
	value, err := ParseAmountField("value", req.Value)
	if err != nil {
		return core.Asset{}, err
	}
	basis, err := ParseOptionalAmount("cost_basis", req.CostBasis)
	if err != nil {
		return core.Asset{}, err
	}
	growth, err := ParseOptionalRate("growth_rate", req.GrowthRate)
	if err != nil {
		return core.Asset{}, err
	}
	return core.Asset{
		ID:         id,
		Name:       sanitizeInput(req.Name),
		Type:       core.AssetType(sanitizeInput(req.Type)),
		Value:      value,
		CostBasis:  basis,
		GrowthRate: growth,
	}, nil
}

type liabilityRequest struct {
	Name           string  `json:"name"`
	Type           string  `json:"type"`
	Balance        string  `json:"balance"`
	InterestRate   *string `json:"interest_rate"`
	MinimumPayment *string `json:"minimum_payment"`
	DueDate        *string `json:"due_date"`
}

func (req liabilityRequest) toDomain(id string) (core.Liability, error) {
	balance, err := ParseAmountField("balance", req.Balance)
	if err != nil {
		return core.Liability{}, err
	}
	rate, err := ParseOptionalRate("interest_rate", req.InterestRate)
	if err != nil {
		return core.Liability{}, err
	}
	payment, err := ParseOptionalAmount("minimum_payment", req.MinimumPayment)
	if err != nil {
		return core.Liability{}, err
	}
	due, err := ParseOptionalDate("due_date", req.DueDate)
	if err != nil {
		return core.Liability{}, err
	}
	return core.Liability{
		ID:             id,
		Name:           sanitizeInput(req.Name),
		Type:           sanitizeInput(req.Type),
		Balance:        balance,
		InterestRate:   rate,
		MinimumPayment: payment,
		DueDate:        due,
	}, nil
}

type categoryRequest struct {
	Name            string `json:"name"`
	AllocatedAmount string `json:"allocated_amount"`
	SpentAmount     string `json:"spent_amount"`
	Color           string `json:"color"`
}

func (req categoryRequest) toDomain() (core.BudgetCategory, error) {
	allocated, err := ParseAmountField("allocated_amount", req.AllocatedAmount)
	if err != nil {
		return core.BudgetCategory{}, err
	}
	spent := decimal.Zero
	if req.SpentAmount != "" {
		if spent, err = ParseAmountField("spent_amount", req.SpentAmount); err != nil {
			return core.BudgetCategory{}, err
		}
	}
	return core.BudgetCategory{
		Name:            sanitizeInput(req.Name),
		AllocatedAmount: allocated,
		SpentAmount:     spent,
		Color:           sanitizeInput(req.Color),
	}, nil
}

type budgetRequest struct {
	Name        string            `json:"name"`
	TotalAmount string            `json:"total_amount"`
	StartDate   string            `json:"start_date"`
	EndDate     string            `json:"end_date"`
	Categories  []categoryRequest `json:"categories"`
}

func (req budgetRequest) toDomain() (core.Budget, error) {
	total, err := ParseAmountField("total_amount", req.TotalAmount)
	if err != nil {
		return core.Budget{}, err
	}
	start, err := ParseDate("start_date", req.StartDate)
	if err != nil {
		return core.Budget{}, err
	}
	end, err := ParseDate("end_date", req.EndDate)
	if err != nil {
		return core.Budget{}, err
	}
	b := core.Budget{
		Name:        sanitizeInput(req.Name),
		TotalAmount: total,
		StartDate:   start,
		EndDate:     end,
	}
	for i, c := range req.Categories {
		cat, err := c.toDomain()
		if err != nil {
			return core.Budget{}, fmt.Errorf("categories[%d]: %w", i, err)
		}
		b.Categories = append(b.Categories, cat)
	}
	return b, nil
}

type spentRequest struct {
	SpentAmount string `json:"spent_amount"`
}

type goalRequest struct {
	Name          string  `json:"name"`
	Description   string  `json:"description"`
	Type          string  `json:"type"`
	TargetAmount  string  `json:"target_amount"`
	CurrentAmount string  `json:"current_amount"`
	TargetDate    *string `json:"target_date"`
}

func (req goalRequest) toDomain() (core.FinancialGoal, error) {
	target, err := ParseAmountField("target_amount", req.TargetAmount)
	if err != nil {
		return core.FinancialGoal{}, err
	}
	current := decimal.Zero
	if req.CurrentAmount != "" {
		if current, err = ParseAmountField("current_amount", req.CurrentAmount); err != nil {
			return core.FinancialGoal{}, err
		}
	}
	date, err := ParseOptionalDate("target_date", req.TargetDate)
	if err != nil {
		return core.FinancialGoal{}, err
	}
	return core.FinancialGoal{
		Name:          sanitizeInput(req.Name),
		Description:   sanitizeInput(req.Description),
		Type:          core.GoalType(sanitizeInput(req.Type)),
		TargetAmount:  target,
		CurrentAmount: current,
		TargetDate:    date,
	}, nil
}

type progressRequest struct {
	CurrentAmount string `json:"current_amount"`
}

// passiveProgressRequest optionally carries the new passive income figure.
// Without it the figure is recomputed from stored incomes.
type passiveProgressRequest struct {
	PassiveIncome *string `json:"passive_income"`
}

// Responses

type incomeResponse struct {
	ID             string           `json:"id"`
	Source         string           `json:"source"`
	Amount         string           `json:"amount"`
	Frequency      core.Frequency   `json:"frequency"`
	MonthlyAmount  string           `json:"monthly_amount"`
	IsActive       bool             `json:"is_active"`
	Quadrant       finance.Quadrant `json:"quadrant"`
	Classification string           `json:"classification"`
	CreatedAt      time.Time        `json:"created_at"`
	UpdatedAt      time.Time        `json:"updated_at"`
}

func newIncomeResponse(e core.IncomeEntry) incomeResponse {
	q := finance.ClassifyQuadrant(e.Source)
	return incomeResponse{
		ID:             e.ID,
		Source:         e.Source,
		Amount:         amount(e.Amount),
		Frequency:      e.Frequency,
		MonthlyAmount:  amount(finance.MonthlyAmount(e.Amount, e.Frequency)),
		IsActive:       e.IsActive,
		Quadrant:       q,
		Classification: string(finance.ClassifyIncome(e.Source)),
		CreatedAt:      e.CreatedAt,
		UpdatedAt:      e.UpdatedAt,
	}
}

type expenseResponse struct {
	ID            string         `json:"id"`
	Category      string         `json:"category"`
	Amount        string         `json:"amount"`
	Frequency     core.Frequency `json:"frequency"`
	MonthlyAmount string         `json:"monthly_amount"`
	IsRecurring   bool           `json:"is_recurring"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

func newExpenseResponse(e core.ExpenseEntry) expenseResponse {
	return expenseResponse{
		ID:            e.ID,
		Category:      e.Category,
		Amount:        amount(e.Amount),
		Frequency:     e.Frequency,
		MonthlyAmount: amount(finance.MonthlyAmount(e.Amount, e.Frequency)),
		IsRecurring:   e.IsRecurring,
		CreatedAt:     e.CreatedAt,
		UpdatedAt:     e.UpdatedAt,
	}
}

type assetResponse struct {
	ID         string         `json:"id"`
	Name       string         `json:"name"`
	Type       core.AssetType `json:"type"`
	Value      string         `json:"value"`
	CostBasis  *string        `json:"cost_basis"`
	GrowthRate *string        `json:"growth_rate"`
	// ReturnPercent compares value with cost basis, nil without a basis.
	ReturnPercent *float64  `json:"return_percent"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func newAssetResponse(a core.Asset) assetResponse {
	resp := assetResponse{
		ID:         a.ID,
		Name:       a.Name,
		Type:       a.Type,
		Value:      amount(a.Value),
		CostBasis:  optionalAmount(a.CostBasis),
		GrowthRate: optionalAmount(a.GrowthRate),
		CreatedAt:  a.CreatedAt,
		UpdatedAt:  a.UpdatedAt,
	}
	if a.CostBasis.Valid {
		ret := finance.InvestmentReturnPercent(a.Value, a.CostBasis.Decimal)
		resp.ReturnPercent = &ret
	}
	return resp
}

type liabilityResponse struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Type           string    `json:"type"`
	Balance        string    `json:"balance"`
	InterestRate   *string   `json:"interest_rate"`
	MinimumPayment *string   `json:"minimum_payment"`
	DueDate        *string   `json:"due_date"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func newLiabilityResponse(l core.Liability) liabilityResponse {
	return liabilityResponse{
		ID:             l.ID,
		Name:           l.Name,
		Type:           l.Type,
		Balance:        amount(l.Balance),
		InterestRate:   optionalAmount(l.InterestRate),
		MinimumPayment: optionalAmount(l.MinimumPayment),
		DueDate:        optionalDate(l.DueDate),
		CreatedAt:      l.CreatedAt,
		UpdatedAt:      l.UpdatedAt,
	}
}

type categoryResponse struct {
	ID              string  `json:"id"`
	BudgetID        string  `json:"budget_id"`
	Name            string  `json:"name"`
	AllocatedAmount string  `json:"allocated_amount"`
	SpentAmount     string  `json:"spent_amount"`
	Color           string  `json:"color"`
	Remaining       string  `json:"remaining"`
	Progress        float64 `json:"progress"`
	IsOverBudget    bool    `json:"is_over_budget"`
}

func newCategoryResponse(p core.CategoryProgress) categoryResponse {
	c := p.Category
	return categoryResponse{
		ID:              c.ID,
		BudgetID:        c.BudgetID,
		Name:            c.Name,
		AllocatedAmount: amount(c.AllocatedAmount),
		SpentAmount:     amount(c.SpentAmount),
		Color:           c.Color,
		Remaining:       amount(p.Remaining),
		Progress:        p.Progress,
		IsOverBudget:    p.IsOverBudget,
	}
}

// newPlainCategoryResponse describes a category outside its budget.
func newPlainCategoryResponse(c core.BudgetCategory) categoryResponse {
	return newCategoryResponse(core.CategoryProgress{
		Category:     c,
		Remaining:    finance.RemainingBudget(c.AllocatedAmount, c.SpentAmount),
		Progress:     finance.BudgetProgressPercent(c.SpentAmount, c.AllocatedAmount),
		IsOverBudget: c.SpentAmount.GreaterThan(c.AllocatedAmount),
	})
}

type budgetSummaryResponse struct {
	TotalBudgeted        string  `json:"total_budgeted"`
	TotalSpent           string  `json:"total_spent"`
	Remaining            string  `json:"remaining"`
	ProgressPercentage   float64 `json:"progress_percentage"`
	CategoriesOverBudget int     `json:"categories_over_budget"`
	CategoriesOnTrack    int     `json:"categories_on_track"`
}

func newBudgetSummaryResponse(s core.BudgetSummary) budgetSummaryResponse {
	return budgetSummaryResponse{
		TotalBudgeted:        amount(s.TotalBudgeted),
		TotalSpent:           amount(s.TotalSpent),
		Remaining:            amount(s.Remaining),
		ProgressPercentage:   s.ProgressPercentage,
		CategoriesOverBudget: s.CategoriesOverBudget,
		CategoriesOnTrack:    s.CategoriesOnTrack,
	}
}

type budgetResponse struct {
	ID          string                `json:"id"`
	Name        string                `json:"name"`
	TotalAmount string                `json:"total_amount"`
	StartDate   string                `json:"start_date"`
	EndDate     string                `json:"end_date"`
	Categories  []categoryResponse    `json:"categories"`
	Summary     budgetSummaryResponse `json:"summary"`
	CreatedAt   time.Time             `json:"created_at"`
	UpdatedAt   time.Time             `json:"updated_at"`
}

func newBudgetResponse(b core.Budget) budgetResponse {
	resp := budgetResponse{
		ID:          b.ID,
		Name:        b.Name,
		TotalAmount: amount(b.TotalAmount),
		StartDate:   b.StartDate.UTC().Format(dateLayout),
		EndDate:     b.EndDate.UTC().Format(dateLayout),
		Categories:  []categoryResponse{},
		Summary:     newBudgetSummaryResponse(finance.BudgetSummary(b)),
		CreatedAt:   b.CreatedAt,
		UpdatedAt:   b.UpdatedAt,
	}
	for _, p := range finance.CategoryBreakdown(b) {
		resp.Categories = append(resp.Categories, newCategoryResponse(p))
	}
	return resp
}

type goalResponse struct {
	ID                  string        `json:"id"`
	Name                string        `json:"name"`
	Description         string        `json:"description"`
	Type                core.GoalType `json:"type"`
	TargetAmount        string        `json:"target_amount"`
	CurrentAmount       string        `json:"current_amount"`
	TargetDate          *string       `json:"target_date"`
	IsCompleted         bool          `json:"is_completed"`
	IsPassiveIncomeGoal bool          `json:"is_passive_income_goal"`
	CreatedAt           time.Time     `json:"created_at"`
	UpdatedAt           time.Time     `json:"updated_at"`
}

func newGoalResponse(g core.FinancialGoal) goalResponse {
	return goalResponse{
		ID:                  g.ID,
		Name:                g.Name,
		Description:         g.Description,
		Type:                g.Type,
		TargetAmount:        amount(g.TargetAmount),
		CurrentAmount:       amount(g.CurrentAmount),
		TargetDate:          optionalDate(g.TargetDate),
		IsCompleted:         g.IsCompleted,
		IsPassiveIncomeGoal: g.IsPassiveIncomeGoal,
		CreatedAt:           g.CreatedAt,
		UpdatedAt:           g.UpdatedAt,
	}
}

type goalProgressResponse struct {
	ID                 string        `json:"id"`
	Name               string        `json:"name"`
	Type               core.GoalType `json:"type"`
	CurrentAmount      string        `json:"current_amount"`
	TargetAmount       string        `json:"target_amount"`
	ProgressPercentage float64       `json:"progress_percentage"`
	TargetDate         *string       `json:"target_date"`
	MonthsRemaining    *int          `json:"months_remaining"`
	OnTrack            bool          `json:"on_track"`
}

func newGoalProgressResponse(p goals.GoalProgress) goalProgressResponse {
	return goalProgressResponse{
		ID:                 p.ID,
		Name:               p.Name,
		Type:               p.Type,
		CurrentAmount:      amount(p.CurrentAmount),
		TargetAmount:       amount(p.TargetAmount),
		ProgressPercentage: p.ProgressPercentage,
		TargetDate:         optionalDate(p.TargetDate),
		MonthsRemaining:    p.MonthsRemaining,
		OnTrack:            p.OnTrack,
	}
}

type goalTotalsResponse struct {
	TotalCurrent    string  `json:"total_current"`
	TotalTarget     string  `json:"total_target"`
	OverallProgress float64 `json:"overall_progress"`
	Completed       int     `json:"completed"`
	Active          int     `json:"active"`
	Total           int     `json:"total"`
}

func newGoalTotalsResponse(t goals.GoalTotals) goalTotalsResponse {
	return goalTotalsResponse{
		TotalCurrent:    amount(t.TotalCurrent),
		TotalTarget:     amount(t.TotalTarget),
		OverallProgress: t.OverallProgress,
		Completed:       t.Completed,
		Active:          t.Active,
		Total:           t.Total,
	}
}

type decisionResponse struct {
	Outcome       goals.Outcome    `json:"outcome"`
	Reason        goals.SkipReason `json:"reason,omitempty"`
	GoalID        string           `json:"goal_id,omitempty"`
	CurrentAmount *string          `json:"current_amount,omitempty"`
	IsCompleted   bool             `json:"is_completed"`
}

func newDecisionResponse(d goals.Decision) decisionResponse {
	resp := decisionResponse{
		Outcome:     d.Outcome,
		Reason:      d.Reason,
		GoalID:      d.GoalID,
		IsCompleted: d.IsCompleted,
	}
	if d.Applied() {
		s := amount(d.CurrentAmount)
		resp.CurrentAmount = &s
	}
	return resp
}

type summaryResponse struct {
	TotalIncome      string  `json:"total_income"`
	TotalExpenses    string  `json:"total_expenses"`
	CashFlow         string  `json:"cash_flow"`
	TotalAssets      string  `json:"total_assets"`
	TotalLiabilities string  `json:"total_liabilities"`
	NetWorth         string  `json:"net_worth"`
	SavingsRate      float64 `json:"savings_rate"`
}

func newSummaryResponse(s core.FinancialSummary) summaryResponse {
	return summaryResponse{
		TotalIncome:      amount(s.TotalIncome),
		TotalExpenses:    amount(s.TotalExpenses),
		CashFlow:         amount(s.CashFlow),
		TotalAssets:      amount(s.TotalAssets),
		TotalLiabilities: amount(s.TotalLiabilities),
		NetWorth:         amount(s.NetWorth),
		SavingsRate:      finance.SavingsRate(s.TotalIncome, s.TotalExpenses),
	}
}

type escapeResponse struct {
	Percent         float64 `json:"percent"`
	PassiveIncome   string  `json:"passive_income"`
	ActiveIncome    string  `json:"active_income"`
	MonthlyExpenses string  `json:"monthly_expenses"`
	Escaped         bool    `json:"escaped"`
}

func newEscapeResponse(p services.EscapeProgress) escapeResponse {
	return escapeResponse{
		Percent:         p.Percent,
		PassiveIncome:   amount(p.PassiveIncome),
		ActiveIncome:    amount(p.ActiveIncome),
		MonthlyExpenses: amount(p.MonthlyExpenses),
		Escaped:         p.Percent >= 100,
	}
}

type quadrantResponse struct {
	Employee         string  `json:"employee"`
	SelfEmployed     string  `json:"self_employed"`
	Business         string  `json:"business"`
	Investor         string  `json:"investor"`
	Unclassified     string  `json:"unclassified"`
	Total            string  `json:"total"`
	RightSidePercent float64 `json:"right_side_percent"`
}

func newQuadrantResponse(b finance.QuadrantBreakdown) quadrantResponse {
	return quadrantResponse{
		Employee:         amount(b.Employee),
		SelfEmployed:     amount(b.SelfEmployed),
		Business:         amount(b.Business),
		Investor:         amount(b.Investor),
		Unclassified:     amount(b.Unclassified),
		Total:            amount(b.Total()),
		RightSidePercent: b.RightSidePercent(),
	}
}

type insightResponse struct {
	Kind        finance.InsightKind `json:"kind"`
	Title       string              `json:"title"`
	Description string              `json:"description"`
}

type allocationResponse struct {
	Type    core.AssetType `json:"type"`
	Value   string         `json:"value"`
	Percent float64        `json:"percent"`
	Count   int            `json:"count"`
}

type ratiosResponse struct {
	SavingsRate         float64 `json:"savings_rate"`
	DebtToIncome        float64 `json:"debt_to_income"`
	EmergencyFundMonths float64 `json:"emergency_fund_months"`
	FIProgress          float64 `json:"fi_progress"`
	FITarget            string  `json:"fi_target"`
}

type insightsResponse struct {
	Insights   []insightResponse    `json:"insights"`
	Allocation []allocationResponse `json:"allocation"`
	Ratios     ratiosResponse       `json:"ratios"`
}

func newInsightsResponse(report services.InsightReport) insightsResponse {
	resp := insightsResponse{
		Insights:   make([]insightResponse, 0, len(report.Insights)),
		Allocation: make([]allocationResponse, 0, len(report.Allocation)),
		Ratios: ratiosResponse{
			SavingsRate:         report.Ratios.SavingsRate,
			DebtToIncome:        report.Ratios.DebtToIncome,
			EmergencyFundMonths: report.Ratios.EmergencyFundMonths,
			FIProgress:          report.Ratios.FIProgress,
			FITarget:            amount(report.Ratios.FITarget),
		},
	}
	for _, in := range report.Insights {
		resp.Insights = append(resp.Insights, insightResponse{Kind: in.Kind, Title: in.Title, Description: in.Description})
	}
	for _, s := range report.Allocation {
		resp.Allocation = append(resp.Allocation, allocationResponse{Type: s.Type, Value: amount(s.Value), Percent: s.Percent, Count: s.Count})
	}
	return resp
}

type snapshotResponse struct {
	Date             string `json:"date"`
	TotalAssets      string `json:"total_assets"`
	TotalLiabilities string `json:"total_liabilities"`
	NetWorth         string `json:"net_worth"`
}

func newSnapshotResponse(s core.NetWorthSnapshot) snapshotResponse {
	return snapshotResponse{
		Date:             s.Date.UTC().Format(dateLayout),
		TotalAssets:      amount(s.TotalAssets),
		TotalLiabilities: amount(s.TotalLiabilities),
		NetWorth:         amount(s.NetWorth),
	}
}

type performanceResponse struct {
	CurrentNetWorth    string        `json:"current_net_worth"`
	YearlyGrowth       float64       `json:"yearly_growth"`
	YearlyGrowthAmount string        `json:"yearly_growth_amount"`
	MonthlyTrend       finance.Trend `json:"monthly_trend"`
	SnapshotCount      int           `json:"snapshot_count"`
}

func newPerformanceResponse(p finance.Performance) performanceResponse {
	return performanceResponse{
		CurrentNetWorth:    amount(p.CurrentNetWorth),
		YearlyGrowth:       p.YearlyGrowth,
		YearlyGrowthAmount: amount(p.YearlyGrowthAmount),
		MonthlyTrend:       p.MonthlyTrend,
		SnapshotCount:      p.SnapshotCount,
	}
}

// mapSlice converts a slice of domain values, never returning nil so lists
// encode as [].
func mapSlice[T, R any](in []T, f func(T) R) []R {
	out := make([]R, 0, len(in))
	for _, v := range in {
		out = append(out, f(v))
	}
	return out
}
