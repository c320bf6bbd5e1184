package core

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	FrequencyWeekly    Frequency = "weekly"
	FrequencyBiWeekly  Frequency = "bi-weekly"
	FrequencyMonthly   Frequency = "monthly"
	FrequencyQuarterly Frequency = "quarterly"
	FrequencyYearly    Frequency = "yearly"
)

const (
	AssetRealEstate       AssetType = "REAL_ESTATE"
	AssetInvestments      AssetType = "INVESTMENTS"
	AssetCashEquivalents  AssetType = "CASH_EQUIVALENTS"
	AssetStocksFundsCDs   AssetType = "STOCKS_FUNDS_CDS"
	AssetBusiness         AssetType = "BUSINESS"
	AssetPersonalProperty AssetType = "PERSONAL_PROPERTY"
)

const (
	GoalSavings       GoalType = "SAVINGS"
	GoalDebtPayoff    GoalType = "DEBT_PAYOFF"
	GoalInvestment    GoalType = "INVESTMENT"
	GoalRetirement    GoalType = "RETIREMENT"
	GoalEmergencyFund GoalType = "EMERGENCY_FUND"
	GoalMajorPurchase GoalType = "MAJOR_PURCHASE"
)

// DefaultCategoryColor is applied to budget categories created without a color.
const DefaultCategoryColor = "#3B82F6"

type (
	Frequency string
	AssetType string
	GoalType  string

	IncomeEntry struct {
		ID        string
		UserID    string
		Source    string
		Amount    decimal.Decimal
		Frequency Frequency
		IsActive  bool
		CreatedAt time.Time
		UpdatedAt time.Time
	}

	ExpenseEntry struct {
		ID          string
		UserID      string
		Category    string
		Amount      decimal.Decimal
		Frequency   Frequency
		IsRecurring bool
		CreatedAt   time.Time
		UpdatedAt   time.Time
	}

	Asset struct {
		ID         string
		UserID     string
		Name       string
		Type       AssetType
		Value      decimal.Decimal
		CostBasis  decimal.NullDecimal
		GrowthRate decimal.NullDecimal // annual percent
		CreatedAt  time.Time
		UpdatedAt  time.Time
	}

	Liability struct {
		ID             string
		UserID         string
		Name           string
		Type           string
		Balance        decimal.Decimal
		InterestRate   decimal.NullDecimal // annual percent
		MinimumPayment decimal.NullDecimal
		DueDate        *time.Time
		CreatedAt      time.Time
		UpdatedAt      time.Time
	}

	Budget struct {
		ID          string
		UserID      string
		Name        string
		TotalAmount decimal.Decimal
		StartDate   time.Time
		EndDate     time.Time
		Categories  []BudgetCategory
		CreatedAt   time.Time
		UpdatedAt   time.Time
	}

	BudgetCategory struct {
		ID              string
		BudgetID        string
		Name            string
		AllocatedAmount decimal.Decimal
		SpentAmount     decimal.Decimal
		Color           string
	}

	FinancialGoal struct {
		ID            string
		UserID        string
		Name          string
		Description   string
		Type          GoalType
		TargetAmount  decimal.Decimal
		CurrentAmount decimal.Decimal
		TargetDate    *time.Time
		IsCompleted   bool
		// IsPassiveIncomeGoal marks the goal the passive income tracker owns.
		// Rows created before the flag existed are still matched by name.
		IsPassiveIncomeGoal bool
		CreatedAt           time.Time
		UpdatedAt           time.Time
	}

	NetWorthSnapshot struct {
		ID               string
		UserID           string
		Date             time.Time // UTC day
		TotalAssets      decimal.Decimal
		TotalLiabilities decimal.Decimal
		NetWorth         decimal.Decimal
		CreatedAt        time.Time
	}
)

var (
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrInvalidFrequency = errors.New("invalid frequency")
	ErrInvalidAssetType = errors.New("invalid asset type")
	ErrInvalidGoalType  = errors.New("invalid goal type")
	ErrInvalidRate      = errors.New("invalid interest rate")
	ErrInvalidDateRange = errors.New("end date must not be before start date")
	ErrInvalidColor     = errors.New("invalid color")
	ErrEmptySource      = errors.New("empty income source")
	ErrEmptyCategory    = errors.New("empty expense category")
	ErrEmptyName        = errors.New("empty name")
	ErrEmptyUserID      = errors.New("empty user id")
	ErrNotFound         = errors.New("not found")
	ErrBudgetOverlap    = errors.New("budget overlaps an existing budget")
	ErrInvalidInput     = errors.New("invalid input")
	ErrAlreadyExists    = errors.New("already exists")
)

const maxNameLength = 200

// ParseFrequency normalizes user input into a Frequency.
func ParseFrequency(s string) (Frequency, error) {
	f := Frequency(strings.ToLower(strings.TrimSpace(s)))
	if !f.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidFrequency, s)
	}
	return f, nil
}

func (f Frequency) IsValid() bool {
	switch f {
	case FrequencyWeekly, FrequencyBiWeekly, FrequencyMonthly, FrequencyQuarterly, FrequencyYearly:
		return true
	}
	return false
}

// AssetTypes lists asset types in display order.
func AssetTypes() []AssetType {
	return []AssetType{AssetRealEstate, AssetInvestments, AssetCashEquivalents, AssetStocksFundsCDs, AssetBusiness, AssetPersonalProperty}
}

func (t AssetType) IsValid() bool {
	for _, v := range AssetTypes() {
		if v == t {
			return true
		}
	}
	return false
}

func (t GoalType) IsValid() bool {
	switch t {
	case GoalSavings, GoalDebtPayoff, GoalInvestment, GoalRetirement, GoalEmergencyFund, GoalMajorPurchase:
		return true
	}
	return false
}

func validateName(name string, empty error) error {
	if strings.TrimSpace(name) == "" {
		return empty
	}
	if len(name) > maxNameLength {
		return fmt.Errorf("%w: name too long (max %d characters)", ErrInvalidInput, maxNameLength)
	}
	return nil
}

func validateNonNegative(field string, d decimal.Decimal) error {
	if d.IsNegative() {
		return fmt.Errorf("%w: %s must not be negative", ErrInvalidAmount, field)
	}
	return nil
}

func validateOptional(field string, d decimal.NullDecimal) error {
	if !d.Valid {
		return nil
	}
	return validateNonNegative(field, d.Decimal)
}

func (e IncomeEntry) Validate() error {
	if err := validateName(e.Source, ErrEmptySource); err != nil {
		return err
	}
	if err := validateNonNegative("amount", e.Amount); err != nil {
		return err
	}
	if !e.Frequency.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidFrequency, e.Frequency)
	}
	return nil
}

func (e ExpenseEntry) Validate() error {
	if err := validateName(e.Category, ErrEmptyCategory); err != nil {
		return err
	}
	if err := validateNonNegative("amount", e.Amount); err != nil {
		return err
	}
	if !e.Frequency.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidFrequency, e.Frequency)
	}
	return nil
}

func (a Asset) Validate() error {
	if err := validateName(a.Name, ErrEmptyName); err != nil {
		return err
	}
	if !a.Type.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidAssetType, a.Type)
	}
	if err := validateNonNegative("value", a.Value); err != nil {
		return err
	}
	return validateOptional("cost basis", a.CostBasis)
}

func (l Liability) Validate() error {
	if err := validateName(l.Name, ErrEmptyName); err != nil {
		return err
	}
	if strings.TrimSpace(l.Type) == "" {
		return fmt.Errorf("%w: empty liability type", ErrInvalidInput)
	}
	if err := validateNonNegative("balance", l.Balance); err != nil {
		return err
	}
	if l.InterestRate.Valid && l.InterestRate.Decimal.IsNegative() {
		return ErrInvalidRate
	}
	return validateOptional("minimum payment", l.MinimumPayment)
}

func (b Budget) Validate() error {
	if err := validateName(b.Name, ErrEmptyName); err != nil {
		return err
	}
	if err := validateNonNegative("total amount", b.TotalAmount); err != nil {
		return err
	}
	if b.StartDate.IsZero() || b.EndDate.IsZero() {
		return fmt.Errorf("%w: budget dates are required", ErrInvalidInput)
	}
	if b.EndDate.Before(b.StartDate) {
		return ErrInvalidDateRange
	}
	for _, c := range b.Categories {
		if err := c.Validate(); err != nil {
			return fmt.Errorf("category %q: %w", c.Name, err)
		}
	}
	return nil
}

// Contains reports whether t falls inside the budget's inclusive date range.
func (b Budget) Contains(t time.Time) bool {
	return !t.Before(b.StartDate) && !t.After(b.EndDate)
}

// Overlaps reports whether two budget ranges share at least one instant.
func (b Budget) Overlaps(other Budget) bool {
	return !b.EndDate.Before(other.StartDate) && !other.EndDate.Before(b.StartDate)
}

func (c BudgetCategory) Validate() error {
	if err := validateName(c.Name, ErrEmptyName); err != nil {
		return err
	}
	if err := validateNonNegative("allocated amount", c.AllocatedAmount); err != nil {
		return err
	}
	if err := validateNonNegative("spent amount", c.SpentAmount); err != nil {
		return err
	}
	if c.Color != "" && !isHexColor(c.Color) {
		return fmt.Errorf("%w: %q", ErrInvalidColor, c.Color)
	}
	return nil
}

func isHexColor(s string) bool {
	if len(s) != 7 || s[0] != '#' {
		return false
	}
	for _, r := range s[1:] {
		if !strings.ContainsRune("0123456789abcdefABCDEF", r) {
			return false
		}
	}
	return true
}

func (g FinancialGoal) Validate() error {
	if err := validateName(g.Name, ErrEmptyName); err != nil {
		return err
	}
	if !g.Type.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidGoalType, g.Type)
	}
	if err := validateNonNegative("target amount", g.TargetAmount); err != nil {
		return err
	}
	return validateNonNegative("current amount", g.CurrentAmount)
}

// Completed derives the completion flag from the amounts.
func (g FinancialGoal) Completed() bool {
	return g.CurrentAmount.GreaterThanOrEqual(g.TargetAmount)
}
