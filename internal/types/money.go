package types

import (
	ierr "github.com/liyaqa/billing/internal/errors"
	"github.com/shopspring/decimal"
)

const (
	// DefaultCurrency is the ISO 4217 code invoices are denominated in.
	DefaultCurrency = "SAR"

	// DefaultPaymentDueDays is the payment term stamped on issued invoices.
	DefaultPaymentDueDays = 30

	// DefaultTrialDays is the trial window granted on trial subscriptions.
	DefaultTrialDays = 14

	// moneyScale is the decimal scale for SAR amounts.
	moneyScale = 2
)

// DefaultVATRatePercent is the Saudi Arabia VAT rate as a percentage.
var DefaultVATRatePercent = decimal.RequireFromString("15.00")

// Money is an immutable amount in a single currency, held at 2-decimal scale.
type Money struct {
	Amount   decimal.Decimal `db:"amount" json:"amount"`
	Currency string          `db:"currency" json:"currency"`
}

// NewMoney rounds the amount to the currency scale (half up).
func NewMoney(amount decimal.Decimal, currency string) Money {
	return Money{Amount: amount.Round(moneyScale), Currency: currency}
}

func ZeroMoney(currency string) Money {
	return Money{Amount: decimal.Zero, Currency: currency}
}

func (m Money) Add(other Money) (Money, error) {
	if m.Currency != other.Currency {
		return Money{}, ierr.NewError("currency mismatch").
			WithHintf("cannot add %s to %s", other.Currency, m.Currency).
			Mark(ierr.ErrValidation)
	}
	return Money{Amount: m.Amount.Add(other.Amount), Currency: m.Currency}, nil
}

func (m Money) IsPositive() bool {
	return m.Amount.IsPositive()
}

func (m Money) IsNegative() bool {
	return m.Amount.IsNegative()
}

func (m Money) String() string {
	return m.Amount.StringFixed(moneyScale) + " " + m.Currency
}

// ComputeVAT derives the VAT amount and gross total for a subtotal at the
// given percentage rate. The VAT amount is rounded half up to 2 decimals
// before the total is formed, so total == subtotal + vatAmount exactly.
func ComputeVAT(subtotal decimal.Decimal, vatRatePercent decimal.Decimal) (vatAmount, total decimal.Decimal) {
	vatAmount = subtotal.Mul(vatRatePercent).Div(decimal.NewFromInt(100)).Round(moneyScale)
	total = subtotal.Add(vatAmount)
	return vatAmount, total
}
