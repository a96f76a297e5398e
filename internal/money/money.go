package money

import (
	"github.com/shopspring/decimal"
)

// Precision — количество знаков минорной единицы валюты.
const Precision = 2

// Round приводит сумму к минорной единице с округлением half-up.
// Округление применяется один раз в точке вычисления производной суммы,
// промежуточные значения не округляются.
func Round(d decimal.Decimal) decimal.Decimal {
	return d.Round(Precision)
}

// IsNegative сообщает, отрицательная ли сумма.
func IsNegative(d decimal.Decimal) bool {
	return d.IsNegative()
}

// IsPositive сообщает, строго положительная ли сумма.
func IsPositive(d decimal.Decimal) bool {
	return d.IsPositive()
}
