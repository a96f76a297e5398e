package tax

import (
	"github.com/shopspring/decimal"

	"github.com/ignatzorin/escrow-ledger/internal/money"
	"github.com/ignatzorin/escrow-ledger/internal/pkg/apperror"
)

// Scenario определяет налоговый режим счёта по юрисдикциям сторон.
type Scenario string

const (
	// ScenarioDomestic — внутренний счёт: НДС сверху базы, удержание IRPF.
	ScenarioDomestic Scenario = "domestic"
	// ScenarioEUB2B — внутрисоюзный B2B (reverse charge): НДС и IRPF нулевые.
	ScenarioEUB2B Scenario = "eu_b2b"
	// ScenarioExport — контрагент вне ЕС: налоги не начисляются.
	ScenarioExport Scenario = "export"
)

// Valid проверяет, что сценарий известен калькулятору.
func (s Scenario) Valid() bool {
	switch s {
	case ScenarioDomestic, ScenarioEUB2B, ScenarioExport:
		return true
	}
	return false
}

// InvoiceTotals — результат расчёта счёта. Все суммы округлены до минорной
// единицы в точке вычисления и при повторном расчёте дают тот же результат.
type InvoiceTotals struct {
	BaseAmount  decimal.Decimal
	VATRate     decimal.Decimal
	VATAmount   decimal.Decimal
	IRPFRate    decimal.Decimal
	IRPFAmount  decimal.Decimal
	Subtotal    decimal.Decimal
	TotalAmount decimal.Decimal
}

// ComputeInvoiceTotals считает производные суммы счёта для заданного сценария.
// Функция чистая: никакого состояния, одинаковый вход — одинаковый выход.
func ComputeInvoiceTotals(base decimal.Decimal, scenario Scenario, vatRate, irpfRate decimal.Decimal) (InvoiceTotals, error) {
	if !scenario.Valid() {
		return InvoiceTotals{}, apperror.Wrap(apperror.ErrInvalidTaxInput, apperror.ErrCodeValidation, "неизвестный налоговый сценарий: "+string(scenario))
	}
	if money.IsNegative(base) || money.IsNegative(vatRate) || money.IsNegative(irpfRate) {
		return InvoiceTotals{}, apperror.ErrInvalidTaxInput
	}

	base = money.Round(base)

	totals := InvoiceTotals{
		BaseAmount: base,
		VATRate:    decimal.Zero,
		VATAmount:  decimal.Zero,
		IRPFRate:   decimal.Zero,
		IRPFAmount: decimal.Zero,
	}

	switch scenario {
	case ScenarioDomestic:
		totals.VATRate = vatRate
		totals.VATAmount = money.Round(base.Mul(vatRate))
		totals.IRPFRate = irpfRate
		totals.IRPFAmount = money.Round(base.Mul(irpfRate))
		totals.Subtotal = base.Add(totals.VATAmount)
		totals.TotalAmount = totals.Subtotal.Sub(totals.IRPFAmount)
	case ScenarioEUB2B, ScenarioExport:
		// Reverse charge и экспорт: налоги переносятся на контрагента.
		totals.Subtotal = base
		totals.TotalAmount = base
	}

	return totals, nil
}
