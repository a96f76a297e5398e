package tax

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignatzorin/escrow-ledger/internal/pkg/apperror"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestComputeInvoiceTotals_Domestic(t *testing.T) {
	totals, err := ComputeInvoiceTotals(d("1000"), ScenarioDomestic, d("0.21"), d("0.15"))
	require.NoError(t, err)

	assert.True(t, totals.VATAmount.Equal(d("210.00")), "vat = %s", totals.VATAmount)
	assert.True(t, totals.Subtotal.Equal(d("1210.00")), "subtotal = %s", totals.Subtotal)
	assert.True(t, totals.IRPFAmount.Equal(d("150.00")), "irpf = %s", totals.IRPFAmount)
	assert.True(t, totals.TotalAmount.Equal(d("1060.00")), "total = %s", totals.TotalAmount)
}

func TestComputeInvoiceTotals_EUB2B(t *testing.T) {
	totals, err := ComputeInvoiceTotals(d("1000"), ScenarioEUB2B, d("0.21"), d("0.15"))
	require.NoError(t, err)

	assert.True(t, totals.VATAmount.IsZero())
	assert.True(t, totals.IRPFAmount.IsZero())
	assert.True(t, totals.TotalAmount.Equal(d("1000.00")))
	assert.True(t, totals.Subtotal.Equal(d("1000.00")))
}

func TestComputeInvoiceTotals_Export(t *testing.T) {
	totals, err := ComputeInvoiceTotals(d("250.40"), ScenarioExport, d("0.21"), d("0.15"))
	require.NoError(t, err)

	assert.True(t, totals.VATAmount.IsZero())
	assert.True(t, totals.TotalAmount.Equal(d("250.40")))
}

func TestComputeInvoiceTotals_RoundingHalfUp(t *testing.T) {
	// 33.45 * 0.21 = 7.0245 -> 7.02, 33.45 * 0.15 = 5.0175 -> 5.02
	totals, err := ComputeInvoiceTotals(d("33.45"), ScenarioDomestic, d("0.21"), d("0.15"))
	require.NoError(t, err)

	assert.True(t, totals.VATAmount.Equal(d("7.02")), "vat = %s", totals.VATAmount)
	assert.True(t, totals.IRPFAmount.Equal(d("5.02")), "irpf = %s", totals.IRPFAmount)
	assert.True(t, totals.Subtotal.Equal(d("40.47")))
	assert.True(t, totals.TotalAmount.Equal(d("35.45")))

	// Округление половины вверх: 10.5 * 0.21 = 2.205 -> 2.21
	totals, err = ComputeInvoiceTotals(d("10.50"), ScenarioDomestic, d("0.21"), decimal.Zero)
	require.NoError(t, err)
	assert.True(t, totals.VATAmount.Equal(d("2.21")), "vat = %s", totals.VATAmount)
}

func TestComputeInvoiceTotals_Recompute(t *testing.T) {
	// Повторный расчёт от уже округлённых сумм не накапливает погрешность.
	first, err := ComputeInvoiceTotals(d("999.99"), ScenarioDomestic, d("0.21"), d("0.15"))
	require.NoError(t, err)

	second, err := ComputeInvoiceTotals(first.BaseAmount, ScenarioDomestic, first.VATRate, first.IRPFRate)
	require.NoError(t, err)

	assert.True(t, first.TotalAmount.Equal(second.TotalAmount))
	assert.True(t, first.VATAmount.Equal(second.VATAmount))
}

func TestComputeInvoiceTotals_InvalidInput(t *testing.T) {
	_, err := ComputeInvoiceTotals(d("-1"), ScenarioDomestic, d("0.21"), d("0.15"))
	assert.ErrorIs(t, err, apperror.ErrInvalidTaxInput)

	_, err = ComputeInvoiceTotals(d("100"), Scenario("offshore"), d("0.21"), d("0.15"))
	require.Error(t, err)
	assert.ErrorIs(t, err, apperror.ErrInvalidTaxInput)

	_, err = ComputeInvoiceTotals(d("100"), ScenarioDomestic, d("-0.21"), d("0.15"))
	assert.ErrorIs(t, err, apperror.ErrInvalidTaxInput)
}
