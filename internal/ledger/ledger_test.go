package ledger

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"farmops/internal/domain"
)

func mustApply(t *testing.T, q0, c0 float64, m Movement) Outcome {
	t.Helper()
	out, err := Apply(q0, c0, m)
	require.NoError(t, err)
	return out
}

func TestPurchaseIntoEmptyItem(t *testing.T) {
	out := mustApply(t, 0, 0, Movement{Type: domain.MovementPurchase, Quantity: 10, UnitPrice: 5})

	assert.True(t, out.Applied)
	assert.Equal(t, 10.0, out.NewQuantity)
	assert.Equal(t, 5.0, out.NewAvgCost)
	assert.Equal(t, 10.0, out.AppliedQuantity)
	assert.Equal(t, 0.0, out.Profit)
}

func TestPurchaseRebasesWeightedAverage(t *testing.T) {
	// 10 @ 5 on hand, buy 10 @ 7 -> (10*5 + 10*7) / 20 = 6.
	out := mustApply(t, 10, 5, Movement{Type: domain.MovementPurchase, Quantity: 10, UnitPrice: 7})

	assert.Equal(t, 20.0, out.NewQuantity)
	assert.InDelta(t, 6.0, out.NewAvgCost, 1e-12)
}

func TestPurchaseAverageStaysBetweenBounds(t *testing.T) {
	cases := []struct {
		q0, c0, d, p float64
	}{
		{10, 5, 10, 7},
		{3, 12.5, 9, 4.25},
		{100, 1, 1, 50},
		{0.5, 8, 0.25, 2},
	}
	for _, tc := range cases {
		out := mustApply(t, tc.q0, tc.c0, Movement{Type: domain.MovementPurchase, Quantity: tc.d, UnitPrice: tc.p})
		lo, hi := tc.c0, tc.p
		if lo > hi {
			lo, hi = hi, lo
		}
		assert.Greater(t, out.NewAvgCost, lo)
		assert.Less(t, out.NewAvgCost, hi)
	}
}

func TestSaleIsCostNeutralAndRealizesProfit(t *testing.T) {
	out := mustApply(t, 20, 6, Movement{Type: domain.MovementSale, Quantity: 5, UnitPrice: 9})

	assert.Equal(t, 15.0, out.NewQuantity)
	assert.Equal(t, 6.0, out.NewAvgCost)
	assert.Equal(t, 5.0, out.AppliedQuantity)
	assert.InDelta(t, 15.0, out.Profit, 1e-12) // (9-6)*5
}

func TestSaleClampsToOnHand(t *testing.T) {
	out := mustApply(t, 5, 4, Movement{Type: domain.MovementSale, Quantity: 50, UnitPrice: 10})

	assert.Equal(t, 0.0, out.NewQuantity)
	assert.Equal(t, 5.0, out.AppliedQuantity)
	assert.InDelta(t, 30.0, out.Profit, 1e-12) // (10-4)*5, on the clamped quantity
	assert.Equal(t, 4.0, out.NewAvgCost, "avg cost survives an emptying sale")
}

func TestSaleAtALoss(t *testing.T) {
	out := mustApply(t, 10, 8, Movement{Type: domain.MovementSale, Quantity: 4, UnitPrice: 6})

	assert.InDelta(t, -8.0, out.Profit, 1e-12)
	assert.Equal(t, 8.0, out.NewAvgCost)
}

func TestNonPositivePurchaseAndSaleAreNoOps(t *testing.T) {
	for _, typ := range []domain.MovementType{domain.MovementPurchase, domain.MovementSale} {
		for _, qty := range []float64{0, -3} {
			out := mustApply(t, 7, 2.5, Movement{Type: typ, Quantity: qty, UnitPrice: 100})

			assert.False(t, out.Applied, "%s of %v must be ignored", typ, qty)
			assert.Equal(t, 7.0, out.NewQuantity)
			assert.Equal(t, 2.5, out.NewAvgCost)
		}
	}
}

func TestAdjustmentFloorsAtZero(t *testing.T) {
	out := mustApply(t, 5, 3, Movement{Type: domain.MovementAdjustment, Quantity: -100})

	assert.True(t, out.Applied)
	assert.Equal(t, 0.0, out.NewQuantity)
	assert.Equal(t, 3.0, out.NewAvgCost)
	assert.Equal(t, -5.0, out.AppliedQuantity, "ledger records what actually moved")
	assert.Equal(t, 0.0, out.Profit)
}

func TestPositiveAdjustmentIsCostNeutral(t *testing.T) {
	out := mustApply(t, 5, 3, Movement{Type: domain.MovementAdjustment, Quantity: 2.5})

	assert.Equal(t, 7.5, out.NewQuantity)
	assert.Equal(t, 3.0, out.NewAvgCost)
	assert.Equal(t, 2.5, out.AppliedQuantity)
}

func TestZeroAdjustmentIsNoOp(t *testing.T) {
	out := mustApply(t, 5, 3, Movement{Type: domain.MovementAdjustment, Quantity: 0})
	assert.False(t, out.Applied)
}

func TestUnknownTypeRejected(t *testing.T) {
	_, err := Apply(1, 1, Movement{Type: "transfer", Quantity: 1})
	require.Error(t, err)
}

// Quantity must never go negative, whatever sequence of movements is
// applied.
func TestQuantityNeverNegativeUnderRandomSequences(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	types := []domain.MovementType{domain.MovementPurchase, domain.MovementSale, domain.MovementAdjustment}

	q, c := 0.0, 0.0
	for i := 0; i < 5000; i++ {
		m := Movement{
			Type:      types[rng.Intn(len(types))],
			Quantity:  rng.Float64()*40 - 10,
			UnitPrice: rng.Float64() * 20,
		}
		out, err := Apply(q, c, m)
		require.NoError(t, err)
		require.GreaterOrEqual(t, out.NewQuantity, 0.0, "step %d: %+v", i, m)
		require.GreaterOrEqual(t, out.NewAvgCost, 0.0, "step %d: %+v", i, m)
		q, c = out.NewQuantity, out.NewAvgCost
	}
}
