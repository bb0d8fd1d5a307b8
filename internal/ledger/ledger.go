// Package ledger holds the movement arithmetic shared by every store
// implementation: weighted-average cost re-basing on purchases,
// clamped cost-neutral sales with realized profit, and signed
// adjustments floored at zero.
package ledger

import (
	"fmt"

	"farmops/internal/domain"
)

// Movement is a requested stock movement against a single item.
type Movement struct {
	Type      domain.MovementType
	Quantity  float64
	UnitPrice float64
	Party     string
	Note      string
}

// Outcome is the result of applying a Movement to an item position.
// Applied is false when the movement is a defensive no-op (non-positive
// purchase/sale quantity, zero adjustment): state must not change and
// no transaction may be recorded.
type Outcome struct {
	Applied     bool
	NewQuantity float64
	NewAvgCost  float64
	// AppliedQuantity is what actually moved and what the transaction
	// records: the clamped amount for sales, the floored delta for
	// adjustments.
	AppliedQuantity float64
	Profit          float64
}

// Apply computes the new position for an item holding quantity q0 at
// weighted-average cost c0. It performs no I/O; callers are expected to
// run read -> Apply -> write under a per-item lock or transaction.
func Apply(q0, c0 float64, m Movement) (Outcome, error) {
	switch m.Type {
	case domain.MovementPurchase:
		return applyPurchase(q0, c0, m), nil
	case domain.MovementSale:
		return applySale(q0, c0, m), nil
	case domain.MovementAdjustment:
		return applyAdjustment(q0, c0, m), nil
	default:
		return Outcome{}, fmt.Errorf("unknown movement type %q", m.Type)
	}
}

func applyPurchase(q0, c0 float64, m Movement) Outcome {
	if m.Quantity <= 0 {
		return noop(q0, c0)
	}
	q1 := q0 + m.Quantity
	c1 := 0.0
	if q1 > 0 {
		c1 = (q0*c0 + m.Quantity*m.UnitPrice) / q1
	}
	return Outcome{
		Applied:         true,
		NewQuantity:     q1,
		NewAvgCost:      c1,
		AppliedQuantity: m.Quantity,
	}
}

func applySale(q0, c0 float64, m Movement) Outcome {
	if m.Quantity <= 0 {
		return noop(q0, c0)
	}
	sold := m.Quantity
	if sold > q0 {
		sold = q0
	}
	q1 := q0 - sold
	if q1 < 0 {
		q1 = 0
	}
	// avg_cost survives the sale, even down to zero quantity; the next
	// purchase re-bases it.
	return Outcome{
		Applied:         true,
		NewQuantity:     q1,
		NewAvgCost:      c0,
		AppliedQuantity: sold,
		Profit:          (m.UnitPrice - c0) * sold,
	}
}

func applyAdjustment(q0, c0 float64, m Movement) Outcome {
	if m.Quantity == 0 {
		return noop(q0, c0)
	}
	q1 := q0 + m.Quantity
	if q1 < 0 {
		q1 = 0
	}
	return Outcome{
		Applied:         true,
		NewQuantity:     q1,
		NewAvgCost:      c0,
		AppliedQuantity: q1 - q0,
	}
}

func noop(q0, c0 float64) Outcome {
	return Outcome{NewQuantity: q0, NewAvgCost: c0}
}
