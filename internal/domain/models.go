package domain

import "time"

type MovementType string

const (
	MovementPurchase   MovementType = "purchase"
	MovementSale       MovementType = "sale"
	MovementAdjustment MovementType = "adjustment"
)

func (t MovementType) Valid() bool {
	switch t {
	case MovementPurchase, MovementSale, MovementAdjustment:
		return true
	}
	return false
}

type Item struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	SKU          *string   `json:"sku,omitempty"`
	Category     *string   `json:"category,omitempty"`
	Unit         *string   `json:"unit,omitempty"`
	UnitFactor   float64   `json:"unit_factor"`
	Quantity     float64   `json:"quantity"`
	AvgCost      float64   `json:"avg_cost"`
	ReorderLevel float64   `json:"reorder_level"`
	TargetLevel  float64   `json:"target_level"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type Transaction struct {
	ID        int64        `json:"id"`
	ItemID    int64        `json:"item_id"`
	Type      MovementType `json:"type"`
	Quantity  float64      `json:"quantity"`
	UnitPrice float64      `json:"unit_price"`
	Total     float64      `json:"total"`
	Profit    float64      `json:"profit"`
	Party     string       `json:"party"`
	Note      string       `json:"note"`
	CreatedAt time.Time    `json:"created_at"`
}

// TransactionView is a Transaction joined with its item's display
// fields for listings and exports. ItemName is empty when the item has
// since been deleted.
type TransactionView struct {
	Transaction
	ItemName string  `json:"item_name"`
	ItemSKU  *string `json:"item_sku,omitempty"`
}

type InventorySummary struct {
	TotalItems     int     `json:"total_items"`
	LowStockCount  int     `json:"low_stock_count"`
	InventoryValue float64 `json:"inventory_value"`
}

type Reading struct {
	ID          int64     `json:"id"`
	CreatedAt   time.Time `json:"timestamp"`
	Temperature float64   `json:"temperature"`
	Humidity    float64   `json:"humidity"`
	Ammonia     int       `json:"ammonia"`
	Light       int       `json:"light"`
}

type Dealer struct {
	ID      int64   `json:"id"`
	Name    string  `json:"name"`
	Phone   *string `json:"phone,omitempty"`
	Website *string `json:"website,omitempty"`
}
