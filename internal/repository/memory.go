package repository

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"farmops/internal/domain"
	"farmops/internal/ledger"
)

// Memory is an in-process Store with the same semantics as the
// Postgres repository, including per-store serialization of movements
// and cascade deletion. It backs the service and handler tests.
type Memory struct {
	mu           sync.Mutex
	items        map[int64]domain.Item
	transactions []domain.Transaction
	readings     []domain.Reading
	dealers      map[int64]domain.Dealer
	nextItemID   int64
	nextTxID     int64
	nextRead     int64
	nextDealerID int64
}

func NewMemory() *Memory {
	return &Memory{
		items:   make(map[int64]domain.Item),
		dealers: make(map[int64]domain.Dealer),
	}
}

func (m *Memory) ListItems(_ context.Context, filter ItemListFilter) ([]domain.Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	search := strings.ToLower(strings.TrimSpace(filter.Search))
	items := make([]domain.Item, 0, len(m.items))
	for _, item := range m.items {
		if search != "" && !itemMatches(item, search) {
			continue
		}
		items = append(items, item)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })

	offset := normalizeOffset(filter.Offset)
	if offset >= len(items) {
		return []domain.Item{}, nil
	}
	items = items[offset:]
	if limit := normalizeLimit(filter.Limit); len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

func itemMatches(item domain.Item, search string) bool {
	if strings.Contains(strings.ToLower(item.Name), search) {
		return true
	}
	if item.SKU != nil && strings.Contains(strings.ToLower(*item.SKU), search) {
		return true
	}
	if item.Category != nil && strings.Contains(strings.ToLower(*item.Category), search) {
		return true
	}
	return false
}

func (m *Memory) AllItems(_ context.Context) ([]domain.Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	items := make([]domain.Item, 0, len(m.items))
	for _, item := range m.items {
		items = append(items, item)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
	return items, nil
}

func (m *Memory) GetItem(_ context.Context, id int64) (*domain.Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	item, ok := m.items[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &item, nil
}

func (m *Memory) CreateItem(_ context.Context, input ItemCreateInput) (domain.Item, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return domain.Item{}, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	if input.UnitFactor <= 0 {
		input.UnitFactor = 1
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	code := normalizeNullable(input.SKU)
	if code != nil && m.skuTakenLocked(*code, 0) {
		return domain.Item{}, fmt.Errorf("%w: sku already in use", ErrInvalidInput)
	}

	m.nextItemID++
	now := time.Now().UTC()
	item := domain.Item{
		ID:           m.nextItemID,
		Name:         name,
		SKU:          code,
		Category:     normalizeNullable(input.Category),
		Unit:         normalizeNullable(input.Unit),
		UnitFactor:   input.UnitFactor,
		ReorderLevel: input.ReorderLevel,
		TargetLevel:  input.TargetLevel,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	m.items[item.ID] = item
	return item, nil
}

func (m *Memory) skuTakenLocked(code string, exceptID int64) bool {
	for _, item := range m.items {
		if item.ID != exceptID && item.SKU != nil && *item.SKU == code {
			return true
		}
	}
	return false
}

func (m *Memory) UpdateItemMeta(_ context.Context, id int64, patch ItemMetaPatch) (*domain.Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	item, ok := m.items[id]
	if !ok {
		return nil, ErrNotFound
	}

	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if name == "" {
			return nil, fmt.Errorf("%w: name cannot be empty", ErrInvalidInput)
		}
		item.Name = name
	}
	if patch.SKU != nil {
		code := normalizeNullable(patch.SKU)
		if code != nil && m.skuTakenLocked(*code, id) {
			return nil, fmt.Errorf("%w: sku already in use", ErrInvalidInput)
		}
		item.SKU = code
	}
	if patch.Category != nil {
		item.Category = normalizeNullable(patch.Category)
	}
	if patch.Unit != nil {
		item.Unit = normalizeNullable(patch.Unit)
	}
	if patch.UnitFactor != nil {
		if *patch.UnitFactor <= 0 {
			return nil, fmt.Errorf("%w: unit_factor must be positive", ErrInvalidInput)
		}
		item.UnitFactor = *patch.UnitFactor
	}
	if patch.ReorderLevel != nil {
		item.ReorderLevel = *patch.ReorderLevel
	}
	if patch.TargetLevel != nil {
		item.TargetLevel = *patch.TargetLevel
	}

	item.UpdatedAt = time.Now().UTC()
	m.items[id] = item
	return &item, nil
}

func (m *Memory) DeleteItem(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.items[id]; !ok {
		return ErrNotFound
	}
	delete(m.items, id)

	kept := m.transactions[:0]
	for _, txn := range m.transactions {
		if txn.ItemID != id {
			kept = append(kept, txn)
		}
	}
	m.transactions = kept
	return nil
}

func (m *Memory) ListSKUs(_ context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	skus := make([]string, 0)
	for _, item := range m.items {
		if item.SKU != nil {
			skus = append(skus, *item.SKU)
		}
	}
	sort.Strings(skus)
	return skus, nil
}

func (m *Memory) RecordMovement(_ context.Context, itemID int64, mv ledger.Movement) (*MovementResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	item, ok := m.items[itemID]
	if !ok {
		return nil, ErrNotFound
	}

	out, err := ledger.Apply(item.Quantity, item.AvgCost, mv)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if !out.Applied {
		return &MovementResult{Item: item}, nil
	}

	item.Quantity = out.NewQuantity
	item.AvgCost = out.NewAvgCost
	item.UpdatedAt = time.Now().UTC()
	m.items[itemID] = item

	m.nextTxID++
	txn := domain.Transaction{
		ID:        m.nextTxID,
		ItemID:    itemID,
		Type:      mv.Type,
		Quantity:  out.AppliedQuantity,
		UnitPrice: mv.UnitPrice,
		Total:     out.AppliedQuantity * mv.UnitPrice,
		Profit:    out.Profit,
		Party:     strings.TrimSpace(mv.Party),
		Note:      strings.TrimSpace(mv.Note),
		CreatedAt: time.Now().UTC(),
	}
	m.transactions = append(m.transactions, txn)
	return &MovementResult{Applied: true, Item: item, Transaction: &txn}, nil
}

func (m *Memory) Summary(_ context.Context) (domain.InventorySummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var summary domain.InventorySummary
	for _, item := range m.items {
		summary.TotalItems++
		if item.Quantity <= item.ReorderLevel {
			summary.LowStockCount++
		}
		summary.InventoryValue += item.Quantity * item.AvgCost
	}
	return summary, nil
}

func (m *Memory) RecentTransactions(_ context.Context, limit int) ([]domain.TransactionView, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	limit = normalizeLimit(limit)
	views := make([]domain.TransactionView, 0, limit)
	for i := len(m.transactions) - 1; i >= 0 && len(views) < limit; i-- {
		views = append(views, m.viewLocked(m.transactions[i]))
	}
	return views, nil
}

func (m *Memory) AllTransactions(_ context.Context) ([]domain.TransactionView, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	views := make([]domain.TransactionView, 0, len(m.transactions))
	for i := len(m.transactions) - 1; i >= 0; i-- {
		views = append(views, m.viewLocked(m.transactions[i]))
	}
	return views, nil
}

func (m *Memory) viewLocked(txn domain.Transaction) domain.TransactionView {
	view := domain.TransactionView{Transaction: txn}
	if item, ok := m.items[txn.ItemID]; ok {
		view.ItemName = item.Name
		view.ItemSKU = item.SKU
	}
	return view
}

func (m *Memory) InsertReading(_ context.Context, reading domain.Reading) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextRead++
	reading.ID = m.nextRead
	m.readings = append(m.readings, reading)
	return nil
}

func (m *Memory) LatestReading(_ context.Context) (*domain.Reading, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.readings) == 0 {
		return nil, ErrNotFound
	}
	reading := m.readings[len(m.readings)-1]
	return &reading, nil
}

func (m *Memory) ReadingHistory(_ context.Context, limit int) ([]domain.Reading, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	limit = normalizeLimit(limit)
	start := len(m.readings) - limit
	if start < 0 {
		start = 0
	}
	return append([]domain.Reading(nil), m.readings[start:]...), nil
}

func (m *Memory) AllReadings(_ context.Context) ([]domain.Reading, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	readings := make([]domain.Reading, 0, len(m.readings))
	for i := len(m.readings) - 1; i >= 0; i-- {
		readings = append(readings, m.readings[i])
	}
	return readings, nil
}

func (m *Memory) ListDealers(_ context.Context) ([]domain.Dealer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	dealers := make([]domain.Dealer, 0, len(m.dealers))
	for _, dealer := range m.dealers {
		dealers = append(dealers, dealer)
	}
	sort.Slice(dealers, func(i, j int) bool { return dealers[i].ID < dealers[j].ID })
	return dealers, nil
}

func (m *Memory) GetDealer(_ context.Context, id int64) (*domain.Dealer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	dealer, ok := m.dealers[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &dealer, nil
}

func (m *Memory) CreateDealer(_ context.Context, input DealerInput) (domain.Dealer, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return domain.Dealer{}, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextDealerID++
	dealer := domain.Dealer{
		ID:      m.nextDealerID,
		Name:    name,
		Phone:   normalizeNullable(input.Phone),
		Website: normalizeNullable(input.Website),
	}
	m.dealers[dealer.ID] = dealer
	return dealer, nil
}

func (m *Memory) UpdateDealer(_ context.Context, id int64, patch DealerPatch) (*domain.Dealer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	dealer, ok := m.dealers[id]
	if !ok {
		return nil, ErrNotFound
	}

	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if name == "" {
			return nil, fmt.Errorf("%w: name cannot be empty", ErrInvalidInput)
		}
		dealer.Name = name
	}
	if patch.Phone != nil {
		dealer.Phone = normalizeNullable(patch.Phone)
	}
	if patch.Website != nil {
		dealer.Website = normalizeNullable(patch.Website)
	}

	m.dealers[id] = dealer
	return &dealer, nil
}

func (m *Memory) DeleteDealer(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.dealers[id]; !ok {
		return ErrNotFound
	}
	delete(m.dealers, id)
	return nil
}
