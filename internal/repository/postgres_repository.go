package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"farmops/internal/domain"
	"farmops/internal/ledger"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidInput = errors.New("invalid input")
)

type ItemListFilter struct {
	Search string
	Limit  int
	Offset int
}

type ItemCreateInput struct {
	Name         string
	SKU          *string
	Category     *string
	Unit         *string
	UnitFactor   float64
	ReorderLevel float64
	TargetLevel  float64
}

// ItemMetaPatch updates display metadata only. Quantity and avg_cost
// are ledger-owned and have no patch path.
type ItemMetaPatch struct {
	Name         *string
	SKU          *string
	Category     *string
	Unit         *string
	UnitFactor   *float64
	ReorderLevel *float64
	TargetLevel  *float64
}

// MovementResult reports what RecordMovement actually did. Transaction
// is nil when the movement was a no-op.
type MovementResult struct {
	Applied     bool                `json:"applied"`
	Item        domain.Item         `json:"item"`
	Transaction *domain.Transaction `json:"transaction,omitempty"`
}

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const itemColumns = `
	id,
	name,
	sku,
	category,
	unit,
	unit_factor,
	quantity,
	avg_cost,
	reorder_level,
	target_level,
	created_at,
	updated_at
`

func (r *Repository) ListItems(ctx context.Context, filter ItemListFilter) ([]domain.Item, error) {
	limit := normalizeLimit(filter.Limit)
	offset := normalizeOffset(filter.Offset)
	search := strings.TrimSpace(filter.Search)

	rows, err := r.pool.Query(ctx, `
		SELECT `+itemColumns+`
		FROM items
		WHERE ($1 = ''
			OR name ILIKE '%' || $1 || '%'
			OR sku ILIKE '%' || $1 || '%'
			OR category ILIKE '%' || $1 || '%')
		ORDER BY id ASC
		LIMIT $2 OFFSET $3
	`, search, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	defer rows.Close()

	items := make([]domain.Item, 0, limit)
	for rows.Next() {
		item, err := scanItemRow(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate items: %w", err)
	}
	return items, nil
}

func (r *Repository) AllItems(ctx context.Context) ([]domain.Item, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+itemColumns+` FROM items ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("list all items: %w", err)
	}
	defer rows.Close()

	items := make([]domain.Item, 0)
	for rows.Next() {
		item, err := scanItemRow(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate all items: %w", err)
	}
	return items, nil
}

func (r *Repository) GetItem(ctx context.Context, id int64) (*domain.Item, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+itemColumns+` FROM items WHERE id = $1`, id)
	item, err := scanItemRow(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get item %d: %w", id, err)
	}
	return &item, nil
}

func (r *Repository) CreateItem(ctx context.Context, input ItemCreateInput) (domain.Item, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return domain.Item{}, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	if input.UnitFactor <= 0 {
		input.UnitFactor = 1
	}

	row := r.pool.QueryRow(ctx, `
		INSERT INTO items (name, sku, category, unit, unit_factor, reorder_level, target_level)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING `+itemColumns+`
	`, name, input.SKU, input.Category, input.Unit, input.UnitFactor, input.ReorderLevel, input.TargetLevel)

	item, err := scanItemRow(row)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.Item{}, fmt.Errorf("%w: sku already in use", ErrInvalidInput)
		}
		return domain.Item{}, fmt.Errorf("create item: %w", err)
	}
	return item, nil
}

func (r *Repository) UpdateItemMeta(ctx context.Context, id int64, patch ItemMetaPatch) (*domain.Item, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin item patch tx: %w", err)
	}
	defer tx.Rollback(ctx)

	row := tx.QueryRow(ctx, `SELECT `+itemColumns+` FROM items WHERE id = $1 FOR UPDATE`, id)
	item, err := scanItemRow(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("load item for patch: %w", err)
	}

	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if name == "" {
			return nil, fmt.Errorf("%w: name cannot be empty", ErrInvalidInput)
		}
		item.Name = name
	}
	if patch.SKU != nil {
		item.SKU = normalizeNullable(patch.SKU)
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

	row = tx.QueryRow(ctx, `
		UPDATE items
		SET name = $2, sku = $3, category = $4, unit = $5, unit_factor = $6,
			reorder_level = $7, target_level = $8, updated_at = NOW()
		WHERE id = $1
		RETURNING `+itemColumns+`
	`, id, item.Name, item.SKU, item.Category, item.Unit, item.UnitFactor, item.ReorderLevel, item.TargetLevel)
	updated, err := scanItemRow(row)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%w: sku already in use", ErrInvalidInput)
		}
		return nil, fmt.Errorf("update item: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit item patch tx: %w", err)
	}
	return &updated, nil
}

// DeleteItem removes the item and, through the FK cascade, every
// transaction written against it, in one statement.
func (r *Repository) DeleteItem(ctx context.Context, id int64) error {
	cmd, err := r.pool.Exec(ctx, "DELETE FROM items WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("delete item %d: %w", id, err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Repository) ListSKUs(ctx context.Context) ([]string, error) {
	rows, err := r.pool.Query(ctx, "SELECT sku FROM items WHERE sku IS NOT NULL ORDER BY sku ASC")
	if err != nil {
		return nil, fmt.Errorf("list skus: %w", err)
	}
	defer rows.Close()

	skus := make([]string, 0)
	for rows.Next() {
		var code string
		if err := rows.Scan(&code); err != nil {
			return nil, fmt.Errorf("scan sku: %w", err)
		}
		skus = append(skus, code)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate skus: %w", err)
	}
	return skus, nil
}

// RecordMovement runs the full read -> compute -> write -> append
// sequence inside one transaction with the item row locked, so
// concurrent movements against the same item serialize instead of
// losing updates.
func (r *Repository) RecordMovement(ctx context.Context, itemID int64, m ledger.Movement) (*MovementResult, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin movement tx: %w", err)
	}
	defer tx.Rollback(ctx)

	row := tx.QueryRow(ctx, `SELECT `+itemColumns+` FROM items WHERE id = $1 FOR UPDATE`, itemID)
	item, err := scanItemRow(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("load item %d for movement: %w", itemID, err)
	}

	out, err := ledger.Apply(item.Quantity, item.AvgCost, m)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if !out.Applied {
		return &MovementResult{Item: item}, nil
	}

	if err := updateQuantityAndCost(ctx, tx, &item, out.NewQuantity, out.NewAvgCost); err != nil {
		return nil, err
	}

	txn := domain.Transaction{
		ItemID:    itemID,
		Type:      m.Type,
		Quantity:  out.AppliedQuantity,
		UnitPrice: m.UnitPrice,
		Total:     out.AppliedQuantity * m.UnitPrice,
		Profit:    out.Profit,
		Party:     strings.TrimSpace(m.Party),
		Note:      strings.TrimSpace(m.Note),
	}
	if err := tx.QueryRow(ctx, `
		INSERT INTO transactions (item_id, tx_type, quantity, unit_price, total, profit, party, note)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at
	`, txn.ItemID, txn.Type, txn.Quantity, txn.UnitPrice, txn.Total, txn.Profit, txn.Party, txn.Note,
	).Scan(&txn.ID, &txn.CreatedAt); err != nil {
		return nil, fmt.Errorf("insert transaction: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit movement tx: %w", err)
	}
	return &MovementResult{Applied: true, Item: item, Transaction: &txn}, nil
}

// updateQuantityAndCost is the single mutation path for quantity and
// avg_cost. Values must come out of ledger.Apply.
func updateQuantityAndCost(ctx context.Context, tx pgx.Tx, item *domain.Item, quantity, avgCost float64) error {
	row := tx.QueryRow(ctx, `
		UPDATE items
		SET quantity = $2, avg_cost = $3, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`, item.ID, quantity, avgCost)
	if err := row.Scan(&item.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("update item %d quantity/cost: %w", item.ID, err)
	}
	item.Quantity = quantity
	item.AvgCost = avgCost
	return nil
}

func (r *Repository) Summary(ctx context.Context) (domain.InventorySummary, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT
			COUNT(*)::int,
			COUNT(*) FILTER (WHERE quantity <= reorder_level)::int,
			COALESCE(SUM(quantity * avg_cost), 0)
		FROM items
	`)
	var summary domain.InventorySummary
	if err := row.Scan(&summary.TotalItems, &summary.LowStockCount, &summary.InventoryValue); err != nil {
		return domain.InventorySummary{}, fmt.Errorf("inventory summary: %w", err)
	}
	return summary, nil
}

func (r *Repository) RecentTransactions(ctx context.Context, limit int) ([]domain.TransactionView, error) {
	limit = normalizeLimit(limit)
	rows, err := r.pool.Query(ctx, `
		SELECT
			t.id, t.item_id, t.tx_type, t.quantity, t.unit_price, t.total,
			t.profit, t.party, t.note, t.created_at,
			i.name, i.sku
		FROM transactions t
		LEFT JOIN items i ON i.id = t.item_id
		ORDER BY t.id DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("recent transactions: %w", err)
	}
	defer rows.Close()
	return collectTransactionViews(rows, limit)
}

func (r *Repository) AllTransactions(ctx context.Context) ([]domain.TransactionView, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT
			t.id, t.item_id, t.tx_type, t.quantity, t.unit_price, t.total,
			t.profit, t.party, t.note, t.created_at,
			i.name, i.sku
		FROM transactions t
		LEFT JOIN items i ON i.id = t.item_id
		ORDER BY t.id DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("all transactions: %w", err)
	}
	defer rows.Close()
	return collectTransactionViews(rows, 0)
}

func collectTransactionViews(rows pgx.Rows, capacity int) ([]domain.TransactionView, error) {
	views := make([]domain.TransactionView, 0, capacity)
	for rows.Next() {
		var (
			v    domain.TransactionView
			name sql.NullString
			code sql.NullString
		)
		if err := rows.Scan(
			&v.ID,
			&v.ItemID,
			&v.Type,
			&v.Quantity,
			&v.UnitPrice,
			&v.Total,
			&v.Profit,
			&v.Party,
			&v.Note,
			&v.CreatedAt,
			&name,
			&code,
		); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		// Item deleted since: surface an empty name, not an error.
		if name.Valid {
			v.ItemName = name.String
		}
		if code.Valid {
			value := code.String
			v.ItemSKU = &value
		}
		views = append(views, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}
	return views, nil
}

func scanItemRow(row pgx.Row) (domain.Item, error) {
	var (
		item     domain.Item
		skuCode  sql.NullString
		category sql.NullString
		unit     sql.NullString
	)
	if err := row.Scan(
		&item.ID,
		&item.Name,
		&skuCode,
		&category,
		&unit,
		&item.UnitFactor,
		&item.Quantity,
		&item.AvgCost,
		&item.ReorderLevel,
		&item.TargetLevel,
		&item.CreatedAt,
		&item.UpdatedAt,
	); err != nil {
		return domain.Item{}, err
	}
	if skuCode.Valid {
		value := skuCode.String
		item.SKU = &value
	}
	if category.Valid {
		value := category.String
		item.Category = &value
	}
	if unit.Valid {
		value := unit.String
		item.Unit = &value
	}
	return item, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func normalizeNullable(value *string) *string {
	if value == nil {
		return nil
	}
	v := strings.TrimSpace(*value)
	if v == "" {
		return nil
	}
	return &v
}

func normalizeLimit(limit int) int {
	if limit <= 0 {
		return 200
	}
	if limit > 1000 {
		return 1000
	}
	return limit
}

func normalizeOffset(offset int) int {
	if offset < 0 {
		return 0
	}
	return offset
}
