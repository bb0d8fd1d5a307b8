package service

import (
	"context"
	"fmt"
	"io"
	"strings"

	"farmops/internal/domain"
	"farmops/internal/export"
	"farmops/internal/ledger"
	"farmops/internal/metrics"
	"farmops/internal/repository"
	"farmops/internal/sku"
)

// Store is the persistence surface the service runs on. Both the
// Postgres repository and the in-memory repository satisfy it.
type Store interface {
	ListItems(ctx context.Context, filter repository.ItemListFilter) ([]domain.Item, error)
	AllItems(ctx context.Context) ([]domain.Item, error)
	GetItem(ctx context.Context, id int64) (*domain.Item, error)
	CreateItem(ctx context.Context, input repository.ItemCreateInput) (domain.Item, error)
	UpdateItemMeta(ctx context.Context, id int64, patch repository.ItemMetaPatch) (*domain.Item, error)
	DeleteItem(ctx context.Context, id int64) error
	ListSKUs(ctx context.Context) ([]string, error)

	RecordMovement(ctx context.Context, itemID int64, m ledger.Movement) (*repository.MovementResult, error)
	Summary(ctx context.Context) (domain.InventorySummary, error)
	RecentTransactions(ctx context.Context, limit int) ([]domain.TransactionView, error)
	AllTransactions(ctx context.Context) ([]domain.TransactionView, error)

	InsertReading(ctx context.Context, reading domain.Reading) error
	LatestReading(ctx context.Context) (*domain.Reading, error)
	ReadingHistory(ctx context.Context, limit int) ([]domain.Reading, error)
	AllReadings(ctx context.Context) ([]domain.Reading, error)

	ListDealers(ctx context.Context) ([]domain.Dealer, error)
	GetDealer(ctx context.Context, id int64) (*domain.Dealer, error)
	CreateDealer(ctx context.Context, input repository.DealerInput) (domain.Dealer, error)
	UpdateDealer(ctx context.Context, id int64, patch repository.DealerPatch) (*domain.Dealer, error)
	DeleteDealer(ctx context.Context, id int64) error
}

type Service struct {
	store Store
}

func New(store Store) *Service {
	return &Service{store: store}
}

type AddItemInput struct {
	Name            string
	SKU             *string
	Category        *string
	Unit            *string
	UnitFactor      float64
	OpeningQuantity float64
	OpeningCost     float64
	ReorderLevel    float64
	TargetLevel     float64
}

// AddItem creates the item and, when an opening quantity is given,
// seeds it through a regular purchase movement so the opening stock
// shows up in the ledger like any other acquisition.
func (s *Service) AddItem(ctx context.Context, input AddItemInput) (*domain.Item, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", repository.ErrInvalidInput)
	}

	code := input.SKU
	if code == nil || strings.TrimSpace(*code) == "" {
		suggested, err := s.SuggestSKU(ctx, name)
		if err != nil {
			return nil, err
		}
		code = &suggested
	}

	item, err := s.store.CreateItem(ctx, repository.ItemCreateInput{
		Name:         name,
		SKU:          code,
		Category:     input.Category,
		Unit:         input.Unit,
		UnitFactor:   input.UnitFactor,
		ReorderLevel: input.ReorderLevel,
		TargetLevel:  input.TargetLevel,
	})
	if err != nil {
		return nil, err
	}

	if input.OpeningQuantity > 0 {
		result, err := s.RecordMovement(ctx, item.ID, ledger.Movement{
			Type:      domain.MovementPurchase,
			Quantity:  input.OpeningQuantity,
			UnitPrice: input.OpeningCost,
			Note:      fmt.Sprintf("opening stock for %s", name),
		})
		if err != nil {
			return nil, fmt.Errorf("seed opening stock: %w", err)
		}
		item = result.Item
	}
	return &item, nil
}

func (s *Service) ListItems(ctx context.Context, search string, limit, offset int) ([]domain.Item, error) {
	return s.store.ListItems(ctx, repository.ItemListFilter{Search: search, Limit: limit, Offset: offset})
}

func (s *Service) GetItem(ctx context.Context, id int64) (*domain.Item, error) {
	return s.store.GetItem(ctx, id)
}

// EditItem changes display metadata only; quantity and avg_cost move
// exclusively through RecordMovement.
func (s *Service) EditItem(ctx context.Context, id int64, patch repository.ItemMetaPatch) (*domain.Item, error) {
	return s.store.UpdateItemMeta(ctx, id, patch)
}

func (s *Service) DeleteItem(ctx context.Context, id int64) error {
	return s.store.DeleteItem(ctx, id)
}

func (s *Service) RecordMovement(ctx context.Context, itemID int64, m ledger.Movement) (*repository.MovementResult, error) {
	if !m.Type.Valid() {
		return nil, fmt.Errorf("%w: unknown movement type %q", repository.ErrInvalidInput, m.Type)
	}
	if m.UnitPrice < 0 {
		return nil, fmt.Errorf("%w: unit_price cannot be negative", repository.ErrInvalidInput)
	}
	result, err := s.store.RecordMovement(ctx, itemID, m)
	if err != nil {
		return nil, err
	}
	if result.Applied {
		metrics.MovementsTotal.WithLabelValues(string(m.Type)).Inc()
	}
	return result, nil
}

func (s *Service) Summary(ctx context.Context) (domain.InventorySummary, error) {
	return s.store.Summary(ctx)
}

func (s *Service) RecentTransactions(ctx context.Context, limit int) ([]domain.TransactionView, error) {
	return s.store.RecentTransactions(ctx, limit)
}

func (s *Service) SuggestSKU(ctx context.Context, name string) (string, error) {
	if strings.TrimSpace(name) == "" {
		return "", fmt.Errorf("%w: name is required", repository.ErrInvalidInput)
	}
	existing, err := s.store.ListSKUs(ctx)
	if err != nil {
		return "", err
	}
	return sku.Suggest(name, existing), nil
}

func (s *Service) ExportItemsCSV(ctx context.Context, w io.Writer) error {
	items, err := s.store.AllItems(ctx)
	if err != nil {
		return err
	}
	return export.WriteItemsCSV(w, items)
}

func (s *Service) ExportTransactionsCSV(ctx context.Context, w io.Writer) error {
	txs, err := s.store.AllTransactions(ctx)
	if err != nil {
		return err
	}
	return export.WriteTransactionsCSV(w, txs)
}

func (s *Service) ExportInventoryXLSX(ctx context.Context, w io.Writer) error {
	items, err := s.store.AllItems(ctx)
	if err != nil {
		return err
	}
	txs, err := s.store.AllTransactions(ctx)
	if err != nil {
		return err
	}
	return export.WriteInventoryXLSX(w, items, txs)
}

func (s *Service) ExportReadingsCSV(ctx context.Context, w io.Writer) error {
	readings, err := s.store.AllReadings(ctx)
	if err != nil {
		return err
	}
	return export.WriteReadingsCSV(w, readings)
}

func (s *Service) LatestReading(ctx context.Context) (*domain.Reading, error) {
	return s.store.LatestReading(ctx)
}

func (s *Service) ReadingHistory(ctx context.Context, limit int) ([]domain.Reading, error) {
	return s.store.ReadingHistory(ctx, limit)
}

func (s *Service) ListDealers(ctx context.Context) ([]domain.Dealer, error) {
	return s.store.ListDealers(ctx)
}

func (s *Service) GetDealer(ctx context.Context, id int64) (*domain.Dealer, error) {
	return s.store.GetDealer(ctx, id)
}

func (s *Service) CreateDealer(ctx context.Context, input repository.DealerInput) (domain.Dealer, error) {
	return s.store.CreateDealer(ctx, input)
}

func (s *Service) UpdateDealer(ctx context.Context, id int64, patch repository.DealerPatch) (*domain.Dealer, error) {
	return s.store.UpdateDealer(ctx, id, patch)
}

func (s *Service) DeleteDealer(ctx context.Context, id int64) error {
	return s.store.DeleteDealer(ctx, id)
}
