package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"farmops/internal/domain"
	"farmops/internal/ledger"
	"farmops/internal/repository"
)

func newTestService() *Service {
	return New(repository.NewMemory())
}

func addPlainItem(t *testing.T, svc *Service, name string) *domain.Item {
	t.Helper()
	item, err := svc.AddItem(context.Background(), AddItemInput{Name: name})
	require.NoError(t, err)
	return item
}

func TestAddItemSeedsOpeningStockThroughTheLedger(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	item, err := svc.AddItem(ctx, AddItemInput{
		Name:            "Layer Feed",
		OpeningQuantity: 10,
		OpeningCost:     5,
		ReorderLevel:    3,
	})
	require.NoError(t, err)

	assert.Equal(t, 10.0, item.Quantity)
	assert.Equal(t, 5.0, item.AvgCost)
	require.NotNil(t, item.SKU)
	assert.Equal(t, "LAYER-FEED-1", *item.SKU, "missing SKU gets a suggested code")

	txs, err := svc.RecentTransactions(ctx, 10)
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.Equal(t, domain.MovementPurchase, txs[0].Type)
	assert.Equal(t, 10.0, txs[0].Quantity)
	assert.Equal(t, 5.0, txs[0].UnitPrice)
	assert.Equal(t, 0.0, txs[0].Profit)
	assert.Equal(t, "", txs[0].Party)
	assert.Contains(t, txs[0].Note, "opening stock")
}

func TestAddItemRejectsEmptyNameAndSKUCollision(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	_, err := svc.AddItem(ctx, AddItemInput{Name: "   "})
	assert.ErrorIs(t, err, repository.ErrInvalidInput)

	code := "EGG-1"
	_, err = svc.AddItem(ctx, AddItemInput{Name: "Eggs", SKU: &code})
	require.NoError(t, err)
	_, err = svc.AddItem(ctx, AddItemInput{Name: "Other eggs", SKU: &code})
	assert.ErrorIs(t, err, repository.ErrInvalidInput)
}

func TestPurchaseSaleSequence(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	item := addPlainItem(t, svc, "Layer Feed")

	// Purchase 10 @ 5.
	res, err := svc.RecordMovement(ctx, item.ID, ledger.Movement{
		Type: domain.MovementPurchase, Quantity: 10, UnitPrice: 5, Party: "Agro dealer",
	})
	require.NoError(t, err)
	assert.True(t, res.Applied)
	assert.Equal(t, 10.0, res.Item.Quantity)
	assert.Equal(t, 5.0, res.Item.AvgCost)

	// Purchase 10 @ 7 -> avg 6.
	res, err = svc.RecordMovement(ctx, item.ID, ledger.Movement{
		Type: domain.MovementPurchase, Quantity: 10, UnitPrice: 7,
	})
	require.NoError(t, err)
	assert.Equal(t, 20.0, res.Item.Quantity)
	assert.InDelta(t, 6.0, res.Item.AvgCost, 1e-12)

	// Sale 5 @ 9 -> profit 15, cost untouched.
	res, err = svc.RecordMovement(ctx, item.ID, ledger.Movement{
		Type: domain.MovementSale, Quantity: 5, UnitPrice: 9,
	})
	require.NoError(t, err)
	assert.Equal(t, 15.0, res.Item.Quantity)
	assert.InDelta(t, 6.0, res.Item.AvgCost, 1e-12)
	require.NotNil(t, res.Transaction)
	assert.InDelta(t, 15.0, res.Transaction.Profit, 1e-12)
	assert.InDelta(t, 45.0, res.Transaction.Total, 1e-12)
}

func TestOversellClampsToOnHand(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	item, err := svc.AddItem(ctx, AddItemInput{Name: "Eggs", OpeningQuantity: 5, OpeningCost: 2})
	require.NoError(t, err)

	res, err := svc.RecordMovement(ctx, item.ID, ledger.Movement{
		Type: domain.MovementSale, Quantity: 50, UnitPrice: 10,
	})
	require.NoError(t, err)
	assert.Equal(t, 0.0, res.Item.Quantity)
	require.NotNil(t, res.Transaction)
	assert.Equal(t, 5.0, res.Transaction.Quantity, "transaction records the clamped quantity")
	assert.InDelta(t, 40.0, res.Transaction.Profit, 1e-12) // (10-2)*5
	assert.Equal(t, 2.0, res.Item.AvgCost, "avg cost survives zero quantity")
}

func TestNegativeAdjustmentFloorsAtZero(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	item, err := svc.AddItem(ctx, AddItemInput{Name: "Eggs", OpeningQuantity: 5, OpeningCost: 2})
	require.NoError(t, err)

	res, err := svc.RecordMovement(ctx, item.ID, ledger.Movement{
		Type: domain.MovementAdjustment, Quantity: -100, Note: "spoilage",
	})
	require.NoError(t, err)
	assert.Equal(t, 0.0, res.Item.Quantity)
	assert.Equal(t, 2.0, res.Item.AvgCost)
	require.NotNil(t, res.Transaction)
	assert.Equal(t, -5.0, res.Transaction.Quantity)
	assert.Equal(t, 0.0, res.Transaction.Profit)
}

func TestNoOpMovementLeavesNoTrace(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	item, err := svc.AddItem(ctx, AddItemInput{Name: "Eggs", OpeningQuantity: 5, OpeningCost: 2})
	require.NoError(t, err)

	for _, qty := range []float64{0, -4} {
		res, err := svc.RecordMovement(ctx, item.ID, ledger.Movement{
			Type: domain.MovementSale, Quantity: qty, UnitPrice: 9,
		})
		require.NoError(t, err)
		assert.False(t, res.Applied)
		assert.Nil(t, res.Transaction)
		assert.Equal(t, 5.0, res.Item.Quantity)
	}

	txs, err := svc.RecentTransactions(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, txs, 1, "only the opening purchase is on the ledger")
}

func TestMovementValidation(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	item := addPlainItem(t, svc, "Eggs")

	_, err := svc.RecordMovement(ctx, item.ID, ledger.Movement{Type: "transfer", Quantity: 1})
	assert.ErrorIs(t, err, repository.ErrInvalidInput)

	_, err = svc.RecordMovement(ctx, item.ID, ledger.Movement{Type: domain.MovementSale, Quantity: 1, UnitPrice: -2})
	assert.ErrorIs(t, err, repository.ErrInvalidInput)

	_, err = svc.RecordMovement(ctx, 9999, ledger.Movement{Type: domain.MovementSale, Quantity: 1, UnitPrice: 2})
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestEditItemTouchesMetadataOnly(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	item, err := svc.AddItem(ctx, AddItemInput{Name: "Eggs", OpeningQuantity: 12, OpeningCost: 0.5})
	require.NoError(t, err)

	name := "Eggs (large)"
	category := "produce"
	updated, err := svc.EditItem(ctx, item.ID, repository.ItemMetaPatch{Name: &name, Category: &category})
	require.NoError(t, err)
	assert.Equal(t, "Eggs (large)", updated.Name)
	assert.Equal(t, 12.0, updated.Quantity, "edit must not touch quantity")
	assert.Equal(t, 0.5, updated.AvgCost, "edit must not touch avg cost")
}

func TestSummaryDerivedFreshFromItems(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	feed, err := svc.AddItem(ctx, AddItemInput{Name: "Layer Feed", OpeningQuantity: 20, OpeningCost: 6, ReorderLevel: 5})
	require.NoError(t, err)
	_, err = svc.AddItem(ctx, AddItemInput{Name: "Eggs", OpeningQuantity: 2, OpeningCost: 0.5, ReorderLevel: 10})
	require.NoError(t, err)

	summary, err := svc.Summary(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, summary.TotalItems)
	assert.Equal(t, 1, summary.LowStockCount)
	assert.InDelta(t, 20*6+2*0.5, summary.InventoryValue, 1e-12)

	// Sell everything: value must follow the items exactly.
	_, err = svc.RecordMovement(ctx, feed.ID, ledger.Movement{Type: domain.MovementSale, Quantity: 20, UnitPrice: 9})
	require.NoError(t, err)

	summary, err = svc.Summary(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, summary.LowStockCount, "empty item is at or below reorder level")
	assert.InDelta(t, 1.0, summary.InventoryValue, 1e-12)
}

func TestDeleteItemCascadesTransactions(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	item, err := svc.AddItem(ctx, AddItemInput{Name: "Eggs", OpeningQuantity: 5, OpeningCost: 2})
	require.NoError(t, err)
	keeper, err := svc.AddItem(ctx, AddItemInput{Name: "Feed", OpeningQuantity: 1, OpeningCost: 1})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteItem(ctx, item.ID))

	_, err = svc.GetItem(ctx, item.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	txs, err := svc.RecentTransactions(ctx, 10)
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.Equal(t, keeper.ID, txs[0].ItemID)

	assert.ErrorIs(t, svc.DeleteItem(ctx, item.ID), repository.ErrNotFound)
}

func TestRecentTransactionsNewestFirst(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	item := addPlainItem(t, svc, "Eggs")

	for i := 1; i <= 3; i++ {
		_, err := svc.RecordMovement(ctx, item.ID, ledger.Movement{
			Type: domain.MovementPurchase, Quantity: float64(i), UnitPrice: 1,
		})
		require.NoError(t, err)
	}

	txs, err := svc.RecentTransactions(ctx, 2)
	require.NoError(t, err)
	require.Len(t, txs, 2)
	assert.Equal(t, 3.0, txs[0].Quantity)
	assert.Equal(t, 2.0, txs[1].Quantity)
	assert.Equal(t, "Eggs", txs[0].ItemName)
}

func TestSuggestSKU(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	code, err := svc.SuggestSKU(ctx, "Layer Feed")
	require.NoError(t, err)
	assert.Equal(t, "LAYER-FEED-1", code)

	_, err = svc.AddItem(ctx, AddItemInput{Name: "Layer Feed"})
	require.NoError(t, err)

	code, err = svc.SuggestSKU(ctx, "Layer Feed")
	require.NoError(t, err)
	assert.Equal(t, "LAYER-FEED-2", code)

	_, err = svc.SuggestSKU(ctx, "  ")
	assert.ErrorIs(t, err, repository.ErrInvalidInput)
}

func TestDealerCRUD(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	phone := "+95 9 555 0101"
	dealer, err := svc.CreateDealer(ctx, repository.DealerInput{Name: "Golden Harvest", Phone: &phone})
	require.NoError(t, err)

	_, err = svc.CreateDealer(ctx, repository.DealerInput{Name: "  "})
	assert.ErrorIs(t, err, repository.ErrInvalidInput)

	site := "https://goldenharvest.example"
	updated, err := svc.UpdateDealer(ctx, dealer.ID, repository.DealerPatch{Website: &site})
	require.NoError(t, err)
	require.NotNil(t, updated.Website)
	assert.Equal(t, site, *updated.Website)
	require.NotNil(t, updated.Phone)

	dealers, err := svc.ListDealers(ctx)
	require.NoError(t, err)
	assert.Len(t, dealers, 1)

	require.NoError(t, svc.DeleteDealer(ctx, dealer.ID))
	_, err = svc.GetDealer(ctx, dealer.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}
