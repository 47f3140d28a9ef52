package store

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/safar/cafe-pos/internal/database"
	"github.com/safar/cafe-pos/internal/models"
	"github.com/shopspring/decimal"
)

func createTestSale(t *testing.T, db *sql.DB, product *models.Product, qty int) *models.Sale {
	t.Helper()
	ctx := context.Background()

	subtotal := product.Price.Mul(decimal.NewFromInt(int64(qty)))
	sale := &models.Sale{
		Total:         subtotal,
		Subtotal:      subtotal,
		Discount:      decimal.Zero,
		PaymentMethod: models.PaymentCash,
		TotalItems:    qty,
		Status:        models.SaleStatusCompleted,
	}
	if err := InsertSale(ctx, db, sale); err != nil {
		t.Fatalf("Insert sale: %v", err)
	}

	err := InsertSaleItems(ctx, db, []models.SaleItem{{
		SaleID:       sale.ID,
		ProductID:    product.ID,
		ProductName:  product.Name,
		UnitPrice:    product.Price,
		Quantity:     qty,
		Subtotal:     subtotal,
		ItemDiscount: decimal.Zero,
		Total:        subtotal,
	}})
	if err != nil {
		t.Fatalf("Insert sale items: %v", err)
	}

	return sale
}

func setSoldAt(t *testing.T, db *sql.DB, id uuid.UUID, at time.Time) {
	t.Helper()
	if _, err := db.Exec(`UPDATE sales SET sold_at = $1 WHERE id = $2`, at, id); err != nil {
		t.Fatalf("Set sold_at: %v", err)
	}
}

func TestInsertAndGetSale(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()

	product, err := CreateProduct(ctx, db, NewProduct{Name: "Cappuccino", Price: decimal.RequireFromString("5.00"), Quantity: 10})
	if err != nil {
		t.Fatalf("Create product: %v", err)
	}

	sale := createTestSale(t, db, product, 2)
	if sale.ID == uuid.Nil {
		t.Fatal("Sale ID should be assigned")
	}
	if sale.SoldAt.IsZero() {
		t.Error("sold_at should be filled by the database")
	}

	got, err := GetSale(ctx, db, sale.ID)
	if err != nil {
		t.Fatalf("Get sale: %v", err)
	}
	if !got.Total.Equal(decimal.RequireFromString("10.00")) || got.TotalItems != 2 {
		t.Errorf("Unexpected sale: %+v", got)
	}

	items, err := GetSaleItems(ctx, db, sale.ID)
	if err != nil {
		t.Fatalf("Get sale items: %v", err)
	}
	if len(items) != 1 || items[0].ProductName != "Cappuccino" || !items[0].Subtotal.Equal(got.Subtotal) {
		t.Errorf("Unexpected items: %+v", items)
	}

	if _, err := GetSale(ctx, db, uuid.New()); !errors.Is(err, database.ErrSaleNotFound) {
		t.Errorf("Expected sale not found, got %v", err)
	}
}

func TestSaleHeaderCheckRejectsInconsistentTotal(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	sale := &models.Sale{
		Total:         decimal.RequireFromString("9.00"),
		Subtotal:      decimal.RequireFromString("10.00"),
		Discount:      decimal.Zero,
		PaymentMethod: models.PaymentCard,
		TotalItems:    1,
		Status:        models.SaleStatusCompleted,
	}

	err := InsertSale(context.Background(), db, sale)
	if !database.IsCheckViolation(err) {
		t.Errorf("Expected check violation, got %v", err)
	}
}

func TestSetSaleStatusInTransaction(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()

	product, err := CreateProduct(ctx, db, NewProduct{Name: "Mocha", Price: decimal.RequireFromString("4.00"), Quantity: 5})
	if err != nil {
		t.Fatalf("Create product: %v", err)
	}
	sale := createTestSale(t, db, product, 1)

	err = database.WithTransaction(ctx, db, database.DefaultTxOptions(), func(tx *sql.Tx) error {
		locked, err := GetSaleForUpdate(ctx, tx, sale.ID)
		if err != nil {
			return err
		}
		if locked.Status != models.SaleStatusCompleted {
			t.Errorf("Expected completed, got %s", locked.Status)
		}
		return SetSaleStatus(ctx, tx, sale.ID, models.SaleStatusCancelled)
	})
	if err != nil {
		t.Fatalf("Cancel sale: %v", err)
	}

	got, err := GetSale(ctx, db, sale.ID)
	if err != nil {
		t.Fatalf("Get sale: %v", err)
	}
	if got.Status != models.SaleStatusCancelled {
		t.Errorf("Expected cancelled, got %s", got.Status)
	}
}

func TestListSalesCursor(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()

	product, err := CreateProduct(ctx, db, NewProduct{Name: "Americano", Price: decimal.RequireFromString("2.00"), Quantity: 100})
	if err != nil {
		t.Fatalf("Create product: %v", err)
	}

	for i := 0; i < 15; i++ {
		createTestSale(t, db, product, 1)
	}

	page1, err := ListSalesCursor(ctx, db, models.SaleStatusCompleted, "", 10)
	if err != nil {
		t.Fatalf("List sales page 1: %v", err)
	}
	if !page1.HasMore || page1.NextCursor == "" {
		t.Error("Page 1 should have more results and a cursor")
	}

	page2, err := ListSalesCursor(ctx, db, models.SaleStatusCompleted, page1.NextCursor, 10)
	if err != nil {
		t.Fatalf("List sales page 2: %v", err)
	}
	if page2.HasMore {
		t.Error("Page 2 should not have more results")
	}
	if n := len(page2.Items.([]models.Sale)); n != 5 {
		t.Errorf("Expected 5 sales on page 2, got %d", n)
	}
}

func TestCompletedLinesRespectRangeAndStatus(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()

	product, err := CreateProduct(ctx, db, NewProduct{Name: "Brownie", Price: decimal.RequireFromString("3.00"), Quantity: 50})
	if err != nil {
		t.Fatalf("Create product: %v", err)
	}

	from := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 0, 1)

	atEnd := createTestSale(t, db, product, 1)
	setSoldAt(t, db, atEnd.ID, to.Add(-time.Millisecond))

	afterEnd := createTestSale(t, db, product, 2)
	setSoldAt(t, db, afterEnd.ID, to)

	cancelled := createTestSale(t, db, product, 3)
	setSoldAt(t, db, cancelled.ID, from.Add(time.Hour))
	if err := SetSaleStatus(ctx, db, cancelled.ID, models.SaleStatusCancelled); err != nil {
		t.Fatalf("Cancel sale: %v", err)
	}

	lines, err := ListCompletedLines(ctx, db, from, to)
	if err != nil {
		t.Fatalf("List completed lines: %v", err)
	}

	if len(lines) != 1 || lines[0].Quantity != 1 {
		t.Errorf("Expected only the 23:59:59.999 line, got %+v", lines)
	}

	stats, err := GetSalesStats(ctx, db, from, to)
	if err != nil {
		t.Fatalf("Sales stats: %v", err)
	}
	if stats.SaleCount != 1 || !stats.Revenue.Equal(decimal.RequireFromString("3.00")) || stats.UnitsSold != 1 {
		t.Errorf("Unexpected stats: %+v", stats)
	}

	all, err := GetSalesStats(ctx, db, time.Time{}, time.Time{})
	if err != nil {
		t.Fatalf("All-time stats: %v", err)
	}
	if all.SaleCount != 2 {
		t.Errorf("Expected 2 completed sales overall, got %d", all.SaleCount)
	}
}

func TestProbeAndDiagnosticsOnCurrentSchema(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()

	exists, err := SalesRelationExists(ctx, db)
	if err != nil {
		t.Fatalf("Probe: %v", err)
	}
	if !exists {
		t.Error("Expected the sales relation to exist")
	}

	d, err := Diagnose(ctx, db)
	if err != nil {
		t.Fatalf("Diagnose: %v", err)
	}
	if !d.SalesExists || !d.ItemsExists || !d.JoinWorks {
		t.Errorf("Unexpected diagnostics: %+v", d)
	}
}

func TestLegacySchemaProbeAndLines(t *testing.T) {
	db, cleanup := setupTestDB(t, "000001")
	defer cleanup()

	ctx := context.Background()

	_, err := db.Exec(`
		CREATE TABLE sale_items (
			id           SERIAL PRIMARY KEY,
			product_id   BIGINT        NOT NULL,
			product_name TEXT          NOT NULL,
			unit_price   NUMERIC(12,2) NOT NULL,
			quantity     INTEGER       NOT NULL,
			subtotal     NUMERIC(12,2) NOT NULL
		);
		INSERT INTO sale_items (product_id, product_name, unit_price, quantity, subtotal) VALUES
			(1, 'Espresso', 2.50, 2, 5.00),
			(2, 'Croissant', 3.00, 1, 3.00);
	`)
	if err != nil {
		t.Fatalf("Create legacy table: %v", err)
	}

	exists, err := SalesRelationExists(ctx, db)
	if err != nil {
		t.Fatalf("Probe: %v", err)
	}
	if exists {
		t.Error("Expected the sales relation to be missing")
	}

	lines, err := ListLegacyLines(ctx, db)
	if err != nil {
		t.Fatalf("List legacy lines: %v", err)
	}
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(l.Amount)
	}
	if len(lines) != 2 || !total.Equal(decimal.RequireFromString("8.00")) {
		t.Errorf("Unexpected legacy lines: %+v", lines)
	}

	d, err := Diagnose(ctx, db)
	if err != nil {
		t.Fatalf("Diagnose: %v", err)
	}
	if d.SalesExists || !d.ItemsExists || d.ItemsCount != 2 || d.JoinWorks {
		t.Errorf("Unexpected diagnostics: %+v", d)
	}
}
