package orders_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/ariefcatur/go-plant-market.git/internal/catalog"
	"github.com/ariefcatur/go-plant-market.git/internal/market"
	"github.com/ariefcatur/go-plant-market.git/internal/orders"
	"github.com/ariefcatur/go-plant-market.git/internal/store"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

func memdb(t *testing.T) *sqlx.DB {
	t.Helper()
	db, err := store.OpenSQLite(context.Background(), ":memory:")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

var ann = market.Identity{Name: "Ann", Email: "ann@plants.test", Image: "https://img.test/ann.png"}

func newOrder(plantID string, qty int) orders.Order {
	return orders.Order{
		Customer: ann,
		PlantID:  plantID,
		Quantity: qty,
		Price:    decimal.NewFromInt(int64(5 * qty)),
		Address:  "12 Fern Street",
	}
}

func TestRepo_CreateGet(t *testing.T) {
	repo := orders.NewRepo(memdb(t))
	ctx := context.Background()

	id, err := repo.Create(ctx, newOrder("p1", 3))
	if err != nil {
		t.Fatal(err)
	}
	o, err := repo.Get(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	if o.Status != orders.StatusPending || o.Quantity != 3 || !o.Price.Equal(decimal.NewFromInt(15)) {
		t.Fatalf("bad order: %+v", o)
	}
	if o.Customer.Email != ann.Email || o.CreatedAt == 0 {
		t.Fatalf("customer/created_at not stored: %+v", o)
	}

	if _, err := repo.Get(ctx, "missing"); !errors.Is(err, market.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

func TestRepo_CreateValidation(t *testing.T) {
	repo := orders.NewRepo(memdb(t))
	ctx := context.Background()

	for name, mut := range map[string]func(*orders.Order){
		"zero qty":   func(o *orders.Order) { o.Quantity = 0 },
		"no plant":   func(o *orders.Order) { o.PlantID = "" },
		"no email":   func(o *orders.Order) { o.Customer.Email = "" },
		"no address": func(o *orders.Order) { o.Address = "  " },
	} {
		o := newOrder("p1", 1)
		mut(&o)
		if _, err := repo.Create(ctx, o); !errors.Is(err, market.ErrValidation) {
			t.Errorf("%s: want ErrValidation, got %v", name, err)
		}
	}
}

func TestRepo_DeleteCancellable(t *testing.T) {
	db := memdb(t)
	repo := orders.NewRepo(db)
	ctx := context.Background()

	id, _ := repo.Create(ctx, newOrder("p1", 2))
	got, err := repo.DeleteCancellable(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	if got.ID != id || got.Quantity != 2 {
		t.Fatalf("deleted row not returned: %+v", got)
	}
	if _, err := repo.Get(ctx, id); !errors.Is(err, market.ErrNotFound) {
		t.Fatalf("order still present: %v", err)
	}
	if _, err := repo.DeleteCancellable(ctx, id); !errors.Is(err, market.ErrNotFound) {
		t.Fatalf("second delete: want ErrNotFound, got %v", err)
	}
}

func TestRepo_DeleteCancellableRefusesDelivered(t *testing.T) {
	repo := orders.NewRepo(memdb(t))
	ctx := context.Background()

	id, _ := repo.Create(ctx, newOrder("p1", 1))
	if err := repo.UpdateStatus(ctx, id, orders.StatusDelivered); err != nil {
		t.Fatal(err)
	}
	if _, err := repo.DeleteCancellable(ctx, id); !errors.Is(err, market.ErrConflict) {
		t.Fatalf("want ErrConflict, got %v", err)
	}
	if o, err := repo.Get(ctx, id); err != nil || o.Status != orders.StatusDelivered {
		t.Fatalf("delivered order must survive: %+v %v", o, err)
	}
}

func TestRepo_DeleteCancellableConcurrentSingleWinner(t *testing.T) {
	repo := orders.NewRepo(memdb(t))
	ctx := context.Background()
	id, _ := repo.Create(ctx, newOrder("p1", 1))

	const n = 8
	errs := make(chan error, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := repo.DeleteCancellable(ctx, id)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	wins := 0
	for err := range errs {
		switch {
		case err == nil:
			wins++
		case errors.Is(err, market.ErrNotFound):
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}
	if wins != 1 {
		t.Fatalf("want exactly one winner, got %d", wins)
	}
}

func TestRepo_RestoreAfterDelete(t *testing.T) {
	repo := orders.NewRepo(memdb(t))
	ctx := context.Background()

	id, _ := repo.Create(ctx, newOrder("p1", 2))
	_ = repo.UpdateStatus(ctx, id, orders.StatusProcessing)
	deleted, err := repo.DeleteCancellable(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	if err := repo.Restore(ctx, deleted); err != nil {
		t.Fatal(err)
	}
	back, err := repo.Get(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	if back.Status != orders.StatusProcessing || back.CreatedAt != deleted.CreatedAt {
		t.Fatalf("restore changed the record: %+v vs %+v", back, deleted)
	}
}

func TestRepo_UpdateStatus(t *testing.T) {
	repo := orders.NewRepo(memdb(t))
	ctx := context.Background()
	id, _ := repo.Create(ctx, newOrder("p1", 1))

	if err := repo.UpdateStatus(ctx, id, orders.StatusProcessing); err != nil {
		t.Fatal(err)
	}
	// replay is a no-op
	if err := repo.UpdateStatus(ctx, id, orders.StatusProcessing); err != nil {
		t.Fatalf("replay: %v", err)
	}
	if err := repo.UpdateStatus(ctx, id, orders.StatusDelivered); err != nil {
		t.Fatal(err)
	}
	if err := repo.UpdateStatus(ctx, id, orders.StatusProcessing); !errors.Is(err, market.ErrConflict) {
		t.Fatalf("delivered -> processing: want ErrConflict, got %v", err)
	}
	if err := repo.UpdateStatus(ctx, id, orders.StatusPending); !errors.Is(err, market.ErrValidation) {
		t.Fatalf("-> pending: want ErrValidation, got %v", err)
	}
	if err := repo.UpdateStatus(ctx, "ghost", orders.StatusDelivered); !errors.Is(err, market.ErrNotFound) {
		t.Fatalf("missing: want ErrNotFound, got %v", err)
	}
}

func TestRepo_ListByCustomer(t *testing.T) {
	repo := orders.NewRepo(memdb(t))
	ctx := context.Background()

	_, _ = repo.Create(ctx, newOrder("p1", 1))
	_, _ = repo.Create(ctx, newOrder("p2", 2))
	other := newOrder("p1", 1)
	other.Customer = market.Identity{Email: "bob@plants.test"}
	_, _ = repo.Create(ctx, other)

	got, err := repo.ListByCustomer(ctx, "ANN@plants.test")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("want 2 orders for ann, got %d", len(got))
	}
}

func TestRepo_ListEnrichedByCustomer(t *testing.T) {
	db := memdb(t)
	repo := orders.NewRepo(db)
	ctx := context.Background()

	plantID, err := catalog.NewRepo(db).Create(ctx, catalog.Product{
		Name: "Peace Lily", Category: "Indoor", Image: "https://img.test/lily.jpg",
		Price: decimal.NewFromInt(5), Quantity: 3, Seller: market.Identity{Email: "sam@plants.test"},
	})
	if err != nil {
		t.Fatal(err)
	}
	_, _ = repo.Create(ctx, newOrder(plantID, 1))
	_, _ = repo.Create(ctx, newOrder("removed-plant", 1))

	got, err := repo.ListEnrichedByCustomer(ctx, ann.Email)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("dangling order dropped: got %d rows", len(got))
	}
	var found, missing int
	for _, e := range got {
		if e.MissingProduct {
			missing++
			if e.PlantID != "removed-plant" || e.Name != "" {
				t.Fatalf("bad dangling row: %+v", e)
			}
			continue
		}
		found++
		if e.Name != "Peace Lily" || e.Category != "Indoor" || e.Image != "https://img.test/lily.jpg" {
			t.Fatalf("join lost attributes: %+v", e)
		}
	}
	if found != 1 || missing != 1 {
		t.Fatalf("found=%d missing=%d", found, missing)
	}
}

func TestRepo_DeleteCancellablePostgresDialect(t *testing.T) {
	mdb, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock new: %v", err)
	}
	defer mdb.Close()
	repo := orders.NewRepo(sqlx.NewDb(mdb, "pgx"))

	cols := []string{"id", "plant_id", "customer_name", "customer_email", "customer_image", "seller_email",
		"quantity", "price", "address", "status", "created_at"}
	mock.ExpectQuery(`DELETE FROM orders\s+WHERE id = \$1 AND status IN \(\$2, \$3\)\s+RETURNING id, plant_id`).
		WithArgs("o1", "pending", "processing").
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow("o1", "p1", "Ann", "ann@plants.test", "", "", 3, "15", "12 Fern Street", "pending", int64(1700000000000)))

	o, err := repo.DeleteCancellable(context.Background(), "o1")
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if o.Quantity != 3 || !o.Price.Equal(decimal.NewFromInt(15)) {
		t.Fatalf("bad row: %+v", o)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestRepo_DeleteIgnoresStatus(t *testing.T) {
	repo := orders.NewRepo(memdb(t))
	ctx := context.Background()

	id, _ := repo.Create(ctx, newOrder("p1", 1))
	_ = repo.UpdateStatus(ctx, id, orders.StatusDelivered)
	if err := repo.Delete(ctx, id); err != nil {
		t.Fatal(err)
	}
	if err := repo.Delete(ctx, id); !errors.Is(err, market.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}
