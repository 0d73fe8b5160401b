package httpx

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ariefcatur/go-plant-market.git/internal/accounts"
	"github.com/ariefcatur/go-plant-market.git/internal/catalog"
	"github.com/ariefcatur/go-plant-market.git/internal/inventory"
	"github.com/ariefcatur/go-plant-market.git/internal/orders"
	"github.com/ariefcatur/go-plant-market.git/internal/reconcile"
	"github.com/ariefcatur/go-plant-market.git/internal/redisx"
	"github.com/ariefcatur/go-plant-market.git/internal/store"
	"github.com/go-chi/chi/v5"
	"github.com/go-redis/redismock/v9"
	"github.com/shopspring/decimal"
)

type fixture struct {
	router *chi.Mux
	mock   redismock.ClientMock
	ledger *inventory.Ledger
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, err := store.OpenSQLite(context.Background(), ":memory:")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = db.Close() })

	rdb, mock := redismock.NewClientMock()
	svc := &reconcile.Service{
		Products: catalog.NewRepo(db),
		Ledger:   inventory.NewLedger(db),
		Orders:   orders.NewRepo(db),
		Accounts: accounts.NewRepo(db),
	}
	r := NewRouter(nil)
	(&Handler{Svc: svc, Idem: &redisx.Idempotency{RDB: rdb}}).Register(r)
	return &fixture{router: r, mock: mock, ledger: inventory.NewLedger(db)}
}

type caller struct{ email, role string }

var (
	ann = caller{"ann@plants.test", "customer"}
	bob = caller{"bob@plants.test", "customer"}
	sam = caller{"sam@plants.test", "seller"}
)

func (f *fixture) do(t *testing.T, c *caller, method, path string, body any, hdr ...string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if c != nil {
		req.Header.Set(HeaderUserEmail, c.email)
		req.Header.Set(HeaderUserRole, c.role)
	}
	for i := 0; i+1 < len(hdr); i += 2 {
		req.Header.Set(hdr[i], hdr[i+1])
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return v
}

func (f *fixture) createPlant(t *testing.T, qty int) string {
	t.Helper()
	rec := f.do(t, &sam, http.MethodPost, "/plants", map[string]any{
		"name": "Monstera", "category": "Indoor", "price": 5, "quantity": qty, "image": "https://img.test/m.jpg",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create plant: %d %s", rec.Code, rec.Body)
	}
	return decode[map[string]string](t, rec)["id"]
}

func TestHealthz(t *testing.T) {
	f := newFixture(t)
	if rec := f.do(t, nil, http.MethodGet, "/healthz", nil); rec.Code != http.StatusOK {
		t.Fatalf("healthz = %d", rec.Code)
	}
}

func TestAuthRoutesNeedIdentity(t *testing.T) {
	f := newFixture(t)
	rec := f.do(t, nil, http.MethodPost, "/orders", PurchaseReq{PlantID: "p", Quantity: 1, Address: "a"})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("want 401, got %d", rec.Code)
	}
}

func TestPlantsPublicReads(t *testing.T) {
	f := newFixture(t)
	id := f.createPlant(t, 4)

	rec := f.do(t, nil, http.MethodGet, "/plants/"+id, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get plant: %d", rec.Code)
	}
	p := decode[catalog.Product](t, rec)
	if p.Seller.Email != sam.email || p.Quantity != 4 {
		t.Fatalf("bad plant: %+v", p)
	}

	rec = f.do(t, nil, http.MethodGet, "/plants?limit=10", nil)
	if rec.Code != http.StatusOK || len(decode[[]catalog.Product](t, rec)) != 1 {
		t.Fatalf("list plants: %d %s", rec.Code, rec.Body)
	}
	if rec := f.do(t, nil, http.MethodGet, "/plants?limit=abc", nil); rec.Code != http.StatusBadRequest {
		t.Fatalf("bad limit: %d", rec.Code)
	}
	rec = f.do(t, nil, http.MethodGet, "/plants/ghost", nil)
	if rec.Code != http.StatusNotFound || decode[errorResp](t, rec).Code != "not_found" {
		t.Fatalf("missing plant: %d %s", rec.Code, rec.Body)
	}
}

func TestPurchaseAndCancel(t *testing.T) {
	f := newFixture(t)
	id := f.createPlant(t, 10)

	rec := f.do(t, &ann, http.MethodPost, "/orders", PurchaseReq{PlantID: id, Quantity: 3, Address: "12 Fern Street"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("purchase: %d %s", rec.Code, rec.Body)
	}
	resp := decode[PurchaseResp](t, rec)
	if !resp.Price.Equal(decimal.NewFromInt(15)) || resp.Status != orders.StatusPending {
		t.Fatalf("bad purchase response: %+v", resp)
	}

	if rec := f.do(t, &bob, http.MethodGet, "/orders/"+resp.OrderID, nil); rec.Code != http.StatusForbidden {
		t.Fatalf("foreign read: %d", rec.Code)
	}
	if rec := f.do(t, &bob, http.MethodDelete, "/orders/"+resp.OrderID, nil); rec.Code != http.StatusForbidden {
		t.Fatalf("foreign cancel: %d", rec.Code)
	}
	if rec := f.do(t, &ann, http.MethodDelete, "/orders/"+resp.OrderID, nil); rec.Code != http.StatusNoContent {
		t.Fatalf("cancel: %d %s", rec.Code, rec.Body)
	}
	if rec := f.do(t, &ann, http.MethodDelete, "/orders/"+resp.OrderID, nil); rec.Code != http.StatusNotFound {
		t.Fatalf("second cancel: %d", rec.Code)
	}
	if q, _ := f.ledger.Quantity(context.Background(), id); q != 10 {
		t.Fatalf("stock = %d, want 10", q)
	}
}

func TestPurchaseInsufficientStock(t *testing.T) {
	f := newFixture(t)
	id := f.createPlant(t, 1)

	rec := f.do(t, &ann, http.MethodPost, "/orders", PurchaseReq{PlantID: id, Quantity: 2, Address: "12 Fern Street"})
	if rec.Code != http.StatusConflict || decode[errorResp](t, rec).Code != "insufficient_stock" {
		t.Fatalf("want 409 insufficient_stock, got %d %s", rec.Code, rec.Body)
	}
}

func TestPurchaseIdempotencyKey(t *testing.T) {
	f := newFixture(t)
	id := f.createPlant(t, 10)
	key := "idem:purchase:ann@plants.test:k1"

	f.mock.ExpectSetNX(key, redisx.IdemInFlight, redisx.TTLInFlight).SetVal(true)
	f.mock.Regexp().ExpectSet(key, `.+`, redisx.TTLIdempotency).SetVal("OK")

	body := PurchaseReq{PlantID: id, Quantity: 2, Address: "12 Fern Street"}
	rec := f.do(t, &ann, http.MethodPost, "/orders", body, HeaderIdempotencyKey, "k1")
	if rec.Code != http.StatusCreated {
		t.Fatalf("first purchase: %d %s", rec.Code, rec.Body)
	}
	first := decode[PurchaseResp](t, rec)

	f.mock.ExpectSetNX(key, redisx.IdemInFlight, redisx.TTLInFlight).SetVal(false)
	f.mock.ExpectGet(key).SetVal(first.OrderID)

	rec = f.do(t, &ann, http.MethodPost, "/orders", body, HeaderIdempotencyKey, "k1")
	if rec.Code != http.StatusOK {
		t.Fatalf("replay: %d %s", rec.Code, rec.Body)
	}
	again := decode[PurchaseResp](t, rec)
	if again.OrderID != first.OrderID || !again.Idempotent {
		t.Fatalf("replay returned %+v, want %+v", again, first)
	}
	if q, _ := f.ledger.Quantity(context.Background(), id); q != 8 {
		t.Fatalf("stock = %d, replay must not buy twice", q)
	}
	if err := f.mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestPurchaseIdempotencyInFlight(t *testing.T) {
	f := newFixture(t)
	id := f.createPlant(t, 10)
	key := "idem:purchase:ann@plants.test:k2"

	f.mock.ExpectSetNX(key, redisx.IdemInFlight, redisx.TTLInFlight).SetVal(false)
	f.mock.ExpectGet(key).SetVal(redisx.IdemInFlight)

	rec := f.do(t, &ann, http.MethodPost, "/orders", PurchaseReq{PlantID: id, Quantity: 1, Address: "a"}, HeaderIdempotencyKey, "k2")
	if rec.Code != http.StatusConflict {
		t.Fatalf("want 409, got %d %s", rec.Code, rec.Body)
	}
}

func TestPurchaseFailureReleasesIdempotencyKey(t *testing.T) {
	f := newFixture(t)
	id := f.createPlant(t, 1)
	key := "idem:purchase:ann@plants.test:k3"

	f.mock.ExpectSetNX(key, redisx.IdemInFlight, redisx.TTLInFlight).SetVal(true)
	f.mock.ExpectDel(key).SetVal(1)

	rec := f.do(t, &ann, http.MethodPost, "/orders", PurchaseReq{PlantID: id, Quantity: 5, Address: "a"}, HeaderIdempotencyKey, "k3")
	if rec.Code != http.StatusConflict {
		t.Fatalf("want 409, got %d", rec.Code)
	}
	if err := f.mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestAdjustQuantity(t *testing.T) {
	f := newFixture(t)
	id := f.createPlant(t, 2)

	rec := f.do(t, &sam, http.MethodPatch, "/plants/quantity/"+id, AdjustQuantityReq{Delta: 5, Direction: "increase"})
	if rec.Code != http.StatusOK || decode[AdjustQuantityResp](t, rec).Quantity != 7 {
		t.Fatalf("restock: %d %s", rec.Code, rec.Body)
	}
	rec = f.do(t, &sam, http.MethodPatch, "/plants/"+id+"/quantity", AdjustQuantityReq{Delta: 2, Direction: "decrease"})
	if rec.Code != http.StatusOK || decode[AdjustQuantityResp](t, rec).Quantity != 5 {
		t.Fatalf("alias route: %d %s", rec.Code, rec.Body)
	}
	rec = f.do(t, &sam, http.MethodPatch, "/plants/"+id+"/quantity", AdjustQuantityReq{Delta: 1, Direction: "increse"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("misspelt direction: %d", rec.Code)
	}
	rec = f.do(t, &ann, http.MethodPatch, "/plants/"+id+"/quantity", AdjustQuantityReq{Delta: 1, Direction: "decrease"})
	if rec.Code != http.StatusForbidden {
		t.Fatalf("non-seller: %d", rec.Code)
	}
}

func TestCustomerOrders(t *testing.T) {
	f := newFixture(t)
	id := f.createPlant(t, 5)
	f.do(t, &ann, http.MethodPost, "/orders", PurchaseReq{PlantID: id, Quantity: 1, Address: "a"})

	rec := f.do(t, &ann, http.MethodGet, "/customer-orders/"+ann.email, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list: %d %s", rec.Code, rec.Body)
	}
	got := decode[CustomerOrdersResp](t, rec)
	if len(got.Orders) != 1 || got.Orders[0].Name != "Monstera" || len(got.Warnings) != 0 {
		t.Fatalf("bad listing: %+v", got)
	}
	if rec := f.do(t, &bob, http.MethodGet, "/customer-orders/"+ann.email, nil); rec.Code != http.StatusForbidden {
		t.Fatalf("foreign listing: %d", rec.Code)
	}
}

func TestUpsertUser(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, nil, http.MethodPost, "/users/ann@plants.test", UpsertUserReq{Name: "Ann"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: %d %s", rec.Code, rec.Body)
	}
	rec = f.do(t, nil, http.MethodPost, "/users/ann@plants.test", UpsertUserReq{Name: "Other"})
	if rec.Code != http.StatusOK {
		t.Fatalf("upsert existing: %d", rec.Code)
	}
	if a := decode[accounts.Account](t, rec); a.Name != "Ann" || a.Role != "customer" {
		t.Fatalf("first write should win: %+v", a)
	}
}

func TestBadJSON(t *testing.T) {
	f := newFixture(t)
	req := httptest.NewRequest(http.MethodPost, "/orders", bytes.NewBufferString("{"))
	req.Header.Set(HeaderUserEmail, ann.email)
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest || decode[errorResp](t, rec).Code != "validation" {
		t.Fatalf("want 400 validation, got %d %s", rec.Code, rec.Body)
	}
}
