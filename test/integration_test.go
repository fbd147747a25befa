//go:build integration

package test

import (
	"context"
	"database/sql"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/joao-fontenele/storefront/internal/articles"
	"github.com/joao-fontenele/storefront/internal/auth"
	"github.com/joao-fontenele/storefront/internal/cart"
	"github.com/joao-fontenele/storefront/internal/catalog"
	"github.com/joao-fontenele/storefront/internal/customers"
	"github.com/joao-fontenele/storefront/internal/domain"
	"github.com/joao-fontenele/storefront/internal/messaging"
	"github.com/joao-fontenele/storefront/internal/orders"
)

type fixture struct {
	db        *sql.DB
	customers *customers.CustomerRepository
	catalog   *catalog.CatalogRepository
	carts     *cart.CartRepository
	orders    *orders.OrderRepository
	customer  *domain.Customer
	address   *domain.Address
	productP  *domain.Product
	productQ  *domain.Product
}

// newFixture seeds a customer with an address and two products:
// P priced 100 and Q priced 50.
func newFixture(ctx context.Context, t *testing.T, connStr string) *fixture {
	t.Helper()

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	f := &fixture{
		db:        db,
		customers: customers.NewCustomerRepository(db),
		catalog:   catalog.NewCatalogRepository(db),
		carts:     cart.NewCartRepository(db),
		orders:    orders.NewOrderRepository(db),
	}

	f.customer, err = f.customers.Create(ctx, "ada@example.com", "secret", "Ada", "Lovelace")
	if err != nil {
		t.Fatalf("failed to create customer: %v", err)
	}

	f.address = &domain.Address{
		CustomerID: f.customer.ID,
		Street:     "12 Analytical Way",
		City:       "London",
		Zip:        "N1 7AA",
	}
	if err := f.customers.CreateAddress(ctx, f.address); err != nil {
		t.Fatalf("failed to create address: %v", err)
	}

	collection, err := f.catalog.CreateCollection(ctx, "Default")
	if err != nil {
		t.Fatalf("failed to create collection: %v", err)
	}

	f.productP = &domain.Product{CollectionID: collection.ID, Title: "Product P", Price: 100, Inventory: 10}
	if err := f.catalog.CreateProduct(ctx, f.productP); err != nil {
		t.Fatalf("failed to create product P: %v", err)
	}

	f.productQ = &domain.Product{CollectionID: collection.ID, Title: "Product Q", Price: 50, Inventory: 10}
	if err := f.catalog.CreateProduct(ctx, f.productQ); err != nil {
		t.Fatalf("failed to create product Q: %v", err)
	}

	return f
}

func TestCartCreationIsIdempotent(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	pg := SetupPostgres(ctx, t)
	defer pg.Cleanup()
	f := newFixture(ctx, t, pg.ConnStr)

	first, created, err := f.carts.GetOrCreateForUser(ctx, f.customer.ID)
	if err != nil {
		t.Fatalf("failed to create cart: %v", err)
	}
	if !created {
		t.Error("expected first call to create the cart")
	}

	second, created, err := f.carts.GetOrCreateForUser(ctx, f.customer.ID)
	if err != nil {
		t.Fatalf("failed to get cart: %v", err)
	}
	if created {
		t.Error("expected second call to return the existing cart")
	}
	if first.ID != second.ID {
		t.Errorf("expected the same cart, got %s and %s", first.ID, second.ID)
	}
}

func TestAddItemMergesWithoutRepricing(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	pg := SetupPostgres(ctx, t)
	defer pg.Cleanup()
	f := newFixture(ctx, t, pg.ConnStr)

	c, _, err := f.carts.GetOrCreateForUser(ctx, f.customer.ID)
	if err != nil {
		t.Fatalf("failed to create cart: %v", err)
	}

	first, err := f.carts.AddItem(ctx, c.ID, f.productP.ID, 2)
	if err != nil {
		t.Fatalf("failed to add item: %v", err)
	}
	if first.Quantity != 2 || first.Price != 100 {
		t.Fatalf("unexpected first line: %+v", first)
	}

	f.productP.Price = 999
	if err := f.catalog.UpdateProduct(ctx, f.productP); err != nil {
		t.Fatalf("failed to update product: %v", err)
	}

	merged, err := f.carts.AddItem(ctx, c.ID, f.productP.ID, 3)
	if err != nil {
		t.Fatalf("failed to merge item: %v", err)
	}
	if merged.ID != first.ID {
		t.Errorf("expected the existing line to be merged, got a new line %s", merged.ID)
	}
	if merged.Quantity != 5 {
		t.Errorf("expected merged quantity 5, got %d", merged.Quantity)
	}
	if merged.Price != 100 {
		t.Errorf("expected captured price 100 to survive the merge, got %d", merged.Price)
	}

	loaded, err := f.carts.GetByID(ctx, c.ID)
	if err != nil {
		t.Fatalf("failed to load cart: %v", err)
	}
	if len(loaded.Items) != 1 {
		t.Errorf("expected a single line per product, got %d", len(loaded.Items))
	}
	if loaded.Total != 500 {
		t.Errorf("expected cart total 500, got %d", loaded.Total)
	}
}

func TestConcurrentAddsKeepOneLinePerProduct(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	pg := SetupPostgres(ctx, t)
	defer pg.Cleanup()
	f := newFixture(ctx, t, pg.ConnStr)

	c, _, err := f.carts.GetOrCreateForUser(ctx, f.customer.ID)
	if err != nil {
		t.Fatalf("failed to create cart: %v", err)
	}

	const workers = 8
	var wg sync.WaitGroup
	errs := make(chan error, workers)

	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := f.carts.AddItem(ctx, c.ID, f.productP.ID, 1); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Errorf("concurrent add failed: %v", err)
	}

	loaded, err := f.carts.GetByID(ctx, c.ID)
	if err != nil {
		t.Fatalf("failed to load cart: %v", err)
	}
	if len(loaded.Items) != 1 {
		t.Fatalf("expected a single line, got %d", len(loaded.Items))
	}
	if loaded.Items[0].Quantity != workers {
		t.Errorf("expected quantity %d, got %d", workers, loaded.Items[0].Quantity)
	}
}

func TestPlacementFreezesTotalAndDestroysCart(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	pg := SetupPostgres(ctx, t)
	defer pg.Cleanup()
	f := newFixture(ctx, t, pg.ConnStr)

	c, _, err := f.carts.GetOrCreateForUser(ctx, f.customer.ID)
	if err != nil {
		t.Fatalf("failed to create cart: %v", err)
	}
	if _, err := f.carts.AddItem(ctx, c.ID, f.productP.ID, 2); err != nil {
		t.Fatalf("failed to add product P: %v", err)
	}
	if _, err := f.carts.AddItem(ctx, c.ID, f.productQ.ID, 1); err != nil {
		t.Fatalf("failed to add product Q: %v", err)
	}

	// Live price changes after the lines were captured must not affect
	// the order total.
	f.productP.Price = 7777
	if err := f.catalog.UpdateProduct(ctx, f.productP); err != nil {
		t.Fatalf("failed to update product: %v", err)
	}

	order, err := f.orders.Place(ctx, f.customer.ID, c.ID, f.address.ID)
	if err != nil {
		t.Fatalf("failed to place order: %v", err)
	}

	if order.Status != domain.OrderStatusPending {
		t.Errorf("expected status pending, got %s", order.Status)
	}
	if order.Total != 250 {
		t.Errorf("expected frozen total 250, got %d", order.Total)
	}
	if len(order.Items) != 2 {
		t.Fatalf("expected 2 order items, got %d", len(order.Items))
	}
	if order.ShippingAddress.ID != f.address.ID {
		t.Errorf("expected shipping address %s, got %s", f.address.ID, order.ShippingAddress.ID)
	}

	gone, err := f.carts.GetByID(ctx, c.ID)
	if err != nil {
		t.Fatalf("failed to query cart: %v", err)
	}
	if gone != nil {
		t.Error("expected the cart to be destroyed by placement")
	}

	stored, err := f.orders.GetByID(ctx, order.ID)
	if err != nil {
		t.Fatalf("failed to fetch order: %v", err)
	}
	if stored == nil {
		t.Fatal("order not found after placement")
	}
	if stored.Total != 250 {
		t.Errorf("expected stored total 250, got %d", stored.Total)
	}
}

func TestPlacementRejectsEmptyCart(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	pg := SetupPostgres(ctx, t)
	defer pg.Cleanup()
	f := newFixture(ctx, t, pg.ConnStr)

	c, _, err := f.carts.GetOrCreateForUser(ctx, f.customer.ID)
	if err != nil {
		t.Fatalf("failed to create cart: %v", err)
	}

	_, err = f.orders.Place(ctx, f.customer.ID, c.ID, f.address.ID)
	if domain.ErrorCode(err) != domain.EInvalid {
		t.Errorf("expected invalid error for empty cart, got %v", err)
	}

	still, err := f.carts.GetByID(ctx, c.ID)
	if err != nil {
		t.Fatalf("failed to query cart: %v", err)
	}
	if still == nil {
		t.Error("expected the cart to survive a rejected placement")
	}
}

func TestConcurrentPlacementYieldsOneOrder(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	pg := SetupPostgres(ctx, t)
	defer pg.Cleanup()
	f := newFixture(ctx, t, pg.ConnStr)

	c, _, err := f.carts.GetOrCreateForUser(ctx, f.customer.ID)
	if err != nil {
		t.Fatalf("failed to create cart: %v", err)
	}
	if _, err := f.carts.AddItem(ctx, c.ID, f.productP.ID, 2); err != nil {
		t.Fatalf("failed to add item: %v", err)
	}

	const racers = 4
	var wg sync.WaitGroup
	results := make(chan error, racers)

	for range racers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.orders.Place(ctx, f.customer.ID, c.ID, f.address.ID)
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	var placed, rejected int
	for err := range results {
		switch {
		case err == nil:
			placed++
		case domain.ErrorCode(err) == domain.ENotFound:
			rejected++
		default:
			t.Errorf("unexpected placement error: %v", err)
		}
	}

	if placed != 1 {
		t.Errorf("expected exactly one successful placement, got %d", placed)
	}
	if rejected != racers-1 {
		t.Errorf("expected %d losers to see a missing cart, got %d", racers-1, rejected)
	}

	all, err := f.orders.List(ctx, f.customer.ID)
	if err != nil {
		t.Fatalf("failed to list orders: %v", err)
	}
	if len(all) != 1 {
		t.Errorf("expected one order in total, got %d", len(all))
	}
}

func TestOrderOwnershipIsolation(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	pg := SetupPostgres(ctx, t)
	defer pg.Cleanup()
	f := newFixture(ctx, t, pg.ConnStr)

	c, _, err := f.carts.GetOrCreateForUser(ctx, f.customer.ID)
	if err != nil {
		t.Fatalf("failed to create cart: %v", err)
	}
	if _, err := f.carts.AddItem(ctx, c.ID, f.productP.ID, 1); err != nil {
		t.Fatalf("failed to add item: %v", err)
	}

	order, err := f.orders.Place(ctx, f.customer.ID, c.ID, f.address.ID)
	if err != nil {
		t.Fatalf("failed to place order: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	handler, err := orders.NewHandler(f.orders, nil, logger)
	if err != nil {
		t.Fatalf("failed to create handler: %v", err)
	}

	t.Run("owner reads their order", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/orders/"+order.ID, nil)
		req.SetPathValue("id", order.ID)
		req = req.WithContext(auth.WithActor(req.Context(), auth.Actor{ID: f.customer.ID}))
		rec := httptest.NewRecorder()

		handler.HandleGet(rec, req)

		if rec.Code != http.StatusOK {
			t.Errorf("expected status 200, got %d", rec.Code)
		}
	})

	t.Run("stranger sees not found", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/orders/"+order.ID, nil)
		req.SetPathValue("id", order.ID)
		req = req.WithContext(auth.WithActor(req.Context(), auth.Actor{ID: "someone-else"}))
		rec := httptest.NewRecorder()

		handler.HandleGet(rec, req)

		if rec.Code != http.StatusNotFound {
			t.Errorf("expected status 404 for non-owned order, got %d", rec.Code)
		}
	})

	t.Run("admin reads any order", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/orders/"+order.ID, nil)
		req.SetPathValue("id", order.ID)
		req = req.WithContext(auth.WithActor(req.Context(), auth.Actor{ID: "admin", Admin: true}))
		rec := httptest.NewRecorder()

		handler.HandleGet(rec, req)

		if rec.Code != http.StatusOK {
			t.Errorf("expected status 200 for admin, got %d", rec.Code)
		}
	})
}

func TestCartOwnershipIsolation(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	pg := SetupPostgres(ctx, t)
	defer pg.Cleanup()
	f := newFixture(ctx, t, pg.ConnStr)

	c, _, err := f.carts.GetOrCreateForUser(ctx, f.customer.ID)
	if err != nil {
		t.Fatalf("failed to create cart: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	handler := cart.NewHandler(f.carts, logger)

	t.Run("stranger is forbidden", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/carts/"+c.ID, nil)
		req.SetPathValue("id", c.ID)
		req = req.WithContext(auth.WithActor(req.Context(), auth.Actor{ID: "someone-else"}))
		rec := httptest.NewRecorder()

		handler.HandleGet(rec, req)

		if rec.Code != http.StatusForbidden {
			t.Errorf("expected status 403, got %d", rec.Code)
		}
	})

	t.Run("missing cart is not found", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/carts/00000000-0000-0000-0000-000000000000", nil)
		req.SetPathValue("id", "00000000-0000-0000-0000-000000000000")
		req = req.WithContext(auth.WithActor(req.Context(), auth.Actor{ID: f.customer.ID}))
		rec := httptest.NewRecorder()

		handler.HandleGet(rec, req)

		if rec.Code != http.StatusNotFound {
			t.Errorf("expected status 404, got %d", rec.Code)
		}
	})
}

func TestPlacementAddressChecks(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	pg := SetupPostgres(ctx, t)
	defer pg.Cleanup()
	f := newFixture(ctx, t, pg.ConnStr)

	other, err := f.customers.Create(ctx, "grace@example.com", "secret", "Grace", "Hopper")
	if err != nil {
		t.Fatalf("failed to create customer: %v", err)
	}
	otherAddress := &domain.Address{CustomerID: other.ID, Street: "1 Navy St", City: "Arlington", Zip: "22201"}
	if err := f.customers.CreateAddress(ctx, otherAddress); err != nil {
		t.Fatalf("failed to create address: %v", err)
	}

	c, _, err := f.carts.GetOrCreateForUser(ctx, f.customer.ID)
	if err != nil {
		t.Fatalf("failed to create cart: %v", err)
	}
	if _, err := f.carts.AddItem(ctx, c.ID, f.productP.ID, 1); err != nil {
		t.Fatalf("failed to add item: %v", err)
	}

	t.Run("missing address", func(t *testing.T) {
		_, err := f.orders.Place(ctx, f.customer.ID, c.ID, "00000000-0000-0000-0000-000000000000")
		if domain.ErrorCode(err) != domain.ENotFound {
			t.Errorf("expected not found for missing address, got %v", err)
		}
	})

	t.Run("another customer's address", func(t *testing.T) {
		_, err := f.orders.Place(ctx, f.customer.ID, c.ID, otherAddress.ID)
		if domain.ErrorCode(err) != domain.EForbidden {
			t.Errorf("expected forbidden for non-owned address, got %v", err)
		}
	})

	t.Run("cart is untouched after rejections", func(t *testing.T) {
		still, err := f.carts.GetByID(ctx, c.ID)
		if err != nil {
			t.Fatalf("failed to query cart: %v", err)
		}
		if still == nil || len(still.Items) != 1 {
			t.Error("expected the cart and its line to survive")
		}
	})
}

func TestOrderPlacedEventRoundTrip(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	brokers, cleanup := SetupKafka(ctx, t)
	defer cleanup()

	producer := messaging.NewProducer(brokers, messaging.TopicOrderPlaced,
		messaging.WithBatchTimeout(10*time.Millisecond),
	)
	defer func() { _ = producer.Close() }()

	event := domain.OrderPlacedEvent{
		OrderID:       "order-1",
		CustomerID:    "cust-1",
		CustomerEmail: "ada@example.com",
		Items:         []domain.OrderItem{{ProductID: "p", Quantity: 2, Price: 100}},
		Total:         200,
		PlacedAt:      time.Now().UTC(),
	}
	if err := producer.Publish(ctx, event.OrderID, event); err != nil {
		t.Fatalf("failed to publish event: %v", err)
	}

	consumer := messaging.NewConsumer(brokers, messaging.TopicOrderPlaced, "test-group",
		messaging.WithStartOffset(kafka.FirstOffset),
	)
	defer func() { _ = consumer.Close() }()

	received := make(chan domain.OrderPlacedEvent, 1)
	consumeCtx, stop := context.WithCancel(ctx)
	defer stop()

	go func() {
		_ = consumer.Consume(consumeCtx, func(ctx context.Context, payload []byte) error {
			var got domain.OrderPlacedEvent
			if err := json.Unmarshal(payload, &got); err != nil {
				return err
			}
			received <- got
			return nil
		})
	}()

	select {
	case got := <-received:
		if got.OrderID != event.OrderID {
			t.Errorf("expected order id %s, got %s", event.OrderID, got.OrderID)
		}
		if got.Total != 200 {
			t.Errorf("expected total 200, got %d", got.Total)
		}
	case <-time.After(time.Minute):
		t.Fatal("timed out waiting for the event")
	}
}

func TestArticlePublishAndSearch(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	client, cleanup := SetupElasticsearch(ctx, t)
	defer cleanup()

	service := articles.NewService(client, "articles-integration")

	doc := json.RawMessage(`{"type":"doc","content":[{"type":"paragraph","content":[{"type":"text","text":"the analytical engine weaves algebraic patterns"}]}]}`)
	published, err := service.Publish(ctx, "On the Engine", doc)
	if err != nil {
		t.Fatalf("failed to publish article: %v", err)
	}
	if published.ID == "" {
		t.Fatal("expected the article to get an id")
	}

	fetched, err := service.GetByID(ctx, published.ID)
	if err != nil {
		t.Fatalf("failed to fetch article: %v", err)
	}
	if fetched.Title != "On the Engine" {
		t.Errorf("unexpected title: %s", fetched.Title)
	}

	// The index is refreshed asynchronously; poll briefly before
	// asserting on search results.
	var results []domain.Article
	deadline := time.Now().Add(30 * time.Second)
	for time.Now().Before(deadline) {
		results, err = service.Search(ctx, "analytical engine")
		if err != nil {
			t.Fatalf("failed to search: %v", err)
		}
		if len(results) > 0 {
			break
		}
		time.Sleep(time.Second)
	}

	if len(results) == 0 {
		t.Fatal("expected the article to be searchable")
	}
	if results[0].ID != published.ID {
		t.Errorf("expected hit %s, got %s", published.ID, results[0].ID)
	}

	if _, err := service.GetByID(ctx, "does-not-exist"); domain.ErrorCode(err) != domain.ENotFound {
		t.Errorf("expected not found, got %v", err)
	}
}

func TestRegistrationAndLogin(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	pg := SetupPostgres(ctx, t)
	defer pg.Cleanup()
	f := newFixture(ctx, t, pg.ConnStr)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	secret := []byte("integration-secret")
	handler := customers.NewHandler(f.customers, secret, logger)

	t.Run("duplicate email conflicts", func(t *testing.T) {
		body := `{"email":"ada@example.com","password":"other","first_name":"A","last_name":"L"}`
		req := httptest.NewRequest(http.MethodPost, "/customers", strings.NewReader(body))
		rec := httptest.NewRecorder()

		handler.HandleRegister(rec, req)

		if rec.Code != http.StatusConflict {
			t.Errorf("expected status 409, got %d", rec.Code)
		}
	})

	t.Run("valid credentials yield a usable token", func(t *testing.T) {
		body := `{"email":"ada@example.com","password":"secret"}`
		req := httptest.NewRequest(http.MethodPost, "/customers/login", strings.NewReader(body))
		rec := httptest.NewRecorder()

		handler.HandleLogin(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
		}

		var resp struct {
			Token string `json:"token"`
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}

		meReq := httptest.NewRequest(http.MethodGet, "/customers/me", nil)
		meReq.Header.Set("Authorization", "Bearer "+resp.Token)
		meRec := httptest.NewRecorder()

		auth.Require(secret, handler.HandleMe)(meRec, meReq)

		if meRec.Code != http.StatusOK {
			t.Errorf("expected status 200, got %d", meRec.Code)
		}
	})

	t.Run("wrong password is unauthorized", func(t *testing.T) {
		body := `{"email":"ada@example.com","password":"wrong"}`
		req := httptest.NewRequest(http.MethodPost, "/customers/login", strings.NewReader(body))
		rec := httptest.NewRecorder()

		handler.HandleLogin(rec, req)

		if rec.Code != http.StatusUnauthorized {
			t.Errorf("expected status 401, got %d", rec.Code)
		}
	})
}

func TestCatalogReferentialIntegrity(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	pg := SetupPostgres(ctx, t)
	defer pg.Cleanup()
	f := newFixture(ctx, t, pg.ConnStr)

	t.Run("collection with products cannot be deleted", func(t *testing.T) {
		err := f.catalog.DeleteCollection(ctx, f.productP.CollectionID)
		if domain.ErrorCode(err) != domain.EConflict {
			t.Errorf("expected conflict, got %v", err)
		}
	})

	t.Run("ordered product cannot be deleted", func(t *testing.T) {
		c, _, err := f.carts.GetOrCreateForUser(ctx, f.customer.ID)
		if err != nil {
			t.Fatalf("failed to create cart: %v", err)
		}
		if _, err := f.carts.AddItem(ctx, c.ID, f.productP.ID, 1); err != nil {
			t.Fatalf("failed to add item: %v", err)
		}
		if _, err := f.orders.Place(ctx, f.customer.ID, c.ID, f.address.ID); err != nil {
			t.Fatalf("failed to place order: %v", err)
		}

		err = f.catalog.DeleteProduct(ctx, f.productP.ID)
		if domain.ErrorCode(err) != domain.EConflict {
			t.Errorf("expected conflict, got %v", err)
		}
	})
}
