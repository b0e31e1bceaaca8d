package stripewebhook

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v84"
	"gorm.io/gorm"

	"github.com/angelmondragon/checkout-bridge/internal/checkout"
	"github.com/angelmondragon/checkout-bridge/internal/orders"
	"github.com/angelmondragon/checkout-bridge/pkg/config"
	"github.com/angelmondragon/checkout-bridge/pkg/db/models"
	"github.com/angelmondragon/checkout-bridge/pkg/enums"
	pkgerrors "github.com/angelmondragon/checkout-bridge/pkg/errors"
)

const testOrderID = "6f1c3a9e-2d7b-4c1e-9a57-0b8f4e2d1c3a"

func TestService_CompletedSessionCreatesOrder(t *testing.T) {
	gw := newStubGateway(completedSession(true))
	repo := newStubOrdersRepo()
	svc := newTestService(t, gw, repo, config.PersistenceModeDirect)

	require.NoError(t, svc.HandleEvent(context.Background(), completedEvent(t, "cs_test_1")))

	require.Len(t, repo.orders, 1)
	order := repo.orders[0]
	assert.Equal(t, testOrderID, order.ID, "order id must round trip through metadata")
	assert.Equal(t, "cs_test_1", order.StripeSessionID)
	assert.Equal(t, enums.OrderStatusCompleted, order.Status)
	assert.Equal(t, int64(177), order.TaxCents, "tax is read back, not recomputed")
	assert.Equal(t, int64(2000), order.SubtotalCents)
	assert.Equal(t, int64(599), order.ShippingCents)
	assert.Equal(t, "Standard Shipping", *order.ShippingName)
	assert.Equal(t, int64(2776), order.TotalCents)
	assert.Equal(t, "user-1", *order.UserID)
	assert.Equal(t, "buyer@example.com", *order.CustomerEmail)
	require.NotNil(t, order.ShippingAddress)
	assert.Equal(t, "Ada Buyer", order.ShippingAddress.Name)
	assert.Equal(t, "Brooklyn", order.ShippingAddress.City)

	require.Len(t, repo.items, 1, "tax line must not become an order item")
	item := repo.items[0]
	assert.Equal(t, testOrderID, item.OrderID)
	assert.Equal(t, "p1", item.ProductID)
	assert.Equal(t, int64(2), item.Quantity)
	assert.Equal(t, int64(1000), item.UnitPriceCents)
	require.NotNil(t, item.ImageURL)
	assert.Equal(t, "https://cdn.example.com/p1.png", *item.ImageURL, "image back-filled from catalog")

	assert.Equal(t, []string{"c1/user-1"}, repo.couponCalls)
	assert.Equal(t, "cs_test_1", *gw.listed.Session)
	assert.Contains(t, gw.getParams.Expand, stripe.String("shipping_cost.shipping_rate"))
}

func TestService_WithoutCouponSkipsUsage(t *testing.T) {
	repo := newStubOrdersRepo()
	svc := newTestService(t, newStubGateway(completedSession(false)), repo, config.PersistenceModeDirect)

	require.NoError(t, svc.HandleEvent(context.Background(), completedEvent(t, "cs_test_1")))
	assert.Empty(t, repo.couponCalls)
}

func TestService_DuplicateDeliveryIsLoggedNotFailed(t *testing.T) {
	repo := newStubOrdersRepo()
	svc := newTestService(t, newStubGateway(completedSession(true)), repo, config.PersistenceModeDirect)
	ctx := context.Background()

	require.NoError(t, svc.HandleEvent(ctx, completedEvent(t, "cs_test_1")))
	require.NoError(t, svc.HandleEvent(ctx, completedEvent(t, "cs_test_1")))

	assert.Len(t, repo.orders, 1)
	assert.Len(t, repo.items, 1, "items are not written twice")
	assert.Len(t, repo.couponCalls, 1, "coupon usage is not counted twice")
}

func TestService_ItemFailureKeepsOrder(t *testing.T) {
	repo := newStubOrdersRepo()
	repo.itemsErr = errors.New("insert order_items: connection reset")
	svc := newTestService(t, newStubGateway(completedSession(true)), repo, config.PersistenceModeDirect)

	require.NoError(t, svc.HandleEvent(context.Background(), completedEvent(t, "cs_test_1")))
	assert.Len(t, repo.orders, 1)
	assert.Len(t, repo.couponCalls, 1)
}

func TestService_CouponFailureIsLoggedOnly(t *testing.T) {
	repo := newStubOrdersRepo()
	repo.couponErr = errors.New("function update_coupon_usage does not exist")
	svc := newTestService(t, newStubGateway(completedSession(true)), repo, config.PersistenceModeDirect)

	require.NoError(t, svc.HandleEvent(context.Background(), completedEvent(t, "cs_test_1")))
	assert.Len(t, repo.orders, 1)
}

func TestService_OrderInsertFailureIsPersistenceError(t *testing.T) {
	repo := newStubOrdersRepo()
	repo.orderErr = errors.New("connection refused")
	svc := newTestService(t, newStubGateway(completedSession(true)), repo, config.PersistenceModeDirect)

	err := svc.HandleEvent(context.Background(), completedEvent(t, "cs_test_1"))
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodePersistence))
	assert.Empty(t, repo.items)
}

func TestService_GatewayFailureIsReturned(t *testing.T) {
	gw := newStubGateway(nil)
	gw.getErr = errors.New("stripe unavailable")
	svc := newTestService(t, gw, newStubOrdersRepo(), config.PersistenceModeDirect)

	err := svc.HandleEvent(context.Background(), completedEvent(t, "cs_test_1"))
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeGateway))
}

func TestService_SessionWithoutOrderIDIsAcknowledged(t *testing.T) {
	sess := completedSession(false)
	delete(sess.Metadata, checkout.MetaOrderID)
	repo := newStubOrdersRepo()
	svc := newTestService(t, newStubGateway(sess), repo, config.PersistenceModeDirect)

	require.NoError(t, svc.HandleEvent(context.Background(), completedEvent(t, "cs_test_1")))
	assert.Empty(t, repo.orders)
}

func TestService_SessionWithForeignOrderIDIsAcknowledged(t *testing.T) {
	sess := completedSession(false)
	sess.Metadata[checkout.MetaOrderID] = "order-from-another-app"
	repo := newStubOrdersRepo()
	svc := newTestService(t, newStubGateway(sess), repo, config.PersistenceModeDirect)

	require.NoError(t, svc.HandleEvent(context.Background(), completedEvent(t, "cs_test_1")))
	assert.Empty(t, repo.orders)
}

func TestService_IgnoresOtherEvents(t *testing.T) {
	gw := newStubGateway(nil)
	svc := newTestService(t, gw, newStubOrdersRepo(), config.PersistenceModeDirect)

	event := &stripe.Event{ID: "evt_other", Type: stripe.EventTypePaymentIntentSucceeded, Data: &stripe.EventData{Raw: []byte(`{}`)}}
	require.NoError(t, svc.HandleEvent(context.Background(), event))
	assert.Nil(t, gw.getParams, "gateway must not be called")

	require.Error(t, svc.HandleEvent(context.Background(), nil))
}

func TestService_ProcedureMode(t *testing.T) {
	repo := newStubOrdersRepo()
	svc := newTestService(t, newStubGateway(completedSession(true)), repo, config.PersistenceModeProcedure)

	require.NoError(t, svc.HandleEvent(context.Background(), completedEvent(t, "cs_test_1")))

	require.Len(t, repo.payloads, 1)
	payload := repo.payloads[0]
	assert.Equal(t, testOrderID, payload.Order.ID)
	assert.Equal(t, "completed", payload.Order.Status)
	require.Len(t, payload.Items, 1)
	assert.Equal(t, "p1", payload.Items[0].ProductID)
	assert.Empty(t, repo.orders, "direct inserts are skipped")
	assert.Len(t, repo.couponCalls, 1)
}

func TestService_ProcedureDuplicateIsAcknowledged(t *testing.T) {
	repo := newStubOrdersRepo()
	repo.procErr = fmt.Errorf("process_stripe_webhook: %w", &pgconn.PgError{Code: "23505", ConstraintName: "orders_pkey"})
	svc := newTestService(t, newStubGateway(completedSession(true)), repo, config.PersistenceModeProcedure)

	require.NoError(t, svc.HandleEvent(context.Background(), completedEvent(t, "cs_test_1")))
	assert.Empty(t, repo.couponCalls)
}

func TestNewServiceValidatesDependencies(t *testing.T) {
	_, err := NewService(ServiceParams{OrdersRepo: newStubOrdersRepo()})
	assert.Error(t, err)
	_, err = NewService(ServiceParams{Gateway: newStubGateway(nil)})
	assert.Error(t, err)
}

func newTestService(t *testing.T, gw *stubGateway, repo *stubOrdersRepo, mode string) *Service {
	t.Helper()
	svc, err := NewService(ServiceParams{Gateway: gw, OrdersRepo: repo, PersistenceMode: mode})
	require.NoError(t, err)
	n := 0
	svc.newID = func() string {
		n++
		return fmt.Sprintf("item-%d", n)
	}
	return svc
}

func completedEvent(t *testing.T, sessionID string) *stripe.Event {
	t.Helper()
	raw, err := json.Marshal(map[string]any{"id": sessionID, "object": "checkout.session"})
	require.NoError(t, err)
	return &stripe.Event{
		ID:   "evt_1",
		Type: stripe.EventTypeCheckoutSessionCompleted,
		Data: &stripe.EventData{Raw: raw},
	}
}

func completedSession(withCoupon bool) *stripe.CheckoutSession {
	meta := checkout.SessionMetadata{
		UserID:        "user-1",
		OrderID:       testOrderID,
		TaxCents:      177,
		SubtotalCents: 2000,
	}
	if withCoupon {
		meta.CouponID = "c1"
		meta.CouponCode = "WELCOME"
	}
	return &stripe.CheckoutSession{
		ID:          "cs_test_1",
		AmountTotal: 2776,
		Currency:    stripe.CurrencyUSD,
		CustomerDetails: &stripe.CheckoutSessionCustomerDetails{
			Email: "buyer@example.com",
			Name:  "Billing Name",
		},
		CollectedInformation: &stripe.CheckoutSessionCollectedInformation{
			ShippingDetails: &stripe.CheckoutSessionCollectedInformationShippingDetails{
				Name: "Ada Buyer",
				Address: &stripe.Address{
					Line1:      "1 Main St",
					City:       "Brooklyn",
					State:      "NY",
					PostalCode: "11201",
					Country:    "US",
				},
			},
		},
		ShippingCost: &stripe.CheckoutSessionShippingCost{
			AmountTotal:  599,
			ShippingRate: &stripe.ShippingRate{DisplayName: "Standard Shipping"},
		},
		Metadata: meta.Encode(),
	}
}

type stubGateway struct {
	session   *stripe.CheckoutSession
	getErr    error
	getParams *stripe.CheckoutSessionParams
	listed    *stripe.CheckoutSessionListLineItemsParams
}

func newStubGateway(sess *stripe.CheckoutSession) *stubGateway {
	return &stubGateway{session: sess}
}

func (g *stubGateway) Create(context.Context, *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error) {
	return nil, errors.New("not implemented")
}

func (g *stubGateway) Get(_ context.Context, _ string, params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error) {
	g.getParams = params
	if g.getErr != nil {
		return nil, g.getErr
	}
	return g.session, nil
}

func (g *stubGateway) ListLineItems(_ context.Context, params *stripe.CheckoutSessionListLineItemsParams) ([]*stripe.LineItem, error) {
	g.listed = params
	return []*stripe.LineItem{
		{
			Description: "Widget",
			Quantity:    2,
			Price: &stripe.Price{
				UnitAmount: 1000,
				Product:    &stripe.Product{Name: "Widget", Metadata: map[string]string{checkout.MetaProductID: "p1"}},
			},
		},
		{
			Description: "Sales Tax",
			Quantity:    1,
			Price: &stripe.Price{
				UnitAmount: 177,
				Product:    &stripe.Product{Name: "Sales Tax", Metadata: map[string]string{}},
			},
		},
	}, nil
}

type stubOrdersRepo struct {
	orders      []models.Order
	items       []models.OrderItem
	payloads    []orders.CheckoutPayload
	couponCalls []string
	seen        map[string]bool

	orderErr  error
	itemsErr  error
	couponErr error
	procErr   error
}

func newStubOrdersRepo() *stubOrdersRepo {
	return &stubOrdersRepo{seen: map[string]bool{}}
}


func (r *stubOrdersRepo) CreateOrder(_ context.Context, order *models.Order) error {
	if r.orderErr != nil {
		return r.orderErr
	}
	if r.seen[order.ID] {
		return fmt.Errorf("insert order: %w", gorm.ErrDuplicatedKey)
	}
	r.seen[order.ID] = true
	r.orders = append(r.orders, *order)
	return nil
}

func (r *stubOrdersRepo) CreateOrderItems(_ context.Context, items []models.OrderItem) error {
	if r.itemsErr != nil {
		return r.itemsErr
	}
	r.items = append(r.items, items...)
	return nil
}

func (r *stubOrdersRepo) FindProductsByIDs(_ context.Context, ids []string) ([]models.Product, error) {
	image := "https://cdn.example.com/p1.png"
	var out []models.Product
	for _, id := range ids {
		if id == "p1" {
			out = append(out, models.Product{ID: "p1", Name: "Widget", ImageURL: &image})
		}
	}
	return out, nil
}

func (r *stubOrdersRepo) IncrementCouponUsage(_ context.Context, couponID, userID string) error {
	if r.couponErr != nil {
		return r.couponErr
	}
	r.couponCalls = append(r.couponCalls, couponID+"/"+userID)
	return nil
}

func (r *stubOrdersRepo) ProcessCheckout(_ context.Context, payload orders.CheckoutPayload) error {
	if r.procErr != nil {
		return r.procErr
	}
	r.payloads = append(r.payloads, payload)
	return nil
}
