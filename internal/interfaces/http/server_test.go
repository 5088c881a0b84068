package http_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/your-org/storefront-backend/internal/config"
	"github.com/your-org/storefront-backend/internal/domain/coupon"
	"github.com/your-org/storefront-backend/internal/domain/order"
	"github.com/your-org/storefront-backend/internal/infrastructure/database/postgres"
	"github.com/your-org/storefront-backend/internal/infrastructure/database/redis"
	apihttp "github.com/your-org/storefront-backend/internal/interfaces/http"
	"github.com/your-org/storefront-backend/internal/interfaces/http/handlers"
	"github.com/your-org/storefront-backend/internal/interfaces/http/routes"
	"github.com/your-org/storefront-backend/internal/pkg/auth"
	"github.com/your-org/storefront-backend/internal/pkg/logger"
	"github.com/your-org/storefront-backend/internal/pkg/metrics"
	"github.com/your-org/storefront-backend/internal/pkg/testdb"
	"github.com/your-org/storefront-backend/internal/pkg/validation"
)

const guestPhone = "+91 98765 43210"

type envelope struct {
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
	Code    string          `json:"code"`
	Reason  string          `json:"reason"`
}

type APISuite struct {
	suite.Suite
	f       *testdb.Fixture
	jwt     *auth.JWTManager
	handler http.Handler
	mr      *miniredis.Miniredis
}

func TestAPISuite(t *testing.T) {
	suite.Run(t, new(APISuite))
}

func (s *APISuite) SetupTest() {
	gin.SetMode(gin.TestMode)
	s.Require().NoError(validation.Register())

	cfg := &config.Config{
		App:    config.AppConfig{Name: "Storefront", Version: "test", Environment: "test"},
		Server: config.ServerConfig{Port: "0", RequestTimeout: 5 * time.Second, MaxBodyBytes: 1 << 20},
		JWT:    config.JWTConfig{Secret: "0123456789abcdef0123456789abcdef"},
		Security: config.SecurityConfig{
			RateLimitPerMinute:     1000,
			TrackingLookupsPerHour: 5,
			CORSAllowedMethods:     []string{"GET", "POST", "PUT", "DELETE"},
			CORSAllowedHeaders:     []string{"Authorization", "Content-Type", "X-Cart-Token"},
		},
		Cart: config.CartConfig{CookieName: "cart_token", HeaderName: "X-Cart-Token", CookieMaxAge: 3600},
	}

	s.f = testdb.NewFixture(s.T(), nil)
	s.mr = miniredis.RunT(s.T())
	rdb := redis.Wrap(goredis.NewClient(&goredis.Options{Addr: s.mr.Addr()}))
	s.T().Cleanup(func() { _ = rdb.Close() })

	s.jwt = auth.NewJWTManager(cfg.JWT)
	m := metrics.New("test")
	log := logger.Discard()

	srv, err := apihttp.NewServer(cfg, log, apihttp.Dependencies{
		JWT:     s.jwt,
		Limiter: rdb,
		Metrics: m,
		Health: handlers.NewHealthHandler("test", map[string]handlers.Pinger{
			"database": postgres.Wrap(s.f.DB),
			"redis":    rdb,
		}),
		Handlers: &routes.Handlers{
			Cart:      handlers.NewCartHandler(s.f.Carts, cfg.Cart),
			Checkout:  handlers.NewCheckoutHandler(s.f.Checkout, s.f.Pricing, s.f.Carts),
			Orders:    handlers.NewOrderHandler(s.f.Orders, s.f.Tracking, m),
			Guarantee: handlers.NewGuaranteeHandler(s.f.Guarantee),
			Addresses: handlers.NewUserAddressHandler(s.f.Addresses),
			Products:  handlers.NewProductHandler(s.f.Pricing),
			Inventory: handlers.NewInventoryHandler(s.f.Inventory),
		},
	})
	s.Require().NoError(err)
	s.handler = srv.Handler()
}

func (s *APISuite) token(userID uint, admin bool) string {
	tok, err := s.jwt.GenerateAccessToken(userID, fmt.Sprintf("user%d@example.com", userID), admin, time.Hour)
	s.Require().NoError(err)
	return tok
}

type call struct {
	method    string
	path      string
	body      interface{}
	bearer    string
	cartToken string
}

func (s *APISuite) do(c call) (*httptest.ResponseRecorder, envelope) {
	var buf bytes.Buffer
	if c.body != nil {
		s.Require().NoError(json.NewEncoder(&buf).Encode(c.body))
	}
	req := httptest.NewRequest(c.method, c.path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if c.bearer != "" {
		req.Header.Set("Authorization", "Bearer "+c.bearer)
	}
	if c.cartToken != "" {
		req.Header.Set("X-Cart-Token", c.cartToken)
	}

	w := httptest.NewRecorder()
	s.handler.ServeHTTP(w, req)

	var env envelope
	if w.Body.Len() > 0 && w.Header().Get("Content-Type") != "" {
		_ = json.Unmarshal(w.Body.Bytes(), &env)
	}
	return w, env
}

func (s *APISuite) delivery() map[string]interface{} {
	return map[string]interface{}{
		"full_name":     "Asha Rao",
		"phone":         guestPhone,
		"address_line1": "12 MG Road",
		"city":          "Bengaluru",
		"postal_code":   "560001",
		"country":       "IN",
	}
}

func (s *APISuite) decodeOrder(raw json.RawMessage) order.Order {
	var o order.Order
	s.Require().NoError(json.Unmarshal(raw, &o))
	return o
}

func (s *APISuite) TestGuestCheckoutAndTracking() {
	v := testdb.Variant(s.T(), s.f.DB, "MUG", 1500, 0, 5)

	w, _ := s.do(call{method: http.MethodPut, path: "/api/v1/cart", body: map[string]interface{}{
		"items": []map[string]interface{}{{"variant_id": v.ID, "quantity": 2}},
	}})
	s.Require().Equal(http.StatusOK, w.Code)
	cartToken := w.Header().Get("X-Cart-Token")
	s.Require().NotEmpty(cartToken)

	w, env := s.do(call{method: http.MethodPost, path: "/api/v1/orders", cartToken: cartToken, body: map[string]interface{}{
		"delivery": s.delivery(),
		"email":    "Guest@Example.com",
	}})
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	placed := s.decodeOrder(env.Data)
	s.Require().NotNil(placed.TrackingCode)
	s.True(order.IsOrderCode(placed.Code))
	s.Equal(order.StatusPendingConfirmation, placed.Status)
	s.Equal(int64(3000), placed.Total)
	s.Equal(3, testdb.Stock(s.T(), s.f.DB, v.ID))

	w, env = s.do(call{method: http.MethodGet, path: "/api/v1/cart", cartToken: cartToken})
	s.Require().Equal(http.StatusOK, w.Code)
	s.Contains(string(env.Data), `"lines":[]`)

	track := "/api/v1/orders/track?code=" + *placed.TrackingCode
	w, env = s.do(call{method: http.MethodGet, path: track + "&phone=%2B919876543210"})
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	s.Contains(string(env.Data), placed.Code)
	s.NotContains(string(env.Data), "MG Road")

	for _, path := range []string{
		track + "&phone=%2B910000000000",
		"/api/v1/orders/track?code=nope",
		"/api/v1/orders/track?code=" + placed.Code,
	} {
		w, env = s.do(call{method: http.MethodGet, path: path})
		s.Equal(http.StatusNotFound, w.Code, path)
		s.Equal("not_found", env.Code)
		s.Equal("resource not found", env.Error)
	}
}

func (s *APISuite) TestTrackingIsThrottled() {
	var last int
	for i := 0; i < 6; i++ {
		w, _ := s.do(call{method: http.MethodGet, path: "/api/v1/orders/track?code=nope"})
		last = w.Code
	}
	s.Equal(http.StatusTooManyRequests, last)
}

func (s *APISuite) TestCheckoutErrors() {
	v := testdb.Variant(s.T(), s.f.DB, "LAMP", 9000, 0, 1)

	w, env := s.do(call{method: http.MethodPost, path: "/api/v1/orders", body: map[string]interface{}{
		"delivery": s.delivery(),
		"buy_now":  map[string]interface{}{"variant_id": v.ID, "quantity": 2},
	}})
	s.Equal(http.StatusConflict, w.Code)
	s.Equal("out_of_stock", env.Code)
	s.Equal(1, testdb.Stock(s.T(), s.f.DB, v.ID))

	w, env = s.do(call{method: http.MethodPost, path: "/api/v1/orders", body: map[string]interface{}{
		"delivery":    s.delivery(),
		"buy_now":     map[string]interface{}{"variant_id": v.ID, "quantity": 1},
		"coupon_code": "NOPE",
	}})
	s.Equal(http.StatusUnprocessableEntity, w.Code)
	s.Equal("coupon_invalid", env.Code)
	s.Equal("not_found", env.Reason)

	delivery := s.delivery()
	delivery["phone"] = "12"
	w, env = s.do(call{method: http.MethodPost, path: "/api/v1/orders", body: map[string]interface{}{
		"delivery": delivery,
		"buy_now":  map[string]interface{}{"variant_id": v.ID, "quantity": 1},
	}})
	s.Equal(http.StatusBadRequest, w.Code)
	s.Equal("invalid", env.Code)
}

func (s *APISuite) TestValidateCoupon() {
	testdb.Coupon(s.T(), s.f.DB, "SAVE10", coupon.DiscountPercentage, 10, nil)

	w, env := s.do(call{method: http.MethodPost, path: "/api/v1/coupons/validate", body: map[string]interface{}{
		"code": "save10", "subtotal": 12000,
	}})
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	var quote struct {
		Discount int64 `json:"discount"`
		Total    int64 `json:"total"`
	}
	s.Require().NoError(json.Unmarshal(env.Data, &quote))
	s.Equal(int64(1200), quote.Discount)
	s.Equal(int64(10800), quote.Total)

	// cart subtotal is used when none is given
	v := testdb.Variant(s.T(), s.f.DB, "TEE", 6500, 500, 10)
	w, _ = s.do(call{method: http.MethodPut, path: "/api/v1/cart", body: map[string]interface{}{
		"items": []map[string]interface{}{{"variant_id": v.ID, "quantity": 2}},
	}})
	cartToken := w.Header().Get("X-Cart-Token")
	w, env = s.do(call{method: http.MethodPost, path: "/api/v1/coupons/validate", cartToken: cartToken, body: map[string]interface{}{
		"code": "SAVE10",
	}})
	s.Require().Equal(http.StatusOK, w.Code)
	s.Require().NoError(json.Unmarshal(env.Data, &quote))
	s.Equal(int64(10800), quote.Total)
}

func (s *APISuite) TestMergeOnLogin() {
	v := testdb.Variant(s.T(), s.f.DB, "SOCK", 300, 0, 50)
	user := s.token(9, false)

	w, _ := s.do(call{method: http.MethodPut, path: "/api/v1/cart", bearer: user, body: map[string]interface{}{
		"items": []map[string]interface{}{{"variant_id": v.ID, "quantity": 1}},
	}})
	s.Require().Equal(http.StatusOK, w.Code)

	w, _ = s.do(call{method: http.MethodPut, path: "/api/v1/cart", body: map[string]interface{}{
		"items": []map[string]interface{}{{"variant_id": v.ID, "quantity": 2}},
	}})
	guestToken := w.Header().Get("X-Cart-Token")

	for i := 0; i < 2; i++ {
		w, env := s.do(call{method: http.MethodPost, path: "/api/v1/cart/merge", bearer: user, cartToken: guestToken})
		s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
		s.Contains(string(env.Data), `"quantity":3`)
	}

	w, _ = s.do(call{method: http.MethodPost, path: "/api/v1/cart/merge", cartToken: guestToken})
	s.Equal(http.StatusUnauthorized, w.Code)

	w, env := s.do(call{method: http.MethodPost, path: "/api/v1/cart/detach", bearer: user})
	s.Require().Equal(http.StatusOK, w.Code)
	detached := w.Header().Get("X-Cart-Token")
	s.Contains(string(env.Data), detached)

	w, env = s.do(call{method: http.MethodGet, path: "/api/v1/cart", cartToken: detached})
	s.Require().Equal(http.StatusOK, w.Code)
	s.Contains(string(env.Data), `"quantity":3`)
}

func (s *APISuite) TestAdminLifecycleAndClaim() {
	v := testdb.Variant(s.T(), s.f.DB, "KETTLE", 4000, 0, 5)
	buyer := s.token(5, false)
	admin := s.token(1, true)

	w, env := s.do(call{method: http.MethodPost, path: "/api/v1/orders", bearer: buyer, body: map[string]interface{}{
		"delivery": s.delivery(),
		"buy_now":  map[string]interface{}{"variant_id": v.ID, "quantity": 1},
	}})
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	placed := s.decodeOrder(env.Data)
	s.Nil(placed.TrackingCode)
	s.Equal("user5@example.com", placed.Email)

	claim := map[string]interface{}{"order_code": placed.Code, "reason": "Arrived with a cracked lid"}
	w, env = s.do(call{method: http.MethodPost, path: "/api/v1/guarantee/claims", bearer: buyer, body: claim})
	s.Equal(http.StatusConflict, w.Code)
	s.Equal("claim_not_eligible", env.Code)

	statusPath := fmt.Sprintf("/api/v1/admin/orders/%d/status", placed.ID)
	w, _ = s.do(call{method: http.MethodPut, path: statusPath, bearer: buyer, body: map[string]string{"status": "CONFIRMED"}})
	s.Equal(http.StatusForbidden, w.Code)

	for _, st := range []string{"CONFIRMED", "OUT_FOR_DELIVERY", "DELIVERED"} {
		w, env = s.do(call{method: http.MethodPut, path: statusPath, bearer: admin, body: map[string]string{"status": st}})
		s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
		s.Equal(order.Status(st), s.decodeOrder(env.Data).Status)
	}

	w, env = s.do(call{method: http.MethodPut, path: statusPath, bearer: admin, body: map[string]string{"status": "CANCELLED"}})
	s.Equal(http.StatusConflict, w.Code)
	s.Equal("invalid_transition", env.Code)

	w, env = s.do(call{method: http.MethodPost, path: "/api/v1/guarantee/claims", bearer: buyer, body: claim})
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	s.Contains(string(env.Data), `"status":"SUBMITTED"`)

	w, env = s.do(call{method: http.MethodGet, path: "/api/v1/admin/orders/" + placed.Code, bearer: admin})
	s.Require().Equal(http.StatusOK, w.Code)
	s.Len(s.decodeOrder(env.Data).StatusHistory, 4)

	w, env = s.do(call{method: http.MethodGet, path: "/api/v1/admin/orders?status=DELIVERED", bearer: admin})
	s.Require().Equal(http.StatusOK, w.Code)
	s.Contains(string(env.Data), placed.Code)

	w, env = s.do(call{method: http.MethodGet, path: "/api/v1/orders/my", bearer: buyer})
	s.Require().Equal(http.StatusOK, w.Code)
	s.Contains(string(env.Data), placed.Code)

	movements := fmt.Sprintf("/api/v1/admin/inventory/variants/%d/movements", v.ID)
	w, _ = s.do(call{method: http.MethodGet, path: movements, bearer: buyer})
	s.Equal(http.StatusForbidden, w.Code)
	w, env = s.do(call{method: http.MethodGet, path: movements, bearer: admin})
	s.Require().Equal(http.StatusOK, w.Code)
	s.Contains(string(env.Data), `"reason":"sale"`)
	s.Contains(string(env.Data), `"new_quantity":4`)
}

func (s *APISuite) TestVariantPrices() {
	a := testdb.Variant(s.T(), s.f.DB, "CUP", 800, 0, 3)
	b := testdb.Variant(s.T(), s.f.DB, "PLATE", 1200, 0, 0)

	w, env := s.do(call{method: http.MethodGet, path: fmt.Sprintf("/api/v1/variants/prices?ids=%d,%d,9999", b.ID, a.ID)})
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	var quotes []map[string]interface{}
	s.Require().NoError(json.Unmarshal(env.Data, &quotes))
	s.Require().Len(quotes, 2)
	s.EqualValues(a.ID, quotes[0]["variant_id"])
	s.EqualValues(800, quotes[0]["price"])
	s.EqualValues(0, quotes[1]["stock"])

	for _, path := range []string{"/api/v1/variants/prices", "/api/v1/variants/prices?ids=1,x"} {
		w, env = s.do(call{method: http.MethodGet, path: path})
		s.Equal(http.StatusBadRequest, w.Code, path)
		s.Equal("invalid", env.Code)
	}
}

func (s *APISuite) TestAddressBookRequiresUser() {
	w, _ := s.do(call{method: http.MethodGet, path: "/api/v1/users/addresses"})
	s.Equal(http.StatusUnauthorized, w.Code)

	user := s.token(3, false)
	body := s.delivery()
	body["label"] = "Home"
	w, env := s.do(call{method: http.MethodPost, path: "/api/v1/users/addresses", bearer: user, body: body})
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	s.Contains(string(env.Data), `"is_default":true`)

	w, _ = s.do(call{method: http.MethodGet, path: "/api/v1/users/addresses/999", bearer: user})
	s.Equal(http.StatusNotFound, w.Code)
}

func (s *APISuite) TestHealthAndMetrics() {
	w, _ := s.do(call{method: http.MethodGet, path: "/health"})
	s.Equal(http.StatusOK, w.Code)

	w, _ = s.do(call{method: http.MethodGet, path: "/ready"})
	s.Equal(http.StatusOK, w.Code)
	s.Contains(w.Body.String(), `"redis":"healthy"`)

	s.mr.Close()
	w, _ = s.do(call{method: http.MethodGet, path: "/ready"})
	s.Equal(http.StatusServiceUnavailable, w.Code)

	w, _ = s.do(call{method: http.MethodGet, path: "/metrics"})
	s.Equal(http.StatusOK, w.Code)
	assert.Contains(s.T(), w.Body.String(), "test_http_requests_total")
}

func TestRejectsInvalidTrustedProxies(t *testing.T) {
	cfg := &config.Config{Security: config.SecurityConfig{TrustedProxies: []string{"not-an-ip"}}}
	_, err := apihttp.NewServer(cfg, logger.Discard(), apihttp.Dependencies{})
	require.Error(t, err)
}
