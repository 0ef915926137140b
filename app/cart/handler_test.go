package cart

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suportesmart/storefront/app/web"
	"github.com/suportesmart/storefront/models"
)

// --- Mock Repo ---

type MockProductRepo struct {
	Products map[uint]models.Product
	Err      error
}

func (m *MockProductRepo) GetByID(id uint) (*models.Product, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	p, ok := m.Products[id]
	if !ok {
		return nil, models.ErrProductNotFound
	}
	return &p, nil
}

// --- Helpers ---

type client struct {
	t       *testing.T
	handler http.Handler
	cookies []*http.Cookie
}

func newClient(t *testing.T, repo ProductProvider) *client {
	logger, _ := test.NewNullLogger()
	sessions := web.NewSessions([]byte("0123456789abcdef0123456789abcdef"), false)
	h := NewCartHandler(repo, sessions, logger)

	mux := http.NewServeMux()
	mux.HandleFunc("POST /cart/add/{id}", h.HandleAdd)
	mux.HandleFunc("GET /cart", h.HandleView)
	mux.HandleFunc("GET /cart/count", h.HandleCount)
	mux.HandleFunc("POST /cart/update/{id}", h.HandleUpdate)
	mux.HandleFunc("POST /cart/remove/{id}", h.HandleRemove)

	return &client{t: t, handler: Badge(sessions, mux)}
}

func (c *client) do(method, target string, form url.Values) *httptest.ResponseRecorder {
	var req *http.Request
	if form != nil {
		req = httptest.NewRequest(method, target, strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	for _, ck := range c.cookies {
		req.AddCookie(ck)
	}

	rec := httptest.NewRecorder()
	c.handler.ServeHTTP(rec, req)
	if set := rec.Result().Cookies(); len(set) > 0 {
		c.cookies = set
	}
	return rec
}

func (c *client) view() Response {
	rec := c.do("GET", "/cart", nil)
	require.Equal(c.t, http.StatusOK, rec.Code)
	var resp Response
	require.NoError(c.t, json.NewDecoder(rec.Body).Decode(&resp))
	return resp
}

func testRepo() *MockProductRepo {
	return &MockProductRepo{Products: map[uint]models.Product{
		1: {ID: 1, Name: "Suporte Veicular", Price: decimal.RequireFromString("49.90"), ImageFile: "a.png"},
		2: {
			ID:         2,
			Name:       "Carregador",
			Price:      decimal.RequireFromString("80.00"),
			PromoPrice: decimal.NewNullDecimal(decimal.RequireFromString("60.00")),
		},
	}}
}

// --- Tests ---

func TestHandleAdd(t *testing.T) {
	testCases := []struct {
		name               string
		url                string
		form               url.Values
		repo               *MockProductRepo
		expectedStatusCode int
		expectedCount      int
	}{
		{
			name:               "Default quantity",
			url:                "/cart/add/1",
			repo:               testRepo(),
			expectedStatusCode: http.StatusOK,
			expectedCount:      1,
		},
		{
			name:               "Explicit quantity",
			url:                "/cart/add/1",
			form:               url.Values{"quantity": {"4"}},
			repo:               testRepo(),
			expectedStatusCode: http.StatusOK,
			expectedCount:      4,
		},
		{
			name:               "Invalid quantity falls back to one",
			url:                "/cart/add/1",
			form:               url.Values{"quantity": {"lots"}},
			repo:               testRepo(),
			expectedStatusCode: http.StatusOK,
			expectedCount:      1,
		},
		{
			name:               "Unknown product",
			url:                "/cart/add/99",
			repo:               testRepo(),
			expectedStatusCode: http.StatusNotFound,
		},
		{
			name:               "Non numeric product id",
			url:                "/cart/add/abc",
			repo:               testRepo(),
			expectedStatusCode: http.StatusNotFound,
		},
		{
			name:               "Repository error",
			url:                "/cart/add/1",
			repo:               &MockProductRepo{Err: errors.New("db down")},
			expectedStatusCode: http.StatusInternalServerError,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			c := newClient(t, tc.repo)

			rec := c.do("POST", tc.url, tc.form)

			assert.Equal(t, tc.expectedStatusCode, rec.Code)
			if tc.expectedStatusCode == http.StatusOK {
				var resp AddResponse
				require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
				assert.True(t, resp.Success)
				assert.Contains(t, resp.Message, "Suporte Veicular")
				assert.Equal(t, tc.expectedCount, resp.CartItemCount)
			}
		})
	}
}

func TestCartFlow(t *testing.T) {
	c := newClient(t, testRepo())

	c.do("POST", "/cart/add/1", url.Values{"quantity": {"2"}})
	c.do("POST", "/cart/add/2", nil)
	rec := c.do("POST", "/cart/add/1", url.Values{"quantity": {"1"}})

	var added AddResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&added))
	assert.Equal(t, 4, added.CartItemCount)

	resp := c.view()
	require.Len(t, resp.Items, 2)
	assert.Equal(t, "1", resp.Items[0].ProductID)
	assert.Equal(t, 3, resp.Items[0].Quantity)
	assert.Equal(t, 60.0, resp.Items[1].Price, "promo price is snapshotted")
	assert.InDelta(t, 149.70, resp.Items[0].Subtotal, 0.001)
	assert.InDelta(t, 209.70, resp.Total, 0.001)
	assert.Equal(t, 4, resp.CartItemCount)

	rec = c.do("POST", "/cart/update/1", url.Values{"quantity": {"5"}})
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/cart", rec.Header().Get("Location"))
	assert.Equal(t, 6, c.view().CartItemCount)

	c.do("POST", "/cart/update/1", url.Values{"quantity": {"0"}})
	resp = c.view()
	require.Len(t, resp.Items, 1)
	assert.Equal(t, "2", resp.Items[0].ProductID)

	rec = c.do("POST", "/cart/remove/2", nil)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Empty(t, c.view().Items)

	// Removing or updating something absent is harmless.
	rec = c.do("POST", "/cart/remove/404", nil)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	c.do("POST", "/cart/update/404", url.Values{"quantity": {"3"}})
	assert.Equal(t, 0, c.view().CartItemCount)
}

func TestHandleCountAndBadge(t *testing.T) {
	c := newClient(t, testRepo())
	c.do("POST", "/cart/add/1", url.Values{"quantity": {"3"}})

	rec := c.do("GET", "/cart/count", nil)
	var body map[string]int
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, 3, body["cart_item_count"])

	sessions := web.NewSessions([]byte("0123456789abcdef0123456789abcdef"), false)
	badged := Badge(sessions, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	req := httptest.NewRequest("GET", "/", nil)
	for _, ck := range c.cookies {
		req.AddCookie(ck)
	}
	out := httptest.NewRecorder()
	badged.ServeHTTP(out, req)
	assert.Equal(t, "3", out.Header().Get("X-Cart-Item-Count"))
}

func TestBadgeReflectsMutations(t *testing.T) {
	c := newClient(t, testRepo())

	testCases := []struct {
		name          string
		method        string
		target        string
		form          url.Values
		expectedBadge string
	}{
		{name: "Empty cart", method: "GET", target: "/cart/count", expectedBadge: "0"},
		{name: "First add", method: "POST", target: "/cart/add/1", form: url.Values{"quantity": {"2"}}, expectedBadge: "2"},
		{name: "Second add", method: "POST", target: "/cart/add/1", form: url.Values{"quantity": {"3"}}, expectedBadge: "5"},
		{name: "Update", method: "POST", target: "/cart/update/1", form: url.Values{"quantity": {"1"}}, expectedBadge: "1"},
		{name: "Plain page", method: "GET", target: "/cart", expectedBadge: "1"},
		{name: "Remove", method: "POST", target: "/cart/remove/1", expectedBadge: "0"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			rec := c.do(tc.method, tc.target, tc.form)
			assert.Equal(t, tc.expectedBadge, rec.Header().Get(BadgeHeader))
		})
	}
}
