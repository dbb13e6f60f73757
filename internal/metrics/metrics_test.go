package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizePath(t *testing.T) {
	cases := map[string]string{
		"/":                       "/",
		"/product/12":             "/product/:id",
		"/admin/edit_product/3":   "/admin/edit_product/:id",
		"/static/uploads/abc.jpg": "/static/",
		"/cart":                   "/cart",
		"/add_to_cart/notanumber": "/add_to_cart/notanumber",
	}
	for in, want := range cases {
		assert.Equal(t, want, normalizePath(in), in)
	}
}

func TestInstrumentHandlerExposesCounters(t *testing.T) {
	h := InstrumentHandler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/product/5", nil))
	RecordCheckout("success")

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.True(t, strings.Contains(body, `storefront_http_requests_total{method="GET",path="/product/:id",status="418"}`), body)
	assert.Contains(t, body, `storefront_orders_checkouts_total{result="success"}`)
}
