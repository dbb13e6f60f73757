package handlers

import (
	"errors"
	"net/http"

	"github.com/alextreichler/storefront/internal/metrics"
	"github.com/alextreichler/storefront/internal/shop"
)

// OrderHandler serves the cart and the checkout/order history pages.
// All routes sit behind RequireAuth.
type OrderHandler struct {
	*Base
}

func (h *OrderHandler) AddToCart(w http.ResponseWriter, r *http.Request) {
	ident, _ := IdentityFrom(r.Context())
	id, ok := pathID(r)
	if !ok {
		http.NotFound(w, r)
		return
	}

	h.Shop.Carts.Add(ident.SID, id)
	metrics.RecordCartAdd()

	target := "/"
	if p, ok := localPath(r.Referer()); ok {
		target = p
	}
	h.flashRedirect(w, r, flashSuccess, "Added to cart.", target)
}

func (h *OrderHandler) ViewCart(w http.ResponseWriter, r *http.Request) {
	ident, _ := IdentityFrom(r.Context())
	view, err := h.Shop.Carts.View(r.Context(), ident.SID)
	if err != nil {
		h.serverError(w, r, err)
		return
	}
	h.render(w, r, "cart.html", map[string]interface{}{
		"Cart": view,
	})
}

func (h *OrderHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	ident, _ := IdentityFrom(r.Context())
	h.Shop.Carts.Clear(ident.SID)
	h.flashRedirect(w, r, flashInfo, "Cart cleared.", "/cart")
}

func (h *OrderHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	ident, _ := IdentityFrom(r.Context())
	_, err := h.Shop.Orders.Checkout(r.Context(), ident.UserID, ident.SID)
	switch {
	case errors.Is(err, shop.ErrEmptyCart):
		metrics.RecordCheckout("empty")
		h.flashRedirect(w, r, flashWarning, shop.Message(err), "/")
		return
	case err != nil:
		metrics.RecordCheckout("error")
		h.fail(w, r, err, "/cart")
		return
	}
	metrics.RecordCheckout("success")
	h.flashRedirect(w, r, flashSuccess, "Order placed successfully.", "/orders")
}

func (h *OrderHandler) MyOrders(w http.ResponseWriter, r *http.Request) {
	ident, _ := IdentityFrom(r.Context())
	orders, err := h.Shop.Orders.List(r.Context(), ident.UserID)
	if err != nil {
		h.serverError(w, r, err)
		return
	}
	h.render(w, r, "orders.html", map[string]interface{}{
		"Orders": orders,
	})
}
