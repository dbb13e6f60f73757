package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/alextreichler/storefront/internal/shop"
)

type HomeHandler struct {
	*Base
}

// Index lists the catalog, filtered by ?q= (name substring) and ?category= (id).
func (h *HomeHandler) Index(w http.ResponseWriter, r *http.Request) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	cat := strings.TrimSpace(r.URL.Query().Get("category"))

	filter := shop.Filter{Search: q}
	if id, err := strconv.ParseInt(cat, 10, 64); err == nil {
		filter.CategoryID = &id
	} else {
		cat = ""
	}

	products, err := h.Shop.Catalog.ListProducts(r.Context(), filter)
	if err != nil {
		h.serverError(w, r, err)
		return
	}
	categories, err := h.Shop.Catalog.ListCategories(r.Context())
	if err != nil {
		h.serverError(w, r, err)
		return
	}

	h.render(w, r, "index.html", map[string]interface{}{
		"Products":    products,
		"Categories":  categories,
		"Q":           q,
		"SelectedCat": cat,
	})
}

func (h *HomeHandler) ProductDetail(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		h.flashRedirect(w, r, flashDanger, "Product not found.", "/")
		return
	}

	product, err := h.Shop.Catalog.GetProduct(r.Context(), id)
	if err != nil {
		h.fail(w, r, err, "/")
		return
	}
	h.render(w, r, "product.html", map[string]interface{}{
		"Product": product,
	})
}
