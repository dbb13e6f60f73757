package handlers

import (
	"errors"
	"net/http"

	"github.com/alextreichler/storefront/internal/shop"
)

// AdminHandler serves catalog management. All routes sit behind RequireAdmin.
type AdminHandler struct {
	*Base
	UploadDir string
}

func (h *AdminHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	dash, err := h.Shop.Admin.Dashboard(r.Context())
	if err != nil {
		h.serverError(w, r, err)
		return
	}
	h.render(w, r, "admin.html", map[string]interface{}{
		"Dashboard": dash,
	})
}

func (h *AdminHandler) AddProductForm(w http.ResponseWriter, r *http.Request) {
	categories, err := h.Shop.Catalog.ListCategories(r.Context())
	if err != nil {
		h.serverError(w, r, err)
		return
	}
	h.render(w, r, "product_form.html", map[string]interface{}{
		"Action":     "/admin/add_product",
		"Categories": categories,
	})
}

func (h *AdminHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	in, uploaded, err := h.productInput(r)
	if err != nil {
		h.fail(w, r, err, "/admin/add_product")
		return
	}
	if _, err := h.Shop.Admin.CreateProduct(r.Context(), in); err != nil {
		h.removeUpload(uploaded)
		h.fail(w, r, err, "/admin/add_product")
		return
	}
	h.flashRedirect(w, r, flashSuccess, "Product added.", "/admin")
}

func (h *AdminHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		h.flashRedirect(w, r, flashDanger, "Invalid ID.", "/admin")
		return
	}
	if err := h.Shop.Admin.DeleteProduct(r.Context(), id); err != nil {
		h.fail(w, r, err, "/admin")
		return
	}
	h.flashRedirect(w, r, flashInfo, "Product deleted.", "/admin")
}

func (h *AdminHandler) AddCategory(w http.ResponseWriter, r *http.Request) {
	created, err := h.Shop.Admin.CreateCategory(r.Context(), r.FormValue("name"))
	switch {
	case errors.Is(err, shop.ErrValidation):
		h.flashRedirect(w, r, flashWarning, shop.Message(err), "/admin")
	case err != nil:
		h.fail(w, r, err, "/admin")
	case created:
		h.flashRedirect(w, r, flashSuccess, "Category added.", "/admin")
	default:
		h.flashRedirect(w, r, flashInfo, "Category already exists.", "/admin")
	}
}
