package handlers

import (
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/alextreichler/storefront/internal/shop"
	"github.com/google/uuid"
	"github.com/nfnt/resize"
)

const (
	maxUploadSize = 10 << 20 // 10MB
	uploadURL     = "/static/uploads/"
)

func (h *AdminHandler) EditProductForm(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		h.flashRedirect(w, r, flashDanger, "Product not found.", "/admin")
		return
	}

	product, err := h.Shop.Catalog.GetProduct(r.Context(), id)
	if err != nil {
		h.fail(w, r, err, "/admin")
		return
	}
	categories, err := h.Shop.Catalog.ListCategories(r.Context())
	if err != nil {
		h.serverError(w, r, err)
		return
	}

	h.render(w, r, "product_form.html", map[string]interface{}{
		"Action":     fmt.Sprintf("/admin/edit_product/%d", id),
		"Product":    product,
		"Categories": categories,
	})
}

func (h *AdminHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		h.flashRedirect(w, r, flashDanger, "Product not found.", "/admin")
		return
	}
	back := fmt.Sprintf("/admin/edit_product/%d", id)

	in, uploaded, err := h.productInput(r)
	if err != nil {
		h.fail(w, r, err, back)
		return
	}
	err = h.Shop.Admin.UpdateProduct(r.Context(), id, in)
	if err != nil {
		h.removeUpload(uploaded)
	}
	switch {
	case errors.Is(err, shop.ErrNotFound):
		h.fail(w, r, err, "/admin")
		return
	case err != nil:
		h.fail(w, r, err, back)
		return
	}
	h.flashRedirect(w, r, flashSuccess, "Product updated.", "/admin")
}

// productInput reads the product form. Both multipart (with an optional
// image_file upload) and urlencoded bodies are accepted. The returned name is
// the stored upload, if any, for the caller to remove when the form is rejected.
func (h *AdminHandler) productInput(r *http.Request) (shop.ProductInput, string, error) {
	if err := r.ParseMultipartForm(maxUploadSize); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		return shop.ProductInput{}, "", &shop.Error{Kind: shop.ErrValidation, Msg: "File too large. Max 10MB."}
	}

	in := shop.ProductInput{
		Name:        r.FormValue("name"),
		Description: r.FormValue("description"),
		Price:       r.FormValue("price"),
		Image:       r.FormValue("image"),
		CategoryID:  r.FormValue("category"),
	}

	filename, err := h.saveUploadedImage(r)
	if err != nil {
		return in, "", err
	}
	if filename != "" {
		in.Image = uploadURL + filename
	}
	return in, filename, nil
}

func (h *AdminHandler) removeUpload(filename string) {
	if filename == "" {
		return
	}
	if err := os.Remove(filepath.Join(h.UploadDir, filename)); err != nil {
		slog.Warn("Failed to remove product image", "file", filename, "error", err)
	}
}

// saveUploadedImage stores the optional image_file upload, resized to a max
// width of 800px and re-encoded as JPEG, and returns its file name in
// UploadDir. It returns "" when no file was sent.
func (h *AdminHandler) saveUploadedImage(r *http.Request) (string, error) {
	file, header, err := r.FormFile("image_file")
	if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
		return "", nil
	}
	if err != nil {
		return "", &shop.Error{Kind: shop.ErrValidation, Msg: "Could not read uploaded image."}
	}
	defer file.Close()

	// Decode image
	var img image.Image
	switch strings.ToLower(filepath.Ext(header.Filename)) {
	case ".png":
		img, err = png.Decode(file)
	case ".jpg", ".jpeg":
		img, err = jpeg.Decode(file)
	default:
		return "", &shop.Error{Kind: shop.ErrValidation, Msg: "Unsupported image format. Only PNG, JPG, JPEG are allowed."}
	}
	if err != nil {
		return "", &shop.Error{Kind: shop.ErrValidation, Msg: "Failed to decode image."}
	}

	// Resize image (max width 800px, preserve aspect ratio)
	if img.Bounds().Dx() > 800 {
		img = resize.Resize(800, 0, img, resize.Lanczos3)
	}

	if err := os.MkdirAll(h.UploadDir, 0o755); err != nil {
		return "", fmt.Errorf("create upload dir: %w", err)
	}
	filename := uuid.NewString() + ".jpg"
	path := filepath.Join(h.UploadDir, filename)
	out, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create upload: %w", err)
	}

	err = jpeg.Encode(out, img, &jpeg.Options{Quality: 80})
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(path)
		return "", fmt.Errorf("encode upload: %w", err)
	}
	slog.Info("Stored product image", "file", filename)
	return filename, nil
}
