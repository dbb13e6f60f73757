package handlers

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alextreichler/storefront/internal/shop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func multipartProduct(t *testing.T, fields map[string]string, filename string, file []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	if filename != "" {
		fw, err := w.CreateFormFile("image_file", filename)
		require.NoError(t, err)
		_, err = fw.Write(file)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

func widePNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 1600, 400))
	for x := 0; x < 1600; x++ {
		img.Set(x, 0, color.RGBA{R: 200, A: 255})
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestAdminUploadsResizedImage(t *testing.T) {
	app := newTestApp(t)
	ctx := context.Background()
	_, err := app.shop.Auth.ProvisionAdmin(ctx, "root", "toor")
	require.NoError(t, err)
	c := app.client(t)
	app.login(t, c, "root", "toor")

	body, contentType := multipartProduct(t, map[string]string{
		"name":  "Poster",
		"price": "9.99",
	}, "poster.png", widePNG(t))
	resp, err := c.Post(app.server.URL+"/admin/add_product", contentType, body)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, "/admin", resp.Header.Get("Location"))

	products, err := app.shop.Catalog.ListProducts(ctx, shop.Filter{Search: "poster"})
	require.NoError(t, err)
	require.Len(t, products, 1)
	imageURL := products[0].Image
	require.True(t, strings.HasPrefix(imageURL, "/static/uploads/"), imageURL)
	require.True(t, strings.HasSuffix(imageURL, ".jpg"), imageURL)

	f, err := os.Open(filepath.Join(app.uploadDir, strings.TrimPrefix(imageURL, "/static/uploads/")))
	require.NoError(t, err)
	defer f.Close()
	cfg, err := jpeg.DecodeConfig(f)
	require.NoError(t, err)
	assert.Equal(t, 800, cfg.Width)
	assert.Equal(t, 200, cfg.Height)

	served, _ := app.get(t, c, imageURL)
	assert.Equal(t, http.StatusOK, served.StatusCode)
}

func TestAdminRejectsUnsupportedUpload(t *testing.T) {
	app := newTestApp(t)
	ctx := context.Background()
	_, err := app.shop.Auth.ProvisionAdmin(ctx, "root", "toor")
	require.NoError(t, err)
	c := app.client(t)
	app.login(t, c, "root", "toor")

	body, contentType := multipartProduct(t, map[string]string{
		"name":  "Doc",
		"price": "1",
	}, "notes.gif", []byte("GIF89a"))
	resp, err := c.Post(app.server.URL+"/admin/add_product", contentType, body)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, "/admin/add_product", resp.Header.Get("Location"))

	_, page := app.get(t, c, "/admin/add_product")
	assert.Contains(t, page, "Unsupported image format.")

	products, err := app.shop.Catalog.ListProducts(ctx, shop.Filter{Search: "doc"})
	require.NoError(t, err)
	assert.Empty(t, products)
}

func TestAdminRejectedFormLeavesNoUpload(t *testing.T) {
	app := newTestApp(t)
	ctx := context.Background()
	_, err := app.shop.Auth.ProvisionAdmin(ctx, "root", "toor")
	require.NoError(t, err)
	c := app.client(t)
	app.login(t, c, "root", "toor")

	body, contentType := multipartProduct(t, map[string]string{
		"name":  "Poster",
		"price": "-5",
	}, "poster.png", widePNG(t))
	resp, err := c.Post(app.server.URL+"/admin/add_product", contentType, body)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, "/admin/add_product", resp.Header.Get("Location"))

	body, contentType = multipartProduct(t, map[string]string{
		"name":  "Poster",
		"price": "5",
	}, "poster.png", widePNG(t))
	resp, err = c.Post(app.server.URL+"/admin/edit_product/404", contentType, body)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, "/admin", resp.Header.Get("Location"))

	entries, err := os.ReadDir(app.uploadDir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
