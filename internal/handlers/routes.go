package handlers

import (
	"net/http"

	"github.com/alextreichler/storefront/internal/cart"
	"github.com/alextreichler/storefront/internal/metrics"
)

// RouterOptions locates the on-disk assets served next to the pages.
type RouterOptions struct {
	StaticDir string
	UploadDir string
}

// NewRouter registers every route on a fresh mux. The caller adds the
// middleware chain (CSRF, logging, headers, metrics) around it.
func NewRouter(b *Base, carts *cart.Store, opts RouterOptions) *http.ServeMux {
	authHandler := &AuthHandler{Base: b, Carts: carts}
	homeHandler := &HomeHandler{Base: b}
	orderHandler := &OrderHandler{Base: b}
	adminHandler := &AdminHandler{Base: b, UploadDir: opts.UploadDir}

	mux := http.NewServeMux()

	// Static Files
	if opts.UploadDir != "" {
		mux.Handle("GET /static/uploads/", http.StripPrefix("/static/uploads", http.FileServer(http.Dir(opts.UploadDir))))
	}
	if opts.StaticDir != "" {
		mux.Handle("GET /static/", http.StripPrefix("/static", http.FileServer(http.Dir(opts.StaticDir))))
	}

	mux.Handle("GET /metrics", metrics.Handler())
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		if err := b.Shop.Ping(r.Context()); err != nil {
			http.Error(w, "unavailable", http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte("ok"))
	})

	// Public Routes
	mux.HandleFunc("GET /{$}", homeHandler.Index)
	mux.HandleFunc("GET /product/{id}", homeHandler.ProductDetail)

	mux.HandleFunc("GET /signup", authHandler.SignupGet)
	mux.HandleFunc("POST /signup", authHandler.SignupPost)
	mux.HandleFunc("GET /login", authHandler.LoginGet)
	mux.HandleFunc("POST /login", authHandler.LoginPost)
	mux.HandleFunc("GET /logout", authHandler.Logout)

	// Customer Routes
	mux.HandleFunc("GET /add_to_cart/{id}", authHandler.RequireAuth(orderHandler.AddToCart))
	mux.HandleFunc("GET /cart", authHandler.RequireAuth(orderHandler.ViewCart))
	mux.HandleFunc("GET /clear_cart", authHandler.RequireAuth(orderHandler.ClearCart))
	mux.HandleFunc("POST /checkout", authHandler.RequireAuth(orderHandler.Checkout))
	mux.HandleFunc("GET /orders", authHandler.RequireAuth(orderHandler.MyOrders))

	// Admin Routes
	mux.HandleFunc("GET /admin", authHandler.RequireAdmin(adminHandler.Dashboard))
	mux.HandleFunc("GET /admin/add_product", authHandler.RequireAdmin(adminHandler.AddProductForm))
	mux.HandleFunc("POST /admin/add_product", authHandler.RequireAdmin(adminHandler.CreateProduct))
	mux.HandleFunc("GET /admin/edit_product/{id}", authHandler.RequireAdmin(adminHandler.EditProductForm))
	mux.HandleFunc("POST /admin/edit_product/{id}", authHandler.RequireAdmin(adminHandler.UpdateProduct))
	mux.HandleFunc("GET /admin/delete_product/{id}", authHandler.RequireAdmin(adminHandler.DeleteProduct))
	mux.HandleFunc("POST /admin/add_category", authHandler.RequireAdmin(adminHandler.AddCategory))

	return mux
}
