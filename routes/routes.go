// routes/routes.go
package routes

import (
	"net/http"

	"go-phonestore/controllers"
	"go-phonestore/middleware"
	"go-phonestore/services"

	"github.com/gorilla/mux"
)

// Controllers groups every controller the router dispatches to
type Controllers struct {
	User      *controllers.UserController
	Product   *controllers.ProductController
	Catalog   *controllers.CatalogController
	Filters   *controllers.FiltersController
	Cart      *controllers.CartController
	Order     *controllers.OrderController
	Address   *controllers.AddressController
	Payment   *controllers.PaymentController
	Settings  *controllers.SettingsController
	Backup    *controllers.BackupController
	Analytics *controllers.AnalyticsController
	Health    *controllers.HealthController
}

// Middleware carries the shared middleware instances
type Middleware struct {
	Verifier  middleware.Verifier
	Settings  *services.SettingsProvider
	Cache     *middleware.Cache
	RateLimit func(http.Handler) http.Handler
}

// RegisterRoutes sets up all the routes for the application
func RegisterRoutes(router *mux.Router, c Controllers, mw Middleware) {
	auth := middleware.AuthMiddleware(mw.Verifier)
	limited := func(h http.HandlerFunc) http.Handler {
		if mw.RateLimit == nil {
			return h
		}
		return mw.RateLimit(h)
	}
	cached := func(h http.HandlerFunc) http.Handler {
		if mw.Cache == nil {
			return h
		}
		return mw.Cache.Middleware(h)
	}

	// Public routes
	router.HandleFunc("/healthz", c.Health.Health).Methods("GET")
	router.Handle("/register", limited(c.User.Register)).Methods("POST")
	router.Handle("/login", limited(c.User.Login)).Methods("POST")
	router.Handle("/password-reset", limited(c.User.RequestPasswordReset)).Methods("POST")
	router.Handle("/password-reset/confirm", limited(c.User.ConfirmPasswordReset)).Methods("POST")

	// Product routes
	router.Handle("/products", cached(c.Product.GetProducts)).Methods("GET")
	router.Handle("/products/featured", cached(c.Product.GetFeaturedProducts)).Methods("GET")
	router.Handle("/products/{id}", cached(c.Product.GetProductByID)).Methods("GET")

	// Filter routes
	router.Handle("/filters", cached(c.Filters.GetFilters)).Methods("GET")
	router.HandleFunc("/filters/toggle", c.Filters.Toggle).Methods("GET")
	router.HandleFunc("/filters/price", c.Filters.SetPrice).Methods("GET")

	router.Handle("/settings/store", cached(c.Settings.GetStoreSettings)).Methods("GET")

	// Catalog routes (categories, brands, conditions, ...)
	catalog := "/{catalog:" + controllers.CatalogPattern + "}"
	router.Handle(catalog, cached(c.Catalog.List)).Methods("GET")
	router.Handle(catalog+"/{id}", cached(c.Catalog.Get)).Methods("GET")

	// Admin routes
	admin := router.PathPrefix("/admin").Subrouter()
	admin.Use(auth)
	admin.Use(middleware.AdminMiddleware)
	if mw.Cache != nil {
		admin.Use(mw.Cache.PurgeOnWrite)
	}
	admin.HandleFunc("/products", c.Product.CreateProduct).Methods("POST")
	admin.HandleFunc("/products/{id}", c.Product.UpdateProduct).Methods("PUT")
	admin.HandleFunc("/products/{id}", c.Product.DeleteProduct).Methods("DELETE")
	admin.HandleFunc("/products/{id}/image", c.Product.UploadImage).Methods("POST")

	admin.HandleFunc(catalog, c.Catalog.Create).Methods("POST")
	admin.HandleFunc(catalog+"/{id}", c.Catalog.Update).Methods("PUT")
	admin.HandleFunc(catalog+"/{id}", c.Catalog.Delete).Methods("DELETE")

	admin.HandleFunc("/orders", c.Order.ListAllOrders).Methods("GET")
	admin.HandleFunc("/orders/{id}/status", c.Order.UpdateOrderStatus).Methods("PUT")

	admin.HandleFunc("/users", c.User.ListUsers).Methods("GET")
	admin.HandleFunc("/users/{id}/role", c.User.SetRole).Methods("PUT")

	admin.HandleFunc("/settings", c.Settings.GetSettings).Methods("GET")
	admin.HandleFunc("/settings/store", c.Settings.UpdateStoreSettings).Methods("PUT")
	admin.HandleFunc("/settings/email", c.Settings.UpdateEmailSettings).Methods("PUT")
	admin.HandleFunc("/settings/refresh", c.Settings.RefreshSettings).Methods("POST")

	admin.HandleFunc("/backup", c.Backup.Export).Methods("GET")
	admin.HandleFunc("/backup", c.Backup.Import).Methods("POST")
	admin.HandleFunc("/backup/{collection}", c.Backup.DeleteCollection).Methods("DELETE")

	admin.HandleFunc("/analytics", c.Analytics.Summary).Methods("GET")

	// Protected routes
	protected := router.PathPrefix("/").Subrouter()
	protected.Use(auth)
	protected.Use(middleware.Maintenance(mw.Settings))
	protected.HandleFunc("/profile", c.User.GetProfile).Methods("GET")
	protected.HandleFunc("/profile", c.User.UpdateProfile).Methods("PUT")

	// Cart Routes
	protected.HandleFunc("/cart", c.Cart.GetCart).Methods("GET")
	protected.HandleFunc("/cart", c.Cart.AddToCart).Methods("POST")
	protected.HandleFunc("/cart", c.Cart.ClearCart).Methods("DELETE")
	protected.HandleFunc("/cart/{productId}", c.Cart.UpdateCartItem).Methods("PUT")
	protected.HandleFunc("/cart/{productId}", c.Cart.RemoveFromCart).Methods("DELETE")

	// Order Routes
	protected.HandleFunc("/orders", c.Order.CreateOrder).Methods("POST")
	protected.HandleFunc("/orders", c.Order.GetOrders).Methods("GET")
	protected.HandleFunc("/orders/{id}", c.Order.GetOrder).Methods("GET")
	protected.HandleFunc("/orders/{id}/cancel", c.Order.CancelOrder).Methods("POST")

	// Address book and saved cards
	protected.HandleFunc("/addresses", c.Address.List).Methods("GET")
	protected.HandleFunc("/addresses", c.Address.Create).Methods("POST")
	protected.HandleFunc("/addresses/{id}", c.Address.Update).Methods("PUT")
	protected.HandleFunc("/addresses/{id}", c.Address.Delete).Methods("DELETE")
	protected.HandleFunc("/addresses/{id}/default", c.Address.SetDefault).Methods("POST")

	protected.HandleFunc("/payment-methods", c.Payment.List).Methods("GET")
	protected.HandleFunc("/payment-methods", c.Payment.Create).Methods("POST")
	protected.HandleFunc("/payment-methods/{id}", c.Payment.Update).Methods("PUT")
	protected.HandleFunc("/payment-methods/{id}", c.Payment.Delete).Methods("DELETE")
	protected.HandleFunc("/payment-methods/{id}/default", c.Payment.SetDefault).Methods("POST")
}
