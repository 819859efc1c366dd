package http

import (
	_ "github.com/DRSN-tech/shop-backend/docs" // Импорт сгенерированных файлов
	"github.com/DRSN-tech/shop-backend/internal/usecase"
	"github.com/DRSN-tech/shop-backend/pkg/logger"
	"github.com/DRSN-tech/shop-backend/pkg/metrics"
	"github.com/go-chi/chi/v5"
	httpSwagger "github.com/swaggo/http-swagger/v2"
)

type Router struct {
	router *chi.Mux
	logger logger.Logger
}

func NewRouter(router *chi.Mux, logger logger.Logger) *Router {
	return &Router{router: router, logger: logger}
}

func (r *Router) Init(userUC usecase.UserUC, prUC usecase.ProductUC, cartUC usecase.CartUC, checkoutUC usecase.CheckoutUC, httpMetrics *metrics.HTTPMetrics) {
	if httpMetrics != nil {
		r.router.Use(httpMetrics.Middleware)
	}

	r.router.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("http://localhost:8080/swagger/doc.json"), // ссылка на JSON
	))
	r.router.Handle("/metrics", metrics.Handler())

	r.router.Route("/api/v1", func(v1 chi.Router) {
		registerUserRoutes(v1, NewUserHandler(userUC, r.logger), NewCartHandler(cartUC, r.logger), NewOrderHandler(checkoutUC, r.logger))
		registerProductRoutes(v1, NewProductHandler(prUC, r.logger))
		registerOrderRoutes(v1, NewOrderHandler(checkoutUC, r.logger))
	})
}

func registerUserRoutes(router chi.Router, userHandler *UserHandler, cartHandler *CartHandler, orderHandler *OrderHandler) {
	router.Route("/users", func(u chi.Router) {
		u.Post("/", userHandler.registerUser)
		u.Get("/", userHandler.listUsers)

		u.Route("/{userID}", func(one chi.Router) {
			one.Get("/cart", cartHandler.viewCart)
			one.Delete("/cart", cartHandler.clearCart)
			one.Post("/cart/items", cartHandler.addToCart)
			one.Delete("/cart/items/{productID}", cartHandler.removeFromCart)

			one.Post("/checkout", orderHandler.checkout)
			one.Get("/orders", orderHandler.listOrders)
		})
	})
}

func registerProductRoutes(router chi.Router, prHandler *ProductHandler) {
	router.Route("/products", func(pr chi.Router) {
		pr.Post("/", prHandler.addProduct)
		pr.Get("/", prHandler.listProducts)
		pr.Get("/info", prHandler.getProductsInfo)
		pr.Get("/{id}", prHandler.getProduct)
		pr.Put("/{id}", prHandler.updateProduct)
		pr.Delete("/{id}", prHandler.deleteProduct)
	})
}

func registerOrderRoutes(router chi.Router, orderHandler *OrderHandler) {
	router.Route("/orders", func(o chi.Router) {
		o.Get("/{id}", orderHandler.getOrder)
	})
}
