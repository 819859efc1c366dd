package usecase

import (
	"context"

	"github.com/DRSN-tech/shop-backend/internal/domain"
)

type UserUC interface {
	Register(ctx context.Context, req *RegisterUserReq) (*UserInfo, error)
	ListUsers(ctx context.Context) ([]UserInfo, error)
}

type ProductUC interface {
	AddProduct(ctx context.Context, req *AddProductReq) (*domain.Product, error)
	GetProduct(ctx context.Context, id int64) (*domain.Product, error)
	ListProducts(ctx context.Context) ([]domain.Product, error)
	UpdateProduct(ctx context.Context, req *UpdateProductReq) (*domain.Product, error)
	DeleteProduct(ctx context.Context, id int64) error
	ProductInfoReader
}

// ProductInfoReader — чтение краткой информации о товарах (кэш + БД).
type ProductInfoReader interface {
	GetProductsInfo(ctx context.Context, req *GetProductsReq) (*GetProductsRes, error)
}

type CartUC interface {
	AddProduct(ctx context.Context, req *AddToCartReq) (*CartView, error)
	RemoveProduct(ctx context.Context, userID, productID int64) (*CartView, error)
	ClearCart(ctx context.Context, userID int64) error
	ViewCart(ctx context.Context, userID int64) (*CartView, error)
}

type CheckoutUC interface {
	// Checkout превращает корзину пользователя в заказ, списывая остатки.
	Checkout(ctx context.Context, userID int64) (*domain.Order, error)
	GetOrder(ctx context.Context, orderID int64) (*domain.Order, error)
	ListOrders(ctx context.Context, userID int64) ([]domain.Order, error)
}
