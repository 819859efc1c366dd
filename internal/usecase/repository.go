package usecase

import (
	"context"

	"github.com/DRSN-tech/shop-backend/internal/domain"
)

type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	List(ctx context.Context) ([]domain.User, error)
	Exists(ctx context.Context, id int64) (bool, error)
}

type ProductRepository interface {
	Create(ctx context.Context, product *domain.Product) (*domain.Product, error)
	GetByID(ctx context.Context, id int64) (*domain.Product, error)
	List(ctx context.Context) ([]domain.Product, error)
	Update(ctx context.Context, product *domain.Product) (*domain.Product, error)
	// Delete удаляет товар, если на него не ссылается ни одна корзина и ни один заказ.
	Delete(ctx context.Context, id int64) error
	GetProductsInfo(ctx context.Context, ids []int64) ([]ProductInfo, error)
}

// InventoryRepository — единственный путь изменения остатков.
type InventoryRepository interface {
	// TryReserve атомарно списывает quantity со склада, только если
	// остатка достаточно. При нехватке возвращает InsufficientStockError,
	// остаток не меняется.
	TryReserve(ctx context.Context, productID, quantity int64) error
	// Release возвращает quantity на склад. Компенсация неудавшегося
	// многострочного резервирования.
	Release(ctx context.Context, productID, quantity int64) error
}

type CartRepository interface {
	// GetByUser возвращает корзину пользователя. Отсутствующая запись
	// читается как пустая корзина с версией 0.
	GetByUser(ctx context.Context, userID int64) (*domain.Cart, error)
	// Save сохраняет корзину с проверкой версии. Возвращает
	// ErrCartConflict, если корзина была изменена после чтения.
	Save(ctx context.Context, cart *domain.Cart) (*domain.Cart, error)
	// ClearIfVersion опустошает корзину, только если её версия не
	// изменилась. Ожидает транзакцию в контексте.
	ClearIfVersion(ctx context.Context, userID, version int64) error
}

type OrderRepository interface {
	// Create записывает заказ вместе с позициями. Ожидает транзакцию в контексте.
	Create(ctx context.Context, order *domain.Order) (*domain.Order, error)
	GetByID(ctx context.Context, id int64) (*domain.Order, error)
	GetByUser(ctx context.Context, userID int64) ([]domain.Order, error)
}

type OutboxRepository interface {
	Create(ctx context.Context, event *OutboxEvent) (*OutboxEvent, error)
	GetAndMarkAsProcessing(ctx context.Context, limit int) ([]*OutboxEvent, error)
	MarkAsProcessed(ctx context.Context, id int64) error
}

type CacheRepository interface {
	GetProducts(ctx context.Context, ids []int64) (map[int64]ProductInfo, error)
	SetProducts(ctx context.Context, products []ProductInfo) error
	DeleteProducts(ctx context.Context, ids []int64) error
}
