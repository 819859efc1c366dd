package usecase

import (
	"time"

	"github.com/DRSN-tech/shop-backend/internal/domain"
)

// USER USECASE

// RegisterUserReq — запрос регистрации пользователя.
type RegisterUserReq struct {
	Name     string
	Email    string
	Password string
}

// UserInfo — DTO пользователя без чувствительных полей.
type UserInfo struct {
	ID    int64
	Name  string
	Email string
}

// PRODUCT USECASE

// AddProductReq — запрос на добавление нового товара.
type AddProductReq struct {
	Name        string
	Description string
	Price       int64
	Stock       int64
}

// UpdateProductReq — запрос на обновление товара каталога.
type UpdateProductReq struct {
	ID          int64
	Name        string
	Description string
	Price       int64
	Stock       int64
}

// GetProductsReq запрос информации о товарах по их идентификаторам.
type GetProductsReq struct {
	IDs []int64
}

// GetProductsRes — ответ с данными запрошенных товаров.
type GetProductsRes struct {
	Products         []ProductInfo
	NotFoundProducts []int64
}

// ProductInfo — DTO с краткой информацией о товаре. Остаток сюда
// намеренно не входит: он меняется каждым оформлением заказа и
// не подлежит кэшированию.
type ProductInfo struct {
	ID    int64
	Name  string
	Price int64
}

// CART USECASE

// AddToCartReq — запрос на добавление товара в корзину.
type AddToCartReq struct {
	UserID    int64
	ProductID int64
	Quantity  int64
}

// CartViewLine — позиция корзины, дополненная данными каталога.
// Unavailable выставляется, если товар был удалён после добавления.
type CartViewLine struct {
	ProductID   int64
	Name        string
	Quantity    int64
	UnitPrice   int64
	LineTotal   int64
	Unavailable bool
}

// CartView — проекция корзины для отображения.
type CartView struct {
	UserID int64
	Lines  []CartViewLine
	Total  int64
}

// OUTBOX

type OutboxStatus string

const (
	Pending    OutboxStatus = "pending"
	Processing OutboxStatus = "processing"
	Processed  OutboxStatus = "processed"
)

type OutboxEventType string

const (
	OrderPlaced OutboxEventType = "order.placed"
)

// OutboxEvent — событие для публикации в Kafka, записываемое в одной
// транзакции с породившим его изменением.
type OutboxEvent struct {
	ID          int64
	EventID     string
	EventType   OutboxEventType
	OrderID     int64
	Payload     []byte
	Status      OutboxStatus
	CreatedAt   time.Time
	ProcessedAt *time.Time
}

// OrderPlacedPayload — тело события order.placed.
type OrderPlacedPayload struct {
	EventID   string                   `json:"event_id"`
	OrderID   int64                    `json:"order_id"`
	UserID    int64                    `json:"user_id"`
	Total     int64                    `json:"total"`
	Lines     []OrderPlacedPayloadLine `json:"lines"`
	CreatedAt time.Time                `json:"created_at"`
}

type OrderPlacedPayloadLine struct {
	ProductID int64  `json:"product_id"`
	Name      string `json:"name"`
	Quantity  int64  `json:"quantity"`
	UnitPrice int64  `json:"unit_price"`
}

// INFRASTRUCTURE

type WriteRawMessageReq struct {
	OrderID int64
	Payload []byte
}

// MAPPERS

func NewUserInfo(user *domain.User) *UserInfo {
	return &UserInfo{
		ID:    user.ID,
		Name:  user.Name,
		Email: user.Email,
	}
}

func NewRegisterUserReq(name, email, password string) *RegisterUserReq {
	return &RegisterUserReq{
		Name:     name,
		Email:    email,
		Password: password,
	}
}

func NewAddProductReq(name, description string, price, stock int64) *AddProductReq {
	return &AddProductReq{
		Name:        name,
		Description: description,
		Price:       price,
		Stock:       stock,
	}
}

func NewProductInfo(id int64, name string, price int64) ProductInfo {
	return ProductInfo{
		ID:    id,
		Name:  name,
		Price: price,
	}
}

func NewGetProductsReq(ids []int64) *GetProductsReq {
	return &GetProductsReq{ids}
}

func NewGetProductsRes(pr []ProductInfo, notFoundProducts []int64) *GetProductsRes {
	return &GetProductsRes{
		Products:         pr,
		NotFoundProducts: notFoundProducts,
	}
}

func NewAddToCartReq(userID, productID, quantity int64) *AddToCartReq {
	return &AddToCartReq{
		UserID:    userID,
		ProductID: productID,
		Quantity:  quantity,
	}
}

func NewWriteRawMessageReq(orderID int64, payload []byte) *WriteRawMessageReq {
	return &WriteRawMessageReq{
		OrderID: orderID,
		Payload: payload,
	}
}
