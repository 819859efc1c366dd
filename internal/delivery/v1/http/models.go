package http

import (
	"time"

	"github.com/DRSN-tech/shop-backend/internal/domain"
	"github.com/DRSN-tech/shop-backend/internal/usecase"
)

// Запросы. Цены передаются строками ("599.99"), чтобы не терять
// точность на float, и конвертируются в копейки на границе.

type registerUserRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type productRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Price       string `json:"price"`
	Stock       int64  `json:"stock"`
}

type addToCartRequest struct {
	ProductID int64 `json:"product_id"`
	Quantity  int64 `json:"quantity"`
}

// Ответы.

type userResponse struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type productResponse struct {
	ID          int64      `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description,omitempty"`
	Price       string     `json:"price"`
	Stock       int64      `json:"stock"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   *time.Time `json:"updated_at,omitempty"`
}

type productInfoResponse struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Price string `json:"price"`
}

type productsInfoResponse struct {
	Products []productInfoResponse `json:"products"`
	NotFound []int64               `json:"not_found,omitempty"`
}

type cartLineResponse struct {
	ProductID   int64  `json:"product_id"`
	Name        string `json:"name,omitempty"`
	Quantity    int64  `json:"quantity"`
	UnitPrice   string `json:"unit_price,omitempty"`
	LineTotal   string `json:"line_total,omitempty"`
	Unavailable bool   `json:"unavailable,omitempty"`
}

type cartResponse struct {
	UserID int64              `json:"user_id"`
	Lines  []cartLineResponse `json:"lines"`
	Total  string             `json:"total"`
}

type orderLineResponse struct {
	ProductID int64  `json:"product_id"`
	Name      string `json:"name"`
	Quantity  int64  `json:"quantity"`
	UnitPrice string `json:"unit_price"`
	LineTotal string `json:"line_total"`
}

type orderResponse struct {
	ID        int64               `json:"id"`
	UserID    int64               `json:"user_id"`
	Lines     []orderLineResponse `json:"lines"`
	Total     string              `json:"total"`
	CreatedAt time.Time           `json:"created_at"`
}

func newUserResponse(info *usecase.UserInfo) userResponse {
	return userResponse{
		ID:    info.ID,
		Name:  info.Name,
		Email: info.Email,
	}
}

func newProductResponse(product *domain.Product) productResponse {
	return productResponse{
		ID:          product.ID,
		Name:        product.Name,
		Description: product.Description,
		Price:       formatCents(product.Price),
		Stock:       product.Stock,
		CreatedAt:   product.CreatedAt,
		UpdatedAt:   product.UpdatedAt,
	}
}

func newProductsInfoResponse(res *usecase.GetProductsRes) productsInfoResponse {
	out := productsInfoResponse{
		Products: make([]productInfoResponse, 0, len(res.Products)),
		NotFound: res.NotFoundProducts,
	}
	for _, p := range res.Products {
		out.Products = append(out.Products, productInfoResponse{
			ID:    p.ID,
			Name:  p.Name,
			Price: formatCents(p.Price),
		})
	}

	return out
}

func newCartResponse(view *usecase.CartView) cartResponse {
	out := cartResponse{
		UserID: view.UserID,
		Lines:  make([]cartLineResponse, 0, len(view.Lines)),
		Total:  formatCents(view.Total),
	}
	for _, line := range view.Lines {
		lr := cartLineResponse{
			ProductID:   line.ProductID,
			Name:        line.Name,
			Quantity:    line.Quantity,
			Unavailable: line.Unavailable,
		}
		if !line.Unavailable {
			lr.UnitPrice = formatCents(line.UnitPrice)
			lr.LineTotal = formatCents(line.LineTotal)
		}
		out.Lines = append(out.Lines, lr)
	}

	return out
}

func newOrderResponse(order *domain.Order) orderResponse {
	out := orderResponse{
		ID:        order.ID,
		UserID:    order.UserID,
		Lines:     make([]orderLineResponse, 0, len(order.Lines)),
		Total:     formatCents(order.Total),
		CreatedAt: order.CreatedAt,
	}
	for _, line := range order.Lines {
		out.Lines = append(out.Lines, orderLineResponse{
			ProductID: line.ProductID,
			Name:      line.Name,
			Quantity:  line.Quantity,
			UnitPrice: formatCents(line.UnitPrice),
			LineTotal: formatCents(line.LineTotal()),
		})
	}

	return out
}
