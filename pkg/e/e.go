package e

import "fmt"

var (
	// Внутренние ошибки с транзакциями
	ErrTransactionNotFound = fmt.Errorf("transaction not found")

	// Ошибки оформления заказа
	ErrEmptyCart            = fmt.Errorf("cart is empty")
	ErrInsufficientStock    = fmt.Errorf("insufficient stock")
	ErrCartConflict         = fmt.Errorf("cart was modified concurrently")
	ErrCheckoutInconsistent = fmt.Errorf("order write failed after stock was reserved, manual reconciliation required")

	// 400 Bad Request
	ErrMissingFields       = fmt.Errorf("missing fields in request body")
	ErrInvalidPrice        = fmt.Errorf("invalid price")
	ErrPricePrecision      = fmt.Errorf("price must have at most 2 decimal places")
	ErrInvalidQuantity     = fmt.Errorf("quantity must be positive")
	ErrInvalidStock        = fmt.Errorf("stock must be non-negative")
	ErrInvalidID           = fmt.Errorf("invalid id")
	ErrProductNameRequired = fmt.Errorf("product name is required")
	ErrStatusBadRequest    = fmt.Errorf("bad request")

	// 403 Forbidden
	ErrEmailTaken = fmt.Errorf("user with this email already exists")

	// 404 Not Found
	ErrUserNotFound    = fmt.Errorf("user not found")
	ErrProductNotFound = fmt.Errorf("product not found")
	ErrCartNotFound    = fmt.Errorf("cart not found")
	ErrLineNotFound    = fmt.Errorf("product is not in the cart")
	ErrOrderNotFound   = fmt.Errorf("order not found")

	// 409 Conflict
	ErrProductReferenced = fmt.Errorf("product is referenced by a cart or an order")

	// 500 Internal Server Error
	ErrInternalServerError = fmt.Errorf("internal server error")
)

// InsufficientStockError уточняет ErrInsufficientStock: какой товар,
// сколько запрошено и сколько доступно на момент резервирования.
type InsufficientStockError struct {
	ProductID int64
	Requested int64
	Available int64
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf(
		"insufficient stock for product %d: requested %d, available %d",
		e.ProductID, e.Requested, e.Available,
	)
}

func (e *InsufficientStockError) Unwrap() error {
	return ErrInsufficientStock
}

func NewInsufficientStockError(productID, requested, available int64) *InsufficientStockError {
	return &InsufficientStockError{
		ProductID: productID,
		Requested: requested,
		Available: available,
	}
}

// Wrap оборачивает ошибку
func Wrap(msg string, err error) error {
	return fmt.Errorf("%s: %w", msg, err)
}
