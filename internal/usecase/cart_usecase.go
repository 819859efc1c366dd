package usecase

import (
	"context"
	"errors"

	"github.com/DRSN-tech/shop-backend/internal/domain"
	"github.com/DRSN-tech/shop-backend/pkg/e"
	"github.com/DRSN-tech/shop-backend/pkg/logger"
)

// CartUseCase реализует операции над корзиной пользователя.
// Все изменения проходят через оптимистичную проверку версии; при
// конфликте операция повторяется с перечитыванием корзины.
type CartUseCase struct {
	cartRepo    CartRepository
	productRepo ProductRepository
	userRepo    UserRepository
	productInfo ProductInfoReader
	maxRetries  int
	logger      logger.Logger
}

func NewCartUC(
	cartRepo CartRepository,
	productRepo ProductRepository,
	userRepo UserRepository,
	productInfo ProductInfoReader,
	maxRetries int,
	logger logger.Logger,
) *CartUseCase {
	if maxRetries < 1 {
		maxRetries = 1
	}

	return &CartUseCase{
		cartRepo:    cartRepo,
		productRepo: productRepo,
		userRepo:    userRepo,
		productInfo: productInfo,
		maxRetries:  maxRetries,
		logger:      logger,
	}
}

// AddProduct добавляет товар в корзину, сливая количество с уже
// существующей позицией.
func (c *CartUseCase) AddProduct(ctx context.Context, req *AddToCartReq) (*CartView, error) {
	const op = "CartUseCase.AddProduct"

	if req.Quantity <= 0 {
		return nil, e.Wrap(op, e.ErrInvalidQuantity)
	}

	if err := c.ensureUser(ctx, req.UserID); err != nil {
		return nil, e.Wrap(op, err)
	}

	// Товар должен существовать в каталоге на момент добавления
	if _, err := c.productRepo.GetByID(ctx, req.ProductID); err != nil {
		return nil, e.Wrap(op, err)
	}

	var cart *domain.Cart
	err := c.withRetry(ctx, func(current *domain.Cart) error {
		if err := current.AddLine(req.ProductID, req.Quantity); err != nil {
			return err
		}
		cart = current
		return nil
	}, req.UserID)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	return c.buildView(ctx, cart)
}

// RemoveProduct удаляет позицию из корзины целиком.
func (c *CartUseCase) RemoveProduct(ctx context.Context, userID, productID int64) (*CartView, error) {
	const op = "CartUseCase.RemoveProduct"

	var cart *domain.Cart
	err := c.withRetry(ctx, func(current *domain.Cart) error {
		if err := current.RemoveLine(productID); err != nil {
			return err
		}
		cart = current
		return nil
	}, userID)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	return c.buildView(ctx, cart)
}

// ClearCart опустошает корзину. Повторный вызов на пустой корзине не ошибка.
func (c *CartUseCase) ClearCart(ctx context.Context, userID int64) error {
	const op = "CartUseCase.ClearCart"

	err := c.withRetry(ctx, func(current *domain.Cart) error {
		if current.IsEmpty() {
			return errNothingToSave
		}
		current.Clear()
		return nil
	}, userID)
	if err != nil {
		return e.Wrap(op, err)
	}

	return nil
}

// ViewCart строит проекцию корзины с текущими данными каталога.
// Позиции удалённых товаров помечаются недоступными, а не обрываются ошибкой.
func (c *CartUseCase) ViewCart(ctx context.Context, userID int64) (*CartView, error) {
	const op = "CartUseCase.ViewCart"

	cart, err := c.cartRepo.GetByUser(ctx, userID)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	return c.buildView(ctx, cart)
}

// errNothingToSave — внутренний сигнал withRetry: изменение не требуется.
var errNothingToSave = errors.New("nothing to save")

// withRetry перечитывает корзину и применяет mutate, повторяя цикл при
// конфликте версий. Конфликт после исчерпания попыток отдаётся наружу.
func (c *CartUseCase) withRetry(ctx context.Context, mutate func(*domain.Cart) error, userID int64) error {
	var lastErr error
	for attempt := 0; attempt < c.maxRetries; attempt++ {
		cart, err := c.cartRepo.GetByUser(ctx, userID)
		if err != nil {
			return err
		}

		if err := mutate(cart); err != nil {
			if errors.Is(err, errNothingToSave) {
				return nil
			}
			return err
		}

		if _, err := c.cartRepo.Save(ctx, cart); err != nil {
			if errors.Is(err, e.ErrCartConflict) {
				lastErr = err
				continue
			}
			return err
		}

		return nil
	}

	return lastErr
}

func (c *CartUseCase) ensureUser(ctx context.Context, userID int64) error {
	exists, err := c.userRepo.Exists(ctx, userID)
	if err != nil {
		return err
	}
	if !exists {
		return e.ErrUserNotFound
	}

	return nil
}

func (c *CartUseCase) buildView(ctx context.Context, cart *domain.Cart) (*CartView, error) {
	const op = "CartUseCase.buildView"

	view := &CartView{UserID: cart.UserID, Lines: make([]CartViewLine, 0, len(cart.Lines))}
	if cart.IsEmpty() {
		return view, nil
	}

	ids := make([]int64, 0, len(cart.Lines))
	for _, line := range cart.Lines {
		ids = append(ids, line.ProductID)
	}

	res, err := c.productInfo.GetProductsInfo(ctx, NewGetProductsReq(ids))
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	byID := make(map[int64]ProductInfo, len(res.Products))
	for _, info := range res.Products {
		byID[info.ID] = info
	}

	for _, line := range cart.Lines {
		info, ok := byID[line.ProductID]
		if !ok {
			// Товар удалён из каталога после добавления в корзину
			view.Lines = append(view.Lines, CartViewLine{
				ProductID:   line.ProductID,
				Quantity:    line.Quantity,
				Unavailable: true,
			})
			continue
		}

		lineTotal := info.Price * line.Quantity
		view.Lines = append(view.Lines, CartViewLine{
			ProductID: line.ProductID,
			Name:      info.Name,
			Quantity:  line.Quantity,
			UnitPrice: info.Price,
			LineTotal: lineTotal,
		})
		view.Total += lineTotal
	}

	return view, nil
}
