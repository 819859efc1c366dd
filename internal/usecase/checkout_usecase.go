package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/DRSN-tech/shop-backend/internal/cfg"
	"github.com/DRSN-tech/shop-backend/internal/domain"
	"github.com/DRSN-tech/shop-backend/pkg/e"
	"github.com/DRSN-tech/shop-backend/pkg/jitter"
	"github.com/DRSN-tech/shop-backend/pkg/logger"
	"github.com/DRSN-tech/shop-backend/pkg/metrics"
	transaction "github.com/avito-tech/go-transaction-manager/drivers/pgxv5/v2"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// CheckoutUseCase превращает корзину в заказ.
//
// Оформление проходит стадии Validating -> Reserving -> Committing -> Done.
// Из первых двух возможен откат без побочных эффектов: резервирования
// компенсируются обратным начислением. Начавшийся Committing доводится
// до конца либо до ErrCheckoutInconsistent, промежуточных состояний
// наружу не видно.
type CheckoutUseCase struct {
	cartRepo      CartRepository
	productRepo   ProductRepository
	inventoryRepo InventoryRepository
	orderRepo     OrderRepository
	outboxRepo    OutboxRepository
	dbPool        transaction.Transactional
	cfg           *cfg.CheckoutCfg
	logger        logger.Logger
	metrics       *metrics.CheckoutMetrics
}

func NewCheckoutUC(
	cartRepo CartRepository,
	productRepo ProductRepository,
	inventoryRepo InventoryRepository,
	orderRepo OrderRepository,
	outboxRepo OutboxRepository,
	dbPool transaction.Transactional,
	cfg *cfg.CheckoutCfg,
	logger logger.Logger,
	metrics *metrics.CheckoutMetrics,
) *CheckoutUseCase {
	return &CheckoutUseCase{
		cartRepo:      cartRepo,
		productRepo:   productRepo,
		inventoryRepo: inventoryRepo,
		orderRepo:     orderRepo,
		outboxRepo:    outboxRepo,
		dbPool:        dbPool,
		cfg:           cfg,
		logger:        logger,
		metrics:       metrics,
	}
}

// Checkout оформляет заказ по текущему содержимому корзины пользователя.
func (c *CheckoutUseCase) Checkout(ctx context.Context, userID int64) (*domain.Order, error) {
	const op = "CheckoutUseCase.Checkout"

	// === Validating ===
	cart, err := c.cartRepo.GetByUser(ctx, userID)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	if cart.IsEmpty() {
		c.metrics.IncAborted("empty_cart")
		return nil, e.Wrap(op, e.ErrEmptyCart)
	}

	infos, err := c.loadProducts(ctx, cart)
	if err != nil {
		c.metrics.IncAborted(abortReason(err))
		return nil, e.Wrap(op, err)
	}

	// === Reserving ===
	reserved, err := c.reserveLines(ctx, cart.Lines)
	if err != nil {
		c.releaseAll(ctx, reserved)
		c.metrics.IncAborted(abortReason(err))
		return nil, e.Wrap(op, err)
	}

	// Отмена вызывающим допустима только до начала коммита
	if err := ctx.Err(); err != nil {
		c.releaseAll(ctx, reserved)
		c.metrics.IncAborted("cancelled")
		return nil, e.Wrap(op, err)
	}

	order := c.buildOrder(userID, cart, infos)

	// === Committing ===
	// Коммит не должен прерываться отменой исходного запроса: резерв уже
	// списан, и заказ обязан быть записан.
	commitCtx := context.WithoutCancel(ctx)

	placed, err := c.commitOrder(commitCtx, order, cart)
	if err != nil {
		if errors.Is(err, e.ErrCartConflict) {
			// Заказ не записан, корзина изменилась после чтения:
			// возвращаем резерв и отдаём конфликт вызывающему на повтор.
			c.releaseAll(commitCtx, reserved)
			c.metrics.IncAborted("cart_conflict")
			return nil, e.Wrap(op, err)
		}

		// Резерв списан, заказа нет. Единственное место, где система
		// не атомарна: требуется сверка оператором.
		c.metrics.IncInconsistent()
		c.logger.Errorf(err,
			"checkout inconsistent: stock reserved but order not written. user_id: %d, lines: %d, total: %d",
			userID, len(order.Lines), order.Total,
		)
		return nil, e.Wrap(op, e.ErrCheckoutInconsistent)
	}

	// === Done ===
	c.metrics.IncCompleted()
	return placed, nil
}

// GetOrder возвращает заказ по идентификатору.
func (c *CheckoutUseCase) GetOrder(ctx context.Context, orderID int64) (*domain.Order, error) {
	const op = "CheckoutUseCase.GetOrder"

	order, err := c.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	return order, nil
}

// ListOrders возвращает заказы пользователя.
func (c *CheckoutUseCase) ListOrders(ctx context.Context, userID int64) ([]domain.Order, error) {
	const op = "CheckoutUseCase.ListOrders"

	orders, err := c.orderRepo.GetByUser(ctx, userID)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	return orders, nil
}

// abortReason переводит ошибку прерванного оформления в метку метрики.
// Инфраструктурные сбои не должны маскироваться под доменные причины.
func abortReason(err error) string {
	switch {
	case errors.Is(err, e.ErrProductNotFound):
		return "product_not_found"
	case errors.Is(err, e.ErrInsufficientStock):
		return "insufficient_stock"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "cancelled"
	default:
		return "store_failed"
	}
}

// loadProducts читает товары позиций корзины напрямую из БД, минуя кэш:
// снимок цен для заказа обязан быть актуальным.
func (c *CheckoutUseCase) loadProducts(ctx context.Context, cart *domain.Cart) (map[int64]ProductInfo, error) {
	ids := make([]int64, 0, len(cart.Lines))
	for _, line := range cart.Lines {
		ids = append(ids, line.ProductID)
	}

	infos, err := c.productRepo.GetProductsInfo(ctx, ids)
	if err != nil {
		return nil, err
	}

	byID := make(map[int64]ProductInfo, len(infos))
	for _, info := range infos {
		byID[info.ID] = info
	}

	for _, line := range cart.Lines {
		if _, ok := byID[line.ProductID]; !ok {
			return nil, fmt.Errorf("product %d: %w", line.ProductID, e.ErrProductNotFound)
		}
	}

	return byID, nil
}

// reserveLines списывает остатки по позициям в порядке возрастания ID
// товара, чтобы конкурирующие оформления захватывали строки в одном
// порядке. Возвращает успешно зарезервированный префикс и ошибку
// первой неудачи.
func (c *CheckoutUseCase) reserveLines(ctx context.Context, lines []domain.CartLine) ([]domain.CartLine, error) {
	ordered := make([]domain.CartLine, len(lines))
	copy(ordered, lines)
	sort.Slice(ordered, func(i, j int) bool {
		return ordered[i].ProductID < ordered[j].ProductID
	})

	reserved := make([]domain.CartLine, 0, len(ordered))
	for _, line := range ordered {
		if err := c.inventoryRepo.TryReserve(ctx, line.ProductID, line.Quantity); err != nil {
			return reserved, err
		}
		reserved = append(reserved, line)
	}

	return reserved, nil
}

// releaseAll возвращает на склад всё, что успело зарезервироваться.
// Работает на не отменяемом контексте: компенсация обязана дойти до БД
// даже после отмены исходного запроса.
func (c *CheckoutUseCase) releaseAll(ctx context.Context, reserved []domain.CartLine) {
	ctx = context.WithoutCancel(ctx)
	for i := len(reserved) - 1; i >= 0; i-- {
		line := reserved[i]
		if err := c.inventoryRepo.Release(ctx, line.ProductID, line.Quantity); err != nil {
			c.logger.Errorf(err,
				"failed to release reserved stock. product_id: %d, quantity: %d",
				line.ProductID, line.Quantity,
			)
		}
	}
}

// buildOrder собирает снимок заказа: позиции в порядке корзины,
// название и цена зафиксированы из прочитанного каталога.
func (c *CheckoutUseCase) buildOrder(userID int64, cart *domain.Cart, infos map[int64]ProductInfo) *domain.Order {
	lines := make([]domain.OrderLine, 0, len(cart.Lines))
	for _, line := range cart.Lines {
		info := infos[line.ProductID]
		lines = append(lines, domain.OrderLine{
			ProductID: line.ProductID,
			Name:      info.Name,
			Quantity:  line.Quantity,
			UnitPrice: info.Price,
		})
	}

	return domain.NewOrder(userID, lines)
}

// commitOrder записывает заказ с повторами: после успешного
// резервирования молчаливый отказ недопустим. Конфликт версии корзины
// не повторяется, он означает конкурентное оформление.
func (c *CheckoutUseCase) commitOrder(ctx context.Context, order *domain.Order, cart *domain.Cart) (*domain.Order, error) {
	const maxBackoff = 2 * time.Second

	var lastErr error
	for attempt := 0; attempt < c.cfg.CommitAttempts; attempt++ {
		if attempt > 0 {
			time.Sleep(jitter.ExponentialBackoff(c.cfg.CommitBackoff, maxBackoff, attempt-1, jitter.DefaultJitter))
		}

		placed, err := c.commitOnce(ctx, order, cart)
		if err == nil {
			return placed, nil
		}
		if errors.Is(err, e.ErrCartConflict) {
			return nil, err
		}

		c.logger.Warnf("order write attempt %d/%d failed: %v", attempt+1, c.cfg.CommitAttempts, err)
		lastErr = err
	}

	return nil, lastErr
}

// commitOnce выполняет одну попытку коммита: заказ, условная очистка
// корзины и outbox-событие в одной транзакции.
func (c *CheckoutUseCase) commitOnce(ctx context.Context, order *domain.Order, cart *domain.Cart) (placed *domain.Order, err error) {
	const op = "CheckoutUseCase.commitOnce"

	ctx, tx, err := transaction.NewTransaction(ctx, pgx.TxOptions{}, c.dbPool)
	if err != nil {
		return nil, e.Wrap(op, err)
	}
	defer func() {
		if err != nil && tx.IsActive() {
			tx.Rollback(ctx)
		}
	}()
	ctx = context.WithValue(ctx, "tx", tx.Transaction())

	placed, err = c.orderRepo.Create(ctx, order)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	// Очистка обусловлена версией: если корзина изменилась после чтения,
	// транзакция откатывается целиком и заказ не появляется.
	if err = c.cartRepo.ClearIfVersion(ctx, cart.UserID, cart.Version); err != nil {
		return nil, e.Wrap(op, err)
	}

	event, err := newOrderPlacedEvent(placed)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	if _, err = c.outboxRepo.Create(ctx, event); err != nil {
		return nil, e.Wrap(op, err)
	}

	if err = tx.Commit(ctx); err != nil {
		return nil, e.Wrap(op, err)
	}

	return placed, nil
}

func newOrderPlacedEvent(order *domain.Order) (*OutboxEvent, error) {
	eventID := uuid.NewString()

	payload := OrderPlacedPayload{
		EventID:   eventID,
		OrderID:   order.ID,
		UserID:    order.UserID,
		Total:     order.Total,
		Lines:     make([]OrderPlacedPayloadLine, 0, len(order.Lines)),
		CreatedAt: order.CreatedAt,
	}
	for _, line := range order.Lines {
		payload.Lines = append(payload.Lines, OrderPlacedPayloadLine{
			ProductID: line.ProductID,
			Name:      line.Name,
			Quantity:  line.Quantity,
			UnitPrice: line.UnitPrice,
		})
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	return &OutboxEvent{
		EventID:   eventID,
		EventType: OrderPlaced,
		OrderID:   order.ID,
		Payload:   data,
		Status:    Pending,
		CreatedAt: time.Now(),
	}, nil
}
