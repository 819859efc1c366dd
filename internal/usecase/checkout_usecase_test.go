package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/DRSN-tech/shop-backend/internal/cfg"
	"github.com/DRSN-tech/shop-backend/internal/domain"
	"github.com/DRSN-tech/shop-backend/pkg/e"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type checkoutFixture struct {
	catalog *memProductRepo
	inv     *memInventoryRepo
	carts   *memCartRepo
	orders  *memOrderRepo
	outbox  *memOutboxRepo
	db      *fakeDB
	uc      *CheckoutUseCase
}

func newCheckoutFixture(products ...*domain.Product) *checkoutFixture {
	catalog := newMemProductRepo(products...)
	f := &checkoutFixture{
		catalog: catalog,
		inv:     newMemInventoryRepo(catalog),
		carts:   newMemCartRepo(),
		orders:  newMemOrderRepo(),
		outbox:  newMemOutboxRepo(),
		db:      &fakeDB{},
	}

	checkoutCfg := &cfg.CheckoutCfg{
		CommitAttempts: 3,
		CommitBackoff:  time.Millisecond,
		CartRetries:    3,
	}
	f.uc = NewCheckoutUC(f.carts, f.catalog, f.inv, f.orders, f.outbox, f.db, checkoutCfg, testLogger{}, nil)
	return f
}

func TestCheckout_Success(t *testing.T) {
	f := newCheckoutFixture(
		&domain.Product{ID: 1, Name: "pen", Price: 500, Stock: 5},
		&domain.Product{ID: 2, Name: "notebook", Price: 1500, Stock: 3},
	)
	f.carts.put(&domain.Cart{UserID: 1, Version: 1, Lines: []domain.CartLine{
		{ProductID: 1, Quantity: 2},
		{ProductID: 2, Quantity: 1},
	}})

	order, err := f.uc.Checkout(context.Background(), 1)

	require.NoError(t, err)
	require.NotNil(t, order)
	assert.Equal(t, int64(2500), order.Total)
	require.Len(t, order.Lines, 2)
	assert.Equal(t, "pen", order.Lines[0].Name)
	assert.Equal(t, int64(500), order.Lines[0].UnitPrice)
	assert.Equal(t, int64(2), order.Lines[0].Quantity)

	// Остатки списаны
	assert.Equal(t, int64(3), f.catalog.stock(1))
	assert.Equal(t, int64(2), f.catalog.stock(2))

	// Корзина опустошена
	cart, err := f.carts.GetByUser(context.Background(), 1)
	require.NoError(t, err)
	assert.True(t, cart.IsEmpty())

	// Outbox-событие записано в той же транзакции
	require.Equal(t, 1, f.outbox.count())
	event := f.outbox.events[0]
	assert.Equal(t, OrderPlaced, event.EventType)
	assert.Equal(t, order.ID, event.OrderID)

	var payload OrderPlacedPayload
	require.NoError(t, json.Unmarshal(event.Payload, &payload))
	assert.Equal(t, order.Total, payload.Total)
	assert.Len(t, payload.Lines, 2)
}

func TestCheckout_EmptyCart(t *testing.T) {
	f := newCheckoutFixture(
		&domain.Product{ID: 1, Name: "pen", Price: 500, Stock: 5},
	)

	order, err := f.uc.Checkout(context.Background(), 1)

	require.Error(t, err)
	assert.ErrorIs(t, err, e.ErrEmptyCart)
	assert.Nil(t, order)
	assert.Equal(t, 0, f.orders.count())
	assert.Empty(t, f.inv.reserves)
	assert.Equal(t, int64(5), f.catalog.stock(1))
}

func TestCheckout_InsufficientStock_RollsBackAllReservations(t *testing.T) {
	f := newCheckoutFixture(
		&domain.Product{ID: 1, Name: "pen", Price: 500, Stock: 5},
		&domain.Product{ID: 2, Name: "notebook", Price: 1500, Stock: 0},
	)
	f.carts.put(&domain.Cart{UserID: 1, Version: 1, Lines: []domain.CartLine{
		{ProductID: 1, Quantity: 2},
		{ProductID: 2, Quantity: 1},
	}})

	order, err := f.uc.Checkout(context.Background(), 1)

	require.Error(t, err)
	assert.Nil(t, order)
	assert.ErrorIs(t, err, e.ErrInsufficientStock)

	var stockErr *e.InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, int64(2), stockErr.ProductID)
	assert.Equal(t, int64(1), stockErr.Requested)
	assert.Equal(t, int64(0), stockErr.Available)

	// Успевший зарезервироваться товар возвращён
	assert.Equal(t, int64(5), f.catalog.stock(1))
	assert.Equal(t, []int64{1}, f.inv.releasedIDs())

	assert.Equal(t, 0, f.orders.count())
	assert.Equal(t, 0, f.outbox.count())

	// Корзина не тронута
	cart, err := f.carts.GetByUser(context.Background(), 1)
	require.NoError(t, err)
	assert.False(t, cart.IsEmpty())
}

func TestCheckout_ProductRemovedFromCatalog(t *testing.T) {
	f := newCheckoutFixture(
		&domain.Product{ID: 1, Name: "pen", Price: 500, Stock: 5},
	)
	f.carts.put(&domain.Cart{UserID: 1, Version: 1, Lines: []domain.CartLine{
		{ProductID: 1, Quantity: 1},
		{ProductID: 99, Quantity: 1},
	}})

	order, err := f.uc.Checkout(context.Background(), 1)

	require.Error(t, err)
	assert.ErrorIs(t, err, e.ErrProductNotFound)
	assert.Nil(t, order)

	// Падение на валидации: до резервирования дело не дошло
	assert.Empty(t, f.inv.reserves)
	assert.Equal(t, int64(5), f.catalog.stock(1))
}

func TestCheckout_CartConflict_ReleasesStock(t *testing.T) {
	f := newCheckoutFixture(
		&domain.Product{ID: 1, Name: "pen", Price: 500, Stock: 5},
	)
	f.carts.put(&domain.Cart{UserID: 1, Version: 1, Lines: []domain.CartLine{
		{ProductID: 1, Quantity: 2},
	}})
	f.carts.clearErr = e.ErrCartConflict

	order, err := f.uc.Checkout(context.Background(), 1)

	require.Error(t, err)
	assert.ErrorIs(t, err, e.ErrCartConflict)
	assert.Nil(t, order)

	// Конфликт не повторяется: одна попытка коммита, резерв возвращён
	assert.Equal(t, 0, f.db.commitCalls)
	assert.Equal(t, int64(5), f.catalog.stock(1))
	assert.Equal(t, []int64{1}, f.inv.releasedIDs())
	assert.Equal(t, 0, f.outbox.count())
}

func TestCheckout_CommitRetry_Succeeds(t *testing.T) {
	f := newCheckoutFixture(
		&domain.Product{ID: 1, Name: "pen", Price: 500, Stock: 5},
	)
	f.carts.put(&domain.Cart{UserID: 1, Version: 1, Lines: []domain.CartLine{
		{ProductID: 1, Quantity: 1},
	}})
	f.orders.failCreates = 1
	f.orders.createErr = errors.New("connection reset by peer")

	order, err := f.uc.Checkout(context.Background(), 1)

	require.NoError(t, err)
	require.NotNil(t, order)
	assert.Equal(t, 2, f.orders.createCalls)

	// Резервирование не повторялось
	assert.Len(t, f.inv.reserves, 1)
	assert.Equal(t, int64(4), f.catalog.stock(1))
}

func TestCheckout_RetriesExhausted_Inconsistent(t *testing.T) {
	f := newCheckoutFixture(
		&domain.Product{ID: 1, Name: "pen", Price: 500, Stock: 5},
	)
	f.carts.put(&domain.Cart{UserID: 1, Version: 1, Lines: []domain.CartLine{
		{ProductID: 1, Quantity: 1},
	}})
	f.orders.failCreates = 3
	f.orders.createErr = errors.New("database is down")

	order, err := f.uc.Checkout(context.Background(), 1)

	require.Error(t, err)
	assert.ErrorIs(t, err, e.ErrCheckoutInconsistent)
	assert.Nil(t, order)
	assert.Equal(t, 3, f.orders.createCalls)

	// Резерв намеренно не возвращается: расхождение разбирает оператор
	assert.Equal(t, int64(4), f.catalog.stock(1))
	assert.Empty(t, f.inv.releasedIDs())
}

func TestCheckout_CancelledBeforeCommit(t *testing.T) {
	f := newCheckoutFixture(
		&domain.Product{ID: 1, Name: "pen", Price: 500, Stock: 5},
	)
	f.carts.put(&domain.Cart{UserID: 1, Version: 1, Lines: []domain.CartLine{
		{ProductID: 1, Quantity: 1},
	}})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	order, err := f.uc.Checkout(ctx, 1)

	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, order)

	// Всё зарезервированное возвращено, заказа нет
	assert.Equal(t, int64(5), f.catalog.stock(1))
	assert.Equal(t, 0, f.orders.count())
}

func TestCheckout_ConcurrentBuyers_NeverOversell(t *testing.T) {
	const (
		buyers = 10
		stock  = 5
	)

	f := newCheckoutFixture(
		&domain.Product{ID: 1, Name: "pen", Price: 500, Stock: stock},
	)
	for userID := int64(1); userID <= buyers; userID++ {
		f.carts.put(&domain.Cart{UserID: userID, Version: 1, Lines: []domain.CartLine{
			{ProductID: 1, Quantity: 1},
		}})
	}

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		placed   int
		rejected int
	)
	for userID := int64(1); userID <= buyers; userID++ {
		wg.Add(1)
		go func(userID int64) {
			defer wg.Done()
			_, err := f.uc.Checkout(context.Background(), userID)

			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				placed++
				return
			}
			if errors.Is(err, e.ErrInsufficientStock) {
				rejected++
			}
		}(userID)
	}
	wg.Wait()

	assert.Equal(t, stock, placed)
	assert.Equal(t, buyers-stock, rejected)
	assert.Equal(t, int64(0), f.catalog.stock(1))
	assert.Equal(t, stock, f.orders.count())
}

func TestCheckout_SameUserTwice_SingleOrder(t *testing.T) {
	f := newCheckoutFixture(
		&domain.Product{ID: 1, Name: "pen", Price: 500, Stock: 5},
	)
	f.carts.put(&domain.Cart{UserID: 1, Version: 1, Lines: []domain.CartLine{
		{ProductID: 1, Quantity: 1},
	}})

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		rejected  int
	)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.uc.Checkout(context.Background(), 1)

			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				succeeded++
				return
			}
			// Проигравший либо словил конфликт версии и вернул резерв,
			// либо увидел уже опустошённую корзину.
			if errors.Is(err, e.ErrCartConflict) || errors.Is(err, e.ErrEmptyCart) {
				rejected++
			}
		}()
	}
	wg.Wait()

	// Ровно одно из двух оформлений записало заказ и списало остаток
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 1, rejected)
	assert.Equal(t, int64(4), f.catalog.stock(1))
}

func TestCheckout_PriceSnapshotIsolation(t *testing.T) {
	f := newCheckoutFixture(
		&domain.Product{ID: 1, Name: "pen", Price: 500, Stock: 5},
	)
	f.carts.put(&domain.Cart{UserID: 1, Version: 1, Lines: []domain.CartLine{
		{ProductID: 1, Quantity: 2},
	}})

	order, err := f.uc.Checkout(context.Background(), 1)
	require.NoError(t, err)

	// Каталог подорожал после оформления
	_, err = f.catalog.Update(context.Background(), &domain.Product{
		ID: 1, Name: "pen deluxe", Price: 900, Stock: 3,
	})
	require.NoError(t, err)

	// Записанный заказ хранит снимок, а не живую цену
	stored, err := f.uc.GetOrder(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(500), stored.Lines[0].UnitPrice)
	assert.Equal(t, "pen", stored.Lines[0].Name)
	assert.Equal(t, int64(1000), stored.Total)
}

func TestCheckout_OrderLinesKeepCartOrder(t *testing.T) {
	f := newCheckoutFixture(
		&domain.Product{ID: 1, Name: "pen", Price: 500, Stock: 5},
		&domain.Product{ID: 2, Name: "notebook", Price: 1500, Stock: 3},
	)
	// Товар с большим идентификатором добавлен в корзину первым
	f.carts.put(&domain.Cart{UserID: 1, Version: 1, Lines: []domain.CartLine{
		{ProductID: 2, Quantity: 1},
		{ProductID: 1, Quantity: 2},
	}})

	order, err := f.uc.Checkout(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, order.Lines, 2)

	// Резервирование идёт по возрастанию идентификаторов, но позиции
	// заказа сохраняют порядок корзины
	assert.Equal(t, int64(2), order.Lines[0].ProductID)
	assert.Equal(t, int64(1), order.Lines[1].ProductID)

	stored, err := f.uc.GetOrder(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), stored.Lines[0].ProductID)
	assert.Equal(t, int64(1), stored.Lines[1].ProductID)
}

func TestCheckout_CancelAfterCommitStartsStillCompletes(t *testing.T) {
	f := newCheckoutFixture(
		&domain.Product{ID: 1, Name: "pen", Price: 500, Stock: 5},
	)
	f.carts.put(&domain.Cart{UserID: 1, Version: 1, Lines: []domain.CartLine{
		{ProductID: 1, Quantity: 2},
	}})

	// Вызывающий отменяет контекст, когда запись заказа уже началась
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	f.orders.onCreate = cancel

	order, err := f.uc.Checkout(ctx, 1)

	// Коммит доводится до конца: заказ записан, остаток списан,
	// корзина опустошена
	require.NoError(t, err)
	require.NotNil(t, order)
	assert.Equal(t, 1, f.orders.count())
	assert.Equal(t, int64(3), f.catalog.stock(1))
	assert.Empty(t, f.inv.releasedIDs())

	cart, err := f.carts.GetByUser(context.Background(), 1)
	require.NoError(t, err)
	assert.True(t, cart.IsEmpty())
}

func TestAbortReason(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want string
	}{
		{"product_not_found", e.ErrProductNotFound, "product_not_found"},
		{"wrapped_product_not_found", e.Wrap("op", e.ErrProductNotFound), "product_not_found"},
		{"insufficient_stock", e.NewInsufficientStockError(1, 5, 2), "insufficient_stock"},
		{"cancelled", context.Canceled, "cancelled"},
		{"deadline", context.DeadlineExceeded, "cancelled"},
		{"infra_failure", errors.New("connection refused"), "store_failed"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, abortReason(tc.err))
		})
	}
}
