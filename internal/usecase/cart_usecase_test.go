package usecase

import (
	"context"
	"testing"

	"github.com/DRSN-tech/shop-backend/internal/domain"
	"github.com/DRSN-tech/shop-backend/pkg/e"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type cartFixture struct {
	catalog *memProductRepo
	carts   *memCartRepo
	users   *memUserRepo
	uc      *CartUseCase
}

func newCartFixture(products ...*domain.Product) *cartFixture {
	catalog := newMemProductRepo(products...)
	f := &cartFixture{
		catalog: catalog,
		carts:   newMemCartRepo(),
		users:   newMemUserRepo(),
	}
	f.users.add(1)

	productUC := NewProductUC(catalog, newMockCacheRepo(), testLogger{})
	f.uc = NewCartUC(f.carts, catalog, f.users, productUC, 3, testLogger{})
	return f
}

func TestCartAddProduct_MergesQuantities(t *testing.T) {
	f := newCartFixture(&domain.Product{ID: 1, Name: "pen", Price: 500, Stock: 10})

	_, err := f.uc.AddProduct(context.Background(), NewAddToCartReq(1, 1, 2))
	require.NoError(t, err)

	view, err := f.uc.AddProduct(context.Background(), NewAddToCartReq(1, 1, 3))
	require.NoError(t, err)

	// Позиция одна, количества сложились
	require.Len(t, view.Lines, 1)
	assert.Equal(t, int64(5), view.Lines[0].Quantity)
	assert.Equal(t, int64(2500), view.Total)
}

func TestCartAddProduct_RejectsNonPositiveQuantity(t *testing.T) {
	f := newCartFixture(&domain.Product{ID: 1, Name: "pen", Price: 500, Stock: 10})

	for _, qty := range []int64{0, -1} {
		_, err := f.uc.AddProduct(context.Background(), NewAddToCartReq(1, 1, qty))
		assert.ErrorIs(t, err, e.ErrInvalidQuantity)
	}
}

func TestCartAddProduct_UnknownUser(t *testing.T) {
	f := newCartFixture(&domain.Product{ID: 1, Name: "pen", Price: 500, Stock: 10})

	_, err := f.uc.AddProduct(context.Background(), NewAddToCartReq(42, 1, 1))
	assert.ErrorIs(t, err, e.ErrUserNotFound)
}

func TestCartAddProduct_UnknownProduct(t *testing.T) {
	f := newCartFixture()

	_, err := f.uc.AddProduct(context.Background(), NewAddToCartReq(1, 99, 1))
	assert.ErrorIs(t, err, e.ErrProductNotFound)
}

func TestCartRemoveProduct_MissingLine(t *testing.T) {
	f := newCartFixture(&domain.Product{ID: 1, Name: "pen", Price: 500, Stock: 10})

	_, err := f.uc.RemoveProduct(context.Background(), 1, 1)
	assert.ErrorIs(t, err, e.ErrLineNotFound)
}

func TestCartRemoveProduct_RemovesWholeLine(t *testing.T) {
	f := newCartFixture(&domain.Product{ID: 1, Name: "pen", Price: 500, Stock: 10})

	_, err := f.uc.AddProduct(context.Background(), NewAddToCartReq(1, 1, 5))
	require.NoError(t, err)

	view, err := f.uc.RemoveProduct(context.Background(), 1, 1)
	require.NoError(t, err)
	assert.Empty(t, view.Lines)
	assert.Equal(t, int64(0), view.Total)
}

func TestCartClear_Idempotent(t *testing.T) {
	f := newCartFixture(&domain.Product{ID: 1, Name: "pen", Price: 500, Stock: 10})

	_, err := f.uc.AddProduct(context.Background(), NewAddToCartReq(1, 1, 5))
	require.NoError(t, err)

	require.NoError(t, f.uc.ClearCart(context.Background(), 1))
	// Повторная очистка пустой корзины не ошибка
	require.NoError(t, f.uc.ClearCart(context.Background(), 1))

	view, err := f.uc.ViewCart(context.Background(), 1)
	require.NoError(t, err)
	assert.Empty(t, view.Lines)
}

func TestCartView_EmptyForNewUser(t *testing.T) {
	f := newCartFixture()

	view, err := f.uc.ViewCart(context.Background(), 1)
	require.NoError(t, err)
	assert.Empty(t, view.Lines)
	assert.Equal(t, int64(0), view.Total)
}

func TestCartView_MarksDeletedProductsUnavailable(t *testing.T) {
	f := newCartFixture(
		&domain.Product{ID: 1, Name: "pen", Price: 500, Stock: 10},
		&domain.Product{ID: 2, Name: "notebook", Price: 1500, Stock: 10},
	)

	_, err := f.uc.AddProduct(context.Background(), NewAddToCartReq(1, 1, 1))
	require.NoError(t, err)
	_, err = f.uc.AddProduct(context.Background(), NewAddToCartReq(1, 2, 2))
	require.NoError(t, err)

	// Товар удалён из каталога уже после попадания в корзину
	require.NoError(t, f.catalog.Delete(context.Background(), 2))

	view, err := f.uc.ViewCart(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, view.Lines, 2)

	assert.False(t, view.Lines[0].Unavailable)
	assert.True(t, view.Lines[1].Unavailable)
	assert.Equal(t, int64(2), view.Lines[1].Quantity)

	// Недоступная позиция не входит в итог
	assert.Equal(t, int64(500), view.Total)
}

func TestCartAddProduct_RetriesOnVersionConflict(t *testing.T) {
	f := newCartFixture(&domain.Product{ID: 1, Name: "pen", Price: 500, Stock: 10})

	// Первая запись отлетает с конфликтом версии, операция повторяется
	// с перечитыванием корзины.
	f.carts.put(&domain.Cart{UserID: 1, Version: 2, Lines: []domain.CartLine{
		{ProductID: 1, Quantity: 1},
	}})
	f.carts.failSaves = 1

	view, err := f.uc.AddProduct(context.Background(), NewAddToCartReq(1, 1, 1))
	require.NoError(t, err)
	require.Len(t, view.Lines, 1)
	assert.Equal(t, int64(2), view.Lines[0].Quantity)
}

func TestCartAddProduct_ConflictAfterAllRetries(t *testing.T) {
	f := newCartFixture(&domain.Product{ID: 1, Name: "pen", Price: 500, Stock: 10})
	f.carts.failSaves = 3 // столько же, сколько попыток

	_, err := f.uc.AddProduct(context.Background(), NewAddToCartReq(1, 1, 1))
	assert.ErrorIs(t, err, e.ErrCartConflict)
}

func TestCartAddProduct_KeepsAppendOrder(t *testing.T) {
	f := newCartFixture(
		&domain.Product{ID: 3, Name: "pencil", Price: 300, Stock: 10},
		&domain.Product{ID: 5, Name: "eraser", Price: 200, Stock: 10},
	)

	_, err := f.uc.AddProduct(context.Background(), NewAddToCartReq(1, 5, 1))
	require.NoError(t, err)
	_, err = f.uc.AddProduct(context.Background(), NewAddToCartReq(1, 3, 1))
	require.NoError(t, err)

	view, err := f.uc.ViewCart(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, view.Lines, 2)

	// Позиции идут в порядке добавления, а не по идентификатору товара
	assert.Equal(t, int64(5), view.Lines[0].ProductID)
	assert.Equal(t, int64(3), view.Lines[1].ProductID)
}
