package pgdb

import (
	"context"
	"errors"

	"github.com/DRSN-tech/shop-backend/pkg/e"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jimlawless/whereami"
)

// InventoryRepo управляет остатками товаров. Резервирование выполняется
// условным UPDATE, так что при конкурирующих оформлениях остаток
// никогда не уходит в минус.
type InventoryRepo struct {
	pool *pgxpool.Pool
}

func NewInventoryRepo(pool *pgxpool.Pool) *InventoryRepo {
	return &InventoryRepo{
		pool: pool,
	}
}

// TryReserve атомарно списывает qty единиц товара. Если остатка не
// хватает, возвращает InsufficientStockError с актуальным остатком.
func (i *InventoryRepo) TryReserve(ctx context.Context, productID int64, qty int64) error {
	// Неположительное qty прошло бы условие stock >= $2 и раздуло остаток
	if qty <= 0 {
		return e.Wrap(whereami.WhereAmI(), e.ErrInvalidQuantity)
	}

	query := `
		UPDATE products
		SET stock = stock - $2, updated_at = NOW()
		WHERE id = $1 AND stock >= $2
	`

	tag, err := i.pool.Exec(ctx, query, productID, qty)
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	if tag.RowsAffected() == 0 {
		var available int64
		err := i.pool.QueryRow(ctx,
			`SELECT stock FROM products WHERE id = $1`, productID,
		).Scan(&available)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return e.Wrap(whereami.WhereAmI(), e.ErrProductNotFound)
			}

			return e.Wrap(whereami.WhereAmI(), err)
		}

		return e.Wrap(whereami.WhereAmI(), e.NewInsufficientStockError(productID, qty, available))
	}

	return nil
}

// Release возвращает ранее списанные единицы обратно на остаток.
func (i *InventoryRepo) Release(ctx context.Context, productID int64, qty int64) error {
	query := `
		UPDATE products
		SET stock = stock + $2, updated_at = NOW()
		WHERE id = $1
	`

	tag, err := i.pool.Exec(ctx, query, productID, qty)
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	if tag.RowsAffected() == 0 {
		return e.Wrap(whereami.WhereAmI(), e.ErrProductNotFound)
	}

	return nil
}
