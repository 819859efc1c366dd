package pgdb

import (
	"context"
	"errors"

	"github.com/DRSN-tech/shop-backend/internal/domain"
	"github.com/DRSN-tech/shop-backend/pkg/e"
	"github.com/DRSN-tech/shop-backend/pkg/tr"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jimlawless/whereami"
)

// CartRepo хранит корзины в PostgreSQL. Корзина создаётся лениво:
// отсутствующая строка читается как пустая корзина с версией 0,
// а запись с неверной версией отклоняется как конфликт.
type CartRepo struct {
	pool *pgxpool.Pool
}

func NewCartRepo(pool *pgxpool.Pool) *CartRepo {
	return &CartRepo{
		pool: pool,
	}
}

// GetByUser возвращает корзину пользователя. Если корзины ещё нет,
// возвращает пустую с версией 0.
func (c *CartRepo) GetByUser(ctx context.Context, userID int64) (*domain.Cart, error) {
	var cart domain.Cart
	cart.UserID = userID

	err := c.pool.QueryRow(ctx,
		`SELECT id, version FROM carts WHERE user_id = $1`, userID,
	).Scan(&cart.ID, &cart.Version)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return &cart, nil
		}

		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	// Позиции читаются в порядке добавления в корзину
	rows, err := c.pool.Query(ctx,
		`SELECT product_id, quantity FROM cart_items WHERE cart_id = $1 ORDER BY position`,
		cart.ID,
	)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}
	defer rows.Close()

	for rows.Next() {
		var line domain.CartLine
		if err := rows.Scan(&line.ProductID, &line.Quantity); err != nil {
			return nil, e.Wrap(whereami.WhereAmI(), err)
		}

		cart.Lines = append(cart.Lines, line)
	}

	return &cart, rows.Err()
}

// Save записывает корзину с оптимистической проверкой версии.
// cart.Version — версия, которую читал вызывающий; в базе она
// инкрементируется. Несовпадение версий означает, что корзину успел
// изменить кто-то другой, и возвращается ErrCartConflict.
func (c *CartRepo) Save(ctx context.Context, cart *domain.Cart) (*domain.Cart, error) {
	tx, err := c.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}
	defer tx.Rollback(ctx)

	var cartID int64
	if cart.Version == 0 {
		// Первая запись: корзины могло ещё не быть. ON CONFLICT
		// ловит гонку двух первых записей одного пользователя.
		err = tx.QueryRow(ctx, `
			INSERT INTO carts (user_id, version)
			VALUES ($1, 1)
			ON CONFLICT (user_id) DO NOTHING
			RETURNING id
		`, cart.UserID).Scan(&cartID)
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, e.Wrap(whereami.WhereAmI(), e.ErrCartConflict)
		}
		if err != nil {
			return nil, e.Wrap(whereami.WhereAmI(), err)
		}
	} else {
		tag, err := tx.Exec(ctx, `
			UPDATE carts
			SET version = version + 1, updated_at = NOW()
			WHERE user_id = $1 AND version = $2
		`, cart.UserID, cart.Version)
		if err != nil {
			return nil, e.Wrap(whereami.WhereAmI(), err)
		}
		if tag.RowsAffected() == 0 {
			return nil, e.Wrap(whereami.WhereAmI(), e.ErrCartConflict)
		}

		if err := tx.QueryRow(ctx,
			`SELECT id FROM carts WHERE user_id = $1`, cart.UserID,
		).Scan(&cartID); err != nil {
			return nil, e.Wrap(whereami.WhereAmI(), err)
		}
	}

	if _, err := tx.Exec(ctx,
		`DELETE FROM cart_items WHERE cart_id = $1`, cartID,
	); err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	for pos, line := range cart.Lines {
		if _, err := tx.Exec(ctx, `
			INSERT INTO cart_items (cart_id, product_id, quantity, position)
			VALUES ($1, $2, $3, $4)
		`, cartID, line.ProductID, line.Quantity, pos); err != nil {
			return nil, e.Wrap(whereami.WhereAmI(), err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	cart.ID = cartID
	cart.Version++

	return cart, nil
}

// ClearIfVersion очищает корзину в рамках внешней транзакции, только
// если её версия не менялась с момента чтения. Используется при
// оформлении заказа: изменившаяся корзина означает конфликт.
func (c *CartRepo) ClearIfVersion(ctx context.Context, userID int64, version int64) error {
	tx, err := tr.TxFromCtx(ctx)
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	tag, err := tx.Exec(ctx, `
		UPDATE carts
		SET version = version + 1, updated_at = NOW()
		WHERE user_id = $1 AND version = $2
	`, userID, version)
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}
	if tag.RowsAffected() == 0 {
		return e.Wrap(whereami.WhereAmI(), e.ErrCartConflict)
	}

	if _, err := tx.Exec(ctx, `
		DELETE FROM cart_items
		WHERE cart_id = (SELECT id FROM carts WHERE user_id = $1)
	`, userID); err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	return nil
}
