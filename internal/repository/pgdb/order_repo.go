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

// OrderRepo хранит заказы в PostgreSQL. Запись выполняется только в
// рамках внешней транзакции оформления, чтение — напрямую через пул.
type OrderRepo struct {
	pool *pgxpool.Pool
}

func NewOrderRepo(pool *pgxpool.Pool) *OrderRepo {
	return &OrderRepo{
		pool: pool,
	}
}

// Create записывает заказ и его позиции в рамках транзакции из контекста.
func (o *OrderRepo) Create(ctx context.Context, order *domain.Order) (*domain.Order, error) {
	tx, err := tr.TxFromCtx(ctx)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	err = tx.QueryRow(ctx, `
		INSERT INTO orders (user_id, total)
		VALUES ($1, $2)
		RETURNING id, created_at
	`, order.UserID, order.Total).Scan(&order.ID, &order.CreatedAt)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	for pos, line := range order.Lines {
		if _, err := tx.Exec(ctx, `
			INSERT INTO order_items (order_id, product_id, name, quantity, unit_price, position)
			VALUES ($1, $2, $3, $4, $5, $6)
		`, order.ID, line.ProductID, line.Name, line.Quantity, line.UnitPrice, pos); err != nil {
			return nil, e.Wrap(whereami.WhereAmI(), err)
		}
	}

	return order, nil
}

// GetByID возвращает заказ вместе с позициями.
func (o *OrderRepo) GetByID(ctx context.Context, id int64) (*domain.Order, error) {
	var order domain.Order
	err := o.pool.QueryRow(ctx, `
		SELECT id, user_id, total, created_at
		FROM orders
		WHERE id = $1
	`, id).Scan(&order.ID, &order.UserID, &order.Total, &order.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, e.Wrap(whereami.WhereAmI(), e.ErrOrderNotFound)
		}

		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	order.Lines, err = o.loadLines(ctx, order.ID)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return &order, nil
}

// GetByUser возвращает заказы пользователя, новые первыми.
func (o *OrderRepo) GetByUser(ctx context.Context, userID int64) ([]domain.Order, error) {
	rows, err := o.pool.Query(ctx, `
		SELECT id, user_id, total, created_at
		FROM orders
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
	`, userID)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}
	defer rows.Close()

	result := make([]domain.Order, 0)
	for rows.Next() {
		var order domain.Order
		if err := rows.Scan(&order.ID, &order.UserID, &order.Total, &order.CreatedAt); err != nil {
			return nil, e.Wrap(whereami.WhereAmI(), err)
		}

		result = append(result, order)
	}
	if err := rows.Err(); err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	for i := range result {
		result[i].Lines, err = o.loadLines(ctx, result[i].ID)
		if err != nil {
			return nil, e.Wrap(whereami.WhereAmI(), err)
		}
	}

	return result, nil
}

func (o *OrderRepo) loadLines(ctx context.Context, orderID int64) ([]domain.OrderLine, error) {
	rows, err := o.pool.Query(ctx, `
		SELECT product_id, name, quantity, unit_price
		FROM order_items
		WHERE order_id = $1
		ORDER BY position
	`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	lines := make([]domain.OrderLine, 0)
	for rows.Next() {
		var line domain.OrderLine
		if err := rows.Scan(&line.ProductID, &line.Name, &line.Quantity, &line.UnitPrice); err != nil {
			return nil, err
		}

		lines = append(lines, line)
	}

	return lines, rows.Err()
}
