package domain

import "time"

// OrderLine — снимок позиции заказа. Название и цена фиксируются в
// момент оформления и не зависят от последующих правок каталога.
type OrderLine struct {
	ProductID int64
	Name      string
	Quantity  int64
	UnitPrice int64 // копейки
}

// LineTotal возвращает стоимость позиции.
func (l OrderLine) LineTotal() int64 {
	return l.UnitPrice * l.Quantity
}

// Order — неизменяемый чек завершённой покупки. После записи заказ
// не обновляется и не удаляется.
type Order struct {
	ID        int64
	UserID    int64
	Lines     []OrderLine
	Total     int64
	CreatedAt time.Time
}

// NewOrder собирает заказ из снимков позиций, вычисляя итог как точную
// сумму стоимостей позиций.
func NewOrder(userID int64, lines []OrderLine) *Order {
	var total int64
	for _, l := range lines {
		total += l.LineTotal()
	}

	return &Order{
		UserID: userID,
		Lines:  lines,
		Total:  total,
	}
}
