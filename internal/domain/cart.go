package domain

import (
	"time"

	"github.com/DRSN-tech/shop-backend/pkg/e"
)

// CartLine — одна позиция корзины: товар и его количество.
type CartLine struct {
	ProductID int64
	Quantity  int64
}

// Cart — корзина пользователя. У пользователя ровно одна корзина,
// она создаётся лениво при первом добавлении товара и никогда не
// удаляется, только опустошается. Version — токен оптимистичной
// блокировки: каждое сохранение сверяет его с прочитанным значением.
type Cart struct {
	ID        int64
	UserID    int64
	Lines     []CartLine
	Version   int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

func NewCart(userID int64) *Cart {
	return &Cart{UserID: userID}
}

// AddLine добавляет товар в корзину. Если позиция с таким товаром уже
// есть, количества складываются, дубликат не создаётся.
func (c *Cart) AddLine(productID, quantity int64) error {
	if quantity <= 0 {
		return e.ErrInvalidQuantity
	}

	for i := range c.Lines {
		if c.Lines[i].ProductID == productID {
			c.Lines[i].Quantity += quantity
			return nil
		}
	}

	c.Lines = append(c.Lines, CartLine{ProductID: productID, Quantity: quantity})
	return nil
}

// RemoveLine удаляет позицию целиком.
func (c *Cart) RemoveLine(productID int64) error {
	for i := range c.Lines {
		if c.Lines[i].ProductID == productID {
			c.Lines = append(c.Lines[:i], c.Lines[i+1:]...)
			return nil
		}
	}

	return e.ErrLineNotFound
}

// Clear опустошает корзину. Идемпотентна.
func (c *Cart) Clear() {
	c.Lines = nil
}

func (c *Cart) IsEmpty() bool {
	return len(c.Lines) == 0
}
