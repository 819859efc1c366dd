package http

import (
	"net/http"

	"github.com/DRSN-tech/shop-backend/internal/usecase"
	"github.com/DRSN-tech/shop-backend/pkg/logger"
)

type OrderHandler struct {
	checkoutUsecase usecase.CheckoutUC
	logger          logger.Logger
}

func NewOrderHandler(checkoutUsecase usecase.CheckoutUC, logger logger.Logger) *OrderHandler {
	return &OrderHandler{checkoutUsecase: checkoutUsecase, logger: logger}
}

// checkout
//
//	@Summary		Оформление заказа
//	@Description	Атомарно превращает корзину в заказ, списывая остатки. При нехватке любого товара заказ не создаётся, остатки не меняются.
//	@Tags			orders
//	@Produce		json
//	@Param			userID	path		int	true	"ID пользователя"
//	@Success		201		{object}	orderResponse
//	@Failure		400		{object}	ErrorResponse	"Пустая корзина или нехватка остатков"
//	@Failure		409		{object}	ErrorResponse	"Конфликт версии корзины"
//	@Router			/users/{userID}/checkout [post]
func (h *OrderHandler) checkout(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, "userID")
	if err != nil {
		WriteError(w, err)
		return
	}

	order, err := h.checkoutUsecase.Checkout(r.Context(), userID)
	if err != nil {
		h.logger.Warnf("checkout (user %d): %s", userID, err.Error())
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusCreated, newOrderResponse(order))
}

// getOrder
//
//	@Summary	Заказ по ID
//	@Tags		orders
//	@Produce	json
//	@Param		id	path		int	true	"ID заказа"
//	@Success	200	{object}	orderResponse
//	@Failure	404	{object}	ErrorResponse
//	@Router		/orders/{id} [get]
func (h *OrderHandler) getOrder(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		WriteError(w, err)
		return
	}

	order, err := h.checkoutUsecase.GetOrder(r.Context(), id)
	if err != nil {
		h.logger.Warnf("get order %d: %s", id, err.Error())
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, newOrderResponse(order))
}

// listOrders
//
//	@Summary	Заказы пользователя
//	@Tags		orders
//	@Produce	json
//	@Param		userID	path		int	true	"ID пользователя"
//	@Success	200		{array}		orderResponse
//	@Failure	404		{object}	ErrorResponse
//	@Router		/users/{userID}/orders [get]
func (h *OrderHandler) listOrders(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, "userID")
	if err != nil {
		WriteError(w, err)
		return
	}

	orders, err := h.checkoutUsecase.ListOrders(r.Context(), userID)
	if err != nil {
		h.logger.Warnf("list orders (user %d): %s", userID, err.Error())
		WriteError(w, err)
		return
	}

	result := make([]orderResponse, 0, len(orders))
	for i := range orders {
		result = append(result, newOrderResponse(&orders[i]))
	}

	WriteSuccess(w, http.StatusOK, result)
}
