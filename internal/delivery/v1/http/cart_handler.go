package http

import (
	"net/http"

	"github.com/DRSN-tech/shop-backend/internal/usecase"
	"github.com/DRSN-tech/shop-backend/pkg/logger"
)

type CartHandler struct {
	cartUsecase usecase.CartUC
	logger      logger.Logger
}

func NewCartHandler(cartUsecase usecase.CartUC, logger logger.Logger) *CartHandler {
	return &CartHandler{cartUsecase: cartUsecase, logger: logger}
}

// addToCart
//
//	@Summary		Добавление товара в корзину
//	@Description	Если товар уже в корзине, количества складываются.
//	@Tags			cart
//	@Accept			json
//	@Produce		json
//	@Param			userID	path		int					true	"ID пользователя"
//	@Param			request	body		addToCartRequest	true	"Товар и количество"
//	@Success		200		{object}	cartResponse
//	@Failure		400		{object}	ErrorResponse	"Неположительное количество"
//	@Failure		404		{object}	ErrorResponse	"Пользователь или товар не найден"
//	@Router			/users/{userID}/cart/items [post]
func (h *CartHandler) addToCart(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, "userID")
	if err != nil {
		WriteError(w, err)
		return
	}

	var req addToCartRequest
	if err := decodeJSON(r, &req); err != nil {
		h.logger.Warnf("add to cart: %s", err.Error())
		WriteError(w, err)
		return
	}

	view, err := h.cartUsecase.AddProduct(r.Context(),
		usecase.NewAddToCartReq(userID, req.ProductID, req.Quantity))
	if err != nil {
		h.logger.Warnf("add to cart (user %d): %s", userID, err.Error())
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, newCartResponse(view))
}

// removeFromCart
//
//	@Summary	Удаление товара из корзины
//	@Tags		cart
//	@Produce	json
//	@Param		userID		path		int	true	"ID пользователя"
//	@Param		productID	path		int	true	"ID товара"
//	@Success	200			{object}	cartResponse
//	@Failure	404			{object}	ErrorResponse	"Товара нет в корзине"
//	@Router		/users/{userID}/cart/items/{productID} [delete]
func (h *CartHandler) removeFromCart(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, "userID")
	if err != nil {
		WriteError(w, err)
		return
	}

	productID, err := pathID(r, "productID")
	if err != nil {
		WriteError(w, err)
		return
	}

	view, err := h.cartUsecase.RemoveProduct(r.Context(), userID, productID)
	if err != nil {
		h.logger.Warnf("remove from cart (user %d, product %d): %s", userID, productID, err.Error())
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, newCartResponse(view))
}

// clearCart
//
//	@Summary		Очистка корзины
//	@Description	Идемпотентна: очистка пустой корзины — не ошибка.
//	@Tags			cart
//	@Param			userID	path	int	true	"ID пользователя"
//	@Success		204
//	@Failure		404	{object}	ErrorResponse
//	@Router			/users/{userID}/cart [delete]
func (h *CartHandler) clearCart(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, "userID")
	if err != nil {
		WriteError(w, err)
		return
	}

	if err := h.cartUsecase.ClearCart(r.Context(), userID); err != nil {
		h.logger.Warnf("clear cart (user %d): %s", userID, err.Error())
		WriteError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// viewCart
//
//	@Summary	Просмотр корзины
//	@Tags		cart
//	@Produce	json
//	@Param		userID	path		int	true	"ID пользователя"
//	@Success	200		{object}	cartResponse
//	@Failure	404		{object}	ErrorResponse
//	@Router		/users/{userID}/cart [get]
func (h *CartHandler) viewCart(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, "userID")
	if err != nil {
		WriteError(w, err)
		return
	}

	view, err := h.cartUsecase.ViewCart(r.Context(), userID)
	if err != nil {
		h.logger.Warnf("view cart (user %d): %s", userID, err.Error())
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, newCartResponse(view))
}
