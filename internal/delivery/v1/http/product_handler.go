package http

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/DRSN-tech/shop-backend/internal/usecase"
	"github.com/DRSN-tech/shop-backend/pkg/e"
	"github.com/DRSN-tech/shop-backend/pkg/logger"
)

type ProductHandler struct {
	productUsecase usecase.ProductUC
	logger         logger.Logger
}

func NewProductHandler(productUsecase usecase.ProductUC, logger logger.Logger) *ProductHandler {
	return &ProductHandler{productUsecase: productUsecase, logger: logger}
}

// addProduct
//
//	@Summary		Добавление товара
//	@Description	Создаёт товар в каталоге. Цена — строка с двумя знаками после запятой.
//	@Tags			products
//	@Accept			json
//	@Produce		json
//	@Param			request	body		productRequest	true	"Данные товара"
//	@Success		201		{object}	productResponse
//	@Failure		400		{object}	ErrorResponse	"Ошибка валидации"
//	@Router			/products [post]
func (h *ProductHandler) addProduct(w http.ResponseWriter, r *http.Request) {
	req, err := h.parseProductRequest(r)
	if err != nil {
		h.logger.Warnf("add product: %s", err.Error())
		WriteError(w, err)
		return
	}

	product, err := h.productUsecase.AddProduct(r.Context(),
		usecase.NewAddProductReq(req.Name, req.Description, req.Price, req.Stock))
	if err != nil {
		h.logger.Warnf("add product: %s", err.Error())
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusCreated, newProductResponse(product))
}

// getProduct
//
//	@Summary	Товар по ID
//	@Tags		products
//	@Produce	json
//	@Param		id	path		int	true	"ID товара"
//	@Success	200	{object}	productResponse
//	@Failure	404	{object}	ErrorResponse
//	@Router		/products/{id} [get]
func (h *ProductHandler) getProduct(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		WriteError(w, err)
		return
	}

	product, err := h.productUsecase.GetProduct(r.Context(), id)
	if err != nil {
		h.logger.Warnf("get product %d: %s", id, err.Error())
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, newProductResponse(product))
}

// listProducts
//
//	@Summary	Каталог товаров
//	@Tags		products
//	@Produce	json
//	@Success	200	{array}		productResponse
//	@Failure	500	{object}	ErrorResponse
//	@Router		/products [get]
func (h *ProductHandler) listProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.productUsecase.ListProducts(r.Context())
	if err != nil {
		h.logger.Warnf("list products: %s", err.Error())
		WriteError(w, err)
		return
	}

	result := make([]productResponse, 0, len(products))
	for i := range products {
		result = append(result, newProductResponse(&products[i]))
	}

	WriteSuccess(w, http.StatusOK, result)
}

// updateProduct
//
//	@Summary	Обновление товара
//	@Tags		products
//	@Accept		json
//	@Produce	json
//	@Param		id		path		int				true	"ID товара"
//	@Param		request	body		productRequest	true	"Новые данные товара"
//	@Success	200		{object}	productResponse
//	@Failure	400		{object}	ErrorResponse
//	@Failure	404		{object}	ErrorResponse
//	@Router		/products/{id} [put]
func (h *ProductHandler) updateProduct(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		WriteError(w, err)
		return
	}

	req, err := h.parseProductRequest(r)
	if err != nil {
		h.logger.Warnf("update product %d: %s", id, err.Error())
		WriteError(w, err)
		return
	}

	product, err := h.productUsecase.UpdateProduct(r.Context(), &usecase.UpdateProductReq{
		ID:          id,
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Stock:       req.Stock,
	})
	if err != nil {
		h.logger.Warnf("update product %d: %s", id, err.Error())
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, newProductResponse(product))
}

// deleteProduct
//
//	@Summary		Удаление товара
//	@Description	Товар нельзя удалить, пока на него ссылается корзина или заказ.
//	@Tags			products
//	@Param			id	path	int	true	"ID товара"
//	@Success		204
//	@Failure		404	{object}	ErrorResponse
//	@Failure		409	{object}	ErrorResponse	"Товар используется"
//	@Router			/products/{id} [delete]
func (h *ProductHandler) deleteProduct(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		WriteError(w, err)
		return
	}

	if err := h.productUsecase.DeleteProduct(r.Context(), id); err != nil {
		h.logger.Warnf("delete product %d: %s", id, err.Error())
		WriteError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// getProductsInfo
//
//	@Summary		Краткая информация о товарах
//	@Description	Возвращает имя и цену товаров по списку ID. Ответ собирается из кэша и БД.
//	@Tags			products
//	@Produce		json
//	@Param			ids	query		string	true	"ID товаров через запятую"
//	@Success		200	{object}	productsInfoResponse
//	@Failure		400	{object}	ErrorResponse
//	@Router			/products/info [get]
func (h *ProductHandler) getProductsInfo(w http.ResponseWriter, r *http.Request) {
	ids, err := parseIDList(r.URL.Query().Get("ids"))
	if err != nil {
		WriteError(w, err)
		return
	}

	res, err := h.productUsecase.GetProductsInfo(r.Context(), usecase.NewGetProductsReq(ids))
	if err != nil {
		h.logger.Warnf("get products info: %s", err.Error())
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, newProductsInfoResponse(res))
}

// parsedProductRequest — productRequest с ценой, уже переведённой в копейки.
type parsedProductRequest struct {
	Name        string
	Description string
	Price       int64
	Stock       int64
}

func (h *ProductHandler) parseProductRequest(r *http.Request) (*parsedProductRequest, error) {
	var req productRequest
	if err := decodeJSON(r, &req); err != nil {
		return nil, err
	}

	price, err := parsePriceToCents(req.Price)
	if err != nil {
		return nil, err
	}

	return &parsedProductRequest{
		Name:        req.Name,
		Description: req.Description,
		Price:       price,
		Stock:       req.Stock,
	}, nil
}

func parseIDList(raw string) ([]int64, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, e.Wrap("ids", e.ErrInvalidID)
	}

	parts := strings.Split(raw, ",")
	ids := make([]int64, 0, len(parts))
	for _, part := range parts {
		id, err := strconv.ParseInt(strings.TrimSpace(part), 10, 64)
		if err != nil || id <= 0 {
			return nil, e.Wrap(part, e.ErrInvalidID)
		}
		ids = append(ids, id)
	}

	return ids, nil
}
