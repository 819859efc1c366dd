package converter

import (
	"github.com/DRSN-tech/shop-backend/internal/usecase"
)

// ProductInfoConverter преобразует ProductInfo между usecase и моделью кэша.
type ProductInfoConverter interface {
	ToRedisModel(entity *usecase.ProductInfo) *ProductInfoRedisModel
	ToUseCase(model *ProductInfoRedisModel) *usecase.ProductInfo
	ToArrRedisModel(entities []usecase.ProductInfo) []ProductInfoRedisModel
	ToArrUseCase(models []ProductInfoRedisModel) []usecase.ProductInfo
}

type productInfoConverter struct{}

func NewProductInfoConverter() ProductInfoConverter {
	return &productInfoConverter{}
}

func (productInfoConverter) ToRedisModel(entity *usecase.ProductInfo) *ProductInfoRedisModel {
	return &ProductInfoRedisModel{
		ID:    entity.ID,
		Name:  entity.Name,
		Price: entity.Price,
	}
}

func (productInfoConverter) ToUseCase(model *ProductInfoRedisModel) *usecase.ProductInfo {
	return &usecase.ProductInfo{
		ID:    model.ID,
		Name:  model.Name,
		Price: model.Price,
	}
}

func (c productInfoConverter) ToArrRedisModel(entities []usecase.ProductInfo) []ProductInfoRedisModel {
	result := make([]ProductInfoRedisModel, 0, len(entities))
	for i := range entities {
		result = append(result, *c.ToRedisModel(&entities[i]))
	}

	return result
}

func (c productInfoConverter) ToArrUseCase(models []ProductInfoRedisModel) []usecase.ProductInfo {
	result := make([]usecase.ProductInfo, 0, len(models))
	for i := range models {
		result = append(result, *c.ToUseCase(&models[i]))
	}

	return result
}
