package converter

// ProductInfoRedisModel — представление товара в кэше. Остаток сюда
// не попадает: кэшируются только имя и цена.
type ProductInfoRedisModel struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Price int64  `json:"price"`
}
