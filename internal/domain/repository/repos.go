package repository

// Repos repositorios atados a una misma transacción.
type Repos struct {
	Products  ProductRepository
	Stock     StockRepository
	Providers ProviderRepository
	Links     ProviderLinkRepository
	Orders    PurchaseOrderRepository
	Sales     SaleRepository
}
