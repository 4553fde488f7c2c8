package models

// AllModels lists every persistence model in dependency order
func AllModels() []any {
	return []any{
		&ProductCardModel{},
		&InventoryLotModel{},
		&FifoAllocationModel{},
		&StockMovementModel{},
		&SupplyRejectionModel{},
		&SalesOrderModel{},
		&SalesOrderLineModel{},
		&SupplierOrderModel{},
		&SupplierOrderLineModel{},
		&FinanceTransactionModel{},
		&ClusterStockSnapshotModel{},
		&ClusterSalesEstimateModel{},
		&PlanningParamsModel{},
		&SupplyPlanModel{},
		&SupplyPlanItemModel{},
		&SupplyPlanClusterModel{},
	}
}
