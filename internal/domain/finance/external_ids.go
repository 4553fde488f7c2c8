package finance

import (
	"fmt"

	"github.com/google/uuid"
)

// SaleIncomeExternalID is the external ID of the income booked for a sale.
// saleKey is the marketplace external ID when present, otherwise the order ID.
func SaleIncomeExternalID(marketplace, saleKey string) string {
	return fmt.Sprintf("sale:%s:%s:income", marketplace, saleKey)
}

// SaleFeesExternalID is the external ID of the marketplace fee expense booked for a sale
func SaleFeesExternalID(marketplace, saleKey string) string {
	return fmt.Sprintf("sale:%s:%s:fees", marketplace, saleKey)
}

// PurchaseExternalID is the external ID of the purchase expense of a supplier order
func PurchaseExternalID(supplierOrderID uuid.UUID) string {
	return fmt.Sprintf("supplier-order:%s:purchase", supplierOrderID)
}

// SupplyLossExternalID is the external ID of a loss write-off over a set of rejections
func SupplyLossExternalID(writeOffKey uuid.UUID) string {
	return fmt.Sprintf("supply-loss:%s", writeOffKey)
}

// DiscrepancyExternalID is the external ID of a manual discrepancy write-off
func DiscrepancyExternalID(movementID uuid.UUID) string {
	return fmt.Sprintf("discrepancy:%s", movementID)
}
