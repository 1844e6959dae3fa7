package service

import (
	"context"
	"fmt"

	"cancelsaga/internal/domain"
	"cancelsaga/internal/models"
)

// InventoryReconciler returns capacity freed by a cancellation.
type InventoryReconciler struct {
	stock domain.StockStore
}

func NewInventoryReconciler(stock domain.StockStore) *InventoryReconciler {
	return &InventoryReconciler{stock: stock}
}

// Applies reports whether the booking holds a capacity-limited variant.
func (r *InventoryReconciler) Applies(view *models.BookingView) bool {
	return view.VariantID != nil && view.VariantCapacityLimited
}

func (r *InventoryReconciler) Restore(ctx context.Context, view *models.BookingView) (string, error) {
	variantID := *view.VariantID
	if err := r.stock.IncrementVariantStock(ctx, variantID); err != nil {
		return "", fmt.Errorf("variant %d: %w", variantID, err)
	}
	return fmt.Sprintf("variant %d +1", variantID), nil
}
