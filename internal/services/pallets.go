package services

import (
	"time"

	domain "github.com/greengate/backoffice/internal/domain"
)

// PalletBreakdown is the full/partial pallet split for one quantity.
type PalletBreakdown struct {
	TotalPallets       int
	FullPallets        int
	PartialPalletCases int
}

// CalculatePalletsNeeded maps a box quantity onto pallets of the given
// capacity. ok is false when either argument is non-positive; the caller must
// then skip pallet accounting for the item but still count its boxes.
func CalculatePalletsNeeded(quantity, casesPerPallet int) (PalletBreakdown, bool) {
	if quantity <= 0 || casesPerPallet <= 0 {
		return PalletBreakdown{}, false
	}

	breakdown := PalletBreakdown{
		FullPallets:        quantity / casesPerPallet,
		PartialPalletCases: quantity % casesPerPallet,
	}
	breakdown.TotalPallets = breakdown.FullPallets
	if breakdown.PartialPalletCases > 0 {
		breakdown.TotalPallets++
	}
	return breakdown, true
}

// BuildPalletSummary consolidates the box-type line items of a pre-order into
// a shipping-unit summary. capacities maps product id to cases-per-pallet;
// products absent from the map, or with non-positive capacity, contribute to
// the box total only. Quantities for duplicate product ids are summed before
// the pallet split is computed.
func BuildPalletSummary(items []domain.LineItem, capacities map[string]int, now time.Time) domain.PalletData {
	summary := domain.PalletData{
		Breakdown:    make(map[string]domain.PalletBreakdownEntry),
		CalculatedAt: now.UTC(),
	}

	var productOrder []string
	quantities := make(map[string]int)

	for _, item := range items {
		if item.PricingType != domain.PricingTypeBox || item.Quantity <= 0 {
			continue
		}
		summary.TotalBoxes += item.Quantity

		productID := item.Product()
		if productID == "" {
			continue
		}
		if _, seen := quantities[productID]; !seen {
			productOrder = append(productOrder, productID)
		}
		quantities[productID] += item.Quantity
	}

	for _, productID := range productOrder {
		quantity := quantities[productID]
		breakdown, ok := CalculatePalletsNeeded(quantity, capacities[productID])
		if !ok {
			continue
		}
		summary.Breakdown[productID] = domain.PalletBreakdownEntry{
			Boxes:         quantity,
			PalletsNeeded: breakdown.TotalPallets,
			FullPallets:   breakdown.FullPallets,
			PartialCases:  breakdown.PartialPalletCases,
		}
		summary.PalletCount += breakdown.TotalPallets
	}

	return summary
}
