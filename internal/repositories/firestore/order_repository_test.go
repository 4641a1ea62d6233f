package firestore

import (
	"testing"

	domain "github.com/greengate/backoffice/internal/domain"
)

func TestMergeQuantities(t *testing.T) {
	items := []domain.LineItem{
		{ProductID: "prod-a", Quantity: 3},
		{ProductRef: "prod-b", Quantity: 2},
		{ProductID: "prod-a", Quantity: 4},
		{ProductID: "", Quantity: 5},
		{ProductID: "prod-c", Quantity: 0},
	}

	merged := mergeQuantities(items)

	if len(merged.order) != 2 {
		t.Fatalf("expected 2 merged products, got %v", merged.order)
	}
	if merged.order[0] != "prod-a" || merged.order[1] != "prod-b" {
		t.Fatalf("expected first-occurrence order, got %v", merged.order)
	}
	if merged.quantities["prod-a"] != 7 {
		t.Fatalf("expected summed quantity 7 for prod-a, got %d", merged.quantities["prod-a"])
	}
	if merged.quantities["prod-b"] != 2 {
		t.Fatalf("expected quantity 2 for prod-b, got %d", merged.quantities["prod-b"])
	}
}

func TestMergeQuantitiesResolvesEitherProductField(t *testing.T) {
	items := []domain.LineItem{
		{ProductID: "prod-a", Quantity: 1},
		{ProductRef: "prod-a", Quantity: 2},
	}

	merged := mergeQuantities(items)
	if len(merged.order) != 1 {
		t.Fatalf("both field spellings must merge to one product, got %v", merged.order)
	}
	if merged.quantities["prod-a"] != 3 {
		t.Fatalf("expected merged quantity 3, got %d", merged.quantities["prod-a"])
	}
}
