package domain

import (
	"encoding/json"
	"testing"
)

func TestStoreRefUnmarshal(t *testing.T) {
	cases := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{name: "plain string", input: `"store-1"`, want: "store-1"},
		{name: "object with value", input: `{"value":"store-2"}`, want: "store-2"},
		{name: "padded string", input: `"  store-3  "`, want: "store-3"},
		{name: "null", input: `null`, want: ""},
		{name: "empty object", input: `{}`, want: ""},
		{name: "wrong shape", input: `[1,2]`, wantErr: true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var ref StoreRef
			err := json.Unmarshal([]byte(tc.input), &ref)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected error for %s", tc.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("unmarshal %s: %v", tc.input, err)
			}
			if ref.ID != tc.want {
				t.Fatalf("expected %q, got %q", tc.want, ref.ID)
			}
		})
	}
}

func TestStoreRefMarshalEmitsPlainID(t *testing.T) {
	data, err := json.Marshal(StoreRef{ID: "store-1"})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(data) != `"store-1"` {
		t.Fatalf("expected plain id, got %s", data)
	}
}

func TestLineItemProductPrefersProductID(t *testing.T) {
	li := LineItem{ProductID: "prod-a", ProductRef: "prod-b"}
	if got := li.Product(); got != "prod-a" {
		t.Fatalf("expected prod-a, got %q", got)
	}

	li = LineItem{ProductRef: " prod-b "}
	if got := li.Product(); got != "prod-b" {
		t.Fatalf("expected trimmed legacy field, got %q", got)
	}

	if got := (LineItem{}).Product(); got != "" {
		t.Fatalf("expected empty id, got %q", got)
	}
}

func TestProductCasesPerPallet(t *testing.T) {
	if got := (Product{}).CasesPerPallet(); got != 0 {
		t.Fatalf("missing capacity must be 0, got %d", got)
	}
	p := Product{PalletCapacity: &PalletCapacity{TotalCasesPerPallet: -1}}
	if got := p.CasesPerPallet(); got != 0 {
		t.Fatalf("non-positive capacity must be 0, got %d", got)
	}
	p.PalletCapacity.TotalCasesPerPallet = 10
	if got := p.CasesPerPallet(); got != 10 {
		t.Fatalf("expected 10, got %d", got)
	}
}
