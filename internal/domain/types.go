package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// PreOrderStatusProcessing is the default workflow label for new pre-orders.
// The status field is free text by design of the upstream workflow tooling.
const PreOrderStatusProcessing = "Processing"

// Order type tags distinguish directly placed orders from converted pre-orders.
const (
	OrderTypeStandard           = "standard"
	OrderTypePreOrderConversion = "preorder-conversion"
)

// PricingTypeBox marks line items priced and shipped by the box; only these
// participate in pallet accounting.
const PricingTypeBox = "box"

// StoreRef normalises the store reference, which clients send either as a
// plain id string or as an object carrying a "value" field.
type StoreRef struct {
	ID string
}

// UnmarshalJSON accepts both accepted wire shapes.
func (s *StoreRef) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		s.ID = ""
		return nil
	}
	if trimmed[0] == '"' {
		var id string
		if err := json.Unmarshal(trimmed, &id); err != nil {
			return err
		}
		s.ID = strings.TrimSpace(id)
		return nil
	}
	var obj struct {
		Value string `json:"value"`
	}
	if err := json.Unmarshal(trimmed, &obj); err != nil {
		return fmt.Errorf("store ref must be a string or an object with a value field: %w", err)
	}
	s.ID = strings.TrimSpace(obj.Value)
	return nil
}

// MarshalJSON always emits the normalised plain id.
func (s StoreRef) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.ID)
}

// String returns the normalised store id.
func (s StoreRef) String() string {
	return s.ID
}

// Address captures billing/shipping destinations on pre-orders and orders.
type Address struct {
	Line1      string `firestore:"line1" json:"line1"`
	Line2      string `firestore:"line2,omitempty" json:"line2,omitempty"`
	City       string `firestore:"city" json:"city"`
	Region     string `firestore:"region,omitempty" json:"region,omitempty"`
	PostalCode string `firestore:"postalCode,omitempty" json:"postalCode,omitempty"`
	Country    string `firestore:"country" json:"country"`
}

// LineItem is a single product line on a pre-order or order. The product
// reference historically arrived under two different field names; Product()
// resolves whichever is present.
type LineItem struct {
	ProductID   string  `firestore:"productId,omitempty" json:"productId,omitempty"`
	ProductRef  string  `firestore:"product,omitempty" json:"product,omitempty"`
	Name        string  `firestore:"name,omitempty" json:"name,omitempty"`
	Quantity    int     `firestore:"quantity" json:"quantity"`
	UnitPrice   float64 `firestore:"unitPrice" json:"unitPrice"`
	PricingType string  `firestore:"pricingType,omitempty" json:"pricingType,omitempty"`
}

// Product returns the resolved product id, preferring productId over product.
func (li LineItem) Product() string {
	if id := strings.TrimSpace(li.ProductID); id != "" {
		return id
	}
	return strings.TrimSpace(li.ProductRef)
}

// PalletBreakdownEntry describes the pallet accounting for one product.
type PalletBreakdownEntry struct {
	Boxes         int `firestore:"boxes" json:"boxes"`
	PalletsNeeded int `firestore:"palletsNeeded" json:"palletsNeeded"`
	FullPallets   int `firestore:"fullPallets" json:"fullPallets"`
	PartialCases  int `firestore:"partialCases" json:"partialCases"`
}

// PalletData is the consolidated shipping-unit summary computed during
// pre-order confirmation.
type PalletData struct {
	PalletCount  int                             `firestore:"palletCount" json:"palletCount"`
	TotalBoxes   int                             `firestore:"totalBoxes" json:"totalBoxes"`
	Breakdown    map[string]PalletBreakdownEntry `firestore:"breakdown" json:"breakdown"`
	CalculatedAt time.Time                       `firestore:"calculatedAt" json:"calculatedAt"`
}

// PreOrder is a customer order awaiting confirmation into a committed order.
type PreOrder struct {
	ID             string      `firestore:"-" json:"id"`
	PreOrderNumber string      `firestore:"preOrderNumber" json:"preOrderNumber"`
	StoreID        string      `firestore:"storeId" json:"storeId"`
	Items          []LineItem  `firestore:"items" json:"items"`
	BillingAddress *Address    `firestore:"billingAddress,omitempty" json:"billingAddress,omitempty"`
	ShippingAddr   *Address    `firestore:"shippingAddress,omitempty" json:"shippingAddress,omitempty"`
	Subtotal       float64     `firestore:"subtotal" json:"subtotal"`
	Total          float64     `firestore:"total" json:"total"`
	Status         string      `firestore:"status" json:"status"`
	OrderType      string      `firestore:"orderType,omitempty" json:"orderType,omitempty"`
	PriceListRef   string      `firestore:"priceListTemplateId,omitempty" json:"priceListTemplateId,omitempty"`
	Confirmed      bool        `firestore:"confirmed" json:"confirmed"`
	OrderID        string      `firestore:"orderId,omitempty" json:"orderId,omitempty"`
	PalletData     *PalletData `firestore:"palletData,omitempty" json:"palletData,omitempty"`
	PlateCount     int         `firestore:"plateCount,omitempty" json:"plateCount,omitempty"`
	CreatedAt      time.Time   `firestore:"createdAt" json:"createdAt"`
	UpdatedAt      time.Time   `firestore:"updatedAt" json:"updatedAt"`
}

// Order is a committed order, either placed directly or converted from a
// pre-order. Converted orders carry the originating pre-order id.
type Order struct {
	ID             string      `firestore:"-" json:"id"`
	OrderNumber    string      `firestore:"orderNumber" json:"orderNumber"`
	StoreID        string      `firestore:"storeId" json:"storeId"`
	Items          []LineItem  `firestore:"items" json:"items"`
	BillingAddress *Address    `firestore:"billingAddress,omitempty" json:"billingAddress,omitempty"`
	ShippingAddr   *Address    `firestore:"shippingAddress,omitempty" json:"shippingAddress,omitempty"`
	Subtotal       float64     `firestore:"subtotal" json:"subtotal"`
	Total          float64     `firestore:"total" json:"total"`
	Status         string      `firestore:"status" json:"status"`
	OrderType      string      `firestore:"orderType" json:"orderType"`
	PreOrderID     string      `firestore:"preOrderId,omitempty" json:"preOrderId,omitempty"`
	PalletData     *PalletData `firestore:"palletData,omitempty" json:"palletData,omitempty"`
	PlacedAt       time.Time   `firestore:"placedAt" json:"placedAt"`
	CreatedAt      time.Time   `firestore:"createdAt" json:"createdAt"`
	UpdatedAt      time.Time   `firestore:"updatedAt" json:"updatedAt"`
}

// PalletCapacity is the per-product shipping-unit capacity.
type PalletCapacity struct {
	TotalCasesPerPallet int `firestore:"totalCasesPerPallet" json:"totalCasesPerPallet"`
}

// Product is a read-only dependency of the confirmation flow: capacity data
// for pallet math and on-hand stock for order creation.
type Product struct {
	ID             string          `firestore:"-" json:"id"`
	Name           string          `firestore:"name" json:"name"`
	PalletCapacity *PalletCapacity `firestore:"palletCapacity,omitempty" json:"palletCapacity,omitempty"`
	Stock          int             `firestore:"stock" json:"stock"`
}

// CasesPerPallet returns the capacity, or 0 when absent or non-positive.
func (p Product) CasesPerPallet() int {
	if p.PalletCapacity == nil || p.PalletCapacity.TotalCasesPerPallet <= 0 {
		return 0
	}
	return p.PalletCapacity.TotalCasesPerPallet
}

// Expense is a back-office expense record.
type Expense struct {
	ID         string    `firestore:"-" json:"id"`
	StoreID    string    `firestore:"storeId" json:"storeId"`
	Category   string    `firestore:"category" json:"category"`
	Amount     float64   `firestore:"amount" json:"amount"`
	Note       string    `firestore:"note,omitempty" json:"note,omitempty"`
	IncurredAt time.Time `firestore:"incurredAt" json:"incurredAt"`
	CreatedAt  time.Time `firestore:"createdAt" json:"createdAt"`
	UpdatedAt  time.Time `firestore:"updatedAt" json:"updatedAt"`
}

// Notification is a message shown to a back-office user.
type Notification struct {
	ID          string     `firestore:"-" json:"id"`
	RecipientID string     `firestore:"recipientId" json:"recipientId"`
	Title       string     `firestore:"title" json:"title"`
	Body        string     `firestore:"body,omitempty" json:"body,omitempty"`
	Read        bool       `firestore:"read" json:"read"`
	ReadAt      *time.Time `firestore:"readAt,omitempty" json:"readAt,omitempty"`
	CreatedAt   time.Time  `firestore:"createdAt" json:"createdAt"`
}

// PriceListRow is one product/price pair on a price-list template.
type PriceListRow struct {
	ProductID string  `firestore:"productId" json:"productId"`
	Name      string  `firestore:"name" json:"name"`
	Price     float64 `firestore:"price" json:"price"`
}

// PriceListTemplate is a distributable price list.
type PriceListTemplate struct {
	ID        string         `firestore:"-" json:"id"`
	StoreID   string         `firestore:"storeId" json:"storeId"`
	Name      string         `firestore:"name" json:"name"`
	Rows      []PriceListRow `firestore:"rows" json:"rows"`
	CreatedAt time.Time      `firestore:"createdAt" json:"createdAt"`
	UpdatedAt time.Time      `firestore:"updatedAt" json:"updatedAt"`
}

// Page is a size/offset page of results with the total match count when the
// repository can provide it cheaply.
type Page[T any] struct {
	Items    []T   `json:"items"`
	NextPage *int  `json:"nextPage,omitempty"`
	Total    int64 `json:"total,omitempty"`
}
