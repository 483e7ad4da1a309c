package cart

import (
	"errors"
	"math"
	"sync"
	"testing"

	"github.com/hitoshi/dermaassist/internal/model"
)

func testCatalog() *Catalog {
	return NewCatalog([]model.Product{
		{ID: "a", Name: "Cleanser", Description: "gentle", PriceCents: 2499, Category: "cleansers"},
		{ID: "b", Name: "Serum", Description: "Vitamin C", PriceCents: 4599, Category: "serums"},
		{ID: "c", Name: "Sunscreen", Description: "SPF 50", PriceCents: 10, Category: "sunscreen"},
	})
}

func apiErrorCode(t *testing.T, err error) string {
	t.Helper()
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *model.APIError, got %T: %v", err, err)
	}
	return apiErr.Code
}

func TestCart_Add_InsertsThenIncrements(t *testing.T) {
	c := New(testCatalog())

	if _, err := c.Add("a"); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	s, err := c.Add("a")
	if err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	if len(s.Items) != 1 {
		t.Fatalf("len(Items) = %d, want 1", len(s.Items))
	}
	if s.Items[0].Quantity != 2 {
		t.Errorf("Quantity = %d, want 2", s.Items[0].Quantity)
	}
	if s.TotalItems != 2 {
		t.Errorf("TotalItems = %d, want 2", s.TotalItems)
	}
	if s.TotalPriceCents != 4998 {
		t.Errorf("TotalPriceCents = %d, want 4998", s.TotalPriceCents)
	}
}

func TestCart_Add_UnknownProduct(t *testing.T) {
	c := New(testCatalog())

	_, err := c.Add("zzz")
	if code := apiErrorCode(t, err); code != model.ErrCodeProductNotFound {
		t.Errorf("Code = %q, want %q", code, model.ErrCodeProductNotFound)
	}
}

func TestCart_Totals_AreCentPrecise(t *testing.T) {
	c := New(testCatalog())

	// 0.10ドル×3 は浮動小数点では0.30000000000000004になる
	for i := 0; i < 3; i++ {
		if _, err := c.Add("c"); err != nil {
			t.Fatalf("Add failed: %v", err)
		}
	}
	if _, err := c.Add("b"); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	s := c.Summary()
	if s.TotalPriceCents != 30+4599 {
		t.Errorf("TotalPriceCents = %d, want %d", s.TotalPriceCents, 30+4599)
	}
	if s.TotalItems != 4 {
		t.Errorf("TotalItems = %d, want 4", s.TotalItems)
	}
}

func TestCart_SetQuantity(t *testing.T) {
	c := New(testCatalog())
	if _, err := c.Add("a"); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if _, err := c.Add("b"); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	s, err := c.SetQuantity("a", 5)
	if err != nil {
		t.Fatalf("SetQuantity failed: %v", err)
	}
	if s.Items[0].Quantity != 5 {
		t.Errorf("Quantity = %d, want 5", s.Items[0].Quantity)
	}

	s, err = c.SetQuantity("a", 0)
	if err != nil {
		t.Fatalf("SetQuantity(0) failed: %v", err)
	}
	if len(s.Items) != 1 || s.Items[0].ID != "b" {
		t.Errorf("Items = %+v, want only b", s.Items)
	}

	s, err = c.SetQuantity("b", -1)
	if err != nil {
		t.Fatalf("SetQuantity(-1) failed: %v", err)
	}
	if len(s.Items) != 0 {
		t.Errorf("Items = %+v, want empty", s.Items)
	}
}

func TestCart_SetQuantity_AboveMax_LeavesCartUnchanged(t *testing.T) {
	c := New(testCatalog())
	if _, err := c.Add("a"); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	for _, q := range []int{MaxQuantity + 1, math.MaxInt} {
		_, err := c.SetQuantity("a", q)
		if code := apiErrorCode(t, err); code != model.ErrCodeValidation {
			t.Errorf("SetQuantity(%d) code = %q, want %q", q, code, model.ErrCodeValidation)
		}
	}

	s := c.Summary()
	if s.TotalItems != 1 || s.TotalPriceCents != 2499 {
		t.Errorf("summary = %+v, want unchanged single item", s)
	}

	if _, err := c.SetQuantity("a", MaxQuantity); err != nil {
		t.Fatalf("SetQuantity(MaxQuantity) failed: %v", err)
	}
	_, err := c.Add("a")
	if code := apiErrorCode(t, err); code != model.ErrCodeValidation {
		t.Errorf("Add at max code = %q, want %q", code, model.ErrCodeValidation)
	}
	if got := c.Summary().TotalItems; got != MaxQuantity {
		t.Errorf("TotalItems = %d, want %d", got, MaxQuantity)
	}
}

func TestCart_SetQuantity_NotInCart(t *testing.T) {
	c := New(testCatalog())

	_, err := c.SetQuantity("a", 2)
	if code := apiErrorCode(t, err); code != model.ErrCodeCartItemNotFound {
		t.Errorf("Code = %q, want %q", code, model.ErrCodeCartItemNotFound)
	}
}

func TestCart_Remove(t *testing.T) {
	c := New(testCatalog())
	if _, err := c.Add("a"); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	s, err := c.Remove("a")
	if err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	if len(s.Items) != 0 || s.TotalItems != 0 || s.TotalPriceCents != 0 {
		t.Errorf("summary = %+v, want empty", s)
	}

	if _, err := c.Remove("a"); err == nil {
		t.Error("expected error when removing an item not in the cart")
	}
}

func TestCart_Checkout_ClearsCart(t *testing.T) {
	c := New(testCatalog())
	if _, err := c.Add("a"); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if _, err := c.Add("b"); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	order, err := c.Checkout(&model.Session{ID: "u-1"})
	if err != nil {
		t.Fatalf("Checkout failed: %v", err)
	}

	if order.ID == "" {
		t.Error("expected order ID")
	}
	if order.CustomerID != "u-1" {
		t.Errorf("CustomerID = %q, want %q", order.CustomerID, "u-1")
	}
	if order.TotalItems != 2 || order.TotalPriceCents != 2499+4599 {
		t.Errorf("order totals = %d items / %d cents", order.TotalItems, order.TotalPriceCents)
	}
	if s := c.Summary(); len(s.Items) != 0 {
		t.Errorf("cart not cleared: %+v", s)
	}
}

func TestCart_Checkout_Empty(t *testing.T) {
	c := New(testCatalog())

	_, err := c.Checkout(&model.Session{ID: "u-1"})
	if code := apiErrorCode(t, err); code != model.ErrCodeCartEmpty {
		t.Errorf("Code = %q, want %q", code, model.ErrCodeCartEmpty)
	}
}

func TestCart_Summary_ReturnsCopy(t *testing.T) {
	c := New(testCatalog())
	if _, err := c.Add("a"); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	s := c.Summary()
	s.Items[0].Quantity = 99

	if c.Summary().Items[0].Quantity != 1 {
		t.Error("mutating the summary must not change the cart")
	}
}

func TestCart_ConcurrentAdd(t *testing.T) {
	c := New(testCatalog())

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = c.Add("a")
		}()
	}
	wg.Wait()

	if got := c.Summary().TotalItems; got != 50 {
		t.Errorf("TotalItems = %d, want 50", got)
	}
}

func TestCatalog_List(t *testing.T) {
	c := testCatalog()

	tests := []struct {
		name     string
		category string
		query    string
		wantIDs  []string
	}{
		{"all", "", "", []string{"a", "b", "c"}},
		{"all keyword", CategoryAll, "", []string{"a", "b", "c"}},
		{"by category", "serums", "", []string{"b"}},
		{"by name", "", "SUN", []string{"c"}},
		{"by description", "", "vitamin", []string{"b"}},
		{"category and query mismatch", "cleansers", "vitamin", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := c.List(tt.category, tt.query)
			if len(got) != len(tt.wantIDs) {
				t.Fatalf("got %d products, want %d", len(got), len(tt.wantIDs))
			}
			for i, p := range got {
				if p.ID != tt.wantIDs[i] {
					t.Errorf("got[%d].ID = %q, want %q", i, p.ID, tt.wantIDs[i])
				}
			}
		})
	}
}

func TestDefaultCatalog(t *testing.T) {
	c := DefaultCatalog()

	p, ok := c.Get("1")
	if !ok {
		t.Fatal("expected product 1 in default catalog")
	}
	if p.PriceCents != 2499 {
		t.Errorf("PriceCents = %d, want 2499", p.PriceCents)
	}
	if len(c.List("", "")) != 6 {
		t.Errorf("default catalog size = %d, want 6", len(c.List("", "")))
	}
	if len(Categories()) != 6 {
		t.Errorf("len(Categories()) = %d, want 6", len(Categories()))
	}
}
