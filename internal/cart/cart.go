// Package cart はスキンケアストアの商品カタログとカートを提供する。
package cart

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hitoshi/dermaassist/internal/model"
)

// MaxQuantity は1商品あたりの数量の上限。
const MaxQuantity = 99

// Cart はプロセス内で共有されるカート。
// 金額はセント単位の整数で計算する。
type Cart struct {
	catalog *Catalog
	now     func() time.Time

	mu    sync.Mutex
	items []model.CartItem
}

// New はCartを生成する。
func New(catalog *Catalog) *Cart {
	return &Cart{catalog: catalog, now: time.Now}
}

// Catalog はカートが参照する商品カタログを返す。
func (c *Cart) Catalog() *Catalog {
	return c.catalog
}

// Add は商品を1つ追加する。既にカートにある場合は数量を1増やす。
// 数量がMaxQuantityに達している場合はバリデーションエラーを返す。
func (c *Cart) Add(productID string) (model.CartSummary, error) {
	p, ok := c.catalog.Get(productID)
	if !ok {
		return model.CartSummary{}, model.NewProductNotFoundError(productID)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if i := c.indexOf(productID); i >= 0 {
		if c.items[i].Quantity >= MaxQuantity {
			return model.CartSummary{}, quantityError()
		}
		c.items[i].Quantity++
	} else {
		c.items = append(c.items, model.CartItem{Product: p, Quantity: 1})
	}
	return c.summaryLocked(), nil
}

// SetQuantity は数量を変更する。quantityが0以下の場合は商品をカートから取り除く。
// MaxQuantityを超える場合はカートを変更せずバリデーションエラーを返す。
func (c *Cart) SetQuantity(productID string, quantity int) (model.CartSummary, error) {
	if quantity > MaxQuantity {
		return model.CartSummary{}, quantityError()
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	i := c.indexOf(productID)
	if i < 0 {
		return model.CartSummary{}, model.NewCartItemNotFoundError(productID)
	}
	if quantity <= 0 {
		c.items = append(c.items[:i], c.items[i+1:]...)
	} else {
		c.items[i].Quantity = quantity
	}
	return c.summaryLocked(), nil
}

// Remove は商品をカートから取り除く。
func (c *Cart) Remove(productID string) (model.CartSummary, error) {
	return c.SetQuantity(productID, 0)
}

// Summary はカートの内容と合計を返す。
func (c *Cart) Summary() model.CartSummary {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.summaryLocked()
}

// Checkout はカートの内容を注文として確定し、カートを空にする。
// 空のカートの場合はエラーを返す。
func (c *Cart) Checkout(customer *model.Session) (*model.Order, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.items) == 0 {
		return nil, model.NewCartEmptyError()
	}

	order := &model.Order{
		ID:          uuid.New().String(),
		PlacedAt:    c.now().UTC(),
		CartSummary: c.summaryLocked(),
	}
	if customer != nil {
		order.CustomerID = customer.ID
	}
	c.items = nil

	slog.Info("checkout completed",
		slog.String("order_id", order.ID),
		slog.Int("total_items", order.TotalItems),
		slog.Int64("total_price_cents", order.TotalPriceCents),
	)
	return order, nil
}

func quantityError() error {
	return model.NewValidationError(map[string]string{
		"quantity": fmt.Sprintf("Quantity must be %d or less", MaxQuantity),
	})
}

func (c *Cart) indexOf(productID string) int {
	for i, it := range c.items {
		if it.ID == productID {
			return i
		}
	}
	return -1
}

func (c *Cart) summaryLocked() model.CartSummary {
	s := model.CartSummary{Items: make([]model.CartItem, len(c.items))}
	copy(s.Items, c.items)
	for _, it := range c.items {
		s.TotalItems += it.Quantity
		s.TotalPriceCents += it.PriceCents * int64(it.Quantity)
	}
	return s
}
