package model

import "time"

// Product はスキンケアストアの商品を表す。
// 価格は丸め誤差を避けるためセント単位の整数で保持する。
type Product struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	PriceCents  int64   `json:"price_cents"`
	Image       string  `json:"image"`
	Category    string  `json:"category"`
	Rating      float64 `json:"rating"`
	Reviews     int     `json:"reviews"`
}

// CartItem はカート内の1商品と数量を表す。
type CartItem struct {
	Product
	Quantity int `json:"quantity"`
}

// CartSummary はカートの内容と合計を表す。
type CartSummary struct {
	Items           []CartItem `json:"items"`
	TotalItems      int        `json:"total_items"`
	TotalPriceCents int64      `json:"total_price_cents"`
}

// Order はチェックアウト済みのカートを表す。決済は行わない。
type Order struct {
	ID         string    `json:"id"`
	CustomerID string    `json:"customer_id"`
	PlacedAt   time.Time `json:"placed_at"`
	CartSummary
}
