package cart

import (
	"strings"

	"github.com/hitoshi/dermaassist/internal/model"
)

// Category は商品カテゴリを表す。
type Category struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// CategoryAll は全カテゴリを表す絞り込み値。
const CategoryAll = "all"

// Categories はストアで選択できるカテゴリの一覧を返す。
func Categories() []Category {
	return []Category{
		{ID: CategoryAll, Name: "All Products"},
		{ID: "cleansers", Name: "Cleansers"},
		{ID: "moisturizers", Name: "Moisturizers"},
		{ID: "treatments", Name: "Treatments"},
		{ID: "sunscreen", Name: "Sunscreen"},
		{ID: "serums", Name: "Serums"},
	}
}

// Catalog は販売商品の一覧を保持する。生成後は変更しない。
type Catalog struct {
	products []model.Product
	byID     map[string]model.Product
}

// NewCatalog は商品一覧からCatalogを生成する。
func NewCatalog(products []model.Product) *Catalog {
	c := &Catalog{
		products: make([]model.Product, len(products)),
		byID:     make(map[string]model.Product, len(products)),
	}
	copy(c.products, products)
	for _, p := range products {
		c.byID[p.ID] = p
	}
	return c
}

// DefaultCatalog はデモ用の固定商品を持つCatalogを返す。
func DefaultCatalog() *Catalog {
	return NewCatalog([]model.Product{
		{
			ID:          "1",
			Name:        "Gentle Foaming Cleanser",
			Description: "A mild, soap-free cleanser that removes impurities without stripping natural oils.",
			PriceCents:  2499,
			Image:       "https://images.pexels.com/photos/4465124/pexels-photo-4465124.jpeg?auto=compress&cs=tinysrgb&w=400",
			Category:    "cleansers",
			Rating:      4.8,
			Reviews:     156,
		},
		{
			ID:          "2",
			Name:        "Hydrating Daily Moisturizer",
			Description: "Lightweight, non-comedogenic moisturizer with hyaluronic acid for all-day hydration.",
			PriceCents:  3299,
			Image:       "https://images.pexels.com/photos/4465831/pexels-photo-4465831.jpeg?auto=compress&cs=tinysrgb&w=400",
			Category:    "moisturizers",
			Rating:      4.9,
			Reviews:     203,
		},
		{
			ID:          "3",
			Name:        "Vitamin C Brightening Serum",
			Description: "Potent antioxidant serum that brightens skin and reduces signs of aging.",
			PriceCents:  4599,
			Image:       "https://images.pexels.com/photos/4465829/pexels-photo-4465829.jpeg?auto=compress&cs=tinysrgb&w=400",
			Category:    "serums",
			Rating:      4.7,
			Reviews:     89,
		},
		{
			ID:          "4",
			Name:        "Broad Spectrum SPF 50",
			Description: "Lightweight, non-greasy sunscreen with zinc oxide for superior protection.",
			PriceCents:  2899,
			Image:       "https://images.pexels.com/photos/4465832/pexels-photo-4465832.jpeg?auto=compress&cs=tinysrgb&w=400",
			Category:    "sunscreen",
			Rating:      4.6,
			Reviews:     124,
		},
		{
			ID:          "5",
			Name:        "Retinol Night Treatment",
			Description: "Advanced retinol formula for reducing fine lines and improving skin texture.",
			PriceCents:  5299,
			Image:       "https://images.pexels.com/photos/4465833/pexels-photo-4465833.jpeg?auto=compress&cs=tinysrgb&w=400",
			Category:    "treatments",
			Rating:      4.8,
			Reviews:     167,
		},
		{
			ID:          "6",
			Name:        "Niacinamide Pore Refining Serum",
			Description: "Minimizes pores and controls oil production with 10% niacinamide.",
			PriceCents:  3899,
			Image:       "https://images.pexels.com/photos/4465834/pexels-photo-4465834.jpeg?auto=compress&cs=tinysrgb&w=400",
			Category:    "serums",
			Rating:      4.5,
			Reviews:     98,
		},
	})
}

// Get はIDに対応する商品を返す。
func (c *Catalog) Get(id string) (model.Product, bool) {
	p, ok := c.byID[id]
	return p, ok
}

// List はカテゴリと検索語で絞り込んだ商品を返す。
// categoryが空または"all"の場合はカテゴリで絞り込まない。
// queryは商品名と説明文に対して大文字小文字を区別せず部分一致で検索する。
func (c *Catalog) List(category, query string) []model.Product {
	q := strings.ToLower(strings.TrimSpace(query))
	out := make([]model.Product, 0, len(c.products))
	for _, p := range c.products {
		if category != "" && category != CategoryAll && p.Category != category {
			continue
		}
		if q != "" &&
			!strings.Contains(strings.ToLower(p.Name), q) &&
			!strings.Contains(strings.ToLower(p.Description), q) {
			continue
		}
		out = append(out, p)
	}
	return out
}
