package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/dermaassist/internal/cart"
	"github.com/hitoshi/dermaassist/internal/middleware"
	"github.com/hitoshi/dermaassist/internal/model"
)

// CartServiceInterface はストアハンドラーが必要とするカートのインターフェース。
type CartServiceInterface interface {
	Summary() model.CartSummary
	Add(productID string) (model.CartSummary, error)
	SetQuantity(productID string, quantity int) (model.CartSummary, error)
	Remove(productID string) (model.CartSummary, error)
	Checkout(customer *model.Session) (*model.Order, error)
}

// ProductLister は商品一覧を返す。cart.Catalogが実装する。
type ProductLister interface {
	List(category, query string) []model.Product
}

// CheckoutRecorder はチェックアウトされた商品数を記録する。
type CheckoutRecorder interface {
	RecordCheckout(totalItems int)
}

// StoreHandler は商品一覧とカートのHTTPハンドラー。
type StoreHandler struct {
	cart     CartServiceInterface
	products ProductLister
	recorder CheckoutRecorder
}

// NewStoreHandler はStoreHandlerを生成する。
func NewStoreHandler(c CartServiceInterface, products ProductLister, recorder CheckoutRecorder) *StoreHandler {
	return &StoreHandler{cart: c, products: products, recorder: recorder}
}

type addCartItemRequest struct {
	ProductID string `json:"product_id"`
}

type setQuantityRequest struct {
	Quantity int `json:"quantity"`
}

// ListProducts はカテゴリと検索語で絞り込んだ商品一覧を返す。
// GET /api/products?category=serums&q=vitamin
func (h *StoreHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	writeJSON(w, http.StatusOK, map[string]any{
		"categories": cart.Categories(),
		"products":   h.products.List(q.Get("category"), q.Get("q")),
	})
}

// GetCart はカートの内容を返す。
// GET /api/cart
func (h *StoreHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.cart.Summary())
}

// AddItem は商品をカートに追加する。既にある場合は数量を1増やす。
// POST /api/cart/items
func (h *StoreHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	var req addCartItemRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.ProductID == "" {
		middleware.WriteErrorResponse(w, http.StatusUnprocessableEntity, model.NewValidationError(map[string]string{
			"product_id": "Product is required",
		}))
		return
	}

	summary, err := h.cart.Add(req.ProductID)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// UpdateItem はカート内の商品の数量を変更する。0以下の場合は削除する。
// PUT /api/cart/items/{productID}
func (h *StoreHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	var req setQuantityRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	summary, err := h.cart.SetQuantity(chi.URLParam(r, "productID"), req.Quantity)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// RemoveItem はカートから商品を削除する。
// DELETE /api/cart/items/{productID}
func (h *StoreHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	summary, err := h.cart.Remove(chi.URLParam(r, "productID"))
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// Checkout はカートを注文として確定し、空にする。サインインが必要。
// POST /api/cart/checkout
func (h *StoreHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	order, err := h.cart.Checkout(middleware.SessionFromContext(r.Context()))
	if err != nil {
		handleServiceError(w, err)
		return
	}
	h.recorder.RecordCheckout(order.TotalItems)
	writeJSON(w, http.StatusCreated, order)
}
