package handler

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/storefront/checkout/internal/core/checkout"
	"github.com/storefront/checkout/internal/core/domain"
)

// HTTPHandler exposes the checkout pipeline to the browser client. Session
// identity arrives in headers; cookie and CSRF handling live upstream.
type HTTPHandler struct {
	svc *checkout.Service
}

func NewHTTPHandler(svc *checkout.Service) *HTTPHandler {
	return &HTTPHandler{svc: svc}
}

func (h *HTTPHandler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Post("/checkoutservices/place-order", h.PlaceOrder)
	r.Post("/checkoutservices/submit-billing", h.SubmitBilling)
	r.Post("/checkoutservices/submit-payment", h.SubmitPayment)
	r.Get("/checkout/async", h.ResumeAsync)
	r.Get("/order/confirm", h.OrderConfirm)
	r.Get("/orders", h.ListOrders)
	r.Get("/health", h.Health)

	return r
}

func sessionFromRequest(r *http.Request) checkout.Session {
	return checkout.Session{
		ID:         r.Header.Get("X-Session-ID"),
		CustomerID: r.Header.Get("X-Customer-ID"),
		Registered: r.Header.Get("X-Customer-Registered") == "true",
	}
}

// PlaceOrder is the inline entry point: payment completes (or suspends)
// during this request. The result body is always 200; the error taxonomy
// lives inside the JSON so the client can pick the right recovery UI.
func (h *HTTPHandler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	sess := sessionFromRequest(r)
	result := h.svc.PlaceOrder(r.Context(), sess)
	writeJSON(w, http.StatusOK, result)
}

func (h *HTTPHandler) SubmitBilling(w http.ResponseWriter, r *http.Request) {
	var form checkout.BillingForm
	if err := json.NewDecoder(r.Body).Decode(&form); err != nil {
		writeJSON(w, http.StatusBadRequest, checkout.BillingResult{
			Error:        true,
			FieldErrors:  []checkout.FieldErrors{},
			ServerErrors: []string{"invalid request body"},
		})
		return
	}

	sess := sessionFromRequest(r)
	result := h.svc.SubmitBilling(r.Context(), sess, form)
	writeJSON(w, http.StatusOK, result)
}

func (h *HTTPHandler) SubmitPayment(w http.ResponseWriter, r *http.Request) {
	var form map[string]string
	if err := json.NewDecoder(r.Body).Decode(&form); err != nil {
		writeJSON(w, http.StatusBadRequest, checkout.PlacementResult{
			Error:        true,
			FieldErrors:  []checkout.FieldErrors{},
			ServerErrors: []string{"invalid request body"},
		})
		return
	}

	sess := sessionFromRequest(r)
	result := h.svc.SubmitPayment(r.Context(), sess, form)
	writeJSON(w, http.StatusOK, result)
}

// ResumeAsync is the return leg of a pending-redirect payment. It never
// renders a body; every outcome is a redirect.
func (h *HTTPHandler) ResumeAsync(w http.ResponseWriter, r *http.Request) {
	sess := sessionFromRequest(r)
	orderNo := r.URL.Query().Get("orderNo")
	token := r.URL.Query().Get("token")

	redirect := h.svc.Resume(r.Context(), sess, orderNo, token)
	http.Redirect(w, r, redirect.URL, http.StatusSeeOther)
}

// orderView is the customer-facing order shape. The possession token is
// echoed only on the confirmation lookup that already presented it.
type orderView struct {
	OrderNo       string        `json:"orderNo"`
	Status        string        `json:"status"`
	CustomerEmail string        `json:"customerEmail,omitempty"`
	Currency      string        `json:"currency"`
	Totals        domain.Totals `json:"totals"`
	CreatedAt     time.Time     `json:"createdAt"`
}

func newOrderView(o *domain.Order) orderView {
	return orderView{
		OrderNo:       o.OrderNo,
		Status:        string(o.Status),
		CustomerEmail: o.CustomerEmail,
		Currency:      o.Currency,
		Totals:        o.Totals,
		CreatedAt:     o.CreatedAt,
	}
}

func (h *HTTPHandler) OrderConfirm(w http.ResponseWriter, r *http.Request) {
	orderNo := r.URL.Query().Get("ID")
	token := r.URL.Query().Get("token")

	order, err := h.svc.OrderByToken(r.Context(), orderNo, token)
	if err != nil {
		log.Printf("handler: order confirm lookup %s: %v", orderNo, err)
		writeJSON(w, http.StatusInternalServerError, map[string]bool{"error": true})
		return
	}
	if order == nil {
		writeJSON(w, http.StatusNotFound, map[string]bool{"error": true})
		return
	}
	writeJSON(w, http.StatusOK, newOrderView(order))
}

func (h *HTTPHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	sess := sessionFromRequest(r)
	orders, err := h.svc.PlacedOrders(r.Context(), sess)
	if err != nil {
		log.Printf("handler: list orders for customer %s: %v", sess.CustomerID, err)
		writeJSON(w, http.StatusInternalServerError, map[string]bool{"error": true})
		return
	}

	views := make([]orderView, 0, len(orders))
	for i := range orders {
		views = append(views, newOrderView(&orders[i]))
	}
	writeJSON(w, http.StatusOK, views)
}

func (h *HTTPHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
