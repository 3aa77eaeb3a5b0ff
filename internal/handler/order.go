package handler

import (
	"net/http"

	"github.com/go-faster/jx"

	"github.com/xenking/food-ordering/internal/domain/auth"
	"github.com/xenking/food-ordering/internal/domain/cart"
	"github.com/xenking/food-ordering/internal/domain/order"
)

// Quote prices the caller's cart and lists the payment methods on offer:
// GET /api/checkout/quote.
func (h *Handler) Quote(w http.ResponseWriter, _ *http.Request, id auth.Identity) {
	q := h.orders.Pricing().Quote(cart.Subtotal(h.sessions.Cart(id.UserID).Items()))

	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.ObjStart()
		e.FieldStart("summary")
		encodeQuote(e, q)
		e.FieldStart("paymentMethods")
		e.ArrStart()
		for _, m := range h.methods {
			e.ObjStart()
			e.FieldStart("id")
			e.Str(string(m))
			e.FieldStart("label")
			e.Str(m.Label())
			e.ObjEnd()
		}
		e.ArrEnd()
		e.ObjEnd()
	})
}

// Checkout places an order for the caller's cart: POST /api/checkout.
// The cart is cleared only when the order is recorded.
func (h *Handler) Checkout(w http.ResponseWriter, r *http.Request, id auth.Identity) {
	var req order.PlaceOrderRequest
	err := decodeObject(r, func(d *jx.Decoder, key string) error {
		switch key {
		case "paymentMethod":
			var err error
			req.PaymentMethod, err = d.Str()
			return err
		case "deliveryAddress":
			return decodeAddress(d, &req.DeliveryAddress)
		default:
			return d.Skip()
		}
	})
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	c, release := h.sessions.Acquire(id.UserID)
	defer release()

	o, err := h.orders.PlaceOrder(r.Context(), id, c, req)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, func(e *jx.Encoder) { encodeOrder(e, o) })
}

// ListOrders returns the caller's orders, newest first: GET /api/orders.
func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request, id auth.Identity) {
	orders, err := h.orders.History(r.Context(), id.UserID)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.ObjStart()
		e.FieldStart("orders")
		e.ArrStart()
		for i := range orders {
			encodeOrder(e, &orders[i])
		}
		e.ArrEnd()
		e.ObjEnd()
	})
}

// GetOrder returns one of the caller's orders: GET /api/orders/{id}.
func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request, id auth.Identity) {
	o, err := h.orders.Get(r.Context(), id.UserID, r.PathValue("id"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { encodeOrder(e, o) })
}

func decodeAddress(d *jx.Decoder, a *order.Address) error {
	return d.Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "latitude":
			a.Latitude, err = d.Float64()
		case "longitude":
			a.Longitude, err = d.Float64()
		case "address":
			a.Address, err = d.Str()
		case "city":
			a.City, err = d.Str()
		case "state":
			a.State, err = d.Str()
		case "country":
			a.Country, err = d.Str()
		case "postalCode":
			a.PostalCode, err = d.Str()
		default:
			err = d.Skip()
		}
		return err
	})
}

func encodeOrder(e *jx.Encoder, o *order.Order) {
	e.ObjStart()
	e.FieldStart("id")
	e.Str(o.ID)
	e.FieldStart("status")
	e.Str(string(o.Status))
	e.FieldStart("items")
	e.ArrStart()
	for _, it := range o.Items {
		e.ObjStart()
		e.FieldStart("id")
		e.Str(it.ID)
		e.FieldStart("name")
		e.Str(it.Name)
		e.FieldStart("price")
		encodeMoney(e, it.Price)
		e.FieldStart("quantity")
		e.Int(it.Quantity)
		e.ObjEnd()
	}
	e.ArrEnd()
	e.FieldStart("subtotal")
	encodeMoney(e, o.Subtotal)
	e.FieldStart("deliveryFee")
	encodeMoney(e, o.DeliveryFee)
	e.FieldStart("tax")
	encodeMoney(e, o.Tax)
	e.FieldStart("total")
	encodeMoney(e, o.Total)

	a := o.DeliveryAddress
	e.FieldStart("deliveryAddress")
	e.ObjStart()
	e.FieldStart("latitude")
	e.Float64(a.Latitude)
	e.FieldStart("longitude")
	e.Float64(a.Longitude)
	e.FieldStart("address")
	e.Str(a.Address)
	e.FieldStart("city")
	e.Str(a.City)
	e.FieldStart("state")
	e.Str(a.State)
	e.FieldStart("country")
	e.Str(a.Country)
	e.FieldStart("postalCode")
	e.Str(a.PostalCode)
	e.ObjEnd()

	e.FieldStart("paymentMethod")
	e.Str(string(o.PaymentMethod))
	e.FieldStart("paymentReference")
	e.Str(o.PaymentReference)
	e.FieldStart("createdAt")
	encodeTime(e, o.CreatedAt)
	e.ObjEnd()
}
