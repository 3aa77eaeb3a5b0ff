package handler

import (
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"

	"github.com/xenking/food-ordering/internal/domain/auth"
	"github.com/xenking/food-ordering/internal/domain/cart"
	"github.com/xenking/food-ordering/internal/domain/checkout"
)

// GetCart returns the caller's cart: GET /api/cart.
func (h *Handler) GetCart(w http.ResponseWriter, _ *http.Request, id auth.Identity) {
	h.writeCart(w, http.StatusOK, h.sessions.Cart(id.UserID))
}

// AddCartItem adds a dish to the cart: POST /api/cart/items.
// The body is {"id": "...", "quantity": n}; quantity defaults to 1 and may
// not exceed cart.MaxQuantity.
// Price, name and image are taken from the menu, never from the client.
func (h *Handler) AddCartItem(w http.ResponseWriter, r *http.Request, id auth.Identity) {
	var (
		itemID   string
		quantity = 1
	)
	err := decodeObject(r, func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "id":
			itemID, err = d.Str()
		case "quantity":
			quantity, err = d.Int()
		default:
			err = d.Skip()
		}
		return err
	})
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	if itemID == "" {
		writeDomainError(w, r, errors.Wrap(errBadRequest, "id is required"))
		return
	}
	if quantity > cart.MaxQuantity {
		writeDomainError(w, r, errors.Wrapf(errBadRequest, "quantity must be at most %d", cart.MaxQuantity))
		return
	}

	it, err := h.catalog.Get(r.Context(), itemID)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	c, release := h.sessions.Acquire(id.UserID)
	defer release()
	c.AddItem(cart.Item{
		ID:    it.ID,
		Name:  it.Name,
		Price: it.Price,
		Image: it.Image,
	}, quantity)
	h.writeCart(w, http.StatusOK, c)
}

// UpdateCartItem sets a line's quantity: PUT /api/cart/items/{id}.
// A quantity of zero or less removes the line; more than cart.MaxQuantity
// is rejected.
func (h *Handler) UpdateCartItem(w http.ResponseWriter, r *http.Request, id auth.Identity) {
	var (
		quantity int
		seen     bool
	)
	err := decodeObject(r, func(d *jx.Decoder, key string) error {
		if key != "quantity" {
			return d.Skip()
		}
		seen = true
		var err error
		quantity, err = d.Int()
		return err
	})
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	if !seen {
		writeDomainError(w, r, errors.Wrap(errBadRequest, "quantity is required"))
		return
	}
	if quantity > cart.MaxQuantity {
		writeDomainError(w, r, errors.Wrapf(errBadRequest, "quantity must be at most %d", cart.MaxQuantity))
		return
	}

	c, release := h.sessions.Acquire(id.UserID)
	defer release()
	c.UpdateQuantity(r.PathValue("id"), quantity)
	h.writeCart(w, http.StatusOK, c)
}

// RemoveCartItem removes a line: DELETE /api/cart/items/{id}.
func (h *Handler) RemoveCartItem(w http.ResponseWriter, r *http.Request, id auth.Identity) {
	c, release := h.sessions.Acquire(id.UserID)
	defer release()
	c.RemoveItem(r.PathValue("id"))
	h.writeCart(w, http.StatusOK, c)
}

// ClearCart empties the cart: DELETE /api/cart.
func (h *Handler) ClearCart(w http.ResponseWriter, _ *http.Request, id auth.Identity) {
	c, release := h.sessions.Acquire(id.UserID)
	defer release()
	c.Clear()
	h.writeCart(w, http.StatusOK, c)
}

func (h *Handler) writeCart(w http.ResponseWriter, status int, c *cart.Store) {
	// One snapshot keeps the lines and totals consistent with each other.
	lines := c.Items()
	subtotal := cart.Subtotal(lines)
	var count int
	for _, l := range lines {
		count += l.Quantity
	}
	q := h.orders.Pricing().Quote(subtotal)

	writeJSON(w, status, func(e *jx.Encoder) {
		e.ObjStart()
		e.FieldStart("items")
		e.ArrStart()
		for _, l := range lines {
			e.ObjStart()
			e.FieldStart("id")
			e.Str(l.ID)
			e.FieldStart("name")
			e.Str(l.Name)
			e.FieldStart("image")
			e.Str(l.Image)
			e.FieldStart("price")
			encodeMoney(e, l.UnitPrice)
			e.FieldStart("quantity")
			e.Int(l.Quantity)
			e.FieldStart("total")
			encodeMoney(e, l.Total())
			e.ObjEnd()
		}
		e.ArrEnd()
		e.FieldStart("totalItems")
		e.Int(count)
		e.FieldStart("totalPrice")
		encodeMoney(e, subtotal)
		e.FieldStart("summary")
		encodeQuote(e, q)
		e.ObjEnd()
	})
}

func encodeQuote(e *jx.Encoder, q checkout.Quote) {
	e.ObjStart()
	e.FieldStart("subtotal")
	encodeMoney(e, q.Subtotal)
	e.FieldStart("deliveryFee")
	encodeMoney(e, q.DeliveryFee)
	e.FieldStart("tax")
	encodeMoney(e, q.Tax)
	e.FieldStart("total")
	encodeMoney(e, q.Total)
	e.ObjEnd()
}
