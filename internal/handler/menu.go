package handler

import (
	"net/http"

	"github.com/go-faster/jx"

	"github.com/xenking/food-ordering/internal/domain/menu"
)

// ListMenu returns the menu, optionally filtered: GET /api/menu?q=&category=.
// The category list always reflects the full menu.
func (h *Handler) ListMenu(w http.ResponseWriter, r *http.Request) {
	all := h.catalog.List(r.Context())
	items := menu.Filter(all, menu.Query{
		Text:     r.URL.Query().Get("q"),
		Category: r.URL.Query().Get("category"),
	})
	categories := append([]string{menu.CategoryAll}, menu.Categories(all)...)

	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.ObjStart()
		e.FieldStart("items")
		e.ArrStart()
		for _, it := range items {
			encodeMenuItem(e, it)
		}
		e.ArrEnd()
		e.FieldStart("categories")
		e.ArrStart()
		for _, c := range categories {
			e.Str(c)
		}
		e.ArrEnd()
		e.ObjEnd()
	})
}

// GetMenuItem returns one dish: GET /api/menu/{id}.
func (h *Handler) GetMenuItem(w http.ResponseWriter, r *http.Request) {
	it, err := h.catalog.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { encodeMenuItem(e, *it) })
}

func encodeMenuItem(e *jx.Encoder, it menu.Item) {
	e.ObjStart()
	e.FieldStart("id")
	e.Str(it.ID)
	e.FieldStart("name")
	e.Str(it.Name)
	e.FieldStart("description")
	e.Str(it.Description)
	e.FieldStart("price")
	encodeMoney(e, it.Price)
	e.FieldStart("image")
	e.Str(it.Image)
	if it.Category != "" {
		e.FieldStart("category")
		e.Str(it.Category)
	}
	if it.Rating > 0 {
		e.FieldStart("rating")
		e.Float64(it.Rating)
	}
	if it.CookTime != "" {
		e.FieldStart("cookTime")
		e.Str(it.CookTime)
	}
	e.ObjEnd()
}
