package handler

import (
	"net/http"

	"github.com/go-faster/jx"

	"github.com/xenking/food-ordering/internal/domain/auth"
)

// SignUp registers a customer: POST /api/auth/signup.
func (h *Handler) SignUp(w http.ResponseWriter, r *http.Request) {
	var req auth.SignUpRequest
	err := decodeObject(r, func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "email":
			req.Email, err = d.Str()
		case "password":
			req.Password, err = d.Str()
		case "displayName":
			req.DisplayName, err = d.Str()
		default:
			err = d.Skip()
		}
		return err
	})
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	u, tok, err := h.users.SignUp(r.Context(), req)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, func(e *jx.Encoder) { encodeSession(e, u, tok) })
}

// SignIn issues a token for valid credentials: POST /api/auth/signin.
func (h *Handler) SignIn(w http.ResponseWriter, r *http.Request) {
	var email, password string
	err := decodeObject(r, func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "email":
			email, err = d.Str()
		case "password":
			password, err = d.Str()
		default:
			err = d.Skip()
		}
		return err
	})
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	u, tok, err := h.users.SignIn(r.Context(), email, password)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { encodeSession(e, u, tok) })
}

// SignOut discards the caller's cart: POST /api/auth/signout. Tokens are
// stateless and stay valid until they expire.
func (h *Handler) SignOut(w http.ResponseWriter, _ *http.Request, id auth.Identity) {
	h.sessions.Drop(id.UserID)
	w.WriteHeader(http.StatusNoContent)
}

// Profile returns the caller's account: GET /api/profile.
func (h *Handler) Profile(w http.ResponseWriter, r *http.Request, id auth.Identity) {
	u, err := h.users.Profile(r.Context(), id.UserID)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { encodeUser(e, u) })
}

func encodeSession(e *jx.Encoder, u *auth.User, tok *auth.Token) {
	e.ObjStart()
	e.FieldStart("token")
	e.Str(tok.AccessToken)
	e.FieldStart("expiresAt")
	encodeTime(e, tok.ExpiresAt)
	e.FieldStart("user")
	encodeUser(e, u)
	e.ObjEnd()
}

func encodeUser(e *jx.Encoder, u *auth.User) {
	e.ObjStart()
	e.FieldStart("id")
	e.Str(u.ID)
	e.FieldStart("email")
	e.Str(u.Email)
	e.FieldStart("displayName")
	e.Str(u.DisplayName)
	e.FieldStart("createdAt")
	encodeTime(e, u.CreatedAt)
	e.ObjEnd()
}
