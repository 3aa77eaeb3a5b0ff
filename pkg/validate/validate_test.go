package validate

import (
	"testing"

	"github.com/go-faster/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type address struct {
	Line string  `json:"address" validate:"required"`
	Lat  float64 `json:"latitude" validate:"latitude"`
}

type request struct {
	Email   string  `json:"email" validate:"required,email"`
	Secret  string  `json:"password" validate:"min=6"`
	Method  string  `json:"paymentMethod" validate:"oneof=upi card cod"`
	Address address `json:"deliveryAddress"`
}

func TestStruct_Valid(t *testing.T) {
	err := Struct(request{
		Email:   "a@b.co",
		Secret:  "secret",
		Method:  "cod",
		Address: address{Line: "123 Main Street", Lat: 28.6},
	})
	require.NoError(t, err)
}

func TestStruct_Invalid(t *testing.T) {
	err := Struct(request{
		Email:   "not-an-email",
		Secret:  "abc",
		Method:  "cash",
		Address: address{Lat: 123},
	})

	var vErr *Error
	require.True(t, errors.As(err, &vErr))
	assert.Equal(t, map[string]string{
		"email":                    "must be a valid email",
		"password":                 "must be at least 6",
		"paymentMethod":            "must be one of [upi card cod]",
		"deliveryAddress.address":  "is required",
		"deliveryAddress.latitude": "must be a valid latitude",
	}, vErr.Fields)
	assert.Contains(t, err.Error(), "email must be a valid email")
}
