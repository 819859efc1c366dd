package http

import (
	"errors"
	"net/http"
	"testing"

	"github.com/DRSN-tech/shop-backend/pkg/e"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePriceToCents(t *testing.T) {
	cases := []struct {
		in   string
		want int64
	}{
		{"599.99", 59999},
		{"600", 60000},
		{"0", 0},
		{"0.5", 50},
		{"1500.00", 150000},
	}

	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			got, err := parsePriceToCents(tc.in)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestParsePriceToCents_Invalid(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want error
	}{
		{"empty", "", e.ErrInvalidPrice},
		{"blank", "   ", e.ErrInvalidPrice},
		{"garbage", "abc", e.ErrInvalidPrice},
		{"negative", "-1.00", e.ErrInvalidPrice},
		{"too large", "1000000001", e.ErrInvalidPrice},
		{"three decimals", "1.999", e.ErrPricePrecision},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := parsePriceToCents(tc.in)
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestFormatCents(t *testing.T) {
	assert.Equal(t, "599.99", formatCents(59999))
	assert.Equal(t, "600.00", formatCents(60000))
	assert.Equal(t, "0.00", formatCents(0))
	assert.Equal(t, "0.05", formatCents(5))
}

func TestToHTTPResponse(t *testing.T) {
	cases := []struct {
		name string
		err  error
		code int
	}{
		{"empty cart", e.Wrap("CheckoutUseCase.Checkout", e.ErrEmptyCart), http.StatusBadRequest},
		{"invalid quantity", e.ErrInvalidQuantity, http.StatusBadRequest},
		{"email taken", e.ErrEmailTaken, http.StatusForbidden},
		{"user not found", e.Wrap("op", e.ErrUserNotFound), http.StatusNotFound},
		{"product not found", e.ErrProductNotFound, http.StatusNotFound},
		{"order not found", e.ErrOrderNotFound, http.StatusNotFound},
		{"cart conflict", e.ErrCartConflict, http.StatusConflict},
		{"product referenced", e.ErrProductReferenced, http.StatusConflict},
		{"unknown", errors.New("pg down"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			code, _ := ToHTTPResponse(tc.err)
			assert.Equal(t, tc.code, code)
		})
	}
}

func TestToHTTPResponse_InsufficientStockDetail(t *testing.T) {
	err := e.Wrap("op", e.NewInsufficientStockError(7, 5, 2))

	code, msg := ToHTTPResponse(err)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Contains(t, msg, "7")
}

func TestToHTTPResponse_InternalHidesDetails(t *testing.T) {
	_, msg := ToHTTPResponse(errors.New("pq: relation orders does not exist"))
	assert.NotContains(t, msg, "orders")
}
