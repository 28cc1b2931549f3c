package checkout

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jackc/pgx/v5"
)

func TestWriteErrorStatusMapping(t *testing.T) {
	h := &Handler{}
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"empty cart", ErrEmptyCart, http.StatusUnprocessableEntity},
		{"expired cart", ErrCartExpired, http.StatusUnprocessableEntity},
		{"foreign cart", ErrForeignCart, http.StatusForbidden},
		{"missing cart", pgx.ErrNoRows, http.StatusNotFound},
		{"wrapped sentinel", errors.Join(errors.New("settle promo"), ErrEmptyCart), http.StatusUnprocessableEntity},
		{"other", errors.New("boom"), http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			h.writeError(rr, tc.err)
			if rr.Code != tc.want {
				t.Fatalf("expected %d got %d", tc.want, rr.Code)
			}
		})
	}
}
