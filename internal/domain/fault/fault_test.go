package fault

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindFollowsWrapping(t *testing.T) {
	errMissing := New(ErrNotFound, "delivery: not found")
	wrapped := fmt.Errorf("delivery: picked: %w", errMissing)

	assert.ErrorIs(t, wrapped, errMissing)
	assert.Equal(t, ErrNotFound, Kind(wrapped))
	assert.Equal(t, "NOT_FOUND", Status(wrapped))
	assert.Equal(t, "delivery: not found", errMissing.Error())
	assert.Equal(t, "delivery: picked: delivery: not found", wrapped.Error())
}

func TestKindDefaultsToInternal(t *testing.T) {
	assert.Equal(t, ErrInternal, Kind(errors.New("boom")))
	assert.Equal(t, "INTERNAL", Status(errors.New("boom")))
	assert.Equal(t, "OK", Status(nil))
	assert.Equal(t, "CONFLICT", Status(New(ErrConflict, "booking: conflict")))
	assert.Equal(t, "INCOMPLETE_ORDER_DATA", Status(New(ErrIncompleteOrderData, "payment: missing")))
	assert.Equal(t, "UNAUTHORIZED", Status(ErrUnauthorized))
}
