package order_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vasiliy-maslov/order-portal/internal/catalog"
	"github.com/vasiliy-maslov/order-portal/internal/order"
)

func TestBuildDraft(t *testing.T) {
	now := time.Date(2025, 4, 16, 12, 0, 0, 0, time.FixedZone("NZST", 12*3600))

	tests := []struct {
		name      string
		userID    int64
		items     []order.LineItem
		wantErr   bool
		wantErrIs error
		wantTotal string
	}{
		{
			name:      "empty_items",
			userID:    7,
			items:     nil,
			wantErr:   true,
			wantErrIs: order.ErrEmptyOrder,
		},
		{
			name:      "missing_user",
			userID:    0,
			items:     []order.LineItem{{ProductID: 1, Quantity: 1, UnitPrice: dec("3.00")}},
			wantErr:   true,
			wantErrIs: order.ErrInvalidUser,
		},
		{
			name:      "unknown_product",
			userID:    7,
			items:     []order.LineItem{{ProductID: 99, Quantity: 1, UnitPrice: dec("1.00")}},
			wantErr:   true,
			wantErrIs: order.ErrUnknownProduct,
		},
		{
			name:    "zero_quantity",
			userID:  7,
			items:   []order.LineItem{{ProductID: 1, Quantity: 0, UnitPrice: dec("3.00")}},
			wantErr: true,
		},
		{
			name:    "negative_price",
			userID:  7,
			items:   []order.LineItem{{ProductID: 1, Quantity: 1, UnitPrice: dec("-3.00")}},
			wantErr: true,
		},
		{
			name:   "success",
			userID: 7,
			items: []order.LineItem{
				{ProductID: 1, Quantity: 2, UnitPrice: dec("3.00")},
				{ProductID: 2, Quantity: 1, UnitPrice: dec("4.25")},
			},
			wantTotal: "10.25",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			draft, err := order.BuildDraft(tt.userID, tt.items, newTestCatalog(), now)
			if tt.wantErr {
				assert.Error(t, err)
				assert.Nil(t, draft)
				if tt.wantErrIs != nil {
					assert.True(t, errors.Is(err, tt.wantErrIs))
				}
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.userID, draft.UserID)
			assert.Equal(t, order.StatusPending, draft.Status)
			assert.Equal(t, tt.wantTotal, draft.TotalAmount.StringFixed(2))
			assert.Equal(t, time.UTC, draft.OrderDate.Location())
			assert.True(t, now.Equal(draft.OrderDate))
			assert.Len(t, draft.Items, len(tt.items))
		})
	}
}

func TestBuildDraft_TotalMatchesCart(t *testing.T) {
	cat := newTestCatalog()
	cart := order.NewCart()
	cart.Upsert(cat, 1, 3)
	cart.Upsert(cat, 3, 11)

	draft, err := order.BuildDraft(1, cart.Items(), cat, time.Now())
	require.NoError(t, err)

	assert.True(t, cart.Total().Equal(draft.TotalAmount))
}

func TestBuildDraft_UsesCapturedPrice(t *testing.T) {
	cart := order.NewCart()
	cart.Upsert(newTestCatalog(), 1, 2)

	repriced := catalog.New([]catalog.Product{{ID: 1, Name: "Ava", Price: dec("100")}})
	draft, err := order.BuildDraft(1, cart.Items(), repriced, time.Now())
	require.NoError(t, err)

	assert.Equal(t, "3.00", draft.Items[0].UnitPrice.StringFixed(2))
	assert.Equal(t, "6.00", draft.TotalAmount.StringFixed(2))
}

func TestList_PrependAndRemove(t *testing.T) {
	list := order.List{{ID: 1}, {ID: 2}}

	list = list.Prepend(order.Order{ID: 3})
	require.Len(t, list, 3)
	assert.Equal(t, int64(3), list[0].ID)

	list, removed := list.Remove(1)
	assert.True(t, removed)
	assert.Len(t, list, 2)

	_, removed = list.Remove(1)
	assert.False(t, removed)

	o, ok := list.Find(2)
	assert.True(t, ok)
	assert.Equal(t, int64(2), o.ID)
}
