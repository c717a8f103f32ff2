package order

import (
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
)

var (
	ErrEmptyOrder     = errors.New("you must select at least one product")
	ErrUnknownProduct = errors.New("order references a product that is not in the catalog")
	ErrInvalidUser    = errors.New("order must belong to a user")
)

// BuildDraft turns selected line items into a submittable draft. Unit prices
// are taken from the items as captured and are never looked up again; prices
// is only used to reject references the catalog cannot resolve.
func BuildDraft(userID int64, items []LineItem, prices PriceLookup, now time.Time) (*Draft, error) {
	if userID <= 0 {
		return nil, ErrInvalidUser
	}

	if len(items) == 0 {
		log.Warn().Int64("user_id", userID).Msg("order: attempt to build draft with no items")
		return nil, ErrEmptyOrder
	}

	draftItems := make([]LineItem, 0, len(items))
	for _, item := range items {
		if item.Quantity <= 0 {
			return nil, fmt.Errorf("order: quantity for product %d must be greater than zero", item.ProductID)
		}

		if item.UnitPrice.IsNegative() {
			return nil, fmt.Errorf("order: unit price for product %d cannot be negative", item.ProductID)
		}

		if prices != nil {
			if _, ok := prices.Lookup(item.ProductID); !ok {
				return nil, fmt.Errorf("%w: product %d", ErrUnknownProduct, item.ProductID)
			}
		}

		draftItems = append(draftItems, item)
	}

	return &Draft{
		UserID:      userID,
		OrderDate:   now.UTC(),
		Status:      StatusPending,
		TotalAmount: Total(draftItems),
		Items:       draftItems,
	}, nil
}
