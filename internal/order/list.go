package order

// List is the order history shown to a user, newest first. Orders are only
// ever prepended or removed whole.
type List []Order

// Prepend returns a new list with o in front.
func (l List) Prepend(o Order) List {
	out := make(List, 0, len(l)+1)
	out = append(out, o)
	return append(out, l...)
}

// Remove returns a new list without orderID and whether it was present.
func (l List) Remove(orderID int64) (List, bool) {
	out := make(List, 0, len(l))
	removed := false
	for _, o := range l {
		if o.ID == orderID {
			removed = true
			continue
		}
		out = append(out, o)
	}
	return out, removed
}

func (l List) Find(orderID int64) (Order, bool) {
	for _, o := range l {
		if o.ID == orderID {
			return o, true
		}
	}
	return Order{}, false
}
