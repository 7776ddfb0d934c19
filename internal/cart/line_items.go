package cart

// lineItemStore keeps line items in insertion order with at most one entry per product id.
type lineItemStore struct {
	items []LineItem
	index map[string]int
}

func newLineItemStore() *lineItemStore {
	return &lineItemStore{index: make(map[string]int)}
}

func (s *lineItemStore) find(productID string) (LineItem, bool) {
	pos, ok := s.index[productID]
	if !ok {
		return LineItem{}, false
	}
	return s.items[pos], true
}

// upsert replaces the quantity of an existing line, keeping its product snapshot,
// or appends a new line at the end.
func (s *lineItemStore) upsert(product Product, quantity int) {
	if pos, ok := s.index[product.ID]; ok {
		s.items[pos].Quantity = quantity
		return
	}
	s.index[product.ID] = len(s.items)
	s.items = append(s.items, LineItem{Product: product, Quantity: quantity})
}

func (s *lineItemStore) len() int {
	return len(s.items)
}

func (s *lineItemStore) remove(productID string) bool {
	pos, ok := s.index[productID]
	if !ok {
		return false
	}
	s.items = append(s.items[:pos], s.items[pos+1:]...)
	delete(s.index, productID)
	for i := pos; i < len(s.items); i++ {
		s.index[s.items[i].Product.ID] = i
	}
	return true
}

func (s *lineItemStore) list() []LineItem {
	out := make([]LineItem, len(s.items))
	copy(out, s.items)
	return out
}

func (s *lineItemStore) reset() {
	s.items = nil
	s.index = make(map[string]int)
}
