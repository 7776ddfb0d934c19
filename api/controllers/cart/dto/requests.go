package cartdto

// AddItemRequest carries the catalog snapshot of the product being added.
type AddItemRequest struct {
	ProductID string `json:"product_id" validate:"required,max=128"`
	Name      string `json:"name" validate:"required,max=256"`
	UnitPrice string `json:"unit_price" validate:"required,amount"`
	ImageRef  string `json:"image_ref" validate:"omitempty,max=2048"`
	Quantity  int    `json:"quantity" validate:"gt=0,max=9999"`
}

// SetQuantityRequest overwrites a line quantity; zero or below removes the line.
type SetQuantityRequest struct {
	Quantity *int `json:"quantity" validate:"required,max=9999"`
}
