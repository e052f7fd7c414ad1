package command

// Cart Commands
type AddToCart struct {
	SessionID string `json:"-"`
	ProductID int    `json:"productId"`
	Quantity  int    `json:"quantity"`
}

// ChangeQuantity carries the target quantity for increase and decrease.
// A nil Quantity means one step from the stored quantity.
type ChangeQuantity struct {
	SessionID string `json:"-"`
	ProductID int    `json:"-"`
	Quantity  *int   `json:"quantity,omitempty"`
}

type RemoveFromCart struct {
	SessionID string `json:"-"`
	ProductID int    `json:"-"`
}

type ClearCart struct {
	SessionID string `json:"-"`
}

// Product Form Commands
type SelectOperation struct {
	SessionID string `json:"-"`
	Operation string `json:"operation"`
}

type SetProductID struct {
	SessionID string `json:"-"`
	ProductID string `json:"productId"`
}

type UpdateFields struct {
	SessionID string
	Fields    map[string]string
}

type SubmitProduct struct {
	SessionID string `json:"-"`
}

type DismissAlert struct {
	SessionID string `json:"-"`
}
