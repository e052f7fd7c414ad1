package product

import "time"

const (
	AggregateType = "Product"

	EventProductSubmitted = "ProductSubmitted"
)

// ProductSubmitted records the outcome of one admin form submission, successful or not.
type ProductSubmitted struct {
	FormID        string    `json:"form_id"`
	Operation     Operation `json:"operation"`
	ProductID     string    `json:"product_id,omitempty"`
	Title         string    `json:"title,omitempty"`
	UpdatedFields []string  `json:"updated_fields,omitempty"`
	OK            bool      `json:"ok"`
	SubmittedAt   time.Time `json:"submitted_at"`
}
