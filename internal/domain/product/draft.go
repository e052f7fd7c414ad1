package product

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/example/storefront/internal/catalog"
	"github.com/shopspring/decimal"
)

var (
	ErrUnknownField  = errors.New("unknown form field")
	ErrInvalidNumber = errors.New("invalid number")
)

// Field names accepted by SetField. They match the remote product schema.
const (
	FieldTitle       = "title"
	FieldDescription = "description"
	FieldCategory    = "category"
	FieldPrice       = "price"
	FieldStock       = "stock"
	FieldTags        = "tags"
	FieldBrand       = "brand"
	FieldSKU         = "sku"
	FieldImages      = "images"
)

// Draft is the editable product record. Its JSON form is the request body for add and update.
type Draft struct {
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Category    string          `json:"category"`
	Price       decimal.Decimal `json:"price"`
	Stock       int             `json:"stock"`
	Tags        []string        `json:"tags"`
	Brand       string          `json:"brand"`
	SKU         string          `json:"sku"`
	Images      []string        `json:"images"`
}

// EmptyDraft is the draft a form starts with and returns to after a successful submit.
func EmptyDraft() Draft {
	return Draft{Tags: []string{}, Images: []string{}}
}

// DraftFromProduct copies a fetched remote record into a draft, replacing every field.
func DraftFromProduct(p *catalog.Product) Draft {
	d := Draft{
		Title:       p.Title,
		Description: p.Description,
		Category:    p.Category,
		Price:       p.Price,
		Stock:       p.Stock,
		Tags:        append([]string{}, p.Tags...),
		Brand:       p.Brand,
		SKU:         p.SKU,
		Images:      append([]string{}, p.Images...),
	}
	return d
}

func (d Draft) clone() Draft {
	d.Tags = append([]string{}, d.Tags...)
	d.Images = append([]string{}, d.Images...)
	return d
}

// set applies one raw field value. The draft is unchanged when an error is returned.
func (d *Draft) set(name, value string) error {
	switch name {
	case FieldTitle:
		d.Title = value
	case FieldDescription:
		d.Description = value
	case FieldCategory:
		d.Category = value
	case FieldBrand:
		d.Brand = value
	case FieldSKU:
		d.SKU = value
	case FieldPrice:
		price, err := parsePrice(value)
		if err != nil {
			return err
		}
		d.Price = price
	case FieldStock:
		stock, err := parseStock(value)
		if err != nil {
			return err
		}
		d.Stock = stock
	case FieldTags:
		d.Tags = splitList(value)
	case FieldImages:
		d.Images = splitList(value)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownField, name)
	}
	return nil
}

func parsePrice(value string) (decimal.Decimal, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return decimal.Zero, nil
	}
	price, err := decimal.NewFromString(value)
	if err != nil || price.IsNegative() {
		return decimal.Zero, fmt.Errorf("%w: price %q", ErrInvalidNumber, value)
	}
	return price, nil
}

func parseStock(value string) (int, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, nil
	}
	stock, err := strconv.Atoi(value)
	if err != nil || stock < 0 {
		return 0, fmt.Errorf("%w: stock %q", ErrInvalidNumber, value)
	}
	return stock, nil
}

// splitList splits a comma-separated input and trims each entry. Empty input is an empty list.
func splitList(value string) []string {
	if strings.TrimSpace(value) == "" {
		return []string{}
	}
	parts := strings.Split(value, ",")
	for i, p := range parts {
		parts[i] = strings.TrimSpace(p)
	}
	return parts
}
