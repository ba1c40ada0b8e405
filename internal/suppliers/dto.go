package suppliers

import (
	"github.com/angelmondragon/procurement-backend/pkg/db/models"
)

// CreateInput carries the fields accepted when registering a supplier.
type CreateInput struct {
	RUC          string
	BusinessName string
	TradeName    *string
	Email        *string
	Phone        *string
	Address      *string
	Category     *string
	PaymentTerms *string
	Active       *bool
}

// ListFilters narrows the supplier list.
type ListFilters struct {
	Active   *bool
	Category string
	Query    string
	Limit    int
}

// SupplierDTO is the API representation of a supplier.
type SupplierDTO struct {
	ID           string  `json:"id"`
	RUC          string  `json:"ruc"`
	BusinessName string  `json:"businessName"`
	TradeName    *string `json:"tradeName,omitempty"`
	Email        *string `json:"email,omitempty"`
	Phone        *string `json:"phone,omitempty"`
	Address      *string `json:"address,omitempty"`
	Category     *string `json:"category,omitempty"`
	PaymentTerms *string `json:"paymentTerms,omitempty"`
	Active       bool    `json:"active"`
}

// ImportResult summarizes a CSV import.
type ImportResult struct {
	Charset string   `json:"charset"`
	Created int      `json:"created"`
	Updated int      `json:"updated"`
	Skipped int      `json:"skipped"`
	Errors  []string `json:"errors"`
}

// ToDTO maps a supplier row to its API shape.
func ToDTO(s models.Supplier) SupplierDTO {
	return SupplierDTO{
		ID:           s.ID.String(),
		RUC:          s.RUC,
		BusinessName: s.BusinessName,
		TradeName:    s.TradeName,
		Email:        s.Email,
		Phone:        s.Phone,
		Address:      s.Address,
		Category:     s.Category,
		PaymentTerms: s.PaymentTerms,
		Active:       s.Active,
	}
}
