package entity

import (
	"context"
	"time"

	"retailops/internal/core/apperror"
)

// Document is the base type for numbered business transactions
// (POS orders, purchase orders).
type Document struct {
	BaseEntity

	// Number is the document number, generated per outlet and date
	Number string `db:"number" json:"number"`

	// Date is the business date of the document
	Date time.Time `db:"date" json:"date"`

	// CreatedBy is the user who created the document
	CreatedBy string `db:"created_by" json:"createdBy,omitempty"`

	// Notes is an optional user comment
	Notes string `db:"notes" json:"notes,omitempty"`
}

// NewDocument creates a new Document with generated ID.
func NewDocument(businessID, createdBy string) Document {
	return Document{
		BaseEntity: NewBaseEntity(businessID),
		Date:       time.Now().UTC(),
		CreatedBy:  createdBy,
	}
}

// Validate implements Validatable.
func (d *Document) Validate(ctx context.Context) error {
	if d.BusinessID == "" {
		return apperror.NewValidation("business is required").
			WithDetail("field", "businessId")
	}

	if d.Date.IsZero() {
		return apperror.NewValidation("date is required").
			WithDetail("field", "date")
	}

	return nil
}
