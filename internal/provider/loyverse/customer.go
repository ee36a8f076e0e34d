package loyverse

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// Customer is one loyalty-program customer as observed in a single fetch.
//
// Canonical field names follow the current Loyverse schema (name,
// total_points). Older revisions of the API sent display_name and
// loyalty_points; those are mapped onto the canonical fields only when the
// canonical field is absent from the record.
type Customer struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Points      decimal.Decimal `json:"total_points"`
	Email       string          `json:"email,omitempty"`
	PhoneNumber string          `json:"phone_number,omitempty"`
	TotalSpent  decimal.Decimal `json:"total_spent"`
}

// wireCustomer is the union of the canonical and legacy schemas.
type wireCustomer struct {
	ID          string               `json:"id"`
	Name        *string              `json:"name"`
	DisplayName *string              `json:"display_name"`
	TotalPoints *decimal.NullDecimal `json:"total_points"`
	LoyaltyPts  *decimal.NullDecimal `json:"loyalty_points"`
	Email       *string              `json:"email"`
	PhoneNumber *string              `json:"phone_number"`
	TotalSpent  decimal.NullDecimal  `json:"total_spent"`
}

// UnmarshalJSON decodes a customer record, applying the legacy field mapping.
func (c *Customer) UnmarshalJSON(data []byte) error {
	var w wireCustomer
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}

	*c = Customer{
		ID:          w.ID,
		Name:        firstString(w.Name, w.DisplayName),
		Points:      firstDecimal(w.TotalPoints, w.LoyaltyPts),
		Email:       deref(w.Email),
		PhoneNumber: deref(w.PhoneNumber),
	}
	if w.TotalSpent.Valid {
		c.TotalSpent = w.TotalSpent.Decimal
	}
	return nil
}

func firstString(vals ...*string) string {
	for _, v := range vals {
		if v != nil {
			return *v
		}
	}
	return ""
}

func firstDecimal(vals ...*decimal.NullDecimal) decimal.Decimal {
	for _, v := range vals {
		if v != nil && v.Valid {
			return v.Decimal
		}
	}
	return decimal.Zero
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
