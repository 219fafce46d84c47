package models

import "time"

// AddressType classifies a student address.
type AddressType string

// Supported address types.
const (
	AddressTypeHome    AddressType = "HOME"
	AddressTypeMailing AddressType = "MAILING"
	AddressTypeBilling AddressType = "BILLING"
)

// Address is a postal address owned by a student. Addresses are removed
// together with the owning student.
type Address struct {
	ID         string      `db:"id" json:"id"`
	StudentID  string      `db:"student_id" json:"student_id"`
	Type       AddressType `db:"type" json:"type"`
	Street     string      `db:"street" json:"street"`
	City       string      `db:"city" json:"city"`
	Region     *string     `db:"region" json:"region,omitempty"`
	PostalCode string      `db:"postal_code" json:"postal_code"`
	Country    string      `db:"country" json:"country"`
	IsPrimary  bool        `db:"is_primary" json:"is_primary"`
	CreatedAt  time.Time   `db:"created_at" json:"created_at"`
}
