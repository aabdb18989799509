package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Employee is the HR record this backend exists to serve. Field-level checks
// live in the handlers; the model carries whatever the store returned.
type Employee struct {
	ID         uuid.UUID
	FirstName  string
	LastName   string
	Email      string
	Department string
	Position   string
	Salary     decimal.Decimal
	HiredAt    time.Time
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
