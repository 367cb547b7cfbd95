package rfq

import (
	"errors"
	"time"
)

type Status string

const (
	StatusNew       Status = "new"
	StatusReviewing Status = "reviewing"
	StatusQuoted    Status = "quoted"
	StatusClosed    Status = "closed"
	StatusWon       Status = "won"
	StatusLost      Status = "lost"
)

func (s Status) Valid() bool {
	switch s {
	case StatusNew, StatusReviewing, StatusQuoted, StatusClosed, StatusWon, StatusLost:
		return true
	}
	return false
}

// Request is a customer's request for quote.
type Request struct {
	ID              string     `db:"id" json:"id"`
	Name            string     `db:"name" json:"name"`
	Email           string     `db:"email" json:"email"`
	Phone           string     `db:"phone" json:"phone"`
	Company         string     `db:"company" json:"company"`
	Requirements    string     `db:"requirements" json:"requirements"`
	AdditionalInfo  string     `db:"additional_info" json:"additional_info"`
	ProductCategory string     `db:"product_category" json:"product_category"`
	Quantity        string     `db:"quantity" json:"quantity"`
	Budget          string     `db:"budget" json:"budget"`
	Timeline        string     `db:"timeline" json:"timeline"`
	Status          Status     `db:"status" json:"status"`
	Notes           string     `db:"notes" json:"notes"`
	CreatedAt       time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt       *time.Time `db:"updated_at" json:"updated_at,omitempty"`
}

type SubmitInput struct {
	Name            string
	Email           string
	Phone           string
	Company         string
	Requirements    string
	AdditionalInfo  string
	ProductCategory string
	Quantity        string
	Budget          string
	Timeline        string
}

type ListFilter struct {
	Status Status
	Limit  int
	Skip   int
}

var ErrNotFound = errors.New("RFQ not found")

type ValidationError struct {
	Message string
}

func (e ValidationError) Error() string {
	return e.Message
}
