// Package validation validates and sanitizes an order submission at the
// ingress boundary, per the shapes in the HTTP ingress component design.
package validation

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/orderflow/pipeline/common/domain"
)

var zipRe = regexp.MustCompile(`^\d{5}-?\d{3}$`)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterValidation("zipcode", func(fl validator.FieldLevel) bool {
		return zipRe.MatchString(fl.Field().String())
	})
	return v
}

// OrderSubmission is the ingress request body shape.
type OrderSubmission struct {
	CustomerData CustomerDataIn `json:"customerData" validate:"required"`
	PaymentData  PaymentDataIn  `json:"paymentData" validate:"required"`
	AddressData  AddressDataIn  `json:"addressData" validate:"required"`
	Items        []ItemIn       `json:"items" validate:"required,min=1,dive"`
}

type CustomerDataIn struct {
	CPF   string `json:"cpf" validate:"required"`
	Email string `json:"email" validate:"required,email"`
	Name  string `json:"name" validate:"required"`
}

type PaymentDataIn struct {
	CardNumber     string `json:"cardNumber" validate:"required"`
	CardHolderName string `json:"cardHolderName" validate:"required"`
	ExpiryMonth    string `json:"expiryMonth" validate:"required"`
	ExpiryYear     string `json:"expiryYear" validate:"required"`
	CVV            string `json:"cvv" validate:"required,min=3,max=4,numeric"`
}

type AddressDataIn struct {
	Street       string `json:"street" validate:"required"`
	Number       string `json:"number" validate:"required"`
	Complement   string `json:"complement"`
	Neighborhood string `json:"neighborhood" validate:"required"`
	City         string `json:"city" validate:"required"`
	State        string `json:"state" validate:"required"`
	ZipCode      string `json:"zipCode" validate:"required,zipcode"`
	Country      string `json:"country" validate:"required"`
}

type ItemIn struct {
	ID       string `json:"id" validate:"required"`
	Quantity int    `json:"quantity" validate:"gte=0"`
}

// Validate checks struct-tag shape, then the semantic rules the validator
// package can't express as tags: cpf digit count, card digit count,
// expiry-month range, expiry-year window.
func Validate(s *OrderSubmission) error {
	if err := validate.Struct(s); err != nil {
		return domain.NewValidationError(err.Error())
	}

	cpfDigits := digitsOnly(s.CustomerData.CPF)
	if len(cpfDigits) != 11 {
		return domain.NewValidationError("cpf must have 11 digits")
	}

	cardDigits := digitsOnly(s.PaymentData.CardNumber)
	if len(cardDigits) != 16 {
		return domain.NewValidationError("cardNumber must have 16 digits")
	}

	month, err := strconv.Atoi(strings.TrimSpace(s.PaymentData.ExpiryMonth))
	if err != nil || month < 1 || month > 12 {
		return domain.NewValidationError("expiryMonth must be between 1 and 12")
	}

	year, err := strconv.Atoi(strings.TrimSpace(s.PaymentData.ExpiryYear))
	if err != nil {
		return domain.NewValidationError("expiryYear must be numeric")
	}
	now := time.Now().Year()
	if year < now || year > now+10 {
		return domain.NewValidationError(fmt.Sprintf("expiryYear must be between %d and %d", now, now+10))
	}

	for _, item := range s.Items {
		if item.Quantity < 0 {
			return domain.NewValidationError("item quantity must not be negative")
		}
	}

	return nil
}

func digitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
