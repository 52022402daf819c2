package validation

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/orderflow/pipeline/common/domain"
)

// Sanitize trims strings, lowercases email, uppercases state/country,
// zero-pads expiryMonth to 2 digits, strips spaces from cardNumber, and
// normalizes zipCode to "NNNNN-NNN". Call only after Validate succeeds.
func Sanitize(s *OrderSubmission) (domain.CustomerData, domain.PaymentData, domain.AddressData, []domain.RequestedItem) {
	customer := domain.CustomerData{
		CPF:   digitsOnly(s.CustomerData.CPF),
		Email: strings.ToLower(strings.TrimSpace(s.CustomerData.Email)),
		Name:  strings.TrimSpace(s.CustomerData.Name),
	}

	month, _ := strconv.Atoi(strings.TrimSpace(s.PaymentData.ExpiryMonth))
	payment := domain.PaymentData{
		CardNumber:     strings.ReplaceAll(s.PaymentData.CardNumber, " ", ""),
		CardHolderName: strings.TrimSpace(s.PaymentData.CardHolderName),
		ExpiryMonth:    fmt.Sprintf("%02d", month),
		ExpiryYear:     strings.TrimSpace(s.PaymentData.ExpiryYear),
		CVV:            strings.TrimSpace(s.PaymentData.CVV),
	}

	address := domain.AddressData{
		Street:       strings.TrimSpace(s.AddressData.Street),
		Number:       strings.TrimSpace(s.AddressData.Number),
		Complement:   strings.TrimSpace(s.AddressData.Complement),
		Neighborhood: strings.TrimSpace(s.AddressData.Neighborhood),
		City:         strings.TrimSpace(s.AddressData.City),
		State:        strings.ToUpper(strings.TrimSpace(s.AddressData.State)),
		ZipCode:      normalizeZip(s.AddressData.ZipCode),
		Country:      strings.ToUpper(strings.TrimSpace(s.AddressData.Country)),
	}

	items := make([]domain.RequestedItem, 0, len(s.Items))
	for _, it := range s.Items {
		items = append(items, domain.RequestedItem{ID: strings.TrimSpace(it.ID), Quantity: it.Quantity})
	}

	return customer, payment, address, items
}

// normalizeZip turns "01234567" into "01234-567"; "01234-567" is returned
// unchanged.
func normalizeZip(zip string) string {
	zip = strings.TrimSpace(zip)
	if strings.Contains(zip, "-") {
		return zip
	}
	digits := digitsOnly(zip)
	if len(digits) != 8 {
		return zip
	}
	return digits[:5] + "-" + digits[5:]
}
