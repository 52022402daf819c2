// Package masking redacts sensitive fields before they are logged or
// persisted: card PAN, CVV, and CPF. Nothing downstream of MaskCard can
// reconstruct a full card number.
package masking

import (
	"strings"

	"github.com/orderflow/pipeline/common/domain"
)

const cvvSentinel = "***"

// MaskCard reduces a PAN to its last four digits and replaces the CVV with
// a fixed sentinel. Called before a Transaction is ever constructed —
// masking happens at the boundary, not as a display-time transform.
func MaskCard(p domain.PaymentData) domain.MaskedCardData {
	digits := strings.ReplaceAll(p.CardNumber, " ", "")
	last4 := digits
	if len(digits) > 4 {
		last4 = digits[len(digits)-4:]
	}
	return domain.MaskedCardData{
		CardNumber:     MaskedPAN(last4),
		CardLastFour:   last4,
		CardHolderName: p.CardHolderName,
		ExpiryMonth:    p.ExpiryMonth,
		ExpiryYear:     p.ExpiryYear,
		CVV:            cvvSentinel,
	}
}

// MaskedPAN renders a PAN in "****-****-****-1111" display form from the
// already-masked last four digits.
func MaskedPAN(lastFour string) string {
	return "****-****-****-" + lastFour
}

// CPF masks a normalized 11-digit CPF, keeping only the last two digits.
func CPF(cpf string) string {
	if len(cpf) <= 2 {
		return strings.Repeat("*", len(cpf))
	}
	return strings.Repeat("*", len(cpf)-2) + cpf[len(cpf)-2:]
}

// Email masks a normalized email's local part, keeping the first
// character and the domain: "j***@example.com".
func Email(email string) string {
	at := strings.IndexByte(email, '@')
	if at <= 0 {
		return "***"
	}
	return email[:1] + "***" + email[at:]
}
