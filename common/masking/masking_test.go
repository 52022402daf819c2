package masking

import (
	"testing"

	"github.com/orderflow/pipeline/common/domain"
)

func TestMaskCard(t *testing.T) {
	got := MaskCard(domain.PaymentData{
		CardNumber:     "4111 1111 1111 1111",
		CardHolderName: "Jane Doe",
		ExpiryMonth:    "09",
		ExpiryYear:     "2030",
		CVV:            "123",
	})

	if got.CardLastFour != "1111" {
		t.Fatalf("CardLastFour = %q, want 1111", got.CardLastFour)
	}
	if got.CardNumber != "****-****-****-1111" {
		t.Fatalf("CardNumber = %q, want ****-****-****-1111", got.CardNumber)
	}
	if got.CVV != cvvSentinel {
		t.Fatalf("CVV = %q, want sentinel", got.CVV)
	}
}

func TestMaskCardShortNumber(t *testing.T) {
	got := MaskCard(domain.PaymentData{CardNumber: "42"})
	if got.CardLastFour != "42" {
		t.Fatalf("CardLastFour = %q, want 42", got.CardLastFour)
	}
}

func TestCPF(t *testing.T) {
	if got := CPF("12345678901"); got != "*********01" {
		t.Fatalf("CPF = %q", got)
	}
}

func TestEmail(t *testing.T) {
	if got := Email("jane.doe@example.com"); got != "j***@example.com" {
		t.Fatalf("Email = %q", got)
	}
}
