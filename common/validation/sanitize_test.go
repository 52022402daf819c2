package validation

import "testing"

func TestNormalizeZip(t *testing.T) {
	cases := map[string]string{
		"01234567":  "01234-567",
		"01234-567": "01234-567",
	}
	for in, want := range cases {
		if got := normalizeZip(in); got != want {
			t.Errorf("normalizeZip(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestSanitize(t *testing.T) {
	s := &OrderSubmission{
		CustomerData: CustomerDataIn{CPF: "123.456.789-01", Email: "  Jane@Example.com ", Name: " Jane "},
		PaymentData:  PaymentDataIn{CardNumber: "4111 1111 1111 1111", ExpiryMonth: "9", ExpiryYear: "2030", CVV: "123"},
		AddressData:  AddressDataIn{State: " sp ", Country: " br ", ZipCode: "01234567"},
		Items:        []ItemIn{{ID: "p1", Quantity: 2}},
	}

	customer, payment, address, items := Sanitize(s)

	if customer.CPF != "12345678901" {
		t.Errorf("CPF = %q", customer.CPF)
	}
	if customer.Email != "jane@example.com" {
		t.Errorf("Email = %q", customer.Email)
	}
	if payment.CardNumber != "4111111111111111" {
		t.Errorf("CardNumber = %q", payment.CardNumber)
	}
	if payment.ExpiryMonth != "09" {
		t.Errorf("ExpiryMonth = %q", payment.ExpiryMonth)
	}
	if address.State != "SP" || address.Country != "BR" {
		t.Errorf("State/Country = %q/%q", address.State, address.Country)
	}
	if address.ZipCode != "01234-567" {
		t.Errorf("ZipCode = %q", address.ZipCode)
	}
	if len(items) != 1 || items[0].Quantity != 2 {
		t.Errorf("items = %+v", items)
	}
}
