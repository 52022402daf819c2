package main

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/orderflow/pipeline/common/domain"
)

func TestDecideOutcomeDeclinedSuffixNeverApproves(t *testing.T) {
	amount := decimal.NewFromInt(50)
	for i := 0; i < 500; i++ {
		result := decideOutcome("4111111111110000", amount)
		if result.Status == domain.PaymentApproved {
			t.Fatalf("card ending in 0000 must never approve, got %+v", result)
		}
	}
}

func TestDecideOutcomeHighTierApprovesLessOftenThanLowTier(t *testing.T) {
	const trials = 4000
	low := decimal.NewFromInt(100)
	high := decimal.NewFromInt(50000)

	var lowApproved, highApproved int
	for i := 0; i < trials; i++ {
		if decideOutcome("4111111111111111", low).Status == domain.PaymentApproved {
			lowApproved++
		}
		if decideOutcome("4111111111111111", high).Status == domain.PaymentApproved {
			highApproved++
		}
	}

	if highApproved >= lowApproved {
		t.Fatalf("expected high-tier approvals (%d) below low-tier approvals (%d) over %d trials", highApproved, lowApproved, trials)
	}
}

func TestGenerateAuthCodeLength(t *testing.T) {
	code := generateAuthCode()
	if len(code) != 8 {
		t.Fatalf("generateAuthCode() = %q, want length 8", code)
	}
}

func TestTransactionIDIsDeterministic(t *testing.T) {
	a := domain.TransactionID("order-123")
	b := domain.TransactionID("order-123")
	if a != b {
		t.Fatalf("TransactionID not deterministic: %q != %q", a, b)
	}
	if a != "txn-order-123" {
		t.Fatalf("TransactionID(%q) = %q", "order-123", a)
	}
}
