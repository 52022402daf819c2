package domain

import "testing"

func TestAllowedTransitionsTerminalStatesHaveNoExits(t *testing.T) {
	for _, status := range []OrderStatus{OrderProcessed, OrderCancelled} {
		if len(AllowedTransitions[status]) != 0 {
			t.Fatalf("%s should be terminal, got transitions %v", status, AllowedTransitions[status])
		}
	}
}

func TestAllowedTransitionsFromPending(t *testing.T) {
	allowed := AllowedTransitions[OrderPending]
	if !allowed[OrderProcessed] {
		t.Fatal("PENDING must be allowed to move to PROCESSED")
	}
	if !allowed[OrderCancelled] {
		t.Fatal("PENDING must be allowed to move to CANCELLED")
	}
	if allowed[OrderPending] {
		t.Fatal("PENDING must not transition to itself")
	}
}

func TestTransactionIDDeterministic(t *testing.T) {
	if got := TransactionID("abc-1"); got != "txn-abc-1" {
		t.Fatalf("TransactionID(%q) = %q", "abc-1", got)
	}
}
