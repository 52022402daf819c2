package main

import (
	"math/rand"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/orderflow/pipeline/common/domain"
)

const (
	baseDelay = 200 * time.Millisecond
	maxJitter = 500 * time.Millisecond
	pFail     = 0.03

	tierHighValue   = 10000
	tierMediumValue = 1000

	approvalHigh   = 0.75
	approvalMedium = 0.85
	approvalLow    = 0.95

	declinedSuffix = "0000"
)

var gatewayErrorMessages = []string{
	"timeout",
	"service unavailable",
	"merchant config",
	"network",
}

// gatewayResult is the outcome of one simulated gateway call.
type gatewayResult struct {
	Status         domain.PaymentStatus
	AuthCode       string
	Message        string
	ProcessingTime time.Duration
}

// simulateGateway stands in for a real payment processor: a random jitter
// models network latency, a fixed failure probability models gateway
// flakiness, and approval odds scale down as the order total climbs into
// higher tiers. A cardNumber ending in "0000" is a hard override that
// always declines, used by callers to exercise the decline path on demand.
func simulateGateway(cardNumber string, amount decimal.Decimal) gatewayResult {
	delay := baseDelay + time.Duration(rand.Int63n(int64(maxJitter)))
	time.Sleep(delay)
	result := decideOutcome(cardNumber, amount)
	result.ProcessingTime = delay
	return result
}

// decideOutcome holds the approval decision logic with no artificial delay,
// so it can be exercised directly without paying the simulated latency.
func decideOutcome(cardNumber string, amount decimal.Decimal) gatewayResult {
	if rand.Float64() < pFail {
		return gatewayResult{
			Status:  domain.PaymentError,
			Message: gatewayErrorMessages[rand.Intn(len(gatewayErrorMessages))],
		}
	}

	if strings.HasSuffix(cardNumber, declinedSuffix) {
		return gatewayResult{Status: domain.PaymentDeclined, Message: "card declined by issuer"}
	}

	approval := approvalLow
	switch {
	case amount.GreaterThanOrEqual(decimal.NewFromInt(tierHighValue)):
		approval = approvalHigh
	case amount.GreaterThanOrEqual(decimal.NewFromInt(tierMediumValue)):
		approval = approvalMedium
	}

	if rand.Float64() < approval {
		return gatewayResult{Status: domain.PaymentApproved, AuthCode: generateAuthCode()}
	}
	return gatewayResult{Status: domain.PaymentDeclined, Message: "card declined by issuer"}
}

func generateAuthCode() string {
	return strings.ToUpper(uuid.New().String()[:8])
}
