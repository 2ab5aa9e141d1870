package metrics

import "github.com/DukeRupert/drapery/internal/ai"

// LoginAttempt records the outcome of an admin login attempt.
func LoginAttempt(outcome string) {
	AdminLoginsTotal.WithLabelValues(outcome).Inc()
}

// GuardDecision records an access decision for a protected path.
func GuardDecision(decision string) {
	AdminGuardDecisionsTotal.WithLabelValues(decision).Inc()
}

// OrderPlaced records a completed checkout.
func OrderPlaced(totalCents int64) {
	OrdersCreated.Inc()
	if totalCents > 0 {
		OrderValueCentsTotal.Add(float64(totalCents))
	}
}

// OrderStatusChanged records an admin status transition.
func OrderStatusChanged(status string) {
	OrderStatusChanges.WithLabelValues(status).Inc()
}

// AIRequest records a design assistant call and, when present, its usage.
func AIRequest(feature, status string, usage *ai.UsageInfo) {
	AIRequestsTotal.WithLabelValues(feature, status).Inc()
	if usage == nil {
		return
	}
	AITokensTotal.WithLabelValues("input").Add(float64(usage.InputTokens))
	AITokensTotal.WithLabelValues("output").Add(float64(usage.OutputTokens))
	if usage.CostCents > 0 {
		AICostCentsTotal.Add(float64(usage.CostCents))
	}
}
