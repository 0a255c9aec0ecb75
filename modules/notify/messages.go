package notify

import (
	"fmt"
	"strings"
)

func SafeQueueURL(chain string, safe string) string {
	return fmt.Sprintf("https://app.safe.global/transactions/queue?safe=%s:%s", chain, safe)
}

type TokenTotal struct {
	Symbol string
	Amount string
}

// RewardsProposed announces a reward payload waiting for signatures.
func RewardsProposed(role string, totals []TokenTotal, queueURL string) string {
	b := strings.Builder{}
	b.WriteString("🎯 Gauge Rewards Proposed\n\n")
	if role != "" {
		fmt.Fprintf(&b, "<@&%s>\n\n", role)
	}
	b.WriteString("**Rewards:**\n")
	for _, t := range totals {
		fmt.Fprintf(&b, "• %s %s\n", t.Amount, t.Symbol)
	}
	fmt.Fprintf(&b, "🔗 [Review & Sign Transactions](<%s>)", queueURL)
	return b.String()
}

// BountiesProposed announces a bounty disperse payload.
func BountiesProposed(role string, totals []TokenTotal, recipients int, queueURL string) string {
	b := strings.Builder{}
	b.WriteString("🎯 Bounty dispersement proposed\n\n")
	if role != "" {
		fmt.Fprintf(&b, "<@&%s>\n\n", role)
	}
	for _, t := range totals {
		fmt.Fprintf(&b, "• %s %s\n", t.Amount, t.Symbol)
	}
	fmt.Fprintf(&b, "to %d voters\n", recipients)
	fmt.Fprintf(&b, "🔗 [Review & Sign Transactions](<%s>)", queueURL)
	return b.String()
}
