package kb

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCategorize(t *testing.T) {
	require.Equal(t, "authentication", Categorize("API Keys", "how to get credentials"))
	require.Equal(t, "payment_processing", Categorize("Checkout", "accept a payment"))
	require.Equal(t, "subscription", Categorize("Billing", "recurring invoices"))
	require.Equal(t, "webhook", Categorize("Events", "receive a notification"))
	require.Equal(t, "general", Categorize("Overview", "introduction to the platform"))
}

func TestCategorizeFirstCategoryWins(t *testing.T) {
	// Both auth and refund keywords present: the scan order decides.
	require.Equal(t, "authentication", Categorize("Refund tokens", "cancel and void"))
}

func TestFirstHeading(t *testing.T) {
	require.Equal(t, "Payments", firstHeading([]byte("intro\n# Payments\n## Sub")))
	require.Empty(t, firstHeading([]byte("no heading here")))
}
