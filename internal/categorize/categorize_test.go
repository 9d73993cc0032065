package categorize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/baely/banksync/pkg/model"
)

func TestRuleCategorizer(t *testing.T) {
	c := NewRuleCategorizer()

	tests := []struct {
		name        string
		description string
		merchant    string
		want        string
	}{
		{"coffee shop", "Georgie Boy Espresso", "", "restaurants-and-cafes"},
		{"groceries", "WOOLWORTHS 3128 DOCKLANDS", "", "groceries"},
		{"merchant name matches", "Card payment", "Blue Bottle Coffee", "restaurants-and-cafes"},
		{"transport", "UBER *TRIP", "", "transport"},
		{"subscription", "Spotify P1234", "", "subscriptions"},
		{"income", "ACME PTY LTD SALARY", "", "income"},
		{"no match", "Mystery merchant 42", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := c.Categorize(model.Transaction{
				Description:  tt.description,
				MerchantName: tt.merchant,
			})
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRuleCategorizerCaseInsensitive(t *testing.T) {
	c := NewRuleCategorizer()

	got, err := c.Categorize(model.Transaction{Description: "CHEMIST WAREHOUSE"})
	require.NoError(t, err)
	assert.Equal(t, "health", got)
}
