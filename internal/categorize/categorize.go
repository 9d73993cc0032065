// Package categorize assigns spending categories to incoming transactions
package categorize

import (
	"strings"

	"github.com/baely/banksync/pkg/model"
)

// Uncategorized is the placeholder category applied when no rule matches or
// categorization fails. Sync never fails on a categorization error.
const Uncategorized = "uncategorized"

// Categorizer assigns a category to a transaction. An empty category with a
// nil error means no opinion.
type Categorizer interface {
	Categorize(tx model.Transaction) (string, error)
}

type rule struct {
	keywords []string
	category string
}

// RuleCategorizer matches transaction descriptions and merchant names
// against an ordered keyword list. First match wins.
type RuleCategorizer struct {
	rules []rule
}

// NewRuleCategorizer creates a categorizer with the default rule set
func NewRuleCategorizer() *RuleCategorizer {
	return &RuleCategorizer{
		rules: []rule{
			{[]string{"cafe", "coffee", "espresso"}, "restaurants-and-cafes"},
			{[]string{"restaurant", "pizza", "burger", "sushi"}, "restaurants-and-cafes"},
			{[]string{"woolworths", "coles", "aldi", "grocery"}, "groceries"},
			{[]string{"uber", "lyft", "taxi", "myki", "opal"}, "transport"},
			{[]string{"netflix", "spotify", "youtube"}, "subscriptions"},
			{[]string{"chemist", "pharmacy", "medical"}, "health"},
			{[]string{"rent", "mortgage"}, "housing"},
			{[]string{"salary", "payroll"}, "income"},
		},
	}
}

// Categorize returns the first matching rule's category
func (c *RuleCategorizer) Categorize(tx model.Transaction) (string, error) {
	haystack := strings.ToLower(tx.Description + " " + tx.MerchantName)

	for _, r := range c.rules {
		for _, kw := range r.keywords {
			if strings.Contains(haystack, kw) {
				return r.category, nil
			}
		}
	}

	return "", nil
}
