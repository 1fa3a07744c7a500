package actions

import (
	"strings"

	"github.com/brennhill/gasoline-page-agent/internal/config"
	"github.com/brennhill/gasoline-page-agent/internal/hostenv"
)

var sensitiveAutocompleteTokens = []string{"password", "cc-", "credit-card"}
var sensitiveNameTokens = []string{"password", "passwd", "secret", "token", "credit", "card", "cvv", "cvc", "ssn"}

// IsSensitiveInput implements the §4.5 sensitivity rules, used by both
// action capture and the reproduction engine's value redaction.
func IsSensitiveInput(el hostenv.Element, limits *config.Limits) bool {
	if el == nil {
		return false
	}
	if typ, ok := el.Attr("type"); ok && limits.SensitiveInputTypes[strings.ToLower(typ)] {
		return true
	}
	if autocomplete, ok := el.Attr("autocomplete"); ok {
		lower := strings.ToLower(autocomplete)
		for _, tok := range sensitiveAutocompleteTokens {
			if strings.Contains(lower, tok) {
				return true
			}
		}
	}
	if name, ok := el.Attr("name"); ok {
		lower := strings.ToLower(name)
		for _, tok := range sensitiveNameTokens {
			if strings.Contains(lower, tok) {
				return true
			}
		}
	}
	return false
}
