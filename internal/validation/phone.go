package validation

import (
	"fmt"
	"strings"

	"github.com/nyaruka/phonenumbers"
)

// NormalizePhone разбирает номер с кодом страны и возвращает его в формате E.164.
// Номер без "+" и кода страны не принимается.
func NormalizePhone(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" || !strings.HasPrefix(raw, "+") {
		return "", fmt.Errorf("Valid mobile number with country code is required")
	}

	num, err := phonenumbers.Parse(raw, "")
	if err != nil || !phonenumbers.IsPossibleNumber(num) {
		return "", fmt.Errorf("Valid mobile number with country code is required")
	}

	return phonenumbers.Format(num, phonenumbers.E164), nil
}
