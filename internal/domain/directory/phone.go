package directory

import (
	"strings"

	"github.com/orgdir/backend/internal/domain/shared"
)

const maxPhoneLength = 50

// Phone is a unique phone number shared between organizations.
type Phone struct {
	ID     int64
	Number string
}

// NormalizePhoneNumber trims the number and checks it is storable.
func NormalizePhoneNumber(number string) (string, error) {
	n := strings.TrimSpace(number)
	if n == "" {
		return "", shared.NewDomainError("INVALID_PHONE", "Phone number cannot be empty")
	}
	if len(n) > maxPhoneLength {
		return "", shared.NewDomainError("INVALID_PHONE", "Phone number cannot exceed 50 characters")
	}
	return n, nil
}

// NormalizePhoneNumbers normalizes a list of numbers, dropping duplicates
// while keeping the first occurrence order.
func NormalizePhoneNumbers(numbers []string) ([]string, error) {
	out := make([]string, 0, len(numbers))
	seen := make(map[string]struct{}, len(numbers))
	for _, raw := range numbers {
		n, err := NormalizePhoneNumber(raw)
		if err != nil {
			return nil, err
		}
		if _, dup := seen[n]; dup {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out, nil
}
