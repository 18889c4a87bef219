package security

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	emailRe      = regexp.MustCompile(`[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}`)
	creditCardRe = regexp.MustCompile(`\b\d(?:[ \-]?\d){12,18}\b`)
	phoneRe      = regexp.MustCompile(`\+?\d[\d \-().]{7,}\d`)
	secretRe     = regexp.MustCompile(`(?i)\b(password|passcode|pin|api[_ ]?key|token|secret)\b(\s*(is|:|=)\s*)\S+`)
)

// DataMasker redacts personal data from free text before it is logged.
type DataMasker struct{}

func NewDataMasker() *DataMasker {
	return &DataMasker{}
}

// MaskText replaces emails, card numbers, phone numbers and inline secrets.
// Card numbers are matched before phone numbers since both are digit runs.
func (m *DataMasker) MaskText(text string) string {
	text = secretRe.ReplaceAllString(text, "$1$2***")
	text = emailRe.ReplaceAllStringFunc(text, maskEmail)
	text = creditCardRe.ReplaceAllStringFunc(text, func(s string) string {
		if countDigits(s) < 13 {
			return s
		}
		return maskCreditCard(s)
	})
	text = phoneRe.ReplaceAllStringFunc(text, maskPhone)
	return text
}

// Preview returns a masked prefix of at most n characters.
func (m *DataMasker) Preview(text string, n int) string {
	masked := []rune(m.MaskText(text))
	if len(masked) <= n {
		return string(masked)
	}
	return string(masked[:n]) + "..."
}

// maskEmail: "john.doe@example.com" → "jo***@***.com"
func maskEmail(email string) string {
	parts := strings.Split(email, "@")
	if len(parts) != 2 {
		return "***"
	}
	local := parts[0]
	domain := parts[1]

	visible := 2
	if len(local) < visible {
		visible = len(local)
	}
	maskedLocal := local[:visible] + "***"

	domainParts := strings.Split(domain, ".")
	ext := domainParts[len(domainParts)-1]
	return fmt.Sprintf("%s@***.%s", maskedLocal, ext)
}

// maskPhone: any phone → "***-***-1234" (show last 4)
func maskPhone(phone string) string {
	digits := onlyDigits(phone)
	if len(digits) < 4 {
		return "***-***-****"
	}
	return "***-***-" + digits[len(digits)-4:]
}

// maskCreditCard: "4111111111111111" → "****-****-****-1111"
func maskCreditCard(cc string) string {
	digits := onlyDigits(cc)
	if len(digits) < 4 {
		return "****-****-****-****"
	}
	return "****-****-****-" + digits[len(digits)-4:]
}

func onlyDigits(s string) string {
	var b strings.Builder
	for _, c := range s {
		if c >= '0' && c <= '9' {
			b.WriteRune(c)
		}
	}
	return b.String()
}

func countDigits(s string) int {
	return len(onlyDigits(s))
}
