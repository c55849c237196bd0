package categorization

import (
	"regexp"
	"strings"
)

var (
	noiseWords    = regexp.MustCompile(`\b(PURCHASE|RECURRING|INTERNATIONAL|AUTHORIZED|PAYMENT)\b`)
	onDate        = regexp.MustCompile(`\bON\s+\d{2}/\d{2}\b`)
	cardNumber    = regexp.MustCompile(`\bCARD\s*\d+\b`)
	longDigitRun  = regexp.MustCompile(`\d{6,}`)
	whitespaceRun = regexp.MustCompile(`\s+`)

	slashDate    = regexp.MustCompile(`\b\d{1,2}/\d{1,2}(?:/\d{2,4})?\b`)
	punctuation  = regexp.MustCompile(`[^\w\s]`)
	digits       = regexp.MustCompile(`\d+`)
	bankingWords = regexp.MustCompile(`\b(POS|DEBIT|CHECKCARD|PURCHASE|RECURRING|INTERNATIONAL|AUTHORIZED|PAYMENT|TRANSACTION|VISA|MASTERCARD|ONLINE|WWW|COM|INC|LLC|CO)\b`)
	trailingUS   = regexp.MustCompile(`\s(AL|AK|AZ|AR|CA|CO|CT|DE|DC|FL|GA|HI|ID|IL|IN|IA|KS|KY|LA|ME|MD|MA|MI|MN|MS|MO|MT|NE|NV|NH|NJ|NM|NY|NC|ND|OH|OK|OR|PA|RI|SC|SD|TN|TX|UT|VT|VA|WA|WV|WI|WY)$`)
)

// Preclean removes processor noise ahead of override matching and model
// inference.
func Preclean(desc string) string {
	if desc == "" {
		return ""
	}
	t := strings.ToUpper(desc)
	t = noiseWords.ReplaceAllString(t, " ")
	t = onDate.ReplaceAllString(t, " ")
	t = cardNumber.ReplaceAllString(t, " ")
	t = longDigitRun.ReplaceAllString(t, " ")
	t = whitespaceRun.ReplaceAllString(t, " ")
	return strings.TrimSpace(t)
}

// AggressiveClean reduces a description to merchant words for keyword
// matching: no punctuation, digits, banking boilerplate or trailing state code.
func AggressiveClean(desc string) string {
	t := strings.ToUpper(strings.TrimSpace(desc))
	t = cardNumber.ReplaceAllString(t, " ")
	t = slashDate.ReplaceAllString(t, " ")
	t = punctuation.ReplaceAllString(t, "")
	t = digits.ReplaceAllString(t, "")
	t = bankingWords.ReplaceAllString(t, " ")
	t = whitespaceRun.ReplaceAllString(t, " ")
	t = strings.TrimSpace(t)
	if strings.Contains(t, " ") {
		t = trailingUS.ReplaceAllString(t, "")
	}
	return collapseRepeats(t)
}

// collapseRepeats drops a token identical to the one before it.
func collapseRepeats(s string) string {
	fields := strings.Fields(s)
	out := make([]string, 0, len(fields))
	for i, f := range fields {
		if i > 0 && f == fields[i-1] {
			continue
		}
		out = append(out, f)
	}
	return strings.Join(out, " ")
}
