package pipeline

import (
	"regexp"
	"strings"

	"github.com/araddon/dateparse"

	"github.com/jay270804/medical-claim-processing-server/internal/extraction"
)

var mainAmountIndicators = []string{
	"net payable",
	"total payable",
	"amount payable",
	"final amount",
	"grand total",
	"net amount",
	"e. & o.e. net payable",
	"balance due",
	"amount due",
}

var (
	firstNumber   = regexp.MustCompile(`\d+(\.\d+)?`)
	digitGrouping = regexp.MustCompile(`(\d),(\d{3})`)
	nonDigit      = regexp.MustCompile(`\D`)
	digitRun      = regexp.MustCompile(`\d+`)
	numericDate   = regexp.MustCompile(`^(\d{1,4})[./-](\d{1,2})[./-](\d{1,4})$`)
)

// Normalize rewrites each observation using its neighbors in lines as
// context. The input slice is not modified and the output has the same
// length and order.
func Normalize(lines []extraction.Observation) []extraction.Observation {
	keyed := make([]extraction.Observation, len(lines))
	for i, o := range lines {
		keyed[i] = expandOther(o)
	}

	out := make([]extraction.Observation, len(keyed))
	for i := range keyed {
		out[i] = normalizeAt(keyed, i)
	}
	return out
}

// expandOther gives catch-all observations a concrete key when their value
// is a recognisable printed label.
func expandOther(o extraction.Observation) extraction.Observation {
	if !strings.EqualFold(o.Key, "other") {
		return o
	}
	if key, value, ok := ParseKeyValue(o.Value); ok {
		o.Key, o.Value = key, value
	}
	return o
}

func normalizeAt(lines []extraction.Observation, i int) extraction.Observation {
	o := lines[i]
	key := strings.ToLower(o.Key)

	switch {
	case key == "amount_in_words":
		// Words, not a figure; only used as context for its neighbors.
	case isAmountKey(key):
		if n, ok := firstAmount(o.Value); ok {
			o.Value = n
			o.AmountType = amountType(lines, i)
		}
	case key == "service_date" || key == "patient_dob":
		o.Value = canonicalDate(o.Value)
	case key == "patient_phone" || key == "provider_phone":
		o.Value = nonDigit.ReplaceAllString(o.Value, "")
	case (key == "address_component" || key == "address" || key == "other") && isAddressLike(o.Value):
		if neighborHasKey(lines, i, 2, "provider_name", "provider_address") {
			o.Key = "provider_address"
		} else {
			o.Key = "address"
		}
	}
	return o
}

func isAmountKey(key string) bool {
	return strings.Contains(key, "amount") || strings.Contains(key, "payable") || strings.Contains(key, "total")
}

// firstAmount returns the first number in s, ignoring digit grouping commas.
func firstAmount(s string) (string, bool) {
	for {
		next := digitGrouping.ReplaceAllString(s, "$1$2")
		if next == s {
			break
		}
		s = next
	}
	m := firstNumber.FindString(s)
	return m, m != ""
}

// amountType classifies the amount at lines[i]. The observation's own key is
// consulted first, then the values within two positions either side. Checks
// run in priority order and the first match wins.
func amountType(lines []extraction.Observation, i int) string {
	if t := amountTypeFromKey(lines[i].Key); t != "" {
		return t
	}

	var b strings.Builder
	lo, hi := window(len(lines), i, 2)
	for j := lo; j <= hi; j++ {
		b.WriteString(strings.ToLower(lines[j].Value))
		b.WriteByte(' ')
	}
	nearby := b.String()

	switch {
	case containsAny(nearby, mainAmountIndicators...) || neighborHasKey(lines, i, 1, "amount_in_words"):
		return AmountMain
	case containsAny(nearby, "sub total", "subtotal"):
		return AmountSubtotal
	case containsAny(nearby, "discount", "off"):
		return AmountDiscount
	case containsAny(nearby, "tax", "gst"):
		return AmountTax
	case neighborHasKey(lines, i, 1, "medication", "procedure"):
		return AmountItem
	default:
		return AmountOther
	}
}

func amountTypeFromKey(key string) string {
	human := strings.ReplaceAll(strings.ToLower(key), "_", " ")
	switch human {
	case "amount", "subtotal amount", "discount amount", "tax amount", "item amount":
		return strings.ReplaceAll(human, " ", "_")
	}
	switch {
	case containsAny(human, mainAmountIndicators...):
		return AmountMain
	case containsAny(human, "sub total", "subtotal"):
		return AmountSubtotal
	case containsAny(human, "discount"):
		return AmountDiscount
	case containsAny(human, "tax", "gst"):
		return AmountTax
	}
	return ""
}

// canonicalDate rewrites a parseable date as YYYY-MM-DD. Ambiguous numeric
// dates are read day first whatever their separator. Values without a day
// (a bare number, a month and year) are left unchanged.
func canonicalDate(s string) string {
	v := strings.TrimSpace(s)
	if len(digitRun.FindAllString(v, -1)) < 2 {
		return s
	}
	if m := numericDate.FindStringSubmatch(v); m != nil {
		if len(m[1]) == 4 {
			v = m[1] + "-" + m[2] + "-" + m[3]
		} else {
			v = m[1] + "/" + m[2] + "/" + m[3]
		}
	}
	t, err := dateparse.ParseAny(v, dateparse.PreferMonthFirst(false))
	if err != nil {
		return s
	}
	return t.Format("2006-01-02")
}

// window returns the inclusive index bounds of positions within radius of i.
func window(n, i, radius int) (int, int) {
	lo, hi := i-radius, i+radius
	if lo < 0 {
		lo = 0
	}
	if hi > n-1 {
		hi = n - 1
	}
	return lo, hi
}

// neighborHasKey reports whether a position within radius of i, other than i
// itself, has one of keys.
func neighborHasKey(lines []extraction.Observation, i, radius int, keys ...string) bool {
	lo, hi := window(len(lines), i, radius)
	for j := lo; j <= hi; j++ {
		if j == i {
			continue
		}
		for _, k := range keys {
			if strings.EqualFold(lines[j].Key, k) {
				return true
			}
		}
	}
	return false
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
