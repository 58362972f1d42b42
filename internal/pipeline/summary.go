package pipeline

import (
	"regexp"
	"strings"

	"github.com/jay270804/medical-claim-processing-server/internal/extraction"
)

var bareNumber = regexp.MustCompile(`^\d+(\.\d+)?$`)

// summarySources lists, per summary field, the observation keys accepted as
// candidates. Matching is case-insensitive and exact.
var summarySources = map[string][]string{
	"patientName":  {"patient_name", "patient name", "name"},
	"providerName": {"provider_name", "hospital_name", "hospital name", "provider name"},
	"serviceDate":  {"service_date", "date of service", "visit date"},
	"amount":       {"net_payable_amount", "total_amount", "net_payable", "final_amount"},
	"claimType":    {"claim_type", "type of claim", "claim type"},
}

// Resolve picks, for each summary field, the candidate with the highest
// confidence at or above threshold. Among equal confidences the earliest
// candidate wins.
func Resolve(lines []extraction.Observation, threshold float64) Summary {
	return Summary{
		PatientName:  best(lines, threshold, summarySources["patientName"]),
		ProviderName: best(lines, threshold, summarySources["providerName"]),
		ServiceDate:  best(lines, threshold, summarySources["serviceDate"]),
		Amount:       best(lines, threshold, summarySources["amount"], isFigure),
		ClaimType:    best(lines, threshold, summarySources["claimType"]),
	}
}

// best returns the winning value among candidates. When accept is given a
// candidate must also satisfy it.
func best(lines []extraction.Observation, threshold float64, keys []string, accept ...func(string) bool) *string {
	var winner *extraction.Observation
	for i := range lines {
		o := &lines[i]
		if o.Confidence < threshold || !matchesKey(o.Key, keys) {
			continue
		}
		if len(accept) > 0 && !accept[0](o.Value) {
			continue
		}
		if winner == nil || o.Confidence > winner.Confidence {
			winner = o
		}
	}
	if winner == nil {
		return nil
	}
	v := winner.Value
	return &v
}

// isFigure reports whether v is a bare number as left by the amount rule.
func isFigure(v string) bool {
	return bareNumber.MatchString(v)
}

func matchesKey(key string, keys []string) bool {
	for _, k := range keys {
		if strings.EqualFold(key, k) {
			return true
		}
	}
	return false
}
