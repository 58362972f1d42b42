package extraction

import (
	"fmt"
	"strings"
)

// Instruction is the fixed instruction sent with every document.
var Instruction = BuildInstruction(KnownKeys)

// BuildInstruction renders the extraction instruction for the given label
// vocabulary.
func BuildInstruction(labels []Label) string {
	var b strings.Builder
	b.WriteString(`You are an assistant specialized in reading medical documents (bills, receipts, prescriptions) for claim processing.
Extract every meaningful piece of text from the attached document and return it as labeled observations.

For each meaningful line or key-value pair:
1. Choose the most appropriate label from the list below. If nothing fits, create a new snake_case label; if it is a key-value pair (e.g. "Phone No.: 9429416464") use the key as the label.
2. Extract the value.
3. Assign a confidence score between 0 and 1.
4. Preserve the original order of appearance.
5. Skip empty lines and visual artifacts (borders, stamps, decorations).

Known labels:
`)
	for _, l := range labels {
		fmt.Fprintf(&b, "- %s: %s\n", l.Key, l.Description)
	}
	b.WriteString(`
Formatting rules:
- Dates: YYYY-MM-DD when possible.
- Amounts: the numeric value only.
- Phone numbers: digits only.
- Use "other" for content that cannot be classified.

Respond with a single JSON object and nothing else:
{"lines": [{"key": "label", "value": "extracted value", "confidence": 0.95}]}
`)
	return b.String()
}
