package extraction

// Observation is one labeled fact read off a document. Key is an open
// vocabulary: the model may emit labels outside KnownKeys.
type Observation struct {
	Key        string  `json:"key"`
	Value      string  `json:"value"`
	Confidence float64 `json:"confidence"`
	// AmountType is the contextual subtype assigned to amount-like
	// observations during normalization (amount, subtotal_amount, ...).
	AmountType string `json:"amountType,omitempty"`
}

// Label describes one entry of the known key vocabulary.
type Label struct {
	Key         string
	Description string
}

// KnownKeys is the label vocabulary given to the model. The order is the
// order used in the instruction text.
var KnownKeys = []Label{
	{"patient_name", "Patient's/Customer's full name"},
	{"patient_phone", "Patient's/Customer's phone/mobile number"},
	{"patient_dob", "Patient's/Customer's date of birth"},
	{"service_date", "Date of medical service (YYYY-MM-DD)"},
	{"provider_name", "Hospital or pharmacy name"},
	{"provider_phone", "Provider's phone number"},
	{"provider_address", "Provider's address"},
	{"provider_gst", "Provider's GST number"},
	{"provider_license", "Provider's license number"},
	{"amount", "Main total amount (net payable)"},
	{"subtotal_amount", "Subtotal before discounts"},
	{"discount_amount", "Discount amount"},
	{"tax_amount", "Tax/GST amount"},
	{"item_amount", "Individual item amounts"},
	{"diagnosis", "Medical conditions"},
	{"procedure", "Medical procedures"},
	{"medication", "Prescribed medications"},
	{"insurance_id", "Insurance policy numbers"},
	{"invoice_number", "Bill or invoice numbers"},
	{"prescription_id", "Prescription reference numbers"},
	{"other", "Content that fits no other label"},
}
