package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func normalizeOne(o obs) obs {
	return Normalize([]obs{o})[0]
}

func TestNormalize_Phone(t *testing.T) {
	got := normalizeOne(obs{Key: "patient_phone", Value: "+91 94294-16464", Confidence: 0.95})
	assert.Equal(t, "919429416464", got.Value)

	got = normalizeOne(obs{Key: "provider_phone", Value: "(022) 2345 6789", Confidence: 0.9})
	assert.Equal(t, "02223456789", got.Value)
}

func TestNormalize_Dates(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"12 March 2024", "2024-03-12"},
		{"2024-03-12", "2024-03-12"},
		{"12/03/2024", "2024-03-12"},
		{"12.03.2024", "2024-03-12"},
		{"12-03-2024", "2024-03-12"},
		{"2024.03.12", "2024-03-12"},
		{"1234567890", "1234567890"},
		{"2024", "2024"},
		{"March 2024", "March 2024"},
		{"sometime last week", "sometime last week"},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := normalizeOne(obs{Key: "service_date", Value: tt.in, Confidence: 0.8})
			assert.Equal(t, tt.want, got.Value)
		})
	}

	dob := normalizeOne(obs{Key: "patient_dob", Value: "1 July 1985", Confidence: 0.8})
	assert.Equal(t, "1985-07-01", dob.Value)
}

func TestNormalize_AmountValue(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Rs. 1500", "1500"},
		{"₹ 1,23,456.50", "123456.50"},
		{"INR 12,500", "12500"},
		{"1500.75 only", "1500.75"},
		{"no figure here", "no figure here"},
	}
	for _, tt := range tests {
		got := normalizeOne(obs{Key: "amount", Value: tt.in, Confidence: 0.9})
		assert.Equal(t, tt.want, got.Value, tt.in)
		assert.Equal(t, "amount", got.Key)
	}
}

func TestNormalize_AmountWithoutFigureKeepsNoSubtype(t *testing.T) {
	got := normalizeOne(obs{Key: "total_amount", Value: "see overleaf", Confidence: 0.9})
	assert.Empty(t, got.AmountType)
}

func TestNormalize_AmountTypeFromContext(t *testing.T) {
	tests := []struct {
		name  string
		lines []obs
		at    int
		want  string
	}{
		{
			name: "grand total label",
			lines: []obs{
				{Key: "other", Value: "Grand Total", Confidence: 0.9},
				{Key: "total_amount", Value: "980", Confidence: 0.9},
			},
			at: 1, want: AmountMain,
		},
		{
			name: "amount in words neighbor",
			lines: []obs{
				{Key: "total_amount", Value: "980", Confidence: 0.9},
				{Key: "amount_in_words", Value: "Nine hundred eighty only", Confidence: 0.9},
			},
			at: 0, want: AmountMain,
		},
		{
			name: "subtotal label",
			lines: []obs{
				{Key: "other", Value: "Sub Total", Confidence: 0.9},
				{Key: "total_amount", Value: "1000", Confidence: 0.9},
			},
			at: 1, want: AmountSubtotal,
		},
		{
			name: "discount label",
			lines: []obs{
				{Key: "other", Value: "Less 10% off", Confidence: 0.9},
				{Key: "line_amount", Value: "20", Confidence: 0.9},
			},
			at: 1, want: AmountDiscount,
		},
		{
			name: "tax label",
			lines: []obs{
				{Key: "line_amount", Value: "18", Confidence: 0.9},
				{Key: "other", Value: "CGST 9%", Confidence: 0.9},
			},
			at: 0, want: AmountTax,
		},
		{
			name: "next to medication",
			lines: []obs{
				{Key: "medication", Value: "Amoxicillin 250mg", Confidence: 0.9},
				{Key: "line_amount", Value: "120", Confidence: 0.9},
			},
			at: 1, want: AmountItem,
		},
		{
			name: "nothing nearby",
			lines: []obs{
				{Key: "patient_name", Value: "Asha Rao", Confidence: 0.9},
				{Key: "line_amount", Value: "77", Confidence: 0.9},
			},
			at: 1, want: AmountOther,
		},
		{
			name: "main wins over subtotal",
			lines: []obs{
				{Key: "other", Value: "Sub Total 1000 Net Amount", Confidence: 0.9},
				{Key: "line_amount", Value: "950", Confidence: 0.9},
			},
			at: 1, want: AmountMain,
		},
		{
			name: "item only within one position",
			lines: []obs{
				{Key: "medication", Value: "Amoxicillin 250mg", Confidence: 0.9},
				{Key: "patient_name", Value: "Asha Rao", Confidence: 0.9},
				{Key: "line_amount", Value: "120", Confidence: 0.9},
			},
			at: 2, want: AmountOther,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Normalize(tt.lines)
			require.Len(t, got, len(tt.lines))
			assert.Equal(t, tt.want, got[tt.at].AmountType)
		})
	}
}

func TestNormalize_AmountTypeDeterministic(t *testing.T) {
	lines := []obs{
		{Key: "medication", Value: "Amoxicillin 250mg", Confidence: 0.9},
		{Key: "line_amount", Value: "120", Confidence: 0.9},
		{Key: "other", Value: "GST 12%", Confidence: 0.9},
	}
	first := Normalize(lines)
	for i := 0; i < 20; i++ {
		assert.Equal(t, first, Normalize(lines))
	}
}

func TestNormalize_Address(t *testing.T) {
	lines := []obs{
		{Key: "provider_name", Value: "City Care Pharmacy", Confidence: 0.9},
		{Key: "other", Value: "12 MG Road, Indiranagar, Bengaluru", Confidence: 0.85},
		{Key: "patient_name", Value: "Asha Rao", Confidence: 0.9},
		{Key: "invoice_number", Value: "INV-7", Confidence: 0.9},
		{Key: "address", Value: "Flat 4, Lake View", Confidence: 0.8},
	}

	got := Normalize(lines)
	assert.Equal(t, "provider_address", got[1].Key)
	assert.Equal(t, "12 MG Road, Indiranagar, Bengaluru", got[1].Value)
	assert.Equal(t, "address", got[4].Key)
}

func TestNormalize_OtherKeyValue(t *testing.T) {
	got := Normalize([]obs{
		{Key: "other", Value: "Phone No.: 9429416464", Confidence: 0.9},
		{Key: "Other", Value: "Net Payable: Rs. 1,500", Confidence: 0.9},
		{Key: "other", Value: "10:45", Confidence: 0.9},
		{Key: "other", Value: "Thank you, visit again", Confidence: 0.9},
		{Key: "other", Value: "Get well soon", Confidence: 0.9},
	})

	assert.Equal(t, obs{Key: "phone_no", Value: "9429416464", Confidence: 0.9}, got[0])
	assert.Equal(t, "net_payable", got[1].Key)
	assert.Equal(t, "1500", got[1].Value)
	assert.Equal(t, AmountMain, got[1].AmountType)
	assert.Equal(t, "time", got[2].Key)
	assert.Equal(t, "address", got[3].Key)
	assert.Equal(t, obs{Key: "other", Value: "Get well soon", Confidence: 0.9}, got[4])
}

func TestNormalize_UnknownKeysPassThrough(t *testing.T) {
	in := []obs{
		{Key: "diagnosis", Value: "Viral fever", Confidence: 0.9},
		{Key: "ward_number", Value: "B-12", Confidence: 0.7},
	}
	assert.Equal(t, in, Normalize(in))
}

func TestNormalize_DoesNotMutateInput(t *testing.T) {
	in := []obs{{Key: "patient_phone", Value: "+91 94294-16464", Confidence: 0.95}}
	_ = Normalize(in)
	assert.Equal(t, "+91 94294-16464", in[0].Value)
}
