package model

import "testing"

func TestParseCategory(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		want   Category
		wantOK bool
	}{
		{name: "canonical food", input: "COMIDA", want: CategoryFood, wantOK: true},
		{name: "canonical transport", input: "TRANSPORTE", want: CategoryTransport, wantOK: true},
		{name: "canonical misc", input: "VARIOS", want: CategoryMisc, wantOK: true},
		{name: "lowercase food", input: "comida", want: CategoryFood, wantOK: true},
		{name: "english transport", input: "transport", want: CategoryTransport, wantOK: true},
		{name: "english other", input: "other", want: CategoryMisc, wantOK: true},
		{name: "unknown falls back to misc", input: "casa", want: CategoryMisc, wantOK: false},
		{name: "empty falls back to misc", input: "", want: CategoryMisc, wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseCategory(tt.input)
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("ParseCategory(%q) = (%v, %v), want (%v, %v)",
					tt.input, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestCategoryValid(t *testing.T) {
	for _, cat := range AllCategories() {
		if !cat.Valid() {
			t.Errorf("category %v should be valid", cat)
		}
	}
	if Category("").Valid() {
		t.Error("empty category should not be valid")
	}
	if Category("HOGAR").Valid() {
		t.Error("unknown category should not be valid")
	}
}

func TestValidateAmount(t *testing.T) {
	tests := []struct {
		name    string
		amount  float64
		wantErr bool
	}{
		{name: "positive amount", amount: 12.50, wantErr: false},
		{name: "small positive amount", amount: 0.01, wantErr: false},
		{name: "zero amount", amount: 0, wantErr: true},
		{name: "negative amount", amount: -5, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateAmount(tt.amount)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateAmount(%v) error = %v, wantErr %v", tt.amount, err, tt.wantErr)
			}
		})
	}
}
