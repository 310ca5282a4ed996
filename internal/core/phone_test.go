package core_test

import (
	"testing"

	"github.com/nurs7132/agroFarm/internal/core"
)

func TestNormalizePhone(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    string
		wantErr bool
	}{
		{name: "11 digits leading 7", raw: "77051234567", want: "+77051234567"},
		{name: "10 digits", raw: "7051234567", want: "+77051234567"},
		{name: "11 digits leading 87", raw: "87051234567", want: "+77051234567"},
		{name: "already formatted", raw: "+7 705 123 45 67", want: "+77051234567"},
		{name: "punctuation stripped", raw: "8 (705) 123-45-67", want: "+77051234567"},
		{name: "foreign number passthrough", raw: "4915112345678", want: "4915112345678"},
		{name: "too short", raw: "12345", wantErr: true},
		{name: "letters only", raw: "call me", wantErr: true},
		{name: "empty", raw: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := core.NormalizePhone(tt.raw)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("NormalizePhone(%q) = %q, expected error", tt.raw, got)
				}
				if !core.IsInvalidInput(err) {
					t.Errorf("expected InvalidInputError, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("NormalizePhone(%q) failed: %v", tt.raw, err)
			}
			if got != tt.want {
				t.Errorf("NormalizePhone(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}

func TestValidateCustomerName(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    string
		wantErr bool
	}{
		{name: "plain name", in: "Aslan", want: "Aslan"},
		{name: "trimmed", in: "  Aslan  ", want: "Aslan"},
		{name: "two characters", in: "Al", want: "Al"},
		{name: "cyrillic two runes", in: "Ян", want: "Ян"},
		{name: "single character", in: "A", wantErr: true},
		{name: "whitespace only", in: "   ", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := core.ValidateCustomerName(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ValidateCustomerName(%q) = %q, expected error", tt.in, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ValidateCustomerName(%q) failed: %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("ValidateCustomerName(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
