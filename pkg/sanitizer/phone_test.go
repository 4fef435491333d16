package sanitizer

import "testing"

func TestNormalizePhone(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		regions []string
		want    string
	}{
		{
			name:  "valid E.164 format",
			input: "+351912345678",
			want:  "+351912345678",
		},
		{
			name:  "portuguese mobile without country code",
			input: "912345678",
			want:  "+351912345678",
		},
		{
			name:  "with spaces",
			input: "+351 912 345 678",
			want:  "+351912345678",
		},
		{
			name:  "with dashes",
			input: "+351-912-345-678",
			want:  "+351912345678",
		},
		{
			name:  "international prefix 00",
			input: "00351912345678",
			want:  "+351912345678",
		},
		{
			name:  "foreign number keeps its country",
			input: "+34 612 345 678",
			want:  "+34612345678",
		},
		{
			name:    "explicit region",
			input:   "612345678",
			regions: []string{"ES"},
			want:    "+34612345678",
		},
		{
			name:  "leading and trailing spaces",
			input: "  +351912345678  ",
			want:  "+351912345678",
		},
		{
			name:  "empty string",
			input: "",
			want:  "",
		},
		{
			name:  "only whitespace",
			input: "   ",
			want:  "",
		},
		{
			name:  "too short",
			input: "123",
			want:  "",
		},
		{
			name:  "letters only",
			input: "telefone",
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizePhone(tt.input, tt.regions...)
			if got != tt.want {
				t.Errorf("NormalizePhone(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestMaskPhone(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"+351912345678", "+351******678"},
		{"+3519", "*****"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := MaskPhone(tt.input); got != tt.want {
			t.Errorf("MaskPhone(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}
