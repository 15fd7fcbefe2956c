package monitor

import "testing"

func TestFormatNum(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "0.00"},
		{0.5, "0.50"},
		{999.994, "999.99"},
		{1000, "1,000.00"},
		{76543.21, "76,543.21"},
		{999999.99, "999,999.99"},
		{1_000_000, "1.00M"},
		{85_400_000, "85.40M"},
		{2_350_000_000, "2350.00M"},
	}
	for _, tt := range tests {
		if got := formatNum(tt.in); got != tt.want {
			t.Errorf("formatNum(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestAddCommas(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"1", "1"},
		{"123", "123"},
		{"1234", "1,234"},
		{"1234.56", "1,234.56"},
		{"123456789", "123,456,789"},
		{"1000000.00", "1,000,000.00"},
	}
	for _, tt := range tests {
		if got := addCommas(tt.in); got != tt.want {
			t.Errorf("addCommas(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
