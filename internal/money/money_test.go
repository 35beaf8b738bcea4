package money

import "testing"

func TestAmountToCents(t *testing.T) {
	tests := []struct {
		input    string
		expected int64
	}{
		{"1.258,70 €", 125870},
		{"125,00 €", 12500},
		{"125,00", 12500},
		{"55,90€", 5590},
		{" 1 258,70 ", 125870},
		{"1.000.000,01 €", 100000001},
		{"0,005", 1},
		{"-0,005", -1},
		{"0,004", 0},
		{"12", 1200},
		{"-25,50 €", -2550},
		{" 100,00 €", 10000},
		{"", 0},
		{"€", 0},
		{"abc", 0},
		{"1,2,3", 0},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := AmountToCents(tt.input)
			if got != tt.expected {
				t.Errorf("AmountToCents(%q): got %d, want %d", tt.input, got, tt.expected)
			}
		})
	}
}

func TestCentsToDisplay(t *testing.T) {
	tests := []struct {
		input    int64
		expected string
	}{
		{125870, "1.258,70 €"},
		{12500, "125,00 €"},
		{5, "0,05 €"},
		{0, "0,00 €"},
		{100000001, "1.000.000,01 €"},
		{-2550, "-25,50 €"},
		{99999, "999,99 €"},
	}

	for _, tt := range tests {
		got := CentsToDisplay(tt.input)
		if got != tt.expected {
			t.Errorf("CentsToDisplay(%d): got %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func TestDisplayRoundTrip(t *testing.T) {
	for _, cents := range []int64{0, 1, 99, 100, 125870, 100000001} {
		if got := AmountToCents(CentsToDisplay(cents)); got != cents {
			t.Errorf("round trip of %d: got %d", cents, got)
		}
	}
}

func TestToEuros(t *testing.T) {
	if got := ToEuros(125870).String(); got != "1258.7" {
		t.Errorf("ToEuros(125870): got %q, want %q", got, "1258.7")
	}
}
