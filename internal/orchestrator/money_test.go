package orchestrator

import "testing"

func TestParseMinorUnits(t *testing.T) {
	tests := []struct {
		amount  string
		want    int64
		wantErr bool
	}{
		{amount: "20000", want: 2000000},
		{amount: "5000000", want: 500000000},
		{amount: "12.5", want: 1250},
		{amount: "0.999", want: 99}, // truncated, not rounded up
		{amount: "0", want: 0},
		{amount: " 150 ", want: 15000},
		{amount: "abc", wantErr: true},
		{amount: "", wantErr: true},
	}

	for _, tt := range tests {
		got, err := ParseMinorUnits(tt.amount)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseMinorUnits(%q): expected error, got %d", tt.amount, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseMinorUnits(%q): unexpected error: %v", tt.amount, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseMinorUnits(%q) = %d, want %d", tt.amount, got, tt.want)
		}
	}
}

func TestFormatter_Indonesian(t *testing.T) {
	f := NewFormatter("id", "Rp")

	tests := []struct {
		minor int64
		want  string
	}{
		{minor: 2000000, want: "Rp20.000,00"},
		{minor: 125050, want: "Rp1.250,50"},
		{minor: 0, want: "Rp0,00"},
		{minor: -200050, want: "-Rp2.000,50"},
	}

	for _, tt := range tests {
		if got := f.Format(tt.minor); got != tt.want {
			t.Errorf("Format(%d) = %q, want %q", tt.minor, got, tt.want)
		}
	}
}

func TestFormatter_English(t *testing.T) {
	f := NewFormatter("en", "$")

	if got := f.Format(2000000); got != "$20,000.00" {
		t.Errorf("Format(2000000) = %q, want $20,000.00", got)
	}
}

func TestFormatter_BadLocaleFallsBack(t *testing.T) {
	f := NewFormatter("not a locale", "Rp")

	// Falls back to Indonesian formatting.
	if got := f.Format(100000); got != "Rp1.000,00" {
		t.Errorf("Format(100000) = %q, want Rp1.000,00", got)
	}
}
