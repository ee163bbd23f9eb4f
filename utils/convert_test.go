package utils

import "testing"

func TestMistToSui(t *testing.T) {
	tests := []struct {
		mists uint64
		want  float64
	}{
		{0, 0},
		{1_000_000_000, 1},
		{2_500_000_000, 2.5},
		{1, 1e-9},
	}
	for _, tt := range tests {
		if got := MistToSui(tt.mists); got != tt.want {
			t.Errorf("MistToSui(%d) = %v, want %v", tt.mists, got, tt.want)
		}
	}
}

func TestSuiToMist(t *testing.T) {
	if got := SuiToMist(3); got != 3_000_000_000 {
		t.Errorf("SuiToMist(3) = %d, want 3000000000", got)
	}
}
