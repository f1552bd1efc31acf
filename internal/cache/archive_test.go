package cache

import "testing"

func TestRoundKey(t *testing.T) {
	tests := []struct {
		roundID int64
		want    string
	}{
		{roundID: 1, want: "crash:round:1"},
		{roundID: 42, want: "crash:round:42"},
		{roundID: 1000000, want: "crash:round:1000000"},
	}

	for _, tt := range tests {
		if got := roundKey(tt.roundID); got != tt.want {
			t.Errorf("roundKey(%d) = %q, want %q", tt.roundID, got, tt.want)
		}
	}
}
