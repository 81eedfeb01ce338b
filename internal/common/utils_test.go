package common

import "testing"

func TestSplitList(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{in: "", want: nil},
		{in: "159880", want: []string{"159880"}},
		{in: " 1, 2 ,,3 ", want: []string{"1", "2", "3"}},
		{in: ",,", want: nil},
	}

	for _, tt := range tests {
		got := SplitList(tt.in)
		if len(got) != len(tt.want) {
			t.Fatalf("SplitList(%q) = %v, want %v", tt.in, got, tt.want)
		}
		for i := range got {
			if got[i] != tt.want[i] {
				t.Fatalf("SplitList(%q) = %v, want %v", tt.in, got, tt.want)
			}
		}
	}
}
