package checksum

import "testing"

func TestSum_Stable(t *testing.T) {
	if Sum("a", "b") != Sum("a", "b") {
		t.Fatal("same input should give same sum")
	}
	if len(Sum("x")) != 64 {
		t.Errorf("len = %d, want 64 hex chars", len(Sum("x")))
	}
}

func TestSum_PartBoundaries(t *testing.T) {
	if Sum("ab", "c") == Sum("a", "bc") {
		t.Error("part boundaries must affect the sum")
	}
}
