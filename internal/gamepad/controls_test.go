package gamepad

import "testing"

func TestControlNames(t *testing.T) {
	want := []string{"A", "B", "X", "Y", "L1", "R1", "L2", "R2", "LS", "RS",
		"DPadUp", "DPadDown", "DPadLeft", "DPadRight", "start", "select"}
	if len(Controls) != len(want) {
		t.Fatalf("%d controls, want %d", len(Controls), len(want))
	}
	for i, c := range Controls {
		if c.String() != want[i] {
			t.Errorf("control %d = %q, want %q", i, c, want[i])
		}
	}
	if got := numControls.String(); got != "Control(16)" {
		t.Errorf("out of range control = %q", got)
	}
}

func TestButtonIndexMapCoversSixteen(t *testing.T) {
	seen := map[Control]bool{}
	for i := 0; i < 16; i++ {
		c, ok := ControlForButton(i)
		if !ok {
			t.Fatalf("button %d unmapped", i)
		}
		seen[c] = true
	}
	if len(seen) != 16 {
		t.Errorf("%d distinct controls, want 16", len(seen))
	}
	for _, i := range []int{-1, 16, 17} {
		if _, ok := ControlForButton(i); ok {
			t.Errorf("button %d mapped", i)
		}
	}
}

func TestActiveSet(t *testing.T) {
	var s ActiveSet
	s = s.With(Select).With(A).With(A)
	if s.Len() != 2 || !s.Has(A) || !s.Has(Select) || s.Has(B) {
		t.Errorf("set = %v", s)
	}
	if got := s.String(); got != "[A select]" {
		t.Errorf("String() = %q", got)
	}
	if s.With(numControls) != s || s.Has(numControls) {
		t.Error("out of range control changed the set")
	}
}
