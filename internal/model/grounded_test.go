package model

import "testing"

func TestGroundedBuilders(t *testing.T) {
	gv := Grounded("Bank X", "Bank X announced").
		WithReasons("named entity in source text").
		WithConfidence(0.8)

	if gv.Value != "Bank X" || len(gv.Evidence) != 1 {
		t.Errorf("unexpected grounded value: %+v", gv)
	}
	if gv.ConfidenceOrDefault(0) != 0.8 {
		t.Errorf("confidence = %v", gv.ConfidenceOrDefault(0))
	}
	if gv.IsUnknown() {
		t.Error("grounded value reported unknown")
	}
}

func TestUnknownDefaultsReason(t *testing.T) {
	gv := Unknown()
	if !gv.IsUnknown() {
		t.Fatal("Unknown() not unknown")
	}
	if len(gv.Reasons) == 0 {
		t.Error("unknown value without a reason")
	}

	custom := Unknown("no timestamp-bearing span in source sentence")
	if custom.Reasons[0] != "no timestamp-bearing span in source sentence" {
		t.Errorf("reasons = %v", custom.Reasons)
	}
}

func TestConfidenceOrDefault(t *testing.T) {
	if got := (GroundedValue{}).ConfidenceOrDefault(0.5); got != 0.5 {
		t.Errorf("unset confidence default = %v", got)
	}
	if got := Grounded("x", "x").WithConfidence(0.2).ConfidenceOrDefault(0.5); got != 0.2 {
		t.Errorf("set confidence = %v", got)
	}
}

func TestWellFormed(t *testing.T) {
	cases := []struct {
		name string
		gv   GroundedValue
		want bool
	}{
		{"known with evidence", Grounded("x", "x appears here"), true},
		{"known without evidence", GroundedValue{Value: "x"}, false},
		{"unknown with reason", Unknown("gap"), true},
		{"unknown without reason", GroundedValue{Value: ValueUnknown}, false},
		{"confidence out of range", Grounded("x", "x").WithConfidence(1.5), false},
		{"negative confidence", Grounded("x", "x").WithConfidence(-0.1), false},
	}
	for _, tc := range cases {
		if got := tc.gv.WellFormed(); got != tc.want {
			t.Errorf("%s: WellFormed = %v, want %v", tc.name, got, tc.want)
		}
	}
}
