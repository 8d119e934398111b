package config

import (
	"testing"

	"github.com/23skdu/longbow-bodkin/internal/backend"
	"github.com/23skdu/longbow-bodkin/internal/exec"
)

func TestParseFormat(t *testing.T) {
	cases := map[string]backend.Format{
		"binary16": backend.Binary16,
		"half":     backend.Binary16,
		"fp32":     backend.Binary32,
		"Binary64": backend.Binary64,
		"single":   backend.Binary32,
	}
	for name, want := range cases {
		got, err := ParseFormat(name)
		if err != nil {
			t.Errorf("ParseFormat(%q): %v", name, err)
			continue
		}
		if got != want {
			t.Errorf("ParseFormat(%q) = %v, want %v", name, got, want)
		}
	}
	if _, err := ParseFormat("binary128"); err == nil {
		t.Errorf("unknown format accepted")
	}
}

func TestParseRoundingMode(t *testing.T) {
	got, err := ParseRoundingMode("rtn")
	if err != nil || got != exec.RTN {
		t.Errorf("ParseRoundingMode(rtn) = %v, %v", got, err)
	}
	if _, err := ParseRoundingMode("RTO"); err == nil {
		t.Errorf("unknown mode accepted")
	}
}

func TestValidate(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}

	bad := Default()
	bad.Count = 0
	if err := bad.Validate(); err == nil {
		t.Errorf("zero count accepted")
	}

	bad = Default()
	bad.Operations = nil
	if err := bad.Validate(); err == nil {
		t.Errorf("empty operation list accepted")
	}

	bad = Default()
	bad.Exhaustive = true
	if err := bad.Validate(); err == nil {
		t.Errorf("exhaustive binary32 sweep accepted")
	}

	ok := Default()
	ok.Exhaustive = true
	ok.Format = backend.Binary16
	if err := ok.Validate(); err != nil {
		t.Errorf("exhaustive binary16 sweep rejected: %v", err)
	}
}
