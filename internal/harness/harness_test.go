package harness

import (
	"testing"

	"github.com/23skdu/longbow-bodkin/internal/exec"
)

func TestSweepsAgainstHardware(t *testing.T) {
	for _, op := range []string{"add", "sub", "mul", "div", "sqrt", "rem"} {
		t.Run(op, func(t *testing.T) {
			res, err := SweepBinary32(op, exec.RNE, 20000, 42, 10)
			if err != nil {
				t.Fatalf("sweep refused: %v", err)
			}
			if res.Mismatched != 0 {
				for _, m := range res.Reported {
					t.Logf("%s", m)
				}
				t.Fatalf("%d of %d comparisons mismatched", res.Mismatched, res.Compared)
			}
		})
	}
}

func TestFmaSweep(t *testing.T) {
	res, err := SweepBinary32("fma", exec.RNE, 12000, 43, 10)
	if err != nil {
		t.Fatalf("sweep refused: %v", err)
	}
	if res.Mismatched != 0 {
		for _, m := range res.Reported {
			t.Logf("%s", m)
		}
		t.Fatalf("%d of %d fma comparisons mismatched", res.Mismatched, res.Compared)
	}
}

func TestDirectedModesAreRefused(t *testing.T) {
	// There is no hardware reference for directed rounding here; the
	// sweep must refuse rather than compare against the wrong mode.
	for _, rm := range []exec.RM{exec.RNA, exec.RTP, exec.RTN, exec.RTZ} {
		if _, err := SweepBinary32("add", rm, 10, 1, 1); err == nil {
			t.Errorf("%v sweep was not refused", rm)
		}
	}
}

func TestHalfConversionSweep(t *testing.T) {
	res := SweepHalfConversions(10)
	if res.Compared != 0x10000 {
		t.Errorf("compared %d patterns, want 65536", res.Compared)
	}
	if res.Mismatched != 0 {
		for _, m := range res.Reported {
			t.Logf("%s", m)
		}
		t.Fatalf("%d conversions mismatched", res.Mismatched)
	}
}

func TestHalf2Float(t *testing.T) {
	cases := map[uint16]uint32{
		0x0000: 0x00000000,
		0x8000: 0x80000000,
		0x3C00: 0x3F800000, // 1.0
		0xC000: 0xC0000000, // -2.0
		0x7C00: 0x7F800000, // +Inf
		0x0001: 0x33800000, // least subnormal = 2^-24
		0x03FF: 0x387FC000, // greatest subnormal
		0x7BFF: 0x477FE000, // greatest normal = 65504
	}
	for h, want := range cases {
		if got := half2float(h); got != want {
			t.Errorf("half2float(0x%04X) = 0x%08X, want 0x%08X", h, got, want)
		}
	}
}
