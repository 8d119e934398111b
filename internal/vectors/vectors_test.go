package vectors

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/23skdu/longbow-bodkin/internal/backend"
	"github.com/23skdu/longbow-bodkin/internal/exec"
)

func TestGenerateIsDeterministic(t *testing.T) {
	a, err := Generate(backend.Binary32, []string{"add", "mul"}, exec.RNE, 50, 7)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	b, err := Generate(backend.Binary32, []string{"add", "mul"}, exec.RNE, 50, 7)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if len(a) != 100 || len(b) != 100 {
		t.Fatalf("got %d and %d vectors", len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("vector %d differs between runs: %+v vs %+v", i, a[i], b[i])
		}
	}
}

func TestRecheckCleanCorpus(t *testing.T) {
	vecs, err := Generate(backend.Binary16, []string{"add", "sqrt", "fma"}, exec.RTP, 100, 3)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	bad, err := Recheck(vecs)
	if err != nil {
		t.Fatalf("recheck: %v", err)
	}
	if len(bad) != 0 {
		t.Errorf("%d freshly generated vectors failed to reproduce", len(bad))
	}

	vecs[17].Result ^= 1
	bad, err = Recheck(vecs)
	if err != nil {
		t.Fatalf("recheck: %v", err)
	}
	if len(bad) != 1 || bad[0] != 17 {
		t.Errorf("corrupted vector not detected: %v", bad)
	}
}

func TestArrowFileRoundTrip(t *testing.T) {
	vecs, err := Generate(backend.Binary32, []string{"add", "div", "fma"}, exec.RTN, 64, 11)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	path := filepath.Join(t.TempDir(), "corpus.arrow")
	if err := WriteArrowFile(path, vecs); err != nil {
		t.Fatalf("write: %v", err)
	}

	got, err := ReadArrowFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(got) != len(vecs) {
		t.Fatalf("read %d vectors, wrote %d", len(got), len(vecs))
	}
	for i := range vecs {
		if got[i] != vecs[i] {
			t.Fatalf("vector %d changed in flight: %+v vs %+v", i, got[i], vecs[i])
		}
	}
}

func TestCSourceEmission(t *testing.T) {
	vecs := []Vector{{
		Op: "add", RM: exec.RNE, Width: 32,
		A: 0x3F800000, B: 0x3F800000, Result: 0x40000000,
	}}

	var sb strings.Builder
	if err := WriteCSource(&sb, vecs); err != nil {
		t.Fatalf("emit: %v", err)
	}
	out := sb.String()

	for _, want := range []string{
		"struct testVector",
		`{ "add", "RNE", 32, UINT64_C(0x3F800000), UINT64_C(0x3F800000), UINT64_C(0x00000000), UINT64_C(0x40000000) },`,
		"static const int testVectorCount = 1;",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestSMT2Emission(t *testing.T) {
	var sb strings.Builder
	if err := WriteSMT2(&sb, backend.Binary16, "mul"); err != nil {
		t.Fatalf("emit: %v", err)
	}
	out := sb.String()

	for _, want := range []string{
		"(set-logic QF_BV)",
		"(define-fun fp.mul.16",
		"(a (_ BitVec 16))",
		"(b (_ BitVec 16))",
		"(rm (_ BitVec 3))",
		"(_ BitVec 16)",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q", want)
		}
	}
}

func TestFlightRoundTrip(t *testing.T) {
	vecs, err := Generate(backend.Binary32, []string{"sub", "rem"}, exec.RNE, 32, 5)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	srv := NewFlightServer(map[string][]Vector{"corpus": vecs})
	if err := srv.Start("localhost:0"); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer srv.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	got, err := FetchCorpus(ctx, srv.Addr(), "corpus")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(got) != len(vecs) {
		t.Fatalf("fetched %d vectors, served %d", len(got), len(vecs))
	}
	for i := range vecs {
		if got[i] != vecs[i] {
			t.Fatalf("vector %d changed in transport", i)
		}
	}

	if _, err := FetchCorpus(ctx, srv.Addr(), "missing"); err == nil {
		t.Errorf("fetching an unknown corpus did not fail")
	}
}
