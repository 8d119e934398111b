// Package vectors records test vectors: generation from the engine,
// columnar storage as Arrow record batches (IPC files and Flight
// streams), and text emission as C sources or SMT-LIB.
package vectors

import (
	"fmt"
	"math/rand"
	"os"
	"time"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/ipc"
	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/23skdu/longbow-bodkin/internal/backend"
	"github.com/23skdu/longbow-bodkin/internal/exec"
	"github.com/23skdu/longbow-bodkin/internal/metrics"
	"github.com/23skdu/longbow-bodkin/internal/softfloat"
)

// Vector is one recorded evaluation: packed operands and the packed
// result of an operation under a rounding mode.
type Vector struct {
	Op     string
	RM     exec.RM
	Width  backend.Width // packed width of the format
	A, B, C uint64
	Result uint64
}

// Arity reports how many operands the operation consumes.
func Arity(op string) int {
	switch op {
	case "sqrt", "rti", "neg", "abs":
		return 1
	case "fma":
		return 3
	default:
		return 2
	}
}

func formatForWidth(w backend.Width) (backend.Format, error) {
	switch w {
	case 16:
		return backend.Binary16, nil
	case 32:
		return backend.Binary32, nil
	case 64:
		return backend.Binary64, nil
	}
	return backend.Format{}, fmt.Errorf("no format with packed width %d", w)
}

// Evaluate runs one vector's operation through the engine.
func Evaluate(f backend.Format, op string, rm exec.RM, a, b, c uint64) (uint64, error) {
	start := time.Now()
	defer func() {
		metrics.OperationDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
	}()
	switch op {
	case "add":
		return softfloat.Add(f, rm, a, b), nil
	case "sub":
		return softfloat.Sub(f, rm, a, b), nil
	case "mul":
		return softfloat.Mul(f, rm, a, b), nil
	case "div":
		return softfloat.Div(f, rm, a, b), nil
	case "rem":
		return softfloat.Rem(f, a, b), nil
	case "min":
		return softfloat.Min(f, a, b), nil
	case "max":
		return softfloat.Max(f, a, b), nil
	case "sqrt":
		return softfloat.Sqrt(f, rm, a), nil
	case "rti":
		return softfloat.RoundToIntegral(f, rm, a), nil
	case "neg":
		return softfloat.Neg(f, a), nil
	case "abs":
		return softfloat.Abs(f, a), nil
	case "fma":
		return softfloat.Fma(f, rm, a, b, c), nil
	}
	return 0, fmt.Errorf("unknown operation %q", op)
}

// Generate produces count vectors per operation with random operands.
func Generate(f backend.Format, ops []string, rm exec.RM, count int, seed int64) ([]Vector, error) {
	rng := rand.New(rand.NewSource(seed))
	mask := uint64(1)<<f.PackedWidth() - 1

	var out []Vector
	for _, op := range ops {
		for i := 0; i < count; i++ {
			v := Vector{
				Op:    op,
				RM:    rm,
				Width: f.PackedWidth(),
				A:     rng.Uint64() & mask,
			}
			if Arity(op) >= 2 {
				v.B = rng.Uint64() & mask
			}
			if Arity(op) >= 3 {
				v.C = rng.Uint64() & mask
			}
			r, err := Evaluate(f, op, rm, v.A, v.B, v.C)
			if err != nil {
				return nil, err
			}
			v.Result = r
			out = append(out, v)
		}
	}
	return out, nil
}

// Schema is the Arrow layout of a vector corpus.
var Schema = arrow.NewSchema([]arrow.Field{
	{Name: "op", Type: arrow.BinaryTypes.String},
	{Name: "rm", Type: arrow.BinaryTypes.String},
	{Name: "width", Type: arrow.PrimitiveTypes.Uint32},
	{Name: "a", Type: arrow.PrimitiveTypes.Uint64},
	{Name: "b", Type: arrow.PrimitiveTypes.Uint64},
	{Name: "c", Type: arrow.PrimitiveTypes.Uint64},
	{Name: "result", Type: arrow.PrimitiveTypes.Uint64},
}, nil)

// ToRecord builds one Arrow record batch from the vectors.  The caller
// must Release it.
func ToRecord(vecs []Vector) arrow.Record {
	b := array.NewRecordBuilder(memory.DefaultAllocator, Schema)
	defer b.Release()

	for _, v := range vecs {
		b.Field(0).(*array.StringBuilder).Append(v.Op)
		b.Field(1).(*array.StringBuilder).Append(v.RM.String())
		b.Field(2).(*array.Uint32Builder).Append(uint32(v.Width))
		b.Field(3).(*array.Uint64Builder).Append(v.A)
		b.Field(4).(*array.Uint64Builder).Append(v.B)
		b.Field(5).(*array.Uint64Builder).Append(v.C)
		b.Field(6).(*array.Uint64Builder).Append(v.Result)
	}

	return b.NewRecord()
}

// FromRecord decodes a record batch back into vectors.
func FromRecord(rec arrow.Record) ([]Vector, error) {
	if !rec.Schema().Equal(Schema) {
		return nil, fmt.Errorf("record schema %v does not match the vector schema", rec.Schema())
	}

	ops := rec.Column(0).(*array.String)
	rms := rec.Column(1).(*array.String)
	widths := rec.Column(2).(*array.Uint32)
	as := rec.Column(3).(*array.Uint64)
	bs := rec.Column(4).(*array.Uint64)
	cs := rec.Column(5).(*array.Uint64)
	results := rec.Column(6).(*array.Uint64)

	out := make([]Vector, rec.NumRows())
	for i := range out {
		rm, err := parseRM(rms.Value(i))
		if err != nil {
			return nil, err
		}
		out[i] = Vector{
			Op:     ops.Value(i),
			RM:     rm,
			Width:  backend.Width(widths.Value(i)),
			A:      as.Value(i),
			B:      bs.Value(i),
			C:      cs.Value(i),
			Result: results.Value(i),
		}
	}
	return out, nil
}

func parseRM(s string) (exec.RM, error) {
	switch s {
	case "RNE":
		return exec.RNE, nil
	case "RNA":
		return exec.RNA, nil
	case "RTP":
		return exec.RTP, nil
	case "RTN":
		return exec.RTN, nil
	case "RTZ":
		return exec.RTZ, nil
	}
	return 0, fmt.Errorf("unknown rounding mode %q", s)
}

// WriteArrowFile writes the vectors to an Arrow IPC file.
func WriteArrowFile(path string, vecs []Vector) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()

	w, err := ipc.NewFileWriter(f, ipc.WithSchema(Schema))
	if err != nil {
		return fmt.Errorf("opening IPC writer: %w", err)
	}

	rec := ToRecord(vecs)
	defer rec.Release()

	if err := w.Write(rec); err != nil {
		w.Close()
		return fmt.Errorf("writing record batch: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("closing IPC writer: %w", err)
	}

	metrics.VectorsEmittedTotal.WithLabelValues("arrow").Add(float64(len(vecs)))
	return nil
}

// ReadArrowFile loads a vector corpus from an Arrow IPC file.
func ReadArrowFile(path string) ([]Vector, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	r, err := ipc.NewFileReader(f)
	if err != nil {
		return nil, fmt.Errorf("opening IPC reader: %w", err)
	}
	defer r.Close()

	var out []Vector
	for i := 0; i < r.NumRecords(); i++ {
		rec, err := r.Record(i)
		if err != nil {
			return nil, fmt.Errorf("reading record %d: %w", i, err)
		}
		vecs, err := FromRecord(rec)
		if err != nil {
			return nil, err
		}
		out = append(out, vecs...)
	}
	return out, nil
}

// Recheck re-evaluates every vector and returns the indices that no
// longer reproduce their recorded result.
func Recheck(vecs []Vector) ([]int, error) {
	var bad []int
	for i, v := range vecs {
		f, err := formatForWidth(v.Width)
		if err != nil {
			return nil, err
		}
		got, err := Evaluate(f, v.Op, v.RM, v.A, v.B, v.C)
		if err != nil {
			return nil, err
		}
		if got != v.Result {
			bad = append(bad, i)
		}
	}
	return bad, nil
}
