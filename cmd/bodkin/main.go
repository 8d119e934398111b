// bodkin evaluates a single IEEE-754 operation on packed hex operands
// and prints the packed result, optionally with the decoded fields or
// the SMT-LIB encoding of the operation.
package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/23skdu/longbow-bodkin/internal/backend"
	"github.com/23skdu/longbow-bodkin/internal/config"
	"github.com/23skdu/longbow-bodkin/internal/logger"
	"github.com/23skdu/longbow-bodkin/internal/softfloat"
	"github.com/23skdu/longbow-bodkin/internal/vectors"
)

func main() {
	formatName := flag.String("format", "binary32", "floating-point format (binary16, binary32, binary64)")
	rmName := flag.String("rm", "RNE", "rounding mode (RNE, RNA, RTP, RTN, RTZ)")
	op := flag.String("op", "add", "operation (add, sub, mul, div, rem, min, max, sqrt, rti, neg, abs, fma)")
	aHex := flag.String("a", "", "first operand, packed hex")
	bHex := flag.String("b", "", "second operand, packed hex")
	cHex := flag.String("c", "", "third operand, packed hex (fma)")
	decode := flag.Bool("decode", false, "also print the classification of operands and result")
	smt2 := flag.Bool("smt2", false, "emit the SMT-LIB encoding of the operation instead of evaluating")
	logLevel := flag.String("log-level", "WARN", "log level")
	flag.Parse()

	logger.Setup(*logLevel, "console")

	f, err := config.ParseFormat(*formatName)
	if err != nil {
		fatal(err)
	}
	rm, err := config.ParseRoundingMode(*rmName)
	if err != nil {
		fatal(err)
	}

	if *smt2 {
		if err := vectors.WriteSMT2(os.Stdout, f, *op); err != nil {
			fatal(err)
		}
		return
	}

	arity := vectors.Arity(*op)
	a := parseOperand(*aHex, "a")
	var b, c uint64
	if arity >= 2 {
		b = parseOperand(*bHex, "b")
	}
	if arity >= 3 {
		c = parseOperand(*cHex, "c")
	}

	result, err := vectors.Evaluate(f, *op, rm, a, b, c)
	if err != nil {
		fatal(err)
	}

	digits := int(f.PackedWidth()+3) / 4
	fmt.Printf("0x%0*X\n", digits, result)

	if *decode {
		fmt.Printf("a:      %s\n", classify(f, a))
		if arity >= 2 {
			fmt.Printf("b:      %s\n", classify(f, b))
		}
		if arity >= 3 {
			fmt.Printf("c:      %s\n", classify(f, c))
		}
		fmt.Printf("result: %s\n", classify(f, result))
	}
}

func classify(f backend.Format, v uint64) string {
	sign := "+"
	if softfloat.IsNegative(f, v) {
		sign = "-"
	}
	switch {
	case softfloat.IsNaN(f, v):
		return "NaN"
	case softfloat.IsInf(f, v):
		return sign + "Inf"
	case softfloat.IsZero(f, v):
		return sign + "0"
	case softfloat.IsSubnormal(f, v):
		return sign + "subnormal"
	default:
		return sign + "normal"
	}
}

func parseOperand(s, name string) uint64 {
	if s == "" {
		fatal(fmt.Errorf("missing operand -%s", name))
	}
	v, err := strconv.ParseUint(strings.TrimPrefix(strings.ToLower(s), "0x"), 16, 64)
	if err != nil {
		fatal(fmt.Errorf("operand -%s: %w", name, err))
	}
	return v
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, "bodkin:", err)
	os.Exit(1)
}
