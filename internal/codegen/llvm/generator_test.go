package llvm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tupa-lang/tupa/internal/diag"
	"github.com/tupa-lang/tupa/internal/parser"
)

func generate(t *testing.T, src string) (string, error) {
	t.Helper()
	prog, err := parser.ParseProgram(src)
	require.NoError(t, err)
	return Generate(prog)
}

func mustGenerate(t *testing.T, src string) string {
	t.Helper()
	ir, err := generate(t, src)
	require.NoError(t, err)
	return ir
}

func TestGenerateFunction(t *testing.T) {
	ir := mustGenerate(t, "fn add(a: i64, b: i64) -> i64 { return a + b; }")

	expected := `; ModuleID = 'tupa'
source_filename = "tupa"

declare double @llvm.pow.f64(double, double)
declare i64 @tupa_pow_i64(i64, i64)

define i64 @add(i64 %arg.a, i64 %arg.b) {
entry:
  %a.addr = alloca i64
  %b.addr = alloca i64
  store i64 %arg.a, i64* %a.addr
  store i64 %arg.b, i64* %b.addr
  %reg0 = load i64, i64* %a.addr
  %reg1 = load i64, i64* %b.addr
  %reg2 = add i64 %reg0, %reg1
  ret i64 %reg2
}

`
	assert.Equal(t, expected, ir)
}

func TestGenerateArithmetic(t *testing.T) {
	tests := []struct {
		name     string
		src      string
		contains []string
	}{
		{
			name:     "float pow and division",
			src:      "fn f(x: f64) -> f64 { return x ** 2.0 / 3.0; }",
			contains: []string{"call double @llvm.pow.f64(double %reg0, double 0x4000000000000000)", "fdiv double %reg1, 0x4008000000000000"},
		},
		{
			name:     "integer pow uses the runtime helper",
			src:      "fn f(x: i64) -> i64 { return x ** 3; }",
			contains: []string{"call i64 @tupa_pow_i64(i64 %reg0, i64 3)"},
		},
		{
			name:     "signed division and negation",
			src:      "fn f(x: i64) -> i64 { return -x / 2; }",
			contains: []string{"%reg1 = sub i64 0, %reg0", "%reg2 = sdiv i64 %reg1, 2"},
		},
		{
			name:     "float comparison",
			src:      "fn f(x: f64) -> bool { return x >= 1.5; }",
			contains: []string{"fcmp oge double %reg0, 0x3FF8000000000000"},
		},
		{
			name:     "not",
			src:      "fn f(b: bool) -> bool { return !b; }",
			contains: []string{"xor i1 %reg0, true"},
		},
		{
			name:     "short circuit and",
			src:      "fn f(a: bool, b: bool) -> bool { return a && b; }",
			contains: []string{"br i1 %reg0, label %label0, label %label1", "phi i1 [ false, %entry ], [ %reg1, %label0 ]"},
		},
		{
			name:     "short circuit or",
			src:      "fn f(a: bool, b: bool) -> bool { return a || b; }",
			contains: []string{"br i1 %reg0, label %label1, label %label0", "phi i1 [ true, %entry ]"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ir := mustGenerate(t, tt.src)
			for _, want := range tt.contains {
				assert.Contains(t, ir, want)
			}
		})
	}
}

func TestGenerateControlFlow(t *testing.T) {
	ir := mustGenerate(t, `
fn count(n: i64) -> i64 {
    let i = 0;
    while i < n {
        i += 1;
        if i == 5 { break; } else if i == 3 { continue; }
    }
    return i;
}
`)
	for _, want := range []string{
		"%i.addr = alloca i64",
		"store i64 0, i64* %i.addr",
		"br label %label0",
		"label0:",
		"icmp slt i64",
		"br i1 %reg2, label %label1, label %label2",
		"icmp eq i64",
		"br label %label2",
		"br label %label0",
		"ret i64",
	} {
		assert.Contains(t, ir, want)
	}
}

func TestGenerateCallsAndShadowing(t *testing.T) {
	ir := mustGenerate(t, `
fn main() {
    let x = sq(3);
    let x = 1.0;
    log(x);
}
fn sq(v: i64) -> i64 { return v * v; }
fn log(v: f64) { return; }
`)
	assert.Contains(t, ir, "%reg0 = call i64 @sq(i64 3)")
	assert.Contains(t, ir, "%x.addr = alloca i64")
	assert.Contains(t, ir, "%x.addr1 = alloca double")
	assert.Contains(t, ir, "call void @log(double %reg1)")
	assert.Contains(t, ir, "define void @main() {")
	assert.Contains(t, ir, "define void @log(double %arg.v) {")
}

func TestGenerateFallthroughReturnsZero(t *testing.T) {
	ir := mustGenerate(t, "fn f(c: bool) -> f64 { if c { return 1.0; } else { return 2.0; } }")
	assert.Contains(t, ir, "ret double 0.0")
}

func TestGenerateSkipsDeclarations(t *testing.T) {
	ir := mustGenerate(t, "enum E { A } trait T { fn m(x: i64); } fn main() { }")
	assert.Contains(t, ir, "; enum E has no runtime representation")
	assert.Contains(t, ir, "; trait T has no runtime representation")
	assert.Contains(t, ir, "define void @main() {\nentry:\n  ret void\n}")
}

func TestGenerateUnsupported(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"string parameter", "fn f(s: String) { }"},
		{"string literal", `fn f() { let s = "x"; }`},
		{"for loop", "fn f(xs: [i64]) { for x in xs { } }"},
		{"undeclared call", "fn f() { g(); }"},
		{"mixed arithmetic", "fn f(a: i64, b: f64) { let c = a + b; }"},
		{"if as value", "fn f(c: bool) { let v = if c { } else { }; }"},
		{"lambda", "fn f() { |x| x; }"},
		{"break outside loop", "fn f() { break; }"},
		{"match", "fn f(x: i64) { match x { _ => 1 } }"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := generate(t, tt.src)
			var uerr *UnsupportedError
			require.ErrorAs(t, err, &uerr)
			assert.Equal(t, diag.CodeGenUnsupported, uerr.ToDiagnostic().Code)
		})
	}
}
