package parser

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tupa-lang/tupa/internal/ast"
	"github.com/tupa-lang/tupa/internal/diag"
	"github.com/tupa-lang/tupa/internal/lexer"
)

func TestParseExpressions(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"1 + 2 * 3", "(+ 1 (* 2 3))"},
		{"(1 + 2) * 3", "(* (+ 1 2) 3)"},
		{"1 - 2 - 3", "(- (- 1 2) 3)"},
		{"2 ** 3 ** 2", "(** 2 (** 3 2))"},
		{"a || b && c", "(|| a (&& b c))"},
		{"a == b < c", "(== a (< b c))"},
		{"0..n + 1", "(.. 0 (+ n 1))"},
		{"-x.y", "(- (. x y))"},
		{"!done", "(! done)"},
		{"-9223372036854775808", "-9223372036854775808"},
		{"-9223372036854775807", "(- 9223372036854775807)"},
		{"x - -9223372036854775808", "(- x -9223372036854775808)"},
		{"f(1, 2)[0].name", "(. (index (call f 1 2) 0) name)"},
		{"t.0.1", "(. (. t 0) 1)"},
		{"t.2", "(. t 2)"},
		{"|x, y| x + y", "(lambda (x y) (+ x y))"},
		{"|| 1", "(lambda () 1)"},
		{"await fetch()", "(await (call fetch))"},
		{"[1, 2, 3,]", "[1 2 3]"},
		{`"hi"`, `"hi"`},
		{"1.5", "1.5"},
		{"null", "null"},
		{"if a { 1 } else if b { 2 } else { 3 }", "(if a {1} (if b {2} {3}))"},
		{"match x { 0 => a, n if n > 1 => b, _ => c }", "(match x (0 => a) (n if (> n 1) => b) (_ => c))"},
		{"match p { Pair(a, -1) => a, (x, true) => x }", "(match p ((Pair a -1) => a) ((tuple x true) => x))"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			expr, err := ParseExpr(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, ast.Format(expr))
		})
	}
}

func TestParseStatements(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "index assignment versus index",
			input:    "fn main() { a[0] = 1; a[0]; }",
			expected: "(fn main () {([]= a 0 1); (index a 0)})",
		},
		{
			name:     "compound assignment",
			input:    "fn main() { x += 2; y *= x; }",
			expected: "(fn main () {(= x (+ x 2)); (= y (* y x))})",
		},
		{
			name:     "let and return",
			input:    "fn main() -> i64 { let x: i64 = 1; return x; }",
			expected: "(fn main () -> i64 {(let x: i64 1); (return x)})",
		},
		{
			name:     "loops",
			input:    "fn main() { while x < 3 { x += 1; } for i in xs { break; } }",
			expected: "(fn main () {(while (< x 3) {(= x (+ x 1))}); (for i xs {break})})",
		},
		{
			name:     "lambda statement",
			input:    "fn main() { |x| x * 2; }",
			expected: "(fn main () {(lambda (x) (* x 2))})",
		},
		{
			name:     "trailing expression",
			input:    "fn main() -> i64 { 1 + 2 }",
			expected: "(fn main () -> i64 {(+ 1 2)})",
		},
		{
			name:     "if statement needs no semicolon",
			input:    "fn main() { if ok { go(); } stop(); }",
			expected: "(fn main () {(if ok {(call go)}); (call stop)})",
		},
		{
			name:     "bare block",
			input:    "fn main() { { a; }; b; }",
			expected: "(fn main () {{a}; b})",
		},
		{
			name:     "return before brace",
			input:    "fn main() { return }",
			expected: "(fn main () {(return)})",
		},
		{
			name:     "enum and trait",
			input:    "enum Option<T> { Some(T), None } trait Show { fn show(x: i64) -> String; fn id(x: i64) -> i64 { return x; } }",
			expected: "(enum Option<T> Some(T) None)\n(trait Show (fn show (x: i64) -> String) (fn id (x: i64) -> i64 {(return x)}))",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prog, err := ParseProgram(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, ast.Format(prog))
		})
	}
}

func TestParseTypes(t *testing.T) {
	src := "fn f(a: Safe<f64, !nan, !inf>, b: [i64; 3], c: [bool], d: fn(i64) -> bool, e: Vec<f64>, g: ()) -> (i64, f64) { return g; }"
	prog, err := ParseProgram(src)
	require.NoError(t, err)

	fn := prog.Function("f")
	require.NotNil(t, fn)
	var got []string
	for _, p := range fn.Params {
		got = append(got, ast.TypeString(p.Type))
	}
	assert.Equal(t, []string{
		"Safe<f64, !nan, !inf>",
		"[i64; 3]",
		"[bool]",
		"fn(i64) -> bool",
		"Vec<f64>",
		"()",
	}, got)
	assert.Equal(t, "(i64, f64)", ast.TypeString(fn.ReturnType))

	safe, ok := fn.Params[0].Type.(*ast.SafeType)
	require.True(t, ok)
	assert.Equal(t, []string{"nan", "inf"}, safe.Constraints)
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		kind  ErrorKind
		span  lexer.Span
	}{
		{"missing semicolon", "fn main() { let x = 1; x + 1 let y = 2; }", ErrMissingSemicolon, lexer.Span{Start: 23, End: 28}},
		{"unexpected token", "fn main() { let = 1; }", ErrUnexpected, lexer.Span{Start: 16, End: 17}},
		{"chained index assignment", "fn main() { a[0][1] = 2; }", ErrMissingSemicolon, lexer.Span{Start: 12, End: 19}},
		{"safe without constraint", "fn f(a: Safe<f64>) {}", ErrUnexpected, lexer.Span{Start: 16, End: 17}},
		{"item expected", "let x = 1;", ErrUnexpected, lexer.Span{Start: 0, End: 3}},
		{"integer overflow", "fn main() { let x = 99999999999999999999; }", ErrUnexpected, lexer.Span{Start: 20, End: 40}},
		{"i64 min without sign", "fn main() { let x = 9223372036854775808; }", ErrUnexpected, lexer.Span{Start: 20, End: 39}},
		{"negative overflow", "fn main() { let x = -99999999999999999999; }", ErrUnexpected, lexer.Span{Start: 21, End: 41}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseProgram(tt.input)
			var perr *ParseError
			require.ErrorAs(t, err, &perr)
			assert.Equal(t, tt.kind, perr.Kind)
			assert.Equal(t, tt.span, perr.Span)
		})
	}
}

func TestParseUnexpectedEOF(t *testing.T) {
	for _, src := range []string{
		"fn main() { let x = 1;",
		"fn main() { let x = ",
		"fn main() { x + 1",
		"fn main(",
	} {
		_, err := ParseProgram(src)
		var perr *ParseError
		require.ErrorAs(t, err, &perr, src)
		assert.Equal(t, ErrEOF, perr.Kind, src)
		assert.Equal(t, len(src), perr.Offset, src)
	}
}

func TestParseLexerError(t *testing.T) {
	_, err := ParseProgram(`fn main() { let s = "abc; }`)
	var perr *ParseError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, ErrLexer, perr.Kind)

	var lexErr *lexer.LexError
	require.True(t, errors.As(err, &lexErr))
	assert.Equal(t, 20, lexErr.Offset)
}

func TestParseErrorDiagnostics(t *testing.T) {
	_, err := ParseProgram("fn main() { x + 1 y }")
	var perr *ParseError
	require.ErrorAs(t, err, &perr)
	d := perr.ToDiagnostic()
	assert.Equal(t, diag.CodeParseMissingSemicolon, d.Code)
	assert.Equal(t, 12, d.Span.Start)
	assert.Equal(t, 17, d.Span.End)
}

const sampleProgram = `
enum Shape { Circle(f64), Square(f64) }

fn area(s: Shape) -> f64 {
    match s {
        Circle(r) => 3.14 * r ** 2,
        Square(w) => w * w,
    }
}

fn main() {
    let xs = [1, 2, 3];
    let total = 0;
    for x in xs {
        total += x;
    }
    xs[0] = (total + 1) * 2;
    let f = |a, b| a + b;
    if total > 3 && !false {
        print(f(total, 1));
    } else {
        print(t.0.1);
    }
}
`

func TestSpansNest(t *testing.T) {
	prog, err := ParseProgram(sampleProgram)
	require.NoError(t, err)

	var check func(n ast.Node)
	check = func(n ast.Node) {
		for _, child := range ast.Children(n) {
			assert.True(t, n.Span().Contains(child.Span()),
				"%T %v does not contain %T %v", n, n.Span(), child, child.Span())
			check(child)
		}
	}
	check(prog)
}

func TestParseIsDeterministic(t *testing.T) {
	first, err := ParseProgram(sampleProgram)
	require.NoError(t, err)
	second, err := ParseProgram(sampleProgram)
	require.NoError(t, err)

	assert.Equal(t, ast.Format(first), ast.Format(second))

	a, err := json.Marshal(first)
	require.NoError(t, err)
	b, err := json.Marshal(second)
	require.NoError(t, err)
	assert.JSONEq(t, string(a), string(b))
}
