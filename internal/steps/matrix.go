package steps

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/stepmath/mathsteps/internal/cas"
)

var matrixRowPattern = regexp.MustCompile(`\[([^\[\]]*)\]`)

// ParseMatrix reads a matrix literal. Bracketed rows ("[[1,2],[3,4]]")
// and semicolon-separated rows ("1,2;3,4") are both accepted. Entries
// parse as exact rationals first, then as expressions; anything else
// becomes a free symbol.
func ParseMatrix(input string) (*cas.Matrix, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return nil, errors.New("empty matrix literal")
	}
	var rows [][]cas.Expr
	if strings.Contains(input, "[") {
		inner := matrixRowPattern.FindAllStringSubmatch(input, -1)
		if len(inner) == 0 {
			return nil, fmt.Errorf("no matrix rows in %q", input)
		}
		for _, m := range inner {
			row, err := parseMatrixRow(m[1])
			if err != nil {
				return nil, err
			}
			rows = append(rows, row)
		}
	} else {
		for _, part := range strings.Split(input, ";") {
			row, err := parseMatrixRow(part)
			if err != nil {
				return nil, err
			}
			rows = append(rows, row)
		}
	}
	return cas.MatrixFromRows(rows)
}

func parseMatrixRow(raw string) ([]cas.Expr, error) {
	var row []cas.Expr
	for _, field := range strings.Split(raw, ",") {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}
		row = append(row, parseMatrixEntry(field))
	}
	if len(row) == 0 {
		return nil, fmt.Errorf("empty matrix row %q", raw)
	}
	return row, nil
}

func parseMatrixEntry(field string) cas.Expr {
	if n, ok := cas.ParseNum(field); ok {
		return n
	}
	if e, err := cas.Parse(field); err == nil {
		return e
	}
	return cas.Var(field)
}

// BuildMatrix narrates a matrix operation over a literal. For multiply
// the literal holds both operands joined by "*".
func BuildMatrix(expression, operation string) []Step {
	if operation == "" {
		operation = "determinant"
	}
	first := expression
	var second string
	if operation == "multiply" {
		if a, b, found := strings.Cut(expression, "*"); found {
			first, second = a, b
		}
	}
	m, err := ParseMatrix(first)
	if err != nil {
		return failStep("Error with matrix", expression, err)
	}

	list := []Step{{
		Title:       "Matrix",
		LaTeX:       m.LaTeX(),
		Explanation: fmt.Sprintf("Given matrix for %s calculation.", operation),
	}}

	var rest []Step
	switch operation {
	case "determinant":
		rest, err = determinantSteps(m)
	case "inverse":
		rest, err = inverseSteps(m)
	case "transpose":
		rest, err = transposeSteps(m)
	case "rref":
		rest, err = rrefSteps(m)
	case "multiply":
		if second == "" {
			return failStep("Error with matrix", expression, errors.New("expected two matrices joined by '*'"))
		}
		var m2 *cas.Matrix
		m2, err = ParseMatrix(second)
		if err == nil {
			rest, err = multiplySteps(m, m2)
		}
	default:
		rest = []Step{{
			Title:       "Unknown operation",
			LaTeX:       operation,
			Explanation: fmt.Sprintf("Operation %q not recognized.", operation),
		}}
	}
	if err != nil {
		return failStep("Error with matrix", expression, err)
	}
	return finish(append(list, rest...))
}

func determinantSteps(m *cas.Matrix) ([]Step, error) {
	if !m.IsSquare() {
		return []Step{{
			Title:       "Non-square matrix",
			LaTeX:       `\text{Determinant only defined for square matrices}`,
			Explanation: fmt.Sprintf("Matrix is %d×%d, but determinant requires n×n matrix.", m.Rows(), m.Cols()),
		}}, nil
	}

	var list []Step
	switch m.Rows() {
	case 2:
		a, b := m.Entry(0, 0), m.Entry(0, 1)
		c, d := m.Entry(1, 0), m.Entry(1, 1)
		det := cas.Subtract(cas.Prod(a, d), cas.Prod(b, c)).Simplify()
		list = append(list,
			Step{
				Title:       "For 2×2 matrix, use formula",
				LaTeX:       fmt.Sprintf(`\det(A) = %s%s - %s%s`, a.LaTeX(), d.LaTeX(), b.LaTeX(), c.LaTeX()),
				Explanation: "For a 2×2 matrix, determinant = ad - bc",
				Formula:     "2×2 determinant: det = ad - bc",
			},
			Step{
				Title: "Calculate",
				LaTeX: fmt.Sprintf(`\det(A) = (%s)(%s) - (%s)(%s) = %s`,
					a.LaTeX(), d.LaTeX(), b.LaTeX(), c.LaTeX(), det.LaTeX()),
				Explanation: "Multiply diagonals and subtract.",
				Operation:   "calculate",
			},
		)
	case 3:
		list = append(list, Step{
			Title:       "Use Rule of Sarrus or cofactor expansion",
			LaTeX:       `\det(A) = a_{11}(a_{22}a_{33} - a_{23}a_{32}) - a_{12}(a_{21}a_{33} - a_{23}a_{31}) + a_{13}(a_{21}a_{32} - a_{22}a_{31})`,
			Explanation: "For 3×3 matrix, expand along first row using minors and cofactors.",
			Formula:     "3×3 determinant using cofactor expansion",
		})
	}

	det, err := m.Det()
	if err != nil {
		return nil, err
	}
	return append(list, Step{
		Title:       "Final answer",
		LaTeX:       `\det(A) = ` + det.LaTeX(),
		Explanation: fmt.Sprintf("The determinant of the matrix is %s.", det.LaTeX()),
		Operation:   "solution",
	}), nil
}

func inverseSteps(m *cas.Matrix) ([]Step, error) {
	if !m.IsSquare() {
		return []Step{{
			Title:       "Non-square matrix",
			LaTeX:       `\text{Inverse only defined for square matrices}`,
			Explanation: fmt.Sprintf("Matrix is %d×%d, inverse only exists for n×n matrices.", m.Rows(), m.Cols()),
		}}, nil
	}
	det, err := m.Det()
	if err != nil {
		return nil, err
	}
	if isZeroNum(det) {
		return []Step{{
			Title:       "Singular matrix",
			LaTeX:       `\det(A) = 0`,
			Explanation: "The determinant is 0, so this matrix has no inverse (it's singular).",
		}}, nil
	}

	identity := cas.Identity(m.Rows())
	augmented, err := m.Augment(identity)
	if err != nil {
		return nil, err
	}
	reduced := augmented.RREF()
	inverse := reduced.ColumnSlice(m.Cols(), reduced.Cols())

	return []Step{
		{
			Title:       "Create augmented matrix [A | I]",
			LaTeX:       m.AugmentedLaTeX(identity),
			Explanation: "Create an augmented matrix with the original matrix on the left and identity matrix on the right.",
			Operation:   "setup",
		},
		{
			Title:       "Row reduce to [I | A⁻¹]",
			LaTeX:       reduced.LaTeX(),
			Explanation: "Use row operations to transform the left side into the identity matrix. The right side becomes A⁻¹.",
			Formula:     "Gauss-Jordan elimination",
			Operation:   "row_reduce",
		},
		{
			Title:       "Extract inverse",
			LaTeX:       "A^{-1} = " + inverse.LaTeX(),
			Explanation: "The right side of the reduced augmented matrix is the inverse.",
			Operation:   "solution",
		},
	}, nil
}

func transposeSteps(m *cas.Matrix) ([]Step, error) {
	t := m.Transpose()
	return []Step{
		{
			Title:       "Swap rows and columns",
			LaTeX:       m.LaTeX() + "^T",
			Explanation: "The transpose swaps rows and columns. Row i becomes column i.",
			Formula:     "Transpose: (A^T)[i,j] = A[j,i]",
		},
		{
			Title:       "Result",
			LaTeX:       "A^{T} = " + t.LaTeX(),
			Explanation: fmt.Sprintf("The transpose of the %d×%d matrix is a %d×%d matrix.", m.Rows(), m.Cols(), t.Rows(), t.Cols()),
			Operation:   "solution",
		},
	}, nil
}

func rrefSteps(m *cas.Matrix) ([]Step, error) {
	return []Step{
		{
			Title:       "Row reduce to RREF",
			LaTeX:       `\text{Reduce using Gauss-Jordan elimination}`,
			Explanation: "Use row operations to get the matrix in Reduced Row Echelon Form.",
			Formula:     "RREF: Leading 1's with zeros above and below",
		},
		{
			Title:       "RREF form",
			LaTeX:       m.RREF().LaTeX(),
			Explanation: "Each row's leading entry (leftmost non-zero) is 1, and all entries above and below are 0.",
			Operation:   "solution",
		},
	}, nil
}

func multiplySteps(a, b *cas.Matrix) ([]Step, error) {
	if a.Cols() != b.Rows() {
		return []Step{{
			Title:       "Incompatible dimensions",
			LaTeX:       fmt.Sprintf(`A: %d \times %d, \quad B: %d \times %d`, a.Rows(), a.Cols(), b.Rows(), b.Cols()),
			Explanation: fmt.Sprintf("Matrix multiplication requires columns of A (%d) to equal rows of B (%d).", a.Cols(), b.Rows()),
			Formula:     "Requirement: A[m×n] × B[n×p] = C[m×p]",
		}}, nil
	}
	product, err := a.MatMul(b)
	if err != nil {
		return nil, err
	}
	return []Step{
		{
			Title: "Matrix multiplication setup",
			LaTeX: fmt.Sprintf(`A[%d\times %d] \times B[%d\times %d] = C[%d\times %d]`,
				a.Rows(), a.Cols(), b.Rows(), b.Cols(), a.Rows(), b.Cols()),
			Explanation: fmt.Sprintf("The result will be a %d×%d matrix.", a.Rows(), b.Cols()),
			Formula:     "Result dimensions: [m×n][n×p] = [m×p]",
		},
		{
			Title:       "Compute dot products",
			LaTeX:       `C[i,j] = \sum_{k=1}^{n} A[i,k] \cdot B[k,j]`,
			Explanation: "Each element C[i,j] is the dot product of row i of A with column j of B.",
			Operation:   "define",
		},
		{
			Title:       "Result",
			LaTeX:       product.LaTeX(),
			Explanation: "The product of the two matrices.",
			Operation:   "solution",
		},
	}, nil
}
