package cas

import (
	"errors"
	"strings"
)

var (
	// ErrSingular marks a matrix with determinant zero.
	ErrSingular = errors.New("matrix is singular")

	// ErrNotSquare marks an operation that needs a square matrix.
	ErrNotSquare = errors.New("matrix is not square")

	// ErrDimensionMismatch marks incompatible shapes.
	ErrDimensionMismatch = errors.New("matrix dimensions do not match")
)

// Matrix is a rectangular grid of expressions. Entries are exact; a
// numeric matrix stays rational through every operation.
type Matrix struct {
	rows, cols int
	data       [][]Expr
}

func NewMatrix(rows, cols int) *Matrix {
	data := make([][]Expr, rows)
	for i := range data {
		data[i] = make([]Expr, cols)
		for j := range data[i] {
			data[i][j] = Int(0)
		}
	}
	return &Matrix{rows: rows, cols: cols, data: data}
}

// MatrixFromRows builds a matrix from row slices, rejecting ragged
// input.
func MatrixFromRows(rows [][]Expr) (*Matrix, error) {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return nil, &ComputationError{Op: "matrix", Err: errors.New("empty matrix")}
	}
	cols := len(rows[0])
	m := NewMatrix(len(rows), cols)
	for i, r := range rows {
		if len(r) != cols {
			return nil, &ComputationError{Op: "matrix", Err: errors.New("rows have unequal lengths")}
		}
		for j, e := range r {
			m.data[i][j] = e.Simplify()
		}
	}
	return m, nil
}

func Identity(n int) *Matrix {
	m := NewMatrix(n, n)
	for i := 0; i < n; i++ {
		m.data[i][i] = Int(1)
	}
	return m
}

func (m *Matrix) Rows() int           { return m.rows }
func (m *Matrix) Cols() int           { return m.cols }
func (m *Matrix) IsSquare() bool      { return m.rows == m.cols }
func (m *Matrix) Entry(i, j int) Expr { return m.data[i][j] }

func (m *Matrix) clone() *Matrix {
	out := NewMatrix(m.rows, m.cols)
	for i := range m.data {
		copy(out.data[i], m.data[i])
	}
	return out
}

func (m *Matrix) Transpose() *Matrix {
	out := NewMatrix(m.cols, m.rows)
	for i := 0; i < m.rows; i++ {
		for j := 0; j < m.cols; j++ {
			out.data[j][i] = m.data[i][j]
		}
	}
	return out
}

// MatMul returns m * other, checking the inner dimension.
func (m *Matrix) MatMul(other *Matrix) (*Matrix, error) {
	if m.cols != other.rows {
		return nil, &ComputationError{Op: "matrix_multiply", Err: ErrDimensionMismatch}
	}
	out := NewMatrix(m.rows, other.cols)
	for i := 0; i < m.rows; i++ {
		for j := 0; j < other.cols; j++ {
			terms := make([]Expr, m.cols)
			for k := 0; k < m.cols; k++ {
				terms[k] = Prod(m.data[i][k], other.data[k][j])
			}
			out.data[i][j] = Sum(terms...)
		}
	}
	return out, nil
}

// Det computes the determinant by cofactor expansion along the first
// row.
func (m *Matrix) Det() (Expr, error) {
	if !m.IsSquare() {
		return nil, &ComputationError{Op: "determinant", Err: ErrNotSquare}
	}
	return cofactorDet(m.data, m.rows), nil
}

func cofactorDet(data [][]Expr, n int) Expr {
	if n == 1 {
		return data[0][0]
	}
	if n == 2 {
		return Subtract(Prod(data[0][0], data[1][1]), Prod(data[0][1], data[1][0]))
	}
	terms := make([]Expr, 0, n)
	for j := 0; j < n; j++ {
		minor := minorOf(data, n, 0, j)
		sign := Int(1)
		if j%2 == 1 {
			sign = Int(-1)
		}
		terms = append(terms, Prod(sign, data[0][j], cofactorDet(minor, n-1)))
	}
	return Sum(terms...)
}

func minorOf(data [][]Expr, n, skipRow, skipCol int) [][]Expr {
	out := make([][]Expr, 0, n-1)
	for i := 0; i < n; i++ {
		if i == skipRow {
			continue
		}
		row := make([]Expr, 0, n-1)
		for j := 0; j < n; j++ {
			if j == skipCol {
				continue
			}
			row = append(row, data[i][j])
		}
		out = append(out, row)
	}
	return out
}

// Inverse computes the inverse by row reducing the augmented block
// [m | I]. Singular input is reported, never approximated.
func (m *Matrix) Inverse() (*Matrix, error) {
	if !m.IsSquare() {
		return nil, &ComputationError{Op: "inverse", Err: ErrNotSquare}
	}
	aug, err := m.Augment(Identity(m.rows))
	if err != nil {
		return nil, err
	}
	reduced, ok := aug.gaussJordan()
	if !ok {
		return nil, &ComputationError{Op: "inverse", Err: ErrSingular}
	}
	// The left block must have come out as the identity.
	for i := 0; i < m.rows; i++ {
		for j := 0; j < m.rows; j++ {
			want := Int(0)
			if i == j {
				want = Int(1)
			}
			if !reduced.data[i][j].Simplify().Equal(want) {
				return nil, &ComputationError{Op: "inverse", Err: ErrSingular}
			}
		}
	}
	return reduced.ColumnSlice(m.rows, 2*m.rows), nil
}

// RREF returns the reduced row echelon form.
func (m *Matrix) RREF() *Matrix {
	out, _ := m.gaussJordan()
	return out
}

// gaussJordan reduces a copy of m. ok is false when a pivot could not
// be found for some leading column, which for an [A | I] block means A
// is singular.
func (m *Matrix) gaussJordan() (*Matrix, bool) {
	out := m.clone()
	lead := 0
	fullRank := true
	for r := 0; r < out.rows && lead < out.cols; r++ {
		pivot := -1
		for i := r; i < out.rows; i++ {
			if !IsZero(out.data[i][lead]) {
				pivot = i
				break
			}
		}
		if pivot < 0 {
			if lead < out.rows {
				fullRank = false
			}
			lead++
			r--
			continue
		}
		out.data[r], out.data[pivot] = out.data[pivot], out.data[r]
		pivotVal := out.data[r][lead]
		for j := 0; j < out.cols; j++ {
			out.data[r][j] = Div(out.data[r][j], pivotVal).Simplify()
		}
		for i := 0; i < out.rows; i++ {
			if i == r || IsZero(out.data[i][lead]) {
				continue
			}
			factor := out.data[i][lead]
			for j := 0; j < out.cols; j++ {
				out.data[i][j] = Subtract(out.data[i][j], Prod(factor, out.data[r][j])).Simplify()
			}
		}
		lead++
	}
	return out, fullRank
}

// Augment places other to the right of m.
func (m *Matrix) Augment(other *Matrix) (*Matrix, error) {
	if m.rows != other.rows {
		return nil, &ComputationError{Op: "augment", Err: ErrDimensionMismatch}
	}
	out := NewMatrix(m.rows, m.cols+other.cols)
	for i := 0; i < m.rows; i++ {
		copy(out.data[i], m.data[i])
		copy(out.data[i][m.cols:], other.data[i])
	}
	return out, nil
}

// ColumnSlice returns columns [from, to).
func (m *Matrix) ColumnSlice(from, to int) *Matrix {
	out := NewMatrix(m.rows, to-from)
	for i := 0; i < m.rows; i++ {
		copy(out.data[i], m.data[i][from:to])
	}
	return out
}

// Scale multiplies every entry by s.
func (m *Matrix) Scale(s Expr) *Matrix {
	out := NewMatrix(m.rows, m.cols)
	for i := range m.data {
		for j := range m.data[i] {
			out.data[i][j] = Prod(s, m.data[i][j])
		}
	}
	return out
}

func (m *Matrix) String() string {
	var b strings.Builder
	b.WriteString("[")
	for i, row := range m.data {
		if i > 0 {
			b.WriteString("; ")
		}
		parts := make([]string, len(row))
		for j, e := range row {
			parts[j] = e.String()
		}
		b.WriteString(strings.Join(parts, ", "))
	}
	b.WriteString("]")
	return b.String()
}

func (m *Matrix) LaTeX() string {
	var b strings.Builder
	b.WriteString("\\begin{bmatrix}")
	for i, row := range m.data {
		if i > 0 {
			b.WriteString(" \\\\ ")
		}
		parts := make([]string, len(row))
		for j, e := range row {
			parts[j] = e.LaTeX()
		}
		b.WriteString(strings.Join(parts, " & "))
	}
	b.WriteString("\\end{bmatrix}")
	return b.String()
}

// AugmentedLaTeX renders [m | other] with a visible divider, for
// row-reduction displays.
func (m *Matrix) AugmentedLaTeX(other *Matrix) string {
	var b strings.Builder
	b.WriteString("\\left[\\begin{array}{")
	b.WriteString(strings.Repeat("c", m.cols))
	b.WriteString("|")
	b.WriteString(strings.Repeat("c", other.cols))
	b.WriteString("}")
	for i := 0; i < m.rows; i++ {
		if i > 0 {
			b.WriteString(" \\\\ ")
		}
		parts := make([]string, 0, m.cols+other.cols)
		for j := 0; j < m.cols; j++ {
			parts = append(parts, m.data[i][j].LaTeX())
		}
		for j := 0; j < other.cols; j++ {
			parts = append(parts, other.data[i][j].LaTeX())
		}
		b.WriteString(strings.Join(parts, " & "))
	}
	b.WriteString("\\end{array}\\right]")
	return b.String()
}

// AllRational reports whether every entry is a plain number.
func (m *Matrix) AllRational() bool {
	for _, row := range m.data {
		for _, e := range row {
			if _, ok := e.Simplify().(*Num); !ok {
				return false
			}
		}
	}
	return true
}
