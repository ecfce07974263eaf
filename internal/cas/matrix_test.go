package cas

import (
	"errors"
	"testing"
)

func mustMatrix(t *testing.T, rows [][]int64) *Matrix {
	t.Helper()
	exprRows := make([][]Expr, len(rows))
	for i, r := range rows {
		exprRows[i] = make([]Expr, len(r))
		for j, v := range r {
			exprRows[i][j] = Int(v)
		}
	}
	m, err := MatrixFromRows(exprRows)
	if err != nil {
		t.Fatalf("MatrixFromRows error = %v", err)
	}
	return m
}

func TestMatrix_Det(t *testing.T) {
	t.Run("two_by_two", func(t *testing.T) {
		m := mustMatrix(t, [][]int64{{1, 2}, {3, 4}})
		det, err := m.Det()
		if err != nil {
			t.Fatalf("Det error = %v", err)
		}
		if got := det.String(); got != "-2" {
			t.Errorf("det = %q, want -2", got)
		}
	})
	t.Run("three_by_three", func(t *testing.T) {
		m := mustMatrix(t, [][]int64{{2, 0, 0}, {0, 3, 0}, {0, 0, 4}})
		det, err := m.Det()
		if err != nil {
			t.Fatalf("Det error = %v", err)
		}
		if got := det.String(); got != "24" {
			t.Errorf("det = %q, want 24", got)
		}
	})
	t.Run("not_square", func(t *testing.T) {
		m := mustMatrix(t, [][]int64{{1, 2, 3}, {4, 5, 6}})
		if _, err := m.Det(); !errors.Is(err, ErrNotSquare) {
			t.Errorf("error = %v, want ErrNotSquare", err)
		}
	})
}

func TestMatrix_Inverse(t *testing.T) {
	t.Run("diagonal", func(t *testing.T) {
		m := mustMatrix(t, [][]int64{{2, 0}, {0, 4}})
		inv, err := m.Inverse()
		if err != nil {
			t.Fatalf("Inverse error = %v", err)
		}
		want := [][]string{{"1/2", "0"}, {"0", "1/4"}}
		for i := 0; i < 2; i++ {
			for j := 0; j < 2; j++ {
				if got := inv.Entry(i, j).String(); got != want[i][j] {
					t.Errorf("inv[%d][%d] = %q, want %q", i, j, got, want[i][j])
				}
			}
		}
	})
	t.Run("general", func(t *testing.T) {
		m := mustMatrix(t, [][]int64{{1, 2}, {3, 4}})
		inv, err := m.Inverse()
		if err != nil {
			t.Fatalf("Inverse error = %v", err)
		}
		// Multiplying back must give the identity exactly.
		prod, err := m.MatMul(inv)
		if err != nil {
			t.Fatalf("MatMul error = %v", err)
		}
		id := Identity(2)
		for i := 0; i < 2; i++ {
			for j := 0; j < 2; j++ {
				if !prod.Entry(i, j).Simplify().Equal(id.Entry(i, j)) {
					t.Errorf("m*inv[%d][%d] = %q, want identity entry", i, j, prod.Entry(i, j))
				}
			}
		}
	})
	t.Run("singular", func(t *testing.T) {
		m := mustMatrix(t, [][]int64{{1, 2}, {2, 4}})
		if _, err := m.Inverse(); !errors.Is(err, ErrSingular) {
			t.Errorf("error = %v, want ErrSingular", err)
		}
	})
}

func TestMatrix_MatMul(t *testing.T) {
	t.Run("shapes_compose", func(t *testing.T) {
		a := mustMatrix(t, [][]int64{{1, 2}, {3, 4}})
		b := mustMatrix(t, [][]int64{{5}, {6}})
		p, err := a.MatMul(b)
		if err != nil {
			t.Fatalf("MatMul error = %v", err)
		}
		if p.Rows() != 2 || p.Cols() != 1 {
			t.Fatalf("product shape = %dx%d, want 2x1", p.Rows(), p.Cols())
		}
		if p.Entry(0, 0).String() != "17" || p.Entry(1, 0).String() != "39" {
			t.Errorf("product = %s, want [17; 39]", p)
		}
	})
	t.Run("inner_dimension_mismatch", func(t *testing.T) {
		a := mustMatrix(t, [][]int64{{1, 2}})
		b := mustMatrix(t, [][]int64{{1, 2}})
		if _, err := a.MatMul(b); !errors.Is(err, ErrDimensionMismatch) {
			t.Errorf("error = %v, want ErrDimensionMismatch", err)
		}
	})
}

func TestMatrix_RREF(t *testing.T) {
	m := mustMatrix(t, [][]int64{{1, 2}, {2, 4}})
	r := m.RREF()
	want := [][]string{{"1", "2"}, {"0", "0"}}
	for i := 0; i < 2; i++ {
		for j := 0; j < 2; j++ {
			if got := r.Entry(i, j).String(); got != want[i][j] {
				t.Errorf("rref[%d][%d] = %q, want %q", i, j, got, want[i][j])
			}
		}
	}
}

func TestMatrix_Transpose(t *testing.T) {
	m := mustMatrix(t, [][]int64{{1, 2, 3}, {4, 5, 6}})
	tr := m.Transpose()
	if tr.Rows() != 3 || tr.Cols() != 2 {
		t.Fatalf("transpose shape = %dx%d, want 3x2", tr.Rows(), tr.Cols())
	}
	if tr.Entry(0, 1).String() != "4" || tr.Entry(2, 0).String() != "3" {
		t.Errorf("transpose = %s", tr)
	}
}

func TestMatrix_Rendering(t *testing.T) {
	m := mustMatrix(t, [][]int64{{1, 2}, {3, 4}})
	if got := m.String(); got != "[1, 2; 3, 4]" {
		t.Errorf("String() = %q", got)
	}
	wantTeX := "\\begin{bmatrix}1 & 2 \\\\ 3 & 4\\end{bmatrix}"
	if got := m.LaTeX(); got != wantTeX {
		t.Errorf("LaTeX() = %q, want %q", got, wantTeX)
	}
}
