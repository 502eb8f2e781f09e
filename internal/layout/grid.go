package layout

import (
	"fmt"
	"strings"
)

type cell struct {
	row, col int
}

// Grid — разреженная таблица значений одного листа, координаты с 1
type Grid struct {
	cells map[cell]string
	rows  int
	cols  int
}

func NewGrid() *Grid {
	return &Grid{cells: make(map[cell]string)}
}

func (g *Grid) Set(row, col int, value string) {
	if row <= 0 || col <= 0 {
		return
	}
	g.cells[cell{row, col}] = value
	if row > g.rows {
		g.rows = row
	}
	if col > g.cols {
		g.cols = col
	}
}

func (g *Grid) Get(row, col int) (string, bool) {
	v, ok := g.cells[cell{row, col}]
	return v, ok
}

// Size — занятый прямоугольник от A1
func (g *Grid) Size() (rows, cols int) {
	return g.rows, g.cols
}

// Each обходит только заданные ячейки, порядок не гарантирован
func (g *Grid) Each(fn func(row, col int, value string)) {
	for c, v := range g.cells {
		fn(c.row, c.col, v)
	}
}

// Rows — плотный прямоугольник от A1 (внешний срез — строки),
// пропуски заполнены пустыми строками
func (g *Grid) Rows() [][]string {
	out := make([][]string, g.rows)
	for r := range out {
		out[r] = make([]string, g.cols)
	}
	for c, v := range g.cells {
		out[c.row-1][c.col-1] = v
	}
	return out
}

// A1Range — диапазон вида 'Sheet'!A1:Z10 под весь прямоугольник
func (g *Grid) A1Range(sheet string) (string, error) {
	if g.rows == 0 || g.cols == 0 {
		return "", fmt.Errorf("empty grid: %w", ErrInvalidArgument)
	}
	last, err := CellName(g.rows, g.cols)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s!A1:%s", QuoteSheet(sheet), last), nil
}

// QuoteSheet экранирует имя листа для A1-нотации
func QuoteSheet(name string) string {
	return "'" + strings.ReplaceAll(name, "'", "''") + "'"
}
