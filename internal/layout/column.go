package layout

import (
	"errors"
	"fmt"
	"strings"
)

var ErrInvalidArgument = errors.New("invalid argument")

// ColumnLabel переводит номер колонки (с 1) в буквенное имя: 1→A, 26→Z, 27→AA.
// Биективная 26-ричная запись: нуля нет, поэтому на каждом шаге берём n-1.
func ColumnLabel(n int) (string, error) {
	if n <= 0 {
		return "", fmt.Errorf("column %d: %w", n, ErrInvalidArgument)
	}

	var label []byte
	for n > 0 {
		n--
		label = append([]byte{byte('A' + n%26)}, label...)
		n /= 26
	}

	return string(label), nil
}

// CellName — A1-нотация для (row, col), обе координаты с 1
func CellName(row, col int) (string, error) {
	if row <= 0 {
		return "", fmt.Errorf("row %d: %w", row, ErrInvalidArgument)
	}
	label, err := ColumnLabel(col)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s%d", label, row), nil
}

// ColumnNumber — обратное к ColumnLabel: A→1, Z→26, AA→27 (регистр не важен)
func ColumnNumber(label string) (int, error) {
	if label == "" {
		return 0, fmt.Errorf("empty column label: %w", ErrInvalidArgument)
	}

	n := 0
	for _, r := range strings.ToUpper(label) {
		if r < 'A' || r > 'Z' {
			return 0, fmt.Errorf("column label %q: %w", label, ErrInvalidArgument)
		}
		n = n*26 + int(r-'A'+1)
	}

	return n, nil
}
