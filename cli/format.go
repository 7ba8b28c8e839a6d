package cli

import (
	"strings"
	"unicode/utf8"

	"github.com/gclaussn/go-bpmn-diagram/model"
)

func formatWarnings(warnings []model.Warning) string {
	table := newTable([]string{
		"TYPE",
		"SEVERITY",
		"ELEMENT",
		"MESSAGE",
	})

	for _, warning := range warnings {
		table.addRow([]string{
			warning.Type.String(),
			warning.Severity.String(),
			warning.ElementId,
			warning.Message,
		})
	}

	return table.format()
}

func newTable(headers []string) table {
	rows := make([][]string, 2)
	rows[0] = headers
	rows[1] = make([]string, len(headers))

	return table{rows: rows}
}

type table struct {
	rows [][]string
}

func (t *table) addRow(row []string) {
	t.rows = append(t.rows, row)
}

func (t *table) format() string {
	rows := t.rows

	columns := make([]int, len(rows[0]))
	for i := 0; i < len(rows); i++ {
		for j := 0; j < len(columns); j++ {
			l := utf8.RuneCountInString(rows[i][j])
			if columns[j] < l {
				columns[j] = l
			}
		}
	}

	var sb strings.Builder
	for i := 0; i < len(rows); i++ {
		for j := 0; j < len(columns); j++ {
			if j != 0 {
				sb.WriteString("   ")
			}

			value := rows[i][j]
			sb.WriteString(value)

			l := utf8.RuneCountInString(value)
			for k := 0; k < columns[j]-l; k++ {
				sb.WriteRune(' ')
			}
		}
		sb.WriteRune('\n')
	}

	return sb.String()
}
