package extract

import "strings"

// CSV renders rows as comma-separated text. A cell is quoted only when it
// contains a comma, a double quote or a newline; quotes are doubled.
// Rows are joined by "\n" with no trailing newline.
func CSV(rows [][]string) string {
	var sb strings.Builder
	for i, row := range rows {
		if i > 0 {
			sb.WriteByte('\n')
		}
		for j, cell := range row {
			if j > 0 {
				sb.WriteByte(',')
			}
			if strings.ContainsAny(cell, ",\"\n") {
				sb.WriteByte('"')
				sb.WriteString(strings.ReplaceAll(cell, `"`, `""`))
				sb.WriteByte('"')
			} else {
				sb.WriteString(cell)
			}
		}
	}
	return sb.String()
}
