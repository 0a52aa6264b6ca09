package main

import (
	"fmt"
	"strings"

	"github.com/mattn/go-runewidth"
)

// printRows renders a range/ascend/descend result as a two-column table,
// padding the key column to the widest rendered key so values line up
// even when keys vary in display width.
func printRows(rows []record) {
	if len(rows) == 0 {
		fmt.Println("(empty)")
		return
	}

	width := 0

	keys := make([]string, len(rows))
	for i, row := range rows {
		keys[i] = fmt.Sprintf("%d", row.Key)
		if w := runewidth.StringWidth(keys[i]); w > width {
			width = w
		}
	}

	for i, row := range rows {
		pad := width - runewidth.StringWidth(keys[i])
		fmt.Printf("  %s%s -> %d\n", keys[i], strings.Repeat(" ", pad), row.Value)
	}
}
