package rules

import (
	"encoding/csv"
	"fmt"
	"io"
)

var docHeader = []string{"Regel navn", "Regel ID", "Beskrivelse"}

// WriteDocCSV writes the rule documentation table used by case workers.
func WriteDocCSV(w io.Writer, rules []Rule) error {
	cw := csv.NewWriter(w)
	cw.Comma = ';'

	if err := cw.Write(docHeader); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for _, rule := range rules {
		if err := cw.Write([]string{rule.Name, rule.IDString(), rule.Description}); err != nil {
			return fmt.Errorf("failed to write rule %s: %w", rule.Name, err)
		}
	}

	cw.Flush()
	return cw.Error()
}
