package sheetsclient

import (
	"fmt"
	"strings"

	"github.com/jakechorley/volunteer-events/pkg/core/model"
)

// Sheets rejects tab titles longer than this
const maxTabTitle = 100

var rosterHeader = []string{"Name", "Email", "Phone", "Status", "Applied", "Message"}

// PublishRoster writes an event roster to its own tab.
// A missing tab is created. An existing tab is overwritten in the roster
// columns while any columns organizers added to the right are kept, matched
// to rows by email.
func (c *Client) PublishRoster(spreadsheetID string, roster *model.Roster) error {
	title := rosterTabTitle(roster)

	exists, err := c.hasSheet(spreadsheetID, title)
	if err != nil {
		return err
	}

	var existing [][]interface{}
	if exists {
		existing, err = c.GetValues(spreadsheetID, fmt.Sprintf("'%s'!A1:ZZ", title))
		if err != nil {
			return fmt.Errorf("failed to read existing roster tab: %w", err)
		}
	} else if _, err := c.CreateSheet(spreadsheetID, title); err != nil {
		return fmt.Errorf("failed to create roster tab: %w", err)
	}

	values := rosterValues(roster, existing)
	if err := c.WriteValues(spreadsheetID, fmt.Sprintf("'%s'!A1", title), values); err != nil {
		return fmt.Errorf("failed to write roster tab: %w", err)
	}

	return nil
}

// rosterTabTitle is "Sat Mar 16 2030 - <event title>", cut to the sheets limit
func rosterTabTitle(roster *model.Roster) string {
	title := fmt.Sprintf("%s - %s", roster.EventDate.Format("Mon Jan 02 2006"), roster.EventTitle)
	// single quotes would break A1 range notation
	title = strings.ReplaceAll(title, "'", "")
	if r := []rune(title); len(r) > maxTabTitle {
		title = string(r[:maxTabTitle])
	}
	return title
}

// rosterValues builds the full tab contents. Extra columns found in existing
// (beyond the roster header) are carried over for volunteers still listed.
// Rows for volunteers no longer on the roster are blanked so a shorter roster
// fully replaces a longer one.
func rosterValues(roster *model.Roster, existing [][]interface{}) [][]interface{} {
	var extraHeader []interface{}
	extras := map[string][]interface{}{}
	if len(existing) > 0 && len(existing[0]) > len(rosterHeader) {
		extraHeader = existing[0][len(rosterHeader):]
		emailCol := findColumnIndex(existing[0], "Email")
		for _, row := range existing[1:] {
			if emailCol == -1 || emailCol >= len(row) || len(row) <= len(rosterHeader) {
				continue
			}
			if email, ok := row[emailCol].(string); ok && email != "" {
				extras[email] = row[len(rosterHeader):]
			}
		}
	}

	width := len(rosterHeader) + len(extraHeader)

	header := make([]interface{}, 0, width)
	for _, h := range rosterHeader {
		header = append(header, h)
	}
	header = append(header, extraHeader...)

	values := [][]interface{}{header}
	for _, r := range roster.Rows {
		row := make([]interface{}, width)
		copy(row, []interface{}{r.Name, r.Email, r.Phone, string(r.Status), r.AppliedAt, r.Message})
		for i := len(rosterHeader); i < width; i++ {
			row[i] = ""
		}
		copy(row[len(rosterHeader):], extras[r.Email])
		values = append(values, row)
	}

	for i := len(values); i < len(existing); i++ {
		blank := make([]interface{}, width)
		for j := range blank {
			blank[j] = ""
		}
		values = append(values, blank)
	}

	return values
}

// findColumnIndex finds the index of a column by its header name
func findColumnIndex(header []interface{}, columnName string) int {
	for i, cell := range header {
		if str, ok := cell.(string); ok && str == columnName {
			return i
		}
	}
	return -1
}
