package commands

import (
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCommandLine(t *testing.T) {
	tests := []struct {
		name    string
		line    string
		want    []string
		wantErr bool
	}{
		{"plain", "listEvents --city Berlin", []string{"listEvents", "--city", "Berlin"}, false},
		{"double quotes", `listEvents --search "beach clean"`, []string{"listEvents", "--search", "beach clean"}, false},
		{"single quotes", `createAccount 'anna k' a@example.com`, []string{"createAccount", "anna k", "a@example.com"}, false},
		{"empty quoted arg", `listEvents --city ""`, []string{"listEvents", "--city", ""}, false},
		{"extra spaces", "  seedSkills   ", []string{"seedSkills"}, false},
		{"unclosed quote", `listEvents --search "beach`, nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseCommandLine(tt.line)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRunSession_ResetsFlagsBetweenCommands(t *testing.T) {
	var seen []string
	cmd := &cobra.Command{
		Use:  "echoCity",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			city, _ := cmd.Flags().GetString("city")
			seen = append(seen, city)
			return nil
		},
	}
	cmd.Flags().String("city", "anywhere", "")

	input := strings.Join([]string{
		`echoCity --city "Bad Homburg"`,
		"echoCity",
		"echoCity extra-arg",
		"unknown",
		"exit",
		"echoCity --city never",
	}, "\n")

	err := runSession(strings.NewReader(input), map[string]*cobra.Command{"echoCity": cmd})
	require.NoError(t, err)
	assert.Equal(t, []string{"Bad Homburg", "anywhere"}, seen)
}
