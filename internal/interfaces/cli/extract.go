package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/turtacn/SymptomSense/internal/intelligence/symptom"
	"github.com/turtacn/SymptomSense/pkg/errors"
)

// NewExtractCmd creates the extract command.
func NewExtractCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "extract <description>",
		Short: "Show the canonical symptoms found in a description",
		Long: "Run symptom extraction only and print every match with the method\n" +
			"that produced it. Negated mentions are listed separately.",
		Example: `  symsense extract "no fever but a sore throat and burning up at night"`,
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			description := strings.TrimSpace(strings.Join(args, " "))
			if description == "" {
				return errors.InvalidParam("description must not be empty")
			}
			return runExtract(cmd, description)
		},
	}
}

func runExtract(cmd *cobra.Command, description string) error {
	cliCtx, err := GetCLIContext(cmd)
	if err != nil {
		return err
	}
	ctx, cancel := commandContext(cmd, cliCtx)
	defer cancel()

	app, err := cliCtx.NewApp(ctx)
	if err != nil {
		return err
	}
	defer app.Close()

	ex, err := app.Extractor.Analyze(ctx, description)
	if err != nil {
		return err
	}
	return PrintResult(cmd, newExtractOutput(ex))
}

type extractOutput struct {
	Symptoms  []string        `json:"symptoms"`
	Negated   []string        `json:"negated"`
	Matches   []symptom.Match `json:"matches"`
	Truncated []string        `json:"truncated,omitempty"`
}

func newExtractOutput(ex *symptom.Extraction) *extractOutput {
	out := &extractOutput{
		Symptoms:  ex.Symptoms.Sorted(),
		Negated:   ex.Negated,
		Matches:   ex.Matches,
		Truncated: ex.Truncated,
	}
	if out.Symptoms == nil {
		out.Symptoms = []string{}
	}
	if out.Negated == nil {
		out.Negated = []string{}
	}
	return out
}

func (e *extractOutput) WriteText(w io.Writer) error {
	var sb strings.Builder
	if len(e.Symptoms) == 0 {
		sb.WriteString("No symptoms detected.\n")
	} else {
		fmt.Fprintf(&sb, "Symptoms: %s\n", strings.Join(e.Symptoms, ", "))
	}
	if len(e.Negated) > 0 {
		fmt.Fprintf(&sb, "Negated:  %s\n", strings.Join(e.Negated, ", "))
	}
	if len(e.Truncated) > 0 {
		fmt.Fprintf(&sb, "Dropped:  %s\n", strings.Join(e.Truncated, ", "))
	}
	_, err := io.WriteString(w, sb.String())
	return err
}

func (e *extractOutput) TableHeaders() []string {
	return []string{"Symptom", "Method", "Evidence", "Score"}
}

func (e *extractOutput) TableRows() [][]string {
	rows := make([][]string, 0, len(e.Matches))
	for _, m := range e.Matches {
		rows = append(rows, []string{m.Symptom, string(m.Method), m.Evidence, fmt.Sprintf("%.2f", m.Score)})
	}
	return rows
}
