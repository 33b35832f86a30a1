package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/turtacn/SymptomSense/internal/intelligence/disease"
	"github.com/turtacn/SymptomSense/internal/intelligence/symptom"
)

// NewVocabCmd creates the vocab command.
func NewVocabCmd() *cobra.Command {
	var strict bool

	cmd := &cobra.Command{
		Use:   "vocab",
		Short: "Compare the synonym table with the model vocabulary",
		Long: "Load the configured synonym table and model and report symptoms the\n" +
			"model ignores and model features extraction can never produce.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVocab(cmd, strict)
		},
	}

	cmd.Flags().BoolVar(&strict, "strict", false, "exit with an error when any gap is found")
	return cmd
}

func runVocab(cmd *cobra.Command, strict bool) error {
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

	model, err := app.Models.Get(ctx)
	if err != nil {
		return err
	}

	extra := make([]string, 0, len(symptom.DefaultCompoundRules))
	for _, rule := range symptom.DefaultCompoundRules {
		extra = append(extra, rule.Symptom)
	}
	report := &vocabOutput{disease.CompareVocabulary(app.Tables.Table(), model.FeatureNames, extra)}

	if err := PrintResult(cmd, report); err != nil {
		return err
	}
	if strict && report.gaps() > 0 {
		return fmt.Errorf("vocabulary check failed: %d gaps", report.gaps())
	}
	return nil
}

type vocabOutput struct {
	disease.VocabularyReport
}

func (v *vocabOutput) gaps() int { return len(v.Unmapped) + len(v.Unreachable) }

func (v *vocabOutput) WriteText(w io.Writer) error {
	var sb strings.Builder
	if v.gaps() == 0 {
		sb.WriteString(color.GreenString("Synonym table and model vocabulary agree.") + "\n")
	}
	if len(v.Unmapped) > 0 {
		fmt.Fprintf(&sb, "%s (%d): %s\n", color.YellowString("Not in model"), len(v.Unmapped), strings.Join(v.Unmapped, ", "))
	}
	if len(v.Unreachable) > 0 {
		fmt.Fprintf(&sb, "%s (%d): %s\n", color.YellowString("Never extracted"), len(v.Unreachable), strings.Join(v.Unreachable, ", "))
	}
	_, err := io.WriteString(w, sb.String())
	return err
}

func (v *vocabOutput) TableHeaders() []string { return []string{"Name", "Gap"} }

func (v *vocabOutput) TableRows() [][]string {
	rows := make([][]string, 0, v.gaps())
	for _, s := range v.Unmapped {
		rows = append(rows, []string{s, "not in model"})
	}
	for _, f := range v.Unreachable {
		rows = append(rows, []string{f, "never extracted"})
	}
	return rows
}
