package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/turtacn/SymptomSense/internal/application/recommendation"
	"github.com/turtacn/SymptomSense/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/SymptomSense/pkg/errors"
)

// NewPredictCmd creates the predict command.
func NewPredictCmd() *cobra.Command {
	var patientID string

	cmd := &cobra.Command{
		Use:   "predict <description>",
		Short: "Predict diseases and suggest medications for a symptom description",
		Long: "Extract symptoms from a free-text description, rank the most likely\n" +
			"diseases and list screened medication suggestions for each.",
		Example: `  symsense predict "I have had a fever and a dry cough since Monday"
  symsense predict "itchy rash on my arms" --patient p-1001 -o json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			description := strings.TrimSpace(strings.Join(args, " "))
			if description == "" {
				return errors.InvalidParam("description must not be empty")
			}
			return runPredict(cmd, description, patientID)
		},
	}

	cmd.Flags().StringVarP(&patientID, "patient", "p", "", "patient ID used to screen against recorded history")
	return cmd
}

func runPredict(cmd *cobra.Command, description, patientID string) error {
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

	res, err := app.Service.Analyze(ctx, &recommendation.AnalyzeRequest{
		Description: description,
		PatientID:   patientID,
	})
	if err != nil {
		return err
	}
	cliCtx.Logger.Debug("prediction complete",
		logging.Int("symptoms", len(res.Symptoms)),
		logging.Int("predictions", len(res.Predictions)))

	return PrintResult(cmd, &predictOutput{res})
}

// predictOutput renders an AnalyzeResult for the terminal.
type predictOutput struct {
	*recommendation.AnalyzeResult
}

func (p *predictOutput) WriteText(w io.Writer) error {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Symptoms: %s\n\n", strings.Join(p.Symptoms, ", "))

	for i, pred := range p.Predictions {
		fmt.Fprintf(&sb, "%d. %s (%.1f%%)\n", i+1, color.GreenString(pred.Disease), pred.Probability*100)
		rec := p.recommendationFor(pred.Disease)
		if rec == nil {
			continue
		}
		if len(rec.Medications) == 0 && rec.Message != "" {
			fmt.Fprintf(&sb, "   %s\n", rec.Message)
		}
		for _, med := range rec.Medications {
			fmt.Fprintf(&sb, "   - %s", med.Name)
			if med.Dosage != "" {
				fmt.Fprintf(&sb, ": %s", med.Dosage)
			}
			sb.WriteString("\n")
			if med.Instructions != "" {
				fmt.Fprintf(&sb, "     %s\n", med.Instructions)
			}
		}
	}

	if len(p.Interactions) > 0 {
		sb.WriteString("\nInteractions:\n")
		for _, it := range p.Interactions {
			fmt.Fprintf(&sb, "  [%s] %s + %s: %s\n",
				colorSeverity(it.Severity), it.Medication1, it.Medication2, it.Description)
			if it.Recommendation != "" {
				fmt.Fprintf(&sb, "    %s\n", it.Recommendation)
			}
		}
	}
	for _, warning := range p.Warnings {
		fmt.Fprintf(&sb, "%s %s\n", color.YellowString("Warning:"), warning)
	}

	_, err := io.WriteString(w, sb.String())
	return err
}

func (p *predictOutput) recommendationFor(disease string) *recommendation.DiseaseRecommendation {
	for i := range p.Recommendations {
		if p.Recommendations[i].Disease == disease {
			return &p.Recommendations[i]
		}
	}
	return nil
}

func (p *predictOutput) TableHeaders() []string {
	return []string{"Rank", "Disease", "Confidence", "Medications"}
}

func (p *predictOutput) TableRows() [][]string {
	rows := make([][]string, 0, len(p.Predictions))
	for i, pred := range p.Predictions {
		var names []string
		if rec := p.recommendationFor(pred.Disease); rec != nil {
			for _, med := range rec.Medications {
				names = append(names, med.Name)
			}
		}
		rows = append(rows, []string{
			fmt.Sprintf("%d", i+1),
			pred.Disease,
			fmt.Sprintf("%.1f%%", pred.Probability*100),
			strings.Join(names, ", "),
		})
	}
	return rows
}

func colorSeverity(severity string) string {
	switch strings.ToLower(severity) {
	case "high", "severe", "major":
		return color.RedString(severity)
	case "moderate", "medium":
		return color.YellowString(severity)
	default:
		return color.GreenString(severity)
	}
}
