package cli

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/turtacn/SymptomSense/internal/bootstrap"
	minioclient "github.com/turtacn/SymptomSense/internal/infrastructure/storage/minio"
	"github.com/turtacn/SymptomSense/internal/intelligence/disease"
	"github.com/turtacn/SymptomSense/pkg/errors"
)

// NewModelCmd creates the model command group.
func NewModelCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "model",
		Short: "Inspect and publish disease model artifacts",
	}

	var checkFile string
	check := &cobra.Command{
		Use:   "check",
		Short: "Validate a model artifact and print its shape",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if checkFile == "" {
				return errors.InvalidParam("--file is required")
			}
			_, model, err := readArtifact(checkFile)
			if err != nil {
				return err
			}
			return PrintResult(cmd, newModelSummary(model))
		},
	}
	check.Flags().StringVarP(&checkFile, "file", "f", "", "model artifact JSON")

	var pushFile, object string
	push := &cobra.Command{
		Use:   "push",
		Short: "Validate a model artifact and upload it to MinIO",
		Long: "Upload a validated artifact to the configured bucket. Running services\n" +
			"pick it up on their next load.",
		Example: `  symsense model push --file build/disease_predictor.json`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if pushFile == "" {
				return errors.InvalidParam("--file is required")
			}
			return runModelPush(cmd, pushFile, object)
		},
	}
	push.Flags().StringVarP(&pushFile, "file", "f", "", "model artifact JSON")
	push.Flags().StringVar(&object, "object", "", "object name (overrides model.object)")

	cmd.AddCommand(check, push)
	return cmd
}

// readArtifact returns the raw bytes of path after checking they decode to
// a valid model.
func readArtifact(path string) ([]byte, *disease.ModelArtifact, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, errors.Wrap(err, errors.ErrCodeBadRequest, "read model artifact").WithDetail(path)
	}
	model, err := disease.DecodeArtifact(bytes.NewReader(data))
	if err != nil {
		return nil, nil, err
	}
	return data, model, nil
}

func runModelPush(cmd *cobra.Command, path, object string) error {
	cliCtx, err := GetCLIContext(cmd)
	if err != nil {
		return err
	}
	ctx, cancel := commandContext(cmd, cliCtx)
	defer cancel()

	data, _, err := readArtifact(path)
	if err != nil {
		return err
	}
	if object == "" {
		object = cliCtx.Config.Model.Object
	}

	client, err := bootstrap.ConnectMinIO(ctx, cliCtx.Config.MinIO, cliCtx.Logger)
	if err != nil {
		return err
	}
	defer client.Close()

	info, err := minioclient.NewArtifactStore(client, object, cliCtx.Logger).
		Upload(ctx, bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return err
	}
	PrintSuccess(cmd, fmt.Sprintf("uploaded %s/%s (%d bytes, etag %s)", info.Bucket, info.Key, info.Size, info.ETag))
	return nil
}

type modelSummary struct {
	Type     string   `json:"type"`
	Features int      `json:"features"`
	Labels   []string `json:"labels"`
}

func newModelSummary(m *disease.ModelArtifact) *modelSummary {
	return &modelSummary{
		Type:     m.Type,
		Features: len(m.FeatureNames),
		Labels:   m.LabelNames,
	}
}

func (s *modelSummary) WriteText(w io.Writer) error {
	_, err := fmt.Fprintf(w, "Type:     %s\nFeatures: %d\nLabels:   %s\n", s.Type, s.Features, strings.Join(s.Labels, ", "))
	return err
}

func (s *modelSummary) TableHeaders() []string { return []string{"Type", "Features", "Labels"} }

func (s *modelSummary) TableRows() [][]string {
	return [][]string{{s.Type, strconv.Itoa(s.Features), strconv.Itoa(len(s.Labels))}}
}
