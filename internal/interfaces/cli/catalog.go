package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/turtacn/SymptomSense/internal/application/recommendation"
	"github.com/turtacn/SymptomSense/internal/bootstrap"
	neo4jrepo "github.com/turtacn/SymptomSense/internal/infrastructure/database/neo4j/repositories"
	pgrepo "github.com/turtacn/SymptomSense/internal/infrastructure/database/postgres/repositories"
	"github.com/turtacn/SymptomSense/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/SymptomSense/pkg/errors"
)

// catalogFiles are the inputs shared by the catalog subcommands.
type catalogFiles struct {
	medications  string
	interactions string
}

func (f *catalogFiles) bind(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.medications, "file", "f", "", "medication catalog JSON (disease -> medications)")
	cmd.Flags().StringVar(&f.interactions, "interactions", "", "drug interaction JSON array")
}

func (f *catalogFiles) validate() error {
	if f.medications == "" && f.interactions == "" {
		return errors.InvalidParam("at least one of --file or --interactions is required")
	}
	return nil
}

// NewCatalogCmd creates the catalog command group.
func NewCatalogCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Validate and import medication and interaction data",
	}

	checkFiles := &catalogFiles{}
	check := &cobra.Command{
		Use:   "check",
		Short: "Parse catalog files and print a summary without importing",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkFiles.validate(); err != nil {
				return err
			}
			summary, _, _, err := readCatalogFiles(cmd.Context(), checkFiles)
			if err != nil {
				return err
			}
			return PrintResult(cmd, summary)
		},
	}
	checkFiles.bind(check)

	importFiles := &catalogFiles{}
	imp := &cobra.Command{
		Use:   "import",
		Short: "Load medications into PostgreSQL and interactions into Neo4j",
		Long: "Upsert every medication of --file into the PostgreSQL catalog and every\n" +
			"pair of --interactions into the Neo4j interaction graph.",
		Example: `  symsense catalog import --file data/medications.json --interactions data/interactions.json`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := importFiles.validate(); err != nil {
				return err
			}
			return runCatalogImport(cmd, importFiles)
		},
	}
	importFiles.bind(imp)

	cmd.AddCommand(check, imp)
	return cmd
}

// catalogSummary counts what a catalog import would write.
type catalogSummary struct {
	Diseases     int `json:"diseases"`
	Medications  int `json:"medications"`
	Interactions int `json:"interactions"`
}

func (s *catalogSummary) TableHeaders() []string {
	return []string{"Diseases", "Medications", "Interactions"}
}

func (s *catalogSummary) TableRows() [][]string {
	return [][]string{{strconv.Itoa(s.Diseases), strconv.Itoa(s.Medications), strconv.Itoa(s.Interactions)}}
}

func readCatalogFiles(ctx context.Context, files *catalogFiles) (*catalogSummary, *recommendation.StaticCatalog, []recommendation.Interaction, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	summary := &catalogSummary{}

	var catalog *recommendation.StaticCatalog
	if files.medications != "" {
		c, err := recommendation.LoadCatalogFile(files.medications)
		if err != nil {
			return nil, nil, nil, err
		}
		diseases, _ := c.Diseases(ctx)
		for _, d := range diseases {
			meds, _ := c.MedicationsFor(ctx, d)
			summary.Medications += len(meds)
		}
		summary.Diseases = len(diseases)
		catalog = c
	}

	var interactions []recommendation.Interaction
	if files.interactions != "" {
		list, err := loadInteractionsFile(files.interactions)
		if err != nil {
			return nil, nil, nil, err
		}
		summary.Interactions = len(list)
		interactions = list
	}
	return summary, catalog, interactions, nil
}

func loadInteractionsFile(path string) ([]recommendation.Interaction, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeBadRequest, "read interactions file").WithDetail(path)
	}
	var list []recommendation.Interaction
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSerialization, "decode interactions file").WithDetail(path)
	}
	for i, it := range list {
		if it.Medication1 == "" || it.Medication2 == "" {
			return nil, errors.Newf(errors.ErrCodeValidation, "interaction %d: both medications are required", i)
		}
	}
	return list, nil
}

func runCatalogImport(cmd *cobra.Command, files *catalogFiles) error {
	cliCtx, err := GetCLIContext(cmd)
	if err != nil {
		return err
	}
	ctx, cancel := commandContext(cmd, cliCtx)
	defer cancel()

	// Parse everything before touching a store.
	_, catalog, interactions, err := readCatalogFiles(ctx, files)
	if err != nil {
		return err
	}
	cfg := cliCtx.Config
	log := cliCtx.Logger

	if catalog != nil {
		conn, err := bootstrap.ConnectPostgres(ctx, cfg.Database.Postgres, log)
		if err != nil {
			return err
		}
		defer conn.Close()
		n, err := pgrepo.NewMedicationRepo(conn, log).Import(ctx, catalog)
		if err != nil {
			return err
		}
		log.Info("medication catalog imported", logging.Int("medications", n))
		PrintSuccess(cmd, fmt.Sprintf("imported %d medication(s)", n))
	}

	if interactions != nil {
		drv, err := bootstrap.ConnectNeo4j(ctx, cfg.Database.Neo4j, log)
		if err != nil {
			return err
		}
		defer drv.Close()
		repo := neo4jrepo.NewInteractionRepo(drv, log)
		if err := repo.EnsureSchema(ctx); err != nil {
			return err
		}
		n, err := repo.Import(ctx, interactions)
		if err != nil {
			return err
		}
		log.Info("drug interactions imported", logging.Int("interactions", n))
		PrintSuccess(cmd, fmt.Sprintf("imported %d interaction(s)", n))
	}
	return nil
}
