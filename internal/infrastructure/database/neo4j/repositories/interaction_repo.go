// Package repositories implements the drug interaction graph on Neo4j.
//
// Medications are (:Medication {key, name}) nodes keyed by lower-cased
// name; an interaction is an undirected [:INTERACTS_WITH] relationship
// carrying severity, description and recommendation.
package repositories

import (
	"context"
	"strings"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/turtacn/SymptomSense/internal/application/recommendation"
	driver "github.com/turtacn/SymptomSense/internal/infrastructure/database/neo4j"
	"github.com/turtacn/SymptomSense/internal/infrastructure/monitoring/logging"
)

const (
	findInteractionCypher = `
		MATCH (a:Medication {key: $a})-[r:INTERACTS_WITH]-(b:Medication {key: $b})
		RETURN r.severity AS severity, r.description AS description, r.recommendation AS recommendation
		LIMIT 1`

	mergeInteractionCypher = `
		MERGE (a:Medication {key: $a}) ON CREATE SET a.name = $nameA
		MERGE (b:Medication {key: $b}) ON CREATE SET b.name = $nameB
		MERGE (a)-[r:INTERACTS_WITH]-(b)
		SET r.severity = $severity, r.description = $description, r.recommendation = $recommendation`

	medicationKeyConstraint = `CREATE CONSTRAINT medication_key IF NOT EXISTS FOR (m:Medication) REQUIRE m.key IS UNIQUE`
)

type InteractionRepo struct {
	driver driver.DriverInterface
	log    logging.Logger
}

func NewInteractionRepo(d driver.DriverInterface, log logging.Logger) *InteractionRepo {
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &InteractionRepo{driver: d, log: log}
}

func medicationKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// FindInteraction implements recommendation.InteractionRepository.
func (r *InteractionRepo) FindInteraction(ctx context.Context, a, b string) (*recommendation.Interaction, bool, error) {
	params := map[string]any{"a": medicationKey(a), "b": medicationKey(b)}
	out, err := r.driver.ExecuteRead(ctx, func(tx driver.Transaction) (interface{}, error) {
		res, err := tx.Run(ctx, findInteractionCypher, params)
		if err != nil {
			return nil, err
		}
		it, ok, err := driver.First(ctx, res, mapInteraction)
		if err != nil || !ok {
			return nil, err
		}
		return it, nil
	})
	if err != nil {
		return nil, false, err
	}
	it, _ := out.(*recommendation.Interaction)
	if it == nil {
		return nil, false, nil
	}
	it.Medication1, it.Medication2 = a, b
	return it, true, nil
}

func mapInteraction(rec *neo4j.Record) *recommendation.Interaction {
	return &recommendation.Interaction{
		Severity:       recordString(rec, "severity"),
		Description:    recordString(rec, "description"),
		Recommendation: recordString(rec, "recommendation"),
	}
}

// recordString returns "" for missing or null properties.
func recordString(rec *neo4j.Record, key string) string {
	v, ok := rec.Get(key)
	if !ok {
		return ""
	}
	s, _ := v.(string)
	return s
}

// EnsureSchema creates the medication key constraint.
func (r *InteractionRepo) EnsureSchema(ctx context.Context) error {
	_, err := r.driver.ExecuteWrite(ctx, func(tx driver.Transaction) (interface{}, error) {
		res, err := tx.Run(ctx, medicationKeyConstraint, nil)
		if err != nil {
			return nil, err
		}
		_, err = res.Consume(ctx)
		return nil, err
	})
	return err
}

// Import merges interactions into the graph in one write transaction.
func (r *InteractionRepo) Import(ctx context.Context, interactions []recommendation.Interaction) (int, error) {
	_, err := r.driver.ExecuteWrite(ctx, func(tx driver.Transaction) (interface{}, error) {
		for _, it := range interactions {
			res, err := tx.Run(ctx, mergeInteractionCypher, map[string]any{
				"a":              medicationKey(it.Medication1),
				"b":              medicationKey(it.Medication2),
				"nameA":          it.Medication1,
				"nameB":          it.Medication2,
				"severity":       it.Severity,
				"description":    it.Description,
				"recommendation": it.Recommendation,
			})
			if err != nil {
				return nil, err
			}
			if _, err := res.Consume(ctx); err != nil {
				return nil, err
			}
		}
		return nil, nil
	})
	if err != nil {
		return 0, err
	}
	r.log.Info("drug interactions imported", logging.Int("count", len(interactions)))
	return len(interactions), nil
}

var _ recommendation.InteractionRepository = (*InteractionRepo)(nil)
