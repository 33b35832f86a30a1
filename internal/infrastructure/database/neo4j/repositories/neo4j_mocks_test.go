package repositories

import (
	"context"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/stretchr/testify/mock"

	infraNeo4j "github.com/turtacn/SymptomSense/internal/infrastructure/database/neo4j"
)

// MockInfraDriver implements infraNeo4j.DriverInterface by running work
// against tx.
type MockInfraDriver struct {
	mock.Mock
	tx infraNeo4j.Transaction
}

func (m *MockInfraDriver) ExecuteRead(ctx context.Context, work infraNeo4j.TransactionWork) (interface{}, error) {
	if err := m.Called(ctx).Error(0); err != nil {
		return nil, err
	}
	return work(m.tx)
}

func (m *MockInfraDriver) ExecuteWrite(ctx context.Context, work infraNeo4j.TransactionWork) (interface{}, error) {
	if err := m.Called(ctx).Error(0); err != nil {
		return nil, err
	}
	return work(m.tx)
}

func (m *MockInfraDriver) HealthCheck(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *MockInfraDriver) Close() error {
	return m.Called().Error(0)
}

type MockInfraTransaction struct {
	mock.Mock
}

func (m *MockInfraTransaction) Run(ctx context.Context, cypher string, params map[string]any) (infraNeo4j.Result, error) {
	args := m.Called(ctx, cypher, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(infraNeo4j.Result), args.Error(1)
}

// MockResult iterates over Records.
type MockResult struct {
	Records []*neo4j.Record
	pos     int
}

func (m *MockResult) Next(context.Context) bool {
	if m.pos < len(m.Records) {
		m.pos++
		return true
	}
	return false
}

func (m *MockResult) Record() *neo4j.Record {
	if m.pos == 0 || m.pos > len(m.Records) {
		return nil
	}
	return m.Records[m.pos-1]
}

func (m *MockResult) Err() error { return nil }

func (m *MockResult) Consume(context.Context) (neo4j.ResultSummary, error) { return nil, nil }

func NewRecord(keys []string, values []any) *neo4j.Record {
	return &neo4j.Record{Keys: keys, Values: values}
}

func setupMockDriver() (*MockInfraDriver, *MockInfraTransaction) {
	tx := new(MockInfraTransaction)
	return &MockInfraDriver{tx: tx}, tx
}
