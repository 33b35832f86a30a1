package repositories

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/suite"

	"github.com/turtacn/SymptomSense/internal/application/recommendation"
	"github.com/turtacn/SymptomSense/internal/infrastructure/database/postgres"
	pkgerrors "github.com/turtacn/SymptomSense/pkg/errors"
)

type PatientHistoryRepoTestSuite struct {
	suite.Suite
	mock sqlmock.Sqlmock
	db   *sql.DB
	repo *PatientHistoryRepo
}

func (s *PatientHistoryRepoTestSuite) SetupTest() {
	var err error
	s.db, s.mock, err = sqlmock.New()
	s.Require().NoError(err)
	s.repo = NewPatientHistoryRepo(postgres.NewConnectionWithDB(s.db, nil), nil)
}

func (s *PatientHistoryRepoTestSuite) TearDownTest() {
	s.NoError(s.mock.ExpectationsWereMet())
	s.db.Close()
}

func (s *PatientHistoryRepoTestSuite) TestFindByPatientID_Found() {
	s.mock.ExpectQuery("SELECT patient_id, allergies, conditions, current_medications FROM patient_histories").
		WithArgs("p-1").
		WillReturnRows(sqlmock.NewRows([]string{"patient_id", "allergies", "conditions", "current_medications"}).
			AddRow("p-1", "{penicillin}", "{}", "{Warfarin,\"Vitamin C\"}"))

	h, err := s.repo.FindByPatientID(context.Background(), "p-1")
	s.NoError(err)
	s.Equal(&recommendation.PatientHistory{
		PatientID:          "p-1",
		Allergies:          []string{"penicillin"},
		Conditions:         []string{},
		CurrentMedications: []string{"Warfarin", "Vitamin C"},
	}, h)
}

func (s *PatientHistoryRepoTestSuite) TestFindByPatientID_NotFound() {
	s.mock.ExpectQuery("SELECT patient_id").WithArgs("ghost").WillReturnError(sql.ErrNoRows)

	h, err := s.repo.FindByPatientID(context.Background(), "ghost")
	s.Nil(h)
	s.True(pkgerrors.IsCode(err, pkgerrors.ErrCodePatientNotFound))
}

func (s *PatientHistoryRepoTestSuite) TestFindByPatientID_DatabaseError() {
	s.mock.ExpectQuery("SELECT patient_id").WithArgs("p-1").WillReturnError(errors.New("timeout"))

	_, err := s.repo.FindByPatientID(context.Background(), "p-1")
	s.True(pkgerrors.IsCode(err, pkgerrors.ErrCodeDatabaseError))
	s.False(pkgerrors.IsCode(err, pkgerrors.ErrCodePatientNotFound))
}

func (s *PatientHistoryRepoTestSuite) TestSave() {
	s.mock.ExpectExec("INSERT INTO patient_histories").
		WithArgs("p-1", sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := s.repo.Save(context.Background(), &recommendation.PatientHistory{PatientID: "p-1", Allergies: []string{"aspirin"}})
	s.NoError(err)
}

func (s *PatientHistoryRepoTestSuite) TestSave_RequiresID() {
	err := s.repo.Save(context.Background(), &recommendation.PatientHistory{})
	s.True(pkgerrors.IsCode(err, pkgerrors.ErrCodeBadRequest))
}

func TestPatientHistoryRepoTestSuite(t *testing.T) {
	suite.Run(t, new(PatientHistoryRepoTestSuite))
}
