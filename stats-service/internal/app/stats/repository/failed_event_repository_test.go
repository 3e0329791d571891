package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"gamepulse/stats-service/internal/app/stats/entity"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// FailedEventRepositoryTestSuite тестовый suite для PostgreSQL repository
type FailedEventRepositoryTestSuite struct {
	suite.Suite
	db    *gorm.DB
	mock  sqlmock.Sqlmock
	repo  FailedEventRepository
	sqlDB *sql.DB
}

func TestFailedEventRepositorySuite(t *testing.T) {
	suite.Run(t, new(FailedEventRepositoryTestSuite))
}

func (s *FailedEventRepositoryTestSuite) SetupTest() {
	var err error
	s.sqlDB, s.mock, err = sqlmock.New()
	require.NoError(s.T(), err)

	dialector := postgres.New(postgres.Config{
		Conn:       s.sqlDB,
		DriverName: "postgres",
	})

	s.db, err = gorm.Open(dialector, &gorm.Config{})
	require.NoError(s.T(), err)

	s.repo = NewFailedEventRepository(s.db)
}

func (s *FailedEventRepositoryTestSuite) TearDownTest() {
	s.sqlDB.Close()
}

// ===================== Save Tests =====================

func (s *FailedEventRepositoryTestSuite) TestSave_Success() {
	ctx := context.Background()
	event := &entity.FailedReviewEvent{
		EventType: entity.EventReviewCreated,
		GameID:    "game-1",
		Payload:   `{"event_type":"REVIEW_CREATED","game_id":"game-1","rating":7}`,
		Reason:    "validation",
	}

	s.mock.ExpectBegin()
	s.mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "failed_review_events"`)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	s.mock.ExpectCommit()

	// Act
	err := s.repo.Save(ctx, event)

	// Assert
	s.NoError(err)
	s.NotEqual(uuid.Nil, event.ID)
	s.Equal(entity.FailedEventStatusPending, event.Status)
	s.False(event.FailedAt.IsZero())

	s.NoError(s.mock.ExpectationsWereMet())
}

func (s *FailedEventRepositoryTestSuite) TestSave_DBError() {
	ctx := context.Background()
	event := &entity.FailedReviewEvent{
		EventType: entity.EventReviewDeleted,
		GameID:    "game-1",
		Payload:   `{}`,
		Reason:    "conflict",
	}

	s.mock.ExpectBegin()
	s.mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "failed_review_events"`)).
		WillReturnError(sql.ErrConnDone)
	s.mock.ExpectRollback()

	// Act
	err := s.repo.Save(ctx, event)

	// Assert
	s.Error(err)
	s.Contains(err.Error(), "failed to save")

	s.NoError(s.mock.ExpectationsWereMet())
}

// ===================== ListPending Tests =====================

func (s *FailedEventRepositoryTestSuite) TestListPending_Success() {
	ctx := context.Background()
	firstID := uuid.New()
	secondID := uuid.New()
	failedAt := time.Now()

	rows := sqlmock.NewRows([]string{"id", "event_type", "game_id", "payload", "reason", "status", "failed_at"}).
		AddRow(firstID, "REVIEW_CREATED", "game-1", `{}`, "validation", "pending", failedAt.Add(-time.Hour)).
		AddRow(secondID, "REVIEW_DELETED", "game-2", `{}`, "conflict", "pending", failedAt)

	s.mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "failed_review_events" WHERE status = $1 ORDER BY failed_at ASC LIMIT $2`)).
		WithArgs("pending", 10).
		WillReturnRows(rows)

	// Act
	events, err := s.repo.ListPending(ctx, 10)

	// Assert
	s.NoError(err)
	s.Len(events, 2)
	s.Equal(firstID, events[0].ID)
	s.Equal("game-1", events[0].GameID)
	s.Equal(entity.FailedEventStatusPending, events[0].Status)

	s.NoError(s.mock.ExpectationsWereMet())
}

func (s *FailedEventRepositoryTestSuite) TestListPending_Empty() {
	ctx := context.Background()

	rows := sqlmock.NewRows([]string{"id", "event_type", "game_id", "payload", "reason", "status", "failed_at"})

	s.mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "failed_review_events" WHERE status = $1 ORDER BY failed_at ASC LIMIT $2`)).
		WithArgs("pending", 100).
		WillReturnRows(rows)

	// Act
	events, err := s.repo.ListPending(ctx, 100)

	// Assert
	s.NoError(err)
	s.Empty(events)

	s.NoError(s.mock.ExpectationsWereMet())
}

func (s *FailedEventRepositoryTestSuite) TestListPending_DBError() {
	ctx := context.Background()

	s.mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "failed_review_events"`)).
		WillReturnError(sql.ErrConnDone)

	// Act
	events, err := s.repo.ListPending(ctx, 10)

	// Assert
	s.Error(err)
	s.Nil(events)
	s.Contains(err.Error(), "failed to list")

	s.NoError(s.mock.ExpectationsWereMet())
}

// ===================== MarkReprocessed Tests =====================

func (s *FailedEventRepositoryTestSuite) TestMarkReprocessed_Success() {
	ctx := context.Background()
	eventID := uuid.New()

	s.mock.ExpectBegin()
	s.mock.ExpectExec(regexp.QuoteMeta(`UPDATE "failed_review_events" SET "status"=$1 WHERE id = $2`)).
		WithArgs("reprocessed", eventID.String()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	s.mock.ExpectCommit()

	// Act
	err := s.repo.MarkReprocessed(ctx, eventID.String())

	// Assert
	s.NoError(err)
	s.NoError(s.mock.ExpectationsWereMet())
}

func (s *FailedEventRepositoryTestSuite) TestMarkReprocessed_NotFound() {
	ctx := context.Background()
	eventID := uuid.New()

	s.mock.ExpectBegin()
	s.mock.ExpectExec(regexp.QuoteMeta(`UPDATE "failed_review_events" SET`)).
		WillReturnResult(sqlmock.NewResult(0, 0)) // 0 rows affected
	s.mock.ExpectCommit()

	// Act
	err := s.repo.MarkReprocessed(ctx, eventID.String())

	// Assert
	s.Error(err)
	s.Contains(err.Error(), "not found")

	s.NoError(s.mock.ExpectationsWereMet())
}

func (s *FailedEventRepositoryTestSuite) TestMarkReprocessed_DBError() {
	ctx := context.Background()
	eventID := uuid.New()

	s.mock.ExpectBegin()
	s.mock.ExpectExec(regexp.QuoteMeta(`UPDATE "failed_review_events" SET`)).
		WillReturnError(sql.ErrConnDone)
	s.mock.ExpectRollback()

	// Act
	err := s.repo.MarkReprocessed(ctx, eventID.String())

	// Assert
	s.Error(err)
	s.Contains(err.Error(), "failed to mark")

	s.NoError(s.mock.ExpectationsWereMet())
}

// ===================== NewFailedEventRepository Tests =====================

func TestNewFailedEventRepository(t *testing.T) {
	sqlDB, _, err := sqlmock.New()
	require.NoError(t, err)
	defer sqlDB.Close()

	dialector := postgres.New(postgres.Config{
		Conn:       sqlDB,
		DriverName: "postgres",
	})

	db, err := gorm.Open(dialector, &gorm.Config{})
	require.NoError(t, err)

	// Act
	repo := NewFailedEventRepository(db)

	// Assert
	assert.NotNil(t, repo)
}
