package repository

import (
	"database/sql"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"

	"github.com/Londondannyboy/quest-sub002/internal/domain"
)

func newMockCompanyRepo(t *testing.T) (*CompanyRepository, sqlmock.Sqlmock) {
	t.Helper()
	mockDB, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { _ = mockDB.Close() })

	db := bun.NewDB(mockDB, pgdialect.New())
	return NewCompanyRepository(db), mock
}

func TestCompanyRepository_Upsert_InsertsWhenAbsent(t *testing.T) {
	repo, mock := newMockCompanyRepo(t)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`SELECT pg_advisory_xact_lock`)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`SELECT .* FROM "companies"`).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectExec(`INSERT INTO "companies"`).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	payload := &domain.ProfilePayload{Slug: "thrivealts", LegalName: "Thrive Alts Ltd", Domain: "thrivealts.com"}
	result, err := repo.Upsert(t.Context(), "placement", payload, false)

	require.NoError(t, err)
	assert.Equal(t, OutcomeCreated, result.Outcome)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCompanyRepository_Upsert_UpdatesWithForceUpdate(t *testing.T) {
	repo, mock := newMockCompanyRepo(t)

	existingID := "8f14e45f-ceea-467e-a3c4-99b2f8c1af4a"
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`SELECT pg_advisory_xact_lock`)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`SELECT .* FROM "companies"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(existingID))
	mock.ExpectExec(`UPDATE "companies"`).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	payload := &domain.ProfilePayload{Slug: "thrivealts", LegalName: "Thrive Alts Ltd", Domain: "thrivealts.com"}
	result, err := repo.Upsert(t.Context(), "placement", payload, true)

	require.NoError(t, err)
	assert.Equal(t, OutcomeUpdated, result.Outcome)
	assert.Equal(t, existingID, result.ID.String())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCompanyRepository_PendingGraphSync_EmptyWhenNoBacklog(t *testing.T) {
	repo, mock := newMockCompanyRepo(t)
	mock.ExpectQuery(`SELECT .* FROM "companies"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	rows, err := repo.PendingGraphSync(t.Context(), 50)

	require.NoError(t, err)
	assert.Empty(t, rows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCompanyRepository_PendingGraphSync_PropagatesQueryError(t *testing.T) {
	repo, mock := newMockCompanyRepo(t)
	mock.ExpectQuery(`SELECT .* FROM "companies"`).
		WillReturnError(sql.ErrConnDone)

	_, err := repo.PendingGraphSync(t.Context(), 50)

	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
