package pgrepos

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kaithabhanuteja/StudentManagement/core"
	"github.com/kaithabhanuteja/StudentManagement/core/school"
)

func newMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		_ = db.Close()
	})
	return sqlx.NewDb(db, "postgres"), mock
}

func Test_where(t *testing.T) {
	w := new(where)
	assert.Equal(t, "", w.String())
	assert.Equal(t, "", w.limit(0, 0))

	w.add("a = %[1]s", 1)
	w.add("(b = %[1]s OR c = %[1]s)", "x")
	assert.Equal(t, " WHERE a = $1 AND (b = $2 OR c = $2)", w.String())
	assert.Equal(t, " LIMIT $3 OFFSET $4", w.limit(5, 10))
	assert.Equal(t, []interface{}{1, "x", 5, 10}, w.args)
}

func Test_containsPattern(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "math", want: "%math%"},
		{in: "100%", want: `%100\%%`},
		{in: "a_b", want: `%a\_b%`},
		{in: `c:\`, want: `%c:\\%`},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, containsPattern(tt.in))
		})
	}
}

func Test_orderBy(t *testing.T) {
	cols := map[string]string{"id": "s.id", "name": "s.name"}

	assert.Equal(t, " ORDER BY s.id ASC", orderBy(nil, cols, "s.id ASC"))
	assert.Equal(t, " ORDER BY s.id ASC", orderBy([]core.DBOrdering{{Field: "password"}}, cols, "s.id ASC"))
	assert.Equal(t,
		" ORDER BY s.name ASC, s.id DESC",
		orderBy([]core.DBOrdering{{Field: "name", Ascending: true}, {Field: "id"}}, cols, "s.id ASC"),
	)
}

func Test_transactor_WithinTx(t *testing.T) {
	ctx := context.Background()

	t.Run("commit", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectBegin()
		mock.ExpectExec("DELETE FROM teachers").WithArgs(int64(1)).WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec("DELETE FROM students").WithArgs(int64(2)).WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		repo := NewSchoolRepository(db)
		err := NewTransactor(db).WithinTx(ctx, func(ctx context.Context) error {
			if err := repo.DeleteTeacher(ctx, 1); err != nil {
				return err
			}
			// nested calls join the outer transaction
			return NewTransactor(db).WithinTx(ctx, func(ctx context.Context) error {
				return repo.DeleteStudent(ctx, 2)
			})
		})
		assert.NoError(t, err)
	})

	t.Run("rollback", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectBegin()
		mock.ExpectExec("DELETE FROM teachers").WithArgs(int64(1)).WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectRollback()

		repo := NewSchoolRepository(db)
		err := NewTransactor(db).WithinTx(ctx, func(ctx context.Context) error {
			return repo.DeleteTeacher(ctx, 1)
		})
		assert.Equal(t, school.ErrTeacherNotFound, err)
	})

	t.Run("begin failure", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectBegin().WillReturnError(errors.New("connection refused"))

		called := false
		err := NewTransactor(db).WithinTx(ctx, func(context.Context) error {
			called = true
			return nil
		})
		assert.Error(t, err)
		assert.False(t, called)
	})
}
