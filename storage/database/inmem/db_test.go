package inmemdb

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/volatiletech/null/v8"

	"github.com/kaithabhanuteja/StudentManagement/core"
	"github.com/kaithabhanuteja/StudentManagement/core/school"
	"github.com/kaithabhanuteja/StudentManagement/core/user"
)

func newStudent(name, email string) school.Student {
	return school.Student{Name: name, Age: 18, Email: email, Course: "Math", CreatedAt: time.Now().UTC()}
}

func TestDB_WithinTx(t *testing.T) {
	ctx := context.Background()
	db := Open()
	usrRepo := NewUserRepository(db)
	schoolRepo := NewSchoolRepository(db)

	t.Run("commit", func(t *testing.T) {
		err := db.WithinTx(ctx, func(ctx context.Context) error {
			_, err := usrRepo.CreateUser(ctx, user.User{Username: "alice", IsActive: true})
			return err
		})
		require.NoError(t, err)
		_, err = usrRepo.GetUserByUsernameOrEmail(ctx, "alice")
		assert.NoError(t, err)
	})

	t.Run("rollback", func(t *testing.T) {
		errBoom := errors.New("boom")
		err := db.WithinTx(ctx, func(ctx context.Context) error {
			usr, err := usrRepo.CreateUser(ctx, user.User{Username: "bob", IsActive: true})
			if err != nil {
				return err
			}
			if err = usrRepo.GrantPermissions(ctx, usr.ID, user.PermViewStudent); err != nil {
				return err
			}
			// nested calls join the outer transaction
			return db.WithinTx(ctx, func(ctx context.Context) error {
				if _, err := schoolRepo.CreateStudent(ctx, newStudent("Bob", "bob@example.com")); err != nil {
					return err
				}
				return errBoom
			})
		})
		assert.Equal(t, errBoom, err)

		_, err = usrRepo.GetUserByUsernameOrEmail(ctx, "bob")
		assert.Equal(t, user.ErrNotFound, err)
		n, err := schoolRepo.CountStudents(ctx, school.StudentFilter{})
		require.NoError(t, err)
		assert.Zero(t, n)
	})

	t.Run("panic", func(t *testing.T) {
		assert.Panics(t, func() {
			_ = db.WithinTx(ctx, func(ctx context.Context) error {
				_, _ = usrRepo.CreateUser(ctx, user.User{Username: "carol"})
				panic("oops")
			})
		})
		_, err := usrRepo.GetUserByUsernameOrEmail(ctx, "carol")
		assert.Equal(t, user.ErrNotFound, err)
	})

	t.Run("sequence restored on rollback", func(t *testing.T) {
		usr, err := usrRepo.CreateUser(ctx, user.User{Username: "dave"})
		require.NoError(t, err)
		assert.Equal(t, int64(2), usr.ID)
	})
}

func TestUserRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository(Open())

	alice, err := repo.CreateUser(ctx, user.User{Username: "alice", Email: "alice@example.com", IsActive: true})
	require.NoError(t, err)
	_, err = repo.CreateUser(ctx, user.User{Username: "alice"})
	assert.Equal(t, user.ErrUsernameExists, err)
	_, err = repo.CreateUser(ctx, user.User{Username: "alice2", Email: "ALICE@example.com"})
	assert.Equal(t, user.ErrEmailExists, err)

	assert.NoError(t, repo.CheckUniqueness(ctx, "alice", "alice@example.com", alice.ID))
	assert.Equal(t, user.ErrEmailExists, repo.CheckUniqueness(ctx, "bob", "Alice@Example.com", 0))

	got, err := repo.GetUserByUsernameOrEmail(ctx, "ALICE@EXAMPLE.COM")
	require.NoError(t, err)
	assert.Equal(t, alice.ID, got.ID)

	require.NoError(t, repo.GrantPermissions(ctx, alice.ID, user.PermViewTeacher, user.PermAddStudent, user.PermViewTeacher))
	got, err = repo.GetUserByID(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{user.PermAddStudent, user.PermViewTeacher}, got.Permissions)
	assert.Equal(t, user.ErrNotFound, repo.GrantPermissions(ctx, 99, user.PermViewTeacher))

	// an update without a hash keeps the stored one
	require.NoError(t, got.SetPassword("xK9#mLq2vTz!"))
	got, err = repo.UpdateUser(ctx, got)
	require.NoError(t, err)
	got.PasswordHash = nil
	got, err = repo.UpdateUser(ctx, got)
	require.NoError(t, err)
	assert.NoError(t, got.CheckPassword("xK9#mLq2vTz!"))
}

func TestSchoolRepository_Students(t *testing.T) {
	ctx := context.Background()
	repo := NewSchoolRepository(Open())

	smith, err := repo.CreateTeacher(ctx, school.Teacher{Name: "Mr Smith", Email: "smith@example.com", Subject: "Math"})
	require.NoError(t, err)

	s := newStudent("Ann", "ann@example.com")
	s.TeacherID = null.Int64From(smith.ID)
	ann, err := repo.CreateStudent(ctx, s)
	require.NoError(t, err)
	assert.Equal(t, null.StringFrom("Mr Smith"), ann.TeacherName)

	_, err = repo.CreateStudent(ctx, newStudent("Other", "ANN@example.com"))
	assert.Equal(t, school.ErrStudentEmailExists, err)

	orphan := newStudent("Bob", "bob@example.com")
	orphan.TeacherID = null.Int64From(42)
	_, err = repo.CreateStudent(ctx, orphan)
	assert.Equal(t, school.ErrTeacherNotFound, err)

	for _, name := range []string{"Cid", "Bea", "Dot"} {
		_, err = repo.CreateStudent(ctx, newStudent(name, name+"@example.com"))
		require.NoError(t, err)
	}

	byName := []core.DBOrdering{{Field: "name", Ascending: true}}
	got, err := repo.QueryStudents(ctx, school.StudentFilter{}, byName, 2, 1)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Bea", got[0].Name)
	assert.Equal(t, "Cid", got[1].Name)

	got, err = repo.QueryStudents(ctx, school.StudentFilter{TeacherID: null.Int64From(smith.ID)}, nil, 0, 0)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, ann.ID, got[0].ID)

	n, err := repo.CountStudents(ctx, school.StudentFilter{Search: "EXAMPLE"})
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	// the creation time is immutable
	ann.CreatedAt = time.Time{}
	ann.Course = "Physics"
	ann, err = repo.UpdateStudent(ctx, ann)
	require.NoError(t, err)
	assert.False(t, ann.CreatedAt.IsZero())
	assert.Equal(t, "Physics", ann.Course)
}

func TestSchoolRepository_Attendance(t *testing.T) {
	ctx := context.Background()
	repo := NewSchoolRepository(Open())
	day := time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)

	ann, err := repo.CreateStudent(ctx, newStudent("Ann", "ann@example.com"))
	require.NoError(t, err)

	_, err = repo.CreateAttendance(ctx, school.Attendance{StudentID: 99, Date: day, Status: school.StatusPresent})
	assert.Equal(t, school.ErrStudentNotFound, err)

	a, err := repo.CreateAttendance(ctx, school.Attendance{StudentID: ann.ID, Date: day.Add(15 * time.Hour), Status: school.StatusPresent})
	require.NoError(t, err)
	assert.Equal(t, day, a.Date)
	assert.Equal(t, "Ann", a.StudentName)

	_, err = repo.CreateAttendance(ctx, school.Attendance{StudentID: ann.ID, Date: day, Status: school.StatusAbsent})
	assert.Equal(t, school.ErrDuplicateAttendance, err)

	exists, err := repo.AttendanceExists(ctx, ann.ID, day.Add(time.Hour))
	require.NoError(t, err)
	assert.True(t, exists)

	_, err = repo.CreateAttendance(ctx, school.Attendance{StudentID: ann.ID, Date: day.AddDate(0, 0, 1), Status: school.StatusAbsent})
	require.NoError(t, err)

	records, err := repo.QueryAttendance(ctx, school.AttendanceFilter{StudentID: null.Int64From(ann.ID)}, 1)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, day.AddDate(0, 0, 1), records[0].Date)

	n, err := repo.CountAttendance(ctx, school.AttendanceFilter{Status: school.StatusPresent})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	require.NoError(t, repo.DeleteStudent(ctx, ann.ID))
	n, err = repo.CountAttendance(ctx, school.AttendanceFilter{})
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestSchoolRepository_Profiles(t *testing.T) {
	ctx := context.Background()
	repo := NewSchoolRepository(Open())

	_, err := repo.GetProfileByUserID(ctx, 1)
	assert.Equal(t, school.ErrProfileNotFound, err)

	p, err := repo.SaveProfile(ctx, school.Profile{UserID: 1, Role: school.RoleStudent})
	require.NoError(t, err)
	updated, err := repo.SaveProfile(ctx, school.Profile{UserID: 1, Role: school.RoleTeacher})
	require.NoError(t, err)
	assert.Equal(t, p.ID, updated.ID)

	got, err := repo.GetProfileByUserID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, school.RoleTeacher, got.Role)
}
