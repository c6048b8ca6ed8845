package school_test

import (
	"context"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/volatiletech/null/v8"

	"github.com/kaithabhanuteja/StudentManagement/core"
	"github.com/kaithabhanuteja/StudentManagement/core/school"
	"github.com/kaithabhanuteja/StudentManagement/core/user"
	emailsvc "github.com/kaithabhanuteja/StudentManagement/services/email"
	testutil "github.com/kaithabhanuteja/StudentManagement/tests"
)

const pwd = "xK9#mLq2vTz!"

func fieldErrors(t *testing.T, env *testutil.Env, err error) map[string]string {
	t.Helper()
	require.Error(t, err)
	fields, ok := core.FieldErrors(err, env.Translator)
	require.True(t, ok, "not a validation error: %v", err)
	return fields
}

func TestStudentForm_Validate(t *testing.T) {
	env := testutil.NewEnv(t)
	ctx := context.Background()
	teacher := testutil.CreateTeacher(t, env.SchoolRepo, "Mr Smith", "smith@example.com", "Math")
	ann := testutil.CreateStudent(t, env.SchoolRepo, school.Student{Name: "Ann", Email: "ann@example.com", Course: "Math"})

	valid := func() school.StudentForm {
		return school.StudentForm{Name: "Bob", Age: "20", Email: "bob@example.com", Course: "Art"}
	}

	tests := []struct {
		name       string
		modify     func(f *school.StudentForm)
		excludeID  int64
		wantFields map[string]string
	}{
		{name: "age too low", modify: func(f *school.StudentForm) { f.Age = "4" }, wantFields: map[string]string{"age": "Age must be between 5 and 100"}},
		{name: "age too high", modify: func(f *school.StudentForm) { f.Age = "101" }, wantFields: map[string]string{"age": "Age must be between 5 and 100"}},
		{name: "age not a number", modify: func(f *school.StudentForm) { f.Age = "ten" }, wantFields: map[string]string{"age": "Enter a whole number."}},
		{name: "name too long", modify: func(f *school.StudentForm) { f.Name = strings.Repeat("x", 101) }, wantFields: map[string]string{"name": "Ensure this value has at most 100 characters."}},
		{name: "duplicate email", modify: func(f *school.StudentForm) { f.Email = "ANN@example.com" }, wantFields: map[string]string{"email": school.ErrStudentEmailExists.Error()}},
		{
			name:       "unknown teacher",
			modify:     func(f *school.StudentForm) { f.Teacher = "999" },
			wantFields: map[string]string{"teacher": "Select a valid choice. That choice is not one of the available choices."},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			form := valid()
			tt.modify(&form)
			err := form.Validate(ctx, env.Validate, env.SchoolSvc)
			assert.Equal(t, tt.wantFields, fieldErrors(t, env, err))
		})
	}

	t.Run("own email on edit", func(t *testing.T) {
		form := valid()
		form.Email = "ann@example.com"
		form.Teacher = " " + itoa(teacher.ID)
		require.NoError(t, form.Validate(ctx, env.Validate, env.SchoolSvc, ann.ID))
		assert.Equal(t, itoa(teacher.ID), form.Teacher)
	})
}

func TestTeacherForm_Validate(t *testing.T) {
	env := testutil.NewEnv(t)
	ctx := context.Background()
	smith := testutil.CreateTeacher(t, env.SchoolRepo, "Mr Smith", "smith@example.com", "Math")

	form := school.TeacherForm{Name: "Ms Doe", Email: "smith@example.com", Subject: "Art", Phone: "0123456789012345"}
	fields := fieldErrors(t, env, form.Validate(ctx, env.Validate, env.SchoolSvc))
	assert.Equal(t, map[string]string{"phone": "Ensure this value has at most 15 characters."}, fields)

	form.Phone = "012345678901234"
	fields = fieldErrors(t, env, form.Validate(ctx, env.Validate, env.SchoolSvc))
	assert.Equal(t, map[string]string{"email": school.ErrTeacherEmailExists.Error()}, fields)

	assert.NoError(t, form.Validate(ctx, env.Validate, env.SchoolSvc, smith.ID))
}

func TestService_SearchStudents(t *testing.T) {
	env := testutil.NewEnv(t)
	ctx := context.Background()
	for _, name := range []string{"Ann", "Bob", "Cid", "Dan", "Eve", "Fay", "Gus"} {
		testutil.CreateStudent(t, env.SchoolRepo, school.Student{Name: name, Email: name + "@example.com", Course: "Math"})
	}
	testutil.CreateStudent(t, env.SchoolRepo, school.Student{Name: "Hal", Email: "hal@example.com", Course: "Biology"})

	students, page, err := env.SchoolSvc.SearchStudents(ctx, "", "")
	require.NoError(t, err)
	assert.Equal(t, 1, page.Number)
	assert.Equal(t, 2, page.NumPages)
	require.Len(t, students, school.StudentsPerPage)
	assert.Equal(t, "Hal", students[0].Name)

	students, page, err = env.SchoolSvc.SearchStudents(ctx, "", "2")
	require.NoError(t, err)
	assert.Equal(t, 2, page.Number)
	require.Len(t, students, 3)
	assert.Equal(t, "Ann", students[2].Name)

	students, _, err = env.SchoolSvc.SearchStudents(ctx, "  bio ", "")
	require.NoError(t, err)
	require.Len(t, students, 1)
	assert.Equal(t, "Hal", students[0].Name)
}

func TestService_ResolveRole(t *testing.T) {
	env := testutil.NewEnv(t)
	ctx := context.Background()

	admin := testutil.CreateUser(t, env.UserRepo, "admin", "admin@example.com", pwd, true, true)
	tUsr := testutil.CreateUser(t, env.UserRepo, "smith", "smith@example.com", pwd, false, true)
	sUsr := testutil.CreateUser(t, env.UserRepo, "ann", "ann@example.com", pwd, false, true)
	both := testutil.CreateUser(t, env.UserRepo, "both", "both@example.com", pwd, false, true)
	nobody := testutil.CreateUser(t, env.UserRepo, "nobody", "nobody@example.com", pwd, false, true)

	testutil.CreateTeacher(t, env.SchoolRepo, "Mr Smith", "smith@example.com", "Math", tUsr.ID)
	testutil.CreateTeacher(t, env.SchoolRepo, "Ms Both", "both@example.com", "Art", both.ID)
	testutil.CreateStudent(t, env.SchoolRepo, school.Student{UserID: null.Int64From(sUsr.ID), Name: "Ann", Email: "ann@example.com", Course: "Math"})
	testutil.CreateStudent(t, env.SchoolRepo, school.Student{UserID: null.Int64From(both.ID), Name: "Both", Email: "both@example.com", Course: "Art"})

	// a stale profile is brought in line
	_, err := env.SchoolRepo.SaveProfile(ctx, school.Profile{UserID: tUsr.ID, Role: school.RoleStudent})
	require.NoError(t, err)

	tests := []struct {
		name string
		usr  user.User
		want school.Role
	}{
		{name: "superuser", usr: admin, want: school.RoleAdmin},
		{name: "teacher", usr: tUsr, want: school.RoleTeacher},
		{name: "student", usr: sUsr, want: school.RoleStudent},
		{name: "teacher wins over student", usr: both, want: school.RoleTeacher},
		{name: "no role", usr: nobody, want: school.RoleNone},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := env.SchoolSvc.ResolveRole(ctx, tt.usr)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)

			p, err := env.SchoolRepo.GetProfileByUserID(ctx, tt.usr.ID)
			if tt.want == school.RoleNone {
				assert.Equal(t, school.ErrProfileNotFound, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, p.Role)
		})
	}
}

// failingProfiles breaks the last step of the registration.
type failingProfiles struct {
	school.Repository
}

func (failingProfiles) SaveProfile(context.Context, school.Profile) (school.Profile, error) {
	return school.Profile{}, errors.New("disk full")
}

func TestService_Register(t *testing.T) {
	ctx := context.Background()
	nu := user.NewUser{Username: "ann", Email: "ann@example.com", Password: pwd, PasswordConfirm: pwd}

	t.Run("success", func(t *testing.T) {
		env := testutil.NewEnv(t)
		emailsvc.ResetSentMessages()

		usr, s, err := env.SchoolSvc.Register(ctx, nu)
		require.NoError(t, err)
		assert.Equal(t, null.Int64From(usr.ID), s.UserID)
		assert.Equal(t, "ann", s.Name)
		assert.Equal(t, school.RegisteredStudentAge, s.Age)
		assert.Equal(t, school.RegisteredStudentCourse, s.Course)
		assert.Equal(t, "ann@example.com", s.Email)

		usr, err = env.UserSvc.GetByID(ctx, usr.ID)
		require.NoError(t, err)
		assert.ElementsMatch(t, user.StudentPermissions, usr.Permissions)

		p, err := env.SchoolRepo.GetProfileByUserID(ctx, usr.ID)
		require.NoError(t, err)
		assert.Equal(t, school.RoleStudent, p.Role)

		require.Len(t, emailsvc.SentMessages, 1)
		assert.Equal(t, "ann@example.com", emailsvc.SentMessages[0].To[0].Address)
	})

	t.Run("longest username fits the student name", func(t *testing.T) {
		env := testutil.NewEnv(t)
		long := user.NewUser{Username: strings.Repeat("b", 100), Email: "b@example.com", Password: pwd, PasswordConfirm: pwd}
		require.NoError(t, long.Validate(ctx, env.Validate, env.UserSvc))

		_, s, err := env.SchoolSvc.Register(ctx, long)
		require.NoError(t, err)
		form := school.NewStudentForm(s)
		assert.NoError(t, form.Validate(ctx, env.Validate, env.SchoolSvc, s.ID))
	})

	t.Run("student email taken", func(t *testing.T) {
		env := testutil.NewEnv(t)
		testutil.CreateStudent(t, env.SchoolRepo, school.Student{Name: "Other", Email: "ANN@example.com", Course: "Art"})

		_, _, err := env.SchoolSvc.Register(ctx, nu)
		assert.Equal(t, map[string]string{"email": school.ErrStudentEmailExists.Error()}, fieldErrors(t, env, err))

		_, err = env.UserSvc.GetByUsernameOrEmail(ctx, "ann")
		assert.Equal(t, user.ErrNotFound, err)
	})

	t.Run("rolled back", func(t *testing.T) {
		env := testutil.NewEnv(t)
		emailsvc.ResetSentMessages()
		svc := school.NewService(env.Conf, failingProfiles{env.SchoolRepo}, env.UserSvc, env.DB, env.MailSvc, env.Logger)

		_, _, err := svc.Register(ctx, nu)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "disk full")

		_, err = env.UserSvc.GetByUsernameOrEmail(ctx, "ann")
		assert.Equal(t, user.ErrNotFound, err)
		exists, err := env.SchoolRepo.StudentEmailExists(ctx, "ann@example.com", 0)
		require.NoError(t, err)
		assert.False(t, exists)
		assert.Empty(t, emailsvc.SentMessages)
	})
}

func TestService_MarkAttendance(t *testing.T) {
	env := testutil.NewEnv(t)
	ctx := context.Background()

	school.NowFunc = func() time.Time { return time.Date(2024, 3, 5, 10, 0, 0, 0, time.UTC) }
	defer func() { school.NowFunc = time.Now }()

	ann := testutil.CreateStudent(t, env.SchoolRepo, school.Student{Name: "Ann", Email: "ann@example.com", Course: "Math"})
	form := school.AttendanceForm{Student: itoa(ann.ID), Status: school.StatusPresent}

	require.NoError(t, form.Validate(ctx, env.Validate, env.SchoolSvc))
	a, err := env.SchoolSvc.MarkAttendance(ctx, form)
	require.NoError(t, err)
	assert.Equal(t, env.SchoolSvc.Today(), a.Date)
	assert.Equal(t, "Ann", a.StudentName)

	// the form catches the duplicate, the store enforces it too
	err = form.Validate(ctx, env.Validate, env.SchoolSvc)
	assert.Equal(t, map[string]string{core.NonFieldErrors: school.ErrDuplicateAttendance.Error()}, fieldErrors(t, env, err))
	_, err = env.SchoolSvc.MarkAttendance(ctx, form)
	assert.Equal(t, map[string]string{core.NonFieldErrors: school.ErrDuplicateAttendance.Error()}, fieldErrors(t, env, err))

	bad := school.AttendanceForm{Student: "999", Status: "X"}
	assert.Equal(t, map[string]string{"status": "Select a valid choice."}, fieldErrors(t, env, bad.Validate(ctx, env.Validate, env.SchoolSvc)))
	bad.Status = school.StatusAbsent
	assert.Equal(t,
		map[string]string{"student": "Select a valid choice. That choice is not one of the available choices."},
		fieldErrors(t, env, bad.Validate(ctx, env.Validate, env.SchoolSvc)),
	)
}

func TestService_DeleteTeacher(t *testing.T) {
	env := testutil.NewEnv(t)
	ctx := context.Background()

	smith := testutil.CreateTeacher(t, env.SchoolRepo, "Mr Smith", "smith@example.com", "Math")
	ann := testutil.CreateStudent(t, env.SchoolRepo, school.Student{TeacherID: null.Int64From(smith.ID), Name: "Ann", Email: "ann@example.com", Course: "Math"})
	assert.Equal(t, null.StringFrom("Mr Smith"), ann.TeacherName)

	require.NoError(t, env.SchoolSvc.DeleteTeacher(ctx, smith.ID))
	assert.Equal(t, school.ErrTeacherNotFound, env.SchoolSvc.DeleteTeacher(ctx, smith.ID))

	ann, err := env.SchoolSvc.GetStudent(ctx, ann.ID)
	require.NoError(t, err)
	assert.False(t, ann.TeacherID.Valid)
	assert.False(t, ann.TeacherName.Valid)
}

func TestService_DeleteStudent(t *testing.T) {
	env := testutil.NewEnv(t)
	ctx := context.Background()

	ann := testutil.CreateStudent(t, env.SchoolRepo, school.Student{Name: "Ann", Email: "ann@example.com", Course: "Math"})
	testutil.CreateAttendance(t, env.SchoolRepo, ann.ID, time.Now(), school.StatusPresent)

	require.NoError(t, env.SchoolSvc.DeleteStudent(ctx, ann.ID))
	records, err := env.SchoolSvc.QueryAttendance(ctx)
	require.NoError(t, err)
	assert.Empty(t, records)
	assert.Equal(t, school.ErrStudentNotFound, env.SchoolSvc.DeleteStudent(ctx, ann.ID))
}

func TestService_Dashboards(t *testing.T) {
	env := testutil.NewEnv(t)
	ctx := context.Background()

	school.NowFunc = func() time.Time { return time.Date(2024, 3, 5, 10, 0, 0, 0, time.UTC) }
	defer func() { school.NowFunc = time.Now }()
	today := env.SchoolSvc.Today()
	yesterday := today.AddDate(0, 0, -1)

	tUsr := testutil.CreateUser(t, env.UserRepo, "smith", "smith@example.com", pwd, false, true)
	sUsr := testutil.CreateUser(t, env.UserRepo, "ann", "ann@example.com", pwd, false, true)
	smith := testutil.CreateTeacher(t, env.SchoolRepo, "Mr Smith", "smith@example.com", "Math", tUsr.ID)
	testutil.CreateTeacher(t, env.SchoolRepo, "Ms Doe", "doe@example.com", "Art")

	ann := testutil.CreateStudent(t, env.SchoolRepo, school.Student{
		UserID: null.Int64From(sUsr.ID), TeacherID: null.Int64From(smith.ID), Name: "Ann", Email: "ann@example.com", Course: "Math",
	})
	bob := testutil.CreateStudent(t, env.SchoolRepo, school.Student{TeacherID: null.Int64From(smith.ID), Name: "Bob", Email: "bob@example.com", Course: "Math"})
	cid := testutil.CreateStudent(t, env.SchoolRepo, school.Student{Name: "Cid", Email: "cid@example.com", Course: "Art"})

	testutil.CreateAttendance(t, env.SchoolRepo, ann.ID, today, school.StatusPresent)
	testutil.CreateAttendance(t, env.SchoolRepo, ann.ID, yesterday, school.StatusAbsent)
	testutil.CreateAttendance(t, env.SchoolRepo, ann.ID, yesterday.AddDate(0, 0, -1), school.StatusPresent)
	testutil.CreateAttendance(t, env.SchoolRepo, bob.ID, yesterday, school.StatusPresent)
	testutil.CreateAttendance(t, env.SchoolRepo, cid.ID, today, school.StatusAbsent)

	t.Run("admin", func(t *testing.T) {
		d, err := env.SchoolSvc.AdminDashboard(ctx)
		require.NoError(t, err)
		assert.Equal(t, school.AdminDashboard{TotalStudents: 3, TotalTeachers: 2, TodayAttendance: 2}, d)
	})

	t.Run("teacher", func(t *testing.T) {
		d, err := env.SchoolSvc.TeacherDashboard(ctx, tUsr)
		require.NoError(t, err)
		assert.Equal(t, smith.ID, d.Teacher.ID)
		assert.Equal(t, 2, d.TotalStudents)
		assert.Equal(t, 4, d.TotalAttendance)
		assert.Equal(t, 3, d.PresentCount)
		assert.Equal(t, 1, d.TodayAttendance)
		require.Len(t, d.Students, 2)
		assert.Equal(t, "Ann", d.Students[0].Name)

		_, err = env.SchoolSvc.TeacherDashboard(ctx, sUsr)
		assert.Equal(t, school.ErrNoRole, err)
	})

	t.Run("student", func(t *testing.T) {
		d, err := env.SchoolSvc.StudentDashboard(ctx, sUsr)
		require.NoError(t, err)
		assert.Equal(t, 3, d.Total)
		assert.Equal(t, 2, d.PresentCount)
		assert.Equal(t, 66.67, d.Percentage)
		require.Len(t, d.Records, 3)
		assert.Equal(t, today, d.Records[0].Date)

		_, err = env.SchoolSvc.StudentDashboard(ctx, tUsr)
		assert.Equal(t, school.ErrNoRole, err)
	})

	t.Run("my students", func(t *testing.T) {
		teacher, students, err := env.SchoolSvc.MyStudents(ctx, tUsr)
		require.NoError(t, err)
		assert.Equal(t, smith.ID, teacher.ID)
		require.Len(t, students, 2)
		assert.Equal(t, []string{"Ann", "Bob"}, []string{students[0].Name, students[1].Name})

		_, _, err = env.SchoolSvc.MyStudents(ctx, sUsr)
		assert.Equal(t, school.ErrNoRole, err)
	})
}

func TestService_LinkAccounts(t *testing.T) {
	env := testutil.NewEnv(t)
	ctx := context.Background()

	usr := testutil.CreateUser(t, env.UserRepo, "smith", "smith@example.com", pwd, false, true)
	smith := testutil.CreateTeacher(t, env.SchoolRepo, "Mr Smith", "smith@example.com", "Math")

	linked, err := env.SchoolSvc.LinkTeacherAccount(ctx, smith.ID, usr)
	require.NoError(t, err)
	assert.Equal(t, null.Int64From(usr.ID), linked.UserID)

	_, err = env.SchoolSvc.LinkStudentAccount(ctx, 999, usr)
	assert.Equal(t, school.ErrStudentNotFound, err)
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}
