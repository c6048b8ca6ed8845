package pgrepos

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/kaithabhanuteja/StudentManagement/core"
	"github.com/kaithabhanuteja/StudentManagement/core/school"
)

const (
	dateLayout = "2006-01-02"

	studentColumns = "s.id, s.user_id, s.teacher_id, t.name AS teacher_name, s.name, s.age, s.email, s.course, s.created_at"
	studentTables  = "students s LEFT JOIN teachers t ON t.id = s.teacher_id"

	teacherColumns = "id, user_id, name, email, subject, phone"

	attendanceColumns = "a.id, a.student_id, s.name AS student_name, a.date, a.status"
	attendanceTables  = "attendance a JOIN students s ON s.id = a.student_id"
)

var studentOrderColumns = map[string]string{
	"id":         "s.id",
	"name":       "s.name",
	"email":      "s.email",
	"course":     "s.course",
	"age":        "s.age",
	"created_at": "s.created_at",
}

type schoolRepository struct {
	db *sqlx.DB
}

var _ school.Repository = (*schoolRepository)(nil)

func NewSchoolRepository(db *sqlx.DB) *schoolRepository {
	return &schoolRepository{db: db}
}

func schoolError(err error, action string) error {
	code, constraint := violation(err)
	switch {
	case code == uniqueViolation && constraint == "students_email_key":
		return school.ErrStudentEmailExists
	case code == uniqueViolation && constraint == "teachers_email_key":
		return school.ErrTeacherEmailExists
	case code == uniqueViolation && constraint == "attendance_student_id_date_key":
		return school.ErrDuplicateAttendance
	case code == foreignKeyViolation && constraint == "students_teacher_id_fkey":
		return school.ErrTeacherNotFound
	case code == foreignKeyViolation && constraint == "attendance_student_id_fkey":
		return school.ErrStudentNotFound
	}
	return errors.Wrap(err, action)
}

// Students

func studentFilter(f school.StudentFilter) *where {
	w := new(where)
	if f.Search != "" {
		w.add("(s.name ILIKE %[1]s OR s.email ILIKE %[1]s OR s.course ILIKE %[1]s)", containsPattern(f.Search))
	}
	if f.TeacherID.Valid {
		w.add("s.teacher_id = %[1]s", f.TeacherID.Int64)
	}
	return w
}

func (repo *schoolRepository) getStudent(ctx context.Context, cond string, arg interface{}) (school.Student, error) {
	var s school.Student
	err := conn(ctx, repo.db).GetContext(ctx, &s, "SELECT "+studentColumns+" FROM "+studentTables+" WHERE "+cond, arg)
	if err != nil {
		if isNoRows(err) {
			return school.Student{}, school.ErrStudentNotFound
		}
		return school.Student{}, errors.Wrap(err, "selecting student")
	}
	return s, nil
}

func (repo *schoolRepository) CreateStudent(ctx context.Context, s school.Student) (school.Student, error) {
	var id int64
	err := conn(ctx, repo.db).GetContext(ctx, &id,
		`INSERT INTO students (user_id, teacher_id, name, age, email, course, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id`,
		s.UserID, s.TeacherID, s.Name, s.Age, s.Email, s.Course, s.CreatedAt,
	)
	if err != nil {
		return school.Student{}, schoolError(err, "inserting student")
	}
	return repo.GetStudentByID(ctx, id)
}

func (repo *schoolRepository) UpdateStudent(ctx context.Context, s school.Student) (school.Student, error) {
	res, err := conn(ctx, repo.db).ExecContext(ctx,
		`UPDATE students SET user_id = $1, teacher_id = $2, name = $3, age = $4, email = $5, course = $6
		WHERE id = $7`,
		s.UserID, s.TeacherID, s.Name, s.Age, s.Email, s.Course, s.ID,
	)
	if err != nil {
		return school.Student{}, schoolError(err, "updating student")
	}
	if err = checkRowsAffected(res, school.ErrStudentNotFound); err != nil {
		return school.Student{}, err
	}
	return repo.GetStudentByID(ctx, s.ID)
}

// DeleteStudent relies on ON DELETE CASCADE to remove the attendance records.
func (repo *schoolRepository) DeleteStudent(ctx context.Context, id int64) error {
	res, err := conn(ctx, repo.db).ExecContext(ctx, "DELETE FROM students WHERE id = $1", id)
	if err != nil {
		return errors.Wrap(err, "deleting student")
	}
	return checkRowsAffected(res, school.ErrStudentNotFound)
}

func (repo *schoolRepository) GetStudentByID(ctx context.Context, id int64) (school.Student, error) {
	return repo.getStudent(ctx, "s.id = $1", id)
}

func (repo *schoolRepository) GetStudentByUserID(ctx context.Context, userID int64) (school.Student, error) {
	return repo.getStudent(ctx, "s.user_id = $1", userID)
}

func (repo *schoolRepository) StudentEmailExists(ctx context.Context, email string, excludeID int64) (bool, error) {
	var exists bool
	err := conn(ctx, repo.db).GetContext(ctx, &exists,
		"SELECT EXISTS (SELECT 1 FROM students WHERE lower(email) = lower($1) AND id <> $2)", email, excludeID,
	)
	return exists, errors.Wrap(err, "checking student email")
}

func (repo *schoolRepository) QueryStudents(
	ctx context.Context,
	filter school.StudentFilter,
	ordering []core.DBOrdering,
	limit, offset int,
) ([]school.Student, error) {
	w := studentFilter(filter)
	q := "SELECT " + studentColumns + " FROM " + studentTables + w.String() +
		orderBy(ordering, studentOrderColumns, "s.id ASC") + w.limit(limit, offset)

	students := make([]school.Student, 0)
	if err := conn(ctx, repo.db).SelectContext(ctx, &students, q, w.args...); err != nil {
		return nil, errors.Wrap(err, "selecting students")
	}
	return students, nil
}

func (repo *schoolRepository) CountStudents(ctx context.Context, filter school.StudentFilter) (int, error) {
	w := studentFilter(filter)
	var count int
	err := conn(ctx, repo.db).GetContext(ctx, &count, "SELECT COUNT(*) FROM students s"+w.String(), w.args...)
	return count, errors.Wrap(err, "counting students")
}

// Teachers

func (repo *schoolRepository) getTeacher(ctx context.Context, cond string, arg interface{}) (school.Teacher, error) {
	var t school.Teacher
	err := conn(ctx, repo.db).GetContext(ctx, &t, "SELECT "+teacherColumns+" FROM teachers WHERE "+cond, arg)
	if err != nil {
		if isNoRows(err) {
			return school.Teacher{}, school.ErrTeacherNotFound
		}
		return school.Teacher{}, errors.Wrap(err, "selecting teacher")
	}
	return t, nil
}

func (repo *schoolRepository) CreateTeacher(ctx context.Context, t school.Teacher) (school.Teacher, error) {
	err := conn(ctx, repo.db).GetContext(ctx, &t.ID,
		`INSERT INTO teachers (user_id, name, email, subject, phone) VALUES ($1, $2, $3, $4, $5) RETURNING id`,
		t.UserID, t.Name, t.Email, t.Subject, t.Phone,
	)
	if err != nil {
		return school.Teacher{}, schoolError(err, "inserting teacher")
	}
	return t, nil
}

func (repo *schoolRepository) UpdateTeacher(ctx context.Context, t school.Teacher) (school.Teacher, error) {
	res, err := conn(ctx, repo.db).ExecContext(ctx,
		`UPDATE teachers SET user_id = $1, name = $2, email = $3, subject = $4, phone = $5 WHERE id = $6`,
		t.UserID, t.Name, t.Email, t.Subject, t.Phone, t.ID,
	)
	if err != nil {
		return school.Teacher{}, schoolError(err, "updating teacher")
	}
	if err = checkRowsAffected(res, school.ErrTeacherNotFound); err != nil {
		return school.Teacher{}, err
	}
	return t, nil
}

// DeleteTeacher relies on ON DELETE SET NULL to unassign the students.
func (repo *schoolRepository) DeleteTeacher(ctx context.Context, id int64) error {
	res, err := conn(ctx, repo.db).ExecContext(ctx, "DELETE FROM teachers WHERE id = $1", id)
	if err != nil {
		return errors.Wrap(err, "deleting teacher")
	}
	return checkRowsAffected(res, school.ErrTeacherNotFound)
}

func (repo *schoolRepository) GetTeacherByID(ctx context.Context, id int64) (school.Teacher, error) {
	return repo.getTeacher(ctx, "id = $1", id)
}

func (repo *schoolRepository) GetTeacherByUserID(ctx context.Context, userID int64) (school.Teacher, error) {
	return repo.getTeacher(ctx, "user_id = $1", userID)
}

func (repo *schoolRepository) TeacherEmailExists(ctx context.Context, email string, excludeID int64) (bool, error) {
	var exists bool
	err := conn(ctx, repo.db).GetContext(ctx, &exists,
		"SELECT EXISTS (SELECT 1 FROM teachers WHERE lower(email) = lower($1) AND id <> $2)", email, excludeID,
	)
	return exists, errors.Wrap(err, "checking teacher email")
}

func (repo *schoolRepository) QueryTeachers(ctx context.Context) ([]school.Teacher, error) {
	teachers := make([]school.Teacher, 0)
	if err := conn(ctx, repo.db).SelectContext(ctx, &teachers, "SELECT "+teacherColumns+" FROM teachers ORDER BY id"); err != nil {
		return nil, errors.Wrap(err, "selecting teachers")
	}
	return teachers, nil
}

func (repo *schoolRepository) CountTeachers(ctx context.Context) (int, error) {
	var count int
	err := conn(ctx, repo.db).GetContext(ctx, &count, "SELECT COUNT(*) FROM teachers")
	return count, errors.Wrap(err, "counting teachers")
}

// Attendance

func attendanceFilter(f school.AttendanceFilter) *where {
	w := new(where)
	if f.StudentID.Valid {
		w.add("a.student_id = %[1]s", f.StudentID.Int64)
	}
	if f.TeacherID.Valid {
		w.add("s.teacher_id = %[1]s", f.TeacherID.Int64)
	}
	if f.Date.Valid {
		w.add("a.date = %[1]s", f.Date.Time.Format(dateLayout))
	}
	if f.Status != "" {
		w.add("a.status = %[1]s", f.Status)
	}
	return w
}

func normalizeDates(records []school.Attendance) {
	for i := range records {
		records[i].Date = school.DateOf(records[i].Date)
	}
}

func (repo *schoolRepository) CreateAttendance(ctx context.Context, a school.Attendance) (school.Attendance, error) {
	var created school.Attendance
	err := conn(ctx, repo.db).GetContext(ctx, &created,
		`WITH a AS (
			INSERT INTO attendance (student_id, date, status) VALUES ($1, $2, $3)
			RETURNING id, student_id, date, status
		)
		SELECT `+attendanceColumns+` FROM a JOIN students s ON s.id = a.student_id`,
		a.StudentID, a.Date.Format(dateLayout), a.Status,
	)
	if err != nil {
		return school.Attendance{}, schoolError(err, "inserting attendance")
	}
	created.Date = school.DateOf(created.Date)
	return created, nil
}

func (repo *schoolRepository) AttendanceExists(ctx context.Context, studentID int64, date time.Time) (bool, error) {
	var exists bool
	err := conn(ctx, repo.db).GetContext(ctx, &exists,
		"SELECT EXISTS (SELECT 1 FROM attendance WHERE student_id = $1 AND date = $2)",
		studentID, date.Format(dateLayout),
	)
	return exists, errors.Wrap(err, "checking attendance")
}

func (repo *schoolRepository) QueryAttendance(ctx context.Context, filter school.AttendanceFilter, limit int) ([]school.Attendance, error) {
	w := attendanceFilter(filter)
	q := "SELECT " + attendanceColumns + " FROM " + attendanceTables + w.String() +
		" ORDER BY a.date DESC, a.id DESC" + w.limit(limit, 0)

	records := make([]school.Attendance, 0)
	if err := conn(ctx, repo.db).SelectContext(ctx, &records, q, w.args...); err != nil {
		return nil, errors.Wrap(err, "selecting attendance")
	}
	normalizeDates(records)
	return records, nil
}

func (repo *schoolRepository) CountAttendance(ctx context.Context, filter school.AttendanceFilter) (int, error) {
	w := attendanceFilter(filter)
	var count int
	err := conn(ctx, repo.db).GetContext(ctx, &count, "SELECT COUNT(*) FROM "+attendanceTables+w.String(), w.args...)
	return count, errors.Wrap(err, "counting attendance")
}

// Profiles

func (repo *schoolRepository) GetProfileByUserID(ctx context.Context, userID int64) (school.Profile, error) {
	var p school.Profile
	err := conn(ctx, repo.db).GetContext(ctx, &p, "SELECT id, user_id, role FROM profiles WHERE user_id = $1", userID)
	if err != nil {
		if isNoRows(err) {
			return school.Profile{}, school.ErrProfileNotFound
		}
		return school.Profile{}, errors.Wrap(err, "selecting profile")
	}
	return p, nil
}

func (repo *schoolRepository) SaveProfile(ctx context.Context, p school.Profile) (school.Profile, error) {
	err := conn(ctx, repo.db).GetContext(ctx, &p,
		`INSERT INTO profiles (user_id, role) VALUES ($1, $2)
		ON CONFLICT (user_id) DO UPDATE SET role = EXCLUDED.role
		RETURNING id, user_id, role`,
		p.UserID, string(p.Role),
	)
	return p, errors.Wrap(err, "saving profile")
}
