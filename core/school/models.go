package school

import (
	"strconv"
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/kaithabhanuteja/StudentManagement/core"
)

// Attendance statuses
const (
	StatusPresent = "P"
	StatusAbsent  = "A"
)

// Age bounds (inclusive)
const (
	MinAge = 5
	MaxAge = 100
)

// Registration defaults
const (
	RegisteredStudentAge    = 18
	RegisteredStudentCourse = "Not Assigned"
)

type Role string

const (
	RoleNone    Role = ""
	RoleAdmin   Role = "admin"
	RoleTeacher Role = "teacher"
	RoleStudent Role = "student"
)

func (r Role) String() string {
	if r == RoleNone {
		return "none"
	}
	return string(r)
}

type Student struct {
	ID          int64       `db:"id"`
	UserID      null.Int64  `db:"user_id"`
	TeacherID   null.Int64  `db:"teacher_id"`
	TeacherName null.String `db:"teacher_name"` // read only
	Name        string      `db:"name"`
	Age         int         `db:"age"`
	Email       string      `db:"email"`
	Course      string      `db:"course"`
	CreatedAt   time.Time   `db:"created_at"` // UTC
}

type Teacher struct {
	ID      int64      `db:"id"`
	UserID  null.Int64 `db:"user_id"`
	Name    string     `db:"name"`
	Email   string     `db:"email"`
	Subject string     `db:"subject"`
	Phone   string     `db:"phone"`
}

type Attendance struct {
	ID          int64     `db:"id"`
	StudentID   int64     `db:"student_id"`
	StudentName string    `db:"student_name"` // read only
	Date        time.Time `db:"date"`         // calendar date, UTC midnight
	Status      string    `db:"status"`
}

func (a Attendance) StatusDisplay() string {
	switch a.Status {
	case StatusPresent:
		return "Present"
	case StatusAbsent:
		return "Absent"
	}
	return a.Status
}

func (a Attendance) IsPresent() bool { return a.Status == StatusPresent }

type Profile struct {
	ID     int64 `db:"id"`
	UserID int64 `db:"user_id"`
	Role   Role  `db:"role"`
}

// StudentFilter applies AND on the set fields.
// Search does a case-insensitive substring match on one of name, email or course.
type StudentFilter struct {
	Search    string
	TeacherID null.Int64
}

func (f *StudentFilter) Clean() {
	f.Search = core.CleanString(f.Search)
}

// AttendanceFilter applies AND on the set fields.
// TeacherID matches records of the students assigned to that teacher.
type AttendanceFilter struct {
	StudentID null.Int64
	TeacherID null.Int64
	Date      null.Time
	Status    string
}

// DateOf truncates t to its calendar date in t's location, expressed as UTC midnight.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func parseID(s string) (int64, bool) {
	id, err := strconv.ParseInt(core.CleanString(s), 10, 64)
	return id, err == nil && id > 0
}
