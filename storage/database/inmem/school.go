package inmemdb

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/kaithabhanuteja/StudentManagement/core"
	"github.com/kaithabhanuteja/StudentManagement/core/school"
)

type schoolRepository struct {
	db *DB
}

var _ school.Repository = (*schoolRepository)(nil)

func NewSchoolRepository(db *DB) *schoolRepository {
	return &schoolRepository{db: db}
}

// Students

func (repo *schoolRepository) withTeacherName(s school.Student) school.Student {
	s.TeacherName.Valid = false
	s.TeacherName.String = ""
	if s.TeacherID.Valid {
		if t, ok := repo.db.t.teachers[s.TeacherID.Int64]; ok {
			s.TeacherName.SetValid(t.Name)
		}
	}
	return s
}

func (repo *schoolRepository) checkStudentConstraints(s school.Student) error {
	for _, other := range repo.db.t.students {
		if other.ID == s.ID {
			continue
		}
		if strings.EqualFold(other.Email, s.Email) {
			return school.ErrStudentEmailExists
		}
		if s.UserID.Valid && other.UserID.Valid && other.UserID.Int64 == s.UserID.Int64 {
			return errUserLinked
		}
	}
	if s.TeacherID.Valid {
		if _, ok := repo.db.t.teachers[s.TeacherID.Int64]; !ok {
			return school.ErrTeacherNotFound
		}
	}
	return nil
}

func (repo *schoolRepository) CreateStudent(_ context.Context, s school.Student) (school.Student, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	s.ID = 0
	if err := repo.checkStudentConstraints(s); err != nil {
		return school.Student{}, err
	}
	s.ID = repo.db.t.nextID("students")
	s = repo.withTeacherName(s)
	repo.db.t.students[s.ID] = s
	return s, nil
}

func (repo *schoolRepository) UpdateStudent(_ context.Context, s school.Student) (school.Student, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	orig, ok := repo.db.t.students[s.ID]
	if !ok {
		return school.Student{}, school.ErrStudentNotFound
	}
	if err := repo.checkStudentConstraints(s); err != nil {
		return school.Student{}, err
	}
	s.CreatedAt = orig.CreatedAt
	s = repo.withTeacherName(s)
	repo.db.t.students[s.ID] = s
	return s, nil
}

func (repo *schoolRepository) DeleteStudent(_ context.Context, id int64) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.t.students[id]; !ok {
		return school.ErrStudentNotFound
	}
	delete(repo.db.t.students, id)
	for attID, a := range repo.db.t.attendance {
		if a.StudentID == id {
			delete(repo.db.t.attendance, attID)
		}
	}
	return nil
}

func (repo *schoolRepository) GetStudentByID(_ context.Context, id int64) (school.Student, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if s, ok := repo.db.t.students[id]; ok {
		return repo.withTeacherName(s), nil
	}
	return school.Student{}, school.ErrStudentNotFound
}

func (repo *schoolRepository) GetStudentByUserID(_ context.Context, userID int64) (school.Student, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	for _, s := range repo.db.t.students {
		if s.UserID.Valid && s.UserID.Int64 == userID {
			return repo.withTeacherName(s), nil
		}
	}
	return school.Student{}, school.ErrStudentNotFound
}

func (repo *schoolRepository) StudentEmailExists(_ context.Context, email string, excludeID int64) (bool, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	for _, s := range repo.db.t.students {
		if s.ID != excludeID && strings.EqualFold(s.Email, email) {
			return true, nil
		}
	}
	return false, nil
}

func (repo *schoolRepository) filterStudents(filter school.StudentFilter) []school.Student {
	search := strings.ToLower(filter.Search)
	students := make([]school.Student, 0, len(repo.db.t.students))
	for _, s := range repo.db.t.students {
		if filter.TeacherID.Valid && (!s.TeacherID.Valid || s.TeacherID.Int64 != filter.TeacherID.Int64) {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(s.Name), search) &&
			!strings.Contains(strings.ToLower(s.Email), search) &&
			!strings.Contains(strings.ToLower(s.Course), search) {
			continue
		}
		students = append(students, repo.withTeacherName(s))
	}
	return students
}

func (repo *schoolRepository) QueryStudents(
	_ context.Context,
	filter school.StudentFilter,
	ordering []core.DBOrdering,
	limit, offset int,
) ([]school.Student, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	students := repo.filterStudents(filter)
	if len(ordering) == 0 {
		ordering = []core.DBOrdering{{Field: "id", Ascending: true}}
	}
	sort.SliceStable(students, func(i, j int) bool {
		for _, ord := range ordering {
			c := compareStudents(students[i], students[j], ord.Field)
			if c == 0 {
				continue
			}
			if ord.Ascending {
				return c < 0
			}
			return c > 0
		}
		return students[i].ID < students[j].ID
	})
	return paginate(students, limit, offset), nil
}

func compareStudents(a, b school.Student, field string) int {
	switch field {
	case "name":
		return strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name))
	case "email":
		return strings.Compare(a.Email, b.Email)
	case "course":
		return strings.Compare(a.Course, b.Course)
	case "age":
		return a.Age - b.Age
	case "created_at":
		return a.CreatedAt.Compare(b.CreatedAt)
	}
	switch {
	case a.ID < b.ID:
		return -1
	case a.ID > b.ID:
		return 1
	}
	return 0
}

func (repo *schoolRepository) CountStudents(_ context.Context, filter school.StudentFilter) (int, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()
	return len(repo.filterStudents(filter)), nil
}

// Teachers

func (repo *schoolRepository) checkTeacherConstraints(t school.Teacher) error {
	for _, other := range repo.db.t.teachers {
		if other.ID == t.ID {
			continue
		}
		if strings.EqualFold(other.Email, t.Email) {
			return school.ErrTeacherEmailExists
		}
		if t.UserID.Valid && other.UserID.Valid && other.UserID.Int64 == t.UserID.Int64 {
			return errUserLinked
		}
	}
	return nil
}

func (repo *schoolRepository) CreateTeacher(_ context.Context, t school.Teacher) (school.Teacher, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	t.ID = 0
	if err := repo.checkTeacherConstraints(t); err != nil {
		return school.Teacher{}, err
	}
	t.ID = repo.db.t.nextID("teachers")
	repo.db.t.teachers[t.ID] = t
	return t, nil
}

func (repo *schoolRepository) UpdateTeacher(_ context.Context, t school.Teacher) (school.Teacher, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.t.teachers[t.ID]; !ok {
		return school.Teacher{}, school.ErrTeacherNotFound
	}
	if err := repo.checkTeacherConstraints(t); err != nil {
		return school.Teacher{}, err
	}
	repo.db.t.teachers[t.ID] = t
	return t, nil
}

func (repo *schoolRepository) DeleteTeacher(_ context.Context, id int64) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.t.teachers[id]; !ok {
		return school.ErrTeacherNotFound
	}
	delete(repo.db.t.teachers, id)
	for sID, s := range repo.db.t.students {
		if s.TeacherID.Valid && s.TeacherID.Int64 == id {
			s.TeacherID.Valid = false
			s.TeacherID.Int64 = 0
			repo.db.t.students[sID] = s
		}
	}
	return nil
}

func (repo *schoolRepository) GetTeacherByID(_ context.Context, id int64) (school.Teacher, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if t, ok := repo.db.t.teachers[id]; ok {
		return t, nil
	}
	return school.Teacher{}, school.ErrTeacherNotFound
}

func (repo *schoolRepository) GetTeacherByUserID(_ context.Context, userID int64) (school.Teacher, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	for _, t := range repo.db.t.teachers {
		if t.UserID.Valid && t.UserID.Int64 == userID {
			return t, nil
		}
	}
	return school.Teacher{}, school.ErrTeacherNotFound
}

func (repo *schoolRepository) TeacherEmailExists(_ context.Context, email string, excludeID int64) (bool, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	for _, t := range repo.db.t.teachers {
		if t.ID != excludeID && strings.EqualFold(t.Email, email) {
			return true, nil
		}
	}
	return false, nil
}

func (repo *schoolRepository) QueryTeachers(context.Context) ([]school.Teacher, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	teachers := make([]school.Teacher, 0, len(repo.db.t.teachers))
	for _, t := range repo.db.t.teachers {
		teachers = append(teachers, t)
	}
	sort.Slice(teachers, func(i, j int) bool { return teachers[i].ID < teachers[j].ID })
	return teachers, nil
}

func (repo *schoolRepository) CountTeachers(context.Context) (int, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()
	return len(repo.db.t.teachers), nil
}

// Attendance

func (repo *schoolRepository) CreateAttendance(_ context.Context, a school.Attendance) (school.Attendance, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	s, ok := repo.db.t.students[a.StudentID]
	if !ok {
		return school.Attendance{}, school.ErrStudentNotFound
	}
	a.Date = school.DateOf(a.Date)
	for _, other := range repo.db.t.attendance {
		if other.StudentID == a.StudentID && other.Date.Equal(a.Date) {
			return school.Attendance{}, school.ErrDuplicateAttendance
		}
	}
	a.ID = repo.db.t.nextID("attendance")
	a.StudentName = ""
	repo.db.t.attendance[a.ID] = a
	a.StudentName = s.Name
	return a, nil
}

func (repo *schoolRepository) AttendanceExists(_ context.Context, studentID int64, date time.Time) (bool, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	date = school.DateOf(date)
	for _, a := range repo.db.t.attendance {
		if a.StudentID == studentID && a.Date.Equal(date) {
			return true, nil
		}
	}
	return false, nil
}

func (repo *schoolRepository) filterAttendance(filter school.AttendanceFilter) []school.Attendance {
	records := make([]school.Attendance, 0, len(repo.db.t.attendance))
	for _, a := range repo.db.t.attendance {
		s := repo.db.t.students[a.StudentID]
		if filter.StudentID.Valid && a.StudentID != filter.StudentID.Int64 {
			continue
		}
		if filter.TeacherID.Valid && (!s.TeacherID.Valid || s.TeacherID.Int64 != filter.TeacherID.Int64) {
			continue
		}
		if filter.Date.Valid && !a.Date.Equal(school.DateOf(filter.Date.Time)) {
			continue
		}
		if filter.Status != "" && a.Status != filter.Status {
			continue
		}
		a.StudentName = s.Name
		records = append(records, a)
	}
	return records
}

func (repo *schoolRepository) QueryAttendance(_ context.Context, filter school.AttendanceFilter, limit int) ([]school.Attendance, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	records := repo.filterAttendance(filter)
	sort.Slice(records, func(i, j int) bool {
		if !records[i].Date.Equal(records[j].Date) {
			return records[i].Date.After(records[j].Date)
		}
		return records[i].ID > records[j].ID
	})
	return paginate(records, limit, 0), nil
}

func (repo *schoolRepository) CountAttendance(_ context.Context, filter school.AttendanceFilter) (int, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()
	return len(repo.filterAttendance(filter)), nil
}

// Profiles

func (repo *schoolRepository) GetProfileByUserID(_ context.Context, userID int64) (school.Profile, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	for _, p := range repo.db.t.profiles {
		if p.UserID == userID {
			return p, nil
		}
	}
	return school.Profile{}, school.ErrProfileNotFound
}

func (repo *schoolRepository) SaveProfile(_ context.Context, p school.Profile) (school.Profile, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	for id, existing := range repo.db.t.profiles {
		if existing.UserID == p.UserID {
			existing.Role = p.Role
			repo.db.t.profiles[id] = existing
			return existing, nil
		}
	}
	p.ID = repo.db.t.nextID("profiles")
	repo.db.t.profiles[p.ID] = p
	return p, nil
}

func paginate[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return items[:0]
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}
