package tests

import (
	"context"
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kaithabhanuteja/StudentManagement/core/school"
	"github.com/kaithabhanuteja/StudentManagement/core/user"
	emailsvc "github.com/kaithabhanuteja/StudentManagement/services/email"
	testutil "github.com/kaithabhanuteja/StudentManagement/tests"
)

func Test_accountApi_login(t *testing.T) {
	srv, env := setup(t)
	testutil.CreateUser(t, env.UserRepo, "alice", "alice@example.com", testPassword, false, true)
	testutil.CreateUser(t, env.UserRepo, "bob", "bob@example.com", testPassword, false, false)

	creds := func(uname, pwd, next string) url.Values {
		v := url.Values{"username": {uname}, "password": {pwd}}
		if next != "" {
			v.Set("next", next)
		}
		return v
	}

	tests := []httpTest{
		{
			name:     "form",
			method:   http.MethodGet,
			path:     "/login/?next=/students/",
			wantCode: http.StatusOK,
			wantData: []string{`name="next" value="/students/"`},
		},
		{
			name:     "missing fields",
			method:   http.MethodPost,
			path:     "/login/",
			body:     creds("", "", ""),
			wantCode: http.StatusBadRequest,
			wantData: []string{"This field is required."},
		},
		{
			name:     "wrong password",
			method:   http.MethodPost,
			path:     "/login/",
			body:     creds("alice", "wrong-password", ""),
			wantCode: http.StatusBadRequest,
			wantData: []string{"Please enter a correct username and password.", `value="alice"`},
		},
		{
			name:     "inactive account",
			method:   http.MethodPost,
			path:     "/login/",
			body:     creds("bob", testPassword, ""),
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "success",
			method:   http.MethodPost,
			path:     "/login/",
			body:     creds("alice", testPassword, ""),
			wantCode: http.StatusFound,
			extra:    "/",
		},
		{
			name:     "success with email",
			method:   http.MethodPost,
			path:     "/login/",
			body:     creds("ALICE@example.com", testPassword, "/students/?page=2"),
			wantCode: http.StatusFound,
			extra:    "/students/?page=2",
		},
		{
			name:     "offsite next is ignored",
			method:   http.MethodPost,
			path:     "/login/",
			body:     creds("alice", testPassword, "//evil.example.com/"),
			wantCode: http.StatusFound,
			extra:    "/",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(srv, tt)
			checkCodeAndData(t, tt, rec)

			cookie := sessionCookie(rec)
			if tt.wantCode == http.StatusFound {
				assert.Equal(t, tt.extra, rec.Header().Get("Location"))
				if assert.NotNil(t, cookie) {
					assert.NotEmpty(t, cookie.Value)
					assert.True(t, cookie.HttpOnly)
				}
			} else if tt.method == http.MethodPost {
				assert.Nil(t, cookie)
			}
		})
	}

	t.Run("session is usable", func(t *testing.T) {
		rec := serve(srv, httpTest{method: http.MethodPost, path: "/login/", body: creds("alice", testPassword, "")})
		cookie := sessionCookie(rec)
		require.NotNil(t, cookie)

		rec = serve(srv, httpTest{method: http.MethodGet, path: "/students/", token: cookie.Value})
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}

func Test_accountApi_logout(t *testing.T) {
	srv, env := setup(t)
	usr := testutil.CreateUser(t, env.UserRepo, "alice", "alice@example.com", testPassword, false, true)

	rec := serve(srv, httpTest{method: http.MethodPost, path: "/logout/", token: getToken(t, env, usr)})
	checkRedirect(t, rec, "/login/")

	cookie := sessionCookie(rec)
	if assert.NotNil(t, cookie) {
		assert.Empty(t, cookie.Value)
		assert.True(t, cookie.MaxAge < 0)
	}
}

func Test_loginRequired(t *testing.T) {
	srv, env := setup(t)
	inactive := testutil.CreateUser(t, env.UserRepo, "bob", "bob@example.com", testPassword, false, false)

	tests := []httpTest{
		{name: "dashboard", method: http.MethodGet, path: "/", extra: "/login/?next=%2F"},
		{name: "students", method: http.MethodGet, path: "/students/", extra: "/login/?next=%2Fstudents"},
		{name: "attendance", method: http.MethodGet, path: "/attendance/mark/", extra: "/login/?next=%2Fattendance%2Fmark"},
		{name: "teachers", method: http.MethodGet, path: "/teachers/", extra: "/login/?next=%2Fteachers"},
		{name: "bad token", method: http.MethodGet, path: "/students/", token: "not-a-token", extra: "/login/?next=%2Fstudents"},
		{name: "inactive account", method: http.MethodGet, path: "/students/", token: getToken(t, env, inactive), extra: "/login/?next=%2Fstudents"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(srv, tt)
			checkRedirect(t, rec, tt.extra.(string))
		})
	}
}

func Test_accountApi_register(t *testing.T) {
	srv, env := setup(t)
	emailsvc.ResetSentMessages()
	testutil.CreateUser(t, env.UserRepo, "taken", "taken@example.com", testPassword, false, true)
	testutil.CreateStudent(t, env.SchoolRepo, school.Student{Name: "Kim", Email: "kim@example.com", Course: "Math"})

	form := func(uname, email, pwd1, pwd2 string) url.Values {
		return url.Values{"username": {uname}, "email": {email}, "password1": {pwd1}, "password2": {pwd2}}
	}

	tests := []httpTest{
		{
			name:     "form",
			method:   http.MethodGet,
			path:     "/register/",
			wantCode: http.StatusOK,
			wantData: []string{`name="password1"`, `name="password2"`},
		},
		{
			name:     "passwords mismatch",
			method:   http.MethodPost,
			path:     "/register/",
			body:     form("john", "john@example.com", testPassword, testPassword+"x"),
			wantCode: http.StatusBadRequest,
			wantData: []string{"The two password fields did not match."},
		},
		{
			name:     "common password",
			method:   http.MethodPost,
			path:     "/register/",
			body:     form("john", "john@example.com", "password", "password"),
			wantCode: http.StatusBadRequest,
			wantData: []string{"This password is too common."},
		},
		{
			name:     "username taken",
			method:   http.MethodPost,
			path:     "/register/",
			body:     form("taken", "john@example.com", testPassword, testPassword),
			wantCode: http.StatusBadRequest,
			wantData: []string{"A user with that username already exists."},
		},
		{
			name:     "student email taken",
			method:   http.MethodPost,
			path:     "/register/",
			body:     form("kim", "kim@example.com", testPassword, testPassword),
			wantCode: http.StatusBadRequest,
			wantData: []string{"Student with this Email already exists."},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(srv, tt)
			checkCodeAndData(t, tt, rec)
			assert.NotContains(t, rec.Body.String(), testPassword)
		})
	}

	t.Run("success", func(t *testing.T) {
		ctx := context.Background()
		rec := serve(srv, httpTest{
			method: http.MethodPost,
			path:   "/register/",
			body:   form("John", "John@Example.com", testPassword, testPassword),
		})
		checkRedirect(t, rec, "/student/dashboard/")
		cookie := sessionCookie(rec)
		require.NotNil(t, cookie)

		usr, err := env.UserRepo.GetUserByUsernameOrEmail(ctx, "john@example.com")
		require.NoError(t, err)
		assert.Equal(t, "John", usr.Username)
		assert.ElementsMatch(t, user.StudentPermissions, usr.Permissions)

		student, err := env.SchoolRepo.GetStudentByUserID(ctx, usr.ID)
		require.NoError(t, err)
		assert.Equal(t, "John", student.Name)
		assert.Equal(t, "john@example.com", student.Email)
		assert.Equal(t, school.RegisteredStudentAge, student.Age)
		assert.Equal(t, school.RegisteredStudentCourse, student.Course)

		profile, err := env.SchoolRepo.GetProfileByUserID(ctx, usr.ID)
		require.NoError(t, err)
		assert.Equal(t, school.RoleStudent, profile.Role)

		if assert.Len(t, emailsvc.SentMessages, 1) && assert.Len(t, emailsvc.SentMessages[0].To, 1) {
			assert.Equal(t, "john@example.com", emailsvc.SentMessages[0].To[0].Address)
		}

		rec = serve(srv, httpTest{method: http.MethodGet, path: "/student/dashboard/", token: cookie.Value})
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), school.RegisteredStudentCourse)
	})
}
