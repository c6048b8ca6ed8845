package tests

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	echoapi "github.com/kaithabhanuteja/StudentManagement/apps/api/echo"
	"github.com/kaithabhanuteja/StudentManagement/core/user"
	testutil "github.com/kaithabhanuteja/StudentManagement/tests"
)

const testPassword = "xK9#mLq2vTz!"

func setup(t *testing.T) (*echoapi.Server, *testutil.Env) {
	t.Helper()
	env := testutil.NewEnv(t)

	srv, err := echoapi.NewServer(echoapi.Deps{
		Conf:       env.Conf,
		Logger:     env.Logger,
		UserSvc:    env.UserSvc,
		SchoolSvc:  env.SchoolSvc,
		Validate:   env.Validate,
		Translator: env.Translator,
		Pinger:     env.DB,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = srv.Close() })
	return srv, env
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     url.Values
	token    string
	wantCode int
	wantData []string // fragments the response body must contain
	extra    interface{}
}

func newAuthRequest(method, path, token string, form ...url.Values) (*http.Request, *httptest.ResponseRecorder) {
	var body string
	if len(form) > 0 && form[0] != nil {
		body = form[0].Encode()
	}
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	if token != "" {
		req.AddCookie(&http.Cookie{Name: echoapi.SessionCookieName, Value: token})
	}
	rec := httptest.NewRecorder()
	return req, rec
}

func newRequest(method, path string, form ...url.Values) (*http.Request, *httptest.ResponseRecorder) {
	return newAuthRequest(method, path, "", form...)
}

func getToken(t *testing.T, env *testutil.Env, usr user.User) string {
	t.Helper()
	token, err := echoapi.NewSessionToken(usr, env.Conf)
	if err != nil {
		t.Fatalf("getToken() failed: %v", err)
	}
	return token
}

func serve(srv *echoapi.Server, tt httpTest) *httptest.ResponseRecorder {
	req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
	srv.ServeHTTP(rec, req)
	return rec
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	t.Helper()
	assert.Equal(t, tt.wantCode, rec.Code)
	for _, frag := range tt.wantData {
		assert.Contains(t, rec.Body.String(), frag)
	}
}

func checkRedirect(t *testing.T, rec *httptest.ResponseRecorder, wantLocation string) {
	t.Helper()
	if assert.Equal(t, http.StatusFound, rec.Code) {
		assert.Equal(t, wantLocation, rec.Header().Get("Location"))
	}
}

func sessionCookie(rec *httptest.ResponseRecorder) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == echoapi.SessionCookieName {
			return c
		}
	}
	return nil
}
