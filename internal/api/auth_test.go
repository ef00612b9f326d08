package api_test

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"keja/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func registerForm(username, email, password string) url.Values {
	return url.Values{
		"name":      {"Jane Tenant"},
		"username":  {username},
		"email":     {email},
		"password1": {password},
		"password2": {password},
	}
}

func TestRegister_LowercasesAndLogsIn(t *testing.T) {
	app := newTestApp(t)

	rec := app.postForm("/register", registerForm("JaneT", "Jane@Example.COM", "tangerine-boat-42"), nil)
	require.Equal(t, http.StatusFound, rec.Code, rec.Body.String())
	assert.Equal(t, "/", rec.Header().Get("Location"))

	var user domain.User
	require.NoError(t, app.db.First(&user).Error)
	assert.Equal(t, "janet", user.Username)
	assert.Equal(t, "jane@example.com", user.Email)
	assert.NotEqual(t, "tangerine-boat-42", user.Password)

	// The new session is live straight away
	cookie := sessionCookie(rec)
	require.NotNil(t, cookie)
	assert.Equal(t, http.StatusOK, app.get("/my-properties", cookie).Code)
}

func TestRegister_RejectsDuplicateEmailIgnoringCase(t *testing.T) {
	app := newTestApp(t)
	app.createUser("existing", "taken@example.com", "whatever-pass", domain.RoleUser)

	rec := app.postForm("/register", registerForm("newcomer", "TAKEN@example.com", "tangerine-boat-42"), nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	errs := fieldErrors(t, rec)
	assert.Contains(t, errs["email"], "A user with this email already exists.")

	var count int64
	require.NoError(t, app.db.Model(&domain.User{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestRegister_FormRules(t *testing.T) {
	tests := []struct {
		name    string
		form    url.Values
		field   string
		message string
	}{
		{
			name:    "missing username",
			form:    registerForm("", "a@example.com", "tangerine-boat-42"),
			field:   "username",
			message: "This field is required.",
		},
		{
			name:    "bad username characters",
			form:    registerForm("jane doe", "a@example.com", "tangerine-boat-42"),
			field:   "username",
			message: "Enter a valid username. This value may contain only letters, numbers, and @/./+/-/_ characters.",
		},
		{
			name:    "invalid email",
			form:    registerForm("jane", "not-an-email", "tangerine-boat-42"),
			field:   "email",
			message: "Enter a valid email address.",
		},
		{
			name: "mismatched passwords",
			form: url.Values{
				"username": {"jane"}, "email": {"a@example.com"},
				"password1": {"tangerine-boat-42"}, "password2": {"tangerine-boat-43"},
			},
			field:   "password2",
			message: "The two password fields didn't match.",
		},
		{
			name:    "short password",
			form:    registerForm("jane", "a@example.com", "x9!k"),
			field:   "password2",
			message: "This password is too short. It must contain at least 8 characters.",
		},
		{
			name:    "numeric password",
			form:    registerForm("jane", "a@example.com", "83920174"),
			field:   "password2",
			message: "This password is entirely numeric.",
		},
		{
			name:    "common password",
			form:    registerForm("jane", "a@example.com", "password123"),
			field:   "password2",
			message: "This password is too common.",
		},
		{
			name:    "similar to username",
			form:    registerForm("marigold", "a@example.com", "marigold99"),
			field:   "password2",
			message: "The password is too similar to the username.",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := newTestApp(t)
			rec := app.postForm("/register", tt.form, nil)
			require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
			assert.Contains(t, fieldErrors(t, rec)[tt.field], tt.message)
			assert.Nil(t, sessionCookie(rec))
		})
	}
}

func TestLogin(t *testing.T) {
	app := newTestApp(t)
	app.createUser("tenant", "tenant@example.com", "correct-horse", domain.RoleUser)

	tests := []struct {
		name   string
		form   url.Values
		status int
		errMsg string
	}{
		{"missing password", url.Values{"email": {"tenant@example.com"}}, http.StatusBadRequest, "Please provide both email and password"},
		{"missing email", url.Values{"password": {"correct-horse"}}, http.StatusBadRequest, "Please provide both email and password"},
		{"unknown email", url.Values{"email": {"ghost@example.com"}, "password": {"correct-horse"}}, http.StatusNotFound, "User with this email does not exist"},
		{"wrong password", url.Values{"email": {"tenant@example.com"}, "password": {"wrong-horse"}}, http.StatusUnauthorized, "Invalid email or password"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := app.postForm("/login", tt.form, nil)
			require.Equal(t, tt.status, rec.Code)
			assert.Equal(t, tt.errMsg, decodeJSON(t, rec)["error"])
			assert.Nil(t, sessionCookie(rec))
		})
	}

	t.Run("success ignores email case", func(t *testing.T) {
		rec := app.postForm("/login", url.Values{"email": {"TENANT@Example.com"}, "password": {"correct-horse"}}, nil)
		require.Equal(t, http.StatusFound, rec.Code)
		assert.Equal(t, "/", rec.Header().Get("Location"))
		assert.NotNil(t, sessionCookie(rec))
	})

	t.Run("success follows local next", func(t *testing.T) {
		rec := app.postForm("/login?next=%2Fmy-properties", url.Values{"email": {"tenant@example.com"}, "password": {"correct-horse"}}, nil)
		require.Equal(t, http.StatusFound, rec.Code)
		assert.Equal(t, "/my-properties", rec.Header().Get("Location"))
	})

	t.Run("ignores external next", func(t *testing.T) {
		for _, next := range []string{
			"%2F%2Fevil.example",
			"%2F%5Cevil.example",
			"https%3A%2F%2Fevil.example",
			"%2F%09%2Fevil.example",
			"%2F%0A%2Fevil.example",
			"%2F%0D%2Fevil.example",
			"%2F%7F",
		} {
			rec := app.postForm("/login?next="+next, url.Values{"email": {"tenant@example.com"}, "password": {"correct-horse"}}, nil)
			require.Equal(t, http.StatusFound, rec.Code, next)
			assert.Equal(t, "/", rec.Header().Get("Location"), next)
		}
	})

	t.Run("malformed json body", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(`{"email": "tenant@example.com", "password": `))
		req.Header.Set("Content-Type", "application/json")
		rec := app.serve(req, nil)
		require.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "Please provide both email and password", decodeJSON(t, rec)["error"])
		assert.Nil(t, sessionCookie(rec))
	})
}

func TestLoginPage_RedirectsAuthenticatedUsers(t *testing.T) {
	app := newTestApp(t)
	app.createUser("tenant", "tenant@example.com", "correct-horse", domain.RoleUser)

	assert.Equal(t, http.StatusOK, app.get("/login", nil).Code)

	cookie := app.login("tenant@example.com", "correct-horse")
	rec := app.get("/login", cookie)
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))
}

func TestLogout_DestroysSession(t *testing.T) {
	app := newTestApp(t)
	app.createUser("tenant", "tenant@example.com", "correct-horse", domain.RoleUser)
	cookie := app.login("tenant@example.com", "correct-horse")
	require.Equal(t, 1, app.sessions.Len())

	rec := app.get("/logout", cookie)
	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))
	assert.Zero(t, app.sessions.Len())

	// The old token no longer authenticates
	rec = app.get("/my-properties", cookie)
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/login?next=%2Fmy-properties", rec.Header().Get("Location"))
}

func TestLogout_WithoutSession(t *testing.T) {
	app := newTestApp(t)
	rec := app.get("/logout", nil)
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))
}
