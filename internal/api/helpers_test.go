package api_test

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"keja/internal/api"
	"keja/internal/dbtest"
	"keja/internal/domain"
	"keja/internal/media"
	"keja/internal/metrics"
	"keja/internal/session"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const cookieName = "sessionid"

type testApp struct {
	t        *testing.T
	db       *gorm.DB
	router   *gin.Engine
	sessions *session.MemoryStore
	mediaDir string
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	gin.SetMode(gin.TestMode)
	conn := dbtest.New(t)
	store := session.NewMemoryStore()
	dir := t.TempDir()
	r := api.NewRouter(api.Deps{
		DB:       conn,
		Sessions: session.NewManager(store, "test-secret", time.Hour),
		Cookie:   api.CookieConfig{Name: cookieName},
		Media:    media.NewLocalStore(dir, "/media/"),
		Metrics:  metrics.New(),
		MediaURL: "/media/",
		MediaDir: dir,
	})
	return &testApp{t: t, db: conn, router: r, sessions: store, mediaDir: dir}
}

func (a *testApp) serve(req *http.Request, cookie *http.Cookie) *httptest.ResponseRecorder {
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	return rec
}

func (a *testApp) get(target string, cookie *http.Cookie) *httptest.ResponseRecorder {
	return a.serve(httptest.NewRequest(http.MethodGet, target, nil), cookie)
}

func (a *testApp) postForm(target string, form url.Values, cookie *http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return a.serve(req, cookie)
}

// postMultipart sends fields plus one file upload
func (a *testApp) postMultipart(target string, fields map[string]string, fileField, fileName string, content []byte, cookie *http.Cookie) *httptest.ResponseRecorder {
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	for k, v := range fields {
		require.NoError(a.t, w.WriteField(k, v))
	}
	if fileField != "" {
		part, err := w.CreateFormFile(fileField, fileName)
		require.NoError(a.t, err)
		_, err = part.Write(content)
		require.NoError(a.t, err)
	}
	require.NoError(a.t, w.Close())
	req := httptest.NewRequest(http.MethodPost, target, &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return a.serve(req, cookie)
}

// createUser inserts a user directly, hashing password cheaply
func (a *testApp) createUser(username, email, password, role string) *domain.User {
	a.t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(a.t, err)
	u := &domain.User{Username: username, Email: email, Password: string(hash), Role: role}
	require.NoError(a.t, a.db.Create(u).Error)
	return u
}

// login signs in through the HTTP endpoint and returns the session cookie
func (a *testApp) login(email, password string) *http.Cookie {
	a.t.Helper()
	rec := a.postForm("/login", url.Values{"email": {email}, "password": {password}}, nil)
	require.Equal(a.t, http.StatusFound, rec.Code, rec.Body.String())
	cookie := sessionCookie(rec)
	require.NotNil(a.t, cookie)
	return cookie
}

func sessionCookie(rec *httptest.ResponseRecorder) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == cookieName && c.Value != "" && c.MaxAge >= 0 {
			return c
		}
	}
	return nil
}

type propertyOpt func(*domain.Property)

func (a *testApp) createProperty(landlord *domain.User, opts ...propertyOpt) *domain.Property {
	a.t.Helper()
	p := &domain.Property{
		LandlordID:    landlord.ID,
		Title:         "Test Property",
		PropertyType:  domain.PropertyApartment,
		RentAmount:    decimal.RequireFromString("1200.00"),
		Location:      "Test City",
		Address:       "123 Test Street",
		Bedrooms:      2,
		Bathrooms:     1,
		AreaSqft:      800,
		Description:   "A nice test property",
		IsAvailable:   true,
		DateAvailable: time.Now().AddDate(0, 0, 30),
	}
	for _, opt := range opts {
		opt(p)
	}
	require.NoError(a.t, a.db.Create(p).Error)
	return p
}

func decodeJSON(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

// fieldErrors extracts the {"errors": {...}} body of a rejected form
func fieldErrors(t *testing.T, rec *httptest.ResponseRecorder) map[string][]string {
	t.Helper()
	var out struct {
		Errors map[string][]string `json:"errors"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out.Errors
}

func validPropertyForm() url.Values {
	return url.Values{
		"title":          {"Sunny Loft"},
		"property_type":  {"apartment"},
		"rent_amount":    {"1500.50"},
		"location":       {"Westlands"},
		"address":        {"1 Loft Lane"},
		"bedrooms":       {"2"},
		"bathrooms":      {"1"},
		"area_sqft":      {"900"},
		"description":    {"Bright and airy"},
		"amenities":      {"WiFi, Parking"},
		"date_available": {"2030-01-15"},
	}
}
