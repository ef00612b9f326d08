package api

import (
	"errors"   // Error matching
	"net/http" // HTTP status codes
	"net/url"  // Redirect target parsing
	"regexp"   // Regular expressions
	"strings"  // String manipulation
	"unicode"  // Character classes

	"keja/internal/domain"     // Importing domain models
	"keja/internal/metrics"    // Auth counters
	"keja/internal/middleware" // Session token and principal helpers
	"keja/internal/session"    // Session manager

	"github.com/gin-gonic/gin"   // Gin web framework
	"github.com/sirupsen/logrus" // Logging library
	"golang.org/x/crypto/bcrypt" // Password hashing
	"gorm.io/gorm"               // GORM ORM library
)

// LoginRequest holds the login form
type LoginRequest struct {
	Email    string `form:"email" json:"email"`       // Account email, any case
	Password string `form:"password" json:"password"` // Plain password
}

// RegisterRequest holds the registration form
type RegisterRequest struct {
	Name      string `form:"name" json:"name" binding:"max=200"`                  // Optional display name
	Username  string `form:"username" json:"username" binding:"required,max=150"` // Username must be provided
	Email     string `form:"email" json:"email" binding:"required,email,max=254"` // Email must be provided
	Password1 string `form:"password1" json:"password1" binding:"required"`       // Password
	Password2 string `form:"password2" json:"password2" binding:"required"`       // Password confirmation
}

// CookieConfig controls the session cookie
type CookieConfig struct {
	Name   string // Cookie name
	Secure bool   // Only send over HTTPS
}

// Authenticator starts and ends sessions on behalf of the auth handlers
type Authenticator struct {
	Sessions *session.Manager // Session manager
	Cookie   CookieConfig     // Cookie settings
	Metrics  *metrics.Metrics // Auth counters
}

// login establishes a session for user and hands its token to the client
func (a *Authenticator) login(c *gin.Context, user *domain.User) error {
	token, err := a.Sessions.Establish(c.Request.Context(), user.ID)
	if err != nil {
		return err
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(a.Cookie.Name, token, int(a.Sessions.TTL().Seconds()), "/", "", a.Cookie.Secure, true)
	return nil
}

// logout destroys the request's session, if any, and clears the cookie
func (a *Authenticator) logout(c *gin.Context) {
	if token := middleware.SessionToken(c, a.Cookie.Name); token != "" {
		if err := a.Sessions.Destroy(c.Request.Context(), token); err != nil {
			logrus.WithError(err).Error("Failed to destroy session") // Cookie is cleared regardless
		}
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(a.Cookie.Name, "", -1, "/", "", a.Cookie.Secure, true)
}

// usernamePattern allows letters, digits and @ . + - _
var usernamePattern = regexp.MustCompile(`^[A-Za-z0-9@.+_-]+$`)

// isValidUsername checks the username character set
func isValidUsername(username string) bool {
	return usernamePattern.MatchString(username) // Return whether it matched
}

// commonPasswords are rejected outright
var commonPasswords = map[string]bool{
	"password": true, "password1": true, "password123": true, "12345678": true,
	"123456789": true, "1234567890": true, "qwerty123": true, "qwertyuiop": true,
	"iloveyou": true, "admin123": true, "welcome1": true, "letmein1": true,
	"abc12345": true, "11111111": true, "00000000": true, "passw0rd": true,
}

// passwordProblems checks strength rules and returns one message per failed rule
func passwordProblems(password string, req RegisterRequest) []string {
	var problems []string
	lower := strings.ToLower(password)
	// Too similar to the user's own details
	for _, attr := range []struct{ name, value string }{
		{"username", strings.ToLower(req.Username)},
		{"email address", strings.ToLower(strings.SplitN(req.Email, "@", 2)[0])},
		{"name", strings.ToLower(req.Name)},
	} {
		if len(attr.value) >= 3 && (strings.Contains(lower, attr.value) || strings.Contains(attr.value, lower)) {
			problems = append(problems, "The password is too similar to the "+attr.name+".")
			break
		}
	}
	// Minimum length
	if len([]rune(password)) < 8 {
		problems = append(problems, "This password is too short. It must contain at least 8 characters.")
	}
	// Well-known passwords
	if commonPasswords[lower] {
		problems = append(problems, "This password is too common.")
	}
	// Digits only
	if strings.IndexFunc(password, func(r rune) bool { return !unicode.IsDigit(r) }) == -1 {
		problems = append(problems, "This password is entirely numeric.")
	}
	return problems
}

// validateRegistration applies the form rules that binding tags cannot express
func validateRegistration(c *gin.Context, db *gorm.DB, req *RegisterRequest) FieldErrors {
	fe := FieldErrors{}
	req.Username = strings.ToLower(strings.TrimSpace(req.Username)) // Usernames are stored lowercase
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))       // Emails are stored lowercase
	req.Name = strings.TrimSpace(req.Name)

	// Validate username characters
	if !isValidUsername(req.Username) {
		fe.Add("username", "Enter a valid username. This value may contain only letters, numbers, and @/./+/-/_ characters.")
	}
	// Passwords must match before strength is judged
	if req.Password1 != req.Password2 {
		fe.Add("password2", "The two password fields didn't match.")
	} else {
		for _, problem := range passwordProblems(req.Password2, *req) {
			fe.Add("password2", problem)
		}
	}
	// Uniqueness, compared on the lowercase forms
	var count int64
	if err := db.WithContext(c.Request.Context()).Model(&domain.User{}).Where("email = ?", req.Email).Count(&count).Error; err == nil && count > 0 {
		fe.Add("email", "A user with this email already exists.")
	}
	count = 0
	if err := db.WithContext(c.Request.Context()).Model(&domain.User{}).Where("username = ?", req.Username).Count(&count).Error; err == nil && count > 0 {
		fe.Add("username", "A user with that username already exists.")
	}
	return fe
}

// safeNext accepts only local redirect targets
func safeNext(next string) string {
	// Browsers drop tab, CR and LF, so "/\t/host" would become "//host"
	if strings.IndexFunc(next, func(r rune) bool { return r < 0x20 || r == 0x7f }) != -1 {
		return "/"
	}
	if !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return "/"
	}
	u, err := url.Parse(next)
	if err != nil || u.Scheme != "" || u.Host != "" {
		return "/"
	}
	return next
}

// LoginPageHandler shows the login form, or sends signed-in users home
func LoginPageHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := middleware.CurrentUser(c); ok {
			c.Redirect(http.StatusFound, "/") // Already logged in
			return
		}
		c.JSON(http.StatusOK, gin.H{"page": "login", "next": c.Query("next")})
	}
}

// LoginHandler authenticates by email and password and starts a session
func LoginHandler(db *gorm.DB, auth *Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := middleware.CurrentUser(c); ok {
			c.Redirect(http.StatusFound, "/") // Already logged in
			return
		}
		var req LoginRequest
		bindErr := c.ShouldBind(&req) // Malformed bodies count as missing fields
		email := strings.ToLower(strings.TrimSpace(req.Email))
		// Both fields are needed
		if bindErr != nil || email == "" || req.Password == "" {
			auth.Metrics.RecordAuth("login", "missing_fields")
			c.JSON(http.StatusBadRequest, gin.H{"page": "login", "error": "Please provide both email and password"})
			return
		}
		var user domain.User // Fetch user from database
		if err := db.WithContext(c.Request.Context()).Where("email = ?", email).First(&user).Error; err != nil {
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				respondServerError(c, "Failed to log in", err, logrus.Fields{"email": email})
				return
			}
			auth.Metrics.RecordAuth("login", "unknown_email")
			c.JSON(http.StatusNotFound, gin.H{"page": "login", "error": "User with this email does not exist"})
			return
		}
		// Compare provided password with stored hash
		if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
			auth.Metrics.RecordAuth("login", "bad_password")
			c.JSON(http.StatusUnauthorized, gin.H{"page": "login", "error": "Invalid email or password"})
			return
		}
		// Start the session
		if err := auth.login(c, &user); err != nil {
			respondServerError(c, "Failed to start session", err, logrus.Fields{"user_id": user.ID})
			return
		}
		auth.Metrics.RecordAuth("login", "success")
		logrus.WithField("user_id", user.ID).Info("User logged in")
		c.Redirect(http.StatusFound, safeNext(c.Query("next")))
	}
}

// LogoutHandler ends the session unconditionally and returns home
func LogoutHandler(auth *Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		auth.logout(c)
		auth.Metrics.RecordAuth("logout", "success")
		c.Redirect(http.StatusFound, "/")
	}
}

// RegisterPageHandler shows the registration form
func RegisterPageHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"page": "register"})
	}
}

// RegisterHandler creates an account and logs it in
func RegisterHandler(db *gorm.DB, auth *Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req RegisterRequest // Bind form to struct
		if fe := bindForm(c, &req); fe != nil {
			auth.Metrics.RecordAuth("register", "invalid")
			respondFormErrors(c, fe)
			return
		}
		// Validate username, passwords and uniqueness
		if fe := validateRegistration(c, db, &req); fe.Any() {
			auth.Metrics.RecordAuth("register", "invalid")
			respondFormErrors(c, fe)
			return
		}
		// Hash the password and create the user
		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password1), bcrypt.DefaultCost)
		if err != nil {
			respondServerError(c, "Failed to hash password", err, nil)
			return
		}
		user := domain.User{
			Username: req.Username,    // Already lowercased
			Email:    req.Email,       // Already lowercased
			Password: string(hash),    // Hashed password
			Role:     domain.RoleUser, // Regular account
		}
		if req.Name != "" {
			user.Name = &req.Name
		}
		// Attempt to create the user in the database
		if err := db.WithContext(c.Request.Context()).Create(&user).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				// Lost a race with a concurrent registration
				auth.Metrics.RecordAuth("register", "invalid")
				respondFormErrors(c, FieldErrors{"email": {"A user with this email already exists."}})
				return
			}
			respondServerError(c, "Failed to create user", err, logrus.Fields{"email": req.Email})
			return
		}
		logrus.WithFields(logrus.Fields{
			"user_id":  user.ID,       // New user ID
			"username": user.Username, // Username
		}).Info("User registered")
		auth.Metrics.RecordAuth("register", "success")
		// Log the new user straight in
		if err := auth.login(c, &user); err != nil {
			respondServerError(c, "Failed to start session", err, logrus.Fields{"user_id": user.ID})
			return
		}
		c.Redirect(http.StatusFound, "/")
	}
}
