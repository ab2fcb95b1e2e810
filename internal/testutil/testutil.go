package testutil

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/unique3900/devtul/internal/auth"
	"github.com/unique3900/devtul/internal/database/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// SetupTestDB creates an in-memory SQLite database for testing
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	// Run migrations
	err = db.AutoMigrate(
		&models.Organization{},
		&models.User{},
		&models.Project{},
		&models.Scan{},
		&models.ScanResult{},
		&models.Monitor{},
	)
	if err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	return db
}

// CleanupTestDB closes the test database connection
func CleanupTestDB(t *testing.T, db *gorm.DB) {
	t.Helper()
	sqlDB, err := db.DB()
	if err != nil {
		t.Logf("warning: failed to get sql.DB: %v", err)
		return
	}
	sqlDB.Close()
}

// CreateTestOrg creates a test organization
func CreateTestOrg(t *testing.T, db *gorm.DB) *models.Organization {
	t.Helper()

	org := &models.Organization{
		Base: models.Base{
			ID: uuid.New(),
		},
		Name: "Test Organization",
		Slug: "test-org-" + uuid.New().String()[:8],
		Plan: "free",
	}

	if err := db.Create(org).Error; err != nil {
		t.Fatalf("failed to create test organization: %v", err)
	}

	return org
}

// CreateTestUser creates a test user with the given organization
func CreateTestUser(t *testing.T, db *gorm.DB, org *models.Organization) *models.User {
	t.Helper()

	hash, err := auth.HashPassword("testpassword123")
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	user := &models.User{
		Base: models.Base{
			ID: uuid.New(),
		},
		Email:          "test-" + uuid.New().String()[:8] + "@example.com",
		PasswordHash:   hash,
		Name:           "Test User",
		OrganizationID: org.ID,
		Role:           "owner",
		IsActive:       true,
	}

	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}

	user.Organization = org
	return user
}

// CreateTestJWTService creates a JWT service for testing
func CreateTestJWTService() *auth.JWTService {
	return auth.NewJWTService("test-secret-key-for-testing", 24*time.Hour)
}

// GenerateTestToken generates a valid JWT token for the given user
func GenerateTestToken(t *testing.T, jwtService *auth.JWTService, user *models.User) string {
	t.Helper()

	token, err := jwtService.GenerateToken(user.ID, user.OrganizationID, user.Email, user.Role)
	if err != nil {
		t.Fatalf("failed to generate test token: %v", err)
	}

	return token
}

// AuthenticatedRequest creates an HTTP request with authentication
func AuthenticatedRequest(t *testing.T, method, path string, body interface{}, token string) *http.Request {
	t.Helper()

	var reqBody *bytes.Buffer
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to marshal request body: %v", err)
		}
		reqBody = bytes.NewBuffer(jsonData)
	} else {
		reqBody = bytes.NewBuffer(nil)
	}

	req := httptest.NewRequest(method, path, reqBody)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	return req
}

// UnauthenticatedRequest creates an HTTP request without authentication
func UnauthenticatedRequest(t *testing.T, method, path string, body interface{}) *http.Request {
	t.Helper()
	return AuthenticatedRequest(t, method, path, body, "")
}

// AssertStatus checks if the response has the expected status code
func AssertStatus(t *testing.T, rr *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if rr.Code != expected {
		t.Errorf("expected status %d, got %d. Body: %s", expected, rr.Code, rr.Body.String())
	}
}

// ParseJSONResponse parses the response body into the given struct
func ParseJSONResponse(t *testing.T, rr *httptest.ResponseRecorder, v interface{}) {
	t.Helper()

	if err := json.Unmarshal(rr.Body.Bytes(), v); err != nil {
		t.Fatalf("failed to parse response body: %v. Body: %s", err, rr.Body.String())
	}
}

// CreateTestProject creates a test project
func CreateTestProject(t *testing.T, db *gorm.DB, orgID uuid.UUID) *models.Project {
	t.Helper()

	project := &models.Project{
		Base: models.Base{
			ID: uuid.New(),
		},
		OrganizationID: orgID,
		Name:           "Test Project",
		URL:            "https://example.com",
		IsActive:       true,
	}

	if err := db.Create(project).Error; err != nil {
		t.Fatalf("failed to create test project: %v", err)
	}

	return project
}

// CreateTestScan creates a test scan
func CreateTestScan(t *testing.T, db *gorm.DB, orgID, projectID uuid.UUID, scanType models.ScanType) *models.Scan {
	t.Helper()

	scan := &models.Scan{
		Base: models.Base{
			ID: uuid.New(),
		},
		OrganizationID: orgID,
		ProjectID:      projectID,
		Type:           scanType,
		Status:         models.ScanStatusCompleted,
	}

	if err := db.Create(scan).Error; err != nil {
		t.Fatalf("failed to create test scan: %v", err)
	}

	return scan
}

// ResultOption mutates a scan result before it is persisted.
type ResultOption func(*models.ScanResult)

func WithMessage(msg string) ResultOption {
	return func(r *models.ScanResult) { r.Message = msg }
}

func WithURL(url string) ResultOption {
	return func(r *models.ScanResult) { r.URL = url }
}

func WithTags(tags ...string) ResultOption {
	return func(r *models.ScanResult) { r.Tags = tags }
}

func WithCategory(category string) ResultOption {
	return func(r *models.ScanResult) { r.Category = category }
}

func WithScanType(scanType models.ScanType) ResultOption {
	return func(r *models.ScanResult) { r.ScanType = scanType }
}

func WithResolved() ResultOption {
	return func(r *models.ScanResult) { r.IsResolved = true }
}

func WithElement(element string) ResultOption {
	return func(r *models.ScanResult) { r.Element = element }
}

func WithHelp(help string) ResultOption {
	return func(r *models.ScanResult) { r.Help = help }
}

// CreateTestResult creates a test scan result
func CreateTestResult(t *testing.T, db *gorm.DB, scanID uuid.UUID, severity models.Severity, opts ...ResultOption) *models.ScanResult {
	t.Helper()

	result := &models.ScanResult{
		Base: models.Base{
			ID: uuid.New(),
		},
		ScanID:   scanID,
		URL:      "https://example.com/page",
		Message:  "Test finding",
		Severity: severity,
		ScanType: models.ScanTypeSecurity,
		Details:  "{}",
	}
	for _, opt := range opts {
		opt(result)
	}

	if err := db.Create(result).Error; err != nil {
		t.Fatalf("failed to create test result: %v", err)
	}

	return result
}

// CreateTestMonitor creates a test monitor
func CreateTestMonitor(t *testing.T, db *gorm.DB, orgID, projectID uuid.UUID, cronExpr string) *models.Monitor {
	t.Helper()

	monitor := &models.Monitor{
		Base: models.Base{
			ID: uuid.New(),
		},
		OrganizationID: orgID,
		ProjectID:      projectID,
		Name:           "Test Monitor",
		CronExpr:       cronExpr,
		ScanType:       models.ScanTypeUptime,
		IsEnabled:      true,
		NextRunAt:      time.Now().Add(time.Hour).Unix(),
	}

	if err := db.Create(monitor).Error; err != nil {
		t.Fatalf("failed to create test monitor: %v", err)
	}

	return monitor
}

// TestContext creates a context with a timeout for tests
func TestContext(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	t.Cleanup(cancel)
	return ctx
}

// TestSetup holds all the common test dependencies
type TestSetup struct {
	DB         *gorm.DB
	JWTService *auth.JWTService
	Org        *models.Organization
	User       *models.User
	Token      string
}

// NewTestContext creates a complete test setup with DB, org, user, and token
func NewTestContext(t *testing.T) *TestSetup {
	t.Helper()

	db := SetupTestDB(t)
	jwtService := CreateTestJWTService()
	org := CreateTestOrg(t, db)
	user := CreateTestUser(t, db, org)
	token := GenerateTestToken(t, jwtService, user)

	return &TestSetup{
		DB:         db,
		JWTService: jwtService,
		Org:        org,
		User:       user,
		Token:      token,
	}
}

// Cleanup closes the test database
func (ts *TestSetup) Cleanup() {
	if ts.DB != nil {
		sqlDB, err := ts.DB.DB()
		if err == nil {
			sqlDB.Close()
		}
	}
}
