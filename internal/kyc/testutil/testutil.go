package testutil

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/CsAbdulelah/fundy-chatgpt/internal/kyc/entity"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const TestSchema = "test_kyc"

// projectRoot returns the project root directory by looking for go.mod
func projectRoot() string {
	_, filename, _, _ := runtime.Caller(0)
	dir := filepath.Dir(filename)
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return ""
}

// loadEnv loads .env from the project root
func loadEnv() {
	root := projectRoot()
	if root != "" {
		godotenv.Load(filepath.Join(root, ".env"))
	}
}

// SetupTestDB creates a test database connection using a dedicated test schema.
// Each test gets an isolated schema that is dropped after the test. The test is
// skipped when postgres is not reachable.
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	loadEnv()

	host := getEnv("DB_HOST", "127.0.0.1")
	port := getEnv("DB_PORT", "5432")
	user := getEnv("DB_USER", "kyc")
	password := getEnv("DB_PASSWORD", "kyc")
	dbname := getEnv("DB_NAME", "kyc")

	baseDSN := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable connect_timeout=3",
		host, port, user, password, dbname)

	schemaName := fmt.Sprintf("%s_%s", TestSchema, uuid.New().String()[:8])

	setupDB, err := gorm.Open(postgres.Open(baseDSN), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Skipf("postgres not available: %v", err)
	}
	if err := setupDB.Exec(fmt.Sprintf("CREATE SCHEMA IF NOT EXISTS %s", schemaName)).Error; err != nil {
		t.Skipf("cannot create test schema: %v", err)
	}
	sqlSetup, _ := setupDB.DB()
	sqlSetup.Close()

	// search_path in DSN so ALL pooled connections use the test schema
	testDSN := fmt.Sprintf("%s search_path=%s", baseDSN, schemaName)
	db, err := gorm.Open(postgres.Open(testDSN), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}

	if err := db.AutoMigrate(entity.All()...); err != nil {
		t.Fatalf("Failed to migrate test tables: %v", err)
	}

	t.Cleanup(func() {
		sqlDB, _ := db.DB()
		if sqlDB != nil {
			sqlDB.Close()
		}
		cleanDB, cleanErr := gorm.Open(postgres.Open(baseDSN), &gorm.Config{
			Logger: logger.Default.LogMode(logger.Silent),
		})
		if cleanErr == nil {
			cleanDB.Exec(fmt.Sprintf("DROP SCHEMA IF EXISTS %s CASCADE", schemaName))
			sqlClean, _ := cleanDB.DB()
			if sqlClean != nil {
				sqlClean.Close()
			}
		}
	})

	return db
}

// SetupRouter creates a gin test router
func SetupRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(gin.Recovery())
	return r
}

// DoRequest executes an HTTP request against the test router
func DoRequest(r http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	var reqBody *bytes.Buffer
	if body != nil {
		jsonBytes, _ := json.Marshal(body)
		reqBody = bytes.NewBuffer(jsonBytes)
	} else {
		reqBody = bytes.NewBuffer(nil)
	}

	req, _ := http.NewRequest(method, path, reqBody)
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// ParseResponse parses the JSON response body into a handler.Response-like map
func ParseResponse(w *httptest.ResponseRecorder) map[string]interface{} {
	var result map[string]interface{}
	json.Unmarshal(w.Body.Bytes(), &result)
	return result
}

// Data returns the "data" object of an envelope response
func Data(w *httptest.ResponseRecorder) map[string]interface{} {
	data, _ := ParseResponse(w)["data"].(map[string]interface{})
	return data
}

// SeedUser creates a user in the database
func SeedUser(t *testing.T, db *gorm.DB, id, name string) *entity.User {
	t.Helper()
	user := &entity.User{
		ID:        id,
		Name:      name,
		Email:     id + "@test.local",
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("Failed to seed user: %v", err)
	}
	return user
}

// SeedTeamTemplate creates a team owned by ownerID and an individual template in it
func SeedTeamTemplate(t *testing.T, db *gorm.DB, ownerID string) (*entity.Team, *entity.Template) {
	t.Helper()
	team := &entity.Team{
		ID:              uuid.New().String(),
		Name:            "Test Team",
		OwnerUserID:     ownerID,
		Timezone:        "Asia/Riyadh",
		DefaultLanguage: "ar",
	}
	if err := db.Create(team).Error; err != nil {
		t.Fatalf("Failed to seed team: %v", err)
	}
	tpl := &entity.Template{
		ID:              uuid.New().String(),
		TeamID:          team.ID,
		Name:            "Individual KYC",
		DefaultLanguage: "ar",
		TemplateType:    entity.TemplateTypeIndividual,
		IsActive:        true,
		Schema:          entity.Map(map[string]entity.Value{"sections": entity.List()}),
		CreatedBy:       ownerID,
	}
	if err := db.Create(tpl).Error; err != nil {
		t.Fatalf("Failed to seed template: %v", err)
	}
	return team, tpl
}

// SeedSubmission creates a submitted submission for investorID
func SeedSubmission(t *testing.T, db *gorm.DB, templateID, investorID string) *entity.Submission {
	t.Helper()
	now := time.Now()
	sub := &entity.Submission{
		ID:             uuid.New().String(),
		TemplateID:     templateID,
		InvestorUserID: investorID,
		Status:         entity.SubmissionStatusSubmitted,
		Revision:       1,
		Data:           entity.FormData{"full_name": entity.String("Test Investor")},
		SubmittedAt:    &now,
	}
	if err := db.Create(sub).Error; err != nil {
		t.Fatalf("Failed to seed submission: %v", err)
	}
	return sub
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
