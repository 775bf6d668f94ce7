package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/glebarez/sqlite"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/skillsharecyber/courseplatform/internal/models"
	"github.com/skillsharecyber/courseplatform/internal/repo"
	"github.com/skillsharecyber/courseplatform/internal/revocation"
	"github.com/skillsharecyber/courseplatform/internal/session"
	"github.com/skillsharecyber/courseplatform/internal/tokens"
)

func InitTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to connect to in-memory db: %v", err)
	}
	if err := db.AutoMigrate(
		&models.User{},
		&models.Course{},
		&models.ExamSubmission{},
		&models.ActivityLog{},
	); err != nil {
		t.Fatalf("failed to migrate tables: %v", err)
	}
	return db
}

func newTestIssuer() *tokens.Issuer {
	return tokens.NewIssuer([]byte("test-access-secret"), []byte("test-refresh-secret"))
}

func newTestCore(t *testing.T, r *repo.GormRepo) *session.Core {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis run failed: %v", err)
	}
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		_ = rdb.Close()
		mr.Close()
	})

	return &session.Core{
		Users:    r,
		Issuer:   newTestIssuer(),
		Registry: revocation.NewRegistry(rdb),
	}
}

func jsonRequest(t *testing.T, method, target string, payload any) (*http.Request, *httptest.ResponseRecorder) {
	t.Helper()

	var body *bytes.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewReader(data)
	} else {
		body = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, target, body)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	return req, httptest.NewRecorder()
}

// withUser mimics the Authenticate middleware attaching an identity.
func withUser(c echo.Context, user *models.User) {
	c.Set("user", user)
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()

	var data map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &data))
	return data
}

func refreshCookie(rec *httptest.ResponseRecorder) *http.Cookie {
	for _, cookie := range rec.Result().Cookies() {
		if cookie.Name == RefreshCookieName {
			return cookie
		}
	}
	return nil
}
