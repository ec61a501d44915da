package handler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"notes-service/internal/auth"
	"notes-service/internal/middleware"
	"notes-service/internal/model"
	"notes-service/internal/quota"
	"notes-service/internal/store"
	"notes-service/pkg/config"
	"notes-service/pkg/jwtutil"

	"github.com/glebarez/sqlite"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type testApp struct {
	e      *echo.Echo
	db     *gorm.DB
	signer *jwtutil.Signer
}

// newTestApp wires the full stack the way cmd/server does, against an
// in-memory database seeded with the two demo tenants.
func newTestApp(t *testing.T) *testApp {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(&model.Tenant{}, &model.User{}, &model.Note{}))

	signer := jwtutil.NewSigner(&config.JWTConfig{SigningKey: "test-key", ExpirationHours: 1})
	resolver := auth.NewResolver(db)
	enforcer := quota.NewEnforcer(db)
	userStore := store.NewUserStore(db)
	noteStore := store.NewNoteStore(db, enforcer)

	authHandler := NewAuthHandler(userStore, signer)
	noteHandler := NewNoteHandler(noteStore)
	tenantHandler := NewTenantHandler(enforcer)

	e := echo.New()
	authn := middleware.Auth(signer, resolver)

	e.POST("/auth/login", authHandler.Login)
	e.GET("/auth/me", authHandler.Me, authn)

	notes := e.Group("/notes", authn)
	notes.GET("", noteHandler.List)
	notes.POST("", noteHandler.Create)
	notes.GET("/:id", noteHandler.Get)
	notes.PUT("/:id", noteHandler.Update)
	notes.DELETE("/:id", noteHandler.Delete)

	e.POST("/tenants/:slug/upgrade", tenantHandler.Upgrade, authn)

	app := &testApp{e: e, db: db, signer: signer}
	app.seed(t)
	return app
}

func (a *testApp) seed(t *testing.T) {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.MinCost)
	require.NoError(t, err)

	acme := model.Tenant{Name: "Acme Corporation", Slug: "acme", SubscriptionPlan: model.PlanFree}
	globex := model.Tenant{Name: "Globex Corporation", Slug: "globex", SubscriptionPlan: model.PlanFree}
	require.NoError(t, a.db.Create(&acme).Error)
	require.NoError(t, a.db.Create(&globex).Error)

	users := []model.User{
		{TenantID: acme.ID, Email: "admin@acme.test", PasswordHash: string(hash), Role: model.RoleAdmin},
		{TenantID: acme.ID, Email: "user@acme.test", PasswordHash: string(hash), Role: model.RoleMember},
		{TenantID: globex.ID, Email: "admin@globex.test", PasswordHash: string(hash), Role: model.RoleAdmin},
		{TenantID: globex.ID, Email: "user@globex.test", PasswordHash: string(hash), Role: model.RoleMember},
	}
	for i := range users {
		require.NoError(t, a.db.Create(&users[i]).Error)
	}
}

func (a *testApp) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	a.e.ServeHTTP(rec, req)
	return rec
}

func (a *testApp) login(t *testing.T, email string) string {
	t.Helper()

	rec := a.do(t, http.MethodPost, "/auth/login", "", echo.Map{"email": email, "password": "password"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decode(t, rec)
	token, _ := body["token"].(string)
	require.NotEmpty(t, token)
	return token
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func noteID(t *testing.T, rec *httptest.ResponseRecorder) uint {
	t.Helper()
	note, ok := decode(t, rec)["note"].(map[string]interface{})
	require.True(t, ok)
	id, ok := note["id"].(float64)
	require.True(t, ok)
	return uint(id)
}

func TestLogin(t *testing.T) {
	app := newTestApp(t)

	rec := app.do(t, http.MethodPost, "/auth/login", "", echo.Map{"email": "admin@acme.test"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = app.do(t, http.MethodPost, "/auth/login", "", echo.Map{"email": "nobody@acme.test", "password": "password"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = app.do(t, http.MethodPost, "/auth/login", "", echo.Map{"email": "admin@acme.test", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = app.do(t, http.MethodPost, "/auth/login", "", echo.Map{"email": "admin@acme.test", "password": "password"})
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.NotEmpty(t, body["token"])
	user := body["user"].(map[string]interface{})
	assert.Equal(t, "admin@acme.test", user["email"])
	assert.Equal(t, "admin", user["role"])
	tenant := user["tenant"].(map[string]interface{})
	assert.Equal(t, "acme", tenant["slug"])
	assert.Equal(t, "free", tenant["subscription_plan"])
}

func TestMe(t *testing.T) {
	app := newTestApp(t)

	rec := app.do(t, http.MethodGet, "/auth/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = app.do(t, http.MethodGet, "/auth/me", "garbage", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	token := app.login(t, "user@acme.test")
	rec = app.do(t, http.MethodGet, "/auth/me", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	user := decode(t, rec)["user"].(map[string]interface{})
	assert.Equal(t, "user@acme.test", user["email"])
	assert.Equal(t, "member", user["role"])
}

func TestMeAfterUserDeleted(t *testing.T) {
	app := newTestApp(t)
	token := app.login(t, "user@acme.test")

	require.NoError(t, app.db.Where("email = ?", "user@acme.test").Delete(&model.User{}).Error)

	// Token still verifies, but the subject is gone.
	rec := app.do(t, http.MethodGet, "/auth/me", token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMeReflectsRoleChange(t *testing.T) {
	app := newTestApp(t)
	token := app.login(t, "admin@acme.test")

	require.NoError(t, app.db.Model(&model.User{}).
		Where("email = ?", "admin@acme.test").
		Update("role", model.RoleMember).Error)

	// The token still claims admin; the store wins.
	rec := app.do(t, http.MethodGet, "/auth/me", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	user := decode(t, rec)["user"].(map[string]interface{})
	assert.Equal(t, "member", user["role"])
}

// The acme walkthrough: three creates succeed, the fourth hits the free
// quota, and after the upgrade it goes through.
func TestQuotaScenario(t *testing.T) {
	app := newTestApp(t)
	admin := app.login(t, "admin@acme.test")

	for _, title := range []string{"A", "B", "C"} {
		rec := app.do(t, http.MethodPost, "/notes", admin, echo.Map{"title": title})
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	}

	rec := app.do(t, http.MethodPost, "/notes", admin, echo.Map{"title": "D"})
	require.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, quota.QuotaExceededMessage, decode(t, rec)["error"])

	rec = app.do(t, http.MethodPost, "/tenants/acme/upgrade", admin, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	tenant := decode(t, rec)["tenant"].(map[string]interface{})
	assert.Equal(t, "pro", tenant["subscription_plan"])

	rec = app.do(t, http.MethodPost, "/notes", admin, echo.Map{"title": "D"})
	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestCreateNoteValidation(t *testing.T) {
	app := newTestApp(t)
	token := app.login(t, "user@acme.test")

	rec := app.do(t, http.MethodPost, "/notes", token, echo.Map{"title": "   ", "content": "x"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = app.do(t, http.MethodPost, "/notes", token, echo.Map{"content": "no title"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTenantIsolation(t *testing.T) {
	app := newTestApp(t)
	acme := app.login(t, "admin@acme.test")
	globex := app.login(t, "user@globex.test")

	rec := app.do(t, http.MethodPost, "/notes", acme, echo.Map{"title": "acme only", "content": "s3cret"})
	require.Equal(t, http.StatusCreated, rec.Code)
	id := noteID(t, rec)

	// Foreign tenant: absent, never forbidden.
	rec = app.do(t, http.MethodGet, fmt.Sprintf("/notes/%d", id), globex, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = app.do(t, http.MethodPut, fmt.Sprintf("/notes/%d", id), globex, echo.Map{"title": "hijack"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = app.do(t, http.MethodDelete, fmt.Sprintf("/notes/%d", id), globex, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = app.do(t, http.MethodGet, "/notes", globex, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	notes := decode(t, rec)["notes"].([]interface{})
	assert.Empty(t, notes)

	// Same tenant reads fine.
	rec = app.do(t, http.MethodGet, fmt.Sprintf("/notes/%d", id), acme, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestOwnerOnlyWrites(t *testing.T) {
	app := newTestApp(t)
	admin := app.login(t, "admin@acme.test")
	member := app.login(t, "user@acme.test")

	rec := app.do(t, http.MethodPost, "/notes", admin, echo.Map{"title": "admin's note"})
	require.Equal(t, http.StatusCreated, rec.Code)
	id := noteID(t, rec)

	// Same tenant: readable by any member, mutable only by the creator.
	rec = app.do(t, http.MethodGet, fmt.Sprintf("/notes/%d", id), member, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = app.do(t, http.MethodPut, fmt.Sprintf("/notes/%d", id), member, echo.Map{"title": "mine now"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = app.do(t, http.MethodDelete, fmt.Sprintf("/notes/%d", id), member, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = app.do(t, http.MethodDelete, fmt.Sprintf("/notes/%d", id), admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Note deleted successfully", decode(t, rec)["message"])
}

func TestUpdateNote(t *testing.T) {
	app := newTestApp(t)
	token := app.login(t, "user@acme.test")

	rec := app.do(t, http.MethodPost, "/notes", token, echo.Map{"title": "draft", "content": "v1"})
	require.Equal(t, http.StatusCreated, rec.Code)
	id := noteID(t, rec)

	rec = app.do(t, http.MethodPut, fmt.Sprintf("/notes/%d", id), token, echo.Map{"title": "  final  ", "content": "v2"})
	require.Equal(t, http.StatusOK, rec.Code)
	note := decode(t, rec)["note"].(map[string]interface{})
	assert.Equal(t, "final", note["title"])
	assert.Equal(t, "v2", note["content"])

	rec = app.do(t, http.MethodPut, fmt.Sprintf("/notes/%d", id), token, echo.Map{"title": ""})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = app.do(t, http.MethodPut, "/notes/notanumber", token, echo.Map{"title": "x"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpgradeAuthorization(t *testing.T) {
	app := newTestApp(t)

	member := app.login(t, "user@acme.test")
	rec := app.do(t, http.MethodPost, "/tenants/acme/upgrade", member, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "admin access required", decode(t, rec)["error"])

	globexAdmin := app.login(t, "admin@globex.test")
	rec = app.do(t, http.MethodPost, "/tenants/acme/upgrade", globexAdmin, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "unauthorized tenant access", decode(t, rec)["error"])

	// Neither denial changed the plan.
	var tenant model.Tenant
	require.NoError(t, app.db.Where("slug = ?", "acme").First(&tenant).Error)
	assert.Equal(t, model.PlanFree, tenant.SubscriptionPlan)

	admin := app.login(t, "admin@acme.test")
	for i := 0; i < 2; i++ {
		rec = app.do(t, http.MethodPost, "/tenants/acme/upgrade", admin, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		body := decode(t, rec)
		assert.Equal(t, "Tenant upgraded to Pro plan successfully", body["message"])
		assert.Equal(t, "pro", body["tenant"].(map[string]interface{})["subscription_plan"])
	}
}

func TestNotesRequireAuth(t *testing.T) {
	app := newTestApp(t)

	rec := app.do(t, http.MethodGet, "/notes", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = app.do(t, http.MethodPost, "/notes", "", echo.Map{"title": "x"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
