package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"recruit_backend/internal/config"
	"recruit_backend/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-test-secret-test-secret"

func recruiterEngine() *gin.Engine {
	gin.SetMode(gin.TestMode)
	cfg := &config.Config{JWT: config.JWTConfig{Secret: testSecret}}
	r := gin.New()
	r.GET("/jobs", AuthMiddleware(cfg), RoleMiddleware(util.RoleRecruiter), func(c *gin.Context) {
		util.Success(c, util.GetUserFromContext(c).UserID)
	})
	return r
}

func call(r http.Handler, header, value string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/jobs", nil)
	if header != "" {
		req.Header.Set(header, value)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthMiddleware(t *testing.T) {
	r := recruiterEngine()

	assert.Equal(t, http.StatusUnauthorized, call(r, "", "").Code)
	assert.Equal(t, http.StatusUnauthorized, call(r, "Authorization", "Bearer garbage").Code)

	token, err := util.GenerateJWT(7, util.RoleRecruiter, "r@example.com", testSecret, time.Hour)
	require.NoError(t, err)
	w := call(r, "Authorization", "Bearer "+token)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"code":200,"message":"success","data":7}`, w.Body.String())

	// 管理员同样可以访问招聘方接口
	admin, err := util.GenerateJWT(1, util.RoleAdmin, "a@example.com", testSecret, time.Hour)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, call(r, "Authorization", "Bearer "+admin).Code)

	other, err := util.GenerateJWT(7, util.Role("candidate"), "c@example.com", testSecret, time.Hour)
	require.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, call(r, "Authorization", "Bearer "+other).Code)
}

func TestAttemptTokenMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/jobs", AttemptTokenMiddleware(), func(c *gin.Context) {
		c.String(http.StatusOK, AttemptTokenFromContext(c))
	})

	assert.Equal(t, http.StatusUnauthorized, call(r, "", "").Code)
	assert.Equal(t, http.StatusUnauthorized, call(r, util.AttemptTokenHeader, "   ").Code)

	w := call(r, util.AttemptTokenHeader, " tok-1 ")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "tok-1", w.Body.String())
}
