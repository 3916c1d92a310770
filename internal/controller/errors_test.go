package controller

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"recruit_backend/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serve(t *testing.T, path, target string, h gin.HandlerFunc) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET(path, h)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, target, nil))
	return w
}

func TestRespondError_StatusMapping(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{util.ErrPermissionDenied, http.StatusForbidden},
		{util.ErrInvalidAccessToken, http.StatusUnauthorized},
		{util.ErrApplicationNotFound, http.StatusNotFound},
		{util.ErrQuestionNotFound, http.StatusNotFound},
		{util.ErrDuplicateApplication, http.StatusConflict},
		{util.ErrAssessmentLocked, http.StatusConflict},
		{util.ErrNotInProgress, http.StatusConflict},
		{util.ErrAttemptExpired, http.StatusGone},
		{util.ErrJobClosed, http.StatusGone},
		{fmt.Errorf("%w: choice out of range", util.ErrInvalidAnswer), http.StatusBadRequest},
		{fmt.Errorf("%w: minimumScore must be within 0-100", util.ErrInvalidCriteria), http.StatusBadRequest},
		{errors.New("connection reset"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.err.Error(), func(t *testing.T) {
			w := serve(t, "/x", "/x", func(ctx *gin.Context) { respondError(ctx, tc.err) })
			assert.Equal(t, tc.want, w.Code)

			var body util.Response
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, tc.want, body.Code)
		})
	}
}

func TestParseID(t *testing.T) {
	var got uint
	h := func(ctx *gin.Context) {
		id, ok := parseID(ctx, "id")
		if ok {
			got = id
			util.Success(ctx, nil)
		}
	}

	w := serve(t, "/applications/:id", "/applications/42", h)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, uint(42), got)

	w = serve(t, "/applications/:id", "/applications/abc", h)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
