package controller

import (
	"errors"
	"net/http"
	"strconv"

	"recruit_backend/internal/util"

	"github.com/gin-gonic/gin"
)

// respondError 把 service 层的哨兵错误映射为 HTTP 状态码，其余按 500 处理并记录日志
func respondError(ctx *gin.Context, err error) {
	switch {
	case errors.Is(err, util.ErrPermissionDenied):
		util.Forbidden(ctx)
	case errors.Is(err, util.ErrInvalidAccessToken):
		util.Error(ctx, http.StatusUnauthorized, err.Error())
	case errors.Is(err, util.ErrJobNotFound),
		errors.Is(err, util.ErrAssessmentNotFound),
		errors.Is(err, util.ErrApplicationNotFound),
		errors.Is(err, util.ErrQuestionNotFound):
		util.NotFoundMsg(ctx, err.Error())
	case errors.Is(err, util.ErrDuplicateApplication),
		errors.Is(err, util.ErrAssessmentExists),
		errors.Is(err, util.ErrAssessmentLocked),
		errors.Is(err, util.ErrInvalidTransition),
		errors.Is(err, util.ErrNotInProgress):
		util.Conflict(ctx, err.Error())
	case errors.Is(err, util.ErrAttemptExpired), errors.Is(err, util.ErrJobClosed):
		util.Error(ctx, http.StatusGone, err.Error())
	case errors.Is(err, util.ErrInvalidAnswer),
		errors.Is(err, util.ErrInvalidEvent),
		errors.Is(err, util.ErrInvalidQuestion),
		errors.Is(err, util.ErrInvalidCriteria):
		util.BadRequest(ctx, err.Error())
	default:
		util.LogInternalError(ctx, err)
	}
}

func parseID(ctx *gin.Context, name string) (uint, bool) {
	id := util.MustParseUint(ctx.Param(name))
	if id == 0 {
		util.BadRequest(ctx, "invalid "+name)
		return 0, false
	}
	return id, true
}

func pagination(ctx *gin.Context) (int, int) {
	page, _ := strconv.Atoi(ctx.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(ctx.DefaultQuery("limit", "20"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	return page, limit
}
