package controller

import (
	"recruit_backend/internal/middleware"
	"recruit_backend/internal/model"
	"recruit_backend/internal/service"
	"recruit_backend/internal/util"

	"github.com/gin-gonic/gin"
)

// AttemptController 候选人作答接口，无需登录
type AttemptController struct {
	Service *service.ApplicationService
}

func NewAttemptController(svc *service.ApplicationService) *AttemptController {
	return &AttemptController{Service: svc}
}

type proctoringBatch struct {
	Events []service.ProctoringEventRequest `json:"events" binding:"required,min=1,dive"`
}

// @Summary 开始作答
// @Description 首次进入创建申请并开始计时；携带 accessToken 重新进入时返回剩余题目，计时不重置
// @Tags 候选人
// @Accept json
// @Produce json
// @Param token path string true "测评链接令牌"
// @Param body body service.StartRequest true "候选人信息"
// @Success 200 {object} util.Response{data=service.StartResponse}
// @Failure 409 {object} util.Response
// @Failure 410 {object} util.Response
// @Router /public/assessments/{token}/start [post]
func (c *AttemptController) Start(ctx *gin.Context) {
	var req service.StartRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	resp, err := c.Service.Start(ctx.Request.Context(), ctx.Param("token"), req)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, resp)
}

// @Summary 提交单题答案
// @Description 按 questionId 覆盖；只返回确认，不返回得分
// @Tags 候选人
// @Accept json
// @Produce json
// @Param X-Attempt-Token header string true "访问令牌"
// @Param id path int true "申请ID"
// @Param questionId path string true "题目ID"
// @Param body body model.AnswerPayload true "答案"
// @Success 200 {object} util.Response
// @Router /public/applications/{id}/answers/{questionId} [put]
func (c *AttemptController) SubmitAnswer(ctx *gin.Context) {
	id, ok := parseID(ctx, "id")
	if !ok {
		return
	}
	var payload model.AnswerPayload
	if err := ctx.ShouldBindJSON(&payload); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	err := c.Service.SubmitAnswer(ctx.Request.Context(), id, middleware.AttemptTokenFromContext(ctx), ctx.Param("questionId"), payload)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"questionId": ctx.Param("questionId"), "saved": true})
}

// @Summary 上报监考事件
// @Description 同一 eventId 重复上报只计一次
// @Tags 候选人
// @Accept json
// @Produce json
// @Param X-Attempt-Token header string true "访问令牌"
// @Param id path int true "申请ID"
// @Param body body proctoringBatch true "事件列表"
// @Success 200 {object} util.Response
// @Router /public/applications/{id}/proctoring [post]
func (c *AttemptController) RecordProctoring(ctx *gin.Context) {
	id, ok := parseID(ctx, "id")
	if !ok {
		return
	}
	var batch proctoringBatch
	if err := ctx.ShouldBindJSON(&batch); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	accepted, err := c.Service.RecordProctoringEvents(ctx.Request.Context(), id, middleware.AttemptTokenFromContext(ctx), batch.Events)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"accepted": accepted})
}

// @Summary 交卷
// @Description 重复交卷返回同一结果
// @Tags 候选人
// @Produce json
// @Param X-Attempt-Token header string true "访问令牌"
// @Param id path int true "申请ID"
// @Success 200 {object} util.Response{data=service.SubmitResult}
// @Router /public/applications/{id}/submit [post]
func (c *AttemptController) Submit(ctx *gin.Context) {
	id, ok := parseID(ctx, "id")
	if !ok {
		return
	}
	res, err := c.Service.Submit(ctx.Request.Context(), id, middleware.AttemptTokenFromContext(ctx))
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, res)
}
