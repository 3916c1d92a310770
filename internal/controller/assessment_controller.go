package controller

import (
	"recruit_backend/internal/service"
	"recruit_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type AssessmentController struct {
	Service *service.AssessmentService
}

func NewAssessmentController(svc *service.AssessmentService) *AssessmentController {
	return &AssessmentController{Service: svc}
}

// @Summary 为岗位创建测评
// @Description 每个岗位只有一套测评，返回的 linkToken 用于生成候选人作答链接
// @Tags 测评
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "岗位ID"
// @Param body body service.AssessmentRequest true "测评信息"
// @Success 201 {object} util.Response{data=model.Assessment}
// @Router /jobs/{id}/assessment [post]
func (c *AssessmentController) Create(ctx *gin.Context) {
	jobID, ok := parseID(ctx, "id")
	if !ok {
		return
	}
	var req service.AssessmentRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	a, err := c.Service.Create(util.GetUserFromContext(ctx), jobID, req)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Created(ctx, a)
}

// @Summary 获取岗位的测评
// @Tags 测评
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "岗位ID"
// @Success 200 {object} util.Response{data=model.Assessment}
// @Router /jobs/{id}/assessment [get]
func (c *AssessmentController) GetByJob(ctx *gin.Context) {
	jobID, ok := parseID(ctx, "id")
	if !ok {
		return
	}
	a, err := c.Service.GetByJob(util.GetUserFromContext(ctx), jobID)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, a)
}

// @Summary 测评详情
// @Tags 测评
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "测评ID"
// @Success 200 {object} util.Response{data=model.Assessment}
// @Router /assessments/{id} [get]
func (c *AssessmentController) Get(ctx *gin.Context) {
	id, ok := parseID(ctx, "id")
	if !ok {
		return
	}
	a, err := c.Service.GetForRecruiter(util.GetUserFromContext(ctx), id)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, a)
}

// @Summary 更新测评
// @Description 已有候选人开始作答后只能修改标题
// @Tags 测评
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "测评ID"
// @Param body body service.AssessmentUpdateRequest true "需要修改的字段"
// @Success 200 {object} util.Response{data=model.Assessment}
// @Failure 409 {object} util.Response
// @Router /assessments/{id} [patch]
func (c *AssessmentController) Update(ctx *gin.Context) {
	id, ok := parseID(ctx, "id")
	if !ok {
		return
	}
	var req service.AssessmentUpdateRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	a, err := c.Service.Update(util.GetUserFromContext(ctx), id, req)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, a)
}
