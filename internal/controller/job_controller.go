package controller

import (
	"recruit_backend/internal/model"
	"recruit_backend/internal/service"
	"recruit_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type JobController struct {
	Service *service.JobService
}

func NewJobController(svc *service.JobService) *JobController {
	return &JobController{Service: svc}
}

// @Summary 创建岗位
// @Tags 岗位
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param body body service.JobRequest true "岗位信息"
// @Success 201 {object} util.Response{data=model.Job}
// @Router /jobs [post]
func (c *JobController) Create(ctx *gin.Context) {
	var req service.JobRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	job, err := c.Service.Create(util.GetUserFromContext(ctx), req)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Created(ctx, job)
}

// @Summary 岗位列表
// @Tags 岗位
// @Produce json
// @Security ApiKeyAuth
// @Param status query string false "open | closed"
// @Param page query int false "页码"
// @Param limit query int false "每页数量"
// @Success 200 {object} util.Response{data=util.PageResponse}
// @Router /jobs [get]
func (c *JobController) List(ctx *gin.Context) {
	page, limit := pagination(ctx)
	jobs, total, err := c.Service.List(util.GetUserFromContext(ctx), model.JobStatus(ctx.Query("status")), page, limit)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, util.PageResponse{List: jobs, Total: total, Page: page, Limit: limit})
}

// @Summary 岗位详情
// @Tags 岗位
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "岗位ID"
// @Success 200 {object} util.Response{data=model.Job}
// @Router /jobs/{id} [get]
func (c *JobController) Get(ctx *gin.Context) {
	id, ok := parseID(ctx, "id")
	if !ok {
		return
	}
	job, err := c.Service.Get(util.GetUserFromContext(ctx), id)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, job)
}

// @Summary 更新岗位
// @Tags 岗位
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "岗位ID"
// @Param body body service.JobRequest true "岗位信息"
// @Success 200 {object} util.Response{data=model.Job}
// @Router /jobs/{id} [put]
func (c *JobController) Update(ctx *gin.Context) {
	id, ok := parseID(ctx, "id")
	if !ok {
		return
	}
	var req service.JobRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	job, err := c.Service.Update(util.GetUserFromContext(ctx), id, req)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, job)
}

// @Summary 更新录用门槛
// @Description 只影响之后完成的申请
// @Tags 岗位
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "岗位ID"
// @Param body body model.QualificationCriteria true "门槛"
// @Success 200 {object} util.Response{data=model.Job}
// @Router /jobs/{id}/criteria [put]
func (c *JobController) UpdateCriteria(ctx *gin.Context) {
	id, ok := parseID(ctx, "id")
	if !ok {
		return
	}
	var criteria model.QualificationCriteria
	if err := ctx.ShouldBindJSON(&criteria); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	job, err := c.Service.UpdateCriteria(util.GetUserFromContext(ctx), id, criteria)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, job)
}

// @Summary 关闭岗位
// @Tags 岗位
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "岗位ID"
// @Success 200 {object} util.Response
// @Router /jobs/{id}/close [post]
func (c *JobController) Close(ctx *gin.Context) {
	id, ok := parseID(ctx, "id")
	if !ok {
		return
	}
	if err := c.Service.Close(util.GetUserFromContext(ctx), id); err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, nil)
}
