package controller

import (
	"context"
	"net/http"

	"recruit_backend/internal/model"
	"recruit_backend/internal/service"
	"recruit_backend/internal/util"
	"recruit_backend/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ApplicationController 招聘方查看与处理申请
type ApplicationController struct {
	Service *service.ApplicationService
	Ranking *service.RankingService
	Export  *service.ExportService
}

func NewApplicationController(svc *service.ApplicationService, ranking *service.RankingService, export *service.ExportService) *ApplicationController {
	return &ApplicationController{Service: svc, Ranking: ranking, Export: export}
}

// authorizeJob 排行榜相关接口只校验岗位归属
func (c *ApplicationController) authorizeJob(ctx *gin.Context) (uint, bool) {
	jobID, ok := parseID(ctx, "id")
	if !ok {
		return 0, false
	}
	if _, err := c.Service.Jobs.Get(util.GetUserFromContext(ctx), jobID); err != nil {
		respondError(ctx, err)
		return 0, false
	}
	return jobID, true
}

// @Summary 邀请候选人
// @Description 创建 pending 状态的申请，返回作答链接令牌与访问令牌
// @Tags 申请
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "岗位ID"
// @Param body body service.InviteRequest true "候选人信息"
// @Success 201 {object} util.Response{data=service.InviteResponse}
// @Router /jobs/{id}/invitations [post]
func (c *ApplicationController) Invite(ctx *gin.Context) {
	jobID, ok := parseID(ctx, "id")
	if !ok {
		return
	}
	var req service.InviteRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	resp, err := c.Service.Invite(util.GetUserFromContext(ctx), jobID, req)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Created(ctx, resp)
}

// @Summary 岗位下的申请列表
// @Tags 申请
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "岗位ID"
// @Param status query string false "状态过滤"
// @Param page query int false "页码"
// @Param limit query int false "每页数量"
// @Success 200 {object} util.Response{data=util.PageResponse}
// @Router /jobs/{id}/applications [get]
func (c *ApplicationController) ListByJob(ctx *gin.Context) {
	jobID, ok := parseID(ctx, "id")
	if !ok {
		return
	}
	page, limit := pagination(ctx)
	apps, total, err := c.Service.ListByJob(util.GetUserFromContext(ctx), jobID, model.ApplicationStatus(ctx.Query("status")), page, limit)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, util.PageResponse{List: apps, Total: total, Page: page, Limit: limit})
}

// @Summary 排行榜
// @Tags 排名
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "岗位ID"
// @Success 200 {object} util.Response{data=[]ranking.Standing}
// @Router /jobs/{id}/leaderboard [get]
func (c *ApplicationController) Leaderboard(ctx *gin.Context) {
	jobID, ok := c.authorizeJob(ctx)
	if !ok {
		return
	}
	rows, err := c.Ranking.Leaderboard(ctx.Request.Context(), jobID)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, rows)
}

// @Summary 重建排行榜
// @Tags 排名
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "岗位ID"
// @Success 200 {object} util.Response{data=[]ranking.Standing}
// @Router /jobs/{id}/leaderboard/rebuild [post]
func (c *ApplicationController) Rerank(ctx *gin.Context) {
	jobID, ok := c.authorizeJob(ctx)
	if !ok {
		return
	}
	rows, err := c.Ranking.Recompute(ctx.Request.Context(), jobID)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, rows)
}

// @Summary 导出排行榜
// @Tags 排名
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Security ApiKeyAuth
// @Param id path int true "岗位ID"
// @Success 200 {file} file
// @Router /jobs/{id}/leaderboard/export [get]
func (c *ApplicationController) ExportLeaderboard(ctx *gin.Context) {
	jobID, ok := parseID(ctx, "id")
	if !ok {
		return
	}
	out, err := c.Export.ExportLeaderboard(ctx.Request.Context(), util.GetUserFromContext(ctx), jobID)
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.Header("Content-Disposition", "attachment; filename="+out.Filename)
	ctx.Data(http.StatusOK, util.MimeXLSX, out.Content)
}

// @Summary 批量复评待复核的申请
// @Tags 申请
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "岗位ID"
// @Success 202 {object} util.Response
// @Router /jobs/{id}/reevaluate [post]
func (c *ApplicationController) ReevaluatePending(ctx *gin.Context) {
	jobID, ok := c.authorizeJob(ctx)
	if !ok {
		return
	}
	// 评估服务可能较慢，后台执行
	go func() {
		if _, err := c.Service.ReevaluatePending(context.Background(), jobID); err != nil {
			logger.Log.Error("reevaluate pending failed", zap.Uint("jobId", jobID), zap.Error(err))
		}
	}()
	util.Accepted(ctx, gin.H{"jobId": jobID})
}

// @Summary 申请详情
// @Tags 申请
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "申请ID"
// @Success 200 {object} util.Response{data=model.Application}
// @Router /applications/{id} [get]
func (c *ApplicationController) Get(ctx *gin.Context) {
	id, ok := parseID(ctx, "id")
	if !ok {
		return
	}
	app, err := c.Service.Get(util.GetUserFromContext(ctx), id)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, app)
}

// @Summary 评估报告
// @Description 包含逐题评分、技能差距、可信度与监考事件
// @Tags 申请
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "申请ID"
// @Success 200 {object} util.Response{data=service.ApplicationReport}
// @Router /applications/{id}/report [get]
func (c *ApplicationController) Report(ctx *gin.Context) {
	id, ok := parseID(ctx, "id")
	if !ok {
		return
	}
	report, err := c.Service.Report(util.GetUserFromContext(ctx), id)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, report)
}

// @Summary 人工设定状态
// @Description 只能设为 shortlisted 或 rejected，优先于自动结果
// @Tags 申请
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "申请ID"
// @Param body body service.OverrideRequest true "目标状态"
// @Success 200 {object} util.Response{data=model.Application}
// @Router /applications/{id}/status [put]
func (c *ApplicationController) Override(ctx *gin.Context) {
	id, ok := parseID(ctx, "id")
	if !ok {
		return
	}
	var req service.OverrideRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	app, err := c.Service.Override(ctx.Request.Context(), util.GetUserFromContext(ctx), id, req)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, app)
}

// @Summary 重新评估
// @Tags 申请
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "申请ID"
// @Success 200 {object} util.Response{data=model.Application}
// @Router /applications/{id}/reevaluate [post]
func (c *ApplicationController) Reevaluate(ctx *gin.Context) {
	id, ok := parseID(ctx, "id")
	if !ok {
		return
	}
	app, err := c.Service.Reevaluate(ctx.Request.Context(), util.GetUserFromContext(ctx), id)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, app)
}
