package controller

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/joaopedroangelo/Estrela-do-Saber/internal/service"
	"github.com/joaopedroangelo/Estrela-do-Saber/internal/util"
)

type ReportController struct {
	Service *service.ReportService
}

func NewReportController(svc *service.ReportService) *ReportController {
	return &ReportController{Service: svc}
}

// @Summary Generate a performance report for a learner
// @Tags reports
// @Produce json
// @Param contact path string true "guardian contact"
// @Param fresh query bool false "bypass the report cache"
// @Success 200 {object} util.Response
// @Router /api/reports/{contact} [get]
func (c *ReportController) GetReport(ctx *gin.Context) {
	contact := ctx.Param("contact")
	fresh := ctx.Query("fresh") == "1" || ctx.Query("fresh") == "true"

	report, err := c.Service.GenerateReport(ctx.Request.Context(), contact, fresh)
	if err != nil {
		if errors.Is(err, util.ErrLearnerNotFound) {
			util.NotFound(ctx, util.ErrLearnerNotFound.Error())
			return
		}
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, report)
}
