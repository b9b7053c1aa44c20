package controller

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/joaopedroangelo/Estrela-do-Saber/internal/service"
	"github.com/joaopedroangelo/Estrela-do-Saber/internal/util"
)

type LearnerController struct {
	Service *service.LearnerService
}

func NewLearnerController(svc *service.LearnerService) *LearnerController {
	return &LearnerController{Service: svc}
}

type RegisterRequest struct {
	Name            string `json:"name" binding:"required"`
	Grade           int    `json:"grade" binding:"required"`
	GuardianContact string `json:"guardianContact" binding:"required,email"`
}

// @Summary Register or update a learner
// @Tags learners
// @Accept json
// @Produce json
// @Param body body RegisterRequest true "learner data"
// @Success 201 {object} util.Response
// @Router /api/register [post]
func (c *LearnerController) Register(ctx *gin.Context) {
	var req RegisterRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	learner, err := c.Service.Register(ctx.Request.Context(), req.Name, req.Grade, req.GuardianContact)
	if err != nil {
		if errors.Is(err, util.ErrInvalidGrade) {
			util.BadRequest(ctx, util.ErrInvalidGrade.Error())
			return
		}
		util.LogInternalError(ctx, err)
		return
	}

	util.Created(ctx, learner)
}

// @Summary List a learner's raw answer history
// @Tags learners
// @Produce json
// @Param contact path string true "guardian contact"
// @Success 200 {object} util.Response
// @Router /api/answers/{contact} [get]
func (c *LearnerController) ListAnswers(ctx *gin.Context) {
	contact := ctx.Param("contact")

	answers, err := c.Service.ListAnswers(contact)
	if err != nil {
		if errors.Is(err, util.ErrLearnerNotFound) {
			util.NotFound(ctx, util.ErrLearnerNotFound.Error())
			return
		}
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, gin.H{
		"guardianContact": contact,
		"total":           len(answers),
		"answers":         answers,
	})
}
