package controller

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/joaopedroangelo/Estrela-do-Saber/internal/config"
	"github.com/joaopedroangelo/Estrela-do-Saber/internal/service"
	"github.com/joaopedroangelo/Estrela-do-Saber/internal/util"
)

// ExerciseController exposes the two workflow entry points: question
// creation and answer submission.
type ExerciseController struct {
	Pipeline *service.PipelineService
	Grades   config.GradesConfig
}

func NewExerciseController(pipeline *service.PipelineService, grades config.GradesConfig) *ExerciseController {
	return &ExerciseController{Pipeline: pipeline, Grades: grades}
}

type NewQuestionRequest struct {
	Grade           int    `json:"grade"`
	GuardianContact string `json:"guardianContact" binding:"required,email"`
}

type AnswerRequest struct {
	QuestionID      uint   `json:"questionId" binding:"required"`
	Answer          string `json:"answer" binding:"required"`
	GuardianContact string `json:"guardianContact" binding:"required,email"`
}

// @Summary Create a new literacy question for a learner
// @Tags exercises
// @Accept json
// @Produce json
// @Param body body NewQuestionRequest true "target grade (optional, defaults to the learner's) and guardian contact"
// @Success 201 {object} util.Response
// @Router /api/questions [post]
func (c *ExerciseController) NewQuestion(ctx *gin.Context) {
	var req NewQuestionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	if req.Grade != 0 && (req.Grade < c.Grades.Min || req.Grade > c.Grades.Max) {
		util.BadRequest(ctx, util.ErrInvalidGrade.Error())
		return
	}

	question, err := c.Pipeline.CreateQuestion(ctx.Request.Context(), req.GuardianContact, req.Grade)
	if err != nil {
		if errors.Is(err, util.ErrLearnerNotFound) {
			util.NotFound(ctx, util.ErrLearnerNotFound.Error())
			return
		}
		util.LogInternalError(ctx, err)
		return
	}

	util.Created(ctx, question)
}

// @Summary Submit a learner's answer to a question
// @Tags exercises
// @Accept json
// @Produce json
// @Param body body AnswerRequest true "question id, selected option label and guardian contact"
// @Success 200 {object} util.Response
// @Router /api/answers [post]
func (c *ExerciseController) SubmitAnswer(ctx *gin.Context) {
	var req AnswerRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	result, err := c.Pipeline.SubmitAnswer(ctx.Request.Context(), req.GuardianContact, req.QuestionID, req.Answer)
	if err != nil {
		if errors.Is(err, util.ErrLearnerNotFound) {
			util.NotFound(ctx, util.ErrLearnerNotFound.Error())
			return
		}
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, result)
}
