package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/emilythestrangee/stackit/backend/internal/apperrors"
	"github.com/emilythestrangee/stackit/backend/internal/models"
	"github.com/emilythestrangee/stackit/backend/internal/voting"
)

type VoteHandler struct {
	engine *voting.Engine
	log    *slog.Logger
}

func NewVoteHandler(engine *voting.Engine, log *slog.Logger) *VoteHandler {
	return &VoteHandler{engine: engine, log: log}
}

func (h *VoteHandler) submit(c *gin.Context, targetID uuid.UUID, tt models.TargetType, rawDirection string) {
	dir, err := voting.ParseDirection(rawDirection)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	userID, _ := currentUserID(c)

	res, err := h.engine.SubmitVote(c.Request.Context(), userID, targetID, tt, dir)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// SubmitVote handles POST /votes with an explicit target
func (h *VoteHandler) SubmitVote(c *gin.Context) {
	var input models.VoteRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err)
		return
	}
	targetID, tt, err := voting.ParseTarget(input.TargetID, input.TargetType)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	h.submit(c, targetID, tt, input.Direction)
}

// VoteQuestion votes on the question in the path
func (h *VoteHandler) VoteQuestion(c *gin.Context) {
	h.voteOn(c, models.TargetQuestion)
}

// VoteAnswer votes on the answer in the path
func (h *VoteHandler) VoteAnswer(c *gin.Context) {
	h.voteOn(c, models.TargetAnswer)
}

func (h *VoteHandler) voteOn(c *gin.Context, tt models.TargetType) {
	id, err := parseID(c, "id")
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	var input models.DirectionRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err)
		return
	}
	h.submit(c, id, tt, input.Direction)
}

// GetAggregate returns the vote count of a target, and the caller's vote
// when a token was supplied
func (h *VoteHandler) GetAggregate(c *gin.Context) {
	targetID, tt, err := voting.ParseTarget(c.Param("id"), c.Param("targetType"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	ctx := c.Request.Context()

	agg, err := h.engine.GetAggregate(ctx, targetID, tt)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	resp := gin.H{"vote_count": agg.VoteCount, "target_id": agg.TargetID, "target_type": agg.TargetType}
	if userID, ok := currentUserID(c); ok {
		dir, err := h.engine.UserVote(ctx, userID, targetID, tt)
		if err != nil {
			respondError(c, h.log, err)
			return
		}
		resp["user_vote"] = dir
	}
	c.JSON(http.StatusOK, resp)
}

// AcceptAnswer marks an answer as accepted for the question in the path
func (h *VoteHandler) AcceptAnswer(c *gin.Context) {
	questionID, err := parseID(c, "id")
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	var input models.AcceptAnswerRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err)
		return
	}
	answerID, err := uuid.Parse(input.AnswerID)
	if err != nil {
		respondError(c, h.log, apperrors.Validation("accept_answer", "invalid answer id"))
		return
	}
	userID, _ := currentUserID(c)

	res, err := h.engine.SetAcceptedAnswer(c.Request.Context(), userID, questionID, answerID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// ClearAcceptedAnswer removes the accepted answer of the question in the path
func (h *VoteHandler) ClearAcceptedAnswer(c *gin.Context) {
	questionID, err := parseID(c, "id")
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	userID, _ := currentUserID(c)

	res, err := h.engine.ClearAcceptedAnswer(c.Request.Context(), userID, questionID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, res)
}
