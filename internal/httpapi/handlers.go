package httpapi

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	apperrors "github.com/sparkmatch/sparkmatch/internal/errors"
	"github.com/sparkmatch/sparkmatch/internal/middleware"
)

func (h *Handler) like(c *gin.Context) {
	actor := middleware.UserID(c)

	result, err := h.matching.Like(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		middleware.RenderError(c, err)
		return
	}

	c.JSON(http.StatusCreated, result)
}

func (h *Handler) unlike(c *gin.Context) {
	actor := middleware.UserID(c)

	if err := h.matching.Unlike(c.Request.Context(), actor, c.Param("id")); err != nil {
		middleware.RenderError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *Handler) listLikes(c *gin.Context) {
	actor := middleware.UserID(c)
	received, _ := strconv.ParseBool(c.DefaultQuery("received", "false"))

	if received {
		onlyUnmatched, _ := strconv.ParseBool(c.DefaultQuery("unmatched", "true"))
		views, err := h.matching.ListReceivedLikes(c.Request.Context(), actor, onlyUnmatched)
		if err != nil {
			middleware.RenderError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"likes": views})
		return
	}

	views, err := h.matching.ListSentLikes(c.Request.Context(), actor)
	if err != nil {
		middleware.RenderError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"likes": views})
}

func (h *Handler) listMatches(c *gin.Context) {
	actor := middleware.UserID(c)

	views, err := h.matching.ListMatches(c.Request.Context(), actor)
	if err != nil {
		middleware.RenderError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"matches": views})
}

func (h *Handler) markMatchRead(c *gin.Context) {
	actor := middleware.UserID(c)

	if err := h.matching.MarkMatchRead(c.Request.Context(), actor, c.Param("id")); err != nil {
		middleware.RenderError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

type createRoomRequest struct {
	UserID string `json:"user_id" binding:"required"`
}

func (h *Handler) createRoom(c *gin.Context) {
	actor := middleware.UserID(c)

	var req createRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.RenderError(c, apperrors.NewValidationError("user_id is required"))
		return
	}

	room, err := h.rooms.GetOrCreate(c.Request.Context(), actor, req.UserID)
	if err != nil {
		middleware.RenderError(c, err)
		return
	}

	c.JSON(http.StatusOK, room)
}

func (h *Handler) listRooms(c *gin.Context) {
	actor := middleware.UserID(c)

	summaries, err := h.rooms.ListUserRooms(c.Request.Context(), actor)
	if err != nil {
		middleware.RenderError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"chat_rooms": summaries})
}

func (h *Handler) roomWith(c *gin.Context) {
	actor := middleware.UserID(c)

	room, err := h.rooms.FindActive(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		middleware.RenderError(c, err)
		return
	}

	c.JSON(http.StatusOK, room)
}

func (h *Handler) roomByID(c *gin.Context) {
	actor := middleware.UserID(c)

	room, err := h.rooms.FindByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		middleware.RenderError(c, err)
		return
	}
	if !room.HasMember(actor) {
		middleware.RenderError(c, apperrors.NewAuthorizationError("not a member of this chat room"))
		return
	}

	c.JSON(http.StatusOK, room)
}

type sendMessageRequest struct {
	RecipientID string `json:"recipient_id"`
	Content     string `json:"content" binding:"required"`
}

func (h *Handler) sendMessage(c *gin.Context) {
	actor := middleware.UserID(c)

	var req sendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.RenderError(c, apperrors.NewValidationError("content is required"))
		return
	}

	msg, err := h.messaging.Append(c.Request.Context(), actor, c.Param("id"), req.RecipientID, req.Content)
	if err != nil {
		middleware.RenderError(c, err)
		return
	}

	c.JSON(http.StatusCreated, msg)
}

func (h *Handler) listMessages(c *gin.Context) {
	actor := middleware.UserID(c)

	limit, err := strconv.Atoi(c.DefaultQuery("limit", "0"))
	if err != nil || limit < 0 {
		middleware.RenderError(c, apperrors.NewValidationError("invalid limit"))
		return
	}

	page, err := h.messaging.Page(c.Request.Context(), actor, c.Param("id"), limit, c.Query("before"))
	if err != nil {
		middleware.RenderError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"messages": page})
}

func (h *Handler) markMessageDelivered(c *gin.Context) {
	actor := middleware.UserID(c)

	if err := h.messaging.MarkDelivered(c.Request.Context(), actor, c.Param("id")); err != nil {
		middleware.RenderError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *Handler) markMessagesRead(c *gin.Context) {
	actor := middleware.UserID(c)

	if err := h.messaging.MarkRead(c.Request.Context(), actor, c.Param("id")); err != nil {
		middleware.RenderError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *Handler) deleteMessage(c *gin.Context) {
	actor := middleware.UserID(c)

	if err := h.messaging.SoftDelete(c.Request.Context(), actor, c.Param("id")); err != nil {
		middleware.RenderError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}
