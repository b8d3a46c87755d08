package httpserver

import (
	"fmt"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/gin-gonic/gin"

	"github.com/partdesk-core-poc-v1/server/internal/agent/model"
	errx "github.com/partdesk-core-poc-v1/server/internal/core/error"
	logx "github.com/partdesk-core-poc-v1/server/pkg/logger"
)

type chatRequest struct {
	Message        string `json:"message" binding:"required"`
	ConversationID string `json:"conversation_id"`
}

type chatResponse struct {
	ConversationID string         `json:"conversation_id"`
	Response       model.Response `json:"response"`
	Timestamp      time.Time      `json:"timestamp"`
}

func (srv *HTTPServer) handleChat(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		srv.abort(c, errx.BadRequest("message is required"))
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		srv.abort(c, errx.BadRequest("message is required"))
		return
	}
	if srv.maxMessageChars > 0 && utf8.RuneCountInString(req.Message) > srv.maxMessageChars {
		srv.abort(c, errx.BadRequest(fmt.Sprintf("message exceeds %d characters", srv.maxMessageChars)))
		return
	}

	reply, err := srv.chat.HandleMessage(c.Request.Context(), req.ConversationID, req.Message)
	if err != nil {
		srv.abort(c, err)
		return
	}

	c.JSON(http.StatusOK, chatResponse{
		ConversationID: reply.ConversationID,
		Response:       reply.Response,
		Timestamp:      reply.Timestamp,
	})
}

func (srv *HTTPServer) getSession(c *gin.Context) {
	view, err := srv.chat.GetSession(c.Request.Context(), c.Param("id"))
	if err != nil {
		srv.abort(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (srv *HTTPServer) deleteSession(c *gin.Context) {
	found, err := srv.chat.DeleteSession(c.Request.Context(), c.Param("id"))
	if err != nil {
		srv.abort(c, err)
		return
	}
	message := "Session cleared"
	if !found {
		message = "Session not found"
	}
	c.JSON(http.StatusOK, gin.H{"message": message})
}

// abort writes err as {"error": message} with the status it carries.
// Errors without a status are logged and reported as 500.
func (srv *HTTPServer) abort(c *gin.Context, err error) {
	status := errx.StatusOf(err)
	if status >= http.StatusInternalServerError {
		logx.Error().Err(err).Str("path", c.FullPath()).Msg("request failed")
	}
	c.AbortWithStatusJSON(status, gin.H{"error": errx.MessageOf(err)})
}
