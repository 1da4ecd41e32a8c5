// Package api is the REST side of the chat module: call setup, call history,
// friends, pending requests and user discovery. Every route but /healthz
// needs a caller id.
package api

import (
	"net/http"

	"PTalk/logger"
	"PTalk/middleware"
	midsec "PTalk/middleware/security"
	chatmodel "PTalk/module/chat/model"
	"PTalk/module/chat/service"
	"PTalk/tools/errs"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Server struct {
	Friends *service.FriendService
	Calls   *service.CallService
}

type response struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

// Mount registers the routes on r.
func (s *Server) Mount(r gin.IRouter, auth *midsec.Options) {
	r.GET("/healthz", s.health)

	api := r.Group("/api")
	opt := middleware.RouteOpt{IsAuth: true, Auth: auth}
	middleware.POST(api, "/calls/audio", handle(s.startCall(chatmodel.CallAudio)), opt)
	middleware.POST(api, "/calls/video", handle(s.startCall(chatmodel.CallVideo)), opt)
	middleware.GET(api, "/calls", handle(s.GetCallLogs), opt)
	middleware.GET(api, "/friends", handle(s.GetFriends), opt)
	middleware.GET(api, "/requests", handle(s.GetRequests), opt)
	middleware.GET(api, "/users", handle(s.GetUsers), opt)
	middleware.GET(api, "/users/all", handle(s.GetAllVerifiedUsers), opt)
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, response{Status: "success"})
}

type startCallBody struct {
	ID string `json:"id" binding:"required"`
}

func (s *Server) startCall(kind chatmodel.CallKind) func(c *gin.Context) error {
	return func(c *gin.Context) error {
		var body startCallBody
		if err := c.ShouldBindJSON(&body); err != nil {
			return errs.ErrValidation.WrapCause(err, "body must be {\"id\": <callee>}")
		}
		invite, err := s.Calls.Setup(c.Request.Context(), kind, midsec.UserID(c), body.ID)
		if err != nil {
			return err
		}
		c.JSON(http.StatusOK, response{Status: "success", Data: invite})
		return nil
	}
}

func (s *Server) GetCallLogs(c *gin.Context) error {
	logs, err := s.Calls.ListLogs(c.Request.Context(), midsec.UserID(c))
	if err != nil {
		return err
	}
	c.JSON(http.StatusOK, response{Status: "success", Message: "Call Logs Found successfully!", Data: logs})
	return nil
}

func (s *Server) GetFriends(c *gin.Context) error {
	friends, err := s.Friends.ListFriends(c.Request.Context(), midsec.UserID(c))
	if err != nil {
		return err
	}
	c.JSON(http.StatusOK, response{Status: "success", Message: "Friends found successfully!", Data: friends})
	return nil
}

func (s *Server) GetRequests(c *gin.Context) error {
	reqs, err := s.Friends.ListRequests(c.Request.Context(), midsec.UserID(c))
	if err != nil {
		return err
	}
	c.JSON(http.StatusOK, response{Status: "success", Message: "Requests found successfully!", Data: reqs})
	return nil
}

// GetUsers lists the verified users the caller could befriend.
func (s *Server) GetUsers(c *gin.Context) error {
	users, err := s.Friends.Discover(c.Request.Context(), midsec.UserID(c))
	if err != nil {
		return err
	}
	c.JSON(http.StatusOK, response{Status: "success", Message: "Users found successfully!", Data: users})
	return nil
}

func (s *Server) GetAllVerifiedUsers(c *gin.Context) error {
	users, err := s.Friends.ListVerified(c.Request.Context(), midsec.UserID(c))
	if err != nil {
		return err
	}
	c.JSON(http.StatusOK, response{Status: "success", Message: "Users found successfully!", Data: users})
	return nil
}

// handle adapts an error-returning handler and renders its error.
func handle(f func(c *gin.Context) error) gin.HandlerFunc {
	return func(c *gin.Context) {
		err := f(c)
		if err == nil {
			return
		}
		status := statusOf(err)
		if status >= http.StatusInternalServerError {
			logger.Error("[API] request failed", zap.String("path", c.FullPath()), zap.Error(err))
		} else {
			logger.Debug("[API] request rejected", zap.String("path", c.FullPath()), zap.Error(err))
		}
		c.AbortWithStatusJSON(status, response{Status: "error", Message: errs.Msg(err)})
	}
}

func statusOf(err error) int {
	switch errs.Code(err) {
	case errs.ValidationError:
		return http.StatusBadRequest
	case errs.NotFoundError:
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}
