package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dmitrijs2005/taskkeeper/internal/common"
	"github.com/dmitrijs2005/taskkeeper/internal/imagex"
	"github.com/dmitrijs2005/taskkeeper/internal/server/services"
	"github.com/gin-gonic/gin"
)

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Age      int    `json:"age"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, common.NewValidationError("malformed request body"))
		return
	}

	user, token, err := s.users.Register(c.Request.Context(), services.RegisterInput{
		Name: req.Name, Email: req.Email, Password: req.Password, Age: req.Age,
	})
	if err != nil {
		s.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, authResponse{User: userView(user), Token: token})
}

func (s *Server) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, common.ErrAuthFailure)
		return
	}

	user, token, err := s.users.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		s.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, authResponse{User: userView(user), Token: token})
}

func (s *Server) logout(c *gin.Context) {
	if err := s.users.Logout(c.Request.Context(), currentUser(c).ID, currentToken(c)); err != nil {
		s.respondError(c, err)
		return
	}
	c.Status(http.StatusOK)
}

func (s *Server) logoutAll(c *gin.Context) {
	if err := s.users.LogoutAll(c.Request.Context(), currentUser(c).ID); err != nil {
		s.respondError(c, err)
		return
	}
	c.Status(http.StatusOK)
}

func (s *Server) me(c *gin.Context) {
	c.JSON(http.StatusOK, userView(currentUser(c)))
}

func (s *Server) updateMe(c *gin.Context) {
	var patch map[string]json.RawMessage
	if err := c.ShouldBindJSON(&patch); err != nil {
		s.respondError(c, common.ErrInvalidUpdateFields)
		return
	}

	user, err := s.users.Update(c.Request.Context(), currentUser(c), patch)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, userView(user))
}

func (s *Server) deleteMe(c *gin.Context) {
	user := currentUser(c)
	if err := s.users.Delete(c.Request.Context(), user); err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, userView(user))
}

// maxAvatarRequestSize leaves room for multipart framing around the file.
const maxAvatarRequestSize = imagex.MaxUploadSize + 64<<10

func (s *Server) uploadAvatar(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxAvatarRequestSize)

	fh, err := c.FormFile("avatar")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.respondError(c, common.ErrImageTooLarge)
			return
		}
		s.respondError(c, common.ErrUnsupportedImageType)
		return
	}

	f, err := fh.Open()
	if err != nil {
		s.respondError(c, err)
		return
	}
	defer f.Close()

	if err := s.avatars.Upload(c.Request.Context(), currentUser(c).ID, fh.Filename, fh.Size, f); err != nil {
		s.respondError(c, err)
		return
	}
	c.Status(http.StatusOK)
}

func (s *Server) deleteAvatar(c *gin.Context) {
	user := currentUser(c)
	if err := s.avatars.Delete(c.Request.Context(), user.ID); err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, userView(user))
}

func (s *Server) getAvatar(c *gin.Context) {
	png, err := s.avatars.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.Data(http.StatusOK, common.AvatarContentType, png)
}
