package httpapi

import (
	"errors"
	"net/http"
	"time"

	"github.com/dmitrijs2005/taskkeeper/internal/common"
	"github.com/dmitrijs2005/taskkeeper/internal/server/models"
	"github.com/gin-gonic/gin"
)

const (
	msgPleaseAuthenticate = "please authenticate"
	msgNotFound           = "not found"
	msgInternal           = "internal error"
)

// UserView is the public shape of a user. It has no field for the password
// hash, the tokens or the avatar.
type UserView struct {
	ID        string    `json:"_id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Age       int       `json:"age"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func userView(u *models.User) UserView {
	return UserView{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Age:       u.Age,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

type TaskView struct {
	ID          string    `json:"_id"`
	Description string    `json:"description"`
	Completed   bool      `json:"completed"`
	Owner       string    `json:"owner"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func taskView(t *models.Task) TaskView {
	return TaskView{
		ID:          t.ID,
		Description: t.Description,
		Completed:   t.Completed,
		Owner:       t.OwnerID,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
}

type authResponse struct {
	User  UserView `json:"user"`
	Token string   `json:"token"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// respondError maps domain errors onto status codes. Unknown errors are
// logged and hidden behind a generic 500.
func (s *Server) respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, common.ErrAuthFailure):
		c.JSON(http.StatusBadRequest, errorResponse{Error: common.ErrAuthFailure.Error()})
	case errors.Is(err, common.ErrValidation),
		errors.Is(err, common.ErrInvalidUpdateFields),
		errors.Is(err, common.ErrUnsupportedImageType),
		errors.Is(err, common.ErrImageTooLarge):
		c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
	case errors.Is(err, common.ErrorUnauthorized):
		c.JSON(http.StatusUnauthorized, errorResponse{Error: msgPleaseAuthenticate})
	case errors.Is(err, common.ErrorNotFound):
		c.JSON(http.StatusNotFound, errorResponse{Error: msgNotFound})
	default:
		s.logger.Error(c.Request.Context(), "request failed", "path", c.FullPath(), "error", err)
		c.JSON(http.StatusInternalServerError, errorResponse{Error: msgInternal})
	}
}
