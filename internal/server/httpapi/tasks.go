package httpapi

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/dmitrijs2005/taskkeeper/internal/common"
	"github.com/dmitrijs2005/taskkeeper/internal/server/repositories/tasks"
	"github.com/dmitrijs2005/taskkeeper/internal/server/services"
	"github.com/gin-gonic/gin"
)

type createTaskRequest struct {
	Description string `json:"description"`
	Completed   bool   `json:"completed"`
}

func (s *Server) createTask(c *gin.Context) {
	var req createTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, common.NewValidationError("malformed request body"))
		return
	}

	task, err := s.tasks.Create(c.Request.Context(), currentUser(c).ID, services.TaskInput{
		Description: req.Description, Completed: req.Completed,
	})
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, taskView(task))
}

func (s *Server) listTasks(c *gin.Context) {
	list, err := s.tasks.List(c.Request.Context(), currentUser(c).ID, listOptions(c))
	if err != nil {
		s.respondError(c, err)
		return
	}

	out := make([]TaskView, 0, len(list))
	for _, t := range list {
		out = append(out, taskView(t))
	}
	c.JSON(http.StatusOK, out)
}

// listOptions reads completed, sortBy, limit and skip. Bad numbers are
// ignored rather than rejected.
func listOptions(c *gin.Context) tasks.ListOptions {
	var opts tasks.ListOptions

	if v := c.Query("completed"); v != "" {
		done := v == "true"
		opts.Completed = &done
	}

	opts.SortField, opts.SortDesc = tasks.ParseSort(c.Query("sortBy"))
	opts.Limit = nonNegativeInt(c.Query("limit"))
	opts.Skip = nonNegativeInt(c.Query("skip"))

	return opts
}

func nonNegativeInt(v string) int {
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0
	}
	return n
}

func (s *Server) getTask(c *gin.Context) {
	task, err := s.tasks.Get(c.Request.Context(), currentUser(c).ID, c.Param("id"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, taskView(task))
}

func (s *Server) updateTask(c *gin.Context) {
	var patch map[string]json.RawMessage
	if err := c.ShouldBindJSON(&patch); err != nil {
		s.respondError(c, common.ErrInvalidUpdateFields)
		return
	}

	task, err := s.tasks.Update(c.Request.Context(), currentUser(c).ID, c.Param("id"), patch)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, taskView(task))
}

func (s *Server) deleteTask(c *gin.Context) {
	task, err := s.tasks.Delete(c.Request.Context(), currentUser(c).ID, c.Param("id"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, taskView(task))
}
