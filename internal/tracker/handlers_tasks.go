package tracker

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"kyri56xcaesar/pms-tracker/internal/progress"
	"kyri56xcaesar/pms-tracker/internal/status"
	"kyri56xcaesar/pms-tracker/internal/store"

	"github.com/gin-gonic/gin"
)

func (s *Server) handleListTasks(c *gin.Context) {
	var f store.TaskFilter
	if v := c.Query("project_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil || id <= 0 {
			respondError(c, invalidField("project_id", "gt", "0"), "task")
			return
		}
		f.ProjectID = id
	}
	if v := c.Query("user_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil || id <= 0 {
			respondError(c, invalidField("user_id", "gt", "0"), "task")
			return
		}
		f.UserID = id
	}

	tasks, err := s.store.ListTasks(c.Request.Context(), f)
	if err != nil {
		respondError(c, err, "task")
		return
	}
	c.JSON(http.StatusOK, tasks)
}

func (s *Server) handleGetTask(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	t, err := s.store.GetTask(c.Request.Context(), id)
	if err != nil {
		respondError(c, err, "task")
		return
	}
	c.JSON(http.StatusOK, t)
}

func (s *Server) handleCreateTask(c *gin.Context) {
	var req CreateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	if err := checkDateOrder(req.StartDate, req.EndDate); err != nil {
		respondError(c, err, "task")
		return
	}
	if req.UserID != nil {
		if _, err := s.store.GetUser(c.Request.Context(), *req.UserID); err != nil {
			respondError(c, err, "user")
			return
		}
	}

	t, err := s.store.CreateTask(c.Request.Context(), store.Task{
		ProjectID:   req.ProjectID,
		UserID:      req.UserID,
		Name:        req.Name,
		Description: req.Description,
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
		Status:      status.Status(req.Status),
		AS400Status: status.Status(req.AS400Status),
	})
	if err != nil {
		respondError(c, err, "project")
		return
	}
	c.JSON(http.StatusCreated, t)
}

func (s *Server) handleUpdateTask(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req UpdateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	if req.StartDate != nil || req.EndDate != nil {
		current, err := s.store.GetTask(c.Request.Context(), id)
		if err != nil {
			respondError(c, err, "task")
			return
		}
		start, end := current.StartDate, current.EndDate
		if req.StartDate != nil {
			start = *req.StartDate
		}
		if req.EndDate != nil {
			end = *req.EndDate
		}
		if err := checkDateOrder(start, end); err != nil {
			respondError(c, err, "task")
			return
		}
	}

	upd := store.TaskUpdate{
		ProjectID:   req.ProjectID,
		Name:        req.Name,
		Description: req.Description,
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
	}
	if req.UserID != nil {
		if *req.UserID == 0 {
			upd.ClearUser = true
		} else {
			if _, err := s.store.GetUser(c.Request.Context(), *req.UserID); err != nil {
				respondError(c, err, "user")
				return
			}
			upd.UserID = req.UserID
		}
	}
	if req.Status != nil {
		st := status.Status(*req.Status)
		upd.Status = &st
	}
	if req.AS400Status != nil {
		st := status.Status(*req.AS400Status)
		upd.AS400Status = &st
	}

	t, err := s.store.UpdateTask(c.Request.Context(), id, upd)
	if err != nil {
		respondError(c, err, "task")
		return
	}
	c.JSON(http.StatusOK, t)
}

func (s *Server) handleDeleteTask(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := s.store.DeleteTask(c.Request.Context(), id); err != nil {
		respondError(c, err, "task")
		return
	}
	c.Status(http.StatusNoContent)
}

// handleTrackStatus sets one track status of a task and reports the
// recomputed status of the parent project on that track.
func (s *Server) handleTrackStatus(tr status.Track) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c, "id")
		if !ok {
			return
		}
		var req StatusRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondBindError(c, err)
			return
		}

		t, projectStatus, err := s.store.SetTrackStatus(c.Request.Context(), id, tr, status.Status(req.Status))
		if err != nil {
			respondError(c, err, "task")
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"task":           t,
			"track":          tr,
			"project_status": projectStatus,
		})
	}
}

func (s *Server) handleTaskProgress(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req ProgressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	if err := progress.Validate(*req.WeekIndex, *req.Value); err != nil {
		respondError(c, progressFieldError(err), "task")
		return
	}

	periods, err := s.store.SetPeriodValue(c.Request.Context(), id, *req.WeekIndex, *req.Value)
	if err != nil {
		respondError(c, err, "task")
		return
	}
	c.JSON(http.StatusOK, gin.H{"task_id": id, "progress": periods})
}

func (s *Server) handleListAssignments(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if _, err := s.store.GetTask(c.Request.Context(), id); err != nil {
		respondError(c, err, "task")
		return
	}
	list, err := s.store.ListAssignments(c.Request.Context(), id)
	if err != nil {
		respondError(c, err, "assignment")
		return
	}
	c.JSON(http.StatusOK, list)
}

// progressFieldError names the request field a progress.Validate error refers to.
func progressFieldError(err error) *ValidationError {
	if errors.Is(err, progress.ErrNegativeIndex) {
		return invalidField("weekIndex", "gte", "0")
	}
	return invalidField("value", "range", fmt.Sprintf("%d..%d", progress.MinValue, progress.MaxValue))
}
