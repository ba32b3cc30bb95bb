package tracker

import (
	"net/http"

	"kyri56xcaesar/pms-tracker/internal/store"

	"github.com/gin-gonic/gin"
)

func (s *Server) handleListProjects(c *gin.Context) {
	projects, err := s.store.ListProjects(c.Request.Context())
	if err != nil {
		respondError(c, err, "project")
		return
	}
	c.JSON(http.StatusOK, projects)
}

func (s *Server) handleGetProject(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	p, err := s.store.GetProject(c.Request.Context(), id)
	if err != nil {
		respondError(c, err, "project")
		return
	}
	c.JSON(http.StatusOK, p)
}

func (s *Server) handleCreateProject(c *gin.Context) {
	var req CreateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	if err := checkDateOrder(req.StartDate, req.EndDate); err != nil {
		respondError(c, err, "project")
		return
	}

	owner := req.UserID
	if owner == 0 {
		u, ok := s.currentUser(c)
		if !ok {
			return
		}
		owner = u.ID
	} else if _, err := s.store.GetUser(c.Request.Context(), owner); err != nil {
		respondError(c, err, "user")
		return
	}

	p, err := s.store.CreateProject(c.Request.Context(), store.Project{
		Name:        req.Name,
		Description: req.Description,
		Techno:      req.Techno,
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
		UserID:      owner,
	})
	if err != nil {
		respondError(c, err, "project")
		return
	}
	c.JSON(http.StatusCreated, p)
}

func (s *Server) handleUpdateProject(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req UpdateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	if req.StartDate != nil || req.EndDate != nil {
		current, err := s.store.GetProject(c.Request.Context(), id)
		if err != nil {
			respondError(c, err, "project")
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
			respondError(c, err, "project")
			return
		}
	}

	if req.UserID != nil {
		if _, err := s.store.GetUser(c.Request.Context(), *req.UserID); err != nil {
			respondError(c, err, "user")
			return
		}
	}

	p, err := s.store.UpdateProject(c.Request.Context(), id, store.ProjectUpdate{
		Name:        req.Name,
		Description: req.Description,
		Techno:      req.Techno,
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
		UserID:      req.UserID,
	})
	if err != nil {
		respondError(c, err, "project")
		return
	}
	c.JSON(http.StatusOK, p)
}

func (s *Server) handleDeleteProject(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := s.store.DeleteProject(c.Request.Context(), id); err != nil {
		respondError(c, err, "project")
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) handleProjectTasks(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if _, err := s.store.GetProject(c.Request.Context(), id); err != nil {
		respondError(c, err, "project")
		return
	}
	tasks, err := s.store.ListTasks(c.Request.Context(), store.TaskFilter{ProjectID: id})
	if err != nil {
		respondError(c, err, "task")
		return
	}
	c.JSON(http.StatusOK, tasks)
}

func (s *Server) handleProjectQuestions(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if _, err := s.store.GetProject(c.Request.Context(), id); err != nil {
		respondError(c, err, "project")
		return
	}
	questions, err := s.store.ListQuestions(c.Request.Context(), store.QuestionFilter{ProjectID: id})
	if err != nil {
		respondError(c, err, "question")
		return
	}
	c.JSON(http.StatusOK, questions)
}
