package tracker

import (
	"net/http"
	"strconv"

	"kyri56xcaesar/pms-tracker/internal/store"

	"github.com/gin-gonic/gin"
)

func (s *Server) handleListQuestions(c *gin.Context) {
	var f store.QuestionFilter
	if v := c.Query("project_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil || id <= 0 {
			respondError(c, invalidField("project_id", "gt", "0"), "question")
			return
		}
		f.ProjectID = id
	}

	questions, err := s.store.ListQuestions(c.Request.Context(), f)
	if err != nil {
		respondError(c, err, "question")
		return
	}
	c.JSON(http.StatusOK, questions)
}

func (s *Server) handleGetQuestion(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	q, err := s.store.GetQuestion(c.Request.Context(), id)
	if err != nil {
		respondError(c, err, "question")
		return
	}
	c.JSON(http.StatusOK, q)
}

func (s *Server) handleCreateQuestion(c *gin.Context) {
	var req QuestionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	author, ok := s.currentUser(c)
	if !ok {
		return
	}
	if _, err := s.store.GetProject(c.Request.Context(), req.ProjectID); err != nil {
		respondError(c, err, "project")
		return
	}

	q, err := s.store.CreateQuestion(c.Request.Context(), store.Question{
		ProjectID: req.ProjectID,
		UserID:    author.ID,
		Question:  req.Question,
	})
	if err != nil {
		respondError(c, err, "question")
		return
	}
	c.JSON(http.StatusCreated, q)
}

// ownQuestion loads the question and checks the caller wrote it.
func (s *Server) ownQuestion(c *gin.Context) (store.Question, bool) {
	id, ok := pathID(c, "id")
	if !ok {
		return store.Question{}, false
	}
	caller, ok := s.currentUser(c)
	if !ok {
		return store.Question{}, false
	}
	q, err := s.store.GetQuestion(c.Request.Context(), id)
	if err != nil {
		respondError(c, err, "question")
		return store.Question{}, false
	}
	if q.UserID != caller.ID {
		c.JSON(http.StatusForbidden, gin.H{"error": "only the author can change this question"})
		return store.Question{}, false
	}
	return q, true
}

func (s *Server) handleUpdateQuestion(c *gin.Context) {
	var req UpdateQuestionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	q, ok := s.ownQuestion(c)
	if !ok {
		return
	}

	updated, err := s.store.UpdateQuestion(c.Request.Context(), q.ID, req.Question)
	if err != nil {
		respondError(c, err, "question")
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (s *Server) handleDeleteQuestion(c *gin.Context) {
	q, ok := s.ownQuestion(c)
	if !ok {
		return
	}
	if err := s.store.DeleteQuestion(c.Request.Context(), q.ID); err != nil {
		respondError(c, err, "question")
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) handleCreateResponse(c *gin.Context) {
	questionID, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req ResponseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	author, ok := s.currentUser(c)
	if !ok {
		return
	}
	if _, err := s.store.GetQuestion(c.Request.Context(), questionID); err != nil {
		respondError(c, err, "question")
		return
	}

	r, err := s.store.CreateResponse(c.Request.Context(), store.Response{
		QuestionID: questionID,
		UserID:     author.ID,
		Response:   req.Response,
	})
	if err != nil {
		respondError(c, err, "response")
		return
	}
	c.JSON(http.StatusCreated, r)
}

func (s *Server) ownResponse(c *gin.Context) (store.Response, bool) {
	id, ok := pathID(c, "id")
	if !ok {
		return store.Response{}, false
	}
	caller, ok := s.currentUser(c)
	if !ok {
		return store.Response{}, false
	}
	r, err := s.store.GetResponse(c.Request.Context(), id)
	if err != nil {
		respondError(c, err, "response")
		return store.Response{}, false
	}
	if r.UserID != caller.ID {
		c.JSON(http.StatusForbidden, gin.H{"error": "only the author can change this response"})
		return store.Response{}, false
	}
	return r, true
}

func (s *Server) handleUpdateResponse(c *gin.Context) {
	var req ResponseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	r, ok := s.ownResponse(c)
	if !ok {
		return
	}

	updated, err := s.store.UpdateResponse(c.Request.Context(), r.ID, req.Response)
	if err != nil {
		respondError(c, err, "response")
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (s *Server) handleDeleteResponse(c *gin.Context) {
	r, ok := s.ownResponse(c)
	if !ok {
		return
	}
	if err := s.store.DeleteResponse(c.Request.Context(), r.ID); err != nil {
		respondError(c, err, "response")
		return
	}
	c.Status(http.StatusNoContent)
}
