package tracker

import (
	"net/http"
	"strconv"

	"kyri56xcaesar/pms-tracker/internal/authmw"
	"kyri56xcaesar/pms-tracker/internal/status"
	"kyri56xcaesar/pms-tracker/internal/store"
	"kyri56xcaesar/pms-tracker/internal/utils"

	"github.com/gin-gonic/gin"
)

// handleTrackBreakdown answers with both tracks unless ?track= narrows it.
func (s *Server) handleTrackBreakdown(c *gin.Context) {
	tracks := []status.Track{status.Web, status.AS400}
	if v := c.Query("track"); v != "" {
		tr := status.Track(v)
		if !tr.Valid() {
			respondError(c, invalidField("track", "oneof", "web as400"), "track")
			return
		}
		tracks = []status.Track{tr}
	}

	out := gin.H{}
	for _, tr := range tracks {
		rows, err := s.store.TrackBreakdown(c.Request.Context(), tr)
		if err != nil {
			respondError(c, err, "track")
			return
		}
		out[string(tr)] = rows
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) handleUserTasks(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	tasks, err := s.store.TasksForUser(c.Request.Context(), id)
	if err != nil {
		respondError(c, err, "user")
		return
	}
	c.JSON(http.StatusOK, tasks)
}

func (s *Server) handleCollaboratorStats(c *gin.Context) {
	stats, err := s.store.CollaboratorStats(c.Request.Context())
	if err != nil {
		respondError(c, err, "collaborator")
		return
	}
	if t := c.Query("type"); t != "" {
		stats = utils.Filter(stats, func(cs store.CollaboratorStat) bool {
			return cs.UserType == t
		})
	}
	c.JSON(http.StatusOK, stats)
}

func (s *Server) handleCollaboratorTasks(c *gin.Context) {
	groups, err := s.store.CollaboratorTasks(c.Request.Context())
	if err != nil {
		respondError(c, err, "collaborator")
		return
	}
	total := utils.Reduce(utils.Map(groups, func(g store.CollaboratorTasks) int {
		return len(g.Tasks)
	}), 0, func(cur, next int) int { return cur + next })

	c.JSON(http.StatusOK, gin.H{"collaborators": groups, "assignments": total})
}

func (s *Server) handleProjectStats(c *gin.Context) {
	ps, err := s.store.ProjectStats(c.Request.Context())
	if err != nil {
		respondError(c, err, "stats")
		return
	}
	c.JSON(http.StatusOK, ps)
}

// handleUserStats reports on the caller, or on ?user_id= for managers.
func (s *Server) handleUserStats(c *gin.Context) {
	var userID int64
	if v := c.Query("user_id"); v != "" {
		if !authmw.HasRole(c, authmw.RoleManager, authmw.RoleAdmin) {
			c.JSON(http.StatusForbidden, gin.H{"error": "only managers can read other users' stats"})
			return
		}
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil || id <= 0 {
			respondError(c, invalidField("user_id", "gt", "0"), "user")
			return
		}
		if _, err := s.store.GetUser(c.Request.Context(), id); err != nil {
			respondError(c, err, "user")
			return
		}
		userID = id
	} else {
		u, ok := s.currentUser(c)
		if !ok {
			return
		}
		userID = u.ID
	}

	us, err := s.store.UserStats(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err, "user")
		return
	}
	c.JSON(http.StatusOK, us)
}
