package tracker

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"

	"kyri56xcaesar/pms-tracker/internal/authmw"
	"kyri56xcaesar/pms-tracker/internal/store"
	"kyri56xcaesar/pms-tracker/internal/utils"

	"github.com/gin-gonic/gin"
)

var (
	userTypes = []string{store.UserTypeAS400, store.UserTypeWeb}
	roles     = []string{store.RoleManager, store.RoleCollaborator}
)

// pathID parses a positive integer path parameter, answering 400 otherwise.
func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing/invalid " + name})
		return 0, false
	}
	return id, true
}

// currentUser resolves the tracker account behind the token email.
func (s *Server) currentUser(c *gin.Context) (store.User, bool) {
	email := authmw.Email(c)
	if email == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return store.User{}, false
	}
	u, err := s.store.GetUserByEmail(c.Request.Context(), email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusForbidden, gin.H{"error": "no tracker account for " + email})
			return store.User{}, false
		}
		respondError(c, err, "user")
		return store.User{}, false
	}
	return u, true
}

func (s *Server) handleCurrentUser(c *gin.Context) {
	u, ok := s.currentUser(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": u, "roles": authmw.Roles(c)})
}

func (s *Server) handleListUsers(c *gin.Context) {
	f := store.UserFilter{
		UserType: strings.ToUpper(c.Query("type")),
		Role:     strings.ToLower(c.Query("role")),
	}
	if f.UserType != "" && !utils.Contains(userTypes, f.UserType) {
		respondError(c, invalidField("type", "oneof", "AS400 WEB"), "user")
		return
	}
	if f.Role != "" && !utils.Contains(roles, f.Role) {
		respondError(c, invalidField("role", "oneof", "manager collaborator"), "user")
		return
	}

	users, err := s.store.ListUsers(c.Request.Context(), f)
	if err != nil {
		respondError(c, err, "user")
		return
	}
	c.JSON(http.StatusOK, users)
}

func (s *Server) handleUsersByType(c *gin.Context) {
	userType := strings.ToUpper(c.Param("type"))
	if !utils.Contains(userTypes, userType) {
		respondError(c, invalidField("type", "oneof", "AS400 WEB"), "user")
		return
	}

	users, err := s.store.ListUsers(c.Request.Context(), store.UserFilter{UserType: userType})
	if err != nil {
		respondError(c, err, "user")
		return
	}
	c.JSON(http.StatusOK, users)
}

func (s *Server) handleGetUser(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	u, err := s.store.GetUser(c.Request.Context(), id)
	if err != nil {
		respondError(c, err, "user")
		return
	}
	c.JSON(http.StatusOK, u)
}

func (s *Server) handleCreateUser(c *gin.Context) {
	var req CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	u, err := s.store.CreateUser(c.Request.Context(), store.User{
		Name:     req.Name,
		Email:    req.Email,
		UserType: req.UserType,
		Role:     req.Role,
	})
	if err != nil {
		respondError(c, err, "user")
		return
	}

	if s.kc != nil {
		if _, err := s.kc.ProvisionUser(c.Request.Context(), u.Email, u.Name, u.Role); err != nil {
			log.Printf("failed to provision identity for %s: %v", u.Email, err)
			s.rollbackUser(c.Request.Context(), u.ID)
			c.JSON(http.StatusBadGateway, gin.H{"error": "identity provisioning failed"})
			return
		}
	}

	c.JSON(http.StatusCreated, u)
}

func (s *Server) rollbackUser(ctx context.Context, id int64) {
	if err := s.store.DeleteUser(ctx, id); err != nil {
		log.Printf("failed to roll back user %d: %v", id, err)
	}
}

func (s *Server) handleUpdateUser(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	u, err := s.store.UpdateUser(c.Request.Context(), id, store.UserUpdate{
		Name:     req.Name,
		Email:    req.Email,
		UserType: req.UserType,
		Role:     req.Role,
	})
	if err != nil {
		respondError(c, err, "user")
		return
	}
	c.JSON(http.StatusOK, u)
}

func (s *Server) handleDeleteUser(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	u, err := s.store.GetUser(c.Request.Context(), id)
	if err != nil {
		respondError(c, err, "user")
		return
	}
	if err := s.store.DeleteUser(c.Request.Context(), id); err != nil {
		respondError(c, err, "user")
		return
	}

	if s.kc != nil {
		if err := s.kc.DeprovisionUser(c.Request.Context(), u.Email); err != nil {
			log.Printf("failed to deprovision identity for %s: %v", u.Email, err)
		}
	}

	c.Status(http.StatusNoContent)
}
