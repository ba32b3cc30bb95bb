package tracker

import (
	"context"
	"log"
	"net/http"

	"kyri56xcaesar/pms-tracker/internal/notify"
	"kyri56xcaesar/pms-tracker/internal/store"

	"github.com/gin-gonic/gin"
)

// AssignOutcome distinguishes a clean assignment from one whose notification
// could not be delivered. Failures before persistence are returned as errors.
type AssignOutcome int

const (
	AssignFailed AssignOutcome = iota
	Assigned
	AssignedNotifyFailed
)

func (o AssignOutcome) String() string {
	switch o {
	case Assigned:
		return "assigned"
	case AssignedNotifyFailed:
		return "assigned_notify_failed"
	default:
		return "failed"
	}
}

type AssignResult struct {
	Outcome    AssignOutcome
	Assignment store.Assignment
	NotifyErr  error
}

// Assign pairs an AS400 user and a WEB user on a task, then notifies the
// AS400 user. The notification runs after the assignment is committed and
// its failure never undoes it.
func (s *Server) Assign(ctx context.Context, taskID, as400UserID, webUserID int64) (AssignResult, error) {
	task, err := s.store.GetTask(ctx, taskID)
	if err != nil {
		return AssignResult{}, err
	}
	as400, err := s.store.GetUser(ctx, as400UserID)
	if err != nil {
		return AssignResult{}, err
	}
	web, err := s.store.GetUser(ctx, webUserID)
	if err != nil {
		return AssignResult{}, err
	}

	if s.config.EnforceUserTypes {
		var fields []FieldError
		if as400.UserType != store.UserTypeAS400 {
			fields = append(fields, FieldError{Field: "as400_user_id", Rule: "user_type", Param: store.UserTypeAS400})
		}
		if web.UserType != store.UserTypeWeb {
			fields = append(fields, FieldError{Field: "web_user_id", Rule: "user_type", Param: store.UserTypeWeb})
		}
		if len(fields) > 0 {
			return AssignResult{}, &ValidationError{Fields: fields}
		}
	}

	a, err := s.store.UpsertAssignment(ctx, task.ID, as400.ID, web.ID)
	if err != nil {
		return AssignResult{}, err
	}

	msg := notify.Assignment{
		TaskID:   task.ID,
		TaskName: task.Name,
		UserName: as400.Name,
		Email:    as400.Email,
	}
	if p, err := s.store.GetProject(ctx, task.ProjectID); err == nil {
		msg.ProjectName = p.Name
	}

	if err := s.notifier.NotifyAssignment(ctx, msg); err != nil {
		log.Printf("failed to notify %s about task %d: %v", as400.Email, task.ID, err)
		return AssignResult{Outcome: AssignedNotifyFailed, Assignment: a, NotifyErr: err}, nil
	}

	return AssignResult{Outcome: Assigned, Assignment: a}, nil
}

func (s *Server) handleAssign(c *gin.Context) {
	taskID, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req AssignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	res, err := s.Assign(c.Request.Context(), taskID, req.AS400UserID, req.WebUserID)
	if err != nil {
		respondError(c, err, "task or user")
		return
	}

	switch res.Outcome {
	case AssignedNotifyFailed:
		c.JSON(http.StatusBadGateway, gin.H{
			"outcome":    res.Outcome.String(),
			"assignment": res.Assignment,
			"error":      "task assigned but the notification could not be sent",
		})
	default:
		c.JSON(http.StatusOK, gin.H{
			"outcome":    res.Outcome.String(),
			"assignment": res.Assignment,
		})
	}
}
