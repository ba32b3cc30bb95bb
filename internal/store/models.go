package store

import (
	"time"

	"kyri56xcaesar/pms-tracker/internal/progress"
	"kyri56xcaesar/pms-tracker/internal/status"
)

const (
	UserTypeAS400 = "AS400"
	UserTypeWeb   = "WEB"

	RoleManager      = "manager"
	RoleCollaborator = "collaborator"

	TechnoWeb    = "web"
	TechnoMobile = "mobile"
)

// DateLayout is the wire and storage format of project/task dates.
const DateLayout = "2006-01-02"

type User struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	UserType  string    `json:"user_type"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

type Project struct {
	ID          int64         `json:"id"`
	Name        string        `json:"name"`
	Description string        `json:"description"`
	Techno      string        `json:"techno"`
	StartDate   string        `json:"start_date,omitempty"`
	EndDate     string        `json:"end_date,omitempty"`
	Status      status.Status `json:"status"`
	AS400Status status.Status `json:"as400_status"`
	UserID      int64         `json:"user_id"`
	CreatedAt   time.Time     `json:"created_at"`

	TaskCount int `json:"task_count"`
}

type Task struct {
	ID          int64            `json:"id"`
	ProjectID   int64            `json:"project_id"`
	UserID      *int64           `json:"user_id"`
	Name        string           `json:"name"`
	Description string           `json:"description"`
	StartDate   string           `json:"start_date,omitempty"`
	EndDate     string           `json:"end_date,omitempty"`
	Status      status.Status    `json:"status"`
	AS400Status status.Status    `json:"as400_status"`
	Progress    progress.Periods `json:"progress"`
	CreatedAt   time.Time        `json:"created_at"`
}

// TrackStatus returns the task status for the given track.
func (t Task) TrackStatus(tr status.Track) status.Status {
	if tr == status.AS400 {
		return t.AS400Status
	}
	return t.Status
}

// Assignment pairs an AS400 user with a WEB user on a task; (TaskID, AS400UserID) is unique.
type Assignment struct {
	TaskID      int64     `json:"task_id"`
	AS400UserID int64     `json:"as400_user_id"`
	WebUserID   int64     `json:"web_user_id"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type Question struct {
	ID        int64      `json:"id"`
	ProjectID int64      `json:"project_id"`
	UserID    int64      `json:"user_id"`
	UserName  string     `json:"user_name"`
	Question  string     `json:"question"`
	CreatedAt time.Time  `json:"created_at"`
	Responses []Response `json:"responses,omitempty"`
}

type Response struct {
	ID         int64     `json:"id"`
	QuestionID int64     `json:"question_id"`
	UserID     int64     `json:"user_id"`
	UserName   string    `json:"user_name"`
	Response   string    `json:"response"`
	CreatedAt  time.Time `json:"created_at"`
}
