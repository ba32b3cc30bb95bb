package tracker

type CreateUserRequest struct {
	Name     string `json:"name" binding:"required,min=2,max=120"`
	Email    string `json:"email" binding:"required,email,max=255"`
	UserType string `json:"user_type" binding:"required,oneof=AS400 WEB"`
	Role     string `json:"role" binding:"omitempty,oneof=manager collaborator"`
}

type UpdateUserRequest struct {
	Name     *string `json:"name" binding:"omitempty,min=2,max=120"`
	Email    *string `json:"email" binding:"omitempty,email,max=255"`
	UserType *string `json:"user_type" binding:"omitempty,oneof=AS400 WEB"`
	Role     *string `json:"role" binding:"omitempty,oneof=manager collaborator"`
}

type CreateProjectRequest struct {
	Name        string `json:"name" binding:"required,min=2,max=200"`
	Description string `json:"description" binding:"max=5000"`
	Techno      string `json:"techno" binding:"required,oneof=web mobile"`
	StartDate   string `json:"start_date" binding:"omitempty,datetime=2006-01-02"`
	EndDate     string `json:"end_date" binding:"omitempty,datetime=2006-01-02"`
	UserID      int64  `json:"user_id" binding:"omitempty,gt=0"`
}

type UpdateProjectRequest struct {
	Name        *string `json:"name" binding:"omitempty,min=2,max=200"`
	Description *string `json:"description" binding:"omitempty,max=5000"`
	Techno      *string `json:"techno" binding:"omitempty,oneof=web mobile"`
	StartDate   *string `json:"start_date" binding:"omitempty,datetime=2006-01-02"`
	EndDate     *string `json:"end_date" binding:"omitempty,datetime=2006-01-02"`
	UserID      *int64  `json:"user_id" binding:"omitempty,gt=0"`
}

type CreateTaskRequest struct {
	ProjectID   int64  `json:"project_id" binding:"required,gt=0"`
	UserID      *int64 `json:"user_id" binding:"omitempty,gt=0"`
	Name        string `json:"name" binding:"required,min=1,max=200"`
	Description string `json:"description" binding:"max=5000"`
	StartDate   string `json:"start_date" binding:"omitempty,datetime=2006-01-02"`
	EndDate     string `json:"end_date" binding:"omitempty,datetime=2006-01-02"`
	Status      string `json:"status" binding:"omitempty,oneof=pending in_progress completed"`
	AS400Status string `json:"as400_status" binding:"omitempty,oneof=pending in_progress completed"`
}

type UpdateTaskRequest struct {
	ProjectID   *int64  `json:"project_id" binding:"omitempty,gt=0"`
	UserID      *int64  `json:"user_id" binding:"omitempty,gte=0"` // 0 clears the owner
	Name        *string `json:"name" binding:"omitempty,min=1,max=200"`
	Description *string `json:"description" binding:"omitempty,max=5000"`
	StartDate   *string `json:"start_date" binding:"omitempty,datetime=2006-01-02"`
	EndDate     *string `json:"end_date" binding:"omitempty,datetime=2006-01-02"`
	Status      *string `json:"status" binding:"omitempty,oneof=pending in_progress completed"`
	AS400Status *string `json:"as400_status" binding:"omitempty,oneof=pending in_progress completed"`
}

type AssignRequest struct {
	AS400UserID int64 `json:"as400_user_id" binding:"required,gt=0"`
	WebUserID   int64 `json:"web_user_id" binding:"required,gt=0"`
}

type StatusRequest struct {
	Status string `json:"status" binding:"required,oneof=pending in_progress completed"`
}

type ProgressRequest struct {
	WeekIndex *int     `json:"weekIndex" binding:"required,gte=0"`
	Value     *float64 `json:"value" binding:"required,gte=0,lte=100"`
}

type QuestionRequest struct {
	ProjectID int64  `json:"project_id" binding:"required,gt=0"`
	Question  string `json:"question" binding:"required,min=1,max=5000"`
}

type UpdateQuestionRequest struct {
	Question string `json:"question" binding:"required,min=1,max=5000"`
}

type ResponseRequest struct {
	Response string `json:"response" binding:"required,min=1,max=5000"`
}
