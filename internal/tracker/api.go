// Package tracker is the HTTP service of the project tracker.
package tracker

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"kyri56xcaesar/pms-tracker/internal/authmw"
	"kyri56xcaesar/pms-tracker/internal/config"
	"kyri56xcaesar/pms-tracker/internal/notify"
	"kyri56xcaesar/pms-tracker/internal/status"
	"kyri56xcaesar/pms-tracker/internal/store"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	apiVersion = "/api/v1"
)

// Provisioner mirrors tracker users into the identity provider.
type Provisioner interface {
	ProvisionUser(ctx context.Context, email, name, role string) (string, error)
	DeprovisionUser(ctx context.Context, email string) error
}

type Server struct {
	config   config.Config
	engine   *gin.Engine
	store    *store.Store
	notifier notify.Notifier
	auth     *authmw.Auth
	kc       Provisioner
}

// NewServer wires the routes; kc may be nil when provisioning is disabled.
func NewServer(cfg config.Config, st *store.Store, n notify.Notifier, a *authmw.Auth, kc Provisioner) *Server {
	s := &Server{
		config:   cfg,
		store:    st,
		notifier: n,
		auth:     a,
		kc:       kc,
	}

	setGinMode(cfg.ApiGinMode)
	useJSONFieldNames()

	s.engine = gin.New()
	s.engine.Use(gin.Logger(), gin.Recovery(), requestID())

	s.setCors()
	s.setRoutes()

	return s
}

func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) setCors() {
	corsconfig := cors.DefaultConfig()
	corsconfig.AllowOrigins = s.config.AllowedOrigins
	corsconfig.AllowMethods = s.config.AllowedMethods
	corsconfig.AllowHeaders = s.config.AllowedHeaders
	corsconfig.ExposeHeaders = []string{"X-Request-ID"}
	if len(corsconfig.AllowOrigins) == 1 && corsconfig.AllowOrigins[0] == "*" {
		corsconfig.AllowOrigins = nil
		corsconfig.AllowAllOrigins = true
	}
	s.engine.Use(cors.New(corsconfig))
}

func (s *Server) setRoutes() {
	root := s.engine.Group("/")
	{
		root.GET("/healthz", func(c *gin.Context) {
			if err := s.store.Ping(c.Request.Context()); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "db unreachable"})
				return
			}
			c.JSON(http.StatusOK, gin.H{"status": "alive"})
		})
	}

	api := root.Group(apiVersion)

	member := api.Group("/")
	member.Use(s.auth.RequireRoles(authmw.RoleManager, authmw.RoleCollaborator, authmw.RoleAdmin))
	{
		member.GET("/user", s.handleCurrentUser)

		member.GET("/users", s.handleListUsers)
		member.GET("/users/type/:type", s.handleUsersByType)
		member.GET("/users/:id", s.handleGetUser)
		member.GET("/users/:id/tasks", s.handleUserTasks)

		member.GET("/projects", s.handleListProjects)
		member.GET("/projects/:id", s.handleGetProject)
		member.GET("/projects/:id/tasks", s.handleProjectTasks)
		member.GET("/projects/:id/questions", s.handleProjectQuestions)

		member.GET("/tasks", s.handleListTasks)
		member.GET("/tasks/:id", s.handleGetTask)
		member.GET("/tasks/:id/assignments", s.handleListAssignments)
		member.PUT("/tasks/:id/status", s.handleTrackStatus(status.Web))
		member.PUT("/tasks/:id/as400_status", s.handleTrackStatus(status.AS400))
		member.PUT("/tasks/:id/progress", s.handleTaskProgress)

		member.GET("/user-tasks", s.handleTrackBreakdown)
		member.GET("/collaborator-stats", s.handleCollaboratorStats)
		member.GET("/collaborators/tasks", s.handleCollaboratorTasks)
		member.GET("/project-stats", s.handleProjectStats)
		member.GET("/user-stats", s.handleUserStats)

		member.GET("/community/questions", s.handleListQuestions)
		member.POST("/community/questions", s.handleCreateQuestion)
		member.GET("/community/questions/:id", s.handleGetQuestion)
		member.PUT("/community/questions/:id", s.handleUpdateQuestion)
		member.DELETE("/community/questions/:id", s.handleDeleteQuestion)
		member.POST("/community/questions/:id/responses", s.handleCreateResponse)
		member.PUT("/community/responses/:id", s.handleUpdateResponse)
		member.DELETE("/community/responses/:id", s.handleDeleteResponse)
	}

	manager := api.Group("/")
	manager.Use(s.auth.RequireRoles(authmw.RoleManager, authmw.RoleAdmin))
	{
		manager.POST("/users", s.handleCreateUser)
		manager.PUT("/users/:id", s.handleUpdateUser)
		manager.DELETE("/users/:id", s.handleDeleteUser)

		manager.POST("/projects", s.handleCreateProject)
		manager.PUT("/projects/:id", s.handleUpdateProject)
		manager.DELETE("/projects/:id", s.handleDeleteProject)

		manager.POST("/tasks", s.handleCreateTask)
		manager.PUT("/tasks/:id", s.handleUpdateTask)
		manager.DELETE("/tasks/:id", s.handleDeleteTask)
		manager.POST("/tasks/:id/assign", s.handleAssign)
	}
}

// requestID propagates or mints the X-Request-ID correlation header.
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		c.Set("request_id", id)
		c.Header("X-Request-ID", id)
		c.Next()
	}
}

// NewAuth builds the token validator for the configured auth mode.
func NewAuth(cfg config.Config) (*authmw.Auth, error) {
	switch strings.ToLower(cfg.AuthMode) {
	case "hmac":
		return authmw.NewHMACAuth(cfg.JWTSecret, cfg.Issuer(), cfg.Audience)
	case "", "keycloak":
		return authmw.NewKeycloakAuth(
			authmw.JWKSURL(cfg.AuthAddress, cfg.Realm),
			cfg.Issuer(),
			cfg.Audience,
			cfg.ClientID,
		)
	default:
		return nil, fmt.Errorf("unknown auth mode %q", cfg.AuthMode)
	}
}

// StoreOptions maps the database keys of cfg onto store options.
func StoreOptions(cfg config.Config) store.Options {
	return store.Options{
		Driver:   cfg.DBDriver,
		Address:  cfg.DBAddress,
		User:     cfg.DBUser,
		Password: cfg.DBPassword,
		Name:     cfg.DBName,
		SSLMode:  cfg.DBSSLMode,
		Path:     cfg.SQLitePath,
	}
}

func InitAndServe(cfg config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := store.Open(ctx, StoreOptions(cfg))
	if err != nil {
		return err
	}
	defer st.Close()

	if err := st.Migrate(ctx); err != nil {
		return err
	}

	a, err := NewAuth(cfg)
	if err != nil {
		return fmt.Errorf("failed to instantiate the authenticator middleware: %w", err)
	}

	n, err := notify.New(notify.Options{
		Driver:         cfg.MailDriver,
		From:           cfg.MailFrom,
		SMTPHost:       cfg.SMTPHost,
		SMTPPort:       cfg.SMTPPort,
		SMTPUser:       cfg.SMTPUser,
		SMTPPass:       cfg.SMTPPass,
		ResendAPIKey:   cfg.ResendAPIKey,
		ResendEndpoint: cfg.ResendEndpoint,
		BaseURL:        cfg.AppBaseURL,
	})
	if err != nil {
		return err
	}

	var kc Provisioner
	if cfg.KCProvision {
		svc, err := authmw.NewService(cfg.AuthAddress, cfg.Realm, cfg.ClientID, cfg.ClientSecret)
		if err != nil {
			return fmt.Errorf("failed to init keycloak provisioning: %w", err)
		}
		kc = svc
	}

	s := NewServer(cfg, st, n, a, kc)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: time.Second * 5,
	}

	go func() {
		log.Printf("listening on %s (db=%s, auth=%s, mail=%s)", server.Addr, st.Dialect(), cfg.AuthMode, cfg.MailDriver)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	<-ctx.Done()

	stop()
	log.Println("shutting down gracefully, press Ctrl+C again to force")

	timeout := time.Duration(cfg.ShutdownTimeout) * time.Second
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	log.Println("Server exiting")
	return nil
}

func setGinMode(mode string) {
	switch strings.ToLower(mode) {
	case "release":
		gin.SetMode(gin.ReleaseMode)
	case "debug":
		gin.SetMode(gin.DebugMode)
	case "envgin":
		gin.SetMode(os.Getenv(gin.EnvGinMode))
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.DebugMode)
	}
}
