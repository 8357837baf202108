package web

import (
	"html/template"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/bosunworks/bosun/internal/assets"
	"github.com/bosunworks/bosun/internal/taskgraph"
)

// Server is the task board web server
type Server struct {
	tasks   *taskgraph.Manager
	project string
	router  *gin.Engine
}

// NewServer creates a new web server over the given task manager
func NewServer(tasks *taskgraph.Manager, project string) *Server {
	router := gin.Default()

	// Templates ship inside the binary
	router.SetHTMLTemplate(template.Must(template.ParseFS(assets.Web, "web/board.html")))

	s := &Server{
		tasks:   tasks,
		project: project,
		router:  router,
	}

	// Web routes
	router.GET("/", s.handleBoard)
	router.GET("/healthz", s.handleHealth)

	// API routes
	api := router.Group("/api")
	{
		api.GET("/tasks", s.handleAPIBoard)
		api.GET("/tasks/:id", s.handleAPITask)
	}

	return s
}

// Run starts the web server
func (s *Server) Run(addr string) error {
	return s.router.Run(addr)
}

// Handler exposes the router for tests and embedding
func (s *Server) Handler() http.Handler {
	return s.router
}
