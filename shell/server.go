package shell

import (
	"context"
	"embed"
	"html/template"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"search-assistant/query"
)

//go:generate mockgen -source=server.go -destination=mock_querier.go -package=shell Querier

// Querier answers a single question. *backend.Client satisfies it.
type Querier interface {
	Submit(ctx context.Context, userQuery string) query.Result
}

//go:embed templates/*.tmpl
var templateFS embed.FS

var pageTemplate = template.Must(template.New("").Funcs(template.FuncMap{
	"inc": func(i int) int { return i + 1 },
}).ParseFS(templateFS, "templates/*.tmpl"))

const pageName = "index.html.tmpl"

type page struct {
	Query  string
	Result *query.Result
}

type Server struct {
	querier Querier
	logger  *slog.Logger
}

func New(querier Querier, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		querier: querier,
		logger:  logger,
	}
}

// Router builds the gin engine serving the search page and its JSON twin.
func (s *Server) Router() *gin.Engine {
	router := gin.Default()
	router.Use(cors.Default()) // Allow all origins
	router.SetHTMLTemplate(pageTemplate)

	router.GET("/", s.indexHandler)
	router.POST("/", s.searchHandler)
	router.POST("/api/query", s.apiQueryHandler)
	router.GET("/healthz", s.healthHandler)

	return router
}

func (s *Server) indexHandler(ctx *gin.Context) {
	ctx.HTML(http.StatusOK, pageName, page{})
}

func (s *Server) searchHandler(ctx *gin.Context) {
	userQuery := strings.TrimSpace(ctx.PostForm("query"))
	if userQuery == "" {
		// nothing to ask, just show the form again
		ctx.HTML(http.StatusOK, pageName, page{})
		return
	}

	result := s.submit(ctx, userQuery)
	ctx.HTML(http.StatusOK, pageName, page{Query: userQuery, Result: &result})
}

func (s *Server) apiQueryHandler(ctx *gin.Context) {
	var payload query.RequestPayload
	if err := ctx.ShouldBindJSON(&payload); err != nil {
		s.logger.ErrorContext(ctx, "failed to bind request to expected object", slog.Any("error", err))
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userQuery := strings.TrimSpace(payload.Query)
	if userQuery == "" {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "query is required"})
		return
	}

	result := s.submit(ctx, userQuery)
	status := http.StatusOK
	if result.Failed() {
		status = http.StatusBadGateway
	}
	ctx.JSON(status, &result)
}

func (s *Server) healthHandler(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) submit(ctx *gin.Context, userQuery string) query.Result {
	result := s.querier.Submit(ctx.Request.Context(), userQuery)
	if result.Failed() {
		s.logger.WarnContext(ctx, "query failed", slog.String("query", userQuery), slog.String("error", result.ErrorMessage))
	} else {
		s.logger.InfoContext(ctx, "query answered", slog.String("query", userQuery), slog.Int("sources", len(result.Sources)))
	}
	return result
}
