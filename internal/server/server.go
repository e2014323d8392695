package server

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/laithdarras/universal-kg/internal/config"
	"github.com/laithdarras/universal-kg/internal/core"
	"github.com/laithdarras/universal-kg/internal/logger"
)

const (
	apiName    = "Universal Knowledge Graph API"
	apiVersion = "1.0.0"

	headerApplied = "X-Triples-Applied"
	headerSkipped = "X-Triples-Skipped"
)

type Server struct {
	Engine *core.Engine
	Config *config.Config
	Log    *logger.Logger
}

func NewServer(engine *core.Engine, cfg *config.Config, log *logger.Logger) *Server {
	if cfg == nil {
		cfg = config.Default()
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Server{
		Engine: engine,
		Config: cfg,
		Log:    log.With("component", "http"),
	}
}

func (s *Server) SetupRouter() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if s.Config.Tracing.Enabled {
		r.Use(otelgin.Middleware(s.Config.Tracing.ServiceName))
	}
	r.Use(RequestLogger(s.Log))
	r.Use(CORS(s.Config.Server.CORSOrigins))

	r.GET("/", s.Root)
	r.GET("/health", s.Health)

	api := r.Group("/api")
	api.POST("/ingest", s.IngestURLs)
	api.POST("/ingest-file", s.IngestFile)
	api.POST("/ingest-text", s.IngestText)
	api.POST("/triples", s.ApplyTriples)
	api.GET("/graph", s.Graph)
	api.GET("/nodes/:id", s.Node)
	api.GET("/edges/exists", s.EdgeExists)
	api.GET("/communities", s.Communities)
	api.POST("/qa", s.QA)

	return r
}

// CORS allows the configured browser origins.
func CORS(origins []string) gin.HandlerFunc {
	return cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type", "X-Requested-With"},
		ExposeHeaders:    []string{headerApplied, headerSkipped},
		AllowCredentials: true,
	})
}
