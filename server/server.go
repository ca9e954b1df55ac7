package server

import (
	"context"
	"embed"
	"errors"
	"io/fs"
	"net/http"
	"path/filepath"
	"sync"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"content_generator/artifact"
	"content_generator/generator"
)

//go:embed web/index.html
var embeddedStatic embed.FS

// Options tune the HTTP layer; zero values fall back to defaults.
type Options struct {
	Timeout     time.Duration
	CORSOrigins []string
	Metrics     bool
	Logger      logrus.FieldLogger
}

type Server struct {
	agent   *generator.Agent
	writer  *artifact.Writer
	store   *generationStore
	opts    Options
	log     logrus.FieldLogger
	metrics *metrics
	index   []byte
}

// generationStore 只为下载记住已保存的文件，进程退出即丢弃。
type generationStore struct {
	mu          sync.Mutex
	generations map[string]artifact.Artifact
}

func newStore() *generationStore {
	return &generationStore{generations: make(map[string]artifact.Artifact)}
}

func (s *generationStore) set(id string, art artifact.Artifact) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.generations[id] = art
}

func (s *generationStore) get(id string) (artifact.Artifact, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	art, ok := s.generations[id]
	return art, ok
}

func New(agent *generator.Agent, writer *artifact.Writer, opts Options) (*Server, error) {
	if agent == nil {
		return nil, errors.New("generator agent required")
	}
	if writer == nil {
		return nil, errors.New("artifact writer required")
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 60 * time.Second
	}
	if opts.Logger == nil {
		opts.Logger = logrus.StandardLogger()
	}

	index, err := fs.ReadFile(embeddedStatic, "web/index.html")
	if err != nil {
		return nil, err
	}

	s := &Server{
		agent:  agent,
		writer: writer,
		store:  newStore(),
		opts:   opts,
		log:    opts.Logger,
		index:  index,
	}
	if opts.Metrics {
		s.metrics = newMetrics()
	}
	return s, nil
}

func (s *Server) Routes() http.Handler {
	r := gin.New()
	r.Use(gin.Recovery(), s.logMiddleware())
	if len(s.opts.CORSOrigins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins: s.opts.CORSOrigins,
			AllowMethods: []string{http.MethodGet, http.MethodPost},
			AllowHeaders: []string{"Content-Type"},
			MaxAge:       12 * time.Hour,
		}))
	}

	r.GET("/", s.handleIndex)
	r.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	api := r.Group("/api")
	{
		api.GET("/defaults", s.handleDefaults)
		api.POST("/generate", s.handleGenerate)
		api.GET("/generations/:id/download", s.handleDownload)
	}
	if s.metrics != nil {
		r.GET("/metrics", gin.WrapH(s.metrics.handler()))
	}
	return r
}

// --- Handlers ---

type generateReq struct {
	Topic        string `json:"topic"`
	ContentType  string `json:"content_type"`
	SystemPrompt string `json:"system_prompt"`
	HumanPrompt  string `json:"human_prompt"`
}

type generateResp struct {
	ID              string   `json:"id"`
	MainContent     string   `json:"main_content"`
	HTML            string   `json:"html"`
	Tags            []string `json:"tags"`
	FocusKeyphrase  string   `json:"focus_keyphrase"`
	MetaDescription string   `json:"meta_description"`
	ContentFile     string   `json:"content_file"`
	MetadataFile    string   `json:"metadata_file"`
	DownloadURL     string   `json:"download_url"`
}

type errorResp struct {
	Error string `json:"error"`
}

func (s *Server) handleIndex(c *gin.Context) {
	c.Data(http.StatusOK, "text/html; charset=utf-8", s.index)
}

func (s *Server) handleDefaults(c *gin.Context) {
	ct, err := generator.ParseContentType(c.Query("content_type"))
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResp{Error: err.Error()})
		return
	}
	p, err := generator.Defaults(ct)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResp{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, p)
}

func (s *Server) handleGenerate(c *gin.Context) {
	var req generateReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResp{Error: err.Error()})
		return
	}
	genReq := generator.Request{
		Topic:        req.Topic,
		ContentType:  generator.ContentType(req.ContentType),
		SystemPrompt: req.SystemPrompt,
		HumanPrompt:  req.HumanPrompt,
	}.Normalized()

	ctx, cancel := context.WithTimeout(c.Request.Context(), s.opts.Timeout)
	defer cancel()
	start := time.Now()
	res, err := s.agent.Generate(ctx, genReq)
	elapsed := time.Since(start)
	if err != nil {
		code, status := http.StatusBadGateway, statusFailed
		if generator.IsValidation(err) {
			code, status = http.StatusBadRequest, statusInvalid
		}
		s.observe(genReq.ContentType, status, elapsed)
		c.JSON(code, errorResp{Error: err.Error()})
		return
	}

	art, err := s.writer.Save(genReq.Topic, string(genReq.ContentType), res.Raw, res.Tags, res.FocusKeyphrase, res.MetaDescription)
	if err != nil {
		s.observe(genReq.ContentType, statusSaveFailed, elapsed)
		c.JSON(http.StatusInternalServerError, errorResp{Error: err.Error()})
		return
	}
	s.observe(genReq.ContentType, statusOK, elapsed)
	html, err := renderMarkdown(res.MainContent)
	if err != nil {
		c.JSON(http.StatusInternalServerError, errorResp{Error: err.Error()})
		return
	}

	id := uuid.NewString()
	s.store.set(id, art)
	c.JSON(http.StatusOK, generateResp{
		ID:              id,
		MainContent:     res.MainContent,
		HTML:            html,
		Tags:            res.Tags,
		FocusKeyphrase:  res.FocusKeyphrase,
		MetaDescription: res.MetaDescription,
		ContentFile:     filepath.Base(art.ContentPath),
		MetadataFile:    filepath.Base(art.MetadataPath),
		DownloadURL:     "/api/generations/" + id + "/download",
	})
}

func (s *Server) handleDownload(c *gin.Context) {
	art, ok := s.store.get(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, errorResp{Error: "generation not found"})
		return
	}
	c.FileAttachment(art.ContentPath, filepath.Base(art.ContentPath))
}

// --- Helpers ---

// generation_requests_total 的 status 标签
const (
	statusOK         = "ok"
	statusInvalid    = "invalid"
	statusFailed     = "failed"
	statusSaveFailed = "save_failed"
)

// observe counts one generate request. Duration is only recorded when the model answered.
func (s *Server) observe(ct generator.ContentType, status string, elapsed time.Duration) {
	if s.metrics == nil {
		return
	}
	if !ct.Valid() {
		ct = "unknown"
	}
	s.metrics.generations.WithLabelValues(string(ct), status).Inc()
	if status == statusOK || status == statusSaveFailed {
		s.metrics.duration.WithLabelValues(string(ct)).Observe(elapsed.Seconds())
	}
}

func (s *Server) logMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.log.WithFields(logrus.Fields{
			"method":  c.Request.Method,
			"path":    c.FullPath(),
			"status":  c.Writer.Status(),
			"latency": time.Since(start).String(),
		}).Debug("http request")
	}
}
