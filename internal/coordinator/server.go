package coordinator

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"shardkv/internal/api"
	"shardkv/internal/catalog"
	"shardkv/internal/metrics"
	"shardkv/internal/registry"
	"shardkv/internal/ring"
	"shardkv/internal/web"
)

// Server exposes the coordinator HTTP surface.
type Server struct {
	co      *Coordinator
	catalog *catalog.Catalog
	reg     *registry.Registry
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// NewServer wires the HTTP layer over a coordinator and its collaborators.
func NewServer(co *Coordinator, cat *catalog.Catalog, reg *registry.Registry, m *metrics.Metrics, logger *slog.Logger) *Server {
	return &Server{co: co, catalog: cat, reg: reg, metrics: m, logger: logger}
}

// Router builds the gin engine with the full route table.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), web.RequestID(), web.AccessLog(s.logger), s.metrics.GinMiddleware())

	r.POST("/register_table", s.registerTable)
	r.GET("/tables", s.listTables)
	r.POST("/register_shard", s.registerShard)
	r.GET("/shards", s.listShards)

	r.POST("/create", s.create)
	r.GET("/read/:table/:key", s.read)
	r.GET("/exists/:table/:key", s.exists)
	r.PUT("/update", s.update)
	r.DELETE("/delete/:table/:key", s.delete)

	r.GET("/healthz", s.healthz)
	r.GET("/metrics", gin.WrapH(s.metrics.Handler()))
	return r
}

func (s *Server) registerTable(c *gin.Context) {
	var req api.TableRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.badRequest(c, err)
		return
	}

	err := s.catalog.Register(catalog.Table{
		Name:         req.Name,
		PartitionKey: req.PartitionKeyName,
		SortKey:      req.SortKeyName,
	})
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Table registered", "table": req.Name})
}

func (s *Server) listTables(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"tables": s.catalog.Names()})
}

func (s *Server) registerShard(c *gin.Context) {
	var req api.ShardRegistration
	if err := c.ShouldBindJSON(&req); err != nil {
		s.badRequest(c, err)
		return
	}

	if err := s.reg.Register(req.Name, req.URL); err != nil {
		s.writeError(c, err)
		return
	}
	s.metrics.SetShardCount(s.reg.Count())
	s.logger.Info("shard registered", slog.String("shard", req.Name), slog.String("url", req.URL))
	c.JSON(http.StatusOK, gin.H{"message": fmt.Sprintf("Shard %s registered", req.Name), "url": req.URL})
}

func (s *Server) listShards(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"shards": s.reg.List()})
}

func (s *Server) create(c *gin.Context) {
	var req api.RecordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.badRequest(c, err)
		return
	}

	routed, err := s.co.Create(c.Request.Context(), Record{
		Table:   req.Table,
		Key:     req.Key,
		SortKey: req.SortKey,
		Value:   req.Value,
	})
	if err != nil {
		s.writeError(c, err)
		return
	}
	s.metrics.ObserveRouted("create", routed.TargetShard)
	s.writeRouted(c, routed)
}

func (s *Server) read(c *gin.Context) {
	routed, err := s.co.Read(c.Request.Context(), c.Param("table"), c.Param("key"), c.Query("sort_key"))
	if err != nil {
		s.writeError(c, err)
		return
	}
	s.metrics.ObserveRouted("read", routed.TargetShard)
	s.writeRouted(c, routed)
}

func (s *Server) exists(c *gin.Context) {
	routed, err := s.co.Exists(c.Request.Context(), c.Param("table"), c.Param("key"), c.Query("sort_key"))
	if err != nil {
		s.writeError(c, err)
		return
	}
	s.metrics.ObserveRouted("exists", routed.TargetShard)
	s.writeRouted(c, routed)
}

func (s *Server) update(c *gin.Context) {
	var req api.RecordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.badRequest(c, err)
		return
	}

	routed, err := s.co.Update(c.Request.Context(), Record{
		Table:   req.Table,
		Key:     req.Key,
		SortKey: req.SortKey,
		Value:   req.Value,
	})
	if err != nil {
		s.writeError(c, err)
		return
	}
	s.metrics.ObserveRouted("update", routed.TargetShard)
	s.writeRouted(c, routed)
}

func (s *Server) delete(c *gin.Context) {
	routed, err := s.co.Delete(c.Request.Context(), c.Param("table"), c.Param("key"), c.Query("sort_key"))
	if err != nil {
		s.writeError(c, err)
		return
	}
	s.metrics.ObserveRouted("delete", routed.TargetShard)
	s.writeRouted(c, routed)
}

func (s *Server) healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// writeRouted relays the shard's status verbatim, wrapped in the routing
// envelope, for successes and shard rejections alike.
func (s *Server) writeRouted(c *gin.Context, routed Routed) {
	c.JSON(routed.Status, api.RoutedResponse{
		TargetShard: routed.TargetShard,
		Response:    routed.Response,
	})
}

func (s *Server) badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error(), Code: api.CodeBadRequest})
}

// writeError maps routing failures to status codes. No shards registered
// is systemic, not a client mistake, so it gets 503 rather than a 4xx; an
// unreachable shard gets 502 to stay distinct from an application-level
// rejection, which never reaches here.
func (s *Server) writeError(c *gin.Context, err error) {
	var upstream *UpstreamError
	switch {
	case errors.Is(err, catalog.ErrTableNotFound):
		c.JSON(http.StatusNotFound, api.ErrorResponse{Error: err.Error(), Code: api.CodeTableNotFound})
	case errors.Is(err, catalog.ErrTableExists):
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error(), Code: api.CodeTableExists})
	case errors.Is(err, registry.ErrShardRegistered):
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error(), Code: api.CodeShardRegistered})
	case errors.Is(err, ring.ErrEmpty):
		c.JSON(http.StatusServiceUnavailable, api.ErrorResponse{Error: err.Error(), Code: api.CodeNoShardsAvailable})
	case errors.Is(err, catalog.ErrInvalidTable), errors.Is(err, registry.ErrInvalidShard):
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error(), Code: api.CodeBadRequest})
	case errors.As(err, &upstream):
		s.logger.Error("shard unreachable",
			slog.String("shard", upstream.Shard),
			slog.String("url", upstream.URL),
			slog.String("error", upstream.Err.Error()),
		)
		c.JSON(http.StatusBadGateway, api.ErrorResponse{Error: upstream.Error(), Code: api.CodeShardUnreachable})
	default:
		s.logger.Error("internal error", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: err.Error(), Code: api.CodeInternal})
	}
}
