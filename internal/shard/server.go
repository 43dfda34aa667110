package shard

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"shardkv/internal/api"
	"shardkv/internal/keys"
	"shardkv/internal/storage"
	"shardkv/internal/web"
)

// Server exposes the shard HTTP surface over its local store.
type Server struct {
	name   string
	store  *storage.Store
	logger *slog.Logger
}

// NewServer creates a shard server owning the given store.
func NewServer(name string, store *storage.Store, logger *slog.Logger) *Server {
	return &Server{name: name, store: store, logger: logger}
}

// Router builds the gin engine with the shard route table.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), web.RequestID(), web.AccessLog(s.logger))

	r.POST("/create", s.create)
	r.GET("/read/:table/:key", s.read)
	r.GET("/exists/:table/:key", s.exists)
	r.PUT("/update", s.update)
	r.DELETE("/delete/:table/:key", s.delete)
	r.GET("/healthz", s.healthz)
	return r
}

// compositeKey prefers the key the coordinator attached over recomputing.
func compositeKey(req api.RecordRequest) string {
	if req.CompositeKey != "" {
		return req.CompositeKey
	}
	return keys.Composite(req.Key, req.SortKey)
}

func (s *Server) create(c *gin.Context) {
	var req api.RecordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error(), Code: api.CodeBadRequest})
		return
	}
	if len(req.Value) == 0 {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "value is required", Code: api.CodeBadRequest})
		return
	}

	key := compositeKey(req)
	if err := s.store.Create(req.Table, key, req.Value); err != nil {
		s.writeStoreError(c, err)
		return
	}
	s.logger.Debug("record created",
		slog.String("table", req.Table),
		slog.String("composite_key", key),
	)
	c.JSON(http.StatusOK, gin.H{"message": "Created", "table": req.Table, "key": key})
}

func (s *Server) read(c *gin.Context) {
	key := keys.Composite(c.Param("key"), c.Query("sort_key"))
	value, err := s.store.Read(c.Param("table"), key)
	if err != nil {
		s.writeStoreError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"key": key, "value": value})
}

func (s *Server) exists(c *gin.Context) {
	key := keys.Composite(c.Param("key"), c.Query("sort_key"))
	c.JSON(http.StatusOK, gin.H{"exists": s.store.Exists(c.Param("table"), key)})
}

func (s *Server) update(c *gin.Context) {
	var req api.RecordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error(), Code: api.CodeBadRequest})
		return
	}
	if len(req.Value) == 0 {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "value is required", Code: api.CodeBadRequest})
		return
	}

	key := compositeKey(req)
	if err := s.store.Update(req.Table, key, req.Value); err != nil {
		s.writeStoreError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":   "Updated",
		"table":     req.Table,
		"key":       key,
		"new_value": req.Value,
	})
}

func (s *Server) delete(c *gin.Context) {
	key := keys.Composite(c.Param("key"), c.Query("sort_key"))
	if err := s.store.Delete(c.Param("table"), key); err != nil {
		s.writeStoreError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Deleted", "key": key})
}

func (s *Server) healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "shard": s.name})
}

func (s *Server) writeStoreError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, storage.ErrRecordNotFound):
		c.JSON(http.StatusNotFound, api.ErrorResponse{Error: err.Error(), Code: api.CodeRecordNotFound})
	case errors.Is(err, storage.ErrRecordExists):
		c.JSON(http.StatusConflict, api.ErrorResponse{Error: err.Error(), Code: api.CodeRecordExists})
	default:
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: err.Error(), Code: api.CodeInternal})
	}
}
