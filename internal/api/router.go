// Package api exposes the dashboard service over HTTP.
package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/KaramelBytes/edudanger-cli/internal/dashboard"
	"github.com/KaramelBytes/edudanger-cli/internal/dataset"
	"github.com/KaramelBytes/edudanger-cli/internal/geo"
	"github.com/KaramelBytes/edudanger-cli/internal/logging"
)

// RequestIDHeader carries the per-request correlation id.
const RequestIDHeader = "X-Request-ID"

// Explorer is the part of the dashboard service the API needs.
type Explorer interface {
	Explore(ctx context.Context, req dashboard.Request) (*dashboard.Result, error)
	Options(ctx context.Context) (*dashboard.Options, error)
	Invalidate()
}

type handler struct {
	svc Explorer
	log zerolog.Logger
}

// SetupRouter builds the gin engine serving the dashboard API.
func SetupRouter(svc Explorer, log zerolog.Logger) *gin.Engine {
	h := &handler{svc: svc, log: logging.Component(log, "api")}

	r := gin.New()
	r.Use(gin.Recovery(), requestID(), h.accessLog())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api")
	{
		api.GET("/options", h.options)
		api.GET("/incidents", h.incidents)
		api.GET("/summary", h.summary)
		api.GET("/map", h.geojson)
		api.POST("/cache/invalidate", h.invalidate)
	}
	return r
}

func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set("request_id", id)
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}

func (h *handler) accessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		ev := h.log.Info()
		if c.Writer.Status() >= http.StatusInternalServerError {
			ev = h.log.Error()
		}
		ev.Str("request_id", c.GetString("request_id")).
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("elapsed", time.Since(start)).
			Msg("request")
	}
}

func (h *handler) options(c *gin.Context) {
	o, err := h.svc.Options(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, o)
}

func (h *handler) incidents(c *gin.Context) {
	res, ok := h.explore(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"count":      res.Dataset.Len(),
		"clustered":  res.Clustered,
		"k":          res.K,
		"run_id":     res.RunID,
		"silhouette": res.Score,
		"warnings":   res.Warnings,
		"incidents":  res.Dataset.Incidents(),
	})
}

func (h *handler) summary(c *gin.Context) {
	res, ok := h.explore(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, res.Summary())
}

func (h *handler) geojson(c *gin.Context) {
	res, ok := h.explore(c)
	if !ok {
		return
	}
	b, err := geo.FeatureCollection(res.Dataset).MarshalJSON()
	if err != nil {
		h.fail(c, err)
		return
	}
	for _, w := range res.Warnings {
		c.Writer.Header().Add("X-Warning", w)
	}
	c.Data(http.StatusOK, "application/geo+json", b)
}

func (h *handler) invalidate(c *gin.Context) {
	h.svc.Invalidate()
	c.JSON(http.StatusOK, gin.H{"message": "dataset cache invalidated"})
}

func (h *handler) explore(c *gin.Context) (*dashboard.Result, bool) {
	req, err := parseRequest(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid query parameters", "details": err.Error()})
		return nil, false
	}
	res, err := h.svc.Explore(c.Request.Context(), req)
	if err != nil {
		h.fail(c, err)
		return nil, false
	}
	return res, true
}

// fail maps service errors onto status codes.
func (h *handler) fail(c *gin.Context, err error) {
	status, msg := http.StatusInternalServerError, "Failed to evaluate request"
	var unavailable *dataset.DataUnavailableError
	var schema *dataset.SchemaError
	switch {
	case errors.Is(err, dashboard.ErrInvalidRequest):
		status, msg = http.StatusBadRequest, "Invalid request"
	case errors.As(err, &unavailable):
		status, msg = http.StatusServiceUnavailable, "Incident data unavailable"
	case errors.As(err, &schema):
		msg = "Incident data has an unexpected layout"
	}
	if status >= http.StatusInternalServerError {
		h.log.Error().Err(err).Str("request_id", c.GetString("request_id")).Msg(msg)
	}
	c.JSON(status, gin.H{"error": msg, "details": err.Error()})
}

func parseRequest(c *gin.Context) (dashboard.Request, error) {
	req := dashboard.Request{
		Countries:    c.QueryArray("country"),
		Perpetrators: c.QueryArray("perpetrator"),
	}
	var err error
	if req.YearMin, err = intParam(c, "year_min"); err != nil {
		return req, err
	}
	if req.YearMax, err = intParam(c, "year_max"); err != nil {
		return req, err
	}
	if req.K, err = intParam(c, "k"); err != nil {
		return req, err
	}
	if v := c.Query("cluster"); v != "" {
		if req.Cluster, err = strconv.ParseBool(v); err != nil {
			return req, errors.New("cluster must be true or false")
		}
	}
	return req, nil
}

func intParam(c *gin.Context, name string) (int, error) {
	v := c.Query(name)
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, errors.New(name + " must be a non-negative integer")
	}
	return n, nil
}
