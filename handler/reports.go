package handler

import (
	"errors"
	"net/http"
	"path"

	"github.com/AnTengye/recscan/service"
	"github.com/gin-gonic/gin"
)

// publicURLer is implemented by sources whose objects can be linked directly.
type publicURLer interface {
	PublicURL(key string) string
}

type ReportHandler struct {
	source          service.ReportSource
	scanner         *service.Scanner
	recommenders    *service.Recommenders
	defaultStrategy string
}

func NewReportHandler(source service.ReportSource, scanner *service.Scanner, recommenders *service.Recommenders, defaultStrategy string) *ReportHandler {
	return &ReportHandler{
		source:          source,
		scanner:         scanner,
		recommenders:    recommenders,
		defaultStrategy: defaultStrategy,
	}
}

// List returns every report PDF held by the configured source
func (h *ReportHandler) List(c *gin.Context) {
	keys, err := h.source.Reports(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to list reports: " + err.Error()})
		return
	}

	linker, canLink := h.source.(publicURLer)
	result := make([]gin.H, len(keys))
	for i, key := range keys {
		item := gin.H{"key": key, "name": path.Base(key)}
		if canLink {
			item["url"] = linker.PublicURL(key)
		}
		result[i] = item
	}

	c.JSON(http.StatusOK, gin.H{
		"source":  h.source.Name(),
		"reports": result,
	})
}

type analyzeRequest struct {
	Key      string `json:"key" binding:"required"`
	Strategy string `json:"strategy"`
}

// Analyze extracts recommendations from a single report
func (h *ReportHandler) Analyze(c *gin.Context) {
	var req analyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}
	if req.Strategy == "" {
		req.Strategy = h.defaultStrategy
	}

	rec, err := h.recommenders.Get(req.Strategy)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ext, err := h.scanner.AnalyzeReport(c.Request.Context(), req.Key, rec)
	if err != nil {
		var ee *service.ExtractionError
		if errors.As(err, &ee) {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": ee.Error(), "stage": ee.Stage})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"key":             req.Key,
		"strategy":        rec.Name(),
		"found":           !ext.Empty(),
		"recommendations": ext.Format(),
		"extraction":      ext,
	})
}
