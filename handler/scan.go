package handler

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/AnTengye/recscan/config"
	"github.com/AnTengye/recscan/model"
	"github.com/AnTengye/recscan/pkg/logger"
	"github.com/AnTengye/recscan/service"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type ScanHandler struct {
	reports         *config.ReportsConfig
	defaultStrategy string
	scanner         *service.Scanner
	recommenders    *service.Recommenders
	store           *service.JobStore
}

func NewScanHandler(cfg *config.Config, scanner *service.Scanner, recommenders *service.Recommenders, store *service.JobStore) *ScanHandler {
	return &ScanHandler{
		reports:         &cfg.Reports,
		defaultStrategy: cfg.Extraction.Strategy,
		scanner:         scanner,
		recommenders:    recommenders,
		store:           store,
	}
}

// scanInput is everything a background scan needs from the upload.
type scanInput struct {
	rows      []model.ProjectRow
	raw       [][]string
	header    service.HeaderIndex
	sheet     string
	rec       service.Recommender
	merge     bool
	requestID string
}

// Create validates the upload, registers a job and scans it in the background.
func (h *ScanHandler) Create(c *gin.Context) {
	wb, filename, err := readUpload(c)
	if err != nil {
		c.JSON(uploadStatus(err), gin.H{"error": err.Error()})
		return
	}

	sheet, raw, header, err := sheetRows(wb, c.PostForm("sheet"), h.reports.HeaderMarker, h.reports.HeaderScanRows)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	strategy := c.DefaultPostForm("strategy", h.defaultStrategy)
	rec, err := h.recommenders.Get(strategy)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	merge := false
	if v := c.PostForm("merge"); v != "" {
		if merge, err = strconv.ParseBool(v); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "merge must be a boolean"})
			return
		}
	}

	company := c.PostForm("company")
	rows, err := service.ProjectRows(raw, header,
		c.DefaultPostForm("company_column", h.reports.CompanyColumn),
		c.DefaultPostForm("file_column", h.reports.FileColumn),
		company,
	)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	now := time.Now()
	job := &model.ScanJob{
		ID:        uuid.New().String(),
		Workbook:  filename,
		Sheet:     sheet,
		Strategy:  strategy,
		Company:   company,
		Merge:     merge,
		Status:    model.JobPending,
		Rows:      len(rows),
		CreatedAt: now,
		UpdatedAt: now,
	}
	h.store.Save(job)

	go h.runScan(job.ID, scanInput{
		rows:      rows,
		raw:       raw,
		header:    header,
		sheet:     sheet,
		rec:       rec,
		merge:     merge,
		requestID: c.GetString("request_id"),
	})

	c.JSON(http.StatusAccepted, gin.H{
		"id":       job.ID,
		"status":   job.Status,
		"rows":     job.Rows,
		"strategy": strategy,
	})
}

// runScan processes a job outside the request lifecycle.
func (h *ScanHandler) runScan(id string, in scanInput) {
	ctx := logger.WithJob(context.Background(), id)
	if in.requestID != "" {
		ctx = logger.WithRequestID(ctx, in.requestID)
	}
	start := time.Now()
	logger.Info(ctx, "scan started", "rows", len(in.rows), "strategy", in.rec.Name(), "merge", in.merge)

	h.store.UpdateStatus(id, model.JobRunning, "")

	table := h.scanner.Run(ctx, in.rows, in.rec)

	var (
		artifact []byte
		err      error
	)
	if in.merge {
		artifact, err = service.MergeResults(in.raw, in.header, in.sheet, table)
	} else {
		artifact, err = service.WriteResults(table)
	}
	if err != nil {
		logger.Error(ctx, "failed to export results", "error", err)
		h.store.UpdateStatus(id, model.JobFailed, "Failed to export results: "+err.Error())
		return
	}

	h.store.Complete(id, table, artifact)

	counts := table.Counts()
	logger.Info(ctx, "scan completed",
		"duration_ms", time.Since(start).Milliseconds(),
		"found", counts[model.StatusFound],
		"no_recommendations", counts[model.StatusNoRecommendations],
		"file_not_found", counts[model.StatusFileNotFound],
		"folder_not_found", counts[model.StatusFolderNotFound],
		"extraction_failed", counts[model.StatusExtractionFailed],
	)
}

// List returns all scan jobs without their results
func (h *ScanHandler) List(c *gin.Context) {
	jobs := h.store.List()

	result := make([]gin.H, len(jobs))
	for i, job := range jobs {
		result[i] = gin.H{
			"id":         job.ID,
			"workbook":   job.Workbook,
			"sheet":      job.Sheet,
			"strategy":   job.Strategy,
			"status":     job.Status,
			"rows":       job.Rows,
			"error_msg":  job.ErrorMsg,
			"created_at": job.CreatedAt.Format(time.RFC3339),
			"updated_at": job.UpdatedAt.Format(time.RFC3339),
		}
	}

	c.JSON(http.StatusOK, gin.H{"scans": result})
}

// Get returns a single job with its per-row results and status counts
func (h *ScanHandler) Get(c *gin.Context) {
	job := h.store.Get(c.Param("id"))
	if job == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Scan not found"})
		return
	}

	counts := make(map[string]int)
	for status, n := range job.Results.Counts() {
		counts[string(status)] = n
	}

	c.JSON(http.StatusOK, gin.H{
		"scan":   job,
		"counts": counts,
	})
}

// DownloadName is the attachment name of a finished scan's workbook.
func DownloadName(job *model.ScanJob) string {
	switch {
	case job.Merge:
		return "arquivo_atualizado.xlsx"
	case job.Strategy == config.StrategyModel:
		return "resultado_recomendacoes_ia.xlsx"
	default:
		return "resultado_recomendacoes.xlsx"
	}
}

// Download streams the exported workbook of a completed scan
func (h *ScanHandler) Download(c *gin.Context) {
	job := h.store.Get(c.Param("id"))
	if job == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Scan not found"})
		return
	}
	if job.Status != model.JobCompleted {
		c.JSON(http.StatusConflict, gin.H{"error": "Scan is not completed", "status": job.Status})
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, DownloadName(job)))
	c.Data(http.StatusOK, xlsxContentType, job.Artifact)
}

// Delete removes a scan job
func (h *ScanHandler) Delete(c *gin.Context) {
	if !h.store.Delete(c.Param("id")) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Scan not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Scan deleted"})
}
