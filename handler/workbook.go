package handler

import (
	"net/http"

	"github.com/AnTengye/recscan/config"
	"github.com/AnTengye/recscan/service"
	"github.com/gin-gonic/gin"
)

type WorkbookHandler struct {
	reports *config.ReportsConfig
}

func NewWorkbookHandler(reports *config.ReportsConfig) *WorkbookHandler {
	return &WorkbookHandler{reports: reports}
}

// Inspect describes an uploaded workbook: its sheets, the header row of the
// selected sheet and the companies listed under it.
func (h *WorkbookHandler) Inspect(c *gin.Context) {
	wb, _, err := readUpload(c)
	if err != nil {
		c.JSON(uploadStatus(err), gin.H{"error": err.Error()})
		return
	}

	sheet, rows, header, err := sheetRows(wb, c.PostForm("sheet"), h.reports.HeaderMarker, h.reports.HeaderScanRows)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "sheets": wb.Sheets()})
		return
	}

	companyCol := c.DefaultPostForm("company_column", h.reports.CompanyColumn)

	c.JSON(http.StatusOK, gin.H{
		"sheets":     wb.Sheets(),
		"sheet":      sheet,
		"header_row": header.Row,
		"columns":    header.Columns,
		"companies":  service.Companies(rows, header, companyCol),
	})
}
