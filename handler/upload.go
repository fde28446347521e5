package handler

import (
	"errors"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/AnTengye/recscan/service"
	"github.com/gin-gonic/gin"
)

var (
	errNoFile      = errors.New("no file provided")
	errNotWorkbook = errors.New("only .xlsx workbooks are allowed")
	errTooLarge    = errors.New("workbook exceeds the upload size limit")
)

// uploadStatus maps a readUpload error to its HTTP status.
func uploadStatus(err error) int {
	if errors.Is(err, errTooLarge) {
		return http.StatusRequestEntityTooLarge
	}
	return http.StatusBadRequest
}

// readUpload opens the workbook sent in the "file" form field.
func readUpload(c *gin.Context) (*service.Workbook, string, error) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return nil, "", errTooLarge
		}
		return nil, "", errNoFile
	}
	defer file.Close()

	if strings.ToLower(filepath.Ext(header.Filename)) != ".xlsx" {
		return nil, "", errNotWorkbook
	}

	wb, err := service.OpenWorkbook(file)
	if err != nil {
		return nil, "", err
	}
	return wb, header.Filename, nil
}

// sheetRows picks the requested sheet (or the first) and locates its header row.
func sheetRows(wb *service.Workbook, sheet, marker string, maxScan int) (string, [][]string, service.HeaderIndex, error) {
	name, rows, err := wb.Rows(sheet)
	if err != nil {
		return "", nil, service.HeaderIndex{}, err
	}
	header, ok := service.LocateHeader(rows, marker, maxScan)
	if !ok {
		return name, rows, service.HeaderIndex{}, service.ErrHeaderNotFound
	}
	return name, rows, header, nil
}
