package service

import (
	"context"
	"errors"
	"time"

	"github.com/AnTengye/recscan/model"
	"github.com/AnTengye/recscan/pkg/logger"
	"golang.org/x/sync/errgroup"
)

// Scanner runs project rows through resolve, read, extract and recommend.
type Scanner struct {
	resolver  *Resolver
	source    ReportSource
	extractor TextExtractor
	workers   int
	metrics   *Metrics
}

func NewScanner(source ReportSource, resolver *Resolver, extractor TextExtractor, workers int, metrics *Metrics) *Scanner {
	if workers < 1 {
		workers = 1
	}
	return &Scanner{
		resolver:  resolver,
		source:    source,
		extractor: extractor,
		workers:   workers,
		metrics:   metrics,
	}
}

// Run returns exactly one record per row, in row order. Row failures become
// statuses; nothing aborts the batch. With more than one worker rows are
// processed concurrently and written back into their own slot.
func (s *Scanner) Run(ctx context.Context, rows []model.ProjectRow, rec Recommender) model.ResultTable {
	table := make(model.ResultTable, len(rows))

	if s.workers == 1 {
		for i, row := range rows {
			table[i] = s.scanRow(ctx, row, rec)
		}
		return table
	}

	var g errgroup.Group
	g.SetLimit(s.workers)
	for i, row := range rows {
		g.Go(func() error {
			table[i] = s.scanRow(ctx, row, rec)
			return nil
		})
	}
	_ = g.Wait()
	return table
}

func (s *Scanner) scanRow(ctx context.Context, row model.ProjectRow, rec Recommender) model.ResultRecord {
	start := time.Now()
	ctx = logger.WithCompany(ctx, row.Company)

	record := model.ResultRecord{
		Company:  row.Company,
		FileName: row.FileName,
		Line:     row.Line,
	}
	s.fill(ctx, &record, rec)
	record.StatusLabel = record.Status.Label()

	elapsed := time.Since(start)
	s.metrics.ObserveRow(rec.Name(), record.Status, elapsed)

	args := []any{
		"file", row.FileName,
		"status", record.Status,
		"matched", record.Matched,
		"score", record.Score,
		"duration_ms", elapsed.Milliseconds(),
	}
	switch record.Status {
	case model.StatusFound, model.StatusNoRecommendations:
		logger.Info(ctx, "row scanned", args...)
	default:
		logger.Warn(ctx, "row scanned", append(args, "detail", record.Detail)...)
	}
	return record
}

func (s *Scanner) fill(ctx context.Context, record *model.ResultRecord, rec Recommender) {
	if err := ctx.Err(); err != nil {
		failRecord(record, &ExtractionError{Stage: StageSource, Err: err})
		return
	}

	res, err := s.resolver.Resolve(ctx, record.Company, record.FileName)
	switch {
	case errors.Is(err, ErrFolderNotFound):
		record.Status = model.StatusFolderNotFound
		record.Recommendations = model.Placeholder
		return
	case errors.Is(err, ErrFileNotFound):
		record.Status = model.StatusFileNotFound
		record.Recommendations = model.Placeholder
		return
	case err != nil:
		failRecord(record, &ExtractionError{Stage: StageSource, Err: err})
		return
	}
	record.Matched = res.Key
	record.Score = res.Score

	extraction, err := s.analyze(ctx, res.Key, rec)
	if err != nil {
		failRecord(record, err)
		return
	}

	record.Recommendations = extraction.Format()
	if extraction.Empty() {
		record.Status = model.StatusNoRecommendations
	} else {
		record.Status = model.StatusFound
	}
}

// failRecord marks a row as failed and keeps the error message for display.
func failRecord(record *model.ResultRecord, err error) {
	record.Status = model.StatusExtractionFailed
	record.Detail = err.Error()
	record.Recommendations = err.Error()
}

// AnalyzeReport extracts recommendations from the report stored under key.
func (s *Scanner) AnalyzeReport(ctx context.Context, key string, rec Recommender) (model.Extraction, error) {
	return s.analyze(ctx, key, rec)
}

func (s *Scanner) analyze(ctx context.Context, key string, rec Recommender) (model.Extraction, error) {
	rc, err := s.source.Open(ctx, key)
	if err != nil {
		return model.Extraction{}, &ExtractionError{Stage: StageSource, Key: key, Err: err}
	}
	defer rc.Close()

	text, err := s.extractor.Extract(ctx, rc)
	if err != nil {
		var ee *ExtractionError
		if errors.As(err, &ee) && ee.Key == "" {
			ee.Key = key
		}
		return model.Extraction{}, err
	}

	extraction, err := rec.Extract(ctx, text)
	if err != nil {
		var ee *ExtractionError
		if errors.As(err, &ee) && ee.Key == "" {
			ee.Key = key
		}
		return extraction, err
	}
	return extraction, nil
}
