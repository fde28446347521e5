package service

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
)

// memSource is an in-memory ReportSource keyed by company.
type memSource struct {
	byCompany map[string][]Candidate
	content   map[string]string
	openErr   error
}

func newMemSource() *memSource {
	return &memSource{
		byCompany: make(map[string][]Candidate),
		content:   make(map[string]string),
	}
}

func (m *memSource) add(company, name, text string) {
	key := company + "/FINAL/" + name
	m.byCompany[company] = append(m.byCompany[company], Candidate{Name: name, Key: key})
	m.content[key] = text
}

func (m *memSource) Name() string { return "mem" }

func (m *memSource) Candidates(ctx context.Context, company string) ([]Candidate, error) {
	c := m.byCompany[company]
	if len(c) == 0 {
		return nil, ErrFolderNotFound
	}
	return c, nil
}

func (m *memSource) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	if m.openErr != nil {
		return nil, m.openErr
	}
	text, ok := m.content[key]
	if !ok {
		return nil, errors.New("no such report")
	}
	return io.NopCloser(strings.NewReader(text)), nil
}

func (m *memSource) Reports(ctx context.Context) ([]string, error) {
	var keys []string
	for k := range m.content {
		keys = append(keys, k)
	}
	return keys, nil
}

// plainExtractor treats the stream as already-extracted text.
type plainExtractor struct {
	failOn string
}

func (p plainExtractor) Extract(ctx context.Context, r io.Reader) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	text := string(data)
	if p.failOn != "" && strings.Contains(text, p.failOn) {
		return "", &ExtractionError{Stage: StagePDF, Err: errors.New("malformed PDF: broken xref")}
	}
	return text, nil
}

// scriptedCompleter answers with a fixed response or error and records prompts.
type scriptedCompleter struct {
	mu       sync.Mutex
	response string
	err      error
	requests []CompletionRequest
}

func (s *scriptedCompleter) Name() string { return "scripted" }

func (s *scriptedCompleter) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = append(s.requests, req)
	if s.err != nil {
		return "", s.err
	}
	return s.response, nil
}

func (s *scriptedCompleter) calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.requests)
}
