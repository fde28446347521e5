package service

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/AnTengye/recscan/config"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
)

// AzureSource serves reports from an Azure Blob Storage container identified by
// a connection string. The container is a flat namespace of blob names.
type AzureSource struct {
	client    *azblob.Client
	container string
	prefix    string
}

func NewAzureSource(cfg *config.AzureConfig) (*AzureSource, error) {
	if cfg.ConnectionString == "" {
		return nil, errors.New("azure connection string is empty")
	}
	client, err := azblob.NewClientFromConnectionString(cfg.ConnectionString, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create azure blob client: %w", err)
	}
	return &AzureSource{client: client, container: cfg.Container, prefix: cfg.Prefix}, nil
}

func (s *AzureSource) Name() string { return "azure" }

func (s *AzureSource) listKeys(ctx context.Context) ([]string, error) {
	var opts *azblob.ListBlobsFlatOptions
	if s.prefix != "" {
		prefix := s.prefix
		opts = &azblob.ListBlobsFlatOptions{Prefix: &prefix}
	}

	var keys []string
	pager := s.client.NewListBlobsFlatPager(s.container, opts)
	for pager.More() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list blobs: %w", err)
		}
		for _, item := range page.Segment.BlobItems {
			if item.Name != nil {
				keys = append(keys, *item.Name)
			}
		}
	}
	return keys, nil
}

func (s *AzureSource) Candidates(ctx context.Context, company string) ([]Candidate, error) {
	keys, err := s.listKeys(ctx)
	if err != nil {
		return nil, err
	}
	return blobCandidates(keys)
}

func (s *AzureSource) Reports(ctx context.Context) ([]string, error) {
	keys, err := s.listKeys(ctx)
	if err != nil {
		return nil, err
	}
	return filterPDFKeys(keys), nil
}

func (s *AzureSource) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	resp, err := s.client.DownloadStream(ctx, s.container, key, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to download blob: %w", err)
	}
	return resp.Body, nil
}
