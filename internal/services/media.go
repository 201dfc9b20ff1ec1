package services

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/Monetiqai/Monetiq-sub003/internal/clients/openai"
	"github.com/Monetiqai/Monetiq-sub003/internal/platform/dbctx"
	"github.com/Monetiqai/Monetiq-sub003/internal/platform/gcp"
)

type RenderRequest struct {
	Model       string
	Prompt      string
	AspectRatio string
	References  []RenderedImage
}

type RenderedImage struct {
	Name     string
	Bytes    []byte
	MimeType string
}

// MediaProvider renders one shot. Implementations make a single attempt.
type MediaProvider interface {
	RenderShot(ctx context.Context, req RenderRequest) (RenderedImage, error)
}

type ObjectKind string

const (
	ObjectKindShot       ObjectKind = "shot"
	ObjectKindStoryboard ObjectKind = "storyboard"
)

type StoredObject struct {
	URL string
	Key string
}

type MediaStore interface {
	Store(ctx context.Context, kind ObjectKind, key string, body []byte) (StoredObject, error)
	Open(ctx context.Context, kind ObjectKind, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, kind ObjectKind, key string) error
}

type openAIMediaProvider struct {
	client openai.Client
}

func NewOpenAIMediaProvider(client openai.Client) MediaProvider {
	return &openAIMediaProvider{client: client}
}

func (p *openAIMediaProvider) RenderShot(ctx context.Context, req RenderRequest) (RenderedImage, error) {
	refs := make([]openai.ReferenceImage, 0, len(req.References))
	for _, r := range req.References {
		refs = append(refs, openai.ReferenceImage{Name: r.Name, Bytes: r.Bytes, MimeType: r.MimeType})
	}
	out, err := p.client.GenerateImage(ctx, openai.ImageRequest{
		Model:       req.Model,
		Prompt:      req.Prompt,
		AspectRatio: req.AspectRatio,
		References:  refs,
	})
	if err != nil {
		return RenderedImage{}, err
	}
	return RenderedImage{Bytes: out.Bytes, MimeType: out.MimeType}, nil
}

type bucketMediaStore struct {
	bucket gcp.BucketService
}

func NewBucketMediaStore(bucket gcp.BucketService) MediaStore {
	return &bucketMediaStore{bucket: bucket}
}

func bucketCategory(kind ObjectKind) (gcp.BucketCategory, error) {
	switch kind {
	case ObjectKindShot:
		return gcp.BucketCategoryAdShots, nil
	case ObjectKindStoryboard:
		return gcp.BucketCategoryStoryboard, nil
	default:
		return "", fmt.Errorf("unknown object kind %q", kind)
	}
}

func (s *bucketMediaStore) Store(ctx context.Context, kind ObjectKind, key string, body []byte) (StoredObject, error) {
	cat, err := bucketCategory(kind)
	if err != nil {
		return StoredObject{}, err
	}
	if err := s.bucket.UploadFile(dbctx.New(ctx), cat, key, bytes.NewReader(body)); err != nil {
		return StoredObject{}, err
	}
	return StoredObject{URL: s.bucket.GetPublicURL(cat, key), Key: key}, nil
}

func (s *bucketMediaStore) Open(ctx context.Context, kind ObjectKind, key string) (io.ReadCloser, error) {
	cat, err := bucketCategory(kind)
	if err != nil {
		return nil, err
	}
	return s.bucket.DownloadFile(ctx, cat, key)
}

func (s *bucketMediaStore) Delete(ctx context.Context, kind ObjectKind, key string) error {
	cat, err := bucketCategory(kind)
	if err != nil {
		return err
	}
	return s.bucket.DeleteFile(dbctx.New(ctx), cat, key)
}
