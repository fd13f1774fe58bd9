package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/nans-shop/apiserver/internal/logger"
	"github.com/nans-shop/apiserver/internal/mq"
	"github.com/nans-shop/apiserver/internal/storage"
	"github.com/nans-shop/apiserver/internal/store"
	"github.com/nans-shop/apiserver/types"
)

// CatalogEventsChannel is the broker channel carrying catalog changes.
const CatalogEventsChannel = "catalog-events"

// ErrStorageDisabled is returned for image operations when no object
// storage backend is configured.
var ErrStorageDisabled = errors.New("image storage is not configured")

// CatalogEvent describes a product mutation published to the broker.
type CatalogEvent struct {
	Type      string    `json:"type"`
	ProductID string    `json:"product_id"`
	At        time.Time `json:"at"`
}

// ProductRepository defines persistence operations for products.
type ProductRepository interface {
	List(ctx context.Context, offset, limit int) ([]types.Product, int, error)
	Get(ctx context.Context, id string) (types.Product, error)
	Create(ctx context.Context, product types.Product) (types.Product, error)
	Update(ctx context.Context, product types.Product) (types.Product, error)
	SetImageKey(ctx context.Context, id, imageKey string) error
	Delete(ctx context.Context, id string) error
}

// ProductService encapsulates catalog use-cases. Storage and events are
// optional collaborators; a nil value disables the concern.
type ProductService struct {
	repo    ProductRepository
	storage *storage.Storage
	events  *mq.MQ
}

func NewProductService(repo ProductRepository, storage *storage.Storage, events *mq.MQ) *ProductService {
	return &ProductService{repo: repo, storage: storage, events: events}
}

func (s *ProductService) List(ctx context.Context, offset, limit int) ([]types.Product, int, error) {
	if limit <= 0 {
		limit = 10
	}
	if limit > 100 {
		limit = 100
	}
	return s.repo.List(ctx, offset, limit)
}

func (s *ProductService) Get(ctx context.Context, id string) (types.Product, error) {
	return s.repo.Get(ctx, id)
}

func (s *ProductService) Create(ctx context.Context, product types.Product) (types.Product, error) {
	created, err := s.repo.Create(ctx, product)
	if err != nil {
		return types.Product{}, err
	}
	s.publishEvent(ctx, "product.created", created.ID)
	return created, nil
}

func (s *ProductService) Update(ctx context.Context, product types.Product) (types.Product, error) {
	updated, err := s.repo.Update(ctx, product)
	if err != nil {
		return types.Product{}, err
	}
	s.publishEvent(ctx, "product.updated", updated.ID)
	return updated, nil
}

func (s *ProductService) Delete(ctx context.Context, id string) error {
	product, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	// Best effort: the record is gone either way.
	if s.storage != nil && product.ImageKey != "" {
		if err := s.storage.Delete(ctx, product.ImageKey); err != nil {
			logger.Log.Warn("failed to delete product image", "key", product.ImageKey, "error", err)
		}
	}
	s.publishEvent(ctx, "product.deleted", id)
	return nil
}

// AttachImage uploads the image bytes to object storage and records the
// resulting key on the product.
func (s *ProductService) AttachImage(ctx context.Context, id, filename string, data []byte, contentType string) (string, error) {
	if s.storage == nil {
		return "", ErrStorageDisabled
	}

	product, err := s.repo.Get(ctx, id)
	if err != nil {
		return "", err
	}

	key := imageKey(id, filename)
	if err := s.storage.Put(ctx, key, bytes.NewReader(data), int64(len(data)), contentType); err != nil {
		return "", err
	}
	if err := s.repo.SetImageKey(ctx, id, key); err != nil {
		return "", err
	}

	if product.ImageKey != "" && product.ImageKey != key {
		if err := s.storage.Delete(ctx, product.ImageKey); err != nil {
			logger.Log.Warn("failed to delete replaced product image", "key", product.ImageKey, "error", err)
		}
	}
	s.publishEvent(ctx, "product.updated", id)
	return key, nil
}

// OpenImage opens a reader over the product's stored image. A product
// without an image reports store.ErrNotFound.
func (s *ProductService) OpenImage(ctx context.Context, id string) (io.ReadCloser, error) {
	if s.storage == nil {
		return nil, ErrStorageDisabled
	}

	product, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if product.ImageKey == "" {
		return nil, store.ErrNotFound
	}
	return s.storage.Get(ctx, product.ImageKey)
}

func (s *ProductService) publishEvent(ctx context.Context, eventType, productID string) {
	if s.events == nil {
		return
	}

	event := CatalogEvent{Type: eventType, ProductID: productID, At: time.Now().UTC()}
	data, err := json.Marshal(event)
	if err != nil {
		logger.Log.Warn("failed to encode catalog event", "type", eventType, "error", err)
		return
	}
	attrs := map[string]string{"type": eventType}
	if _, err := s.events.Publish(ctx, CatalogEventsChannel, data, attrs); err != nil {
		logger.Log.Warn("failed to publish catalog event", "type", eventType, "product_id", productID, "error", err)
	}
}

func imageKey(productID, filename string) string {
	ext := strings.ToLower(path.Ext(filename))
	return fmt.Sprintf("products/%s/%s%s", productID, uuid.NewString(), ext)
}
