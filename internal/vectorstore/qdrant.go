package vectorstore

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"docquery/internal/contextutil"
	"docquery/internal/errs"
)

const (
	// listPageSize is the scroll page size for key listings.
	listPageSize = 256

	// recreateSettleDelay is how long deletion is given to settle before the
	// collection is recreated during dimension reconciliation.
	recreateSettleDelay = 2 * time.Second

	// readyPollInterval / readyPollAttempts bound the wait for a freshly
	// created collection to start serving traffic.
	readyPollInterval = 500 * time.Millisecond
	readyPollAttempts = 120
)

// QdrantIndex implements VectorIndex against a Qdrant deployment.
//
// Record keys are arbitrary strings, while Qdrant point IDs must be UUIDs, so
// each key is mapped to a deterministic SHA1-derived UUID and the original key
// travels in the payload. Upserting the same key therefore always lands on the
// same point.
type QdrantIndex struct {
	client     *qdrant.Client
	collection string
	dimension  int
}

// NewQdrantIndex creates a Qdrant-backed index gateway.
// urlStr should be in the format "http://host:port" (e.g. "http://localhost:6333");
// the gRPC port is derived from the HTTP port. collection is the default
// collection name used when EnsureCollection is called without one.
func NewQdrantIndex(urlStr, collection string, dimension int) (*QdrantIndex, error) {
	parsedURL, err := url.Parse(urlStr)
	if err != nil {
		return nil, fmt.Errorf("invalid Qdrant URL: %w", err)
	}

	host := parsedURL.Hostname()
	if host == "" {
		host = "localhost"
	}

	// Extract port from URL, default to 6333 for HTTP
	port := 6334 // Default gRPC port
	if parsedURL.Port() != "" {
		httpPort, err := strconv.Atoi(parsedURL.Port())
		if err == nil {
			// gRPC port is typically HTTP port + 1
			port = httpPort + 1
		}
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host: host,
		Port: port,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Qdrant client: %w", err)
	}

	return &QdrantIndex{
		client:     client,
		collection: collection,
		dimension:  dimension,
	}, nil
}

// EnsureCollection resolves the target collection name and makes sure a
// collection with the expected dimension exists and is ready. A collection
// whose dimension differs is deleted and recreated after a settling delay;
// the vectors it held are discarded.
func (s *QdrantIndex) EnsureCollection(ctx context.Context, name string) error {
	logger := contextutil.LoggerFromContext(ctx)

	if name == "" {
		name = s.collection
	}
	if name == "" {
		return &errs.ConfigError{Name: "QDRANT_COLLECTION", Message: "no collection name given and no default configured"}
	}
	s.collection = name

	names, err := s.client.ListCollections(ctx)
	if err != nil {
		return errs.Upstream(errs.ServiceVectorIndex, fmt.Errorf("failed to list collections: %w", err))
	}

	exists := false
	for _, n := range names {
		if n == name {
			exists = true
			break
		}
	}

	if !exists {
		logger.InfoContext(ctx, "creating collection", "collection", name, "dimension", s.dimension)
		if err := s.createCollection(ctx); err != nil {
			return err
		}
		return s.waitReady(ctx)
	}

	dimension, err := s.collectionDimension(ctx)
	if err != nil {
		return err
	}

	if dimension != s.dimension {
		// The existing collection cannot hold our vectors: recreate it.
		// Everything previously indexed under the old dimension is lost.
		logger.WarnContext(ctx, "collection dimension mismatch, deleting and recreating",
			"collection", name, "have", dimension, "want", s.dimension)

		if err := s.client.DeleteCollection(ctx, name); err != nil {
			return errs.Upstream(errs.ServiceVectorIndex, fmt.Errorf("failed to delete collection: %w", err))
		}
		time.Sleep(recreateSettleDelay)

		if err := s.createCollection(ctx); err != nil {
			return err
		}
		return s.waitReady(ctx)
	}

	logger.InfoContext(ctx, "collection validated", "collection", name, "dimension", dimension)
	return nil
}

// createCollection creates the collection with the configured dimension and
// cosine distance. A concurrent creation race is treated as success.
func (s *QdrantIndex) createCollection(ctx context.Context) error {
	err := s.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: s.collection,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     uint64(s.dimension),
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil && status.Code(err) != codes.AlreadyExists {
		return errs.Upstream(errs.ServiceVectorIndex, fmt.Errorf("failed to create collection: %w", err))
	}
	return nil
}

// waitReady blocks until the collection reports green status.
func (s *QdrantIndex) waitReady(ctx context.Context) error {
	for i := 0; i < readyPollAttempts; i++ {
		info, err := s.client.GetCollectionInfo(ctx, s.collection)
		if err != nil {
			return errs.Upstream(errs.ServiceVectorIndex, fmt.Errorf("failed to get collection info: %w", err))
		}
		if info.GetStatus() == qdrant.CollectionStatus_Green {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(readyPollInterval):
		}
	}
	return errs.Upstream(errs.ServiceVectorIndex, fmt.Errorf("collection %s not ready after %v", s.collection, readyPollAttempts*readyPollInterval))
}

// collectionDimension reads the declared vector size of the collection.
func (s *QdrantIndex) collectionDimension(ctx context.Context) (int, error) {
	info, err := s.client.GetCollectionInfo(ctx, s.collection)
	if err != nil {
		return 0, errs.Upstream(errs.ServiceVectorIndex, fmt.Errorf("failed to get collection info: %w", err))
	}

	params := info.GetConfig().GetParams().GetVectorsConfig().GetParams()
	if params == nil || params.Size == 0 {
		return 0, errs.Upstream(errs.ServiceVectorIndex, fmt.Errorf("could not determine collection vector size"))
	}
	return int(params.Size), nil
}

// Upsert writes or overwrites records by key.
func (s *QdrantIndex) Upsert(ctx context.Context, records []Record) error {
	logger := contextutil.LoggerFromContext(ctx)

	if len(records) == 0 {
		return nil
	}

	points := make([]*qdrant.PointStruct, 0, len(records))
	for _, record := range records {
		points = append(points, &qdrant.PointStruct{
			Id:      qdrant.NewIDUUID(pointID(record.Key)),
			Vectors: qdrant.NewVectors(record.Vector...),
			Payload: qdrant.NewValueMap(payloadFromRecord(record)),
		})
	}

	_, err := s.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: s.collection,
		Points:         points,
		Wait:           qdrant.PtrOf(true),
	})
	if err != nil {
		logger.ErrorContext(ctx, "failed to upsert records", "collection", s.collection, "count", len(records), "error", err)
		return errs.Upstream(errs.ServiceVectorIndex, fmt.Errorf("failed to upsert records: %w", err))
	}

	logger.InfoContext(ctx, "upserted records", "collection", s.collection, "count", len(records))
	return nil
}

// Query performs a similarity search ordered by descending score.
func (s *QdrantIndex) Query(ctx context.Context, vector []float32, topK int, filter *Filter) ([]Match, error) {
	logger := contextutil.LoggerFromContext(ctx)

	if topK <= 0 {
		return nil, &errs.ValidationError{Field: "topK", Message: "must be greater than 0"}
	}

	req := &qdrant.QueryPoints{
		CollectionName: s.collection,
		Query:          qdrant.NewQuery(vector...),
		Limit:          qdrant.PtrOf(uint64(topK)),
		WithPayload:    qdrant.NewWithPayload(true),
	}
	if qf := qdrantFilter(filter); qf != nil {
		req.Filter = qf
	}

	scored, err := s.client.Query(ctx, req)
	if err != nil {
		logger.ErrorContext(ctx, "failed to query records", "collection", s.collection, "top_k", topK, "error", err)
		return nil, errs.Upstream(errs.ServiceVectorIndex, fmt.Errorf("failed to query records: %w", err))
	}

	matches := make([]Match, 0, len(scored))
	for _, point := range scored {
		key, meta := recordFromPayload(point.GetPayload())
		matches = append(matches, Match{
			Key:   key,
			Score: point.GetScore(),
			Meta:  meta,
		})
	}

	logger.InfoContext(ctx, "query completed", "collection", s.collection, "top_k", topK, "results", len(matches))
	return matches, nil
}

// Fetch retrieves the metadata of the given keys. Unknown keys are skipped.
func (s *QdrantIndex) Fetch(ctx context.Context, keys []string) ([]Record, error) {
	if len(keys) == 0 {
		return nil, nil
	}

	ids := make([]*qdrant.PointId, 0, len(keys))
	for _, key := range keys {
		ids = append(ids, qdrant.NewIDUUID(pointID(key)))
	}

	points, err := s.client.Get(ctx, &qdrant.GetPoints{
		CollectionName: s.collection,
		Ids:            ids,
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, errs.Upstream(errs.ServiceVectorIndex, fmt.Errorf("failed to fetch records: %w", err))
	}

	records := make([]Record, 0, len(points))
	for _, point := range points {
		key, meta := recordFromPayload(point.GetPayload())
		records = append(records, Record{Key: key, Meta: meta})
	}
	return records, nil
}

// DeleteByKeys removes the given records.
func (s *QdrantIndex) DeleteByKeys(ctx context.Context, keys []string) error {
	logger := contextutil.LoggerFromContext(ctx)

	if len(keys) == 0 {
		return nil
	}

	ids := make([]*qdrant.PointId, 0, len(keys))
	for _, key := range keys {
		ids = append(ids, qdrant.NewIDUUID(pointID(key)))
	}

	_, err := s.client.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: s.collection,
		Points:         qdrant.NewPointsSelector(ids...),
		Wait:           qdrant.PtrOf(true),
	})
	if err != nil {
		logger.ErrorContext(ctx, "failed to delete records", "collection", s.collection, "count", len(keys), "error", err)
		return errs.Upstream(errs.ServiceVectorIndex, fmt.Errorf("failed to delete records: %w", err))
	}

	logger.InfoContext(ctx, "deleted records", "collection", s.collection, "count", len(keys))
	return nil
}

// DeleteAll removes every record in the collection.
func (s *QdrantIndex) DeleteAll(ctx context.Context) error {
	logger := contextutil.LoggerFromContext(ctx)

	_, err := s.client.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: s.collection,
		Points: &qdrant.PointsSelector{
			PointsSelectorOneOf: &qdrant.PointsSelector_Filter{
				Filter: &qdrant.Filter{},
			},
		},
		Wait: qdrant.PtrOf(true),
	})
	if err != nil {
		logger.ErrorContext(ctx, "failed to wipe collection", "collection", s.collection, "error", err)
		return errs.Upstream(errs.ServiceVectorIndex, fmt.Errorf("failed to wipe collection: %w", err))
	}

	logger.WarnContext(ctx, "wiped collection", "collection", s.collection)
	return nil
}

// ListKeys scans keys page by page via the scroll API, scoped to the given
// prefix. A prefix following the chunk key scheme is pushed down as a
// document filter so the index only returns the relevant points.
func (s *QdrantIndex) ListKeys(ctx context.Context, prefix string) *KeyIterator {
	var filter *qdrant.Filter
	if docID := documentIDFromPrefix(prefix); docID != "" {
		filter = &qdrant.Filter{
			Must: []*qdrant.Condition{qdrant.NewMatch("document_id", docID)},
		}
	}

	return NewKeyIterator(func(ctx context.Context, offset string) ([]string, string, error) {
		req := &qdrant.ScrollPoints{
			CollectionName: s.collection,
			Filter:         filter,
			Limit:          qdrant.PtrOf(uint32(listPageSize)),
			WithPayload:    qdrant.NewWithPayloadInclude("chunk_key"),
		}
		if offset != "" {
			req.Offset = qdrant.NewIDUUID(offset)
		}

		resp, err := s.client.GetPointsClient().Scroll(ctx, req)
		if err != nil {
			return nil, "", errs.Upstream(errs.ServiceVectorIndex, fmt.Errorf("failed to scroll keys: %w", err))
		}

		keys := make([]string, 0, len(resp.GetResult()))
		for _, point := range resp.GetResult() {
			key := point.GetPayload()["chunk_key"].GetStringValue()
			if key == "" {
				continue
			}
			if prefix != "" && !strings.HasPrefix(key, prefix) {
				continue
			}
			keys = append(keys, key)
		}

		return keys, resp.GetNextPageOffset().GetUuid(), nil
	})
}

// Stats reports record counts and the collection's declared dimension.
func (s *QdrantIndex) Stats(ctx context.Context) (IndexStats, error) {
	info, err := s.client.GetCollectionInfo(ctx, s.collection)
	if err != nil {
		return IndexStats{}, errs.Upstream(errs.ServiceVectorIndex, fmt.Errorf("failed to get collection info: %w", err))
	}

	dimension := 0
	if params := info.GetConfig().GetParams().GetVectorsConfig().GetParams(); params != nil {
		dimension = int(params.Size)
	}

	return IndexStats{
		TotalRecords:   info.GetPointsCount(),
		Dimension:      dimension,
		IndexedVectors: info.GetIndexedVectorsCount(),
		Segments:       info.GetSegmentsCount(),
		Status:         info.GetStatus().String(),
	}, nil
}

// pointID derives the deterministic Qdrant point UUID for a record key.
func pointID(key string) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(key)).String()
}

// payloadFromRecord flattens a record's key and metadata into a payload map.
func payloadFromRecord(record Record) map[string]any {
	return map[string]any{
		"chunk_key":   record.Key,
		"text":        record.Meta.Text,
		"source":      record.Meta.Source,
		"chunk_index": int64(record.Meta.ChunkIndex),
		"document_id": record.Meta.DocumentID,
		"created_at":  record.Meta.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
}

// recordFromPayload rebuilds the record key and metadata from a payload.
// Missing fields decode to zero values; the registry treats records lacking
// both document ID and source as malformed and skips them.
func recordFromPayload(payload map[string]*qdrant.Value) (string, ChunkMetadata) {
	meta := ChunkMetadata{
		Text:       payload["text"].GetStringValue(),
		Source:     payload["source"].GetStringValue(),
		ChunkIndex: int(payload["chunk_index"].GetIntegerValue()),
		DocumentID: payload["document_id"].GetStringValue(),
	}
	if raw := payload["created_at"].GetStringValue(); raw != "" {
		if ts, err := time.Parse(time.RFC3339Nano, raw); err == nil {
			meta.CreatedAt = ts
		}
	}
	return payload["chunk_key"].GetStringValue(), meta
}

// qdrantFilter converts the portable filter into a Qdrant filter.
func qdrantFilter(filter *Filter) *qdrant.Filter {
	if filter == nil || filter.DocumentID == "" {
		return nil
	}
	return &qdrant.Filter{
		Must: []*qdrant.Condition{qdrant.NewMatch("document_id", filter.DocumentID)},
	}
}
