package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nadinev6/RAGgle/internal/config"
	"github.com/nadinev6/RAGgle/internal/log"
	"github.com/nadinev6/RAGgle/internal/nuclia"
	"github.com/nadinev6/RAGgle/internal/product"
)

// stubIndexer records calls and returns canned results.
type stubIndexer struct {
	createLinkErr error
	documentID    string
	patchErr      error
	patchedMeta   map[string]string
	askAnswer     *nuclia.Answer
	askErr        error
	askQuery      string
	askOpts       nuclia.AskOptions
	rephrased     string
	rephraseErr   error
	resources     []json.RawMessage
	resource      json.RawMessage
	entities      *nuclia.Entities
	listErr       error
	textFormat    string
}

func (s *stubIndexer) CreateLink(_ context.Context, _, _ string, _ map[string]string) (string, error) {
	if s.createLinkErr != nil {
		return "", s.createLinkErr
	}
	return s.documentID, nil
}

func (s *stubIndexer) CreateText(_ context.Context, _, _, format, _ string, _ map[string]string) (string, error) {
	if s.createLinkErr != nil {
		return "", s.createLinkErr
	}
	s.textFormat = format
	return s.documentID, nil
}

func (s *stubIndexer) PatchMetadata(_ context.Context, _ string, metadata map[string]string) error {
	s.patchedMeta = metadata
	return s.patchErr
}

func (s *stubIndexer) Ask(_ context.Context, query string, opts nuclia.AskOptions) (*nuclia.Answer, error) {
	s.askQuery = query
	s.askOpts = opts
	if s.askErr != nil {
		return nil, s.askErr
	}
	return s.askAnswer, nil
}

func (s *stubIndexer) Rephrase(_ context.Context, query string, _ []string) (string, error) {
	if s.rephraseErr != nil {
		return query, s.rephraseErr
	}
	return s.rephrased, nil
}

func (s *stubIndexer) Resource(_ context.Context, _ string) (json.RawMessage, error) {
	return s.resource, nil
}

func (s *stubIndexer) Entities(_ context.Context, _ string) (*nuclia.Entities, error) {
	return s.entities, nil
}

func (s *stubIndexer) ListResources(_ context.Context, _ int) ([]json.RawMessage, error) {
	return s.resources, s.listErr
}

// stubFetcher serves fixed HTML.
type stubFetcher struct {
	content string
	err     error
}

func (s *stubFetcher) Fetch(_ context.Context, _ string) (string, error) {
	return s.content, s.err
}

// stubStore is an in-memory ProductStore.
type stubStore struct {
	upserted   []product.Product
	nextID     int64
	upsertErr  error
	products   []product.Product
	listErr    error
	prices     []float64
	points     []product.PricePoint
	compareErr error
}

func (s *stubStore) Upsert(_ context.Context, p product.Product) (int64, error) {
	if s.upsertErr != nil {
		return 0, s.upsertErr
	}
	s.upserted = append(s.upserted, p)
	s.nextID++
	return s.nextID, nil
}

func (s *stubStore) List(_ context.Context, _, _ int) ([]product.Product, error) {
	return s.products, s.listErr
}

func (s *stubStore) Compare(_ context.Context, ids []int64, docIDs []string) (*product.Comparison, error) {
	if s.compareErr != nil {
		return nil, s.compareErr
	}
	cmp := product.BuildComparison(s.products)
	return &cmp, nil
}

func (s *stubStore) RecordPrice(_ context.Context, _ int64, price float64, _, _ string) error {
	s.prices = append(s.prices, price)
	return nil
}

func (s *stubStore) PriceHistory(_ context.Context, _ int64) ([]product.PricePoint, error) {
	return s.points, nil
}

const productPage = `<html><head>
<meta property="og:title" content="Test Widget"/>
<meta property="og:image" content="https://cdn.example/widget.jpg"/>
<meta property="og:description" content="A very useful widget."/>
</head><body><span class="price">$19.99</span> In Stock</body></html>`

func postJSON(t *testing.T, handler http.Handler, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var result map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	return result
}

func TestIndexURL(t *testing.T) {
	logger := log.NewNop()

	t.Run("missing url returns 400", func(t *testing.T) {
		indexer := &stubIndexer{documentID: "doc-1"}
		mux := http.NewServeMux()
		NewIndexHandler(indexer, &stubFetcher{}, nil, logger).RegisterRoutes(mux)

		w := postJSON(t, mux, "/index-url", map[string]any{"url": "   "})

		assert.Equal(t, http.StatusBadRequest, w.Code)
		body := decodeBody(t, w)
		assert.Equal(t, false, body["success"])
		assert.Equal(t, "URL is required", body["error"])
	})

	t.Run("full pipeline upserts product and records price", func(t *testing.T) {
		indexer := &stubIndexer{documentID: "doc-42"}
		store := &stubStore{}
		mux := http.NewServeMux()
		NewIndexHandler(indexer, &stubFetcher{content: productPage}, store, logger).RegisterRoutes(mux)

		w := postJSON(t, mux, "/index-url", map[string]any{
			"url":             "https://shop.example/widget",
			"is_product_page": true,
		})

		assert.Equal(t, http.StatusOK, w.Code)
		body := decodeBody(t, w)
		assert.Equal(t, true, body["success"])
		assert.Equal(t, "doc-42", body["document_id"])
		assert.Equal(t, true, body["metadata_patch_success"])

		require.Len(t, store.upserted, 1)
		p := store.upserted[0]
		assert.Equal(t, "doc-42", p.NucliaDocumentID)
		assert.Equal(t, "Test Widget", p.Name)
		assert.Equal(t, "product", p.ProductType)
		assert.True(t, p.HasMetadata)

		require.Len(t, store.prices, 1)
		assert.InDelta(t, 19.99, store.prices[0], 0.001)

		assert.Equal(t, "Test Widget", indexer.patchedMeta["name"])
	})

	t.Run("provider rejection returns 502", func(t *testing.T) {
		indexer := &stubIndexer{createLinkErr: fmt.Errorf("nuclia API error (status 401)")}
		mux := http.NewServeMux()
		NewIndexHandler(indexer, &stubFetcher{}, nil, logger).RegisterRoutes(mux)

		w := postJSON(t, mux, "/index-url", map[string]any{"url": "https://shop.example/widget"})

		assert.Equal(t, http.StatusBadGateway, w.Code)
		assert.Equal(t, false, decodeBody(t, w)["success"])
	})

	t.Run("fetch failure still reports indexed document", func(t *testing.T) {
		indexer := &stubIndexer{documentID: "doc-7"}
		store := &stubStore{}
		mux := http.NewServeMux()
		NewIndexHandler(indexer, &stubFetcher{err: fmt.Errorf("status 403")}, store, logger).RegisterRoutes(mux)

		w := postJSON(t, mux, "/index-url", map[string]any{"url": "https://shop.example/widget"})

		assert.Equal(t, http.StatusOK, w.Code)
		body := decodeBody(t, w)
		assert.Equal(t, true, body["success"])
		assert.Equal(t, "doc-7", body["document_id"])
		assert.Equal(t, false, body["metadata_patch_success"])
		assert.Empty(t, store.upserted)
	})

	t.Run("patch failure is reported but not fatal", func(t *testing.T) {
		indexer := &stubIndexer{documentID: "doc-9", patchErr: fmt.Errorf("patch rejected")}
		mux := http.NewServeMux()
		NewIndexHandler(indexer, &stubFetcher{content: productPage}, nil, logger).RegisterRoutes(mux)

		w := postJSON(t, mux, "/index-url", map[string]any{"url": "https://shop.example/widget"})

		assert.Equal(t, http.StatusOK, w.Code)
		body := decodeBody(t, w)
		assert.Equal(t, true, body["success"])
		assert.Equal(t, false, body["metadata_patch_success"])
	})

	t.Run("index-text requires text and title", func(t *testing.T) {
		mux := http.NewServeMux()
		NewIndexHandler(&stubIndexer{documentID: "doc-1"}, &stubFetcher{}, nil, logger).RegisterRoutes(mux)

		w := postJSON(t, mux, "/index-text", map[string]any{"title": "Notes"})
		assert.Equal(t, http.StatusBadRequest, w.Code)

		w = postJSON(t, mux, "/index-text", map[string]any{"text": "hello"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("index-text defaults to PLAIN format", func(t *testing.T) {
		indexer := &stubIndexer{documentID: "doc-20"}
		mux := http.NewServeMux()
		NewIndexHandler(indexer, &stubFetcher{}, nil, logger).RegisterRoutes(mux)

		w := postJSON(t, mux, "/index-text", map[string]any{
			"title": "Notes",
			"text":  "some product notes",
		})

		assert.Equal(t, http.StatusOK, w.Code)
		body := decodeBody(t, w)
		assert.Equal(t, "doc-20", body["document_id"])
		assert.Equal(t, "PLAIN", indexer.textFormat)
	})

	t.Run("index-text rejects unknown format", func(t *testing.T) {
		mux := http.NewServeMux()
		NewIndexHandler(&stubIndexer{documentID: "doc-1"}, &stubFetcher{}, nil, logger).RegisterRoutes(mux)

		w := postJSON(t, mux, "/index-text", map[string]any{
			"title":  "Notes",
			"text":   "body",
			"format": "MARKDOWN",
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("generic page is stored without metadata flag", func(t *testing.T) {
		indexer := &stubIndexer{documentID: "doc-11"}
		store := &stubStore{}
		mux := http.NewServeMux()
		NewIndexHandler(indexer, &stubFetcher{content: productPage}, store, logger).RegisterRoutes(mux)

		w := postJSON(t, mux, "/index-url", map[string]any{"url": "https://blog.example/post"})

		assert.Equal(t, http.StatusOK, w.Code)
		require.Len(t, store.upserted, 1)
		assert.Equal(t, "generic", store.upserted[0].ProductType)
		assert.False(t, store.upserted[0].HasMetadata)
	})
}

func TestAskProductDetails(t *testing.T) {
	logger := log.NewNop()

	t.Run("missing query returns 400", func(t *testing.T) {
		mux := http.NewServeMux()
		NewAskHandler(&stubIndexer{}, logger).RegisterRoutes(mux)

		w := postJSON(t, mux, "/ask-product-details", map[string]any{"query": ""})

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "Query is required", decodeBody(t, w)["error"])
	})

	t.Run("returns structured answer", func(t *testing.T) {
		indexer := &stubIndexer{
			askAnswer: &nuclia.Answer{
				Raw: `{"products": [{"name": "Widget", "price": "$19.99"}]}`,
				Structured: &nuclia.StructuredData{
					Products: []nuclia.Product{{Name: "Widget", Price: "$19.99"}},
				},
			},
		}
		mux := http.NewServeMux()
		NewAskHandler(indexer, logger).RegisterRoutes(mux)

		w := postJSON(t, mux, "/ask-product-details", map[string]any{"query": "cheap widgets"})

		assert.Equal(t, http.StatusOK, w.Code)
		body := decodeBody(t, w)
		assert.Equal(t, true, body["success"])
		assert.Equal(t, "cheap widgets", body["query"])

		structured, ok := body["structured_data"].(map[string]any)
		require.True(t, ok)
		products, ok := structured["products"].([]any)
		require.True(t, ok)
		assert.Len(t, products, 1)
	})

	t.Run("date filters forwarded inclusive of end of day", func(t *testing.T) {
		indexer := &stubIndexer{askAnswer: &nuclia.Answer{Raw: "no products"}}
		mux := http.NewServeMux()
		NewAskHandler(indexer, logger).RegisterRoutes(mux)

		w := postJSON(t, mux, "/search-products", map[string]any{
			"query":    "widgets",
			"fromDate": "2025-01-01",
			"toDate":   "2025-01-31",
		})

		assert.Equal(t, http.StatusOK, w.Code)
		require.NotNil(t, indexer.askOpts.From)
		require.NotNil(t, indexer.askOpts.To)
		assert.Equal(t, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), *indexer.askOpts.From)
		assert.Equal(t, 23, indexer.askOpts.To.Hour())
		assert.Equal(t, 31, indexer.askOpts.To.Day())
	})

	t.Run("rephrase rewrites the query before asking", func(t *testing.T) {
		indexer := &stubIndexer{
			askAnswer: &nuclia.Answer{Raw: "ok"},
			rephrased: "affordable widgets under 20 dollars",
		}
		mux := http.NewServeMux()
		NewAskHandler(indexer, logger).RegisterRoutes(mux)

		w := postJSON(t, mux, "/ask-product-details", map[string]any{
			"query":    "cheap widgets",
			"rephrase": true,
		})

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "affordable widgets under 20 dollars", indexer.askQuery)
		// The response still echoes the caller's query.
		assert.Equal(t, "cheap widgets", decodeBody(t, w)["query"])
	})

	t.Run("rephrase failure falls back to the original query", func(t *testing.T) {
		indexer := &stubIndexer{
			askAnswer:   &nuclia.Answer{Raw: "ok"},
			rephraseErr: fmt.Errorf("predict unavailable"),
		}
		mux := http.NewServeMux()
		NewAskHandler(indexer, logger).RegisterRoutes(mux)

		w := postJSON(t, mux, "/ask-product-details", map[string]any{
			"query":    "cheap widgets",
			"rephrase": true,
		})

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "cheap widgets", indexer.askQuery)
	})

	t.Run("invalid date returns 400", func(t *testing.T) {
		mux := http.NewServeMux()
		NewAskHandler(&stubIndexer{}, logger).RegisterRoutes(mux)

		w := postJSON(t, mux, "/search-products", map[string]any{
			"query":    "widgets",
			"fromDate": "01/02/2025",
		})

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("provider failure returns 502", func(t *testing.T) {
		mux := http.NewServeMux()
		NewAskHandler(&stubIndexer{askErr: fmt.Errorf("timeout")}, logger).RegisterRoutes(mux)

		w := postJSON(t, mux, "/ask-product-details", map[string]any{"query": "widgets"})

		assert.Equal(t, http.StatusBadGateway, w.Code)
		assert.Equal(t, false, decodeBody(t, w)["success"])
	})
}

func TestProductEndpoints(t *testing.T) {
	logger := log.NewNop()

	t.Run("list-products relays provider resources", func(t *testing.T) {
		indexer := &stubIndexer{resources: []json.RawMessage{
			json.RawMessage(`{"id": "r1"}`),
			json.RawMessage(`{"id": "r2"}`),
		}}
		mux := http.NewServeMux()
		NewProductHandler(indexer, nil, logger).RegisterRoutes(mux)

		req := httptest.NewRequest(http.MethodGet, "/list-products?limit=10", nil)
		w := httptest.NewRecorder()
		mux.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		body := decodeBody(t, w)
		assert.Equal(t, float64(2), body["total"])
	})

	t.Run("products returns 503 without store", func(t *testing.T) {
		mux := http.NewServeMux()
		NewProductHandler(&stubIndexer{}, nil, logger).RegisterRoutes(mux)

		req := httptest.NewRequest(http.MethodGet, "/products", nil)
		w := httptest.NewRecorder()
		mux.ServeHTTP(w, req)

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	})

	t.Run("products lists bookkeeping rows", func(t *testing.T) {
		store := &stubStore{products: []product.Product{{Name: "Widget"}}}
		mux := http.NewServeMux()
		NewProductHandler(&stubIndexer{}, store, logger).RegisterRoutes(mux)

		req := httptest.NewRequest(http.MethodGet, "/products", nil)
		w := httptest.NewRecorder()
		mux.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		body := decodeBody(t, w)
		assert.Equal(t, float64(1), body["total"])
	})

	t.Run("price history rejects bad id", func(t *testing.T) {
		mux := http.NewServeMux()
		NewProductHandler(&stubIndexer{}, &stubStore{}, logger).RegisterRoutes(mux)

		req := httptest.NewRequest(http.MethodGet, "/products/abc/price-history", nil)
		w := httptest.NewRecorder()
		mux.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("price history returns points", func(t *testing.T) {
		store := &stubStore{points: []product.PricePoint{
			{ProductID: 5, Price: 19.99, Currency: "USD"},
		}}
		mux := http.NewServeMux()
		NewProductHandler(&stubIndexer{}, store, logger).RegisterRoutes(mux)

		req := httptest.NewRequest(http.MethodGet, "/products/5/price-history", nil)
		w := httptest.NewRecorder()
		mux.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		body := decodeBody(t, w)
		assert.Equal(t, float64(5), body["product_id"])
		assert.Equal(t, float64(1), body["total"])
	})

	t.Run("compare without ids returns 400", func(t *testing.T) {
		mux := http.NewServeMux()
		NewProductHandler(&stubIndexer{}, &stubStore{}, logger).RegisterRoutes(mux)

		w := postJSON(t, mux, "/compare-products", map[string]any{})

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("compare with unknown ids returns 404", func(t *testing.T) {
		store := &stubStore{compareErr: fmt.Errorf("%w: no matching products", product.ErrNotFound)}
		mux := http.NewServeMux()
		NewProductHandler(&stubIndexer{}, store, logger).RegisterRoutes(mux)

		w := postJSON(t, mux, "/compare-products", map[string]any{"product_ids": []int64{99}})

		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("compare returns attribute matrix", func(t *testing.T) {
		store := &stubStore{products: []product.Product{
			{Name: "Widget A", PriceText: "$10.00"},
			{Name: "Widget B"},
		}}
		mux := http.NewServeMux()
		NewProductHandler(&stubIndexer{}, store, logger).RegisterRoutes(mux)

		w := postJSON(t, mux, "/compare-products", map[string]any{"product_ids": []int64{1, 2}})

		assert.Equal(t, http.StatusOK, w.Code)
		body := decodeBody(t, w)
		attrs, ok := body["comparison_attributes"].(map[string]any)
		require.True(t, ok)
		prices, ok := attrs["price_text"].([]any)
		require.True(t, ok)
		assert.Equal(t, []any{"$10.00", "N/A"}, prices)
	})
}

func TestResourceEndpoints(t *testing.T) {
	logger := log.NewNop()

	t.Run("resource relayed verbatim", func(t *testing.T) {
		indexer := &stubIndexer{resource: json.RawMessage(`{"id": "doc-1", "title": "Widget"}`)}
		mux := http.NewServeMux()
		NewResourceHandler(indexer, logger).RegisterRoutes(mux)

		req := httptest.NewRequest(http.MethodGet, "/resources/doc-1", nil)
		w := httptest.NewRecorder()
		mux.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"id": "doc-1", "title": "Widget"}`, w.Body.String())
	})

	t.Run("entities wrapped in envelope", func(t *testing.T) {
		indexer := &stubIndexer{entities: &nuclia.Entities{
			Entities: map[string]json.RawMessage{"ORG": json.RawMessage(`["Barnes & Noble"]`)},
		}}
		mux := http.NewServeMux()
		NewResourceHandler(indexer, logger).RegisterRoutes(mux)

		req := httptest.NewRequest(http.MethodGet, "/resources/doc-1/entities", nil)
		w := httptest.NewRecorder()
		mux.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		body := decodeBody(t, w)
		assert.Equal(t, true, body["success"])
		assert.Equal(t, "doc-1", body["document_id"])
		assert.Contains(t, body["entities"], "ORG")
	})
}

func TestNucliaConfig(t *testing.T) {
	t.Run("returns reader key and knowledge box", func(t *testing.T) {
		cfg := &config.Config{
			NucliaReaderKey: "reader-key",
			KnowledgeBox:    "kb-uid",
			Zone:            "aws-eu-central-1-1",
			WidgetFeatures:  "answers,rephrase",
		}
		mux := http.NewServeMux()
		NewConfigHandler(cfg).RegisterRoutes(mux)

		req := httptest.NewRequest(http.MethodGet, "/nuclia-config", nil)
		w := httptest.NewRecorder()
		mux.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		body := decodeBody(t, w)
		assert.Equal(t, true, body["success"])
		assert.Equal(t, "reader-key", body["authtoken"])
		assert.Equal(t, "kb-uid", body["knowledgebox"])
		assert.Equal(t, "aws-eu-central-1-1", body["zone"])
		assert.Equal(t, "answers,rephrase", body["features"])
	})

	t.Run("incomplete configuration returns 500", func(t *testing.T) {
		mux := http.NewServeMux()
		NewConfigHandler(&config.Config{}).RegisterRoutes(mux)

		req := httptest.NewRequest(http.MethodGet, "/nuclia-config", nil)
		w := httptest.NewRecorder()
		mux.ServeHTTP(w, req)

		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})
}
