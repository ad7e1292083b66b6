// internal/handlers/import_test.go
package handlers_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	redis_a "github.com/storeops/backoffice-be/internal/adapters/redis_adapter"
	"github.com/storeops/backoffice-be/internal/handlers"
	"github.com/storeops/backoffice-be/internal/workers"
	"github.com/storeops/backoffice-be/test/helpers"
	"github.com/storeops/backoffice-be/test/mocks"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// multipartUpload builds a multipart body with a single "file" part
func multipartUpload(t *testing.T, filename, contentType string, content []byte) (*bytes.Buffer, string) {
	t.Helper()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	partHeader := textproto.MIMEHeader{}
	partHeader.Set("Content-Disposition", `form-data; name="file"; filename="`+filename+`"`)
	partHeader.Set("Content-Type", contentType)

	part, err := writer.CreatePart(partHeader)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	return body, writer.FormDataContentType()
}

func newImportTaskClient(t *testing.T) *workers.TaskClient {
	t.Helper()

	testRedis := helpers.SetupTestRedis(t)
	client := asynq.NewClient(asynq.RedisClientOpt{Addr: testRedis.Server.Addr()})
	t.Cleanup(func() { client.Close() })

	return workers.NewTaskClient(client, helpers.TestLogger())
}

func TestImportHandler_ImportCatalog(t *testing.T) {
	t.Run("queues_catalog_import", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		mockCache := mocks.NewMockCacheRepository(ctrl)
		mockCache.EXPECT().
			SetWithTTL(gomock.Any(), gomock.Any(), gomock.Any(), workers.ImportJobTTL).
			Return(nil)

		handler := handlers.NewImportHandler(
			newImportTaskClient(t), mockCache, helpers.TestLogger(),
			10*1024*1024, t.TempDir())

		body, contentType := multipartUpload(t, "catalog.xlsx", xlsxContentType, []byte("fake xlsx"))
		req := httptest.NewRequest("POST", "/api/v1/import/catalog", body)
		req.Header.Set("Content-Type", contentType)
		w := httptest.NewRecorder()

		handler.ImportCatalog(w, req)

		assert.Equal(t, http.StatusAccepted, w.Result().StatusCode)

		var response map[string]interface{}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		jobID, ok := response["job_id"].(string)
		require.True(t, ok)
		_, err := uuid.Parse(jobID)
		assert.NoError(t, err)
		assert.Equal(t, string(workers.JobQueued), response["status"])
	})

	t.Run("rejects_wrong_content_type", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		handler := handlers.NewImportHandler(
			nil, mocks.NewMockCacheRepository(ctrl), helpers.TestLogger(),
			10*1024*1024, t.TempDir())

		body, contentType := multipartUpload(t, "catalog.csv", "text/csv", []byte("sku,name"))
		req := httptest.NewRequest("POST", "/api/v1/import/catalog", body)
		req.Header.Set("Content-Type", contentType)
		w := httptest.NewRecorder()

		handler.ImportCatalog(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Result().StatusCode)
	})

	t.Run("rejects_missing_file", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		handler := handlers.NewImportHandler(
			nil, mocks.NewMockCacheRepository(ctrl), helpers.TestLogger(),
			10*1024*1024, t.TempDir())

		body := &bytes.Buffer{}
		writer := multipart.NewWriter(body)
		require.NoError(t, writer.WriteField("note", "no file here"))
		require.NoError(t, writer.Close())

		req := httptest.NewRequest("POST", "/api/v1/import/catalog", body)
		req.Header.Set("Content-Type", writer.FormDataContentType())
		w := httptest.NewRecorder()

		handler.ImportCatalog(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Result().StatusCode)
	})
}

func TestImportHandler_ImportPriceList(t *testing.T) {
	t.Run("queues_pricelist_import", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		mockCache := mocks.NewMockCacheRepository(ctrl)
		mockCache.EXPECT().
			SetWithTTL(gomock.Any(), gomock.Any(), gomock.Any(), workers.ImportJobTTL).
			Return(nil)

		handler := handlers.NewImportHandler(
			newImportTaskClient(t), mockCache, helpers.TestLogger(),
			10*1024*1024, t.TempDir())

		body, contentType := multipartUpload(t, "prices.pdf", "application/pdf", []byte("%PDF-1.4"))
		req := httptest.NewRequest("POST", "/api/v1/import/pricelist", body)
		req.Header.Set("Content-Type", contentType)
		w := httptest.NewRecorder()

		handler.ImportPriceList(w, req)

		assert.Equal(t, http.StatusAccepted, w.Result().StatusCode)
	})

	t.Run("rejects_non_pdf", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		handler := handlers.NewImportHandler(
			nil, mocks.NewMockCacheRepository(ctrl), helpers.TestLogger(),
			10*1024*1024, t.TempDir())

		body, contentType := multipartUpload(t, "prices.xlsx", xlsxContentType, []byte("fake"))
		req := httptest.NewRequest("POST", "/api/v1/import/pricelist", body)
		req.Header.Set("Content-Type", contentType)
		w := httptest.NewRecorder()

		handler.ImportPriceList(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Result().StatusCode)
	})
}

func TestImportHandler_ImportStatus(t *testing.T) {
	jobID := uuid.New().String()

	tests := []struct {
		name           string
		jobID          string
		setupMocks     func(*mocks.MockCacheRepository)
		expectedStatus int
		validateBody   func(*testing.T, []byte)
	}{
		{
			name:  "returns_job_status",
			jobID: jobID,
			setupMocks: func(m *mocks.MockCacheRepository) {
				m.EXPECT().
					Get(gomock.Any(), redis_a.BuildKey(redis_a.PrefixImportJob, jobID), gomock.Any()).
					DoAndReturn(func(ctx interface{}, key string, dest interface{}) error {
						status := dest.(*workers.ImportJobStatus)
						status.JobID = jobID
						status.Kind = "catalog"
						status.Status = workers.JobCompleted
						status.RowsTotal = 10
						status.RowsOK = 9
						status.RowsFailed = 1
						status.CreatedAt = time.Now().UTC()
						return nil
					})
			},
			expectedStatus: http.StatusOK,
			validateBody: func(t *testing.T, body []byte) {
				var status workers.ImportJobStatus
				require.NoError(t, json.Unmarshal(body, &status))
				assert.Equal(t, workers.JobCompleted, status.Status)
				assert.Equal(t, 9, status.RowsOK)
			},
		},
		{
			name:           "invalid_job_id",
			jobID:          "not-a-uuid",
			setupMocks:     func(m *mocks.MockCacheRepository) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:  "unknown_job_404",
			jobID: jobID,
			setupMocks: func(m *mocks.MockCacheRepository) {
				m.EXPECT().
					Get(gomock.Any(), gomock.Any(), gomock.Any()).
					Return(redis_a.ErrCacheMiss)
			},
			expectedStatus: http.StatusNotFound,
		},
		{
			name:  "cache_error_500",
			jobID: jobID,
			setupMocks: func(m *mocks.MockCacheRepository) {
				m.EXPECT().
					Get(gomock.Any(), gomock.Any(), gomock.Any()).
					Return(errors.New("redis down"))
			},
			expectedStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			mockCache := mocks.NewMockCacheRepository(ctrl)
			handler := handlers.NewImportHandler(nil, mockCache, helpers.TestLogger(), 10*1024*1024, t.TempDir())
			tt.setupMocks(mockCache)

			req := httptest.NewRequest("GET", "/api/v1/import/status/"+tt.jobID, nil)
			req.SetPathValue("jobId", tt.jobID)
			w := httptest.NewRecorder()

			handler.ImportStatus(w, req)

			assert.Equal(t, tt.expectedStatus, w.Result().StatusCode)

			if tt.validateBody != nil {
				tt.validateBody(t, w.Body.Bytes())
			}
		})
	}
}
