package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"reel-digest/internal/api/dto"
	"reel-digest/internal/api/errors"
	"reel-digest/internal/api/middleware"
	"reel-digest/internal/app/model"
	"reel-digest/internal/app/repository"
)

// RecordReader is the read side of the result store.
type RecordReader interface {
	Get(ctx context.Context, key string) (*model.Record, error)
	List(ctx context.Context, filter repository.ListFilter) ([]*model.Record, error)
}

// RecordHandler exposes persisted records
type RecordHandler struct {
	store RecordReader
}

// NewRecordHandler creates a new record handler
func NewRecordHandler(store RecordReader) *RecordHandler {
	return &RecordHandler{store: store}
}

// Get handles GET /records/:key
func (h *RecordHandler) Get(c *gin.Context) {
	key := c.Param("key")
	if _, err := model.ParseIdentity(key); err != nil {
		middleware.HandleError(c, errors.NewBadRequestError("Invalid record key"))
		return
	}

	rec, err := h.store.Get(c.Request.Context(), key)
	if err != nil {
		middleware.HandleError(c, err)
		return
	}
	if rec == nil {
		middleware.HandleError(c, errors.NewNotFoundError("Record"))
		return
	}

	c.JSON(http.StatusOK, dto.NewRecordResponse(rec))
}

// List handles GET /records
func (h *RecordHandler) List(c *gin.Context) {
	var query dto.ListRecordsQuery
	if err := middleware.ValidateQuery(c, &query); err != nil {
		middleware.HandleError(c, err)
		return
	}
	if query.Limit == 0 {
		query.Limit = 50
	}

	records, err := h.store.List(c.Request.Context(), repository.ListFilter{
		Status:    model.Status(query.Status),
		Recipient: query.Recipient,
		Limit:     query.Limit,
	})
	if err != nil {
		middleware.HandleError(c, err)
		return
	}

	resp := dto.ListRecordsResponse{Records: make([]dto.RecordResponse, 0, len(records))}
	for _, r := range records {
		resp.Records = append(resp.Records, dto.NewRecordResponse(r))
	}
	resp.Count = len(resp.Records)
	c.JSON(http.StatusOK, resp)
}
