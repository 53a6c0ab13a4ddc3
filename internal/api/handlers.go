package api

import (
	"bytes"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/fujit1113/ValueFromLog/internal/dataset"
	"github.com/fujit1113/ValueFromLog/internal/models"
	"github.com/fujit1113/ValueFromLog/internal/repository"
)

// Handler serves the query API on top of a LogRepository.
type Handler struct {
	repo repository.LogRepository
	log  zerolog.Logger
}

// NewHandler creates an API handler.
func NewHandler(repo repository.LogRepository, log zerolog.Logger) *Handler {
	return &Handler{
		repo: repo,
		log:  log.With().Str("component", "api").Logger(),
	}
}

// fetchRequest is the JSON body of the fetch endpoints. Start and End are
// RFC3339; End may be omitted for an open-ended range.
type fetchRequest struct {
	ContractIDs []string `json:"contractIds"`
	Start       string   `json:"start"`
	End         string   `json:"end,omitempty"`
}

// params parses the request into FetchParams. Absent values stay zero so the
// repository can report the missing argument itself.
func (req *fetchRequest) params() (repository.FetchParams, error) {
	p := repository.FetchParams{ContractIDs: req.ContractIDs}

	if req.Start != "" {
		start, err := time.Parse(time.RFC3339, req.Start)
		if err != nil {
			return p, NewBadRequestError("invalid start timestamp", err)
		}
		p.Start = start.UTC()
	}
	if req.End != "" {
		end, err := time.Parse(time.RFC3339, req.End)
		if err != nil {
			return p, NewBadRequestError("invalid end timestamp", err)
		}
		e := end.UTC()
		p.End = &e
	}
	return p, nil
}

// HandleHealth reports service liveness.
func (h *Handler) HandleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// fetchResponse wraps the matched records with summary metadata. TimeRange is
// the state-time span of the result and is omitted for an empty dataset.
type fetchResponse struct {
	Records   []models.MatchedRecord `json:"records"`
	Count     int                    `json:"count"`
	TimeRange *models.TimeRange      `json:"timeRange,omitempty"`
}

// HandleFetch resolves a fetch request and returns the matched dataset as JSON.
func (h *Handler) HandleFetch(c echo.Context) error {
	ds, err := h.fetch(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, fetchResponse{
		Records:   ds.Records,
		Count:     ds.Len(),
		TimeRange: ds.TimeRange(),
	})
}

// HandleFetchMsgpack is the msgpack variant of HandleFetch, for clients that
// pull large datasets.
func (h *Handler) HandleFetchMsgpack(c echo.Context) error {
	ds, err := h.fetch(c)
	if err != nil {
		return err
	}

	data, err := msgpack.Marshal(ds)
	if err != nil {
		return NewInternalError("encoding dataset", err)
	}
	return c.Blob(http.StatusOK, "application/x-msgpack", data)
}

// HandleExportCSV serves the matched dataset as a flat CSV file. The CSV is
// rendered in full before the status is committed, so an encoding failure
// still yields an error response instead of a truncated 200.
func (h *Handler) HandleExportCSV(c echo.Context) error {
	ds, err := h.fetch(c)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := dataset.ExportCSV(ds, &buf); err != nil {
		return NewInternalError("encoding csv", err)
	}

	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="matched_log.csv"`)
	return c.Blob(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}

func (h *Handler) fetch(c echo.Context) (*models.MatchedDataset, error) {
	var req fetchRequest
	if err := c.Bind(&req); err != nil {
		return nil, NewBadRequestError("invalid request body", err)
	}

	params, err := req.params()
	if err != nil {
		return nil, err
	}

	result, fetchErr := h.repo.Fetch(c.Request().Context(), params)
	if fetchErr != nil {
		apiErr := translateError(fetchErr)
		if apiErr.Status >= http.StatusInternalServerError {
			h.log.Error().Err(fetchErr).Msg("fetch failed")
		}
		return nil, apiErr
	}
	return result, nil
}
