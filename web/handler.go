package web

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"fueltrack/db/db"
	"fueltrack/ledger"
	"fueltrack/service"
)

type errorResponse struct {
	Error string `json:"error"`
}

type violationResponse struct {
	RecordID int    `json:"record_id"`
	Error    string `json:"error"`
}

type handlers struct {
	svc *service.Service
}

// writeError maps validation failures to 400 and unknown ids to 404.
func writeError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, db.ErrRecordNotFound):
		status = http.StatusNotFound
	case ledger.IsUserError(err):
		status = http.StatusBadRequest
	default:
		log.Error().Err(err).Str("path", c.FullPath()).Msg("request failed")
	}
	c.JSON(status, errorResponse{Error: err.Error()})
}

func recordID(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid record id " + strconv.Quote(c.Param("id"))})
		return 0, false
	}
	return id, true
}

func (h *handlers) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *handlers) listRecords(c *gin.Context) {
	records, err := h.svc.Records(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	if records == nil {
		records = []ledger.Record{}
	}
	c.JSON(http.StatusOK, records)
}

func (h *handlers) getRecord(c *gin.Context) {
	id, ok := recordID(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	if loader, ok := c.Value(string(db.DataLoaderKeyRecordData)).(*db.RecordDataLoader); ok {
		if record, err := loader.GetRecord.Load(ctx, id); err == nil {
			c.JSON(http.StatusOK, record)
			return
		}
	}
	// a loader miss falls back to the store so not found and failures
	// are told apart
	record, err := h.svc.Record(ctx, id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, record)
}

func (h *handlers) addRecord(c *gin.Context) {
	var e ledger.Entry
	if err := c.ShouldBindJSON(&e); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	record, err := h.svc.Add(c.Request.Context(), e)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, record)
}

func (h *handlers) editRecord(c *gin.Context) {
	id, ok := recordID(c)
	if !ok {
		return
	}
	var e ledger.Entry
	if err := c.ShouldBindJSON(&e); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	record, err := h.svc.Edit(c.Request.Context(), id, e)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, record)
}

func (h *handlers) deleteRecord(c *gin.Context) {
	id, ok := recordID(c)
	if !ok {
		return
	}
	if err := h.svc.Delete(c.Request.Context(), id); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *handlers) listTanks(c *gin.Context) {
	tanks, err := h.svc.Tanks(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	if tanks == nil {
		tanks = []ledger.Tank{}
	}
	c.JSON(http.StatusOK, tanks)
}

func (h *handlers) listViolations(c *gin.Context) {
	violations, err := h.svc.Check(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	out := make([]violationResponse, len(violations))
	for i, v := range violations {
		out[i] = violationResponse{RecordID: v.RecordID, Error: v.Err.Error()}
	}
	c.JSON(http.StatusOK, out)
}

func (h *handlers) recompute(c *gin.Context) {
	report, err := h.svc.Recompute(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}
