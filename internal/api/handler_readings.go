package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"pmms-backend/internal/livedata"
)

// readingPoint is one graph sample: the raw value plus its on/off
// classification under the machine's activity predicate.
type readingPoint struct {
	Timestamp time.Time `json:"timestamp"`
	Status    string    `json:"status"`
	Value     float64   `json:"value"`
}

// GetReadings handles GET /api/machines/:machine_id/readings with an
// optional date=YYYY-MM-DD query parameter (defaults to today).
func (h *Handler) GetReadings(c *gin.Context) {
	machine, err := h.store.FindMachine(c.Request.Context(), c.Param("machine_id"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "machine not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}

	target := time.Now().UTC()
	if dateParam := c.Query("date"); dateParam != "" {
		parsed, err := time.ParseInLocation("2006-01-02", dateParam, h.offset.Location())
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid date, use YYYY-MM-DD"})
			return
		}
		target = parsed
	}

	dayStart, dayEnd := h.offset.DayWindow(target)
	readings, err := h.store.FindReadings(c.Request.Context(), machine.MachineID, dayStart, dayEnd)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	points := make([]readingPoint, 0, len(readings))
	for i := range readings {
		status := livedata.StatusOff
		if livedata.SampleActive(machine, readings, i) {
			status = livedata.StatusOn
		}
		points = append(points, readingPoint{
			Timestamp: readings[i].Timestamp,
			Status:    status,
			Value:     readings[i].Value,
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"machine_id":   machine.MachineID,
		"machine_type": machine.MachineType,
		"date":         h.offset.Date(target),
		"count":        len(points),
		"data":         points,
	})
}
