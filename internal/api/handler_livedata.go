package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"pmms-backend/internal/livedata"
	"pmms-backend/internal/metrics"
	"pmms-backend/internal/model"
)

// GetLiveData handles GET /api/machines/:machine_id/live. Metrics are
// recomputed from today's raw readings on every request; nothing is
// cached on this path.
func (h *Handler) GetLiveData(c *gin.Context) {
	machine, err := h.store.FindMachine(c.Request.Context(), c.Param("machine_id"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "machine not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}

	record, err := h.computeToday(c, machine, time.Now().UTC())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, record)
}

// GetAllLiveData handles GET /api/live. Machines with no readings today
// still appear, carrying no-data defaults.
func (h *Handler) GetAllLiveData(c *gin.Context) {
	machines, err := h.store.ListMachines(c.Request.Context(), "")
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	now := time.Now().UTC()
	records := make([]livedata.Record, 0, len(machines))
	for i := range machines {
		record, err := h.computeToday(c, &machines[i], now)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		records = append(records, record)
	}
	c.JSON(http.StatusOK, records)
}

func (h *Handler) computeToday(c *gin.Context, machine *model.Machine, now time.Time) (livedata.Record, error) {
	dayStart, dayEnd := h.offset.DayWindow(now)
	readings, err := h.store.FindReadings(c.Request.Context(), machine.MachineID, dayStart, dayEnd)
	if err != nil {
		return livedata.Record{}, err
	}
	metrics.LiveDataRequestsTotal.Inc()
	return h.engine.Compute(machine, readings, now), nil
}
