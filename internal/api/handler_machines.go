package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"pmms-backend/internal/localtime"
	"pmms-backend/internal/model"
)

type createMachineRequest struct {
	MachineID          string  `json:"machine_id"`
	MachineType        string  `json:"machine_type"`
	MachineName        string  `json:"machine_name"`
	ScheduledStartTime string  `json:"scheduled_start_time"`
	ScheduledStopTime  string  `json:"scheduled_stop_time"`
	PartsPerHour       int     `json:"parts_per_hour"`
	IdleCurrent        float64 `json:"idle_current"`
	OnCurrent          float64 `json:"on_current"`
	Location           string  `json:"location"`
}

// CreateMachine handles POST /api/machines.
func (h *Handler) CreateMachine(c *gin.Context) {
	var req createMachineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if req.MachineID == "" || req.MachineType == "" || req.MachineName == "" ||
		req.ScheduledStartTime == "" || req.ScheduledStopTime == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing required fields: machine_id, machine_type, machine_name, scheduled_start_time, scheduled_stop_time"})
		return
	}

	machineType := strings.ToLower(req.MachineType)
	if !model.ValidType(machineType) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid machine_type, must be: onoff, counter, or current"})
		return
	}

	if _, err := localtime.ParseClock(req.ScheduledStartTime); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "scheduled_start_time must be in HH:MM format"})
		return
	}
	if _, err := localtime.ParseClock(req.ScheduledStopTime); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "scheduled_stop_time must be in HH:MM format"})
		return
	}

	machine := model.Machine{
		MachineID:          req.MachineID,
		MachineType:        model.MachineType(machineType),
		MachineName:        req.MachineName,
		ScheduledStartTime: req.ScheduledStartTime,
		ScheduledStopTime:  req.ScheduledStopTime,
		Status:             "active",
		Location:           req.Location,
	}
	if machine.Location == "" {
		machine.Location = "Factory Floor 1"
	}

	switch machine.MachineType {
	case model.TypeCounter:
		if req.PartsPerHour <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "parts_per_hour is required for counter type machines"})
			return
		}
		machine.PartsPerHour = req.PartsPerHour
	case model.TypeCurrent:
		if req.OnCurrent <= 0 || req.IdleCurrent < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "idle_current and on_current are required for current type machines"})
			return
		}
		machine.IdleCurrent = req.IdleCurrent
		machine.OnCurrent = req.OnCurrent
	}

	if _, err := h.store.FindMachine(c.Request.Context(), machine.MachineID); err == nil {
		c.JSON(http.StatusConflict, gin.H{"error": "machine with this ID already exists"})
		return
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	if err := h.store.CreateMachine(c.Request.Context(), &machine); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, machine)
}

// GetMachine handles GET /api/machines/:machine_id.
func (h *Handler) GetMachine(c *gin.Context) {
	machine, err := h.store.FindMachine(c.Request.Context(), c.Param("machine_id"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "machine not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}
	c.JSON(http.StatusOK, machine)
}

// ListMachines handles GET /api/machines with an optional type filter.
func (h *Handler) ListMachines(c *gin.Context) {
	machineType := strings.ToLower(c.Query("type"))
	if machineType != "" && !model.ValidType(machineType) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid type filter"})
		return
	}

	machines, err := h.store.ListMachines(c.Request.Context(), machineType)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, machines)
}

// UpdateMachine handles PUT /api/machines/:machine_id. Identity and
// machine type are fixed at creation and cannot be changed.
func (h *Handler) UpdateMachine(c *gin.Context) {
	machine, err := h.store.FindMachine(c.Request.Context(), c.Param("machine_id"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "machine not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}

	var req createMachineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if req.MachineName != "" {
		machine.MachineName = req.MachineName
	}
	if req.ScheduledStartTime != "" {
		if _, err := localtime.ParseClock(req.ScheduledStartTime); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "scheduled_start_time must be in HH:MM format"})
			return
		}
		machine.ScheduledStartTime = req.ScheduledStartTime
	}
	if req.ScheduledStopTime != "" {
		if _, err := localtime.ParseClock(req.ScheduledStopTime); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "scheduled_stop_time must be in HH:MM format"})
			return
		}
		machine.ScheduledStopTime = req.ScheduledStopTime
	}
	if req.PartsPerHour > 0 && machine.MachineType == model.TypeCounter {
		machine.PartsPerHour = req.PartsPerHour
	}
	if machine.MachineType == model.TypeCurrent {
		if req.IdleCurrent > 0 {
			machine.IdleCurrent = req.IdleCurrent
		}
		if req.OnCurrent > 0 {
			machine.OnCurrent = req.OnCurrent
		}
	}
	if req.Location != "" {
		machine.Location = req.Location
	}

	if err := h.store.SaveMachine(c.Request.Context(), machine); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, machine)
}

// DeleteMachine handles DELETE /api/machines/:machine_id.
func (h *Handler) DeleteMachine(c *gin.Context) {
	machine, err := h.store.DeleteMachine(c.Request.Context(), c.Param("machine_id"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "machine not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}
	c.JSON(http.StatusOK, machine)
}
