package api

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/donight/donight/app/database"
	"github.com/donight/donight/app/export"
	"github.com/donight/donight/app/finder"
	"github.com/donight/donight/app/sources"
	"github.com/donight/donight/app/tasks"
)

func NewHandler(eventRepo database.EventRepository, configCache *sources.ConfigCache,
	f *finder.EventFinder, scheduler tasks.TaskSchedulerInterface) *Handler {
	return &Handler{
		eventRepo:   eventRepo,
		configCache: configCache,
		exporter:    export.NewExcelWriter(),
		finder:      f,
		scheduler:   scheduler,
	}
}

// GetEvents returns upcoming events as JSON, from the start of today onward.
func (h *Handler) GetEvents(c *gin.Context) {
	events, err := h.eventRepo.GetUpcomingEvents(time.Now())
	if err != nil {
		slog.Error("Database error", "operation", "get_upcoming_events", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	c.Header("X-Event-Count", strconv.Itoa(len(events)))
	c.JSON(http.StatusOK, gin.H{
		"events": eventsResponse(events),
		"total":  len(events),
	})
}

// GetEventsExcel streams upcoming events as a spreadsheet download.
func (h *Handler) GetEventsExcel(c *gin.Context) {
	events, err := h.eventRepo.GetUpcomingEvents(time.Now())
	if err != nil {
		slog.Error("Database error", "operation", "get_upcoming_events", "error", err)
		c.Status(http.StatusInternalServerError)
		return
	}

	filename := fmt.Sprintf("events-%s.xlsx", time.Now().Format("2006-01-02"))
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", "attachment; filename="+filename)

	if err := h.exporter.Write(c.Writer, events); err != nil {
		slog.Error("Spreadsheet export error", "error", err)
		c.Status(http.StatusInternalServerError)
		return
	}
	c.Status(http.StatusOK)
}

func (h *Handler) GetHealth(c *gin.Context) {
	health := map[string]interface{}{
		"timestamp": time.Now().In(time.Local).Format(time.RFC3339),
	}

	if eventCount, err := h.eventRepo.GetEventCount(); err == nil {
		health["events"] = eventCount
	}

	health["loaded_configurations"] = h.configCache.GetConfigCount()

	c.JSON(http.StatusOK, health)
}

func (h *Handler) GetStats(c *gin.Context) {
	eventCount, err := h.eventRepo.GetEventCount()
	if err != nil {
		slog.Error("Database error", "operation", "get_event_count", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	configs := h.configCache.GetConfigs()
	enabled := 0
	for _, config := range configs {
		if config.Settings.Enabled {
			enabled++
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"events":          eventCount,
		"sources":         len(configs),
		"enabled_sources": enabled,
	})
}

func (h *Handler) APIListSources(c *gin.Context) {
	configs := h.configCache.GetConfigs()

	sourceList := make([]map[string]interface{}, 0, len(configs))
	for _, config := range configs {
		sourceList = append(sourceList, map[string]interface{}{
			"name":           config.Name,
			"type":           config.Type,
			"url":            config.URL,
			"enabled":        config.Settings.Enabled,
			"max_events":     config.Settings.MaxEvents,
			"max_start_time": config.Settings.MaxStartTime,
		})
	}

	c.JSON(http.StatusOK, map[string]interface{}{
		"sources": sourceList,
		"total":   len(sourceList),
	})
}

// APITriggerIndex enqueues an out-of-schedule indexing cycle.
func (h *Handler) APITriggerIndex(c *gin.Context) {
	indexTask := tasks.NewIndexEventsTask(h.finder)
	if err := h.scheduler.EnqueueTask(indexTask); err != nil {
		slog.Error("Error enqueueing index task", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to enqueue index task",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Indexing cycle enqueued",
		"task": gin.H{
			"id":   indexTask.ID,
			"type": indexTask.Type,
		},
	})
}

func eventsResponse(events []database.Event) []map[string]interface{} {
	out := make([]map[string]interface{}, 0, len(events))
	for _, event := range events {
		entry := map[string]interface{}{
			"id":          event.ID,
			"source_type": event.SourceType,
			"title":       event.Title,
			"start_time":  event.StartTime.Format(time.RFC3339),
			"location":    event.Location,
			"price":       event.Price,
			"url":         event.URL,
			"description": event.Description,
			"image_url":   event.ImageURL,
			"owner_name":  event.OwnerName,
			"owner_url":   event.OwnerURL,
			"ticket_url":  event.TicketURL,
		}
		if event.EndTime != nil {
			entry["end_time"] = event.EndTime.Format(time.RFC3339)
		}
		out = append(out, entry)
	}
	return out
}
