package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/explorenyc/eventcomb/app/cache"
	"github.com/explorenyc/eventcomb/app/cfg"
	"github.com/explorenyc/eventcomb/app/config"
	"github.com/explorenyc/eventcomb/app/database"
	"github.com/explorenyc/eventcomb/app/events"
	"github.com/explorenyc/eventcomb/app/metrics"
	"github.com/explorenyc/eventcomb/app/tasks"
)

const defaultDiscoverLookahead = 30 * 24 * time.Hour

func NewHandler(aggregator *events.Aggregator, sources map[string]events.Source,
	configCache *config.Cache, eventRepo database.EventRepository,
	refreshRepo database.SourceRefreshRepository, scheduler tasks.TaskSchedulerInterface,
	resultCache *cache.Cache, maxResults, defaultPageSize int) *Handler {
	return &Handler{
		aggregator:      aggregator,
		sources:         sources,
		configCache:     configCache,
		eventRepo:       eventRepo,
		refreshRepo:     refreshRepo,
		scheduler:       scheduler,
		resultCache:     resultCache,
		maxResults:      maxResults,
		defaultPageSize: defaultPageSize,
	}
}

// Discover runs one aggregation call: fan out, dedupe, score, rank, page.
func (h *Handler) Discover(c *gin.Context) {
	var req DiscoverRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	profile, err := req.Profile.toProfile()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	now := time.Now()
	window := events.TimeWindow{From: now, To: now.Add(defaultDiscoverLookahead)}
	if req.Window.From != nil {
		window.From = *req.Window.From
	}
	if req.Window.To != nil {
		window.To = *req.Window.To
	}

	page := req.Page
	if page == 0 {
		page = 1
	}
	pageSize := req.PageSize
	if pageSize == 0 {
		pageSize = h.defaultPageSize
	}

	var cacheKey string
	if h.resultCache != nil {
		cacheKey = cache.ResultKey(profile, window, page, pageSize)
		if body, hit, err := h.resultCache.GetResult(c.Request.Context(), cacheKey); err != nil {
			slog.Error("Result cache read failed", "error", err)
		} else if hit {
			metrics.CacheHit()
			c.Header("X-Cache", "HIT")
			c.Data(http.StatusOK, "application/json; charset=utf-8", body)
			return
		} else {
			metrics.CacheMiss()
		}
	}

	pageEvents, total, statuses, err := h.aggregator.Run(c.Request.Context(), profile, window, page, pageSize)
	if err != nil {
		var verr *events.ValidationError
		if errors.As(err, &verr) {
			c.JSON(http.StatusBadRequest, gin.H{"error": verr.Error()})
			return
		}
		slog.Error("Aggregation failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Aggregation failed"})
		return
	}

	resp := DiscoverResponse{
		Events:     make([]ScoredEventResponse, 0, len(pageEvents)),
		TotalCount: total,
		Page:       page,
		PageSize:   pageSize,
		Degraded:   degraded(statuses),
		Sources:    toStatusResponses(statuses),
	}
	for _, e := range pageEvents {
		resp.Events = append(resp.Events, toScoredEventResponse(e))
	}

	if h.resultCache != nil {
		if body, err := json.Marshal(resp); err == nil {
			if err := h.resultCache.SetResult(c.Request.Context(), cacheKey, body); err != nil {
				slog.Error("Result cache write failed", "error", err)
			}
		}
	}

	c.Header("X-Cache", "MISS")
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) GetHealth(c *gin.Context) {
	health := map[string]interface{}{
		"timestamp": time.Now().In(time.Local).Format(time.RFC3339),
		"version":   cfg.GetVersion(),
	}

	if eventCount, err := h.eventRepo.GetEventCount(); err == nil {
		health["archived_events"] = eventCount
	}

	health["loaded_sources"] = h.configCache.GetConfigCount()

	c.JSON(http.StatusOK, health)
}

func (h *Handler) GetStats(c *gin.Context) {
	stats, err := h.eventRepo.GetStats(time.Now())
	if err != nil {
		slog.Error("Database error", "operation", "get_stats", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	c.JSON(http.StatusOK, map[string]interface{}{
		"total_events": stats.TotalEvents,
		"by_category":  stats.ByCategory,
		"by_borough":   stats.ByBorough,
		"free_events":  stats.FreeCount,
		"paid_events":  stats.PaidCount,
		"upcoming":     stats.UpcomingCount,
		"this_week":    stats.ThisWeekCount,
	})
}

func (h *Handler) APIListSources(c *gin.Context) {
	configs := h.configCache.GetConfigs()

	refreshes := make(map[string]database.SourceRefresh)
	if rows, err := h.refreshRepo.GetRefreshes(); err == nil {
		for _, r := range rows {
			refreshes[r.Source] = r
		}
	}

	sources := make([]map[string]interface{}, 0, len(configs))
	for _, sourceConfig := range configs {
		info := map[string]interface{}{
			"name":        sourceConfig.Name,
			"type":        string(sourceConfig.Type),
			"url":         sourceConfig.URL,
			"enabled":     sourceConfig.Enabled,
			"priority":    sourceConfig.Priority,
			"timeout":     (time.Duration(sourceConfig.Settings.Timeout) * time.Second).String(),
			"max_results": sourceConfig.Settings.MaxResults,
		}

		if r, ok := refreshes[sourceConfig.Name]; ok {
			info["last_refreshed_at"] = r.LastRefreshed
			info["last_ok"] = r.LastOK
			info["last_error"] = r.LastError
			info["fetched_count"] = r.FetchedCount
			info["skipped_count"] = r.SkippedCount
		}

		sources = append(sources, info)
	}

	c.JSON(http.StatusOK, map[string]interface{}{
		"sources": sources,
		"total":   len(sources),
	})
}

func (h *Handler) APIRefreshSource(c *gin.Context) {
	name := c.Param("name")
	if name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing source name parameter"})
		return
	}

	if _, err := h.configCache.GetConfig(name); err != nil {
		slog.Error("Source configuration not found", "source", name, "error", err)
		c.JSON(http.StatusNotFound, gin.H{"error": "Source configuration not found"})
		return
	}

	src, ok := h.sources[name]
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Source is not enabled"})
		return
	}

	task := tasks.NewRefreshSourceTask(name, src, h.eventRepo, h.refreshRepo, h.maxResults)
	if err := h.scheduler.EnqueueTask(task); err != nil {
		slog.Error("Error enqueueing refresh task", "source", name, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to enqueue refresh task",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Refresh task enqueued successfully",
		"task": gin.H{
			"id":   task.ID,
			"type": task.Type,
		},
	})
}

func degraded(statuses []events.AdapterStatus) bool {
	if len(statuses) == 0 {
		return false
	}
	for _, s := range statuses {
		if s.OK {
			return false
		}
	}
	return true
}
