package handler

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"hrbackend/internal/middleware"
	"hrbackend/internal/repository"
	"hrbackend/internal/service"
	"hrbackend/internal/workflow"
	"hrbackend/pkg/response"

	"github.com/gin-gonic/gin"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type StatisticsHandler struct {
	statisticsService service.StatisticsService
	reportService     service.ReportService
	auth              *middleware.Auth
}

func NewStatisticsHandler(statisticsService service.StatisticsService, reportService service.ReportService, auth *middleware.Auth) *StatisticsHandler {
	return &StatisticsHandler{statisticsService: statisticsService, reportService: reportService, auth: auth}
}

func (h *StatisticsHandler) RegisterRoutes(router *gin.RouterGroup) {
	statsGroup := router.Group("/api/statistics", h.auth.RequireRole(workflow.RoleHR, workflow.RoleAdmin))
	{
		statsGroup.GET("/leaves", h.GetLeaveStatistics)
		statsGroup.GET("/summary", h.GetSummary)
		statsGroup.GET("/export.xlsx", h.ExportRequests)
	}
}

func queryYear(c *gin.Context) (int, bool) {
	raw := c.Query("year")
	if raw == "" {
		return 0, true
	}
	year, err := strconv.Atoi(raw)
	if err != nil || year < 1970 {
		badRequest(c, "invalid year: "+raw)
		return 0, false
	}
	return year, true
}

// @Summary      Leave statistics
// @Description  Counts leave requests of a year by status, type and start month. Defaults to the current year.
// @Tags         Statistics
// @Produce      json
// @Security     BearerAuth
// @Param        year  query     int  false  "Year"
// @Success      200   {object}  response.Response{data=model.LeaveStatistics}
// @Failure      400   {object}  response.Response
// @Router       /api/statistics/leaves [get]
func (h *StatisticsHandler) GetLeaveStatistics(c *gin.Context) {
	year, ok := queryYear(c)
	if !ok {
		return
	}
	stats, err := h.statisticsService.LeaveStatistics(c.Request.Context(), year)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, stats))
}

// @Summary      Request summary
// @Description  Pending, accepted and rejected counts per request kind. Without a year every request is counted.
// @Tags         Statistics
// @Produce      json
// @Security     BearerAuth
// @Param        year  query     int  false  "Year"
// @Success      200   {object}  response.Response{data=[]model.KindSummary}
// @Router       /api/statistics/summary [get]
func (h *StatisticsHandler) GetSummary(c *gin.Context) {
	year, ok := queryYear(c)
	if !ok {
		return
	}
	summary, err := h.statisticsService.Summary(c.Request.Context(), year)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, summary))
}

// @Summary      Export requests
// @Description  Streams an XLSX workbook of the requests matching kind and status.
// @Tags         Statistics
// @Produce      application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Security     BearerAuth
// @Param        kind    query  string  false  "LEAVE, MISSION or ADVANCE"
// @Param        status  query  string  false  "Status filter"
// @Success      200     {file}    file
// @Failure      400     {object}  response.Response
// @Router       /api/statistics/export.xlsx [get]
func (h *StatisticsHandler) ExportRequests(c *gin.Context) {
	filter := repository.RequestFilter{
		Kind:   workflow.Kind(strings.ToUpper(c.Query("kind"))),
		Status: workflow.Status(strings.ToUpper(c.Query("status"))),
	}
	if filter.Kind != "" && !filter.Kind.IsValid() {
		badRequest(c, "invalid kind: "+c.Query("kind"))
		return
	}
	if filter.Status != "" && !filter.Status.IsValid() {
		badRequest(c, "invalid status: "+c.Query("status"))
		return
	}

	var buf bytes.Buffer
	if err := h.reportService.ExportRequests(c.Request.Context(), &buf, filter); err != nil {
		respondError(c, err)
		return
	}

	name := "requests.xlsx"
	if filter.Kind != "" {
		name = strings.ToLower(string(filter.Kind)) + "-requests.xlsx"
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}
