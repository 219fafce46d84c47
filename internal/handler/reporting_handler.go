package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/academica/registrar-api/internal/models"
	"github.com/academica/registrar-api/internal/service"
	"github.com/academica/registrar-api/pkg/response"
)

// ReportingHandler exposes roster, transcript and GPA reports.
type ReportingHandler struct {
	reports *service.ReportingService
}

// NewReportingHandler constructs ReportingHandler.
func NewReportingHandler(reports *service.ReportingService) *ReportingHandler {
	return &ReportingHandler{reports: reports}
}

// Roster godoc
// @Summary Course roster
// @Description One row per (offering, student) pair, every status included.
// @Tags Reports
// @Produce json
// @Param offeringId query string false "Scope to one offering"
// @Param courseId query string false "Scope to a course"
// @Param term query string false "Scope to a term"
// @Param year query int false "Scope to a year"
// @Success 200 {object} response.Envelope
// @Router /reports/roster [get]
func (h *ReportingHandler) Roster(c *gin.Context) {
	var filter models.RosterFilter
	filter.OfferingID = c.Query("offeringId")
	filter.CourseID = c.Query("courseId")
	filter.Term = models.Term(c.Query("term"))
	if year, err := strconv.Atoi(c.Query("year")); err == nil {
		filter.Year = year
	}
	rows, err := h.reports.Roster(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rows, nil)
}

// Transcript godoc
// @Summary Student transcript
// @Description Graded enrollments only; rows without a grade are excluded.
// @Tags Reports
// @Produce json
// @Param id path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /reports/transcript/{id} [get]
func (h *ReportingHandler) Transcript(c *gin.Context) {
	rows, err := h.reports.Transcript(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rows, nil)
}

// GPA godoc
// @Summary Student GPA
// @Description Credit-weighted GPA on the fixed letter scale. GPA is null for students without scale grades.
// @Tags Reports
// @Produce json
// @Param studentId query string false "Scope to one student"
// @Success 200 {object} response.Envelope
// @Router /reports/gpa [get]
func (h *ReportingHandler) GPA(c *gin.Context) {
	studentID := c.Param("id")
	if studentID == "" {
		studentID = c.Query("studentId")
	}
	rows, err := h.reports.GPA(c.Request.Context(), studentID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rows, nil)
}
