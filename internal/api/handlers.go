package api

import (
	"bytes"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"goeat/internal/audit"
	"goeat/internal/hours"
	"goeat/internal/model"
)

func (s *Server) handleGetOwnHours(c *gin.Context) {
	s.writeFullStatus(c, authenticatedPartner(c))
}

func (s *Server) handleGetPartnerHours(c *gin.Context) {
	id, ok := pathPartnerID(c)
	if !ok {
		return
	}
	s.writeFullStatus(c, id)
}

func (s *Server) writeFullStatus(c *gin.Context, partnerID uuid.UUID) {
	status, err := s.svc.GetFullStatus(c.Request.Context(), partnerID)
	if err != nil {
		s.writeServiceError(c, err, "get operating hours")
		return
	}
	c.JSON(http.StatusOK, toFullStatusResponse(status))
}

func (s *Server) handleReplaceSchedule(c *gin.Context) {
	var req replaceScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid JSON body")
		return
	}

	days := make([]hours.DayInput, 0, len(req.Schedules))
	for _, d := range req.Schedules {
		days = append(days, d.toInput())
	}

	status, err := s.svc.ReplaceSchedule(c.Request.Context(), authenticatedPartner(c), days)
	if err != nil {
		s.writeServiceError(c, err, "update operating hours")
		return
	}
	c.JSON(http.StatusOK, toFullStatusResponse(status))
}

func (s *Server) handleSetManualStatus(c *gin.Context) {
	var req manualStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.IsOpen == nil {
		writeError(c, http.StatusBadRequest, "field 'isOpen' is required")
		return
	}

	if err := s.svc.SetManualStatus(c.Request.Context(), authenticatedPartner(c), *req.IsOpen); err != nil {
		s.writeServiceError(c, err, "update manual status")
		return
	}
	c.Status(http.StatusOK)
}

func (s *Server) handleUpsertDay(c *gin.Context) {
	day, err := model.ParseDayOfWeek(c.Param("dayOfWeek"))
	if err != nil {
		writeError(c, http.StatusBadRequest, err.Error())
		return
	}

	var req dayRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid JSON body")
		return
	}

	entry, err := s.svc.UpsertSingleDay(c.Request.Context(), authenticatedPartner(c), day, req.toInput())
	if err != nil {
		s.writeServiceError(c, err, "update day operating hours")
		return
	}
	c.JSON(http.StatusOK, toScheduleDTO(*entry))
}

func (s *Server) handlePartnerStatus(c *gin.Context) {
	id, ok := pathPartnerID(c)
	if !ok {
		return
	}

	st, err := s.svc.Status(c.Request.Context(), id)
	if err != nil {
		s.writeServiceError(c, err, "get partner status")
		return
	}
	c.JSON(http.StatusOK, partnerStatusResponse{
		IsOpenNow:      st.IsOpenNow,
		IsScheduleOpen: st.IsScheduleOpen,
		IsManuallyOpen: st.IsManuallyOpen,
	})
}

func (s *Server) handleExport(c *gin.Context) {
	if s.exporter == nil {
		writeError(c, http.StatusNotFound, "export not configured")
		return
	}

	var buf bytes.Buffer
	if err := s.exporter.Export(c.Request.Context(), &buf); err != nil {
		s.logger.Error().Err(err).Msg("export operating hours")
		writeError(c, http.StatusInternalServerError, "internal error")
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+audit.Filename(time.Now())+`"`)
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", buf.Bytes())
}

func pathPartnerID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("partnerId"))
	if err != nil {
		writeError(c, http.StatusBadRequest, "invalid partner id")
		return uuid.Nil, false
	}
	return id, true
}

// writeServiceError maps service errors to status codes; internals stay opaque.
func (s *Server) writeServiceError(c *gin.Context, err error, op string) {
	switch {
	case hours.IsNotFound(err):
		writeError(c, http.StatusNotFound, err.Error())
	case hours.IsInvalidArgument(err):
		writeError(c, http.StatusBadRequest, err.Error())
	default:
		s.logger.Error().Err(err).Str("op", op).Msg("request failed")
		writeError(c, http.StatusInternalServerError, "internal error")
	}
}

func writeError(c *gin.Context, status int, msg string) {
	c.JSON(status, errorResponse{Error: msg})
}

func abortWithError(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, errorResponse{Error: msg})
}
