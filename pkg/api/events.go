package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jakechorley/volunteer-events/pkg/core/services"
)

func (s *Server) listEvents(c *gin.Context) {
	events, err := services.ListEvents(c.Request.Context(), s.database, services.ListEventsParams{
		SkillID: c.Query("skill"),
		City:    c.Query("city"),
		Search:  c.Query("search"),
	})
	if err != nil {
		abortWithError(c, s.logger, err)
		return
	}
	c.JSON(http.StatusOK, toEvents(events))
}

func (s *Server) eventDetail(c *gin.Context) {
	details, err := services.EventDetail(c.Request.Context(), s.database, c.Param("id"), actorID(c))
	if err != nil {
		abortWithError(c, s.logger, err)
		return
	}

	resp := eventDetailResponse{
		Event:         toEvent(details.Event),
		Organizer:     toProfile(details.Organizer),
		Registrations: toEventRegistrations(details.Registrations),
		CanRegister:   details.CanRegister,
	}
	if details.MyRegistration != nil {
		r := toRegistration(details.MyRegistration)
		resp.MyRegistration = &r
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) createEvent(c *gin.Context) {
	var req eventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	attrs, err := req.attrs()
	if err != nil {
		abortWithError(c, s.logger, err)
		return
	}

	event, err := services.CreateEvent(c.Request.Context(), s.database, s.logger, actorID(c), attrs)
	if err != nil {
		abortWithError(c, s.logger, err)
		return
	}
	c.JSON(http.StatusCreated, toEvent(event))
}

func (s *Server) createEventSeries(c *gin.Context) {
	var req seriesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	attrs, err := req.attrs()
	if err != nil {
		abortWithError(c, s.logger, err)
		return
	}

	events, err := services.CreateEventSeries(c.Request.Context(), s.database, s.logger, actorID(c), attrs, req.RRule, s.opts.SeriesMaxOccurrences)
	if err != nil {
		abortWithError(c, s.logger, err)
		return
	}
	c.JSON(http.StatusCreated, toEvents(events))
}

func (s *Server) editEvent(c *gin.Context) {
	var req eventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	attrs, err := req.attrs()
	if err != nil {
		abortWithError(c, s.logger, err)
		return
	}

	event, err := services.EditEvent(c.Request.Context(), s.database, s.logger, c.Param("id"), actorID(c), attrs)
	if err != nil {
		abortWithError(c, s.logger, err)
		return
	}
	c.JSON(http.StatusOK, toEvent(event))
}

func (s *Server) deleteEvent(c *gin.Context) {
	if err := services.DeleteEvent(c.Request.Context(), s.database, s.logger, c.Param("id"), actorID(c)); err != nil {
		abortWithError(c, s.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) myEvents(c *gin.Context) {
	mine, err := services.MyEvents(c.Request.Context(), s.database, actorID(c))
	if err != nil {
		abortWithError(c, s.logger, err)
		return
	}

	out := make([]myEventResponse, len(mine))
	for i, m := range mine {
		out[i] = myEventResponse{Event: toEvent(&m.Event)}
		if m.Registration != nil {
			r := toRegistration(m.Registration)
			out[i].Registration = &r
		} else {
			count := m.RegistrationCount
			out[i].RegistrationCount = &count
		}
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) listSkills(c *gin.Context) {
	skills, err := services.ListSkills(c.Request.Context(), s.database)
	if err != nil {
		abortWithError(c, s.logger, err)
		return
	}
	c.JSON(http.StatusOK, toSkills(skills))
}

func (s *Server) listCities(c *gin.Context) {
	cities, err := services.ListCities(c.Request.Context(), s.database)
	if err != nil {
		abortWithError(c, s.logger, err)
		return
	}
	if cities == nil {
		cities = []string{}
	}
	c.JSON(http.StatusOK, cities)
}
