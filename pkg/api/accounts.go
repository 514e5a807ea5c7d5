package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/jakechorley/volunteer-events/pkg/core/model"
	"github.com/jakechorley/volunteer-events/pkg/core/services"
)

func (s *Server) createAccount(c *gin.Context) {
	var req accountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	params := services.AccountParams{
		Username:  req.Username,
		Email:     req.Email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Password:  req.Password,
		City:      req.City,
		SkillIDs:  req.SkillIDs,
	}
	if req.Role != "" {
		role, err := model.ParseRole(req.Role)
		if err != nil {
			abortWithError(c, s.logger, err)
			return
		}
		params.Role = role
	}

	profile, err := services.CreateAccount(c.Request.Context(), s.database, s.logger, params)
	if err != nil {
		abortWithError(c, s.logger, err)
		return
	}
	token, err := s.tokens.Issue(profile.ID)
	if err != nil {
		abortWithError(c, s.logger, err)
		return
	}
	c.JSON(http.StatusCreated, tokenResponse{Token: token, Profile: toProfile(profile)})
}

func (s *Server) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	profile, token, err := services.Authenticate(c.Request.Context(), s.database, s.tokens, s.logger, req.Username, req.Password)
	if err != nil {
		if errors.Is(err, model.ErrInvalidCredentials) {
			s.metrics.failedLogins.Inc()
		}
		abortWithError(c, s.logger, err)
		return
	}
	c.JSON(http.StatusOK, tokenResponse{Token: token, Profile: toProfile(profile)})
}

func (s *Server) getProfile(c *gin.Context) {
	profile, err := services.GetProfile(c.Request.Context(), s.database, actorID(c))
	if err != nil {
		abortWithError(c, s.logger, err)
		return
	}
	c.JSON(http.StatusOK, toProfile(profile))
}

func (s *Server) updateProfile(c *gin.Context) {
	var req profileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	attrs := services.ProfileAttrs{
		Email:     req.Email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Bio:       req.Bio,
		Phone:     req.Phone,
		City:      req.City,
		AvatarURL: req.AvatarURL,
		SkillIDs:  req.SkillIDs,
	}
	if req.Role != "" {
		role, err := model.ParseRole(req.Role)
		if err != nil {
			abortWithError(c, s.logger, err)
			return
		}
		attrs.Role = role
	}

	profile, err := services.UpdateProfile(c.Request.Context(), s.database, s.logger, actorID(c), attrs)
	if err != nil {
		abortWithError(c, s.logger, err)
		return
	}
	c.JSON(http.StatusOK, toProfile(profile))
}

func (s *Server) searchVolunteers(c *gin.Context) {
	var skillIDs []string
	for _, v := range c.QueryArray("skill") {
		for _, id := range strings.Split(v, ",") {
			if id = strings.TrimSpace(id); id != "" {
				skillIDs = append(skillIDs, id)
			}
		}
	}

	volunteers, err := services.SearchVolunteers(c.Request.Context(), s.database, actorID(c), skillIDs, c.Query("city"))
	if err != nil {
		abortWithError(c, s.logger, err)
		return
	}

	out := make([]profileResponse, len(volunteers))
	for i := range volunteers {
		out[i] = toProfile(&volunteers[i])
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) volunteerProfile(c *gin.Context) {
	summary, err := services.VolunteerProfile(c.Request.Context(), s.database, c.Param("id"))
	if err != nil {
		abortWithError(c, s.logger, err)
		return
	}
	profile := toProfile(summary.Profile)
	// contact details stay private on the public page
	profile.Email = ""
	profile.Phone = ""
	c.JSON(http.StatusOK, volunteerResponse{Profile: profile, CompletedEvents: summary.CompletedEvents})
}
