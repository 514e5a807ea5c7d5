package api

import (
	"fmt"
	"strings"
	"time"

	"github.com/jakechorley/volunteer-events/pkg/core/model"
	"github.com/jakechorley/volunteer-events/pkg/core/services"
)

// timestampLayout is the display format of notification timestamps
const timestampLayout = "02.01.2006 15:04"

const dateLayout = "2006-01-02"

type skillResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Icon string `json:"icon"`
}

func toSkills(skills []model.Skill) []skillResponse {
	out := make([]skillResponse, len(skills))
	for i, s := range skills {
		out[i] = skillResponse{ID: s.ID, Name: s.Name, Icon: s.Icon}
	}
	return out
}

type profileResponse struct {
	ID          string          `json:"id"`
	Username    string          `json:"username"`
	Email       string          `json:"email,omitempty"`
	FirstName   string          `json:"first_name"`
	LastName    string          `json:"last_name"`
	DisplayName string          `json:"display_name"`
	Role        model.Role      `json:"role"`
	Bio         string          `json:"bio,omitempty"`
	Phone       string          `json:"phone,omitempty"`
	City        string          `json:"city,omitempty"`
	AvatarURL   string          `json:"avatar_url,omitempty"`
	Skills      []skillResponse `json:"skills"`
	CreatedAt   time.Time       `json:"created_at"`
}

func toProfile(p *model.Profile) profileResponse {
	return profileResponse{
		ID:          p.ID,
		Username:    p.Username,
		Email:       p.Email,
		FirstName:   p.FirstName,
		LastName:    p.LastName,
		DisplayName: p.DisplayName(),
		Role:        p.Role,
		Bio:         p.Bio,
		Phone:       p.Phone,
		City:        p.City,
		AvatarURL:   p.AvatarURL,
		Skills:      toSkills(p.Skills),
		CreatedAt:   p.CreatedAt,
	}
}

type eventResponse struct {
	ID              string          `json:"id"`
	Title           string          `json:"title"`
	Description     string          `json:"description"`
	Date            string          `json:"date"`
	Time            *string         `json:"time"`
	Location        string          `json:"location"`
	City            string          `json:"city"`
	OrganizerID     string          `json:"organizer_id"`
	RequiredSkills  []skillResponse `json:"required_skills"`
	MaxVolunteers   int             `json:"max_volunteers"`
	RegisteredCount int             `json:"registered_count"`
	SpotsLeft       int             `json:"spots_left"`
	IsFull          bool            `json:"is_full"`
	ImageURL        string          `json:"image_url,omitempty"`
	IsActive        bool            `json:"is_active"`
	URL             string          `json:"url"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

func toEvent(e *model.Event) eventResponse {
	var at *string
	if e.Time != nil {
		s := e.Time.String()
		at = &s
	}
	return eventResponse{
		ID:              e.ID,
		Title:           e.Title,
		Description:     e.Description,
		Date:            e.Date.Format(dateLayout),
		Time:            at,
		Location:        e.Location,
		City:            e.City,
		OrganizerID:     e.OrganizerID,
		RequiredSkills:  toSkills(e.RequiredSkills),
		MaxVolunteers:   e.MaxVolunteers,
		RegisteredCount: e.RegisteredCount(),
		SpotsLeft:       e.SpotsLeft(),
		IsFull:          e.IsFull(),
		ImageURL:        e.ImageURL,
		IsActive:        e.IsActive,
		URL:             model.EventPath(e.ID),
		CreatedAt:       e.CreatedAt,
		UpdatedAt:       e.UpdatedAt,
	}
}

func toEvents(events []model.Event) []eventResponse {
	out := make([]eventResponse, len(events))
	for i := range events {
		out[i] = toEvent(&events[i])
	}
	return out
}

type registrationResponse struct {
	ID          string                   `json:"id"`
	EventID     string                   `json:"event_id"`
	VolunteerID string                   `json:"volunteer_id"`
	Status      model.RegistrationStatus `json:"status"`
	Message     string                   `json:"message"`
	CreatedAt   time.Time                `json:"created_at"`
	UpdatedAt   time.Time                `json:"updated_at"`
	Volunteer   *profileResponse         `json:"volunteer,omitempty"`
}

func toRegistration(r *model.Registration) registrationResponse {
	return registrationResponse{
		ID:          r.ID,
		EventID:     r.EventID,
		VolunteerID: r.VolunteerID,
		Status:      r.Status,
		Message:     r.Message,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

func toEventRegistrations(regs []services.EventRegistration) []registrationResponse {
	out := make([]registrationResponse, len(regs))
	for i := range regs {
		out[i] = toRegistration(&regs[i].Registration)
		if regs[i].Volunteer != nil {
			p := toProfile(regs[i].Volunteer)
			out[i].Volunteer = &p
		}
	}
	return out
}

// notificationResponse is an item of the polling contract
type notificationResponse struct {
	ID        string                 `json:"id"`
	Type      model.NotificationType `json:"type"`
	Title     string                 `json:"title"`
	Message   string                 `json:"message"`
	Icon      string                 `json:"icon"`
	IsRead    bool                   `json:"is_read"`
	CreatedAt string                 `json:"created_at"`
	URL       *string                `json:"url"`
}

func toNotifications(list []model.Notification) []notificationResponse {
	out := make([]notificationResponse, len(list))
	for i, n := range list {
		out[i] = notificationResponse{
			ID:        n.ID,
			Type:      n.Type,
			Title:     n.Title,
			Message:   n.Message,
			Icon:      n.Icon(),
			IsRead:    n.IsRead,
			CreatedAt: n.CreatedAt.Format(timestampLayout),
			URL:       n.URL(),
		}
	}
	return out
}

type countResponse struct {
	Count int `json:"count"`
}

type latestResponse struct {
	Notifications []notificationResponse `json:"notifications"`
	Count         int                    `json:"count"`
}

type notificationListResponse struct {
	Notifications []notificationResponse `json:"notifications"`
	UnreadCount   int                    `json:"unread_count"`
	Filter        services.ReadFilter    `json:"filter"`
}

type eventDetailResponse struct {
	Event          eventResponse          `json:"event"`
	Organizer      profileResponse        `json:"organizer"`
	Registrations  []registrationResponse `json:"registrations"`
	MyRegistration *registrationResponse  `json:"my_registration"`
	CanRegister    bool                   `json:"can_register"`
}

type myEventResponse struct {
	Event             eventResponse         `json:"event"`
	RegistrationCount *int                  `json:"registration_count,omitempty"`
	Registration      *registrationResponse `json:"registration,omitempty"`
}

type volunteerResponse struct {
	Profile         profileResponse `json:"profile"`
	CompletedEvents int             `json:"completed_events"`
}

type tokenResponse struct {
	Token   string          `json:"token"`
	Profile profileResponse `json:"profile"`
}

type messageResponse struct {
	Message string `json:"message"`
}

// eventRequest is the body of event create and edit
type eventRequest struct {
	Title         string   `json:"title"`
	Description   string   `json:"description"`
	Date          string   `json:"date"`
	Time          string   `json:"time"`
	Location      string   `json:"location"`
	City          string   `json:"city"`
	SkillIDs      []string `json:"skill_ids"`
	MaxVolunteers int      `json:"max_volunteers"`
	ImageURL      string   `json:"image_url"`
	IsActive      *bool    `json:"is_active"`
}

func (r eventRequest) attrs() (services.EventAttrs, error) {
	date, err := time.Parse(dateLayout, strings.TrimSpace(r.Date))
	if err != nil {
		return services.EventAttrs{}, fmt.Errorf("%w: date must be YYYY-MM-DD", model.ErrInvalidInput)
	}
	attrs := services.EventAttrs{
		Title:         strings.TrimSpace(r.Title),
		Description:   r.Description,
		Date:          date,
		Location:      strings.TrimSpace(r.Location),
		City:          strings.TrimSpace(r.City),
		SkillIDs:      r.SkillIDs,
		MaxVolunteers: r.MaxVolunteers,
		ImageURL:      r.ImageURL,
		IsActive:      r.IsActive,
	}
	if strings.TrimSpace(r.Time) != "" {
		attrs.Time, err = model.ParseTimeOfDay(r.Time)
		if err != nil {
			return services.EventAttrs{}, err
		}
	}
	return attrs, nil
}

type seriesRequest struct {
	eventRequest
	RRule string `json:"rrule"`
}

type accountRequest struct {
	Username  string   `json:"username"`
	Email     string   `json:"email"`
	FirstName string   `json:"first_name"`
	LastName  string   `json:"last_name"`
	Password  string   `json:"password"`
	Role      string   `json:"role"`
	City      string   `json:"city"`
	SkillIDs  []string `json:"skill_ids"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type profileRequest struct {
	Email     string   `json:"email"`
	FirstName string   `json:"first_name"`
	LastName  string   `json:"last_name"`
	Role      string   `json:"role"`
	Bio       string   `json:"bio"`
	Phone     string   `json:"phone"`
	City      string   `json:"city"`
	AvatarURL string   `json:"avatar_url"`
	SkillIDs  []string `json:"skill_ids"`
}

type registerRequest struct {
	Message string `json:"message"`
}

type decisionRequest struct {
	Decision model.Decision `json:"decision"`
}
