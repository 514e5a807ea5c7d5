package memdb

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"strings"
	"time"

	"github.com/jakechorley/volunteer-events/pkg/core/model"
	"github.com/jakechorley/volunteer-events/pkg/db"
)

// state holds every table. Its methods assume the caller holds the DB lock.
type state struct {
	seq           int64
	skills        map[string]model.Skill
	profiles      map[string]model.Profile
	profileSkills map[string][]string
	events        map[string]model.Event
	eventSkills   map[string][]string
	registrations map[string]model.Registration
	notifications map[string]model.Notification
	notifSeq      map[string]int64
	deliveries    map[string]db.DeliveryStatus
}

func newState() *state {
	return &state{
		skills:        map[string]model.Skill{},
		profiles:      map[string]model.Profile{},
		profileSkills: map[string][]string{},
		events:        map[string]model.Event{},
		eventSkills:   map[string][]string{},
		registrations: map[string]model.Registration{},
		notifications: map[string]model.Notification{},
		notifSeq:      map[string]int64{},
		deliveries:    map[string]db.DeliveryStatus{},
	}
}

func cloneMap[K comparable, V any](m map[K]V) map[K]V {
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func cloneSliceMap(m map[string][]string) map[string][]string {
	out := make(map[string][]string, len(m))
	for k, v := range m {
		out[k] = slices.Clone(v)
	}
	return out
}

func (s *state) clone() *state {
	return &state{
		seq:           s.seq,
		skills:        cloneMap(s.skills),
		profiles:      cloneMap(s.profiles),
		profileSkills: cloneSliceMap(s.profileSkills),
		events:        cloneMap(s.events),
		eventSkills:   cloneSliceMap(s.eventSkills),
		registrations: cloneMap(s.registrations),
		notifications: cloneMap(s.notifications),
		notifSeq:      cloneMap(s.notifSeq),
		deliveries:    cloneMap(s.deliveries),
	}
}

func notFound(what, id string) error {
	return fmt.Errorf("%s %s: %w", what, id, db.ErrNoRows)
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

// Skills

func (s *state) ListSkills(ctx context.Context) ([]model.Skill, error) {
	out := make([]model.Skill, 0, len(s.skills))
	for _, sk := range s.skills {
		out = append(out, sk)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *state) GetSkillsByIDs(ctx context.Context, ids []string) ([]model.Skill, error) {
	return s.skillsByIDs(ids), nil
}

func (s *state) skillsByIDs(ids []string) []model.Skill {
	var out []model.Skill
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if sk, ok := s.skills[id]; ok && !seen[id] {
			seen[id] = true
			out = append(out, sk)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (s *state) InsertSkillIfMissing(ctx context.Context, skill *model.Skill) (bool, error) {
	for _, existing := range s.skills {
		if existing.Name == skill.Name {
			skill.ID = existing.ID
			return false, nil
		}
	}
	s.skills[skill.ID] = *skill
	return true, nil
}

// Profiles

func (s *state) InsertProfile(ctx context.Context, p *model.Profile) error {
	if _, ok := s.profiles[p.ID]; ok {
		return fmt.Errorf("profile id %s: %w", p.ID, db.ErrUniqueViolation)
	}
	for _, existing := range s.profiles {
		if existing.Username == p.Username {
			return fmt.Errorf("username %s: %w", p.Username, db.ErrUniqueViolation)
		}
	}
	stored := *p
	stored.Skills = nil
	s.profiles[p.ID] = stored
	return nil
}

func (s *state) profile(id string) (*model.Profile, error) {
	p, ok := s.profiles[id]
	if !ok {
		return nil, notFound("profile", id)
	}
	p.Skills = s.skillsByIDs(s.profileSkills[id])
	return &p, nil
}

func (s *state) GetProfile(ctx context.Context, id string) (*model.Profile, error) {
	return s.profile(id)
}

func (s *state) GetProfileByUsername(ctx context.Context, username string) (*model.Profile, error) {
	for id, p := range s.profiles {
		if p.Username == username {
			return s.profile(id)
		}
	}
	return nil, notFound("profile", username)
}

func (s *state) UpdateProfile(ctx context.Context, p *model.Profile) error {
	existing, ok := s.profiles[p.ID]
	if !ok {
		return notFound("profile", p.ID)
	}
	existing.Email = p.Email
	existing.FirstName = p.FirstName
	existing.LastName = p.LastName
	existing.Role = p.Role
	existing.Bio = p.Bio
	existing.Phone = p.Phone
	existing.City = p.City
	existing.AvatarURL = p.AvatarURL
	s.profiles[p.ID] = existing
	return nil
}

func (s *state) SetProfileSkills(ctx context.Context, profileID string, skillIDs []string) error {
	if _, ok := s.profiles[profileID]; !ok {
		return notFound("profile", profileID)
	}
	known, err := s.knownSkillIDs(skillIDs)
	if err != nil {
		return err
	}
	s.profileSkills[profileID] = known
	return nil
}

// knownSkillIDs deduplicates ids and rejects any that is not in the catalog
func (s *state) knownSkillIDs(ids []string) ([]string, error) {
	var out []string
	for _, id := range ids {
		if _, ok := s.skills[id]; !ok {
			return nil, fmt.Errorf("skill %s: %w", id, db.ErrUnknownReference)
		}
		if !slices.Contains(out, id) {
			out = append(out, id)
		}
	}
	return out, nil
}

func (s *state) SearchVolunteers(ctx context.Context, filter db.VolunteerFilter) ([]model.Profile, error) {
	var out []model.Profile
	for id, p := range s.profiles {
		if p.Role != model.RoleVolunteer {
			continue
		}
		if len(filter.SkillIDs) > 0 && !anyShared(s.profileSkills[id], filter.SkillIDs) {
			continue
		}
		if city := strings.TrimSpace(filter.City); city != "" && !containsFold(p.City, city) {
			continue
		}
		full, _ := s.profile(id)
		out = append(out, *full)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.LastName != b.LastName {
			return a.LastName < b.LastName
		}
		if a.FirstName != b.FirstName {
			return a.FirstName < b.FirstName
		}
		return a.Username < b.Username
	})
	return out, nil
}

func anyShared(a, b []string) bool {
	for _, x := range a {
		if slices.Contains(b, x) {
			return true
		}
	}
	return false
}

func (s *state) CountCompletedEvents(ctx context.Context, volunteerID string, before time.Time) (int, error) {
	count := 0
	for _, r := range s.registrations {
		if r.VolunteerID != volunteerID || r.Status != model.StatusApproved {
			continue
		}
		if e, ok := s.events[r.EventID]; ok && e.Date.Before(before) {
			count++
		}
	}
	return count, nil
}

// Events

func (s *state) approvedCount(eventID string) int {
	count := 0
	for _, r := range s.registrations {
		if r.EventID == eventID && r.Status == model.StatusApproved {
			count++
		}
	}
	return count
}

func (s *state) event(id string) (*model.Event, error) {
	e, ok := s.events[id]
	if !ok {
		return nil, notFound("event", id)
	}
	e.RequiredSkills = s.skillsByIDs(s.eventSkills[id])
	e.ApprovedCount = s.approvedCount(id)
	return &e, nil
}

func (s *state) InsertEvent(ctx context.Context, e *model.Event) error {
	if _, ok := s.events[e.ID]; ok {
		return fmt.Errorf("event id %s: %w", e.ID, db.ErrUniqueViolation)
	}
	if _, ok := s.profiles[e.OrganizerID]; !ok {
		return fmt.Errorf("event organizer: %w", notFound("profile", e.OrganizerID))
	}
	stored := *e
	stored.RequiredSkills = nil
	stored.ApprovedCount = 0
	s.events[e.ID] = stored
	return nil
}

func (s *state) UpdateEvent(ctx context.Context, e *model.Event) error {
	existing, ok := s.events[e.ID]
	if !ok {
		return notFound("event", e.ID)
	}
	existing.Title = e.Title
	existing.Description = e.Description
	existing.Date = e.Date
	existing.Time = e.Time
	existing.Location = e.Location
	existing.City = e.City
	existing.MaxVolunteers = e.MaxVolunteers
	existing.ImageURL = e.ImageURL
	existing.IsActive = e.IsActive
	existing.UpdatedAt = e.UpdatedAt
	s.events[e.ID] = existing
	return nil
}

func (s *state) SetEventSkills(ctx context.Context, eventID string, skillIDs []string) error {
	if _, ok := s.events[eventID]; !ok {
		return notFound("event", eventID)
	}
	known, err := s.knownSkillIDs(skillIDs)
	if err != nil {
		return err
	}
	s.eventSkills[eventID] = known
	return nil
}

func (s *state) DeleteEvent(ctx context.Context, id string) error {
	if _, ok := s.events[id]; !ok {
		return notFound("event", id)
	}
	delete(s.events, id)
	delete(s.eventSkills, id)

	removedRegs := map[string]bool{}
	for rid, r := range s.registrations {
		if r.EventID == id {
			removedRegs[rid] = true
			delete(s.registrations, rid)
		}
	}
	for nid, n := range s.notifications {
		if n.EventID == id || removedRegs[n.RegistrationID] {
			delete(s.notifications, nid)
			delete(s.notifSeq, nid)
			delete(s.deliveries, nid)
		}
	}
	return nil
}

func (s *state) GetEvent(ctx context.Context, id string) (*model.Event, error) {
	return s.event(id)
}

// LockEvent needs no extra locking: the DB lock is held for the whole transaction
func (s *state) LockEvent(ctx context.Context, id string) (*model.Event, error) {
	return s.event(id)
}

func (s *state) ListEvents(ctx context.Context, filter db.EventFilter) ([]model.Event, error) {
	return s.collectEvents(func(e model.Event) bool {
		if filter.ActiveOnly && !e.IsActive {
			return false
		}
		if !filter.From.IsZero() && e.Date.Before(filter.From) {
			return false
		}
		if filter.SkillID != "" && !slices.Contains(s.eventSkills[e.ID], filter.SkillID) {
			return false
		}
		if city := strings.TrimSpace(filter.City); city != "" && !containsFold(e.City, city) {
			return false
		}
		if search := strings.TrimSpace(filter.Search); search != "" &&
			!containsFold(e.Title, search) && !containsFold(e.Description, search) {
			return false
		}
		return true
	}), nil
}

func (s *state) ListEventsByOrganizer(ctx context.Context, organizerID string) ([]model.Event, error) {
	return s.collectEvents(func(e model.Event) bool { return e.OrganizerID == organizerID }), nil
}

func (s *state) ListEventsByVolunteer(ctx context.Context, volunteerID string, statuses []model.RegistrationStatus) ([]model.Event, error) {
	eventIDs := map[string]bool{}
	for _, r := range s.registrations {
		if r.VolunteerID != volunteerID {
			continue
		}
		if len(statuses) > 0 && !slices.Contains(statuses, r.Status) {
			continue
		}
		eventIDs[r.EventID] = true
	}
	return s.collectEvents(func(e model.Event) bool { return eventIDs[e.ID] }), nil
}

func (s *state) ListCities(ctx context.Context) ([]string, error) {
	seen := map[string]bool{}
	var cities []string
	for _, e := range s.events {
		if e.City != "" && !seen[e.City] {
			seen[e.City] = true
			cities = append(cities, e.City)
		}
	}
	sort.Strings(cities)
	return cities, nil
}

func (s *state) collectEvents(keep func(model.Event) bool) []model.Event {
	var out []model.Event
	for id, e := range s.events {
		if !keep(e) {
			continue
		}
		full, _ := s.event(id)
		out = append(out, *full)
	}
	sort.Slice(out, func(i, j int) bool { return eventLess(out[i], out[j]) })
	return out
}

// eventLess orders by date, then time with missing times last, then creation
func eventLess(a, b model.Event) bool {
	if !a.Date.Equal(b.Date) {
		return a.Date.Before(b.Date)
	}
	switch {
	case a.Time != nil && b.Time != nil && a.Time.Minutes() != b.Time.Minutes():
		return a.Time.Minutes() < b.Time.Minutes()
	case a.Time != nil && b.Time == nil:
		return true
	case a.Time == nil && b.Time != nil:
		return false
	}
	return a.CreatedAt.Before(b.CreatedAt)
}

// Registrations

func (s *state) InsertRegistration(ctx context.Context, r *model.Registration) error {
	if _, ok := s.events[r.EventID]; !ok {
		return fmt.Errorf("registration event: %w", notFound("event", r.EventID))
	}
	if _, ok := s.profiles[r.VolunteerID]; !ok {
		return fmt.Errorf("registration volunteer: %w", notFound("profile", r.VolunteerID))
	}
	for _, existing := range s.registrations {
		if existing.EventID == r.EventID && existing.VolunteerID == r.VolunteerID {
			return fmt.Errorf("registration_event_volunteer_key: %w", db.ErrUniqueViolation)
		}
	}
	s.registrations[r.ID] = *r
	return nil
}

func (s *state) GetRegistration(ctx context.Context, id string) (*model.Registration, error) {
	r, ok := s.registrations[id]
	if !ok {
		return nil, notFound("registration", id)
	}
	return &r, nil
}

func (s *state) FindRegistration(ctx context.Context, eventID, volunteerID string) (*model.Registration, error) {
	for _, r := range s.registrations {
		if r.EventID == eventID && r.VolunteerID == volunteerID {
			return &r, nil
		}
	}
	return nil, notFound("registration", eventID+"/"+volunteerID)
}

func (s *state) UpdateRegistrationStatus(ctx context.Context, id string, status model.RegistrationStatus, updatedAt time.Time) error {
	r, ok := s.registrations[id]
	if !ok {
		return notFound("registration", id)
	}
	r.Status = status
	r.UpdatedAt = updatedAt
	s.registrations[id] = r
	return nil
}

func (s *state) ListRegistrationsByEvent(ctx context.Context, eventID string) ([]model.Registration, error) {
	return s.collectRegistrations(func(r model.Registration) bool { return r.EventID == eventID }), nil
}

func (s *state) ListRegistrationsByVolunteer(ctx context.Context, volunteerID string) ([]model.Registration, error) {
	return s.collectRegistrations(func(r model.Registration) bool { return r.VolunteerID == volunteerID }), nil
}

func (s *state) ListApprovedRegistrationsBetween(ctx context.Context, from, to time.Time) ([]model.Registration, error) {
	return s.collectRegistrations(func(r model.Registration) bool {
		if r.Status != model.StatusApproved {
			return false
		}
		e, ok := s.events[r.EventID]
		return ok && e.IsActive && !e.Date.Before(from) && !e.Date.After(to)
	}), nil
}

func (s *state) collectRegistrations(keep func(model.Registration) bool) []model.Registration {
	var out []model.Registration
	for _, r := range s.registrations {
		if keep(r) {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

// Notifications

func (s *state) InsertNotification(ctx context.Context, n *model.Notification) error {
	if _, ok := s.profiles[n.RecipientID]; !ok {
		return fmt.Errorf("notification recipient: %w", notFound("profile", n.RecipientID))
	}
	s.seq++
	s.notifications[n.ID] = *n
	s.notifSeq[n.ID] = s.seq
	return nil
}

func (s *state) GetNotification(ctx context.Context, id string) (*model.Notification, error) {
	n, ok := s.notifications[id]
	if !ok {
		return nil, notFound("notification", id)
	}
	return &n, nil
}

func (s *state) ListNotifications(ctx context.Context, filter db.NotificationFilter) ([]model.Notification, error) {
	var out []model.Notification
	for _, n := range s.notifications {
		if n.RecipientID != filter.RecipientID {
			continue
		}
		if filter.Read != nil && n.IsRead != *filter.Read {
			continue
		}
		out = append(out, n)
	}
	s.sortNotifications(out, true)
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (s *state) sortNotifications(ns []model.Notification, newestFirst bool) {
	sort.Slice(ns, func(i, j int) bool {
		a, b := ns[i], ns[j]
		before := a.CreatedAt.Before(b.CreatedAt)
		if a.CreatedAt.Equal(b.CreatedAt) {
			before = s.notifSeq[a.ID] < s.notifSeq[b.ID]
		}
		if newestFirst {
			return !before
		}
		return before
	})
}

func (s *state) CountUnread(ctx context.Context, recipientID string) (int, error) {
	count := 0
	for _, n := range s.notifications {
		if n.RecipientID == recipientID && !n.IsRead {
			count++
		}
	}
	return count, nil
}

func (s *state) MarkNotificationRead(ctx context.Context, id string) error {
	n, ok := s.notifications[id]
	if !ok {
		return notFound("notification", id)
	}
	n.IsRead = true
	s.notifications[id] = n
	return nil
}

func (s *state) MarkAllNotificationsRead(ctx context.Context, recipientID string) (int64, error) {
	var updated int64
	for id, n := range s.notifications {
		if n.RecipientID == recipientID && !n.IsRead {
			n.IsRead = true
			s.notifications[id] = n
			updated++
		}
	}
	return updated, nil
}

func (s *state) HasNotificationForRegistration(ctx context.Context, registrationID string, typ model.NotificationType) (bool, error) {
	for _, n := range s.notifications {
		if n.RegistrationID == registrationID && n.Type == typ {
			return true, nil
		}
	}
	return false, nil
}

func (s *state) ListUndelivered(ctx context.Context, limit int) ([]model.Notification, error) {
	var out []model.Notification
	for id, n := range s.notifications {
		if _, done := s.deliveries[id]; !done {
			out = append(out, n)
		}
	}
	s.sortNotifications(out, false)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *state) RecordDelivery(ctx context.Context, notificationID string, status db.DeliveryStatus, at time.Time) error {
	if _, ok := s.notifications[notificationID]; !ok {
		return notFound("notification", notificationID)
	}
	if _, done := s.deliveries[notificationID]; !done {
		s.deliveries[notificationID] = status
	}
	return nil
}
