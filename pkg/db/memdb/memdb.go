// Package memdb is an in-memory implementation of db.Database. It backs the
// service and API tests and the `serve --in-memory` development mode.
package memdb

import (
	"context"
	"sync"
	"time"

	"github.com/jakechorley/volunteer-events/pkg/core/model"
	"github.com/jakechorley/volunteer-events/pkg/db"
)

// DB guards a single state with one lock. A transaction holds the write lock
// from start to finish, so transactions are serialized; nesting InTx deadlocks.
type DB struct {
	mu sync.RWMutex
	st *state
}

var _ db.Database = (*DB)(nil)

// New creates an empty database
func New() *DB {
	return &DB{st: newState()}
}

// InTx runs fn against the live state and restores a snapshot if fn fails
func (d *DB) InTx(ctx context.Context, fn func(q db.Queries) error) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	snapshot := d.st.clone()
	if err := fn(d.st); err != nil {
		d.st = snapshot
		return err
	}
	return nil
}

func (d *DB) ListSkills(ctx context.Context) ([]model.Skill, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.st.ListSkills(ctx)
}

func (d *DB) GetSkillsByIDs(ctx context.Context, ids []string) ([]model.Skill, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.st.GetSkillsByIDs(ctx, ids)
}

func (d *DB) InsertSkillIfMissing(ctx context.Context, skill *model.Skill) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.st.InsertSkillIfMissing(ctx, skill)
}

func (d *DB) InsertProfile(ctx context.Context, p *model.Profile) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.st.InsertProfile(ctx, p)
}

func (d *DB) GetProfile(ctx context.Context, id string) (*model.Profile, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.st.GetProfile(ctx, id)
}

func (d *DB) GetProfileByUsername(ctx context.Context, username string) (*model.Profile, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.st.GetProfileByUsername(ctx, username)
}

func (d *DB) UpdateProfile(ctx context.Context, p *model.Profile) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.st.UpdateProfile(ctx, p)
}

func (d *DB) SetProfileSkills(ctx context.Context, profileID string, skillIDs []string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.st.SetProfileSkills(ctx, profileID, skillIDs)
}

func (d *DB) SearchVolunteers(ctx context.Context, filter db.VolunteerFilter) ([]model.Profile, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.st.SearchVolunteers(ctx, filter)
}

func (d *DB) CountCompletedEvents(ctx context.Context, volunteerID string, before time.Time) (int, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.st.CountCompletedEvents(ctx, volunteerID, before)
}

func (d *DB) InsertEvent(ctx context.Context, e *model.Event) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.st.InsertEvent(ctx, e)
}

func (d *DB) UpdateEvent(ctx context.Context, e *model.Event) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.st.UpdateEvent(ctx, e)
}

func (d *DB) SetEventSkills(ctx context.Context, eventID string, skillIDs []string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.st.SetEventSkills(ctx, eventID, skillIDs)
}

func (d *DB) DeleteEvent(ctx context.Context, id string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.st.DeleteEvent(ctx, id)
}

func (d *DB) GetEvent(ctx context.Context, id string) (*model.Event, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.st.GetEvent(ctx, id)
}

func (d *DB) LockEvent(ctx context.Context, id string) (*model.Event, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.st.LockEvent(ctx, id)
}

func (d *DB) ListEvents(ctx context.Context, filter db.EventFilter) ([]model.Event, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.st.ListEvents(ctx, filter)
}

func (d *DB) ListEventsByOrganizer(ctx context.Context, organizerID string) ([]model.Event, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.st.ListEventsByOrganizer(ctx, organizerID)
}

func (d *DB) ListEventsByVolunteer(ctx context.Context, volunteerID string, statuses []model.RegistrationStatus) ([]model.Event, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.st.ListEventsByVolunteer(ctx, volunteerID, statuses)
}

func (d *DB) ListCities(ctx context.Context) ([]string, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.st.ListCities(ctx)
}

func (d *DB) InsertRegistration(ctx context.Context, r *model.Registration) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.st.InsertRegistration(ctx, r)
}

func (d *DB) GetRegistration(ctx context.Context, id string) (*model.Registration, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.st.GetRegistration(ctx, id)
}

func (d *DB) FindRegistration(ctx context.Context, eventID, volunteerID string) (*model.Registration, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.st.FindRegistration(ctx, eventID, volunteerID)
}

func (d *DB) UpdateRegistrationStatus(ctx context.Context, id string, status model.RegistrationStatus, updatedAt time.Time) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.st.UpdateRegistrationStatus(ctx, id, status, updatedAt)
}

func (d *DB) ListRegistrationsByEvent(ctx context.Context, eventID string) ([]model.Registration, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.st.ListRegistrationsByEvent(ctx, eventID)
}

func (d *DB) ListRegistrationsByVolunteer(ctx context.Context, volunteerID string) ([]model.Registration, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.st.ListRegistrationsByVolunteer(ctx, volunteerID)
}

func (d *DB) ListApprovedRegistrationsBetween(ctx context.Context, from, to time.Time) ([]model.Registration, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.st.ListApprovedRegistrationsBetween(ctx, from, to)
}

func (d *DB) InsertNotification(ctx context.Context, n *model.Notification) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.st.InsertNotification(ctx, n)
}

func (d *DB) GetNotification(ctx context.Context, id string) (*model.Notification, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.st.GetNotification(ctx, id)
}

func (d *DB) ListNotifications(ctx context.Context, filter db.NotificationFilter) ([]model.Notification, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.st.ListNotifications(ctx, filter)
}

func (d *DB) CountUnread(ctx context.Context, recipientID string) (int, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.st.CountUnread(ctx, recipientID)
}

func (d *DB) MarkNotificationRead(ctx context.Context, id string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.st.MarkNotificationRead(ctx, id)
}

func (d *DB) MarkAllNotificationsRead(ctx context.Context, recipientID string) (int64, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.st.MarkAllNotificationsRead(ctx, recipientID)
}

func (d *DB) HasNotificationForRegistration(ctx context.Context, registrationID string, typ model.NotificationType) (bool, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.st.HasNotificationForRegistration(ctx, registrationID, typ)
}

func (d *DB) ListUndelivered(ctx context.Context, limit int) ([]model.Notification, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.st.ListUndelivered(ctx, limit)
}

func (d *DB) RecordDelivery(ctx context.Context, notificationID string, status db.DeliveryStatus, at time.Time) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.st.RecordDelivery(ctx, notificationID, status, at)
}
