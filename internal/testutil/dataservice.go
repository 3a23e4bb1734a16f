package testutil

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Danikxd/maturita-web/internal/apperr"
	"github.com/Danikxd/maturita-web/internal/models"
)

// DataService is an in-memory stand-in for the data service. Tokens are
// "token-<userID>"; reminders are visible to their owner only.
type DataService struct {
	mu         sync.Mutex
	channels   []models.Channel
	reminders  []models.Reminder
	programmes map[string][]models.Programme
	admins     map[string]bool
	nextID     int64
	calls      map[string]int
	fail       map[string]error

	// Hook, when set, runs at the start of every call with its op name.
	Hook func(op string)
}

// NewDataService returns a DataService holding chans.
func NewDataService(chans ...models.Channel) *DataService {
	return &DataService{
		channels:   append([]models.Channel(nil), chans...),
		programmes: map[string][]models.Programme{},
		admins:     map[string]bool{},
		nextID:     1000,
		calls:      map[string]int{},
		fail:       map[string]error{},
	}
}

// SetAdmin marks userID as administrator.
func (d *DataService) SetAdmin(userID string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.admins[userID] = true
}

// Fail makes op return err until cleared with a nil err.
func (d *DataService) Fail(op string, err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err == nil {
		delete(d.fail, op)
		return
	}
	d.fail[op] = err
}

// Calls returns how often op ran; "" sums every op.
func (d *DataService) Calls(op string) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	if op != "" {
		return d.calls[op]
	}
	n := 0
	for _, c := range d.calls {
		n += c
	}
	return n
}

// SetProgrammes installs the schedule of day (YYYY-MM-DD).
func (d *DataService) SetProgrammes(day string, progs ...models.Programme) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.programmes[day] = progs
}

// AddReminder seeds a reminder owned by r.UserID and returns it with an id.
func (d *DataService) AddReminder(r models.Reminder) models.Reminder {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.nextID++
	r.ID = d.nextID
	d.reminders = append(d.reminders, r)
	return r
}

// AllReminders returns every stored reminder regardless of owner.
func (d *DataService) AllReminders() []models.Reminder {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]models.Reminder(nil), d.reminders...)
}

// AllChannels returns the stored channels.
func (d *DataService) AllChannels() []models.Channel {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]models.Channel(nil), d.channels...)
}

// enter records op and returns its injected failure. mu must not be held.
func (d *DataService) enter(op string) error {
	if d.Hook != nil {
		d.Hook(op)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls[op]++
	return d.fail[op]
}

func userOf(token string) (string, error) {
	if !strings.HasPrefix(token, "token-") || token == "token-" {
		return "", apperr.Unauthenticated("invalid token")
	}
	return strings.TrimPrefix(token, "token-"), nil
}

func (d *DataService) ListChannels(ctx context.Context) ([]models.Channel, error) {
	if err := d.enter("list_channels"); err != nil {
		return nil, err
	}
	return d.AllChannels(), nil
}

func (d *DataService) ListProgrammes(ctx context.Context, date time.Time) ([]models.Programme, error) {
	if err := d.enter("list_programmes"); err != nil {
		return nil, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]models.Programme(nil), d.programmes[date.Format(models.DateLayout)]...), nil
}

func (d *DataService) ListReminders(ctx context.Context, token string) ([]models.Reminder, error) {
	if err := d.enter("list_reminders"); err != nil {
		return nil, err
	}
	user, err := userOf(token)
	if err != nil {
		return nil, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	var out []models.Reminder
	for _, r := range d.reminders {
		if r.UserID == user {
			out = append(out, r)
		}
	}
	return out, nil
}

func (d *DataService) CreateReminder(ctx context.Context, token string, in models.ReminderInput) (models.Reminder, error) {
	if err := d.enter("create_reminder"); err != nil {
		return models.Reminder{}, err
	}
	user, err := userOf(token)
	if err != nil {
		return models.Reminder{}, err
	}
	return d.AddReminder(models.Reminder{UserID: user, ChannelID: in.ChannelID, Title: in.Title, NotifyBefore: in.NotifyBefore}), nil
}

func (d *DataService) UpdateReminder(ctx context.Context, token string, id int64, in models.ReminderInput) (models.Reminder, error) {
	if err := d.enter("update_reminder"); err != nil {
		return models.Reminder{}, err
	}
	user, err := userOf(token)
	if err != nil {
		return models.Reminder{}, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	for i, r := range d.reminders {
		if r.ID != id {
			continue
		}
		if r.UserID != user {
			return models.Reminder{}, apperr.Rejected(apperr.CodeForbidden, "forbidden", nil)
		}
		r.ChannelID, r.Title, r.NotifyBefore = in.ChannelID, in.Title, in.NotifyBefore
		d.reminders[i] = r
		return r, nil
	}
	return models.Reminder{}, apperr.NotFound("reminder")
}

func (d *DataService) DeleteReminder(ctx context.Context, token string, id int64) error {
	if err := d.enter("delete_reminder"); err != nil {
		return err
	}
	user, err := userOf(token)
	if err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	for i, r := range d.reminders {
		if r.ID != id {
			continue
		}
		if r.UserID != user {
			return apperr.Rejected(apperr.CodeForbidden, "forbidden", nil)
		}
		d.reminders = append(d.reminders[:i], d.reminders[i+1:]...)
		return nil
	}
	return apperr.NotFound("reminder")
}

func (d *DataService) requireAdmin(token string) error {
	user, err := userOf(token)
	if err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.admins[user] {
		return apperr.Rejected(apperr.CodeForbidden, "forbidden", nil)
	}
	return nil
}

func (d *DataService) CreateChannel(ctx context.Context, token string, in models.ChannelInput) (models.Channel, error) {
	if err := d.enter("create_channel"); err != nil {
		return models.Channel{}, err
	}
	if err := d.requireAdmin(token); err != nil {
		return models.Channel{}, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	var maxID int64
	for _, c := range d.channels {
		maxID = max(maxID, c.ID)
	}
	c := models.Channel{ID: maxID + 1, DisplayName: in.DisplayName, LogoURL: in.LogoURL}
	if in.ChannelName != nil {
		c.ChannelName = *in.ChannelName
	}
	d.channels = append(d.channels, c)
	return c, nil
}

func (d *DataService) UpdateChannel(ctx context.Context, token string, id int64, in models.ChannelInput) (models.Channel, error) {
	if err := d.enter("update_channel"); err != nil {
		return models.Channel{}, err
	}
	if err := d.requireAdmin(token); err != nil {
		return models.Channel{}, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	for i, c := range d.channels {
		if c.ID != id {
			continue
		}
		if in.ChannelName != nil {
			c.ChannelName = *in.ChannelName
		}
		if in.DisplayName != nil {
			c.DisplayName = in.DisplayName
		}
		if in.LogoURL != nil {
			c.LogoURL = in.LogoURL
		}
		d.channels[i] = c
		return c, nil
	}
	return models.Channel{}, apperr.NotFound("channel")
}

func (d *DataService) DeleteChannel(ctx context.Context, token string, id int64) error {
	if err := d.enter("delete_channel"); err != nil {
		return err
	}
	if err := d.requireAdmin(token); err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	for i, c := range d.channels {
		if c.ID == id {
			d.channels = append(d.channels[:i], d.channels[i+1:]...)
			return nil
		}
	}
	return apperr.NotFound("channel")
}

func (d *DataService) VerifyAdmin(ctx context.Context, token, userID string) (bool, error) {
	if err := d.enter("verify"); err != nil {
		return false, err
	}
	if _, err := userOf(token); err != nil {
		return false, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.admins[userID], nil
}

// Uploader is an in-memory object store.
type Uploader struct {
	mu      sync.Mutex
	Err     error
	objects map[string][]byte
	uploads int
}

func (u *Uploader) Upload(ctx context.Context, token, bucket, key string, data []byte, contentType string) (string, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.uploads++
	if u.Err != nil {
		return "", u.Err
	}
	if u.objects == nil {
		u.objects = map[string][]byte{}
	}
	u.objects[bucket+"/"+key] = data
	return key, nil
}

func (u *Uploader) PublicURL(bucket, path string) string {
	return fmt.Sprintf("https://storage.test/%s/%s", bucket, path)
}

// Uploads returns how many uploads were attempted.
func (u *Uploader) Uploads() int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.uploads
}

// Keys returns stored object keys, sorted.
func (u *Uploader) Keys() []string {
	u.mu.Lock()
	defer u.mu.Unlock()
	out := make([]string, 0, len(u.objects))
	for k := range u.objects {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
