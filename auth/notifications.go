package auth

import (
	"sync"

	"github.com/rs/zerolog"
)

type Level string

const (
	LevelInfo    Level = "info"
	LevelSuccess Level = "success"
	LevelError   Level = "error"
)

// Notification is a user-visible message about the outcome of an auth action.
type Notification struct {
	Level   Level
	Title   string
	Message string
}

type Notifier interface {
	Notify(n Notification)
}

// LogNotifier writes notifications to a zerolog logger.
type LogNotifier struct {
	log zerolog.Logger
}

func NewLogNotifier(logger zerolog.Logger) *LogNotifier {
	return &LogNotifier{log: logger}
}

func (n *LogNotifier) Notify(notification Notification) {
	var event *zerolog.Event
	switch notification.Level {
	case LevelError:
		event = n.log.Error()
	default:
		event = n.log.Info()
	}
	event.Str("notification", string(notification.Level)).
		Str("title", notification.Title).
		Msg(notification.Message)
}

// NotificationRecorder keeps every notification in memory.
type NotificationRecorder struct {
	mu            sync.Mutex
	notifications []Notification
}

func (r *NotificationRecorder) Notify(n Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notifications = append(r.notifications, n)
}

func (r *NotificationRecorder) Notifications() []Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Notification(nil), r.notifications...)
}

// Last returns the most recent notification, false if there is none.
func (r *NotificationRecorder) Last() (Notification, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.notifications) == 0 {
		return Notification{}, false
	}
	return r.notifications[len(r.notifications)-1], true
}
