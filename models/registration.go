package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"
)

// RegistrationType matches the registration type ENUM in the database.
type RegistrationType string

const (
	RegistrationOnline RegistrationType = "ONLINE"
	RegistrationManual RegistrationType = "MANUAL"
)

// StringList is a JSONB-backed ordered list of strings (team member names).
type StringList []string

func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		l = StringList{}
	}
	return json.Marshal(l)
}

func (l *StringList) Scan(src interface{}) error {
	return scanJSON(src, l)
}

// StringMap is a JSONB-backed mapping from form question label to answer.
type StringMap map[string]string

func (m StringMap) Value() (driver.Value, error) {
	if m == nil {
		m = StringMap{}
	}
	return json.Marshal(m)
}

func (m *StringMap) Scan(src interface{}) error {
	return scanJSON(src, m)
}

type Registration struct {
	ID          int              `json:"id" db:"id"`
	EventID     int              `json:"event_id" db:"event_id"`
	StudentID   int              `json:"student_id" db:"student_id"`
	Type        RegistrationType `json:"type" db:"type"`
	TeamName    *string          `json:"team_name,omitempty" db:"team_name"`
	TeamMembers StringList       `json:"team_members,omitempty" db:"team_members"`
	FormData    StringMap        `json:"form_data,omitempty" db:"form_data"`
	CreatedAt   time.Time        `json:"created_at" db:"created_at"`

	// Optional related entities, populated by list queries.
	Student *User  `json:"student,omitempty" db:"-"`
	Event   *Event `json:"event,omitempty" db:"-"`
}
