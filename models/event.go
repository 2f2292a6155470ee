package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"
)

// EventCategory matches the category ENUM in the database.
type EventCategory string

const (
	CategoryTech     EventCategory = "TECH"
	CategoryCultural EventCategory = "CULTURAL"
	CategorySports   EventCategory = "SPORTS"
)

func (c EventCategory) Valid() bool {
	switch c {
	case CategoryTech, CategoryCultural, CategorySports:
		return true
	}
	return false
}

// Department matches the department ENUM in the database.
type Department string

const (
	DepartmentAll        Department = "ALL"
	DepartmentComputer   Department = "COMPUTER"
	DepartmentElectrical Department = "ELECTRICAL"
	DepartmentMechanical Department = "MECHANICAL"
	DepartmentCivil      Department = "CIVIL"
	DepartmentAuto       Department = "AUTO"
)

func (d Department) Valid() bool {
	switch d {
	case DepartmentAll, DepartmentComputer, DepartmentElectrical,
		DepartmentMechanical, DepartmentCivil, DepartmentAuto:
		return true
	}
	return false
}

// FormField is a single extra question asked during registration.
type FormField struct {
	Label    string `json:"label"`
	Required bool   `json:"required"`
	Type     string `json:"type"`
}

// FormConfig is the ordered question set of an event, stored as JSONB.
type FormConfig []FormField

func (c FormConfig) Value() (driver.Value, error) {
	if c == nil {
		c = FormConfig{}
	}
	return json.Marshal(c)
}

func (c *FormConfig) Scan(src interface{}) error {
	return scanJSON(src, c)
}

type Event struct {
	ID                   int           `json:"id" db:"id"`
	Name                 string        `json:"name" db:"name"`
	Date                 *time.Time    `json:"date,omitempty" db:"date"`
	Description          *string       `json:"description,omitempty" db:"description"`
	Location             *string       `json:"location,omitempty" db:"location"`
	Fees                 int           `json:"fees" db:"fees"`
	Category             EventCategory `json:"category" db:"category"`
	MaxParticipants      *int          `json:"max_participants,omitempty" db:"max_participants"`
	RegistrationDeadline *time.Time    `json:"registration_deadline,omitempty" db:"registration_deadline"`
	IsTeamEvent          bool          `json:"is_team_event" db:"is_team_event"`
	MinTeamSize          int           `json:"min_team_size" db:"min_team_size"`
	MaxTeamSize          int           `json:"max_team_size" db:"max_team_size"`
	IsPublished          bool          `json:"is_published" db:"is_published"`
	SemControlEnabled    bool          `json:"sem_control_enabled" db:"sem_control_enabled"`
	MaxSem               *int          `json:"max_sem,omitempty" db:"max_sem"`
	Department           Department    `json:"department" db:"department"`
	FormConfig           FormConfig    `json:"form_config" db:"form_config"`
	MainCoordinatorID    int           `json:"main_coordinator_id" db:"main_coordinator_id"`
	CreatedAt            time.Time     `json:"created_at" db:"created_at"`
	PosterKey            *string       `json:"-" db:"poster_key"`
	PosterURL            *string       `json:"poster_url,omitempty" db:"-"`

	// Derived fields, loaded separately.
	RegistrationCount int   `json:"registration_count" db:"-"`
	CoordinatorIDs    []int `json:"coordinator_ids,omitempty" db:"-"`
	MainCoordinator   *User `json:"main_coordinator,omitempty" db:"-"`
}
