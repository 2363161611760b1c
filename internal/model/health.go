package model

import "time"

// HealthRecord is a free-form medical document entry (lab result,
// prescription, diagnosis...) owned by exactly one account.
type HealthRecord struct {
	ID          string    `json:"id"          db:"id"`
	AccountID   string    `json:"accountId"   db:"account_id"`
	Title       string    `json:"title"       db:"title"`
	Description string    `json:"description" db:"description"`
	RecordType  string    `json:"recordType"  db:"record_type"`
	RecordDate  time.Time `json:"recordDate"  db:"record_date"`
	CreatedAt   time.Time `json:"createdAt"   db:"created_at"`
}

// Vital is a single timestamped measurement. Value is kept as the string the
// caller sent ("72.5", "120/80"); no unit normalization happens here.
type Vital struct {
	ID         string    `json:"id"             db:"id"`
	AccountID  string    `json:"accountId"      db:"account_id"`
	VitalType  string    `json:"vitalType"      db:"vital_type"`
	Value      string    `json:"value"          db:"value"`
	Unit       string    `json:"unit,omitempty" db:"unit"`
	RecordedAt time.Time `json:"recordedAt"     db:"recorded_at"`
}

// GoalStatus is one of active, completed or paused. It is set at creation and
// no operation transitions it yet.
type GoalStatus string

const (
	GoalStatusActive    GoalStatus = "active"
	GoalStatusCompleted GoalStatus = "completed"
	GoalStatusPaused    GoalStatus = "paused"
)

// Valid reports whether s is one of the known statuses.
func (s GoalStatus) Valid() bool {
	switch s {
	case GoalStatusActive, GoalStatusCompleted, GoalStatusPaused:
		return true
	}
	return false
}

// HealthGoal is a user-defined target with optional progress.
type HealthGoal struct {
	ID           string     `json:"id"                   db:"id"`
	AccountID    string     `json:"accountId"            db:"account_id"`
	Title        string     `json:"title"                db:"title"`
	Description  string     `json:"description"          db:"description"`
	TargetValue  string     `json:"targetValue"          db:"target_value"`
	CurrentValue string     `json:"currentValue"         db:"current_value"`
	TargetDate   *time.Time `json:"targetDate,omitempty" db:"target_date"`
	Status       GoalStatus `json:"status"               db:"status"`
	CreatedAt    time.Time  `json:"createdAt"            db:"created_at"`
}

// Dashboard is the owner's overview: profile, latest entries and goals.
type Dashboard struct {
	Account       *Account       `json:"account"`
	RecentRecords []HealthRecord `json:"recentRecords"`
	RecentVitals  []Vital        `json:"recentVitals"`
	Goals         []HealthGoal   `json:"goals"`
	ActiveGoals   int            `json:"activeGoals"`
}
