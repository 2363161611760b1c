package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/healthvault/internal/apperror"
	"github.com/sakif/healthvault/internal/model"
	"github.com/sakif/healthvault/internal/repository"
)

// DashboardRecentLimit is how many records and vitals the dashboard shows.
const DashboardRecentLimit = 5

// HealthService manages an account's health records, vitals and goals.
//
// Every method first checks that the caller owns accountID, so a request
// for someone else's data fails before the store is touched.
type HealthService struct {
	store  repository.Store
	logger *slog.Logger
}

// NewHealthService creates a new HealthService.
func NewHealthService(store repository.Store, logger *slog.Logger) *HealthService {
	return &HealthService{store: store, logger: logger}
}

type recordInput struct {
	Title       string `json:"title"       validate:"required,max=200"`
	Description string `json:"description" validate:"max=5000"`
	RecordType  string `json:"recordType"  validate:"required,max=50,tag"`
	RecordDate  string `json:"recordDate"  validate:"required,datetime=2006-01-02"`
}

// AddHealthRecord stores a new record for accountID. An empty recordType is
// stored as "other".
func (s *HealthService) AddHealthRecord(ctx context.Context, accountID, title, description, recordType, recordDate string) (*model.HealthRecord, error) {
	if err := authorize(ctx, accountID); err != nil {
		return nil, err
	}

	in := recordInput{
		Title:       strings.TrimSpace(title),
		Description: strings.TrimSpace(description),
		RecordType:  strings.TrimSpace(recordType),
		RecordDate:  strings.TrimSpace(recordDate),
	}
	if in.RecordType == "" {
		in.RecordType = DefaultRecordType
	}
	if err := validateInput(in); err != nil {
		return nil, err
	}
	date, err := parseDate("recordDate", in.RecordDate)
	if err != nil {
		return nil, err
	}

	record := &model.HealthRecord{
		AccountID:   accountID,
		Title:       in.Title,
		Description: in.Description,
		RecordType:  in.RecordType,
		RecordDate:  date,
	}
	if err := s.store.CreateHealthRecord(ctx, record); err != nil {
		return nil, fmt.Errorf("adding health record: %w", err)
	}

	s.logger.InfoContext(ctx, "health record added",
		slog.String("account_id", accountID),
		slog.String("record_id", record.ID),
		slog.String("record_type", record.RecordType),
	)
	return record, nil
}

// RecordQuery narrows ListHealthRecords. Empty fields match everything.
// From and To are inclusive YYYY-MM-DD dates.
type RecordQuery struct {
	RecordType string `json:"type" validate:"omitempty,max=50,tag"`
	From       string `json:"from" validate:"omitempty,datetime=2006-01-02"`
	To         string `json:"to"   validate:"omitempty,datetime=2006-01-02"`
}

func (q RecordQuery) filter() (repository.RecordFilter, error) {
	q.RecordType = strings.TrimSpace(q.RecordType)
	q.From = strings.TrimSpace(q.From)
	q.To = strings.TrimSpace(q.To)
	if err := validateInput(q); err != nil {
		return repository.RecordFilter{}, err
	}

	f := repository.RecordFilter{RecordType: q.RecordType}
	if q.From != "" {
		d, err := parseDate("from", q.From)
		if err != nil {
			return f, err
		}
		f.From = &d
	}
	if q.To != "" {
		d, err := parseDate("to", q.To)
		if err != nil {
			return f, err
		}
		f.To = &d
	}
	if f.From != nil && f.To != nil && f.To.Before(*f.From) {
		return f, apperror.ValidationFailed("to", "to must not be before from")
	}
	return f, nil
}

// ListHealthRecords returns accountID's records matching query, newest
// record date first.
func (s *HealthService) ListHealthRecords(ctx context.Context, accountID string, query RecordQuery, opts repository.ListOptions) ([]model.HealthRecord, error) {
	if err := authorize(ctx, accountID); err != nil {
		return nil, err
	}
	filter, err := query.filter()
	if err != nil {
		return nil, err
	}
	if err := s.accountExists(ctx, accountID); err != nil {
		return nil, err
	}
	records, err := s.store.ListHealthRecords(ctx, accountID, filter, pageOf(opts))
	if err != nil {
		return nil, fmt.Errorf("listing health records: %w", err)
	}
	return records, nil
}

type vitalInput struct {
	VitalType string `json:"vitalType" validate:"required,max=50,tag"`
	Value     string `json:"value"     validate:"required,max=64"`
	Unit      string `json:"unit"      validate:"max=20"`
}

// AddVital records a measurement taken now. Value is stored as given.
func (s *HealthService) AddVital(ctx context.Context, accountID, vitalType, value, unit string) (*model.Vital, error) {
	if err := authorize(ctx, accountID); err != nil {
		return nil, err
	}

	in := vitalInput{
		VitalType: strings.TrimSpace(vitalType),
		Value:     strings.TrimSpace(value),
		Unit:      strings.TrimSpace(unit),
	}
	if err := validateInput(in); err != nil {
		return nil, err
	}

	vital := &model.Vital{
		AccountID: accountID,
		VitalType: in.VitalType,
		Value:     in.Value,
		Unit:      in.Unit,
	}
	if err := s.store.CreateVital(ctx, vital); err != nil {
		return nil, fmt.Errorf("adding vital: %w", err)
	}

	s.logger.InfoContext(ctx, "vital recorded",
		slog.String("account_id", accountID),
		slog.String("vital_type", vital.VitalType),
	)
	return vital, nil
}

// VitalQuery narrows ListVitals to one vitalType when set.
type VitalQuery struct {
	VitalType string `json:"type" validate:"omitempty,max=50,tag"`
}

// ListVitals returns accountID's readings matching query, newest first.
func (s *HealthService) ListVitals(ctx context.Context, accountID string, query VitalQuery, opts repository.ListOptions) ([]model.Vital, error) {
	if err := authorize(ctx, accountID); err != nil {
		return nil, err
	}
	query.VitalType = strings.TrimSpace(query.VitalType)
	if err := validateInput(query); err != nil {
		return nil, err
	}
	if err := s.accountExists(ctx, accountID); err != nil {
		return nil, err
	}
	vitals, err := s.store.ListVitals(ctx, accountID, repository.VitalFilter{VitalType: query.VitalType}, pageOf(opts))
	if err != nil {
		return nil, fmt.Errorf("listing vitals: %w", err)
	}
	return vitals, nil
}

type goalInput struct {
	Title       string `json:"title"       validate:"required,max=200"`
	Description string `json:"description" validate:"max=5000"`
	TargetValue string `json:"targetValue" validate:"max=100"`
	TargetDate  string `json:"targetDate"  validate:"omitempty,datetime=2006-01-02"`
}

// AddHealthGoal creates an active goal. targetDate may be empty.
func (s *HealthService) AddHealthGoal(ctx context.Context, accountID, title, description, targetValue, targetDate string) (*model.HealthGoal, error) {
	if err := authorize(ctx, accountID); err != nil {
		return nil, err
	}

	in := goalInput{
		Title:       strings.TrimSpace(title),
		Description: strings.TrimSpace(description),
		TargetValue: strings.TrimSpace(targetValue),
		TargetDate:  strings.TrimSpace(targetDate),
	}
	if err := validateInput(in); err != nil {
		return nil, err
	}

	goal := &model.HealthGoal{
		AccountID:   accountID,
		Title:       in.Title,
		Description: in.Description,
		TargetValue: in.TargetValue,
		Status:      model.GoalStatusActive,
	}
	if in.TargetDate != "" {
		d, err := parseDate("targetDate", in.TargetDate)
		if err != nil {
			return nil, err
		}
		goal.TargetDate = &d
	}

	if err := s.store.CreateHealthGoal(ctx, goal); err != nil {
		return nil, fmt.Errorf("adding health goal: %w", err)
	}

	s.logger.InfoContext(ctx, "health goal added",
		slog.String("account_id", accountID),
		slog.String("goal_id", goal.ID),
	)
	return goal, nil
}

// ListHealthGoals returns accountID's goals, newest first.
func (s *HealthService) ListHealthGoals(ctx context.Context, accountID string, opts repository.ListOptions) ([]model.HealthGoal, error) {
	if err := s.authorizeExisting(ctx, accountID); err != nil {
		return nil, err
	}
	goals, err := s.store.ListHealthGoals(ctx, accountID, pageOf(opts))
	if err != nil {
		return nil, fmt.Errorf("listing health goals: %w", err)
	}
	return goals, nil
}

// CountActiveGoals returns how many of accountID's goals are active.
func (s *HealthService) CountActiveGoals(ctx context.Context, accountID string) (int, error) {
	if err := s.authorizeExisting(ctx, accountID); err != nil {
		return 0, err
	}
	n, err := s.store.CountGoalsByStatus(ctx, accountID, model.GoalStatusActive)
	if err != nil {
		return 0, fmt.Errorf("counting active goals: %w", err)
	}
	return n, nil
}

// Dashboard assembles the owner's overview in one call: the profile, the
// most recent records and vitals, every goal and the active goal count.
func (s *HealthService) Dashboard(ctx context.Context, accountID string) (*model.Dashboard, error) {
	if err := authorize(ctx, accountID); err != nil {
		return nil, err
	}

	account, err := s.store.GetAccountByID(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("loading dashboard: %w", err)
	}
	recent := repository.ListOptions{Limit: DashboardRecentLimit}

	records, err := s.store.ListHealthRecords(ctx, accountID, repository.RecordFilter{}, recent)
	if err != nil {
		return nil, fmt.Errorf("loading dashboard records: %w", err)
	}
	vitals, err := s.store.ListVitals(ctx, accountID, repository.VitalFilter{}, recent)
	if err != nil {
		return nil, fmt.Errorf("loading dashboard vitals: %w", err)
	}
	goals, err := s.store.ListHealthGoals(ctx, accountID, repository.ListOptions{})
	if err != nil {
		return nil, fmt.Errorf("loading dashboard goals: %w", err)
	}

	active := 0
	for _, g := range goals {
		if g.Status == model.GoalStatusActive {
			active++
		}
	}

	return &model.Dashboard{
		Account:       account,
		RecentRecords: records,
		RecentVitals:  vitals,
		Goals:         goals,
		ActiveGoals:   active,
	}, nil
}

// authorizeExisting is authorize plus accountExists.
func (s *HealthService) authorizeExisting(ctx context.Context, accountID string) error {
	if err := authorize(ctx, accountID); err != nil {
		return err
	}
	return s.accountExists(ctx, accountID)
}

// accountExists makes listing for an account that was deleted after its
// token was issued NotFound rather than an empty list.
func (s *HealthService) accountExists(ctx context.Context, accountID string) error {
	if _, err := s.store.GetAccountByID(ctx, accountID); err != nil {
		return fmt.Errorf("checking account: %w", err)
	}
	return nil
}

func pageOf(opts repository.ListOptions) repository.ListOptions {
	opts.Limit = clampLimit(opts.Limit)
	if opts.Offset < 0 {
		opts.Offset = 0
	}
	return opts
}
