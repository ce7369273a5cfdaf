package services

import (
	"time"

	"github.com/esc4n0rx/inventario-caixas-hb-sub000/internal/models"
	"github.com/esc4n0rx/inventario-caixas-hb-sub000/pkg/logger"
	"github.com/esc4n0rx/inventario-caixas-hb-sub000/pkg/response"
	"github.com/robfig/cron/v3"
	"gorm.io/gorm"
)

// AvailabilityService owns the system availability state: whether count
// submissions are currently accepted, and whether that flag is managed
// manually or derived from the scheduled window.
type AvailabilityService struct {
	db            *gorm.DB
	loc           *time.Location
	cronScheduler *cron.Cron
}

func NewAvailabilityService(db *gorm.DB, loc *time.Location) *AvailabilityService {
	return &AvailabilityService{db: db, loc: loc}
}

// SystemStatus is the externally visible availability state.
type SystemStatus struct {
	Blocked bool          `json:"blocked"`
	Mode    string        `json:"mode"`
	Window  *CountWindow  `json:"window,omitempty"`
}

// CountWindow is the scheduled interval during which submissions are allowed
// in automatic mode.
type CountWindow struct {
	StartDate string `json:"start_date"`
	StartTime string `json:"start_time"`
	EndDate   string `json:"end_date"`
	EndTime   string `json:"end_time"`
}

func (s *AvailabilityService) getConfig() (*models.SystemConfig, error) {
	var cfg models.SystemConfig
	err := s.db.Where("id = ?", models.SingletonID).First(&cfg).Error
	if err == gorm.ErrRecordNotFound {
		cfg = models.SystemConfig{ID: models.SingletonID, Mode: models.ModeManual}
		if createErr := s.db.Create(&cfg).Error; createErr != nil {
			return nil, response.NewUpstreamStoreError("failed to initialize system config")
		}
		return &cfg, nil
	}
	if err != nil {
		return nil, response.NewUpstreamStoreError("failed to read system config")
	}
	return &cfg, nil
}

func statusFromConfig(cfg *models.SystemConfig) *SystemStatus {
	status := &SystemStatus{
		Blocked: cfg.Blocked,
		Mode:    cfg.Mode,
	}
	if cfg.HasWindow() {
		status.Window = &CountWindow{
			StartDate: cfg.WindowStartDate,
			StartTime: cfg.WindowStartTime,
			EndDate:   cfg.WindowEndDate,
			EndTime:   cfg.WindowEndTime,
		}
	}
	return status
}

// GetStatus returns the persisted availability state as-is, without
// recomputation. Freshness is bounded by the reconciliation cadence.
func (s *AvailabilityService) GetStatus() (*SystemStatus, error) {
	cfg, err := s.getConfig()
	if err != nil {
		return nil, err
	}
	return statusFromConfig(cfg), nil
}

// Reconcile derives the blocked flag from the scheduled window and persists
// it when it differs. Manual mode is a no-op. Idempotent and safe to call
// concurrently: the decision is derived fresh each call, so the worst case
// is a redundant write.
func (s *AvailabilityService) Reconcile(now time.Time) (changed bool, err error) {
	cfg, err := s.getConfig()
	if err != nil {
		return false, err
	}

	if cfg.Mode != models.ModeAutomatic {
		return false, nil
	}

	within := WithinWindow(cfg.WindowStartDate, cfg.WindowStartTime, cfg.WindowEndDate, cfg.WindowEndTime, now, s.loc)
	desired := !within
	if cfg.Blocked == desired {
		return false, nil
	}

	update := s.db.Model(&models.SystemConfig{}).
		Where("id = ?", models.SingletonID).
		Updates(map[string]interface{}{"blocked": desired, "updated_at": now})
	if update.Error != nil {
		return false, response.NewUpstreamStoreError("failed to update system config")
	}

	logger.Info().
		Bool("blocked", desired).
		Time("at", now).
		Msg("availability reconciled")
	return true, nil
}

// SetManual switches the system to manual mode with the given blocked flag.
// Credential verification happens at the handler boundary.
func (s *AvailabilityService) SetManual(blocked bool) (*SystemStatus, error) {
	cfg, err := s.getConfig()
	if err != nil {
		return nil, err
	}

	cfg.Mode = models.ModeManual
	cfg.Blocked = blocked
	if err := s.db.Save(cfg).Error; err != nil {
		return nil, response.NewUpstreamStoreError("failed to update system config")
	}

	logger.Info().Bool("blocked", blocked).Msg("availability set manually")
	return statusFromConfig(cfg), nil
}

// SetScheduleRequest updates the availability mode and window.
type SetScheduleRequest struct {
	Mode      string `json:"mode"`
	StartDate string `json:"start_date"`
	StartTime string `json:"start_time"`
	EndDate   string `json:"end_date"`
	EndTime   string `json:"end_time"`
}

// SetSchedule validates and persists the mode and window fields, then runs
// an immediate reconciliation so the state is correct without waiting for
// the next scheduled pass.
func (s *AvailabilityService) SetSchedule(req *SetScheduleRequest) (*SystemStatus, error) {
	if req.Mode != models.ModeManual && req.Mode != models.ModeAutomatic {
		return nil, response.NewInvalidInput("mode must be manual or automatic")
	}

	if req.Mode == models.ModeAutomatic {
		if req.StartDate == "" || req.StartTime == "" || req.EndDate == "" || req.EndTime == "" {
			return nil, response.NewInvalidInput("automatic mode requires start and end date and time")
		}
		if !validWindowDate(req.StartDate) || !validWindowDate(req.EndDate) {
			return nil, response.NewInvalidInput("window dates must use the 2006-01-02 format")
		}
		if !validWindowTime(req.StartTime) || !validWindowTime(req.EndTime) {
			return nil, response.NewInvalidInput("window times must use the 15:04 format")
		}
	}

	cfg, err := s.getConfig()
	if err != nil {
		return nil, err
	}

	cfg.Mode = req.Mode
	if req.StartDate != "" {
		cfg.WindowStartDate = req.StartDate
	}
	if req.StartTime != "" {
		cfg.WindowStartTime = req.StartTime
	}
	if req.EndDate != "" {
		cfg.WindowEndDate = req.EndDate
	}
	if req.EndTime != "" {
		cfg.WindowEndTime = req.EndTime
	}
	if err := s.db.Save(cfg).Error; err != nil {
		return nil, response.NewUpstreamStoreError("failed to update system config")
	}

	if cfg.Mode == models.ModeAutomatic && cfg.HasWindow() {
		if _, err := s.Reconcile(time.Now().In(s.loc)); err != nil {
			return nil, err
		}
	}

	return s.GetStatus()
}

// StartScheduler starts the periodic reconciliation job. spec is a standard
// cron expression; the default runs every minute.
func (s *AvailabilityService) StartScheduler(spec string) error {
	s.cronScheduler = cron.New()
	_, err := s.cronScheduler.AddFunc(spec, func() {
		if _, err := s.Reconcile(time.Now().In(s.loc)); err != nil {
			logger.Error().Err(err).Msg("scheduled reconciliation failed")
		}
	})
	if err != nil {
		return err
	}
	s.cronScheduler.Start()
	logger.Infof("[Availability] Reconciliation scheduler started (%s)", spec)
	return nil
}

// StopScheduler stops the reconciliation job.
func (s *AvailabilityService) StopScheduler() {
	if s.cronScheduler != nil {
		s.cronScheduler.Stop()
	}
}
