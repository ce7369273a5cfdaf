package services

import (
	"testing"
	"time"

	"github.com/esc4n0rx/inventario-caixas-hb-sub000/internal/models"
	"github.com/esc4n0rx/inventario-caixas-hb-sub000/pkg/response"
)

func instant(t *testing.T, value string) time.Time {
	t.Helper()
	now, err := time.ParseInLocation("2006-01-02 15:04", value, testLocation())
	if err != nil {
		t.Fatalf("bad instant %q: %v", value, err)
	}
	return now
}

func TestGetStatus_Defaults(t *testing.T) {
	svc := NewAvailabilityService(newTestDB(t), testLocation())

	status, err := svc.GetStatus()
	if err != nil {
		t.Fatalf("GetStatus() error = %v", err)
	}
	if status.Blocked {
		t.Error("seeded system should start unblocked")
	}
	if status.Mode != models.ModeManual {
		t.Errorf("Mode = %q, expected %q", status.Mode, models.ModeManual)
	}
	if status.Window != nil {
		t.Error("no window should be set initially")
	}
}

func TestSetManual(t *testing.T) {
	svc := NewAvailabilityService(newTestDB(t), testLocation())

	status, err := svc.SetManual(true)
	if err != nil {
		t.Fatalf("SetManual() error = %v", err)
	}
	if !status.Blocked {
		t.Error("SetManual(true) should block the system")
	}
	if status.Mode != models.ModeManual {
		t.Errorf("Mode = %q, expected manual", status.Mode)
	}

	// Reconcile must not touch a manually managed flag
	changed, err := svc.Reconcile(instant(t, "2024-01-01 12:00"))
	if err != nil {
		t.Fatalf("Reconcile() error = %v", err)
	}
	if changed {
		t.Error("Reconcile() should be a no-op in manual mode")
	}

	status, _ = svc.GetStatus()
	if !status.Blocked {
		t.Error("manual blocked flag should survive reconciliation")
	}
}

func TestSetSchedule_Validation(t *testing.T) {
	svc := NewAvailabilityService(newTestDB(t), testLocation())

	tests := []struct {
		name string
		req  SetScheduleRequest
	}{
		{"bad mode", SetScheduleRequest{Mode: "sometimes"}},
		{"automatic without window", SetScheduleRequest{Mode: models.ModeAutomatic}},
		{"automatic with partial window", SetScheduleRequest{
			Mode: models.ModeAutomatic, StartDate: "2024-01-01", StartTime: "08:00", EndDate: "2024-01-01",
		}},
		{"bad date format", SetScheduleRequest{
			Mode: models.ModeAutomatic, StartDate: "01/01/2024", StartTime: "08:00",
			EndDate: "2024-01-01", EndTime: "18:00",
		}},
		{"bad time format", SetScheduleRequest{
			Mode: models.ModeAutomatic, StartDate: "2024-01-01", StartTime: "8h",
			EndDate: "2024-01-01", EndTime: "18:00",
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.SetSchedule(&tt.req); !response.IsAppError(err, response.CodeInvalidInput) {
				t.Errorf("SetSchedule() error = %v, expected InvalidInput", err)
			}
		})
	}
}

func TestReconcile_FlipsAtBoundary(t *testing.T) {
	db := newTestDB(t)
	svc := NewAvailabilityService(db, testLocation())

	// Install the window directly so SetSchedule's immediate reconcile (which
	// uses the wall clock) does not interfere with the fixed test instants.
	err := db.Model(&models.SystemConfig{}).Where("id = ?", models.SingletonID).Updates(map[string]interface{}{
		"mode":              models.ModeAutomatic,
		"blocked":           true,
		"window_start_date": "2024-01-01",
		"window_start_time": "08:00",
		"window_end_date":   "2024-01-01",
		"window_end_time":   "18:00",
	}).Error
	if err != nil {
		t.Fatalf("failed to install window: %v", err)
	}

	// 17:59 — inside the window, must unblock
	changed, err := svc.Reconcile(instant(t, "2024-01-01 17:59"))
	if err != nil {
		t.Fatalf("Reconcile() error = %v", err)
	}
	if !changed {
		t.Error("first reconcile inside the window should unblock")
	}
	status, _ := svc.GetStatus()
	if status.Blocked {
		t.Error("system should be open at 17:59")
	}

	// Idempotence: second call with the same clock writes nothing
	changed, err = svc.Reconcile(instant(t, "2024-01-01 17:59"))
	if err != nil {
		t.Fatalf("Reconcile() error = %v", err)
	}
	if changed {
		t.Error("second reconcile with unchanged inputs should be a no-op")
	}

	// 18:01 — past the window, must block again
	changed, err = svc.Reconcile(instant(t, "2024-01-01 18:01"))
	if err != nil {
		t.Fatalf("Reconcile() error = %v", err)
	}
	if !changed {
		t.Error("reconcile past the window should block")
	}
	status, _ = svc.GetStatus()
	if !status.Blocked {
		t.Error("system should be blocked at 18:01")
	}
}

func TestSetSchedule_ImmediateReconcile(t *testing.T) {
	db := newTestDB(t)
	svc := NewAvailabilityService(db, testLocation())

	// Block manually first, then install a schedule whose window is far in
	// the future: the immediate reconcile must keep the system blocked.
	if _, err := svc.SetManual(false); err != nil {
		t.Fatalf("SetManual() error = %v", err)
	}

	_, err := svc.SetSchedule(&SetScheduleRequest{
		Mode:      models.ModeAutomatic,
		StartDate: "2099-01-01", StartTime: "08:00",
		EndDate: "2099-01-01", EndTime: "18:00",
	})
	if err != nil {
		t.Fatalf("SetSchedule() error = %v", err)
	}

	status, _ := svc.GetStatus()
	if status.Mode != models.ModeAutomatic {
		t.Errorf("Mode = %q, expected automatic", status.Mode)
	}
	if !status.Blocked {
		t.Error("schedule outside the window should block immediately, not on the next poll")
	}
	if status.Window == nil || status.Window.StartDate != "2099-01-01" {
		t.Errorf("Window = %+v, expected the installed window", status.Window)
	}
}
