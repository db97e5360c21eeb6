package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/retrace-app/retrace/internal/domain/entities"
)

type fakeController struct {
	vision entities.DeviceState
	audio  entities.DeviceState
}

func (f *fakeController) SetVisionState(s entities.DeviceState) { f.vision = s }
func (f *fakeController) SetAudioState(s entities.DeviceState)  { f.audio = s }

func controlRequest(t *testing.T, h func(echo.Context) error, path string) *httptest.ResponseRecorder {
	t.Helper()
	e := newTestEcho()
	req := httptest.NewRequest(http.MethodPost, path, nil)
	rec := httptest.NewRecorder()
	if err := h(e.NewContext(req, rec)); err != nil {
		t.Fatal(err)
	}
	return rec
}

func TestControlPauseAndResume(t *testing.T) {
	controller := &fakeController{}
	h := NewControlHandler(controller, zap.NewNop())

	rec := controlRequest(t, h.PauseVision, "/vision/pause")
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", rec.Code)
	}
	if controller.vision != entities.DeviceStatePaused {
		t.Fatalf("vision should be paused, got %v", controller.vision)
	}

	var body struct {
		Success bool   `json:"success"`
		State   string `json:"state"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if !body.Success || body.State != "paused" {
		t.Fatalf("unexpected body %+v", body)
	}

	controlRequest(t, h.ResumeVision, "/vision/resume")
	if controller.vision != entities.DeviceStateRunning {
		t.Fatalf("vision should be running again, got %v", controller.vision)
	}

	controlRequest(t, h.PauseAudio, "/audio/pause")
	if controller.audio != entities.DeviceStatePaused {
		t.Fatalf("audio should be paused, got %v", controller.audio)
	}
	controlRequest(t, h.ResumeAudio, "/audio/resume")
	if controller.audio != entities.DeviceStateRunning {
		t.Fatalf("audio should be running again, got %v", controller.audio)
	}
}
