package daemon

import (
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/pipetlab/pipet/pkg/config"
	"github.com/pipetlab/pipet/pkg/events"
	"github.com/pipetlab/pipet/pkg/liquid"
	"github.com/pipetlab/pipet/pkg/params"
	"github.com/pipetlab/pipet/pkg/utils/ptr"
)

func glycerolDef() liquid.Definition {
	return liquid.Definition{
		Name:           "glycerol",
		VaporPressure:  liquid.TwoPoint(10, 20),
		Density:        liquid.TwoPoint(1000, 950),
		SurfaceTension: liquid.TwoPoint(70, 65),
		Viscosity:      liquid.TwoPoint(1.0, 0.9),
	}
}

// setupTestDaemon wires the package globals against a throwaway config file
// and returns the router.
func setupTestDaemon(t *testing.T) *gin.Engine {
	t.Helper()

	raw := &config.RawFileConfig{
		LabTemperature: ptr.To(22.5),
		Liquids: map[string]liquid.Definition{
			"glycerol": glycerolDef(),
		},
	}
	conf = config.NewFileFromConfig(raw, filepath.Join(t.TempDir(), "pipet.json"))
	hub = events.NewHub()
	sched = NewTemperatureScheduler(applyScheduledTemperature)

	paramsMu.Lock()
	paramsTable = nil
	paramsMu.Unlock()

	refreshSnapshots()

	return setupRoutes()
}

func doRequest(t *testing.T, router *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()

	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestGetLabTemperature(t *testing.T) {
	router := setupTestDaemon(t)

	w := doRequest(t, router, "GET", "/lab-temperature", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	var got float64
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if got != 22.5 {
		t.Fatalf("lab temperature = %v, want 22.5", got)
	}
}

func TestSetLabTemperature(t *testing.T) {
	router := setupTestDaemon(t)

	w := doRequest(t, router, "PUT", "/lab-temperature", "21")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	if conf.LabTemperature() != 21 {
		t.Fatalf("lab temperature = %v, want 21", conf.LabTemperature())
	}

	// Properties must be served at the new temperature.
	w = doRequest(t, router, "GET", "/liquids/glycerol/properties", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var props liquid.Properties
	if err := json.Unmarshal(w.Body.Bytes(), &props); err != nil {
		t.Fatalf("failed to unmarshal properties: %v", err)
	}
	if props.Temperature != 21 {
		t.Fatalf("properties temperature = %v, want 21", props.Temperature)
	}
	// density line through (20, 1000) and (25, 950) at 21°C
	if props.Density != 990 {
		t.Fatalf("density = %v, want 990", props.Density)
	}
}

func TestSetLabTemperatureRejectsGarbage(t *testing.T) {
	router := setupTestDaemon(t)

	for _, body := range []string{"", "\"warm\"", "[1,2]"} {
		w := doRequest(t, router, "PUT", "/lab-temperature", body)
		if w.Code != http.StatusBadRequest {
			t.Fatalf("body %q: status = %d, want 400", body, w.Code)
		}
	}
}

func TestLiquidCRUD(t *testing.T) {
	router := setupTestDaemon(t)

	def := liquid.Definition{
		VaporPressure:  liquid.TwoPoint(44, 59),
		Density:        liquid.TwoPoint(0.789, 0.785),
		SurfaceTension: liquid.TwoPoint(22.3, 21.9),
		Viscosity:      liquid.TwoPoint(1.2, 1.0),
	}
	body, _ := json.Marshal(def)

	w := doRequest(t, router, "PUT", "/liquids/ethanol", string(body))
	if w.Code != http.StatusOK {
		t.Fatalf("PUT status = %d, body = %s", w.Code, w.Body.String())
	}

	w = doRequest(t, router, "GET", "/liquids/ethanol", "")
	if w.Code != http.StatusOK {
		t.Fatalf("GET status = %d, body = %s", w.Code, w.Body.String())
	}
	var got liquid.Definition
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("failed to unmarshal definition: %v", err)
	}
	if got.Name != "ethanol" || got.Density.P1.Value != 0.789 {
		t.Fatalf("unexpected definition: %+v", got)
	}

	w = doRequest(t, router, "DELETE", "/liquids/ethanol", "")
	if w.Code != http.StatusOK {
		t.Fatalf("DELETE status = %d, body = %s", w.Code, w.Body.String())
	}

	w = doRequest(t, router, "GET", "/liquids/ethanol", "")
	if w.Code != http.StatusNotFound {
		t.Fatalf("GET after DELETE status = %d, want 404", w.Code)
	}
	w = doRequest(t, router, "DELETE", "/liquids/ethanol", "")
	if w.Code != http.StatusNotFound {
		t.Fatalf("second DELETE status = %d, want 404", w.Code)
	}
}

func TestSetLiquidRejectsBadCalibration(t *testing.T) {
	router := setupTestDaemon(t)

	def := glycerolDef()
	def.Viscosity = liquid.Curve{
		P1: liquid.CalibrationPoint{Temperature: 20, Value: 1},
		P2: liquid.CalibrationPoint{Temperature: 20, Value: 2},
	}
	body, _ := json.Marshal(def)

	w := doRequest(t, router, "PUT", "/liquids/broken", string(body))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400; body = %s", w.Code, w.Body.String())
	}
}

func TestGetLiquidProperties(t *testing.T) {
	router := setupTestDaemon(t)

	w := doRequest(t, router, "GET", "/liquids/glycerol/properties", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	var props liquid.Properties
	if err := json.Unmarshal(w.Body.Bytes(), &props); err != nil {
		t.Fatalf("failed to unmarshal properties: %v", err)
	}
	if props.Density != 975 || math.Abs(props.Viscosity-0.95) > 1e-9 {
		t.Fatalf("unexpected properties: %+v", props)
	}

	w = doRequest(t, router, "GET", "/liquids/nope/properties", "")
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}
}

func TestGetLiquidHandling(t *testing.T) {
	router := setupTestDaemon(t)

	w := doRequest(t, router, "GET", "/liquids/glycerol/handling", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	var h liquid.Handling
	if err := json.Unmarshal(w.Body.Bytes(), &h); err != nil {
		t.Fatalf("failed to unmarshal handling: %v", err)
	}
	if h.AspirateSpeed <= 0 || h.AspirateSpeed > 1 {
		t.Fatalf("unexpected handling: %+v", h)
	}
}

func TestPostInterpolate(t *testing.T) {
	router := setupTestDaemon(t)

	w := doRequest(t, router, "POST", "/interpolate",
		`{"t1":10,"v1":1000,"t2":20,"v2":950,"t":22.5}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var v float64
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("failed to unmarshal value: %v", err)
	}
	if v != 937.5 {
		t.Fatalf("value = %v, want 937.5", v)
	}

	w = doRequest(t, router, "POST", "/interpolate",
		`{"t1":20,"v1":1,"t2":20,"v2":2,"t":22.5}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("equal temperatures: status = %d, want 400", w.Code)
	}
}

func TestTransferPlan(t *testing.T) {
	router := setupTestDaemon(t)

	w := doRequest(t, router, "GET", "/liquids/glycerol/plan?pipette=P300&volume=50", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var plan liquid.TransferPlan
	if err := json.Unmarshal(w.Body.Bytes(), &plan); err != nil {
		t.Fatalf("failed to unmarshal plan: %v", err)
	}
	if plan.Source != "derived" {
		t.Fatalf("source = %q, want derived (no parameter table loaded)", plan.Source)
	}

	// With an optimized entry, the plan must use it.
	csv := "Pipette,Liquid,Aspiration Rate (µL/s),Dispense Rate (µL/s),Touch tip\nP300,glycerol,20.5,15,Yes\n"
	path := filepath.Join(t.TempDir(), "params.csv")
	if err := os.WriteFile(path, []byte(csv), 0644); err != nil {
		t.Fatalf("failed to write params csv: %v", err)
	}
	table, err := params.Load(path)
	if err != nil {
		t.Fatalf("params.Load returned error: %v", err)
	}
	paramsMu.Lock()
	paramsTable = table
	paramsMu.Unlock()

	w = doRequest(t, router, "GET", "/liquids/glycerol/plan?pipette=p300_single_gen2&volume=50", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	if err := json.Unmarshal(w.Body.Bytes(), &plan); err != nil {
		t.Fatalf("failed to unmarshal plan: %v", err)
	}
	if plan.Source != "optimized" || plan.AspirationRate != 20.5 || !plan.TouchTip {
		t.Fatalf("optimized entry not applied: %+v", plan)
	}

	w = doRequest(t, router, "GET", "/liquids/glycerol/plan?volume=50", "")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("missing pipette: status = %d, want 400", w.Code)
	}
	w = doRequest(t, router, "GET", "/liquids/glycerol/plan?pipette=P300&volume=-1", "")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("negative volume: status = %d, want 400", w.Code)
	}
}

func TestScheduleEndpoints(t *testing.T) {
	router := setupTestDaemon(t)

	w := doRequest(t, router, "PUT", "/schedule", `{"cron":"0 8 * * *","temperature":23}`)
	if w.Code != http.StatusOK {
		t.Fatalf("PUT status = %d, body = %s", w.Code, w.Body.String())
	}

	w = doRequest(t, router, "GET", "/schedule", "")
	if w.Code != http.StatusOK {
		t.Fatalf("GET status = %d, body = %s", w.Code, w.Body.String())
	}
	var status struct {
		Cron        string   `json:"cron"`
		Temperature float64  `json:"temperature"`
		NextRuns    []string `json:"nextRuns"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &status); err != nil {
		t.Fatalf("failed to unmarshal schedule: %v", err)
	}
	if status.Cron != "0 8 * * *" || status.Temperature != 23 || len(status.NextRuns) == 0 {
		t.Fatalf("unexpected schedule status: %+v", status)
	}

	w = doRequest(t, router, "PUT", "/schedule", `{"cron":"bogus","temperature":23}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("invalid cron: status = %d, want 400", w.Code)
	}

	w = doRequest(t, router, "POST", "/schedule/postpone", `"30m"`)
	if w.Code != http.StatusOK {
		t.Fatalf("postpone status = %d, body = %s", w.Code, w.Body.String())
	}
	w = doRequest(t, router, "POST", "/schedule/skip", "")
	if w.Code != http.StatusOK {
		t.Fatalf("skip status = %d, body = %s", w.Code, w.Body.String())
	}

	w = doRequest(t, router, "DELETE", "/schedule", "")
	if w.Code != http.StatusOK {
		t.Fatalf("DELETE status = %d, body = %s", w.Code, w.Body.String())
	}
	if s := conf.TemperatureSchedule(); s.Cron != "" {
		t.Fatalf("schedule not cleared: %+v", s)
	}
}

func TestGetConfigAndVersion(t *testing.T) {
	router := setupTestDaemon(t)

	w := doRequest(t, router, "GET", "/config", "")
	if w.Code != http.StatusOK {
		t.Fatalf("config status = %d, body = %s", w.Code, w.Body.String())
	}
	var raw config.RawFileConfig
	if err := json.Unmarshal(w.Body.Bytes(), &raw); err != nil {
		t.Fatalf("failed to unmarshal config: %v", err)
	}
	if raw.LabTemperature == nil || *raw.LabTemperature != 22.5 {
		t.Fatalf("unexpected config: %+v", raw)
	}

	w = doRequest(t, router, "GET", "/version", "")
	if w.Code != http.StatusOK {
		t.Fatalf("version status = %d", w.Code)
	}
}
