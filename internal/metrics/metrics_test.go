package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

// findMetric は指定名・ラベルのメトリクスを取得する。
func findMetric(t *testing.T, reg *prometheus.Registry, name string, labels map[string]string) *dto.Metric {
	t.Helper()
	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.GetMetric() {
			if labelsMatch(m, labels) {
				return m
			}
		}
	}
	t.Fatalf("metric %s%v not found", name, labels)
	return nil
}

func labelsMatch(m *dto.Metric, labels map[string]string) bool {
	if len(m.GetLabel()) != len(labels) {
		return false
	}
	for _, lp := range m.GetLabel() {
		if labels[lp.GetName()] != lp.GetValue() {
			return false
		}
	}
	return true
}

func TestNewCollector_ReturnsNonNil(t *testing.T) {
	reg := prometheus.NewRegistry()
	if c := NewCollector(reg); c == nil {
		t.Fatal("expected non-nil Collector")
	}
}

func TestRecordInviteValidation_CountsByResult(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordInviteValidation("valid")
	c.RecordInviteValidation("expired")
	c.RecordInviteValidation("expired")

	if v := findMetric(t, reg, "lifelog_invite_validations_total", map[string]string{"result": "expired"}).GetCounter().GetValue(); v != 2 {
		t.Errorf("expired = %v, want 2", v)
	}
	if v := findMetric(t, reg, "lifelog_invite_validations_total", map[string]string{"result": "valid"}).GetCounter().GetValue(); v != 1 {
		t.Errorf("valid = %v, want 1", v)
	}
}

func TestRecordInviteRedemption_CountsByOutcome(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordInviteRedemption("success")
	c.RecordInviteRedemption("failure")

	if v := findMetric(t, reg, "lifelog_invite_redemptions_total", map[string]string{"outcome": "failure"}).GetCounter().GetValue(); v != 1 {
		t.Errorf("failure = %v, want 1", v)
	}
}

func TestRecordAuthCallback_CountsByOutcome(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordAuthCallback("provider_error")
	c.RecordAuthCallback("success")
	c.RecordAuthCallback("success")

	if v := findMetric(t, reg, "lifelog_auth_callbacks_total", map[string]string{"outcome": "success"}).GetCounter().GetValue(); v != 2 {
		t.Errorf("success = %v, want 2", v)
	}
}

func TestRecordHTTPStatus_LabelsByCode(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordHTTPStatus(200)
	c.RecordHTTPStatus(200)
	c.RecordHTTPStatus(404)

	if v := findMetric(t, reg, "lifelog_http_status_total", map[string]string{"status_code": "200"}).GetCounter().GetValue(); v != 2 {
		t.Errorf("200 = %v, want 2", v)
	}
	if v := findMetric(t, reg, "lifelog_http_status_total", map[string]string{"status_code": "404"}).GetCounter().GetValue(); v != 1 {
		t.Errorf("404 = %v, want 1", v)
	}
}

func TestRecordExportLatency_Observes(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordExportLatency(150 * time.Millisecond)

	h := findMetric(t, reg, "lifelog_export_latency_seconds", map[string]string{}).GetHistogram()
	if h.GetSampleCount() != 1 {
		t.Errorf("sample count = %d, want 1", h.GetSampleCount())
	}
}

func TestRecordSessionsCleaned_Adds(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordSessionsCleaned(3)
	c.RecordSessionsCleaned(0)

	if v := findMetric(t, reg, "lifelog_sessions_cleaned_total", map[string]string{}).GetCounter().GetValue(); v != 3 {
		t.Errorf("sessions_cleaned = %v, want 3", v)
	}
}

func TestNewCollector_DuplicateRegistrationPanics(t *testing.T) {
	reg := prometheus.NewRegistry()
	NewCollector(reg)

	defer func() {
		if recover() == nil {
			t.Error("expected panic on duplicate registration")
		}
	}()
	NewCollector(reg)
}
