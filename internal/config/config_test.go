package config

import "testing"

func TestLoad_Defaults(t *testing.T) {
	cfg := Load()
	if cfg.Port != "8080" {
		t.Errorf("expected default port 8080, got %q", cfg.Port)
	}
	if cfg.AdmissionCapacity != 8 {
		t.Errorf("expected default admission capacity 8, got %d", cfg.AdmissionCapacity)
	}
	if cfg.EmbeddingDimension != 768 {
		t.Errorf("expected default embedding dimension 768, got %d", cfg.EmbeddingDimension)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("ADMISSION_CAPACITY", "32")
	t.Setenv("LLM_QPS", "5.5")

	cfg := Load()
	if cfg.Port != "9090" {
		t.Errorf("expected overridden port 9090, got %q", cfg.Port)
	}
	if cfg.AdmissionCapacity != 32 {
		t.Errorf("expected overridden admission capacity 32, got %d", cfg.AdmissionCapacity)
	}
	if cfg.LLMQPS != 5.5 {
		t.Errorf("expected overridden LLM QPS 5.5, got %v", cfg.LLMQPS)
	}
}

func TestLoad_InvalidIntFallsBackToDefault(t *testing.T) {
	t.Setenv("ADMISSION_CAPACITY", "not-a-number")
	cfg := Load()
	if cfg.AdmissionCapacity != 8 {
		t.Errorf("expected fallback to default on invalid int, got %d", cfg.AdmissionCapacity)
	}
}
