package vectorstore

import "testing"

func TestVectorKeyIsStableAndDistinguishesColumns(t *testing.T) {
	a := vectorKey("employees", "name")
	b := vectorKey("employees", "name")
	c := vectorKey("employees", "salary")
	d := vectorKey("contractors", "name")

	if a != b {
		t.Error("same table/column should produce the same key")
	}
	if a == c {
		t.Error("different column should produce different key")
	}
	if a == d {
		t.Error("different table should produce different key")
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.MaxRetries != 5 {
		t.Errorf("expected MaxRetries 5, got %d", cfg.MaxRetries)
	}
	if cfg.InitialBackoff != 100 {
		t.Errorf("expected InitialBackoff 100ms, got %d", cfg.InitialBackoff)
	}
	if cfg.MaxBackoff != 30000 {
		t.Errorf("expected MaxBackoff 30000ms, got %d", cfg.MaxBackoff)
	}
}
