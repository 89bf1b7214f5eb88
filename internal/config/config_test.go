package config

import "testing"

func TestParseConfigDefaults(t *testing.T) {
	cfg, err := ParseConfig()
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if cfg.HTTPPort != "5000" {
		t.Fatalf("expected port 5000, got %s", cfg.HTTPPort)
	}
	if cfg.BackgroundRemover != "rembg" || cfg.CategoryClassifier != "tfserving" || cfg.ColorClassifier != "knn" {
		t.Fatalf("unexpected backends %s/%s/%s", cfg.BackgroundRemover, cfg.CategoryClassifier, cfg.ColorClassifier)
	}
	if cfg.ColorKNNNeighbours != 5 || cfg.MaxUploadMB != 16 {
		t.Fatalf("unexpected knn/upload defaults %d/%d", cfg.ColorKNNNeighbours, cfg.MaxUploadMB)
	}
}

func TestParseConfigFromEnv(t *testing.T) {
	t.Setenv("HTTP_PORT", "8080")
	t.Setenv("STORAGE_TYPE", "minio")
	t.Setenv("COLOR_CLASSIFIER", "volcengine")
	t.Setenv("AUTH_REQUIRE_USER", "true")
	t.Setenv("REMBG_ALPHA_MATTING", "false")

	cfg, err := ParseConfig()
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if cfg.HTTPPort != "8080" || cfg.StorageType != "minio" || cfg.ColorClassifier != "volcengine" {
		t.Fatalf("env not applied: %+v", cfg)
	}
	if !cfg.AuthRequireUser || cfg.RembgAlphaMatting {
		t.Fatalf("bool settings not applied: require=%v matting=%v", cfg.AuthRequireUser, cfg.RembgAlphaMatting)
	}
}

func TestParseConfigInvalid(t *testing.T) {
	t.Setenv("COLOR_KNN_K", "many")
	if _, err := ParseConfig(); err == nil {
		t.Fatal("expected error for non-numeric COLOR_KNN_K")
	}
}
