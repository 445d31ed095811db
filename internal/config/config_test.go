package config

import (
	"reflect"
	"testing"
	"time"
)

func setRequired(t *testing.T) {
	t.Setenv("SUPABASE_URL", "https://proj.supabase.co")
	t.Setenv("SUPABASE_URL_ANON_KEY", "anon")
	t.Setenv("MONGODB_URI", "mongodb://localhost:27017")
}

func TestLoadConfigDefaults(t *testing.T) {
	setRequired(t)

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Port != "8080" || cfg.CardStore != "postgrest" || cfg.StorageDriver != "supabase" {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.CardMode != "single" {
		t.Fatalf("CardMode = %q", cfg.CardMode)
	}
	if cfg.AvatarWidth != 512 || cfg.QRSize != 512 || cfg.SlugMaxLength != 48 {
		t.Fatalf("unexpected sizes: %+v", cfg)
	}
	if cfg.DraftTTL != 7*24*time.Hour || cfg.ViewRetention != 30*24*time.Hour {
		t.Fatalf("unexpected ttls: %v %v", cfg.DraftTTL, cfg.ViewRetention)
	}
	if cfg.MongoDBDatabase != "loopcard" {
		t.Fatalf("MongoDBDatabase = %q", cfg.MongoDBDatabase)
	}
}

func TestLoadConfigRequired(t *testing.T) {
	t.Setenv("SUPABASE_URL", "")
	t.Setenv("SUPABASE_URL_ANON_KEY", "anon")
	t.Setenv("MONGODB_URI", "mongodb://localhost")
	if _, err := LoadConfig(); err == nil {
		t.Fatal("expected error without SUPABASE_URL")
	}
}

func TestLoadConfigPostgresNeedsDatabaseURL(t *testing.T) {
	setRequired(t)
	t.Setenv("CARD_STORE", "postgres")
	t.Setenv("DATABASE_URL", "")
	if _, err := LoadConfig(); err == nil {
		t.Fatal("expected error without DATABASE_URL")
	}

	t.Setenv("DATABASE_URL", "postgres://localhost/loopcard")
	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.CardStore != "postgres" {
		t.Fatalf("CardStore = %q", cfg.CardStore)
	}
}

func TestLoadConfigRejectsUnknownValues(t *testing.T) {
	cases := map[string]string{
		"CARD_STORE":      "sqlite",
		"STORAGE_DRIVER":  "s3",
		"CARD_MODE":       "many",
		"AVATAR_WIDTH":    "wide",
		"QR_SIZE":         "-1",
		"SLUG_MAX_LENGTH": "80",
	}
	for key, value := range cases {
		t.Run(key, func(t *testing.T) {
			setRequired(t)
			t.Setenv(key, value)
			if _, err := LoadConfig(); err == nil {
				t.Fatalf("expected error for %s=%s", key, value)
			}
		})
	}
}

func TestParseCSV(t *testing.T) {
	got := parseCSV(" http://a.test, ,http://b.test,")
	want := []string{"http://a.test", "http://b.test"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("parseCSV = %v, want %v", got, want)
	}
	if parseCSV("") != nil {
		t.Fatal("empty input should yield nil")
	}
}
