package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		DatabaseURL:        "postgres://localhost:5432/seashield",
		HTTP:               HTTPConfig{Port: 8080, AllowedOrigins: []string{"https://seashield.example"}},
		GmailUserID:        "organizers@seashield.example",
		EcoScorePerCheckIn: 10,
		TeamCapacity:       10,
		RecurringEvents: []RecurringEvent{
			{
				Title:          "Sunday Sweep",
				Location:       "North Beach",
				RRule:          "FREQ=WEEKLY;BYDAY=SU",
				WasteAvailable: 40,
			},
		},
	}
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "seashield_config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestValidate_ValidConfig(t *testing.T) {
	assert.NoError(t, Validate(validConfig()))
}

func TestValidate_MinimalConfig(t *testing.T) {
	cfg := &Config{DatabaseURL: "postgres://localhost/seashield"}
	assert.NoError(t, Validate(cfg))
}

func TestValidate_MissingDatabaseURL(t *testing.T) {
	cfg := validConfig()
	cfg.DatabaseURL = ""

	err := Validate(cfg)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "validation failed")
}

func TestValidate_InvalidRRule(t *testing.T) {
	cfg := validConfig()
	cfg.RecurringEvents[0].RRule = "INVALID_RRULE_SYNTAX"

	err := Validate(cfg)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "invalid rrule in recurringEvents[0]")
}

func TestValidate_NegativeWasteAvailable(t *testing.T) {
	cfg := validConfig()
	cfg.RecurringEvents[0].WasteAvailable = -1

	err := Validate(cfg)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "validation failed")
}

func TestValidate_RecurringEventWithoutTitle(t *testing.T) {
	cfg := validConfig()
	cfg.RecurringEvents[0].Title = ""

	err := Validate(cfg)
	assert.Error(t, err)
}

func TestValidate_InvalidPort(t *testing.T) {
	cfg := validConfig()
	cfg.HTTP.Port = 70000

	assert.Error(t, Validate(cfg))
}

func TestValidate_InvalidGmailUser(t *testing.T) {
	cfg := validConfig()
	cfg.GmailUserID = "not-an-email"

	assert.Error(t, Validate(cfg))
}

func TestLoadFromPath_ValidConfig(t *testing.T) {
	t.Setenv(EnvDatabaseURL, "")
	t.Setenv(EnvFirebaseCredentials, "")

	path := writeConfig(t, `
databaseURL: "postgres://localhost:5432/seashield"
http:
  port: 9000
  allowedOrigins:
    - "https://seashield.example"
firebase:
  credentialsFile: "firebase.json"
gmailUserID: "organizers@seashield.example"
reportSheetID: "sheet123"
ecoScorePerCheckIn: 15
recurringEvents:
  - title: "Sunday Sweep"
    location: "North Beach"
    rrule: "FREQ=WEEKLY;BYDAY=SU"
    wasteAvailable: 40
`)

	cfg, err := LoadFromPath(path)
	require.NoError(t, err)

	assert.Equal(t, "postgres://localhost:5432/seashield", cfg.DatabaseURL)
	assert.Equal(t, 9000, cfg.HTTP.Port)
	assert.Equal(t, []string{"https://seashield.example"}, cfg.HTTP.AllowedOrigins)
	assert.Equal(t, "firebase.json", cfg.Firebase.CredentialsFile)
	assert.Equal(t, "sheet123", cfg.ReportSheetID)
	assert.Equal(t, 15, cfg.EcoScorePerCheckIn)

	require.Len(t, cfg.RecurringEvents, 1)
	assert.Equal(t, "Sunday Sweep", cfg.RecurringEvents[0].Title)
	assert.Equal(t, 40.0, cfg.RecurringEvents[0].WasteAvailable)
}

func TestLoadFromPath_AppliesDefaults(t *testing.T) {
	t.Setenv(EnvDatabaseURL, "")

	path := writeConfig(t, `databaseURL: "postgres://localhost/seashield"`)

	cfg, err := LoadFromPath(path)
	require.NoError(t, err)

	assert.Equal(t, DefaultEcoScorePerCheckIn, cfg.EcoScorePerCheckIn)
	assert.Equal(t, DefaultTeamCapacity, cfg.TeamCapacity)
	assert.Equal(t, DefaultAutoAssignTeamSize, cfg.AutoAssignTeamSize)
	assert.Equal(t, DefaultHTTPPort, cfg.HTTP.Port)
	assert.Empty(t, cfg.RecurringEvents)
}

func TestLoadFromPath_EnvironmentOverrides(t *testing.T) {
	t.Setenv(EnvDatabaseURL, "postgres://override/seashield")
	t.Setenv(EnvFirebaseCredentials, "/secrets/firebase.json")

	path := writeConfig(t, `databaseURL: "postgres://localhost/seashield"`)

	cfg, err := LoadFromPath(path)
	require.NoError(t, err)

	assert.Equal(t, "postgres://override/seashield", cfg.DatabaseURL)
	assert.Equal(t, "/secrets/firebase.json", cfg.Firebase.CredentialsFile)
}

func TestLoadFromPath_DatabaseURLFromEnvironmentOnly(t *testing.T) {
	t.Setenv(EnvDatabaseURL, "postgres://env-only/seashield")

	path := writeConfig(t, `ecoScorePerCheckIn: 10`)

	cfg, err := LoadFromPath(path)
	require.NoError(t, err)
	assert.Equal(t, "postgres://env-only/seashield", cfg.DatabaseURL)
}

func TestLoadFromPath_MissingRequiredField(t *testing.T) {
	t.Setenv(EnvDatabaseURL, "")

	path := writeConfig(t, `gmailUserID: "organizers@seashield.example"`)

	_, err := LoadFromPath(path)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "validation failed")
}

func TestLoadFromPath_InvalidYAML(t *testing.T) {
	path := writeConfig(t, `
databaseURL: "postgres://localhost/seashield"
  invalid indentation
http: {}
`)

	_, err := LoadFromPath(path)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse config file")
}

func TestLoadFromPath_FileNotFound(t *testing.T) {
	_, err := LoadFromPath("/nonexistent/path/config.yaml")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestLoadDotEnv_MissingFilesIgnored(t *testing.T) {
	t.Chdir(t.TempDir())

	assert.NoError(t, loadDotEnv("test"))
}

func TestLoadDotEnv_EnvironmentFileTakesPrecedence(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env.test"), []byte("SEASHIELD_TEST_VALUE=from-test\n"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("SEASHIELD_TEST_VALUE=from-shared\n"), 0644))
	t.Setenv("SEASHIELD_TEST_VALUE", "")
	os.Unsetenv("SEASHIELD_TEST_VALUE")

	require.NoError(t, loadDotEnv("test"))
	assert.Equal(t, "from-test", os.Getenv("SEASHIELD_TEST_VALUE"))
}

func TestFindConfigFile_PrefersEnvironmentFile(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.WriteFile("seashield_config.yaml", []byte("{}"), 0644))
	require.NoError(t, os.WriteFile("seashield_config.test.yaml", []byte("{}"), 0644))

	path, err := findConfigFile("test")
	require.NoError(t, err)
	assert.Equal(t, "seashield_config.test.yaml", path)

	path, err = findConfigFile("prod")
	require.NoError(t, err)
	assert.Equal(t, "seashield_config.yaml", path)
}

func TestDefaults(t *testing.T) {
	cfg := Defaults()

	assert.Empty(t, cfg.DatabaseURL)
	assert.Equal(t, DefaultEcoScorePerCheckIn, cfg.EcoScorePerCheckIn)
	assert.Equal(t, DefaultTeamCapacity, cfg.TeamCapacity)
	assert.Equal(t, DefaultAutoAssignTeamSize, cfg.AutoAssignTeamSize)
	assert.Equal(t, DefaultHTTPPort, cfg.HTTP.Port)
}
