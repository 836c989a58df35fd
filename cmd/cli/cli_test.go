package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/crn/internal/application/dto"
	"github.com/turtacn/crn/internal/domain/models"
	"github.com/turtacn/crn/internal/interfaces/http/middleware"
)

func setupEnv(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("CRN_DATABASE_DRIVER", "sqlite")
	t.Setenv("CRN_DATABASE_SQLITE_PATH", filepath.Join(dir, "crn.db"))
	t.Setenv("CRN_AUTH_JWT_SECRET", "cli-test-secret")
	t.Setenv("CRN_PRIVACY_PEPPER", "cli-test-pepper")
	return dir
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := NewRootCommand()
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestBusinessCreate(t *testing.T) {
	setupEnv(t)

	out, err := run(t, "business", "create", "--name", "  Acme Plumbing ")
	require.NoError(t, err)

	var b models.Business
	require.NoError(t, json.Unmarshal([]byte(out), &b))
	assert.NotEmpty(t, b.ID)
	assert.Equal(t, "Acme Plumbing", b.Name)

	_, err = run(t, "business", "create")
	assert.Error(t, err)
}

func TestImportSyncAndReport(t *testing.T) {
	dir := setupEnv(t)
	csvPath := filepath.Join(dir, "records.csv")
	csv := strings.Join([]string{
		"parcel_id,owner_name,address,municipality,county,state,property_class",
		"P-1,DOE JANE,12 Elm Street,Springfield,Hampden,MA,residential",
		"P-2,ACME HOLDINGS LLC,14 Elm Street,Springfield,Hampden,MA,residential",
		",NO PARCEL,1 Main Street,Springfield,Hampden,MA,residential",
	}, "\n")
	require.NoError(t, os.WriteFile(csvPath, []byte(csv), 0o600))

	out, err := run(t, "property", "import", "-f", csvPath)
	require.NoError(t, err)
	var imported dto.ImportResult
	require.NoError(t, json.Unmarshal([]byte(out), &imported))
	assert.Equal(t, 2, imported.Imported)
	assert.Equal(t, 1, imported.Rejected)

	out, err = run(t, "property", "sync", "--all", "--limit", "1")
	require.NoError(t, err)
	var synced models.SyncResult
	require.NoError(t, json.Unmarshal([]byte(out), &synced))
	assert.Equal(t, 1, synced.Created)
	assert.Equal(t, 1, synced.Linked)
	assert.Equal(t, 1, synced.Skipped)

	out, err = run(t, "report", "tiers")
	require.NoError(t, err)
	var report dto.TierReport
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, int64(1), report.Total)

	out, err = run(t, "identity", "streak")
	require.NoError(t, err)
	var streak dto.CleanStreakResult
	require.NoError(t, json.Unmarshal([]byte(out), &streak))
	assert.Equal(t, 1, streak.Scanned)
}

func TestIdentityMergeValidates(t *testing.T) {
	setupEnv(t)
	_, err := run(t, "identity", "merge", "--keep", "not-a-uuid", "--absorb", "also-not")
	assert.Error(t, err)
}

func TestIssueToken(t *testing.T) {
	now := time.Now()
	signed, err := issueToken([]byte("secret"), "crn", "tenant-1", "admin", time.Hour, now)
	require.NoError(t, err)

	claims := &middleware.TenantClaims{}
	_, err = jwt.ParseWithClaims(signed, claims, func(*jwt.Token) (interface{}, error) { return []byte("secret"), nil },
		jwt.WithValidMethods([]string{"HS256"}), jwt.WithIssuer("crn"))
	require.NoError(t, err)
	assert.Equal(t, "tenant-1", claims.TenantID)
	assert.Equal(t, "admin", claims.Role)

	_, err = issueToken([]byte("secret"), "crn", "tenant-1", "", 0, now)
	assert.Error(t, err)
}
