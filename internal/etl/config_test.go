package etl

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/registration-etl/pkg/config"
)

func TestFromSettingsDefaults(t *testing.T) {
	cfg, err := FromSettings(config.ETLConfig{})
	require.NoError(t, err)
	assert.Equal(t, "in", cfg.PhonePolicy.Name())
	assert.Equal(t, DefaultMinAge, cfg.MinAge)
	assert.Equal(t, "Computer Science", cfg.DepartmentAliases[foldKey("COMP  SCI")])
}

func TestFromSettingsDepartmentsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "departments.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`departments:
  - name: Biology
    head: Dr. Rosalind Franklin
    aliases: [bio, life sciences]
`), 0o600))

	cfg, err := FromSettings(config.ETLConfig{DepartmentsFile: path, PhonePolicy: "none", MinAge: 18})
	require.NoError(t, err)
	assert.Equal(t, "Biology", cfg.DepartmentAliases[foldKey("Life Sciences")])
	assert.Equal(t, "Dr. Rosalind Franklin", cfg.DepartmentHeads["Biology"])
	assert.Equal(t, 18, cfg.MinAge)
	assert.Equal(t, "none", cfg.PhonePolicy.Name())
	_, known := cfg.DepartmentAliases[foldKey("cs")]
	assert.False(t, known)
}

func TestFromSettingsRejectsUnknownPolicy(t *testing.T) {
	_, err := FromSettings(config.ETLConfig{PhonePolicy: "mars"})
	assert.Error(t, err)

	_, err = FromSettings(config.ETLConfig{DepartmentsFile: filepath.Join(t.TempDir(), "missing.yaml")})
	assert.Error(t, err)
}
