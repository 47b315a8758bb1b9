// internal/versioning/semver_test.go
package versioning

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"template-manager/internal/models"
)

// ==========================
// parseVersion
// ==========================

func TestParseVersion(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    semver
		wantErr bool
	}{
		{name: "simple", input: "1.4.7", want: semver{1, 4, 7}},
		{name: "zeros", input: "0.0.0", want: semver{0, 0, 0}},
		{name: "large components", input: "12.0.34", want: semver{12, 0, 34}},
		{name: "missing component", input: "1.4", wantErr: true},
		{name: "extra component", input: "1.4.7.2", wantErr: true},
		{name: "non numeric", input: "1.x.7", wantErr: true},
		{name: "leading zero", input: "1.04.7", wantErr: true},
		{name: "negative", input: "1.-4.7", wantErr: true},
		{name: "prerelease suffix", input: "1.4.7-beta", wantErr: true},
		{name: "empty", input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseVersion(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

// ==========================
// bump
// ==========================

func TestBump(t *testing.T) {
	base := semver{major: 1, minor: 4, patch: 7}

	tests := []struct {
		name       string
		changeType models.ChangeType
		want       string
		wantErr    bool
	}{
		{name: "patch", changeType: models.ChangePatch, want: "1.4.8"},
		{name: "minor resets patch", changeType: models.ChangeMinor, want: "1.5.0"},
		{name: "major resets minor and patch", changeType: models.ChangeMajor, want: "2.0.0"},
		{name: "unknown change type", changeType: models.ChangeType("hotfix"), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := base.bump(tt.changeType)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.String())
		})
	}
}

func TestLess(t *testing.T) {
	assert.True(t, semver{1, 9, 9}.less(semver{2, 0, 0}))
	assert.True(t, semver{1, 4, 7}.less(semver{1, 5, 0}))
	assert.True(t, semver{1, 4, 7}.less(semver{1, 4, 8}))
	assert.False(t, semver{1, 4, 7}.less(semver{1, 4, 7}))
	assert.False(t, semver{2, 0, 0}.less(semver{1, 9, 9}))
}
