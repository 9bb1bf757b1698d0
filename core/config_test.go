package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name        string
		cutoffHour  int
		archiveHour int
		wantErr     bool
	}{
		{name: "defaults", cutoffHour: 18, archiveHour: 20},
		{name: "archive at cutoff", cutoffHour: 18, archiveHour: 18},
		{name: "archive before cutoff", cutoffHour: 18, archiveHour: 2, wantErr: true},
		{name: "archive hour out of range", cutoffHour: 18, archiveHour: 24, wantErr: true},
		{name: "negative cutoff", cutoffHour: -1, archiveHour: 20, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conf := NewTestConfig()
			conf.Dinner.CutoffHour = tt.cutoffHour
			conf.Dinner.ArchiveHour = tt.archiveHour
			if err := conf.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v; wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestNewConfig(t *testing.T) {
	t.Setenv("ENV", "TEST")
	t.Setenv("CONFIG_DIR", t.TempDir())
	t.Setenv("CONFIG_FILE", "")

	conf, err := NewConfig()
	require.NoError(t, err)
	assert.Equal(t, "TEST", conf.Env)
	assert.True(t, conf.TestMode)
	assert.Equal(t, 20, conf.Dinner.ArchiveHour)

	t.Setenv("TEST_DINNER_ARCHIVEHOUR", "2")
	_, err = NewConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dinner.archiveHour (2) is before dinner.cutoffHour (18)")
}
