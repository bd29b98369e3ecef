package main

import (
	"encoding/json"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/guyomx/smartcities-banorte/config"
	"github.com/guyomx/smartcities-banorte/pipeline/utils"
	"github.com/guyomx/smartcities-banorte/pipeline/warehouse"
)

func newTestTrainer(t *testing.T) *PromptTrainer {
	chdirTemp(t)

	cfg, err := config.Load()
	require.NoError(t, err)

	return &PromptTrainer{
		cfg:    cfg,
		logger: utils.NewPipelineLogger(false),
	}
}

func TestConsumeTriggerValido(t *testing.T) {
	tr := newTestTrainer(t)

	data, err := json.Marshal(warehouse.RetrainTrigger{NewRecords: 3})
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(tr.cfg.Directorios.TriggerFile, data, 0o644))

	trigger, ok := tr.consumeTrigger()
	assert.True(t, ok)
	assert.Equal(t, 3, trigger.NewRecords)
	assert.NoFileExists(t, tr.cfg.Directorios.TriggerFile)
}

func TestConsumeTriggerInvalido(t *testing.T) {
	tr := newTestTrainer(t)

	require.NoError(t, os.WriteFile(tr.cfg.Directorios.TriggerFile, []byte("{roto"), 0o644))

	// Un trigger corrupto se descarta sin reentrenar y se elimina
	_, ok := tr.consumeTrigger()
	assert.False(t, ok)
	assert.NoFileExists(t, tr.cfg.Directorios.TriggerFile)
}

func TestConsumeTriggerAusente(t *testing.T) {
	tr := newTestTrainer(t)

	_, ok := tr.consumeTrigger()
	assert.False(t, ok)
}

// chdirTemp mirrors t.Chdir(t.TempDir()), which needs Go 1.24+.
func chdirTemp(t *testing.T) {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })
}
