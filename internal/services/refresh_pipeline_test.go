package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dealflow-hq/dealflow-api/internal/logger"
	"github.com/dealflow-hq/dealflow-api/internal/observability"
	"github.com/dealflow-hq/dealflow-api/internal/scoring"
)

func newPipelineFixture(t *testing.T) *RefreshPipeline {
	t.Helper()
	repos, _ := newMemRepositories()
	match := newMatchService(repos, scoring.NewEngine(), logger.NewNop(), observability.NewMetrics())
	return NewRefreshPipeline(match, logger.NewNop(), time.Hour)
}

func TestRefreshPipelineStartStop(t *testing.T) {
	p := newPipelineFixture(t)

	require.NoError(t, p.Start())
	assert.True(t, p.IsRunning())
	require.Error(t, p.Start())

	require.NoError(t, p.Stop())
	assert.False(t, p.IsRunning())
	require.Error(t, p.Stop())
}

func TestRefreshPipelineSurvivesRestart(t *testing.T) {
	p := newPipelineFixture(t)

	require.NoError(t, p.Start())
	require.NoError(t, p.Stop())

	require.NoError(t, p.Start())
	assert.True(t, p.IsRunning())

	require.NoError(t, p.Stop())
	assert.False(t, p.IsRunning())
}

func TestRunOnceWorksWithoutLoop(t *testing.T) {
	p := newPipelineFixture(t)

	stats, err := p.RunOnce()
	require.NoError(t, err)
	assert.Equal(t, 0, stats.Viewers)
	assert.False(t, p.IsRunning())
}
