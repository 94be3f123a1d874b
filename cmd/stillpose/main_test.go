package main

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nvr-ai/go-stillpose/catalog"
	"github.com/nvr-ai/go-stillpose/pipeline"
	"github.com/nvr-ai/go-stillpose/stillness"
)

func TestRunListReadsCatalog(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "catalog.db")
	cat, err := catalog.Open(dbPath, zerolog.Nop())
	require.NoError(t, err)
	now := time.Now()
	require.NoError(t, cat.Record(context.Background(), &pipeline.Result{
		RunID:     "run-1",
		Source:    "dance.mp4",
		Frames:    30,
		Intervals: []stillness.Interval{{Start: 0, End: 10}},
		Artifacts: []pipeline.Artifact{{
			Index:      0,
			Interval:   stillness.Interval{Start: 0, End: 10},
			FrameIndex: 5,
			VectorPath: "outputs/silhouettes/pose_0.svg",
		}},
		StartedAt:  now,
		FinishedAt: now,
	}))
	require.NoError(t, cat.Close())

	var out bytes.Buffer
	require.NoError(t, runList(context.Background(), []string{"-catalog", dbPath, "-log-format", "json"}, &out))
	var runs []catalog.Run
	require.NoError(t, json.Unmarshal(out.Bytes(), &runs))
	require.Len(t, runs, 1)
	assert.Equal(t, "dance.mp4", runs[0].Source)

	out.Reset()
	require.NoError(t, runList(context.Background(), []string{"-catalog", dbPath, "-run", "run-1"}, &out))
	var sils []catalog.Silhouette
	require.NoError(t, json.Unmarshal(out.Bytes(), &sils))
	require.Len(t, sils, 1)
	assert.Equal(t, "outputs/silhouettes/pose_0.svg", sils[0].VectorPath)

	err = runList(context.Background(), []string{"-catalog", dbPath, "-run", "nope"}, &out)
	assert.ErrorIs(t, err, catalog.ErrRunNotFound)
}

func TestCommandsRequireOneVideo(t *testing.T) {
	var out bytes.Buffer
	assert.ErrorContains(t, runExtract(context.Background(), nil, &out), "exactly one video")
	assert.ErrorContains(t, runPoses(context.Background(), []string{"a.mp4", "b.mp4"}, &out), "exactly one video")
}

func TestCommonFlagsRejectInvalidConfig(t *testing.T) {
	var out bytes.Buffer
	err := runExtract(context.Background(), []string{"-backend", "tpu", "clip.mp4"}, &out)
	assert.ErrorContains(t, err, "unsupported execution provider")
}
