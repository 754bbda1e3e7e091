package main

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ssdetect/internal/models"
)

func sampleResult() models.Result {
	return models.Result{
		Detections: []models.Detection{
			{ClassName: "person", Confidence: 0.91, BBox: models.BBox{X1: 128, Y1: 48, X2: 384, Y2: 240}},
			{ClassName: "dog", Confidence: 0.6, BBox: models.BBox{X1: 1, Y1: 2, X2: 3, Y2: 4}},
		},
		Status:      models.StatusOK,
		Message:     "Found 2 objects",
		Threshold:   0.5,
		Elapsed:     42 * time.Millisecond,
		ImageWidth:  640,
		ImageHeight: 480,
	}
}

func TestWriteTable(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeTable(&buf, sampleResult()))

	out := buf.String()
	assert.Contains(t, out, "Found 2 objects")
	assert.Contains(t, out, "person")
	assert.Contains(t, out, "0.910")
	assert.Contains(t, out, "(128, 48) → (384, 240)")
	assert.Contains(t, out, "Elapsed: 42ms")
	assert.Contains(t, out, "dog: 1")
}

func TestWriteTableEmpty(t *testing.T) {
	var buf bytes.Buffer
	res := models.Result{Detections: []models.Detection{}, Status: models.StatusNoDetections, Message: "nothing"}
	require.NoError(t, writeTable(&buf, res))
	assert.Equal(t, "nothing\n", buf.String())
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeJSON(&buf, sampleResult()))

	var decoded struct {
		Status     string `json:"status"`
		Width      int    `json:"width"`
		Detections []struct {
			ClassName string `json:"class_name"`
			BBox      []int  `json:"bbox"`
		} `json:"detections"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "ok", decoded.Status)
	assert.Equal(t, 640, decoded.Width)
	require.Len(t, decoded.Detections, 2)
	assert.Equal(t, []int{128, 48, 384, 240}, decoded.Detections[0].BBox)
}

func TestNewLogger(t *testing.T) {
	l, err := newLogger("debug")
	require.NoError(t, err)
	assert.NotNil(t, l)

	_, err = newLogger("loud")
	assert.Error(t, err)
}

func TestCloseDetectorWithoutDetector(t *testing.T) {
	assert.NoError(t, closeDetector(nil))
}

func TestPostprocessor(t *testing.T) {
	dets := sampleResult().Detections

	assert.Equal(t, dets, postprocessor(0, nil)(dets))

	kept := postprocessor(0.7, nil)(dets)
	require.Len(t, kept, 1)
	assert.Equal(t, "person", kept[0].ClassName)

	kept = postprocessor(0.5, []string{"dog"})(dets)
	require.Len(t, kept, 1)
	assert.Equal(t, "dog", kept[0].ClassName)

	assert.Empty(t, postprocessor(0.7, []string{"dog"})(dets))
}

func TestBackendFlagUsage(t *testing.T) {
	usage := rootCmd.PersistentFlags().Lookup("backend").Usage
	assert.Contains(t, usage, "onnx, remote, static")
}
