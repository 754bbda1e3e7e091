package server

import (
	"encoding/json"
	"image"
	"image/png"
	"io"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/samber/lo"
	"go.uber.org/zap"

	"ssdetect/internal/models"
	"ssdetect/processing/annotate"
	"ssdetect/processing/capture"
	processing "ssdetect/processing/detector"
)

const maxUploadSize = 50 << 20

type Handler struct {
	detector *processing.Detector
	logger   *zap.SugaredLogger
}

func NewHandler(detector *processing.Detector, logger *zap.SugaredLogger) *Handler {
	return &Handler{
		detector: detector,
		logger:   logger,
	}
}

type detectResponse struct {
	Success    bool               `json:"success"`
	Status     models.Status      `json:"status"`
	Message    string             `json:"message"`
	Detections []models.Detection `json:"detections"`
	ElapsedMS  int64              `json:"elapsed_ms"`
	Width      int                `json:"width"`
	Height     int                `json:"height"`
}

// upload is a parsed /detect or /annotate request.
type upload struct {
	img       image.Image
	threshold float64
	post      processing.Postprocessor
}

func (u upload) run(r *http.Request, det *processing.Detector) models.Result {
	res := det.RunWithThreshold(r.Context(), u.img, u.threshold)
	res.Detections = u.post(res.Detections)
	return res
}

// DetectHandler handles POST /detect. Pipeline outcomes, including an unavailable
// model, are reported through status with 200; only bad requests get 4xx.
func (h *Handler) DetectHandler(w http.ResponseWriter, r *http.Request) {
	up, ok := h.parseUpload(w, r)
	if !ok {
		return
	}

	res := up.run(r, h.detector)

	h.respondJSON(w, detectResponse{
		Success:    res.OK(),
		Status:     res.Status,
		Message:    res.Message,
		Detections: res.Detections,
		ElapsedMS:  res.Elapsed.Milliseconds(),
		Width:      res.ImageWidth,
		Height:     res.ImageHeight,
	}, http.StatusOK)
}

// AnnotateHandler handles POST /annotate and replies with the annotated PNG.
func (h *Handler) AnnotateHandler(w http.ResponseWriter, r *http.Request) {
	up, ok := h.parseUpload(w, r)
	if !ok {
		return
	}

	res := up.run(r, h.detector)

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("X-Detection-Status", string(res.Status))
	w.Header().Set("X-Detection-Count", strconv.Itoa(len(res.Detections)))
	w.WriteHeader(http.StatusOK)
	if err := png.Encode(w, annotate.Annotate(up.img, res.Detections)); err != nil {
		h.logger.Warnw("failed to write annotated image", "error", err)
	}
}

// HealthHandler reports liveness and whether the model is usable.
func (h *Handler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	h.respondJSON(w, map[string]any{
		"status":       "ok",
		"model_loaded": h.detector.Loaded(),
		"model":        h.detector.ModelName(),
	}, http.StatusOK)
}

func (h *Handler) parseUpload(w http.ResponseWriter, r *http.Request) (upload, bool) {
	if r.Method != http.MethodPost {
		h.respondError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return upload{}, false
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		h.respondError(w, "Failed to parse form", http.StatusBadRequest)
		return upload{}, false
	}

	threshold, err := parseThreshold(r.FormValue("threshold"), h.detector.Threshold())
	if err != nil {
		h.respondError(w, err.Error(), http.StatusBadRequest)
		return upload{}, false
	}
	post, err := postprocessor(r)
	if err != nil {
		h.respondError(w, err.Error(), http.StatusBadRequest)
		return upload{}, false
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		h.respondError(w, "No file uploaded", http.StatusBadRequest)
		return upload{}, false
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		h.respondError(w, "Failed to read file", http.StatusInternalServerError)
		return upload{}, false
	}

	img, _, err := capture.NewUploadSource(header.Filename, data).Open()
	if err != nil {
		h.logger.Debugw("rejected upload", "file", header.Filename, "error", err)
		h.respondError(w, "Invalid image: "+err.Error(), http.StatusUnsupportedMediaType)
		return upload{}, false
	}

	return upload{img: img, threshold: threshold, post: post}, true
}

// postprocessor honours the optional "min_score" and comma separated "classes" fields.
func postprocessor(r *http.Request) (processing.Postprocessor, error) {
	var pps []processing.Postprocessor

	if raw := r.FormValue("min_score"); raw != "" {
		minScore, err := parseUnit(raw)
		if err != nil {
			return nil, errors.New("min_score must be a number in [0, 1]")
		}
		pps = append(pps, processing.NewScoreFilter(minScore))
	}

	if raw := r.FormValue("classes"); raw != "" {
		names := lo.FilterMap(strings.Split(raw, ","), func(s string, _ int) (string, bool) {
			s = strings.TrimSpace(s)
			return s, s != ""
		})
		pps = append(pps, processing.NewClassFilter(names...))
	}

	return processing.Chain(pps...), nil
}

func parseThreshold(raw string, fallback float64) (float64, error) {
	if raw == "" {
		return fallback, nil
	}
	t, err := parseUnit(raw)
	if err != nil {
		return 0, errThreshold
	}
	return t, nil
}

func parseUnit(raw string) (float64, error) {
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || v < 0 || v > 1 {
		return 0, errors.Errorf("%v is outside [0, 1]", v)
	}
	return v, nil
}

func (h *Handler) respondJSON(w http.ResponseWriter, data any, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Warnw("failed to write response", "status", status, "error", err)
	}
}

func (h *Handler) respondError(w http.ResponseWriter, message string, status int) {
	h.respondJSON(w, map[string]any{"success": false, "error": message}, status)
}
