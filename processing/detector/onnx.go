package processing

import (
	"context"
	"image"
	"sync"

	"github.com/pkg/errors"
	ort "github.com/yalue/onnxruntime_go"
	"go.uber.org/zap"

	"ssdetect/internal/models"
)

// Tensor names of the TensorFlow object detection API export of SSD MobileNet.
const (
	ssdInputName      = "image_tensor:0"
	ssdBoxesName      = "detection_boxes:0"
	ssdClassesName    = "detection_classes:0"
	ssdScoresName     = "detection_scores:0"
	ssdNumDetectsName = "num_detections:0"
)

var ortInit sync.Mutex

// ONNXModel runs an SSD detector locally through onnxruntime.
type ONNXModel struct {
	source     string
	cacheDir   string
	libraryDir string
	threads    int
	logger     *zap.SugaredLogger

	mu      sync.Mutex
	session *ort.DynamicAdvancedSession
}

func NewONNXModel(source, cacheDir, ortLibrary string, threads int, logger *zap.SugaredLogger) *ONNXModel {
	return &ONNXModel{
		source:     source,
		cacheDir:   cacheDir,
		libraryDir: ortLibrary,
		threads:    threads,
		logger:     logger,
	}
}

func (m *ONNXModel) Name() string {
	return "onnx:" + m.source
}

// Load fetches the model into the cache on first use and opens an inference session.
func (m *ONNXModel) Load(ctx context.Context) error {
	path, err := FetchModel(ctx, m.source, m.cacheDir, m.logger)
	if err != nil {
		return err
	}
	if err := initRuntime(m.libraryDir); err != nil {
		return err
	}

	opts, err := ort.NewSessionOptions()
	if err != nil {
		return errors.Wrap(err, "create session options")
	}
	defer opts.Destroy()
	if m.threads > 0 {
		if err := opts.SetIntraOpNumThreads(m.threads); err != nil {
			return errors.Wrap(err, "set intra op threads")
		}
	}

	session, err := ort.NewDynamicAdvancedSession(path,
		[]string{ssdInputName},
		[]string{ssdBoxesName, ssdClassesName, ssdScoresName, ssdNumDetectsName},
		opts,
	)
	if err != nil {
		return errors.Wrapf(err, "open onnx session for %s", path)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.session != nil {
		_ = m.session.Destroy()
	}
	m.session = session
	return nil
}

func (m *ONNXModel) Infer(ctx context.Context, img image.Image) ([]models.RawCandidate, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	// Run holds the lock so Load or Close cannot destroy the session underneath it
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.session == nil {
		return nil, errors.Wrap(ErrDisconnected, "onnx session is not open")
	}
	session := m.session

	b := img.Bounds()
	input, err := ort.NewTensor(ort.NewShape(1, int64(b.Dy()), int64(b.Dx()), 3), imageToHWC(img))
	if err != nil {
		return nil, errors.Wrap(err, "create input tensor")
	}
	defer input.Destroy()

	outputs := make([]ort.Value, 4)
	if err := session.Run([]ort.Value{input}, outputs); err != nil {
		return nil, errors.Wrap(err, "run onnx session")
	}
	defer func() {
		for _, o := range outputs {
			if o != nil {
				_ = o.Destroy()
			}
		}
	}()

	boxes, err := floatData(outputs[0], ssdBoxesName)
	if err != nil {
		return nil, err
	}
	classes, err := floatData(outputs[1], ssdClassesName)
	if err != nil {
		return nil, err
	}
	scores, err := floatData(outputs[2], ssdScoresName)
	if err != nil {
		return nil, err
	}
	num, err := floatData(outputs[3], ssdNumDetectsName)
	if err != nil {
		return nil, err
	}

	t := outputTensors{
		Boxes:   flatBoxes(boxes),
		Classes: classes,
		Scores:  scores,
	}
	if len(num) > 0 {
		n := int(num[0])
		t.NumDetections = &n
	}
	return t.candidates(), nil
}

func (m *ONNXModel) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.session == nil {
		return nil
	}
	err := m.session.Destroy()
	m.session = nil
	return err
}

// RuntimeReady reports whether the onnxruntime environment has been initialized.
func RuntimeReady() bool {
	return ort.IsInitialized()
}

// ShutdownRuntime tears down the process-wide onnxruntime environment.
func ShutdownRuntime() error {
	ortInit.Lock()
	defer ortInit.Unlock()
	if !ort.IsInitialized() {
		return nil
	}
	return ort.DestroyEnvironment()
}

func initRuntime(library string) error {
	ortInit.Lock()
	defer ortInit.Unlock()
	if ort.IsInitialized() {
		return nil
	}
	if library != "" {
		ort.SetSharedLibraryPath(library)
	}
	return errors.Wrap(ort.InitializeEnvironment(), "initialize onnxruntime")
}

func floatData(v ort.Value, name string) ([]float32, error) {
	t, ok := v.(*ort.Tensor[float32])
	if !ok {
		return nil, errors.Errorf("output %s: expected a float32 tensor, got %T", name, v)
	}
	return t.GetData(), nil
}

// imageToHWC packs an image into a uint8 height x width x RGB buffer.
func imageToHWC(img image.Image) []uint8 {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	out := make([]uint8, 0, w*h*3)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			r, g, bl, _ := img.At(x, y).RGBA()
			out = append(out, uint8(r>>8), uint8(g>>8), uint8(bl>>8))
		}
	}
	return out
}
