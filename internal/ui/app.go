package ui

import (
	"context"
	"fmt"
	"image"
	"io"
	"strings"
	"sync/atomic"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"ssdetect/internal/config"
	"ssdetect/internal/models"
	"ssdetect/internal/ui/cwidget"
	"ssdetect/processing/annotate"
	"ssdetect/processing/capture"
	processing "ssdetect/processing/detector"
)

const (
	windowTitle = "SSD Object Detection System"
	noSample    = "None"
)

type DetectApp struct {
	fyneApp fyne.App
	mainWin fyne.Window

	config   *config.Config
	detector *processing.Detector
	logger   *zap.SugaredLogger

	// incremented per detection request; stale results are dropped
	runSeq atomic.Uint64

	current image.Image

	statusLabel     *widget.Label
	infoLabel       *widget.Label
	originalCanvas  *canvas.Image
	annotatedCanvas *canvas.Image
	objectsLabel    *widget.Label
	timeLabel       *widget.Label
	avgConfLabel    *widget.Label
	summaryBox      *fyne.Container
	detailsBox      *fyne.Container
	sampleSelect    *widget.Select
	openBtn         *widget.Button
	reloadBtn       *widget.Button
	diagBox         *fyne.Container
}

func CreateApp(d *processing.Detector, cfg *config.Config, logger *zap.SugaredLogger) *DetectApp {
	return newDetectApp(app.NewWithID("io.ssdetect.app"), d, cfg, logger)
}

func newDetectApp(fa fyne.App, d *processing.Detector, cfg *config.Config, logger *zap.SugaredLogger) *DetectApp {
	w := fa.NewWindow(windowTitle)

	w.Resize(fyne.NewSize(cfg.Window.Width, cfg.Window.Height))

	return &DetectApp{
		fyneApp:  fa,
		mainWin:  w,
		detector: d,
		config:   cfg,
		logger:   logger,
	}
}

func (a *DetectApp) Run() {
	tabs := container.NewAppTabs(
		container.NewTabItemWithIcon("Image Detection", theme.SearchIcon(), a.buildDetectionTab()),
		container.NewTabItemWithIcon("Model Info", theme.InfoIcon(), a.buildModelInfoTab()),
		container.NewTabItemWithIcon("System Tests", theme.SettingsIcon(), a.buildSystemTab()),
	)

	split := container.NewHSplit(
		container.NewPadded(a.buildSidebar()),
		container.NewPadded(tabs),
	)
	split.SetOffset(0.25)

	a.mainWin.SetContent(split)

	a.mainWin.SetCloseIntercept(func() {
		if err := a.config.SaveByDefault(); err != nil {
			a.logger.Warnw("failed to save config", "error", err)
		}
		a.mainWin.Close()
	})

	go a.loadModel()

	a.mainWin.CenterOnScreen()
	a.mainWin.ShowAndRun()
}

// loadModel (re)acquires the model; it runs off the UI goroutine.
func (a *DetectApp) loadModel() {
	fyne.Do(func() {
		a.statusLabel.SetText("Loading model...")
		a.reloadBtn.Disable()
		a.openBtn.Disable()
		a.sampleSelect.Disable()
	})

	ok := a.detector.Load(context.Background())

	fyne.Do(func() {
		a.reloadBtn.Enable()
		if !ok {
			a.showModelUnavailable()
			return
		}
		a.statusLabel.SetText("Model loaded successfully!")
		a.openBtn.Enable()
		a.sampleSelect.Enable()
		a.detect()
	})
}

func (a *DetectApp) showModelUnavailable() {
	a.statusLabel.SetText("Model unavailable")
	msg := fmt.Sprintf("Failed to load model %s.\nCheck your connection and try again.\n\nRetry now?", a.detector.ModelName())
	dialog.ShowConfirm("Model unavailable", msg, func(retry bool) {
		if retry {
			go a.loadModel()
		}
	}, a.mainWin)
}

func (a *DetectApp) buildSidebar() fyne.CanvasObject {
	threshold := cwidget.NewThresholdSlider(
		"Confidence Threshold",
		"Minimum confidence score for detections",
		config.MinSliderThreshold,
		config.MaxThreshold,
		config.ThresholdStep,
		a.config.GetThreshold(),
		func(v float64) {
			a.config.SetThreshold(v)
			a.detector.SetThreshold(v)
			a.detect()
		},
	)
	a.detector.SetThreshold(threshold.Value())

	about := widget.NewCard("About", "", widget.NewLabel(
		"This app uses SSD MobileNet\ntrained on the COCO dataset\nto detect 80 object classes.",
	))

	a.statusLabel = widget.NewLabel("")
	a.statusLabel.TextStyle = fyne.TextStyle{Italic: true}

	samples, err := capture.ListSamples(a.config.GetSamplesDir())
	if err != nil {
		a.logger.Warnw("failed to list samples", "dir", a.config.GetSamplesDir(), "error", err)
	}
	a.sampleSelect = widget.NewSelect(append([]string{noSample}, samples...), func(s string) {
		if s == noSample {
			return
		}
		a.loadSelection(capture.Selection{Type: capture.SourceSample, Name: s})
	})
	a.sampleSelect.SetSelected(noSample)

	a.openBtn = widget.NewButtonWithIcon("Open Image", theme.FolderOpenIcon(), a.showOpenDialog)
	a.reloadBtn = widget.NewButtonWithIcon("Reload model", theme.ViewRefreshIcon(), func() {
		go a.loadModel()
	})

	settingsLabel := widget.NewLabelWithStyle("Settings", fyne.TextAlignLeading, fyne.TextStyle{Bold: true})

	return container.NewVBox(
		settingsLabel,
		widget.NewSeparator(),
		threshold,
		widget.NewSeparator(),
		about,
		widget.NewLabel("Sample images:"),
		a.sampleSelect,
		a.openBtn,
		widget.NewSeparator(),
		a.reloadBtn,
		a.statusLabel,
	)
}

func (a *DetectApp) showOpenDialog() {
	d := dialog.NewFileOpen(func(reader fyne.URIReadCloser, err error) {
		if err != nil {
			dialog.ShowError(err, a.mainWin)
			return
		}
		if reader == nil {
			return
		}
		defer reader.Close()

		data, err := io.ReadAll(reader)
		if err != nil {
			dialog.ShowError(errors.Wrap(err, "read image"), a.mainWin)
			return
		}
		a.sampleSelect.SetSelected(noSample)
		a.loadSelection(capture.Selection{Type: capture.SourceUpload, Name: reader.URI().Name(), Data: data})
	}, a.mainWin)

	d.SetFilter(storage.NewExtensionFileFilter([]string{".jpg", ".jpeg", ".png", ".JPG", ".JPEG", ".PNG"}))
	d.Show()
}

func (a *DetectApp) loadSelection(sel capture.Selection) {
	src, err := capture.NewSource(sel, a.config.GetSamplesDir())
	if err != nil {
		dialog.ShowError(err, a.mainWin)
		return
	}
	img, info, err := src.Open()
	if err != nil {
		a.logger.Warnw("failed to load image", "source", src.Name(), "error", err)
		dialog.ShowError(errors.Wrapf(err, "error loading image %s", src.Name()), a.mainWin)
		return
	}

	a.current = img
	a.mainWin.SetTitle(windowTitle + " - " + src.Name())
	a.infoLabel.SetText(formatInfo(src.Name(), info))
	a.originalCanvas.Image = img
	a.originalCanvas.Refresh()

	a.detect()
}

// detect runs the pipeline off the UI goroutine and publishes the latest result only.
func (a *DetectApp) detect() {
	img := a.current
	if img == nil || !a.detector.Loaded() {
		return
	}
	seq := a.runSeq.Add(1)
	a.statusLabel.SetText("Detecting objects...")

	go func() {
		res := a.detector.Run(context.Background(), img)
		var annotated image.Image = img
		if len(res.Detections) > 0 {
			annotated = annotate.Annotate(img, res.Detections)
		}

		fyne.Do(func() {
			if a.runSeq.Load() != seq {
				return
			}
			a.showResult(res, annotated)
		})
	}()
}

func (a *DetectApp) showResult(res models.Result, annotated image.Image) {
	a.statusLabel.SetText(res.Message)

	a.annotatedCanvas.Image = annotated
	a.annotatedCanvas.Refresh()

	objects, elapsed, avg := formatMetrics(res)
	a.objectsLabel.SetText(objects)
	a.timeLabel.SetText(elapsed)
	a.avgConfLabel.SetText(avg)

	a.summaryBox.Objects = nil
	a.detailsBox.Objects = nil

	switch res.Status {
	case models.StatusOK:
		for _, line := range formatSummary(res.ClassCounts()) {
			a.summaryBox.Add(widget.NewLabel(line))
		}
		for i, d := range res.Detections {
			a.detailsBox.Add(widget.NewLabel(formatDetail(i+1, d)))
		}
	case models.StatusNoDetections:
		hint := widget.NewLabel(res.Message)
		hint.Importance = widget.WarningImportance
		hint.Wrapping = fyne.TextWrapWord
		a.summaryBox.Add(hint)
	case models.StatusModelUnavailable:
		failure := widget.NewLabel(res.Message)
		failure.Importance = widget.DangerImportance
		a.summaryBox.Add(failure)
		a.openBtn.Disable()
		a.sampleSelect.Disable()
		a.showModelUnavailable()
	default:
		failure := widget.NewLabel(res.Message)
		failure.Importance = widget.DangerImportance
		a.summaryBox.Add(failure)
	}

	a.summaryBox.Refresh()
	a.detailsBox.Refresh()
}

func (a *DetectApp) buildDetectionTab() fyne.CanvasObject {
	a.originalCanvas = newImageCanvas()
	a.annotatedCanvas = newImageCanvas()

	a.infoLabel = widget.NewLabel("Select a sample or open an image to start.")
	a.objectsLabel = widget.NewLabel("")
	a.timeLabel = widget.NewLabel("")
	a.avgConfLabel = widget.NewLabel("")

	a.summaryBox = container.NewVBox()
	a.detailsBox = container.NewVBox()

	images := container.NewGridWithColumns(2,
		container.NewBorder(bold("Original Image"), a.infoLabel, nil, nil, a.originalCanvas),
		container.NewBorder(bold("Detection Results"), nil, nil, nil, a.annotatedCanvas),
	)

	metrics := container.NewGridWithColumns(3, a.objectsLabel, a.timeLabel, a.avgConfLabel)

	details := widget.NewAccordion(widget.NewAccordionItem("Detailed Results", a.detailsBox))

	return container.NewVScroll(container.NewVBox(
		images,
		widget.NewSeparator(),
		metrics,
		bold("Detected Objects"),
		a.summaryBox,
		details,
	))
}

func (a *DetectApp) buildModelInfoTab() fyne.CanvasObject {
	size := a.detector.InputSize()
	rows := []string{
		"Architecture: SSD (Single Shot MultiBox Detector)",
		"Backbone: MobileNet",
		"Dataset: COCO (80 classes)",
		fmt.Sprintf("Input size: %dx%d pixels", size, size),
		"Output: bounding boxes, class labels, confidence scores",
		"Model: " + a.detector.ModelName(),
	}

	info := container.NewVBox()
	for _, r := range rows {
		info.Add(widget.NewLabel(r))
	}

	classes := widget.NewLabel(strings.Join(a.detector.Catalog().Names(), ", "))
	classes.Wrapping = fyne.TextWrapWord

	return container.NewVScroll(container.NewVBox(
		bold("Model Details"),
		info,
		widget.NewSeparator(),
		bold("Supported Classes"),
		classes,
	))
}

func (a *DetectApp) buildSystemTab() fyne.CanvasObject {
	a.diagBox = container.NewVBox()

	runBtn := widget.NewButtonWithIcon("Run System Tests", theme.MediaPlayIcon(), func() {
		a.diagBox.Objects = []fyne.CanvasObject{widget.NewLabel("Running...")}
		a.diagBox.Refresh()

		go func() {
			checks := RunDiagnostics(context.Background(), a.detector, a.config.GetBackend(), a.config.GetSamplesDir())
			fyne.Do(func() {
				a.diagBox.Objects = nil
				for _, c := range checks {
					a.diagBox.Add(checkRow(c))
				}
				a.diagBox.Refresh()
			})
		}()
	})

	return container.NewVBox(bold("System Diagnostics"), runBtn, widget.NewSeparator(), a.diagBox)
}

func checkRow(c Check) fyne.CanvasObject {
	icon := theme.ConfirmIcon()
	if !c.OK {
		icon = theme.ErrorIcon()
	}
	return container.NewHBox(widget.NewIcon(icon), widget.NewLabel(c.Name+": "+c.Detail))
}

func newImageCanvas() *canvas.Image {
	img := canvas.NewImageFromImage(nil)
	img.FillMode = canvas.ImageFillContain
	img.SetMinSize(fyne.NewSize(480, 360))
	return img
}

func bold(text string) *widget.Label {
	return widget.NewLabelWithStyle(text, fyne.TextAlignLeading, fyne.TextStyle{Bold: true})
}
