package models

// cocoLabels are the 80 COCO categories in model index order, starting at index 1.
var cocoLabels = [...]string{
	"person", "bicycle", "car", "motorcycle", "airplane", "bus",
	"train", "truck", "boat", "traffic light", "fire hydrant",
	"stop sign", "parking meter", "bench", "bird", "cat", "dog",
	"horse", "sheep", "cow", "elephant", "bear", "zebra", "giraffe",
	"backpack", "umbrella", "handbag", "tie", "suitcase", "frisbee",
	"skis", "snowboard", "sports ball", "kite", "baseball bat",
	"baseball glove", "skateboard", "surfboard", "tennis racket",
	"bottle", "wine glass", "cup", "fork", "knife", "spoon", "bowl",
	"banana", "apple", "sandwich", "orange", "broccoli", "carrot",
	"hot dog", "pizza", "donut", "cake", "chair", "couch",
	"potted plant", "bed", "dining table", "toilet", "tv", "laptop",
	"mouse", "remote", "keyboard", "cell phone", "microwave",
	"oven", "toaster", "sink", "refrigerator", "book", "clock",
	"vase", "scissors", "teddy bear", "hair drier", "toothbrush",
}

var defaultCatalog = NewClassCatalog(cocoLabels[:])

// ClassCatalog maps 1-based model class indices to names. Index 0 is background.
type ClassCatalog struct {
	names []string
}

// NewClassCatalog copies names so later changes to the slice do not leak in.
func NewClassCatalog(names []string) *ClassCatalog {
	c := &ClassCatalog{names: make([]string, len(names))}
	copy(c.names, names)
	return c
}

// DefaultCatalog returns the COCO catalog shared by the whole process.
func DefaultCatalog() *ClassCatalog {
	return defaultCatalog
}

func (c *ClassCatalog) Len() int {
	return len(c.names)
}

// Contains reports whether index is a valid 1-based class index.
func (c *ClassCatalog) Contains(index int) bool {
	return index >= 1 && index <= len(c.names)
}

// Name returns the label for a 1-based class index.
func (c *ClassCatalog) Name(index int) (string, bool) {
	if !c.Contains(index) {
		return "", false
	}
	return c.names[index-1], true
}

// Names returns a copy of all labels in index order.
func (c *ClassCatalog) Names() []string {
	out := make([]string, len(c.names))
	copy(out, c.names)
	return out
}
