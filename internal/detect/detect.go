package detect

import (
	"fmt"
	"sort"
	"strings"
)

// Class is the closed set of symbol labels the detector produces.
type Class string

const (
	ClassNotStarted Class = "NOT_STARTED"
	ClassInProgress Class = "IN_PROGRESS"
	ClassMeeting    Class = "MEETING"
	ClassCompleted  Class = "COMPLETED"
	// ClassTextArea is the annotation-only label; it never participates in
	// stability or ordering computations.
	ClassTextArea Class = "TEXT_AREA"
)

var allClasses = []Class{
	ClassNotStarted,
	ClassInProgress,
	ClassMeeting,
	ClassCompleted,
	ClassTextArea,
}

var classSet = func() map[Class]struct{} {
	set := make(map[Class]struct{}, len(allClasses))
	for _, class := range allClasses {
		set[class] = struct{}{}
	}
	return set
}()

// ParseClass validates a label string against the closed enumeration.
func ParseClass(label string) (Class, error) {
	class := Class(strings.ToUpper(strings.TrimSpace(label)))
	if _, ok := classSet[class]; !ok {
		return "", fmt.Errorf("unknown detection class %q", label)
	}
	return class, nil
}

// Box is an axis-aligned bounding box in frame pixel coordinates.
type Box struct {
	XMin float64 `json:"xmin"`
	YMin float64 `json:"ymin"`
	XMax float64 `json:"xmax"`
	YMax float64 `json:"ymax"`
}

// CenterX returns the horizontal center of the box.
func (b Box) CenterX() float64 { return (b.XMin + b.XMax) / 2 }

// CenterY returns the vertical center of the box.
func (b Box) CenterY() float64 { return (b.YMin + b.YMax) / 2 }

// Detection is one detected symbol in one frame.
type Detection struct {
	Class      Class   `json:"class"`
	Box        Box     `json:"box"`
	Confidence float64 `json:"confidence"`
}

// Frame is the full detection output for one captured frame.
type Frame struct {
	Sequence   uint64      `json:"sequence"`
	Width      float64     `json:"width"`
	Height     float64     `json:"height"`
	Detections []Detection `json:"detections"`
	// ImagePath points at the captured frame image on disk, for extraction.
	ImagePath string `json:"imagePath,omitempty"`
}

// Filter selects detections that are actionable: above the confidence
// threshold and not the annotation label. Every downstream computation runs
// on the filtered set.
type Filter struct {
	ConfidenceThreshold float64
	AnnotationLabel     Class
}

// Actionable returns the detections that pass the filter, preserving input order.
func (f Filter) Actionable(dets []Detection) []Detection {
	out := make([]Detection, 0, len(dets))
	for _, d := range dets {
		if d.Confidence <= f.ConfidenceThreshold {
			continue
		}
		if d.Class == f.AnnotationLabel {
			continue
		}
		out = append(out, d)
	}
	return out
}

// OrderTopToBottom reduces a detection set to the sequence of actionable
// class labels sorted by vertical center, top first. The sequence serves both
// as the fast-path comparison fingerprint and, when lengths match, as the new
// status order to apply positionally.
func (f Filter) OrderTopToBottom(dets []Detection) []Class {
	actionable := f.Actionable(dets)
	sort.SliceStable(actionable, func(i, j int) bool {
		return actionable[i].Box.CenterY() < actionable[j].Box.CenterY()
	})
	order := make([]Class, len(actionable))
	for i, d := range actionable {
		order[i] = d.Class
	}
	return order
}

// OrderEqual reports whether two fingerprints are identical.
func OrderEqual(a, b []Class) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// OrderString renders a fingerprint for logs.
func OrderString(order []Class) string {
	parts := make([]string, len(order))
	for i, class := range order {
		parts[i] = string(class)
	}
	return strings.Join(parts, ",")
}
