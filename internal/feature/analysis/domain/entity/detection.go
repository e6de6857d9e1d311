// Package entity defines the domain model of the analysis feature.
package entity

// RawBox is a single box emitted by the detection model, in the coordinates of the decoded image.
type RawBox struct {
	ClassIndex int
	Confidence float64
	X1, Y1     float64
	X2, Y2     float64
}

// ResultGroup is one inference result: the boxes found in an image plus the label table of the model that produced them.
type ResultGroup struct {
	Boxes []RawBox
	Names map[int]string
}

// Detection is one detected object, ready for presentation.
type Detection struct {
	ClassName  string
	Confidence float64
	BBox       [4]float64 // x, y, width, height
	Label      string     // localized display name, empty when the catalog does not know the class
	Severity   string
}

// ImageSize is the width and height of the decoded image in pixels.
type ImageSize struct {
	Width  int
	Height int
}

// AnalysisResult is the outcome of analyzing one image.
type AnalysisResult struct {
	Success     bool
	Predictions []Detection
	ImageSize   ImageSize
	AllClasses  []string
}
