package onnx

// YOLOv8 検出モデルの既定値
const (
	DefaultInputSize     = 640
	DefaultInputName     = "images"
	DefaultOutputName    = "output0"
	DefaultConfThreshold = 0.25
	DefaultIoUThreshold  = 0.7
	DefaultMaxDetections = 300
)

// Config はONNX検出モデルの読み込みと実行方法を表します。
type Config struct {
	ModelPath   string
	LabelsPath  string
	LibraryPath string

	InputSize  int
	InputName  string
	OutputName string

	ConfThreshold float64
	IoUThreshold  float64
	MaxDetections int

	PoolSize int
	Threads  int
}

func (c Config) withDefaults() Config {
	if c.InputSize <= 0 {
		c.InputSize = DefaultInputSize
	}
	if c.InputName == "" {
		c.InputName = DefaultInputName
	}
	if c.OutputName == "" {
		c.OutputName = DefaultOutputName
	}
	if c.ConfThreshold <= 0 {
		c.ConfThreshold = DefaultConfThreshold
	}
	if c.IoUThreshold <= 0 {
		c.IoUThreshold = DefaultIoUThreshold
	}
	if c.MaxDetections <= 0 {
		c.MaxDetections = DefaultMaxDetections
	}
	if c.PoolSize <= 0 {
		c.PoolSize = 1
	}
	return c
}
