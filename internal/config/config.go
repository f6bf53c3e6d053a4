package config

// Режимы превью.
const (
	ModeScroll    = "scroll"
	ModeOscillate = "oscillate"
	ModeVinyl     = "vinyl"
)

type Config struct {
	Mode          string
	OuterPath     string
	InnerPath     string
	Procedural    bool
	TimelinePath  string
	OutputVideo   string
	TotalDuration float64
	Width         int
	Height        int
	FPS           int
	Workers       int
	Preset        string
	SpacerHeight  float64
	Smooth        bool
	HUD           bool
	QRSize        int
	FadeDuration  float64
	VideoEncoder  string
	Quality       int
	ShowStats     bool
	BuildVersion  string
}

// Default возвращает значения флагов по умолчанию.
func Default() Config {
	return Config{
		Mode:          ModeScroll,
		OutputVideo:   "output/preview.mp4",
		TotalDuration: 6,
		Width:         1280,
		Height:        720,
		FPS:           30,
		Preset:        "16:9",
		SpacerHeight:  1000,
		Smooth:        true,
		HUD:           true,
		VideoEncoder:  "libx264",
		Quality:       23,
		BuildVersion:  "dev",
	}
}

// ApplyPreset выставляет разрешение по пресету соотношения сторон.
func (c *Config) ApplyPreset() bool {
	switch c.Preset {
	case "16:9":
		c.Width, c.Height = 1280, 720
	case "9:16":
		c.Width, c.Height = 720, 1280
	case "1:1":
		c.Width, c.Height = 1080, 1080
	case "4:3":
		c.Width, c.Height = 1024, 768
	default:
		return false
	}
	return true
}

// TotalFrames - число кадров всего ролика.
func (c *Config) TotalFrames() int {
	n := int(c.TotalDuration*float64(c.FPS) + 0.5)
	if n < 1 {
		n = 1
	}
	return n
}

type SegmentParams struct {
	Width, Height int
	FPS           int
	Index         int
	FirstFrame    int
	Frames        int
	Phase         string
	Encoder       string
	Quality       int
	// Filter - ffmpeg -vf для финальной склейки.
	Filter string
}

// Duration - длительность сегмента в секундах.
func (p SegmentParams) Duration() float64 {
	if p.FPS <= 0 {
		return 0
	}
	return float64(p.Frames) / float64(p.FPS)
}
