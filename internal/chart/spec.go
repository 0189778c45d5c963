package chart

import (
	"math"

	"github.com/bytedance/sonic"
)

// Canvas defaults tuned for phone screens.
const (
	Width      = 380
	Height     = 280
	Background = "#ffffff"

	fontTitle = 14
	fontLabel = 10
	fontTick  = 9
)

// Spec is a Chart.js v2 configuration plus the canvas it should be drawn on.
type Spec struct {
	Width           int
	Height          int
	BackgroundColor string
	Config          Config
}

type Config struct {
	Type    string  `json:"type"`
	Data    Data    `json:"data"`
	Options Options `json:"options"`
}

type Data struct {
	Labels   []string  `json:"labels"`
	Datasets []Dataset `json:"datasets"`
}

type Dataset struct {
	Type                 string    `json:"type,omitempty"`
	Label                string    `json:"label"`
	Data                 Values    `json:"data"`
	BackgroundColor      Colors    `json:"backgroundColor,omitempty"`
	BorderColor          string    `json:"borderColor,omitempty"`
	BorderWidth          int       `json:"borderWidth,omitempty"`
	BorderRadius         int       `json:"borderRadius,omitempty"`
	BarPercentage        float64   `json:"barPercentage,omitempty"`
	CategoryPercentage   float64   `json:"categoryPercentage,omitempty"`
	PointRadius          *int      `json:"pointRadius,omitempty"`
	PointBackgroundColor string    `json:"pointBackgroundColor,omitempty"`
	PointBorderColor     string    `json:"pointBorderColor,omitempty"`
	PointBorderWidth     int       `json:"pointBorderWidth,omitempty"`
	Fill                 *bool     `json:"fill,omitempty"`
	LineTension          float64   `json:"lineTension,omitempty"`
	SpanGaps             *bool     `json:"spanGaps,omitempty"`
	YAxisID              string    `json:"yAxisID,omitempty"`
}

// Colors serializes as a bare string when it holds a single entry, as an array otherwise.
type Colors []string

func (c Colors) MarshalJSON() ([]byte, error) {
	if len(c) == 1 {
		return sonic.Marshal(c[0])
	}
	return sonic.Marshal([]string(c))
}

func (c *Colors) UnmarshalJSON(data []byte) error {
	var single string
	if err := sonic.Unmarshal(data, &single); err == nil {
		*c = Colors{single}
		return nil
	}
	var many []string
	if err := sonic.Unmarshal(data, &many); err != nil {
		return err
	}
	*c = many
	return nil
}

// Values holds data points; NaN marks a missing point and is written as null.
type Values []float64

func (v Values) MarshalJSON() ([]byte, error) {
	out := make([]*float64, len(v))
	for i := range v {
		if !math.IsNaN(v[i]) {
			out[i] = &v[i]
		}
	}
	return sonic.Marshal(out)
}

func (v *Values) UnmarshalJSON(data []byte) error {
	var raw []*float64
	if err := sonic.Unmarshal(data, &raw); err != nil {
		return err
	}
	out := make(Values, len(raw))
	for i, f := range raw {
		if f == nil {
			out[i] = math.NaN()
			continue
		}
		out[i] = *f
	}
	*v = out
	return nil
}

type Options struct {
	Title   Title    `json:"title"`
	Legend  Legend   `json:"legend"`
	Scales  Scales   `json:"scales"`
	Plugins *Plugins `json:"plugins,omitempty"`
}

type Title struct {
	Display  bool   `json:"display"`
	Text     string `json:"text"`
	FontSize int    `json:"fontSize,omitempty"`
	Padding  int    `json:"padding,omitempty"`
}

type Legend struct {
	Display  bool          `json:"display"`
	Position string        `json:"position,omitempty"`
	Labels   *LegendLabels `json:"labels,omitempty"`
}

type LegendLabels struct {
	FontSize int `json:"fontSize"`
	BoxWidth int `json:"boxWidth"`
}

type Scales struct {
	XAxes []Axis `json:"xAxes"`
	YAxes []Axis `json:"yAxes"`
}

type Axis struct {
	ID         string      `json:"id,omitempty"`
	Type       string      `json:"type,omitempty"`
	Position   string      `json:"position,omitempty"`
	Ticks      *Ticks      `json:"ticks,omitempty"`
	GridLines  *GridLines  `json:"gridLines,omitempty"`
	ScaleLabel *ScaleLabel `json:"scaleLabel,omitempty"`
}

type Ticks struct {
	BeginAtZero *bool `json:"beginAtZero,omitempty"`
	AutoSkip    *bool `json:"autoSkip,omitempty"`
	MaxRotation int   `json:"maxRotation,omitempty"`
	MinRotation int   `json:"minRotation,omitempty"`
	FontSize    int   `json:"fontSize,omitempty"`
}

type GridLines struct {
	Display    *bool  `json:"display,omitempty"`
	DrawBorder *bool  `json:"drawBorder,omitempty"`
	Color      string `json:"color,omitempty"`
}

type ScaleLabel struct {
	Display     bool   `json:"display"`
	LabelString string `json:"labelString"`
}

type Plugins struct {
	DataLabels DataLabels `json:"datalabels"`
}

type DataLabels struct {
	Display bool   `json:"display"`
	Align   string `json:"align,omitempty"`
	Anchor  string `json:"anchor,omitempty"`
	Color   string `json:"color,omitempty"`
	Font    Font   `json:"font"`
}

type Font struct {
	Weight string `json:"weight,omitempty"`
	Size   int    `json:"size"`
}

func ptr[T any](v T) *T {
	return &v
}
