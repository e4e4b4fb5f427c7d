package beadqc

import (
	"fmt"
	"image"
	"image/color"
	"log/slog"
	"math"

	"github.com/fogleman/gg"
	"golang.org/x/image/font/basicfont"

	"luminexcli/internal/config"
	"luminexcli/internal/dataprocessing"
	"luminexcli/internal/files"
	"luminexcli/pkg/contracts/domain"
)

// Band colours, lowest band first.
var (
	ColorFail    = color.RGBA{R: 240, G: 128, B: 128, A: 255} // lightcoral
	ColorWarning = color.RGBA{R: 255, G: 255, B: 224, A: 255} // lightyellow
	ColorPass    = color.RGBA{R: 102, G: 205, B: 170, A: 255} // mediumaquamarine
	ColorMissing = color.RGBA{R: 211, G: 211, B: 211, A: 255} // lightgrey
)

const (
	cellHeight  = 18.0
	minCellW    = 44.0
	charWidth   = 7.0
	padding     = 10.0
	legendSwath = 14.0
)

// HeatmapRenderer draws a plate's bead counts coloured by QC band
type HeatmapRenderer struct {
	thresholds config.Thresholds
	files      *files.Manager
	logger     *slog.Logger
}

// NewHeatmapRenderer creates a renderer using the same thresholds as the flagger
func NewHeatmapRenderer(thresholds config.Thresholds, manager *files.Manager, logger *slog.Logger) *HeatmapRenderer {
	if logger == nil {
		logger = slog.Default()
	}
	if manager == nil {
		manager = files.NewManager(logger)
	}
	return &HeatmapRenderer{thresholds: thresholds, files: manager, logger: logger}
}

// BandColor returns the colour for a count. ok=false renders as missing.
func (r *HeatmapRenderer) BandColor(count float64, ok bool) color.Color {
	switch {
	case !ok:
		return ColorMissing
	case count < r.thresholds.Fail():
		return ColorFail
	case count < r.thresholds.Warning():
		return ColorWarning
	default:
		return ColorPass
	}
}

// Write renders t and stores it as a PNG at path.
func (r *HeatmapRenderer) Write(path string, t *domain.Table) error {
	dc, err := r.draw(t)
	if err != nil {
		return err
	}

	r.logger.Info("Writing heatmap",
		slog.String("full_path", path),
		slog.String("plate", t.Plate))

	return r.files.WriteAtomic(path, dc.EncodePNG)
}

// Render draws one row per well and one column per analyte. Rows are
// labelled with Study_sample, falling back to Sample.
func (r *HeatmapRenderer) Render(t *domain.Table) (image.Image, error) {
	dc, err := r.draw(t)
	if err != nil {
		return nil, err
	}
	return dc.Image(), nil
}

func (r *HeatmapRenderer) draw(t *domain.Table) (*gg.Context, error) {
	analytes, err := dataprocessing.AnalyteColumns(t)
	if err != nil {
		return nil, err
	}

	labels := make([]string, t.Len())
	labelW := 0.0
	for i := range t.Rows {
		label := t.Value(i, domain.ColumnStudySample)
		if !label.Valid {
			label = t.Value(i, domain.ColumnSample)
		}
		labels[i] = label.String
		labelW = math.Max(labelW, textWidth(labels[i]))
	}

	headerH := 0.0
	cellW := minCellW
	for _, a := range analytes {
		headerH = math.Max(headerH, textWidth(a))
	}
	cols := make([]int, len(analytes))
	for j, a := range analytes {
		cols[j] = t.ColumnIndex(a)
	}
	for _, row := range t.Rows {
		for _, c := range cols {
			if v, ok := domain.CellFloat(row[c]); ok {
				cellW = math.Max(cellW, textWidth(domain.FormatFloat(v))+6)
			}
		}
	}

	titleH := cellHeight + padding
	gridX := padding + labelW + padding
	gridY := titleH + headerH + padding
	legendH := 2*padding + legendSwath
	width := gridX + cellW*float64(len(analytes)) + padding
	width = math.Max(width, 3*legendEntryWidth(r.thresholds)+2*padding)
	height := gridY + cellHeight*float64(t.Len()) + legendH

	dc := gg.NewContext(int(math.Ceil(width)), int(math.Ceil(height)))
	dc.SetColor(color.White)
	dc.Clear()
	dc.SetFontFace(basicfont.Face7x13)

	dc.SetColor(color.Black)
	dc.DrawStringAnchored(fmt.Sprintf("Bead count %s", t.Plate), padding, padding+cellHeight/2, 0, 0.5)

	for j, a := range analytes {
		x := gridX + cellW*float64(j) + cellW/2
		y := gridY - padding/2
		dc.Push()
		dc.RotateAbout(gg.Radians(-90), x, y)
		dc.DrawStringAnchored(a, x, y, 0, 0.5)
		dc.Pop()
	}

	for i, row := range t.Rows {
		y := gridY + cellHeight*float64(i)
		dc.SetColor(color.Black)
		dc.DrawStringAnchored(labels[i], gridX-padding/2, y+cellHeight/2, 1, 0.5)

		for j, c := range cols {
			count, ok := domain.CellFloat(row[c])
			x := gridX + cellW*float64(j)

			dc.DrawRectangle(x, y, cellW, cellHeight)
			dc.SetColor(r.BandColor(count, ok))
			dc.FillPreserve()
			dc.SetRGB(0.5, 0.5, 0.5)
			dc.SetLineWidth(1)
			dc.Stroke()

			if ok {
				dc.SetColor(color.Black)
				dc.DrawStringAnchored(domain.FormatFloat(count), x+cellW/2, y+cellHeight/2, 0.5, 0.5)
			}
		}
	}

	r.drawLegend(dc, padding, gridY+cellHeight*float64(t.Len())+padding)

	return dc, nil
}

func (r *HeatmapRenderer) drawLegend(dc *gg.Context, x, y float64) {
	b := r.thresholds.Bounds()
	entries := []struct {
		c     color.Color
		label string
	}{
		{ColorFail, fmt.Sprintf("%s-%s", domain.FormatFloat(b[0]), domain.FormatFloat(b[1]))},
		{ColorWarning, fmt.Sprintf("%s-%s", domain.FormatFloat(b[1]), domain.FormatFloat(b[2]))},
		{ColorPass, fmt.Sprintf("%s-%s", domain.FormatFloat(b[2]), domain.FormatFloat(b[3]))},
	}

	step := legendEntryWidth(r.thresholds)
	for i, e := range entries {
		ex := x + step*float64(i)
		dc.DrawRectangle(ex, y, legendSwath, legendSwath)
		dc.SetColor(e.c)
		dc.FillPreserve()
		dc.SetRGB(0.5, 0.5, 0.5)
		dc.Stroke()
		dc.SetColor(color.Black)
		dc.DrawStringAnchored(e.label, ex+legendSwath+4, y+legendSwath/2, 0, 0.5)
	}
}

func legendEntryWidth(t config.Thresholds) float64 {
	widest := 0.0
	b := t.Bounds()
	for i := 1; i < len(b); i++ {
		widest = math.Max(widest, textWidth(domain.FormatFloat(b[i-1])+"-"+domain.FormatFloat(b[i])))
	}
	return legendSwath + 4 + widest + padding
}

// textWidth measures s in the fixed-width basic font.
func textWidth(s string) float64 {
	return charWidth * float64(len([]rune(s)))
}
