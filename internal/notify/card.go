package notify

import (
	"bytes"
	"fmt"
	"image/color"
	"sync"
	"time"

	"github.com/fogleman/gg"
	"github.com/samanvay/attendance_service/internal/model"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
)

const (
	cardWidth    = 800
	cardHeight   = 360
	cardPadding  = 40.0
	barHeight    = 28.0
	barRadius    = 14.0
	maxTitleRune = 42
)

var (
	cardBgColor      = color.RGBA{245, 246, 248, 255}
	cardTextColor    = color.RGBA{40, 44, 52, 255}
	cardMutedColor   = color.RGBA{110, 115, 120, 255}
	barTrackColor    = color.RGBA{220, 220, 220, 255}
	barPresentColor  = color.RGBA{133, 193, 85, 255}
	barLowColor      = color.RGBA{235, 140, 60, 255}
	lowAttendanceCut = 0.75
)

type fontWeight int

const (
	weightRegular fontWeight = iota
	weightBold
)

var (
	fontsOnce   sync.Once
	parsedFonts map[fontWeight]*opentype.Font
)

// setFont selects a Go font face, falling back to basicfont when parsing fails.
func setFont(dc *gg.Context, size float64, weight fontWeight) {
	fontsOnce.Do(func() {
		parsedFonts = make(map[fontWeight]*opentype.Font)
		if f, err := opentype.Parse(goregular.TTF); err == nil {
			parsedFonts[weightRegular] = f
		}
		if f, err := opentype.Parse(gobold.TTF); err == nil {
			parsedFonts[weightBold] = f
		}
	})

	parsed, ok := parsedFonts[weight]
	if !ok {
		dc.SetFontFace(basicfont.Face7x13)
		return
	}

	face, err := opentype.NewFace(parsed, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		dc.SetFontFace(basicfont.Face7x13)
		return
	}
	dc.SetFontFace(face)
}

// RenderSummaryCard draws a close summary as a PNG image.
func RenderSummaryCard(s *model.ScopeSummary, loc *time.Location) ([]byte, error) {
	dc := gg.NewContext(cardWidth, cardHeight)
	dc.SetColor(cardBgColor)
	dc.Clear()

	title := s.Title
	if title == "" {
		title = s.Scope.Key()
	}

	dc.SetColor(cardTextColor)
	setFont(dc, 32, weightBold)
	dc.DrawString(truncateRunes(title, maxTitleRune), cardPadding, 70)

	closedAt := s.ClosedAt
	if loc != nil {
		closedAt = closedAt.In(loc)
	}
	subtitle := "Closed " + FormatDateTime(closedAt)
	if s.ClosedBy != "" {
		subtitle += " by " + s.ClosedBy
	}
	dc.SetColor(cardMutedColor)
	setFont(dc, 20, weightRegular)
	dc.DrawString(truncateRunes(subtitle, 64), cardPadding, 105)

	dc.SetColor(cardTextColor)
	setFont(dc, 64, weightBold)
	dc.DrawString(fmt.Sprintf("%d / %d", s.Present, s.Eligible), cardPadding, 200)

	setFont(dc, 22, weightRegular)
	dc.SetColor(cardMutedColor)
	dc.DrawString(fmt.Sprintf("%s present, %d absent", PluralizeStudents(s.Present), s.Absent()), cardPadding, 235)

	drawAttendanceBar(dc, attendanceRatio(s), cardPadding, 270, cardWidth-2*cardPadding)

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, fmt.Errorf("encode summary card: %w", err)
	}
	return buf.Bytes(), nil
}

func drawAttendanceBar(dc *gg.Context, ratio, x, y, width float64) {
	dc.SetColor(barTrackColor)
	dc.DrawRoundedRectangle(x, y, width, barHeight, barRadius)
	dc.Fill()

	if ratio <= 0 {
		return
	}

	fill := barPresentColor
	if ratio < lowAttendanceCut {
		fill = barLowColor
	}
	filled := width * ratio
	if filled < 2*barRadius {
		filled = 2 * barRadius
	}

	dc.SetColor(fill)
	dc.DrawRoundedRectangle(x, y, filled, barHeight, barRadius)
	dc.Fill()

	setFont(dc, 18, weightBold)
	dc.SetColor(cardTextColor)
	dc.DrawStringAnchored(fmt.Sprintf("%.0f%%", ratio*100), x+width, y+barHeight+24, 1, 0)
}

// attendanceRatio is present/eligible clamped to [0, 1].
func attendanceRatio(s *model.ScopeSummary) float64 {
	if s.Eligible <= 0 {
		return 0
	}
	r := float64(s.Present) / float64(s.Eligible)
	if r > 1 {
		return 1
	}
	return r
}

func truncateRunes(s string, limit int) string {
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return string(r[:limit-1]) + "…"
}
