package safety

import (
	"bytes"
	"fmt"
	"image/color"
	"strings"
	"unicode"

	"github.com/fogleman/gg"
	"github.com/hitoshi/youngeru/internal/model"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// レポート画像のレイアウト。
const (
	reportWidth   = 640
	reportMargin  = 32.0
	lineHeight    = 18.0
	sectionGap    = 14.0
	levelBarWidth = 6.0
)

var (
	colorInk   = color.RGBA{R: 0x17, G: 0x4C, B: 0x4F, A: 0xFF}
	colorMuted = color.RGBA{R: 0x55, G: 0x5F, B: 0x66, A: 0xFF}
	colorBg    = color.RGBA{R: 0xF5, G: 0xF7, B: 0xF8, A: 0xFF}
)

var levelColors = map[model.SafetyLevel]color.RGBA{
	model.SafetyLevelSafe:    {R: 0x2E, G: 0x9E, B: 0x6B, A: 0xFF},
	model.SafetyLevelCaution: {R: 0xE0, G: 0x9F, B: 0x1F, A: 0xFF},
	model.SafetyLevelWarning: {R: 0xD0, G: 0x45, B: 0x3B, A: 0xFF},
}

const disclaimer = "This report is for information only and is not medical advice. Share it with your doctor or pharmacist."

type reportLine struct {
	text  string
	color color.Color
	level model.SafetyLevel // 空でなければ左端に重大度バーを描く
	gap   float64           // 行の前に空ける余白
}

// RenderReport は保存済みセーフティチェックをPNG画像として描画する。
// フォントはASCIIのみ対応のため、自由入力の文字列は asciiText で置き換えてから描く。
func RenderReport(check *model.SafetyCheck) ([]byte, error) {
	face := basicfont.Face7x13
	textWidth := reportWidth - 2*reportMargin - 2*levelBarWidth

	measure := gg.NewContext(1, 1)
	measure.SetFontFace(face)
	wrap := func(s string) []string {
		return measure.WordWrap(s, textWidth)
	}

	var lines []reportLine
	add := func(text string, c color.Color, level model.SafetyLevel, gap float64) {
		for i, l := range wrap(asciiText(text)) {
			g := 0.0
			if i == 0 {
				g = gap
			}
			lines = append(lines, reportLine{text: l, color: c, level: level, gap: g})
		}
	}

	add("YoungerU Safety Check", colorInk, "", 0)
	add(fmt.Sprintf("Checked on %s", check.CreatedAt.Format("2006-01-02 15:04 MST")), colorMuted, "", 0)
	add("Supplements: "+listOrNone(check.Supplements), colorInk, "", sectionGap)
	add("Medications: "+listOrNone(check.Meds), colorInk, "", 0)
	add("Conditions: "+listOrNone(check.Conditions), colorInk, "", 0)
	for _, r := range check.Result {
		add(fmt.Sprintf("[%s] %s", strings.ToUpper(string(r.Level)), r.Message), colorInk, r.Level, sectionGap)
		if r.Details != "" {
			add(r.Details, colorMuted, r.Level, 0)
		}
	}
	add(disclaimer, colorMuted, "", sectionGap*2)

	height := 2 * reportMargin
	for _, l := range lines {
		height += l.gap + lineHeight
	}

	dc := gg.NewContext(reportWidth, int(height))
	dc.SetColor(colorBg)
	dc.Clear()
	dc.SetFontFace(face)

	y := reportMargin
	for _, l := range lines {
		y += l.gap
		if l.level != "" {
			dc.SetColor(levelColors[l.level])
			dc.DrawRectangle(reportMargin, y, levelBarWidth, lineHeight)
			dc.Fill()
		}
		dc.SetColor(l.color)
		dc.DrawStringAnchored(l.text, reportMargin+2*levelBarWidth, y+lineHeight/2, 0, 0.35)
		y += lineHeight
	}

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, fmt.Errorf("レポート画像のエンコードに失敗しました: %w", err)
	}
	return buf.Bytes(), nil
}

// unknownGlyph はASCIIに変換できない文字の代替。
const unknownGlyph = '?'

// asciiText はアクセント記号を外して（Café → Cafe）、残った非ASCII文字を unknownGlyph に置き換える。
func asciiText(s string) string {
	t := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}
	return strings.Map(func(r rune) rune {
		if r > unicode.MaxASCII || (r < 0x20 && r != '\t') {
			return unknownGlyph
		}
		return r
	}, folded)
}

func listOrNone(items []string) string {
	if len(items) == 0 {
		return "none"
	}
	return strings.Join(items, ", ")
}
