package certificate

import (
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"regexp"
	"sync"
	"time"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
)

// Profile carries the identity fields printed on a certificate. Missing
// display fields are substituted with placeholders at render time.
type Profile struct {
	Name     string
	Phone    string
	School   string
	Language string
	State    string
	District string
}

// Stats carries the aggregate result printed on a certificate.
type Stats struct {
	TotalScore int
	MaxScore   int
	Percentage float64
}

// RenderResult describes a certificate file written to storage.
type RenderResult struct {
	CertificateNumber string
	FilePath          string // URL-style path served over HTTP
	FileName          string
	IssueDate         time.Time
}

// Renderer produces a certificate document for a profile and its stats.
// Implementations must write the file before returning and must produce a
// distinct file name on every call.
type Renderer interface {
	Render(profile Profile, stats Stats) (*RenderResult, error)
}

const (
	pageWidth  = 1200
	pageHeight = 850
)

var unsafeFileChars = regexp.MustCompile(`[^0-9a-zA-Z_-]`)

// PNGRenderer renders a fixed single-page landscape certificate as a PNG
// image in a configured directory.
type PNGRenderer struct {
	dir       string
	urlPrefix string
	fontPath  string

	once    sync.Once
	ttf     *truetype.Font
	loadErr error

	rng *rand.Rand
	mu  sync.Mutex
}

// NewPNGRenderer creates a renderer writing into dir. Returned file paths are
// prefixed with urlPrefix so they can be served statically. fontPath may be
// empty, in which case a built-in face is used.
func NewPNGRenderer(dir, urlPrefix, fontPath string) *PNGRenderer {
	return &PNGRenderer{
		dir:       dir,
		urlPrefix: urlPrefix,
		fontPath:  fontPath,
		rng:       rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// GenerateCertificateNumber builds a year+timestamp+random certificate
// number. Uniqueness is practical, not cryptographic; the database unique
// constraint is the real guarantee.
func (r *PNGRenderer) GenerateCertificateNumber() string {
	now := time.Now()
	r.mu.Lock()
	n := r.rng.Intn(1000)
	r.mu.Unlock()
	return fmt.Sprintf("CERT-%d-%d%03d", now.Year(), now.UnixMilli(), n)
}

// Render lays out the certificate and writes it under the configured
// directory, creating the directory on first use.
func (r *PNGRenderer) Render(profile Profile, stats Stats) (*RenderResult, error) {
	certificateNumber := r.GenerateCertificateNumber()
	issueDate := time.Now()

	name := profile.Name
	if name == "" {
		name = "Participant"
	}
	school := profile.School
	if school == "" {
		school = "N/A"
	}
	language := profile.Language
	if language == "" {
		language = "N/A"
	}

	percentage := stats.Percentage
	scoreLine := fmt.Sprintf("Score: %d/%d (%.1f%%)", stats.TotalScore, stats.MaxScore, percentage)

	dc := gg.NewContext(pageWidth, pageHeight)
	dc.SetHexColor("#FFFFFF")
	dc.Clear()

	// Border
	dc.SetHexColor("#1B5E20")
	dc.SetLineWidth(6)
	dc.DrawRectangle(30, 30, pageWidth-60, pageHeight-60)
	dc.Stroke()

	type line struct {
		text  string
		size  float64
		color string
		gap   float64 // vertical advance after the line
	}

	lines := []line{
		{"CERTIFICATE OF APPRECIATION", 56, "#1B5E20", 90},
		{"ChildFund India", 48, "#FF6F00", 70},
		{"42 years with children, in every stride", 24, "#424242", 60},
		{"Proudly presented to", 28, "#000000", 55},
		{name, 48, "#1565C0", 75},
		{"for successfully completing the Quiz Assessment", 26, "#000000", 40},
		{"and demonstrating excellence in knowledge and dedication.", 26, "#000000", 60},
		{scoreLine, 32, "#2E7D32", 50},
		{fmt.Sprintf("School: %s", school), 24, "#424242", 38},
		{fmt.Sprintf("Language: %s", language), 24, "#424242", 60},
		{fmt.Sprintf("Certificate No: %s", certificateNumber), 20, "#757575", 34},
		{fmt.Sprintf("Issue Date: %s", issueDate.Format("2 January 2006")), 20, "#757575", 0},
	}

	y := 110.0
	for _, ln := range lines {
		face, err := r.fontFace(ln.size)
		if err != nil {
			return nil, fmt.Errorf("load certificate font: %w", err)
		}
		dc.SetFontFace(face)
		dc.SetHexColor(ln.color)
		dc.DrawStringAnchored(ln.text, pageWidth/2, y, 0.5, 0.5)
		y += ln.gap
	}

	if err := os.MkdirAll(r.dir, 0755); err != nil {
		return nil, fmt.Errorf("create certificates directory: %w", err)
	}

	fileName := r.buildFileName(profile.Phone)
	fullPath := filepath.Join(r.dir, fileName)

	if err := dc.SavePNG(fullPath); err != nil {
		return nil, fmt.Errorf("write certificate file: %w", err)
	}

	return &RenderResult{
		CertificateNumber: certificateNumber,
		FilePath:          r.urlPrefix + "/" + fileName,
		FileName:          fileName,
		IssueDate:         issueDate,
	}, nil
}

// buildFileName strips path-unsafe characters from the phone number and
// appends a timestamp so repeated issuances never collide.
func (r *PNGRenderer) buildFileName(phone string) string {
	safePhone := unsafeFileChars.ReplaceAllString(phone, "")
	if safePhone == "" {
		safePhone = "unknown"
	}
	return fmt.Sprintf("certificate_%s_%d.png", safePhone, time.Now().UnixNano())
}

func (r *PNGRenderer) fontFace(size float64) (font.Face, error) {
	if r.fontPath == "" {
		return basicfont.Face7x13, nil
	}

	r.once.Do(func() {
		data, err := os.ReadFile(r.fontPath)
		if err != nil {
			r.loadErr = err
			return
		}
		f, err := truetype.Parse(data)
		if err != nil {
			r.loadErr = err
			return
		}
		r.ttf = f
	})
	if r.loadErr != nil {
		return nil, r.loadErr
	}

	return truetype.NewFace(r.ttf, &truetype.Options{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	}), nil
}
