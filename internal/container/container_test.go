package container

import (
	"bytes"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/anime-shed/idcard-scanner-go/internal/config"
	"github.com/anime-shed/idcard-scanner-go/internal/factory"
	"github.com/anime-shed/idcard-scanner-go/internal/region"
	"github.com/anime-shed/idcard-scanner-go/pkg/models"

	"github.com/gin-gonic/gin"
)

type stubEngine struct{}

func (stubEngine) Recognize(img image.Image, language string) (string, error) {
	return "Student ID: AB12345\nName: Jane Doe\nEmail: jane@uni.edu", nil
}

type stubDetector struct{}

func (stubDetector) Detect(gray *image.Gray, params region.DetectParams) ([]image.Rectangle, error) {
	return []image.Rectangle{image.Rect(4, 4, 20, 20)}, nil
}

func testConfig(t *testing.T) *config.Config {
	return &config.Config{
		RequestTimeout:     5 * time.Second,
		FetchTimeout:       time.Second,
		AnalysisTimeout:    5 * time.Second,
		MaxRequestBodySize: 1 << 20,
		LogLevel:           "error",
		OCRLanguage:        "eng",
		NLMTemplateWindow:  3,
		NLMSearchWindow:    7,
		NLMStrength:        10,
		DilateKernel:       1,
		DetectScaleFactor:  1.1,
		DetectMinNeighbors: 5,
		DetectMinSize:      10,
		DetectPadding:      2,
		PhotoSink:          config.PhotoSinkLocal,
		OutputDir:          t.TempDir(),
	}
}

func documentPNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 40, 30))
	for y := 0; y < 30; y++ {
		for x := 0; x < 40; x++ {
			c := color.RGBA{240, 240, 240, 255}
			if x > 25 && y > 10 && y < 14 {
				c = color.RGBA{10, 10, 10, 255}
			}
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestNewContainerWith_EndToEnd(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cfg := testConfig(t)

	c, err := NewContainerWith(cfg, factory.NewComponentFactory(cfg), stubEngine{}, stubDetector{})
	if err != nil {
		t.Fatalf("NewContainerWith() error = %v", err)
	}
	defer c.Close()

	if c.Config() != cfg || c.Processor() == nil || c.PhotoSink() == nil || c.Events() == nil {
		t.Fatal("Expected all components to be wired")
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", "card.png")
	if err != nil {
		t.Fatal(err)
	}
	fw.Write(documentPNG(t))
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/documents/process", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	c.Handler().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d (body %s)", w.Code, w.Body.String())
	}

	var resp models.DocumentResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	record := resp.Result.StudentData
	if record == nil || record.StudentID == nil || *record.StudentID != "AB12345" {
		t.Fatalf("unexpected student data %+v", record)
	}
	if !resp.Result.PhotoExtracted || resp.Result.Photo == nil {
		t.Fatal("Expected a photo region")
	}
	if got := resp.Result.Photo.Bounds(); got != image.Rect(2, 2, 22, 22) {
		t.Errorf("photo bounds = %v", got)
	}
	if _, err := os.Stat(resp.Result.Photo.Path); err != nil {
		t.Errorf("Expected stored photo at %q: %v", resp.Result.Photo.Path, err)
	}

	// Events are delivered asynchronously.
	deadline := time.Now().Add(2 * time.Second)
	for c.Metrics().Stats().SuccessfulDocuments == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if got := c.Metrics().Stats().SuccessfulDocuments; got != 1 {
		t.Errorf("SuccessfulDocuments = %d, want 1", got)
	}
}

func TestNewContainerWith_Errors(t *testing.T) {
	cfg := testConfig(t)
	if _, err := NewContainerWith(cfg, factory.NewComponentFactory(cfg), nil, stubDetector{}); err == nil {
		t.Error("Expected error without a recognition engine")
	}

	cfg = testConfig(t)
	cfg.PhotoSink = config.PhotoSinkAzure
	if _, err := NewContainerWith(cfg, factory.NewComponentFactory(cfg), stubEngine{}, stubDetector{}); err == nil {
		t.Error("Expected error for azure sink without credentials")
	}
}

func TestNewContainer_MissingCascade(t *testing.T) {
	cfg := testConfig(t)
	cfg.FaceCascadePath = "/nonexistent/cascade.xml"
	if _, err := NewContainer(cfg); err == nil {
		t.Error("Expected error for a missing cascade file")
	}
}
