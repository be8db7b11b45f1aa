package factory

import (
	"image"
	"testing"

	"github.com/anime-shed/idcard-scanner-go/internal/config"
	"github.com/anime-shed/idcard-scanner-go/internal/imaging"
	"github.com/anime-shed/idcard-scanner-go/internal/region"
	"github.com/anime-shed/idcard-scanner-go/internal/storage"
)

type stubEngine struct{}

func (stubEngine) Recognize(img image.Image, language string) (string, error) {
	return "Name: Jane Doe", nil
}

type stubDetector struct{}

func (stubDetector) Detect(gray *image.Gray, params region.DetectParams) ([]image.Rectangle, error) {
	return nil, nil
}

func testConfig() *config.Config {
	return &config.Config{
		MaxRequestBodySize:  1 << 20,
		OCRLanguage:         "eng",
		NLMTemplateWindow:   3,
		NLMSearchWindow:     7,
		NLMStrength:         10,
		DilateKernel:        1,
		DetectScaleFactor:   1.1,
		DetectMinNeighbors:  5,
		DetectMinSize:       50,
		DetectPadding:       10,
		PhotoSink:           config.PhotoSinkLocal,
		OutputDir:           "photos",
		AzurePhotoContainer: "photos",
	}
}

func TestCreateProcessor(t *testing.T) {
	f := NewProcessorFactory(testConfig())

	processor, err := f.CreateProcessor(stubEngine{}, stubDetector{})
	if err != nil {
		t.Fatalf("CreateProcessor() error = %v", err)
	}

	img := image.NewGray(image.Rect(0, 0, 16, 16))
	for i := range img.Pix {
		img.Pix[i] = 255
	}
	raw, err := imaging.FromImage(img)
	if err != nil {
		t.Fatal(err)
	}
	result := processor.Process(raw)
	if !result.Success {
		t.Fatalf("Expected success, got %s: %s", result.ErrorType, result.Error)
	}
	if result.StudentData == nil || result.StudentData.Name == nil || *result.StudentData.Name != "Jane Doe" {
		t.Errorf("Expected name from stub engine, got %+v", result.StudentData)
	}
}

func TestCreateProcessor_Errors(t *testing.T) {
	f := NewProcessorFactory(testConfig())
	if _, err := f.CreateProcessor(nil, stubDetector{}); err == nil {
		t.Error("Expected error for missing engine")
	}
	if _, err := f.CreateProcessor(stubEngine{}, nil); err == nil {
		t.Error("Expected error for missing detector")
	}

	bad := testConfig()
	bad.NLMTemplateWindow = 4
	if _, err := NewProcessorFactory(bad).CreateProcessor(stubEngine{}, stubDetector{}); err == nil {
		t.Error("Expected error for invalid normalizer settings")
	}
}

func TestCreateEngine(t *testing.T) {
	if NewProcessorFactory(testConfig()).CreateEngine() == nil {
		t.Error("Expected non-nil engine")
	}
}

func TestCreateSource(t *testing.T) {
	f := NewStorageFactory(testConfig())

	src, err := f.CreateSource(HTTPStorage)
	if err != nil {
		t.Fatalf("CreateSource(http) error = %v", err)
	}
	if _, ok := src.(*storage.HTTPFetcher); !ok {
		t.Errorf("Expected *storage.HTTPFetcher, got %T", src)
	}

	src, err = f.CreateSource(LocalStorage)
	if err != nil {
		t.Fatalf("CreateSource(local) error = %v", err)
	}
	if _, ok := src.(*storage.LocalStore); !ok {
		t.Errorf("Expected *storage.LocalStore, got %T", src)
	}

	if _, err := f.CreateSource(AzureStorage); err == nil {
		t.Error("Expected error for unconfigured azure storage")
	}
	if _, err := f.CreateSource("ftp"); err == nil {
		t.Error("Expected error for unsupported storage type")
	}
}

func TestCreatePhotoSink(t *testing.T) {
	tests := []struct {
		name    string
		sink    string
		wantNil bool
		wantErr bool
	}{
		{"local", config.PhotoSinkLocal, false, false},
		{"none", config.PhotoSinkNone, true, false},
		{"azure without credentials", config.PhotoSinkAzure, true, true},
		{"unknown", "ftp", true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			cfg.PhotoSink = tt.sink
			sink, err := NewStorageFactory(cfg).CreatePhotoSink()
			if (err != nil) != tt.wantErr {
				t.Fatalf("CreatePhotoSink() error = %v, wantErr %v", err, tt.wantErr)
			}
			if (sink == nil) != tt.wantNil {
				t.Errorf("CreatePhotoSink() sink = %v, wantNil %v", sink, tt.wantNil)
			}
		})
	}
}

func TestAzureStoreIsShared(t *testing.T) {
	cfg := testConfig()
	cfg.PhotoSink = config.PhotoSinkAzure
	cfg.AzureAccount = "devaccount"
	cfg.AzureKey = "a2V5LWZvci10ZXN0cw==" // base64, never used on the wire

	f := NewStorageFactory(cfg)
	src, err := f.CreateSource(AzureStorage)
	if err != nil {
		t.Fatalf("CreateSource(azure) error = %v", err)
	}
	sink, err := f.CreatePhotoSink()
	if err != nil {
		t.Fatalf("CreatePhotoSink() error = %v", err)
	}
	if src.(*storage.AzureBlobStore) != sink.(*storage.AzureBlobStore) {
		t.Error("Expected source and sink to share one azure client")
	}
}

func TestNewComponentFactory(t *testing.T) {
	cf := NewComponentFactory(testConfig())
	if cf.ProcessorFactory == nil || cf.StorageFactory == nil {
		t.Error("Expected both factories to be set")
	}
}
