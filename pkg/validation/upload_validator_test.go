package validation

import (
	"testing"

	apperrors "github.com/anime-shed/idcard-scanner-go/internal/errors"
)

func TestValidateUpload(t *testing.T) {
	validator := NewUploadValidator(1024, nil)

	tests := []struct {
		name     string
		filename string
		size     int64
		wantErr  bool
	}{
		{"jpeg", "card.jpg", 100, false},
		{"upper case extension", "CARD.JPEG", 100, false},
		{"png", "scan.png", 1024, false},
		{"tiff", "scan.tiff", 10, false},
		{"webp", "scan.webp", 10, false},
		{"bmp", "scan.bmp", 10, false},
		{"pdf rejected", "scan.pdf", 100, true},
		{"no extension", "scan", 100, true},
		{"empty name", "", 100, true},
		{"empty file", "card.jpg", 0, true},
		{"too large", "card.jpg", 1025, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validator.ValidateUpload(tt.filename, tt.size)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("Expected error for %q (%d bytes)", tt.filename, tt.size)
				}
				if !apperrors.IsType(err, apperrors.ErrorTypeValidation) {
					t.Errorf("Expected validation error, got %v", err)
				}
				return
			}
			if err != nil {
				t.Errorf("Expected no error for %q, got %v", tt.filename, err)
			}
		})
	}
}

func TestUploadValidator_CustomExtensions(t *testing.T) {
	validator := NewUploadValidator(0, []string{"PNG", " .gif ", ""})

	if !validator.IsAllowedExtension("a.png") {
		t.Error("Expected .png to be allowed")
	}
	if !validator.IsAllowedExtension("a.GIF") {
		t.Error("Expected .gif to be allowed")
	}
	if validator.IsAllowedExtension("a.jpg") {
		t.Error("Expected .jpg to be rejected")
	}
	if err := validator.ValidateUpload("huge.png", 1<<40); err != nil {
		t.Errorf("Expected size check to be disabled, got %v", err)
	}
}
