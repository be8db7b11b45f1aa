package recognition

import (
	"fmt"
	"image"

	"github.com/anime-shed/idcard-scanner-go/internal/imaging"

	"github.com/otiai10/gosseract/v2"
)

// TesseractEngine runs Tesseract through gosseract, one client per call
type TesseractEngine struct {
	tessdataPrefix string
	clientFactory  func() *gosseract.Client
}

// NewTesseractEngine creates the production engine. tessdataPrefix may be
// empty to use the library default.
func NewTesseractEngine(tessdataPrefix string) *TesseractEngine {
	return &TesseractEngine{
		tessdataPrefix: tessdataPrefix,
		clientFactory:  gosseract.NewClient,
	}
}

// Recognize implements Engine
func (e *TesseractEngine) Recognize(img image.Image, language string) (string, error) {
	data, err := imaging.EncodePNG(img)
	if err != nil {
		return "", err
	}

	client := e.clientFactory()
	defer client.Close()

	if e.tessdataPrefix != "" {
		if err := client.SetTessdataPrefix(e.tessdataPrefix); err != nil {
			return "", fmt.Errorf("set tessdata prefix: %w", err)
		}
	}
	if err := client.SetLanguage(language); err != nil {
		return "", fmt.Errorf("set language: %w", err)
	}
	if err := client.SetImageFromBytes(data); err != nil {
		return "", fmt.Errorf("set image: %w", err)
	}

	text, err := client.Text()
	if err != nil {
		return "", fmt.Errorf("recognize text: %w", err)
	}
	return text, nil
}
