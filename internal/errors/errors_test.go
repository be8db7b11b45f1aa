package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"strings"
	"testing"
)

func TestConstructors_TypeAndStatus(t *testing.T) {
	cause := stderrors.New("boom")

	tests := []struct {
		name       string
		err        *AppError
		wantType   ErrorType
		wantStatus int
	}{
		{"validation", NewValidationError("bad", cause), ErrorTypeValidation, http.StatusBadRequest},
		{"network", NewNetworkError("bad", cause), ErrorTypeNetwork, http.StatusBadGateway},
		{"timeout", NewTimeoutError("bad", cause), ErrorTypeTimeout, http.StatusGatewayTimeout},
		{"decode", NewDecodeError("bad", cause), ErrorTypeDecode, http.StatusUnprocessableEntity},
		{"recognition", NewRecognitionError("bad", "tesseract said no", cause), ErrorTypeRecognition, http.StatusBadGateway},
		{"detection", NewDetectionError("bad", cause), ErrorTypeDetection, http.StatusBadGateway},
		{"malformed text", NewMalformedTextError("bad", cause), ErrorTypeMalformedText, http.StatusUnprocessableEntity},
		{"internal", NewInternalError("bad", nil), ErrorTypeInternal, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Type != tt.wantType {
				t.Errorf("Type = %s, want %s", tt.err.Type, tt.wantType)
			}
			if GetStatusCode(tt.err) != tt.wantStatus {
				t.Errorf("GetStatusCode() = %d, want %d", GetStatusCode(tt.err), tt.wantStatus)
			}
		})
	}
}

func TestAppError_ErrorAndUnwrap(t *testing.T) {
	cause := stderrors.New("engine crashed")
	err := NewRecognitionError("text recognition failed", "engine crashed", cause)

	if !strings.Contains(err.Error(), "recognition: text recognition failed") {
		t.Errorf("unexpected message: %s", err.Error())
	}
	if !stderrors.Is(err, cause) {
		t.Error("expected errors.Is to find the cause")
	}
	if err.Details != "engine crashed" {
		t.Errorf("Details = %q, want engine diagnostic", err.Details)
	}
}

func TestIsType_WrappedErrors(t *testing.T) {
	wrapped := fmt.Errorf("pipeline: %w", NewDecodeError("corrupt image", nil))

	if !IsType(wrapped, ErrorTypeDecode) {
		t.Error("expected wrapped decode error to be detected")
	}
	if IsType(wrapped, ErrorTypeRecognition) {
		t.Error("did not expect recognition type")
	}
	if TypeOf(wrapped) != ErrorTypeDecode {
		t.Errorf("TypeOf() = %s, want decode", TypeOf(wrapped))
	}
	if TypeOf(stderrors.New("plain")) != ErrorTypeInternal {
		t.Error("expected foreign errors to map to internal")
	}
	if GetStatusCode(stderrors.New("plain")) != http.StatusInternalServerError {
		t.Error("expected 500 for foreign errors")
	}
}
