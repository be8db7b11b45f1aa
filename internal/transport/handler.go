package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/anime-shed/idcard-scanner-go/internal/config"
	apperrors "github.com/anime-shed/idcard-scanner-go/internal/errors"
	"github.com/anime-shed/idcard-scanner-go/internal/logger"
	"github.com/anime-shed/idcard-scanner-go/internal/observer"
	"github.com/anime-shed/idcard-scanner-go/internal/service"
	"github.com/anime-shed/idcard-scanner-go/pkg/models"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// Version is reported by the health endpoint
const Version = "1.0.0"

// StatsProvider exposes processing counters
type StatsProvider interface {
	Stats() observer.Stats
}

func NewHandler(svc service.DocumentService, stats StatsProvider, cfg *config.Config) http.Handler {
	r := gin.New()

	// Add middleware
	r.Use(
		gin.Recovery(),
		requestLogger(),
		requestSizeLimiter(cfg.MaxRequestBodySize),
		errorHandler(),
	)

	// Configure routes
	r.GET("/health", healthCheck)
	r.POST("/documents/process", processDocument(svc, cfg))
	if stats != nil {
		r.GET("/stats", statsHandler(stats))
	}

	return r
}

func processDocument(svc service.DocumentService, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), cfg.RequestTimeout)
		defer cancel()

		var (
			resp *models.DocumentResponse
			err  error
		)
		if strings.HasPrefix(c.ContentType(), "multipart/form-data") {
			resp, err = processUpload(ctx, c, svc)
		} else {
			var req models.ProcessRequest
			if bindErr := c.ShouldBindJSON(&req); bindErr != nil {
				code := http.StatusBadRequest
				if isTooLarge(bindErr) {
					code = http.StatusRequestEntityTooLarge
				}
				respondError(c, code, "invalid request format", bindErr)
				return
			}
			resp, err = svc.ProcessURL(ctx, req)
		}

		if err != nil {
			respondError(c, determineStatusCode(err), "document processing failed", err)
			return
		}

		status := http.StatusOK
		if !resp.Result.Success {
			status = apperrors.GetStatusCode(resp.Result.Cause)
		}
		c.JSON(status, resp)
	}
}

func processUpload(ctx context.Context, c *gin.Context, svc service.DocumentService) (*models.DocumentResponse, error) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return nil, apperrors.NewValidationError("multipart field \"file\" is required", err)
	}

	file, err := fileHeader.Open()
	if err != nil {
		return nil, apperrors.NewValidationError("failed to open upload", err)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, apperrors.NewValidationError("failed to read upload", err)
	}

	return svc.ProcessUpload(ctx, fileHeader.Filename, data, c.PostForm("expected_text"))
}

func statsHandler(stats StatsProvider) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, stats.Stats())
	}
}

func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "available",
		"version": Version,
		"time":    time.Now().UTC().Format(time.RFC3339),
	})
}

// Middleware and helper functions
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.WithFields(logrus.Fields{
			"method":      c.Request.Method,
			"path":        c.Request.URL.Path,
			"status":      c.Writer.Status(),
			"ip":          c.ClientIP(),
			"user_agent":  c.Request.UserAgent(),
			"duration_ms": time.Since(start).Milliseconds(),
		}).Info("Request handled")
	}
}

func requestSizeLimiter(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

func errorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) > 0 && !c.Writer.Written() {
			err := c.Errors.Last()
			respondError(c, determineStatusCode(err.Err), "request processing failed", err.Err)
		}
	}
}

func isTooLarge(err error) bool {
	var maxBytesErr *http.MaxBytesError
	return errors.As(err, &maxBytesErr)
}

func determineStatusCode(err error) int {
	if isTooLarge(err) {
		return http.StatusRequestEntityTooLarge
	}

	// Check if it's a custom app error
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return appErr.StatusCode
	}

	// Fallback to context-based errors
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, context.Canceled):
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

func respondError(c *gin.Context, code int, message string, err error) {
	// Log the error with context
	logger.WithError(err).WithFields(logrus.Fields{
		"status_code": code,
		"message":     message,
		"path":        c.Request.URL.Path,
		"method":      c.Request.Method,
		"ip":          c.ClientIP(),
	}).Error("Request failed")

	c.AbortWithStatusJSON(code, models.ErrorResponse{
		Error:   http.StatusText(code),
		Message: fmt.Sprintf("%s: %v", message, err),
	})
}
