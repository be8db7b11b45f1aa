package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/anime-shed/idcard-scanner-go/internal/config"
	"github.com/anime-shed/idcard-scanner-go/internal/factory"
	"github.com/anime-shed/idcard-scanner-go/internal/logger"
	"github.com/anime-shed/idcard-scanner-go/internal/service"
	"github.com/anime-shed/idcard-scanner-go/internal/storage"
	"github.com/anime-shed/idcard-scanner-go/internal/worker"
	"github.com/anime-shed/idcard-scanner-go/pkg/models"
	"github.com/anime-shed/idcard-scanner-go/pkg/validation"

	"github.com/sirupsen/logrus"
)

type options struct {
	dir     string
	outDir  string
	workers int
}

// line is one JSON line of output
type line struct {
	File     string                   `json:"file"`
	Response *models.DocumentResponse `json:"response,omitempty"`
	Error    string                   `json:"error,omitempty"`
}

func main() {
	opts, err := parseFlags()
	if err != nil {
		fmt.Fprintf(os.Stderr, "batch: %v\n", err)
		os.Exit(2)
	}
	if err := run(opts); err != nil {
		fmt.Fprintf(os.Stderr, "batch: %v\n", err)
		os.Exit(1)
	}
}

func parseFlags() (options, error) {
	var opts options
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: go run ./cmd/batch -dir <documents> [flags]\n")
		flag.PrintDefaults()
	}
	flag.StringVar(&opts.dir, "dir", "", "Directory containing document images")
	flag.StringVar(&opts.outDir, "out", "extracted_photos", "Directory for extracted photo crops")
	flag.IntVar(&opts.workers, "workers", 0, "Number of concurrent documents (0 = number of CPUs)")
	flag.Parse()

	if opts.dir == "" {
		flag.Usage()
		return options{}, fmt.Errorf("missing -dir")
	}
	return opts, nil
}

func run(opts options) error {
	cfg, err := config.LoadFromEnv()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger.SetLevel(cfg.LogLevel)
	// stdout carries the JSON lines
	logger.Logger.SetOutput(os.Stderr)

	processors := factory.NewProcessorFactory(cfg)
	detector, err := processors.CreateDetector()
	if err != nil {
		return err
	}
	defer detector.Close()

	processor, err := processors.CreateProcessor(processors.CreateEngine(), detector)
	if err != nil {
		return err
	}

	uploads := validation.NewUploadValidator(storage.DefaultMaxDocumentSize, nil)
	files, err := collectDocuments(opts.dir, uploads)
	if err != nil {
		return err
	}

	store := storage.NewLocalStore(opts.outDir)
	svc := service.NewDocumentService(nil, processor, store, nil, uploads,
		service.Options{AnalysisTimeout: cfg.AnalysisTimeout})

	failed := processAll(context.Background(), svc, store, files, opts.workers, os.Stdout)

	logger.WithFields(logrus.Fields{
		"documents": len(files),
		"failed":    failed,
		"out":       opts.outDir,
	}).Info("Batch finished")
	return nil
}

// collectDocuments lists the supported images directly inside dir, sorted by name
func collectDocuments(dir string, uploads *validation.UploadValidator) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", dir, err)
	}
	var files []string
	for _, entry := range entries {
		if entry.IsDir() || !uploads.IsAllowedExtension(entry.Name()) {
			continue
		}
		files = append(files, filepath.Join(dir, entry.Name()))
	}
	sort.Strings(files)
	return files, nil
}

// processAll runs every file through svc on a worker pool and writes one JSON
// line per file as results arrive. It returns the number of failed documents.
func processAll(ctx context.Context, svc service.DocumentService, source storage.DocumentSource, files []string, workers int, out io.Writer) int {
	pool := worker.NewPool(workers)
	pool.Start()
	defer pool.Close()

	var (
		mu     sync.Mutex
		failed int
	)
	enc := json.NewEncoder(out)
	emit := func(l line) {
		mu.Lock()
		defer mu.Unlock()
		if l.Error != "" || l.Response == nil || !l.Response.Result.Success {
			failed++
		}
		if err := enc.Encode(l); err != nil {
			logger.WithError(err).Error("Failed to write result line")
		}
	}

	for _, file := range files {
		pool.Submit(func() {
			data, err := source.Fetch(ctx, file)
			if err != nil {
				emit(line{File: file, Error: err.Error()})
				return
			}
			resp, err := svc.ProcessUpload(ctx, filepath.Base(file), data, "")
			if err != nil {
				emit(line{File: file, Error: err.Error()})
				return
			}
			emit(line{File: file, Response: resp})
		})
	}
	pool.Wait()

	return failed
}
