package service

import (
	"context"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/persistorai/wifimap/internal/models"
)

// Importer is what ImportWorker feeds files into.
type Importer interface {
	Import(ctx context.Context, blob []byte, origin string) (*models.ImportResult, error)
}

// Suffixes appended to a processed file so it is not picked up again.
const (
	ImportedSuffix = ".imported"
	RejectedSuffix = ".rejected"
)

// ImportWorker queues export files found on disk and imports them one at a
// time on a single goroutine.
type ImportWorker struct {
	importer Importer
	log      *logrus.Logger
	maxBytes int64
	jobs     chan string
}

// NewImportWorker creates an ImportWorker with the given queue capacity.
// Files larger than maxBytes are rejected without being read.
func NewImportWorker(importer Importer, log *logrus.Logger, queueSize int, maxBytes int64) *ImportWorker {
	if queueSize <= 0 {
		queueSize = 64
	}

	return &ImportWorker{
		importer: importer,
		log:      log,
		maxBytes: maxBytes,
		jobs:     make(chan string, queueSize),
	}
}

// Enqueue adds a file path. Non-blocking; drops the path if the queue is full.
func (w *ImportWorker) Enqueue(path string) {
	select {
	case w.jobs <- path:
	default:
		w.log.WithField("path", path).Warn("import queue full, dropping file")
	}
}

// Run processes queued files until the context is cancelled.
func (w *ImportWorker) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case path := <-w.jobs:
			w.process(ctx, path)
		}
	}
}

func (w *ImportWorker) process(ctx context.Context, path string) {
	log := w.log.WithField("path", path)

	blob, err := w.read(path)
	if err != nil {
		log.WithError(err).Warn("reading import file")
		w.mark(path, RejectedSuffix)

		return
	}

	result, err := w.importer.Import(ctx, blob, "watch:"+path)
	switch {
	case err == nil:
		log.WithFields(logrus.Fields{
			"added":   result.Added,
			"updated": result.Updated,
			"notes":   result.Notes,
		}).Info("imported file")
		w.mark(path, ImportedSuffix)
	case models.IsMalformedInput(err):
		log.WithError(err).Warn("rejected import file")
		w.mark(path, RejectedSuffix)
	default:
		// Left in place so a restart retries it.
		log.WithError(err).Error("import file failed")
	}
}

func (w *ImportWorker) read(path string) ([]byte, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}

	if w.maxBytes > 0 && info.Size() > w.maxBytes {
		return nil, fmt.Errorf("file is %d bytes, limit is %d", info.Size(), w.maxBytes)
	}

	return os.ReadFile(path)
}

func (w *ImportWorker) mark(path, suffix string) {
	if err := os.Rename(path, path+suffix); err != nil {
		w.log.WithError(err).WithField("path", path).Warn("marking processed file")
	}
}
