package exifwriter

import (
	"context"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/bryanbrunetti/takeout-organizer/internal/classifier"
	"github.com/bryanbrunetti/takeout-organizer/internal/concurrency"
	"github.com/bryanbrunetti/takeout-organizer/internal/dateextract"
	"github.com/bryanbrunetti/takeout-organizer/internal/errs"
	"github.com/bryanbrunetti/takeout-organizer/internal/exifio"
	"github.com/bryanbrunetti/takeout-organizer/internal/logging"
	"github.com/bryanbrunetti/takeout-organizer/internal/model"
)

// Counters tallies the outcomes a file's write can contribute to (§4.7): a
// file may write a date, GPS coordinates, both, or neither, via either the
// native or external path. nativeWriteNanos/externalBatchNanos and
// filesNative/filesExternal back the required per-phase instrumentation
// (native-write time, external-tool batch time, files-per-class).
type Counters struct {
	coordinatesWritten int64
	dateTimesWritten   int64
	nativeWriteNanos   int64
	externalBatchNanos int64
	filesNative        int64
	filesExternal      int64
}

func (c *Counters) CoordinatesWritten() int64 { return atomic.LoadInt64(&c.coordinatesWritten) }
func (c *Counters) DateTimesWritten() int64   { return atomic.LoadInt64(&c.dateTimesWritten) }
func (c *Counters) NativeWriteTime() time.Duration {
	return time.Duration(atomic.LoadInt64(&c.nativeWriteNanos))
}
func (c *Counters) ExternalBatchTime() time.Duration {
	return time.Duration(atomic.LoadInt64(&c.externalBatchNanos))
}
func (c *Counters) FilesNative() int64   { return atomic.LoadInt64(&c.filesNative) }
func (c *Counters) FilesExternal() int64 { return atomic.LoadInt64(&c.filesExternal) }

// maxFileSize bounds per-file processing when LimitFileSize is set
// (§6.4 --limit-filesize): both the native path (which parses the whole
// JPEG segment list into memory) and ExtractMetadata calls are memory-
// bound on file size, so files above this are skipped rather than risk
// exhausting memory on constrained systems.
const maxFileSize = 64 << 20

// Writer dispatches each entity to the native JPEG path or the batched
// external-tool path, tracking per-phase counters.
type Writer struct {
	batch         *BatchWriter
	log           *zap.Logger
	LimitFileSize bool
	Counters      Counters
}

// NewWriter opens the shared external-tool batch process. A nil logger is
// replaced with a no-op one.
func NewWriter(log *zap.Logger) (*Writer, error) {
	batch, err := NewBatchWriter()
	if err != nil {
		return nil, err
	}
	return &Writer{batch: batch, log: logging.OrNop(log)}, nil
}

// Close flushes any remaining batch entries, releases the external tool
// process, and logs the required per-phase instrumentation (§4.7).
func (w *Writer) Close() error {
	for _, err := range w.batch.Flush() {
		_ = err // errors from this final flush are discarded, not counted; draining here is best-effort
	}
	err := w.batch.Close()

	w.log.Info("exif write phase complete",
		zap.Duration("native_write_time", w.Counters.NativeWriteTime()),
		zap.Duration("external_batch_time", w.Counters.ExternalBatchTime()),
		zap.Int64("files_native", w.Counters.FilesNative()),
		zap.Int64("files_external", w.Counters.FilesExternal()),
		zap.Int64("coordinates_written", w.Counters.CoordinatesWritten()),
		zap.Int64("date_times_written", w.Counters.DateTimesWritten()))

	return err
}

// Process writes the entity's resolved date and GPS data, choosing the
// native or external path by content-sniffed MIME. Per-file errors never
// abort the phase; they are returned for the caller to log and count
// (§4.7 scheduling note).
func (w *Writer) Process(ctx context.Context, e model.MediaEntity, gate *concurrency.Gate) error {
	release, err := gate.Acquire(ctx)
	if err != nil {
		return err
	}
	defer release()

	path := e.Primary.SourcePath

	if w.LimitFileSize {
		if info, statErr := os.Stat(path); statErr == nil && info.Size() > maxFileSize {
			return nil // skipped, not failed: §6.4 bounds memory use, not correctness
		}
	}

	wantDate := e.HasDate && e.DateMethod != model.MethodEXIF && e.DateMethod != model.MethodNone

	gps, hasGPS := dateextract.GeoFromSidecar(path)

	if !wantDate && !hasGPS {
		return nil
	}

	sniffed, err := classifier.SniffMIME(path)
	if err != nil {
		return errs.New(errs.ExifWriteFailed, "exifwriter.sniff", path, err)
	}

	if skipReason(path, sniffed) != "" {
		return nil
	}

	var dateTags map[string]string
	if wantDate {
		dateTags = BuildDateTags(e.DateTaken)
	}

	if sniffed == "image/jpeg" {
		return w.processJPEG(path, dateTags, gps, hasGPS, wantDate)
	}
	return w.processExternal(path, dateTags, gps, hasGPS, wantDate)
}

func (w *Writer) processJPEG(path string, dateTags map[string]string, gps model.Coordinates, hasGPS, wantDate bool) error {
	writeGPS := hasGPS
	if writeGPS {
		if data, err := os.ReadFile(path); err == nil {
			if existing, ok, _ := exifio.ReadGPS(data); ok && !existing.IsZero() {
				writeGPS = false // already embedded, skip per §4.7
			}
		}
	}

	if dateTags == nil && !writeGPS {
		return nil
	}

	var gpsArg *model.Coordinates
	if writeGPS {
		gpsArg = &gps
	}

	t0 := time.Now()
	err := WriteJPEGNative(path, dateTags, gpsArg)
	atomic.AddInt64(&w.Counters.nativeWriteNanos, int64(time.Since(t0)))

	if err != nil {
		// Native write failed: enqueue the same tag set on the external
		// batch path rather than losing the write entirely (§4.7).
		return w.processExternal(path, dateTags, gps, writeGPS, wantDate)
	}

	atomic.AddInt64(&w.Counters.filesNative, 1)
	if wantDate {
		atomic.AddInt64(&w.Counters.dateTimesWritten, 1)
	}
	if writeGPS {
		atomic.AddInt64(&w.Counters.coordinatesWritten, 1)
	}
	return nil
}

func (w *Writer) processExternal(path string, dateTags map[string]string, gps model.Coordinates, hasGPS, wantDate bool) error {
	writeGPS := hasGPS
	if writeGPS {
		metas := w.batch.ExtractMetadata(path)
		if len(metas) == 1 && metas[0].Err == nil {
			if _, latOK := metas[0].Fields["GPSLatitude"]; latOK {
				if _, lonOK := metas[0].Fields["GPSLongitude"]; lonOK {
					writeGPS = false
				}
			}
		}
	}

	tags := map[string]string{}
	for k, v := range dateTags {
		tags[k] = v
	}
	if writeGPS {
		for k, v := range BuildGPSTags(gps) {
			tags[k] = v
		}
	}
	if len(tags) == 0 {
		return nil
	}

	t0 := time.Now()
	flushErrs := w.batch.Add(path, tags)
	atomic.AddInt64(&w.Counters.externalBatchNanos, int64(time.Since(t0)))

	atomic.AddInt64(&w.Counters.filesExternal, 1)
	if wantDate {
		atomic.AddInt64(&w.Counters.dateTimesWritten, 1)
	}
	if writeGPS {
		atomic.AddInt64(&w.Counters.coordinatesWritten, 1)
	}

	if len(flushErrs) > 0 {
		return flushErrs[0]
	}
	return nil
}

// skipReason implements the external-tool skip rules (§4.7): a
// declared-extension/content-sniff mismatch, unless the content is
// TIFF-family (raw formats), or an AVI file (RIFF metadata the external
// tool cannot rewrite).
func skipReason(path, sniffed string) string {
	ext := strings.ToLower(filepath.Ext(path))
	if ext == ".avi" {
		return "avi_unsupported"
	}

	declared := mime.TypeByExtension(ext)
	if declared == "" {
		return ""
	}
	if base, _, err := mime.ParseMediaType(declared); err == nil {
		declared = base
	}
	if declared == sniffed {
		return ""
	}
	if strings.HasPrefix(sniffed, "image/tiff") {
		return "" // raw/TIFF-family formats are exempt from the mismatch check
	}
	return "content_mime_mismatch"
}
