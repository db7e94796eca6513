package transit

import (
	"crypto/sha256"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/pkg/errors"

	"github.com/urbanfeed/transit/parse"
	"github.com/urbanfeed/transit/storage"
)

// Importer turns feed archives into queryable engines on top of a
// Storage. Each import is all-or-nothing: on any error the feed's
// previous version (if one exists) stays published and readable.
type Importer struct {
	storage storage.Storage
	logger  *slog.Logger
}

func NewImporter(s storage.Storage, logger *slog.Logger) *Importer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Importer{
		storage: s,
		logger:  logger,
	}
}

// Import parses the zipped archive in buf and publishes it under
// feedID, replacing any earlier import of that feed atomically. The
// returned report lists rows skipped in Lenient mode; in Strict mode
// the first bad row aborts the import.
func (im *Importer) Import(feedID string, buf []byte, mode parse.Mode) (*Engine, *parse.Report, error) {
	report := parse.NewReport(mode)

	writer, err := im.storage.GetWriter(feedID)
	if err != nil {
		return nil, report, errors.Wrap(err, "getting writer")
	}

	metadata, err := parse.ParseFeed(writer, buf, report)
	if err != nil {
		if abortErr := writer.Abort(); abortErr != nil {
			im.logger.Error("aborting import", "feed", feedID, "error", abortErr)
		}
		return nil, report, err
	}

	if err := writer.Close(); err != nil {
		return nil, report, errors.Wrap(err, "publishing feed")
	}

	metadata.FeedID = feedID
	metadata.SHA256 = fmt.Sprintf("%x", sha256.Sum256(buf))
	metadata.ImportedAt = time.Now().UTC()
	metadata.RowsSkipped = len(report.Skipped)
	if err := im.storage.WriteFeedMetadata(metadata); err != nil {
		return nil, report, errors.Wrap(err, "writing feed metadata")
	}

	for _, skipped := range report.Skipped {
		im.logger.Warn("skipped row", "feed", feedID, "error", skipped)
	}
	im.logger.Info("imported feed",
		"feed", feedID,
		"sha256", metadata.SHA256,
		"calendar_start", metadata.CalendarStartDate,
		"calendar_end", metadata.CalendarEndDate,
		"rows_skipped", metadata.RowsSkipped,
	)

	engine, err := im.Open(feedID)
	if err != nil {
		return nil, report, err
	}

	return engine, report, nil
}

// ImportFile imports the archive at path under feedID.
func (im *Importer) ImportFile(feedID string, path string, mode parse.Mode) (*Engine, *parse.Report, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, parse.NewReport(mode), errors.Wrapf(err, "reading %s", path)
	}
	return im.Import(feedID, buf, mode)
}

// Open returns an engine over the currently published version of the
// feed.
func (im *Importer) Open(feedID string) (*Engine, error) {
	reader, err := im.storage.GetReader(feedID)
	if err != nil {
		return nil, errors.Wrapf(err, "opening feed %s", feedID)
	}
	return NewEngine(reader)
}

// Feeds lists metadata for all imported feeds, most recent first.
func (im *Importer) Feeds() ([]*storage.FeedMetadata, error) {
	return im.storage.ListFeeds()
}

// Delete removes a feed's data and metadata. Engines opened earlier
// keep working against the version they hold.
func (im *Importer) Delete(feedID string) error {
	return im.storage.DeleteFeed(feedID)
}
