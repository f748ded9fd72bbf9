package s3blob

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/quantfold/arbscope/internal/domain"
)

// archiveBatchSize bounds one archival pass so a long backlog is drained
// over several passes instead of one huge upload.
const archiveBatchSize = 10000

// archivePrefix is the key prefix under which opportunity partitions live.
const archivePrefix = "archive/opportunities/"

// Archiver implements domain.Archiver. It queries aged opportunity rows,
// serializes them to JSONL, uploads the file, verifies the upload landed,
// and only then prunes the rows from the primary store.
type Archiver struct {
	writer domain.BlobWriter
	reader domain.BlobReader
	opps   domain.OpportunityStore
	logger *slog.Logger
}

// NewArchiver creates an Archiver.
func NewArchiver(writer domain.BlobWriter, reader domain.BlobReader, opps domain.OpportunityStore, logger *slog.Logger) *Archiver {
	return &Archiver{
		writer: writer,
		reader: reader,
		opps:   opps,
		logger: logger.With(slog.String("component", "archiver")),
	}
}

// ArchiveOpportunities uploads all opportunities detected before the cutoff
// to archive/opportunities/<cutoff>.jsonl and deletes the archived rows.
// Rows are deleted only after the uploaded object is confirmed to exist.
func (a *Archiver) ArchiveOpportunities(ctx context.Context, before time.Time) (int64, error) {
	opps, err := a.opps.ListBefore(ctx, before, archiveBatchSize)
	if err != nil {
		return 0, fmt.Errorf("s3blob: archive query: %w", err)
	}
	if len(opps) == 0 {
		return 0, nil
	}

	buf, err := marshalJSONL(opps)
	if err != nil {
		return 0, fmt.Errorf("s3blob: archive marshal: %w", err)
	}

	path := archivePath(before)
	if err := a.upload(ctx, path, buf); err != nil {
		return 0, fmt.Errorf("s3blob: archive upload: %w", err)
	}

	ok, err := a.reader.Exists(ctx, path)
	if err != nil {
		return 0, fmt.Errorf("s3blob: archive verify: %w", err)
	}
	if !ok {
		return 0, fmt.Errorf("s3blob: archive verify: object %s missing after upload", path)
	}

	ids := make([]string, 0, len(opps))
	for _, o := range opps {
		ids = append(ids, o.ID)
	}
	pruned, err := a.opps.DeleteByIDs(ctx, ids)
	if err != nil {
		return 0, fmt.Errorf("s3blob: archive prune: %w", err)
	}

	a.logger.InfoContext(ctx, "opportunities archived",
		slog.String("path", path),
		slog.Int("count", len(opps)),
		slog.Int64("pruned", pruned),
		slog.Time("before", before),
	)
	return int64(len(opps)), nil
}

// multipartThreshold is the payload size above which uploads switch to the
// multipart path.
const multipartThreshold = 16 * 1024 * 1024

// upload sends the payload with a single PutObject, or multipart when the
// writer supports it and the payload is large.
func (a *Archiver) upload(ctx context.Context, path string, buf []byte) error {
	type multipartWriter interface {
		PutMultipart(ctx context.Context, path string, data io.Reader, partSize int64) error
	}
	if mw, ok := a.writer.(multipartWriter); ok && len(buf) > multipartThreshold {
		return mw.PutMultipart(ctx, path, bytes.NewReader(buf), minPartSize)
	}
	return a.writer.Put(ctx, path, bytes.NewReader(buf), "application/x-ndjson")
}

// ListArchives returns metadata for every stored opportunity partition.
func (a *Archiver) ListArchives(ctx context.Context) ([]domain.BlobInfo, error) {
	infos, err := a.reader.List(ctx, archivePrefix)
	if err != nil {
		return nil, fmt.Errorf("s3blob: list archives: %w", err)
	}
	return infos, nil
}

// ReadArchive decodes one archived partition back into opportunity rows,
// for restores and offline analysis of pruned history.
func (a *Archiver) ReadArchive(ctx context.Context, path string) ([]domain.Opportunity, error) {
	body, err := a.reader.Get(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("s3blob: read archive %s: %w", path, err)
	}
	defer body.Close()

	var opps []domain.Opportunity
	dec := json.NewDecoder(body)
	for {
		var opp domain.Opportunity
		if err := dec.Decode(&opp); err != nil {
			if err == io.EOF {
				break
			}
			return nil, fmt.Errorf("s3blob: decode archive %s record %d: %w", path, len(opps), err)
		}
		opps = append(opps, opp)
	}
	return opps, nil
}

// archivePath builds the object key for one archival pass, partitioned by
// cutoff timestamp so repeated passes never overwrite each other.
//
//	archive/opportunities/20250830T120000Z.jsonl
func archivePath(before time.Time) string {
	return archivePrefix + before.UTC().Format("20060102T150405Z") + ".jsonl"
}

// marshalJSONL serializes records as newline-delimited compact JSON.
func marshalJSONL[T any](records []T) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)

	for i, rec := range records {
		if err := enc.Encode(rec); err != nil {
			return nil, fmt.Errorf("jsonl encode record %d: %w", i, err)
		}
	}
	return buf.Bytes(), nil
}

var _ domain.Archiver = (*Archiver)(nil)
