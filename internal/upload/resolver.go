package upload

import (
	"log/slog"
	"mime"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"keepsafe/internal/http/shared"
	"keepsafe/internal/platform/metrics"
	dErrors "keepsafe/pkg/domain-errors"
	"keepsafe/pkg/requestcontext"
)

// FileField is the multipart field clients submit attachments under. Order
// within the field is preserved by the multipart parser, and that order is
// what the vault's positional backfill keys on.
const FileField = "files"

const maxUploadMemory = 32 << 20 // 32 MiB in memory, rest spills to disk

// Resolver is the middleware that turns attached file buffers into an
// ordered list of object-store URLs in the request context. It runs ahead of
// the vault controllers; an upload failure fails the whole request before
// any database mutation. Partial uploads are not rolled back.
type Resolver struct {
	uploader Uploader
	logger   *slog.Logger
	metrics  *metrics.Metrics
}

func NewResolver(uploader Uploader, logger *slog.Logger, m *metrics.Metrics) *Resolver {
	return &Resolver{uploader: uploader, logger: logger, metrics: m}
}

// Middleware resolves multipart attachments. Requests without files (JSON
// bodies, or multipart with no file parts) pass through unmodified.
func (rs *Resolver) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
		if err != nil || mediaType != "multipart/form-data" {
			next.ServeHTTP(w, r)
			return
		}

		if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
			shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "malformed multipart body"))
			return
		}

		headers := r.MultipartForm.File[FileField]
		if len(headers) == 0 {
			next.ServeHTTP(w, r)
			return
		}

		ctx := r.Context()
		urls := make([]string, len(headers))
		g, gctx := errgroup.WithContext(ctx)
		for i, header := range headers {
			g.Go(func() error {
				file, err := header.Open()
				if err != nil {
					return err
				}
				defer file.Close()

				start := time.Now()
				url, err := rs.uploader.Upload(gctx, header.Filename, file)
				if err != nil {
					return err
				}
				if rs.metrics != nil {
					rs.metrics.UploadsResolved.Inc()
					rs.metrics.UploadDuration.Observe(time.Since(start).Seconds())
				}
				// Indexed assignment keeps output order identical to
				// submission order regardless of upload completion order.
				urls[i] = url
				return nil
			})
		}

		if err := g.Wait(); err != nil {
			rs.logger.ErrorContext(ctx, "file upload failed",
				"error", err,
				"file_count", len(headers),
				"request_id", requestcontext.RequestID(ctx),
			)
			shared.WriteError(w, dErrors.Wrap(dErrors.CodeUpstream, "file upload failed", err))
			return
		}

		next.ServeHTTP(w, r.WithContext(requestcontext.WithUploads(ctx, urls)))
	})
}
