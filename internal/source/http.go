package source

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/tuanvumaihuynh/restock-watch/internal/apperr"
	"github.com/tuanvumaihuynh/restock-watch/internal/config"
	"github.com/tuanvumaihuynh/restock-watch/internal/model"
)

// Credentials supplies the headers and cookies sent with every catalog request.
type Credentials interface {
	Load(ctx context.Context, regionCode string) (Session, error)
	// Expire is called when the catalog rejects the credentials.
	Expire(ctx context.Context, regionCode string) error
	// Update receives the cookies set by a successful response.
	Update(ctx context.Context, regionCode string, cookies []*http.Cookie) error
}

// Session is a resolved header and cookie set.
type Session struct {
	Headers map[string]string
	Cookies map[string]string
}

var _ Source = (*HTTPSource)(nil)

// HTTPSource fetches the catalog JSON endpoint directly.
type HTTPSource struct {
	cfg    config.Source
	logger *slog.Logger
	client *http.Client
	creds  Credentials
}

func NewHTTPSource(cfg config.Source, logger *slog.Logger, creds Credentials) *HTTPSource {
	return &HTTPSource{
		cfg:    cfg,
		logger: logger.With(slog.String("service", "source")),
		client: &http.Client{Timeout: cfg.Timeout},
		creds:  creds,
	}
}

func (s *HTTPSource) FetchSnapshot(ctx context.Context, regionCode string) (_ []model.ProductRecord, err error) {
	ctx, span := tracer.Start(ctx, "HTTPSource.FetchSnapshot",
		trace.WithAttributes(attribute.String("region_code", regionCode)),
		trace.WithSpanKind(trace.SpanKindClient),
	)
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	session, err := s.creds.Load(ctx, regionCode)
	if err != nil {
		return nil, apperr.SourceErr.WrapParent(fmt.Errorf("load credentials: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.cfg.APIURL, nil)
	if err != nil {
		return nil, apperr.SourceErr.WrapParent(fmt.Errorf("build request: %w", err))
	}
	req.Header.Set("Accept", "application/json")
	if s.cfg.UserAgent != "" {
		req.Header.Set("User-Agent", s.cfg.UserAgent)
	}
	for k, v := range session.Headers {
		req.Header.Set(k, v)
	}
	for name, value := range session.Cookies {
		req.AddCookie(&http.Cookie{Name: name, Value: value})
	}

	s.logger.DebugContext(ctx, "requesting catalog")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, apperr.SourceErr.WrapParent(fmt.Errorf("request catalog: %w", err))
	}
	defer resp.Body.Close()

	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		_, _ = io.Copy(io.Discard, resp.Body)
		if expErr := s.creds.Expire(ctx, regionCode); expErr != nil {
			s.logger.WarnContext(ctx, "error expiring credentials", slog.Any("error", expErr))
		}
		return nil, apperr.SourceErr.WrapParent(fmt.Errorf("catalog rejected credentials: status %d", resp.StatusCode))
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, apperr.SourceErr.WrapParent(fmt.Errorf("unexpected catalog status %d", resp.StatusCode))
	}

	records, err := decodeCatalog(ctx, resp.Body, s.logger)
	if err != nil {
		return nil, apperr.SourceErr.WrapParent(err)
	}

	if cookies := resp.Cookies(); len(cookies) > 0 {
		if err := s.creds.Update(ctx, regionCode, cookies); err != nil {
			s.logger.WarnContext(ctx, "error updating credentials", slog.Any("error", err))
		}
	}

	span.SetAttributes(attribute.Int("snapshot.size", len(records)))

	return records, nil
}

var _ Credentials = StaticCredentials{}

// StaticCredentials sends a fixed header and cookie set taken from configuration.
type StaticCredentials struct {
	Headers map[string]string
	Cookies map[string]string
}

func NewStaticCredentials(cfg config.Source) StaticCredentials {
	return StaticCredentials{Headers: cfg.Headers, Cookies: cfg.Cookies}
}

func (c StaticCredentials) Load(context.Context, string) (Session, error) {
	return Session{Headers: c.Headers, Cookies: c.Cookies}, nil
}

func (c StaticCredentials) Expire(context.Context, string) error { return nil }

func (c StaticCredentials) Update(context.Context, string, []*http.Cookie) error { return nil }
