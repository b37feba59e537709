// Package fetcher downloads remote archives over HTTP or FTP and reads the
// delimited text files inside them.
package fetcher

import (
	"context"
	"io"
	"net/url"

	"github.com/rotisserie/eris"
)

// Fetcher defines the interface for downloading remote data.
type Fetcher interface {
	// Download fetches the URL and returns the response body.
	Download(ctx context.Context, url string) (io.ReadCloser, error)
}

// SchemeFetcher routes downloads to an HTTP or FTP fetcher based on the URL scheme.
type SchemeFetcher struct {
	HTTP Fetcher
	FTP  Fetcher
}

// New builds a SchemeFetcher backed by an HTTPFetcher and an FTPFetcher.
func New(httpOpts HTTPOptions, ftpOpts FTPOptions) *SchemeFetcher {
	return &SchemeFetcher{
		HTTP: NewHTTPFetcher(httpOpts),
		FTP:  NewFTPFetcher(ftpOpts),
	}
}

// Download implements Fetcher.
func (s *SchemeFetcher) Download(ctx context.Context, rawURL string) (io.ReadCloser, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, eris.Wrapf(err, "parse url %q", rawURL)
	}
	switch u.Scheme {
	case "http", "https":
		return s.HTTP.Download(ctx, rawURL)
	case "ftp":
		return s.FTP.Download(ctx, rawURL)
	default:
		return nil, eris.Errorf("unsupported url scheme %q", u.Scheme)
	}
}

// DownloadBytes fetches the URL and reads the whole body into memory.
func DownloadBytes(ctx context.Context, f Fetcher, rawURL string) ([]byte, error) {
	body, err := f.Download(ctx, rawURL)
	if err != nil {
		return nil, err
	}
	defer body.Close() //nolint:errcheck

	data, err := io.ReadAll(body)
	if err != nil {
		return nil, eris.Wrap(err, "read body")
	}
	return data, nil
}
