// Package ncei locates and downloads the newest climdiv state files from the
// NCEI public directory listing.
package ncei

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/couchcryptid/wildfire-climate-etl/internal/domain"
)

// DefaultBaseURL is the climdiv directory listing.
const DefaultBaseURL = "https://www.ncei.noaa.gov/pub/data/cirs/climdiv/"

// climdivName matches state-level files such as climdiv-tmpcst-v1.0.0-20230106.
var climdivName = regexp.MustCompile(`^climdiv-(tmpcst|pcpnst|pdsist)-v(\d+\.\d+\.\d+)-(\d{8})$`)

const fileDateLayout = "20060102"

var elements = map[string]domain.Variable{
	"tmpcst": domain.Temperature,
	"pcpnst": domain.Precipitation,
	"pdsist": domain.DroughtIndex,
}

// File is one climdiv file advertised by the listing.
type File struct {
	Name     string
	Variable domain.Variable
	Version  string
	Date     time.Time
	URL      string
}

// Fetcher reads the listing and downloads files from it.
type Fetcher struct {
	baseURL string
	client  *http.Client
	logger  *slog.Logger
}

// NewFetcher creates a Fetcher for the listing at baseURL. A nil client gets
// a 60s timeout.
func NewFetcher(baseURL string, client *http.Client, logger *slog.Logger) *Fetcher {
	if client == nil {
		client = &http.Client{Timeout: 60 * time.Second}
	}
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	return &Fetcher{baseURL: baseURL, client: client, logger: logger}
}

// Latest returns the newest file per variable. Every variable must be present.
func (f *Fetcher) Latest(ctx context.Context) (map[domain.Variable]File, error) {
	body, err := f.get(ctx, f.baseURL)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	files, err := ParseListing(body, f.baseURL)
	if err != nil {
		return nil, err
	}

	latest := make(map[domain.Variable]File, len(elements))
	for _, file := range files {
		cur, ok := latest[file.Variable]
		if !ok || file.Date.After(cur.Date) || (file.Date.Equal(cur.Date) && file.Name > cur.Name) {
			latest[file.Variable] = file
		}
	}
	for _, v := range domain.Variables {
		if _, ok := latest[v]; !ok {
			return nil, fmt.Errorf("no %s file in listing %s", v, f.baseURL)
		}
	}
	return latest, nil
}

// ParseListing extracts climdiv state files from an HTML directory listing.
// Links are resolved against base.
func ParseListing(r io.Reader, base string) ([]File, error) {
	baseURL, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("parse base url %s: %w", base, err)
	}
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parse listing: %w", err)
	}

	var files []File
	doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		name := path.Base(strings.TrimSpace(href))
		m := climdivName.FindStringSubmatch(name)
		if m == nil {
			return
		}
		date, err := time.Parse(fileDateLayout, m[3])
		if err != nil {
			return
		}
		ref, err := url.Parse(href)
		if err != nil {
			return
		}
		files = append(files, File{
			Name:     name,
			Variable: elements[m[1]],
			Version:  m[2],
			Date:     date,
			URL:      baseURL.ResolveReference(ref).String(),
		})
	})
	return files, nil
}

// Download saves file into dir under its listed name and returns the path.
// The file appears only once fully written.
func (f *Fetcher) Download(ctx context.Context, file File, dir string) (string, error) {
	body, err := f.get(ctx, file.URL)
	if err != nil {
		return "", err
	}
	defer body.Close()

	dest := filepath.Join(dir, file.Name+".txt")
	tmp, err := os.CreateTemp(dir, "."+file.Name+"-*")
	if err != nil {
		return "", fmt.Errorf("create temp file for %s: %w", file.Name, err)
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck // no-op after a successful rename

	n, err := io.Copy(tmp, body)
	if err != nil {
		tmp.Close()
		return "", fmt.Errorf("download %s: %w", file.URL, err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("close %s: %w", tmp.Name(), err)
	}
	if err := os.Rename(tmp.Name(), dest); err != nil {
		return "", fmt.Errorf("rename to %s: %w", dest, err)
	}

	f.logger.Info("climdiv file downloaded", "variable", string(file.Variable), "path", dest, "bytes", n)
	return dest, nil
}

func (f *Fetcher) get(ctx context.Context, rawURL string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request for %s: %w", rawURL, err)
	}
	res, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", rawURL, err)
	}
	if res.StatusCode != http.StatusOK {
		res.Body.Close()
		return nil, fmt.Errorf("get %s: status code %d", rawURL, res.StatusCode)
	}
	return res.Body, nil
}
