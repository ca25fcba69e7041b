// Package registry is a read-only metadata client for Python package
// indexes. It speaks the PyPI JSON API of whatever [[source]] a manifest
// declares, honoring the source's verify_ssl setting, with response
// caching and retry on transient failures. It looks up metadata only; it
// never resolves dependency graphs or installs anything.
package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/umarmnaq/pipenv/pkg/cache"
	"github.com/umarmnaq/pipenv/pkg/errors"
	"github.com/umarmnaq/pipenv/pkg/httputil"
	"github.com/umarmnaq/pipenv/pkg/pep440"
	"github.com/umarmnaq/pipenv/pkg/pep508"
	"github.com/umarmnaq/pipenv/pkg/pipfile"
)

// DefaultTTL is how long index responses stay cached.
const DefaultTTL = time.Hour

// PackageInfo holds metadata for one package as reported by the index.
//
// Names are normalized following PEP 503. Releases lists every published
// version string, unparsed; callers filter with pep440.
type PackageInfo struct {
	Name     string   `json:"name"`
	Version  string   `json:"version"` // latest version per the index
	Summary  string   `json:"summary,omitempty"`
	HomePage string   `json:"home_page,omitempty"`
	Releases []string `json:"releases"`
	Yanked   []string `json:"yanked,omitempty"` // versions the index has yanked
}

// Client fetches package metadata from a single index source.
// All methods are safe for concurrent use.
type Client struct {
	http      *http.Client
	cache     cache.Cache
	ttl       time.Duration
	baseURL   string
	simpleURL string
	source    string // source name, used in cache keys
}

// New creates a client for one manifest source. Pass a NullCache to
// disable caching.
func New(src pipfile.Source, backend cache.Cache, ttl time.Duration) *Client {
	if backend == nil {
		backend = cache.NewNullCache()
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Client{
		http:      httputil.ClientFor(src.VerifySSL),
		cache:     backend,
		ttl:       ttl,
		baseURL:   jsonAPIBase(src.URL),
		simpleURL: strings.TrimRight(src.URL, "/"),
		source:    src.Name,
	}
}

// jsonAPIBase maps a simple-index URL to its JSON API root. pypi.org's
// simple index lives at /simple and its JSON API at /pypi; other index
// servers (devpi, Artifactory) follow the same convention.
func jsonAPIBase(url string) string {
	url = strings.TrimRight(url, "/")
	if base, ok := strings.CutSuffix(url, "/simple"); ok {
		return base + "/pypi"
	}
	return url
}

// FetchPackage retrieves metadata for a package from the index.
// The name is normalized automatically. If refresh is true the cache is
// bypassed and a fresh request is made.
func (c *Client) FetchPackage(ctx context.Context, name string, refresh bool) (*PackageInfo, error) {
	name = pep508.NormalizeName(name)
	if name == "" {
		return nil, errors.New(errors.ErrCodeInvalidPackage, "empty package name")
	}
	key := cache.Key("registry", c.source, c.baseURL, name)

	if !refresh {
		if data, err := c.cache.Get(ctx, key); err == nil {
			var info PackageInfo
			if err := json.Unmarshal(data, &info); err == nil {
				return &info, nil
			}
		}
	}

	var info *PackageInfo
	err := httputil.RetryWithBackoff(ctx, func() error {
		var err error
		info, err = c.fetch(ctx, name)
		return err
	})
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(info); err == nil {
		_ = c.cache.Set(ctx, key, data, c.ttl)
	}
	return info, nil
}

func (c *Client) fetch(ctx context.Context, name string) (*PackageInfo, error) {
	url := fmt.Sprintf("%s/%s/json", c.baseURL, name)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &httputil.RetryableError{
			Err: errors.Wrap(errors.ErrCodeNetwork, err, "fetching %s", url),
		}
	}
	defer resp.Body.Close()

	if err := checkStatus(resp.StatusCode, name); err != nil {
		return nil, err
	}

	var data apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, errors.Wrap(errors.ErrCodeNetwork, err, "decoding response for %s", name)
	}
	return data.packageInfo(), nil
}

func checkStatus(code int, name string) error {
	switch {
	case code == http.StatusOK:
		return nil
	case code == http.StatusNotFound:
		return errors.New(errors.ErrCodePackageNotFound, "package %q not found on index", name)
	case code == http.StatusTooManyRequests:
		return &httputil.RetryableError{
			Err: errors.New(errors.ErrCodeRateLimited, "index rate limited the request"),
		}
	case code >= 500:
		return &httputil.RetryableError{
			Err: errors.New(errors.ErrCodeNetwork, "index returned status %d", code),
		}
	default:
		return errors.New(errors.ErrCodeNetwork, "index returned status %d", code)
	}
}

// GetText fetches a non-JSON resource from the index, such as a simple
// index page.
func (c *Client) GetText(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeNetwork, err, "fetching %s", url)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", errors.New(errors.ErrCodeNetwork, "index returned status %d", resp.StatusCode)
	}
	data, err := io.ReadAll(resp.Body)
	return string(data), err
}

// Ping reports whether the index is reachable by fetching its simple
// index page.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.GetText(ctx, c.simpleURL+"/")
	return err
}

// IsNotFound reports whether err means the package does not exist.
func IsNotFound(err error) bool {
	return errors.GetCode(err) == errors.ErrCodePackageNotFound
}

// LatestMatching returns the newest release admitted by the specifier
// set. Prereleases are excluded unless prereleases is true or the set
// itself mentions one. Yanked and unparsable version strings are skipped.
// Returns nil if no release matches.
func LatestMatching(info *PackageInfo, specs pep440.SpecifierSet, prereleases bool) *pep440.Version {
	yanked := make(map[string]bool, len(info.Yanked))
	for _, v := range info.Yanked {
		yanked[v] = true
	}

	var versions []*pep440.Version
	for _, raw := range info.Releases {
		if yanked[raw] {
			continue
		}
		v, err := pep440.Parse(raw)
		if err != nil {
			continue
		}
		if !specs.Match(v, prereleases) {
			continue
		}
		versions = append(versions, v)
	}
	if len(versions) == 0 {
		return nil
	}
	sort.Slice(versions, func(i, j int) bool { return versions[i].Less(versions[j]) })
	return versions[len(versions)-1]
}

type apiResponse struct {
	Info struct {
		Name     string `json:"name"`
		Version  string `json:"version"`
		Summary  string `json:"summary"`
		HomePage string `json:"home_page"`
	} `json:"info"`
	Releases map[string][]struct {
		Yanked bool `json:"yanked"`
	} `json:"releases"`
}

func (r *apiResponse) packageInfo() *PackageInfo {
	info := &PackageInfo{
		Name:     pep508.NormalizeName(r.Info.Name),
		Version:  r.Info.Version,
		Summary:  r.Info.Summary,
		HomePage: r.Info.HomePage,
	}
	for version, files := range r.Releases {
		info.Releases = append(info.Releases, version)
		if len(files) > 0 {
			allYanked := true
			for _, f := range files {
				if !f.Yanked {
					allYanked = false
					break
				}
			}
			if allYanked {
				info.Yanked = append(info.Yanked, version)
			}
		}
	}
	sort.Strings(info.Releases)
	sort.Strings(info.Yanked)
	return info
}
