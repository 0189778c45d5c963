package importer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/cenkalti/backoff/v4"
	"golang.org/x/sync/errgroup"

	"github.com/ougirez/premiums/internal/domain"
	"github.com/ougirez/premiums/internal/domain/dto"
	"github.com/ougirez/premiums/internal/etl"
	"github.com/ougirez/premiums/internal/metrics"
	"github.com/ougirez/premiums/internal/normalize"
	"github.com/ougirez/premiums/internal/pkg/logger"
)

const (
	userAgent        = "SwissHealth-API/1.0"
	downloadParallel = 3
	downloadRetries  = 3
	firstYear        = 2011
)

const assetURL = "https://dam-api.bfs.admin.ch/hub/api/dam/assets/%d/master"

// yearly archives published by the FOPH, used when discovery finds nothing
var archiveAssets = map[int]int{
	2011: 145323,
	2012: 189078,
	2013: 235673,
	2014: 275414,
	2015: 39795,
	2016: 1181966,
	2017: 3522270,
	2018: 6126300,
	2019: 9906083,
	2020: 14389100,
	2021: 19364433,
	2022: 23469383,
	2023: 27485478,
	2024: 30907244,
	2025: 33585696,
}

var yearPattern = regexp.MustCompile(`\b(20[1-9]\d)\b`)

type Store interface {
	Migrate(ctx context.Context) error
	UpsertInsurers(ctx context.Context, insurers []domain.Insurer) error
	UpsertPremiums(ctx context.Context, premiums []domain.Premium) (int64, error)
}

type Service struct {
	store      Store
	client     *http.Client
	datasetURL string
	workDir    string
	retryDelay time.Duration
}

func NewImporterService(store Store, datasetURL, workDir string) *Service {
	return &Service{
		store:      store,
		client:     &http.Client{Timeout: 5 * time.Minute},
		datasetURL: datasetURL,
		workDir:    workDir,
		retryDelay: 2 * time.Second,
	}
}

// StaticArchives returns the built-in archive table.
func StaticArchives() map[int]string {
	archives := make(map[int]string, len(archiveAssets))
	for year, id := range archiveAssets {
		archives[year] = fmt.Sprintf(assetURL, id)
	}
	return archives
}

// Years lists the years of an archive table in ascending order.
func Years(archives map[int]string) []int {
	years := make([]int, 0, len(archives))
	for year := range archives {
		years = append(years, year)
	}
	sort.Ints(years)
	return years
}

// Discover collects archive links from the dataset page. Links found there override
// the static table; a page that cannot be read leaves the static table as is.
func (s *Service) Discover(ctx context.Context) map[int]string {
	archives := StaticArchives()

	found, err := s.scrapeDataset(ctx)
	if err != nil {
		logger.Warnf(ctx, "dataset discovery failed, using static archive table: %v", err)
		return archives
	}
	for year, link := range found {
		archives[year] = link
	}
	logger.Infof(ctx, "discovered %d archive links on %s", len(found), s.datasetURL)

	return archives
}

func (s *Service) scrapeDataset(ctx context.Context) (map[int]string, error) {
	if s.datasetURL == "" {
		return nil, errors.New("dataset url is not configured")
	}

	resp, err := s.get(ctx, s.datasetURL)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("goquery.NewDocumentFromReader: %w", err)
	}

	found := make(map[int]string)
	doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		if !isArchiveLink(href) {
			return
		}

		year, ok := linkYear(a)
		if !ok {
			return
		}
		if _, seen := found[year]; !seen {
			found[year] = resolve(resp.Request, href)
		}
	})

	return found, nil
}

func isArchiveLink(href string) bool {
	lower := strings.ToLower(href)
	return strings.Contains(lower, "/assets/") || strings.HasSuffix(lower, ".zip")
}

// linkYear reads the year from the link itself, then from its resource entry.
func linkYear(a *goquery.Selection) (int, bool) {
	title, _ := a.Attr("title")
	candidates := []string{a.Text(), title, a.Closest("li").Text()}

	for _, text := range candidates {
		if m := yearPattern.FindString(text); m != "" {
			year, _ := strconv.Atoi(m)
			if year >= firstYear {
				return year, true
			}
		}
	}
	return 0, false
}

func resolve(req *http.Request, href string) string {
	if req == nil {
		return href
	}
	u, err := req.URL.Parse(href)
	if err != nil {
		return href
	}
	return u.String()
}

// ArchivePath is where the archive of a year is kept in the work dir.
func (s *Service) ArchivePath(year int) string {
	return filepath.Join(s.workDir, fmt.Sprintf("Archiv_Praemien_%d.zip", year))
}

// DataDir holds the transformed yearly JSON files.
func (s *Service) DataDir() string {
	return filepath.Join(s.workDir, "processed")
}

// Download fetches the archives of the given years. Archives already in the work dir
// are kept. The returned map holds the archive path per downloaded or cached year.
func (s *Service) Download(ctx context.Context, archives map[int]string, years []int) (map[int]string, error) {
	defer metrics.RecordImportStage("download", time.Now())

	if err := os.MkdirAll(s.workDir, 0o755); err != nil {
		return nil, fmt.Errorf("mkdir %s: %w", s.workDir, err)
	}

	for _, year := range years {
		if _, ok := archives[year]; !ok {
			return nil, fmt.Errorf("no archive known for %d", year)
		}
	}

	paths := make(map[int]string, len(years))
	pathsMx := sync.Mutex{}

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(downloadParallel)
	for _, year := range years {
		link := archives[year]
		eg.Go(func() error {
			path := s.ArchivePath(year)
			if _, err := os.Stat(path); err == nil {
				logger.Infof(egCtx, "archive %d already downloaded", year)
			} else if err := s.download(egCtx, link, path); err != nil {
				return fmt.Errorf("download %d: %w", year, err)
			} else {
				logger.Infof(egCtx, "downloaded archive %d", year)
			}

			pathsMx.Lock()
			defer pathsMx.Unlock()
			paths[year] = path
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return paths, err
	}
	return paths, nil
}

func (s *Service) download(ctx context.Context, link, path string) (err error) {
	var resp *http.Response
	err = backoff.Retry(
		func() error {
			var httpErr error
			resp, httpErr = s.get(ctx, link)
			if httpErr != nil && resp != nil && resp.StatusCode == http.StatusNotFound {
				return backoff.Permanent(httpErr)
			}
			return httpErr
		},
		backoff.WithContext(
			backoff.WithMaxRetries(backoff.NewConstantBackOff(s.retryDelay), downloadRetries),
			ctx,
		),
	)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	tmp := path + ".part"
	out, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("create %s: %w", tmp, err)
	}
	if _, err := io.Copy(out, resp.Body); err != nil {
		out.Close()
		os.Remove(tmp)
		return fmt.Errorf("write %s: %w", tmp, err)
	}
	if err := out.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("close %s: %w", tmp, err)
	}

	return os.Rename(tmp, path)
}

// get returns the response for non-200 statuses too, with the body closed, so that
// callers can inspect the status.
func (s *Service) get(ctx context.Context, link string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, link, nil)
	if err != nil {
		return nil, fmt.Errorf("http.NewRequest: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http.Get: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return resp, fmt.Errorf("status code error: %d %s", resp.StatusCode, resp.Status)
	}
	return resp, nil
}

// Transform reads the downloaded archive of a year and writes the normalised
// premiums to the data dir.
func (s *Service) Transform(ctx context.Context, year int) (etl.Result, error) {
	defer metrics.RecordImportStage("transform", time.Now())

	name, rows, err := etl.ReadArchive(s.ArchivePath(year))
	if err != nil {
		return etl.Result{Year: year}, err
	}

	res := etl.Transform(year, rows)
	metrics.RecordImportRows(year, "valid", len(res.Premiums))
	metrics.RecordImportRows(year, "invalid", res.Invalid)
	metrics.RecordImportRows(year, "duplicate", res.Duplicates)
	if res.UnknownCodes > 0 {
		logger.Warnf(ctx, "%d: %d rows with unknown codes mapped to defaults", year, res.UnknownCodes)
	}

	out, err := etl.WriteYear(s.DataDir(), year, res.Premiums)
	if err != nil {
		return res, err
	}
	logger.Infof(ctx, "%d: %s -> %s (%d valid, %d invalid, %d duplicates)",
		year, name, out, len(res.Premiums), res.Invalid, res.Duplicates)

	return res, nil
}

// Load upserts the transformed premiums of a year.
func (s *Service) Load(ctx context.Context, year int) (int64, error) {
	defer metrics.RecordImportStage("upsert", time.Now())

	premiums, err := etl.ReadYear(s.DataDir(), year)
	if err != nil {
		return 0, fmt.Errorf("read transformed %d: %w", year, err)
	}

	n, err := s.store.UpsertPremiums(ctx, premiums)
	if err != nil {
		return n, err
	}
	metrics.RecordImportRows(year, "upserted", int(n))
	logger.Infof(ctx, "%d: upserted %d premiums", year, n)

	return n, nil
}

// Migrate applies the schema and seeds the insurer table from the built-in names.
func (s *Service) Migrate(ctx context.Context) error {
	if err := s.store.Migrate(ctx); err != nil {
		return err
	}

	ids := normalize.InsurerIDs()
	insurers := make([]domain.Insurer, 0, len(ids))
	for _, id := range ids {
		name, _ := normalize.KnownInsurerName(id)
		insurers = append(insurers, domain.Insurer{InsurerID: id, Name: &name, IsActive: true})
	}
	if err := s.store.UpsertInsurers(ctx, insurers); err != nil {
		return err
	}

	logger.Infof(ctx, "schema migrated, %d insurers seeded", len(insurers))
	return nil
}

// Run executes discovery, download, transform and load for the requested years, all
// known years when none are given. A failing year is reported and does not stop the
// others.
func (s *Service) Run(ctx context.Context, req dto.ImportRequest) (*dto.ImportResponse, error) {
	if req.Migrate {
		if err := s.Migrate(ctx); err != nil {
			return nil, err
		}
	}

	archives := s.Discover(ctx)
	years := req.Years
	if len(years) == 0 {
		years = Years(archives)
	}

	resp := &dto.ImportResponse{Success: true, Years: make([]dto.ImportYearStat, 0, len(years))}
	for _, year := range years {
		stat := s.runYear(ctx, archives, year)
		if stat.Error != "" {
			resp.Success = false
		}
		resp.Years = append(resp.Years, stat)
	}

	return resp, nil
}

func (s *Service) runYear(ctx context.Context, archives map[int]string, year int) dto.ImportYearStat {
	stat := dto.ImportYearStat{Year: year}

	if _, err := s.Download(ctx, archives, []int{year}); err != nil {
		logger.Errorf(ctx, "import %d: %v", year, err)
		stat.Error = err.Error()
		return stat
	}

	res, err := s.Transform(ctx, year)
	stat.Valid, stat.Invalid, stat.Duplicates = len(res.Premiums), res.Invalid, res.Duplicates
	if err != nil {
		logger.Errorf(ctx, "import %d: %v", year, err)
		stat.Error = err.Error()
		return stat
	}

	if stat.Upserted, err = s.Load(ctx, year); err != nil {
		logger.Errorf(ctx, "import %d: %v", year, err)
		stat.Error = err.Error()
	}
	return stat
}
