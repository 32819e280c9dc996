package gservice

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog/log"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
)

const (
	driveFileFields = "id,name,mimeType,size,modifiedTime,webViewLink"
	drivePageSize   = 10

	// MaxDownloadBytes caps file bodies read into memory.
	MaxDownloadBytes = 10 << 20
)

func NewDrive(g *Google) *Drive {
	return &Drive{g: g}
}

type Drive struct {
	g *Google
}

// SearchFiles runs every query strategy from DriveQueries and merges the
// files, deduplicated by id in discovery order. An empty query lists the
// most recently modified files. Individual strategies may fail; the first
// error is returned only when none succeeded.
func (d *Drive) SearchFiles(ctx context.Context, query string) ([]*drive.File, error) {
	svc, err := d.newSvc(ctx)
	if err != nil {
		return nil, fmt.Errorf("newSvc failed: %w", err)
	}

	queries := DriveQueries(query)
	if len(queries) == 0 {
		res, err := svc.Files.List().
			Fields(googleapi.Field("files(" + driveFileFields + ")")).
			PageSize(drivePageSize).
			OrderBy("modifiedTime desc").
			Context(ctx).
			Do()
		if err != nil {
			return nil, fmt.Errorf("files.List failed: %w", err)
		}
		return res.Files, nil
	}

	var (
		files    []*drive.File
		seen     = make(map[string]struct{})
		firstErr error
		ok       int
	)

	for _, q := range queries {
		res, err := svc.Files.List().
			Q(q).
			Fields(googleapi.Field("files(" + driveFileFields + ")")).
			PageSize(drivePageSize).
			Context(ctx).
			Do()
		if err != nil {
			log.Debug().Str("q", q).Err(err).Msg("drive query failed")
			if firstErr == nil {
				firstErr = err
			}
			if ctx.Err() != nil {
				break
			}
			continue
		}
		ok++

		for _, f := range res.Files {
			if _, dup := seen[f.Id]; dup {
				continue
			}
			seen[f.Id] = struct{}{}
			files = append(files, f)
		}
	}

	if ok == 0 && firstErr != nil {
		return nil, fmt.Errorf("files.List failed: %w", firstErr)
	}

	return files, nil
}

func (d *Drive) GetFile(ctx context.Context, fileID string) (*drive.File, error) {
	svc, err := d.newSvc(ctx)
	if err != nil {
		return nil, fmt.Errorf("newSvc failed: %w", err)
	}

	f, err := svc.Files.Get(fileID).Fields(googleapi.Field(driveFileFields)).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("files.Get failed: %w", err)
	}

	return f, nil
}

// Download reads the raw file body.
func (d *Drive) Download(ctx context.Context, fileID string) ([]byte, error) {
	svc, err := d.newSvc(ctx)
	if err != nil {
		return nil, fmt.Errorf("newSvc failed: %w", err)
	}

	resp, err := svc.Files.Get(fileID).Context(ctx).Download()
	if err != nil {
		return nil, fmt.Errorf("files.Get.Download failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	b, err := io.ReadAll(io.LimitReader(resp.Body, MaxDownloadBytes))
	if err != nil {
		return nil, fmt.Errorf("io.ReadAll failed: %w", err)
	}

	return b, nil
}

// Export converts a Google Workspace file to mimeType.
func (d *Drive) Export(ctx context.Context, fileID, mimeType string) ([]byte, error) {
	svc, err := d.newSvc(ctx)
	if err != nil {
		return nil, fmt.Errorf("newSvc failed: %w", err)
	}

	resp, err := svc.Files.Export(fileID, mimeType).Context(ctx).Download()
	if err != nil {
		return nil, fmt.Errorf("files.Export failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	b, err := io.ReadAll(io.LimitReader(resp.Body, MaxDownloadBytes))
	if err != nil {
		return nil, fmt.Errorf("io.ReadAll failed: %w", err)
	}

	return b, nil
}

func (d *Drive) newSvc(ctx context.Context) (*drive.Service, error) {
	opts, err := d.g.clientOptions(ctx)
	if err != nil {
		return nil, err
	}

	svc, err := drive.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("drive.NewService failed: %w", err)
	}

	return svc, nil
}

// DriveQueries expands a free-text file query into Drive `q` expressions:
// name contains, exact name, lower and upper case, full text, then the
// underscore, hyphen and no-space variants for multi-word queries, then one
// name match per word longer than two characters. Duplicates are dropped.
func DriveQueries(query string) []string {
	clean := strings.Trim(strings.TrimSpace(query), `"'`)
	if clean == "" {
		return nil
	}

	var out []string
	seen := make(map[string]struct{})
	add := func(q string) {
		if _, ok := seen[q]; ok {
			return
		}
		seen[q] = struct{}{}
		out = append(out, q)
	}

	add(nameContains(clean))
	add("name = " + quoteQ(clean))
	add(nameContains(strings.ToLower(clean)))
	add(nameContains(strings.ToUpper(clean)))
	add("fullText contains " + quoteQ(clean))

	if strings.Contains(clean, " ") {
		add(nameContains(strings.ReplaceAll(clean, " ", "_")))
		add(nameContains(strings.ReplaceAll(clean, " ", "-")))
		add(nameContains(strings.ReplaceAll(clean, " ", "")))
	}

	if words := strings.Fields(clean); len(words) > 1 {
		for _, w := range words {
			if len(w) > 2 {
				add(nameContains(w))
			}
		}
	}

	return out
}

func nameContains(s string) string {
	return "name contains " + quoteQ(s)
}

func quoteQ(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `'`, `\'`)
	return "'" + s + "'"
}
