// Package workers adapts the agent-refresh, technical-probe, trickplay and
// image-generation operations into jobs.Worker implementations the
// scheduler runs. TypeLibraryScan is covered by scan.Worker and
// TypeNotificationPurge by jobs.RetentionWorker; this package supplies the
// remaining four job types named in §4.E.
package workers

import (
	"context"
	"path/filepath"
	"strconv"

	"nexamediaserver/internal/apperrors"
	"nexamediaserver/internal/catalog"
	"nexamediaserver/internal/graphqlapi"
	"nexamediaserver/internal/imaging"
	"nexamediaserver/internal/jobs"
)

// MetadataRefreshWorker re-runs the agent chain over every item already
// catalogued in a section, without rescanning disk.
type MetadataRefreshWorker struct {
	Items    catalog.ItemRepository
	Resolver *graphqlapi.Resolver
}

func (w *MetadataRefreshWorker) Run(ctx context.Context, entry *jobs.Entry, reporter *jobs.Reporter) error {
	if entry.LibrarySectionID == nil {
		return apperrors.New(apperrors.InvalidArgument, "metadata refresh requires a library section")
	}
	page, err := w.Items.List(ctx, catalog.Filter{LibrarySectionID: uint64(*entry.LibrarySectionID)}, catalog.Order{}, catalog.Page{Limit: 1_000_000})
	if err != nil {
		return err
	}

	total := len(page.Items)
	for i, item := range page.Items {
		if _, err := w.Resolver.RefreshItemMetadata(ctx, item.ID, false); err != nil {
			return err
		}
		reporter.Report(ctx, i+1, total)
	}
	return nil
}

// FileAnalysisWorker re-probes every MediaPart in a section for technical
// fields (container/codec/resolution/bitrate/duration).
type FileAnalysisWorker struct {
	Items    catalog.ItemRepository
	Resolver *graphqlapi.Resolver
}

func (w *FileAnalysisWorker) Run(ctx context.Context, entry *jobs.Entry, reporter *jobs.Reporter) error {
	if entry.LibrarySectionID == nil {
		return apperrors.New(apperrors.InvalidArgument, "file analysis requires a library section")
	}
	page, err := w.Items.List(ctx, catalog.Filter{LibrarySectionID: uint64(*entry.LibrarySectionID)}, catalog.Order{}, catalog.Page{Limit: 1_000_000})
	if err != nil {
		return err
	}

	total := len(page.Items)
	for i, item := range page.Items {
		if _, err := w.Resolver.AnalyzeItem(ctx, item.ID); err != nil {
			return err
		}
		reporter.Report(ctx, i+1, total)
	}
	return nil
}

// TrickplayWorker generates a BIF trickplay file per video item in a
// section, reusing the naming convention the playback handlers expect
// (imaging_handlers.go: "<itemID>.bif"). The generator itself skips
// regenerating a BIF that already exists (TrickplayOptions.SkipExisting).
type TrickplayWorker struct {
	Items        catalog.ItemRepository
	Parts        catalog.MediaPartRepository
	Generator    *imaging.TrickplayGenerator
	TrickplayDir string
}

func (w *TrickplayWorker) Run(ctx context.Context, entry *jobs.Entry, reporter *jobs.Reporter) error {
	if entry.LibrarySectionID == nil {
		return apperrors.New(apperrors.InvalidArgument, "trickplay generation requires a library section")
	}
	page, err := w.Items.List(ctx, catalog.Filter{LibrarySectionID: uint64(*entry.LibrarySectionID)}, catalog.Order{}, catalog.Page{Limit: 1_000_000})
	if err != nil {
		return err
	}

	total := len(page.Items)
	for i, item := range page.Items {
		parts, err := w.Parts.ListByItem(ctx, item.ID)
		if err != nil {
			return err
		}
		if len(parts) == 0 {
			reporter.Report(ctx, i+1, total)
			continue
		}
		bifPath := filepath.Join(w.TrickplayDir, strconv.FormatUint(item.ID, 10)+".bif")
		if err := w.Generator.Generate(ctx, parts[0].Path, bifPath, int(item.LengthMs)); err != nil {
			return err
		}
		reporter.Report(ctx, i+1, total)
	}
	return nil
}

// ImageGenerationWorker warms the image transcode cache for every item in a
// section that carries thumb/art artwork.
type ImageGenerationWorker struct {
	Items  catalog.ItemRepository
	Cache  *imaging.Cache
	Widths []int
}

func (w *ImageGenerationWorker) Run(ctx context.Context, entry *jobs.Entry, reporter *jobs.Reporter) error {
	if entry.LibrarySectionID == nil {
		return apperrors.New(apperrors.InvalidArgument, "image generation requires a library section")
	}
	page, err := w.Items.List(ctx, catalog.Filter{LibrarySectionID: uint64(*entry.LibrarySectionID)}, catalog.Order{}, catalog.Page{Limit: 1_000_000})
	if err != nil {
		return err
	}

	total := len(page.Items)
	for i, item := range page.Items {
		for _, uri := range []string{item.ThumbURI, item.ArtURI} {
			if uri == "" {
				continue
			}
			for _, width := range w.Widths {
				if _, err := w.Cache.Get(imaging.Request{SourceURI: uri, Width: width, Quality: 85, Format: imaging.FormatJPEG}); err != nil {
					continue
				}
			}
		}
		reporter.Report(ctx, i+1, total)
	}
	return nil
}
