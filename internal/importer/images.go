package importer

import (
	"bytes"
	"context"
	"os"
	"path"
	"path/filepath"
	"strings"

	"catalog-import-service/internal/models"
	"catalog-import-service/internal/schema"
	"catalog-import-service/internal/source"
)

// resolveImage tries the image strategies in priority order: embedded
// reference from the source bundle, explicit URL in the image cell, then
// bare-filename lookup among already-stored assets. Each strategy returns
// no-result instead of failing the row.
//
// The second return reports whether the row carried any image reference at
// all; the caller counts a failure only when hadRef is true and nothing
// resolved.
func (imp *Importer) resolveImage(ctx context.Context, fm *schema.FieldMap, cells []string, embedded *source.ImageRef, result *models.ImportResult) (*models.StoredFile, bool) {
	cell := fm.Cell(cells, schema.FieldImageFile)
	hadRef := embedded != nil || cell != ""
	if !hadRef {
		return nil, false
	}

	if embedded != nil {
		if file := imp.resolveEmbedded(ctx, embedded); file != nil {
			result.ImagesResolved++
			return file, true
		}
	}

	if isHTTPURL(cell) {
		if file := imp.resolveURL(ctx, cell); file != nil {
			result.ImagesResolved++
			return file, true
		}
		return nil, true
	}

	if cell != "" {
		// Bare filenames only match assets staged through the upload
		// endpoint. Local paths from a spreadsheet cell are never read.
		name := filepath.Base(strings.TrimSpace(cell))
		file, err := imp.catalog.FindFileByName(name)
		if err != nil {
			imp.logger.WithError(err).WithField("filename", name).Warn("Asset lookup failed")
			return nil, true
		}
		if file != nil {
			result.ImagesResolved++
			return file, true
		}
		imp.logger.WithField("filename", name).Warn("No stored asset matches image filename")
	}

	return nil, true
}

// resolveEmbedded reads an image the source adapter associated with the row:
// a scratch file from the extracted bundle, or a nested URL.
func (imp *Importer) resolveEmbedded(ctx context.Context, ref *source.ImageRef) *models.StoredFile {
	var data []byte
	var err error

	switch {
	case ref.Path != "":
		data, err = os.ReadFile(ref.Path)
	case ref.URL != "":
		data, err = imp.fetcher.Download(ctx, ref.URL)
	default:
		return nil
	}
	if err != nil {
		imp.logger.WithError(err).WithField("image", ref.Name).Warn("Embedded image read failed")
		return nil
	}

	return imp.importImage(data, ref.Name)
}

// resolveURL downloads an explicit http(s) image reference.
func (imp *Importer) resolveURL(ctx context.Context, rawURL string) *models.StoredFile {
	data, err := imp.fetcher.Download(ctx, rawURL)
	if err != nil {
		imp.logger.WithError(err).WithField("url", rawURL).Warn("Image download failed")
		return nil
	}

	name := path.Base(strings.SplitN(rawURL, "?", 2)[0])
	return imp.importImage(data, name)
}

// importImage stores downloaded bytes as an asset, reusing an existing asset
// with the same target filename instead of duplicating it.
func (imp *Importer) importImage(data []byte, name string) *models.StoredFile {
	if len(data) == 0 {
		return nil
	}
	name = ensureImageExtension(filepath.Base(name), data)

	existing, err := imp.catalog.FindFileByName(name)
	if err == nil && existing != nil {
		return existing
	}

	file, err := imp.catalog.ImportFile(data, name)
	if err != nil {
		imp.logger.WithError(err).WithField("filename", name).Warn("Asset import failed")
		return nil
	}
	return file
}

// ensureImageExtension keeps a recognized suffix, otherwise infers one from
// the content's magic bytes, defaulting to jpg.
func ensureImageExtension(name string, data []byte) string {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".jpg", ".jpeg", ".png", ".gif", ".webp":
		return name
	}
	return strings.TrimSuffix(name, filepath.Ext(name)) + sniffImageExtension(data)
}

func sniffImageExtension(data []byte) string {
	switch {
	case bytes.HasPrefix(data, []byte{0x89, 'P', 'N', 'G'}):
		return ".png"
	case bytes.HasPrefix(data, []byte("GIF87a")) || bytes.HasPrefix(data, []byte("GIF89a")):
		return ".gif"
	case len(data) >= 12 && bytes.Equal(data[0:4], []byte("RIFF")) && bytes.Equal(data[8:12], []byte("WEBP")):
		return ".webp"
	default:
		// JPEG (FF D8 FF) and anything unrecognized
		return ".jpg"
	}
}

func isHTTPURL(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}
