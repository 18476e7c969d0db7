package imaging

import (
	"io"
	"os"

	"nexamediaserver/internal/apperrors"
)

// FilesystemResolver resolves a Request's SourceURI as an absolute path on
// local disk, the production SourceResolver for a self-hosted server whose
// thumb/art artwork lives alongside the scanned libraries.
type FilesystemResolver struct{}

func NewFilesystemResolver() FilesystemResolver {
	return FilesystemResolver{}
}

func (FilesystemResolver) Resolve(sourceURI string) (io.ReadCloser, error) {
	f, err := os.Open(sourceURI)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.NotFound, err, "opening image source")
	}
	return f, nil
}
