package httpapi

import (
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"

	"github.com/gin-gonic/gin"

	"nexamediaserver/internal/apperrors"
	"nexamediaserver/internal/imaging"
)

// fileSourceResolver resolves an imaging.Request's SourceURI directly off
// disk, the simplest SourceResolver for thumb/art paths already materialized
// by the scan pipeline under the library root.
type fileSourceResolver struct{}

func (fileSourceResolver) Resolve(sourceURI string) (io.ReadCloser, error) {
	f, err := os.Open(sourceURI)
	if err != nil {
		return nil, err
	}
	return f, nil
}

// registerImagingRoutes wires the image transcode and trickplay BIF
// endpoints from §4.H and §6.
func registerImagingRoutes(rg *gin.RouterGroup, cache *imaging.Cache, trickplayDir string) {
	rg.GET("/images/transcode", func(c *gin.Context) {
		uri := c.Query("uri")
		if uri == "" {
			respondError(c, apperrors.New(apperrors.InvalidArgument, "uri is required"))
			return
		}

		req := imaging.Request{
			SourceURI: uri,
			Width:     queryInt(c, "width"),
			Height:    queryInt(c, "height"),
			Quality:   queryInt(c, "quality"),
			Format:    imaging.Format(c.DefaultQuery("format", string(imaging.FormatJPEG))),
		}

		data, err := cache.Get(req)
		if err != nil {
			respondError(c, err)
			return
		}
		c.Data(http.StatusOK, contentTypeForFormat(req.Format), data)
	})

	rg.GET("/images/trickplay/:item/bif", func(c *gin.Context) {
		itemID, err := parseUintParam(c, "item")
		if err != nil {
			respondError(c, err)
			return
		}
		path := filepath.Join(trickplayDir, strconv.FormatUint(itemID, 10)+".bif")
		data, err := os.ReadFile(path)
		if err != nil {
			respondError(c, apperrors.Wrap(apperrors.NotFound, err, "trickplay not generated"))
			return
		}
		c.Data(http.StatusOK, "application/octet-stream", data)
	})
}

func queryInt(c *gin.Context, key string) int {
	v, err := strconv.Atoi(c.Query(key))
	if err != nil {
		return 0
	}
	return v
}

func contentTypeForFormat(f imaging.Format) string {
	switch f {
	case imaging.FormatPNG:
		return "image/png"
	default:
		return "image/jpeg"
	}
}
