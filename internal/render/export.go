package render

import (
	"bytes"
	"dtr-image/internal/dtr"
	"fmt"
	"image/jpeg"

	"github.com/fogleman/gg"
)

// BaseFilename is the download name without extension.
const BaseFilename = "DTR_image"

// Artifact is one encoded copy of the rendered image, ready to be served.
type Artifact struct {
	Format   string
	Filename string
	MIMEType string
	Data     []byte
}

// Extension returns the file extension used for format, including the dot.
func Extension(format string) string {
	if format == dtr.FormatJPEG {
		return ".jpg"
	}
	return ".png"
}

// MIMEType returns the content type served for format.
func MIMEType(format string) string {
	if format == dtr.FormatJPEG {
		return "image/jpeg"
	}
	return "image/png"
}

// Export encodes the context's image once per requested format, in order.
// Encoder defaults apply; no quality options are exposed.
func Export(dc *gg.Context, formats []string) ([]Artifact, error) {
	artifacts := make([]Artifact, 0, len(formats))
	for _, raw := range formats {
		format, ok := dtr.NormalizeFormat(raw)
		if !ok {
			return nil, fmt.Errorf("unsupported export format %q", raw)
		}

		var buf bytes.Buffer
		var err error
		switch format {
		case dtr.FormatPNG:
			err = dc.EncodePNG(&buf)
		case dtr.FormatJPEG:
			err = jpeg.Encode(&buf, dc.Image(), nil)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to encode %s: %w", format, err)
		}

		artifacts = append(artifacts, Artifact{
			Format:   format,
			Filename: BaseFilename + Extension(format),
			MIMEType: MIMEType(format),
			Data:     buf.Bytes(),
		})
	}
	return artifacts, nil
}
