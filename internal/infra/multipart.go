package infra

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/textproto"

	"voice-cart/internal/domain"
)

// CreateAudioPart adds a form file named after the clip's container, so the
// receiving service decodes it with the right codec.
func CreateAudioPart(w *multipart.Writer, field string, container domain.Container) (io.Writer, error) {
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, field, "audio"+container.Ext()))
	h.Set("Content-Type", container.MIMEType())
	return w.CreatePart(h)
}
