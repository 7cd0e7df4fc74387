package studio

import (
	"encoding/base64"
	"fmt"
	"mime"
	"net/http"
	"strings"

	"github.com/BaSui01/podstudio/types"
)

// maxImagesPerCall is Imagen's per-request sample limit.
const maxImagesPerCall = 4

func invalidParams(format string, args ...any) *types.Error {
	return types.NewError(types.ErrInvalidRequest, fmt.Sprintf(format, args...)).
		WithHTTPStatus(http.StatusBadRequest)
}

func requireText(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return invalidParams("%s is required", field)
	}
	return nil
}

// validateMIMEType only requires a well-formed image/* type. Which image
// formats are usable is left to the provider.
func validateMIMEType(field, mimeType string) error {
	mediaType, _, err := mime.ParseMediaType(mimeType)
	if err != nil || !strings.HasPrefix(mediaType, "image/") || mediaType == "image/" {
		return invalidParams("%s %q is not an image type", field, mimeType)
	}
	return nil
}

func validateBase64(field, data string) error {
	if data == "" {
		return invalidParams("%s is required", field)
	}
	if _, err := base64.StdEncoding.DecodeString(data); err != nil {
		return invalidParams("%s is not valid base64", field)
	}
	return nil
}
