package console

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/medbook/console/internal/platform/apiclient"
)

// maxUploadSize caps a single uploaded file read into memory.
const maxUploadSize = 10 << 20

// formFile reads the named multipart file of the request.
func formFile(c echo.Context, field string) (apiclient.File, error) {
	fh, err := c.FormFile(field)
	if err != nil {
		return apiclient.File{}, echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("%s file is required", field))
	}
	return readFile(field, fh)
}

// formFiles reads every file posted under field. None is not an error.
func formFiles(c echo.Context, field string) ([]apiclient.File, error) {
	form, err := c.MultipartForm()
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "invalid multipart form")
	}
	headers := form.File[field]
	files := make([]apiclient.File, 0, len(headers))
	for _, fh := range headers {
		f, err := readFile(field, fh)
		if err != nil {
			return nil, err
		}
		files = append(files, f)
	}
	return files, nil
}

func readFile(field string, fh *multipart.FileHeader) (apiclient.File, error) {
	if fh.Size > maxUploadSize {
		return apiclient.File{}, echo.NewHTTPError(http.StatusRequestEntityTooLarge, fmt.Sprintf("%s exceeds %d MB", fh.Filename, maxUploadSize>>20))
	}
	src, err := fh.Open()
	if err != nil {
		return apiclient.File{}, echo.NewHTTPError(http.StatusBadRequest, "unreadable upload")
	}
	defer src.Close()

	data, err := io.ReadAll(io.LimitReader(src, maxUploadSize+1))
	if err != nil {
		return apiclient.File{}, echo.NewHTTPError(http.StatusBadRequest, "unreadable upload")
	}
	if len(data) > maxUploadSize {
		return apiclient.File{}, echo.NewHTTPError(http.StatusRequestEntityTooLarge, fmt.Sprintf("%s exceeds %d MB", fh.Filename, maxUploadSize>>20))
	}
	return apiclient.File{
		Field:       field,
		Name:        fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Data:        data,
	}, nil
}

func isMultipart(c echo.Context) bool {
	return strings.HasPrefix(c.Request().Header.Get(echo.HeaderContentType), echo.MIMEMultipartForm)
}
