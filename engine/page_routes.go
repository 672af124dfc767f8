package engine

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
)

var imageContentTypes = map[string]string{
	"png":  "image/png",
	"jpg":  "image/jpeg",
	"jpeg": "image/jpeg",
	"gif":  "image/gif",
	"tif":  "image/tiff",
	"tiff": "image/tiff",
	"bmp":  "image/bmp",
}

// RenderPage converts one page of an uploaded PDF and returns the image
// @Summary Render a single page
// @Description Upload a PDF as multipart field "pdf" and receive one page as an image
// @Tags Pages
// @Accept multipart/form-data
// @Produce image/png
// @Param pdf formData file true "PDF document"
// @Param page formData int false "1-based page number (default: 1)"
// @Param dpi formData number false "Resolution (default: the configured dpi)"
// @Param format formData string false "Image format (default: the configured format)"
// @Success 200 {file} binary "Page image"
// @Failure 400 {object} map[string]interface{} "Bad request or invalid page number"
// @Failure 422 {object} map[string]interface{} "Document could not be loaded"
// @Failure 503 {object} map[string]interface{} "Rendering not enabled"
// @Router /pages [post]
func (h *StatusHandler) RenderPage(c echo.Context) error {
	if h.Renderer == nil {
		return c.JSON(http.StatusServiceUnavailable, map[string]interface{}{
			"error": "Page rendering is not enabled",
		})
	}

	opts, err := h.pageOptions(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]interface{}{
			"error": err.Error(),
		})
	}
	page := 1
	if pageStr := c.FormValue("page"); pageStr != "" {
		if page, err = strconv.Atoi(pageStr); err != nil {
			return c.JSON(http.StatusBadRequest, map[string]interface{}{
				"error": "Invalid page number",
			})
		}
	}

	file, err := c.FormFile("pdf")
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]interface{}{
			"error": "No PDF file provided",
		})
	}

	workDir, err := os.MkdirTemp("", "pageshot-*")
	if err != nil {
		Logger.Error("Failed to create temp directory", "error", err)
		return c.JSON(http.StatusInternalServerError, map[string]interface{}{
			"error": "Failed to store upload",
		})
	}
	defer os.RemoveAll(workDir)

	docPath := filepath.Join(workDir, uploadName(file.Filename))
	if err := saveUpload(file, docPath); err != nil {
		Logger.Error("Failed to store upload", "filename", file.Filename, "error", err)
		return c.JSON(http.StatusInternalServerError, map[string]interface{}{
			"error": "Failed to store upload",
		})
	}

	ext := opts.Extension()
	outPath := filepath.Join(workDir, "out", OutputFilename(docPath, page, ext))
	Logger.Info("Rendering uploaded page", "filename", file.Filename, "page", page, "format", ext)
	result := ConvertPage(h.Renderer, docPath, page, outPath, opts)
	if !result.Success {
		Logger.Warn("Page render failed", "filename", file.Filename, "page", page, "error", result.Err)
		code := http.StatusInternalServerError
		switch {
		case errors.Is(result.Err, ErrInvalidPageIndex):
			code = http.StatusBadRequest
		case result.PageCount == 0:
			code = http.StatusUnprocessableEntity
		}
		return c.JSON(code, map[string]interface{}{
			"error":     result.ErrorMessage,
			"pageCount": result.PageCount,
		})
	}

	data, err := os.ReadFile(outPath)
	if err != nil {
		Logger.Error("Failed to read rendered page", "path", outPath, "error", err)
		return c.JSON(http.StatusInternalServerError, map[string]interface{}{
			"error": "Failed to read rendered page",
		})
	}
	contentType, ok := imageContentTypes[ext]
	if !ok {
		contentType = echo.MIMEOctetStream
	}
	c.Response().Header().Set("X-Page-Count", strconv.Itoa(result.PageCount))
	return c.Blob(http.StatusOK, contentType, data)
}

// pageOptions overlays the request's form values on the handler's options
func (h *StatusHandler) pageOptions(c echo.Context) (ConversionOptions, error) {
	opts := h.Options
	if opts.DPI <= 0 {
		opts = DefaultOptions()
	}
	if v := c.FormValue("dpi"); v != "" {
		dpi, err := strconv.ParseFloat(v, 64)
		if err != nil || dpi <= 0 {
			return opts, errors.New("dpi must be a positive number")
		}
		opts.DPI = dpi
	}
	if v := c.FormValue("format"); v != "" {
		if _, ok := imageContentTypes[strings.ToLower(strings.TrimPrefix(v, "."))]; !ok {
			return opts, errors.New("unsupported image format")
		}
		opts.Format = v
	}
	for key, target := range map[string]*int{"max-width": &opts.MaxWidth, "max-height": &opts.MaxHeight} {
		if v := c.FormValue(key); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n < 0 {
				return opts, errors.New(key + " must be a non-negative integer")
			}
			*target = n
		}
	}
	return opts, nil
}

// uploadName keeps the uploaded base name so output files are named after it
func uploadName(filename string) string {
	name := filepath.Base(filepath.Clean("/" + filename))
	if name == "/" || name == "." || !documentExtensions[strings.ToLower(filepath.Ext(name))] {
		return "upload.pdf"
	}
	return name
}

func saveUpload(file *multipart.FileHeader, path string) error {
	src, err := file.Open()
	if err != nil {
		return err
	}
	defer src.Close()

	dst, err := os.Create(path)
	if err != nil {
		return err
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		return err
	}
	return dst.Close()
}
