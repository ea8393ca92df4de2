package handlers

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"

	"cloud.google.com/go/storage"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

const (
	maxUploadFiles = 5
	maxUploadSize  = 1 << 20 // 1MB per file
)

var imageTypeRe = regexp.MustCompile(`^image/(jpe?g|gif|png|webp)$`)

type UploadHandler struct {
	Bucket     *storage.BucketHandle
	BucketName string
}

// Upload stores each image under a random object name and returns public
// download URLs carrying a per-object token, the scheme the storefront
// frontend expects.
func (h *UploadHandler) Upload(c echo.Context) error {
	form, err := c.MultipartForm()
	if err != nil {
		return c.JSON(http.StatusBadRequest, Response{Success: false, Message: "invalid multipart form"})
	}
	files := form.File["images"]
	if len(files) == 0 {
		return c.JSON(http.StatusOK, Response{Success: false, Message: "no images provided"})
	}
	if len(files) > maxUploadFiles {
		return c.JSON(http.StatusOK, Response{Success: false, Message: "too many images"})
	}

	ctx := c.Request().Context()
	imgURLs := make([]string, 0, len(files))
	for _, file := range files {
		if file.Size > maxUploadSize {
			return c.JSON(http.StatusOK, Response{Success: false, Message: "image exceeds size limit"})
		}
		contentType := file.Header.Get("Content-Type")
		if !imageTypeRe.MatchString(contentType) {
			return c.JSON(http.StatusOK, Response{Success: false, Message: "unsupported image type"})
		}

		src, err := file.Open()
		if err != nil {
			return c.JSON(http.StatusInternalServerError, Response{Success: false, Message: err.Error()})
		}

		name := objectName()
		downloadToken := uuid.NewString()
		w := h.Bucket.Object(name).NewWriter(ctx)
		w.ContentType = contentType
		w.Metadata = map[string]string{"firebaseStorageDownloadTokens": downloadToken}
		if _, err := io.Copy(w, src); err != nil {
			src.Close()
			w.Close()
			return c.JSON(http.StatusInternalServerError, Response{Success: false, Message: err.Error()})
		}
		src.Close()
		if err := w.Close(); err != nil {
			return c.JSON(http.StatusInternalServerError, Response{Success: false, Message: err.Error()})
		}

		imgURLs = append(imgURLs, fmt.Sprintf(
			"https://firebasestorage.googleapis.com/v0/b/%s/o/%s?alt=media&token=%s",
			h.BucketName, url.PathEscape(name), downloadToken,
		))
	}

	return c.JSON(http.StatusOK, echo.Map{"success": true, "imgUrls": imgURLs})
}

func objectName() string {
	buf := make([]byte, 20)
	_, _ = rand.Read(buf)
	return "products/pet-" + hex.EncodeToString(buf)
}
