package file

import (
	"io"
	"strconv"

	"charity-admin/internal/common/response"

	"github.com/gofiber/fiber/v2"
)

type FileController struct {
	Service FileService
}

func NewFileController(service FileService) *FileController {
	return &FileController{Service: service}
}

const fileLocal = "file"

// Download godoc
// @Summary      Download an uploaded file
// @Description  Streams a member photo, receipt or document. Photos are public; receipts and documents need a token.
// @Tags         files
// @Produce      octet-stream
// @Security     BearerAuth
// @Param        id path string true "File ID"
// @Success      200
// @Failure      401  {object} response.Envelope
// @Failure      404  {object} response.Envelope
// @Router       /api/files/{id} [get]
func (ctrl *FileController) Download(c *fiber.Ctx) error {
	f, rc, err := ctrl.Service.Open(c.UserContext(), c.Params("id"))
	if err != nil {
		return response.Error(c, err)
	}
	if f.Public() {
		return send(c, f, rc)
	}
	rc.Close()
	c.Locals(fileLocal, f)
	return c.Next()
}

// DownloadPrivate streams a file that Download handed on after authentication.
func (ctrl *FileController) DownloadPrivate(c *fiber.Ctx) error {
	f, ok := c.Locals(fileLocal).(*File)
	if !ok {
		return response.Fail(c, fiber.StatusNotFound, "File not found")
	}
	f, rc, err := ctrl.Service.Open(c.UserContext(), f.ID.Hex())
	if err != nil {
		return response.Error(c, err)
	}
	return send(c, f, rc)
}

func send(c *fiber.Ctx, f *File, rc io.ReadCloser) error {
	c.Set(fiber.HeaderContentType, f.MimeType)
	c.Set(fiber.HeaderContentDisposition, "inline; filename="+strconv.Quote(f.OriginalFilename))
	// SendStream closes rc once the body is written.
	return c.SendStream(rc, int(f.Size))
}
