package handler

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"interviewapi/internal/auth"
	"interviewapi/internal/model"
	"interviewapi/internal/service"
)

// UploadFile stores a multipart upload (field "file").
// @Summary Upload file
// @Tags files
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param file formData file true "File"
// @Param file_type formData string false "audio, video, image or document"
// @Param session_id formData string false "Interview session ID"
// @Success 201 {object} UploadResponse
// @Failure 400 {object} errorPayload
// @Router /api/v1/files/upload [post]
func UploadFile(svc service.FileService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		fh, err := c.FormFile("file")
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "FILE_REQUIRED", "file is required")
		}

		f, err := fh.Open()
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "FILE_OPEN_ERROR", "cannot open uploaded file")
		}
		defer f.Close()

		ct := fh.Header.Get("Content-Type")
		if ct == "" {
			ct = "application/octet-stream"
		}

		meta, err := svc.Upload(c.UserContext(), auth.UserFrom(c).ID, service.UploadInput{
			Reader:      f,
			Filename:    fh.Filename,
			ContentType: ct,
			Size:        fh.Size,
			FileType:    formOrQuery(c, "file_type", model.FileTypeDocument),
			SessionID:   formOrQuery(c, "session_id", ""),
		})
		if err != nil {
			return err
		}
		return c.Status(fiber.StatusCreated).JSON(UploadResponse{
			FileID:   meta.FileID,
			Filename: meta.OriginalFilename,
			FileType: meta.FileType,
			FileSize: meta.FileSize,
			MimeType: meta.MimeType,
			Storage:  meta.StorageType,
			Status:   "uploaded",
		})
	}
}

// ListFiles returns the caller's files with limit & offset.
// @Summary List files
// @Tags files
// @Produce json
// @Security BearerAuth
// @Param limit query int false "Page size" default(10)
// @Param offset query int false "Offset" default(0)
// @Success 200 {object} service.FileListResult
// @Router /api/v1/files/files [get]
func ListFiles(svc service.FileService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		limit, err := strconv.Atoi(c.Query("limit", "10"))
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_LIMIT", "invalid limit")
		}
		offset, err := strconv.Atoi(c.Query("offset", "0"))
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_OFFSET", "invalid offset")
		}

		res, err := svc.List(c.UserContext(), auth.UserFrom(c).ID, limit, offset)
		if err != nil {
			return err
		}
		return c.JSON(res)
	}
}

// GetFile returns one file's metadata.
// @Summary File info
// @Tags files
// @Produce json
// @Security BearerAuth
// @Param id path string true "File ID (UUID)"
// @Success 200 {object} model.FileMetadata
// @Failure 404 {object} errorPayload
// @Router /api/v1/files/files/{id} [get]
func GetFile(svc service.FileService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		meta, err := svc.Get(c.UserContext(), auth.UserFrom(c).ID, id)
		if err != nil {
			return err
		}
		return c.JSON(meta)
	}
}

// DownloadFile returns a time-limited link to the stored object.
// @Summary File download link
// @Tags files
// @Produce json
// @Security BearerAuth
// @Param id path string true "File ID (UUID)"
// @Success 200 {object} DownloadResponse
// @Failure 404 {object} errorPayload
// @Router /api/v1/files/files/{id}/download [get]
func DownloadFile(svc service.FileService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		u, err := svc.DownloadURL(c.UserContext(), auth.UserFrom(c).ID, id)
		if err != nil {
			return err
		}
		return c.JSON(DownloadResponse{
			FileID:      id,
			DownloadURL: u,
			ExpiresIn:   int(service.DownloadURLExpiry.Seconds()),
		})
	}
}

// DeleteFile removes a file from storage and the database.
// @Summary Delete file
// @Tags files
// @Produce json
// @Security BearerAuth
// @Param id path string true "File ID (UUID)"
// @Success 200 {object} MessageResponse
// @Failure 404 {object} errorPayload
// @Router /api/v1/files/files/{id} [delete]
func DeleteFile(svc service.FileService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		if err := svc.Delete(c.UserContext(), auth.UserFrom(c).ID, id); err != nil {
			return err
		}
		return c.JSON(MessageResponse{Message: "File deleted successfully"})
	}
}

func formOrQuery(c *fiber.Ctx, key, def string) string {
	if v := c.FormValue(key); v != "" {
		return v
	}
	return c.Query(key, def)
}
