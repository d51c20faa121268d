package controller

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"studynotes_backend/internal/service"
	"studynotes_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type FileController struct {
	FileService *service.FileService
}

func NewFileController(fileService *service.FileService) *FileController {
	return &FileController{FileService: fileService}
}

// UpdateFileRequest swagger:model UpdateFileRequest
type UpdateFileRequest struct {
	Filename *string `json:"filename" binding:"omitempty,min=1,max=255"`
	OCR      *string `json:"ocr"`
}

// Upload godoc
// @Summary 上传图片
// @Description multipart 表单，可包含多个文件字段，请求体总大小不超过 10MiB
// @Tags 文件
// @Security ApiKeyAuth
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "图片"
// @Success 200 {object} util.Response{data=object}
// @Failure 400 {object} util.Response "不是图片"
// @Failure 413 {object} util.Response "文件过大"
// @Router /api/files [post]
func (c *FileController) Upload(ctx *gin.Context) {
	ctx.Request.Body = http.MaxBytesReader(ctx.Writer, ctx.Request.Body, util.MaxUploadBytes)

	form, err := ctx.MultipartForm()
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondError(ctx, util.ErrFileTooLarge)
			return
		}
		util.BadRequest(ctx, err.Error())
		return
	}
	defer form.RemoveAll()

	fields := make([]string, 0, len(form.File))
	for field := range form.File {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	var uploads []service.UploadedFile
	for _, field := range fields {
		for _, fh := range form.File[field] {
			f, err := fh.Open()
			if err != nil {
				util.BadRequest(ctx, err.Error())
				return
			}
			data, err := io.ReadAll(f)
			f.Close()
			if err != nil {
				util.BadRequest(ctx, err.Error())
				return
			}
			uploads = append(uploads, service.UploadedFile{Filename: fh.Filename, Data: data})
		}
	}
	if len(uploads) == 0 {
		util.BadRequest(ctx, "no files uploaded")
		return
	}

	results, err := c.FileService.Upload(ctx.Request.Context(), currentUserID(ctx), uploads)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"files": results})
}

// GetFile godoc
// @Summary 下载文件
// @Tags 文件
// @Security ApiKeyAuth
// @Produce image/png,image/jpeg,image/webp,image/gif
// @Param id path int true "文件ID"
// @Success 200 {file} binary
// @Failure 404 {object} util.Response
// @Router /api/files/{id} [get]
func (c *FileController) GetFile(ctx *gin.Context) {
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}
	file, body, err := c.FileService.Open(ctx.Request.Context(), id)
	if err != nil {
		respondError(ctx, err)
		return
	}
	defer body.Close()

	ctx.DataFromReader(http.StatusOK, file.Size, file.ContentType, body, map[string]string{
		"Content-Disposition": util.ContentDisposition("inline", file.Filename),
		"Cache-Control":       fmt.Sprintf("private, max-age=%d", 3600),
	})
}

// UpdateFile godoc
// @Summary 修改文件名或回填 OCR 文本
// @Tags 文件
// @Security ApiKeyAuth
// @Accept json
// @Produce json
// @Param id path int true "文件ID"
// @Param body body UpdateFileRequest true "修改内容"
// @Success 200 {object} util.Response{data=model.File}
// @Failure 403 {object} util.Response
// @Router /api/files/{id} [patch]
func (c *FileController) UpdateFile(ctx *gin.Context) {
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}
	var req UpdateFileRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	file, err := c.FileService.Update(id, currentUserID(ctx), service.UpdateFileInput{
		Filename: req.Filename,
		OCR:      req.OCR,
	})
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, file)
}
