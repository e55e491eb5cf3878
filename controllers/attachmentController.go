package controllers

import (
	"io"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// UploadAttachment accepts a multipart file into the scan pipeline
func UploadAttachment(c *gin.Context) {
	p, ok := principalOrAbort(c)
	if !ok {
		return
	}
	id, ok := requestIDParam(c)
	if !ok {
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "A file is required"})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Could not read the uploaded file"})
		return
	}
	defer file.Close()

	ctx, cancel := opContext()
	defer cancel()

	att, err := attachmentService.AcceptUpload(
		ctx, p, id,
		file,
		fileHeader.Size,
		fileHeader.Filename,
		fileHeader.Header.Get("Content-Type"),
		c.PostForm("description"),
	)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, att)
}

// ListAttachments returns attachment metadata for a request
func ListAttachments(c *gin.Context) {
	p, ok := principalOrAbort(c)
	if !ok {
		return
	}
	id, ok := requestIDParam(c)
	if !ok {
		return
	}

	ctx, cancel := opContext()
	defer cancel()

	atts, err := attachmentService.ListForRequest(ctx, p, id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, atts)
}

// DownloadAttachment streams a clean attachment's bytes
func DownloadAttachment(c *gin.Context) {
	p, ok := principalOrAbort(c)
	if !ok {
		return
	}
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid attachment ID"})
		return
	}

	ctx, cancel := opContext()
	defer cancel()

	rc, att, err := attachmentService.OpenDownload(ctx, p, id)
	if err != nil {
		respondError(c, err)
		return
	}
	defer rc.Close()

	c.Header("Content-Disposition", `attachment; filename="`+att.Filename+`"`)
	c.Header("Content-Type", att.MimeType)
	c.Header("Content-Length", strconv.FormatInt(att.Size, 10))
	if _, err := io.Copy(c.Writer, rc); err != nil {
		log.Printf("Attachment download aborted: %v", err)
	}
}
