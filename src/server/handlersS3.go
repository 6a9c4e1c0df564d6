package server

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
)

const imageFormField = "image"

// UploadRecipeImage stores the multipart "image" file as the recipe image.
func (h *Handler) UploadRecipeImage(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.config.Server.MaxUploadBytes)

	// Parse the form data, including the uploaded file
	file, header, err := c.Request.FormFile(imageFormField)
	if err != nil {
		ImageUploadsTotal.WithLabelValues("rejected").Inc()
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			abortWithError(c, http.StatusBadRequest, fmt.Sprintf("image exceeds %d bytes", tooLarge.Limit))
			return
		}
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("can not find image in request: %v", err))
		return
	}
	defer file.Close()

	// Read the file into a buffer
	var buffer bytes.Buffer
	if _, err := io.Copy(&buffer, file); err != nil {
		ImageUploadsTotal.WithLabelValues("failed").Inc()
		respondError(c, fmt.Errorf("failed to read file: %w", err))
		return
	}

	recipe, err := h.images.Upload(c.Request.Context(), currentUser(c).ID, id, buffer.Bytes(), header.Filename)
	if err != nil {
		ImageUploadsTotal.WithLabelValues("failed").Inc()
		respondError(c, err)
		return
	}
	ImageUploadsTotal.WithLabelValues("stored").Inc()
	c.JSON(http.StatusOK, recipeImageResponse{
		ID:    recipe.ID,
		Image: h.images.URL(c.Request.Context(), recipe.Image),
	})
}
