package emulator

import (
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

func storageError(c *gin.Context, status int, short, message string) {
	c.JSON(status, gin.H{
		"statusCode": http.StatusText(status),
		"error":      short,
		"message":    message,
	})
}

func (b *Backend) uploadObject(c *gin.Context) {
	bucket := c.Param("bucket")
	name := strings.TrimPrefix(c.Param("name"), "/")

	if bucket != b.cfg.Bucket {
		storageError(c, http.StatusNotFound, "Bucket not found", "Bucket not found")
		return
	}
	if name == "" {
		storageError(c, http.StatusBadRequest, "Invalid key", "Object name is required")
		return
	}

	data, err := io.ReadAll(io.LimitReader(c.Request.Body, b.cfg.MaxObjectSize+1))
	if err != nil {
		storageError(c, http.StatusBadRequest, "Invalid body", err.Error())
		return
	}
	if len(data) == 0 {
		storageError(c, http.StatusBadRequest, "Empty body", "Object body is empty")
		return
	}
	if int64(len(data)) > b.cfg.MaxObjectSize {
		storageError(c, http.StatusRequestEntityTooLarge, "Payload too large", "The object exceeded the maximum allowed size")
		return
	}

	key := bucket + "/" + name

	b.mutex.Lock()
	if _, exists := b.objects[key]; exists && c.GetHeader("x-upsert") != "true" {
		b.mutex.Unlock()
		storageError(c, http.StatusConflict, "Duplicate", "The resource already exists")
		return
	}
	b.objects[key] = object{contentType: c.ContentType(), data: data}
	b.mutex.Unlock()

	log.WithFields(log.Fields{
		"key":   key,
		"bytes": len(data),
	}).Info("Object stored")

	c.JSON(http.StatusOK, gin.H{"Key": key})
}

func (b *Backend) getPublicObject(c *gin.Context) {
	key := c.Param("bucket") + "/" + strings.TrimPrefix(c.Param("name"), "/")

	b.mutex.RLock()
	obj, exists := b.objects[key]
	b.mutex.RUnlock()

	if !exists {
		storageError(c, http.StatusNotFound, "not_found", "Object not found")
		return
	}

	contentType := obj.contentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	c.Data(http.StatusOK, contentType, obj.data)
}
