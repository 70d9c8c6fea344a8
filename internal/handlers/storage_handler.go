package handlers

import (
	"context"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

const maxUploadSize = 10 << 20

type Uploader interface {
	Upload(ctx context.Context, bucket, key string, data []byte, contentType string) (string, error)
}

type AvatarSetter interface {
	SetAvatar(ctx context.Context, userID, url string) error
}

type StorageHandler struct {
	Storage         Uploader
	Profiles        AvatarSetter
	AvatarsBucket   string
	ChatFilesBucket string
}

type uploadResponse struct {
	URL string `json:"url"`
	Key string `json:"key"`
}

func (h *StorageHandler) UploadAvatar(w http.ResponseWriter, r *http.Request) {
	userID := userIDFrom(r)
	resp, ok := h.upload(w, r, h.AvatarsBucket, userID)
	if !ok {
		return
	}
	if err := h.Profiles.SetAvatar(r.Context(), userID, resp.URL); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (h *StorageHandler) UploadChatFile(w http.ResponseWriter, r *http.Request) {
	resp, ok := h.upload(w, r, h.ChatFilesBucket, userIDFrom(r))
	if !ok {
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (h *StorageHandler) upload(w http.ResponseWriter, r *http.Request, bucket, userID string) (uploadResponse, bool) {
	if h.Storage == nil {
		http.Error(w, "Storage is not configured", http.StatusServiceUnavailable)
		return uploadResponse{}, false
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize+1024)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		http.Error(w, "Invalid multipart form", http.StatusBadRequest)
		return uploadResponse{}, false
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "Missing file", http.StatusBadRequest)
		return uploadResponse{}, false
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		http.Error(w, "Failed to read file", http.StatusBadRequest)
		return uploadResponse{}, false
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = http.DetectContentType(data)
	}

	key := objectKey(userID, header.Filename)
	url, err := h.Storage.Upload(r.Context(), bucket, key, data, contentType)
	if err != nil {
		http.Error(w, "Failed to upload file", http.StatusBadGateway)
		return uploadResponse{}, false
	}
	return uploadResponse{URL: url, Key: key}, true
}

// objectKey returns <user id>/<uuid><ext>.
func objectKey(userID, filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	return userID + "/" + uuid.NewString() + ext
}
