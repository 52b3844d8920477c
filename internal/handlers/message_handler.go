package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"github.com/Dias221467/teachmate/internal/devserver"
	"github.com/Dias221467/teachmate/pkg/logger"
)

// maxUploadSize bounds the whole body of one multipart message.
var maxUploadSize int64 = 32 << 20

type MessageHandler struct {
	Backend *devserver.Backend
}

func NewMessageHandler(backend *devserver.Backend) *MessageHandler {
	return &MessageHandler{Backend: backend}
}

// SendMessageHandler accepts either a JSON body or multipart/form-data with
// "content", "clientId" and any number of "files" parts.
func (h *MessageHandler) SendMessageHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	threadID := mux.Vars(r)["id"]

	var in devserver.NewMessage
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		parsed, err := readMultipart(w, r)
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondFail(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("Message exceeds %d bytes", tooLarge.Limit))
			return
		}
		if err != nil {
			logger.Log.WithError(err).Warn("Failed to read multipart message")
			respondFail(w, http.StatusBadRequest, "Invalid multipart payload")
			return
		}
		in = parsed
	} else {
		var body struct {
			Content  string `json:"content"`
			ClientID string `json:"clientId"`
		}
		if !decode(w, r, &body) {
			return
		}
		in = devserver.NewMessage{Content: body.Content, ClientID: body.ClientID}
	}

	msg, err := h.Backend.SendMessage(userID, threadID, in)
	if err != nil {
		respondError(w, err)
		return
	}
	logger.Log.WithField("threadID", threadID).WithField("files", len(in.Files)).Info("Message sent")
	respondData(w, http.StatusCreated, msg)
}

func readMultipart(w http.ResponseWriter, r *http.Request) (devserver.NewMessage, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		return devserver.NewMessage{}, err
	}
	in := devserver.NewMessage{
		Content:  r.FormValue("content"),
		ClientID: r.FormValue("clientId"),
	}
	for _, fh := range r.MultipartForm.File["files"] {
		f, err := fh.Open()
		if err != nil {
			return devserver.NewMessage{}, fmt.Errorf("failed to open %s: %w", fh.Filename, err)
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			return devserver.NewMessage{}, fmt.Errorf("failed to read %s: %w", fh.Filename, err)
		}
		mime := fh.Header.Get("Content-Type")
		if mime == "application/octet-stream" {
			mime = ""
		}
		in.Files = append(in.Files, devserver.Upload{Name: fh.Filename, MimeType: mime, Data: data})
	}
	return in, nil
}

func (h *MessageHandler) DeleteMessageHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	id := mux.Vars(r)["id"]
	if err := h.Backend.DeleteMessage(userID, id); err != nil {
		respondError(w, err)
		return
	}
	logger.Log.Infof("User %s deleted message %s", userID, id)
	respondMessage(w, "Message deleted")
}

// GetFileHandler serves an uploaded attachment. File URLs are public so they
// can be embedded directly.
func (h *MessageHandler) GetFileHandler(w http.ResponseWriter, r *http.Request) {
	f, err := h.Backend.File(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, err)
		return
	}
	w.Header().Set("Content-Type", f.MimeType)
	w.Header().Set("Content-Length", strconv.Itoa(len(f.Data)))
	w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=%q", f.Name))
	if _, err := w.Write(f.Data); err != nil {
		logger.Log.WithError(err).Warn("Failed to write file")
	}
}
