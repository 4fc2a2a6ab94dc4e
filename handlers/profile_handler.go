package handlers

import (
	"context"
	stderrors "errors"
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"tandem-server/middleware"
	"tandem-server/models"
	"tandem-server/services"
	"tandem-server/utils/errors"
)

// PictureField is the multipart field carrying an uploaded profile picture.
const PictureField = "profilePicture"

// multipartOverhead leaves room for boundaries and headers around the file.
const multipartOverhead = 1 << 20

type ProfileHandler struct {
	profiles       *services.ProfileService
	maxUploadBytes int64
	logger         *zap.Logger
}

type pictureResponse struct {
	Message string          `json:"message"`
	Profile *models.Profile `json:"profile"`
}

func NewProfileHandler(profiles *services.ProfileService, maxUploadBytes int64, logger *zap.Logger) *ProfileHandler {
	return &ProfileHandler{profiles: profiles, maxUploadBytes: maxUploadBytes, logger: logger}
}

func (h *ProfileHandler) Create(w http.ResponseWriter, r *http.Request) {
	accountID, ok := callerID(w, r)
	if !ok {
		return
	}
	var input services.CreateProfileInput
	if !decodeJSON(w, r, &input) {
		return
	}
	profile, err := h.profiles.Create(r.Context(), accountID, input)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	middleware.WriteJSON(w, http.StatusCreated, profile)
}

func (h *ProfileHandler) Me(w http.ResponseWriter, r *http.Request) {
	accountID, ok := callerID(w, r)
	if !ok {
		return
	}
	view, err := h.profiles.Get(r.Context(), accountID)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, view)
}

// Update applies a sparse patch: absent fields are left untouched.
func (h *ProfileHandler) Update(w http.ResponseWriter, r *http.Request) {
	accountID, ok := callerID(w, r)
	if !ok {
		return
	}
	var patch models.ProfileUpdate
	if !decodeJSON(w, r, &patch) {
		return
	}
	profile, err := h.profiles.Update(r.Context(), accountID, patch)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, profile)
}

func (h *ProfileHandler) Delete(w http.ResponseWriter, r *http.Request) {
	accountID, ok := callerID(w, r)
	if !ok {
		return
	}
	if err := h.profiles.Delete(r.Context(), accountID); err != nil {
		middleware.WriteError(w, err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, messageResponse{Message: "Profile deleted successfully"})
}

func (h *ProfileHandler) Follow(w http.ResponseWriter, r *http.Request) {
	h.relate(w, r, h.profiles.Follow, "Followed successfully")
}

func (h *ProfileHandler) Unfollow(w http.ResponseWriter, r *http.Request) {
	h.relate(w, r, h.profiles.Unfollow, "Unfollowed successfully")
}

func (h *ProfileHandler) Block(w http.ResponseWriter, r *http.Request) {
	h.relate(w, r, h.profiles.Block, "Blocked successfully")
}

func (h *ProfileHandler) Unblock(w http.ResponseWriter, r *http.Request) {
	h.relate(w, r, h.profiles.Unblock, "Unblocked successfully")
}

func (h *ProfileHandler) relate(w http.ResponseWriter, r *http.Request, op func(context.Context, string, string) error, message string) {
	accountID, ok := callerID(w, r)
	if !ok {
		return
	}
	if err := op(r.Context(), accountID, mux.Vars(r)["id"]); err != nil {
		middleware.WriteError(w, err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, messageResponse{Message: message})
}

func (h *ProfileHandler) EnableNotifications(w http.ResponseWriter, r *http.Request) {
	h.setNotifications(w, r, true, "Notifications enabled")
}

func (h *ProfileHandler) DisableNotifications(w http.ResponseWriter, r *http.Request) {
	h.setNotifications(w, r, false, "Notifications disabled")
}

func (h *ProfileHandler) setNotifications(w http.ResponseWriter, r *http.Request, enabled bool, message string) {
	accountID, ok := callerID(w, r)
	if !ok {
		return
	}
	if err := h.profiles.SetNotifications(r.Context(), accountID, enabled); err != nil {
		middleware.WriteError(w, err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, messageResponse{Message: message})
}

// UploadPicture accepts a multipart form with the image in PictureField.
func (h *ProfileHandler) UploadPicture(w http.ResponseWriter, r *http.Request) {
	accountID, ok := callerID(w, r)
	if !ok {
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes+multipartOverhead)
	file, _, err := r.FormFile(PictureField)
	if err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case stderrors.As(err, &tooLarge):
			middleware.WriteError(w, errors.ErrFileTooLarge)
		case stderrors.Is(err, http.ErrMissingFile), stderrors.Is(err, http.ErrNotMultipart):
			middleware.WriteError(w, errors.ErrNoFile)
		default:
			middleware.WriteError(w, errors.Wrap(err, errors.ErrInvalidInput.Code, "Malformed upload", http.StatusBadRequest))
		}
		return
	}
	defer file.Close()
	if r.MultipartForm != nil {
		defer func() { _ = r.MultipartForm.RemoveAll() }()
	}

	profile, err := h.profiles.UploadPicture(r.Context(), accountID, file)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	h.logger.Info("Profile picture updated",
		zap.String("account_id", accountID),
		zap.String("picture", profile.ProfilePicture))
	middleware.WriteJSON(w, http.StatusOK, pictureResponse{
		Message: "Profile picture uploaded successfully",
		Profile: profile,
	})
}
