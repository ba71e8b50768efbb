package handlers

import (
	"errors"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/stoiyeet/TravelShare/internal/service"
	"github.com/stoiyeet/TravelShare/internal/storage"
	"github.com/stoiyeet/TravelShare/internal/transport/http/middleware"
	"github.com/stoiyeet/TravelShare/pkg/validator"
)

const maxImageSize = 10 << 20

type CityHandler struct {
	cityService *service.CityService
}

func NewCityHandler(cityService *service.CityService) *CityHandler {
	return &CityHandler{cityService: cityService}
}

func (h *CityHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var groupID *uuid.UUID
	if raw := r.URL.Query().Get("group"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_ID", "Invalid group ID")
			return
		}
		groupID = &id
	}

	cities, err := h.cityService.List(r.Context(), userID, groupID)
	if err != nil {
		h.fail(w, "list cities", err)
		return
	}

	writeJSON(w, http.StatusOK, cities)
}

func (h *CityHandler) Get(w http.ResponseWriter, r *http.Request) {
	cityID, ok := pathID(w, r, "id", "city")
	if !ok {
		return
	}

	city, err := h.cityService.Get(r.Context(), cityID)
	if err != nil {
		h.fail(w, "get city", err)
		return
	}

	writeJSON(w, http.StatusOK, city)
}

func (h *CityHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var input service.CreateCityInput
	if !decodeJSON(w, r, &input) {
		return
	}

	fields := validator.CityFields{CityName: &input.CityName, Country: &input.Country, Notes: &input.Notes, Date: input.Date}
	if input.Position != nil {
		fields.Lat, fields.Lng = &input.Position.Lat, &input.Position.Lng
	}
	if errs := validator.ValidateCity(fields, false); errs.HasErrors() {
		writeValidationErrors(w, errs)
		return
	}

	city, err := h.cityService.Create(r.Context(), userID, input)
	if err != nil {
		h.fail(w, "create city", err)
		return
	}

	writeJSON(w, http.StatusCreated, city)
}

func (h *CityHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	cityID, ok := pathID(w, r, "id", "city")
	if !ok {
		return
	}

	var input service.UpdateCityInput
	if !decodeJSON(w, r, &input) {
		return
	}

	fields := validator.CityFields{CityName: input.CityName, Country: input.Country, Notes: input.Notes, Date: input.Date}
	if input.Position != nil {
		fields.Lat, fields.Lng = &input.Position.Lat, &input.Position.Lng
	}
	if errs := validator.ValidateCity(fields, true); errs.HasErrors() {
		writeValidationErrors(w, errs)
		return
	}

	city, err := h.cityService.Update(r.Context(), userID, cityID, input)
	if err != nil {
		h.fail(w, "update city", err)
		return
	}

	writeJSON(w, http.StatusOK, city)
}

func (h *CityHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	cityID, ok := pathID(w, r, "id", "city")
	if !ok {
		return
	}

	if err := h.cityService.Delete(r.Context(), userID, cityID); err != nil {
		h.fail(w, "delete city", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *CityHandler) Visit(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	cityID, ok := pathID(w, r, "id", "city")
	if !ok {
		return
	}

	city, err := h.cityService.Visit(r.Context(), userID, cityID)
	if err != nil {
		h.fail(w, "visit city", err)
		return
	}

	writeJSON(w, http.StatusOK, city)
}

func (h *CityHandler) UploadImage(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	cityID, ok := pathID(w, r, "id", "city")
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxImageSize+(1<<20))
	if err := r.ParseMultipartForm(maxImageSize); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_UPLOAD", "Expected a multipart form with a file under 10MB")
		return
	}
	headers := r.MultipartForm.File["file"]
	if len(headers) == 0 {
		writeError(w, http.StatusBadRequest, "NO_FILE", "No file uploaded")
		return
	}

	imgs, closeAll, ok := openImages(w, headers[:1])
	if !ok {
		return
	}
	defer closeAll()

	city, err := h.cityService.UploadImage(r.Context(), userID, cityID, imgs[0])
	if err != nil {
		h.fail(w, "upload city image", err)
		return
	}

	writeJSON(w, http.StatusOK, city)
}

func (h *CityHandler) UploadImages(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	cityID, ok := pathID(w, r, "id", "city")
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, service.MaxBatchImages*maxImageSize+(1<<20))
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_UPLOAD", "Expected a multipart form with at most 10 files of 10MB")
		return
	}
	headers := r.MultipartForm.File["files"]
	if len(headers) == 0 {
		writeError(w, http.StatusBadRequest, "NO_FILE", "No files uploaded")
		return
	}
	if len(headers) > service.MaxBatchImages {
		writeError(w, http.StatusBadRequest, "TOO_MANY_FILES", "At most 10 files can be uploaded at once")
		return
	}

	imgs, closeAll, ok := openImages(w, headers)
	if !ok {
		return
	}
	defer closeAll()

	res, err := h.cityService.UploadImages(r.Context(), userID, cityID, imgs)
	if err != nil {
		h.fail(w, "upload city images", err)
		return
	}

	writeJSON(w, http.StatusOK, res)
}

func (h *CityHandler) DeleteImage(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	cityID, ok := pathID(w, r, "id", "city")
	if !ok {
		return
	}

	var body struct {
		ImageURL string `json:"image_url"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}
	if body.ImageURL == "" {
		writeValidationErrors(w, validator.ValidationErrors{"image_url": "Image URL is required"})
		return
	}

	city, err := h.cityService.DeleteImage(r.Context(), userID, cityID, body.ImageURL)
	if err != nil {
		h.fail(w, "delete city image", err)
		return
	}

	writeJSON(w, http.StatusOK, city)
}

func (h *CityHandler) Geocode(w http.ResponseWriter, r *http.Request) {
	pos, err := h.cityService.Geocode(r.Context(), r.URL.Query().Get("address"))
	if err != nil {
		h.fail(w, "geocode", err)
		return
	}

	writeJSON(w, http.StatusOK, pos)
}

func (h *CityHandler) fail(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, service.ErrCityNotFound):
		writeError(w, http.StatusNotFound, "NOT_FOUND", "City not found")
	case errors.Is(err, service.ErrNotCityOwner):
		writeError(w, http.StatusForbidden, "FORBIDDEN", "Only a visitor of this city can change it")
	case errors.Is(err, service.ErrGroupNotFound):
		writeError(w, http.StatusNotFound, "NOT_FOUND", "Group not found")
	case errors.Is(err, service.ErrGroupForbidden):
		writeError(w, http.StatusForbidden, "FORBIDDEN", "You are not a member of this group")
	case errors.Is(err, service.ErrInvalidImageURL):
		writeValidationErrors(w, validator.ValidationErrors{"image_url": "Invalid image URL"})
	case errors.Is(err, service.ErrNoImages), errors.Is(err, service.ErrTooManyImages):
		writeError(w, http.StatusBadRequest, "INVALID_UPLOAD", err.Error())
	case errors.Is(err, service.ErrAddressRequired):
		writeValidationErrors(w, validator.ValidationErrors{"address": "Address is required"})
	case errors.Is(err, service.ErrNoGeocodeResults):
		writeError(w, http.StatusBadRequest, "NO_RESULTS", "Geocoding failed or no results found")
	case errors.Is(err, service.ErrStorageDisabled):
		writeError(w, http.StatusServiceUnavailable, "STORAGE_DISABLED", "Image storage is not configured")
	case errors.Is(err, service.ErrUpstream):
		writeBadGateway(w, op, err)
	default:
		writeInternal(w, op, err)
	}
}

func openImages(w http.ResponseWriter, headers []*multipart.FileHeader) ([]storage.Image, func(), bool) {
	var files []multipart.File
	closeAll := func() {
		for _, f := range files {
			f.Close()
		}
	}

	imgs := make([]storage.Image, 0, len(headers))
	for _, fh := range headers {
		contentType := fh.Header.Get("Content-Type")
		if !strings.HasPrefix(contentType, "image/") {
			closeAll()
			writeError(w, http.StatusBadRequest, "INVALID_FILE_TYPE", "Only image files are allowed")
			return nil, nil, false
		}
		if fh.Size > maxImageSize {
			closeAll()
			writeError(w, http.StatusBadRequest, "FILE_TOO_LARGE", "Images must be 10MB or smaller")
			return nil, nil, false
		}

		f, err := fh.Open()
		if err != nil {
			closeAll()
			writeInternal(w, "open upload", err)
			return nil, nil, false
		}
		files = append(files, f)
		imgs = append(imgs, storage.Image{
			Filename:    fh.Filename,
			ContentType: contentType,
			Size:        fh.Size,
			Body:        f,
		})
	}
	return imgs, closeAll, true
}
