package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/copple/planner/internal/ctxkeys"
	"github.com/copple/planner/internal/model"
	"github.com/copple/planner/internal/service"
	"github.com/copple/planner/internal/validation"
)

const (
	maxJSONBody     = 1 << 20 // 1MB
	multipartMemory = 8 << 20
	maxCookieValue  = 4000
)

// recordInput is the create body shared by every kind. Fields a kind does not
// carry are ignored.
type recordInput struct {
	Title         string   `json:"title"`
	StartDatetime string   `json:"startDatetime"`
	EndDatetime   string   `json:"endDatetime"`
	Offset        *float64 `json:"offset"`
	GoalRef       *string  `json:"goal"`
	Location      *string  `json:"location"`
	Content       *string  `json:"content"`
}

// RecordHandler serves the create/read/update/delete routes of one kind.
type RecordHandler struct {
	kind           model.Kind
	recordService  *service.RecordService
	uploadMaxBytes int64
	secureCookie   bool
}

func NewRecordHandler(kind model.Kind, recordService *service.RecordService, uploadMaxBytes int64, secureCookie bool) *RecordHandler {
	return &RecordHandler{
		kind:           kind,
		recordService:  recordService,
		uploadMaxBytes: uploadMaxBytes,
		secureCookie:   secureCookie,
	}
}

func (h *RecordHandler) Create(w http.ResponseWriter, r *http.Request) {
	identity := ctxkeys.Identity(r.Context())
	if identity == nil {
		writeError(w, r, service.ErrMissingCredential)
		return
	}

	var (
		rec   model.Record
		asset *service.Asset
		err   error
	)
	if h.kind == model.KindGoal {
		var cleanup func()
		rec, asset, cleanup, err = h.parseGoalForm(w, r)
		if cleanup != nil {
			defer cleanup()
		}
	} else {
		rec, err = h.parseJSON(w, r)
	}
	if err != nil {
		writeError(w, r, err)
		return
	}

	created, err := h.recordService.Create(r.Context(), identity.OwnerID, rec, asset)
	if err != nil {
		writeError(w, r, err)
		return
	}

	h.setEchoCookie(w, created)

	slog.Info("record created", "kind", h.kind, "record_id", created.Common().ID, "user_id", identity.OwnerID)
	writeJSON(w, http.StatusOK, createdResponse{
		EventID: created.Common().ID,
		Message: fmt.Sprintf("%s created successfully.", h.kind),
	})
}

func (h *RecordHandler) List(w http.ResponseWriter, r *http.Request) {
	identity := ctxkeys.Identity(r.Context())
	if identity == nil {
		writeError(w, r, service.ErrMissingCredential)
		return
	}

	records, err := h.recordService.Records(r.Context(), identity.OwnerID, h.kind)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if records == nil {
		records = []model.Record{}
	}

	writeJSON(w, http.StatusOK, records)
}

func (h *RecordHandler) Read(w http.ResponseWriter, r *http.Request) {
	identity := ctxkeys.Identity(r.Context())
	if identity == nil {
		writeError(w, r, service.ErrMissingCredential)
		return
	}

	rec, err := h.recordService.ByID(r.Context(), identity.OwnerID, h.kind, r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, rec)
}

func (h *RecordHandler) Update(w http.ResponseWriter, r *http.Request) {
	identity := ctxkeys.Identity(r.Context())
	if identity == nil {
		writeError(w, r, service.ErrMissingCredential)
		return
	}

	var patch model.Patch
	err := decodeJSON(w, r, &patch)
	if err != nil {
		writeError(w, r, err)
		return
	}

	id := r.PathValue("id")
	err = h.recordService.Update(r.Context(), identity.OwnerID, h.kind, id, patch)
	if err != nil {
		writeError(w, r, err)
		return
	}

	slog.Info("record updated", "kind", h.kind, "record_id", id, "user_id", identity.OwnerID)
	writeJSON(w, http.StatusOK, messageResponse{Message: fmt.Sprintf("%s updated successfully.", h.kind)})
}

func (h *RecordHandler) Delete(w http.ResponseWriter, r *http.Request) {
	identity := ctxkeys.Identity(r.Context())
	if identity == nil {
		writeError(w, r, service.ErrMissingCredential)
		return
	}

	id := r.PathValue("id")
	err := h.recordService.Delete(r.Context(), identity.OwnerID, h.kind, id)
	if err != nil {
		writeError(w, r, err)
		return
	}

	slog.Info("record deleted", "kind", h.kind, "record_id", id, "user_id", identity.OwnerID)
	writeJSON(w, http.StatusOK, messageResponse{Message: fmt.Sprintf("%s deleted successfully.", h.kind)})
}

func (h *RecordHandler) parseJSON(w http.ResponseWriter, r *http.Request) (model.Record, error) {
	var in recordInput
	err := decodeJSON(w, r, &in)
	if err != nil {
		return nil, err
	}
	return in.record(h.kind)
}

// parseGoalForm reads the multipart goal form. The returned cleanup closes the
// image and removes temporary files and must be called once the asset is used.
func (h *RecordHandler) parseGoalForm(w http.ResponseWriter, r *http.Request) (model.Record, *service.Asset, func(), error) {
	r.Body = http.MaxBytesReader(w, r.Body, h.uploadMaxBytes+maxJSONBody)

	err := r.ParseMultipartForm(multipartMemory)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("%w: invalid multipart form: %w", service.ErrInvalidInput, err)
	}
	form := r.MultipartForm
	cleanup := func() {
		removeErr := form.RemoveAll()
		if removeErr != nil {
			slog.Warn("failed to remove multipart temp files", "error", removeErr)
		}
	}

	values := url.Values(form.Value)
	in := recordInput{
		Title:         values.Get("title"),
		StartDatetime: values.Get("startDatetime"),
		EndDatetime:   values.Get("endDatetime"),
		Location:      formOptional(form, "location"),
		Content:       formOptional(form, "content"),
	}
	if raw := formOptional(form, "offset"); raw != nil {
		offset, parseErr := strconv.ParseFloat(strings.TrimSpace(*raw), 64)
		if parseErr != nil {
			return nil, nil, cleanup, fmt.Errorf("%w: offset must be a number", service.ErrInvalidInput)
		}
		in.Offset = &offset
	}

	rec, err := in.record(h.kind)
	if err != nil {
		return nil, nil, cleanup, err
	}

	headers := form.File["image"]
	if len(headers) == 0 {
		return nil, nil, cleanup, fmt.Errorf("%w: image is required", service.ErrInvalidInput)
	}
	header := headers[0]

	err = validation.ValidateFile(header, validation.ImageConstraints.WithMaxSize(h.uploadMaxBytes))
	if err != nil {
		return nil, nil, cleanup, fmt.Errorf("%w: %w", service.ErrInvalidInput, err)
	}

	contentType, err := validation.DetectContentType(header)
	if err != nil {
		return nil, nil, cleanup, fmt.Errorf("%w: %w", service.ErrInvalidInput, err)
	}

	file, err := header.Open()
	if err != nil {
		return nil, nil, cleanup, fmt.Errorf("%w: failed to open image: %w", service.ErrInvalidInput, err)
	}

	asset := &service.Asset{Body: file, Filename: header.Filename, ContentType: contentType}
	return rec, asset, func() {
		_ = file.Close()
		cleanup()
	}, nil
}

// setEchoCookie hands the created record back to the client as URL-escaped
// JSON in <kind>Data.
func (h *RecordHandler) setEchoCookie(w http.ResponseWriter, rec model.Record) {
	data, err := json.Marshal(rec)
	if err != nil {
		slog.Error("failed to encode echo cookie", "error", err, "record_id", rec.Common().ID)
		return
	}

	value := escapeCookieValue(string(data))
	if len(value) > maxCookieValue {
		slog.Warn("echo cookie too large, skipping", "record_id", rec.Common().ID, "size", len(value))
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     h.kind.Slug() + "Data",
		Value:    value,
		Path:     "/",
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
}

func (in recordInput) record(kind model.Kind) (model.Record, error) {
	base := model.Base{
		Title:    in.Title,
		Location: in.Location,
		Content:  in.Content,
	}

	schedule := func() (model.Schedule, error) {
		if in.Offset == nil {
			return model.Schedule{}, fmt.Errorf("%w: offset is required", service.ErrInvalidInput)
		}
		return model.Schedule{
			StartDatetime: in.StartDatetime,
			EndDatetime:   in.EndDatetime,
			Offset:        *in.Offset,
		}, nil
	}

	switch kind {
	case model.KindGoal:
		s, err := schedule()
		if err != nil {
			return nil, err
		}
		return &model.Goal{Base: base, Schedule: s}, nil
	case model.KindEvent:
		s, err := schedule()
		if err != nil {
			return nil, err
		}
		return &model.Event{Base: base, Schedule: s, GoalRef: in.GoalRef}, nil
	case model.KindTodo:
		return &model.Todo{Base: base, GoalRef: in.GoalRef}, nil
	}
	return nil, fmt.Errorf("unknown record kind %q", kind)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)

	err := json.NewDecoder(r.Body).Decode(v)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return fmt.Errorf("%w: request body too large", service.ErrInvalidInput)
		}
		return fmt.Errorf("%w: malformed JSON body", service.ErrInvalidInput)
	}
	return nil
}

// escapeCookieValue percent-encodes s so that decodeURIComponent restores
// it. Spaces become %20, not +.
func escapeCookieValue(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}

func formOptional(form *multipart.Form, name string) *string {
	values, ok := form.Value[name]
	if !ok || len(values) == 0 {
		return nil
	}
	return &values[0]
}
