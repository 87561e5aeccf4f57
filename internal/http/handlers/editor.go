package handlers

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/meetingdesk-backend/internal/platform/apierr"
	"github.com/yungbote/meetingdesk-backend/internal/platform/logger"
	"github.com/yungbote/meetingdesk-backend/internal/services"
	"github.com/yungbote/meetingdesk-backend/internal/transcript"
)

//go:embed templates/editor.html
var editorFS embed.FS

var editorTmpl = template.Must(template.New("editor.html").Funcs(template.FuncMap{
	"secs": func(v float64) string { return strconv.FormatFloat(v, 'f', 3, 64) },
}).ParseFS(editorFS, "templates/editor.html"))

const (
	editorActionAdd    = "add"
	editorActionDelete = "delete"
	editorActionBuild  = "build"
	editorActionSave   = "save"
)

// EditorHandler serves the server-rendered transcription editor. Edits stay in
// the form until the save action writes the whole document.
type EditorHandler struct {
	log                  *logger.Logger
	transcriptionService services.TranscriptionService
}

func NewEditorHandler(log *logger.Logger, transcriptionService services.TranscriptionService) *EditorHandler {
	return &EditorHandler{log: log.With("handler", "EditorHandler"), transcriptionService: transcriptionService}
}

type editorView struct {
	Data     *services.TranscriptionData
	Segments []transcript.Segment
	Metadata transcript.Metadata
	Summary  string
	Notice   string
	Error    string
	Dirty    bool
}

// DownloadURL points at the JSON download route; the session cookie carries
// the auth.
func (v *editorView) DownloadURL(part string) string {
	return fmt.Sprintf("/api/artefacts/%s/download?part=%s", v.Data.ID, part)
}

// GET /editor/artefacts/:id
func (h *EditorHandler) Show(c *gin.Context) {
	id, ok := h.editorID(c)
	if !ok {
		return
	}
	data, err := h.transcriptionService.GetTranscriptionData(dbcOf(c), id)
	if err != nil {
		h.renderError(c, err)
		return
	}
	view := &editorView{
		Data:     data,
		Segments: data.Result.Segments,
		Metadata: data.Result.Metadata,
		Summary:  data.Summary,
	}
	if c.Query("saved") == "1" {
		view.Notice = "Saved."
	}
	h.render(c, http.StatusOK, view)
}

// POST /editor/artefacts/:id
// form: action, summary, segment_id (or delete_segment), and parallel seg_*
// arrays for each row.
func (h *EditorHandler) Submit(c *gin.Context) {
	id, ok := h.editorID(c)
	if !ok {
		return
	}
	data, err := h.transcriptionService.GetTranscriptionData(dbcOf(c), id)
	if err != nil {
		h.renderError(c, err)
		return
	}
	summary := c.PostForm("summary")
	view := &editorView{Data: data, Summary: summary, Dirty: true}

	doc, err := documentFromForm(c)
	if err != nil {
		view.Segments = data.Result.Segments
		view.Metadata = data.Result.Metadata
		view.Error = err.Error()
		h.render(c, http.StatusBadRequest, view)
		return
	}

	action := strings.TrimSpace(c.PostForm("action"))
	segmentID := c.PostForm("segment_id")
	if del := c.PostForm("delete_segment"); del != "" {
		action, segmentID = editorActionDelete, del
	}

	status := http.StatusOK
	switch action {
	case editorActionAdd:
		doc.AddSegment()
	case editorActionDelete:
		if !doc.DeleteSegment(segmentID) {
			view.Error = "segment not found"
			status = http.StatusBadRequest
		}
	case editorActionBuild:
		res, err := h.transcriptionService.BuildSegments(dbcOf(c), id)
		if err != nil {
			status, view.Error = editorFailure(err)
			break
		}
		doc = transcript.NewDocument(res)
		view.Notice = fmt.Sprintf("Built %d segments from the provider output. Save to keep them.", doc.Len())
	case editorActionSave:
		_, err := h.transcriptionService.SaveTranscription(dbcOf(c), services.SaveTranscriptionInput{
			ArtefactID: id,
			Result:     doc.Result(),
			Summary:    &summary,
		})
		if err == nil {
			c.Redirect(http.StatusSeeOther, c.Request.URL.Path+"?saved=1")
			return
		}
		status, view.Error = editorFailure(err)
	default:
		status = http.StatusBadRequest
		view.Error = fmt.Sprintf("unknown action %q", action)
	}

	res := doc.Result()
	view.Segments = res.Segments
	view.Metadata = res.Metadata
	h.render(c, status, view)
}

// documentFromForm rebuilds the edited segments from the posted rows. Each row
// goes through UpdateSegment so durations follow the submitted times.
func documentFromForm(c *gin.Context) (*transcript.Document, error) {
	ids := c.PostFormArray("seg_id")
	starts := c.PostFormArray("seg_start")
	ends := c.PostFormArray("seg_end")
	speakers := c.PostFormArray("seg_speaker")
	texts := c.PostFormArray("seg_text")
	n := len(ids)
	if len(starts) != n || len(ends) != n || len(speakers) != n || len(texts) != n {
		return nil, errors.New("segment rows are incomplete")
	}

	segs := make([]transcript.Segment, n)
	for i, segID := range ids {
		if strings.TrimSpace(segID) == "" {
			return nil, fmt.Errorf("segment %d has no id", i+1)
		}
		segs[i] = transcript.Segment{ID: segID}
	}
	doc := transcript.NewDocument(transcript.Result{Segments: segs})
	for i, segID := range ids {
		start, err := parseSeconds(starts[i])
		if err != nil {
			return nil, fmt.Errorf("segment %d start: %w", i+1, err)
		}
		end, err := parseSeconds(ends[i])
		if err != nil {
			return nil, fmt.Errorf("segment %d end: %w", i+1, err)
		}
		speaker, text := speakers[i], texts[i]
		doc.UpdateSegment(segID, transcript.SegmentPatch{Start: &start, End: &end, Speaker: &speaker, Text: &text})
	}
	return doc, nil
}

func parseSeconds(raw string) (float64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("%q is not a number", raw)
	}
	return v, nil
}

func editorFailure(err error) (int, string) {
	status, code := apierr.StatusOf(err)
	if code == "internal_error" {
		return status, "internal server error"
	}
	return status, err.Error()
}

func (h *EditorHandler) editorID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(strings.TrimSpace(c.Param("id")))
	if err != nil {
		c.String(http.StatusBadRequest, "invalid artefact id")
		return uuid.Nil, false
	}
	return id, true
}

func (h *EditorHandler) renderError(c *gin.Context, err error) {
	status, msg := editorFailure(err)
	if status >= http.StatusInternalServerError {
		h.log.Error("editor load failed", "error", err)
	}
	c.String(status, msg)
}

func (h *EditorHandler) render(c *gin.Context, status int, view *editorView) {
	var buf bytes.Buffer
	if err := editorTmpl.Execute(&buf, view); err != nil {
		h.log.Error("editor render failed", "error", err)
		c.String(http.StatusInternalServerError, "internal server error")
		return
	}
	c.Data(status, "text/html; charset=utf-8", buf.Bytes())
}
