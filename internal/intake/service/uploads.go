package service

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	docmodels "enrollment/internal/document/models"
	"enrollment/internal/intake/messages"
	"enrollment/internal/intake/models"
	"enrollment/pkg/platform/audit"
	"enrollment/pkg/requestcontext"
)

var allowedUploads = map[string]string{
	"application/pdf": ".pdf",
	"image/jpeg":      ".jpg",
	"image/png":       ".png",
}

// fileExtension returns the stored extension for file, or false when the
// content is not an accepted upload type.
func fileExtension(file []byte) (string, bool) {
	ct := http.DetectContentType(file)
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = ct[:i]
	}
	ext, ok := allowedUploads[ct]
	return ext, ok
}

// checkUpload applies the checks every file step shares. A non-nil reply
// means the upload was refused before analysis.
func (m *Machine) checkUpload(ctx context.Context, t *turn, kind docmodels.Kind) *models.Response {
	if _, ok := fileExtension(t.input.File); !ok {
		r := m.reject(ctx, t, messages.UnsupportedFile, nil)
		return &r
	}
	if t.input.DeclaredKind != "" && t.input.DeclaredKind != kind {
		r := m.reject(ctx, t, messages.WrongUploadKind, messages.Vars{"doc": kind.Label()})
		return &r
	}
	return nil
}

// analyze runs the document pipeline for kind. A rejected result comes
// back as a reply carrying the pipeline's reason.
func (m *Machine) analyze(ctx context.Context, t *turn, kind docmodels.Kind) (*docmodels.Result, *models.Response, error) {
	if r := m.checkUpload(ctx, t, kind); r != nil {
		return nil, r, nil
	}

	actx, cancel := context.WithTimeout(ctx, m.timeouts.Document)
	defer cancel()
	result, err := m.pipeline.Analyze(actx, t.input.File, kind, t.sess.Personal.Name, string(t.sess.Language))
	if err != nil {
		return nil, nil, fmt.Errorf("analyze %s: %w", kind, err)
	}
	if !result.Valid {
		m.logger.InfoContext(ctx, "document rejected",
			"session_id", t.sess.ID, "kind", string(kind), "reason", string(result.Reason))
		m.record(t, audit.EventDocumentRejected, "rejected", string(result.Reason))
		r := m.replyText(t, models.ResponseRejection, result.Message)
		return nil, &r, nil
	}
	return result, nil, nil
}

// keep stores file in object storage and records the document on the
// session. A storage failure is a refused upload, not a failed turn.
func (m *Machine) keep(ctx context.Context, t *turn, kind docmodels.Kind, file []byte, fields docmodels.Fields) *models.Response {
	ext, _ := fileExtension(file)
	path := fmt.Sprintf("%s/%s%s", t.sess.ID, kind, ext)

	sctx, cancel := context.WithTimeout(ctx, m.timeouts.Storage)
	defer cancel()
	ref, err := m.objects.Store(sctx, file, path)
	if err != nil {
		m.logger.ErrorContext(ctx, "document upload failed",
			"session_id", t.sess.ID, "kind", string(kind), "error", err)
		r := m.reject(ctx, t, messages.UploadFailed, nil)
		return &r
	}
	t.sess.PutDocument(models.UploadedDocument{
		Kind:       kind,
		Fields:     fields.Clone(),
		Reference:  ref,
		UploadedAt: requestcontext.Now(ctx),
	})
	return nil
}

func withPrompt(r models.Response, prompt string) models.Response {
	if prompt != "" {
		r.Text = r.Text + "\n\n" + prompt
	}
	return r
}
