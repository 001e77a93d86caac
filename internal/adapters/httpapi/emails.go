package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"regexp"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/mikey/cybershield/internal/adapters/filter"
	"github.com/mikey/cybershield/internal/core"
	"go.uber.org/zap"
)

var namedAddressRE = regexp.MustCompile(`^(.*?)\s*<(.+?)>$`)

func (s *Server) analyzeEmail(w http.ResponseWriter, r *http.Request) {
	var rec core.EmailRecord
	if !decodeJSON(w, r, &rec) {
		return
	}
	analysis, err := s.service.AnalyzeEmail(r.Context(), &rec)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, analysis)
}

// envelope is the JSON envelope field of an inbound-parse webhook
type envelope struct {
	SPF    string `json:"spf"`
	DKIM   string `json:"dkim"`
	DMARC  string `json:"dmarc"`
	FromIP string `json:"from_ip"`
}

type webhookResponse struct {
	ID          string `json:"id"`
	MessageID   string `json:"messageId"`
	IsPhishing  bool   `json:"isPhishing"`
	RiskScore   int    `json:"riskScore"`
	Quarantined bool   `json:"quarantined"`
	Duplicate   bool   `json:"duplicate,omitempty"`
}

func (s *Server) emailWebhook(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := r.ParseMultipartForm(maxBodyBytes); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		jsonError(w, "invalid form body", http.StatusBadRequest)
		return
	}

	from := strings.TrimSpace(r.FormValue("from"))
	to := strings.TrimSpace(r.FormValue("to"))
	subject := r.FormValue("subject")
	body := r.FormValue("text")
	if from == "" || to == "" || subject == "" || body == "" {
		jsonError(w, "missing required email fields", http.StatusBadRequest)
		return
	}

	sender, senderName := splitNamedAddress(from)
	rec := core.EmailRecord{
		Sender:     sender,
		SenderName: senderName,
		Subject:    subject,
		Body:       body,
		HTMLBody:   r.FormValue("html"),
		Recipient:  to,
	}

	var env envelope
	if raw := r.FormValue("envelope"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &env); err != nil {
			s.logger.Debug("Ignoring malformed webhook envelope", zap.Error(err))
		}
	}
	rec.SPF = core.ParseAuthResult(env.SPF)
	rec.DKIM = core.ParseAuthResult(env.DKIM)
	rec.DMARC = core.ParseAuthResult(env.DMARC)
	rec.IPAddress = env.FromIP

	var messageID string
	if raw := r.FormValue("headers"); raw != "" {
		if hdr, err := filter.ParseHeaderBlock(raw); err == nil {
			messageID = hdr.MessageID
			fillFromHeaders(&rec, hdr.Record)
		} else {
			s.logger.Debug("Ignoring malformed webhook headers", zap.Error(err))
		}
	}

	stored, err := s.service.ProcessEmail(r.Context(), &core.IncomingEmail{
		MessageID: messageID,
		Source:    core.SourceWebhook,
		Record:    rec,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, webhookResponse{
		ID:          stored.ID,
		MessageID:   stored.MessageID,
		IsPhishing:  stored.Analysis.IsPhishing,
		RiskScore:   stored.Analysis.RiskScore,
		Quarantined: stored.Quarantined,
		Duplicate:   stored.Duplicate,
	})
}

// splitNamedAddress splits "Name <addr>" into address and name
func splitNamedAddress(from string) (string, string) {
	m := namedAddressRE.FindStringSubmatch(from)
	if m == nil {
		return from, ""
	}
	return m[2], strings.Trim(strings.TrimSpace(m[1]), `"`)
}

// fillFromHeaders copies authentication details the envelope did not supply
func fillFromHeaders(rec *core.EmailRecord, hdr core.EmailRecord) {
	if rec.SPF == core.AuthAbsent {
		rec.SPF = hdr.SPF
	}
	if rec.DKIM == core.AuthAbsent {
		rec.DKIM = hdr.DKIM
	}
	if rec.DMARC == core.AuthAbsent {
		rec.DMARC = hdr.DMARC
	}
	if rec.IPAddress == "" {
		rec.IPAddress = hdr.IPAddress
	}
	if rec.ReplyTo == "" {
		rec.ReplyTo = hdr.ReplyTo
	}
}

func (s *Server) listEmails(w http.ResponseWriter, r *http.Request) {
	limit, ok := queryLimit(w, r)
	if !ok {
		return
	}
	s.writeEmails(w, r, core.EmailQuery{Limit: limit})
}

func (s *Server) listEmailsByVerdict(w http.ResponseWriter, r *http.Request) {
	var phishing bool
	switch chi.URLParam(r, "status") {
	case "true":
		phishing = true
	case "false":
	default:
		jsonError(w, "status must be true or false", http.StatusBadRequest)
		return
	}
	limit, ok := queryLimit(w, r)
	if !ok {
		return
	}
	s.writeEmails(w, r, core.EmailQuery{Phishing: &phishing, Limit: limit})
}

func (s *Server) writeEmails(w http.ResponseWriter, r *http.Request, q core.EmailQuery) {
	emails, err := s.service.ListEmails(r.Context(), q)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if emails == nil {
		emails = []*core.StoredEmail{}
	}
	writeJSON(w, http.StatusOK, emails)
}

func (s *Server) getEmail(w http.ResponseWriter, r *http.Request) {
	email, err := s.service.GetEmail(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, email)
}

type quarantineRequest struct {
	Quarantined *bool `json:"quarantined"`
}

func (s *Server) setQuarantine(w http.ResponseWriter, r *http.Request) {
	var req quarantineRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil || req.Quarantined == nil {
		jsonError(w, "quarantined must be a boolean", http.StatusBadRequest)
		return
	}
	email, err := s.service.SetQuarantine(r.Context(), chi.URLParam(r, "id"), *req.Quarantined)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, email)
}

func (s *Server) reanalyzeEmail(w http.ResponseWriter, r *http.Request) {
	email, err := s.service.ReanalyzeEmail(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, email)
}
