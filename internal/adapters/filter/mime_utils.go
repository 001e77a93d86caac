package filter

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"mime/quotedprintable"
	"net/mail"
	"strings"

	"github.com/mikey/cybershield/internal/core"
	"golang.org/x/text/encoding/htmlindex"
)

// maxMultipartDepth bounds recursion into nested multipart bodies
const maxMultipartDepth = 8

var wordDecoder = &mime.WordDecoder{CharsetReader: charsetReader}

// Message is a parsed RFC 5322 message
type Message struct {
	Header    mail.Header
	MessageID string
	Record    core.EmailRecord
}

// ParseMessage parses a raw message into an email record. Authentication
// results and the originating IP are read from the trace headers.
func ParseMessage(raw []byte) (*Message, error) {
	msg, err := mail.ReadMessage(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("failed to parse message: %w", err)
	}

	m := &Message{
		Header:    msg.Header,
		MessageID: strings.TrimSpace(msg.Header.Get("Message-Id")),
	}
	rec := &m.Record
	rec.Subject = decodeEncodedHeader(msg.Header.Get("Subject"))
	rec.Sender, rec.SenderName = parseAddress(msg.Header.Get("From"))
	rec.ReplyTo, _ = parseAddress(msg.Header.Get("Reply-To"))
	rec.Recipient = firstAddress(msg.Header.Get("To"))
	rec.SPF, rec.DKIM, rec.DMARC = parseAuthResults(msg.Header)
	rec.IPAddress = originatingIP(msg.Header)

	var text, html strings.Builder
	p := &partCollector{text: &text, html: &html, rec: rec}
	if err := p.walk(msg.Header, msg.Body, 0); err != nil {
		return nil, err
	}
	rec.Body = strings.TrimSpace(text.String())
	rec.HTMLBody = strings.TrimSpace(html.String())
	return m, nil
}

// partHeader is the subset of header access shared by mail and multipart
type partHeader interface {
	Get(key string) string
}

type partCollector struct {
	text *strings.Builder
	html *strings.Builder
	rec  *core.EmailRecord
}

func (p *partCollector) walk(h partHeader, body io.Reader, depth int) error {
	mediaType, params, err := mime.ParseMediaType(h.Get("Content-Type"))
	if err != nil {
		mediaType, params = "text/plain", map[string]string{}
	}

	if strings.HasPrefix(mediaType, "multipart/") {
		boundary := params["boundary"]
		if boundary == "" || depth >= maxMultipartDepth {
			return nil
		}
		mr := multipart.NewReader(body, boundary)
		for {
			part, err := mr.NextPart()
			if err == io.EOF {
				return nil
			}
			if err != nil {
				// Keep what was collected from a truncated or broken body
				return nil
			}
			if err := p.walk(part.Header, part, depth+1); err != nil {
				return err
			}
		}
	}

	if name := attachmentName(h); name != "" {
		p.rec.Attachments = append(p.rec.Attachments, core.Attachment{Name: name, MimeType: mediaType})
		return nil
	}

	switch mediaType {
	case "text/plain":
		p.append(p.text, decodeBody(h, params["charset"], body))
	case "text/html":
		p.append(p.html, decodeBody(h, params["charset"], body))
	}
	return nil
}

func (p *partCollector) append(b *strings.Builder, content string) {
	if content == "" {
		return
	}
	if b.Len() > 0 {
		b.WriteString("\n")
	}
	b.WriteString(content)
}

// attachmentName returns the file name of a part that is an attachment
func attachmentName(h partHeader) string {
	disposition, dparams, err := mime.ParseMediaType(h.Get("Content-Disposition"))
	if err == nil {
		if name := dparams["filename"]; name != "" {
			return decodeEncodedHeader(name)
		}
	}
	if _, cparams, err := mime.ParseMediaType(h.Get("Content-Type")); err == nil {
		if name := cparams["name"]; name != "" {
			return decodeEncodedHeader(name)
		}
	}
	if disposition == "attachment" {
		return "unnamed"
	}
	return ""
}

// decodeBody undoes the transfer encoding and converts the charset to UTF-8
func decodeBody(h partHeader, charset string, body io.Reader) string {
	switch strings.ToLower(strings.TrimSpace(h.Get("Content-Transfer-Encoding"))) {
	case "base64":
		body = base64.NewDecoder(base64.StdEncoding, body)
	case "quoted-printable":
		body = quotedprintable.NewReader(body)
	}

	if r, err := charsetReader(charset, body); err == nil {
		body = r
	}

	content, err := io.ReadAll(body)
	if err != nil && len(content) == 0 {
		return ""
	}
	return string(content)
}

// charsetReader converts input from charset to UTF-8
func charsetReader(charset string, input io.Reader) (io.Reader, error) {
	charset = strings.ToLower(strings.TrimSpace(charset))
	if charset == "" || charset == "utf-8" || charset == "us-ascii" {
		return input, nil
	}
	enc, err := htmlindex.Get(charset)
	if err != nil {
		return nil, fmt.Errorf("unsupported charset %q: %w", charset, err)
	}
	return enc.NewDecoder().Reader(input), nil
}

// decodeEncodedHeader decodes RFC 2047 encoded words. Undecodable values
// are returned as is.
func decodeEncodedHeader(value string) string {
	decoded, err := wordDecoder.DecodeHeader(value)
	if err != nil {
		return value
	}
	return decoded
}

var addressParser = &mail.AddressParser{WordDecoder: wordDecoder}

// parseAddress splits an address header into address and display name
func parseAddress(value string) (string, string) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", ""
	}
	addr, err := addressParser.Parse(value)
	if err != nil {
		return decodeEncodedHeader(value), ""
	}
	return addr.Address, addr.Name
}

func firstAddress(value string) string {
	if strings.TrimSpace(value) == "" {
		return ""
	}
	list, err := addressParser.ParseList(value)
	if err != nil || len(list) == 0 {
		return strings.TrimSpace(value)
	}
	return list[0].Address
}

// ParseHeaderBlock parses a bare header block, as delivered by inbound-parse
// webhooks, into a message with an empty body
func ParseHeaderBlock(block string) (*Message, error) {
	block = strings.TrimRight(block, "\r\n")
	if block == "" {
		return nil, fmt.Errorf("empty header block")
	}
	return ParseMessage([]byte(block + "\r\n\r\n"))
}
