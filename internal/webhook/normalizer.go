package webhook

import (
	"mime"
	"strings"

	"github.com/tidwall/gjson"
)

// replyFields are probed in order on JSON object responses.
var replyFields = []string{"reply", "message", "content", "response", "text"}

// Normalizer extracts a reply string from webhook responses. It is pure and
// never returns an empty string.
type Normalizer struct {
	defaultReply string
	fields       []string
}

// NewNormalizer creates a Normalizer falling back to defaultReply, or
// DefaultReply when blank.
func NewNormalizer(defaultReply string) Normalizer {
	if strings.TrimSpace(defaultReply) == "" {
		defaultReply = DefaultReply
	}
	return Normalizer{defaultReply: defaultReply, fields: replyFields}
}

// Normalize returns the first non-blank probed field of a JSON object body,
// else the trimmed body text, else the default reply.
func (n Normalizer) Normalize(resp RawResponse) string {
	if len(resp.Body) == 0 {
		return n.defaultReply
	}

	if isJSON(resp.ContentType) && gjson.ValidBytes(resp.Body) {
		if doc := gjson.ParseBytes(resp.Body); doc.IsObject() {
			for _, field := range n.fields {
				v := doc.Get(field)
				if v.Type != gjson.String {
					continue
				}
				if s := strings.TrimSpace(v.Str); s != "" {
					return s
				}
			}
		}
	}

	if s := strings.TrimSpace(string(resp.Body)); s != "" {
		return s
	}
	return n.defaultReply
}

func isJSON(contentType string) bool {
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return mt == "application/json" || strings.HasSuffix(mt, "+json")
}
