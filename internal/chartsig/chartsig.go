// Package chartsig builds and verifies the signed, self-describing chart image URLs.
//
// A chart URL carries every parameter needed to redraw the chart plus a short
// HMAC signature over the canonical form of those parameters. The canonical form
// is the form-urlencoded query with keys sorted, so any client that rebuilds it
// the same way produces the same bytes.
package chartsig

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/bytedance/sonic"

	"github.com/ougirez/premiums/internal/chart"
	"github.com/ougirez/premiums/internal/pkg/logger"
)

const (
	sigLength = 16

	keySig  = "sig"
	keyType = "type"

	imagePath = "/charts/img"
)

var ErrEmptySecret = errors.New("chart signing secret is empty")

type Signer struct {
	secret  []byte
	baseURL string
}

func NewSigner(secret, baseURL string) (*Signer, error) {
	if secret == "" {
		return nil, ErrEmptySecret
	}
	return &Signer{
		secret:  []byte(secret),
		baseURL: strings.TrimRight(baseURL, "/"),
	}, nil
}

// Sign returns the first 16 hex characters of HMAC-SHA256(secret, query).
func (s *Signer) Sign(query string) string {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(query))
	return hex.EncodeToString(mac.Sum(nil))[:sigLength]
}

// URL returns the signed image URL for a chart of the given kind.
func (s *Signer) URL(kind chart.Kind, p Params) string {
	fields := p.fields()
	fields[keyType] = kind.String()

	query := Canonical(fields)
	return s.baseURL + imagePath + "?" + query + "&" + keySig + "=" + s.Sign(query)
}

// Verify checks the signature of an incoming query and decodes its parameters.
// Only the first value of each key is considered.
func (s *Signer) Verify(ctx context.Context, values url.Values) (Token, bool) {
	sig := values.Get(keySig)
	if sig == "" {
		logger.Warnf(ctx, "chart url without signature")
		return Token{}, false
	}

	fields := make(map[string]any, len(values))
	for key, vs := range values {
		if key == keySig || len(vs) == 0 {
			continue
		}
		fields[key] = vs[0]
	}

	expected := s.Sign(Canonical(fields))
	if !hmac.Equal([]byte(sig), []byte(expected)) {
		logger.Warnf(ctx, "chart url signature mismatch")
		return Token{}, false
	}

	kind, ok := chart.ParseKind(values.Get(keyType))
	if !ok {
		logger.Warnf(ctx, "chart url with unknown type %q", values.Get(keyType))
		return Token{}, false
	}

	return Token{Kind: kind, Params: parseParams(values)}, true
}

// Canonical serializes fields in sorted key order. Nil values are skipped, maps
// and slices are encoded as compact JSON with sorted keys, scalars as their plain
// string form.
func Canonical(fields map[string]any) string {
	keys := make([]string, 0, len(fields))
	for k, v := range fields {
		if v == nil {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for i, k := range keys {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(formEscape(k))
		b.WriteByte('=')
		b.WriteString(formEscape(stringify(fields[k])))
	}
	return b.String()
}

func stringify(v any) string {
	switch v := v.(type) {
	case string:
		return v
	case *string:
		return *v
	case bool:
		return strconv.FormatBool(v)
	case *bool:
		return strconv.FormatBool(*v)
	case int:
		return strconv.Itoa(v)
	case *int:
		return strconv.Itoa(*v)
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		raw, err := sonic.ConfigStd.Marshal(v)
		if err != nil {
			return ""
		}
		return string(raw)
	}
}

// formEscape follows the application/x-www-form-urlencoded serializer used by
// browsers: alphanumerics and *-._ pass through, space becomes '+', every other
// byte is percent encoded in upper case. url.QueryEscape differs on '*' and '~'.
func formEscape(s string) string {
	const hexDigits = "0123456789ABCDEF"

	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9',
			c == '*', c == '-', c == '.', c == '_':
			b.WriteByte(c)
		case c == ' ':
			b.WriteByte('+')
		default:
			b.WriteByte('%')
			b.WriteByte(hexDigits[c>>4])
			b.WriteByte(hexDigits[c&0x0f])
		}
	}
	return b.String()
}
