// Package respond writes and reads JSON bodies over net/http. Bodies are
// produced by the encoder and jsonvalue packages and written verbatim with
// Content-Type application/json.
package respond

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/elnormous/contenttype"

	"github.com/LeoNavel/Squirrel/encoder"
	"github.com/LeoNavel/Squirrel/jsonvalue"
)

// DefaultMaxBody bounds ReadValue.
const DefaultMaxBody = 1 << 20

const contentTypeJSON = "application/json"

var (
	jsonMediaType  = contenttype.NewMediaType(contentTypeJSON)
	jsonMediaTypes = []contenttype.MediaType{jsonMediaType}

	// ErrUnsupportedMediaType is returned by ReadValue for non-JSON bodies.
	ErrUnsupportedMediaType = errors.New("respond: content-type must be application/json")
	// ErrBodyTooLarge is returned by ReadValue when the body exceeds the limit.
	ErrBodyTooLarge = errors.New("respond: body too large")
)

// Object encodes obj with encoder.EncodeBytes and writes it.
func Object(w http.ResponseWriter, status int, obj any) error {
	body, err := encoder.EncodeBytes(obj)
	if err != nil {
		return err
	}
	return write(w, status, body)
}

// Text writes text, which must already be a JSON object or array.
func Text(w http.ResponseWriter, status int, text string) error {
	if !encoder.IsValid(text) {
		return jsonvalue.NewError(jsonvalue.ErrParse, "invalid JSON text", nil)
	}
	return write(w, status, []byte(text))
}

// Value writes v as plain JSON.
func Value(w http.ResponseWriter, status int, v jsonvalue.Value) error {
	body, err := v.MarshalJSON()
	if err != nil {
		return err
	}
	return write(w, status, body)
}

func write(w http.ResponseWriter, status int, body []byte) error {
	h := w.Header()
	h.Set("Content-Type", contentTypeJSON)
	h.Set("Content-Length", strconv.Itoa(len(body)))
	w.WriteHeader(status)
	_, err := w.Write(body)
	return err
}

// AcceptsJSON reports whether the request's Accept header admits JSON. A
// missing header accepts everything.
func AcceptsJSON(r *http.Request) bool {
	_, _, err := contenttype.GetAcceptableMediaType(r, jsonMediaTypes)
	return err == nil
}

// ReadValue parses a JSON request body of at most DefaultMaxBody bytes.
func ReadValue(r *http.Request) (jsonvalue.Value, error) {
	return ReadValueLimit(r, DefaultMaxBody)
}

// ReadValueLimit is ReadValue with an explicit body limit.
func ReadValueLimit(r *http.Request, limit int64) (jsonvalue.Value, error) {
	ctype, err := contenttype.GetMediaType(r)
	if err != nil || !ctype.Matches(jsonMediaType) {
		return jsonvalue.Nil(), ErrUnsupportedMediaType
	}
	if r.Body == nil {
		return jsonvalue.Nil(), jsonvalue.NewError(jsonvalue.ErrParse, "empty body", nil)
	}
	data, err := io.ReadAll(io.LimitReader(r.Body, limit+1))
	if err != nil {
		return jsonvalue.Nil(), fmt.Errorf("respond: read body: %w", err)
	}
	if int64(len(data)) > limit {
		return jsonvalue.Nil(), ErrBodyTooLarge
	}
	return jsonvalue.ParseBytes(data)
}

// Status maps an error from this package, the encoder or jsonvalue to an
// HTTP status code.
func Status(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrUnsupportedMediaType):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, ErrBodyTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, jsonvalue.ErrParse), errors.Is(err, jsonvalue.ErrNotValidContent):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
