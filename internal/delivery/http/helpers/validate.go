package helpers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// maxBodyBytes bounds request bodies; every payload in this API is a small object.
const maxBodyBytes = 1 << 20

// Messages for request bodies that cannot be decoded.
const (
	MsgBodyRequired  = "Request body is required"
	MsgBodyMalformed = "Malformed JSON body"
	MsgBodyTooLarge  = "Request body is too large"
	MsgBodyTrailing  = "Request body must contain a single JSON object"
)

// Validator is implemented by request DTOs that support validation.
// Validate returns a slice of error messages; nil or empty means valid.
type Validator interface {
	Validate() []string
}

// DecodeAndValidate decodes a single JSON object from the request body into dest,
// rejecting unknown fields, and runs dest's Validate when it has one. Decode failures
// are reported with a client-facing message rather than the decoder's text; repeated
// validation messages are reported once, in order, joined with "; ".
// On failure it writes a 400 JSON error and returns false.
func DecodeAndValidate(w http.ResponseWriter, r *http.Request, dest any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dest); err != nil {
		WriteJSONError(w, http.StatusBadRequest, ErrCodeBadRequest, decodeMessage(err))
		return false
	}
	if dec.More() {
		WriteJSONError(w, http.StatusBadRequest, ErrCodeBadRequest, MsgBodyTrailing)
		return false
	}
	if v, ok := dest.(Validator); ok {
		if errs := uniqueMessages(v.Validate()); len(errs) > 0 {
			WriteJSONError(w, http.StatusBadRequest, ErrCodeBadRequest, strings.Join(errs, "; "))
			return false
		}
	}
	return true
}

func decodeMessage(err error) string {
	var (
		syntaxErr *json.SyntaxError
		typeErr   *json.UnmarshalTypeError
		tooLarge  *http.MaxBytesError
	)
	switch {
	case errors.Is(err, io.EOF):
		return MsgBodyRequired
	case errors.Is(err, io.ErrUnexpectedEOF), errors.As(err, &syntaxErr):
		return MsgBodyMalformed
	case errors.As(err, &typeErr):
		if typeErr.Field == "" {
			return MsgBodyMalformed
		}
		return fmt.Sprintf("Invalid value for field %q", typeErr.Field)
	case errors.As(err, &tooLarge):
		return MsgBodyTooLarge
	}
	// encoding/json has no typed error for unknown fields.
	if field, ok := strings.CutPrefix(err.Error(), "json: unknown field "); ok {
		return "Unknown field " + field
	}
	return MsgBodyMalformed
}

func uniqueMessages(msgs []string) []string {
	seen := make(map[string]struct{}, len(msgs))
	out := msgs[:0:0]
	for _, m := range msgs {
		if _, ok := seen[m]; ok {
			continue
		}
		seen[m] = struct{}{}
		out = append(out, m)
	}
	return out
}
