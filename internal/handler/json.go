package handler

import (
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"
)

// maxBodyBytes caps request bodies; the largest legitimate payload is an
// order with a few dozen lines.
const maxBodyBytes = 1 << 20

// timeLayout is the wire format for timestamps.
const timeLayout = time.RFC3339

// writeJSON encodes one object built by fn and writes it with the status.
func writeJSON(w http.ResponseWriter, status int, fn func(e *jx.Encoder)) {
	e := &jx.Encoder{}
	e.Obj(fn)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(e.Bytes())
}

// writeError emits the uniform error body {code, message}.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, func(e *jx.Encoder) {
		e.Field("code", func(e *jx.Encoder) { e.Int(status) })
		e.Field("message", func(e *jx.Encoder) { e.Str(message) })
	})
}

// readBody slurps a size-capped request body for decoding.
func readBody(r *http.Request) ([]byte, error) {
	defer func() { _ = r.Body.Close() }()
	return io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
}

// decodeObj decodes the request body as a single JSON object, dispatching
// fields to fn.
func decodeObj(r *http.Request, fn func(d *jx.Decoder, key string) error) error {
	data, err := readBody(r)
	if err != nil {
		return err
	}
	d := jx.DecodeBytes(data)
	return d.Obj(fn)
}

// decodeDecimal reads a JSON number (or numeric string) as a decimal.
func decodeDecimal(d *jx.Decoder) (decimal.Decimal, error) {
	n, err := d.Num()
	if err != nil {
		return decimal.Decimal{}, err
	}
	return decimal.NewFromString(strings.Trim(n.String(), `"`))
}

// encodeDecimal writes a decimal as a plain JSON number.
func encodeDecimal(e *jx.Encoder, d decimal.Decimal) {
	e.RawStr(d.String())
}
