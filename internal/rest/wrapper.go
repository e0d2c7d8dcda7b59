package rest

import (
	"encoding/json"
	"errors"
	"io"
)

var errNoBody = errors.New("missing request body")

type countWrapper struct {
	io.ReadCloser

	n int
}

func (w *countWrapper) Read(p []byte) (int, error) {
	n, err := w.ReadCloser.Read(p)
	w.n += n

	return n, err
}

// decodeBody decodes a required JSON request body.
func decodeBody(body io.ReadCloser, dest any) error {
	counter := &countWrapper{ReadCloser: body}

	err := json.NewDecoder(counter).Decode(dest)
	if err != nil {
		if counter.n == 0 {
			return errNoBody
		}

		return err
	}

	return nil
}
